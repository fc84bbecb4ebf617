package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/internal/model"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoadSeed(t *testing.T) {
	path := writeSeed(t, `sources:
  - name: "Хабр"
    url: "https://habr.com/ru/rss/all/all/"
    category: TECHNOLOGY
    language: ru
  - name: "Минимальный"
    url: "https://example.com/rss"
`)

	sources, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "Хабр", sources[0].Name)
	assert.Equal(t, model.CategoryTechnology, sources[0].Category)
	assert.True(t, sources[0].Active)

	// значения по умолчанию
	assert.Equal(t, model.CategoryGeneral, sources[1].Category)
	assert.Equal(t, "ru", sources[1].Language)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSeedMalformedYAML(t *testing.T) {
	path := writeSeed(t, "sources: [broken")

	_, err := LoadSeed(path)
	assert.Error(t, err)
}
