package source

import (
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"newshub/internal/model"
)

// SeedConfig is the YAML bootstrap list of feed sources
// sources:
//   - name: ...
//     url: https://...
//     category: GENERAL
//     language: ru
type SeedConfig struct {
	Sources []seedSource `yaml:"sources"`
}

type seedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Language string `yaml:"language"`
}

// LoadSeed reads the bootstrap source list from a YAML file. Seeded
// sources are active; category defaults to GENERAL and language to ru.
func LoadSeed(path string) ([]model.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SeedConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	return lo.Map(cfg.Sources, func(s seedSource, _ int) model.Source {
		category := model.Category(s.Category)
		if category == "" {
			category = model.CategoryGeneral
		}

		language := s.Language
		if language == "" {
			language = "ru"
		}

		return model.Source{
			Name:     s.Name,
			FeedURL:  s.URL,
			Category: category,
			Language: language,
			Active:   true,
		}
	}), nil
}
