package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForMarkdown(t *testing.T) {
	got := EscapeForMarkdown("a-b (c) [d]!")
	assert.Equal(t, `a\-b \(c\) \[d\]\!`, got)
}

func TestClipShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "короткий текст", clip("  короткий текст\n"))
}

func TestClipLongText(t *testing.T) {
	long := strings.Repeat("я", summaryLimit+100)

	got := clip(long)
	assert.Len(t, []rune(got), summaryLimit+1)
	assert.True(t, strings.HasSuffix(got, "…"))
}
