package publisher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleFormatter_ConvertsHTML(t *testing.T) {
	f := NewArticleFormatter(2900)

	out, err := f.Format("<h2>Heading</h2><p>Hello <strong>world</strong>, read <a href=\"https://example.com\">this</a>.</p>")
	require.NoError(t, err)

	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "</h2>")
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "**world**")
	assert.Contains(t, out, "https://example.com")
}

func TestArticleFormatter_PlainTextPassesThrough(t *testing.T) {
	f := NewArticleFormatter(2900)

	out, err := f.Format("Just a caption, 2 < 3 is not markup without a closing bracket")
	require.NoError(t, err)
	assert.Contains(t, out, "Just a caption")
}

func TestArticleFormatter_TruncatesAtWordBoundary(t *testing.T) {
	f := NewArticleFormatter(50)

	long := strings.Repeat("lorem ipsum ", 20)
	out, err := f.Format(long)
	require.NoError(t, err)

	assert.LessOrEqual(t, utf8.RuneCountInString(out), 50)
	assert.True(t, strings.HasSuffix(out, "…"))
	trimmed := strings.TrimSuffix(out, "…")
	assert.False(t, strings.HasSuffix(trimmed, "lore"), "must not cut mid-word")
}

func TestArticleFormatter_ShortInputUntouched(t *testing.T) {
	f := NewArticleFormatter(50)

	out, err := f.Format("short enough")
	require.NoError(t, err)
	assert.Equal(t, "short enough", out)
}
