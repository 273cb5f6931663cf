package publisher

import (
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Formatter reshapes long-form content into platform-safe commentary.
type Formatter interface {
	Format(longForm string) (string, error)
}

// ArticleFormatter converts editor HTML into markdown-flavored plain text
// and truncates it to the platform's commentary limit.
type ArticleFormatter struct {
	converter *md.Converter
	maxChars  int
}

func NewArticleFormatter(maxChars int) *ArticleFormatter {
	if maxChars <= 0 {
		maxChars = 2900
	}
	return &ArticleFormatter{
		converter: md.NewConverter("", true, nil),
		maxChars:  maxChars,
	}
}

func (f *ArticleFormatter) Format(longForm string) (string, error) {
	text := longForm
	if strings.Contains(longForm, "<") && strings.Contains(longForm, ">") {
		converted, err := f.converter.ConvertString(longForm)
		if err != nil {
			return "", err
		}
		text = converted
	}
	text = strings.TrimSpace(text)
	return truncate(text, f.maxChars), nil
}

// truncate cuts at a rune boundary, preferring the last whitespace before
// the limit so words are not split mid-way.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := max - 1 // leave room for the ellipsis
	for i := cut; i > cut/2; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
