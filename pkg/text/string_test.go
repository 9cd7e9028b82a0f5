package text_test

import (
	"testing"

	"github.com/julien-sobczak/the-studydeck/pkg/text"
	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	assert.True(t, text.IsBlank(""))
	assert.True(t, text.IsBlank("   "))
	assert.True(t, text.IsBlank("\n\t"))
	assert.False(t, text.IsBlank(" Die Katze"))
}

func TestTrimExtension(t *testing.T) {
	var tests = []struct {
		path     string // input
		expected string // output
	}{
		{"lesson.md", "lesson"},
		{"lesson.markdown", "lesson"},
		{"german/", "german"},
		{"german/die-katze.md", "german/die-katze"},
		{"german/cat.png.back", "german/cat.png"},
		{"README", "README"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, text.TrimExtension(tt.path), tt.path)
	}
}

func TestExtractLines(t *testing.T) {
	input := "line1\nline2\nline3\nline4"

	var tests = []struct {
		name       string
		start, end int
		expected   string
	}{
		{"First line", 1, 1, "line1"},
		{"Middle lines", 2, 3, "line2\nline3"},
		{"End after last line", 3, 5, "line3\nline4"},
		{"Until EOF", 2, -1, "line2\nline3\nline4"},
		{"Start before first line", 0, 1, "line1"},
		{"Empty range", 3, 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, text.ExtractLines(input, tt.start, tt.end))
		})
	}
}
