package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeProtocol(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"http://example.com", true},
		{"HTTPS://example.com", true},
		{"mailto:me@example.com", true},
		{"tel:+33123456789", true},
		{"Figure:demo", true},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"data:text/plain,hello", false},
		{"httpx://example.com", false},
		{":nothing", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			colon := indexColon(tt.value)
			assert.Equal(t, tt.expected, IsSafeProtocol(tt.value, colon))
		})
	}

	t.Run("Missing colon", func(t *testing.T) {
		assert.False(t, IsSafeProtocol("https", -1))
		assert.False(t, IsSafeProtocol("https", 42))
	})
}

func TestTransformMarkdownImageURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string // input
		expected string // output
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"anchor", "#section", "#section"},
		{"rooted", "/subject-assets/a.png", "/subject-assets/a.png"},
		{"relative", "img/a.png", "img/a.png"},
		{"relative with spaces", " img/a.png ", " img/a.png "},
		{"anchor with spaces", " #section", " #section"},
		{"https with spaces", "https://example.com/a.png ", "https://example.com/a.png "},
		{"colon in query", "some/path?query=value:still-safe", "some/path?query=value:still-safe"},
		{"colon in fragment", "some/path#note:1", "some/path#note:1"},
		{"http", "http://example.com/a.png", "http://example.com/a.png"},
		{"https", "https://example.com/a.png", "https://example.com/a.png"},
		{"mailto", "mailto:me@example.com", "mailto:me@example.com"},
		{"tel", "tel:+33123456789", "tel:+33123456789"},
		{"figure", "figure:demo/diagram", "figure:demo/diagram"},
		{"figure uppercase", "FIGURE:demo/diagram", "FIGURE:demo/diagram"},
		{"javascript", "javascript:alert(1)", InertURI},
		{"javascript mixed case", "JaVaScRiPt:alert(1)", InertURI},
		{"javascript with spaces", "  javascript:alert(1)", InertURI},
		{"data", "data:text/plain;base64,AAAA", InertURI},
		{"data image", "data:image/png;base64,AAAA", InertURI},
		{"vbscript", "vbscript:msgbox(1)", InertURI},
		{"file", "file:///etc/passwd", InertURI},
		{"ftp", "ftp://example.com/a.png", InertURI},
		{"query after scheme", "javascript:alert(1)?x=1", InertURI},
		{"empty scheme", ":alert(1)", InertURI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TransformMarkdownImageURI(tt.uri))
		})
	}
}

func TestTransformMarkdownImageURIIsStable(t *testing.T) {
	uris := []string{
		"javascript:alert(1)",
		"https://example.com",
		"img/a.png",
		"figure:demo",
		"data:,",
	}
	for _, uri := range uris {
		once := TransformMarkdownImageURI(uri)
		assert.Equal(t, once, TransformMarkdownImageURI(once), uri)
	}
}

func TestIsSafeURI(t *testing.T) {
	assert.True(t, IsSafeURI("https://example.com"))
	assert.True(t, IsSafeURI("a.png"))
	assert.False(t, IsSafeURI("javascript:void(0)"))

	// Entities are decoded by Markdown renderers
	assert.True(t, IsSafeURI("a.png?x=1&amp;y=2"))
	assert.False(t, IsSafeURI("javascript&#58;alert(1)"))
	assert.False(t, IsSafeURI("javascript&colon;alert(1)"))
	assert.False(t, IsSafeURI("&#106;avascript:alert(1)"))
	assert.False(t, IsSafeURI("javascript&#x3A;alert(1)"))
}

func TestFigureKey(t *testing.T) {
	assert.True(t, IsFigure("figure:demo/diagram"))
	assert.True(t, IsFigure(" Figure:demo/diagram"))
	assert.False(t, IsFigure("demo/diagram"))
	assert.Equal(t, "demo/diagram", FigureKey("figure:demo/diagram"))
	assert.Equal(t, "demo/diagram", FigureKey("demo/diagram"))
}

func TestIsExternal(t *testing.T) {
	assert.True(t, IsExternal("https://example.com"))
	assert.True(t, IsExternal("//example.com"))
	assert.True(t, IsExternal("DATA:image/png,AAAA"))
	assert.True(t, IsExternal("blob:1234"))
	assert.True(t, IsExternal("custom+app.v1:resource"))
	assert.False(t, IsExternal("a/b.png"))
	assert.False(t, IsExternal("/a/b.png"))
	assert.False(t, IsExternal("1abc:def"))
}

func indexColon(value string) int {
	for i, c := range value {
		if c == ':' {
			return i
		}
	}
	return -1
}
