package figures

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
figures:
- key: Grammar/Strong Verbs
  title: Strong verbs
  caption: Ablaut classes of German strong verbs
  src: public/subject-assets/german/verbs.png
  width: 640
- key: demo/diagram
  title: Demo <diagram>
  src: https://example.com/diagram.svg
- key: demo/unsafe
  title: Unsafe
  src: javascript:alert(1)
`

func TestReadCatalog(t *testing.T) {
	catalog, err := ReadCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, catalog.Len())
	assert.Equal(t, []string{"grammar/strong-verbs", "demo/diagram", "demo/unsafe"}, catalog.Keys())

	t.Run("Resolve", func(t *testing.T) {
		for _, ref := range []string{
			"figure:grammar/strong-verbs",
			"FIGURE:Grammar/Strong Verbs",
			"grammar/strong-verbs",
		} {
			figure, err := catalog.Resolve(ref)
			require.NoError(t, err, ref)
			assert.Equal(t, "Strong verbs", figure.Title)
		}

		_, err := catalog.Resolve("figure:unknown")
		assert.True(t, errors.Is(err, ErrUnknownFigure))
	})

	t.Run("Render", func(t *testing.T) {
		actual, err := catalog.Render("figure:grammar/strong-verbs")
		require.NoError(t, err)
		assert.Equal(t,
			`<figure class="figure" id="figure-grammar-strong-verbs">`+
				`<img src="/subject-assets/german/verbs.png" alt="Strong verbs" width="640" />`+
				`<figcaption>Ablaut classes of German strong verbs</figcaption>`+
				`</figure>`,
			actual)
	})

	t.Run("Render escapes text", func(t *testing.T) {
		actual, err := catalog.Render("figure:demo/diagram")
		require.NoError(t, err)
		assert.Contains(t, actual, `src="https://example.com/diagram.svg"`)
		assert.Contains(t, actual, `alt="Demo &lt;diagram&gt;"`)
		assert.NotContains(t, actual, "<diagram>")
	})

	t.Run("Render sanitizes sources", func(t *testing.T) {
		actual, err := catalog.Render("figure:demo/unsafe")
		require.NoError(t, err)
		assert.Contains(t, actual, `src="about:blank"`)
		assert.NotContains(t, actual, "javascript")
	})

	t.Run("Render unknown", func(t *testing.T) {
		_, err := catalog.Render("figure:demo/unknown")
		assert.ErrorIs(t, err, ErrUnknownFigure)
	})
}

func TestNewCatalogErrors(t *testing.T) {
	_, err := NewCatalog(&Figure{Key: "a"}, &Figure{Key: "A"})
	assert.Error(t, err)

	_, err = NewCatalog(&Figure{Title: "No key"})
	assert.Error(t, err)
}

func TestReadCatalogFile(t *testing.T) {
	dir := t.TempDir()

	catalog, err := ReadCatalogFile(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())

	path := filepath.Join(dir, "figures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))
	catalog, err = ReadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())

	require.NoError(t, os.WriteFile(path, []byte("figures: [oops"), 0644))
	_, err = ReadCatalogFile(path)
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "grammar/strong-verbs", NormalizeKey(" Grammar//Strong Verbs/ "))
	assert.Equal(t, "", NormalizeKey(""))
}

func TestFigureAsSource(t *testing.T) {
	figure := &Figure{Key: "loop", Src: "figure:loop"}
	assert.Equal(t, "about:blank", figure.URL())
}
