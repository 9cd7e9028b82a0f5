package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/julien-sobczak/the-studydeck/internal/content"
	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/internal/extract"
	"github.com/julien-sobczak/the-studydeck/internal/figures"
)

const lessonKatze = `---
title: Die Katze
subject: German
tags: [animals]
---

# Die Katze

![A cat](german/cat.png)

![Verbs](figure:grammar/verbs)

[Evil](javascript:alert(1))

## Flashcard: Cat

What is "cat" in German?

---

**die Katze**
`

type fakeExtractor struct {
	result *extract.Result
	err    error
	paths  []string
}

func (f *fakeExtractor) Extract(ctx context.Context, pdfPath string, outDir string) (*extract.Result, error) {
	f.paths = append(f.paths, pdfPath)
	return f.result, f.err
}

type fixture struct {
	root      string
	server    *Server
	logs      *bytes.Buffer
	extractor *fakeExtractor
	state     *core.AppState
}

func setUp(t *testing.T) *fixture {
	root := t.TempDir()
	files := map[string]string{
		"lessons/german/die-katze.md":   lessonKatze,
		"subject-assets/german/cat.png": "fake-png",
	}
	for path, data := range files {
		absPath := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(absPath), 0755))
		require.NoError(t, os.WriteFile(absPath, []byte(data), 0644))
	}

	index, err := content.LoadIndex(filepath.Join(root, "lessons"), nil, nil)
	require.NoError(t, err)
	registry, err := assets.BuildRegistry(filepath.Join(root, "subject-assets"))
	require.NoError(t, err)
	catalog, err := figures.NewCatalog(&figures.Figure{
		Key:   "grammar/verbs",
		Title: "Strong verbs",
		Src:   "german/verbs.png",
	})
	require.NoError(t, err)

	var logs bytes.Buffer
	f := &fixture{
		root:      root,
		logs:      &logs,
		extractor: &fakeExtractor{},
		state:     core.NewAppState(),
	}
	f.server = New(Options{
		RootDir:   root,
		Index:     index,
		Registry:  registry,
		Catalog:   catalog,
		Extractor: f.extractor,
		State:     f.state,
		Logger:    core.NewLoggerTo(&logs).SetVerboseLevel(core.VerboseDebug),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAssets(t *testing.T) {
	f := setUp(t)

	rec := f.do(t, http.MethodGet, "/subject-assets/german/cat.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake-png", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// Conditional requests
	rec = f.do(t, http.MethodGet, "/subject-assets/german/cat.png", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	// Only registered files are served
	rec = f.do(t, http.MethodGet, "/subject-assets/german/dog.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/subject-assets/../lessons/german/die-katze.md", "")
	assert.NotEqual(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/subject-assets/lessons%2Fgerman%2Fdie-katze.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Requests are logged
	assert.Contains(t, f.logs.String(), `"path":"/subject-assets/german/cat.png"`)
	assert.Contains(t, f.logs.String(), `"status":304`)
}

func TestLessons(t *testing.T) {
	f := setUp(t)

	rec := f.do(t, http.MethodGet, "/api/lessons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, []any{"German"}, body["subjects"])
	lessons := body["lessons"].([]any)
	require.Len(t, lessons, 1)
	lesson := lessons[0].(map[string]any)
	assert.Equal(t, "german-die-katze", lesson["slug"])
	assert.Equal(t, "Die Katze", lesson["title"])
	assert.Equal(t, float64(1), lesson["flashcards"])

	t.Run("Lesson", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/lessons/german-die-katze", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Die Katze", body["title"])
		html := body["html"].(string)
		assert.Contains(t, html, `src="/subject-assets/german/cat.png"`)
		assert.Contains(t, html, `<figure class="figure" id="figure-grammar-verbs">`)
		assert.Contains(t, html, `src="/subject-assets/german/verbs.png"`)
		assert.NotContains(t, html, "javascript:")

		md := body["markdown"].(string)
		assert.Contains(t, md, "![A cat](/subject-assets/german/cat.png)")
		assert.Contains(t, md, "![Verbs](figure:grammar/verbs)")
	})

	t.Run("Unknown lesson", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/lessons/unknown", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "lesson not found", decode(t, rec)["error"])
	})

	t.Run("Flashcards", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/subjects/german/flashcards", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var flashcards []map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flashcards))
		require.Len(t, flashcards, 1)
		assert.Equal(t, "Cat", flashcards[0]["title"])
		assert.Equal(t, "german-die-katze", flashcards[0]["lesson"])
		assert.Contains(t, flashcards[0]["back"], "<strong>die Katze</strong>")

		rec = f.do(t, http.MethodGet, "/api/subjects/french/flashcards", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}

func TestFigures(t *testing.T) {
	f := setUp(t)

	rec := f.do(t, http.MethodGet, "/api/figures/grammar/verbs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "grammar/verbs", body["key"])
	assert.Equal(t, "/subject-assets/german/verbs.png", body["url"])
	assert.Contains(t, body["html"], "<figcaption>Strong verbs</figcaption>")

	rec = f.do(t, http.MethodGet, "/api/figures/grammar/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExtract(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		f := setUp(t)

		image := filepath.Join(f.root, "subject-assets", "extracted", "run1", "page-1-0.png")
		require.NoError(t, os.MkdirAll(filepath.Dir(image), 0755))
		require.NoError(t, os.WriteFile(image, []byte("extracted"), 0644))
		f.extractor.result = &extract.Result{
			Text:   "Hallo Welt",
			Images: []*extract.Image{{Path: image, Page: 1, Index: 0}},
		}

		rec := f.do(t, http.MethodPost, "/api/extract", `{"path": "pdfs/lesson.pdf"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{filepath.Join(f.root, "pdfs", "lesson.pdf")}, f.extractor.paths)

		body := decode(t, rec)
		assert.Equal(t, "Hallo Welt", body["text"])
		assert.Equal(t, "Hallo Welt\n\n![Page 1, image 1](/subject-assets/extracted/run1/page-1-0.png)", body["markdown"])
		assert.Contains(t, body["html"], `src="/subject-assets/extracted/run1/page-1-0.png"`)

		// Extracted images are now served
		rec = f.do(t, http.MethodGet, "/subject-assets/extracted/run1/page-1-0.png", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "extracted", rec.Body.String())
	})

	t.Run("Failure", func(t *testing.T) {
		f := setUp(t)
		f.extractor.err = &extract.ExitError{Code: 1, Stderr: "secret details"}

		rec := f.do(t, http.MethodPost, "/api/extract", `{"path": "/tmp/lesson.pdf"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "extraction failed", decode(t, rec)["error"])
		assert.NotContains(t, rec.Body.String(), "secret")
		// Details are logged
		assert.Contains(t, f.logs.String(), "secret details")
	})

	t.Run("Bad request", func(t *testing.T) {
		f := setUp(t)

		rec := f.do(t, http.MethodPost, "/api/extract", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = f.do(t, http.MethodPost, "/api/extract", `not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.extractor.paths)
	})

	t.Run("No extractor", func(t *testing.T) {
		f := setUp(t)
		f.server.extractor = nil

		rec := f.do(t, http.MethodPost, "/api/extract", `{"path": "lesson.pdf"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Wrong method", func(t *testing.T) {
		f := setUp(t)

		rec := f.do(t, http.MethodGet, "/api/extract", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestFocus(t *testing.T) {
	f := setUp(t)

	rec := f.do(t, http.MethodGet, "/api/focus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["focusMode"])

	rec = f.do(t, http.MethodPost, "/api/focus", `{"focusMode": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["focusMode"])
	assert.True(t, f.state.FocusMode())

	// Toggle when no value is sent
	rec = f.do(t, http.MethodPost, "/api/focus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["focusMode"])
	assert.False(t, f.state.FocusMode())

	rec = f.do(t, http.MethodPost, "/api/focus", `{"focusMode": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListenAndServe(t *testing.T) {
	f := setUp(t)

	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		errs <- f.server.ListenAndServe(ctx, "127.0.0.1:0", func(addr string) {
			addrs <- addr
		})
	}()

	var addr string
	select {
	case addr = <-addrs:
	case err := <-errs:
		t.Fatalf("server stopped: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not started")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/lessons", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server not stopped")
	}
}
