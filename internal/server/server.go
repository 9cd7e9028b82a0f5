package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/julien-sobczak/the-studydeck/internal/content"
	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/internal/extract"
	"github.com/julien-sobczak/the-studydeck/internal/figures"
	"github.com/julien-sobczak/the-studydeck/internal/markdown"
)

// Extractor extracts the text and the images of a PDF file.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string, outDir string) (*extract.Result, error)
}

// Options regroups the dependencies of the server.
type Options struct {
	// Directory used to resolve relative paths received by the API
	RootDir   string
	Index     *content.Index
	Registry  *assets.Registry
	Catalog   *figures.Catalog
	Extractor Extractor // Optional
	State     *core.AppState
	Logger    *core.Logger
}

// Server exposes the lessons, the subject assets and the figures over HTTP.
type Server struct {
	rootDir   string
	index     *content.Index
	registry  *assets.Registry
	catalog   *figures.Catalog
	extractor Extractor
	state     *core.AppState
	logger    *core.Logger
	renderer  *markdown.Renderer
	mux       *http.ServeMux
}

func New(opts Options) *Server {
	s := &Server{
		rootDir:   opts.RootDir,
		index:     opts.Index,
		registry:  opts.Registry,
		catalog:   opts.Catalog,
		extractor: opts.Extractor,
		state:     opts.State,
		logger:    opts.Logger,
		mux:       http.NewServeMux(),
	}
	if s.index == nil {
		s.index, _ = content.NewIndex(opts.RootDir)
	}
	if s.state == nil {
		s.state = core.NewAppState()
	}
	if s.logger == nil {
		s.logger = core.CurrentLogger()
	}
	if s.catalog == nil {
		s.catalog, _ = figures.NewCatalog()
	}
	if s.registry == nil {
		s.registry = assets.NewRegistry(opts.RootDir)
	}
	s.renderer = &markdown.Renderer{
		ResolveImages: true,
		Figures:       s.catalog,
	}

	s.mux.HandleFunc("GET /subject-assets/{path...}", s.handleAsset)
	s.mux.HandleFunc("GET /api/lessons", s.handleLessons)
	s.mux.HandleFunc("GET /api/lessons/{slug}", s.handleLesson)
	s.mux.HandleFunc("GET /api/subjects/{subject}/flashcards", s.handleFlashcards)
	s.mux.HandleFunc("GET /api/figures/{key...}", s.handleFigure)
	s.mux.HandleFunc("POST /api/extract", s.handleExtract)
	s.mux.HandleFunc("GET /api/focus", s.handleGetFocus)
	s.mux.HandleFunc("POST /api/focus", s.handleSetFocus)
	return s
}

// Handler returns the HTTP handler logging every request.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(recorder, r)
		s.logger.Request(r.Method, r.URL.Path, recorder.status, time.Since(start))
	})
}

// ListenAndServe starts the server until the context is cancelled.
// The ready callback (optional) receives the listening address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(addr string)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %q: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.Serve(listener)
	}()
	s.logger.Infof("Listening on http://%s", listener.Addr())
	if ready != nil {
		ready(listener.Addr().String())
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

/* Assets */

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	// Only files present in the registry are served
	asset, ok := s.registry.Lookup(assets.PublicPrefix + r.PathValue("path"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(asset.AbsolutePath)
	if err != nil {
		s.logger.Error(err, "unable to open asset")
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.logger.Error(err, "unable to stat asset")
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("ETag", fmt.Sprintf("%q", asset.Hash))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, asset.Path, info.ModTime(), f)
}

/* Lessons */

type lessonSummary struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Subject    string   `json:"subject"`
	Tags       []string `json:"tags"`
	Order      int      `json:"order"`
	Flashcards int      `json:"flashcards"`
}

type indexResponse struct {
	BuiltAt  time.Time       `json:"builtAt"`
	Subjects []string        `json:"subjects"`
	Lessons  []lessonSummary `json:"lessons"`
}

type lessonResponse struct {
	lessonSummary
	// Source with resolved and sanitized image URLs
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type flashcardResponse struct {
	Title  string `json:"title"`
	Lesson string `json:"lesson"`
	Front  string `json:"front"`
	Back   string `json:"back"`
}

func summarize(lesson *content.Lesson) lessonSummary {
	return lessonSummary{
		Slug:       lesson.Slug,
		Title:      lesson.Title,
		Subject:    lesson.Subject,
		Tags:       lesson.Tags,
		Order:      lesson.Order,
		Flashcards: len(lesson.Flashcards),
	}
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	response := indexResponse{
		BuiltAt:  s.index.BuiltAt,
		Subjects: s.index.Subjects(),
		Lessons:  []lessonSummary{},
	}
	for _, lesson := range s.index.Lessons {
		response.Lessons = append(response.Lessons, summarize(lesson))
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.index.Lesson(r.PathValue("slug"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	s.writeJSON(w, http.StatusOK, lessonResponse{
		lessonSummary: summarize(lesson),
		Markdown:      lesson.Body.MustTransform(markdown.ResolveImages(), markdown.SanitizeImages()).String(),
		HTML:          s.renderer.ToHTML(lesson.Body.String()),
	})
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	response := []flashcardResponse{}
	for _, flashcard := range s.index.Flashcards(r.PathValue("subject")) {
		response = append(response, flashcardResponse{
			Title:  flashcard.Title,
			Lesson: flashcard.Lesson,
			Front:  s.renderer.ToHTML(flashcard.Front.String()),
			Back:   s.renderer.ToHTML(flashcard.Back.String()),
		})
	}
	s.writeJSON(w, http.StatusOK, response)
}

/* Figures */

type figureResponse struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	URL   string `json:"url"`
	HTML  string `json:"html"`
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	figure, err := s.catalog.Resolve(r.PathValue("key"))
	if errors.Is(err, figures.ErrUnknownFigure) {
		s.writeError(w, http.StatusNotFound, "figure not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "unable to resolve figure")
		return
	}
	s.writeJSON(w, http.StatusOK, figureResponse{
		Key:   figure.Key,
		Title: figure.Title,
		URL:   figure.URL(),
		HTML:  figure.HTML(),
	})
}

/* Extraction */

type extractRequest struct {
	Path string `json:"path"`
}

type extractResponse struct {
	Text     string           `json:"text"`
	Images   []*extract.Image `json:"images"`
	Markdown string           `json:"markdown"`
	HTML     string           `json:"html"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var request extractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&request); err != nil || strings.TrimSpace(request.Path) == "" {
		s.writeError(w, http.StatusBadRequest, "missing PDF path")
		return
	}
	if s.extractor == nil {
		s.internalError(w, errors.New("no extractor configured"), "extraction failed")
		return
	}

	path := request.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.rootDir, path)
	}

	result, err := s.extractor.Extract(r.Context(), path, "")
	if err != nil {
		// Details are logged, never returned
		s.internalError(w, err, "extraction failed")
		return
	}

	// Make extracted images available under /subject-assets/
	for _, image := range result.Images {
		if _, err := s.registry.AddFile(image.Path); err != nil {
			s.logger.Debugf("Extracted image %q not served: %v", image.Path, err)
		}
	}

	md := result.Markdown(s.registry.Dir)
	s.writeJSON(w, http.StatusOK, extractResponse{
		Text:     result.Text,
		Images:   result.Images,
		Markdown: md.String(),
		HTML:     s.renderer.ToHTML(md.String()),
	})
}

/* State */

type focusState struct {
	FocusMode *bool `json:"focusMode"`
}

func (s *Server) handleGetFocus(w http.ResponseWriter, r *http.Request) {
	enabled := s.state.FocusMode()
	s.writeJSON(w, http.StatusOK, focusState{FocusMode: &enabled})
}

// handleSetFocus sets the focus mode, or toggles it when no value is sent.
func (s *Server) handleSetFocus(w http.ResponseWriter, r *http.Request) {
	var request focusState
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&request)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid focus state")
		return
	}

	var enabled bool
	if request.FocusMode == nil {
		enabled = s.state.ToggleFocusMode()
	} else {
		enabled = *request.FocusMode
		s.state.SetFocusMode(enabled)
	}
	s.writeJSON(w, http.StatusOK, focusState{FocusMode: &enabled})
}

/* Helpers */

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "unable to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) internalError(w http.ResponseWriter, err error, message string) {
	s.logger.Error(err, message)
	s.writeError(w, http.StatusInternalServerError, message)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
