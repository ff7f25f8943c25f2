package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
	"github.com/TobiSchelling/DraftAnalyzer/internal/upload"
	"github.com/TobiSchelling/DraftAnalyzer/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed content/home.md
var homeMarkdown []byte

var md = goldmark.New()

// Options configures the web front end.
type Options struct {
	// APIBaseURL is the backend API root. When set, /api/* is proxied to it.
	APIBaseURL string
	// PublicURL is the origin used for share links. Empty derives it from the request.
	PublicURL   string
	CORSOrigins []string
	Limits      upload.Limits
}

// Server is the HTTP front end for the draft analyzer.
type Server struct {
	backend view.Backend
	opts    Options
	pages   map[string]*template.Template
	router  chi.Router
}

// layouts maps each page template to the layout it is rendered in. The shared
// analysis page is public and is rendered without the application shell.
var layouts = map[string]string{
	"index.html":    "base.html",
	"upload.html":   "base.html",
	"drafts.html":   "base.html",
	"draft.html":    "base.html",
	"notfound.html": "base.html",
	"shared.html":   "bare.html",
}

// New creates a new Server.
func New(backend view.Backend, opts Options) (*Server, error) {
	if opts.Limits.MaxFileSize <= 0 {
		opts.Limits.MaxFileSize = upload.DefaultMaxFileSize
	}
	if len(opts.Limits.AllowedExtensions) == 0 {
		opts.Limits.AllowedExtensions = upload.DefaultExtensions
	}

	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatDate": models.FormatDate,
		"shortDate":  models.FormatShortDate,
		"fileType":   func(f models.FileType) string { return string(f.Normalized()) },
		"plural":     english.Plural,
		"bytes":      func(n int64) string { return humanize.IBytes(uint64(n)) },
		"chars":      func(s string) string { return humanize.Comma(int64(len(s))) },
		"flashMs":    func() int64 { return view.CopyFlashDuration.Milliseconds() },
		"inc":        func(i int) int { return i + 1 },
	}

	layoutSets := make(map[string]*template.Template, 2)
	for _, name := range []string{"base.html", "bare.html"} {
		t, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing layout %s: %w", name, err)
		}
		layoutSets[name] = t
	}

	// Each page gets its own clone of its layout so that {{define "content"}} and
	// {{define "title"}} do not collide between pages.
	pages := make(map[string]*template.Template, len(layouts))
	for name, layout := range layouts {
		clone, err := layoutSets[layout].Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning %s for %s: %w", layout, name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{backend: backend, opts: opts, pages: pages, router: chi.NewRouter()}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() error {
	s.router.Use(RequestID, Logging)

	staticSub, _ := fs.Sub(staticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if s.opts.APIBaseURL != "" {
		proxy, err := newAPIProxy(s.opts.APIBaseURL, s.opts.CORSOrigins)
		if err != nil {
			return err
		}
		s.router.Mount("/api", proxy)
	}

	s.router.Get("/", s.handleHome)
	s.router.Get("/upload", s.handleUploadForm)
	s.router.Post("/upload", s.handleUpload)
	s.router.Get("/drafts", s.handleDrafts)
	s.router.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", s.handleDraft)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyze", s.handleAnalyzeGet)
		r.Post("/analyses/{aid}/share", s.handleShare)
		r.Get("/analyses/{aid}/export", s.handleExport)
	})
	s.router.Get("/share/{token}", s.handleShared)
	s.router.NotFound(s.handleNotFound)
	return nil
}

func (s *Server) render(w http.ResponseWriter, name string, status int, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Render into a buffer so a template error does not leave a half-written page
	// behind a 200 status.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layouts[name], data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and shuts it down gracefully on
// SIGINT or SIGTERM.
func Serve(backend view.Backend, opts Options, port int) error {
	srv, err := New(backend, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
