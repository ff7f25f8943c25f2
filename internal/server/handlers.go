package server

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/DraftAnalyzer/internal/api"
	"github.com/TobiSchelling/DraftAnalyzer/internal/upload"
	"github.com/TobiSchelling/DraftAnalyzer/internal/view"
)

const msgUploadFailed = "Failed to upload draft. Please try again."

// multipart framing and text fields on top of the file itself.
const uploadOverhead = 1 << 20

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", http.StatusOK, map[string]any{
		"Content": string(homeMarkdown),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, "notfound.html", http.StatusNotFound, nil)
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	s.renderUpload(w, http.StatusOK, upload.NewForm(), nil, "")
}

func (s *Server) renderUpload(w http.ResponseWriter, status int, f *upload.Form, errs upload.FieldErrors, msg string) {
	s.render(w, "upload.html", status, map[string]any{
		"Form":   f,
		"Errors": errs,
		"Error":  msg,
		"Limits": s.opts.Limits,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.Limits.MaxFileSize+uploadOverhead)

	f, action, err := upload.FromRequest(r, s.opts.Limits)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// f holds the fields read before the body was cut off.
			s.renderUpload(w, http.StatusRequestEntityTooLarge, f, upload.FieldErrors{
				"file": upload.TooLargeMessage(s.opts.Limits.MaxFileSize),
			}, "")
			return
		}
		log.Printf("Error reading upload form: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if f.Apply(action) {
		s.renderUpload(w, http.StatusOK, f, nil, "")
		return
	}

	id, err := upload.Submit(r.Context(), s.backend, f, s.opts.Limits)
	if err != nil {
		var fieldErrs upload.FieldErrors
		if errors.As(err, &fieldErrs) {
			status := http.StatusUnprocessableEntity
			if f.FileTooLarge(s.opts.Limits) {
				status = http.StatusRequestEntityTooLarge
			}
			s.renderUpload(w, status, f, fieldErrs, "")
			return
		}
		s.renderUpload(w, http.StatusBadGateway, f, nil, msgUploadFailed)
		return
	}

	http.Redirect(w, r, draftPath(id), http.StatusSeeOther)
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	v := view.LoadList(r.Context(), s.backend)
	s.render(w, "drafts.html", statusFor(v.Err), map[string]any{
		"View": v,
	})
}

// draftPage is the template data of the draft detail page.
type draftPage struct {
	View    *view.DetailView
	Display *view.Display
	// Copied asks the page to copy the share link on load.
	Copied bool
}

func (s *Server) renderDraft(w http.ResponseWriter, r *http.Request, v *view.DetailView, d *view.Display, copied bool) {
	if v.State == view.Success && d == nil {
		if latest, ok := v.Latest(); ok {
			d = view.NewDisplay(latest, v.Draft.Title, s.origin(r))
		}
	}
	s.render(w, "draft.html", statusFor(v.Err), draftPage{View: v, Display: d, Copied: copied})
}

func (s *Server) loadDetail(w http.ResponseWriter, r *http.Request) (*view.DetailView, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.handleNotFound(w, r)
		return nil, false
	}
	return view.LoadDetail(r.Context(), s.backend, id), true
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	v, ok := s.loadDetail(w, r)
	if !ok {
		return
	}
	s.renderDraft(w, r, v, nil, false)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	v, ok := s.loadDetail(w, r)
	if !ok {
		return
	}
	if v.State == view.Success {
		if err := v.Analyze(r.Context(), s.backend); err == nil {
			// The page shown is the draft page; app.js swaps the POST URL for it.
			w.Header().Set("Content-Location", draftPath(v.Draft.ID))
		}
	}
	s.renderDraft(w, r, v, nil, false)
}

// handleAnalyzeGet sends a stray GET of the analyze URL (a reload or bookmark) back
// to the draft page instead of starting another analysis.
func (s *Server) handleAnalyzeGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.handleNotFound(w, r)
		return
	}
	http.Redirect(w, r, draftPath(id), http.StatusSeeOther)
}

func draftPath(id int64) string {
	return "/drafts/" + strconv.FormatInt(id, 10)
}

// loadAnalysis resolves the {aid} route parameter within a loaded draft.
func (s *Server) loadAnalysis(w http.ResponseWriter, r *http.Request) (*view.DetailView, *view.Display, bool) {
	v, ok := s.loadDetail(w, r)
	if !ok {
		return nil, nil, false
	}
	if v.State != view.Success {
		s.renderDraft(w, r, v, nil, false)
		return nil, nil, false
	}

	aid, err := strconv.ParseInt(chi.URLParam(r, "aid"), 10, 64)
	if err != nil {
		s.handleNotFound(w, r)
		return nil, nil, false
	}
	a, found := v.Find(aid)
	if !found {
		s.handleNotFound(w, r)
		return nil, nil, false
	}
	return v, view.NewDisplay(a, v.Draft.Title, s.origin(r)), true
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	v, d, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}

	if _, err := d.Share(r.Context(), s.backend); err != nil {
		if errors.Is(err, view.ErrNotShareable) {
			http.Error(w, "Analysis is not completed", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to share analysis", statusFor(err))
		return
	}
	s.renderDraft(w, r, v, d, true)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, d, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}

	exp, err := d.Export()
	if err != nil {
		http.Error(w, "Analysis is not completed", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	w.Write([]byte(exp.Content))
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	v := view.LoadShared(r.Context(), s.backend, chi.URLParam(r, "token"))
	status := http.StatusOK
	if v.State == view.Failed {
		status = http.StatusNotFound
	}
	s.render(w, "shared.html", status, map[string]any{
		"View": v,
	})
}

// origin is the base URL for share links.
func (s *Server) origin(r *http.Request) string {
	if s.opts.PublicURL != "" {
		return s.opts.PublicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

// statusFor maps a backend failure onto the status of the page that reports it.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
