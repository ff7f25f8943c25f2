// Package apitest provides an in-memory fake of the draft analyzer backend for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// Route names used as keys for call counting.
const (
	RouteCreateDraft  = "POST /drafts/"
	RouteListDrafts   = "GET /drafts/"
	RouteGetDraft     = "GET /drafts/{id}"
	RouteAnalyze      = "POST /drafts/{id}/analyze"
	RouteGetAnalysis  = "GET /analyses/{id}"
	RouteListAnalyses = "GET /drafts/{id}/analyses"
	RouteShare        = "POST /analyses/{id}/share"
	RouteShared       = "GET /share/{token}"
)

// CreateRequest captures the decoded multipart fields of a draft upload.
type CreateRequest struct {
	Title          string
	TeamNames      []string
	AdditionalInfo string
	FileName       string
	FileData       string
	ManualData     string
}

// Backend is a fake backend serving the REST contract under /api.
type Backend struct {
	Server *httptest.Server

	// AnalysisResult decides the outcome of an analyze call. The default completes
	// with a short markdown report.
	AnalysisResult func(d models.Draft) (text string, err string)

	mu        sync.Mutex
	calls     map[string]int
	fail      map[string]int
	creates   []CreateRequest
	drafts    map[int64]models.Draft
	analyses  map[int64]models.Analysis
	nextDraft int64
	nextAnal  int64
	clock     time.Time
}

// New starts a fake backend and registers its shutdown with t.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		calls:    make(map[string]int),
		fail:     make(map[string]int),
		drafts:   make(map[int64]models.Draft),
		analyses: make(map[int64]models.Analysis),
		clock:    time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
		AnalysisResult: func(d models.Draft) (string, string) {
			return "# " + d.Title + "\n\n**Grade:** A", ""
		},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/drafts/", b.count(RouteCreateDraft, b.handleCreateDraft))
		r.Get("/drafts/", b.count(RouteListDrafts, b.handleListDrafts))
		r.Get("/drafts/{id}", b.count(RouteGetDraft, b.handleGetDraft))
		r.Post("/drafts/{id}/analyze", b.count(RouteAnalyze, b.handleAnalyze))
		r.Get("/drafts/{id}/analyses", b.count(RouteListAnalyses, b.handleListAnalyses))
		r.Get("/analyses/{id}", b.count(RouteGetAnalysis, b.handleGetAnalysis))
		r.Post("/analyses/{id}/share", b.count(RouteShare, b.handleShare))
		r.Get("/share/{token}", b.count(RouteShared, b.handleShared))
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API root, suitable for api.NewClient.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Calls returns how many times a route was hit.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls returns the number of requests served across all routes.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// FailWith makes every request to route answer with status.
func (b *Backend) FailWith(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[route] = status
}

// Creates returns the draft uploads received so far.
func (b *Backend) Creates() []CreateRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]CreateRequest(nil), b.creates...)
}

// AddDraft seeds a draft and returns it with its assigned ID.
func (b *Backend) AddDraft(d models.Draft) models.Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextDraft++
	d.ID = b.nextDraft
	if d.CreatedAt == "" {
		d.CreatedAt = b.now()
	}
	if d.TeamNames == nil {
		d.TeamNames = []string{}
	}
	b.drafts[d.ID] = d
	return d
}

// AddAnalysis seeds an analysis and returns it with its assigned ID and share token.
func (b *Backend) AddAnalysis(a models.Analysis) models.Analysis {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addAnalysisLocked(a)
}

func (b *Backend) addAnalysisLocked(a models.Analysis) models.Analysis {
	b.nextAnal++
	a.ID = b.nextAnal
	if a.CreatedAt == "" {
		a.CreatedAt = b.now()
	}
	if a.ShareToken == nil {
		token := uuid.NewString()
		a.ShareToken = &token
	}
	b.analyses[a.ID] = a
	return a
}

// now hands out strictly increasing naive timestamps, like the backend's columns.
func (b *Backend) now() string {
	b.clock = b.clock.Add(time.Minute)
	return b.clock.Format("2006-01-02T15:04:05.000000")
}

func (b *Backend) count(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		status := b.fail[route]
		b.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "injected failure")
			return
		}
		h(w, r)
	}
}

func (b *Backend) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	req := CreateRequest{
		Title:          r.FormValue("title"),
		AdditionalInfo: r.FormValue("additional_info"),
		ManualData:     r.FormValue("manual_data"),
	}
	if raw := r.FormValue("team_names"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.TeamNames); err != nil {
			writeDetail(w, http.StatusBadRequest, "team_names must be a JSON array")
			return
		}
	}

	fileType := models.FileTypeManual
	data := req.ManualData
	if f, hdr, err := r.FormFile("file"); err == nil {
		content, _ := io.ReadAll(f)
		f.Close()
		req.FileName = hdr.Filename
		req.FileData = string(content)
		data = req.FileData
		fileType = "text"
		if strings.EqualFold(filepath.Ext(hdr.Filename), ".csv") {
			fileType = models.FileTypeCSV
		}
	}

	b.mu.Lock()
	b.creates = append(b.creates, req)
	b.mu.Unlock()

	if data == "" {
		writeDetail(w, http.StatusBadRequest, "Either file or manual data must be provided")
		return
	}

	d := b.AddDraft(models.Draft{
		Title:          req.Title,
		DraftData:      data,
		FileType:       fileType,
		TeamNames:      req.TeamNames,
		AdditionalInfo: req.AdditionalInfo,
	})
	writeJSON(w, http.StatusOK, d)
}

func (b *Backend) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	drafts := make([]models.Draft, 0, len(b.drafts))
	for _, d := range b.drafts {
		drafts = append(drafts, d)
	}
	b.mu.Unlock()

	sort.Slice(drafts, func(i, j int) bool { return drafts[i].ID > drafts[j].ID })
	writeJSON(w, http.StatusOK, drafts)
}

func (b *Backend) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := b.lookupDraft(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Draft not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (b *Backend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	d, ok := b.lookupDraft(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Draft not found")
		return
	}

	text, failure := b.AnalysisResult(d)

	b.mu.Lock()
	a := models.Analysis{DraftID: d.ID, Status: models.StatusCompleted}
	if failure != "" {
		a.Status = models.StatusFailed
		a.ErrorMessage = &failure
	} else {
		a.AnalysisText = &text
	}
	a = b.addAnalysisLocked(a)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	b.mu.Lock()
	list := []models.Analysis{}
	for _, a := range b.analyses {
		if a.DraftID == id {
			list = append(list, a)
		}
	}
	b.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := b.lookupAnalysis(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) handleShare(w http.ResponseWriter, r *http.Request) {
	a, ok := b.lookupAnalysis(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Analysis not found")
		return
	}

	b.mu.Lock()
	a.IsPublic = true
	b.analyses[a.ID] = a
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.ShareResponse{ShareURL: "/share/" + *a.ShareToken})
}

func (b *Backend) handleShared(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.analyses {
		if a.ShareToken == nil || *a.ShareToken != token || !a.IsPublic || a.Status != models.StatusCompleted {
			continue
		}
		title := "Unknown Draft"
		if d, ok := b.drafts[a.DraftID]; ok {
			title = d.Title
		}
		writeJSON(w, http.StatusOK, models.SharedAnalysis{
			AnalysisText: *a.AnalysisText,
			DraftTitle:   title,
			CreatedAt:    a.CreatedAt,
		})
		return
	}
	writeDetail(w, http.StatusNotFound, "Shared analysis not found")
}

func (b *Backend) lookupDraft(r *http.Request) (models.Draft, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return models.Draft{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.drafts[id]
	return d, ok
}

func (b *Backend) lookupAnalysis(r *http.Request) (models.Analysis, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return models.Analysis{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.analyses[id]
	return a, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
