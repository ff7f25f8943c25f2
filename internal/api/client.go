// Package api is a typed client for the draft analyzer REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// DefaultBaseURL is the backend API root used when none is configured.
const DefaultBaseURL = "http://localhost:8001/api"

const userAgent = "DraftAnalyzer/1.0"

// Client talks to the backend. It performs no retries; a failed call is returned
// to the caller immediately.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A zero timeout leaves
// requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateDraft uploads a new draft as multipart form data.
func (c *Client) CreateDraft(ctx context.Context, data models.DraftFormData) (*models.Draft, error) {
	body, contentType, err := encodeDraftForm(data)
	if err != nil {
		return nil, fmt.Errorf("encoding draft form: %w", err)
	}

	var draft models.Draft
	if err := c.do(ctx, http.MethodPost, "/drafts/", body, contentType, &draft); err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	return &draft, nil
}

// ListDrafts returns all drafts.
func (c *Client) ListDrafts(ctx context.Context) ([]models.Draft, error) {
	var drafts []models.Draft
	if err := c.do(ctx, http.MethodGet, "/drafts/", nil, "", &drafts); err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// GetDraft returns a single draft.
func (c *Client) GetDraft(ctx context.Context, id int64) (*models.Draft, error) {
	var draft models.Draft
	if err := c.do(ctx, http.MethodGet, "/drafts/"+itoa(id), nil, "", &draft); err != nil {
		return nil, fmt.Errorf("getting draft %d: %w", id, err)
	}
	return &draft, nil
}

// AnalyzeDraft asks the backend to analyze a draft.
func (c *Client) AnalyzeDraft(ctx context.Context, draftID int64) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := c.do(ctx, http.MethodPost, "/drafts/"+itoa(draftID)+"/analyze", nil, "", &analysis); err != nil {
		return nil, fmt.Errorf("analyzing draft %d: %w", draftID, err)
	}
	return &analysis, nil
}

// GetAnalysis returns a single analysis.
func (c *Client) GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := c.do(ctx, http.MethodGet, "/analyses/"+itoa(id), nil, "", &analysis); err != nil {
		return nil, fmt.Errorf("getting analysis %d: %w", id, err)
	}
	return &analysis, nil
}

// ListAnalyses returns the analyses of a draft in backend order (newest first).
func (c *Client) ListAnalyses(ctx context.Context, draftID int64) ([]models.Analysis, error) {
	var analyses []models.Analysis
	if err := c.do(ctx, http.MethodGet, "/drafts/"+itoa(draftID)+"/analyses", nil, "", &analyses); err != nil {
		return nil, fmt.Errorf("listing analyses for draft %d: %w", draftID, err)
	}
	return analyses, nil
}

// ShareAnalysis makes an analysis public and returns its share URL.
func (c *Client) ShareAnalysis(ctx context.Context, id int64) (*models.ShareResponse, error) {
	var resp models.ShareResponse
	if err := c.do(ctx, http.MethodPost, "/analyses/"+itoa(id)+"/share", nil, "", &resp); err != nil {
		return nil, fmt.Errorf("sharing analysis %d: %w", id, err)
	}
	return &resp, nil
}

// GetSharedAnalysis returns the public projection for a share token.
func (c *Client) GetSharedAnalysis(ctx context.Context, token string) (*models.SharedAnalysis, error) {
	var shared models.SharedAnalysis
	if err := c.do(ctx, http.MethodGet, "/share/"+url.PathEscape(token), nil, "", &shared); err != nil {
		return nil, fmt.Errorf("getting shared analysis: %w", err)
	}
	return &shared, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} from an error body, falling back to the raw text.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(body))
}

func encodeDraftForm(data models.DraftFormData) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	teamNames := data.TeamNames
	if teamNames == nil {
		teamNames = []string{}
	}
	encodedNames, err := json.Marshal(teamNames)
	if err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"title", data.Title},
		{"team_names", string(encodedNames)},
		{"additional_info", data.AdditionalInfo},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if data.File != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", multipart.FileContentDisposition("file", data.File.Name))
		h.Set("Content-Type", attachmentContentType(data.File.Name))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data.File.Data); err != nil {
			return nil, "", err
		}
	}

	if data.ManualData != nil && *data.ManualData != "" {
		if err := w.WriteField("manual_data", *data.ManualData); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func attachmentContentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return "text/csv"
	}
	return "text/plain"
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
