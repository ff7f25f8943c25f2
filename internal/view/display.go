package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/TobiSchelling/DraftAnalyzer/internal/format"
	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// Mode is how an analysis is presented, derived from its status.
type Mode int

const (
	ModePending Mode = iota
	ModeFailed
	ModeCompleted
)

// ErrNotShareable is returned when sharing or exporting an analysis that has not
// completed.
var ErrNotShareable = errors.New("analysis is not completed")

// CopyFlashDuration is how long the "Copied!" confirmation stays visible.
const CopyFlashDuration = 2 * time.Second

// Export is a downloadable plain-text rendition of an analysis.
type Export struct {
	Filename string
	Content  string
}

// Display presents one analysis. The share URL is memoised: once known it is
// returned without asking the backend again.
type Display struct {
	Analysis   models.Analysis
	DraftTitle string

	origin   string
	shareURL *string
}

// NewDisplay prepares an analysis for display. origin is the public base URL that
// relative share links are resolved against. An analysis that is already public
// seeds the share memo from its token.
func NewDisplay(a models.Analysis, draftTitle, origin string) *Display {
	d := &Display{Analysis: a, DraftTitle: draftTitle, origin: origin}
	if a.IsPublic && a.ShareToken != nil && *a.ShareToken != "" {
		u := ResolveShareURL(origin, "/share/"+url.PathEscape(*a.ShareToken))
		d.shareURL = &u
	}
	return d
}

// Mode reports how the analysis should be shown. Statuses other than completed
// and failed are treated as still pending.
func (d *Display) Mode() Mode {
	switch d.Analysis.Status {
	case models.StatusCompleted:
		return ModeCompleted
	case models.StatusFailed:
		return ModeFailed
	default:
		return ModePending
	}
}

// Pending, Failed and Completed are template conveniences over Mode.
func (d *Display) Pending() bool   { return d.Mode() == ModePending }
func (d *Display) Failed() bool    { return d.Mode() == ModeFailed }
func (d *Display) Completed() bool { return d.Mode() == ModeCompleted }

// Message is the guidance shown for pending and failed analyses.
func (d *Display) Message() string {
	switch d.Mode() {
	case ModePending:
		return MsgPending
	case ModeFailed:
		if msg, ok := d.Analysis.Failure(); ok {
			return msg
		}
		return MsgAnalysisFailed
	default:
		return ""
	}
}

// HTML is the formatted analysis text, empty unless completed.
func (d *Display) HTML() template.HTML {
	text, ok := d.Analysis.Text()
	if !ok {
		return ""
	}
	return format.HTML(text)
}

// GeneratedOn is the analysis date as M/D/YYYY.
func (d *Display) GeneratedOn() string {
	return models.FormatShortDate(d.Analysis.CreatedAt)
}

// Export builds the plain-text download. It makes no requests.
func (d *Display) Export() (Export, error) {
	text, ok := d.Analysis.Text()
	if !ok {
		return Export{}, ErrNotShareable
	}
	return Export{
		Filename: ExportFilename(d.DraftTitle),
		Content:  fmt.Sprintf("%s - Analysis\n\n%s\n\nGenerated on: %s", d.DraftTitle, text, d.GeneratedOn()),
	}, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]`)

// ExportFilename derives the download name from a draft title.
func ExportFilename(title string) string {
	return unsafeFilename.ReplaceAllString(strings.ToLower(title), "_") + "_analysis.txt"
}

// SharedURL returns the memoised share URL, if any.
func (d *Display) SharedURL() (string, bool) {
	if d.shareURL == nil {
		return "", false
	}
	return *d.shareURL, true
}

// ShareLink is SharedURL for templates: the memoised URL or "".
func (d *Display) ShareLink() string {
	u, _ := d.SharedURL()
	return u
}

// Share returns the public link for the analysis. The first call asks the backend;
// later calls return the memoised URL without a request.
func (d *Display) Share(ctx context.Context, s Sharer) (string, error) {
	if d.Mode() != ModeCompleted {
		return "", ErrNotShareable
	}
	if u, ok := d.SharedURL(); ok {
		return u, nil
	}

	resp, err := s.ShareAnalysis(ctx, d.Analysis.ID)
	if err != nil {
		log.Printf("Failed to share analysis %d: %v", d.Analysis.ID, err)
		return "", fmt.Errorf("sharing analysis %d: %w", d.Analysis.ID, err)
	}

	u := ResolveShareURL(d.origin, resp.ShareURL)
	d.shareURL = &u
	d.Analysis.IsPublic = true
	return u, nil
}

// ResolveShareURL resolves a share link returned by the backend (usually a bare
// path) against the public origin. Absolute links and an empty origin pass
// through unchanged.
func ResolveShareURL(origin, shareURL string) string {
	ref, err := url.Parse(shareURL)
	if err != nil || ref.IsAbs() || origin == "" {
		return shareURL
	}
	base, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil {
		return shareURL
	}
	return base.ResolveReference(ref).String()
}
