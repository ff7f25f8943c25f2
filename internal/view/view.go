// Package view holds the per-page state of the draft analyzer: the drafts list,
// a draft's detail with its analyses, the analysis display and the public shared
// view. Each view is loaded once per request and then rendered; loading is
// terminal on the first resolution.
package view

import (
	"context"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// State is the lifecycle of a fetch-driven view.
type State int

const (
	Loading State = iota
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-facing failure messages.
const (
	MsgLoadDrafts      = "Failed to load drafts"
	MsgLoadDraft       = "Failed to load draft data"
	MsgAnalyze         = "Failed to analyze draft"
	MsgSharedNotFound  = "Analysis not found or not publicly shared"
	TitleSharedMissing = "Analysis Not Found"
	MsgPending         = "Our AI is currently analyzing your draft. This usually takes 30-60 seconds."
	MsgAnalysisFailed  = "An error occurred while analyzing your draft."
)

// DraftLister lists drafts.
type DraftLister interface {
	ListDrafts(ctx context.Context) ([]models.Draft, error)
}

// DetailLoader fetches a draft and its analyses.
type DetailLoader interface {
	GetDraft(ctx context.Context, id int64) (*models.Draft, error)
	ListAnalyses(ctx context.Context, draftID int64) ([]models.Analysis, error)
}

// Analyzer requests a new analysis of a draft.
type Analyzer interface {
	AnalyzeDraft(ctx context.Context, draftID int64) (*models.Analysis, error)
}

// Sharer makes an analysis public.
type Sharer interface {
	ShareAnalysis(ctx context.Context, id int64) (*models.ShareResponse, error)
}

// SharedLoader fetches a publicly shared analysis.
type SharedLoader interface {
	GetSharedAnalysis(ctx context.Context, token string) (*models.SharedAnalysis, error)
}

// Backend is everything the views need from the API. *api.Client satisfies it.
type Backend interface {
	DraftLister
	DetailLoader
	Analyzer
	Sharer
	SharedLoader
	CreateDraft(ctx context.Context, data models.DraftFormData) (*models.Draft, error)
	GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error)
}
