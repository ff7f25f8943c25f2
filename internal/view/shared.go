package view

import (
	"context"
	"html/template"
	"log"

	"github.com/TobiSchelling/DraftAnalyzer/internal/format"
	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// SharedView is the public page for a share token.
type SharedView struct {
	State    State
	Analysis *models.SharedAnalysis
	Title    string
	Error    string
	Err      error
}

// LoadShared fetches a shared analysis with a single request. Any failure,
// including an unknown or unshared token, yields the not-found state.
func LoadShared(ctx context.Context, c SharedLoader, token string) *SharedView {
	v := &SharedView{State: Loading}
	a, err := c.GetSharedAnalysis(ctx, token)
	if err != nil {
		log.Printf("Error fetching shared analysis: %v", err)
		v.State, v.Title, v.Error, v.Err = Failed, TitleSharedMissing, MsgSharedNotFound, err
		return v
	}
	v.State, v.Analysis, v.Title = Success, a, a.DraftTitle
	return v
}

// HTML renders the shared analysis text.
func (v *SharedView) HTML() template.HTML {
	if v.Analysis == nil {
		return ""
	}
	return format.HTML(v.Analysis.AnalysisText)
}

// AnalyzedOn is the display date of the shared analysis.
func (v *SharedView) AnalyzedOn() string {
	if v.Analysis == nil {
		return ""
	}
	return models.FormatShortDate(v.Analysis.CreatedAt)
}
