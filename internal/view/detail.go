package view

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// DetailView is one draft together with its analyses.
type DetailView struct {
	State    State
	Draft    *models.Draft
	Analyses []models.Analysis
	Error    string
	Err      error
}

// LoadDetail fetches the draft and its analyses concurrently. If either request
// fails the whole view fails and nothing partial is kept.
func LoadDetail(ctx context.Context, c DetailLoader, id int64) *DetailView {
	v := &DetailView{State: Loading}

	var (
		draft    *models.Draft
		analyses []models.Analysis
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.GetDraft(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching draft %d: %w", id, err)
		}
		draft = d
		return nil
	})
	g.Go(func() error {
		list, err := c.ListAnalyses(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching analyses for draft %d: %w", id, err)
		}
		analyses = list
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("Error fetching draft: %v", err)
		v.State, v.Error, v.Err = Failed, MsgLoadDraft, err
		return v
	}

	v.State, v.Draft, v.Analyses = Success, draft, analyses
	return v
}

// Latest returns the analysis to display. See models.LatestAnalysis.
func (v *DetailView) Latest() (models.Analysis, bool) {
	return models.LatestAnalysis(v.Analyses)
}

// Analyze requests a new analysis and prepends it to the loaded list without
// re-fetching. On failure the view becomes failed.
func (v *DetailView) Analyze(ctx context.Context, c Analyzer) error {
	if v.State != Success || v.Draft == nil {
		return fmt.Errorf("analyze: draft not loaded")
	}

	a, err := c.AnalyzeDraft(ctx, v.Draft.ID)
	if err != nil {
		log.Printf("Failed to analyze draft %d: %v", v.Draft.ID, err)
		v.State, v.Error, v.Err = Failed, MsgAnalyze, err
		return err
	}
	v.Analyses = append([]models.Analysis{*a}, v.Analyses...)
	return nil
}

// Find returns the loaded analysis with the given ID.
func (v *DetailView) Find(id int64) (models.Analysis, bool) {
	for _, a := range v.Analyses {
		if a.ID == id {
			return a, true
		}
	}
	return models.Analysis{}, false
}
