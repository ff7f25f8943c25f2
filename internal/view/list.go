package view

import (
	"context"
	"log"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// ListView is the drafts overview.
type ListView struct {
	State  State
	Drafts []models.Draft
	Error  string
	Err    error
}

// LoadList fetches all drafts once.
func LoadList(ctx context.Context, c DraftLister) *ListView {
	v := &ListView{State: Loading}
	drafts, err := c.ListDrafts(ctx)
	if err != nil {
		log.Printf("Error fetching drafts: %v", err)
		v.State, v.Error, v.Err = Failed, MsgLoadDrafts, err
		return v
	}
	v.State, v.Drafts = Success, drafts
	return v
}

// Empty reports whether a successful load returned no drafts.
func (v *ListView) Empty() bool {
	return v.State == Success && len(v.Drafts) == 0
}
