package view_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/DraftAnalyzer/internal/apitest"
	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
	"github.com/TobiSchelling/DraftAnalyzer/internal/view"
)

const origin = "http://draft.example:8080"

func TestDisplayPending(t *testing.T) {
	b, c := setup(t)
	d := b.AddDraft(models.Draft{Title: "League", DraftData: "x"})
	a := b.AddAnalysis(models.Analysis{DraftID: d.ID, Status: models.StatusPending})

	disp := view.NewDisplay(a, d.Title, origin)
	assert.Equal(t, view.ModePending, disp.Mode())
	assert.True(t, disp.Pending())
	assert.Equal(t, "Our AI is currently analyzing your draft. This usually takes 30-60 seconds.", disp.Message())
	assert.Empty(t, disp.HTML())

	_, err := disp.Share(context.Background(), c)
	assert.True(t, errors.Is(err, view.ErrNotShareable))
	_, err = disp.Export()
	assert.True(t, errors.Is(err, view.ErrNotShareable))

	assert.Zero(t, b.Calls(apitest.RouteShare))
}

func TestDisplayFailedShowsBackendMessage(t *testing.T) {
	a := models.Analysis{ID: 1, Status: models.StatusFailed, ErrorMessage: ptr("AI service unavailable")}
	disp := view.NewDisplay(a, "League", origin)
	assert.Equal(t, view.ModeFailed, disp.Mode())
	assert.Equal(t, "AI service unavailable", disp.Message())
	assert.Empty(t, disp.HTML())
}

func TestDisplayFailedDefaultMessage(t *testing.T) {
	for _, msg := range []*string{nil, ptr("")} {
		disp := view.NewDisplay(models.Analysis{Status: models.StatusFailed, ErrorMessage: msg}, "League", origin)
		assert.Equal(t, "An error occurred while analyzing your draft.", disp.Message())
	}
}

func TestDisplayUnknownStatusIsPending(t *testing.T) {
	disp := view.NewDisplay(models.Analysis{Status: "queued", AnalysisText: ptr("leak")}, "League", origin)
	assert.Equal(t, view.ModePending, disp.Mode())
	assert.Empty(t, disp.HTML())
}

func TestDisplayCompletedHTML(t *testing.T) {
	a := models.Analysis{Status: models.StatusCompleted, AnalysisText: ptr("**Bold** and *italic*\n\n## Heading")}
	disp := view.NewDisplay(a, "League", origin)
	assert.True(t, disp.Completed())
	want := `<p class="mb-4"><strong>Bold</strong> and <em>italic</em></p><p class="mb-4">` +
		`<h2 class="text-xl font-bold text-gray-900 mt-8 mb-3">Heading</h2></p>`
	assert.Equal(t, want, string(disp.HTML()))
}

func TestShareTwiceMakesOneRequest(t *testing.T) {
	b, c := setup(t)
	d := b.AddDraft(models.Draft{Title: "League", DraftData: "x"})
	a := b.AddAnalysis(models.Analysis{DraftID: d.ID, Status: models.StatusCompleted, AnalysisText: ptr("ok")})

	disp := view.NewDisplay(a, d.Title, origin)
	_, ok := disp.SharedURL()
	assert.False(t, ok)

	first, err := disp.Share(context.Background(), c)
	require.NoError(t, err)
	second, err := disp.Share(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, origin+"/share/"+*a.ShareToken, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, b.Calls(apitest.RouteShare))
	assert.True(t, disp.Analysis.IsPublic)
}

func TestShareFailureIsNotMemoised(t *testing.T) {
	b, c := setup(t)
	d := b.AddDraft(models.Draft{Title: "League", DraftData: "x"})
	a := b.AddAnalysis(models.Analysis{DraftID: d.ID, Status: models.StatusCompleted, AnalysisText: ptr("ok")})
	b.FailWith(apitest.RouteShare, http.StatusInternalServerError)

	disp := view.NewDisplay(a, d.Title, origin)
	_, err := disp.Share(context.Background(), c)
	require.Error(t, err)
	_, ok := disp.SharedURL()
	assert.False(t, ok)
}

func TestDisplaySeedsShareMemoFromPublicAnalysis(t *testing.T) {
	b, c := setup(t)
	a := models.Analysis{ID: 7, Status: models.StatusCompleted, AnalysisText: ptr("ok"), IsPublic: true, ShareToken: ptr("tok-123")}

	disp := view.NewDisplay(a, "League", origin)
	u, ok := disp.SharedURL()
	require.True(t, ok)
	assert.Equal(t, origin+"/share/tok-123", u)

	got, err := disp.Share(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Zero(t, b.TotalCalls())
}

func TestExport(t *testing.T) {
	a := models.Analysis{
		Status:       models.StatusCompleted,
		AnalysisText: ptr("# Grades\n\nAlice: A"),
		CreatedAt:    "2026-02-06T10:01:00.000000",
	}
	exp, err := view.NewDisplay(a, "My League 2026!", origin).Export()
	require.NoError(t, err)
	assert.Equal(t, "my_league_2026__analysis.txt", exp.Filename)
	assert.Equal(t, "My League 2026! - Analysis\n\n# Grades\n\nAlice: A\n\nGenerated on: 2/6/2026", exp.Content)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "abc_analysis.txt", view.ExportFilename("ABC"))
	assert.Equal(t, "a_b_c_analysis.txt", view.ExportFilename("a b-c"))
	assert.Equal(t, "_analysis.txt", view.ExportFilename(""))
	assert.Equal(t, "caf___analysis.txt", view.ExportFilename("Café!"))
}

func TestResolveShareURL(t *testing.T) {
	assert.Equal(t, "http://x.test/share/abc", view.ResolveShareURL("http://x.test", "/share/abc"))
	assert.Equal(t, "http://x.test/share/abc", view.ResolveShareURL("http://x.test/", "/share/abc"))
	assert.Equal(t, "https://other.test/share/abc", view.ResolveShareURL("http://x.test", "https://other.test/share/abc"))
	assert.Equal(t, "/share/abc", view.ResolveShareURL("", "/share/abc"))
}

func TestCopyFlashDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, view.CopyFlashDuration)
}
