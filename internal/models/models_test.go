package models

import "testing"

func ptr(s string) *string { return &s }

func TestLatestAnalysisPrefersCompleted(t *testing.T) {
	analyses := []Analysis{
		{ID: 3, Status: StatusPending},
		{ID: 2, Status: StatusCompleted, AnalysisText: ptr("done")},
		{ID: 1, Status: StatusCompleted, AnalysisText: ptr("older")},
	}
	got, ok := LatestAnalysis(analyses)
	if !ok {
		t.Fatal("expected an analysis")
	}
	if got.ID != 2 {
		t.Errorf("expected analysis 2, got %d", got.ID)
	}
}

func TestLatestAnalysisFallsBackToFirst(t *testing.T) {
	analyses := []Analysis{
		{ID: 5, Status: StatusFailed},
		{ID: 4, Status: StatusPending},
	}
	got, ok := LatestAnalysis(analyses)
	if !ok {
		t.Fatal("expected an analysis")
	}
	if got.ID != 5 {
		t.Errorf("expected analysis 5, got %d", got.ID)
	}
}

func TestLatestAnalysisEmpty(t *testing.T) {
	if _, ok := LatestAnalysis(nil); ok {
		t.Error("expected no analysis for empty list")
	}
}

func TestAnalysisAccessorsFollowStatus(t *testing.T) {
	pending := Analysis{Status: StatusPending, AnalysisText: ptr("partial"), ErrorMessage: ptr("x")}
	if _, ok := pending.Text(); ok {
		t.Error("pending analysis should not expose text")
	}
	if _, ok := pending.Failure(); ok {
		t.Error("pending analysis should not expose an error")
	}

	failed := Analysis{Status: StatusFailed, ErrorMessage: ptr("AI service unavailable")}
	msg, ok := failed.Failure()
	if !ok || msg != "AI service unavailable" {
		t.Errorf("expected failure message, got %q (%v)", msg, ok)
	}

	completed := Analysis{Status: StatusCompleted, AnalysisText: ptr("## Grades")}
	text, ok := completed.Text()
	if !ok || text != "## Grades" {
		t.Errorf("expected text, got %q (%v)", text, ok)
	}
}

func TestFileTypeNormalized(t *testing.T) {
	cases := map[FileType]FileType{
		"text":   FileTypeText,
		"TXT":    FileTypeText,
		"csv":    FileTypeCSV,
		"manual": FileTypeManual,
	}
	for in, want := range cases {
		if got := in.Normalized(); got != want {
			t.Errorf("Normalized(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2026-02-06T10:00:00Z":        "Feb 06, 2026",
		"2026-02-06T10:00:00.123456":  "Feb 06, 2026",
		"2026-02-06T10:00:00.5+02:00": "Feb 06, 2026",
		"2026-02-06 10:00:00":         "Feb 06, 2026",
		"not a date":                  "not a date",
	}
	for in, want := range cases {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatShortDate(t *testing.T) {
	if got := FormatShortDate("2026-02-06T10:00:00Z"); got != "2/6/2026" {
		t.Errorf("expected 2/6/2026, got %q", got)
	}
}
