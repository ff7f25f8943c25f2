package models

import "strings"

// FileType records how a draft's data was supplied.
type FileType string

const (
	FileTypeCSV    FileType = "csv"
	FileTypeText   FileType = "txt"
	FileTypeManual FileType = "manual"
)

// Normalized maps the backend's spelling of plain-text uploads ("text") onto FileTypeText.
func (f FileType) Normalized() FileType {
	if strings.EqualFold(string(f), "text") {
		return FileTypeText
	}
	return FileType(strings.ToLower(string(f)))
}

// Status is the lifecycle state of an analysis.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Draft is an uploaded set of draft results plus metadata.
type Draft struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	DraftData      string   `json:"draft_data"`
	FileType       FileType `json:"file_type"`
	TeamNames      []string `json:"team_names"`
	AdditionalInfo string   `json:"additional_info"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      *string  `json:"updated_at,omitempty"`
}

// Analysis is an AI-generated report for a draft.
type Analysis struct {
	ID           int64   `json:"id"`
	DraftID      int64   `json:"draft_id"`
	AnalysisText *string `json:"analysis_text,omitempty"`
	Status       Status  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
	ShareToken   *string `json:"share_token,omitempty"`
	IsPublic     bool    `json:"is_public"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    *string `json:"updated_at,omitempty"`
}

// Text returns the analysis body. It is only meaningful once the analysis completed.
func (a Analysis) Text() (string, bool) {
	if a.Status != StatusCompleted || a.AnalysisText == nil {
		return "", false
	}
	return *a.AnalysisText, true
}

// Failure returns the backend error message of a failed analysis.
func (a Analysis) Failure() (string, bool) {
	if a.Status != StatusFailed || a.ErrorMessage == nil || *a.ErrorMessage == "" {
		return "", false
	}
	return *a.ErrorMessage, true
}

// FileAttachment is an uploaded draft file held in memory.
type FileAttachment struct {
	Name string
	Data []byte
}

// DraftFormData is the payload for creating a draft.
type DraftFormData struct {
	Title          string
	TeamNames      []string
	AdditionalInfo string
	File           *FileAttachment
	ManualData     *string
}

// SharedAnalysis is the public projection of a shared analysis.
type SharedAnalysis struct {
	AnalysisText string `json:"analysis_text"`
	DraftTitle   string `json:"draft_title"`
	CreatedAt    string `json:"created_at"`
}

// ShareResponse is returned when an analysis is made public.
type ShareResponse struct {
	ShareURL string `json:"share_url"`
}

// LatestAnalysis picks the analysis to display: the first completed one, otherwise
// the first in the given order. The backend lists analyses newest first.
func LatestAnalysis(analyses []Analysis) (Analysis, bool) {
	for _, a := range analyses {
		if a.Status == StatusCompleted {
			return a, true
		}
	}
	if len(analyses) == 0 {
		return Analysis{}, false
	}
	return analyses[0], true
}
