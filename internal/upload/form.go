// Package upload implements the draft upload form: input modes, client-side
// validation, and submission through the API client.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// Mode selects how the draft data is supplied.
type Mode string

const (
	ModeFile   Mode = "file"
	ModeManual Mode = "manual"
)

// DefaultMaxFileSize is the upload cap used when none is configured (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

// DefaultExtensions are the file extensions accepted for upload.
var DefaultExtensions = []string{".txt", ".csv"}

// Limits constrains file uploads.
type Limits struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// DefaultLimits returns the standard upload limits.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize, AllowedExtensions: DefaultExtensions}
}

// Form holds the state of the upload form.
type Form struct {
	Title          string                 `form:"title" validate:"required"`
	Mode           Mode                   `form:"mode" validate:"oneof=file manual"`
	TeamNames      []string               `form:"team_names"`
	AdditionalInfo string                 `form:"additional_info"`
	ManualData     string                 `form:"manual_data" validate:"required_if=Mode manual"`
	File           *models.FileAttachment `form:"file" validate:"required_if=Mode file"`
}

// NewForm returns an empty form in file mode with one team-name row.
func NewForm() *Form {
	return &Form{Mode: ModeFile, TeamNames: []string{""}}
}

// FieldErrors maps form field names to messages. It is returned as the error of a
// blocked submission.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid draft form: " + strings.Join(parts, "; ")
}

var messages = map[string]string{
	"title":       "Draft title is required",
	"manual_data": "Draft data is required",
	"file":        "A CSV or TXT file is required",
	"mode":        "Choose an upload method",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims the free-text fields. Team names keep their rows so the form can
// be redisplayed as entered.
func (f *Form) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.AdditionalInfo = strings.TrimSpace(f.AdditionalInfo)
	if strings.TrimSpace(f.ManualData) == "" {
		f.ManualData = ""
	}
	if f.Mode == "" {
		f.Mode = ModeFile
	}
}

// Validate checks the form and returns nil when it may be submitted.
func (f *Form) Validate(limits Limits) FieldErrors {
	f.Normalize()

	errs := FieldErrors{}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs["form"] = err.Error()
			return errs
		}
		for _, fe := range verrs {
			msg, ok := messages[fe.Field()]
			if !ok {
				msg = fmt.Sprintf("failed %s validation", fe.Tag())
			}
			errs[fe.Field()] = msg
		}
	}

	if f.Mode == ModeFile && f.File != nil {
		if msg := checkFile(f.File, limits); msg != "" {
			errs["file"] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkFile(file *models.FileAttachment, limits Limits) string {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}
	if len(limits.AllowedExtensions) == 0 {
		limits.AllowedExtensions = DefaultExtensions
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	allowed := false
	for _, e := range limits.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Sprintf("Only %s files are supported", strings.Join(limits.AllowedExtensions, ", "))
	}

	if fileTooLarge(file, limits) {
		return TooLargeMessage(limits.MaxFileSize)
	}
	if len(file.Data) == 0 {
		return "File is empty"
	}
	if !isText(file.Data) {
		return "File does not look like plain text or CSV"
	}
	return ""
}

func fileTooLarge(file *models.FileAttachment, limits Limits) bool {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}
	return file != nil && int64(len(file.Data)) > limits.MaxFileSize
}

// FileTooLarge reports whether the form is in file mode with a file over the cap.
func (f *Form) FileTooLarge(limits Limits) bool {
	return f.Mode == ModeFile && fileTooLarge(f.File, limits)
}

// TooLargeMessage is the field error for a file over the size cap.
func TooLargeMessage(limit int64) string {
	return "File is larger than " + humanize.IBytes(uint64(limit))
}

// isText reports whether data sniffs as text/plain or one of its children (text/csv).
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// FilteredTeamNames returns the team names that are not blank, as entered.
func (f *Form) FilteredTeamNames() []string {
	names := make([]string, 0, len(f.TeamNames))
	for _, name := range f.TeamNames {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	return names
}

// FormData builds the API payload. Only the active mode's data is included.
func (f *Form) FormData() models.DraftFormData {
	data := models.DraftFormData{
		Title:          f.Title,
		TeamNames:      f.FilteredTeamNames(),
		AdditionalInfo: f.AdditionalInfo,
	}
	switch f.Mode {
	case ModeFile:
		data.File = f.File
	case ModeManual:
		manual := f.ManualData
		data.ManualData = &manual
	}
	return data
}

// Creator creates drafts. *api.Client satisfies it.
type Creator interface {
	CreateDraft(ctx context.Context, data models.DraftFormData) (*models.Draft, error)
}

// Submit validates the form and, if valid, creates the draft and returns its ID.
// A blocked submission returns FieldErrors and makes no request. The form is left
// untouched on failure so it can be shown again.
func Submit(ctx context.Context, c Creator, f *Form, limits Limits) (int64, error) {
	if errs := f.Validate(limits); errs != nil {
		return 0, errs
	}

	draft, err := c.CreateDraft(ctx, f.FormData())
	if err != nil {
		log.Printf("Failed to upload draft %q: %v", f.Title, err)
		return 0, err
	}
	return draft.ID, nil
}
