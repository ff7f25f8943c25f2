package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
)

// Action is what the submitting button asked for.
type Action struct {
	Kind  ActionKind
	Index int
}

// ActionKind enumerates form buttons.
type ActionKind int

const (
	ActionSubmit ActionKind = iota
	ActionAddTeam
	ActionRemoveTeam
)

// maxFieldSize caps each text field of the form.
const maxFieldSize = 1 << 20

// FromRequest decodes a browser submission of the upload form. Multipart bodies are
// read part by part, so when reading fails midway (for instance once
// http.MaxBytesReader trips) the returned form still holds every field decoded
// before the failure, and the error is returned alongside it.
func FromRequest(r *http.Request, limits Limits) (*Form, Action, error) {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}

	values := url.Values{}
	var (
		file    *models.FileAttachment
		readErr error
	)
	mr, err := r.MultipartReader()
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			readErr = fmt.Errorf("parsing upload form: %w", err)
		}
		values = r.PostForm
	case err != nil:
		readErr = fmt.Errorf("parsing upload form: %w", err)
	default:
		file, readErr = readParts(mr, values, limits.MaxFileSize)
	}

	f := &Form{
		Title:          values.Get("title"),
		Mode:           Mode(values.Get("mode")),
		AdditionalInfo: values.Get("additional_info"),
		ManualData:     values.Get("manual_data"),
		TeamNames:      append([]string(nil), values["team_names"]...),
	}
	if len(f.TeamNames) == 0 {
		f.TeamNames = []string{""}
	}
	if f.Mode == ModeFile || f.Mode == "" {
		f.File = file
	}
	return f, parseAction(values.Get("action")), readErr
}

// readParts collects the text fields into values and returns the uploaded file.
// The file is read one byte past the cap so oversize files are detected without
// buffering them whole.
func readParts(mr *multipart.Reader, values url.Values, maxFile int64) (*models.FileAttachment, error) {
	var file *models.FileAttachment
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return file, nil
		}
		if err != nil {
			return file, fmt.Errorf("reading upload form: %w", err)
		}

		name := part.FormName()
		if name == "file" {
			data, err := io.ReadAll(io.LimitReader(part, maxFile+1))
			part.Close()
			if part.FileName() != "" {
				file = &models.FileAttachment{Name: part.FileName(), Data: data}
			}
			if err != nil {
				return file, fmt.Errorf("reading uploaded file: %w", err)
			}
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
		part.Close()
		if err != nil {
			return file, fmt.Errorf("reading field %q: %w", name, err)
		}
		if len(data) > maxFieldSize {
			return file, fmt.Errorf("field %q is larger than %s", name, humanize.IBytes(maxFieldSize))
		}
		if name != "" {
			values.Add(name, string(data))
		}
	}
}

func parseAction(v string) Action {
	switch {
	case v == "add_team":
		return Action{Kind: ActionAddTeam}
	case strings.HasPrefix(v, "remove_team:"):
		i, err := strconv.Atoi(strings.TrimPrefix(v, "remove_team:"))
		if err != nil || i < 0 {
			return Action{Kind: ActionSubmit}
		}
		return Action{Kind: ActionRemoveTeam, Index: i}
	default:
		return Action{Kind: ActionSubmit}
	}
}

// Apply performs a row-editing action on the team-name list. It reports whether
// the action was a row edit (and so the form should be redisplayed, not submitted).
func (f *Form) Apply(a Action) bool {
	switch a.Kind {
	case ActionAddTeam:
		f.TeamNames = append(f.TeamNames, "")
		return true
	case ActionRemoveTeam:
		if len(f.TeamNames) > 1 && a.Index < len(f.TeamNames) {
			f.TeamNames = append(f.TeamNames[:a.Index], f.TeamNames[a.Index+1:]...)
		}
		return true
	default:
		return false
	}
}
