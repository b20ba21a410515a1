package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// JobID is the textual form of a job's "id" field. Numeric and string ids
// are compared by value, so 5 and "5" name the same job.
type JobID string

// Job is an opaque record from the remote job source. Only ID is
// interpreted; Raw keeps the record bytes exactly as they were received.
type Job struct {
	ID  JobID
	Raw json.RawMessage
}

type LoadState int

const (
	LoadStateIdle LoadState = iota
	LoadStateLoading
	LoadStateError
)

func (s LoadState) String() string {
	switch s {
	case LoadStateIdle:
		return "idle"
	case LoadStateLoading:
		return "loading"
	case LoadStateError:
		return "error"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

var (
	ErrJobNotObject = errors.New("job record is not a JSON object")
	ErrJobIDMissing = errors.New("job id is missing")
)

// NewJob parses a single job record. The id must be a non-empty string or
// a number.
func NewJob(raw []byte) (Job, error) {
	raw = bytes.TrimSpace(raw)

	if !gjson.ValidBytes(raw) {
		return Job{}, ErrJobNotObject
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return Job{}, ErrJobNotObject
	}

	id, ok := idFromResult(parsed.Get("id"))
	if !ok {
		return Job{}, ErrJobIDMissing
	}

	return Job{
		ID:  id,
		Raw: json.RawMessage(bytes.Clone(raw)),
	}, nil
}

func JobFromResult(r gjson.Result) (Job, error) {
	return NewJob([]byte(r.Raw))
}

func idFromResult(r gjson.Result) (JobID, bool) {
	switch r.Type {
	case gjson.String:
		id := strings.TrimSpace(r.Str)
		if id == "" {
			return "", false
		}

		return JobID(id), true
	case gjson.Number:
		return numericID(r), true
	default:
		return "", false
	}
}

// numericID keeps integer literals as written so ids past 2^53 stay exact.
// Other forms go through float64, so 1, 1.0 and 1e0 share an id.
func numericID(r gjson.Result) JobID {
	raw := strings.TrimSpace(r.Raw)
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return JobID(raw)
	}

	return JobID(strconv.FormatFloat(r.Num, 'f', -1, 64))
}

// Field returns a field of the record by gjson path.
func (j Job) Field(path string) gjson.Result {
	if len(j.Raw) == 0 {
		return gjson.Result{}
	}

	return gjson.GetBytes(j.Raw, path)
}

// Title is a convenience for logs and list rendering.
func (j Job) Title() string {
	return strings.TrimSpace(j.Field("title").String())
}

// Displayable reports whether the record carries at least one of the fields
// a list row can show: title, primary details, contact or view/share counters.
func (j Job) Displayable() bool {
	if j.ID == "" {
		return false
	}

	if title := j.Field("title"); title.Type == gjson.String && strings.TrimSpace(title.Str) != "" {
		return true
	}

	if details := j.Field("primary_details"); details.IsObject() && len(details.Map()) > 0 {
		return true
	}

	if contact := j.Field("whatsapp_no"); contact.Exists() && strings.TrimSpace(contact.String()) != "" {
		return true
	}

	for _, counter := range []string{"views", "shares"} {
		if j.Field(counter).Type == gjson.Number {
			return true
		}
	}

	return false
}

func (j Job) MarshalJSON() ([]byte, error) {
	if len(j.Raw) == 0 {
		return []byte("null"), nil
	}

	return j.Raw, nil
}

func (j *Job) UnmarshalJSON(data []byte) error {
	parsed, err := NewJob(data)
	if err != nil {
		return err
	}

	*j = parsed

	return nil
}
