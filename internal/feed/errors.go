package feed

import (
	"errors"
	"fmt"
)

// Messages shown to users. They are also how callers tell a transport
// failure from a bad payload without looking at the state.
const (
	NetworkErrorMessage      = "Failed to fetch jobs. Please try again later."
	MalformedResponseMessage = "Unexpected response format."
)

// NetworkError is a transport failure or a non-success status.
type NetworkError struct {
	Page       int
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (status = %d): %v", e.Page, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is a response whose top-level shape is wrong.
type MalformedResponseError struct {
	Page   int
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response for page %d: %s: %v", e.Page, e.Reason, e.Err)
	}

	return fmt.Sprintf("malformed response for page %d: %s", e.Page, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UserMessage maps a fetch error to the message shown to users. Errors of
// unknown type are reported as network failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return MalformedResponseMessage
	}

	return NetworkErrorMessage
}
