package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Text is the job's plain-text description, one "Label: value" per line.
	Text string
	// Language optionally pins the output language; empty keeps the input's.
	Language string
}

// Summarizer produces a one-line teaser for a job posting.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
