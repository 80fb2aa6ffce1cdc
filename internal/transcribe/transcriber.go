package transcribe

import (
	"context"

	"github.com/anshulg/speakersplit/internal/types"
)

// Transcript job status values as reported by Poll.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// PollResult is one observation of a transcription job.
type PollResult struct {
	Status      string
	Utterances  []types.Utterance
	ErrorDetail string
}

// Transcriber is the external speech service: submit audio bytes, then
// poll until the job reaches a terminal status. Utterances carry
// speaker labels and millisecond timing.
type Transcriber interface {
	Submit(ctx context.Context, audio []byte) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (*PollResult, error)
}
