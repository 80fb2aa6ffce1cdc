package pipeline

import "errors"

// Failure taxonomy. Collaborator failures abort the run immediately and
// surface as exactly one of these; no partial per-speaker output is ever
// returned.
var (
	// ErrInvalidInput marks malformed locators or credentials, rejected
	// before any pipeline work begins.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable marks download or extraction failure.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTranscriptionFailed marks an error status or an unexpected
	// status from the transcription service.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrEmptyTranscript marks a completed transcript with zero
	// utterances. Callers expect speech, so this is a failure rather
	// than an empty success.
	ErrEmptyTranscript = errors.New("transcript contains no utterances")

	// ErrTimeout marks a transcription job that did not reach a
	// terminal status before the polling deadline.
	ErrTimeout = errors.New("transcription timed out")
)
