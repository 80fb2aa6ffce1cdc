package types

import (
	"time"

	"github.com/anshulg/speakersplit/internal/audio"
)

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Utterance is one contiguous speech interval attributed to a single
// speaker by the transcription service. Times are milliseconds from the
// start of the source audio.
type Utterance struct {
	Speaker string `json:"speaker"`
	StartMs uint64 `json:"start"`
	EndMs   uint64 `json:"end"`
}

// DurationMs returns the declared length of the utterance.
func (u Utterance) DurationMs() uint64 {
	if u.EndMs <= u.StartMs {
		return 0
	}
	return u.EndMs - u.StartMs
}

// SegmentPart is one bounded-duration slice of a speaker track, ready for
// encoding and export. PartIndex is 1-based within the speaker.
type SegmentPart struct {
	Speaker   string
	PartIndex int
	Audio     *audio.Buffer
}

// JobInfo is the externally visible snapshot of an async job.
type JobInfo struct {
	ID           string    `json:"job_id"`
	RequestName  string    `json:"name"`
	SourceURL    string    `json:"source_url"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage,omitempty"`
	Error        string    `json:"error,omitempty"`
	SpeakerCount int       `json:"speaker_count,omitempty"`
	PartCount    int       `json:"part_count,omitempty"`
	ArchivePath  string    `json:"archive_path,omitempty"`
	DriveURL     string    `json:"gdrive_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
