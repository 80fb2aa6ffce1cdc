package queue

import (
	"time"

	"github.com/anshulg/speakersplit/internal/pipeline"
	"github.com/anshulg/speakersplit/internal/types"
)

// Job is one queued speaker-split request.
type Job struct {
	ID          string
	RequestName string
	SourceURL   string

	// Mutable fields below are guarded by the pool's registry lock.
	Status       string
	Stage        pipeline.State
	Error        string
	SpeakerCount int
	PartCount    int
	ArchivePath  string
	DriveURL     string
	CreatedAt    time.Time
}

// NewJob creates a new job with default values
func NewJob(id, requestName, sourceURL string) *Job {
	return &Job{
		ID:          id,
		RequestName: requestName,
		SourceURL:   sourceURL,
		Status:      types.StatusQueued,
		Stage:       pipeline.StateIdle,
		CreatedAt:   time.Now(),
	}
}

// info converts the job to its externally visible snapshot. Caller must
// hold the registry lock.
func (j *Job) info() types.JobInfo {
	return types.JobInfo{
		ID:           j.ID,
		RequestName:  j.RequestName,
		SourceURL:    j.SourceURL,
		Status:       j.Status,
		Stage:        string(j.Stage),
		Error:        j.Error,
		SpeakerCount: j.SpeakerCount,
		PartCount:    j.PartCount,
		ArchivePath:  j.ArchivePath,
		DriveURL:     j.DriveURL,
		CreatedAt:    j.CreatedAt,
	}
}
