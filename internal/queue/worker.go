package queue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/anshulg/speakersplit/internal/export"
	"github.com/anshulg/speakersplit/internal/pipeline"
	"github.com/anshulg/speakersplit/internal/storage"
	"github.com/anshulg/speakersplit/internal/types"
)

// WorkerPool manages a pool of workers processing speaker-split jobs.
type WorkerPool struct {
	jobQueue     chan *Job
	workerCount  int
	orchestrator *pipeline.Orchestrator
	localStorage *storage.LocalStorage
	driveClient  *export.DriveClient
	db           *storage.MetadataDB

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewWorkerPool creates a new worker pool. driveClient and db may be nil.
func NewWorkerPool(
	workerCount int,
	orchestrator *pipeline.Orchestrator,
	localStorage *storage.LocalStorage,
	driveClient *export.DriveClient,
	db *storage.MetadataDB,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:     make(chan *Job, 100), // Buffer of 100 jobs
		workerCount:  workerCount,
		orchestrator: orchestrator,
		localStorage: localStorage,
		driveClient:  driveClient,
		db:           db,
		jobs:         make(map[string]*Job),
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// EnqueueJob registers a job and adds it to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	wp.mu.Lock()
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	wp.jobs[job.ID] = job
	wp.mu.Unlock()

	wp.jobQueue <- job
	log.Printf("Job %s enqueued (url: %s, name: %s)", job.ID, job.SourceURL, job.RequestName)
}

// Snapshot returns the current state of a job, or false if unknown.
func (wp *WorkerPool) Snapshot(jobID string) (types.JobInfo, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	job, ok := wp.jobs[jobID]
	if !ok {
		return types.JobInfo{}, false
	}
	return job.info(), true
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					wp.finishJob(job, types.StatusFailed, fmt.Sprintf("worker panic: %v", r))
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs the full pipeline for one job and persists the result.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	wp.setStatus(job, types.StatusProcessing)

	result, err := wp.orchestrator.Run(context.Background(), job.SourceURL, func(s pipeline.State) {
		wp.mu.Lock()
		job.Stage = s
		wp.mu.Unlock()
	})
	if err != nil {
		log.Printf("Worker %d: Pipeline failed for job %s: %v", workerID, job.ID, err)
		wp.finishJob(job, types.StatusFailed, err.Error())
		return
	}

	archive, err := export.Archive(result.Clips)
	if err != nil {
		log.Printf("Worker %d: Archive failed for job %s: %v", workerID, job.ID, err)
		wp.finishJob(job, types.StatusFailed, fmt.Sprintf("archive failed: %v", err))
		return
	}

	localPath, err := wp.localStorage.SaveArchive(job.RequestName, archive)
	if err != nil {
		log.Printf("Worker %d: Local save failed for job %s: %v", workerID, job.ID, err)
		wp.finishJob(job, types.StatusFailed, fmt.Sprintf("local save failed: %v", err))
		return
	}

	// Google Drive upload is best-effort, with retry.
	var driveURL string
	if wp.driveClient != nil {
		for attempt := 1; attempt <= 3; attempt++ {
			driveURL, err = wp.driveClient.UploadArchive(job.RequestName, archive)
			if err == nil {
				break
			}
			log.Printf("Worker %d: Google Drive upload attempt %d/3 failed: %v", workerID, attempt, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second) // Exponential backoff
			}
		}
		if err != nil {
			log.Printf("Worker %d: WARNING - Google Drive upload failed after 3 attempts, continuing with local save only", workerID)
		}
	}

	wp.mu.Lock()
	job.SpeakerCount = result.SpeakerCount
	job.PartCount = result.PartCount
	job.ArchivePath = localPath
	job.DriveURL = driveURL
	wp.mu.Unlock()

	wp.finishJob(job, types.StatusCompleted, "")
	log.Printf("Worker %d: Job %s completed (%d speakers, %d parts, archive: %s)",
		workerID, job.ID, result.SpeakerCount, result.PartCount, localPath)
}

func (wp *WorkerPool) setStatus(job *Job, status string) {
	wp.mu.Lock()
	job.Status = status
	wp.mu.Unlock()
}

// finishJob marks the job terminal and writes its metadata record.
func (wp *WorkerPool) finishJob(job *Job, status, errMsg string) {
	wp.mu.Lock()
	job.Status = status
	job.Error = errMsg
	info := job.info()
	wp.mu.Unlock()

	if wp.db != nil {
		if err := wp.db.SaveJob(info); err != nil {
			log.Printf("Database save failed for job %s: %v", job.ID, err)
		}
	}
}
