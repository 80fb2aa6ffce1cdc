package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/anshulg/speakersplit/internal/download"
	"github.com/anshulg/speakersplit/internal/queue"
	"github.com/anshulg/speakersplit/internal/storage"
)

// JobsHandler serves the asynchronous job API.
type JobsHandler struct {
	workerPool *queue.WorkerPool
	db         *storage.MetadataDB
}

// NewJobsHandler creates a new jobs handler. db may be nil.
func NewJobsHandler(workerPool *queue.WorkerPool, db *storage.MetadataDB) *JobsHandler {
	return &JobsHandler{
		workerPool: workerPool,
		db:         db,
	}
}

// JobRequest represents the request body
type JobRequest struct {
	YouTubeURL string `json:"youtube_url"`
	Name       string `json:"name"`
}

// Create enqueues a new job and returns its ID immediately.
func (h *JobsHandler) Create(c *fiber.Ctx) error {
	var req JobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.YouTubeURL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Please provide 'youtube_url'",
			"code":  "ERR_NO_URL",
		})
	}
	if !download.IsYouTubeURL(req.YouTubeURL) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid YouTube URL",
			"code":  "ERR_INVALID_URL",
		})
	}
	if req.Name == "" {
		req.Name = "youtube_video"
	}

	job := queue.NewJob(uuid.New().String(), req.Name, req.YouTubeURL)
	h.workerPool.EnqueueJob(job)

	return c.JSON(fiber.Map{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Job queued, processing started",
	})
}

// Get returns the current state of one job. Falls back to the metadata
// database for jobs that predate this process.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	jobID := c.Params("id")

	if info, ok := h.workerPool.Snapshot(jobID); ok {
		return c.JSON(info)
	}

	if h.db != nil {
		if info, err := h.db.GetJob(jobID); err == nil {
			return c.JSON(info)
		}
	}

	return c.Status(404).JSON(fiber.Map{
		"error": "Job not found",
		"code":  "ERR_JOB_NOT_FOUND",
	})
}

// List returns recent jobs from the metadata database.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON([]interface{}{})
	}

	jobs, err := h.db.ListJobs(50)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_LIST_FAILED",
		})
	}
	return c.JSON(jobs)
}
