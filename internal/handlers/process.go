package handlers

import (
	"encoding/base64"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/anshulg/speakersplit/internal/download"
	"github.com/anshulg/speakersplit/internal/export"
	"github.com/anshulg/speakersplit/internal/pipeline"
)

// apiKeyLength is the exact length of an AssemblyAI API key.
const apiKeyLength = 32

// PipelineFactory builds an orchestrator bound to the given
// transcription credential.
type PipelineFactory func(apiKey string) *pipeline.Orchestrator

// ProcessHandler serves the synchronous speaker-split endpoint.
type ProcessHandler struct {
	newPipeline   PipelineFactory
	defaultAPIKey string
}

// NewProcessHandler creates a new process handler. defaultAPIKey is used
// when the request does not carry its own credential; it may be empty.
func NewProcessHandler(newPipeline PipelineFactory, defaultAPIKey string) *ProcessHandler {
	return &ProcessHandler{
		newPipeline:   newPipeline,
		defaultAPIKey: defaultAPIKey,
	}
}

// ProcessRequest represents the request body
type ProcessRequest struct {
	YouTubeURL string `json:"youtube_url"`
	APIKey     string `json:"api_key"`
}

type audioFile struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Handle runs the whole pipeline synchronously and returns either a ZIP
// archive (Accept: application/zip) or base64-encoded clips as JSON.
// Validation failures are rejected before any pipeline work begins.
func (h *ProcessHandler) Handle(c *fiber.Ctx) error {
	var req ProcessRequest
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

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	} else if len(apiKey) != apiKeyLength {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid API key. It should be 32 characters long",
			"code":  "ERR_INVALID_KEY",
		})
	}
	if apiKey == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Missing API key",
			"code":  "ERR_NO_KEY",
		})
	}

	orch := h.newPipeline(apiKey)
	result, err := orch.Run(c.UserContext(), req.YouTubeURL, nil)
	if err != nil {
		log.Printf("Pipeline failed for %s: %v", req.YouTubeURL, err)
		status := 500
		if errors.Is(err, pipeline.ErrTimeout) {
			status = 504
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"code":  errorCode(err),
		})
	}

	if strings.Contains(c.Get(fiber.HeaderAccept), "application/zip") {
		archive, err := export.Archive(result.Clips)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "ERR_ARCHIVE_FAILED",
			})
		}
		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.ArchiveName+`"`)
		return c.Send(archive)
	}

	files := make([]audioFile, 0, len(result.Clips))
	for _, clip := range result.Clips {
		files = append(files, audioFile{
			Name: clip.DisplayName,
			Data: base64.StdEncoding.EncodeToString(clip.Data),
		})
	}
	return c.JSON(fiber.Map{
		"audio_files":   files,
		"speaker_count": result.SpeakerCount,
		"part_count":    result.PartCount,
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrSourceUnavailable):
		return "ERR_SOURCE_UNAVAILABLE"
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		return "ERR_EMPTY_TRANSCRIPT"
	case errors.Is(err, pipeline.ErrTimeout):
		return "ERR_TRANSCRIPTION_TIMEOUT"
	case errors.Is(err, pipeline.ErrTranscriptionFailed):
		return "ERR_TRANSCRIPTION_FAILED"
	case errors.Is(err, pipeline.ErrInvalidInput):
		return "ERR_INVALID_INPUT"
	default:
		return "ERR_PIPELINE_FAILED"
	}
}
