package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/anshulg/speakersplit/internal/types"
)

// WhisperTranscriber uses the OpenAI Whisper API as an alternative
// backend. The API is synchronous and carries no speaker labels, so
// Submit runs the whole transcription, assigns speakers with a
// silence-gap heuristic, and parks the result for Poll to pick up.
type WhisperTranscriber struct {
	client *openai.Client
	gapMs  uint64

	mu      sync.Mutex
	results map[string]*PollResult
}

// NewWhisperTranscriber creates a Whisper-backed transcriber. gapMs is
// the inter-segment silence above which the speaker is assumed to have
// changed; zero selects the default of 1500ms.
func NewWhisperTranscriber(apiKey string, gapMs uint64) *WhisperTranscriber {
	if gapMs == 0 {
		gapMs = defaultSpeakerGapMs
	}
	return &WhisperTranscriber{
		client:  openai.NewClient(apiKey),
		gapMs:   gapMs,
		results: make(map[string]*PollResult),
	}
}

// Submit transcribes the audio and stores the finished result under a
// fresh job ID. The call blocks for the duration of the API request.
func (w *WhisperTranscriber) Submit(ctx context.Context, audio []byte) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio.mp3",
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}

	utterances := make([]types.Utterance, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		start := secondsToMs(seg.Start)
		end := secondsToMs(seg.End)
		if end <= start {
			continue
		}
		utterances = append(utterances, types.Utterance{
			StartMs: start,
			EndMs:   end,
		})
	}
	utterances = AssignSpeakersByGap(utterances, w.gapMs)

	jobID := uuid.New().String()
	w.mu.Lock()
	w.results[jobID] = &PollResult{Status: StatusCompleted, Utterances: utterances}
	w.mu.Unlock()
	return jobID, nil
}

// Poll returns the stored result for a job created by Submit.
func (w *WhisperTranscriber) Poll(ctx context.Context, jobID string) (*PollResult, error) {
	w.mu.Lock()
	res, ok := w.results[jobID]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown transcript job %q", jobID)
	}
	return res, nil
}

func secondsToMs(sec float64) uint64 {
	if sec <= 0 {
		return 0
	}
	return uint64(sec * 1000)
}
