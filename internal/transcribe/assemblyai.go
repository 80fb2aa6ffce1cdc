package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anshulg/speakersplit/internal/types"
)

// DefaultAssemblyAIBaseURL is the production API root.
const DefaultAssemblyAIBaseURL = "https://api.assemblyai.com/v2"

// AssemblyAIClient talks to the AssemblyAI v2 REST API: upload raw audio,
// create a transcript job with speaker labels, poll for the result.
type AssemblyAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAssemblyAIClient creates a client. An empty baseURL selects the
// production endpoint; tests point it at an httptest server.
func NewAssemblyAIClient(apiKey, baseURL string) *AssemblyAIClient {
	if baseURL == "" {
		baseURL = DefaultAssemblyAIBaseURL
	}
	return &AssemblyAIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

type transcriptResponse struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Error      string            `json:"error"`
	Utterances []types.Utterance `json:"utterances"`
}

// Submit uploads the audio bytes and creates a transcript job with
// speaker labels enabled. It returns the transcript job ID.
func (c *AssemblyAIClient) Submit(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("content-type", "application/octet-stream")

	var up uploadResponse
	if err := c.do(req, &up); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	body, err := json.Marshal(transcriptRequest{
		AudioURL:      up.UploadURL,
		SpeakerLabels: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transcript request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("content-type", "application/json")

	var tr transcriptResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}
	if tr.ID == "" {
		return "", fmt.Errorf("create transcript: empty job id in response")
	}
	return tr.ID, nil
}

// Poll fetches the current state of a transcript job. Non-terminal
// service statuses (queued, processing) are reported as pending;
// anything other than completed or a known in-flight status maps to
// error.
func (c *AssemblyAIClient) Poll(ctx context.Context, jobID string) (*PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)

	var tr transcriptResponse
	if err := c.do(req, &tr); err != nil {
		return nil, fmt.Errorf("poll transcript: %w", err)
	}

	switch tr.Status {
	case "completed":
		return &PollResult{Status: StatusCompleted, Utterances: tr.Utterances}, nil
	case "queued", "processing":
		return &PollResult{Status: StatusPending}, nil
	case "error":
		return &PollResult{Status: StatusError, ErrorDetail: tr.Error}, nil
	default:
		return &PollResult{
			Status:      StatusError,
			ErrorDetail: fmt.Sprintf("unexpected transcript status %q", tr.Status),
		}, nil
	}
}

func (c *AssemblyAIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
