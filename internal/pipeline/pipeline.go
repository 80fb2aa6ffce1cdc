package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/download"
	"github.com/anshulg/speakersplit/internal/metrics"
	"github.com/anshulg/speakersplit/internal/segment"
	"github.com/anshulg/speakersplit/internal/transcribe"
	"github.com/anshulg/speakersplit/internal/types"
)

// State is the orchestrator's position in the pipeline. Transitions are
// strictly sequential; Failed is reachable from any state.
type State string

const (
	StateIdle         State = "idle"
	StateDownloading  State = "downloading"
	StateUploading    State = "uploading"
	StateTranscribing State = "transcribing"
	StateSegmenting   State = "segmenting"
	StateChunking     State = "chunking"
	StateExporting    State = "exporting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// ProgressFunc is notified on every state transition. May be nil.
type ProgressFunc func(State)

// Config is the orchestrator's explicit configuration. Nothing in the
// pipeline reads process-wide environment state.
type Config struct {
	// PauseMs is silence inserted between a speaker's consecutive
	// utterances. Zero disables pauses.
	PauseMs uint64

	// MaxPartMs bounds one exported part. Zero selects the 5-minute
	// default.
	MaxPartMs uint64

	// PollInterval is the delay between transcription status checks.
	PollInterval time.Duration

	// PollTimeout bounds the whole poll loop. The run fails with
	// ErrTimeout once it elapses.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPartMs == 0 {
		c.MaxPartMs = segment.DefaultMaxPartMs
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Minute
	}
	return c
}

// Clip is one encoded, named output of a run. Speaker and part identity
// travel here as structured fields; display names are derived from them
// once, never parsed back out of a string.
type Clip struct {
	Speaker     string
	PartIndex   int
	DisplayName string
	Data        []byte
}

// Result is the outcome of a successful run.
type Result struct {
	Clips        []Clip
	SpeakerCount int
	PartCount    int
}

// Orchestrator sequences the external collaborators around the
// segmentation core: download, transcribe-and-poll, decode, segment,
// chunk, encode. All state is per-run; one Orchestrator is safe to use
// from concurrent requests.
type Orchestrator struct {
	source      download.Source
	transcriber transcribe.Transcriber
	codec       audio.Codec
	engine      *segment.Engine
	cfg         Config
}

// New wires an orchestrator from its collaborators.
func New(source download.Source, transcriber transcribe.Transcriber, codec audio.Codec, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	var opts []segment.Option
	if cfg.PauseMs > 0 {
		opts = append(opts, segment.WithPause(cfg.PauseMs))
	}
	return &Orchestrator{
		source:      source,
		transcriber: transcriber,
		codec:       codec,
		engine:      segment.NewEngine(opts...),
		cfg:         cfg,
	}
}

// Run executes the full pipeline for one source URL. On any failure the
// error wraps one sentinel from errors.go and no clips are returned.
func (o *Orchestrator) Run(ctx context.Context, sourceURL string, onProgress ProgressFunc) (*Result, error) {
	progress := func(s State) {
		if onProgress != nil {
			onProgress(s)
		}
	}

	res, err := o.run(ctx, sourceURL, progress)
	if err != nil {
		progress(StateFailed)
		metrics.RecordPipeline(outcomeFor(err))
		return nil, err
	}
	progress(StateDone)
	metrics.RecordPipeline("completed")
	metrics.RecordParts(res.PartCount)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, sourceURL string, progress ProgressFunc) (*Result, error) {
	progress(StateDownloading)
	stageStart := time.Now()
	raw, err := o.source.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	metrics.ObserveStage(string(StateDownloading), time.Since(stageStart))
	log.Printf("Downloaded %d bytes from %s", len(raw), sourceURL)

	progress(StateUploading)
	stageStart = time.Now()
	jobID, err := o.transcriber.Submit(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	metrics.ObserveStage(string(StateUploading), time.Since(stageStart))

	progress(StateTranscribing)
	stageStart = time.Now()
	utterances, err := o.waitForTranscript(ctx, jobID)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage(string(StateTranscribing), time.Since(stageStart))
	if len(utterances) == 0 {
		return nil, ErrEmptyTranscript
	}
	log.Printf("Transcript %s completed: %d utterances", jobID, len(utterances))

	buf, err := o.codec.Decode(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("decode source audio: %w", err)
	}

	progress(StateSegmenting)
	stageStart = time.Now()
	tracks := o.engine.Segment(utterances, buf)
	metrics.ObserveStage(string(StateSegmenting), time.Since(stageStart))

	progress(StateChunking)
	speakers := make([]string, 0, len(tracks))
	for speaker := range tracks {
		speakers = append(speakers, speaker)
	}
	sort.Strings(speakers)

	var parts []types.SegmentPart
	partsPerSpeaker := make(map[string]int, len(speakers))
	for _, speaker := range speakers {
		sp := segment.Chunk(speaker, tracks[speaker], o.cfg.MaxPartMs)
		partsPerSpeaker[speaker] = len(sp)
		parts = append(parts, sp...)
	}

	progress(StateExporting)
	stageStart = time.Now()
	clips := make([]Clip, 0, len(parts))
	for _, p := range parts {
		data, err := o.codec.Encode(ctx, p.Audio)
		if err != nil {
			return nil, fmt.Errorf("encode speaker %s part %d: %w", p.Speaker, p.PartIndex, err)
		}
		clips = append(clips, Clip{
			Speaker:     p.Speaker,
			PartIndex:   p.PartIndex,
			DisplayName: segment.DisplayName(p, partsPerSpeaker[p.Speaker], len(speakers)),
			Data:        data,
		})
	}
	metrics.ObserveStage(string(StateExporting), time.Since(stageStart))

	return &Result{
		Clips:        clips,
		SpeakerCount: len(speakers),
		PartCount:    len(parts),
	}, nil
}

// waitForTranscript polls at a fixed interval until the job reaches a
// terminal status, the deadline passes, or ctx is cancelled.
func (o *Orchestrator) waitForTranscript(ctx context.Context, jobID string) ([]types.Utterance, error) {
	deadline := time.NewTimer(o.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		res, err := o.transcriber.Poll(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
		switch res.Status {
		case transcribe.StatusCompleted:
			return res.Utterances, nil
		case transcribe.StatusPending:
			log.Printf("Transcript %s still processing...", jobID)
		default:
			detail := res.ErrorDetail
			if detail == "" {
				detail = fmt.Sprintf("status %q", res.Status)
			}
			return nil, fmt.Errorf("%w: %s", ErrTranscriptionFailed, detail)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, ctx.Err())
		case <-deadline.C:
			return nil, fmt.Errorf("%w after %s", ErrTimeout, o.cfg.PollTimeout)
		case <-ticker.C:
		}
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "failed"
	}
}
