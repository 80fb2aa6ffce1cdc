package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/transcribe"
	"github.com/anshulg/speakersplit/internal/types"
)

const testRate = 1000

type fakeSource struct {
	data []byte
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.data, f.err
}

type fakeTranscriber struct {
	submitErr error
	pollErr   error
	// results are returned in order; the last one repeats.
	results []*transcribe.PollResult
	polls   int
}

func (f *fakeTranscriber) Submit(ctx context.Context, audio []byte) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-1", nil
}

func (f *fakeTranscriber) Poll(ctx context.Context, jobID string) (*transcribe.PollResult, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	i := f.polls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.polls++
	return f.results[i], nil
}

// identityCodec treats the raw download as s16le PCM directly and
// "encodes" by returning the PCM bytes, so tests can inspect content.
type identityCodec struct {
	decodeErr error
	encodeErr error
}

func (c *identityCodec) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	return audio.NewBuffer(data, testRate), nil
}

func (c *identityCodec) Encode(ctx context.Context, buf *audio.Buffer) ([]byte, error) {
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	return buf.PCM(), nil
}

func sourceBytes(durationMs int) []byte {
	pcm := make([]byte, durationMs*2)
	for i := range pcm {
		pcm[i] = byte(i%250 + 1)
	}
	return pcm
}

func completed(utterances ...types.Utterance) *transcribe.PollResult {
	return &transcribe.PollResult{Status: transcribe.StatusCompleted, Utterances: utterances}
}

func fastConfig() Config {
	return Config{PollInterval: time.Millisecond, PollTimeout: time.Second}
}

func TestRunSuccess(t *testing.T) {
	src := &fakeSource{data: sourceBytes(5000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		completed(
			types.Utterance{Speaker: "A", StartMs: 0, EndMs: 1000},
			types.Utterance{Speaker: "B", StartMs: 1500, EndMs: 3000},
			types.Utterance{Speaker: "A", StartMs: 3000, EndMs: 4000},
		),
	}}

	o := New(src, tr, &identityCodec{}, fastConfig())
	res, err := o.Run(context.Background(), "https://youtube.com/watch?v=x", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, res.SpeakerCount)
	assert.Equal(t, 2, res.PartCount)
	require.Len(t, res.Clips, 2)

	// Speakers come out in sorted order.
	assert.Equal(t, "A", res.Clips[0].Speaker)
	assert.Equal(t, "Speaker A", res.Clips[0].DisplayName)
	assert.Equal(t, "B", res.Clips[1].Speaker)
	assert.Equal(t, "Speaker B", res.Clips[1].DisplayName)

	// A's clip is both utterances back to back; 2000ms at 2 bytes/ms.
	assert.Len(t, res.Clips[0].Data, 4000)
	assert.Len(t, res.Clips[1].Data, 3000)
}

func TestRunStateSequence(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		{Status: transcribe.StatusPending},
		completed(types.Utterance{Speaker: "A", StartMs: 0, EndMs: 500}),
	}}

	var states []State
	o := New(src, tr, &identityCodec{}, fastConfig())
	_, err := o.Run(context.Background(), "url", func(s State) {
		states = append(states, s)
	})

	require.NoError(t, err)
	assert.Equal(t, []State{
		StateDownloading,
		StateUploading,
		StateTranscribing,
		StateSegmenting,
		StateChunking,
		StateExporting,
		StateDone,
	}, states)
}

func TestRunSourceError(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("yt-dlp exited 1")}

	var last State
	o := New(src, &fakeTranscriber{}, &identityCodec{}, fastConfig())
	_, err := o.Run(context.Background(), "url", func(s State) { last = s })

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateFailed, last)
}

func TestRunSubmitError(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{submitErr: fmt.Errorf("401 unauthorized")}

	o := New(src, tr, &identityCodec{}, fastConfig())
	_, err := o.Run(context.Background(), "url", nil)

	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestRunTranscriptServiceError(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		{Status: transcribe.StatusError, ErrorDetail: "audio file unreadable"},
	}}

	o := New(src, tr, &identityCodec{}, fastConfig())
	_, err := o.Run(context.Background(), "url", nil)

	require.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "audio file unreadable")
}

func TestRunEmptyTranscript(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{completed()}}

	o := New(src, tr, &identityCodec{}, fastConfig())
	_, err := o.Run(context.Background(), "url", nil)

	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestRunPollTimeout(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		{Status: transcribe.StatusPending},
	}}

	o := New(src, tr, &identityCodec{}, Config{
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  35 * time.Millisecond,
	})
	_, err := o.Run(context.Background(), "url", nil)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, tr.polls, 2)
}

func TestRunContextCancelled(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		{Status: transcribe.StatusPending},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(src, tr, &identityCodec{}, fastConfig())
	_, err := o.Run(ctx, "url", nil)

	require.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
}

func TestRunDecodeError(t *testing.T) {
	src := &fakeSource{data: sourceBytes(1000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		completed(types.Utterance{Speaker: "A", StartMs: 0, EndMs: 500}),
	}}

	o := New(src, tr, &identityCodec{decodeErr: fmt.Errorf("ffmpeg decode failed")}, fastConfig())
	_, err := o.Run(context.Background(), "url", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode source audio")
}

func TestRunChunksLongTrack(t *testing.T) {
	src := &fakeSource{data: sourceBytes(7000)}
	tr := &fakeTranscriber{results: []*transcribe.PollResult{
		completed(types.Utterance{Speaker: "A", StartMs: 0, EndMs: 7000}),
	}}

	o := New(src, tr, &identityCodec{}, Config{
		MaxPartMs:    3000,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	res, err := o.Run(context.Background(), "url", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, res.SpeakerCount)
	assert.Equal(t, 3, res.PartCount)
	assert.Equal(t, "Speaker A", res.Clips[0].DisplayName)
	assert.Equal(t, 1, res.Clips[0].PartIndex)
	assert.Equal(t, 3, res.Clips[2].PartIndex)
}

func TestRunIsRepeatable(t *testing.T) {
	src := &fakeSource{data: sourceBytes(2000)}
	utt := types.Utterance{Speaker: "A", StartMs: 0, EndMs: 1000}

	o := New(src, &fakeTranscriber{results: []*transcribe.PollResult{completed(utt)}}, &identityCodec{}, fastConfig())
	first, err := o.Run(context.Background(), "url", nil)
	require.NoError(t, err)

	o2 := New(src, &fakeTranscriber{results: []*transcribe.PollResult{completed(utt)}}, &identityCodec{}, fastConfig())
	second, err := o2.Run(context.Background(), "url", nil)
	require.NoError(t, err)

	require.Len(t, second.Clips, len(first.Clips))
	assert.Equal(t, first.Clips[0].Data, second.Clips[0].Data)
}
