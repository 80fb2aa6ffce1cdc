package segment

import (
	"sort"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/types"
)

// Engine assembles per-speaker audio tracks from timestamped utterances
// and a single decoded source buffer.
//
// Overlap between utterances of the same speaker is resolved by clamping
// each utterance's start forward past audio that speaker has already
// consumed, so no speech is counted twice. Overlap between different
// speakers is left untouched; attributing simultaneous speech is the
// transcription service's call.
type Engine struct {
	pauseMs uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPause makes the engine insert the given duration of silence
// between consecutive utterances appended to the same speaker track.
// Zero disables pause insertion.
func WithPause(ms uint64) Option {
	return func(e *Engine) { e.pauseMs = ms }
}

// NewEngine creates a segmentation engine. By default no pauses are
// inserted between a speaker's utterances.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// speakerTrack accumulates one speaker's audio. lastEndMs is the
// rightmost end already consumed for that speaker and drives the
// overlap clamp.
type speakerTrack struct {
	buf       *audio.Buffer
	lastEndMs uint64
}

// Segment partitions source into per-speaker tracks. Utterances may
// arrive in any order; the result depends only on their timing, not
// their input order. Zero-width utterances, and utterances fully
// absorbed by the overlap clamp, contribute no audio and raise no
// error. An empty utterance list yields an empty map.
func (e *Engine) Segment(utterances []types.Utterance, source *audio.Buffer) map[string]*audio.Buffer {
	// Sort a copy so repeated calls with the same slice stay pure.
	ordered := make([]types.Utterance, len(utterances))
	copy(ordered, utterances)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMs < ordered[j].StartMs
	})

	// Discover every speaker up front so a speaker whose first utterance
	// starts at time 0 is handled the same as any other.
	tracks := make(map[string]*speakerTrack, 4)
	for _, u := range ordered {
		if _, ok := tracks[u.Speaker]; !ok {
			tracks[u.Speaker] = &speakerTrack{}
		}
	}

	for _, u := range ordered {
		track := tracks[u.Speaker]

		effectiveStart := u.StartMs
		if track.lastEndMs > effectiveStart {
			effectiveStart = track.lastEndMs
		}

		if effectiveStart < u.EndMs {
			seg := source.Slice(effectiveStart, u.EndMs)
			if track.buf == nil {
				track.buf = seg
			} else {
				if e.pauseMs > 0 {
					track.buf.Append(audio.Silence(e.pauseMs, source.SampleRate()))
				}
				track.buf.Append(seg)
			}
		}

		// Advance regardless of emission so a later out-of-order
		// utterance cannot re-claim time already consumed.
		if u.EndMs > track.lastEndMs {
			track.lastEndMs = u.EndMs
		}
	}

	result := make(map[string]*audio.Buffer, len(tracks))
	for speaker, track := range tracks {
		if track.buf == nil {
			track.buf = audio.Silence(0, source.SampleRate())
		}
		result[speaker] = track.buf
	}
	return result
}
