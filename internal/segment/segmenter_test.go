package segment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/types"
)

// 1000 Hz → 2 bytes per millisecond, so offsets stay easy to reason about.
const testRate = 1000

// testSource builds a source buffer whose bytes encode their position,
// making extracted ranges checkable.
func testSource(durationMs int) *audio.Buffer {
	pcm := make([]byte, durationMs*2)
	for i := range pcm {
		pcm[i] = byte(i%250 + 1) // never zero, so silence is distinguishable
	}
	return audio.NewBuffer(pcm, testRate)
}

func TestSegmentEmptyInput(t *testing.T) {
	e := NewEngine()
	tracks := e.Segment(nil, testSource(1000))
	assert.Empty(t, tracks)
}

func TestSegmentSingleUtterance(t *testing.T) {
	e := NewEngine()
	src := testSource(5000)

	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 1000, EndMs: 2500},
	}, src)

	require.Len(t, tracks, 1)
	require.Contains(t, tracks, "A")
	assert.Equal(t, uint64(1500), tracks["A"].DurationMs())
	assert.Equal(t, src.Slice(1000, 2500).PCM(), tracks["A"].PCM())
}

func TestSegmentSameSpeakerOverlapClamped(t *testing.T) {
	e := NewEngine()
	src := testSource(3000)

	// B's start is clamped forward to A's consumed end, so the overlap
	// region 500–1000 is extracted exactly once.
	tracks := e.Segment([]types.Utterance{
		{Speaker: "spk1", StartMs: 0, EndMs: 1000},
		{Speaker: "spk1", StartMs: 500, EndMs: 1500},
	}, src)

	require.Contains(t, tracks, "spk1")
	assert.Equal(t, uint64(1500), tracks["spk1"].DurationMs())
	assert.Equal(t, src.Slice(0, 1500).PCM(), tracks["spk1"].PCM())
}

func TestSegmentCrossSpeakerOverlapPassedThrough(t *testing.T) {
	e := NewEngine()
	src := testSource(3000)

	tracks := e.Segment([]types.Utterance{
		{Speaker: "spk1", StartMs: 0, EndMs: 1000},
		{Speaker: "spk2", StartMs: 500, EndMs: 1500},
	}, src)

	require.Len(t, tracks, 2)
	assert.Equal(t, uint64(1000), tracks["spk1"].DurationMs())
	assert.Equal(t, uint64(1000), tracks["spk2"].DurationMs())
	assert.Equal(t, src.Slice(500, 1500).PCM(), tracks["spk2"].PCM())
}

func TestSegmentOrderInvariance(t *testing.T) {
	src := testSource(6000)
	utterances := []types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 1000},
		{Speaker: "B", StartMs: 800, EndMs: 2000},
		{Speaker: "A", StartMs: 900, EndMs: 2500},
		{Speaker: "B", StartMs: 2500, EndMs: 3000},
		{Speaker: "A", StartMs: 4000, EndMs: 5000},
	}

	permutations := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 4, 0, 3, 2},
	}

	e := NewEngine()
	baseline := e.Segment(utterances, src)

	for _, perm := range permutations {
		shuffled := make([]types.Utterance, len(utterances))
		for i, idx := range perm {
			shuffled[i] = utterances[idx]
		}
		tracks := e.Segment(shuffled, src)

		require.Len(t, tracks, len(baseline))
		for speaker, want := range baseline {
			require.Contains(t, tracks, speaker)
			assert.True(t, bytes.Equal(want.PCM(), tracks[speaker].PCM()),
				"speaker %s differs for permutation %v", speaker, perm)
		}
	}
}

func TestSegmentNoAudioGrowth(t *testing.T) {
	src := testSource(10000)
	utterances := []types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 2000},
		{Speaker: "A", StartMs: 1000, EndMs: 3000}, // overlaps previous
		{Speaker: "A", StartMs: 2500, EndMs: 2600}, // fully absorbed
		{Speaker: "B", StartMs: 500, EndMs: 4000},
		{Speaker: "B", StartMs: 6000, EndMs: 9000},
	}

	tracks := NewEngine().Segment(utterances, src)

	declared := map[string]uint64{}
	for _, u := range utterances {
		declared[u.Speaker] += u.DurationMs()
	}
	for speaker, track := range tracks {
		assert.LessOrEqual(t, track.DurationMs(), declared[speaker],
			"speaker %s output exceeds declared speech", speaker)
	}
}

func TestSegmentZeroWidthUtteranceDropped(t *testing.T) {
	e := NewEngine()
	src := testSource(3000)

	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 1000, EndMs: 1000},
	}, src)

	// The speaker was observed, but no audio was emitted.
	require.Contains(t, tracks, "A")
	assert.Equal(t, uint64(0), tracks["A"].DurationMs())
}

func TestSegmentFullyClampedUtteranceSkipped(t *testing.T) {
	e := NewEngine()
	src := testSource(5000)

	// The second utterance lies entirely inside already-consumed time.
	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 2000},
		{Speaker: "A", StartMs: 500, EndMs: 1000},
	}, src)

	assert.Equal(t, uint64(2000), tracks["A"].DurationMs())
	assert.Equal(t, src.Slice(0, 2000).PCM(), tracks["A"].PCM())
}

func TestSegmentLastEndAdvancesWithoutEmission(t *testing.T) {
	e := NewEngine()
	src := testSource(5000)

	// The zero-width utterance at 3000 must still advance lastEnd so the
	// following utterance is clamped past it.
	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 3000},
		{Speaker: "A", StartMs: 2000, EndMs: 2000},
		{Speaker: "A", StartMs: 2500, EndMs: 4000},
	}, src)

	assert.Equal(t, uint64(4000), tracks["A"].DurationMs())
}

func TestSegmentClampsSliceToSourceEnd(t *testing.T) {
	e := NewEngine()
	src := testSource(2000)

	// Utterance runs past the end of the audio; the slice is clamped to
	// the buffer's end instead of failing.
	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 1500, EndMs: 9000},
	}, src)

	assert.Equal(t, uint64(500), tracks["A"].DurationMs())
}

func TestSegmentPauseInsertion(t *testing.T) {
	e := NewEngine(WithPause(500))
	src := testSource(5000)

	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 1000},
		{Speaker: "A", StartMs: 2000, EndMs: 3000},
	}, src)

	require.Contains(t, tracks, "A")
	got := tracks["A"]
	require.Equal(t, uint64(2500), got.DurationMs())

	// speech, 500ms of zeros, speech
	assert.Equal(t, src.Slice(0, 1000).PCM(), got.PCM()[:2000])
	assert.Equal(t, make([]byte, 1000), got.PCM()[2000:3000])
	assert.Equal(t, src.Slice(2000, 3000).PCM(), got.PCM()[3000:])
}

func TestSegmentNoPauseBetweenContiguousUtterancesByDefault(t *testing.T) {
	e := NewEngine()
	src := testSource(5000)

	tracks := e.Segment([]types.Utterance{
		{Speaker: "A", StartMs: 0, EndMs: 1000},
		{Speaker: "A", StartMs: 2000, EndMs: 3000},
	}, src)

	assert.Equal(t, uint64(2000), tracks["A"].DurationMs())
}

func TestSegmentIsPure(t *testing.T) {
	e := NewEngine()
	src := testSource(5000)
	utterances := []types.Utterance{
		{Speaker: "B", StartMs: 2000, EndMs: 3000},
		{Speaker: "A", StartMs: 0, EndMs: 1000},
	}

	first := e.Segment(utterances, src)
	second := e.Segment(utterances, src)

	// Input slice order is untouched and results are identical.
	assert.Equal(t, "B", utterances[0].Speaker)
	for speaker := range first {
		assert.Equal(t, first[speaker].PCM(), second[speaker].PCM())
	}
}
