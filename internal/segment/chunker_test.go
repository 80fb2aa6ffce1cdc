package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/types"
)

func TestChunkBoundaries(t *testing.T) {
	track := audio.Silence(700000, testRate)

	parts := Chunk("A", track, 300000)

	require.Len(t, parts, 3)
	wantDurations := []uint64{300000, 300000, 100000}
	for i, p := range parts {
		assert.Equal(t, "A", p.Speaker)
		assert.Equal(t, i+1, p.PartIndex)
		assert.Equal(t, wantDurations[i], p.Audio.DurationMs())
	}
}

func TestChunkExactMultiple(t *testing.T) {
	track := audio.Silence(600000, testRate)

	parts := Chunk("A", track, 300000)

	require.Len(t, parts, 2)
	assert.Equal(t, uint64(300000), parts[0].Audio.DurationMs())
	assert.Equal(t, uint64(300000), parts[1].Audio.DurationMs())
}

func TestChunkShorterThanWindow(t *testing.T) {
	track := audio.Silence(1234, testRate)

	parts := Chunk("B", track, 300000)

	require.Len(t, parts, 1)
	assert.Equal(t, 1, parts[0].PartIndex)
	assert.Equal(t, uint64(1234), parts[0].Audio.DurationMs())
}

func TestChunkZeroDurationTrack(t *testing.T) {
	parts := Chunk("A", audio.Silence(0, testRate), 300000)
	assert.Empty(t, parts)
}

func TestChunkZeroMaxFallsBackToDefault(t *testing.T) {
	track := audio.Silence(400000, testRate)

	parts := Chunk("A", track, 0)

	require.Len(t, parts, 2)
	assert.Equal(t, DefaultMaxPartMs, parts[0].Audio.DurationMs())
}

func TestChunkPreservesContentOrder(t *testing.T) {
	track := testSource(900)

	parts := Chunk("A", track, 400)

	require.Len(t, parts, 3)
	assert.Equal(t, track.Slice(0, 400).PCM(), parts[0].Audio.PCM())
	assert.Equal(t, track.Slice(400, 800).PCM(), parts[1].Audio.PCM())
	assert.Equal(t, track.Slice(800, 900).PCM(), parts[2].Audio.PCM())
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name            string
		part            types.SegmentPart
		partsForSpeaker int
		speakerCount    int
		want            string
	}{
		{
			name:            "single speaker single part",
			part:            types.SegmentPart{Speaker: "A", PartIndex: 1},
			partsForSpeaker: 1,
			speakerCount:    1,
			want:            "Speaker A",
		},
		{
			name:            "multiple parts multiple speakers",
			part:            types.SegmentPart{Speaker: "B", PartIndex: 2},
			partsForSpeaker: 3,
			speakerCount:    2,
			want:            "Speaker B Part 2",
		},
		{
			name:            "multiple parts single speaker",
			part:            types.SegmentPart{Speaker: "A", PartIndex: 2},
			partsForSpeaker: 2,
			speakerCount:    1,
			want:            "Speaker A",
		},
		{
			name:            "single part multiple speakers",
			part:            types.SegmentPart{Speaker: "C", PartIndex: 1},
			partsForSpeaker: 1,
			speakerCount:    3,
			want:            "Speaker C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayName(tt.part, tt.partsForSpeaker, tt.speakerCount)
			assert.Equal(t, tt.want, got)
		})
	}
}
