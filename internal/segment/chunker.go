package segment

import (
	"fmt"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/types"
)

// DefaultMaxPartMs is the default upper bound on one exported part.
const DefaultMaxPartMs uint64 = 300000 // 5 minutes

// Chunk splits a speaker track into consecutive parts of at most
// maxDurationMs each, preserving order. The final part may be shorter.
// A zero-duration track yields no parts; zero-length parts are never
// emitted. PartIndex is 1-based.
func Chunk(speaker string, track *audio.Buffer, maxDurationMs uint64) []types.SegmentPart {
	if maxDurationMs == 0 {
		maxDurationMs = DefaultMaxPartMs
	}

	total := track.DurationMs()
	if total == 0 {
		return nil
	}

	var parts []types.SegmentPart
	for start := uint64(0); start < total; start += maxDurationMs {
		end := start + maxDurationMs
		if end > total {
			end = total
		}
		parts = append(parts, types.SegmentPart{
			Speaker:   speaker,
			PartIndex: len(parts) + 1,
			Audio:     track.Slice(start, end),
		})
	}
	return parts
}

// DisplayName renders the user-facing label for a part. The " Part N"
// qualifier only appears when the speaker produced more than one part
// and the batch contains more than one speaker; a single-speaker,
// single-part result is just "Speaker X".
func DisplayName(p types.SegmentPart, partsForSpeaker, speakerCount int) string {
	name := fmt.Sprintf("Speaker %s", p.Speaker)
	if partsForSpeaker > 1 && speakerCount > 1 {
		name += fmt.Sprintf(" Part %d", p.PartIndex)
	}
	return name
}
