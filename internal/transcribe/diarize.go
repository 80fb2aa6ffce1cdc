package transcribe

import "github.com/anshulg/speakersplit/internal/types"

// defaultSpeakerGapMs is the silence length above which two adjacent
// segments are attributed to different speakers.
const defaultSpeakerGapMs uint64 = 1500

// AssignSpeakersByGap labels utterances with alternating speaker IDs
// ("A", "B"), switching whenever the silence between consecutive
// utterances exceeds gapMs. Utterances that already carry a speaker are
// left untouched. This is a heuristic stand-in for services that return
// timing without speaker labels.
func AssignSpeakersByGap(utterances []types.Utterance, gapMs uint64) []types.Utterance {
	if len(utterances) == 0 {
		return utterances
	}
	for _, u := range utterances {
		if u.Speaker != "" {
			return utterances
		}
	}

	speakers := [2]string{"A", "B"}
	current := 0
	out := make([]types.Utterance, len(utterances))
	copy(out, utterances)

	out[0].Speaker = speakers[current]
	for i := 1; i < len(out); i++ {
		if out[i].StartMs > out[i-1].EndMs && out[i].StartMs-out[i-1].EndMs > gapMs {
			current = 1 - current
		}
		out[i].Speaker = speakers[current]
	}
	return out
}
