package audio

// Buffer is an in-memory audio timeline: signed 16-bit little-endian mono
// PCM at a fixed sample rate, addressable by half-open millisecond ranges.
// A Buffer owns its bytes; Slice and Concat return independent copies.
type Buffer struct {
	rate int
	pcm  []byte
}

const bytesPerSample = 2

// NewBuffer wraps decoded PCM in a Buffer. The data is copied so the
// buffer has exclusive ownership. A trailing odd byte is dropped to keep
// the buffer sample-aligned.
func NewBuffer(pcm []byte, sampleRate int) *Buffer {
	n := len(pcm) - len(pcm)%bytesPerSample
	cp := make([]byte, n)
	copy(cp, pcm[:n])
	return &Buffer{rate: sampleRate, pcm: cp}
}

// Silence returns a buffer of digital silence of the given duration.
func Silence(durationMs uint64, sampleRate int) *Buffer {
	return &Buffer{
		rate: sampleRate,
		pcm:  make([]byte, msToOffset(durationMs, sampleRate)),
	}
}

// msToOffset converts a millisecond position to a sample-aligned byte
// offset.
func msToOffset(ms uint64, rate int) int {
	samples := ms * uint64(rate) / 1000
	return int(samples) * bytesPerSample
}

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.rate }

// DurationMs returns the buffer length in milliseconds.
func (b *Buffer) DurationMs() uint64 {
	samples := uint64(len(b.pcm) / bytesPerSample)
	return samples * 1000 / uint64(b.rate)
}

// PCM returns the raw sample bytes. The slice is the buffer's backing
// store; callers must not modify it.
func (b *Buffer) PCM() []byte { return b.pcm }

// Slice returns a new buffer covering [startMs, endMs). Both bounds are
// clamped to the buffer's duration; a range that is empty after clamping
// yields a zero-length buffer. The result shares no state with b.
func (b *Buffer) Slice(startMs, endMs uint64) *Buffer {
	start := msToOffset(startMs, b.rate)
	end := msToOffset(endMs, b.rate)
	if start > len(b.pcm) {
		start = len(b.pcm)
	}
	if end > len(b.pcm) {
		end = len(b.pcm)
	}
	if end < start {
		end = start
	}
	cp := make([]byte, end-start)
	copy(cp, b.pcm[start:end])
	return &Buffer{rate: b.rate, pcm: cp}
}

// Concat returns a new buffer holding b followed by other. Both inputs
// must share a sample rate.
func (b *Buffer) Concat(other *Buffer) *Buffer {
	cp := make([]byte, 0, len(b.pcm)+len(other.pcm))
	cp = append(cp, b.pcm...)
	cp = append(cp, other.pcm...)
	return &Buffer{rate: b.rate, pcm: cp}
}

// Append extends b in place with the contents of other. Both buffers
// must share a sample rate.
func (b *Buffer) Append(other *Buffer) {
	b.pcm = append(b.pcm, other.pcm...)
}
