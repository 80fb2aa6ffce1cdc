package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Codec converts between container formats (mp3, m4a, opus, ...) and
// in-memory PCM buffers.
type Codec interface {
	Decode(ctx context.Context, src []byte) (*Buffer, error)
	Encode(ctx context.Context, buf *Buffer) ([]byte, error)
}

// FFmpegCodec shells out to ffmpeg over stdin/stdout pipes, so no temp
// files are created for decode/encode round trips.
type FFmpegCodec struct {
	binary string
	rate   int
}

// NewFFmpegCodec creates a codec that decodes to mono PCM at the given
// sample rate and encodes buffers to mp3.
func NewFFmpegCodec(sampleRate int) *FFmpegCodec {
	return &FFmpegCodec{binary: "ffmpeg", rate: sampleRate}
}

// Decode converts any ffmpeg-readable input into a mono PCM buffer.
func (c *FFmpegCodec) Decode(ctx context.Context, src []byte) (*Buffer, error) {
	cmd := exec.CommandContext(ctx, c.binary,
		"-i", "pipe:0",
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(c.rate),
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(src)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %v\nOutput: %s", err, stderr.String())
	}
	return NewBuffer(out.Bytes(), c.rate), nil
}

// Encode converts a PCM buffer to mp3 bytes.
func (c *FFmpegCodec) Encode(ctx context.Context, buf *Buffer) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary,
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(buf.SampleRate()),
		"-i", "pipe:0",
		"-f", "mp3",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(buf.PCM())

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg encode failed: %v\nOutput: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
