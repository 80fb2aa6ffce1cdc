package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/anshulg/speakersplit/internal/pipeline"
)

// ArchiveName is the download filename for a clip archive.
const ArchiveName = "speaker_segments.zip"

// FileName renders the stable archive entry name for a clip. Clip
// identity travels in the struct fields; nothing ever parses this
// string back.
func FileName(c pipeline.Clip) string {
	return fmt.Sprintf("speaker_%s_part_%d.mp3", c.Speaker, c.PartIndex)
}

// Archive packs encoded clips into a ZIP archive.
func Archive(clips []pipeline.Clip) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, clip := range clips {
		w, err := zw.Create(FileName(clip))
		if err != nil {
			return nil, fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := w.Write(clip.Data); err != nil {
			return nil, fmt.Errorf("write archive entry: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
