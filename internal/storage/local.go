package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage saves finished clip archives to the local filesystem.
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// SaveArchive writes an archive under a dated directory structure
// (outputs/2025/01/23/) and returns its path.
func (ls *LocalStorage) SaveArchive(requestName string, archive []byte) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %v", err)
	}

	// Filename: 20250123_143022_podcast_episode.zip
	timestamp := now.Format("20060102_150405")
	path := filepath.Join(dateDir, fmt.Sprintf("%s_%s.zip", timestamp, sanitizeFilename(requestName)))

	if err := os.WriteFile(path, archive, 0644); err != nil {
		return "", fmt.Errorf("failed to save archive: %v", err)
	}

	return path, nil
}

// sanitizeFilename removes path separators and invalid characters.
func sanitizeFilename(name string) string {
	result := filepath.Base(name)
	for _, c := range []string{":", "*", "?", "\"", "<", ">", "|"} {
		result = strings.ReplaceAll(result, c, "_")
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
