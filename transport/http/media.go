package http

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiscoverMovie returns the path of the video served by /stream.
// With an empty name the first .mp4 file in dir is used.
func DiscoverMovie(dir, name string) (string, error) {
	if name != "" {
		return filepath.Join(dir, name), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read media directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			return filepath.Join(dir, e.Name()), nil
		}
	}

	return "", fmt.Errorf("no .mp4 file in %s", dir)
}
