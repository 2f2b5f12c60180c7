package http

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMovie(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.MP4"), nil, 0o600))

	path, err := DiscoverMovie(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.MP4"), path)

	path, err = DiscoverMovie(dir, "b.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.mp4"), path)

	_, err = DiscoverMovie(t.TempDir(), "")
	assert.Error(t, err)
}
