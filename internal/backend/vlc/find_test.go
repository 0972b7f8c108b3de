package vlc

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"player-control/internal/backend"
)

func TestFindVLCOverride(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit")
	}
	bin := filepath.Join(t.TempDir(), "cvlc")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	path, err := FindVLC(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, path)

	_, err = FindVLC(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWindowArgs(t *testing.T) {
	assert.Equal(t, []string{"--fullscreen"}, windowArgs(nil))
	assert.Equal(t, []string{"--fullscreen"}, windowArgs(&backend.Surface{}))
	assert.Equal(t, []string{"--drawable-xid=4242"}, windowArgs(&backend.Surface{WindowID: 4242}))
}
