package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"player-control/internal/backend"
	"player-control/internal/backend/mpv"
	"player-control/internal/backend/vlc"
	"player-control/internal/log"
)

func TestCreateByKind(t *testing.T) {
	e := New(Config{
		MPV: mpv.Options{Log: log.Discard()},
		VLC: vlc.Options{Log: log.Discard()},
	})
	sink := backend.SinkFunc(func(backend.Event) {})
	factory := e.Factory()

	p, err := factory(backend.Primary, sink)
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, backend.Primary, p.Kind())

	f, err := factory(backend.Fallback, sink)
	require.NoError(t, err)
	defer f.Release()
	assert.Equal(t, backend.Fallback, f.Kind())

	assert.NotEqual(t, p.ID(), f.ID())

	_, err = factory(backend.Kind(9), sink)
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit")
	}
	dir := t.TempDir()
	fakeMPV := filepath.Join(dir, "mpv")
	require.NoError(t, os.WriteFile(fakeMPV, []byte("#!/bin/sh\n"), 0o755))

	e := New(Config{
		MPV: mpv.Options{Path: fakeMPV},
		VLC: vlc.Options{Path: filepath.Join(dir, "missing-vlc")},
	})
	probes := e.Probe()
	require.Len(t, probes, 2)

	assert.Equal(t, backend.Primary, probes[0].Kind)
	assert.NoError(t, probes[0].Err)
	assert.Equal(t, fakeMPV, probes[0].Path)

	assert.Equal(t, backend.Fallback, probes[1].Kind)
	assert.ErrorIs(t, probes[1].Err, vlc.ErrNotFound)
}
