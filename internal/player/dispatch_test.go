package player

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"player-control/internal/backend"
	"player-control/internal/geometry"
)

func TestDispatchRoutesIntents(t *testing.T) {
	h := newHarness(t)
	f := h.play("/a.mp4", "/b.mp4")
	f.Emit(backend.NewProgressUpdate(uuid.Nil, 0, 120_000))
	h.o.Step()

	require.NoError(t, h.o.Dispatch("pause"))
	assert.Equal(t, Paused, h.o.sess.State)
	require.NoError(t, h.o.Dispatch("PLAY"))
	assert.Equal(t, Started, h.o.sess.State)

	require.NoError(t, h.o.Dispatch("seek", "1:05"))
	assert.Equal(t, 1, count(f.Calls(), "SeekTo(65000)"))

	require.NoError(t, h.o.Dispatch("aspect"))
	assert.Equal(t, geometry.Original, h.o.sess.Aspect)

	require.NoError(t, h.o.Dispatch("volume", "0.2"))
	assert.Equal(t, 7, h.levels.volume)

	require.NoError(t, h.o.Dispatch("battery", "25"))
	assert.Equal(t, BatteryCritical, h.out.battery.Status)

	require.NoError(t, h.o.Dispatch("next"))
	assert.Equal(t, "/b.mp4", h.o.sess.Entry.Current())
	assert.ErrorIs(t, h.o.Dispatch("previous"), ErrNotLoaded, "still preparing")

	h.factory.Last().Emit(backend.NewPrepared(uuid.Nil))
	h.o.Step()
	require.NoError(t, h.o.Dispatch("previous"))
	assert.Equal(t, "/a.mp4", h.o.sess.Entry.Current())
}

func TestDispatchErrors(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.o.Dispatch("rewind"), ErrUnknownIntent)
	assert.ErrorIs(t, h.o.Dispatch("toggle"), ErrNoSession)

	h.play("/a.mp4")
	assert.ErrorIs(t, h.o.Dispatch("seek"), ErrBadArgument)
	assert.ErrorIs(t, h.o.Dispatch("seek", "soon"), ErrBadArgument)
	assert.ErrorIs(t, h.o.Dispatch("volume", "2"), ErrBadArgument)
	assert.ErrorIs(t, h.o.Dispatch("battery"), ErrBadArgument)
	assert.ErrorIs(t, h.o.Dispatch("next"), ErrEndOfPlaylist)
	assert.ErrorIs(t, h.o.Dispatch("seek", "9999999999999999"), ErrBadArgument)
}

func TestDispatchRejectsNonFiniteSlides(t *testing.T) {
	h := newHarness(t)
	h.play("/a.mp4")

	for _, arg := range []string{"NaN", "nan", "Inf", "-Inf", "+infinity"} {
		assert.ErrorIs(t, h.o.Dispatch("volume", arg), ErrBadArgument, arg)
		assert.ErrorIs(t, h.o.Dispatch("brightness", arg), ErrBadArgument, arg)
	}
	assert.Equal(t, 5, h.levels.volume)
	assert.InDelta(t, 0.5, h.levels.brightness, 1e-9)
}

func TestDispatchSeekBeforeLoadLeavesOverlay(t *testing.T) {
	h := newHarness(t)
	h.open("/a.mp4")

	assert.ErrorIs(t, h.o.Dispatch("seek", "10"), ErrNotLoaded)
	assert.False(t, h.out.overlay)
}

func TestIntentsListsUsage(t *testing.T) {
	list := Intents()
	assert.Contains(t, list, "toggle")
	assert.Contains(t, list, "seek <[hh:]mm:ss|seconds>")
	assert.IsIncreasing(t, list)
}

func TestParsePosition(t *testing.T) {
	tests := map[string]int{
		"0":        0,
		"90":       90_000,
		"1:30":     90_000,
		"01:02:03": 3_723_000,
	}
	for in, want := range tests {
		got, err := ParsePosition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "a:b", "1:2:3:4", "-5", "9999999999999999", "99999999999:00", "2147484"} {
		_, err := ParsePosition(bad)
		assert.Error(t, err, bad)
	}

	ms, err := ParsePosition(FormatTime(3_723_000))
	require.NoError(t, err)
	assert.Equal(t, 3_723_000, ms)
}
