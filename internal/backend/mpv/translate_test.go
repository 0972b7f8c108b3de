package mpv

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"player-control/internal/backend"
)

func propertyChange(name string, data string) message {
	return message{Event: "property-change", Name: name, Data: json.RawMessage(data)}
}

func TestTranslateFileLoadedOnce(t *testing.T) {
	src := uuid.New()
	tr := newTracker(src)

	evs := tr.translate(message{Event: "file-loaded"})
	require.Len(t, evs, 1)
	assert.Equal(t, backend.Prepared, evs[0].Type)
	assert.Equal(t, src, evs[0].Source)

	assert.Empty(t, tr.translate(message{Event: "file-loaded"}))
}

func TestTranslateEndFile(t *testing.T) {
	tests := []struct {
		name   string
		msg    message
		want   backend.EventType
		code   int
		silent bool
	}{
		{name: "eof", msg: message{Event: "end-file", Reason: "eof"}, want: backend.Completion},
		{name: "unsupported", msg: message{Event: "end-file", Reason: "error", FileError: "unrecognized file format"}, want: backend.Error, code: backend.ErrorUnsupported},
		{name: "io", msg: message{Event: "end-file", Reason: "error", FileError: "loading failed"}, want: backend.Error, code: backend.ErrorIO},
		{name: "no detail", msg: message{Event: "end-file", Reason: "error"}, want: backend.Error, code: backend.ErrorUnknown},
		{name: "stop", msg: message{Event: "end-file", Reason: "stop"}, silent: true},
		{name: "quit", msg: message{Event: "end-file", Reason: "quit"}, silent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(uuid.New())
			evs := tr.translate(tt.msg)
			if tt.silent {
				assert.Empty(t, evs)
				assert.False(t, tr.ended)
				return
			}
			require.Len(t, evs, 1)
			assert.Equal(t, tt.want, evs[0].Type)
			assert.Equal(t, tt.code, evs[0].Code)
			assert.True(t, tr.ended)

			assert.Empty(t, tr.translate(tt.msg), "second end-file must be dropped")
		})
	}
}

func TestTranslatePauseIsTrackedSilently(t *testing.T) {
	tr := newTracker(uuid.New())
	assert.True(t, tr.paused.IsAbsent())

	assert.Empty(t, tr.translate(propertyChange("pause", "true")))
	assert.Equal(t, true, tr.paused.MustGet())

	assert.Empty(t, tr.translate(propertyChange("pause", "false")))
	assert.Equal(t, false, tr.paused.MustGet())

	assert.Empty(t, tr.translate(propertyChange("pause", `"yes"`)))
	assert.Equal(t, false, tr.paused.MustGet(), "unparseable values are ignored")
}

func TestTranslateProgress(t *testing.T) {
	tr := newTracker(uuid.New())

	evs := tr.translate(propertyChange("duration", "61.5"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.ProgressUpdate, evs[0].Type)
	assert.Equal(t, 61500, evs[0].DurationMs)
	assert.Equal(t, -1, evs[0].PositionMs)

	evs = tr.translate(propertyChange("time-pos", "1.0"))
	require.Len(t, evs, 1)
	assert.Equal(t, 1000, evs[0].PositionMs)
	assert.Equal(t, 61500, evs[0].DurationMs)

	assert.Empty(t, tr.translate(propertyChange("time-pos", "1.1")), "below the reporting step")

	evs = tr.translate(propertyChange("time-pos", "1.3"))
	require.Len(t, evs, 1)
	assert.Equal(t, 1300, evs[0].PositionMs)

	assert.Empty(t, tr.translate(propertyChange("time-pos", "null")))
	assert.Empty(t, tr.translate(propertyChange("duration", `"bogus"`)))
}

func TestTranslateSeekable(t *testing.T) {
	tr := newTracker(uuid.New())

	assert.Empty(t, tr.translate(propertyChange("seekable", "true")))

	evs := tr.translate(propertyChange("seekable", "false"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.Info, evs[0].Type)
	assert.Equal(t, backend.InfoNotSeekable, evs[0].Code)
}

func TestTranslateVideoSize(t *testing.T) {
	tr := newTracker(uuid.New())

	assert.Empty(t, tr.translate(propertyChange("width", "1920")), "height still unknown")

	evs := tr.translate(propertyChange("height", "1080"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.VideoSizeChanged, evs[0].Type)
	assert.Equal(t, 1920, evs[0].Width)
	assert.Equal(t, 1080, evs[0].Height)

	assert.Empty(t, tr.translate(propertyChange("height", "1080")), "unchanged")

	evs = tr.translate(propertyChange("width", "1440"))
	require.Len(t, evs, 1)
	assert.Equal(t, 1440, evs[0].Width)
	assert.Equal(t, 1080, evs[0].Height)
}

func TestTranslateBuffering(t *testing.T) {
	tr := newTracker(uuid.New())

	evs := tr.translate(propertyChange("paused-for-cache", "true"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.InfoBufferingStart, evs[0].Code)

	evs = tr.translate(propertyChange("paused-for-cache", "false"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.InfoBufferingEnd, evs[0].Code)

	evs = tr.translate(propertyChange("cache-buffering-state", "42"))
	require.Len(t, evs, 1)
	assert.Equal(t, backend.BufferingUpdate, evs[0].Type)
	assert.Equal(t, 42, evs[0].Percent)
}

func TestTranslateIgnoresUnknown(t *testing.T) {
	tr := newTracker(uuid.New())
	assert.Empty(t, tr.translate(message{Event: "playback-restart"}))
	assert.Empty(t, tr.translate(propertyChange("volume", "100")))
}
