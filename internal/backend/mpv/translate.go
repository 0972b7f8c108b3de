package mpv

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"player-control/internal/backend"
)

// progressStep is the smallest position change worth reporting.
const progressStep = 250

// observed are the properties watched for the lifetime of the process.
var observed = []string{
	"duration",
	"time-pos",
	"seekable",
	"width",
	"height",
	"paused-for-cache",
	"cache-buffering-state",
	"pause",
}

// tracker turns mpv's IPC events into backend events and remembers what
// it has already reported.
type tracker struct {
	src        uuid.UUID
	loaded     bool
	ended      bool
	durationMs int
	positionMs int
	reportedMs int
	width      int
	height     int
	paused     mo.Option[bool]
}

func newTracker(src uuid.UUID) *tracker {
	return &tracker{src: src, durationMs: -1, positionMs: -1, reportedMs: -1}
}

func (t *tracker) translate(m message) []backend.Event {
	switch m.Event {
	case "file-loaded":
		if t.loaded {
			return nil
		}
		t.loaded = true
		return []backend.Event{backend.NewPrepared(t.src)}

	case "end-file":
		return t.endFile(m)

	case "property-change":
		return t.property(m.Name, m.Data)
	}
	return nil
}

func (t *tracker) endFile(m message) []backend.Event {
	if t.ended {
		return nil
	}
	switch m.Reason {
	case "eof":
		t.ended = true
		return []backend.Event{backend.NewCompletion(t.src)}
	case "error":
		t.ended = true
		return []backend.Event{backend.NewError(t.src, errorCode(m.FileError), 0)}
	}
	// stop, quit and redirect are our own doing.
	return nil
}

func (t *tracker) property(name string, data json.RawMessage) []backend.Event {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch name {
	case "duration":
		var secs float64
		if json.Unmarshal(data, &secs) != nil {
			return nil
		}
		t.durationMs = int(secs * 1000)
		return []backend.Event{backend.NewProgressUpdate(t.src, t.positionMs, t.durationMs)}

	case "time-pos":
		var secs float64
		if json.Unmarshal(data, &secs) != nil {
			return nil
		}
		t.positionMs = int(secs * 1000)
		if t.reportedMs >= 0 && abs(t.positionMs-t.reportedMs) < progressStep {
			return nil
		}
		t.reportedMs = t.positionMs
		return []backend.Event{backend.NewProgressUpdate(t.src, t.positionMs, t.durationMs)}

	case "seekable":
		var seekable bool
		if json.Unmarshal(data, &seekable) != nil || seekable {
			return nil
		}
		return []backend.Event{backend.NewInfo(t.src, backend.InfoNotSeekable, 0)}

	case "width", "height":
		var v int
		if json.Unmarshal(data, &v) != nil {
			return nil
		}
		w, h := t.width, t.height
		if name == "width" {
			w = v
		} else {
			h = v
		}
		if w == t.width && h == t.height {
			return nil
		}
		t.width, t.height = w, h
		if w <= 0 || h <= 0 {
			return nil
		}
		return []backend.Event{backend.NewVideoSizeChanged(t.src, w, h)}

	case "paused-for-cache":
		var paused bool
		if json.Unmarshal(data, &paused) != nil {
			return nil
		}
		code := backend.InfoBufferingEnd
		if paused {
			code = backend.InfoBufferingStart
		}
		return []backend.Event{backend.NewInfo(t.src, code, 0)}

	case "pause":
		var paused bool
		if json.Unmarshal(data, &paused) == nil {
			t.paused = mo.Some(paused)
		}
		return nil

	case "cache-buffering-state":
		var percent int
		if json.Unmarshal(data, &percent) != nil {
			return nil
		}
		return []backend.Event{backend.NewBufferingUpdate(t.src, percent)}
	}
	return nil
}

// errorCode maps mpv's file_error text onto the backend error codes.
func errorCode(fileError string) int {
	e := strings.ToLower(fileError)
	switch {
	case strings.Contains(e, "unrecognized file format"),
		strings.Contains(e, "no audio or video data"),
		strings.Contains(e, "unsupported"):
		return backend.ErrorUnsupported
	case e == "":
		return backend.ErrorUnknown
	default:
		return backend.ErrorIO
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
