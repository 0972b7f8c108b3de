package backend

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType tags the payload carried by an Event.
type EventType int

const (
	BufferingUpdate EventType = iota + 1
	Completion
	Error
	Info
	Prepared
	ProgressUpdate
	VideoSizeChanged
)

func (t EventType) String() string {
	switch t {
	case BufferingUpdate:
		return "buffering"
	case Completion:
		return "completion"
	case Error:
		return "error"
	case Info:
		return "info"
	case Prepared:
		return "prepared"
	case ProgressUpdate:
		return "progress"
	case VideoSizeChanged:
		return "video-size"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Info codes.
const (
	InfoBufferingStart = 701
	InfoBufferingEnd   = 702
	InfoNotSeekable    = 801
)

// Error codes.
const (
	ErrorUnknown      = 1
	ErrorServerDied   = 100
	ErrorIO           = -1004
	ErrorUnsupported  = -1010
	ErrorProcessStart = -2001
)

// Event is a tagged union; only the fields that belong to Type are set.
type Event struct {
	Type   EventType
	Source uuid.UUID

	Percent int // BufferingUpdate

	Code  int // Error, Info
	Extra int // Error, Info

	PositionMs int // ProgressUpdate
	DurationMs int // ProgressUpdate

	Width  int // VideoSizeChanged
	Height int // VideoSizeChanged
}

func (e Event) String() string {
	switch e.Type {
	case BufferingUpdate:
		return fmt.Sprintf("buffering(%d%%)", e.Percent)
	case Error, Info:
		return fmt.Sprintf("%s(%d,%d)", e.Type, e.Code, e.Extra)
	case ProgressUpdate:
		return fmt.Sprintf("progress(%d/%d)", e.PositionMs, e.DurationMs)
	case VideoSizeChanged:
		return fmt.Sprintf("video-size(%dx%d)", e.Width, e.Height)
	default:
		return e.Type.String()
	}
}

func NewBufferingUpdate(src uuid.UUID, percent int) Event {
	return Event{Type: BufferingUpdate, Source: src, Percent: percent}
}

func NewCompletion(src uuid.UUID) Event {
	return Event{Type: Completion, Source: src}
}

func NewError(src uuid.UUID, code, extra int) Event {
	return Event{Type: Error, Source: src, Code: code, Extra: extra}
}

func NewInfo(src uuid.UUID, code, extra int) Event {
	return Event{Type: Info, Source: src, Code: code, Extra: extra}
}

func NewPrepared(src uuid.UUID) Event {
	return Event{Type: Prepared, Source: src}
}

func NewProgressUpdate(src uuid.UUID, positionMs, durationMs int) Event {
	return Event{Type: ProgressUpdate, Source: src, PositionMs: positionMs, DurationMs: durationMs}
}

func NewVideoSizeChanged(src uuid.UUID, width, height int) Event {
	return Event{Type: VideoSizeChanged, Source: src, Width: width, Height: height}
}
