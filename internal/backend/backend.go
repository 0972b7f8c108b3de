// Package backend defines the capability set every playback backend
// provides, and the events backends emit while they decode.
//
// Backends are opaque: the player never looks at the concrete type. Each
// instance carries a random identity that is stamped on every event it
// publishes, so events from an instance that has since been replaced can
// be recognised and dropped.
package backend

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes the two interchangeable decoders.
type Kind int

const (
	// Primary is the platform decoder with hardware acceleration.
	Primary Kind = iota
	// Fallback is the software decoder used for formats Primary cannot
	// handle, and as the one-shot retry when Primary fails.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Surface is the rendering target a backend draws into. A zero WindowID
// lets the backend open its own output window.
type Surface struct {
	WindowID uint32
}

// Sink receives events. Implementations must be safe for concurrent use:
// backends publish from their own goroutines.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Backend is the capability set of a decoder/renderer.
//
// PrepareAsync returns immediately; the outcome arrives later as a
// Prepared or Error event. Start, Pause and SeekTo are best-effort
// commands. Release detaches from the surface and frees everything; the
// instance must not publish afterwards, but the router tolerates it.
type Backend interface {
	ID() uuid.UUID
	Kind() Kind

	SetDisplay(s *Surface) error
	SetDataSource(uri string) error
	PrepareAsync() error

	Start() error
	Pause() error
	IsPlaying() bool
	SeekTo(positionMs int) error
	VideoSize() (width, height int)

	Release() error
}

// Factory creates a backend of the given kind wired to sink.
type Factory func(kind Kind, sink Sink) (Backend, error)

// ErrReleased is returned by commands issued after Release.
var ErrReleased = errors.New("backend released")
