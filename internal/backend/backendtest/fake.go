// Package backendtest provides a scriptable in-memory backend for tests of
// code that drives backend.Backend.
package backendtest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"player-control/internal/backend"
)

// Fake records every command it receives and publishes whatever the test
// tells it to.
type Fake struct {
	mu       sync.Mutex
	id       uuid.UUID
	kind     backend.Kind
	sink     backend.Sink
	calls    []string
	surface  *backend.Surface
	uri      string
	playing  bool
	released bool
	width    int
	height   int
}

// NewFake returns a fake of the given kind publishing to sink.
func NewFake(kind backend.Kind, sink backend.Sink) *Fake {
	return &Fake{id: uuid.New(), kind: kind, sink: sink}
}

func (f *Fake) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *Fake) ID() uuid.UUID      { return f.id }
func (f *Fake) Kind() backend.Kind { return f.kind }

func (f *Fake) SetDisplay(s *backend.Surface) error {
	f.mu.Lock()
	f.surface = s
	f.mu.Unlock()
	if s == nil {
		f.record("SetDisplay(nil)")
	} else {
		f.record("SetDisplay(%d)", s.WindowID)
	}
	return nil
}

func (f *Fake) SetDataSource(uri string) error {
	f.mu.Lock()
	f.uri = uri
	f.mu.Unlock()
	f.record("SetDataSource(%s)", uri)
	return nil
}

func (f *Fake) PrepareAsync() error {
	f.record("PrepareAsync")
	return nil
}

func (f *Fake) Start() error {
	f.mu.Lock()
	f.playing = true
	f.mu.Unlock()
	f.record("Start")
	return nil
}

func (f *Fake) Pause() error {
	f.mu.Lock()
	f.playing = false
	f.mu.Unlock()
	f.record("Pause")
	return nil
}

func (f *Fake) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *Fake) SeekTo(ms int) error {
	f.record("SeekTo(%d)", ms)
	return nil
}

func (f *Fake) VideoSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

func (f *Fake) Release() error {
	f.mu.Lock()
	f.released = true
	f.playing = false
	f.mu.Unlock()
	f.record("Release")
	return nil
}

// SetVideoSize sets what VideoSize reports.
func (f *Fake) SetVideoSize(w, h int) {
	f.mu.Lock()
	f.width, f.height = w, h
	f.mu.Unlock()
}

// Emit publishes an event stamped with this fake's identity.
func (f *Fake) Emit(ev backend.Event) {
	ev.Source = f.id
	f.sink.Publish(ev)
}

// Calls returns the recorded command log.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Released reports whether Release was called.
func (f *Fake) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// URI returns the last data source.
func (f *Fake) URI() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uri
}

// Surface returns the attached surface.
func (f *Fake) Surface() *backend.Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.surface
}

// Factory hands out fakes and remembers them in creation order.
type Factory struct {
	mu      sync.Mutex
	Created []*Fake
	// Err, when set, is returned instead of creating a backend.
	Err error
}

// New implements backend.Factory.
func (fa *Factory) New(kind backend.Kind, sink backend.Sink) (backend.Backend, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.Err != nil {
		return nil, fa.Err
	}
	f := NewFake(kind, sink)
	fa.Created = append(fa.Created, f)
	return f, nil
}

// Last returns the most recently created fake, or nil.
func (fa *Factory) Last() *Fake {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if len(fa.Created) == 0 {
		return nil
	}
	return fa.Created[len(fa.Created)-1]
}

// Count returns how many backends were created.
func (fa *Factory) Count() int {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return len(fa.Created)
}
