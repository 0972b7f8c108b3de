//go:build libvlc

package vlc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	libvlc "github.com/adrg/libvlc-go/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
)

const sampleInterval = 250 * time.Millisecond

var (
	vlcInitOnce sync.Once
	vlcInitErr  error
)

// libBackend wraps one libVLC media player. libVLC itself is initialised
// once per process and shared by every instance.
type libBackend struct {
	id   uuid.UUID
	sink backend.Sink
	opts Options
	log  *logrus.Entry

	mu         sync.Mutex
	player     *libvlc.Player
	media      *libvlc.Media
	events     *libvlc.EventManager
	eventIDs   []libvlc.EventID
	surface    *backend.Surface
	uri        string
	prepared   bool
	ended      bool
	released   bool
	durationMs int
	positionMs int
	width      int
	height     int
	done       chan struct{}
}

func newBackend(sink backend.Sink, opts Options) (backend.Backend, error) {
	vlcInitOnce.Do(func() {
		flags := append(baseArgs(), "--no-dbus")
		vlcInitErr = libvlc.Init(append(flags, opts.ExtraArgs...)...)
	})
	if vlcInitErr != nil {
		return nil, fmt.Errorf("libvlc init failed: %w", vlcInitErr)
	}

	p, err := libvlc.NewPlayer()
	if err != nil {
		return nil, fmt.Errorf("player creation failed: %w", err)
	}
	id := uuid.New()
	return &libBackend{
		id:         id,
		sink:       sink,
		opts:       opts,
		log:        opts.Log.WithField("id", id.String()[:8]),
		player:     p,
		durationMs: -1,
		positionMs: -1,
		done:       make(chan struct{}),
	}, nil
}

func (b *libBackend) ID() uuid.UUID      { return b.id }
func (b *libBackend) Kind() backend.Kind { return backend.Fallback }

func (b *libBackend) SetDisplay(s *backend.Surface) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return backend.ErrReleased
	}
	if s == nil {
		b.surface = nil
		return nil
	}
	surf := *s
	b.surface = &surf
	if surf.WindowID == 0 {
		return b.player.SetFullScreen(true)
	}
	return b.player.SetXWindow(surf.WindowID)
}

func (b *libBackend) SetDataSource(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return backend.ErrReleased
	}
	if uri == "" {
		return errors.New("vlc: empty data source")
	}
	b.uri = uri
	return nil
}

// PrepareAsync loads the media with :start-paused and starts it; libVLC
// pauses on the first frame, which is reported as Prepared.
func (b *libBackend) PrepareAsync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.released:
		return backend.ErrReleased
	case b.uri == "":
		return errors.New("vlc: no data source")
	case b.media != nil:
		return errors.New("vlc: already prepared")
	}

	var (
		m   *libvlc.Media
		err error
	)
	if strings.Contains(b.uri, "://") {
		m, err = b.player.LoadMediaFromURL(b.uri)
	} else {
		m, err = b.player.LoadMediaFromPath(b.uri)
	}
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	b.media = m
	if err := m.AddOptions(":start-paused"); err != nil {
		return fmt.Errorf("media options: %w", err)
	}

	em, err := b.player.EventManager()
	if err != nil {
		return fmt.Errorf("event manager: %w", err)
	}
	b.events = em
	for _, e := range []libvlc.Event{
		libvlc.MediaPlayerPaused,
		libvlc.MediaPlayerPlaying,
		libvlc.MediaPlayerEndReached,
		libvlc.MediaPlayerEncounteredError,
		libvlc.MediaPlayerVout,
		libvlc.MediaPlayerSeekableChanged,
	} {
		id, err := em.Attach(e, b.onEvent, nil)
		if err != nil {
			return fmt.Errorf("attach event %d: %w", e, err)
		}
		b.eventIDs = append(b.eventIDs, id)
	}

	if err := b.player.Play(); err != nil {
		return fmt.Errorf("play failed: %w", err)
	}
	b.log.WithField("uri", b.uri).Info("libvlc loading")
	go b.sampleProgress()
	return nil
}

// onEvent runs on a libVLC thread, where calling back into libVLC can
// deadlock, so anything that queries the player is handed off.
func (b *libBackend) onEvent(e libvlc.Event, _ interface{}) {
	switch e {
	case libvlc.MediaPlayerPaused, libvlc.MediaPlayerPlaying:
		b.mu.Lock()
		first := !b.prepared && !b.released
		b.prepared = true
		b.mu.Unlock()
		if first {
			go b.publishPrepared()
		}
	case libvlc.MediaPlayerEndReached:
		if b.markEnded() {
			b.publish(backend.NewCompletion(b.id))
		}
	case libvlc.MediaPlayerEncounteredError:
		if b.markEnded() {
			b.publish(backend.NewError(b.id, backend.ErrorIO, 0))
		}
	case libvlc.MediaPlayerVout:
		go b.refreshVideoSize(true)
	case libvlc.MediaPlayerSeekableChanged:
		go func() {
			if !b.player.IsSeekable() {
				b.publish(backend.NewInfo(b.id, backend.InfoNotSeekable, 0))
			}
		}()
	}
}

func (b *libBackend) publishPrepared() {
	b.refreshVideoSize(false)
	if length, err := b.player.MediaLength(); err == nil && length > 0 {
		b.mu.Lock()
		b.durationMs = length
		b.mu.Unlock()
	}
	b.publish(backend.NewPrepared(b.id))
}

func (b *libBackend) refreshVideoSize(notify bool) {
	w, h, err := b.player.VideoDimensions()
	if err != nil || w == 0 || h == 0 {
		return
	}
	b.mu.Lock()
	changed := int(w) != b.width || int(h) != b.height
	b.width, b.height = int(w), int(h)
	b.mu.Unlock()
	if notify && changed {
		b.publish(backend.NewVideoSizeChanged(b.id, int(w), int(h)))
	}
}

func (b *libBackend) sampleProgress() {
	t := time.NewTicker(sampleInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
		}

		b.mu.Lock()
		ready := b.prepared && !b.ended
		b.mu.Unlock()
		if !ready {
			continue
		}
		pos, err := b.player.MediaTime()
		if err != nil {
			continue
		}
		length, err := b.player.MediaLength()
		if err != nil {
			length = -1
		}

		b.mu.Lock()
		if pos == b.positionMs && length == b.durationMs {
			b.mu.Unlock()
			continue
		}
		b.positionMs, b.durationMs = pos, length
		b.mu.Unlock()
		b.publish(backend.NewProgressUpdate(b.id, pos, length))
	}
}

func (b *libBackend) markEnded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended || b.released {
		return false
	}
	b.ended = true
	return true
}

func (b *libBackend) publish(ev backend.Event) {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if !released {
		b.sink.Publish(ev)
	}
}

func (b *libBackend) Start() error {
	if b.isReleased() {
		return backend.ErrReleased
	}
	return b.player.SetPause(false)
}

func (b *libBackend) Pause() error {
	if b.isReleased() {
		return backend.ErrReleased
	}
	return b.player.SetPause(true)
}

func (b *libBackend) IsPlaying() bool {
	if b.isReleased() {
		return false
	}
	return b.player.IsPlaying()
}

func (b *libBackend) SeekTo(positionMs int) error {
	if b.isReleased() {
		return backend.ErrReleased
	}
	return b.player.SetMediaTime(positionMs)
}

func (b *libBackend) VideoSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *libBackend) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil
	}
	b.released = true
	close(b.done)
	em, ids, m, p := b.events, b.eventIDs, b.media, b.player
	b.events, b.eventIDs, b.media = nil, nil, nil
	b.mu.Unlock()

	if em != nil {
		em.Detach(ids...)
	}
	_ = p.Stop()
	if m != nil {
		_ = m.Release()
	}
	_ = p.Release()
	b.log.Debug("released")
	return nil
}

func (b *libBackend) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
