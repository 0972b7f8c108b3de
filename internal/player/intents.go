package player

import (
	"fmt"

	"github.com/samber/lo"

	"player-control/internal/gesture"
)

// loaded returns the session if its media is loaded and a backend is live.
// Buttons and touches are ignored until then.
func (o *Orchestrator) loaded() (*Session, error) {
	s := o.sess
	switch {
	case o.closed:
		return nil, ErrSessionClosed
	case s == nil:
		return nil, ErrNoSession
	case !s.Loaded || s.backend == nil:
		return nil, ErrNotLoaded
	}
	return s, nil
}

// TogglePlay switches between Started and Paused.
func (o *Orchestrator) TogglePlay() error {
	s, err := o.loaded()
	if err != nil {
		return err
	}
	o.overlay.click()

	switch s.State {
	case Started:
		o.pause()
	case Paused:
		if err := s.backend.Start(); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		o.setState(Started)
		o.out.SetPlaying(true)
	}
	return nil
}

func (o *Orchestrator) pause() {
	s := o.sess
	if err := s.backend.Pause(); err != nil {
		o.log.WithError(err).Warn("pause failed")
	}
	o.setState(Paused)
	o.out.SetPlaying(false)
}

// Background pauses playback when the host goes to the background.
func (o *Orchestrator) Background() {
	if s := o.sess; s != nil && s.backend != nil && s.State == Started {
		o.pause()
	}
}

// CycleAspect advances to the next aspect mode and re-fits the surface.
// The mode carries over to later sessions.
func (o *Orchestrator) CycleAspect() error {
	s, err := o.loaded()
	if err != nil {
		return err
	}
	o.overlay.click()

	s.Aspect = s.Aspect.Next()
	o.aspect = s.Aspect
	o.out.SetAspectMode(s.Aspect)
	o.applyGeometry(s.backend.VideoSize())
	o.log.WithField("aspect", s.Aspect).Debug("aspect mode")
	return nil
}

// SeekStart keeps the overlay up while the seek bar is dragged.
func (o *Orchestrator) SeekStart() {
	o.overlay.seekStart()
}

// SeekTo seeks the live backend. Unseekable media and media of unknown
// length ignore the request.
func (o *Orchestrator) SeekTo(positionMs int) error {
	s, err := o.loaded()
	if err != nil {
		return err
	}
	if !s.Seekable || s.DurationMs <= 0 {
		o.log.WithField("position_ms", positionMs).Debug("seek ignored")
		return nil
	}

	positionMs = lo.Clamp(positionMs, 0, s.DurationMs)
	if err := s.backend.SeekTo(positionMs); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	s.PositionMs = positionMs
	o.pushProgress()
	o.overlay.seekEnd()
	return nil
}

// TouchDown toggles the control overlay and refreshes the clock.
func (o *Orchestrator) TouchDown() {
	if _, err := o.loaded(); err != nil {
		return
	}
	o.refreshClock()
	o.overlay.touch()
}

// TouchUp ends any slide gesture in progress.
func (o *Orchestrator) TouchUp() {
	if _, err := o.loaded(); err != nil || o.gestures == nil {
		return
	}
	o.gestures.End()
}

// Slide applies a volume or brightness slide of percent in [-1,1].
func (o *Orchestrator) Slide(axis gesture.Axis, percent float64) {
	if _, err := o.loaded(); err != nil || o.gestures == nil {
		return
	}
	o.gestures.Slide(axis, percent)
}

// Scroll turns a vertical drag that started at (startX, startY) and is now
// at y into a slide. The side of the screen it started on picks the axis.
func (o *Orchestrator) Scroll(startX, startY, y float64) {
	axis := gesture.ClassifyScroll(startX, float64(o.display.Width))
	if axis == gesture.NoAxis {
		return
	}
	o.Slide(axis, (startY-y)/float64(o.display.Height))
}

// Next opens the following playlist item.
func (o *Orchestrator) Next() error {
	return o.advance(true)
}

// Previous opens the preceding playlist item.
func (o *Orchestrator) Previous() error {
	return o.advance(false)
}

func (o *Orchestrator) advance(forward bool) error {
	s := o.sess
	switch {
	case o.closed:
		return ErrSessionClosed
	case s == nil:
		return ErrNoSession
	case !s.Loaded && !s.State.Terminal():
		return ErrNotLoaded
	}

	next, ok := s.Entry.Previous()
	if forward {
		next, ok = s.Entry.Next()
	}
	if !ok {
		return ErrEndOfPlaylist
	}
	if !s.State.Terminal() {
		o.overlay.click()
	}
	return o.Open(next)
}

// UpdatePlaylist swaps in a new URI list, e.g. after the watched
// directory changed. Playback continues if the current URI is still
// listed; otherwise the item now at the current index is opened.
func (o *Orchestrator) UpdatePlaylist(uris []string) error {
	s := o.sess
	if o.closed {
		return ErrSessionClosed
	}
	if s == nil {
		return ErrNoSession
	}

	entry, err := s.Entry.Replace(uris)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}
	if entry.Current() == s.Entry.Current() {
		s.Entry = entry
		o.out.SetControls(controlsFor(entry))
		o.syncStatus()
		return nil
	}

	o.log.WithField("uri", s.Entry.Current()).Info("current item removed from playlist")
	return o.Open(entry)
}

// SwitchAudio is the audio track button.
func (o *Orchestrator) SwitchAudio() error {
	return o.unsupported("switch-audio")
}

// SwitchSubtitle is the subtitle track button.
func (o *Orchestrator) SwitchSubtitle() error {
	return o.unsupported("switch-subtitle")
}

// ToggleMessage is the comment overlay button.
func (o *Orchestrator) ToggleMessage() error {
	return o.unsupported("toggle-message")
}

// unsupported handles buttons the backends have no command for: they
// still count as overlay interaction.
func (o *Orchestrator) unsupported(intent string) error {
	if _, err := o.loaded(); err != nil {
		return err
	}
	o.overlay.click()
	o.log.WithField("intent", intent).Info("not supported by backend")
	return nil
}

// BatteryChanged updates the battery indicator.
func (o *Orchestrator) BatteryChanged(level int) {
	o.out.SetBattery(NewBattery(lo.Clamp(level, 0, 100)))
}
