// Package player drives one playback session: it picks and creates
// backends, runs the playback state machine over the serialized event
// stream, keeps the surface geometry current and owns the overlay and
// gesture timers.
//
// Everything except Post, Do and Status must be called from the control
// goroutine, which is the goroutine running Run (or the host's own loop
// calling Step).
package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/debounce"
	"player-control/internal/geometry"
	"player-control/internal/gesture"
	"player-control/internal/log"
	"player-control/internal/media"
	"player-control/internal/metrics"
	"player-control/internal/playlist"
	"player-control/internal/router"
)

var (
	// ErrSessionClosed is returned once the orchestrator has been closed.
	ErrSessionClosed = errors.New("player: session closed")
	// ErrNotLoaded is returned for intents that need loaded media.
	ErrNotLoaded = errors.New("player: media not loaded")
	// ErrNoSession is returned when nothing has been opened yet.
	ErrNoSession = errors.New("player: no session")
	// ErrEndOfPlaylist is returned by Next/Previous at either end.
	ErrEndOfPlaylist = errors.New("player: end of playlist")
)

const (
	// DefaultOverlayDelay is how long the control overlay stays up.
	DefaultOverlayDelay = 3 * time.Second
	// DefaultClockInterval is how often Run refreshes the clock label.
	DefaultClockInterval = 30 * time.Second
)

// DefaultDisplay is used when Options.Display is unset.
var DefaultDisplay = geometry.Size{Width: 1920, Height: 1080}

// Options configures an Orchestrator. Factory and Presenter are required.
type Options struct {
	Factory   backend.Factory
	Selector  *media.Selector
	Presenter Presenter
	Scheduler debounce.Scheduler

	// Volume and Brightness back the slide gestures. Gestures are
	// ignored when either is nil.
	Volume     gesture.Volume
	Brightness gesture.Brightness

	Display geometry.Size
	// Aspect is the mode new sessions start in; Fill when unset.
	Aspect mo.Option[geometry.AspectMode]

	OverlayDelay   time.Duration
	FeedbackDelay  time.Duration
	IndicatorWidth int
	ClockInterval  time.Duration

	Log *logrus.Entry
}

// Orchestrator is the playback state machine.
type Orchestrator struct {
	factory  backend.Factory
	selector *media.Selector
	out      Presenter
	sched    debounce.Scheduler
	router   *router.Router
	tasks    *taskQueue
	timers   *debounce.TimerSet
	overlay  *overlay
	gestures *gesture.Controller
	log      *logrus.Entry

	display       geometry.Size
	aspect        geometry.AspectMode
	clockInterval time.Duration

	surface     *backend.Surface
	sess        *Session
	lastOutcome mo.Option[Outcome]
	closed      bool
	done        chan struct{}

	statusMu sync.RWMutex
	status   Status
}

// New builds an Orchestrator. Nothing is opened until Open.
func New(opts Options) (*Orchestrator, error) {
	if opts.Factory == nil {
		return nil, errors.New("player: backend factory is required")
	}
	if opts.Presenter == nil {
		return nil, errors.New("player: presenter is required")
	}
	if opts.Selector == nil {
		opts.Selector = media.NewSelector(nil, nil)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = debounce.RealScheduler{}
	}
	if opts.Display.Width <= 0 || opts.Display.Height <= 0 {
		opts.Display = DefaultDisplay
	}
	if opts.OverlayDelay <= 0 {
		opts.OverlayDelay = DefaultOverlayDelay
	}
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = DefaultClockInterval
	}
	if opts.Log == nil {
		opts.Log = log.For("player")
	}

	o := &Orchestrator{
		factory:       opts.Factory,
		selector:      opts.Selector,
		out:           opts.Presenter,
		sched:         opts.Scheduler,
		router:        router.New(),
		tasks:         newTaskQueue(),
		log:           opts.Log,
		display:       opts.Display,
		aspect:        opts.Aspect.OrElse(geometry.Fill),
		clockInterval: opts.ClockInterval,
		lastOutcome:   mo.None[Outcome](),
		done:          make(chan struct{}),
	}
	o.timers = debounce.New(opts.Scheduler, func(f func()) { _ = o.Post(f) })
	o.overlay = newOverlay(o.timers, opts.OverlayDelay, opts.Presenter)

	if opts.Volume != nil && opts.Brightness != nil {
		o.gestures = gesture.New(opts.Volume, opts.Brightness, opts.Presenter, o.timers, gesture.Options{
			Delay:          opts.FeedbackDelay,
			IndicatorWidth: opts.IndicatorWidth,
			Log:            o.log.WithField("component", "gesture"),
		})
	}
	return o, nil
}

// Open starts a new session for entry, replacing any current one. An
// invalid entry fails the session without creating a backend.
func (o *Orchestrator) Open(entry playlist.Entry) error {
	if o.closed {
		return ErrSessionClosed
	}
	if o.sess != nil {
		o.destroyBackend()
	}

	s := newSession(entry, o.aspect)
	o.sess = s

	if err := entry.Validate(); err != nil {
		o.log.WithError(err).Warn("rejecting playlist")
		o.setState(Failed)
		o.report(Outcome{Kind: OutcomeFailed, Reason: ReasonInvalidInput, Err: err})
		return fmt.Errorf("open: %w", err)
	}

	o.log.WithFields(logrus.Fields{
		"session": s.ID,
		"uri":     entry.Current(),
		"index":   entry.Index(),
		"count":   entry.Len(),
	}).Info("opening")

	o.setState(AwaitingSurface)
	o.out.SetAspectMode(s.Aspect)
	o.out.SetControls(controlsFor(entry))
	o.out.SetLoadingVisible(true)
	o.pushProgress()

	if o.surface != nil {
		o.prepare(false)
	}
	return nil
}

// OpenURI opens a single ad-hoc URI.
func (o *Orchestrator) OpenURI(uri string) error {
	// An empty uri yields the zero Entry, which Open rejects.
	entry, _ := playlist.Single(uri)
	return o.Open(entry)
}

// SurfaceAvailable hands the orchestrator a rendering target. A session
// waiting for one starts preparing.
func (o *Orchestrator) SurfaceAvailable(surf backend.Surface) {
	o.attachSurface(surf, "surface available")
}

// SurfaceChanged re-attaches the active backend to surf.
func (o *Orchestrator) SurfaceChanged(surf backend.Surface) {
	o.attachSurface(surf, "surface changed")
}

func (o *Orchestrator) attachSurface(surf backend.Surface, what string) {
	o.surface = &surf
	o.log.WithField("window", surf.WindowID).Debug(what)

	s := o.sess
	switch {
	case s == nil || o.closed:
	case s.backend != nil:
		if err := s.backend.SetDisplay(o.surface); err != nil {
			o.log.WithError(err).Warn("re-attaching display failed")
		}
	case s.State == AwaitingSurface:
		o.prepare(s.FallbackUsed)
	}
}

// SurfaceDestroyed releases the backend. An unfinished session waits for
// the next surface; anything the old backend still emits is dropped.
func (o *Orchestrator) SurfaceDestroyed() {
	o.surface = nil
	s := o.sess
	if s == nil {
		return
	}
	o.log.WithField("state", s.State).Debug("surface destroyed")

	o.destroyBackend()
	if s.State == Idle || s.State.Terminal() {
		return
	}
	s.resetPlayback()
	o.out.SetPlaying(false)
	o.setState(AwaitingSurface)
}

// DisplayChanged updates the display bounds used for geometry.
func (o *Orchestrator) DisplayChanged(size geometry.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	o.display = size
	if s := o.sess; s != nil && s.backend != nil {
		o.applyGeometry(s.backend.VideoSize())
	}
}

// Close releases the backend and cancels all timers. The orchestrator
// cannot be reused.
func (o *Orchestrator) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.destroyBackend()
	o.timers.DisarmAll()
	o.tasks.close()
	close(o.done)
	o.log.Debug("closed")
}

// prepare creates a backend for the current item and issues an
// asynchronous prepare. Must only be called with no live backend.
func (o *Orchestrator) prepare(forceFallback bool) {
	s := o.sess
	uri := s.Entry.Current()
	kind := o.selector.Select(uri, forceFallback)
	l := o.log.WithFields(logrus.Fields{"session": s.ID, "uri": uri, "backend": kind})

	b, err := o.factory(kind, o.router)
	if err != nil {
		l.WithError(err).Error("creating backend failed")
		o.backendFailed(kind, backend.ErrorProcessStart, err)
		return
	}
	metrics.IncBackendCreated(kind.String())

	s.backend = b
	s.Kind = kind
	s.resetPlayback()
	o.router.SetActive(b.ID())
	o.setState(Preparing)
	o.out.ShowSurface(kind)
	o.out.SetLoadingVisible(true)

	if err := o.load(b, uri); err != nil {
		l.WithError(err).Error("prepare failed")
		o.backendFailed(kind, backend.ErrorUnknown, err)
		return
	}
	l.WithField("id", b.ID()).Info("preparing")
}

func (o *Orchestrator) load(b backend.Backend, uri string) error {
	if err := b.SetDisplay(o.surface); err != nil {
		return fmt.Errorf("set display: %w", err)
	}
	if err := b.SetDataSource(uri); err != nil {
		return fmt.Errorf("set data source: %w", err)
	}
	if err := b.PrepareAsync(); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	return nil
}

// destroyBackend detaches and releases the live backend. Its identity
// stops being accepted before anything else happens.
func (o *Orchestrator) destroyBackend() {
	s := o.sess
	if s == nil || s.backend == nil {
		return
	}
	b := s.backend
	s.backend = nil
	o.router.SetActive(uuid.Nil)

	l := o.log.WithFields(logrus.Fields{"backend": b.Kind(), "id": b.ID()})
	if err := b.SetDisplay(nil); err != nil && !errors.Is(err, backend.ErrReleased) {
		l.WithError(err).Warn("detaching display failed")
	}
	if err := b.Release(); err != nil && !errors.Is(err, backend.ErrReleased) {
		l.WithError(err).Warn("release failed")
	}
	l.Debug("released")
	o.syncStatus()
}

// backendFailed applies the one-shot fallback: a Primary failure is
// retried once on Fallback, anything else ends the session.
func (o *Orchestrator) backendFailed(kind backend.Kind, code int, cause error) {
	s := o.sess
	if kind == backend.Primary && !s.FallbackUsed {
		s.FallbackUsed = true
		metrics.IncFallback()
		o.log.WithFields(logrus.Fields{"session": s.ID, "code": code}).Warn("primary backend failed, retrying with fallback")
		o.destroyBackend()
		o.prepare(true)
		return
	}
	o.fail(code, cause)
}

func (o *Orchestrator) fail(code int, cause error) {
	s := o.sess
	o.destroyBackend()
	o.setState(Failed)
	o.out.SetLoadingVisible(false)
	o.out.SetPlaying(false)
	o.report(Outcome{
		Kind:   OutcomeFailed,
		URI:    s.Entry.Current(),
		Index:  s.Entry.Index(),
		Reason: code,
		Err:    cause,
	})
}

func (o *Orchestrator) complete() {
	s := o.sess
	o.setState(Completed)
	o.out.SetLoadingVisible(false)
	o.out.SetPlaying(false)
	o.report(Outcome{Kind: OutcomeCompleted, URI: s.Entry.Current(), Index: s.Entry.Index()})
}

func (o *Orchestrator) report(out Outcome) {
	o.lastOutcome = mo.Some(out)
	metrics.IncOutcome(out.Kind.String())
	l := o.log.WithField("uri", out.URI)
	if out.Kind == OutcomeFailed {
		l.WithError(out.Err).WithField("reason", out.Reason).Error("playback failed")
	} else {
		l.Info("playback completed")
	}
	o.out.ReportOutcome(out)
	o.syncStatus()
}

func (o *Orchestrator) setState(st State) {
	s := o.sess
	prev := s.State
	s.State = st
	metrics.ObserveState(st.String(), int(st))
	o.log.WithFields(logrus.Fields{"session": s.ID, "from": prev, "to": st}).Debug("state")
	o.syncStatus()
}

// handleEvent is the router's consumer.
func (o *Orchestrator) handleEvent(ev backend.Event) {
	s := o.sess
	if s == nil || s.backend == nil || ev.Source != s.backend.ID() {
		o.log.WithField("event", ev.String()).Debug("event without live backend")
		return
	}
	if s.State.Terminal() {
		return
	}

	switch ev.Type {
	case backend.Prepared:
		o.onPrepared()
	case backend.Error:
		o.log.WithFields(logrus.Fields{"code": ev.Code, "extra": ev.Extra, "backend": s.Kind}).Warn("backend error")
		o.backendFailed(s.Kind, ev.Code, fmt.Errorf("backend %s error %d/%d", s.Kind, ev.Code, ev.Extra))
	case backend.Completion:
		o.complete()
	case backend.Info:
		o.onInfo(ev.Code)
	case backend.BufferingUpdate:
		o.log.WithField("percent", ev.Percent).Trace("buffering")
	case backend.ProgressUpdate:
		if ev.DurationMs >= 0 {
			s.DurationMs = ev.DurationMs
		}
		if ev.PositionMs >= 0 {
			s.PositionMs = ev.PositionMs
		}
		o.pushProgress()
	case backend.VideoSizeChanged:
		o.applyGeometry(ev.Width, ev.Height)
	}
}

func (o *Orchestrator) onPrepared() {
	s := o.sess
	if s.Started || s.State != Preparing {
		o.log.WithField("state", s.State).Debug("ignoring duplicate prepared")
		return
	}
	s.Loaded = true
	o.setState(Loaded)
	o.out.SetLoadingVisible(false)
	o.applyGeometry(s.backend.VideoSize())

	if err := s.backend.Start(); err != nil {
		o.log.WithError(err).Error("start failed")
		o.backendFailed(s.Kind, backend.ErrorUnknown, err)
		return
	}
	s.Started = true
	o.setState(Started)
	o.out.SetPlaying(true)
}

func (o *Orchestrator) onInfo(code int) {
	switch code {
	case backend.InfoNotSeekable:
		o.sess.Seekable = false
		o.pushProgress()
	case backend.InfoBufferingStart:
		o.out.SetLoadingVisible(true)
	case backend.InfoBufferingEnd:
		o.out.SetLoadingVisible(false)
	}
}

// applyGeometry recomputes the surface rectangle. Degenerate sizes keep
// the previous rectangle.
func (o *Orchestrator) applyGeometry(width, height int) {
	s := o.sess
	target, ok := geometry.ComputeTargetRect(geometry.Size{Width: width, Height: height}, o.display, s.Aspect)
	if !ok {
		o.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("ignoring video size")
		return
	}
	s.Target = target
	o.out.SetSurfaceRect(s.Kind, target)
	o.syncStatus()
}

func (o *Orchestrator) pushProgress() {
	s := o.sess
	o.out.SetProgress(Progress{
		PositionMs: s.PositionMs,
		DurationMs: s.DurationMs,
		Position:   FormatTime(s.PositionMs),
		Duration:   FormatTime(s.DurationMs),
		Seekable:   s.Seekable,
	})
	o.syncStatus()
}

func (o *Orchestrator) refreshClock() {
	o.out.SetClock(o.sched.Now().Format("15:04"))
}

func (o *Orchestrator) syncStatus() {
	var st Status
	if o.sess != nil {
		st = o.sess.status()
	}
	if out, ok := o.lastOutcome.Get(); ok {
		st.LastOutcome = out.String()
	}
	o.statusMu.Lock()
	o.status = st
	o.statusMu.Unlock()
}

// Status returns the latest session snapshot. Safe from any goroutine.
func (o *Orchestrator) Status() Status {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

func controlsFor(e playlist.Entry) Controls {
	return Controls{Previous: e.HasPrevious(), Next: e.HasNext()}
}
