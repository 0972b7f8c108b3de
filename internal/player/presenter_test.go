package player

import (
	"sync"

	"player-control/internal/backend"
	"player-control/internal/geometry"
	"player-control/internal/gesture"
)

// recorder is a Presenter that remembers the latest value of everything.
type recorder struct {
	mu sync.Mutex

	overlay       bool
	overlayHides  int
	loading       bool
	progress      Progress
	rect          geometry.Size
	rectKind      backend.Kind
	rects         int
	shown         []backend.Kind
	playing       bool
	aspect        geometry.AspectMode
	controls      Controls
	battery       Battery
	clock         string
	outcomes      []Outcome
	feedback      bool
	feedbackAxis  gesture.Axis
	feedbackWidth int
}

func (r *recorder) SetOverlayVisible(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlay = v
	if !v {
		r.overlayHides++
	}
}

func (r *recorder) SetLoadingVisible(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = v
}

func (r *recorder) SetProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = p
}

func (r *recorder) SetSurfaceRect(kind backend.Kind, rect geometry.Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rectKind = kind
	r.rect = rect
	r.rects++
}

func (r *recorder) ShowSurface(kind backend.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, kind)
}

func (r *recorder) SetPlaying(p bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = p
}

func (r *recorder) SetAspectMode(m geometry.AspectMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aspect = m
}

func (r *recorder) SetControls(c Controls) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controls = c
}

func (r *recorder) SetBattery(b Battery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.battery = b
}

func (r *recorder) SetClock(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = label
}

func (r *recorder) ReportOutcome(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) ShowFeedback(axis gesture.Axis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = true
	r.feedbackAxis = axis
}

func (r *recorder) SetFeedbackLevel(axis gesture.Axis, width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbackAxis = axis
	r.feedbackWidth = width
}

func (r *recorder) HideFeedback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = false
}

func (r *recorder) lastOutcome() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return Outcome{}, false
	}
	return r.outcomes[len(r.outcomes)-1], true
}

type levels struct {
	volume, maxVolume int
	brightness        float64
}

func (l *levels) StreamVolume() int       { return l.volume }
func (l *levels) MaxVolume() int          { return l.maxVolume }
func (l *levels) SetStreamVolume(i int)   { l.volume = i }
func (l *levels) Brightness() float64     { return l.brightness }
func (l *levels) SetBrightness(v float64) { l.brightness = v }
