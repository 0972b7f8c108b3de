// Package gesture turns vertical slide gestures into volume and brightness
// changes, with a feedback overlay that hides shortly after the finger
// lifts.
package gesture

import (
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"player-control/internal/debounce"
	"player-control/internal/log"
)

// Axis is the level a slide adjusts.
type Axis int

const (
	NoAxis Axis = iota
	VolumeAxis
	BrightnessAxis
)

func (a Axis) String() string {
	switch a {
	case VolumeAxis:
		return "volume"
	case BrightnessAxis:
		return "brightness"
	default:
		return "none"
	}
}

const (
	// DefaultFeedbackDelay is how long the feedback overlay lingers after
	// the gesture ends.
	DefaultFeedbackDelay = 500 * time.Millisecond
	// DefaultIndicatorWidth is the width of a full feedback bar.
	DefaultIndicatorWidth = 200

	minBrightness     = 0.01
	maxBrightness     = 1.0
	defaultBrightness = 0.50
)

// Volume is the system audio stream the volume slide controls.
type Volume interface {
	StreamVolume() int
	MaxVolume() int
	SetStreamVolume(index int)
}

// Brightness is the screen brightness the brightness slide controls, in
// (0,1]. A value <= 0 means "system default".
type Brightness interface {
	Brightness() float64
	SetBrightness(level float64)
}

// Feedback renders the level overlay.
type Feedback interface {
	ShowFeedback(axis Axis)
	SetFeedbackLevel(axis Axis, width int)
	HideFeedback()
}

// Options tunes a Controller.
type Options struct {
	Delay          time.Duration
	IndicatorWidth int
	Log            *logrus.Entry
}

// Controller applies slide deltas relative to the level captured when the
// gesture started. It is driven from the player's control goroutine.
type Controller struct {
	volume     Volume
	brightness Brightness
	out        Feedback
	timers     *debounce.TimerSet
	delay      time.Duration
	fullWidth  int
	log        *logrus.Entry

	volumeBase     mo.Option[int]
	brightnessBase mo.Option[float64]
}

// New wires a Controller. timers is shared with the rest of the control
// loop; the controller only uses the GestureFeedback channel.
func New(v Volume, b Brightness, out Feedback, timers *debounce.TimerSet, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultFeedbackDelay
	}
	if opts.IndicatorWidth <= 0 {
		opts.IndicatorWidth = DefaultIndicatorWidth
	}
	if opts.Log == nil {
		opts.Log = log.For("gesture")
	}
	return &Controller{
		volume:         v,
		brightness:     b,
		out:            out,
		timers:         timers,
		delay:          opts.Delay,
		fullWidth:      opts.IndicatorWidth,
		log:            opts.Log,
		volumeBase:     mo.None[int](),
		brightnessBase: mo.None[float64](),
	}
}

// ClassifyScroll maps the horizontal start of a scroll to the level it
// controls: the right fifth of the screen is volume, the left fifth is
// brightness, the middle does nothing.
func ClassifyScroll(startX, width float64) Axis {
	switch {
	case width <= 0:
		return NoAxis
	case startX > width*4.0/5:
		return VolumeAxis
	case startX < width/5.0:
		return BrightnessAxis
	default:
		return NoAxis
	}
}

// Slide dispatches percent to the given axis.
func (c *Controller) Slide(axis Axis, percent float64) {
	switch axis {
	case VolumeAxis:
		c.OnVolumeSlide(percent)
	case BrightnessAxis:
		c.OnBrightnessSlide(percent)
	}
}

// OnVolumeSlide sets the stream volume to baseline + percent*max, clamped
// to [0,max], and returns the new index.
func (c *Controller) OnVolumeSlide(percent float64) int {
	percent = finite(percent)
	maxVolume := c.volume.MaxVolume()

	base, ok := c.volumeBase.Get()
	if !ok {
		base = max(c.volume.StreamVolume(), 0)
		c.volumeBase = mo.Some(base)
		c.timers.Disarm(debounce.GestureFeedback)
		c.out.ShowFeedback(VolumeAxis)
	}

	index := lo.Clamp(int(percent*float64(maxVolume))+base, 0, maxVolume)
	c.volume.SetStreamVolume(index)

	width := 0
	if maxVolume > 0 {
		width = c.fullWidth * index / maxVolume
	}
	c.out.SetFeedbackLevel(VolumeAxis, width)
	c.log.WithFields(logrus.Fields{"base": base, "index": index}).Trace("volume slide")
	return index
}

// OnBrightnessSlide sets brightness to baseline + percent, clamped to
// [0.01,1], and returns the new level.
func (c *Controller) OnBrightnessSlide(percent float64) float64 {
	percent = finite(percent)
	base, ok := c.brightnessBase.Get()
	if !ok {
		base = c.brightness.Brightness()
		if base <= 0 {
			base = defaultBrightness
		}
		base = max(base, minBrightness)
		c.brightnessBase = mo.Some(base)
		c.timers.Disarm(debounce.GestureFeedback)
		c.out.ShowFeedback(BrightnessAxis)
	}

	level := lo.Clamp(base+percent, minBrightness, maxBrightness)
	c.brightness.SetBrightness(level)

	c.out.SetFeedbackLevel(BrightnessAxis, int(float64(c.fullWidth)*level))
	c.log.WithFields(logrus.Fields{"base": base, "level": level}).Trace("brightness slide")
	return level
}

// finite turns a NaN or infinite slide into no movement.
func finite(percent float64) float64 {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return 0
	}
	return percent
}

// End finishes the gesture: both baselines are forgotten and the feedback
// overlay hides after the configured delay.
func (c *Controller) End() {
	c.volumeBase = mo.None[int]()
	c.brightnessBase = mo.None[float64]()

	c.timers.Arm(debounce.GestureFeedback, c.delay, c.out.HideFeedback)
}

// Active reports whether a slide is in progress on either axis.
func (c *Controller) Active() bool {
	return c.volumeBase.IsPresent() || c.brightnessBase.IsPresent()
}
