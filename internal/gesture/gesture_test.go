package gesture

import (
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"player-control/internal/debounce"
	"player-control/internal/log"
)

type fakeVolume struct {
	current, max int
	sets         []int
}

func (f *fakeVolume) StreamVolume() int { return f.current }
func (f *fakeVolume) MaxVolume() int    { return f.max }
func (f *fakeVolume) SetStreamVolume(i int) {
	f.current = i
	f.sets = append(f.sets, i)
}

type fakeBrightness struct {
	level float64
}

func (f *fakeBrightness) Brightness() float64     { return f.level }
func (f *fakeBrightness) SetBrightness(l float64) { f.level = l }

type fakeFeedback struct {
	shown   []Axis
	widths  []int
	hidden  int
	visible bool
}

func (f *fakeFeedback) ShowFeedback(a Axis) {
	f.shown = append(f.shown, a)
	f.visible = true
}
func (f *fakeFeedback) SetFeedbackLevel(_ Axis, w int) { f.widths = append(f.widths, w) }
func (f *fakeFeedback) HideFeedback() {
	f.hidden++
	f.visible = false
}

type fixture struct {
	sched *debounce.ManualScheduler
	vol   *fakeVolume
	br    *fakeBrightness
	out   *fakeFeedback
	c     *Controller
}

func newFixture(volume, maxVolume int, brightness float64) *fixture {
	f := &fixture{
		sched: debounce.NewManualScheduler(),
		vol:   &fakeVolume{current: volume, max: maxVolume},
		br:    &fakeBrightness{level: brightness},
		out:   &fakeFeedback{},
	}
	timers := debounce.New(f.sched, nil)
	f.c = New(f.vol, f.br, f.out, timers, Options{Log: log.Discard()})
	return f
}

func TestVolumeSlide(t *testing.T) {
	Convey("Given a stream at 0 of 15", t, func() {
		f := newFixture(0, 15, 0.5)

		Convey("a full upward slide reaches the maximum", func() {
			So(f.c.OnVolumeSlide(1.0), ShouldEqual, 15)
			So(f.vol.current, ShouldEqual, 15)
			So(f.out.widths, ShouldResemble, []int{DefaultIndicatorWidth})
		})

		Convey("an overshooting downward slide clamps to zero", func() {
			So(f.c.OnVolumeSlide(-2.0), ShouldEqual, 0)
			So(f.out.widths, ShouldResemble, []int{0})
		})

		Convey("feedback is shown once per gesture", func() {
			f.c.OnVolumeSlide(0.1)
			f.c.OnVolumeSlide(0.2)
			So(f.out.shown, ShouldResemble, []Axis{VolumeAxis})
			So(f.c.Active(), ShouldBeTrue)
		})
	})

	Convey("Given a stream at 5 of 15", t, func() {
		f := newFixture(5, 15, 0.5)

		Convey("successive slides are relative to the captured baseline", func() {
			So(f.c.OnVolumeSlide(0.2), ShouldEqual, 8)
			So(f.c.OnVolumeSlide(0.4), ShouldEqual, 11)
			So(f.c.OnVolumeSlide(-0.2), ShouldEqual, 2)
		})

		Convey("a new gesture captures a fresh baseline", func() {
			f.c.OnVolumeSlide(0.4)
			f.c.End()
			So(f.c.Active(), ShouldBeFalse)
			So(f.c.OnVolumeSlide(0.2), ShouldEqual, 14)
		})
	})

	Convey("A negative reported volume is treated as zero", t, func() {
		f := newFixture(-3, 10, 0.5)
		So(f.c.OnVolumeSlide(0.5), ShouldEqual, 5)
	})
}

func TestBrightnessSlide(t *testing.T) {
	Convey("Given the system default brightness", t, func() {
		f := newFixture(0, 15, -1)

		Convey("the baseline is substituted with one half", func() {
			So(f.c.OnBrightnessSlide(0.25), ShouldAlmostEqual, 0.75)
			So(f.out.widths, ShouldResemble, []int{150})
		})
	})

	Convey("Given a very dim screen", t, func() {
		f := newFixture(0, 15, 0.001)

		Convey("the baseline is floored at the minimum", func() {
			So(f.c.OnBrightnessSlide(0), ShouldAlmostEqual, 0.01)
		})

		Convey("large slides are clamped to [0.01, 1]", func() {
			So(f.c.OnBrightnessSlide(5), ShouldAlmostEqual, 1.0)
			So(f.c.OnBrightnessSlide(-5), ShouldAlmostEqual, 0.01)
			So(f.br.level, ShouldAlmostEqual, 0.01)
		})
	})
}

func TestNonFiniteSlideKeepsLevels(t *testing.T) {
	Convey("Given a stream at 5 of 10 and brightness at 0.4", t, func() {
		f := newFixture(5, 10, 0.4)

		Convey("NaN and infinite slides leave both levels where they were", func() {
			for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				So(f.c.OnVolumeSlide(p), ShouldEqual, 5)
				So(f.c.OnBrightnessSlide(p), ShouldAlmostEqual, 0.4)
			}
			So(f.vol.current, ShouldEqual, 5)
			So(f.br.level, ShouldAlmostEqual, 0.4)
			So(f.out.widths, ShouldNotContain, math.MinInt)
		})
	})
}

func TestEndHidesFeedbackAfterDelay(t *testing.T) {
	Convey("Given a finished volume gesture", t, func() {
		f := newFixture(3, 15, 0.5)
		f.c.OnVolumeSlide(0.1)
		f.c.End()

		Convey("the feedback stays up until the delay passes", func() {
			f.sched.Advance(DefaultFeedbackDelay - time.Millisecond)
			So(f.out.hidden, ShouldEqual, 0)

			f.sched.Advance(time.Millisecond)
			So(f.out.hidden, ShouldEqual, 1)
			So(f.out.visible, ShouldBeFalse)
		})

		Convey("starting another slide cancels the pending hide", func() {
			f.sched.Advance(DefaultFeedbackDelay / 2)
			f.c.OnBrightnessSlide(0.1)
			f.sched.Advance(DefaultFeedbackDelay)
			So(f.out.hidden, ShouldEqual, 0)
			So(f.out.visible, ShouldBeTrue)
		})
	})
}

func TestClassifyScroll(t *testing.T) {
	Convey("Scroll start positions map to axes", t, func() {
		So(ClassifyScroll(900, 1000), ShouldEqual, VolumeAxis)
		So(ClassifyScroll(100, 1000), ShouldEqual, BrightnessAxis)
		So(ClassifyScroll(500, 1000), ShouldEqual, NoAxis)
		So(ClassifyScroll(800, 1000), ShouldEqual, NoAxis)
		So(ClassifyScroll(10, 0), ShouldEqual, NoAxis)
	})

	Convey("Slide dispatches to the chosen axis", t, func() {
		f := newFixture(0, 10, 0.5)
		f.c.Slide(VolumeAxis, 0.5)
		f.c.Slide(BrightnessAxis, 0.1)
		f.c.Slide(NoAxis, 1)
		So(f.vol.current, ShouldEqual, 5)
		So(f.br.level, ShouldAlmostEqual, 0.6)
		So(VolumeAxis.String(), ShouldEqual, "volume")
		So(NoAxis.String(), ShouldEqual, "none")
	})
}
