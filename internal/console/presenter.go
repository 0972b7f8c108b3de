// Package console renders the player on a terminal and reads intents from
// an interactive prompt.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/geometry"
	"player-control/internal/gesture"
	"player-control/internal/log"
	"player-control/internal/player"
)

const barWidth = 30

// Options configures a Presenter.
type Options struct {
	// IndicatorWidth is the full width of a gesture indicator, used to
	// turn SetFeedbackLevel widths back into a fraction.
	IndicatorWidth int
	// OnOutcome is called after an outcome is printed. It runs on the
	// control goroutine and must not block.
	OnOutcome func(player.Outcome)
	Log       *logrus.Entry
}

// View is what the presenter currently shows.
type View struct {
	Overlay  bool
	Loading  bool
	Playing  bool
	Surface  backend.Kind
	Rect     geometry.Size
	Aspect   geometry.AspectMode
	Progress player.Progress
	Controls player.Controls
	Battery  player.Battery
	Clock    string
	Feedback gesture.Axis
	Level    int
	Outcome  string
}

// Presenter prints player changes as styled lines. It prints only when
// something visible changes.
type Presenter struct {
	out  io.Writer
	opts Options
	log  *logrus.Entry

	mu   sync.Mutex
	view View
	last string
}

var _ player.Presenter = (*Presenter)(nil)

func New(out io.Writer, opts Options) *Presenter {
	if opts.IndicatorWidth <= 0 {
		opts.IndicatorWidth = 200
	}
	if opts.Log == nil {
		opts.Log = log.For("console")
	}
	return &Presenter{out: out, opts: opts, log: opts.Log}
}

// View returns a copy of the current view.
func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

func (p *Presenter) SetOverlayVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view.Overlay == visible {
		return
	}
	p.view.Overlay = visible
	if visible {
		p.printLocked(p.statusLine())
	}
}

func (p *Presenter) SetLoadingVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view.Loading == visible {
		return
	}
	p.view.Loading = visible
	if visible {
		p.printLocked(tagStyle.Render("LOADING") + " " + labelStyle.Render("buffering..."))
	}
}

func (p *Presenter) SetProgress(pr player.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := pr.Position != p.view.Progress.Position || pr.Duration != p.view.Progress.Duration
	p.view.Progress = pr
	if changed && p.view.Overlay {
		p.printLocked(p.statusLine())
	}
}

func (p *Presenter) SetSurfaceRect(kind backend.Kind, rect geometry.Size) {
	p.mu.Lock()
	p.view.Rect = rect
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"surface": kind, "rect": rect}).Debug("surface resized")
}

func (p *Presenter) ShowSurface(kind backend.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Surface = kind
	p.printLocked(tagStyle.Render("SURFACE") + " " + valueStyle.Render(kind.String()))
}

func (p *Presenter) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view.Playing == playing {
		return
	}
	p.view.Playing = playing
	p.printLocked(p.statusLine())
}

func (p *Presenter) SetAspectMode(mode geometry.AspectMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view.Aspect == mode {
		return
	}
	p.view.Aspect = mode
	p.printLocked(tagStyle.Render("ASPECT") + " " + valueStyle.Render(mode.String()))
}

func (p *Presenter) SetControls(c player.Controls) {
	p.mu.Lock()
	p.view.Controls = c
	p.mu.Unlock()
}

func (p *Presenter) SetBattery(b player.Battery) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.view.Battery
	p.view.Battery = b
	if prev.Label == "" || prev.Status != b.Status {
		p.printLocked(tagStyle.Render("BATTERY") + " " + batteryStyle(b.Status).Render(b.Label))
	}
}

func (p *Presenter) SetClock(label string) {
	p.mu.Lock()
	p.view.Clock = label
	p.mu.Unlock()
}

func (p *Presenter) ReportOutcome(o player.Outcome) {
	p.mu.Lock()
	p.view.Outcome = o.String()
	style := goodStyle
	if o.Kind == player.OutcomeFailed {
		style = badStyle
	}
	p.printLocked(tagStyle.Render("DONE") + " " + style.Render(o.String()))
	p.mu.Unlock()

	if p.opts.OnOutcome != nil {
		p.opts.OnOutcome(o)
	}
}

func (p *Presenter) ShowFeedback(axis gesture.Axis) {
	p.mu.Lock()
	p.view.Feedback = axis
	p.mu.Unlock()
}

func (p *Presenter) SetFeedbackLevel(axis gesture.Axis, width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Feedback = axis
	p.view.Level = width
	frac := float64(width) / float64(p.opts.IndicatorWidth)
	p.printLocked(fmt.Sprintf("%s %s %3d%%",
		tagStyle.Render(strings.ToUpper(axis.String())), bar(frac, barWidth), int(frac*100+0.5)))
}

func (p *Presenter) HideFeedback() {
	p.mu.Lock()
	p.view.Feedback = gesture.NoAxis
	p.mu.Unlock()
}

func (p *Presenter) statusLine() string {
	v := p.view
	icon := warnStyle.Render("||")
	if v.Playing {
		icon = goodStyle.Render(">>")
	}

	var frac float64
	if v.Progress.DurationMs > 0 {
		frac = float64(v.Progress.PositionMs) / float64(v.Progress.DurationMs)
	}
	seek := bar(frac, barWidth)
	if !v.Progress.Seekable {
		seek = labelStyle.Render("live")
	}

	parts := []string{
		icon,
		valueStyle.Render(orDash(v.Progress.Position)),
		seek,
		labelStyle.Render(orDash(v.Progress.Duration)),
	}
	if v.Controls.Previous || v.Controls.Next {
		parts = append(parts, labelStyle.Render(navLabel(v.Controls)))
	}
	if v.Clock != "" {
		parts = append(parts, labelStyle.Render(v.Clock))
	}
	return strings.Join(parts, " ")
}

func (p *Presenter) printLocked(line string) {
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.out, line)
}

func batteryStyle(s player.BatteryStatus) lipgloss.Style {
	switch s {
	case player.BatteryGood:
		return goodStyle
	case player.BatteryLow:
		return warnStyle
	default:
		return badStyle
	}
}

func navLabel(c player.Controls) string {
	prev, next := " ", " "
	if c.Previous {
		prev = "<"
	}
	if c.Next {
		next = ">"
	}
	return "[" + prev + next + "]"
}

func orDash(s string) string {
	if s == "" {
		return "--:--:--"
	}
	return s
}
