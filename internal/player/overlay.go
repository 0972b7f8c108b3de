package player

import (
	"time"

	"player-control/internal/debounce"
)

// overlayChannels are the three interactions that can keep the control
// overlay up.
var overlayChannels = []debounce.Channel{
	debounce.OverlayAuto,
	debounce.OverlayClick,
	debounce.OverlaySeek,
}

// overlay owns the control bar visibility. Each channel's timer only hides
// the bar if that channel still holds the claim when it fires.
type overlay struct {
	timers  *debounce.TimerSet
	delay   time.Duration
	out     Presenter
	visible bool
	claims  map[debounce.Channel]bool
}

func newOverlay(timers *debounce.TimerSet, delay time.Duration, out Presenter) *overlay {
	return &overlay{
		timers: timers,
		delay:  delay,
		out:    out,
		claims: make(map[debounce.Channel]bool, len(overlayChannels)),
	}
}

// claim gives ch sole ownership of the next hide.
func (ov *overlay) claim(ch debounce.Channel) {
	for _, c := range overlayChannels {
		ov.claims[c] = c == ch
	}
}

func (ov *overlay) release() {
	for _, c := range overlayChannels {
		ov.claims[c] = false
	}
}

func (ov *overlay) show() {
	if !ov.visible {
		ov.visible = true
		ov.out.SetOverlayVisible(true)
	}
}

func (ov *overlay) hide() {
	if ov.visible {
		ov.visible = false
		ov.out.SetOverlayVisible(false)
	}
}

func (ov *overlay) arm(ch debounce.Channel) {
	ov.timers.Arm(ch, ov.delay, func() { ov.expire(ch) })
}

func (ov *overlay) expire(ch debounce.Channel) {
	if !ov.claims[ch] {
		return
	}
	ov.claims[ch] = false
	ov.hide()
}

// touch toggles the bar: a hidden bar comes up and auto-hides, a visible
// one goes away and every pending hide loses its claim.
func (ov *overlay) touch() {
	if ov.visible {
		ov.release()
		ov.hide()
		return
	}
	ov.show()
	ov.claim(debounce.OverlayAuto)
	ov.arm(debounce.OverlayAuto)
}

func (ov *overlay) click() {
	ov.show()
	ov.claim(debounce.OverlayClick)
	ov.arm(debounce.OverlayClick)
}

// seekStart holds the bar up for as long as the user drags.
func (ov *overlay) seekStart() {
	ov.show()
	ov.claim(debounce.OverlaySeek)
	ov.timers.Disarm(debounce.OverlaySeek)
}

func (ov *overlay) seekEnd() {
	ov.arm(debounce.OverlaySeek)
}

func (ov *overlay) reset() {
	for _, c := range overlayChannels {
		ov.timers.Disarm(c)
	}
	ov.release()
	ov.hide()
}
