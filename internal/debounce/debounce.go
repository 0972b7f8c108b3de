// Package debounce keeps a small set of independently cancelable delayed
// actions, one per channel. Re-arming a channel only replaces that
// channel's pending action; the others keep their own deadlines.
//
// A TimerSet is owned by one goroutine (the player's control loop). Timer
// expiry happens elsewhere, so firings are handed back through the post
// function and re-checked there before the action runs.
package debounce

import (
	"fmt"
	"time"
)

// Channel identifies one delayed action slot.
type Channel int

const (
	OverlayAuto Channel = iota
	OverlayClick
	OverlaySeek
	GestureFeedback
)

func (c Channel) String() string {
	switch c {
	case OverlayAuto:
		return "overlay-auto"
	case OverlayClick:
		return "overlay-click"
	case OverlaySeek:
		return "overlay-seek"
	case GestureFeedback:
		return "gesture-feedback"
	default:
		return fmt.Sprintf("channel-%d", int(c))
	}
}

type entry struct {
	timer    Timer
	gen      uint64
	deadline time.Time
}

// TimerSet maps channels to their pending delayed action.
type TimerSet struct {
	sched   Scheduler
	post    func(func())
	gen     uint64
	entries map[Channel]*entry
}

// New returns a TimerSet. post must run the given function on the
// goroutine that owns the set; nil runs it in place, which is only
// correct when sched fires synchronously (ManualScheduler).
func New(sched Scheduler, post func(func())) *TimerSet {
	if sched == nil {
		sched = RealScheduler{}
	}
	if post == nil {
		post = func(f func()) { f() }
	}
	return &TimerSet{
		sched:   sched,
		post:    post,
		entries: make(map[Channel]*entry),
	}
}

// Arm schedules action to run after delay, replacing any pending action
// on the same channel.
func (s *TimerSet) Arm(ch Channel, delay time.Duration, action func()) {
	s.Disarm(ch)

	s.gen++
	gen := s.gen
	e := &entry{gen: gen, deadline: s.sched.Now().Add(delay)}
	s.entries[ch] = e

	e.timer = s.sched.AfterFunc(delay, func() {
		s.post(func() {
			cur, ok := s.entries[ch]
			if !ok || cur.gen != gen {
				return
			}
			delete(s.entries, ch)
			action()
		})
	})
}

// Disarm cancels the pending action on ch without running it.
func (s *TimerSet) Disarm(ch Channel) {
	e, ok := s.entries[ch]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(s.entries, ch)
}

// DisarmAll cancels every pending action.
func (s *TimerSet) DisarmAll() {
	for ch := range s.entries {
		s.Disarm(ch)
	}
}

// Armed reports whether ch has a pending action.
func (s *TimerSet) Armed(ch Channel) bool {
	_, ok := s.entries[ch]
	return ok
}

// Deadline returns when the pending action on ch is due.
func (s *TimerSet) Deadline(ch Channel) (time.Time, bool) {
	e, ok := s.entries[ch]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}
