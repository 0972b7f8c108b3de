package debounce

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled call that can be canceled.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts time so tests can drive expiry by hand.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler uses the runtime timers.
type RealScheduler struct{}

func (RealScheduler) Now() time.Time { return time.Now() }

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler is a Scheduler whose clock only moves on Advance.
// Due callbacks run synchronously inside Advance, in deadline order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Time
	seq     int
	f       func()
	stopped bool
}

// NewManualScheduler starts the clock at an arbitrary fixed instant.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and fires every timer that became
// due, earliest first.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due, rest []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.stopped:
		case !t.at.After(s.now):
			t.stopped = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.timers = rest
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, t := range due {
		t.f()
	}
}
