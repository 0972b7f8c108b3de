package player

import (
	"fmt"

	"player-control/internal/backend"
	"player-control/internal/geometry"
	"player-control/internal/gesture"
)

// Presenter is everything the orchestrator tells the outside world. All
// calls happen on the control goroutine.
type Presenter interface {
	gesture.Feedback

	SetOverlayVisible(visible bool)
	SetLoadingVisible(visible bool)
	SetProgress(p Progress)
	SetSurfaceRect(kind backend.Kind, rect geometry.Size)
	ShowSurface(kind backend.Kind)
	SetPlaying(playing bool)
	SetAspectMode(mode geometry.AspectMode)
	SetControls(c Controls)
	SetBattery(b Battery)
	SetClock(label string)
	ReportOutcome(o Outcome)
}

// Progress is the seek bar and its two time labels.
type Progress struct {
	PositionMs int
	DurationMs int
	Position   string
	Duration   string
	Seekable   bool
}

// Controls is the visibility of the playlist navigation buttons.
type Controls struct {
	Previous bool
	Next     bool
}

// BatteryStatus buckets the battery level for display.
type BatteryStatus int

const (
	BatteryGood BatteryStatus = iota
	BatteryLow
	BatteryCritical
)

func (s BatteryStatus) String() string {
	switch s {
	case BatteryGood:
		return "good"
	case BatteryLow:
		return "low"
	default:
		return "critical"
	}
}

// Battery is the battery indicator.
type Battery struct {
	Level  int
	Status BatteryStatus
	Label  string
}

// NewBattery classifies a charge percentage.
func NewBattery(level int) Battery {
	status := BatteryCritical
	switch {
	case level >= 50:
		status = BatteryGood
	case level >= 30:
		status = BatteryLow
	}
	return Battery{Level: level, Status: status, Label: fmt.Sprintf("%d%%", level)}
}

// OutcomeKind is how a playlist item ended.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	if k == OutcomeFailed {
		return "failed"
	}
	return "completed"
}

// ReasonInvalidInput is the outcome reason when Open is given an unusable
// playlist. Backend failures carry the backend's error code instead.
const ReasonInvalidInput = -3001

// Outcome is the terminal result of one playlist item.
type Outcome struct {
	Kind   OutcomeKind
	URI    string
	Index  int
	Reason int
	Err    error
}

func (o Outcome) String() string {
	if o.Kind == OutcomeFailed {
		return fmt.Sprintf("failed %q (reason %d)", o.URI, o.Reason)
	}
	return fmt.Sprintf("completed %q", o.URI)
}

// FormatTime renders milliseconds as hh:mm:ss. Unknown (negative) times
// render as zero.
func FormatTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
