package player

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"player-control/internal/gesture"
)

var (
	// ErrUnknownIntent is returned by Dispatch for names it does not know.
	ErrUnknownIntent = errors.New("player: unknown intent")
	// ErrBadArgument is returned by Dispatch when an argument is missing
	// or malformed.
	ErrBadArgument = errors.New("player: bad argument")
)

type intent struct {
	usage string
	run   func(o *Orchestrator, args []string) error
}

var intents = map[string]intent{
	"toggle": {"toggle", func(o *Orchestrator, _ []string) error { return o.TogglePlay() }},
	"aspect": {"aspect", func(o *Orchestrator, _ []string) error { return o.CycleAspect() }},
	"next":   {"next", func(o *Orchestrator, _ []string) error { return o.Next() }},
	"prev":   {"prev", func(o *Orchestrator, _ []string) error { return o.Previous() }},
	"seek": {"seek <[hh:]mm:ss|seconds>", func(o *Orchestrator, args []string) error {
		ms, err := argPosition(args)
		if err != nil {
			return err
		}
		if _, err := o.loaded(); err != nil {
			return err
		}
		o.SeekStart()
		return o.SeekTo(ms)
	}},
	"touch": {"touch", func(o *Orchestrator, _ []string) error {
		o.TouchDown()
		return nil
	}},
	"volume": {"volume <-1..1>", func(o *Orchestrator, args []string) error {
		return o.slideOnce(gesture.VolumeAxis, args)
	}},
	"brightness": {"brightness <-1..1>", func(o *Orchestrator, args []string) error {
		return o.slideOnce(gesture.BrightnessAxis, args)
	}},
	"audio":    {"audio", func(o *Orchestrator, _ []string) error { return o.SwitchAudio() }},
	"subtitle": {"subtitle", func(o *Orchestrator, _ []string) error { return o.SwitchSubtitle() }},
	"message":  {"message", func(o *Orchestrator, _ []string) error { return o.ToggleMessage() }},
	"background": {"background", func(o *Orchestrator, _ []string) error {
		o.Background()
		return nil
	}},
	"battery": {"battery <0..100>", func(o *Orchestrator, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: battery needs a level", ErrBadArgument)
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		o.BatteryChanged(level)
		return nil
	}},
}

var intentAliases = map[string]string{
	"play":     "toggle",
	"pause":    "toggle",
	"previous": "prev",
}

// Intents returns the usage line of every intent Dispatch accepts,
// sorted by name.
func Intents() []string {
	out := make([]string, 0, len(intents))
	for _, in := range intents {
		out = append(out, in.usage)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs a named user intent, as typed at the prompt or posted to
// the control API. It must run on the control goroutine.
func (o *Orchestrator) Dispatch(name string, args ...string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := intentAliases[name]; ok {
		name = alias
	}
	in, ok := intents[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIntent, name)
	}
	return in.run(o, args)
}

// slideOnce is a whole slide gesture: touch, move by the given percent,
// lift.
func (o *Orchestrator) slideOnce(axis gesture.Axis, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s needs a percent", ErrBadArgument, axis)
	}
	p, err := strconv.ParseFloat(args[0], 64)
	if err != nil || math.IsNaN(p) || p < -1 || p > 1 {
		return fmt.Errorf("%w: %q is not in [-1,1]", ErrBadArgument, args[0])
	}
	if _, err := o.loaded(); err != nil {
		return err
	}
	o.Slide(axis, p)
	o.TouchUp()
	return nil
}

func argPosition(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: seek needs a position", ErrBadArgument)
	}
	ms, err := ParsePosition(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadArgument, err)
	}
	return ms, nil
}

// maxPositionSec keeps a position in milliseconds within an int32.
const maxPositionSec = math.MaxInt32 / 1000

// ParsePosition reads "90", "1:30" or "01:02:03" as milliseconds. It is
// the inverse of FormatTime.
func ParsePosition(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("position %q has too many fields", s)
	}
	total := 0
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("position %q is not a time", s)
		}
		if v > maxPositionSec || total > (maxPositionSec-v)/60 {
			return 0, fmt.Errorf("position %q is out of range", s)
		}
		total = total*60 + v
	}
	return total * 1000, nil
}
