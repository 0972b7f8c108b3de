// Package geometry maps a decoded video size onto the display under the
// player's aspect-ratio policies.
package geometry

import (
	"fmt"
	"strings"
)

// AspectMode selects how the video surface is sized on screen.
type AspectMode int

const (
	None AspectMode = iota
	Fill
	Original
	Ratio4x3
	Ratio16x9
	Ratio16x10

	modeCount
)

var modeNames = [...]string{
	None:       "none",
	Fill:       "fill",
	Original:   "original",
	Ratio4x3:   "4:3",
	Ratio16x9:  "16:9",
	Ratio16x10: "16:10",
}

func (m AspectMode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("AspectMode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode that follows m, wrapping to None after the last.
func (m AspectMode) Next() AspectMode {
	return ((m%modeCount + modeCount) + 1) % modeCount
}

// ParseAspectMode accepts the names produced by String.
func ParseAspectMode(s string) (AspectMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return AspectMode(i), nil
		}
	}
	return None, fmt.Errorf("unknown aspect mode %q", s)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ratio returns the target ratio for the fixed-ratio modes.
func (m AspectMode) ratio() (rw, rh int, ok bool) {
	switch m {
	case Ratio4x3:
		return 4, 3, true
	case Ratio16x9:
		return 16, 9, true
	case Ratio16x10:
		return 16, 10, true
	}
	return 0, 0, false
}

// ComputeTargetRect returns the on-screen size for a video of the given
// dimensions. ok is false when the video size is degenerate, in which case
// the caller keeps whatever geometry it already had.
func ComputeTargetRect(video, display Size, mode AspectMode) (target Size, ok bool) {
	if video.Width <= 0 || video.Height <= 0 {
		return Size{}, false
	}

	switch mode {
	case None:
		return video, true
	case Fill:
		return display, true
	case Original:
		display = video
	}

	rw, rh, fixed := mode.ratio()
	if !fixed || display.Height <= 0 {
		return display, true
	}

	ard := float64(display.Width) / float64(display.Height)
	art := float64(rw) / float64(rh)
	if ard > art {
		display.Width = display.Height * rw / rh
	} else {
		display.Height = display.Width * rh / rw
	}
	return display, true
}
