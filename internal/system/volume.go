package system

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/samber/lo"
)

// DefaultVolumeSteps is the number of discrete volume steps a slide
// moves through.
const DefaultVolumeSteps = 15

// Mixer controls an ALSA mixer through amixer, exposed as discrete steps.
type Mixer struct {
	control string
	steps   int
	run     Runner

	mu   sync.Mutex
	last int
}

// NewMixer returns a mixer for the named control ("Master" when empty).
func NewMixer(control string, run Runner) *Mixer {
	if control == "" {
		control = "Master"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Mixer{control: control, steps: DefaultVolumeSteps, run: run}
}

func (m *Mixer) MaxVolume() int { return m.steps }

// Probe checks that the control can be read.
func (m *Mixer) Probe() error {
	out, err := m.run("amixer", "sget", m.control)
	if err != nil {
		return fmt.Errorf("amixer %s: %w", m.control, err)
	}
	_, err = parseMixerPercent(out)
	return err
}

// StreamVolume reads the current level. On failure the last known value
// is returned.
func (m *Mixer) StreamVolume() int {
	out, err := m.run("amixer", "sget", m.control)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		logger().WithError(err).Debug("amixer sget failed")
		return m.last
	}
	pct, err := parseMixerPercent(out)
	if err != nil {
		logger().WithError(err).Debug("amixer output not understood")
		return m.last
	}
	m.last = (pct*m.steps + 50) / 100
	return m.last
}

func (m *Mixer) SetStreamVolume(index int) {
	index = lo.Clamp(index, 0, m.steps)
	pct := index * 100 / m.steps
	if _, err := m.run("amixer", "-q", "sset", m.control, strconv.Itoa(pct)+"%"); err != nil {
		logger().WithError(err).WithField("percent", pct).Warn("set volume failed")
		return
	}
	m.mu.Lock()
	m.last = index
	m.mu.Unlock()
}

var mixerPercentRe = regexp.MustCompile(`\[(\d{1,3})%\]`)

// parseMixerPercent returns the first channel's percentage from
// "amixer sget" output.
func parseMixerPercent(out []byte) (int, error) {
	m := mixerPercentRe.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no percentage in amixer output")
	}
	v, _ := strconv.Atoi(string(m[1]))
	return lo.Clamp(v, 0, 100), nil
}

// SoftVolume is an in-memory volume for machines without a mixer.
type SoftVolume struct {
	mu    sync.Mutex
	level int
	max   int
}

func NewSoftVolume(level, maxLevel int) *SoftVolume {
	return &SoftVolume{level: lo.Clamp(level, 0, maxLevel), max: maxLevel}
}

func (v *SoftVolume) MaxVolume() int { return v.max }

func (v *SoftVolume) StreamVolume() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level
}

func (v *SoftVolume) SetStreamVolume(index int) {
	v.mu.Lock()
	v.level = lo.Clamp(index, 0, v.max)
	v.mu.Unlock()
}
