package system

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Backlight adjusts a sysfs backlight device.
type Backlight struct {
	fs  afero.Fs
	dir string
	max int
}

// NewBacklight opens the first device under classDir
// (normally /sys/class/backlight).
func NewBacklight(fs afero.Fs, classDir string) (*Backlight, error) {
	entries, err := afero.ReadDir(fs, classDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(classDir, name)
		maxRaw, err := readInt(fs, filepath.Join(dir, "max_brightness"))
		if err != nil || maxRaw <= 0 {
			continue
		}
		return &Backlight{fs: fs, dir: dir, max: maxRaw}, nil
	}
	return nil, fmt.Errorf("no backlight device under %s", classDir)
}

// Device is the sysfs directory in use.
func (b *Backlight) Device() string { return b.dir }

// Brightness returns the level in (0,1], or -1 when it cannot be read.
func (b *Backlight) Brightness() float64 {
	cur, err := readInt(b.fs, filepath.Join(b.dir, "brightness"))
	if err != nil {
		logger().WithError(err).Debug("read brightness failed")
		return -1
	}
	return float64(cur) / float64(b.max)
}

func (b *Backlight) SetBrightness(level float64) {
	raw := lo.Clamp(int(level*float64(b.max)+0.5), 1, b.max)
	path := filepath.Join(b.dir, "brightness")
	if err := afero.WriteFile(b.fs, path, []byte(strconv.Itoa(raw)+"\n"), 0o644); err != nil {
		logger().WithError(err).WithField("path", path).Warn("set brightness failed")
	}
}

func readInt(fs afero.Fs, path string) (int, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

// SoftBrightness is an in-memory brightness for displays without a
// controllable backlight. It starts at "system default" (-1).
type SoftBrightness struct {
	mu    sync.Mutex
	level float64
}

func NewSoftBrightness() *SoftBrightness {
	return &SoftBrightness{level: -1}
}

func (s *SoftBrightness) Brightness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *SoftBrightness) SetBrightness(level float64) {
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
}
