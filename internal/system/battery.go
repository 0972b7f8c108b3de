package system

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrNoBattery is returned when no power supply reports itself as a
// battery.
var ErrNoBattery = errors.New("no battery found")

// ReadBattery returns the charge percentage of the first battery under
// classDir (normally /sys/class/power_supply).
func ReadBattery(fs afero.Fs, classDir string) (int, error) {
	entries, err := afero.ReadDir(fs, classDir)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		dir := filepath.Join(classDir, e.Name())
		kind, err := afero.ReadFile(fs, filepath.Join(dir, "type"))
		if err != nil || !strings.EqualFold(strings.TrimSpace(string(kind)), "battery") {
			continue
		}
		return readInt(fs, filepath.Join(dir, "capacity"))
	}
	return 0, ErrNoBattery
}

// WatchBattery polls the battery every interval and calls fn with the
// level whenever it changes, starting with the first reading. It returns
// ErrNoBattery at once when there is nothing to watch, otherwise it runs
// until ctx is done.
func WatchBattery(ctx context.Context, fs afero.Fs, classDir string, interval time.Duration, fn func(level int)) error {
	level, err := ReadBattery(fs, classDir)
	if err != nil {
		return err
	}
	fn(level)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		next, err := ReadBattery(fs, classDir)
		if err != nil {
			logger().WithError(err).Debug("battery read failed")
			continue
		}
		if next != level {
			level = next
			fn(level)
		}
	}
}
