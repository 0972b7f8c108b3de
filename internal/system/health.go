package system

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const thermalZone = "/sys/class/thermal/thermal_zone0/temp"

// HealthStatus is a snapshot of the device as seen by "player check".
type HealthStatus struct {
	CPUTempC      float64   `json:"cpu_temp_c"`
	DiskUsedPct   float64   `json:"disk_used_pct"`
	DiskFreeBytes uint64    `json:"disk_free_bytes"`
	Throttled     bool      `json:"throttled"`
	Volume        int       `json:"volume"`
	Brightness    float64   `json:"brightness"`
	Battery       int       `json:"battery"`
	Timestamp     time.Time `json:"timestamp"`
}

// Health gathers the snapshot.
type Health struct {
	FS  afero.Fs
	Run Runner
	// PowerSupplyDir and BacklightDir point at the sysfs class
	// directories.
	PowerSupplyDir string
	BacklightDir   string
	Mixer          string
}

// CPUTemp reads the thermal zone in degrees Celsius.
func CPUTemp(fs afero.Fs) (float64, error) {
	data, err := afero.ReadFile(fs, thermalZone)
	if err != nil {
		return 0, fmt.Errorf("read cpu temp: %w", err)
	}
	milliC, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse cpu temp: %w", err)
	}
	return milliC / 1000.0, nil
}

// parseDF reads "df --output=pcent,avail -B1" output.
func parseDF(out []byte) (usedPct float64, freeBytes uint64, err error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("unexpected df output")
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected df fields")
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk pct: %w", err)
	}
	free, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk free: %w", err)
	}
	return pct, free, nil
}

// parseThrottled reads "vcgencmd get_throttled" output (throttled=0x0).
func parseThrottled(out []byte) (bool, error) {
	parts := strings.SplitN(strings.TrimSpace(string(out)), "=", 2)
	if len(parts) < 2 {
		return false, fmt.Errorf("unexpected vcgencmd output")
	}
	val, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
	if err != nil {
		return false, fmt.Errorf("parse throttle value: %w", err)
	}
	return val != 0, nil
}

// Check takes the snapshot. Probes that fail are logged and left at
// their zero value; volume, brightness and battery read -1.
func (h Health) Check() HealthStatus {
	run := h.Run
	if run == nil {
		run = ExecRunner
	}
	s := HealthStatus{Volume: -1, Brightness: -1, Battery: -1, Timestamp: time.Now()}

	if temp, err := CPUTemp(h.FS); err == nil {
		s.CPUTempC = temp
	} else {
		logger().WithError(err).Debug("health: temp")
	}

	if out, err := run("df", "--output=pcent,avail", "-B1", "/"); err != nil {
		logger().WithError(err).Debug("health: df")
	} else if pct, free, err := parseDF(out); err == nil {
		s.DiskUsedPct, s.DiskFreeBytes = pct, free
	}

	if out, err := run("vcgencmd", "get_throttled"); err != nil {
		logger().WithError(err).Debug("health: vcgencmd")
	} else if t, err := parseThrottled(out); err == nil {
		s.Throttled = t
	}

	mixer := h.Mixer
	if mixer == "" {
		mixer = "Master"
	}
	if out, err := run("amixer", "sget", mixer); err == nil {
		if pct, err := parseMixerPercent(out); err == nil {
			s.Volume = pct
		}
	}
	if bl, err := NewBacklight(h.FS, h.BacklightDir); err == nil {
		s.Brightness = bl.Brightness()
	}
	if level, err := ReadBattery(h.FS, h.PowerSupplyDir); err == nil {
		s.Battery = level
	}

	logger().WithFields(logrus.Fields{
		"temp":       s.CPUTempC,
		"disk":       s.DiskUsedPct,
		"throttled":  s.Throttled,
		"volume":     s.Volume,
		"brightness": s.Brightness,
		"battery":    s.Battery,
	}).Debug("health")
	return s
}
