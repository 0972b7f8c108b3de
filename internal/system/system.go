// Package system reads and adjusts the device's volume, screen brightness
// and battery, and takes the health snapshot printed by "player check".
package system

import (
	"os/exec"

	"github.com/sirupsen/logrus"

	"player-control/internal/log"
)

// Runner executes a command and returns its standard output. Tests swap
// it for a scripted fake.
type Runner func(name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func logger() *logrus.Entry { return log.For("system") }
