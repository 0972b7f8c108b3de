package vlc

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
)

// ErrNotFound is returned when no VLC executable can be located.
var ErrNotFound = errors.New("VLC not found, install with: sudo apt install vlc")

// FindVLC locates the VLC executable. A non-empty override is used as-is
// when it resolves; otherwise cvlc is preferred on Linux, since it shows
// only the video.
func FindVLC(override string) (string, error) {
	if override != "" {
		if path, err := exec.LookPath(override); err == nil {
			return path, nil
		}
		return "", ErrNotFound
	}

	if runtime.GOOS == "linux" {
		for _, name := range []string{"cvlc", "/usr/bin/cvlc"} {
			if path, err := exec.LookPath(name); err == nil {
				return path, nil
			}
		}
	}

	if path, err := exec.LookPath("vlc"); err == nil {
		return path, nil
	}

	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			`C:\Program Files\VideoLAN\VLC\vlc.exe`,
			`C:\Program Files (x86)\VideoLAN\VLC\vlc.exe`,
		}
	case "darwin":
		candidates = []string{"/Applications/VLC.app/Contents/MacOS/VLC"}
	default:
		candidates = []string{"/usr/bin/cvlc", "/usr/bin/vlc", "/snap/bin/vlc"}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", ErrNotFound
}
