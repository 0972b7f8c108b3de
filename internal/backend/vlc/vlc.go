// Package vlc is the Fallback backend: VLC with software decoding.
//
// Built with -tags libvlc it drives libVLC in-process. Otherwise it runs
// cvlc as a subprocess and controls it through VLC's rc interface on a
// unix socket.
package vlc

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/geometry"
	"player-control/internal/log"
)

// Options configures the VLC backend.
type Options struct {
	// Path overrides VLC discovery.
	Path      string
	ExtraArgs []string
	// SocketDir holds the rc socket; os.TempDir() when empty.
	SocketDir string
	// Display is the screen size used to place VLC's own window when no
	// surface is attached.
	Display geometry.Size
	Log     *logrus.Entry
}

// New returns an idle Fallback backend publishing to sink.
func New(sink backend.Sink, opts Options) (backend.Backend, error) {
	if opts.Log == nil {
		opts.Log = log.For("vlc")
	}
	return newBackend(sink, opts)
}

// baseArgs are the decoder flags shared by both drivers.
func baseArgs() []string {
	return []string{
		"--no-video-title-show",
		"--no-osd",
		"--no-spu",
		"--no-snapshot-preview",

		// software decode: this is the backend of last resort
		"--avcodec-hw=none",
		"--avcodec-threads=0",
		"--avcodec-skiploopfilter=0",

		"--file-caching=8000",
		"--network-caching=3000",
		"--live-caching=3000",
		"--disc-caching=3000",

		"--clock-jitter=0",
		"--deinterlace=0",

		"--quiet",
	}
}

// windowArgs embeds VLC into the surface window, or opens a fullscreen
// window of its own when there is none.
func windowArgs(s *backend.Surface) []string {
	if s == nil || s.WindowID == 0 {
		return []string{"--fullscreen"}
	}
	return []string{"--drawable-xid=" + strconv.FormatUint(uint64(s.WindowID), 10)}
}
