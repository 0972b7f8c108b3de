//go:build !libvlc

package vlc

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
)

const (
	pollInterval      = 250 * time.Millisecond
	queryTimeout      = 500 * time.Millisecond
	socketWaitRetries = 30
	socketWaitDelay   = 200 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// execBackend runs one cvlc process per data source and samples its state
// over the rc socket.
type execBackend struct {
	id   uuid.UUID
	sink backend.Sink
	opts Options
	log  *logrus.Entry

	mu         sync.Mutex
	surface    *backend.Surface
	uri        string
	socket     string
	cmd        *exec.Cmd
	exited     chan struct{}
	rc         *rcConn
	prepared   bool
	playing    bool
	ended      bool
	released   bool
	durationMs int
	positionMs int
	width      int
	height     int
	done       chan struct{}
}

func newBackend(sink backend.Sink, opts Options) (backend.Backend, error) {
	if opts.SocketDir == "" {
		opts.SocketDir = os.TempDir()
	}
	id := uuid.New()
	return &execBackend{
		id:         id,
		sink:       sink,
		opts:       opts,
		log:        opts.Log.WithField("id", id.String()[:8]),
		durationMs: -1,
		positionMs: -1,
		done:       make(chan struct{}),
	}, nil
}

func (b *execBackend) ID() uuid.UUID      { return b.id }
func (b *execBackend) Kind() backend.Kind { return backend.Fallback }

func (b *execBackend) SetDisplay(s *backend.Surface) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return backend.ErrReleased
	}
	if s == nil {
		b.surface = nil
		return nil
	}
	surf := *s
	b.surface = &surf
	return nil
}

func (b *execBackend) SetDataSource(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return backend.ErrReleased
	}
	if uri == "" {
		return errors.New("vlc: empty data source")
	}
	b.uri = uri
	return nil
}

func (b *execBackend) PrepareAsync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.released:
		return backend.ErrReleased
	case b.uri == "":
		return errors.New("vlc: no data source")
	case b.cmd != nil:
		return errors.New("vlc: already prepared")
	}

	path, err := FindVLC(b.opts.Path)
	if err != nil {
		return err
	}
	sock, err := socketPath(b.opts.SocketDir)
	if err != nil {
		return err
	}
	b.socket = sock

	cmd := exec.Command(path, buildArgs(b.opts, sock, b.surface, b.uri)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start vlc: %w", err)
	}
	b.cmd = cmd
	b.exited = make(chan struct{})
	b.log.WithFields(logrus.Fields{"pid": cmd.Process.Pid, "path": path, "uri": b.uri}).Info("vlc started")

	go b.reap(cmd, b.exited)
	go b.control(sock, b.exited)
	if (b.surface == nil || b.surface.WindowID == 0) && runtime.GOOS == "linux" && b.opts.Display.Width > 0 {
		go b.positionWindow(cmd.Process.Pid, b.exited)
	}
	return nil
}

// buildArgs starts VLC paused on the first frame with the rc interface
// listening on socket. VLC exits when the item ends.
func buildArgs(opts Options, socket string, s *backend.Surface, uri string) []string {
	args := baseArgs()
	args = append(args,
		"--extraintf=rc",
		"--rc-unix="+socket,
		"--rc-fake-tty",
		"--start-paused",
		"--play-and-exit",
		"--no-loop",
		"--no-repeat",
	)
	if runtime.GOOS == "linux" {
		args = append(args, "--aout=alsa")
	}
	args = append(args, windowArgs(s)...)
	args = append(args, opts.ExtraArgs...)
	return append(args, uri)
}

// reap reports how the process ended: a clean exit after the item loaded
// is completion, anything else is an error.
func (b *execBackend) reap(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)

	b.mu.Lock()
	if b.released || b.ended {
		b.mu.Unlock()
		return
	}
	b.ended = true
	prepared := b.prepared
	b.playing = false
	b.mu.Unlock()

	code := exitCode(err)
	switch {
	case prepared && err == nil:
		b.log.Info("vlc reached end of item")
		b.publish(backend.NewCompletion(b.id))
	case prepared:
		b.log.WithError(err).Warn("vlc died")
		b.publish(backend.NewError(b.id, backend.ErrorServerDied, code))
	default:
		b.log.WithError(err).Warn("vlc exited before the item loaded")
		b.publish(backend.NewError(b.id, backend.ErrorIO, code))
	}
}

func (b *execBackend) control(sock string, exited <-chan struct{}) {
	if err := waitForSocket(sock, exited, b.done); err != nil {
		b.log.WithError(err).Debug("rc socket unavailable")
		return
	}
	c, err := dialRC(sock)
	if err != nil {
		b.log.WithError(err).Debug("rc connect failed")
		return
	}

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		_ = c.close()
		return
	}
	b.rc = c
	b.mu.Unlock()

	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-exited:
			return
		case <-t.C:
		}
		for _, ev := range b.sample(c) {
			b.publish(ev)
		}
	}
}

// sample polls VLC once and returns the events implied by what changed.
func (b *execBackend) sample(c *rcConn) []backend.Event {
	b.mu.Lock()
	prepared := b.prepared
	b.mu.Unlock()

	var events []backend.Event
	if !prepared {
		lines, err := c.collect("status", queryTimeout, isStateLine)
		if err != nil {
			return nil
		}
		st := parseState(lines[len(lines)-1])
		if st != rcPaused && st != rcPlaying {
			return nil
		}
		length := -1
		if line, err := c.query("get_length", queryTimeout); err == nil {
			if v, ok := parseRCInt(line); ok {
				length = v
			}
		}
		w, h := 0, 0
		if info, err := c.collect("info", queryTimeout, isInfoEnd); err == nil {
			w, h, _ = parseResolution(info)
		}

		b.mu.Lock()
		b.prepared = true
		b.playing = st == rcPlaying
		b.width, b.height = w, h
		if length > 0 {
			b.durationMs = length * 1000
		}
		b.mu.Unlock()

		events = append(events, backend.NewPrepared(b.id))
		if length == 0 {
			events = append(events, backend.NewInfo(b.id, backend.InfoNotSeekable, 0))
		}
		return events
	}

	line, err := c.query("get_time", queryTimeout)
	if err != nil {
		return nil
	}
	secs, ok := parseRCInt(line)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.positionMs == secs*1000 {
		return nil
	}
	b.positionMs = secs * 1000
	return []backend.Event{backend.NewProgressUpdate(b.id, b.positionMs, b.durationMs)}
}

func (b *execBackend) publish(ev backend.Event) {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if !released {
		b.sink.Publish(ev)
	}
}

func (b *execBackend) conn() (*rcConn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.released:
		return nil, backend.ErrReleased
	case b.rc == nil:
		return nil, errors.New("vlc: not connected")
	}
	return b.rc, nil
}

func (b *execBackend) Start() error {
	c, err := b.conn()
	if err != nil {
		return err
	}
	if err := c.send("play"); err != nil {
		return err
	}
	b.mu.Lock()
	b.playing = true
	b.mu.Unlock()
	return nil
}

// Pause sends rc "pause", which toggles, so it is only sent while playing.
func (b *execBackend) Pause() error {
	c, err := b.conn()
	if err != nil {
		return err
	}
	b.mu.Lock()
	playing := b.playing
	b.playing = false
	b.mu.Unlock()
	if !playing {
		return nil
	}
	return c.send("pause")
}

func (b *execBackend) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// SeekTo seeks with one-second resolution, the finest rc offers.
func (b *execBackend) SeekTo(positionMs int) error {
	c, err := b.conn()
	if err != nil {
		return err
	}
	return c.send("seek " + strconv.Itoa(positionMs/1000))
}

func (b *execBackend) VideoSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *execBackend) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil
	}
	b.released = true
	b.playing = false
	close(b.done)
	c, cmd, exited, sock := b.rc, b.cmd, b.exited, b.socket
	b.rc = nil
	b.mu.Unlock()

	if c != nil {
		_ = c.send("quit")
	}
	if cmd != nil {
		select {
		case <-exited:
		case <-time.After(quitTimeout):
			b.log.Warn("vlc did not quit, killing")
			_ = cmd.Process.Kill()
			<-exited
		}
	}
	if c != nil {
		_ = c.close()
	}
	if sock != "" {
		_ = os.Remove(sock)
	}
	b.log.Debug("released")
	return nil
}

// positionWindow uses xdotool to pin VLC's own window over the whole
// display. override-redirect keeps the window manager from decorating or
// moving it.
func (b *execBackend) positionWindow(pid int, exited <-chan struct{}) {
	pidStr := strconv.Itoa(pid)
	wStr := strconv.Itoa(b.opts.Display.Width)
	hStr := strconv.Itoa(b.opts.Display.Height)

	for attempt := 0; attempt < 50; attempt++ {
		select {
		case <-exited:
			return
		case <-b.done:
			return
		case <-time.After(200 * time.Millisecond):
		}

		out, err := exec.Command("xdotool", "search", "--pid", pidStr).Output()
		if err != nil || strings.TrimSpace(string(out)) == "" {
			continue
		}
		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		windowID := lines[len(lines)-1]

		_ = exec.Command("xdotool", "set_window", "--overrideredirect", "1", windowID).Run()
		_ = exec.Command("xdotool", "windowsize", windowID, wStr, hStr).Run()
		_ = exec.Command("xdotool", "windowmove", windowID, "0", "0").Run()
		_ = exec.Command("xdotool", "windowraise", windowID).Run()

		b.log.WithField("window", windowID).Debugf("window placed at 0,0 %sx%s", wStr, hStr)
		return
	}
	b.log.WithField("pid", pid).Warn("could not find vlc window after 10s")
}

func socketPath(dir string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("player-vlc-%x.sock", buf)), nil
}

func waitForSocket(path string, exited, cancel <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-exited:
			return errors.New("vlc exited before socket was ready")
		case <-cancel:
			return errors.New("released")
		case <-time.After(socketWaitDelay):
		}
		nc, err := net.Dial("unix", path)
		if err == nil {
			nc.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", path, socketWaitRetries)
}

func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 0
}
