// Package mpv is the Primary backend: an mpv process with hardware
// decoding, driven over its JSON IPC socket.
package mpv

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/log"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	commandTimeout    = 2 * time.Second
	quitTimeout       = 3 * time.Second
)

// Options configures how mpv is launched.
type Options struct {
	// Path is the mpv binary; "mpv" from PATH when empty.
	Path string
	// HWDec is passed as --hwdec; "auto-safe" when empty.
	HWDec string
	// ExtraArgs are appended after the built-in flags.
	ExtraArgs []string
	// SocketDir holds the IPC socket; os.TempDir() when empty.
	SocketDir string
	Log       *logrus.Entry
}

// Backend runs one mpv process for one data source.
type Backend struct {
	id   uuid.UUID
	sink backend.Sink
	opts Options
	log  *logrus.Entry

	mu       sync.Mutex
	surface  *backend.Surface
	uri      string
	socket   string
	cmd      *exec.Cmd
	exited   chan struct{}
	ipc      *conn
	track    *tracker
	playing  bool
	released bool
	done     chan struct{}
}

var _ backend.Backend = (*Backend)(nil)

// New returns an idle backend publishing to sink. No process is started
// until PrepareAsync.
func New(sink backend.Sink, opts Options) *Backend {
	if opts.Path == "" {
		opts.Path = "mpv"
	}
	if opts.HWDec == "" {
		opts.HWDec = "auto-safe"
	}
	if opts.SocketDir == "" {
		opts.SocketDir = os.TempDir()
	}
	id := uuid.New()
	l := opts.Log
	if l == nil {
		l = log.For("mpv")
	}
	return &Backend{
		id:    id,
		sink:  sink,
		opts:  opts,
		log:   l.WithField("id", id.String()[:8]),
		track: newTracker(id),
		done:  make(chan struct{}),
	}
}

func (b *Backend) ID() uuid.UUID      { return b.id }
func (b *Backend) Kind() backend.Kind { return backend.Primary }

// SetDisplay records the window to embed into. mpv takes --wid only at
// launch, so a change after PrepareAsync applies to the next process.
func (b *Backend) SetDisplay(s *backend.Surface) error {
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
	if b.cmd != nil {
		b.log.WithField("window", surf.WindowID).Debug("display change takes effect on next prepare")
	}
	return nil
}

func (b *Backend) SetDataSource(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return backend.ErrReleased
	}
	if uri == "" {
		return errors.New("mpv: empty data source")
	}
	b.uri = uri
	return nil
}

// PrepareAsync launches mpv paused and returns at once. Prepared or Error
// follows once the file is loaded.
func (b *Backend) PrepareAsync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.released:
		return backend.ErrReleased
	case b.uri == "":
		return errors.New("mpv: no data source")
	case b.cmd != nil:
		return errors.New("mpv: already prepared")
	}

	sock, err := socketPath(b.opts.SocketDir)
	if err != nil {
		return err
	}
	b.socket = sock

	cmd := exec.Command(b.opts.Path, buildArgs(b.opts, sock, b.surface)...)
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	b.cmd = cmd
	b.exited = make(chan struct{})
	b.log.WithFields(logrus.Fields{"pid": cmd.Process.Pid, "uri": b.uri}).Info("mpv started")

	go b.reap(cmd, b.exited)
	go b.connect(sock, b.uri, b.exited)
	return nil
}

func (b *Backend) reap(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)

	b.mu.Lock()
	quiet := b.released || b.track.ended
	b.mu.Unlock()
	if quiet {
		return
	}
	b.log.WithError(err).Warn("mpv exited unexpectedly")
	b.publish(backend.NewError(b.id, backend.ErrorServerDied, exitCode(err)))
}

// connect waits for the IPC socket, subscribes to the properties the
// player needs and loads the file.
func (b *Backend) connect(sock, uri string, exited <-chan struct{}) {
	if err := waitForSocket(sock, exited, b.done); err != nil {
		b.failPrepare(fmt.Errorf("ipc socket: %w", err))
		return
	}

	c, err := dial(sock, b.onMessage, b.log)
	if err != nil {
		b.failPrepare(err)
		return
	}

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		_ = c.close()
		return
	}
	b.ipc = c
	b.mu.Unlock()

	for i, name := range observed {
		if _, err := c.command(commandTimeout, "observe_property", i+1, name); err != nil {
			b.failPrepare(fmt.Errorf("observe %s: %w", name, err))
			return
		}
	}
	if _, err := c.command(commandTimeout, "loadfile", uri, "replace"); err != nil {
		b.failPrepare(fmt.Errorf("loadfile: %w", err))
	}
}

func (b *Backend) failPrepare(err error) {
	select {
	case <-b.done:
		return
	default:
	}
	b.log.WithError(err).Warn("prepare failed")
	b.publish(backend.NewError(b.id, backend.ErrorIO, 0))
}

func (b *Backend) onMessage(m message) {
	b.mu.Lock()
	events := b.track.translate(m)
	if paused, ok := b.track.paused.Get(); ok && m.Name == "pause" && !b.released {
		b.playing = !paused
	}
	b.mu.Unlock()
	for _, ev := range events {
		b.publish(ev)
	}
}

func (b *Backend) publish(ev backend.Event) {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if !released {
		b.sink.Publish(ev)
	}
}

// setPause asks mpv to (un)pause and returns without waiting. playing
// follows the request at once and is corrected by the observed pause
// property.
func (b *Backend) setPause(paused bool) error {
	b.mu.Lock()
	c := b.ipc
	b.mu.Unlock()
	if c == nil {
		return errors.New("mpv: not connected")
	}
	if err := c.send("set_property", "pause", paused); err != nil {
		return err
	}
	b.mu.Lock()
	b.playing = !paused
	b.mu.Unlock()
	return nil
}

func (b *Backend) Start() error {
	if b.isReleased() {
		return backend.ErrReleased
	}
	return b.setPause(false)
}

func (b *Backend) Pause() error {
	if b.isReleased() {
		return backend.ErrReleased
	}
	return b.setPause(true)
}

func (b *Backend) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

func (b *Backend) SeekTo(positionMs int) error {
	b.mu.Lock()
	c, released := b.ipc, b.released
	b.mu.Unlock()
	switch {
	case released:
		return backend.ErrReleased
	case c == nil:
		return errors.New("mpv: not connected")
	}
	return c.send("seek", float64(positionMs)/1000, "absolute")
}

func (b *Backend) VideoSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.track.width, b.track.height
}

// Release quits mpv, killing it if it does not exit in time, and removes
// the socket.
func (b *Backend) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil
	}
	b.released = true
	b.playing = false
	close(b.done)
	c, cmd, exited, sock := b.ipc, b.cmd, b.exited, b.socket
	b.ipc = nil
	b.mu.Unlock()

	if c != nil {
		_, _ = c.command(commandTimeout, "quit")
	}
	if cmd != nil {
		select {
		case <-exited:
		case <-time.After(quitTimeout):
			b.log.Warn("mpv did not quit, killing")
			_ = killProcess(cmd)
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

func (b *Backend) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// buildArgs returns mpv's command line. The file itself is loaded over
// IPC once the observers are in place.
func buildArgs(opts Options, socket string, surface *backend.Surface) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--pause",
		"--keep-open=no",
		"--no-osc",
		"--osd-level=0",
		"--hwdec=" + opts.HWDec,
		"--input-ipc-server=" + socket,
	}
	if surface != nil && surface.WindowID != 0 {
		args = append(args, "--wid="+strconv.FormatUint(uint64(surface.WindowID), 10))
	} else {
		args = append(args, "--force-window=yes", "--fullscreen")
	}
	return append(args, opts.ExtraArgs...)
}

func socketPath(dir string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("player-mpv-%x.sock", buf)), nil
}

// waitForSocket polls until mpv accepts connections on path.
func waitForSocket(path string, exited, cancel <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-exited:
			return errors.New("mpv exited before socket was ready")
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
