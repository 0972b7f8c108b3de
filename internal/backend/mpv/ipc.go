package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var errConnClosed = errors.New("mpv ipc: connection closed")

// writeTimeout bounds a single socket write.
const writeTimeout = 200 * time.Millisecond

// request is one line sent to mpv's JSON IPC socket.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is one line received from mpv: either a reply (RequestID set)
// or an asynchronous event.
type message struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	Event     string `json:"event,omitempty"`
	ID        int    `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

type reply struct {
	data json.RawMessage
	err  error
}

// conn is a persistent IPC connection. Commands and events share it;
// replies are matched to commands by request_id.
type conn struct {
	nc      net.Conn
	onEvent func(message)
	log     *logrus.Entry

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan reply
	closed  bool
	done    chan struct{}
}

func dial(socketPath string, onEvent func(message), l *logrus.Entry) (*conn, error) {
	nc, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	c := &conn{
		nc:      nc,
		onEvent: onEvent,
		log:     l,
		pending: make(map[int64]chan reply),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// command sends args and waits up to timeout for mpv's reply.
func (c *conn) command(timeout time.Duration, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errConnClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan reply, 1)
	c.pending[id] = ch

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err == nil {
		// mpv requires newline-delimited JSON.
		_, err = c.nc.Write(append(payload, '\n'))
	}
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("write %v: %w", args[0], err)
	}
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("%v: no reply after %s", args[0], timeout)
	}
}

// send writes args without waiting for the reply. A failed reply is only
// logged.
func (c *conn) send(args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	c.nextID++
	payload, err := json.Marshal(request{Command: args, RequestID: c.nextID})
	if err == nil {
		_ = c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err = c.nc.Write(append(payload, '\n'))
		_ = c.nc.SetWriteDeadline(time.Time{})
	}
	if err != nil {
		return fmt.Errorf("write %v: %w", args[0], err)
	}
	return nil
}

func (c *conn) readLoop() {
	defer c.shutdown()

	sc := bufio.NewScanner(c.nc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m message
		if err := json.Unmarshal(line, &m); err != nil {
			c.log.WithError(err).Debug("skipping unparseable ipc line")
			continue
		}
		if m.RequestID != nil && m.Event == "" {
			c.deliver(*m.RequestID, m)
			continue
		}
		if c.onEvent != nil {
			c.onEvent(m)
		}
	}
	if err := sc.Err(); err != nil {
		c.log.WithError(err).Debug("ipc read stopped")
	}
}

func (c *conn) deliver(id int64, m message) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if !ok {
		if m.Error != "" && m.Error != "success" {
			c.log.WithField("request", id).Debugf("mpv error: %s", m.Error)
		}
		return
	}

	r := reply{data: m.Data}
	if m.Error != "" && m.Error != "success" {
		r.err = fmt.Errorf("mpv error: %s", m.Error)
	}
	ch <- r
}

// shutdown fails every outstanding command.
func (c *conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		ch <- reply{err: errConnClosed}
		delete(c.pending, id)
	}
	close(c.done)
}

func (c *conn) close() error {
	err := c.nc.Close()
	<-c.done
	return err
}
