package vlc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rcConn talks to VLC's rc interface. The interface has no request ids,
// so commands are serialised and answers are read back in order.
type rcConn struct {
	mu sync.Mutex
	nc net.Conn
	r  *bufio.Reader
}

func dialRC(path string) (*rcConn, error) {
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect rc: %w", err)
	}
	return &rcConn{nc: nc, r: bufio.NewReader(nc)}, nil
}

// send writes a command that produces no answer.
func (c *rcConn) send(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.nc.SetWriteDeadline(time.Now().Add(time.Second))
	_, err := io.WriteString(c.nc, cmd+"\n")
	return err
}

// query sends cmd and returns the first answer line.
func (c *rcConn) query(cmd string, timeout time.Duration) (string, error) {
	lines, err := c.collect(cmd, timeout, func(string) bool { return true })
	if err != nil {
		return "", err
	}
	return lines[len(lines)-1], nil
}

// collect sends cmd and gathers answer lines up to and including the one
// for which last reports true.
func (c *rcConn) collect(cmd string, timeout time.Duration, last func(string) bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.nc.SetDeadline(time.Now().Add(timeout))
	defer c.nc.SetDeadline(time.Time{})

	if _, err := io.WriteString(c.nc, cmd+"\n"); err != nil {
		return nil, fmt.Errorf("rc %s: %w", cmd, err)
	}

	var lines []string
	for {
		raw, err := c.r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("rc %s: %w", cmd, err)
		}
		line := trimPrompt(raw)
		if line == "" || strings.HasPrefix(line, "status change:") {
			continue
		}
		lines = append(lines, line)
		if last(line) {
			return lines, nil
		}
	}
}

func (c *rcConn) close() error {
	return c.nc.Close()
}

// trimPrompt strips the line ending and the "> " prompt that
// --rc-fake-tty prefixes to output.
func trimPrompt(s string) string {
	s = strings.TrimRight(s, "\r\n")
	for strings.HasPrefix(s, ">") {
		s = strings.TrimLeft(strings.TrimPrefix(s, ">"), " ")
	}
	return strings.TrimSpace(s)
}

func parseRCInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

// rcState is the playback state reported by the rc "status" command.
type rcState string

const (
	rcStopped rcState = "stopped"
	rcOpening rcState = "opening"
	rcPlaying rcState = "playing"
	rcPaused  rcState = "paused"
)

// isStateLine matches "( state playing )".
func isStateLine(line string) bool {
	return strings.HasPrefix(line, "( state ")
}

func parseState(line string) rcState {
	s := strings.TrimSuffix(strings.TrimPrefix(line, "( state "), ")")
	return rcState(strings.TrimSpace(s))
}

func isInfoEnd(line string) bool {
	return strings.Contains(line, "end of stream info")
}

var resolutionRe = regexp.MustCompile(`(?i)\b(video resolution|resolution|display resolution):\s*(\d+)\s*x\s*(\d+)`)

// parseResolution picks the video size out of "info" output, preferring
// the decoded "Video resolution" over display or buffer sizes.
func parseResolution(lines []string) (int, int, bool) {
	var w, h int
	found := false
	for _, line := range lines {
		m := resolutionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		mw, _ := strconv.Atoi(m[2])
		mh, _ := strconv.Atoi(m[3])
		if mw <= 0 || mh <= 0 {
			continue
		}
		if strings.EqualFold(m[1], "video resolution") {
			return mw, mh, true
		}
		if !found {
			w, h, found = mw, mh, true
		}
	}
	return w, h, found
}
