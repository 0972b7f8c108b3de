// Package engine creates playback backends by kind: mpv for Primary and
// VLC for Fallback.
package engine

import (
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/backend/mpv"
	"player-control/internal/backend/vlc"
	"player-control/internal/log"
)

// Config carries the per-backend launch options.
type Config struct {
	MPV mpv.Options
	VLC vlc.Options
}

// Engine is the backend factory handed to the orchestrator.
type Engine struct {
	cfg Config
	log *logrus.Entry
}

// New returns an engine. Backend loggers default to the engine's
// component fields.
func New(cfg Config) *Engine {
	l := log.For("engine")
	if cfg.MPV.Log == nil {
		cfg.MPV.Log = log.For("backend").WithField("backend", backend.Primary.String())
	}
	if cfg.VLC.Log == nil {
		cfg.VLC.Log = log.For("backend").WithField("backend", backend.Fallback.String())
	}
	return &Engine{cfg: cfg, log: l}
}

// Create builds a backend of the given kind wired to sink.
func (e *Engine) Create(kind backend.Kind, sink backend.Sink) (backend.Backend, error) {
	var (
		b   backend.Backend
		err error
	)
	switch kind {
	case backend.Primary:
		b = mpv.New(sink, e.cfg.MPV)
	case backend.Fallback:
		b, err = vlc.New(sink, e.cfg.VLC)
	default:
		return nil, fmt.Errorf("unknown backend kind %v", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", kind, err)
	}
	e.log.WithFields(logrus.Fields{"kind": kind, "id": b.ID().String()[:8]}).Debug("backend created")
	return b, nil
}

// Factory adapts Create to backend.Factory.
func (e *Engine) Factory() backend.Factory {
	return e.Create
}

// Probe is the result of looking for one backend's executable.
type Probe struct {
	Kind backend.Kind
	Path string
	Err  error
}

// Probe reports whether each backend's executable can be found.
func (e *Engine) Probe() []Probe {
	mpvPath := e.cfg.MPV.Path
	if mpvPath == "" {
		mpvPath = "mpv"
	}
	primary := Probe{Kind: backend.Primary}
	primary.Path, primary.Err = exec.LookPath(mpvPath)

	fallback := Probe{Kind: backend.Fallback}
	fallback.Path, fallback.Err = vlc.FindVLC(e.cfg.VLC.Path)

	return []Probe{primary, fallback}
}
