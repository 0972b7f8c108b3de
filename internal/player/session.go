package player

import (
	"github.com/google/uuid"

	"player-control/internal/backend"
	"player-control/internal/geometry"
	"player-control/internal/playlist"
)

// Session is one playback attempt for one playlist position. It owns at
// most one live backend at a time.
type Session struct {
	ID     uuid.UUID
	Entry  playlist.Entry
	State  State
	Aspect geometry.AspectMode

	// PositionMs and DurationMs are -1 until the backend reports them.
	PositionMs int
	DurationMs int
	Seekable   bool

	Kind         backend.Kind
	FallbackUsed bool
	Loaded       bool
	Started      bool

	Target geometry.Size

	backend backend.Backend
}

func newSession(entry playlist.Entry, aspect geometry.AspectMode) *Session {
	s := &Session{
		ID:     uuid.New(),
		Entry:  entry,
		State:  Idle,
		Aspect: aspect,
	}
	s.resetPlayback()
	return s
}

// resetPlayback forgets everything learned from the previous backend.
func (s *Session) resetPlayback() {
	s.PositionMs = -1
	s.DurationMs = -1
	s.Seekable = true
	s.Loaded = false
	s.Started = false
}

// Status is a copy of the session safe to hand to other goroutines.
type Status struct {
	Session      string        `json:"session,omitempty"`
	State        State         `json:"state"`
	URI          string        `json:"uri,omitempty"`
	Index        int           `json:"index"`
	Count        int           `json:"count"`
	Backend      string        `json:"backend,omitempty"`
	BackendID    string        `json:"backend_id,omitempty"`
	FallbackUsed bool          `json:"fallback_used"`
	Aspect       string        `json:"aspect"`
	PositionMs   int           `json:"position_ms"`
	DurationMs   int           `json:"duration_ms"`
	Seekable     bool          `json:"seekable"`
	Target       geometry.Size `json:"target"`
	LastOutcome  string        `json:"last_outcome,omitempty"`
}

func (s *Session) status() Status {
	st := Status{
		Session:      s.ID.String(),
		State:        s.State,
		URI:          s.Entry.Current(),
		Index:        s.Entry.Index(),
		Count:        s.Entry.Len(),
		FallbackUsed: s.FallbackUsed,
		Aspect:       s.Aspect.String(),
		PositionMs:   s.PositionMs,
		DurationMs:   s.DurationMs,
		Seekable:     s.Seekable,
		Target:       s.Target,
	}
	if s.backend != nil {
		st.Backend = s.Kind.String()
		st.BackendID = s.backend.ID().String()
	}
	return st
}
