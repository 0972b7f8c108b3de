// Package playlist holds the ordered list of media URIs a playback session
// walks through, and the sources that produce it: explicit URIs, .m3u
// files and watched media directories.
package playlist

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrEmpty is returned for a playlist without any URI.
	ErrEmpty = errors.New("playlist is empty")
	// ErrIndexOutOfRange is returned when the selected index is not in the list.
	ErrIndexOutOfRange = errors.New("playlist index out of range")
)

// Entry is an ordered list of URIs with one of them selected.
// The zero Entry is invalid.
type Entry struct {
	uris  []string
	index int
}

// New validates uris and index and returns the entry.
func New(uris []string, index int) (Entry, error) {
	if len(uris) == 0 {
		return Entry{}, ErrEmpty
	}
	if index < 0 || index >= len(uris) {
		return Entry{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(uris))
	}
	return Entry{uris: slices.Clone(uris), index: index}, nil
}

// Single returns an entry holding one ad-hoc URI.
func Single(uri string) (Entry, error) {
	if uri == "" {
		return Entry{}, ErrEmpty
	}
	return New([]string{uri}, 0)
}

// Validate reports whether the entry satisfies its invariants.
func (e Entry) Validate() error {
	if len(e.uris) == 0 {
		return ErrEmpty
	}
	if e.index < 0 || e.index >= len(e.uris) {
		return ErrIndexOutOfRange
	}
	return nil
}

// Current returns the selected URI.
func (e Entry) Current() string {
	if e.Validate() != nil {
		return ""
	}
	return e.uris[e.index]
}

// Index returns the selected position.
func (e Entry) Index() int { return e.index }

// Len returns the number of URIs.
func (e Entry) Len() int { return len(e.uris) }

// URIs returns a copy of the list.
func (e Entry) URIs() []string { return slices.Clone(e.uris) }

// HasNext reports whether an item follows the selected one.
func (e Entry) HasNext() bool { return e.index+1 < len(e.uris) }

// HasPrevious reports whether an item precedes the selected one.
func (e Entry) HasPrevious() bool { return e.index > 0 && len(e.uris) > 0 }

// Next returns the entry with the following item selected.
func (e Entry) Next() (Entry, bool) {
	if !e.HasNext() {
		return e, false
	}
	return Entry{uris: e.uris, index: e.index + 1}, true
}

// Previous returns the entry with the preceding item selected.
func (e Entry) Previous() (Entry, bool) {
	if !e.HasPrevious() {
		return e, false
	}
	return Entry{uris: e.uris, index: e.index - 1}, true
}

// Replace swaps in a new list, keeping the current URI selected when it is
// still present and clamping the index otherwise.
func (e Entry) Replace(uris []string) (Entry, error) {
	if len(uris) == 0 {
		return e, ErrEmpty
	}
	cur := e.Current()
	if i := slices.Index(uris, cur); i >= 0 {
		return New(uris, i)
	}
	return New(uris, min(max(e.index, 0), len(uris)-1))
}
