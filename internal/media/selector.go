package media

import (
	"strings"

	"github.com/samber/lo"

	"player-control/internal/backend"
)

// DefaultDenyExtensions are the containers the Primary decoder is known to
// mishandle.
var DefaultDenyExtensions = []string{".flv", ".hlv", ".m3u8", ".mkv", ".rm", ".rmvb", ".ts"}

// DefaultStreamMarkers are URI fragments for live streams (mms radio, plain
// http live) that always go to the Fallback decoder.
var DefaultStreamMarkers = []string{"mms://", "http://"}

// Selector decides which backend decodes a URI.
type Selector struct {
	DenyExtensions []string
	StreamMarkers  []string
}

// NewSelector returns a Selector with normalised (lowercase, dotted)
// extensions. Empty lists fall back to the defaults.
func NewSelector(denyExts, streamMarkers []string) *Selector {
	if len(denyExts) == 0 {
		denyExts = DefaultDenyExtensions
	}
	if len(streamMarkers) == 0 {
		streamMarkers = DefaultStreamMarkers
	}
	exts := lo.Map(denyExts, func(e string, _ int) string {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		return e
	})
	return &Selector{DenyExtensions: lo.Uniq(exts), StreamMarkers: streamMarkers}
}

var defaultSelector = NewSelector(nil, nil)

// Select picks the backend for uri using the default lists.
func Select(uri string, forceFallback bool) backend.Kind {
	return defaultSelector.Select(uri, forceFallback)
}

// Select picks the backend for uri. forceFallback is set once Primary has
// already failed for this URI; it always wins. A URI without any '.' has
// no extension and stays on Primary.
func (s *Selector) Select(uri string, forceFallback bool) backend.Kind {
	if forceFallback {
		return backend.Fallback
	}

	dot := strings.LastIndexByte(uri, '.')
	if dot == -1 {
		return backend.Primary
	}

	ext := strings.ToLower(uri[dot:])
	if lo.Contains(s.DenyExtensions, ext) {
		return backend.Fallback
	}
	if lo.SomeBy(s.StreamMarkers, func(m string) bool { return strings.Contains(uri, m) }) {
		return backend.Fallback
	}
	return backend.Primary
}
