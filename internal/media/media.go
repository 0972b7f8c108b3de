// Package media classifies media locations: which local files are worth
// queueing, and which backend should decode a given URI.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Type is the kind of content behind a location, judged by extension.
type Type int

const (
	Unknown Type = iota
	Video
	Audio
)

func (t Type) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return "unknown"
	}
}

var extTypes = map[string]Type{
	".3gp": Video, ".avi": Video, ".flv": Video, ".hevc": Video,
	".hlv": Video, ".m4v": Video, ".mkv": Video, ".mov": Video,
	".mp4": Video, ".mpg": Video, ".rm": Video, ".rmvb": Video,
	".ts": Video, ".webm": Video, ".wmv": Video,

	".aac": Audio, ".flac": Audio, ".m4a": Audio,
	".mp3": Audio, ".ogg": Audio, ".wav": Audio,
}

// Detect classifies a local path or URI by its extension. Query strings
// and fragments of remote URIs are ignored.
func Detect(location string) Type {
	p := location
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	return extTypes[strings.ToLower(path.Ext(p))]
}

// IsSupported reports whether location has a known audio or video
// extension.
func IsSupported(location string) bool {
	return Detect(location) != Unknown
}

// IsRemote reports whether uri names a network location rather than a
// local path.
func IsRemote(uri string) bool {
	scheme, _, ok := strings.Cut(uri, "://")
	return ok && scheme != "" && !strings.EqualFold(scheme, "file")
}
