package config

import (
	"time"

	"player-control/internal/media"
)

// Field is one configuration key with its default.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Defaults lists every key the player reads, in display order.
var Defaults = []Field{
	{"log.level", "info", "Log level: trace, debug, info, warn or error"},
	{"log.json", false, "Emit JSON log lines"},

	{"overlay.hide_delay", 3 * time.Second, "How long the overlay stays up after a touch or click"},
	{"gesture.feedback_delay", 500 * time.Millisecond, "How long slide feedback lingers after the finger lifts"},
	{"gesture.indicator_width", 200, "Full width of the volume/brightness indicator, in pixels"},

	{"player.aspect", "fill", "Initial aspect mode: none, fill, original, 4:3, 16:9 or 16:10"},
	{"player.deny_extensions", media.DefaultDenyExtensions, "Extensions always decoded by the fallback backend"},
	{"player.stream_markers", media.DefaultStreamMarkers, "URI fragments that mark live streams for the fallback backend"},
	{"player.watch", false, "Watch a playlist directory and apply changes while playing"},

	{"display.width", 1920, "Display width in pixels"},
	{"display.height", 1080, "Display height in pixels"},
	{"display.window", 0, "X11 window id to render into; 0 lets the backend open its own"},

	{"mpv.path", "mpv", "mpv executable"},
	{"mpv.hwdec", "auto-safe", "mpv --hwdec value"},
	{"mpv.args", []string{}, "Extra mpv arguments"},

	{"vlc.path", "", "VLC executable; discovered when empty"},
	{"vlc.args", []string{}, "Extra VLC arguments"},

	{"api.listen", "", "Address for the control API, e.g. 127.0.0.1:8089; disabled when empty"},

	{"system.mixer", "Master", "ALSA mixer control used for volume"},
	{"system.backlight_dir", "/sys/class/backlight", "sysfs backlight class directory"},
	{"system.power_supply_dir", "/sys/class/power_supply", "sysfs power supply class directory"},
	{"system.battery_interval", 30 * time.Second, "How often the battery level is polled"},
}
