// Package config loads player settings from defaults, an optional TOML
// file and PLAYER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"player-control/internal/geometry"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "PLAYER"

// EnvKeyReplacer maps config keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config is the decoded configuration.
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`

	Overlay struct {
		HideDelay time.Duration `mapstructure:"hide_delay"`
	} `mapstructure:"overlay"`

	Gesture struct {
		FeedbackDelay  time.Duration `mapstructure:"feedback_delay"`
		IndicatorWidth int           `mapstructure:"indicator_width"`
	} `mapstructure:"gesture"`

	Player struct {
		Aspect         string   `mapstructure:"aspect"`
		DenyExtensions []string `mapstructure:"deny_extensions"`
		StreamMarkers  []string `mapstructure:"stream_markers"`
		Watch          bool     `mapstructure:"watch"`
	} `mapstructure:"player"`

	Display struct {
		Width  int    `mapstructure:"width"`
		Height int    `mapstructure:"height"`
		Window uint32 `mapstructure:"window"`
	} `mapstructure:"display"`

	MPV struct {
		Path  string   `mapstructure:"path"`
		HWDec string   `mapstructure:"hwdec"`
		Args  []string `mapstructure:"args"`
	} `mapstructure:"mpv"`

	VLC struct {
		Path string   `mapstructure:"path"`
		Args []string `mapstructure:"args"`
	} `mapstructure:"vlc"`

	API struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"api"`

	System struct {
		Mixer           string        `mapstructure:"mixer"`
		BacklightDir    string        `mapstructure:"backlight_dir"`
		PowerSupplyDir  string        `mapstructure:"power_supply_dir"`
		BatteryInterval time.Duration `mapstructure:"battery_interval"`
	} `mapstructure:"system"`
}

// New returns a viper instance with defaults and environment bindings
// in place, reading files through fs.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()
	v.SetTypeByDefaultValue(true)
	for _, f := range Defaults {
		v.SetDefault(f.Key, f.Value)
	}
	return v
}

// Load reads the config file at path, if any, and decodes the result.
// A missing file is only an error when path was given explicitly.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := New(fs)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the player cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := geometry.ParseAspectMode(c.Player.Aspect); err != nil {
		errs = append(errs, fmt.Errorf("player.aspect: %w", err))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display: %dx%d is not a usable size", c.Display.Width, c.Display.Height))
	}
	if c.Overlay.HideDelay <= 0 {
		errs = append(errs, errors.New("overlay.hide_delay must be positive"))
	}
	if c.Gesture.FeedbackDelay <= 0 {
		errs = append(errs, errors.New("gesture.feedback_delay must be positive"))
	}
	if c.Gesture.IndicatorWidth <= 0 {
		errs = append(errs, errors.New("gesture.indicator_width must be positive"))
	}
	if c.System.BatteryInterval <= 0 {
		errs = append(errs, errors.New("system.battery_interval must be positive"))
	}
	return errors.Join(errs...)
}

// Aspect returns the configured initial aspect mode.
func (c *Config) Aspect() geometry.AspectMode {
	m, err := geometry.ParseAspectMode(c.Player.Aspect)
	if err != nil {
		return geometry.Fill
	}
	return m
}

// Env returns the environment variable that overrides key.
func Env(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(EnvKeyReplacer.Replace(key))
}
