// player plays a video or a playlist fullscreen, preferring mpv with
// hardware decoding and falling back to VLC when mpv cannot play an item.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"player-control/internal/api"
	"player-control/internal/backend"
	"player-control/internal/backend/mpv"
	"player-control/internal/backend/vlc"
	"player-control/internal/config"
	"player-control/internal/console"
	"player-control/internal/engine"
	"player-control/internal/gesture"
	"player-control/internal/log"
	"player-control/internal/media"
	"player-control/internal/player"
	"player-control/internal/playlist"
	"player-control/internal/system"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "player",
		Short:        "Fullscreen video player with mpv and VLC backends",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(afero.NewOsFs(), path)
	if err != nil {
		return nil, err
	}
	log.Setup(log.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	return cfg, nil
}

func newEngine(cfg *config.Config) *engine.Engine {
	return engine.New(engine.Config{
		MPV: mpv.Options{
			Path:      cfg.MPV.Path,
			HWDec:     cfg.MPV.HWDec,
			ExtraArgs: cfg.MPV.Args,
		},
		VLC: vlc.Options{
			Path:      cfg.VLC.Path,
			ExtraArgs: cfg.VLC.Args,
			Display:   displaySize(cfg),
		},
	})
}

// runCmd plays the given files, directory, playlist or URLs.
func runCmd() *cobra.Command {
	var (
		start      int
		noPrompt   bool
		exitAtEnd  bool
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "run <file|dir|playlist.m3u|url>...",
		Short: "Play media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.API.Listen = listenAddr
			}
			l := log.For("main")
			l.WithField("version", version).WithField("built", buildTime).Info("starting")

			fs := afero.NewOsFs()
			uris, err := playlist.Resolve(fs, args)
			if err != nil {
				return fmt.Errorf("playlist: %w", err)
			}
			entry, err := playlist.New(uris, start)
			if err != nil {
				return fmt.Errorf("playlist: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var o *player.Orchestrator
			out := console.New(cmd.OutOrStdout(), console.Options{
				IndicatorWidth: cfg.Gesture.IndicatorWidth,
				OnOutcome: func(player.Outcome) {
					_ = o.Post(func() {
						err := o.Next()
						switch {
						case err == nil:
						case errors.Is(err, player.ErrEndOfPlaylist):
							l.Info("end of playlist")
							if exitAtEnd {
								cancel()
							}
						default:
							l.WithError(err).Warn("advance failed")
						}
					})
				},
			})

			volume, brightness := controls(cfg, fs)
			o, err = player.New(player.Options{
				Factory:        newEngine(cfg).Factory(),
				Selector:       media.NewSelector(cfg.Player.DenyExtensions, cfg.Player.StreamMarkers),
				Presenter:      out,
				Volume:         volume,
				Brightness:     brightness,
				Display:        displaySize(cfg),
				Aspect:         mo.Some(cfg.Aspect()),
				OverlayDelay:   cfg.Overlay.HideDelay,
				FeedbackDelay:  cfg.Gesture.FeedbackDelay,
				IndicatorWidth: cfg.Gesture.IndicatorWidth,
			})
			if err != nil {
				return err
			}

			_ = o.Post(func() {
				o.SurfaceAvailable(backend.Surface{WindowID: cfg.Display.Window})
				if err := o.Open(entry); err != nil {
					l.WithError(err).Error("open failed")
				}
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return o.Run(gctx) })

			if cfg.Player.Watch && len(args) == 1 {
				if isDir, _ := afero.IsDir(fs, args[0]); isDir {
					w, err := playlist.NewWatcher(fs, args[0], func(files []string) {
						_ = o.Post(func() {
							if err := o.UpdatePlaylist(files); err != nil {
								l.WithError(err).Warn("playlist update rejected")
							}
						})
					})
					if err != nil {
						return fmt.Errorf("watcher: %w", err)
					}
					g.Go(func() error { return w.Run(gctx) })
				}
			}

			if cfg.API.Listen != "" {
				srv := api.New(o, version)
				g.Go(func() error { return srv.ListenAndServe(gctx, cfg.API.Listen) })
			}

			if cfg.System.PowerSupplyDir != "" {
				g.Go(func() error {
					err := system.WatchBattery(gctx, fs, cfg.System.PowerSupplyDir, cfg.System.BatteryInterval, func(level int) {
						_ = o.Post(func() { o.BatteryChanged(level) })
					})
					if errors.Is(err, system.ErrNoBattery) {
						l.Debug("no battery, indicator disabled")
						return nil
					}
					return err
				})
			}

			if !noPrompt && console.Interactive() {
				g.Go(func() error {
					defer cancel()
					return console.NewPrompt(o, nil, cmd.OutOrStdout()).Run(gctx)
				})
			}

			err = g.Wait()
			l.Info("shutdown complete")
			return err
		},
	}

	cmd.Flags().IntVarP(&start, "start", "s", 0, "Index of the first playlist item")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not read intents from the terminal")
	cmd.Flags().BoolVar(&exitAtEnd, "exit-at-end", false, "Exit after the last item ends")
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Serve the control API on this address (overrides api.listen)")

	return cmd
}

// controls returns the hardware volume and brightness controls, or
// in-memory stand-ins where the hardware is not available.
func controls(cfg *config.Config, fs afero.Fs) (gesture.Volume, gesture.Brightness) {
	l := log.For("main")

	var volume gesture.Volume = system.NewSoftVolume(system.DefaultVolumeSteps, system.DefaultVolumeSteps)
	m := system.NewMixer(cfg.System.Mixer, system.ExecRunner)
	if err := m.Probe(); err == nil {
		volume = m
	} else {
		l.WithError(err).Warn("mixer unavailable, volume is simulated")
	}

	var brightness gesture.Brightness = system.NewSoftBrightness()
	if b, err := system.NewBacklight(fs, cfg.System.BacklightDir); err == nil {
		brightness = b
	} else {
		l.WithError(err).Debug("no backlight, brightness is simulated")
	}
	return volume, brightness
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "player %s\nBuilt: %s\n", version, buildTime)
		},
	}
}
