package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"player-control/internal/config"
	"player-control/internal/console"
	"player-control/internal/engine"
	"player-control/internal/geometry"
	"player-control/internal/system"
)

func displaySize(cfg *config.Config) geometry.Size {
	return geometry.Size{Width: cfg.Display.Width, Height: cfg.Display.Height}
}

// checkCmd reports which backends can be launched and the device health.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check backends and system health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			probes := newEngine(cfg).Probe()
			rows := lo.Map(probes, func(p engine.Probe, _ int) [2]string {
				if p.Err != nil {
					return [2]string{p.Kind.String(), console.Fail(p.Err.Error())}
				}
				return [2]string{p.Kind.String(), console.OK(p.Path)}
			})
			fmt.Fprintln(out, console.Table("Backends", rows))

			h := system.Health{
				FS:             afero.NewOsFs(),
				PowerSupplyDir: cfg.System.PowerSupplyDir,
				BacklightDir:   cfg.System.BacklightDir,
				Mixer:          cfg.System.Mixer,
			}.Check()
			fmt.Fprintln(out, console.Table("System", [][2]string{
				{"CPU temperature", fmt.Sprintf("%.1f°C", h.CPUTempC)},
				{"Disk usage", fmt.Sprintf("%.1f%%", h.DiskUsedPct)},
				{"Disk free", fmt.Sprintf("%d MB", h.DiskFreeBytes/1024/1024)},
				{"Throttled", fmt.Sprintf("%v", h.Throttled)},
				{"Volume", orUnknown(h.Volume, "%d%%")},
				{"Brightness", orUnknownF(h.Brightness)},
				{"Battery", orUnknown(h.Battery, "%d%%")},
			}))

			if lo.EveryBy(probes, func(p engine.Probe) bool { return p.Err != nil }) {
				return fmt.Errorf("no playback backend available")
			}
			return nil
		},
	}
}

// configCmd lists every setting with its default and environment
// variable.
func configCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "List configuration keys and their defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := append([]config.Field(nil), config.Defaults...)
			sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(fields)
			}

			rows := lo.Map(fields, func(f config.Field, _ int) [2]string {
				return [2]string{f.Key, fmt.Sprintf("%v  (%s) %s", f.Value, config.Env(f.Key), f.Description)}
			})
			fmt.Fprintln(cmd.OutOrStdout(), console.Table("Configuration", rows))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print as JSON")
	return cmd
}

func orUnknown(v int, format string) string {
	if v < 0 {
		return "unknown"
	}
	return fmt.Sprintf(format, v)
}

func orUnknownF(v float64) string {
	if v < 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.0f%%", v*100)
}
