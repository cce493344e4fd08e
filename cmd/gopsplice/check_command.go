package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gopsplice/internal/config"
	"gopsplice/internal/deps"
	"gopsplice/internal/preflight"
	"gopsplice/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check directories, external tools and their versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			configLine := ctx.configLoc.Path
			if !ctx.configLoc.Exists {
				configLine += " (not found; defaults in use)"
			}
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, renderStatusLine("Config", statusInfo, configLine, colorize))
			lines = append(lines, renderStatusLine("Encoder", statusInfo, fmt.Sprintf("%s (keyframes: %s, parts: .%s)", cfg.Encoder.Kind, cfg.KeyframeFormat(), cfg.PartExtension()), colorize))
			lines = append(lines, renderStatusLine("Scene detection", statusInfo, yesNo(cfg.Scene.Enabled), colorize))

			results := preflight.RunAll(cmd.Context(), cfg)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, preflightLines(results, colorize)...)

			statuses := preflight.CheckSystemDeps(cfg)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Tools", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)

			versions := toolVersions(cmd, cfg, statuses)
			if len(versions) > 0 {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Versions", colorize)...)
				lines = append(lines, preflightLines(versions, colorize)...)
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			failed := len(preflight.Failed(results)) + len(deps.Missing(statuses)) + len(preflight.Failed(versions))
			if failed > 0 {
				return services.Wrap(services.ErrConfiguration, "check", "", fmt.Sprintf("%d check(s) failed", failed), nil)
			}
			return nil
		},
	}
}

// toolVersions asks the available tools that print a version banner.
func toolVersions(cmd *cobra.Command, cfg *config.Config, statuses []deps.Status) []preflight.Result {
	flags := map[string][]string{
		cfg.Tools.MKVMerge: {"--version"},
		cfg.Tools.FFmpeg:   {"-version"},
	}
	var results []preflight.Result
	for _, s := range statuses {
		args, ok := flags[s.Command]
		if !ok || !s.Available {
			continue
		}
		results = append(results, preflight.CheckToolVersion(cmd.Context(), s.Name, s.Resolved, args...))
	}
	return results
}
