package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gopsplice/internal/job"
	"gopsplice/internal/media/ffprobe"
	"gopsplice/internal/services"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var input, stem, format string
	var total, start int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Align keyframes for a clip and write the encoder keyframe config",
		Long: "Probes scene cuts (or reuses the cached hints), aligns keyframes for frames\n" +
			"[start, frames) and writes the keyframe config an encode would use. Nothing is encoded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			stem = stemFor(stem, input)
			if stem == "" || stem == "." {
				return services.Wrap(services.ErrValidation, "cli", "plan", "--stem or --input is required", nil)
			}
			if total <= 0 {
				if input == "" {
					return services.Wrap(services.ErrValidation, "cli", "plan", "--frames is required without --input", nil)
				}
				total, err = ffprobe.FrameCount(cmd.Context(), cfg.Tools.FFprobe, input)
				if err != nil {
					return services.Wrap(services.ErrProbe, "cli", "count frames", input, err)
				}
			}

			plan, err := job.NewPlanner(cfg, job.SceneSource(cfg, input), logger).Plan(cmd.Context(), stem, start, total)
			if err != nil {
				return err
			}
			switch format {
			case formatJSON:
				return writeJSON(cmd, plan)
			case formatYAML:
				return writeYAML(cmd, plan)
			}
			return printPlan(cmd, plan)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Video file probed for scene cuts")
	cmd.Flags().StringVar(&stem, "stem", "", "Name for cache and config files (defaults to the input base name)")
	cmd.Flags().IntVar(&total, "frames", 0, "Clip length in frames (probed when omitted)")
	cmd.Flags().IntVar(&start, "start", 0, "First frame of the planned range")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}

func printPlan(cmd *cobra.Command, plan job.Plan) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Frames %s-%s of %s (hints: %d, cache hit: %s)\n",
		frames(plan.Start), frames(plan.Total-1), frames(plan.Total), len(plan.Hints), yesNo(plan.HintCacheHit))
	if len(plan.Decisions) == 0 {
		fmt.Fprintln(out, "Scene detection disabled; the encoder places keyframes")
		return nil
	}
	rows := make([][]string, 0, len(plan.Decisions))
	for i, d := range plan.Decisions {
		gap := plan.Total - plan.Start - d.Frame
		if i+1 < len(plan.Decisions) {
			gap = plan.Decisions[i+1].Frame - d.Frame
		}
		structure := ""
		if d.Structure > 0 {
			structure = strconv.Itoa(d.Structure)
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Frame),
			strconv.Itoa(plan.Start + d.Frame),
			strconv.Itoa(gap),
			string(d.Source),
			structure,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{"Frame", alignRight},
		{"Absolute", alignRight},
		{"Length", alignRight},
		{"Source", alignLeft},
		{"Structure", alignRight},
	}, rows))
	if plan.ConfigPath != "" {
		state := "reused"
		if plan.ConfigWritten {
			state = "written"
		}
		fmt.Fprintf(out, "Keyframe config %s: %s\n", state, plan.ConfigPath)
	}
	return nil
}
