package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gopsplice/internal/config"
	"gopsplice/internal/deps"
	"gopsplice/internal/job"
	"gopsplice/internal/media/ffprobe"
	"gopsplice/internal/preflight"
	"gopsplice/internal/recovery"
	"gopsplice/internal/services"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var opts job.Options

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a clip, resuming from any parts left by an earlier attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.Stem = stemFor(opts.Stem, opts.Input)
			probeInput := opts.ProbeInput
			if probeInput == "" && cfg.Source.Kind == config.SourceFFmpeg {
				probeInput = opts.Input
			}
			if err := runPreflight(cmd.Context(), cfg, opts.Input, probeInput); err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			progress := newProgressLine(cmd.ErrOrStderr(), opts.Stem)
			opts.Progress = progress.update
			started := time.Now()
			res, err := job.New(cfg, logger, job.WithJournal(store)).Run(cmd.Context(), opts)
			progress.finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Output already exists: %s\n", res.Output)
				return nil
			}
			printEncodeSummary(out, res, time.Since(started))
			if summary := describeOutput(cmd.Context(), cfg, res.Output); summary != "" {
				fmt.Fprintf(out, "Stream:    %s\n", summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Clip read by the frame source (video file or vspipe script)")
	cmd.Flags().StringVar(&opts.ProbeInput, "probe-input", "", "Video file probed for scene cuts and frame count (defaults to --input)")
	cmd.Flags().StringVar(&opts.Stem, "stem", "", "Name for parts and output (defaults to the input base name)")
	cmd.Flags().IntVar(&opts.TotalFrames, "frames", 0, "Clip length in frames (probed when omitted)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// runPreflight fails fast on unusable directories, inputs or missing tools
// before any part is touched.
func runPreflight(ctx context.Context, cfg *config.Config, inputs ...string) error {
	results := preflight.RunAll(ctx, cfg)
	for _, input := range inputs {
		if strings.TrimSpace(input) != "" {
			results = append(results, preflight.CheckInputFile(input))
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
		}
		return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(details, "; "), nil)
	}
	if missing := deps.Missing(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Command))
		}
		return services.Wrap(services.ErrConfiguration, "preflight", "dependencies", "missing "+strings.Join(names, ", "), nil)
	}
	return nil
}

func printEncodeSummary(out io.Writer, res job.Result, elapsed time.Duration) {
	fmt.Fprintf(out, "Run:       %s\n", res.RunID)
	switch res.Decision.Kind {
	case recovery.Resume:
		fmt.Fprintf(out, "Decision:  resumed at frame %s from %d part(s)\n", frames(res.Decision.Offset), len(res.Decision.Parts))
	default:
		fmt.Fprintln(out, "Decision:  started from frame 0")
	}
	if n := len(res.Decision.Discarded); n > 0 {
		fmt.Fprintf(out, "Discarded: %d part(s)\n", n)
	}
	fmt.Fprintf(out, "Encoded:   %s of %s frames in %s\n", frames(res.FramesEncoded), frames(res.TotalFrames), elapsed.Round(time.Second))
	fmt.Fprintf(out, "Keyframes: %d planned (config %s)\n", len(res.Plan.Keyframes), valueOr(res.Plan.ConfigPath, "none"))
	fmt.Fprintf(out, "Output:    %s\n", res.Output)
}

// describeOutput summarizes the merged stream. Probe failures are not errors:
// the encode already succeeded.
func describeOutput(ctx context.Context, cfg *config.Config, path string) string {
	result, err := ffprobe.Inspect(ctx, cfg.Tools.FFprobe, path)
	if err != nil {
		return ""
	}
	video, ok := result.VideoStream()
	if !ok {
		return ""
	}
	parts := []string{video.CodecName}
	if video.Width > 0 && video.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", video.Width, video.Height))
	}
	if fps := video.FramesPerSecond(); fps > 0 {
		parts = append(parts, fmt.Sprintf("%.3f fps", fps))
	}
	if d := result.DurationSeconds(); d > 0 {
		parts = append(parts, (time.Duration(d * float64(time.Second))).Round(time.Second).String())
	}
	if size := result.SizeBytes(); size > 0 {
		parts = append(parts, numbers.Sprintf("%d bytes", size))
	}
	return strings.Join(parts, ", ")
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
