package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"gopsplice/internal/logging"
	"gopsplice/internal/recovery"
	"gopsplice/internal/services"
)

type partView struct {
	Ordinal      int    `json:"ordinal" yaml:"ordinal"`
	Path         string `json:"path" yaml:"path"`
	Frames       int    `json:"frames" yaml:"frames"`
	LastKeyframe int    `json:"last_keyframe" yaml:"last_keyframe"`
	Usable       bool   `json:"usable" yaml:"usable"`
	Reason       string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type partsView struct {
	Stem        string     `json:"stem" yaml:"stem"`
	Parts       []partView `json:"parts" yaml:"parts"`
	ResumeFrame int        `json:"resume_frame" yaml:"resume_frame"`
	NextPart    int        `json:"next_part" yaml:"next_part"`
}

func newPartsCommand(ctx *commandContext) *cobra.Command {
	var stem, format string

	cmd := &cobra.Command{
		Use:   "parts",
		Short: "Show the parts on disk for a stem and where the next attempt would resume",
		Long:  "Validates every part like an encode would, but never deletes anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if stem == "" {
				return services.Wrap(services.ErrValidation, "cli", "parts", "--stem is required", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			parts, err := recovery.Discover(cfg.Paths.WorkDir, stem, cfg.PartExtension())
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "cli", "discover parts", cfg.Paths.WorkDir, err)
			}
			manager := recovery.NewManager(recovery.NewProber(cfg), logging.NewNop())
			valid, discarded, err := manager.Inspect(cmd.Context(), parts)
			if err != nil {
				return err
			}

			view := partsView{Stem: stem, ResumeFrame: recovery.ComputeResumePoint(valid), NextPart: len(valid), Parts: []partView{}}
			for _, p := range valid {
				view.Parts = append(view.Parts, partView{Ordinal: p.Ordinal, Path: p.Path, Frames: p.Frames, LastKeyframe: p.LastKeyframe, Usable: true})
			}
			for _, d := range discarded {
				view.Parts = append(view.Parts, partView{Ordinal: d.Part.Ordinal, Path: d.Part.Path, Reason: d.Reason})
			}

			switch format {
			case formatJSON:
				return writeJSON(cmd, view)
			case formatYAML:
				return writeYAML(cmd, view)
			}
			out := cmd.OutOrStdout()
			if len(view.Parts) == 0 {
				fmt.Fprintf(out, "No parts found for %s in %s\n", stem, cfg.Paths.WorkDir)
				return nil
			}
			rows := make([][]string, 0, len(view.Parts))
			for _, p := range view.Parts {
				status := "usable"
				framesCol, keyCol := frames(p.Frames), frames(p.LastKeyframe)
				if !p.Usable {
					status = "discard: " + p.Reason
					framesCol, keyCol = "-", "-"
				}
				rows = append(rows, []string{fmt.Sprintf("%03d", p.Ordinal), filepath.Base(p.Path), framesCol, keyCol, status})
			}
			fmt.Fprintln(out, renderTable([]column{
				{"Part", alignRight},
				{"File", alignLeft},
				{"Frames", alignRight},
				{"Last keyframe", alignRight},
				{"Status", alignLeft},
			}, rows))
			fmt.Fprintf(out, "Next attempt resumes at frame %s as part %s\n", frames(view.ResumeFrame), strconv.Itoa(view.NextPart))
			return nil
		},
	}

	cmd.Flags().StringVar(&stem, "stem", "", "Stem whose parts to inspect")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}
