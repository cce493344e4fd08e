package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gopsplice/internal/job"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var stem string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the parts on disk into the final output without encoding",
		Long: "Joins every part of a stem, trimming each earlier part at its last keyframe.\n" +
			"Use this when an encode finished its last part but the merge step failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			res, err := job.New(cfg, logger).Merge(cmd.Context(), stem)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d part(s) into %s\n", len(res.Decision.Parts)+1, res.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&stem, "stem", "", "Stem whose parts to merge")
	_ = cmd.MarkFlagRequired("stem")
	return cmd
}
