package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:   "gopsplice",
		Short: "Resumable GOP-aligned encodes",
		Long: "gopsplice places keyframes on scene cuts, encodes in numbered parts and,\n" +
			"after an interruption, resumes from the last complete GOP before merging\n" +
			"the parts with mkvmerge.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file (default ~/.config/gopsplice/config.toml)")

	root.AddCommand(
		newEncodeCommand(ctx),
		newPlanCommand(ctx),
		newPartsCommand(ctx),
		newMergeCommand(ctx),
		newHistoryCommand(ctx),
		newCheckCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
