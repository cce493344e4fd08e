package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var stem, format string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded encode attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			attempts, err := store.List(cmd.Context(), strings.TrimSpace(stem), limit)
			if err != nil {
				return err
			}
			switch format {
			case formatJSON:
				return writeJSON(cmd, attempts)
			case formatYAML:
				return writeYAML(cmd, attempts)
			}

			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No attempts recorded")
				return nil
			}
			rows := make([][]string, 0, len(attempts))
			for _, a := range attempts {
				rows = append(rows, []string{
					strconv.FormatInt(a.ID, 10),
					a.StartedAt.Local().Format("2006-01-02 15:04:05"),
					a.Stem,
					a.Decision,
					frames(a.ResumeFrame),
					fmt.Sprintf("%03d", a.PartOrdinal),
					frames(a.FramesEncoded),
					string(a.Outcome),
					truncate(a.ErrorMessage, 60),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{"ID", alignRight},
				{"Started", alignLeft},
				{"Stem", alignLeft},
				{"Decision", alignLeft},
				{"Resume", alignRight},
				{"Part", alignRight},
				{"Encoded", alignRight},
				{"Outcome", alignLeft},
				{"Error", alignLeft},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&stem, "stem", "", "Only show attempts for this stem")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum attempts to show (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
