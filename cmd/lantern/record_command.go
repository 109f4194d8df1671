package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lantern/internal/record"
)

func newRecordCommand() *cobra.Command {
	recordCmd := &cobra.Command{
		Use:         "record",
		Short:       "Inspect recorded feed archives",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	recordCmd.AddCommand(newRecordSummaryCommand())

	return recordCmd
}

func newRecordSummaryCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "summary <record-file>",
		Short: "Show per-group event counts and time ranges for an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := record.OpenForReading(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, summaries)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "Archive contains no events")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rows = append(rows, []string{
					summary.Group,
					strconv.FormatInt(summary.Count, 10),
					summary.First.UTC().Format("2006-01-02 15:04:05"),
					summary.Last.UTC().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Group", "Events", "First", "Last"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")
	return cmd
}
