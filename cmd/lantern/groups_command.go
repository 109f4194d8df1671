package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lantern/internal/watch"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var prefix string
	var pattern string
	var filterMode string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the log groups a prefix or pattern resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.newClient()
			if err != nil {
				return err
			}

			mode := cfg.Watch.FilterMode
			if strings.TrimSpace(filterMode) != "" {
				mode = strings.TrimSpace(filterMode)
			}
			resolver, err := watch.NewResolver(client, prefix, pattern, mode, logger)
			if err != nil {
				return err
			}

			groups, err := resolver.Resolve(cmd.Context())
			if err != nil {
				return fmt.Errorf("resolve groups: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, groups)
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No matching log groups")
				return nil
			}
			rows := make([][]string, 0, len(groups))
			for _, group := range groups {
				rows = append(rows, []string{group.Name, group.MatchedBy})
			}
			fmt.Fprintln(out, renderTable([]string{"Group", "Matched By"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Log group prefix to resolve")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Regular expression applied to group names")
	cmd.Flags().StringVar(&filterMode, "filter-mode", "", "How prefix and pattern combine: intersect or pattern")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the group list as JSON")

	return cmd
}
