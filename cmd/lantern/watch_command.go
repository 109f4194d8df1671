package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"lantern/internal/logging"
	"lantern/internal/record"
	"lantern/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var prefix string
	var pattern string
	var filterMode string
	var since time.Duration
	var wait bool
	var recordFlag bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "watch <deployment-id>",
		Short: "Stream the merged log feed for a deployment until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := watchOptions{
				deploymentID: strings.TrimSpace(args[0]),
				prefix:       prefix,
				pattern:      pattern,
				filterMode:   filterMode,
				since:        since,
				wait:         wait,
				record:       recordFlag,
				jsonOut:      jsonOut,
			}
			return runWatch(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Log group prefix to watch")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Regular expression applied to group names")
	cmd.Flags().StringVar(&filterMode, "filter-mode", "", "How prefix and pattern combine: intersect or pattern")
	cmd.Flags().DurationVar(&since, "since", 0, "Include events this far in the past on the first fetch (e.g. 10m)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for a pending deployment to start before watching")
	cmd.Flags().BoolVar(&recordFlag, "record", false, "Archive the feed to a local record file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit events as JSON lines instead of formatted text")

	return cmd
}

type watchOptions struct {
	deploymentID string
	prefix       string
	pattern      string
	filterMode   string
	since        time.Duration
	wait         bool
	record       bool
	jsonOut      bool
}

func runWatch(cmd *cobra.Command, ctx *commandContext, opts watchOptions) error {
	if opts.deploymentID == "" {
		return fmt.Errorf("a deployment id is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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
	if strings.TrimSpace(opts.filterMode) != "" {
		mode = strings.TrimSpace(opts.filterMode)
	}
	resolver, err := watch.NewResolver(client, opts.prefix, opts.pattern, mode, logger)
	if err != nil {
		return err
	}

	lookback := cfg.Lookback()
	if opts.since > 0 {
		lookback = opts.since
	}
	if limit := time.Duration(cfg.Watch.MaxLookbackSeconds) * time.Second; limit > 0 && lookback > limit {
		logger.Warn("requested look-back exceeds the configured maximum; clamping",
			logging.Duration("requested", lookback),
			logging.Duration("max", limit),
		)
		lookback = limit
	}

	out := cmd.OutOrStdout()
	var feed watch.Sink
	var line *watch.LineSink
	if opts.jsonOut {
		feed = newJSONEventSink(out, opts.deploymentID)
	} else {
		line = watch.NewLineSink(out, opts.deploymentID, colorEnabled(out))
		feed = line
	}

	sinks := watch.MultiSink{feed}
	var store *record.Store
	if opts.record || cfg.Record.Enabled {
		runID := uuid.New().String()[:8]
		store, err = record.Open(cfg.Record.Dir, opts.deploymentID, runID, logger)
		if err != nil {
			return fmt.Errorf("open record archive: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	scheduler := watch.NewScheduler(opts.deploymentID, client, resolver, client, sinks, watch.SchedulerConfig{
		PollInterval:     cfg.PollInterval(),
		DiscoveryEvery:   cfg.Watch.DiscoveryEvery,
		FetchTimeout:     cfg.FetchTimeout(),
		DiscoveryTimeout: cfg.FetchTimeout(),
		WaitForStart:     opts.wait,
		StartTimeout:     cfg.StartTimeout(),
		Tailer: watch.TailerConfig{
			FetchLimit:  cfg.Watch.FetchLimit,
			Lookback:    lookback,
			BackoffBase: cfg.BackoffBase(),
			BackoffCap:  cfg.BackoffCap(),
			MaxFailures: cfg.Watch.MaxFailures,
		},
	}, logger)

	result, runErr := scheduler.Run(signalCtx)
	if line != nil {
		if err := line.Flush(); err != nil {
			return fmt.Errorf("flush feed: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printWatchSummary(cmd.ErrOrStderr(), opts.deploymentID, result, store)
	if !result.Succeeded() {
		return fmt.Errorf("deployment %s ended with status %s", opts.deploymentID, result.Status)
	}
	return nil
}

func printWatchSummary(w io.Writer, deploymentID string, result watch.Result, store *record.Store) {
	fmt.Fprintf(w, "\nDeployment %s finished: status=%s events=%d rounds=%d\n",
		deploymentID, result.Status, result.Emitted, result.Rounds)
	if len(result.Groups) > 0 {
		rows := make([][]string, 0, len(result.Groups))
		for _, group := range result.Groups {
			rows = append(rows, []string{group.Name, group.MatchedBy})
		}
		fmt.Fprintln(w, renderTable([]string{"Group", "Matched By"}, rows, nil))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped after repeated failures: %s\n", strings.Join(result.Skipped, ", "))
	}
	if store != nil {
		fmt.Fprintf(w, "Recorded feed: %s\n", store.Path())
	}
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
