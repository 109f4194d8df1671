package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lantern/internal/deployapi"
	"lantern/internal/logging"
)

// TailerConfig bounds a tailer's fetches and retry behavior.
type TailerConfig struct {
	FetchLimit  int
	Lookback    time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxFailures int
}

// Tailer maintains the read position for a single log group and fetches
// only newly appended events. The tailer is the sole writer of its cursor;
// the cursor advances only after a successful fetch and never moves
// backward. All failure handling is scoped to the tailer: transient errors
// back off without touching other groups, and repeated failure promotes
// the tailer to permanently skipped while the watch continues.
type Tailer struct {
	group   string
	fetcher deployapi.EventFetcher
	cfg     TailerConfig
	logger  *slog.Logger

	cursor      Cursor
	start       time.Time
	seqFallback int64

	failures    int
	nextAttempt time.Time
	skipped     bool
	missingSeen bool
}

// NewTailer builds a tailer whose first fetch starts at now minus the
// configured look-back (live tail when the look-back is zero).
func NewTailer(fetcher deployapi.EventFetcher, group string, cfg TailerConfig, logger *slog.Logger, now time.Time) *Tailer {
	start := now
	if cfg.Lookback > 0 {
		start = now.Add(-cfg.Lookback)
	}
	return &Tailer{
		group:   group,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "tailer").With(logging.String(logging.FieldGroup, group)),
		start:   start,
	}
}

// Group returns the log group this tailer reads.
func (t *Tailer) Group() string { return t.group }

// Cursor returns the current read position.
func (t *Tailer) Cursor() Cursor { return t.cursor }

// Skipped reports whether the tailer gave up after too many consecutive
// failures.
func (t *Tailer) Skipped() bool { return t.skipped }

// EndBackoff clears any pending retry delay so the next FetchRound
// attempts a fetch immediately. The drain round uses this: a group that
// was backing off when the deployment finished still gets its final
// fetch. Skipped tailers stay skipped.
func (t *Tailer) EndBackoff() {
	t.nextAttempt = time.Time{}
}

// FetchRound fetches the events appended since the last successful fetch.
// It returns nil when the tailer is skipped, still backing off, or the
// round produced nothing; errors are classified and absorbed here so one
// group's trouble never propagates to the rest of the watch. Only context
// cancellation is returned to the caller.
func (t *Tailer) FetchRound(ctx context.Context, now time.Time) ([]Event, error) {
	if t.skipped {
		return nil, nil
	}
	if now.Before(t.nextAttempt) {
		return nil, nil
	}

	opts := deployapi.FetchOptions{
		Cursor: t.cursor.Token,
		Limit:  t.cfg.FetchLimit,
	}
	if opts.Cursor == "" {
		opts.From = t.start
	}

	batch, err := t.fetcher.FetchEvents(ctx, t.group, opts)
	if err != nil && errors.Is(err, deployapi.ErrExpiredCursor) {
		batch, err = t.rescan(ctx)
	}
	if err != nil {
		return nil, t.handleFetchError(ctx, now, err)
	}

	t.failures = 0
	t.nextAttempt = time.Time{}
	return t.advance(batch), nil
}

// rescan recovers from an invalidated continuation token by re-reading
// from the last emitted timestamp. Already-emitted events may come back
// and are dropped in advance; events at exactly the cursor timestamp are
// re-delivered rather than risk losing a distinct line (documented
// at-least-once behavior).
func (t *Tailer) rescan(ctx context.Context) (deployapi.Batch, error) {
	from := t.start
	if t.cursor.LastTimestamp > 0 {
		from = time.UnixMilli(t.cursor.LastTimestamp)
	}
	t.logger.Warn("continuation token expired, re-scanning from last emitted timestamp",
		logging.String(logging.FieldEventType, "cursor_rescan"),
		logging.String("from", from.UTC().Format(time.RFC3339)),
	)
	return t.fetcher.FetchEvents(ctx, t.group, deployapi.FetchOptions{
		From:  from,
		Limit: t.cfg.FetchLimit,
	})
}

func (t *Tailer) handleFetchError(ctx context.Context, now time.Time, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, deployapi.ErrGroupNotFound) {
		if !t.missingSeen {
			t.logger.Warn("log group not found, keeping tailer alive",
				logging.String(logging.FieldEventType, "group_missing"),
				logging.String(logging.FieldErrorHint, "the group may appear once the deployment writes to it"),
			)
			t.missingSeen = true
		}
		return nil
	}

	t.failures++
	delay := t.backoffDelay()
	t.nextAttempt = now.Add(delay)

	if t.failures >= t.cfg.MaxFailures {
		t.skipped = true
		t.logger.Warn("giving up on log group after repeated failures",
			logging.Error(err),
			logging.Int("failures", t.failures),
			logging.Alert("tailer_skipped"),
			logging.String(logging.FieldEventType, "tailer_skipped"),
			logging.String(logging.FieldErrorHint, "remaining groups continue to be watched"),
		)
		return nil
	}

	t.logger.Warn("fetch failed, backing off",
		logging.Error(err),
		logging.Int("failures", t.failures),
		logging.Duration("retry_in", delay),
		logging.String(logging.FieldEventType, "tailer_backoff"),
	)
	return nil
}

func (t *Tailer) backoffDelay() time.Duration {
	delay := t.cfg.BackoffBase
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < t.failures; i++ {
		delay *= 2
		if t.cfg.BackoffCap > 0 && delay >= t.cfg.BackoffCap {
			return t.cfg.BackoffCap
		}
	}
	if t.cfg.BackoffCap > 0 && delay > t.cfg.BackoffCap {
		delay = t.cfg.BackoffCap
	}
	return delay
}

// advance converts a batch into emission-ready events and moves the
// cursor. Events older than the cursor's last emitted timestamp are
// duplicates from a rescan and are dropped; equal timestamps pass through
// because distinct lines can share a millisecond.
func (t *Tailer) advance(batch deployapi.Batch) []Event {
	if t.missingSeen {
		t.missingSeen = false
	}

	events := make([]Event, 0, len(batch.Events))
	for _, ev := range batch.Events {
		if t.cursor.LastTimestamp > 0 && ev.Timestamp < t.cursor.LastTimestamp {
			continue
		}
		seq := ev.Sequence
		if seq == 0 {
			t.seqFallback++
			seq = t.seqFallback
		}
		events = append(events, Event{
			Group:     t.group,
			Timestamp: ev.Timestamp,
			Sequence:  seq,
			Message:   ev.Message,
		})
	}

	if batch.NextCursor != "" {
		t.cursor.Token = batch.NextCursor
	}
	if n := len(events); n > 0 {
		if last := events[n-1].Timestamp; last > t.cursor.LastTimestamp {
			t.cursor.LastTimestamp = last
		}
	}
	return events
}
