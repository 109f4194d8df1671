package deployapi

import (
	"context"
	"time"
)

// Status is a deployment lifecycle status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusStopped    Status = "stopped"
	StatusUnknown    Status = "unknown"
)

// Terminal reports whether the status ends a watch.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusStopped:
		return true
	default:
		return false
	}
}

// Started reports whether the deployment has left the pending state.
func (s Status) Started() bool {
	return s != StatusPending && s != ""
}

// LifecycleEvent is one per-target lifecycle step reported by the
// deployment service (e.g. "Install: succeeded" on a given target).
type LifecycleEvent struct {
	Target      string    `json:"target"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Diagnostics string    `json:"diagnostics,omitempty"`
	Time        time.Time `json:"time"`
}

// Deployment is a point-in-time snapshot of the watched deployment.
type Deployment struct {
	ID           string           `json:"id"`
	Status       Status           `json:"status"`
	CreateTime   time.Time        `json:"create_time"`
	StartTime    time.Time        `json:"start_time,omitzero"`
	CompleteTime time.Time        `json:"complete_time,omitzero"`
	TargetCount  int              `json:"target_count"`
	Lifecycle    []LifecycleEvent `json:"lifecycle,omitempty"`
}

// Event is one log line fetched from a group. Timestamp is milliseconds
// since the Unix epoch; Sequence is the service's group-local ingest
// counter, monotone within a group.
type Event struct {
	Timestamp int64  `json:"ts"`
	Sequence  int64  `json:"seq"`
	Message   string `json:"message"`
}

// Batch is the result of one event fetch: events in increasing
// (Timestamp, Sequence) order plus the continuation token for the next
// fetch. NextCursor may equal the request cursor when nothing new arrived.
type Batch struct {
	Events     []Event `json:"events"`
	NextCursor string  `json:"next_cursor"`
}

// FetchOptions selects what an event fetch returns. When Cursor is set the
// fetch continues from it; otherwise From picks the start position, with
// the zero time meaning "now" (live tail).
type FetchOptions struct {
	Cursor string
	From   time.Time
	Limit  int
}

// StatusSource answers deployment status queries. Implementations must be
// idempotent and safe to poll.
type StatusSource interface {
	Deployment(ctx context.Context, id string) (Deployment, error)
}

// GroupLister lists log group names, optionally scoped by a name prefix.
// An empty prefix lists every group visible to the caller.
type GroupLister interface {
	ListGroups(ctx context.Context, prefix string) ([]string, error)
}

// EventFetcher reads one batch of newly appended events from a group.
type EventFetcher interface {
	FetchEvents(ctx context.Context, group string, opts FetchOptions) (Batch, error)
}
