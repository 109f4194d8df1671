// Package watch implements the live multi-group log aggregation engine:
// resolving which log groups belong to a deployment, tailing each group
// incrementally from its own cursor, merging every fetch round into one
// chronologically ordered feed, and stopping when the deployment reaches a
// terminal state.
//
// One Scheduler drives the whole watch. Each poll tick runs a round: every
// active Tailer fetches in parallel, the round barrier waits for all of
// them, Merge orders the results, and the sink receives the merged batch.
// Discovery re-runs on a slower cadence and only ever adds tailers; cursors
// of known groups are never disturbed. A tailer owns its cursor exclusively
// and the scheduler alone reads deployment status, so the round barrier is
// the only synchronization point.
package watch
