// Package deployapi defines the remote collaborators the watch engine
// consumes: deployment status queries, log group listing, and incremental
// log event fetches. The Client type implements all three against the
// deployment service's HTTP API; the watch engine only ever depends on the
// interfaces, which tests satisfy with in-memory fakes.
package deployapi
