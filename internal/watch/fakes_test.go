package watch_test

import (
	"context"
	"sync"

	"lantern/internal/deployapi"
	"lantern/internal/watch"
)

// fakeLister serves a swappable group listing and records the prefixes it
// was asked for.
type fakeLister struct {
	mu       sync.Mutex
	groups   []string
	err      error
	prefixes []string
}

func (f *fakeLister) ListGroups(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.groups...), nil
}

func (f *fakeLister) setGroups(groups ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = groups
}

// fetchReply is one canned FetchEvents response. A sticky reply stays at
// the head of the queue forever (a permanently throttled group); other
// replies are consumed in order. An exhausted queue yields empty batches
// that keep the request cursor.
type fetchReply struct {
	batch  deployapi.Batch
	err    error
	sticky bool
}

// fakeFetcher returns queued replies per group and records every request
// for assertions.
type fakeFetcher struct {
	mu      sync.Mutex
	replies map[string][]fetchReply
	calls   map[string][]deployapi.FetchOptions
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		replies: make(map[string][]fetchReply),
		calls:   make(map[string][]deployapi.FetchOptions),
	}
}

func (f *fakeFetcher) queue(group string, reply fetchReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[group] = append(f.replies[group], reply)
}

func (f *fakeFetcher) FetchEvents(_ context.Context, group string, opts deployapi.FetchOptions) (deployapi.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[group] = append(f.calls[group], opts)

	queue := f.replies[group]
	if len(queue) == 0 {
		return deployapi.Batch{NextCursor: opts.Cursor}, nil
	}
	reply := queue[0]
	if !reply.sticky {
		f.replies[group] = queue[1:]
	}
	return reply.batch, reply.err
}

func (f *fakeFetcher) callCount(group string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[group])
}

func (f *fakeFetcher) callOptions(group string) []deployapi.FetchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deployapi.FetchOptions(nil), f.calls[group]...)
}

// fakeStatus walks through a sequence of deployment snapshots, sticking
// at the last one.
type fakeStatus struct {
	mu    sync.Mutex
	seq   []deployapi.Deployment
	errs  []error
	calls int
}

func (f *fakeStatus) Deployment(_ context.Context, id string) (deployapi.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return deployapi.Deployment{}, f.errs[idx]
	}
	if len(f.seq) == 0 {
		return deployapi.Deployment{ID: id, Status: deployapi.StatusUnknown}, nil
	}
	if idx >= len(f.seq) {
		idx = len(f.seq) - 1
	}
	dep := f.seq[idx]
	dep.ID = id
	return dep, nil
}

// collectSink records every emission.
type collectSink struct {
	mu     sync.Mutex
	rounds [][]watch.Event
}

func (c *collectSink) Emit(events []watch.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := append([]watch.Event(nil), events...)
	c.rounds = append(c.rounds, batch)
	return nil
}

func (c *collectSink) all() []watch.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []watch.Event
	for _, round := range c.rounds {
		out = append(out, round...)
	}
	return out
}

func (c *collectSink) groupEvents(group string) []watch.Event {
	var out []watch.Event
	for _, ev := range c.all() {
		if ev.Group == group {
			out = append(out, ev)
		}
	}
	return out
}
