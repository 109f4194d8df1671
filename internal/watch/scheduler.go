package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lantern/internal/deployapi"
	"lantern/internal/logging"
)

// State is the scheduler's lifecycle position.
type State int32

const (
	StateStarting State = iota
	StateWatching
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SchedulerConfig carries the cadences and budgets for one watch.
type SchedulerConfig struct {
	PollInterval     time.Duration
	DiscoveryEvery   int
	FetchTimeout     time.Duration
	DiscoveryTimeout time.Duration
	WaitForStart     bool
	StartTimeout     time.Duration
	Tailer           TailerConfig
}

// Result summarizes a finished watch.
type Result struct {
	Status  deployapi.Status
	Rounds  int
	Emitted int
	Groups  []GroupRef
	Skipped []string
}

// Succeeded reports whether the deployment ended in the success state.
func (r Result) Succeeded() bool {
	return r.Status == deployapi.StatusSucceeded
}

// Scheduler drives the poll loop: discovery refresh, parallel tailer
// fetch rounds, merge and emission, and the deployment status checks that
// decide when the watch ends. The scheduler is the only writer of its
// tailer set and the only reader of deployment status.
type Scheduler struct {
	deploymentID string
	status       deployapi.StatusSource
	resolver     *Resolver
	fetcher      deployapi.EventFetcher
	sink         Sink
	cfg          SchedulerConfig
	logger       *slog.Logger

	state atomic.Int32

	tailers       map[string]*Tailer
	order         []string
	groups        []GroupRef
	lifecycleSeen map[string]deployapi.LifecycleEvent
	fatalErr      error

	// clock is swapped in tests.
	clock func() time.Time
}

// NewScheduler assembles a watch over one deployment.
func NewScheduler(deploymentID string, status deployapi.StatusSource, resolver *Resolver, fetcher deployapi.EventFetcher, sink Sink, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.DiscoveryEvery < 1 {
		cfg.DiscoveryEvery = 1
	}
	return &Scheduler{
		deploymentID: deploymentID,
		status:       status,
		resolver:     resolver,
		fetcher:      fetcher,
		sink:         sink,
		cfg:          cfg,
		logger: logging.NewComponentLogger(logger, "scheduler").
			With(logging.String(logging.FieldDeploymentID, deploymentID)),
		tailers:       make(map[string]*Tailer),
		lifecycleSeen: make(map[string]deployapi.LifecycleEvent),
		clock:         time.Now,
	}
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(state State) {
	s.state.Store(int32(state))
}

// Run watches the deployment until it reaches a terminal status or ctx is
// cancelled. Deployment termination triggers one final drain round to
// capture trailing events; operator cancellation stops without draining
// and returns the context error.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	s.setState(StateStarting)
	var result Result

	dep, err := s.status.Deployment(ctx, s.deploymentID)
	if err != nil {
		return result, fmt.Errorf("query deployment %s: %w", s.deploymentID, err)
	}
	if !dep.Status.Started() {
		dep, err = s.waitForStart(ctx)
		if err != nil {
			return result, err
		}
	}
	s.emitLifecycle(dep)
	s.refreshGroups(ctx)

	s.setState(StateWatching)
	s.logger.Info("watching deployment",
		logging.String("status", string(dep.Status)),
		logging.Int("groups", len(s.order)),
	)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		if tick > 0 && tick%s.cfg.DiscoveryEvery == 0 {
			s.refreshGroups(ctx)
		}

		if err := s.runRound(ctx, &result); err != nil {
			s.setState(StateStopped)
			return s.finish(result, dep.Status), err
		}

		dep = s.refreshStatus(ctx, dep)
		if s.fatalErr != nil {
			s.setState(StateStopped)
			return s.finish(result, dep.Status), s.fatalErr
		}
		s.emitLifecycle(dep)

		if dep.Status.Terminal() {
			s.setState(StateDraining)
			s.logger.Info("deployment reached terminal status, draining",
				logging.String("status", string(dep.Status)),
			)
			// Every non-skipped tailer gets its final fetch, even one
			// that was mid-backoff when the deployment finished.
			for _, name := range s.order {
				s.tailers[name].EndBackoff()
			}
			if err := s.runRound(ctx, &result); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("drain round incomplete", logging.Error(err))
			}
			s.setState(StateStopped)
			return s.finish(result, dep.Status), nil
		}

		select {
		case <-ctx.Done():
			// Operator cancellation skips the drain round.
			s.setState(StateStopped)
			return s.finish(result, dep.Status), ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) finish(result Result, status deployapi.Status) Result {
	result.Status = status
	result.Groups = append([]GroupRef(nil), s.groups...)
	for _, name := range s.order {
		if s.tailers[name].Skipped() {
			result.Skipped = append(result.Skipped, name)
		}
	}
	return result
}

// waitForStart polls a pending deployment until it starts. The original
// status check already happened, so the first sleep comes before the next
// poll.
func (s *Scheduler) waitForStart(ctx context.Context) (deployapi.Deployment, error) {
	if !s.cfg.WaitForStart {
		return deployapi.Deployment{}, fmt.Errorf("deployment %s has not started yet", s.deploymentID)
	}

	s.logger.Info("deployment is pending, waiting for start")
	deadline := s.clock().Add(s.cfg.StartTimeout)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return deployapi.Deployment{}, ctx.Err()
		case <-ticker.C:
		}

		// Checked before the poll so a flaky status endpoint cannot keep
		// the wait alive past its deadline.
		if s.cfg.StartTimeout > 0 && s.clock().After(deadline) {
			return deployapi.Deployment{}, fmt.Errorf("deployment %s timed out while starting", s.deploymentID)
		}

		dep, err := s.status.Deployment(ctx, s.deploymentID)
		if err != nil {
			if deployapi.IsFatal(err) {
				return deployapi.Deployment{}, fmt.Errorf("query deployment %s: %w", s.deploymentID, err)
			}
			s.logger.Warn("status poll failed while waiting for start", logging.Error(err))
			continue
		}
		if dep.Status.Started() {
			return dep, nil
		}
	}
}

// refreshGroups re-resolves the group set and adds tailers for groups not
// seen before. Known tailers and their cursors are never disturbed; an
// empty or failed resolution leaves the current set untouched.
func (s *Scheduler) refreshGroups(ctx context.Context) {
	dctx := ctx
	if s.cfg.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.cfg.DiscoveryTimeout)
		defer cancel()
	}

	refs, err := s.resolver.Resolve(dctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("group discovery failed, will retry on next cycle",
			logging.Error(err),
			logging.String(logging.FieldEventType, "discovery_failed"),
		)
		return
	}

	for _, ref := range refs {
		if _, known := s.tailers[ref.Name]; known {
			continue
		}
		s.tailers[ref.Name] = NewTailer(s.fetcher, ref.Name, s.cfg.Tailer, s.logger, s.clock())
		s.order = append(s.order, ref.Name)
		s.groups = append(s.groups, ref)
		s.logger.Info("discovered log group",
			logging.String(logging.FieldGroup, ref.Name),
			logging.String("matched_by", ref.MatchedBy),
		)
	}
}

// runRound runs one fetch round: every active tailer fetches in parallel,
// the barrier waits for all of them, the merger orders the union, and the
// sink receives the result. Tailer failures are absorbed inside the
// tailers; only sink failures and cancellation surface.
func (s *Scheduler) runRound(ctx context.Context, result *Result) error {
	result.Rounds++
	if len(s.order) == 0 {
		return nil
	}

	now := s.clock()
	batches := make([][]Event, len(s.order))
	var wg sync.WaitGroup
	for i, name := range s.order {
		tailer := s.tailers[name]
		wg.Add(1)
		go func(slot int, t *Tailer) {
			defer wg.Done()
			fctx := ctx
			if s.cfg.FetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
				defer cancel()
			}
			events, err := t.FetchRound(fctx, now)
			if err != nil {
				return
			}
			batches[slot] = events
		}(i, tailer)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil && s.State() != StateDraining {
		return err
	}

	merged := Merge(batches)
	if len(merged) == 0 {
		return nil
	}
	if err := s.sink.Emit(merged); err != nil {
		return fmt.Errorf("emit events: %w", err)
	}
	result.Emitted += len(merged)
	return nil
}

// refreshStatus re-checks the deployment, keeping the previous snapshot on
// transient failures so a flaky status endpoint cannot end the watch.
func (s *Scheduler) refreshStatus(ctx context.Context, prev deployapi.Deployment) deployapi.Deployment {
	dep, err := s.status.Deployment(ctx, s.deploymentID)
	if err != nil {
		if deployapi.IsFatal(err) {
			s.fatalErr = fmt.Errorf("query deployment %s: %w", s.deploymentID, err)
			return prev
		}
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("status poll failed, keeping last known status", logging.Error(err))
		}
		return prev
	}
	return dep
}

// emitLifecycle surfaces newly changed per-target lifecycle events through
// the sink, ordered by time. Unchanged events are suppressed.
func (s *Scheduler) emitLifecycle(dep deployapi.Deployment) {
	var fresh []Event
	for _, ev := range dep.Lifecycle {
		key := ev.Target + "\x00" + ev.Name
		prev, seen := s.lifecycleSeen[key]
		if seen && prev.Status == ev.Status && prev.Diagnostics == ev.Diagnostics {
			continue
		}
		s.lifecycleSeen[key] = ev

		message := ev.Name + ": " + ev.Status
		if ev.Diagnostics != "" && ev.Diagnostics != ev.Status {
			message += " - " + ev.Diagnostics
		}
		ts := ev.Time
		if ts.IsZero() {
			ts = s.clock()
		}
		fresh = append(fresh, Event{
			Group:     ev.Target,
			Timestamp: ts.UnixMilli(),
			Message:   message,
		})
	}
	if len(fresh) == 0 {
		return
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Less(fresh[j]) })
	if err := s.sink.Emit(fresh); err != nil {
		s.logger.Warn("emit lifecycle events failed", logging.Error(err))
	}
}
