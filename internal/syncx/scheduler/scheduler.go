// Package scheduler triggers periodic and on-demand synchronization passes
// per collection, with exponential backoff on retryable failures.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/ddanilovs/campuslink/internal/syncx"
	"github.com/sethvargo/go-retry"
)

// ErrPassInFlight is returned by SyncNow when a pass for the same
// collection is already running.
var ErrPassInFlight = errors.New("sync pass already in flight")

// Runner executes one synchronization pass.
type Runner interface {
	RunPass(ctx context.Context, c models.Collection) syncx.Outcome
}

const (
	// DefaultInterval between periodic passes per collection.
	DefaultInterval = 15 * time.Minute

	// defaultBaseDelay seeds the exponential backoff between retries.
	defaultBaseDelay = 2 * time.Second

	// maxAttempts bounds retries within one cycle. After the last attempt
	// the cycle fails; the periodic ticker reschedules it regardless.
	maxAttempts = 3
)

type job struct {
	cancel  context.CancelFunc
	running atomic.Bool

	// scheduled is set once the periodic loop is started. A job created by
	// SyncNow alone is only an overlap guard and must not block Schedule.
	scheduled bool
}

// Scheduler owns one periodic loop per scheduled collection. Loops for
// different collections run independently; overlapping passes for the same
// collection are never started.
type Scheduler struct {
	runner    Runner
	interval  time.Duration
	baseDelay time.Duration
	logger    logging.Logger

	mu   sync.Mutex
	jobs map[models.Collection]*job
	wg   sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBaseDelay overrides the initial backoff delay between retries.
func WithBaseDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.baseDelay = d }
}

func New(runner Runner, interval time.Duration, logger logging.Logger, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		runner:    runner,
		interval:  interval,
		baseDelay: defaultBaseDelay,
		logger:    logger,
		jobs:      make(map[models.Collection]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule starts the periodic loop for the collection. If a loop is
// already scheduled for it, Schedule is a no-op (the existing job is kept).
func (s *Scheduler) Schedule(ctx context.Context, collection models.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[collection]
	if ok && j.scheduled {
		return
	}
	if !ok {
		j = &job{}
		s.jobs[collection] = j
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.scheduled = true

	s.wg.Add(1)
	go s.loop(jobCtx, collection, j)
}

// SyncNow runs an immediate cycle for the collection and reports its
// outcome. It returns ErrPassInFlight if a pass is already running, so a
// user-initiated refresh never piles onto a periodic one.
func (s *Scheduler) SyncNow(ctx context.Context, collection models.Collection) (syncx.Outcome, error) {
	s.mu.Lock()
	j, ok := s.jobs[collection]
	if !ok {
		j = &job{cancel: func() {}}
		s.jobs[collection] = j
	}
	s.mu.Unlock()

	if !j.running.CompareAndSwap(false, true) {
		return syncx.Outcome{}, ErrPassInFlight
	}
	defer j.running.Store(false)

	return s.runCycle(ctx, collection), nil
}

// CancelAll stops all periodic loops and waits for them to wind down. A
// pass already in flight finishes; it is not interrupted.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	for c, j := range s.jobs {
		j.cancel()
		delete(s.jobs, c)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, collection models.Collection, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := s.logger.With("collection", collection)

	for {
		select {
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				log.Debug(ctx, "previous pass still running, skipping tick")
				continue
			}
			out := s.runCycle(ctx, collection)
			j.running.Store(false)
			if out.Code != syncx.Success {
				// The next tick retries regardless: one failed cycle
				// never disables future cycles.
				log.Warn(ctx, "sync cycle failed", "outcome", out.String())
			}
		case <-ctx.Done():
			return
		}
	}
}

// runCycle executes up to maxAttempts passes with exponential backoff,
// retrying only outcomes the pass itself reported as retryable.
func (s *Scheduler) runCycle(ctx context.Context, collection models.Collection) syncx.Outcome {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(s.baseDelay))

	var out syncx.Outcome
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out = s.runner.RunPass(ctx, collection)
		if out.Code.Retryable() {
			s.logger.Debug(ctx, "pass retryable", "collection", collection,
				"attempt", attempt, "outcome", out.String())
			return retry.RetryableError(out.Err)
		}
		return nil
	})
	if err != nil && out.Code == syncx.Success {
		// Context cancelled between attempts.
		out = syncx.Outcome{Code: syncx.RetryableNetwork, Err: err}
	}
	return out
}
