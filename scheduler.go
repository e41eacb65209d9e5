package rufus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nadnerb/rufus-scheduler/cronline"
)

// DefaultFrequency is the default tick period of the scheduler loop.
const DefaultFrequency = 300 * time.Millisecond

// Event names a job lifecycle transition delivered to the EventHandler.
type Event string

const (
	EventScheduled   Event = "scheduled"
	EventTriggered   Event = "triggered"
	EventCompleted   Event = "completed"
	EventFailed      Event = "failed"
	EventTimedOut    Event = "timed_out"
	EventKilled      Event = "killed"
	EventUnscheduled Event = "unscheduled"
	EventPaused      Event = "paused"
	EventResumed     Event = "resumed"
)

// ErrorHandler receives every failure raised inside a worker: callable
// errors, panics and timeouts. It runs on the worker's goroutine.
type ErrorHandler func(job *Job, err error)

// EventHandler receives job lifecycle transitions. The default is a no-op.
type EventHandler func(event Event, job *Job)

// ShutdownMode selects how Shutdown treats in-flight executions.
type ShutdownMode int

const (
	// ShutdownStop stops the loop and leaves running workers to finish
	// on their own.
	ShutdownStop ShutdownMode = iota
	// ShutdownWait stops the loop and blocks until every running worker
	// has completed.
	ShutdownWait
	// ShutdownKill stops the loop and interrupts every running worker.
	ShutdownKill
)

// Options configures a Scheduler. The zero value is usable.
type Options struct {
	// Frequency is the tick period; DefaultFrequency when zero.
	Frequency time.Duration

	// Paused starts the scheduler with triggering suspended. The loop
	// still advances time, sweeps unscheduled jobs and enforces timeouts.
	Paused bool

	// Logger receives the scheduler's structured log output;
	// slog.Default() when nil.
	Logger *slog.Logger

	// ErrorHandler is invoked with every worker failure.
	ErrorHandler ErrorHandler

	// EventHandler is invoked with job lifecycle transitions.
	EventHandler EventHandler

	// HistorySize caps each job's retained run history.
	HistorySize int
}

// Scheduler owns the job store, the tick loop, the named-mutex registry
// and the running-worker registry, and exposes the scheduling API.
type Scheduler struct {
	opts      Options
	frequency time.Duration
	logger    *slog.Logger

	jobs *JobArray

	mutexesMu sync.Mutex
	mutexes   map[string]*sync.Mutex

	workersMu sync.Mutex
	workers   map[uint64]*workerInfo
	workerSeq atomic.Uint64

	mu        sync.Mutex
	startedAt time.Time
	paused    bool
	stopCh    chan struct{}
	done      chan struct{}
}

// NewScheduler creates a stopped scheduler; call Start to launch the loop.
func NewScheduler(opts Options) *Scheduler {
	if opts.Frequency <= 0 {
		opts.Frequency = DefaultFrequency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		opts:      opts,
		frequency: opts.Frequency,
		logger:    logger.With("component", "scheduler"),
		jobs:      NewJobArray(),
		mutexes:   make(map[string]*sync.Mutex),
		workers:   make(map[uint64]*workerInfo),
		paused:    opts.Paused,
	}
}

// Frequency returns the tick period.
func (s *Scheduler) Frequency() time.Duration { return s.frequency }

// Start launches the scheduler loop on its own goroutine.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedAt.IsZero() {
		return fmt.Errorf("%w: scheduler already started", ErrInvalidArgument)
	}
	s.startedAt = time.Now()
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stopCh, s.done)

	s.logger.Info("scheduler started", "frequency", s.frequency)
	return nil
}

// Started reports whether the loop is running.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.startedAt.IsZero()
}

// Uptime returns how long the scheduler has been running, zero when
// stopped.
func (s *Scheduler) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Join blocks until the scheduler loop exits.
func (s *Scheduler) Join() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Pause suspends triggering. The loop keeps ticking: unscheduled jobs are
// still swept and timeouts still enforced.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume re-enables triggering.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Paused reports whether triggering is suspended.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Shutdown stops the loop. ShutdownWait additionally blocks until every
// in-flight worker completes; ShutdownKill interrupts them.
// Shutdown may be called again with ShutdownKill to escalate while a
// ShutdownWait call is still draining.
func (s *Scheduler) Shutdown(mode ShutdownMode) {
	s.mu.Lock()
	if !s.startedAt.IsZero() {
		s.startedAt = time.Time{}
		close(s.stopCh)
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	switch mode {
	case ShutdownWait:
		for len(s.runningJobs()) > 0 {
			time.Sleep(s.frequency)
		}
	case ShutdownKill:
		s.killAllWorkers()
	}
	s.logger.Info("scheduler stopped")
}

// TerminateAllJobs unschedules every job, then blocks until no execution
// is in flight, polling at the tick rate.
func (s *Scheduler) TerminateAllJobs(ctx context.Context) error {
	for _, job := range s.jobs.ToSlice() {
		job.Unschedule()
	}
	for len(s.runningJobs()) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.frequency):
		}
	}
	return nil
}

// loop is the scheduler tick loop. Any unexpected internal failure stops
// the scheduler; user code failures never reach it.
func (s *Scheduler) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler loop crashed", "panic", r)
			s.mu.Lock()
			s.startedAt = time.Time{}
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.frequency)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick runs one scheduler iteration: sweep unscheduled jobs, trigger due
// jobs (unless paused) and run the timeout supervisor pass.
func (s *Scheduler) tick(now time.Time) {
	start := time.Now()

	s.jobs.DeleteUnscheduled()
	if !s.Paused() {
		s.triggerDue(now)
	}
	s.timeoutSweep(now)

	if d := time.Since(start); d > s.frequency {
		s.logger.Warn("tick overran frequency", "duration", d, "frequency", s.frequency)
	}
}

// triggerDue drains due jobs in ascending next-time order, triggers each
// and re-inserts the ones still eligible for another fire.
func (s *Scheduler) triggerDue(now time.Time) {
	var reinsert []*Job
	for {
		job := s.jobs.ShiftDue(now)
		if job == nil {
			break
		}
		if job.trigger(now) {
			reinsert = append(reinsert, job)
		}
	}
	if len(reinsert) > 0 {
		s.jobs.Concat(reinsert)
	}
}

// At schedules a one-shot job at an absolute instant: a time.Time or a
// time string per ParseTime.
func (s *Scheduler) At(t any, fn any, opts ...JobOptions) (*Job, error) {
	now := time.Now()
	at, err := ParseTime(t)
	if err != nil {
		return nil, err
	}
	job, err := newJob(s, KindAt, specString(t), fn, optional(opts), now)
	if err != nil {
		return nil, err
	}
	job.initNextTime(now, at)
	return s.addJob(job), nil
}

// In schedules a one-shot job after a delay: a time.Duration or a
// duration string per ParseDuration.
func (s *Scheduler) In(d any, fn any, opts ...JobOptions) (*Job, error) {
	now := time.Now()
	delay, err := resolveDuration(d)
	if err != nil {
		return nil, err
	}
	job, err := newJob(s, KindIn, specString(d), fn, optional(opts), now)
	if err != nil {
		return nil, err
	}
	job.initNextTime(now, now.Add(delay))
	return s.addJob(job), nil
}

// Every schedules a periodic job with a fixed interval. The interval must
// be positive and no finer than the scheduler tick.
func (s *Scheduler) Every(d any, fn any, opts ...JobOptions) (*Job, error) {
	now := time.Now()
	freq, err := resolveDuration(d)
	if err != nil {
		return nil, err
	}
	if freq <= 0 {
		return nil, fmt.Errorf("%w: non-positive every frequency %v", ErrInvalidArgument, freq)
	}
	if freq < s.frequency {
		return nil, fmt.Errorf(
			"%w: every frequency %v is finer than the scheduler frequency %v",
			ErrInvalidArgument, freq, s.frequency)
	}
	job, err := newJob(s, KindEvery, specString(d), fn, optional(opts), now)
	if err != nil {
		return nil, err
	}
	job.frequency = freq
	job.initNextTime(now, now.Add(freq))
	return s.addJob(job), nil
}

// Cron schedules a periodic job on a cron expression per package cronline.
func (s *Scheduler) Cron(expr string, fn any, opts ...JobOptions) (*Job, error) {
	now := time.Now()
	line, err := cronline.Parse(expr)
	if err != nil {
		return nil, err
	}
	if freq, err := line.Frequency(now); err != nil {
		return nil, err
	} else if freq < s.frequency {
		return nil, fmt.Errorf(
			"%w: cron frequency %v is finer than the scheduler frequency %v",
			ErrInvalidArgument, freq, s.frequency)
	}
	first, err := line.NextTime(now)
	if err != nil {
		return nil, err
	}
	job, err := newJob(s, KindCron, expr, fn, optional(opts), now)
	if err != nil {
		return nil, err
	}
	job.line = line
	job.initNextTime(now, first)
	return s.addJob(job), nil
}

func (s *Scheduler) addJob(job *Job) *Job {
	s.jobs.Push(job)
	s.emit(EventScheduled, job)
	s.logger.Debug("job scheduled",
		"job_id", job.id,
		"kind", job.kind.String(),
		"spec", job.originalSpec,
		"next_time", job.NextTime(),
	)
	return job
}

// Unschedule marks the job with the given id for removal; the next sweep
// drops it. Fails with ErrNotFound for an unknown id.
func (s *Scheduler) Unschedule(id string) error {
	job := s.jobs.Lookup(id)
	if job == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	job.Unschedule()
	return nil
}

// UnscheduleJob marks the job for removal.
func (s *Scheduler) UnscheduleJob(job *Job) {
	job.Unschedule()
}

// TriggerJob fires the job with the given id immediately, out of band.
// The manual fire does not count toward the job's times limit and does
// not move its next scheduled fire.
func (s *Scheduler) TriggerJob(id string) error {
	job := s.jobs.Lookup(id)
	if job == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	now := time.Now()
	job.setRunning()
	go s.runWorker(job, job.NextTime(), now, "manual")
	return nil
}

// PauseJob suspends triggering of the periodic job with the given id.
func (s *Scheduler) PauseJob(id string) error {
	job := s.jobs.Lookup(id)
	if job == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return job.Pause()
}

// ResumeJob re-enables triggering of the periodic job with the given id.
func (s *Scheduler) ResumeJob(id string) error {
	job := s.jobs.Lookup(id)
	if job == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return job.Resume()
}

// Job returns the scheduled job with the given id, nil when unknown.
func (s *Scheduler) Job(id string) *Job {
	return s.jobs.Lookup(id)
}

// Jobs returns a snapshot of the scheduled jobs, optionally filtered to
// jobs carrying every one of the given tags.
func (s *Scheduler) Jobs(tags ...string) []*Job {
	snapshot := s.jobs.ToSlice()
	if len(tags) == 0 {
		return snapshot
	}
	var out []*Job
	for _, job := range snapshot {
		if job.HasTags(tags...) {
			out = append(out, job)
		}
	}
	return out
}

// AtJobs returns the scheduled at jobs.
func (s *Scheduler) AtJobs() []*Job { return s.kindJobs(KindAt) }

// InJobs returns the scheduled in jobs.
func (s *Scheduler) InJobs() []*Job { return s.kindJobs(KindIn) }

// EveryJobs returns the scheduled every jobs.
func (s *Scheduler) EveryJobs() []*Job { return s.kindJobs(KindEvery) }

// CronJobs returns the scheduled cron jobs.
func (s *Scheduler) CronJobs() []*Job { return s.kindJobs(KindCron) }

func (s *Scheduler) kindJobs(kind JobKind) []*Job {
	var out []*Job
	for _, job := range s.jobs.ToSlice() {
		if job.kind == kind {
			out = append(out, job)
		}
	}
	return out
}

// RunningJobs returns the distinct jobs with an execution in flight. The
// view is best-effort: a worker just starting or exiting may or may not
// be visible.
func (s *Scheduler) RunningJobs() []*Job {
	return s.runningJobs()
}

// emit delivers a lifecycle event to the event handler, shielding the
// scheduler from handler panics.
func (s *Scheduler) emit(event Event, job *Job) {
	handler := s.opts.EventHandler
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler panicked", "event", string(event), "panic", r)
		}
	}()
	handler(event, job)
}

// handleError routes a worker failure to the error handler, or logs it
// when none is configured.
func (s *Scheduler) handleError(job *Job, err error) {
	handler := s.opts.ErrorHandler
	if handler == nil {
		s.logger.Error("job failed", "job_id", job.id, "name", job.opts.name, "error", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error handler panicked", "job_id", job.id, "panic", r)
		}
	}()
	handler(job, err)
}

func optional(opts []JobOptions) JobOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return JobOptions{}
}

func specString(spec any) string {
	switch v := spec.(type) {
	case string:
		return v
	case time.Duration:
		return FormatDuration(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", spec)
	}
}
