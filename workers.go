package rufus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// workerInfo is the running-worker registry entry: the job, the start
// timestamp, the timeout deadline and the cancellation handle used by the
// timeout supervisor and Shutdown(ShutdownKill).
type workerInfo struct {
	id          uint64
	job         *Job
	scheduledAt time.Time
	startedAt   time.Time
	deadline    time.Time
	cancel      context.CancelCauseFunc
}

func (s *Scheduler) registerWorker(w *workerInfo) {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	s.workers[w.id] = w
}

func (s *Scheduler) deregisterWorker(w *workerInfo) {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	delete(s.workers, w.id)
}

// runWorker executes a single firing of a job. It registers the worker,
// acquires any named mutexes, invokes the callable and routes the outcome
// to the history, the event hook and the error handler. Failures never
// propagate to the caller. The job must already be marked running.
func (s *Scheduler) runWorker(j *Job, scheduledAt, now time.Time, triggered string) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	w := &workerInfo{
		id:          s.workerSeq.Add(1),
		job:         j,
		scheduledAt: scheduledAt,
		startedAt:   time.Now(),
		cancel:      cancel,
	}
	w.deadline = j.timeoutDeadline(w.startedAt)

	s.registerWorker(w)
	defer s.deregisterWorker(w)

	runID := j.history.start(scheduledAt, triggered)
	s.emit(EventTriggered, j)

	err := s.invoke(ctx, j, scheduledAt, now)

	cause := context.Cause(ctx)
	var timeout *TimeoutError
	switch {
	case errors.As(cause, &timeout):
		j.setDone(StateTimedOut)
		j.history.end(runID, timeout)
		s.emit(EventTimedOut, j)
		s.handleError(j, timeout)
		if j.opts.timeoutNoReschedule && j.Periodic() {
			j.Unschedule()
		}
	case errors.Is(cause, ErrKilled):
		j.setDone(StateKilled)
		j.history.end(runID, ErrKilled)
		s.emit(EventKilled, j)
	case err != nil:
		j.setDone(StateScheduled)
		j.history.end(runID, err)
		s.emit(EventFailed, j)
		s.handleError(j, &CallbackError{JobID: j.id, Err: err})
	default:
		j.setDone(StateScheduled)
		j.history.end(runID, nil)
		s.emit(EventCompleted, j)
	}
}

// invoke runs the callable with the job's named mutexes held and panics
// contained.
func (s *Scheduler) invoke(ctx context.Context, j *Job, scheduledAt, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callable panicked: %v", r)
		}
	}()

	// Sorted acquisition order prevents deadlock between jobs sharing
	// mutex sets; release happens on every exit.
	for _, name := range j.opts.mutexes {
		m := s.namedMutex(name)
		m.Lock()
		defer m.Unlock()
	}
	return j.callable(ctx, j, scheduledAt, now)
}

// timeoutSweep is the supervisor pass run on every tick: it cancels the
// context of every running worker whose deadline has elapsed.
func (s *Scheduler) timeoutSweep(now time.Time) {
	s.workersMu.Lock()
	var expired []*workerInfo
	for _, w := range s.workers {
		if !w.deadline.IsZero() && !now.Before(w.deadline) {
			expired = append(expired, w)
		}
	}
	s.workersMu.Unlock()

	for _, w := range expired {
		w.cancel(&TimeoutError{JobID: w.job.id, After: now.Sub(w.startedAt)})
	}
}

// killAllWorkers interrupts every in-flight worker, used by
// Shutdown(ShutdownKill).
func (s *Scheduler) killAllWorkers() {
	s.workersMu.Lock()
	workers := make([]*workerInfo, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.workersMu.Unlock()

	for _, w := range workers {
		w.cancel(ErrKilled)
	}
}

// runningJobs returns the distinct jobs with an in-flight worker.
func (s *Scheduler) runningJobs() []*Job {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()

	seen := make(map[string]bool, len(s.workers))
	var jobs []*Job
	for _, w := range s.workers {
		if !seen[w.job.id] {
			seen[w.job.id] = true
			jobs = append(jobs, w.job)
		}
	}
	return jobs
}

// namedMutex returns the scheduler-scoped mutex for name, creating it on
// first reference.
func (s *Scheduler) namedMutex(name string) *sync.Mutex {
	s.mutexesMu.Lock()
	defer s.mutexesMu.Unlock()

	m, ok := s.mutexes[name]
	if !ok {
		m = &sync.Mutex{}
		s.mutexes[name] = m
	}
	return m
}
