package rufus

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadnerb/rufus-scheduler/cronline"
)

// JobKind tags the temporal variant of a job.
type JobKind int

const (
	// KindAt fires once at an absolute instant.
	KindAt JobKind = iota
	// KindIn fires once after a delay from creation.
	KindIn
	// KindEvery fires repeatedly at a fixed interval.
	KindEvery
	// KindCron fires on a cron line's schedule.
	KindCron
)

func (k JobKind) String() string {
	switch k {
	case KindAt:
		return "at"
	case KindIn:
		return "in"
	case KindEvery:
		return "every"
	case KindCron:
		return "cron"
	default:
		return "unknown"
	}
}

// JobState is a job's position in its lifecycle:
//
//	Scheduled → Running → Scheduled   (periodic, still eligible)
//	Scheduled → Running → Completed   (one-shot)
//	any       → Unscheduled           (marked for removal)
//	Running   → TimedOut / Killed     (interrupted)
type JobState int

const (
	StateScheduled JobState = iota
	StateRunning
	StateCompleted
	StateUnscheduled
	StateKilled
	StateTimedOut
)

func (s JobState) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateUnscheduled:
		return "unscheduled"
	case StateKilled:
		return "killed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Job is a scheduled callable. Jobs are created through the scheduler's
// At/In/Every/Cron operations and hold a non-owning reference back to it.
// All public methods are safe for concurrent use.
type Job struct {
	id           string
	kind         JobKind
	sched        *Scheduler
	originalSpec string
	callable     callable
	opts         jobOpts
	history      *History

	// variant data
	frequency time.Duration  // KindEvery
	line      *cronline.Line // KindCron

	mu            sync.Mutex
	state         JobState
	nextTime      time.Time
	lastTime      time.Time
	scheduledAt   time.Time
	unscheduledAt time.Time
	paused        bool
	count         int64
	running       int
}

func newJob(s *Scheduler, kind JobKind, spec string, fn any, o JobOptions, now time.Time) (*Job, error) {
	c, err := newCallable(fn)
	if err != nil {
		return nil, err
	}
	opts, err := normalizeOptions(o, now)
	if err != nil {
		return nil, err
	}
	return &Job{
		id:           uuid.NewString(),
		kind:         kind,
		sched:        s,
		originalSpec: spec,
		callable:     c,
		opts:         opts,
		history:      newHistory(s.opts.HistorySize),
		state:        StateScheduled,
		scheduledAt:  now,
	}, nil
}

// ID returns the job's unique id.
func (j *Job) ID() string { return j.id }

// Kind returns the job's temporal variant.
func (j *Job) Kind() JobKind { return j.kind }

// Name returns the optional name option.
func (j *Job) Name() string { return j.opts.name }

// OriginalSpec returns the temporal spec the job was scheduled with.
func (j *Job) OriginalSpec() string { return j.originalSpec }

// Tags returns a copy of the job's tags.
func (j *Job) Tags() []string {
	tags := make([]string, len(j.opts.tags))
	copy(tags, j.opts.tags)
	return tags
}

// HasTags reports whether the job carries every one of the given tags.
func (j *Job) HasTags(tags ...string) bool {
	for _, want := range tags {
		found := false
		for _, have := range j.opts.tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// History returns the job's run history.
func (j *Job) History() *History { return j.history }

// Frequency returns the interval of an every job, zero otherwise.
func (j *Job) Frequency() time.Duration { return j.frequency }

// Line returns the parsed cron line of a cron job, nil otherwise.
func (j *Job) Line() *cronline.Line { return j.line }

// State returns the job's lifecycle state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// NextTime returns the next instant the scheduler considers the job due.
func (j *Job) NextTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextTime
}

// LastTime returns the most recent fire instant, zero until the first fire.
func (j *Job) LastTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastTime
}

// ScheduledAt returns the creation instant.
func (j *Job) ScheduledAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scheduledAt
}

// UnscheduledAt returns the instant the job was marked for removal, zero
// while the job is active.
func (j *Job) UnscheduledAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.unscheduledAt
}

// Count returns the number of firings so far.
func (j *Job) Count() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Running reports whether at least one execution of the job is in flight.
func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running > 0
}

// Periodic reports whether the job is an every or cron job.
func (j *Job) Periodic() bool {
	return j.kind == KindEvery || j.kind == KindCron
}

// Paused reports whether the job is paused.
func (j *Job) Paused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.paused
}

// Pause suspends triggering of a periodic job. The job stays in the
// schedule and keeps advancing its next fire time.
func (j *Job) Pause() error {
	if !j.Periodic() {
		return fmt.Errorf("%w: cannot pause a one-shot %s job", ErrInvalidArgument, j.kind)
	}
	j.mu.Lock()
	already := j.paused
	j.paused = true
	j.mu.Unlock()
	if !already {
		j.sched.emit(EventPaused, j)
	}
	return nil
}

// Resume re-enables triggering of a paused job.
func (j *Job) Resume() error {
	if !j.Periodic() {
		return fmt.Errorf("%w: cannot resume a one-shot %s job", ErrInvalidArgument, j.kind)
	}
	j.mu.Lock()
	was := j.paused
	j.paused = false
	j.mu.Unlock()
	if was {
		j.sched.emit(EventResumed, j)
	}
	return nil
}

// Unschedule marks the job for removal; the scheduler drops it on the
// next sweep. An in-flight execution is not interrupted.
func (j *Job) Unschedule() {
	j.mu.Lock()
	if !j.unscheduledAt.IsZero() {
		j.mu.Unlock()
		return
	}
	j.unscheduledAt = time.Now()
	j.state = StateUnscheduled
	j.mu.Unlock()
	j.sched.emit(EventUnscheduled, j)
}

func (j *Job) unscheduled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !j.unscheduledAt.IsZero()
}

// initNextTime computes the initial next_time at scheduling. now is the
// creation instant; target the variant's natural first fire.
func (j *Job) initNextTime(now, target time.Time) {
	if !j.opts.firstAt.IsZero() && j.Periodic() {
		target = j.opts.firstAt
	} else if j.opts.discardPast && target.Before(now) {
		switch j.kind {
		case KindEvery:
			for !target.After(now) {
				target = target.Add(j.frequency)
			}
		case KindAt, KindIn:
			// The only fire lies in the past; never trigger.
			j.unscheduledAt = now
			j.state = StateUnscheduled
		}
	}
	j.nextTime = target

	// A last_at bound already behind the first fire means the job never
	// fires at all.
	if !j.opts.lastAt.IsZero() && target.After(j.opts.lastAt) {
		j.unscheduledAt = now
		j.state = StateUnscheduled
	}
}

// trigger fires the job. It is called by the scheduler loop with the
// current tick instant and reports whether the job should be re-inserted
// into the schedule.
func (j *Job) trigger(now time.Time) bool {
	if j.unscheduled() {
		return false
	}

	j.mu.Lock()
	scheduledAt := j.nextTime
	run := !j.paused
	if run && j.opts.times != nil && j.count >= int64(*j.opts.times) {
		j.markUnscheduledLocked(now)
		j.mu.Unlock()
		return false
	}
	if run && j.opts.noOverlap && j.running > 0 {
		run = false
	}
	if run {
		j.lastTime = now
		j.count++
		// Marked running before the worker goroutine exists, so the
		// overlap check above never races a worker still starting up.
		j.running++
		j.state = StateRunning
	}
	j.mu.Unlock()

	if run {
		if j.opts.blocking {
			j.sched.runWorker(j, scheduledAt, now, "schedule")
		} else {
			go j.sched.runWorker(j, scheduledAt, now, "schedule")
		}
	}

	if !j.Periodic() {
		return false
	}
	return j.rescheduleAfter(now)
}

// rescheduleAfter computes the next fire, applies the last_at and times
// exhaustion filters and updates next_time.
func (j *Job) rescheduleAfter(now time.Time) bool {
	var next time.Time
	switch j.kind {
	case KindEvery:
		next = now.Add(j.frequency)
	case KindCron:
		n, err := j.line.NextTime(now)
		if err != nil {
			j.Unschedule()
			return false
		}
		next = n
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.unscheduledAt.IsZero() {
		return false
	}
	if !j.opts.lastAt.IsZero() && next.After(j.opts.lastAt) {
		j.markUnscheduledLocked(now)
		return false
	}
	if j.opts.times != nil && j.count >= int64(*j.opts.times) {
		j.markUnscheduledLocked(now)
		return false
	}
	j.nextTime = next
	return true
}

func (j *Job) markUnscheduledLocked(now time.Time) {
	if j.unscheduledAt.IsZero() {
		j.unscheduledAt = now
		if j.state == StateScheduled {
			j.state = StateUnscheduled
		}
	}
}

// timeoutDeadline computes the instant after which a worker started at
// startedAt must be interrupted; zero means no timeout.
func (j *Job) timeoutDeadline(startedAt time.Time) time.Time {
	if !j.opts.timeoutAt.IsZero() {
		return j.opts.timeoutAt
	}
	if j.opts.timeoutDur > 0 {
		return startedAt.Add(j.opts.timeoutDur)
	}
	return time.Time{}
}

// setRunning marks an execution in flight. The scheduled trigger path
// does this inline in trigger; manual triggers call it before spawning
// their worker.
func (j *Job) setRunning() {
	j.mu.Lock()
	j.running++
	j.state = StateRunning
	j.mu.Unlock()
}

// setDone records the post-execution state: back to Scheduled for a live
// periodic job, Completed for a one-shot, or the interrupted state.
func (j *Job) setDone(final JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running > 0 {
		j.running--
	}
	switch final {
	case StateKilled, StateTimedOut:
		j.state = final
	default:
		if !j.unscheduledAt.IsZero() {
			j.state = StateUnscheduled
		} else if j.Periodic() {
			j.state = StateScheduled
		} else {
			j.state = StateCompleted
		}
	}
}
