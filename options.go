package rufus

import (
	"fmt"
	"sort"
	"time"
)

// JobOptions carries the optional knobs accepted by the scheduling
// operations. The zero value is valid.
type JobOptions struct {
	// Name is an optional human-readable label surfaced in logs and events.
	Name string

	// Tags attach arbitrary labels; enumerations can filter on them.
	Tags []string

	// Mutexes names scheduler-scoped mutexes that must all be held while
	// the callable runs. Multiple names are acquired in string-sorted
	// order.
	Mutexes []string

	// Blocking runs the callable on the scheduler loop itself, blocking
	// further ticks until it returns.
	Blocking bool

	// Timeout bounds a single execution: a duration string, a
	// time.Duration, or an absolute time.Time after which the running
	// worker is interrupted.
	Timeout any

	// TimeoutNoReschedule drops a periodic job after a timed-out run
	// instead of rescheduling it.
	TimeoutNoReschedule bool

	// FirstAt / FirstIn force the earliest first fire of a periodic job:
	// a time.Time / duration, or their string specs.
	FirstAt any
	FirstIn any

	// LastAt / LastIn set the instant after which a periodic job no
	// longer fires.
	LastAt any
	LastIn any

	// Times caps the number of firings of a periodic job. Use the Times
	// helper; an explicit zero means the job never fires.
	Times *int

	// DiscardPast skips fires that should already have happened instead
	// of triggering them immediately.
	DiscardPast bool

	// NoOverlap skips a fire while a previous execution of the same job
	// is still running.
	NoOverlap bool
}

// Times is a convenience for JobOptions.Times.
func Times(n int) *int { return &n }

// jobOpts is the normalised, validated form of JobOptions.
type jobOpts struct {
	name                string
	tags                []string
	mutexes             []string // sorted
	blocking            bool
	timeoutDur          time.Duration
	timeoutAt           time.Time
	timeoutNoReschedule bool
	firstAt             time.Time
	lastAt              time.Time
	times               *int
	discardPast         bool
	noOverlap           bool
}

func normalizeOptions(o JobOptions, now time.Time) (jobOpts, error) {
	opts := jobOpts{
		name:                o.Name,
		blocking:            o.Blocking,
		timeoutNoReschedule: o.TimeoutNoReschedule,
		discardPast:         o.DiscardPast,
		noOverlap:           o.NoOverlap,
	}

	if len(o.Tags) > 0 {
		seen := make(map[string]bool, len(o.Tags))
		for _, tag := range o.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			opts.tags = append(opts.tags, tag)
		}
	}

	if len(o.Mutexes) > 0 {
		opts.mutexes = append(opts.mutexes, o.Mutexes...)
		sort.Strings(opts.mutexes)
	}

	if o.Times != nil {
		if *o.Times < 0 {
			return jobOpts{}, fmt.Errorf("%w: negative times %d", ErrInvalidArgument, *o.Times)
		}
		n := *o.Times
		opts.times = &n
	}

	switch v := o.Timeout.(type) {
	case nil:
	case time.Duration:
		opts.timeoutDur = v
	case time.Time:
		opts.timeoutAt = v
	case string:
		d, err := ParseDuration(v)
		if err != nil {
			return jobOpts{}, fmt.Errorf("%w: bad timeout: %v", ErrInvalidArgument, err)
		}
		opts.timeoutDur = d
	default:
		return jobOpts{}, fmt.Errorf("%w: unsupported timeout type %T", ErrInvalidArgument, o.Timeout)
	}

	var err error
	if opts.firstAt, err = resolveInstant("first", o.FirstAt, o.FirstIn, now); err != nil {
		return jobOpts{}, err
	}
	if opts.lastAt, err = resolveInstant("last", o.LastAt, o.LastIn, now); err != nil {
		return jobOpts{}, err
	}
	return opts, nil
}

// resolveInstant merges the At / In variants of a bound option into an
// absolute instant. At wins when both are given.
func resolveInstant(label string, at, in any, now time.Time) (time.Time, error) {
	if at != nil {
		t, err := ParseTime(at)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad %s_at: %v", ErrInvalidArgument, label, err)
		}
		return t, nil
	}
	if in != nil {
		d, err := resolveDuration(in)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad %s_in: %v", ErrInvalidArgument, label, err)
		}
		return now.Add(d), nil
	}
	return time.Time{}, nil
}

// resolveDuration accepts a time.Duration or a duration string.
func resolveDuration(spec any) (time.Duration, error) {
	switch v := spec.(type) {
	case time.Duration:
		return v, nil
	case string:
		return ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("%w: unsupported duration type %T", ErrInvalidArgument, spec)
	}
}
