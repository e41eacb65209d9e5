package rufus

import (
	"sort"
	"sync"
	"time"
)

// JobArray is the scheduler's job store: a mutex-guarded sequence kept
// sorted ascending by next fire time. Among jobs with equal next times,
// insertion order is preserved, which fixes the triggering order.
type JobArray struct {
	mu   sync.Mutex
	jobs []*Job
}

// NewJobArray returns an empty job store.
func NewJobArray() *JobArray {
	return &JobArray{}
}

// Push inserts the job at the position determined by binary search on its
// next fire time.
func (a *JobArray) Push(job *Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushLocked(job)
}

// Concat bulk-inserts jobs under a single critical section.
func (a *JobArray) Concat(jobs []*Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, job := range jobs {
		a.pushLocked(job)
	}
}

func (a *JobArray) pushLocked(job *Job) {
	next := job.NextTime()
	i := sort.Search(len(a.jobs), func(i int) bool {
		return a.jobs[i].NextTime().After(next)
	})
	a.jobs = append(a.jobs, nil)
	copy(a.jobs[i+1:], a.jobs[i:])
	a.jobs[i] = job
}

// ShiftDue removes and returns the earliest job if it is due at now, nil
// otherwise. Callers loop until nil to drain all due jobs in order.
func (a *JobArray) ShiftDue(now time.Time) *Job {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.jobs) == 0 {
		return nil
	}
	first := a.jobs[0]
	if first.NextTime().After(now) {
		return nil
	}
	a.jobs = a.jobs[1:]
	return first
}

// DeleteUnscheduled removes every job marked unscheduled.
func (a *JobArray) DeleteUnscheduled() {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.jobs[:0]
	for _, job := range a.jobs {
		if !job.unscheduled() {
			kept = append(kept, job)
		}
	}
	for i := len(kept); i < len(a.jobs); i++ {
		a.jobs[i] = nil
	}
	a.jobs = kept
}

// ToSlice returns a snapshot copy of the store.
func (a *JobArray) ToSlice() []*Job {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Job, len(a.jobs))
	copy(out, a.jobs)
	return out
}

// Lookup scans for a job by id; nil when absent.
func (a *JobArray) Lookup(id string) *Job {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, job := range a.jobs {
		if job.id == id {
			return job
		}
	}
	return nil
}

// Len returns the number of stored jobs.
func (a *JobArray) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.jobs)
}
