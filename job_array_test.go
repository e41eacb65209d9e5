package rufus

import (
	"testing"
	"time"
)

// testJob builds a detached job with a fixed next time, for store tests.
func testJob(t *testing.T, s *Scheduler, next time.Time) *Job {
	t.Helper()
	job, err := newJob(s, KindAt, next.Format(time.RFC3339), func() {}, JobOptions{}, time.Now())
	if err != nil {
		t.Fatalf("newJob error = %v", err)
	}
	job.nextTime = next
	return job
}

func TestJobArray_SortedInsertion(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()
	base := time.Now()

	for _, offset := range []time.Duration{5, 1, 3, 2, 4} {
		a.Push(testJob(t, s, base.Add(offset*time.Second)))
	}

	jobs := a.ToSlice()
	if len(jobs) != 5 {
		t.Fatalf("len = %d, want 5", len(jobs))
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i-1].NextTime().After(jobs[i].NextTime()) {
			t.Fatalf("array not sorted at %d: %v > %v", i, jobs[i-1].NextTime(), jobs[i].NextTime())
		}
	}
}

func TestJobArray_StableForEqualTimes(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()
	at := time.Now()

	first := testJob(t, s, at)
	second := testJob(t, s, at)
	third := testJob(t, s, at)
	a.Push(first)
	a.Push(second)
	a.Push(third)

	jobs := a.ToSlice()
	if jobs[0] != first || jobs[1] != second || jobs[2] != third {
		t.Error("insertion order not preserved for equal next times")
	}
}

func TestJobArray_NoDuplicates(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()
	base := time.Now()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		a.Push(testJob(t, s, base.Add(time.Duration(i%3)*time.Second)))
	}
	for _, job := range a.ToSlice() {
		if seen[job.ID()] {
			t.Fatalf("duplicate job id %s", job.ID())
		}
		seen[job.ID()] = true
	}
}

func TestJobArray_ShiftDue(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()
	now := time.Now()

	past := testJob(t, s, now.Add(-time.Second))
	due := testJob(t, s, now)
	future := testJob(t, s, now.Add(time.Hour))
	a.Concat([]*Job{future, past, due})

	if got := a.ShiftDue(now); got != past {
		t.Errorf("first shift = %v, want earliest past job", got)
	}
	if got := a.ShiftDue(now); got != due {
		t.Errorf("second shift = %v, want due job", got)
	}
	if got := a.ShiftDue(now); got != nil {
		t.Errorf("third shift = %v, want nil (future job not due)", got)
	}
	if a.Len() != 1 {
		t.Errorf("len = %d, want 1", a.Len())
	}
}

func TestJobArray_DeleteUnscheduled(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()
	base := time.Now()

	keep := testJob(t, s, base.Add(time.Second))
	drop := testJob(t, s, base.Add(2*time.Second))
	a.Concat([]*Job{keep, drop})

	drop.Unschedule()
	a.DeleteUnscheduled()

	jobs := a.ToSlice()
	if len(jobs) != 1 || jobs[0] != keep {
		t.Errorf("after sweep jobs = %v, want only the kept job", jobs)
	}
}

func TestJobArray_Lookup(t *testing.T) {
	s := NewScheduler(Options{})
	a := NewJobArray()

	job := testJob(t, s, time.Now().Add(time.Second))
	a.Push(job)

	if got := a.Lookup(job.ID()); got != job {
		t.Errorf("Lookup(%q) = %v, want the job", job.ID(), got)
	}
	if got := a.Lookup("unknown"); got != nil {
		t.Errorf("Lookup(unknown) = %v, want nil", got)
	}
}
