package logger

import (
	"fmt"
	"testing"
	"time"
)

func entry(i int) Entry {
	return Entry{
		Timestamp: time.Now(),
		JobName:   "job",
		Stream:    "stdout",
		Message:   fmt.Sprintf("line %d", i),
	}
}

func TestBuffer_AddAndAll(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 3; i++ {
		b.Add(entry(i))
	}

	all := b.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, e := range all {
		if e.Message != fmt.Sprintf("line %d", i) {
			t.Errorf("entry %d = %q, out of order", i, e.Message)
		}
	}
}

func TestBuffer_WrapAround(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Add(entry(i))
	}

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	all := b.All()
	want := []string{"line 2", "line 3", "line 4"}
	for i, e := range all {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestBuffer_Recent(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 5; i++ {
		b.Add(entry(i))
	}

	recent := b.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	if recent[0].Message != "line 3" || recent[1].Message != "line 4" {
		t.Errorf("Recent(2) = %v, want the last two lines", recent)
	}

	if got := b.Recent(0); len(got) != 5 {
		t.Errorf("Recent(0) len = %d, want all entries", len(got))
	}
}

func TestNew_LevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		for _, format := range []string{"text", "json"} {
			if log := New(level, format); log == nil {
				t.Errorf("New(%q, %q) returned nil", level, format)
			}
		}
	}
}
