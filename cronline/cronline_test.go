package cronline

import (
	"errors"
	"testing"
	"time"
)

func mustParse(t *testing.T, expr string) *Line {
	t.Helper()
	line, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", expr, err)
	}
	return line
}

func TestParse_FieldCounts(t *testing.T) {
	if _, err := Parse("* * * * *"); err != nil {
		t.Errorf("5 fields should parse: %v", err)
	}
	if _, err := Parse("* * * * * *"); err != nil {
		t.Errorf("6 fields should parse: %v", err)
	}
	for _, expr := range []string{"", "*", "* *", "* * * *", "* * * * * * *"} {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) expected error", expr)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"60 * * * *",    // minute out of range
		"* 24 * * *",    // hour out of range
		"* * 0 * *",     // day of month out of range
		"* * 32 * *",    // day of month out of range
		"* * * 13 *",    // month out of range
		"* * * * 8",     // weekday out of range
		"*/0 * * * *",   // zero step
		"5-1 * * * *",   // inverted range
		"x * * * *",     // garbage
		"* * * * * Nowhere/City", // unknown timezone
	}
	for _, expr := range tests {
		_, err := Parse(expr)
		if err == nil {
			t.Errorf("Parse(%q) expected error", expr)
			continue
		}
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalid", expr, err)
		}
	}
}

func TestParse_NamesAndAliases(t *testing.T) {
	line := mustParse(t, "0 9 * jan-mar mon-fri")
	at := time.Date(2024, 2, 5, 9, 0, 0, 0, time.Local) // a Monday in February
	if !line.Matches(at) {
		t.Errorf("expected %v to match", at)
	}
	off := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local) // June is out of range
	if line.Matches(off) {
		t.Errorf("expected %v not to match", off)
	}
}

func TestParse_SundayBothForms(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 0, 0, 0, 0, time.Local)
	for _, expr := range []string{"0 0 * * 0", "0 0 * * 7", "0 0 * * sun"} {
		line := mustParse(t, expr)
		if !line.Matches(sunday) {
			t.Errorf("Parse(%q): expected Sunday to match", expr)
		}
	}
}

func TestNextTime_EveryFiveMinutes(t *testing.T) {
	line := mustParse(t, "*/5 * * * *")
	from := time.Date(2024, 6, 14, 12, 2, 0, 0, time.Local)

	next, err := line.NextTime(from)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := time.Date(2024, 6, 14, 12, 5, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextTime = %v, want %v", next, want)
	}

	for _, min := range []int{10, 15} {
		next, err = line.NextTime(next)
		if err != nil {
			t.Fatalf("NextTime error = %v", err)
		}
		want = time.Date(2024, 6, 14, 12, min, 0, 0, time.Local)
		if !next.Equal(want) {
			t.Errorf("NextTime = %v, want %v", next, want)
		}
	}
}

func TestNextTime_StrictlyAfter(t *testing.T) {
	line := mustParse(t, "0 12 * * *")
	noon := time.Date(2024, 6, 14, 12, 0, 0, 0, time.Local)

	next, err := line.NextTime(noon)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := noon.AddDate(0, 0, 1)
	if !next.Equal(want) {
		t.Errorf("NextTime(%v) = %v, want next day", noon, next)
	}
}

func TestNextTime_SecondsField(t *testing.T) {
	line := mustParse(t, "*/15 * * * * *")
	from := time.Date(2024, 6, 14, 12, 0, 1, 0, time.Local)

	next, err := line.NextTime(from)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := time.Date(2024, 6, 14, 12, 0, 15, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextTime = %v, want %v", next, want)
	}
}

func TestNextTime_MonthRollover(t *testing.T) {
	line := mustParse(t, "0 0 1 * *")
	from := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)

	next, err := line.NextTime(from)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextTime = %v, want %v", next, want)
	}
}

func TestNextTime_LeapDay(t *testing.T) {
	line := mustParse(t, "0 0 29 2 *")
	from := time.Date(2023, 3, 1, 0, 0, 0, 0, time.Local)

	next, err := line.NextTime(from)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextTime = %v, want %v", next, want)
	}
}

func TestNextTime_ImpossibleDate(t *testing.T) {
	line := mustParse(t, "0 0 30 2 *")
	_, err := line.NextTime(time.Now())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("NextTime error = %v, want ErrUnreachable", err)
	}
}

func TestNextTime_Timezone(t *testing.T) {
	line, err := Parse("0 9 * * * Europe/Sofia")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	sofia := line.Location()
	from := time.Date(2024, 6, 14, 1, 0, 0, 0, time.UTC)

	next, err := line.NextTime(from)
	if err != nil {
		t.Fatalf("NextTime error = %v", err)
	}
	want := time.Date(2024, 6, 14, 9, 0, 0, 0, sofia)
	if !next.Equal(want) {
		t.Errorf("NextTime = %v, want %v", next, want)
	}
}

func TestDayOfMonthOrDayOfWeek(t *testing.T) {
	// Standard cron: when both dom and dow are restricted, either matches.
	line := mustParse(t, "0 0 13 * fri")

	friday := time.Date(2024, 6, 7, 0, 0, 0, 0, time.Local)      // Friday, not the 13th
	thirteenth := time.Date(2024, 6, 13, 0, 0, 0, 0, time.Local) // Thursday the 13th
	other := time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local)

	if !line.Matches(friday) {
		t.Errorf("expected Friday %v to match", friday)
	}
	if !line.Matches(thirteenth) {
		t.Errorf("expected the 13th %v to match", thirteenth)
	}
	if line.Matches(other) {
		t.Errorf("expected %v not to match", other)
	}
}

func TestMatches_SecondsDefaultZero(t *testing.T) {
	line := mustParse(t, "* * * * *")
	onTheSecond := time.Date(2024, 6, 14, 12, 0, 0, 0, time.Local)
	offSecond := onTheSecond.Add(30 * time.Second)

	if !line.Matches(onTheSecond) {
		t.Errorf("expected %v to match", onTheSecond)
	}
	if line.Matches(offSecond) {
		t.Errorf("expected %v not to match (seconds default to 0)", offSecond)
	}
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		expr string
		want time.Duration
	}{
		{"* * * * * *", time.Second},
		{"*/5 * * * *", 5 * time.Minute},
		{"0 * * * *", time.Hour},
		{"0 0 * * *", 24 * time.Hour},
	}
	for _, tt := range tests {
		line := mustParse(t, tt.expr)
		got, err := line.Frequency(time.Date(2024, 6, 10, 0, 0, 30, 0, time.Local))
		if err != nil {
			t.Errorf("Frequency(%q) error = %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Frequency(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestLists_And_Steps(t *testing.T) {
	line := mustParse(t, "0,30 8-10 * * *")
	for _, tc := range []struct {
		t    time.Time
		want bool
	}{
		{time.Date(2024, 6, 14, 8, 0, 0, 0, time.Local), true},
		{time.Date(2024, 6, 14, 9, 30, 0, 0, time.Local), true},
		{time.Date(2024, 6, 14, 10, 30, 0, 0, time.Local), true},
		{time.Date(2024, 6, 14, 11, 0, 0, 0, time.Local), false},
		{time.Date(2024, 6, 14, 8, 15, 0, 0, time.Local), false},
	} {
		if got := line.Matches(tc.t); got != tc.want {
			t.Errorf("Matches(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}

	stepped := mustParse(t, "10-30/10 * * * *")
	if !stepped.Matches(time.Date(2024, 6, 14, 0, 20, 0, 0, time.Local)) {
		t.Error("expected minute 20 to match 10-30/10")
	}
	if stepped.Matches(time.Date(2024, 6, 14, 0, 15, 0, 0, time.Local)) {
		t.Error("expected minute 15 not to match 10-30/10")
	}
}

func TestOriginal(t *testing.T) {
	expr := "*/5 * * * *"
	if got := mustParse(t, expr).Original(); got != expr {
		t.Errorf("Original() = %q, want %q", got, expr)
	}
}
