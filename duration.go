package rufus

import (
	"strconv"
	"strings"
	"time"
)

// Duration string units, largest first. Months are approximated as 30 days
// and years as 365 days; both are accepted on parse but only years are
// emitted when formatting.
var durationUnits = []struct {
	suffix byte
	secs   float64
}{
	{'y', 365 * 24 * 3600},
	{'M', 30 * 24 * 3600},
	{'w', 7 * 24 * 3600},
	{'d', 24 * 3600},
	{'h', 3600},
	{'m', 60},
	{'s', 1},
}

func unitSeconds(suffix byte) (float64, bool) {
	for _, u := range durationUnits {
		if u.suffix == suffix {
			return u.secs, true
		}
	}
	return 0, false
}

// ParseDuration parses a compact duration string like "1h10s", "1w2d" or
// "-0.5" into a time.Duration.
//
// The grammar is a sign followed by one or more NUMBER UNIT pairs, with
// units y, M, w, d, h, m, s and ms. A trailing number without a unit
// counts as seconds. A bare number is interpreted as seconds whether or
// not it has a fractional part ("500" is 500 seconds, "0.5" is half a
// second).
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &InvalidDurationError{Spec: orig}
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, &InvalidDurationError{Spec: orig}
	}

	var total float64
	for len(s) > 0 {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, &InvalidDurationError{Spec: orig}
		}
		n, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, &InvalidDurationError{Spec: orig}
		}
		if i == len(s) {
			// Trailing bare number counts as seconds.
			total += n
			break
		}
		if s[i] == 'm' && i+1 < len(s) && s[i+1] == 's' {
			total += n / 1000
			s = s[i+2:]
			continue
		}
		secs, ok := unitSeconds(s[i])
		if !ok {
			return 0, &InvalidDurationError{Spec: orig}
		}
		total += n * secs
		s = s[i+1:]
	}

	if neg {
		total = -total
	}
	return time.Duration(total * float64(time.Second)), nil
}

// MustParseDuration is ParseDuration that panics on error. Intended for
// literals in tests and initialisation code.
func MustParseDuration(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDuration renders a duration in the compact string form, using the
// largest fitting units: "1h1m1s", "1w", "-1h". Sub-second remainders are
// emitted as fractional seconds ("0.5s"). The zero duration is "0s".
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	secs := d.Seconds()
	if secs < 0 {
		b.WriteByte('-')
		secs = -secs
	}

	for _, u := range durationUnits {
		if u.suffix == 'M' || u.suffix == 's' {
			continue // months are never emitted; seconds handled below
		}
		if n := int64(secs / u.secs); n > 0 {
			b.WriteString(strconv.FormatInt(n, 10))
			b.WriteByte(u.suffix)
			secs -= float64(n) * u.secs
		}
	}

	if secs > 0 {
		b.WriteString(strconv.FormatFloat(secs, 'f', -1, 64))
		b.WriteByte('s')
	}
	return b.String()
}
