package rufus

import (
	"regexp"
	"strings"
	"time"
)

// Candidate timezone identifiers embedded in time strings: "Europe/Sofia",
// "America/New_York", "UTC", "EST", ...
var tzTokenRe = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9\-+_]+(?:/[A-Za-z0-9\-+_]+)?\b`)

// Layouts tried when parsing the naive (timezone-stripped) remainder.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// Time-only layouts resolve against today's date in the target zone.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// ParseTime resolves a point-in-time spec to an absolute UTC instant.
//
// A time.Time is returned unchanged (in UTC). A string may embed at most
// one IANA timezone identifier or abbreviation ("2017-06-14 12:00
// Europe/Sofia"); the identifier is stripped, the remainder is parsed as a
// naive local date-time and converted through the recognised zone. Without
// a recognised zone the host's local zone is assumed.
func ParseTime(spec any) (time.Time, error) {
	switch v := spec.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeString(v)
	default:
		return time.Time{}, &InvalidTimeStringError{Spec: strings.TrimSpace(toString(spec))}
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func parseTimeString(s string) (time.Time, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &InvalidTimeStringError{Spec: orig}
	}

	// RFC 3339 carries its own offset.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	loc := time.Local
	if token, rest, ok := extractTimezone(s); ok {
		loc = token
		s = rest
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			now := time.Now().In(loc)
			t = time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
			return t.UTC(), nil
		}
	}
	return time.Time{}, &InvalidTimeStringError{Spec: orig}
}

// extractTimezone finds the first token in s that resolves to a known
// timezone, and returns the location along with s stripped of the token.
func extractTimezone(s string) (*time.Location, string, bool) {
	for _, token := range tzTokenRe.FindAllString(s, -1) {
		loc, err := time.LoadLocation(token)
		if err != nil {
			continue
		}
		rest := strings.Replace(s, token, "", 1)
		rest = strings.Join(strings.Fields(rest), " ")
		return loc, rest, true
	}
	return nil, s, false
}
