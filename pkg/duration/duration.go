// Package duration parses and formats durations with calendar units on
// top of time.ParseDuration. Cache TTLs are naturally written in days or
// weeks ("7d", "2 weeks"), which the standard parser stops short of.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Day is 24 hours.
	Day = 24 * time.Hour
	// Week is 7 days.
	Week = 7 * Day
)

// calendarUnit matches a day or week component, with optional whitespace
// between the number and the unit: "7d", "7 days", "2weeks".
var calendarUnit = regexp.MustCompile(`(?i)(\d+)\s*(weeks?|wks?|w|days?|d)\b`)

// Parse reads a duration string. Day ("d", "day", "days") and week ("w",
// "wk", "week", "weeks") components are accepted in addition to everything
// time.ParseDuration understands, and components may be separated by
// spaces: "1w 2d 12h" and "1w2d12h" are equivalent.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	var days int64
	rest := calendarUnit.ReplaceAllStringFunc(s, func(m string) string {
		parts := calendarUnit.FindStringSubmatch(m)
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return m
		}
		if strings.HasPrefix(strings.ToLower(parts[2]), "w") {
			n *= 7
		}
		days += n
		return ""
	})
	rest = strings.Join(strings.Fields(rest), "")

	d := time.Duration(days) * Day
	if rest != "" {
		tail, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		d += tail
	}

	if negative {
		d = -d
	}
	return d, nil
}

var formatUnits = []struct {
	name string
	size time.Duration
}{
	{"w", Week},
	{"d", Day},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
	{"µs", time.Microsecond},
	{"ns", time.Nanosecond},
}

// Format renders a duration using the largest round units, week down to
// nanosecond, omitting zero components: 8 days becomes "1w1d", 90 seconds
// becomes "1m30s".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	for _, u := range formatUnits {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.name)
			d -= n * u.size
		}
	}
	return b.String()
}
