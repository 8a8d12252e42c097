package util

import (
	"strconv"
	"time"
)

// isoLocal is the zone-less ISO layout some APIs emit (Python isoformat()).
const isoLocal = "2006-01-02T15:04:05.999999999"

// ParseTime tries RFC3339, RFC3339Nano, zone-less ISO (read as UTC) and unix
// seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, isoLocal} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ResolveRange turns optional from/to query values into a closed range ending
// at now and spanning lookback when from is absent. Reversed bounds are swapped.
func ResolveRange(from, to string, lookback time.Duration, now time.Time) (time.Time, time.Time) {
	end := ParseTimeDefault(to, now)
	start := ParseTimeDefault(from, end.Add(-lookback))
	if start.After(end) {
		start, end = end, start
	}
	return start, end
}
