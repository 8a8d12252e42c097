package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	stamp := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2024-10-10T10:10:10Z", stamp, true},
		{"rfc3339 offset", "2024-10-10T15:40:10+05:30", stamp, true},
		{"zoneless iso", "2024-10-10T10:10:10.123456", stamp.Add(123456 * time.Microsecond), true},
		{"unix seconds", strconv.FormatInt(stamp.Unix(), 10), stamp, true},
		{"empty", "", time.Time{}, false},
		{"negative unix", "-5", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("", def))
	assert.Equal(t, def, ParseTimeDefault("not a time", def))
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	from, to := ResolveRange("", "", 24*time.Hour, now)
	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-24*time.Hour), from)

	from, to = ResolveRange("2025-01-02T12:00:00Z", "2025-01-01T12:00:00Z", time.Hour, now)
	assert.True(t, from.Before(to), "reversed bounds are swapped")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo world", 5))
	assert.Equal(t, "ok", Truncate("ok", 10))
	assert.Empty(t, Truncate("anything", 0))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "ZOMATO.NS", NormalizeSymbol("  zomato.ns "))
	assert.Empty(t, NormalizeSymbol("   "))
}
