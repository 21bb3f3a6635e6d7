package jobs

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{input: "10:05", want: Clock{Hour: 10, Minute: 5}},
		{input: "00:00", want: Clock{}},
		{input: "23:59", want: Clock{Hour: 23, Minute: 59}},
		{input: "24:00", wantErr: true},
		{input: "10", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q): expected error=%v, got %v", tt.input, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestClockNextRun(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	clock := Clock{Hour: 10, Minute: 5}

	tests := []struct {
		name     string
		after    time.Time
		expected time.Time
	}{
		{
			name:     "earlier same day",
			after:    time.Date(2025, 10, 14, 9, 0, 0, 0, loc),
			expected: time.Date(2025, 10, 14, 10, 5, 0, 0, loc),
		},
		{
			name:     "exactly at schedule",
			after:    time.Date(2025, 10, 14, 10, 5, 0, 0, loc),
			expected: time.Date(2025, 10, 15, 10, 5, 0, 0, loc),
		},
		{
			name:     "later same day",
			after:    time.Date(2025, 10, 14, 18, 0, 0, 0, loc),
			expected: time.Date(2025, 10, 15, 10, 5, 0, 0, loc),
		},
		{
			name:     "end of month",
			after:    time.Date(2025, 10, 31, 11, 0, 0, 0, loc),
			expected: time.Date(2025, 11, 1, 10, 5, 0, 0, loc),
		},
		{
			name:     "after given in UTC",
			after:    time.Date(2025, 10, 14, 4, 0, 0, 0, time.UTC), // 09:30 IST
			expected: time.Date(2025, 10, 14, 10, 5, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clock.NextRun(tt.after, loc)
			if !got.Equal(tt.expected) {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
