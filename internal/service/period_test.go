package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "mid month",
			start:  time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 28",
			start:  time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 29 in leap year",
			start:  time.Date(2028, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "march 31 clamps to april 30",
			start:  time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "december rolls the year",
			start:  time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2027, 1, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "several months",
			start:  time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			months: 6,
			want:   time.Date(2027, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "zero months",
			start:  time.Date(2026, 5, 5, 5, 5, 5, 5, time.UTC),
			months: 0,
			want:   time.Date(2026, 5, 5, 5, 5, 5, 5, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAddMonths_AlwaysAfterStart(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 366; d++ {
		day := start.AddDate(0, 0, d)
		assert.True(t, AddMonths(day, 1).After(day), "day %s", day)
	}
}
