package cli

import (
	"testing"
	"time"
)

func TestUntilNext(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Duration
	}{
		{
			name: "later today",
			now:  time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC),
			hour: 2, minute: 0,
			want: time.Hour,
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC),
			hour: 2, minute: 0,
			want: 23 * time.Hour,
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC),
			hour: 2, minute: 0,
			want: 24 * time.Hour,
		},
		{
			name: "minutes count",
			now:  time.Date(2024, 3, 15, 2, 15, 0, 0, time.UTC),
			hour: 2, minute: 30,
			want: 15 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := untilNext(tt.now, tt.hour, tt.minute); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
