package pipeline

import (
	"testing"
	"time"
)

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 3, 15, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "daily at 3am",
			expr: "0 3 * * *",
			want: time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly on the first",
			expr: "0 3 1 * *",
			want: time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "every minute",
			expr: "* * * * *",
			want: time.Date(2026, 3, 15, 2, 31, 0, 0, time.UTC),
		},
		{
			name: "minute list",
			expr: "15,45 * * * *",
			want: time.Date(2026, 3, 15, 2, 45, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			if err != nil {
				t.Fatalf("nextCronTime(%q): %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("nextCronTime(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestNextCronTimeRejectsMalformed(t *testing.T) {
	for _, expr := range []string{"", "0 3 * *", "x 3 * * *", "0 3 * * * *"} {
		if _, err := nextCronTime(expr, time.Now()); err == nil {
			t.Errorf("nextCronTime(%q) expected error", expr)
		}
	}
}
