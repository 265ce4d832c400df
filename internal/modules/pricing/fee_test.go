// README: Fee tests (proportional charge, half-up rounding, duration limits).
package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFee(t *testing.T) {
	base := decimal.RequireFromString("10.00")
	day := func(h, m int) time.Time { return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		entry      time.Time
		exit       time.Time
		multiplier string
		want       string
	}{
		{"One hour", day(10, 0), day(11, 0), "1.0", "10.00"},
		{"Half hour", day(10, 0), day(10, 30), "1.0", "5.00"},
		{"Two and a half hours", day(10, 0), day(12, 30), "1.0", "25.00"},
		{"One hour at top tier", day(10, 0), day(11, 0), "1.25", "12.50"},
		{"One hour at lowest tier", day(10, 0), day(11, 0), "0.9", "9.00"},
		{"Zero minutes", day(10, 0), day(10, 0), "1.0", "0.00"},
		// 20/60 = 0.3333333333 periods -> 3.333333333 -> 3.33
		{"Twenty minutes", day(10, 0), day(10, 20), "1.0", "3.33"},
		// 40/60 = 0.6666666667 periods -> 6.666666667 -> 6.67
		{"Forty minutes", day(10, 0), day(10, 40), "1.0", "6.67"},
		// seconds are dropped before dividing
		{"Partial minute", day(10, 0), day(10, 0).Add(59 * time.Second), "1.0", "0.00"},
		{"No cap on periods", day(0, 0), day(0, 0).Add(48 * time.Hour), "1.0", "480.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fee(tt.entry, tt.exit, base, 60, decimal.RequireFromString(tt.multiplier))
			if err != nil {
				t.Fatalf("Fee() error = %v", err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("Fee() = %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestFeeIsPure(t *testing.T) {
	entry := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(97 * time.Minute)
	base := decimal.RequireFromString("7.35")
	mult := decimal.RequireFromString("1.1")

	first, _ := Fee(entry, exit, base, 45, mult)
	for i := 0; i < 100; i++ {
		got, _ := Fee(entry, exit, base, 45, mult)
		if !got.Equal(first) {
			t.Fatalf("Fee() not deterministic: %s vs %s", got, first)
		}
	}
}

func TestFeeMonotonic(t *testing.T) {
	entry := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	base := decimal.RequireFromString("10.00")
	prev := decimal.Zero
	for m := 0; m <= 600; m++ {
		got, _ := Fee(entry, entry.Add(time.Duration(m)*time.Minute), base, 60, decimal.NewFromInt(1))
		if got.LessThan(prev) {
			t.Fatalf("fee decreased at %d minutes: %s < %s", m, got, prev)
		}
		prev = got
	}
}

func TestFeeRejectsZeroDurationLimit(t *testing.T) {
	now := time.Now()
	if _, err := Fee(now, now, decimal.NewFromInt(10), 0, decimal.NewFromInt(1)); err != ErrInvalidDurationLimit {
		t.Fatalf("expected ErrInvalidDurationLimit, got %v", err)
	}
}
