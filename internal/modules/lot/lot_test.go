// README: Opening-hours and day-boundary tests.
package lot

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC)
}

func TestOpenAt(t *testing.T) {
	day := Lot{OpenHour: 8 * time.Hour, CloseHour: 22 * time.Hour}
	night := Lot{OpenHour: 22 * time.Hour, CloseHour: 6 * time.Hour}
	always := Lot{}

	cases := []struct {
		name string
		lot  Lot
		when time.Time
		want bool
	}{
		{"day before open", day, at(7, 59), false},
		{"day at open", day, at(8, 0), true},
		{"day midday", day, at(13, 30), true},
		{"day at close", day, at(22, 0), false},
		{"night late", night, at(23, 0), true},
		{"night early", night, at(5, 59), true},
		{"night at close", night, at(6, 0), false},
		{"night midday", night, at(12, 0), false},
		{"always open", always, at(3, 0), true},
	}
	for _, tc := range cases {
		if got := tc.lot.OpenAt(tc.when); got != tc.want {
			t.Errorf("%s: OpenAt = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAnyOpenAt(t *testing.T) {
	lots := []Lot{
		{Sector: "A", OpenHour: 8 * time.Hour, CloseHour: 12 * time.Hour},
		{Sector: "B", OpenHour: 14 * time.Hour, CloseHour: 18 * time.Hour},
	}
	if !AnyOpenAt(lots, at(9, 0)) {
		t.Errorf("expected A open at 09:00")
	}
	if !AnyOpenAt(lots, at(15, 0)) {
		t.Errorf("expected B open at 15:00")
	}
	if AnyOpenAt(lots, at(13, 0)) {
		t.Errorf("expected nothing open at 13:00")
	}
	if AnyOpenAt(nil, at(13, 0)) {
		t.Errorf("no lots means nothing open")
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	got := StartOfDay(time.Date(2025, 1, 2, 1, 30, 0, 0, time.UTC), loc)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("StartOfDay = %s, want %s", got, want)
	}
}
