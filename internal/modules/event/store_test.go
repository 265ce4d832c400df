// README: Postgres-backed event store tests (require PARKING_TEST_DSN).
package event

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"parking/internal/testdb"
	"parking/internal/types"
)

func TestStoreUpsertLifecycle(t *testing.T) {
	store := NewStore(testdb.Open(t))
	ctx := context.Background()
	entry := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	e := NewEntry("ev-1", "ZUL0001", entry)
	if err := store.Save(ctx, &e); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	active, err := store.FindActiveByLicensePlate(ctx, "ZUL0001")
	if err != nil || active.ID != "ev-1" {
		t.Fatalf("find active: %v %v", active, err)
	}

	pos := types.Point{Lat: -23.561684, Lng: -46.655981}
	parked, _ := e.Park(pos, decimal.RequireFromString("1.25"))
	if err := store.Save(ctx, &parked); err != nil {
		t.Fatalf("save parked: %v", err)
	}
	recent, err := store.FindMostRecentByCoordinates(ctx, pos)
	if err != nil {
		t.Fatalf("find by coords: %v", err)
	}
	if recent.Type != TypeParked || !recent.PriceMultiplier.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("unexpected stored event: %+v", recent)
	}

	done, _ := parked.Exit(entry.Add(time.Hour), decimal.RequireFromString("12.50"))
	if err := store.Save(ctx, &done); err != nil {
		t.Fatalf("save exit: %v", err)
	}
	all, err := store.FindAllByLicensePlate(ctx, "ZUL0001")
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 || all[0].Type != TypeExit || !all[0].AmountPaid.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected one EXIT row, got %+v", all)
	}
	if _, err := store.FindActiveByLicensePlate(ctx, "ZUL0001"); err != ErrNotFound {
		t.Fatalf("expected no active visit, got %v", err)
	}
}

func TestStoreRejectsSecondActiveVisit(t *testing.T) {
	store := NewStore(testdb.Open(t))
	ctx := context.Background()

	first := NewEntry("ev-1", "ZUL0002", time.Now().UTC())
	if err := store.Save(ctx, &first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := NewEntry("ev-2", "ZUL0002", time.Now().UTC())
	if err := store.Save(ctx, &second); err != ErrActiveVisit {
		t.Fatalf("expected ErrActiveVisit, got %v", err)
	}
}

func TestStoreFindParkedIgnoresLaterExits(t *testing.T) {
	store := NewStore(testdb.Open(t))
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	pos := types.Point{Lat: 1.5, Lng: 2.5}

	// Y entered first but parked after X left; X's EXIT row has the later entry_time.
	early := NewEntry("ev-y", "PLATEY", day.Add(9*time.Hour))
	late := NewEntry("ev-x", "PLATEX", day.Add(11*time.Hour))
	for _, e := range []*ParkingEvent{&early, &late} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("save entry: %v", err)
		}
	}
	x, _ := late.Park(pos, decimal.NewFromInt(1))
	x, _ = x.Exit(day.Add(11*time.Hour+30*time.Minute), decimal.RequireFromString("10.00"))
	if err := store.Save(ctx, &x); err != nil {
		t.Fatalf("save exit: %v", err)
	}
	y, _ := early.Park(pos, decimal.NewFromInt(1))
	if err := store.Save(ctx, &y); err != nil {
		t.Fatalf("save parked: %v", err)
	}

	got, err := store.FindParkedByCoordinates(ctx, pos)
	if err != nil || got.ID != "ev-y" {
		t.Fatalf("expected ev-y parked, got %+v err=%v", got, err)
	}
	if _, err := store.FindParkedByCoordinates(ctx, types.Point{Lat: 9, Lng: 9}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for empty spot, got %v", err)
	}
}

func TestStoreRejectsSecondParkedOnSpot(t *testing.T) {
	store := NewStore(testdb.Open(t))
	ctx := context.Background()
	pos := types.Point{Lat: 1.5, Lng: 2.5}

	for i, plate := range []string{"PLATE1", "PLATE2"} {
		e := NewEntry(types.ID(plate), plate, time.Now().UTC())
		if err := store.Save(ctx, &e); err != nil {
			t.Fatalf("save entry: %v", err)
		}
		parked, _ := e.Park(pos, decimal.NewFromInt(1))
		err := store.Save(ctx, &parked)
		if i == 0 && err != nil {
			t.Fatalf("first park: %v", err)
		}
		if i == 1 && err != ErrSpotTaken {
			t.Fatalf("expected ErrSpotTaken, got %v", err)
		}
	}
}

func TestStoreKeepsBilledOn(t *testing.T) {
	store := NewStore(testdb.Open(t))
	ctx := context.Background()
	exitAt := time.Date(2025, 3, 9, 23, 58, 0, 0, time.UTC)

	e := NewEntry("ev-1", "ZUL0003", exitAt.Add(-time.Hour))
	parked, _ := e.Park(types.Point{Lat: 1.5, Lng: 2.5}, decimal.NewFromInt(1))
	done, _ := parked.Exit(exitAt, decimal.RequireFromString("10.00"))
	done = done.Bill(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, &done); err != nil {
		t.Fatalf("save: %v", err)
	}
	all, err := store.FindAllByLicensePlate(ctx, "ZUL0003")
	if err != nil || len(all) != 1 {
		t.Fatalf("find: %v %v", all, err)
	}
	if all[0].BilledOn == nil || all[0].BilledOn.Format("2006-01-02") != "2025-03-10" {
		t.Fatalf("unexpected billed_on %v", all[0].BilledOn)
	}
}
