// README: Concurrency tests for PARKED claims and spot locks (run with -race).
package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"parking/internal/modules/event"
)

func TestConcurrentParkedSameEventID(t *testing.T) {
	h := newHarness("1.0")
	ctx := context.Background()
	if err := h.entry.Handle(ctx, entryEvent("ZUL0001", at(10, 0))); err != nil {
		t.Fatalf("entry: %v", err)
	}
	savesBefore := h.events.saveCount()

	const n = 20
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- h.disp.Execute(ctx, parkedEvent("ZUL0001", "evt-shared", spotA1))
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrDuplicateEvent) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
	if got := h.events.saveCount() - savesBefore; got != 1 {
		t.Fatalf("expected one mutation of the entry row, got %d", got)
	}
	if h.events.byPlate("ZUL0001")[0].Type != event.TypeParked {
		t.Fatalf("visit should be parked")
	}
}

func TestConcurrentParkedSameSpotDifferentPlates(t *testing.T) {
	h := newHarness("1.0")
	ctx := context.Background()
	plates := []string{"ZUL0001", "ZUL0002"}
	for _, p := range plates {
		if err := h.entry.Handle(ctx, entryEvent(p, at(10, 0))); err != nil {
			t.Fatalf("entry %s: %v", p, err)
		}
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, len(plates))
	for i, p := range plates {
		wg.Add(1)
		go func(plate, id string) {
			defer wg.Done()
			<-start
			errs <- h.parked.Handle(ctx, parkedEvent(plate, id, spotA1))
		}(p, fmt.Sprintf("evt-%d", i))
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrSpotOccupied) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
}

func TestConcurrentVisitsDifferentSpots(t *testing.T) {
	h := newHarness("1.0")
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 2)
	for i, spot := range []struct {
		plate string
		exit  int
	}{{"ZUL0001", 54}, {"ZUL0002", 30}} {
		pos := spotA1
		if i == 1 {
			pos = spotA2
		}
		wg.Add(1)
		go func(plate string, exitMin int) {
			defer wg.Done()
			<-start
			for _, in := range []Event{
				entryEvent(plate, at(9, 0)),
				parkedEvent(plate, "evt-"+plate, pos),
				exitEvent(plate, at(9, exitMin)),
			} {
				if err := h.disp.Execute(ctx, in); err != nil {
					errs <- fmt.Errorf("%s %s: %w", plate, in.Type, err)
					return
				}
			}
		}(spot.plate, spot.exit)
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.revenueToday().StringFixed(2); got != "14.00" {
		t.Fatalf("expected revenue 14.00, got %s", got)
	}
}

func TestConcurrentDuplicateExitCreditsOnce(t *testing.T) {
	h := newHarness("1.0")
	ctx := context.Background()

	const rounds = 50
	const deliveries = 4
	for r := 0; r < rounds; r++ {
		plate := fmt.Sprintf("ZUL%04d", r)
		for _, in := range []Event{
			entryEvent(plate, at(10, 0)),
			parkedEvent(plate, "evt-"+plate, spotA1),
		} {
			if err := h.disp.Execute(ctx, in); err != nil {
				t.Fatalf("%s %s: %v", plate, in.Type, err)
			}
		}

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make(chan error, deliveries)
		for i := 0; i < deliveries; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				errs <- h.disp.Execute(ctx, exitEvent(plate, at(11, 0)))
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		success := 0
		for err := range errs {
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrDuplicateEvent), errors.Is(err, ErrNoParkedEventFound):
			default:
				t.Fatalf("round %d: unexpected error: %v", r, err)
			}
		}
		if success != 1 {
			t.Fatalf("round %d: expected exactly 1 exit, got %d", r, success)
		}
	}

	want := decimal.NewFromInt(10 * rounds)
	if got := h.revenueToday(); !got.Equal(want) {
		t.Fatalf("expected revenue %s, got %s", want, got)
	}
	if len(h.publisher.sent) != rounds {
		t.Fatalf("expected %d exit notifications, got %d", rounds, len(h.publisher.sent))
	}
}
