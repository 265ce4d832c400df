// README: In-memory ports for webhook handler tests.
package webhook

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"parking/internal/modules/event"
	"parking/internal/modules/lot"
	"parking/internal/modules/revenue"
	"parking/internal/modules/spotlock"
	"parking/internal/queue"
	"parking/internal/types"
)

type memEvents struct {
	mu    sync.Mutex
	rows  map[types.ID]event.ParkingEvent
	saves int
}

func newMemEvents() *memEvents {
	return &memEvents{rows: make(map[types.ID]event.ParkingEvent)}
}

func (m *memEvents) Save(_ context.Context, e *event.ParkingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Active() {
		for id, r := range m.rows {
			if id != e.ID && r.LicensePlate == e.LicensePlate && r.Active() {
				return event.ErrActiveVisit
			}
		}
	}
	if e.Type == event.TypeParked {
		for id, r := range m.rows {
			if id != e.ID && r.Type == event.TypeParked && *r.Position == *e.Position {
				return event.ErrSpotTaken
			}
		}
	}
	m.rows[e.ID] = *e
	m.saves++
	return nil
}

func (m *memEvents) sorted(keep func(event.ParkingEvent) bool) []event.ParkingEvent {
	var out []event.ParkingEvent
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out
}

func (m *memEvents) FindAllByLicensePlate(_ context.Context, plate string) ([]event.ParkingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(e event.ParkingEvent) bool { return e.LicensePlate == plate }), nil
}

func (m *memEvents) FindActiveByLicensePlate(_ context.Context, plate string) (*event.ParkingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.LicensePlate == plate && r.Active() {
			cp := r
			return &cp, nil
		}
	}
	return nil, event.ErrNotFound
}

func (m *memEvents) FindParkedByCoordinates(_ context.Context, pos types.Point) (*event.ParkingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Type == event.TypeParked && *r.Position == pos {
			cp := r
			return &cp, nil
		}
	}
	return nil, event.ErrNotFound
}

func (m *memEvents) parkedAt(pos types.Point) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.Type == event.TypeParked && *r.Position == pos {
			n++
		}
	}
	return n
}

func (m *memEvents) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memEvents) byPlate(plate string) []event.ParkingEvent {
	out, _ := m.FindAllByLicensePlate(context.Background(), plate)
	return out
}

type memLots struct {
	mu        sync.Mutex
	lots      map[types.Point]*lot.Lot
	open      bool
	checkedAt []time.Time
}

func (m *memLots) FindByCoordinates(_ context.Context, pos types.Point) (*lot.Lot, error) {
	l, ok := m.lots[pos]
	if !ok {
		return nil, lot.ErrNotFound
	}
	return l, nil
}

func (m *memLots) AnyOpen(_ context.Context, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkedAt = append(m.checkedAt, at)
	return m.open, nil
}

type stubPricer struct {
	multiplier decimal.Decimal
	err        error
}

func (s stubPricer) Multiplier(context.Context, types.Point) (decimal.Decimal, error) {
	return s.multiplier, s.err
}

type memRevenue struct {
	mu   sync.Mutex
	rows map[string]*revenue.Revenue
}

func newMemRevenue() *memRevenue {
	return &memRevenue{rows: make(map[string]*revenue.Revenue)}
}

func revKey(parkingID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", parkingID, revenue.FormatDate(date))
}

func (m *memRevenue) GetForDate(_ context.Context, parkingID int64, date time.Time) (*revenue.Revenue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[revKey(parkingID, date)]
	if !ok {
		return nil, revenue.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRevenue) Upsert(_ context.Context, r *revenue.Revenue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := revKey(r.ParkingID, r.Date)
	if existing, ok := m.rows[k]; ok {
		*r = *existing
		return nil
	}
	cp := *r
	m.rows[k] = &cp
	return nil
}

func (m *memRevenue) AddAmount(_ context.Context, parkingID int64, date time.Time, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[revKey(parkingID, date)]
	if !ok {
		return decimal.Zero, revenue.ErrNotFound
	}
	r.Amount = r.Amount.Add(amount)
	return r.Amount, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []queue.ExitedEvent
}

func (p *recordingPublisher) PublishExited(_ context.Context, e queue.ExitedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, e)
	return nil
}

var (
	today  = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	spotA1 = types.Point{Lat: -23.561684, Lng: -46.655981}
	spotA2 = types.Point{Lat: -23.561685, Lng: -46.655982}
)

func at(hour, minute int) *time.Time {
	t := today.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func ptr(f float64) *float64 { return &f }

type harness struct {
	events    *memEvents
	lots      *memLots
	locks     *spotlock.MemoryStore
	revenue   *memRevenue
	ledger    *revenue.Ledger
	publisher *recordingPublisher
	lotA      *lot.Lot

	entry  *EntryHandler
	parked *ParkedHandler
	exit   *ExitHandler
	disp   *Dispatcher
}

func newHarness(multiplier string) *harness {
	now := func() time.Time { return today.Add(12 * time.Hour) }
	lotA := &lot.Lot{
		ID:                   1,
		Sector:               "A",
		BasePrice:            decimal.RequireFromString("10.00"),
		MaxCapacity:          10,
		CloseHour:            23 * time.Hour,
		DurationLimitMinutes: 60,
	}
	h := &harness{
		events:    newMemEvents(),
		lots:      &memLots{lots: map[types.Point]*lot.Lot{spotA1: lotA, spotA2: lotA}, open: true},
		locks:     spotlock.NewMemoryStore(now),
		revenue:   newMemRevenue(),
		publisher: &recordingPublisher{},
		lotA:      lotA,
	}
	h.ledger = revenue.NewLedger(h.revenue, "BRL", time.UTC, now)
	cfg := Config{Currency: "BRL", Now: now}
	h.entry = NewEntryHandler(h.events, h.lots, cfg, nil)
	h.parked = NewParkedHandler(h.events, h.lots, stubPricer{multiplier: decimal.RequireFromString(multiplier)},
		h.locks, h.locks, h.ledger, cfg, nil)
	h.exit = NewExitHandler(h.events, h.lots, h.locks, h.ledger, h.publisher, cfg, nil)
	h.disp = NewDispatcher(h.entry, h.parked, h.exit, 10, nil)
	return h
}

func entryEvent(plate string, t *time.Time) Event {
	return Event{Type: event.TypeEntry, LicensePlate: plate, EntryTime: t}
}

func parkedEvent(plate, id string, pos types.Point) Event {
	return Event{Type: event.TypeParked, LicensePlate: plate, ID: id, Lat: ptr(pos.Lat), Lng: ptr(pos.Lng)}
}

func exitEvent(plate string, t *time.Time) Event {
	return Event{Type: event.TypeExit, LicensePlate: plate, ExitTime: t}
}

func (h *harness) revenueToday() decimal.Decimal {
	amt, _ := h.ledger.AmountFor(context.Background(), h.lotA.ID, today)
	return amt
}
