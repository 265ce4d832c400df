// README: Parking event aggregate and lifecycle definitions.
package event

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"parking/internal/types"
)

type Type string

const (
	TypeEntry  Type = "ENTRY"
	TypeParked Type = "PARKED"
	TypeExit   Type = "EXIT"
)

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeEntry, TypeParked, TypeExit:
		return Type(s), true
	}
	return "", false
}

var (
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrNotFound          = errors.New("parking event not found")
	ErrActiveVisit       = errors.New("license plate already has an active visit")
	ErrSpotTaken         = errors.New("spot already holds a parked vehicle")
)

// ParkingEvent is one vehicle visit. The row is rewritten in place as the
// visit moves through ENTRY, PARKED and EXIT; EXIT is terminal.
type ParkingEvent struct {
	ID              types.ID
	LicensePlate    string
	Position        *types.Point
	EntryTime       time.Time
	ExitTime        *time.Time
	Type            Type
	PriceMultiplier decimal.Decimal
	AmountPaid      decimal.Decimal
	// BilledOn is the ledger date the fee was credited to. Set on EXIT.
	BilledOn *time.Time
}

// AllowedTransitions represents the visit lifecycle as code.
var AllowedTransitions = map[Type][]Type{
	TypeEntry:  {TypeParked},
	TypeParked: {TypeExit},
}

func CanTransition(from, to Type) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, t := range next {
		if t == to {
			return true
		}
	}
	return false
}

func NewEntry(id types.ID, plate string, entryTime time.Time) ParkingEvent {
	return ParkingEvent{
		ID:              id,
		LicensePlate:    plate,
		EntryTime:       entryTime,
		Type:            TypeEntry,
		PriceMultiplier: decimal.NewFromInt(1),
		AmountPaid:      decimal.Zero,
	}
}

func (e ParkingEvent) Active() bool {
	return e.Type != TypeExit
}

// Park returns the visit moved to PARKED at pos with the multiplier fixed.
func (e ParkingEvent) Park(pos types.Point, multiplier decimal.Decimal) (ParkingEvent, error) {
	if !CanTransition(e.Type, TypeParked) {
		return e, ErrInvalidTransition
	}
	p := pos
	e.Position = &p
	e.Type = TypeParked
	e.PriceMultiplier = multiplier
	return e, nil
}

// Exit returns the visit closed at exitTime with the fee recorded.
func (e ParkingEvent) Exit(exitTime time.Time, amount decimal.Decimal) (ParkingEvent, error) {
	if !CanTransition(e.Type, TypeExit) {
		return e, ErrInvalidTransition
	}
	t := exitTime
	e.ExitTime = &t
	e.Type = TypeExit
	e.AmountPaid = amount
	return e, nil
}

// Bill records the ledger date the fee of a closed visit is credited to.
func (e ParkingEvent) Bill(on time.Time) ParkingEvent {
	d := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)
	e.BilledOn = &d
	return e
}

// Select returns the first event of type t, or ErrNotFound.
func Select(events []ParkingEvent, t Type) (ParkingEvent, error) {
	for _, e := range events {
		if e.Type == t {
			return e, nil
		}
	}
	return ParkingEvent{}, ErrNotFound
}
