// README: Message payloads published to the broker.
package queue

const ExitedQueue = "parking.exited"

// ExitedEvent is published after a visit is closed and billed.
type ExitedEvent struct {
	EventID         string  `json:"event_id"`
	LicensePlate    string  `json:"license_plate"`
	ParkingID       int64   `json:"parking_id"`
	Sector          string  `json:"sector"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	EntryTime       string  `json:"entry_time"`
	ExitTime        string  `json:"exit_time"`
	PriceMultiplier string  `json:"price_multiplier"`
	AmountPaid      string  `json:"amount_paid"`
	Currency        string  `json:"currency"`
}
