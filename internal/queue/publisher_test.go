// README: Publisher selection and payload shape tests.
package queue

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewPublisherWithoutURLIsNop(t *testing.T) {
	p := NewPublisher("", nil)
	if _, ok := p.(Nop); !ok {
		t.Fatalf("expected Nop publisher, got %T", p)
	}
	if err := p.PublishExited(context.Background(), ExitedEvent{}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}

func TestExitedEventFieldNames(t *testing.T) {
	raw, err := json.Marshal(ExitedEvent{LicensePlate: "ZUL0001", AmountPaid: "12.50", Currency: "BRL"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["license_plate"] != "ZUL0001" || m["amount_paid"] != "12.50" || m["currency"] != "BRL" {
		t.Fatalf("unexpected payload %s", raw)
	}
}
