// README: Webhook handler decodes garage deliveries and hands them to the dispatcher.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"parking/internal/modules/event"
	"parking/internal/modules/webhook"
)

type Dispatcher interface {
	Execute(ctx context.Context, in webhook.Event) error
}

type WebhookHandler struct {
	dispatcher Dispatcher
	loc        *time.Location
}

func NewWebhookHandler(dispatcher Dispatcher, loc *time.Location) *WebhookHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookHandler{dispatcher: dispatcher, loc: loc}
}

type webhookReq struct {
	LicensePlate string   `json:"license_plate"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	EntryTime    string   `json:"entry_time"`
	ExitTime     string   `json:"exit_time"`
	EventType    string   `json:"event_type"`
	ID           string   `json:"id"`
}

// timestampLayouts are tried in order; zone-less values use the handler's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (h *WebhookHandler) parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, h.loc)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Receive answers 202 with an empty body once the event is applied.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req webhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, webhook.ErrInvalidRequest)
		return
	}
	typ, ok := event.ParseType(strings.ToUpper(strings.TrimSpace(req.EventType)))
	if !ok {
		writeError(c, webhook.ErrInvalidEventType)
		return
	}
	entryTime, err := h.parseTime(req.EntryTime)
	if err != nil {
		writeError(c, webhook.ErrInvalidRequest)
		return
	}
	exitTime, err := h.parseTime(req.ExitTime)
	if err != nil {
		writeError(c, webhook.ErrInvalidRequest)
		return
	}

	in := webhook.Event{
		ID:           req.ID,
		LicensePlate: strings.TrimSpace(req.LicensePlate),
		Lat:          req.Lat,
		Lng:          req.Lng,
		EntryTime:    entryTime,
		ExitTime:     exitTime,
		Type:         typ,
	}
	if err := h.dispatcher.Execute(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
