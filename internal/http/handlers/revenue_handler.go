// README: Revenue handler reports a sector's ledger total for one day.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"parking/internal/apperr"
	"parking/internal/modules/lot"
	"parking/internal/modules/revenue"
	"parking/internal/modules/webhook"
	"parking/internal/types"
)

var (
	errMissingSector = apperr.New("PRK-400-002", apperr.CategoryValidation, http.StatusBadRequest, "sector is required", "invalid_request")
	errInvalidDate   = apperr.New("PRK-400-003", apperr.CategoryValidation, http.StatusBadRequest, "date must be YYYY-MM-DD", "invalid_date")
)

type SectorFinder interface {
	FindBySector(ctx context.Context, sector string) (*lot.Lot, error)
}

type AmountReader interface {
	AmountFor(ctx context.Context, parkingID int64, date time.Time) (decimal.Decimal, error)
	Today() time.Time
	Location() *time.Location
}

type RevenueHandler struct {
	lots     SectorFinder
	ledger   AmountReader
	currency string
}

func NewRevenueHandler(lots SectorFinder, ledger AmountReader, currency string) *RevenueHandler {
	return &RevenueHandler{lots: lots, ledger: ledger, currency: currency}
}

type revenueResp struct {
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Timestamp time.Time   `json:"timestamp"`
}

// Get serves GET /revenue?sector=A&date=2025-01-01. date defaults to today;
// a day with no ledger row reports zero.
func (h *RevenueHandler) Get(c *gin.Context) {
	sector := c.Query("sector")
	if sector == "" {
		writeError(c, errMissingSector)
		return
	}
	date := h.ledger.Today()
	if raw := c.Query("date"); raw != "" {
		d, err := revenue.ParseDate(raw, h.ledger.Location())
		if err != nil {
			writeError(c, errInvalidDate)
			return
		}
		date = d
	}

	l, err := h.lots.FindBySector(c.Request.Context(), sector)
	if errors.Is(err, lot.ErrNotFound) {
		writeError(c, webhook.ErrLotNotFound)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	amount, err := h.ledger.AmountFor(c.Request.Context(), l.ID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	total := types.NewMoney(amount, h.currency)
	writeJSON(c, http.StatusOK, revenueResp{
		Amount:    json.Number(total.Amount.StringFixed(2)),
		Currency:  total.Currency,
		Timestamp: time.Now().UTC(),
	})
}
