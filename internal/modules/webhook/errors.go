// README: Webhook error catalogue; every value is an *apperr.Error sentinel.
package webhook

import (
	"net/http"

	"parking/internal/apperr"
)

var (
	ErrInvalidRequest       = apperr.New("PRK-400-001", apperr.CategoryValidation, http.StatusBadRequest, "malformed webhook payload", "invalid_request")
	ErrInvalidEventType     = apperr.New("PRK-422-001", apperr.CategoryValidation, http.StatusUnprocessableEntity, "event type not handled here", "invalid_event_type")
	ErrMissingLicensePlate  = apperr.New("PRK-422-002", apperr.CategoryValidation, http.StatusUnprocessableEntity, "license_plate is required", "missing_plate")
	ErrMissingEntryTime     = apperr.New("PRK-422-003", apperr.CategoryValidation, http.StatusUnprocessableEntity, "entry_time is required", "missing_entry_time")
	ErrMissingExitTime      = apperr.New("PRK-422-004", apperr.CategoryValidation, http.StatusUnprocessableEntity, "exit_time is required", "missing_exit_time")
	ErrInvalidCoordinates   = apperr.New("PRK-422-005", apperr.CategoryValidation, http.StatusUnprocessableEntity, "lat must be within [-90,90] and lng within [-180,180]", "invalid_coordinates")
	ErrInvalidDurationLimit = apperr.New("PRK-422-006", apperr.CategoryValidation, http.StatusUnprocessableEntity, "lot duration limit must be positive", "invalid_duration_limit")

	ErrLicensePlateConflict = apperr.New("PRK-409-001", apperr.CategoryConflict, http.StatusConflict, "license plate already has an active visit", "plate_conflict")
	ErrDuplicateEvent       = apperr.New("PRK-409-002", apperr.CategoryConflict, http.StatusConflict, "event already claimed", "duplicate_event")
	ErrSpotOccupied         = apperr.New("PRK-409-003", apperr.CategoryResourceBusy, http.StatusConflict, "spot is locked or already parked", "spot_occupied")

	ErrLotNotFound = apperr.New("PRK-404-001", apperr.CategoryNotFound, http.StatusNotFound, "no lot at coordinates", "lot_not_found")

	// Missing predecessors mean upstream event loss. They are not retried.
	ErrEntryEventNotFound = apperr.New("PRK-422-101", apperr.CategoryNotFound, http.StatusUnprocessableEntity, "no ENTRY event for plate", "entry_not_found")
	ErrNoParkedEventFound = apperr.New("PRK-422-102", apperr.CategoryNotFound, http.StatusUnprocessableEntity, "no PARKED event for plate", "parked_not_found")
	ErrRevenueNotFound    = apperr.New("PRK-422-103", apperr.CategoryNotFound, http.StatusUnprocessableEntity, "no revenue row for lot today", "revenue_not_found")
)
