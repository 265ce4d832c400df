// README: Domain error type carrying code, category, status and a friendly message key.
package apperr

import (
	"errors"
	"net/http"
)

type Category string

const (
	CategoryValidation   Category = "validation"
	CategoryConflict     Category = "conflict"
	CategoryNotFound     Category = "not_found"
	CategoryResourceBusy Category = "resource_busy"
	CategoryPersistence  Category = "persistence"
)

// Error is comparable by identity, so package-level values work as sentinels
// with errors.Is even after wrapping.
type Error struct {
	Code        string
	Category    Category
	Status      int
	Message     string
	FriendlyKey string
}

func New(code string, cat Category, status int, msg, friendlyKey string) *Error {
	return &Error{Code: code, Category: cat, Status: status, Message: msg, FriendlyKey: friendlyKey}
}

func (e *Error) Error() string { return e.Message }

// Persistence is returned by As for any error that is not an *Error.
var Persistence = New("PRK-500-001", CategoryPersistence, http.StatusInternalServerError,
	"unexpected storage failure", "internal")

// As finds the first *Error in err's chain, falling back to Persistence.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence
}

// Body is the wire shape of every error response.
type Body struct {
	InternalCode    string `json:"internalCode"`
	Message         string `json:"message"`
	FriendlyMessage string `json:"friendlyMessage"`
	InternalTraceID string `json:"internalTraceId"`
	Type            string `json:"type"`
}

// NewBody renders err for a client. Unclassified errors are sanitized to
// Persistence so storage details never leave the process.
func NewBody(err error, traceID, acceptLanguage string) (int, Body) {
	e := As(err)
	return e.Status, Body{
		InternalCode:    e.Code,
		Message:         e.Message,
		FriendlyMessage: Friendly(e.FriendlyKey, acceptLanguage),
		InternalTraceID: traceID,
		Type:            string(e.Category),
	}
}
