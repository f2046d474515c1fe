package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes carried in the `error` field of every failure response. Clients
// branch on the code; the description is for humans.
const (
	CodeValidation        = "validation_error"
	CodeAuthentication    = "authentication_error"
	CodeAuthorization     = "authorization_error"
	CodeNeedsVerification = "needs_verification"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodePhase             = "phase_error"
	CodeRateLimited       = "rate_limit_exceeded"
	CodeServer            = "server_error"
)

// Error is the JSON error envelope every endpoint returns on failure. It
// implements the error interface so it can travel through normal error paths.
type Error struct {
	// StatusCode is the HTTP status for this error; not serialized.
	StatusCode int `json:"-"`

	// Code is the stable machine-readable error kind.
	Code string `json:"error"`

	// Description is a human-readable explanation.
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// Validation reports missing or malformed input.
func Validation(desc string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: CodeValidation, Description: desc}
}

// Unauthenticated reports a missing, invalid or expired token.
func Unauthenticated(desc string) *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Code: CodeAuthentication, Description: desc}
}

// Forbidden reports a caller lacking the required role (not creator, not
// submitter, not participant).
func Forbidden(desc string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Code: CodeAuthorization, Description: desc}
}

// NeedsVerification reports a login attempt on an account whose email has
// not been verified yet; clients use the code to offer a resend.
func NeedsVerification(desc string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Code: CodeNeedsVerification, Description: desc}
}

// NotFound reports a missing room, option or user.
func NotFound(desc string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: CodeNotFound, Description: desc}
}

// Conflict reports a duplicate where uniqueness is required.
func Conflict(desc string) *Error {
	return &Error{StatusCode: http.StatusConflict, Code: CodeConflict, Description: desc}
}

// Phase reports an action attempted outside its allowed room phase.
func Phase(desc string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Code: CodePhase, Description: desc}
}

// ServerError is the generic failure response. Internals are never leaked.
var ServerError = &Error{
	StatusCode:  http.StatusInternalServerError,
	Code:        CodeServer,
	Description: "something went wrong, please try again later",
}
