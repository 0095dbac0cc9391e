package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// Lifecycle error codes. Callers receive only this closed set; raw
// directory or store error text never crosses the operation surface.
const (
	ErrCodeUnauthorized           = "identity.unauthorized"
	ErrCodeCredentialCreateFailed = "identity.credential_create_failed"
	ErrCodeCredentialDeleteFailed = "identity.credential_delete_failed"
	ErrCodeCredentialRotateFailed = "identity.credential_rotate_failed"
	ErrCodeRecordCreateFailed     = "identity.record_create_failed"
	ErrCodePartialFailure         = "identity.partial_failure"
	ErrCodeNotFound               = "identity.not_found"
	ErrCodeInvalid                = "identity.invalid"
)

// httpStatusMap maps error codes to HTTP status codes.
var httpStatusMap = map[string]int{
	ErrCodeUnauthorized:           http.StatusForbidden,           // 403
	ErrCodeCredentialCreateFailed: http.StatusBadGateway,          // 502
	ErrCodeCredentialDeleteFailed: http.StatusBadGateway,          // 502
	ErrCodeCredentialRotateFailed: http.StatusBadGateway,          // 502
	ErrCodeRecordCreateFailed:     http.StatusInternalServerError, // 500
	ErrCodePartialFailure:         http.StatusInternalServerError, // 500
	ErrCodeNotFound:               http.StatusNotFound,            // 404
	ErrCodeInvalid:                http.StatusBadRequest,          // 400
}

// Error is a lifecycle error with a structured code.
type Error struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable description, safe for callers
	Status  int    // HTTP status code
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Status
}

// newError creates an Error with its mapped HTTP status.
func newError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  httpStatusMap[code],
	}
}

// ErrUnauthorized reports a permission-matrix denial. Always safe: no
// partial mutation has occurred.
func ErrUnauthorized(op string) *Error {
	return newError(ErrCodeUnauthorized, fmt.Sprintf("not permitted to %s", op))
}

// ErrCredentialCreateFailed reports a directory-side create failure.
func ErrCredentialCreateFailed() *Error {
	return newError(ErrCodeCredentialCreateFailed, "credential service rejected creation")
}

// ErrCredentialDeleteFailed reports a directory-side delete failure.
// The store was not touched.
func ErrCredentialDeleteFailed() *Error {
	return newError(ErrCodeCredentialDeleteFailed, "credential service rejected deletion")
}

// ErrCredentialRotateFailed reports a directory-side rotation failure.
func ErrCredentialRotateFailed() *Error {
	return newError(ErrCodeCredentialRotateFailed, "credential service rejected rotation")
}

// ErrRecordCreateFailed reports a store-side insert failure after the
// credential was created; the compensating delete succeeded.
func ErrRecordCreateFailed() *Error {
	return newError(ErrCodeRecordCreateFailed, "identity record could not be stored")
}

// ErrPartialFailure reports that the two stores diverged and the
// compensating action could not reconcile them. Must be surfaced for
// manual reconciliation, never swallowed.
func ErrPartialFailure(detail string) *Error {
	return newError(ErrCodePartialFailure, detail)
}

// ErrNotFound reports an unknown identity target.
func ErrNotFound(id string) *Error {
	return newError(ErrCodeNotFound, fmt.Sprintf("identity %s not found", id))
}

// ErrInvalid reports a malformed request.
func ErrInvalid(detail string) *Error {
	return newError(ErrCodeInvalid, detail)
}

// ErrorCode extracts the lifecycle error code from an error.
// Returns empty string if the error is not a lifecycle Error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var lifecycleErr *Error
	if errors.As(err, &lifecycleErr) {
		return lifecycleErr.Code
	}
	return ""
}
