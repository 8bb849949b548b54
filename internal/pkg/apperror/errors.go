package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeAgreementIncomplete ErrorCode = "AGREEMENT_INCOMPLETE"
	ErrCodePaymentUpstream     ErrorCode = "UPSTREAM_PAYMENT_FAILURE"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
)

// AppError is the stable error envelope crossing the coordinator boundary.
// Details carries machine-readable context, e.g. which agreement piece is
// missing on an AGREEMENT_INCOMPLETE.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// WithDetails returns a copy carrying machine-readable details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeAgreementIncomplete:
		return http.StatusUnprocessableEntity
	case ErrCodePaymentUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeForbidden
}

func IsInvalidState(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeInvalidState
}

func IsAgreementIncomplete(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeAgreementIncomplete
}

func IsConflict(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeConflict
}

var (
	ErrOfferNotFound      = New(ErrCodeNotFound, "offer not found")
	ErrJobRequestNotFound = New(ErrCodeNotFound, "job request not found")
	ErrUserNotFound       = New(ErrCodeNotFound, "user not found")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "authentication required")
	ErrNotAParty          = New(ErrCodeForbidden, "you are not a party to this offer")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "invalid credentials")
	ErrStaleOffer         = New(ErrCodeConflict, "offer was modified concurrently, retry with fresh state")
)
