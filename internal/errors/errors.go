package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError is an error the API reports to clients: a stable code, a
// human readable message and the HTTP status it maps to.
type DomainError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches by code, so wrapped or re-messaged copies still compare equal
// to the sentinel they came from.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func define(status int, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status}
}

// WrapError attaches cause to a copy of domainErr.
func WrapError(domainErr *DomainError, cause error) *DomainError {
	cp := *domainErr
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of domainErr carrying a different message.
func WithMessage(domainErr *DomainError, message string) *DomainError {
	cp := *domainErr
	cp.Message = message
	return &cp
}

var (
	ErrInvalidInput     = define(http.StatusBadRequest, "INVALID_INPUT", "invalid input")
	ErrPasswordTooLong  = define(http.StatusBadRequest, "INVALID_INPUT", "password is too long")
	ErrPasswordMismatch = define(http.StatusBadRequest, "PASSWORD_MISMATCH", "passwords do not match")
	ErrInvalidResetCode = define(http.StatusBadRequest, "INVALID_RESET_CODE", "could not reset user password")

	ErrUnauthorized       = define(http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrInvalidToken       = define(http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
	ErrInvalidCredentials = define(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountInactive    = define(http.StatusUnauthorized, "ACCOUNT_INACTIVE", "account is disabled")
	ErrLoginNotVerified   = define(http.StatusUnauthorized, "LOGIN_NOT_VERIFIED", "please verify your email address before logging in")

	ErrForbidden           = define(http.StatusForbidden, "FORBIDDEN", "forbidden")
	ErrEmailNotVerified    = define(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "please verify your email address")
	ErrAlreadyVerified     = define(http.StatusForbidden, "ALREADY_VERIFIED", "user is already verified")
	ErrInvalidRefreshToken = define(http.StatusForbidden, "INVALID_REFRESH_TOKEN", "could not refresh access token")

	ErrUserNotFound             = define(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	ErrMediaNotFound            = define(http.StatusNotFound, "MEDIA_NOT_FOUND", "media not found")
	ErrVerificationCodeNotFound = define(http.StatusNotFound, "VERIFICATION_CODE_NOT_FOUND", "could not verify user")
	ErrAccountNotFound          = define(http.StatusNotFound, "ACCOUNT_NOT_FOUND", "no account is linked to this identity")

	ErrEmailExists = define(http.StatusConflict, "EMAIL_EXISTS", "account already exists")

	ErrInternal           = define(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = define(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable")
)

// GetDomainError returns the first DomainError in err's chain, or nil.
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// GetErrorCode returns the domain code of err, or INTERNAL_ERROR.
func GetErrorCode(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code
	}
	return ErrInternal.Code
}

// ToHTTPStatus is meant for the handler layer only. Errors outside the
// domain set are reported as 500.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if domainErr := GetDomainError(err); domainErr != nil && domainErr.Status != 0 {
		return domainErr.Status
	}
	return http.StatusInternalServerError
}

func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Message
	}
	return err.Error()
}
