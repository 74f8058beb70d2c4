package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidResetCode, http.StatusBadRequest},
		{ErrEmailExists, http.StatusConflict},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrAccountInactive, http.StatusUnauthorized},
		{ErrLoginNotVerified, http.StatusUnauthorized},
		{ErrEmailNotVerified, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrInvalidRefreshToken, http.StatusForbidden},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrVerificationCodeNotFound, http.StatusNotFound},
		{WrapError(ErrInternal, fmt.Errorf("db down")), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrEmailExists), http.StatusConflict},
	}

	for _, tc := range cases {
		if got := ToHTTPStatus(tc.err); got != tc.status {
			t.Errorf("ToHTTPStatus(%v): expected %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestWrappedErrorMatchesSentinel(t *testing.T) {
	cause := fmt.Errorf("duplicate key")
	err := WrapError(ErrEmailExists, cause)

	if !errors.Is(err, ErrEmailExists) {
		t.Error("Expected wrapped error to match its sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected wrapped error to expose its cause")
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Error("Expected wrapped error not to match a different code")
	}
	if GetErrorMessage(err) != ErrEmailExists.Message {
		t.Errorf("Expected message %q, got %q", ErrEmailExists.Message, GetErrorMessage(err))
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrForbidden, "only admins may do this")
	if err.Code != ErrForbidden.Code {
		t.Errorf("Expected code %s, got %s", ErrForbidden.Code, err.Code)
	}
	if ToHTTPStatus(err) != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", ToHTTPStatus(err))
	}
	if GetErrorCode(fmt.Errorf("x")) != ErrInternal.Code {
		t.Error("Expected INTERNAL_ERROR code for foreign errors")
	}
}

func TestCopiesKeepStatus(t *testing.T) {
	wrapped := WrapError(ErrMediaNotFound, fmt.Errorf("record not found"))
	if wrapped.Status != http.StatusNotFound {
		t.Errorf("Expected wrapped status 404, got %d", wrapped.Status)
	}
	if ErrMediaNotFound.Err != nil {
		t.Error("Expected WrapError to leave the sentinel untouched")
	}

	renamed := WithMessage(wrapped, "media 7 not found")
	if !errors.Is(renamed, wrapped.Err) {
		t.Error("Expected WithMessage to keep the cause")
	}
	if ErrMediaNotFound.Message != "media not found" {
		t.Error("Expected WithMessage to leave the sentinel untouched")
	}
}
