package ctxutil

import (
	"context"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := NewContextWithRequest(context.Background(), "handler", "Login")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, 42)
	ctx = WithUserRole(ctx, "ADMIN")

	if GetModule(ctx) != "handler" || GetFunction(ctx) != "Login" {
		t.Errorf("Expected handler/Login, got %s/%s", GetModule(ctx), GetFunction(ctx))
	}
	if id, ok := GetUserID(ctx); !ok || id != 42 {
		t.Errorf("Expected user id 42, got %d (%v)", id, ok)
	}
	if GetStartTime(ctx).IsZero() {
		t.Error("Expected start time to be set")
	}

	fields := ContextToMap(ctx)
	if fields["request_id"] != "req-1" {
		t.Errorf("Expected request_id req-1, got %v", fields["request_id"])
	}
	if fields["user_role"] != "ADMIN" {
		t.Errorf("Expected user_role ADMIN, got %v", fields["user_role"])
	}
}

func TestGetUserIDMissing(t *testing.T) {
	if _, ok := GetUserID(context.Background()); ok {
		t.Error("Expected no user id on empty context")
	}
}

func TestWithRequestInfo(t *testing.T) {
	ctx := WithRequestInfo(context.Background(), "req-9", "10.0.0.1", "curl/8")

	if GetRequestID(ctx) != "req-9" {
		t.Errorf("Expected request id req-9, got %q", GetRequestID(ctx))
	}
	if GetClientIP(ctx) != "10.0.0.1" || GetUserAgent(ctx) != "curl/8" {
		t.Errorf("Unexpected client info %q %q", GetClientIP(ctx), GetUserAgent(ctx))
	}
	if GetStartTime(ctx).IsZero() {
		t.Error("Expected start time to be set")
	}
}
