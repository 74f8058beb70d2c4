package ctxutil

import (
	"context"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
)

// Re-export ContextKey type
type ContextKey = constants.ContextKey

// Re-export context keys
const (
	RequestIDKey = constants.CtxKeyRequestID
	UserIDKey    = constants.CtxKeyUserID
	UserRoleKey  = constants.CtxKeyUserRole
	ClientIPKey  = constants.CtxKeyClientIP
	UserAgentKey = constants.CtxKeyUserAgent
	StartTimeKey = constants.CtxKeyStartTime
	ModuleKey    = constants.CtxKeyModule
	FunctionKey  = constants.CtxKeyFunction
)

// WithUserID adds the authenticated user id to context
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithUserRole adds the authenticated user role to context
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, UserRoleKey, role)
}

// WithRequestID adds the request id to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithRequestInfo stores the request id, caller address and user agent and
// stamps the request start time.
func WithRequestInfo(ctx context.Context, requestID, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, ClientIPKey, clientIP)
	ctx = context.WithValue(ctx, UserAgentKey, userAgent)
	return context.WithValue(ctx, StartTimeKey, time.Now())
}

// WithFunction tags the context with the module and function doing the work.
func WithFunction(ctx context.Context, module, function string) context.Context {
	ctx = context.WithValue(ctx, ModuleKey, module)
	return context.WithValue(ctx, FunctionKey, function)
}

// Getter functions
func GetRequestID(ctx context.Context) string {
	if val, ok := ctx.Value(RequestIDKey).(string); ok {
		return val
	}
	return ""
}

func GetClientIP(ctx context.Context) string {
	if val, ok := ctx.Value(ClientIPKey).(string); ok {
		return val
	}
	return ""
}

func GetUserAgent(ctx context.Context) string {
	if val, ok := ctx.Value(UserAgentKey).(string); ok {
		return val
	}
	return ""
}

func GetUserID(ctx context.Context) (uint, bool) {
	if val, ok := ctx.Value(UserIDKey).(uint); ok {
		return val, true
	}
	return 0, false
}

func GetUserRole(ctx context.Context) string {
	if val, ok := ctx.Value(UserRoleKey).(string); ok {
		return val
	}
	return ""
}

func GetStartTime(ctx context.Context) time.Time {
	if val, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return val
	}
	return time.Time{}
}

func GetModule(ctx context.Context) string {
	if val, ok := ctx.Value(ModuleKey).(string); ok {
		return val
	}
	return ""
}

func GetFunction(ctx context.Context) string {
	if val, ok := ctx.Value(FunctionKey).(string); ok {
		return val
	}
	return ""
}

// GetDuration calculates duration from start time
func GetDuration(ctx context.Context) time.Duration {
	startTime := GetStartTime(ctx)
	if !startTime.IsZero() {
		return time.Since(startTime)
	}
	return 0
}

// NewContextWithRequest tags a request context with the handler doing the work
// and stamps a start time when the middleware did not.
func NewContextWithRequest(ctx context.Context, module, function string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = WithFunction(ctx, module, function)

	if GetStartTime(ctx).IsZero() {
		ctx = context.WithValue(ctx, StartTimeKey, time.Now())
	}

	return ctx
}

// ContextToMap converts context to map for logging
func ContextToMap(ctx context.Context) map[string]interface{} {
	result := make(map[string]interface{})

	if requestID := GetRequestID(ctx); requestID != "" {
		result["request_id"] = requestID
	}
	if clientIP := GetClientIP(ctx); clientIP != "" {
		result["client_ip"] = clientIP
	}
	if module := GetModule(ctx); module != "" {
		result["module"] = module
	}
	if function := GetFunction(ctx); function != "" {
		result["function"] = function
	}
	if userID, ok := GetUserID(ctx); ok {
		result["user_id"] = userID
	}
	if role := GetUserRole(ctx); role != "" {
		result["user_role"] = role
	}
	if duration := GetDuration(ctx); duration > 0 {
		result["duration"] = duration
	}

	return result
}
