package logger

import (
	"context"
	"time"

	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder accumulates fields for one log line and pulls request
// metadata out of the context when the line is started.
type ContextLogBuilder struct {
	logger    *zap.Logger
	ctx       context.Context
	level     zapcore.Level
	fields    []zap.Field
	message   string
	shouldLog bool
}

func newBuilder(ctx context.Context, level zapcore.Level, message string) *ContextLogBuilder {
	l := GetLogger()
	b := &ContextLogBuilder{
		logger:    l,
		ctx:       ctx,
		level:     level,
		message:   message,
		shouldLog: l.Core().Enabled(level),
	}
	if b.shouldLog {
		b.fields = make([]zap.Field, 0, 12)
		b.extractContextFields()
	}
	return b
}

func (clb *ContextLogBuilder) extractContextFields() {
	if clb.ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(clb.ctx); requestID != "" {
		clb.fields = append(clb.fields, zap.String("request_id", requestID))
	}
	if clientIP := ctxutil.GetClientIP(clb.ctx); clientIP != "" {
		clb.fields = append(clb.fields, zap.String("client_ip", clientIP))
	}
	if userID, ok := ctxutil.GetUserID(clb.ctx); ok {
		clb.fields = append(clb.fields, zap.Uint("user_id", userID))
	}
	if role := ctxutil.GetUserRole(clb.ctx); role != "" {
		clb.fields = append(clb.fields, zap.String("user_role", role))
	}
	if module := ctxutil.GetModule(clb.ctx); module != "" {
		clb.fields = append(clb.fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(clb.ctx); function != "" {
		clb.fields = append(clb.fields, zap.String("function", function))
	}
}

func (clb *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int64(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Uint(key string, value uint) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Uint(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Bool(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Duration("duration", value))
	}
	return clb
}

func (clb *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if clb.shouldLog && err != nil {
		clb.fields = append(clb.fields, zap.Error(err))
	}
	return clb
}

func (clb *ContextLogBuilder) Any(key string, value interface{}) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Any(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Method(method string) *ContextLogBuilder {
	return clb.String("method", method)
}

func (clb *ContextLogBuilder) Path(path string) *ContextLogBuilder {
	return clb.String("path", path)
}

func (clb *ContextLogBuilder) StatusCode(code int) *ContextLogBuilder {
	return clb.Int("status_code", code)
}

// Log writes the line.
func (clb *ContextLogBuilder) Log() {
	if !clb.shouldLog {
		return
	}

	if duration := ctxutil.GetDuration(clb.ctx); duration > 0 {
		clb.fields = append(clb.fields, zap.Duration("elapsed", duration))
	}

	if ce := clb.logger.Check(clb.level, clb.message); ce != nil {
		ce.Write(clb.fields...)
	}
}

func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.InfoLevel, message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.WarnLevel, message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.ErrorLevel, message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.DebugLevel, message)
}
