package database

import (
	"context"
	"errors"
	"testing"
	"time"

	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(zap.NewNop()) })
	return logs
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := ctxutil.WithRequestID(context.Background(), "req-7")

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantLevel zapcore.Level
		wantMsg   string
		wantNone  bool
	}{
		{name: "failed query", level: gormlogger.Warn, err: errors.New("boom"), wantLevel: zapcore.ErrorLevel, wantMsg: "SQL failed"},
		{name: "not found is quiet", level: gormlogger.Warn, err: gorm.ErrRecordNotFound, wantNone: true},
		{name: "slow query", level: gormlogger.Warn, elapsed: time.Second, wantLevel: zapcore.WarnLevel, wantMsg: "Slow SQL"},
		{name: "fast query at warn", level: gormlogger.Warn, wantNone: true},
		{name: "fast query at info", level: gormlogger.Info, wantLevel: zapcore.DebugLevel, wantMsg: "SQL"},
		{name: "silent", level: gormlogger.Silent, err: errors.New("boom"), wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			l := NewGormLogger(tt.level, 200*time.Millisecond)

			l.Trace(ctx, time.Now().Add(-tt.elapsed), sqlFn(`SELECT * FROM "users"`, 3), tt.err)

			if tt.wantNone {
				if logs.Len() != 0 {
					t.Fatalf("Expected no log entries, got %d", logs.Len())
				}
				return
			}
			if logs.Len() != 1 {
				t.Fatalf("Expected 1 log entry, got %d", logs.Len())
			}
			entry := logs.All()[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("Expected level %v, got %v", tt.wantLevel, entry.Level)
			}
			if entry.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry.Message)
			}
			fields := entry.ContextMap()
			if fields["sql"] != `SELECT * FROM "users"` {
				t.Errorf("Expected sql field, got %v", fields["sql"])
			}
			if fields["request_id"] != "req-7" {
				t.Errorf("Expected request_id req-7, got %v", fields["request_id"])
			}
		})
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	logs := observe(t)
	base := NewGormLogger(gormlogger.Warn, 0)

	quiet := base.LogMode(gormlogger.Silent)
	quiet.Error(context.Background(), "dropped %d", 1)
	base.Error(context.Background(), "kept %d", 2)

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}
	if logs.All()[0].Message != "kept 2" {
		t.Errorf("Expected formatted message, got %q", logs.All()[0].Message)
	}
}
