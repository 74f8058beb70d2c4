package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahlanjobb/api/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends gorm's SQL trace through the context logger so queries
// carry the request id of the request that issued them.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{level: level, slowThreshold: slowThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.InfoWithContext(ctx, fmt.Sprintf(msg, args...)).Log()
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.WarnWithContext(ctx, fmt.Sprintf(msg, args...)).Log()
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.ErrorWithContext(ctx, fmt.Sprintf(msg, args...)).Log()
	}
}

// Trace logs failed queries, slow queries and, at info level, every query.
// Record-not-found is an expected outcome and is not logged as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.ErrorWithContext(ctx, "SQL failed").
			String("sql", sql).
			Int64("rows", rows).
			Duration(elapsed).
			Err(err).
			Log()
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.WarnWithContext(ctx, "Slow SQL").
			String("sql", sql).
			Int64("rows", rows).
			Duration(elapsed).
			Log()
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.DebugWithContext(ctx, "SQL").
			String("sql", sql).
			Int64("rows", rows).
			Duration(elapsed).
			Log()
	}
}
