package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlanjobb/api/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the connection and pool settings.
type Config struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	SlowThreshold   time.Duration
	LogLevel        gormlogger.LogLevel
}

// ConfigFrom builds the pool settings for cfg. SQL is logged at info level
// in development and only errors and slow queries otherwise.
func ConfigFrom(cfg *config.Config) Config {
	level := gormlogger.Warn
	if cfg.IsDevelopment() && cfg.App.Debug {
		level = gormlogger.Info
	}
	return Config{
		DSN:             cfg.DatabaseConnectionString(),
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        level,
	}
}

// NewPostgresDB opens the pool through pgx and pings it before returning.
func NewPostgresDB(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN}), &gorm.Config{
		Logger: NewGormLogger(cfg.LogLevel, cfg.SlowThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:    true,
		TranslateError: true,
		// users references itself and media; tables are created in one pass
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
