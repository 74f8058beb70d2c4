package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ahlanjobb/api/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
	mu     sync.RWMutex
)

// InitLogger initializes Zap logger with configuration
func InitLogger(cfg *config.Config) error {
	logsPath := cfg.App.LogsPath
	if logsPath == "" {
		logsPath = "./logs"
	}
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return err
	}

	zapLevel := zapcore.DebugLevel
	if cfg.IsProduction() {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	infoFile, err := os.OpenFile(filepath.Join(logsPath, "info.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	errorFile, err := os.OpenFile(filepath.Join(logsPath, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		infoFile.Close()
		return err
	}

	infoCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(infoFile), zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	errorCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(errorFile), zapcore.AddSync(os.Stderr)),
		zapcore.ErrorLevel,
	)

	SetLogger(zap.New(zapcore.NewTee(infoCore, errorCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Environment)),
	))

	return nil
}

// SetLogger replaces the global logger. Tests use it with zap.NewNop or an observer core.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	Logger = l
	Sugar = l.Sugar()
}

// GetLogger returns the structured logger, or a no-op logger before InitLogger ran.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

// GetSugarLogger returns the sugared logger
func GetSugarLogger() *zap.SugaredLogger {
	return GetLogger().Sugar()
}

// Sync syncs all logs (call this before application exits)
func Sync() {
	if l := GetLogger(); l != nil {
		_ = l.Sync()
	}
}

// LogRequest logs HTTP request information
func LogRequest(method, path string, statusCode int, duration int64, clientIP string, userAgent string) {
	GetLogger().Info("HTTP Request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", duration),
		zap.String("client_ip", clientIP),
		zap.String("user_agent", userAgent),
	)
}

// LogPanic logs panic and recovers
func LogPanic(recovered interface{}) {
	GetLogger().Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}

// LogAuth logs authentication events
func LogAuth(subject, action string, success bool, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("subject", subject),
		zap.String("action", action),
		zap.Bool("success", success),
	}, fields...)

	if success {
		GetLogger().Info("Authentication success", allFields...)
	} else {
		GetLogger().Warn("Authentication failure", allFields...)
	}
}
