package logger

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const LoggerKey = contextKey("logger")

var (
	globalMu     sync.RWMutex
	globalLogger *zap.SugaredLogger
)

// New builds a sugared logger from cfg. Output goes to stderr unless a file
// path is enabled, in which case lumberjack rotates it.
// New 根据配置构建日志记录器；启用文件路径时由 lumberjack 负责轮转。
func New(cfg LoggingConfig) (*zap.SugaredLogger, error) {
	writeSyncer := zapcore.AddSync(os.Stderr)

	if cfg.Enabled && cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, err
		}
		writeSyncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, writeSyncer, parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

func parseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Init initializes the global logger based on configuration.
// Init 根据配置初始化全局日志记录器。
func Init(cfg LoggingConfig) {
	l, err := New(cfg)
	if err != nil {
		// Fall back to stderr if the log directory cannot be created
		// 如果无法创建日志目录，则回退到 stderr
		l, _ = New(LoggingConfig{Level: cfg.Level})
		l.Warnf("[WARN]  Failed to open log file %s: %v", cfg.Path, err)
	}

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()

	l.Debugf("[LOG] Logging initialized (Level: %s, Path: %s)", parseLevel(cfg.Level), cfg.Path)
}

// Sync flushes any buffered log entries.
// Sync 刷新所有缓存的日志条目。
func Sync() error {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Get returns the logger from context or global logger
// Get 从 Context 或全局日志记录器返回 Logger。
func Get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok {
			return l
		}
	}
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l == nil {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewExample().Sugar()
		}
		return dev.Sugar()
	}
	return l
}

// WithContext adds logger to context
// WithContext 将 Logger 添加到 Context。
func WithContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}
