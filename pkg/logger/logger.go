package logger

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents logger configuration
type Config struct {
	Level            string  // debug, info, warn, error
	Format           string  // json, console
	OutputPath       string  // stdout, stderr, or file path
	SlowQuerySeconds float64 // slow query threshold
	EnableSampling   bool    // enable sampling for production
	ServiceName      string  // service name for logs
	ServiceVersion   string  // service version for logs
	Environment      string  // environment (production, development, etc.)
}

// NewWithConfig creates a zap logger writing to cfg.OutputPath. Every entry carries
// the service, version and environment fields.
func NewWithConfig(cfg Config) (*zap.Logger, error) {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.SecondsDurationEncoder

	var encoder zapcore.Encoder
	switch {
	case cfg.Format == "json":
		encoder = zapcore.NewJSONEncoder(enc)
	case cfg.Environment != "production" && isStdStream(cfg.OutputPath):
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	default:
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, sink(cfg.OutputPath), parseLogLevel(cfg.Level))
	if cfg.EnableSampling {
		// first 100 entries per second, then every 10th
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 10)
	}

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).With(
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.ServiceVersion),
		zap.String("environment", cfg.Environment),
	), nil
}

// parseLogLevel maps a configured level name to a zap level, defaulting to info.
func parseLogLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func isStdStream(outputPath string) bool {
	return outputPath == "" || outputPath == "stdout" || outputPath == "stderr"
}

// sink resolves the output path. Anything but the standard streams is a file
// rotated by lumberjack.
func sink(outputPath string) zapcore.WriteSyncer {
	switch outputPath {
	case "", "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
}

// ContextKey is the type for context keys
type ContextKey string

const (
	// RequestIDKey carries the id of the HTTP request being served
	RequestIDKey ContextKey = "request_id"
	// SessionIDKey carries the browser session owning a user table
	SessionIDKey ContextKey = "session_id"
)

// WithRequestID returns a copy of ctx carrying the request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithSessionID returns a copy of ctx carrying the session ID
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// WithContext returns logger annotated with the request and session ids found in ctx.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	var fields []zap.Field
	for _, key := range []ContextKey{RequestIDKey, SessionIDKey} {
		if id := valueOf(ctx, key); id != "" {
			fields = append(fields, zap.String(string(key), id))
		}
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	return valueOf(ctx, RequestIDKey)
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) string {
	return valueOf(ctx, SessionIDKey)
}

func valueOf(ctx context.Context, key ContextKey) string {
	id, _ := ctx.Value(key).(string)
	return id
}
