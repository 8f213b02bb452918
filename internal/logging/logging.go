package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"digimess/internal/config"
)

// Logger wraps logrus.Logger with the structured events the surfaces emit.
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}
		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// Discard returns a logger that writes nothing. Used by tests and as the
// fallback when a component is built without one.
func Discard() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger, config: &config.LoggingConfig{Level: "panic"}}
}

// Close flushes the rotating file, if any.
func (l *Logger) Close() error {
	if c, ok := l.Out.(io.Closer); ok && l.config.Output == "file" {
		return c.Close()
	}
	return nil
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// LogRequest records one HTTP request.
func (l *Logger) LogRequest(requestID, method, path, clientIP string, statusCode int, duration time.Duration) {
	entry := l.WithFields(Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"type":        "request",
	})
	switch {
	case statusCode >= 500:
		entry.Error("HTTP request")
	case statusCode >= 400:
		entry.Warn("HTTP request")
	default:
		entry.Info("HTTP request")
	}
}

// LogLookup records one menu lookup.
func (l *Logger) LogLookup(surface, operation, date, category string, found bool, duration time.Duration) {
	entry := l.WithFields(Fields{
		"surface":     surface,
		"operation":   operation,
		"date":        date,
		"category":    category,
		"found":       found,
		"duration_us": duration.Microseconds(),
		"type":        "lookup",
	})
	if found {
		entry.Debug("Menu lookup")
	} else {
		entry.Info("Menu lookup found no data")
	}
}

// LogSystem records a lifecycle event such as startup or dataset load.
func (l *Logger) LogSystem(component, action string, success bool, details map[string]interface{}) {
	fields := Fields{
		"component": component,
		"action":    action,
		"success":   success,
		"type":      "system",
	}
	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if success {
		entry.Info("System event")
	} else {
		entry.Error("System event failed")
	}
}
