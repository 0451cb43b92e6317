// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// SenderKey is the context key for the normalized sender identifier
	SenderKey contextKey = "sender"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and sender from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if sender, ok := ctx.Value(SenderKey).(string); ok && sender != "" {
		newLogger = newLogger.WithSender(sender)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithSender returns a logger scoped to one conversation sender
func (l *Logger) WithSender(sender string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("sender", sender)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// InboundMessage logs a processed inbound chat message
func (l *Logger) InboundMessage(sender, intent, state string, confidence float64) {
	l.Info("inbound_message",
		slog.String("sender", sender),
		slog.String("intent", intent),
		slog.String("state", state),
		slog.Float64("confidence", confidence),
	)
}

// QuoteComputed logs a completed price computation
func (l *Logger) QuoteComputed(sender, product, size string, finalKg float64) {
	l.Info("quote_computed",
		slog.String("sender", sender),
		slog.String("product", product),
		slog.String("size", size),
		slog.Float64("final_kg", finalKg),
	)
}

// CollaboratorError logs a failure in an external collaborator (LLM, PDF, delivery)
func (l *Logger) CollaboratorError(collaborator string, err error) {
	l.Error("collaborator_error",
		slog.String("collaborator", collaborator),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
