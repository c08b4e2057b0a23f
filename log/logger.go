package log

import "context"

// Logger defines a standard interface for structured logging. The context is
// used to enrich entries with trace information when a span is active.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]any)
	Info(ctx context.Context, msg string, fields ...map[string]any)
	Warn(ctx context.Context, msg string, fields ...map[string]any)
	Error(ctx context.Context, msg string, err error, fields ...map[string]any)
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]any)
	With(fields map[string]any) Logger
}
