package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	datasetIDKey contextKey = "dataset_id"
	tableKey     contextKey = "table_identifier"
)

// WithContext returns a new context carrying logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID tags ctx and its logger with the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, requestIDKey, requestID)
}

// WithUserID tags ctx and its logger with the authenticated user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withField(ctx, userIDKey, userID)
}

// WithDatasetID tags ctx and its logger with the print dataset being worked on.
func WithDatasetID(ctx context.Context, datasetID string) context.Context {
	return withField(ctx, datasetIDKey, datasetID)
}

// WithTable tags ctx and its logger with the grid table identifier.
func WithTable(ctx context.Context, table string) context.Context {
	return withField(ctx, tableKey, table)
}

func withField(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, key, value)
	return WithContext(ctx, FromContext(ctx).With(zap.String(string(key), value)))
}

// GetRequestID retrieves the request id from ctx
func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// GetUserID retrieves the user id from ctx
func GetUserID(ctx context.Context) string { return stringValue(ctx, userIDKey) }

// GetDatasetID retrieves the dataset id from ctx
func GetDatasetID(ctx context.Context) string { return stringValue(ctx, datasetIDKey) }

// GetTable retrieves the table identifier from ctx
func GetTable(ctx context.Context) string { return stringValue(ctx, tableKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// L returns the logger stored in ctx. Fields added with the With* helpers are
// already attached to it.
//
//	logger.L(ctx).Info("draft saved", zap.String("key", key))
func L(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	return FromContext(ctx)
}

// Fields returns the identifying fields stored in ctx. Useful when a
// component holds its own logger but wants request correlation.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	for _, key := range []contextKey{requestIDKey, userIDKey, datasetIDKey, tableKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}
