package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextManagerKey ctxKey = "managerID"

// ManagerIDFromContext returns the authenticated manager id, or 0.
func ManagerIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(ContextManagerKey).(int64); ok {
		return id
	}
	return 0
}

func ContextWithManagerID(ctx context.Context, managerID int64) context.Context {
	return context.WithValue(ctx, ContextManagerKey, managerID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
