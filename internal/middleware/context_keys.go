package middleware

import (
	"context"
	"log/slog"

	"github.com/finbooks/ledger_engine/internal/core/domain"
)

// contextKey is a private type so our context values cannot collide.
type contextKey string

const (
	loggerCtxKey    = contextKey("logger")
	principalCtxKey = contextKey("principal")
)

// GetLoggerFromCtx retrieves the request-scoped logger from the context.
// Falls back to the default logger, though the logging middleware should
// always have installed one.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// GetPrincipalFromCtx retrieves the authenticated principal from the context.
// The boolean reports whether the auth middleware resolved one.
func GetPrincipalFromCtx(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey).(domain.Principal)
	return principal, ok
}
