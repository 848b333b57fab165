package messaging

import (
	"time"

	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Chain applies middlewares so that the first one is the outermost.
func Chain(handler shared.EventHandler, middlewares ...Middleware) shared.EventHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// LoggingMiddleware logs handler failures at error level and completions at debug.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)

			fields := []zap.Field{
				zap.String("event_type", string(event.EventType())),
				zap.String("aggregate_id", event.AggregateID()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Error("handler failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("handler completed", fields...)
			}
			return err
		}
	}
}

// AuditHandler writes every domain event to the audit log.
func AuditHandler(logger *zap.Logger) shared.EventHandler {
	audit := logger.Named("audit")
	return func(event shared.Event) error {
		audit.Info(string(event.EventType()),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.Any("payload", event.Payload()),
		)
		return nil
	}
}
