package extensions

import (
	"context"
	"log/slog"
	"time"

	"github.com/pumped-fn/itemshop"
)

// LoggingExtension writes one record per fetch or workflow call
type LoggingExtension struct {
	itemshop.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{
		BaseExtension: itemshop.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *itemshop.Operation) (any, error) {
	start := time.Now()
	e.logger.DebugContext(ctx, "operation starting", "kind", string(op.Kind), "name", op.Name, "token", op.Token)
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.logger.WarnContext(ctx, "operation failed", "kind", string(op.Kind), "name", op.Name, "token", op.Token, "duration", duration, "error", err)
	} else {
		e.logger.InfoContext(ctx, "operation completed", "kind", string(op.Kind), "name", op.Name, "token", op.Token, "duration", duration)
	}

	return result, err
}

func (e *LoggingExtension) OnStale(op *itemshop.Operation) {
	e.logger.Debug("stale response discarded", "name", op.Name, "token", op.Token)
}
