package providers

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
)

// logWithProvider logs through the request-scoped logger when ctx carries one,
// falling back to logger, and always tags the provider name.
func logWithProvider(ctx context.Context, logger *slog.Logger, level slog.Level, provider string, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.FromContext(ctx, logger)
	if logger == nil {
		return
	}
	args = append(args, slog.String(logging.FieldProvider, provider))
	logger.Log(ctx, level, msg, args...)
}
