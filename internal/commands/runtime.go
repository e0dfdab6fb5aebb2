package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// DefaultCommandTimeout bounds one conversion command. A directory run shares
// it across all of its files.
const DefaultCommandTimeout = 30 * time.Second

// commandContext derives the context a conversion runs under. A nil ctx
// becomes context.Background and a non-positive timeout leaves it unbounded.
func commandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger substitutes logging.NoOp for a nil logger so conversion
// handlers can log unconditionally.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
