package mdtext

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/internal/logging/console"
	"github.com/goliatone/go-mdtext/internal/logging/gologger"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// NewLoggerProvider builds the provider selected by cfg.Provider.
func NewLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		level, err := logging.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoggingLevelInvalid, err)
		}
		return console.NewProvider(console.Options{MinLevel: level}), nil
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}
