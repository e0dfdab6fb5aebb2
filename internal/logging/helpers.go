package logging

import (
	"maps"

	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// WithFields tags logger with fields such as the module, document path or
// command name. Loggers that do not implement interfaces.FieldsLogger come
// back unchanged, as do calls with no fields.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	return fieldsLogger.WithFields(maps.Clone(fields))
}
