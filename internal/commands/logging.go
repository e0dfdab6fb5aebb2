package commands

import (
	"strings"

	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// CommandLogger returns the commands logger for one command group, tagged so
// entries from different groups can be told apart.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.CommandsLogger(provider), map[string]any{
		"component":     "command",
		"command_group": name,
	})
}
