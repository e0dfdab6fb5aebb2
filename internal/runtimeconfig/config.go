package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/internal/markdown"
)

var ErrMarkdownContentDirRequired = errors.New("mdtext config: markdown content directory is required")
var ErrMarkdownWorkersInvalid = errors.New("mdtext config: markdown workers must be zero or positive")
var ErrMarkdownExtensionUnknown = errors.New("mdtext config: markdown extension is unknown")

// ErrMarkdownNodesInvalid wraps schema failures for the node action map.
var ErrMarkdownNodesInvalid = errors.New("mdtext config: markdown nodes are invalid")
var ErrLoggingProviderRequired = errors.New("mdtext config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("mdtext config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("mdtext config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("mdtext config: logging format is invalid")

// ErrConfigRead reports a configuration file that exists but could not be parsed.
var ErrConfigRead = errors.New("mdtext config: read configuration file")

// Config aggregates the settings for conversions and runtime logging.
type Config struct {
	Markdown MarkdownConfig
	Logging  LoggingConfig
}

// MarkdownConfig captures filesystem and parser behaviour for conversions.
type MarkdownConfig struct {
	ContentDir string
	Pattern    string
	Recursive  bool
	Workers    int
	// Extensions selects parser extensions; empty enables all of them.
	Extensions []string
	// Nodes maps node kind names to action keywords.
	Nodes map[string]string
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the defaults used when no file or environment overrides exist.
func DefaultConfig() Config {
	return Config{
		Markdown: MarkdownConfig{
			ContentDir: ".",
			Pattern:    "*.md",
			Recursive:  true,
			Workers:    0,
			Nodes:      map[string]string{},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
		return ErrMarkdownContentDirRequired
	}
	if cfg.Markdown.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrMarkdownWorkersInvalid, cfg.Markdown.Workers)
	}
	for _, name := range cfg.Markdown.Extensions {
		if !isSupportedExtension(name) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, name)
		}
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

func isSupportedExtension(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, supported := range markdown.SupportedExtensions() {
		if key == supported {
			return true
		}
	}
	return false
}
