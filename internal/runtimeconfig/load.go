package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-mdtext/internal/validation"
)

// Option is a configuration key with its default value.
type Option struct {
	Key     string
	Default any
	Comment string
}

// Options lists every configuration key Load understands.
func Options() []Option {
	defaults := DefaultConfig()
	return []Option{
		{Key: "markdown.content_dir", Default: defaults.Markdown.ContentDir, Comment: "Base directory documents are resolved against"},
		{Key: "markdown.pattern", Default: defaults.Markdown.Pattern, Comment: "Glob selecting documents during directory runs"},
		{Key: "markdown.recursive", Default: defaults.Markdown.Recursive, Comment: "Descend into sub-directories during directory runs"},
		{Key: "markdown.workers", Default: defaults.Markdown.Workers, Comment: "Directory conversion workers; 0 uses one per CPU"},
		{Key: "markdown.extensions", Default: []string{}, Comment: "Parser extensions; empty enables all of them"},
		{Key: "markdown.nodes", Default: map[string]any{}, Comment: "Node kind to action keyword overrides"},
		{Key: "logging.provider", Default: defaults.Logging.Provider, Comment: "console or gologger"},
		{Key: "logging.level", Default: defaults.Logging.Level, Comment: "trace, debug, info, warn, error or fatal"},
		{Key: "logging.format", Default: defaults.Logging.Format, Comment: "gologger output format: console, json or pretty"},
		{Key: "logging.add_source", Default: defaults.Logging.AddSource, Comment: "Include caller information in gologger output"},
		{Key: "logging.focus", Default: []string{}, Comment: "Logger modules to keep when filtering"},
	}
}

// Load resolves configuration with precedence defaults < file < environment.
// An empty path searches for mdtext.{yaml,toml,json} in the working directory
// and $XDG_CONFIG_HOME/mdtext; a missing file is not an error. When the node
// map fails schema validation, the returned error wraps
// ErrMarkdownNodesInvalid and the configuration keeps the usable entries.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	for _, opt := range Options() {
		v.SetDefault(opt.Key, opt.Default)
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w %s: %v", ErrConfigRead, path, err)
		}
	} else {
		v.SetConfigName("mdtext")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "mdtext"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
			}
		}
	}

	v.SetEnvPrefix("mdtext")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Markdown: MarkdownConfig{
			ContentDir: v.GetString("markdown.content_dir"),
			Pattern:    v.GetString("markdown.pattern"),
			Recursive:  v.GetBool("markdown.recursive"),
			Workers:    v.GetInt("markdown.workers"),
			Extensions: splitList(v.GetStringSlice("markdown.extensions")),
		},
		Logging: LoggingConfig{
			Provider:  v.GetString("logging.provider"),
			Level:     v.GetString("logging.level"),
			Format:    v.GetString("logging.format"),
			AddSource: v.GetBool("logging.add_source"),
			Focus:     splitList(v.GetStringSlice("logging.focus")),
		},
	}

	nodes, nodesErr := validation.NodeConfig(v.GetStringMap("markdown.nodes"))
	cfg.Markdown.Nodes = nodes

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if nodesErr != nil {
		return cfg, fmt.Errorf("%w: %w", ErrMarkdownNodesInvalid, nodesErr)
	}
	return cfg, nil
}

// splitList accepts both list values and comma separated strings, which is
// how list settings arrive from the environment.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
