package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/goliatone/go-mdtext/internal/runtimeconfig"
	"github.com/goliatone/go-mdtext/internal/validation"
)

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresContentDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.ContentDir = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrMarkdownContentDirRequired) {
		t.Fatalf("expected ErrMarkdownContentDirRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeWorkers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Workers = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrMarkdownWorkersInvalid) {
		t.Fatalf("expected ErrMarkdownWorkersInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownExtension(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Extensions = []string{"table", "footnotes"}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrMarkdownExtensionUnknown) {
		t.Fatalf("expected ErrMarkdownExtensionUnknown, got %v", err)
	}
}

func TestConfigValidate_AcceptsExtensionAliases(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Extensions = []string{"GFM", "latex", "front_matter"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestLoad_UsesDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := runtimeconfig.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	defaults := runtimeconfig.DefaultConfig()
	if cfg.Markdown.Pattern != defaults.Markdown.Pattern {
		t.Fatalf("expected pattern %q, got %q", defaults.Markdown.Pattern, cfg.Markdown.Pattern)
	}
	if !cfg.Markdown.Recursive {
		t.Fatalf("expected recursive default")
	}
	if cfg.Logging.Provider != "console" {
		t.Fatalf("expected console provider, got %q", cfg.Logging.Provider)
	}
	if len(cfg.Markdown.Nodes) != 0 {
		t.Fatalf("expected no node overrides, got %v", cfg.Markdown.Nodes)
	}
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	path := writeConfig(t, "mdtext.yaml", `markdown:
  content_dir: docs
  workers: 2
  extensions: [table, math]
  nodes:
    FencedCodeBlock: default
    Code: default
logging:
  provider: gologger
  level: debug
  format: json
`)

	cfg, err := runtimeconfig.Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Markdown.ContentDir != "docs" {
		t.Fatalf("expected content dir docs, got %q", cfg.Markdown.ContentDir)
	}
	if cfg.Markdown.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", cfg.Markdown.Workers)
	}
	if len(cfg.Markdown.Extensions) != 2 || cfg.Markdown.Extensions[0] != "table" || cfg.Markdown.Extensions[1] != "math" {
		t.Fatalf("unexpected extensions %v", cfg.Markdown.Extensions)
	}
	// Keys come back lower-cased; node kind lookups are case-insensitive.
	if cfg.Markdown.Nodes["fencedcodeblock"] != "default" || cfg.Markdown.Nodes["code"] != "default" {
		t.Fatalf("unexpected nodes %v", cfg.Markdown.Nodes)
	}
	if cfg.Logging.Provider != "gologger" || cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "mdtext.toml", `[markdown]
workers = 2
`)
	t.Setenv("MDTEXT_MARKDOWN_WORKERS", "6")
	t.Setenv("MDTEXT_MARKDOWN_EXTENSIONS", "table,definitionlist")

	cfg, err := runtimeconfig.Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Markdown.Workers != 6 {
		t.Fatalf("expected env workers 6, got %d", cfg.Markdown.Workers)
	}
	if len(cfg.Markdown.Extensions) != 2 || cfg.Markdown.Extensions[1] != "definitionlist" {
		t.Fatalf("unexpected extensions %v", cfg.Markdown.Extensions)
	}
}

func TestLoad_KeepsUsableNodesWhenShapeIsInvalid(t *testing.T) {
	path := writeConfig(t, "mdtext.json", `{"markdown": {"nodes": {"Code": 5, "MathInline": "literal"}}}`)

	cfg, err := runtimeconfig.Load(viper.New(), path)
	if !errors.Is(err, runtimeconfig.ErrMarkdownNodesInvalid) {
		t.Fatalf("expected ErrMarkdownNodesInvalid, got %v", err)
	}
	if cfg.Markdown.Nodes["mathinline"] != "literal" {
		t.Fatalf("expected usable entry to survive, got %v", cfg.Markdown.Nodes)
	}
	if _, ok := cfg.Markdown.Nodes["code"]; ok {
		t.Fatalf("expected invalid entry to be dropped, got %v", cfg.Markdown.Nodes)
	}
	if warnings := validation.Warnings(err); len(warnings) == 0 {
		t.Fatalf("expected schema warnings from load error")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := runtimeconfig.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, runtimeconfig.ErrConfigRead) {
		t.Fatalf("expected ErrConfigRead, got %v", err)
	}
}

func TestLoad_ValidatesResult(t *testing.T) {
	path := writeConfig(t, "mdtext.yaml", "logging:\n  provider: syslog\n")

	_, err := runtimeconfig.Load(viper.New(), path)
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
