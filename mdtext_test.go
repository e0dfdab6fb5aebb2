package mdtext_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	command "github.com/goliatone/go-command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mdtext"
	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger { return logging.NoOp() }

func newModule(t *testing.T, files map[string]string) *mdtext.Module {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	cfg := mdtext.DefaultConfig()
	cfg.Markdown.ContentDir = dir
	module, err := mdtext.New(cfg, mdtext.WithLoggerProvider(noopProvider{}))
	require.NoError(t, err)
	return module
}

func TestBuildRendersPlainText(t *testing.T) {
	source := "# Heading\nParagraph with\nmultiple lines and [link](example.com)\n"
	text, warnings := mdtext.Build(source, nil)

	require.Empty(t, warnings)
	assert.Equal(t, "Heading\nParagraph with multiple lines and link\n", text.Plain())
	require.NoError(t, text.Validate())
	assert.Equal(t, len(source), text.SourceLength())
}

func TestBuildMapsOffsetsBackToSource(t *testing.T) {
	source := "Some *emphasis* here.\n"
	text, _ := mdtext.Build(source, nil)
	require.Equal(t, "Some emphasis here.\n", text.Plain())

	start, end := text.SourceRange(5, 13)
	assert.Equal(t, "emphasis", source[start:end])
}

func TestBuildReportsUnresolvedNodes(t *testing.T) {
	text, warnings := mdtext.Build("Call `f`.\n", map[string]string{
		"NoSuchKind": "drop",
		"InlineCode": "default",
	})

	assert.Equal(t, "Call f.\n", text.Plain())
	require.Len(t, warnings, 1)
	assert.Equal(t, mdtext.WarningUnknownNodeKind, warnings[0].Type)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := mdtext.DefaultConfig()
	cfg.Markdown.Workers = -1

	_, err := mdtext.New(cfg)
	require.ErrorIs(t, err, mdtext.ErrMarkdownWorkersInvalid)
}

func TestNewLoggerProviderSelectsImplementation(t *testing.T) {
	provider, err := mdtext.NewLoggerProvider(mdtext.LoggingConfig{Provider: "console", Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, provider.GetLogger("mdtext.test"))

	provider, err = mdtext.NewLoggerProvider(mdtext.LoggingConfig{Provider: "gologger", Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, provider.GetLogger("mdtext.test"))

	_, err = mdtext.NewLoggerProvider(mdtext.LoggingConfig{Provider: "syslog"})
	require.ErrorIs(t, err, mdtext.ErrLoggingProviderUnknown)
}

func TestModuleConvertFile(t *testing.T) {
	module := newModule(t, map[string]string{
		"intro.md": "---\ntitle: Intro\n---\n\nThis is `code` text.\n",
	})

	result, err := module.ConvertFile(context.Background(), "intro.md", mdtext.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "\n\n\n\nThis is Dummy0 text.\n", result.Text.Plain())
	assert.Equal(t, "Intro", result.FrontMatter["title"])
	assert.Equal(t, "intro.md", result.Document.FilePath)
}

func TestModuleConvertDirectory(t *testing.T) {
	module := newModule(t, map[string]string{
		"b.md":        "Second.\n",
		"a.md":        "First.\n",
		"sub/c.md":    "Third.\n",
		"ignored.txt": "Not Markdown.\n",
	})

	batch, err := module.ConvertDirectory(context.Background(), ".", mdtext.LoadOptions{})
	require.NoError(t, err)
	require.Empty(t, batch.Failures)
	require.Len(t, batch.Results, 3)

	paths := []string{}
	for _, result := range batch.Results {
		paths = append(paths, result.Document.FilePath)
	}
	assert.Equal(t, []string{"a.md", "b.md", "sub/c.md"}, paths)
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type subscription struct{}

func (subscription) Unsubscribe() {}

type recordingDispatcher struct {
	handlers []any
}

func (d *recordingDispatcher) RegisterCommand(handler any) (mdtext.CommandSubscription, error) {
	d.handlers = append(d.handlers, handler)
	return subscription{}, nil
}

func TestRegisterCommandsWiresIntegrations(t *testing.T) {
	module := newModule(t, map[string]string{"a.md": "First.\n"})

	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}
	var cronConfigs []command.HandlerConfig
	var cronHandlers []any
	var delivered []string

	result, err := module.RegisterCommands(mdtext.RegistrationOptions{
		Registry:   registry,
		Dispatcher: dispatcher,
		CronRegistrar: func(cfg command.HandlerConfig, handler any) error {
			cronConfigs = append(cronConfigs, cfg)
			cronHandlers = append(cronHandlers, handler)
			return nil
		},
		Sink: mdtext.SinkFunc(func(_ context.Context, result *mdtext.Result) error {
			delivered = append(delivered, result.Document.FilePath)
			return nil
		}),
		CronExpression: "@daily",
	})
	require.NoError(t, err)

	require.Len(t, result.Handlers, 2)
	assert.Len(t, registry.handlers, 2)
	assert.Len(t, dispatcher.handlers, 2)
	assert.Len(t, result.Subscriptions, 2)
	require.Len(t, cronConfigs, 1)
	assert.Equal(t, "@daily", cronConfigs[0].Expression)

	run, ok := cronHandlers[0].(func() error)
	require.True(t, ok)
	require.NoError(t, run())
	assert.Equal(t, []string{"a.md"}, delivered)

	require.NoError(t, result.Document.Execute(context.Background(), mdtext.ConvertDocumentCommand{Path: "a.md"}))
	assert.Equal(t, []string{"a.md", "a.md"}, delivered)
}
