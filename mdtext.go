package mdtext

import (
	"context"

	"github.com/goliatone/go-mdtext/internal/annotated"
	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/internal/markdown"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// Text exports the annotated text artifact.
type Text = annotated.Text

// Run exports one position map record of an annotated text.
type Run = annotated.Run

// Warning exports the non-fatal conversion diagnostic.
type Warning = annotated.Warning

// WarningType exports the warning categories.
type WarningType = annotated.WarningType

const (
	WarningUnknownNodeKind   = annotated.WarningUnknownNodeKind
	WarningUnknownAction     = annotated.WarningUnknownAction
	WarningInvalidSpan       = annotated.WarningInvalidSpan
	WarningFrontMatterDecode = annotated.WarningFrontMatterDecode
	WarningConfigSchema      = annotated.WarningConfigSchema
)

// Position exports the zero-based line/column pair.
type Position = annotated.Position

// LineIndex exports the offset to line/column resolver.
type LineIndex = annotated.LineIndex

// Document exports a Markdown file read from disk.
type Document = interfaces.Document

// Result exports the outcome of one conversion.
type Result = interfaces.ConversionResult

// BatchResult exports the outcome of a directory conversion.
type BatchResult = interfaces.BatchResult

type (
	ParseOptions   = interfaces.ParseOptions
	ConvertOptions = interfaces.ConvertOptions
	LoadOptions    = interfaces.LoadOptions
)

// Service exports the conversion service contract.
type Service = interfaces.AnnotatedTextService

// NewLineIndex indexes source for position lookups.
func NewLineIndex(source string) *LineIndex {
	return annotated.NewLineIndex(source)
}

// Module is the top level conversion façade.
type Module struct {
	cfg      Config
	provider interfaces.LoggerProvider
	service  *markdown.Service
}

// Option customises module construction.
type Option func(*moduleOptions)

type moduleOptions struct {
	provider interfaces.LoggerProvider
	parser   interfaces.MarkdownParser
}

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *moduleOptions) {
		o.provider = provider
	}
}

// WithParser replaces the goldmark parser.
func WithParser(parser interfaces.MarkdownParser) Option {
	return func(o *moduleOptions) {
		o.parser = parser
	}
}

// New validates cfg and constructs a module.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := moduleOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
	}

	service, err := markdown.NewService(markdown.Config{
		BasePath:  cfg.Markdown.ContentDir,
		Pattern:   cfg.Markdown.Pattern,
		Recursive: cfg.Markdown.Recursive,
		Workers:   cfg.Markdown.Workers,
		Parser:    interfaces.ParseOptions{Extensions: cfg.Markdown.Extensions},
		Nodes:     cfg.Markdown.Nodes,
		Logger:    logging.MarkdownLogger(provider),
	}, options.parser)
	if err != nil {
		return nil, err
	}

	return &Module{
		cfg:      cfg,
		provider: provider,
		service:  service,
	}, nil
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Service returns the conversion service.
func (m *Module) Service() Service {
	return m.service
}

// LoggerProvider returns the provider module loggers come from.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.provider
}

// Convert renders Markdown that does not come from a file.
func (m *Module) Convert(ctx context.Context, source []byte, opts ConvertOptions) (*Result, error) {
	return m.service.Convert(ctx, source, opts)
}

// ConvertFile converts a file relative to the content directory.
func (m *Module) ConvertFile(ctx context.Context, path string, opts LoadOptions) (*Result, error) {
	return m.service.ConvertFile(ctx, path, opts)
}

// ConvertDirectory converts every matching file under dir.
func (m *Module) ConvertDirectory(ctx context.Context, dir string, opts LoadOptions) (*BatchResult, error) {
	return m.service.ConvertDirectory(ctx, dir, opts)
}

// Build converts source with every parser extension enabled. nodes overrides
// node actions by kind name; entries it cannot resolve come back as warnings.
func Build(source string, nodes map[string]string) (*Text, []Warning) {
	policy, warnings := markdown.NewPolicy(nodes)
	data := []byte(source)
	tree := markdown.NewGoldmarkParser(interfaces.ParseOptions{}).Parse(data)
	conversion := markdown.Build(tree, data, policy)
	return conversion.Text, append(warnings, conversion.Warnings...)
}
