package markdowncmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-mdtext/internal/commands"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the handlers produced by RegisterMarkdownCommands.
type HandlerSet struct {
	Document  *ConvertDocumentHandler
	Directory *ConvertDirectoryHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	sink          ResultSink
	documentOpts  []commands.HandlerOption[ConvertDocumentCommand]
	directoryOpts []commands.HandlerOption[ConvertDirectoryCommand]
}

// WithResultSink delivers conversion results to sink.
func WithResultSink(sink ResultSink) Option {
	return func(cfg *options) {
		cfg.sink = sink
	}
}

// WithDocumentHandlerOptions forwards options to the ConvertDocumentHandler constructor.
func WithDocumentHandlerOptions(opts ...commands.HandlerOption[ConvertDocumentCommand]) Option {
	return func(cfg *options) {
		cfg.documentOpts = append(cfg.documentOpts, opts...)
	}
}

// WithDirectoryHandlerOptions forwards options to the ConvertDirectoryHandler constructor.
func WithDirectoryHandlerOptions(opts ...commands.HandlerOption[ConvertDirectoryCommand]) Option {
	return func(cfg *options) {
		cfg.directoryOpts = append(cfg.directoryOpts, opts...)
	}
}

// RegisterMarkdownCommands builds the conversion handlers and registers them
// with reg when it is not nil.
func RegisterMarkdownCommands(reg CommandRegistry, service interfaces.AnnotatedTextService, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("markdown command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "markdown")

	documentHandler := NewConvertDocumentHandler(service, cfg.sink, logger, cfg.documentOpts...)
	directoryHandler := NewConvertDirectoryHandler(service, cfg.sink, logger, cfg.directoryOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(documentHandler); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(directoryHandler); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		Document:  documentHandler,
		Directory: directoryHandler,
	}, nil
}

// RegisterMarkdownCron schedules a recurring directory conversion, e.g. to
// re-check a documentation tree. The handler runs with a background context.
func RegisterMarkdownCron(reg CronRegistrar, handler *ConvertDirectoryHandler, cfg command.HandlerConfig, msg ConvertDirectoryCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
