package mdtext

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	markdowncmd "github.com/goliatone/go-mdtext/internal/commands/markdown"
)

type (
	// ConvertDocumentCommand converts one file relative to the content directory.
	ConvertDocumentCommand = markdowncmd.ConvertDocumentCommand
	// ConvertDirectoryCommand converts every matching file under a directory.
	ConvertDirectoryCommand = markdowncmd.ConvertDirectoryCommand
	// ResultSink receives results produced by command handlers.
	ResultSink = markdowncmd.ResultSink
	// SinkFunc adapts a function to ResultSink.
	SinkFunc = markdowncmd.SinkFunc
)

// ErrBatchFailures is returned by directory handlers when some files failed.
var ErrBatchFailures = markdowncmd.ErrBatchFailures

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry      CommandRegistry
	Dispatcher    CommandDispatcher
	CronRegistrar CronRegistrar
	// Sink receives every conversion result produced by the handlers.
	Sink ResultSink
	// CronExpression schedules a recurring conversion of CronDirectory. Empty
	// disables scheduling.
	CronExpression string
	CronDirectory  string
}

// RegistrationResult captures the constructed handlers and dispatcher subscriptions.
type RegistrationResult struct {
	Document      *markdowncmd.ConvertDocumentHandler
	Directory     *markdowncmd.ConvertDirectoryHandler
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterCommands builds the conversion command handlers and registers them
// with the registry, dispatcher and cron integrations in opts. Registration
// errors are joined; handlers are returned even when some registrations fail.
func (m *Module) RegisterCommands(opts RegistrationOptions) (*RegistrationResult, error) {
	if m == nil || m.service == nil {
		return &RegistrationResult{}, errors.New("mdtext: module is not initialised")
	}

	set, err := markdowncmd.RegisterMarkdownCommands(nil, m.service, m.provider, markdowncmd.WithResultSink(opts.Sink))
	if err != nil {
		return &RegistrationResult{}, err
	}

	result := &RegistrationResult{
		Document:      set.Document,
		Directory:     set.Directory,
		Handlers:      make([]any, 0, 2),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error
	register := func(handler any) {
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	register(set.Document)
	register(set.Directory)

	if expr := strings.TrimSpace(opts.CronExpression); expr != "" && opts.CronRegistrar != nil {
		dir := strings.TrimSpace(opts.CronDirectory)
		if dir == "" {
			dir = "."
		}
		err := markdowncmd.RegisterMarkdownCron(
			markdowncmd.CronRegistrar(opts.CronRegistrar),
			set.Directory,
			command.HandlerConfig{Expression: expr},
			ConvertDirectoryCommand{Directory: dir},
		)
		if err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return result, errs
}
