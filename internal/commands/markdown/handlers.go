package markdowncmd

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-mdtext/internal/commands"
	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

const (
	convertDocumentOperation  = "markdown.convert_document"
	convertDirectoryOperation = "markdown.convert_directory"
)

// ErrBatchFailures is returned when a directory run converted some files but
// failed on others. Results of the successful files are still delivered.
var ErrBatchFailures = errors.New("markdown command: some documents failed to convert")

var (
	_ command.Commander[ConvertDocumentCommand]  = (*ConvertDocumentHandler)(nil)
	_ command.Commander[ConvertDirectoryCommand] = (*ConvertDirectoryHandler)(nil)
)

// ResultSink receives conversion results produced by the handlers. Commands
// only return errors, so output is delivered here.
type ResultSink interface {
	Document(ctx context.Context, result *interfaces.ConversionResult) error
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(ctx context.Context, result *interfaces.ConversionResult) error

// Document implements ResultSink.
func (f SinkFunc) Document(ctx context.Context, result *interfaces.ConversionResult) error {
	return f(ctx, result)
}

func ensureSink(sink ResultSink) ResultSink {
	if sink == nil {
		return SinkFunc(func(context.Context, *interfaces.ConversionResult) error { return nil })
	}
	return sink
}

// ConvertDocumentHandler converts one file through the shared command handler foundation.
type ConvertDocumentHandler struct {
	inner *commands.Handler[ConvertDocumentCommand]
}

// NewConvertDocumentHandler creates a handler bound to the supplied conversion service.
func NewConvertDocumentHandler(service interfaces.AnnotatedTextService, sink ResultSink, logger interfaces.Logger, opts ...commands.HandlerOption[ConvertDocumentCommand]) *ConvertDocumentHandler {
	baseLogger := commands.EnsureLogger(logger)
	sink = ensureSink(sink)

	exec := func(ctx context.Context, msg ConvertDocumentCommand) error {
		result, err := service.ConvertFile(ctx, msg.Path, msg.Options())
		if err != nil {
			return err
		}
		if len(result.Warnings) > 0 {
			logging.WithFields(baseLogger, map[string]any{
				"path":          msg.Path,
				"warning_count": len(result.Warnings),
			}).Warn("markdown.command.convert_document.warnings")
		}
		return sink.Document(ctx, result)
	}

	handlerOpts := []commands.HandlerOption[ConvertDocumentCommand]{
		commands.WithLogger[ConvertDocumentCommand](baseLogger),
		commands.WithOperation[ConvertDocumentCommand](convertDocumentOperation),
		commands.WithMessageFields[ConvertDocumentCommand](func(msg ConvertDocumentCommand) map[string]any {
			fields := map[string]any{
				"path": msg.Path,
			}
			if len(msg.Extensions) > 0 {
				fields["extensions"] = msg.Extensions
			}
			if len(msg.Nodes) > 0 {
				fields["node_overrides"] = len(msg.Nodes)
			}
			return fields
		}),
		commands.WithTelemetry[ConvertDocumentCommand](commands.DefaultTelemetry[ConvertDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ConvertDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ConvertDocumentCommand].
func (h *ConvertDocumentHandler) Execute(ctx context.Context, msg ConvertDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ConvertDirectoryHandler converts a directory tree through the shared command handler foundation.
type ConvertDirectoryHandler struct {
	inner *commands.Handler[ConvertDirectoryCommand]
}

// NewConvertDirectoryHandler creates a handler bound to the supplied conversion service.
func NewConvertDirectoryHandler(service interfaces.AnnotatedTextService, sink ResultSink, logger interfaces.Logger, opts ...commands.HandlerOption[ConvertDirectoryCommand]) *ConvertDirectoryHandler {
	baseLogger := commands.EnsureLogger(logger)
	sink = ensureSink(sink)

	exec := func(ctx context.Context, msg ConvertDirectoryCommand) error {
		batch, err := service.ConvertDirectory(ctx, msg.Directory, msg.Options())
		if err != nil {
			return err
		}

		warnings := 0
		for _, result := range batch.Results {
			warnings += len(result.Warnings)
			if err := sink.Document(ctx, result); err != nil {
				return err
			}
		}

		logging.WithFields(baseLogger, map[string]any{
			"run_id":          batch.RunID.String(),
			"converted_count": len(batch.Results),
			"failed_count":    len(batch.Failures),
			"warning_count":   warnings,
			"duration_ms":     batch.Duration.Milliseconds(),
		}).Info("markdown.command.convert_directory.completed")

		if len(batch.Failures) > 0 {
			first := batch.Failures[0]
			return fmt.Errorf("%w: %d failed, first %s: %v", ErrBatchFailures, len(batch.Failures), first.FilePath, first.Err)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ConvertDirectoryCommand]{
		commands.WithLogger[ConvertDirectoryCommand](baseLogger),
		commands.WithOperation[ConvertDirectoryCommand](convertDirectoryOperation),
		commands.WithMessageFields[ConvertDirectoryCommand](func(msg ConvertDirectoryCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.Pattern != "" {
				fields["pattern"] = msg.Pattern
			}
			if msg.Recursive != nil {
				fields["recursive"] = *msg.Recursive
			}
			if len(msg.Extensions) > 0 {
				fields["extensions"] = msg.Extensions
			}
			if len(msg.Nodes) > 0 {
				fields["node_overrides"] = len(msg.Nodes)
			}
			return fields
		}),
		commands.WithTelemetry[ConvertDirectoryCommand](commands.DefaultTelemetry[ConvertDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ConvertDirectoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ConvertDirectoryCommand].
func (h *ConvertDirectoryHandler) Execute(ctx context.Context, msg ConvertDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
