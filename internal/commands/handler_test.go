package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

type testMessage struct {
	Path string
}

func (testMessage) Type() string { return "mdtext.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "mdtext.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var infos []TelemetryInfo
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	execErr := errors.New("boom")
	fail := false

	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if fail {
			return execErr
		}
		return nil
	},
		WithOperation[testMessage]("markdown.convert"),
		WithMessageFields[testMessage](func(msg testMessage) map[string]any {
			return map[string]any{"path": msg.Path}
		}),
		WithTelemetry[testMessage](func(ctx context.Context, msg testMessage, info TelemetryInfo) {
			infos = append(infos, info)
		}),
		WithClock[testMessage](func() time.Time {
			clock = clock.Add(5 * time.Millisecond)
			return clock
		}),
	)

	if err := h.Execute(context.Background(), testMessage{Path: "a.md"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fail = true
	if err := h.Execute(context.Background(), testMessage{Path: "b.md"}); !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 telemetry calls, got %d", len(infos))
	}
	first := infos[0]
	if first.Status != TelemetryStatusSuccess || first.Command != "mdtext.test.message" || first.Operation != "markdown.convert" {
		t.Fatalf("unexpected success info %#v", first)
	}
	if first.Fields["path"] != "a.md" || first.Fields["operation"] != "markdown.convert" {
		t.Fatalf("expected message fields merged, got %#v", first.Fields)
	}
	if first.Duration != 5*time.Millisecond {
		t.Fatalf("expected 5ms duration, got %v", first.Duration)
	}
	if infos[1].Status != TelemetryStatusFailed || !errors.Is(infos[1].Error, execErr) {
		t.Fatalf("unexpected failure info %#v", infos[1])
	}
}

func TestHandlerTelemetryFlagsContextErrors(t *testing.T) {
	var status TelemetryStatus
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return context.DeadlineExceeded
	}, WithTelemetry[testMessage](func(ctx context.Context, msg testMessage, info TelemetryInfo) {
		status = info.Status
	}))

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if status != TelemetryStatusContextError {
		t.Fatalf("expected context error status, got %q", status)
	}
}

type entryLogger struct {
	entries *[]string
	fields  map[string]any
}

func (l entryLogger) Trace(msg string, args ...any) { l.add(msg) }
func (l entryLogger) Debug(msg string, args ...any) { l.add(msg) }
func (l entryLogger) Info(msg string, args ...any)  { l.add(msg) }
func (l entryLogger) Warn(msg string, args ...any)  { l.add(msg) }
func (l entryLogger) Error(msg string, args ...any) { l.add(msg) }
func (l entryLogger) Fatal(msg string, args ...any) { l.add(msg) }

func (l entryLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l entryLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := map[string]any{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return entryLogger{entries: l.entries, fields: merged}
}

func (l entryLogger) add(msg string) {
	*l.entries = append(*l.entries, msg)
}

func TestDefaultTelemetryLogsOutcome(t *testing.T) {
	var entries []string
	logger := entryLogger{entries: &entries}

	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return nil
	}, WithTelemetry[testMessage](DefaultTelemetry[testMessage](logger)))

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0] != "command.execute.success" {
		t.Fatalf("expected a single success entry, got %v", entries)
	}
}

func TestCommandLoggerTagsGroup(t *testing.T) {
	var entries []string
	provider := providerFunc(func(name string) interfaces.Logger {
		if name != "mdtext.commands" {
			t.Fatalf("expected commands module, got %q", name)
		}
		return entryLogger{entries: &entries}
	})

	logger, ok := CommandLogger(provider, "markdown").(entryLogger)
	if !ok {
		t.Fatalf("expected provider logger to be returned")
	}
	if logger.fields["command_group"] != "markdown" || logger.fields["module"] != "mdtext.commands" {
		t.Fatalf("unexpected fields %#v", logger.fields)
	}
}

type providerFunc func(name string) interfaces.Logger

func (f providerFunc) GetLogger(name string) interfaces.Logger { return f(name) }
