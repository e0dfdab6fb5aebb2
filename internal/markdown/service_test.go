package markdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mdtext/internal/annotated"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

func TestServiceConvertFile(t *testing.T) {
	svc := newTestService(t, Config{})

	res, err := svc.ConvertFile(context.Background(), "intro.md", interfaces.LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "intro.md", res.Document.FilePath)
	assert.Len(t, res.Document.Checksum, 64)
	assert.Equal(t, "\n\n\n\nIntroduction\nThis is Dummy0 text.\n", res.Text.Plain())
	assert.Equal(t, "Intro", res.FrontMatter["title"])
	assert.Empty(t, res.Warnings)
	require.NoError(t, res.Text.Validate())
}

func TestServiceConvertAppliesConfiguredAndCallNodes(t *testing.T) {
	svc := newTestService(t, Config{
		Nodes: map[string]string{"InlineCode": "literal", "Heading": "drop"},
	})
	source := []byte("# Title\nUse `go test` here.\n")

	res, err := svc.Convert(context.Background(), source, interfaces.ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, "\nUse go test here.\n", res.Text.Plain())

	res, err = svc.Convert(context.Background(), source, interfaces.ConvertOptions{
		Nodes: map[string]string{"Heading": "plain"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Title\nUse go test here.\n", res.Text.Plain())
}

func TestServiceConvertReportsWarnings(t *testing.T) {
	svc := newTestService(t, Config{})

	res, err := svc.Convert(context.Background(), []byte("---\n- a\n- b\n---\nBody\n"), interfaces.ConvertOptions{
		Nodes: map[string]string{"Footnote": "drop"},
	})
	require.NoError(t, err)

	types := map[annotated.WarningType]bool{}
	for _, w := range res.Warnings {
		types[w.Type] = true
	}
	assert.True(t, types[annotated.WarningUnknownNodeKind], "expected unknown node kind warning: %#v", res.Warnings)
	assert.True(t, types[annotated.WarningFrontMatterDecode], "expected front matter warning: %#v", res.Warnings)
	assert.Nil(t, res.FrontMatter)
	assert.Equal(t, "\n\n\n\nBody\n", res.Text.Plain())
}

func TestServiceConvertDocumentRejectsNil(t *testing.T) {
	svc := newTestService(t, Config{})

	_, err := svc.ConvertDocument(context.Background(), nil, interfaces.ConvertOptions{})
	assert.ErrorIs(t, err, ErrNilDocument)
}

func TestServiceConvertHonoursCancelledContext(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Convert(ctx, []byte("Hello\n"), interfaces.ConvertOptions{})
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = svc.ConvertDirectory(ctx, ".", interfaces.LoadOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestServiceConvertDirectory(t *testing.T) {
	svc := newTestService(t, Config{Recursive: true, Workers: 4})
	clock := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	batch, err := svc.ConvertDirectory(context.Background(), ".", interfaces.LoadOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, batch.RunID)
	assert.Equal(t, 250*time.Millisecond, batch.Duration)
	assert.Empty(t, batch.Failures)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "guide/setup.md", batch.Results[0].Document.FilePath)
	assert.Equal(t, "intro.md", batch.Results[1].Document.FilePath)
	assert.Equal(t, "Setup\nRun the installer.\n", batch.Results[0].Text.Plain())
}

func TestServiceConvertDirectoryOverrides(t *testing.T) {
	svc := newTestService(t, Config{Recursive: true})

	no := false
	batch, err := svc.ConvertDirectory(context.Background(), ".", interfaces.LoadOptions{Recursive: &no})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "intro.md", batch.Results[0].Document.FilePath)

	batch, err = svc.ConvertDirectory(context.Background(), ".", interfaces.LoadOptions{
		Pattern: "*.txt",
		Convert: interfaces.ConvertOptions{Parser: interfaces.ParseOptions{Extensions: []string{"gfm"}}},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "notes.txt", batch.Results[0].Document.FilePath)
	assert.Equal(t, "Not a Markdown file.\n", batch.Results[0].Text.Plain())
}

func TestServiceEffectiveWorkerCount(t *testing.T) {
	svc := newTestService(t, Config{Workers: 8})
	assert.Equal(t, 3, svc.effectiveWorkerCount(3))
	assert.Equal(t, 8, svc.effectiveWorkerCount(20))

	svc = newTestService(t, Config{})
	assert.GreaterOrEqual(t, svc.effectiveWorkerCount(100), 1)
}

func TestNewServiceRejectsMissingBasePath(t *testing.T) {
	_, err := NewService(Config{BasePath: "testdata/does-not-exist"}, nil)
	assert.Error(t, err)
}

func newTestService(tb testing.TB, cfg Config) *Service {
	tb.Helper()
	cfg.BasePath = "testdata/docs"

	svc, err := NewService(cfg, nil)
	require.NoError(tb, err)
	return svc
}
