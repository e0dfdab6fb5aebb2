package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark/ast"

	"github.com/goliatone/go-mdtext/internal/annotated"
)

// MarkdownParser turns raw Markdown into a goldmark syntax tree. Implementations
// must keep nodes in source order and must not rewrite text, since the
// annotated text builder maps every emitted byte back to the source.
type MarkdownParser interface {
	// Parse builds a tree using the parser's default settings.
	Parse(markdown []byte) ast.Node
	// ParseWithOptions builds a tree using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ast.Node
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	// Extensions selects dialect extensions by name. Empty enables all of them.
	Extensions []string
}

// ConvertOptions tunes a single conversion.
type ConvertOptions struct {
	Parser ParseOptions
	// Nodes overrides node actions keyed by node kind name, e.g.
	// {"FencedCodeBlock": "default"}. Entries replace configured ones.
	Nodes map[string]string
}

// LoadOptions fine-tunes how documents are discovered on disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Convert   ConvertOptions
}

// AnnotatedTextService converts Markdown documents into annotated text: a
// plain rendering for grammar checking plus its position map.
type AnnotatedTextService interface {
	Convert(ctx context.Context, markdown []byte, opts ConvertOptions) (*ConversionResult, error)
	ConvertFile(ctx context.Context, path string, opts LoadOptions) (*ConversionResult, error)
	ConvertDirectory(ctx context.Context, dir string, opts LoadOptions) (*BatchResult, error)
}

// Document represents a Markdown file read from disk.
type Document struct {
	FilePath     string
	Source       []byte
	LastModified time.Time
	// Checksum is the hex BLAKE3 digest of Source.
	Checksum string
}

// ConversionResult pairs a document with its annotated text.
type ConversionResult struct {
	Document    *Document
	Text        *annotated.Text
	FrontMatter map[string]any
	Warnings    []annotated.Warning
}

// ConversionFailure records a file a batch run could not convert.
type ConversionFailure struct {
	FilePath string
	Err      error
}

// BatchResult summarises a directory conversion. Results and Failures are
// ordered by file path.
type BatchResult struct {
	RunID    uuid.UUID
	Results  []*ConversionResult
	Failures []ConversionFailure
	Duration time.Duration
}
