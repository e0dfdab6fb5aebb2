package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdtext/internal/annotated"
	"github.com/goliatone/go-mdtext/internal/logging"
	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

// ErrNilDocument is returned when a conversion is requested for a nil document.
var ErrNilDocument = errors.New("markdown service: document is nil")

// Config controls how the Markdown service discovers, parses and converts files.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	// Workers bounds directory conversion concurrency. Zero uses runtime.NumCPU.
	Workers int
	Parser  interfaces.ParseOptions
	// Nodes holds the configured node actions keyed by node kind name.
	Nodes  map[string]string
	Logger interfaces.Logger
}

// Service implements interfaces.AnnotatedTextService for filesystem-backed documents.
type Service struct {
	cfg    Config
	parser interfaces.MarkdownParser
	loader *Loader
	logger interfaces.Logger
	now    func() time.Time
}

var _ interfaces.AnnotatedTextService = (*Service)(nil)

// NewService constructs a conversion service. When parser is nil, a goldmark
// parser with the configured default options is created.
func NewService(cfg Config, parser interfaces.MarkdownParser) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}

	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	loader := NewLoader(filesystem, LoaderConfig{
		BasePath:  cfg.BasePath,
		Pattern:   cfg.Pattern,
		Recursive: cfg.Recursive,
	})

	return &Service{
		cfg:    cfg,
		parser: parser,
		loader: loader,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Convert renders Markdown bytes that do not come from a file.
func (s *Service) Convert(ctx context.Context, markdown []byte, opts interfaces.ConvertOptions) (*interfaces.ConversionResult, error) {
	doc := &interfaces.Document{
		Source:   markdown,
		Checksum: Checksum(markdown),
	}
	return s.ConvertDocument(ctx, doc, opts)
}

// ConvertFile reads a document relative to the configured base path and converts it.
func (s *Service) ConvertFile(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.ConversionResult, error) {
	doc, err := s.loader.LoadFile(ctx, s.normalisePath(path))
	if err != nil {
		return nil, err
	}
	return s.ConvertDocument(ctx, doc, opts.Convert)
}

// ConvertDocument converts an already loaded document. Content problems never
// fail the conversion; they are reported as warnings on the result.
func (s *Service) ConvertDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ConvertOptions) (*interfaces.ConversionResult, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	logger := logging.WithMarkdownContext(s.logger.WithContext(ctx), doc.FilePath, doc.Checksum)
	policy, warnings := NewPolicy(mergeNodes(s.cfg.Nodes, opts.Nodes))

	tree := s.parser.ParseWithOptions(doc.Source, mergeParseOptions(s.cfg.Parser, opts.Parser))
	conversion := Build(tree, doc.Source, policy)
	warnings = append(warnings, conversion.Warnings...)

	var meta map[string]any
	if fm := FindFrontMatter(tree); fm != nil {
		decoded, err := DecodeFrontMatter(doc.Source, fm)
		if err != nil {
			warnings = append(warnings, annotated.Warning{
				Type:    annotated.WarningFrontMatterDecode,
				Offset:  fm.Span.Start,
				Message: err.Error(),
			})
		} else {
			meta = decoded
		}
	}

	if len(warnings) > 0 {
		logger.Debug("markdown.convert.warnings", "count", len(warnings))
	}
	logger.Debug("markdown.convert.completed",
		"source_bytes", len(doc.Source),
		"plain_bytes", len(conversion.Text.Plain()),
		"runs", len(conversion.Text.Runs()),
	)

	return &interfaces.ConversionResult{
		Document:    doc,
		Text:        conversion.Text,
		FrontMatter: meta,
		Warnings:    warnings,
	}, nil
}

// ConvertDirectory converts every Markdown document under dir using a bounded
// worker pool. Per-file failures are collected instead of aborting the run.
func (s *Service) ConvertDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) (*interfaces.BatchResult, error) {
	started := s.now()
	paths, err := s.loader.Discover(ctx, s.normalisePath(dir), LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return nil, err
	}

	result := &interfaces.BatchResult{RunID: uuid.New()}
	ctx = logging.ContextWithRunID(ctx, result.RunID.String())
	logger := s.logger.WithContext(ctx)
	logger.Info("markdown.convert_directory.start", "dir", dir, "files", len(paths))

	var mu sync.Mutex
	collect := func(path string, res *interfaces.ConversionResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Warn("markdown.convert_directory.file_failed", "path", path, "error", err)
			result.Failures = append(result.Failures, interfaces.ConversionFailure{FilePath: path, Err: err})
			return
		}
		result.Results = append(result.Results, res)
	}

	workers := s.effectiveWorkerCount(len(paths))
	runErr := s.convertConcurrently(ctx, paths, workers, opts, collect)

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Document.FilePath < result.Results[j].Document.FilePath
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].FilePath < result.Failures[j].FilePath
	})
	result.Duration = s.now().Sub(started)

	logger.Info("markdown.convert_directory.completed",
		"converted", len(result.Results),
		"failed", len(result.Failures),
		"workers", workers,
	)
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func (s *Service) convertConcurrently(
	ctx context.Context,
	paths []string,
	workers int,
	opts interfaces.LoadOptions,
	collect func(string, *interfaces.ConversionResult, error),
) error {
	if len(paths) == 0 {
		return nil
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					collect(path, nil, ctx.Err())
					continue
				default:
				}
				res, err := s.ConvertFile(ctx, path, opts)
				collect(path, res, err)
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *Service) effectiveWorkerCount(files int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if files > 0 && workers > files {
		workers = files
	}
	return workers
}

func (s *Service) normalisePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	return result
}

func mergeNodes(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
