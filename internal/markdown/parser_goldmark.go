package markdown

import (
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-mdtext/pkg/interfaces"
)

const (
	ExtensionTable          = "table"
	ExtensionStrikethrough  = "strikethrough"
	ExtensionTaskList       = "tasklist"
	ExtensionDefinitionList = "definitionlist"
	ExtensionMath           = "math"
	ExtensionFrontMatter    = "frontmatter"
)

// GoldmarkParser produces goldmark syntax trees for the builder. Engines are
// cached per extension set; goldmark parsers are safe for concurrent use once
// initialised.
type GoldmarkParser struct {
	defaultOptions interfaces.ParseOptions

	mu      sync.Mutex
	engines map[string]goldmark.Markdown
}

// NewGoldmarkParser constructs a parser. Empty Extensions enable every
// supported dialect extension.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{
		defaultOptions: defaults,
		engines:        map[string]goldmark.Markdown{},
	}
}

// Parse builds the syntax tree of source using the default options.
func (p *GoldmarkParser) Parse(source []byte) ast.Node {
	return p.ParseWithOptions(source, p.defaultOptions)
}

// ParseWithOptions builds the syntax tree of source using opts.
func (p *GoldmarkParser) ParseWithOptions(source []byte, opts interfaces.ParseOptions) ast.Node {
	engine := p.engine(opts)
	return engine.Parser().Parse(text.NewReader(source))
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	set := collectExtensions(opts.Extensions)
	key := set.key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if engine, ok := p.engines[key]; ok {
		return engine
	}
	engine := newGoldmarkEngine(set)
	p.engines[key] = engine
	return engine
}

// newGoldmarkEngine assembles goldmark around the default parsers, with the
// parsers whose nodes lack positions wrapped by span recorders.
func newGoldmarkEngine(set extensionSet) goldmark.Markdown {
	blockParsers := []util.PrioritizedValue{
		util.Prioritized(parser.NewSetextHeadingParser(), 100),
		util.Prioritized(recordBlockSpans(parser.NewThematicBreakParser()), 200),
		util.Prioritized(parser.NewListParser(), 300),
		util.Prioritized(parser.NewListItemParser(), 400),
		util.Prioritized(parser.NewCodeBlockParser(), 500),
		util.Prioritized(parser.NewATXHeadingParser(), 600),
		util.Prioritized(recordBlockSpans(parser.NewFencedCodeBlockParser()), 700),
		util.Prioritized(parser.NewBlockquoteParser(), 800),
		util.Prioritized(parser.NewHTMLBlockParser(), 900),
		util.Prioritized(parser.NewParagraphParser(), 1000),
	}
	inlineParsers := []util.PrioritizedValue{
		util.Prioritized(recordInlineSpans(parser.NewCodeSpanParser()), 100),
		util.Prioritized(recordInlineSpans(parser.NewLinkParser()), 200),
		util.Prioritized(recordInlineSpans(parser.NewAutoLinkParser()), 300),
		util.Prioritized(parser.NewRawHTMLParser(), 400),
		util.Prioritized(parser.NewEmphasisParser(), 500),
	}

	if set[ExtensionFrontMatter] {
		blockParsers = append(blockParsers, util.Prioritized(NewFrontMatterParser(), 0))
	}
	if set[ExtensionMath] {
		blockParsers = append(blockParsers, util.Prioritized(NewMathBlockParser(), 650))
		inlineParsers = append(inlineParsers, util.Prioritized(NewMathInlineParser(), 150))
	}
	if set[ExtensionTaskList] {
		inlineParsers = append(inlineParsers, util.Prioritized(recordInlineSpans(extension.NewTaskCheckBoxParser()), 0))
	}

	p := parser.NewParser(
		parser.WithBlockParsers(blockParsers...),
		parser.WithInlineParsers(inlineParsers...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)

	var extenders []goldmark.Extender
	if set[ExtensionTable] {
		extenders = append(extenders, extension.Table)
	}
	if set[ExtensionStrikethrough] {
		extenders = append(extenders, extension.Strikethrough)
	}
	if set[ExtensionDefinitionList] {
		extenders = append(extenders, extension.DefinitionList)
	}

	return goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(extenders...),
	)
}

// extensionSet holds the enabled extension names.
type extensionSet map[string]bool

func (s extensionSet) key() string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

var allExtensions = []string{
	ExtensionTable,
	ExtensionStrikethrough,
	ExtensionTaskList,
	ExtensionDefinitionList,
	ExtensionMath,
	ExtensionFrontMatter,
}

var extensionRegistry = map[string][]string{
	"gfm":            {ExtensionTable, ExtensionStrikethrough, ExtensionTaskList},
	"table":          {ExtensionTable},
	"tables":         {ExtensionTable},
	"strikethrough":  {ExtensionStrikethrough},
	"tasklist":       {ExtensionTaskList},
	"definition":     {ExtensionDefinitionList},
	"definitionlist": {ExtensionDefinitionList},
	"math":           {ExtensionMath},
	"latex":          {ExtensionMath},
	"frontmatter":    {ExtensionFrontMatter},
	"front_matter":   {ExtensionFrontMatter},
	"all":            allExtensions,
}

// SupportedExtensions lists the names collectExtensions understands.
func SupportedExtensions() []string {
	names := make([]string, 0, len(extensionRegistry))
	for name := range extensionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectExtensions(names []string) extensionSet {
	set := extensionSet{}
	if len(names) == 0 {
		for _, name := range allExtensions {
			set[name] = true
		}
		return set
	}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		exts, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		for _, ext := range exts {
			set[ext] = true
		}
	}
	return set
}
