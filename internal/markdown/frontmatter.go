package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v2"
)

// FrontMatterFormat names the metadata syntax of a front matter block.
type FrontMatterFormat string

const (
	FrontMatterYAML FrontMatterFormat = "yaml"
	FrontMatterTOML FrontMatterFormat = "toml"
	FrontMatterJSON FrontMatterFormat = "json"
)

// KindFrontMatterNode is the goldmark node kind of FrontMatter.
var KindFrontMatterNode = ast.NewNodeKind("FrontMatter")

// FrontMatter is a metadata block at the very start of a document. Lines hold
// the body between the delimiter lines.
type FrontMatter struct {
	ast.BaseBlock
	Format FrontMatterFormat
	Opener string
	Closer string
	Span   text.Segment
	closed bool
}

// Kind implements ast.Node.
func (n *FrontMatter) Kind() ast.NodeKind { return KindFrontMatterNode }

// IsRaw implements ast.Node.
func (n *FrontMatter) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *FrontMatter) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Format": string(n.Format),
	}, nil)
}

type frontMatterDelimiter struct {
	format  FrontMatterFormat
	closers []string
}

var frontMatterDelimiters = map[string]frontMatterDelimiter{
	"---":     {format: FrontMatterYAML, closers: []string{"---", "..."}},
	"---yaml": {format: FrontMatterYAML, closers: []string{"---"}},
	"---toml": {format: FrontMatterTOML, closers: []string{"---"}},
	"---json": {format: FrontMatterJSON, closers: []string{"---"}},
	"+++":     {format: FrontMatterTOML, closers: []string{"+++"}},
	";;;":     {format: FrontMatterJSON, closers: []string{";;;"}},
}

type frontMatterParser struct{}

// NewFrontMatterParser returns a block parser that claims a delimited
// metadata block starting at the first byte of the document.
func NewFrontMatterParser() parser.BlockParser {
	return &frontMatterParser{}
}

func (p *frontMatterParser) Trigger() []byte {
	return []byte{'-', '+', ';'}
}

func (p *frontMatterParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, seg := reader.PeekLine()
	if seg.Start != 0 || parent.Kind() != ast.KindDocument {
		return nil, parser.NoChildren
	}
	opener := string(util.TrimRightSpace(line))
	delim, ok := frontMatterDelimiters[opener]
	if !ok {
		return nil, parser.NoChildren
	}
	closer, ok := findFrontMatterCloser(reader.Source(), seg.Stop, delim.closers)
	if !ok {
		return nil, parser.NoChildren
	}
	node := &FrontMatter{
		Format: delim.format,
		Opener: opener,
		Closer: closer,
		Span:   text.NewSegment(0, len(opener)),
	}
	return node, parser.NoChildren
}

func (p *frontMatterParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*FrontMatter)
	if n.closed {
		return parser.Close
	}
	line, seg := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	trimmed := util.TrimRightSpace(line)
	if string(trimmed) == n.Closer {
		n.Span = text.NewSegment(n.Span.Start, seg.Start+len(trimmed))
		n.closed = true
		reader.Advance(len(trimmed))
		return parser.Close
	}
	n.Lines().Append(seg)
	n.Span = text.NewSegment(n.Span.Start, lineEnd(line, seg))
	reader.Advance(lineEnd(line, seg) - seg.Start)
	return parser.Continue | parser.NoChildren
}

func (p *frontMatterParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *frontMatterParser) CanInterruptParagraph() bool {
	return false
}

func (p *frontMatterParser) CanAcceptIndentedLine() bool {
	return false
}

// findFrontMatterCloser returns the first closing delimiter line after offset.
func findFrontMatterCloser(source []byte, offset int, closers []string) (string, bool) {
	for offset < len(source) {
		end := bytes.IndexByte(source[offset:], '\n')
		if end < 0 {
			end = len(source)
		} else {
			end += offset
		}
		line := string(util.TrimRightSpace(source[offset:end]))
		for _, closer := range closers {
			if line == closer {
				return closer, true
			}
		}
		offset = end + 1
	}
	return "", false
}

var frontMatterUnmarshalers = map[FrontMatterFormat]frontmatter.UnmarshalFunc{
	FrontMatterYAML: yaml.Unmarshal,
	FrontMatterTOML: toml.Unmarshal,
	FrontMatterJSON: json.Unmarshal,
}

// DecodeFrontMatter decodes the metadata of node into a map. Nested maps are
// normalized to map[string]any so the result encodes as JSON.
func DecodeFrontMatter(source []byte, node *FrontMatter) (map[string]any, error) {
	if node == nil {
		return nil, nil
	}
	unmarshal, ok := frontMatterUnmarshalers[node.Format]
	if !ok {
		return nil, fmt.Errorf("front matter: unsupported format %q", node.Format)
	}
	format := frontmatter.NewFormat(node.Opener, node.Closer, unmarshal)

	meta := map[string]any{}
	if _, err := frontmatter.MustParse(bytes.NewReader(source), &meta, format); err != nil {
		return nil, fmt.Errorf("front matter: decode %s: %w", node.Format, err)
	}
	return normalizeMeta(meta), nil
}

// FindFrontMatter returns the front matter node of a parsed document, if any.
func FindFrontMatter(doc ast.Node) *FrontMatter {
	if doc == nil {
		return nil
	}
	if fm, ok := doc.FirstChild().(*FrontMatter); ok {
		return fm
	}
	return nil
}

func normalizeMeta(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normalizeMetaValue(value)
	}
	return out
}

func normalizeMetaValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normalizeMeta(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[fmt.Sprint(key)] = normalizeMetaValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = normalizeMetaValue(val)
		}
		return out
	default:
		return value
	}
}
