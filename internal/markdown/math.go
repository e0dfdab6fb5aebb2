package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MathStyle records which delimiter pair introduced a math span.
type MathStyle int

const (
	// MathDollar is $...$.
	MathDollar MathStyle = iota
	// MathDoubleDollar is $$...$$.
	MathDoubleDollar
	// MathGitLab is $`...`$.
	MathGitLab
)

// KindMathInlineNode is the goldmark node kind of MathInline.
var KindMathInlineNode = ast.NewNodeKind("MathInline")

// KindMathBlockNode is the goldmark node kind of MathBlock.
var KindMathBlockNode = ast.NewNodeKind("MathBlock")

// MathInline is an inline math span. Span covers the delimiters, Content does not.
type MathInline struct {
	ast.BaseInline
	Style   MathStyle
	Span    text.Segment
	Content text.Segment
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInlineNode }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Content": string(n.Content.Value(source)),
	}, nil)
}

// MathBlock is a $$ display block. Lines hold the body between the delimiters.
type MathBlock struct {
	ast.BaseBlock
	Span   text.Segment
	closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlockNode }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathInlineParser struct{}

// NewMathInlineParser returns a parser for $...$, $$...$$ and $`...`$ spans.
// A lone dollar that never finds a closer stays text, so currency amounts
// survive.
func NewMathInlineParser() parser.InlineParser {
	return &mathInlineParser{}
}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if len(line) < 2 {
		return nil
	}
	start := seg.Start

	var (
		style    MathStyle
		opener   int
		closer   closerFunc
		sentence bool
	)
	switch {
	case line[1] == '`':
		style, opener, closer = MathGitLab, 2, gitLabCloser
	case line[1] == '$':
		style, opener, closer = MathDoubleDollar, 2, doubleDollarCloser
	case util.IsSpace(line[1]):
		return nil
	default:
		style, opener, closer = MathDollar, 1, dollarCloser
		sentence = line[1] >= '0' && line[1] <= '9'
	}

	content, stop, ok := scanMath(block, opener, closer, sentence)
	if !ok || content.IsEmpty() {
		return nil
	}
	return &MathInline{
		Style:   style,
		Span:    text.NewSegment(start, stop),
		Content: content,
	}
}

// closerFunc reports whether the '$' at line[i] closes the span, and where the
// content and the closing delimiter end within line.
type closerFunc func(line []byte, i int) (contentEnd, closeEnd int, ok bool)

func dollarCloser(line []byte, i int) (int, int, bool) {
	prev := byte('\n')
	if i > 0 {
		prev = line[i-1]
	}
	if prev == ' ' || prev == '\t' {
		return 0, 0, false
	}
	if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
		return 0, 0, false
	}
	return i, i + 1, true
}

func doubleDollarCloser(line []byte, i int) (int, int, bool) {
	if i+1 < len(line) && line[i+1] == '$' {
		return i, i + 2, true
	}
	return 0, 0, false
}

func gitLabCloser(line []byte, i int) (int, int, bool) {
	if i > 0 && line[i-1] == '`' {
		return i - 1, i + 1, true
	}
	return 0, 0, false
}

// scanMath consumes the opener and searches the remaining block lines for a
// closer, skipping backslash escapes. With sentence set the search gives up at
// the first sentence boundary, which keeps amounts such as "$5." as prose. The
// reader is restored when no closer exists.
func scanMath(block text.Reader, opener int, closer closerFunc, sentence bool) (text.Segment, int, bool) {
	savedLine, savedPos := block.Position()
	block.Advance(opener)
	_, contentPos := block.Position()
	contentStart := contentPos.Start

	for {
		line, seg := block.PeekLine()
		if line == nil {
			block.SetPosition(savedLine, savedPos)
			return text.Segment{}, 0, false
		}
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '\\':
				i++
				continue
			case '.', '!', '?':
				if sentence && (i+1 == len(line) || util.IsSpace(line[i+1])) {
					block.SetPosition(savedLine, savedPos)
					return text.Segment{}, 0, false
				}
				continue
			case '$':
			default:
				continue
			}
			contentEnd, closeEnd, ok := closer(line, i)
			if !ok {
				continue
			}
			block.Advance(closeEnd)
			return text.NewSegment(contentStart, seg.Start+contentEnd), seg.Start + closeEnd, true
		}
		block.AdvanceLine()
	}
}

type mathBlockParser struct{}

// NewMathBlockParser returns a parser for $$ display blocks. The opening line
// is either $$ alone or a complete $$...$$ formula. The body may contain blank
// lines; a block without a closing line is not opened.
func NewMathBlockParser() parser.BlockParser {
	return &mathBlockParser{}
}

func (p *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, seg := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos+2 > len(line) || line[pos] != '$' || line[pos+1] != '$' {
		return nil, parser.NoChildren
	}
	start := seg.Start + pos
	bodyStart := start + 2
	rest := util.TrimRightSpace(line[pos+2:])

	node := &MathBlock{}
	if len(rest) >= 2 && bytes.HasSuffix(rest, []byte("$$")) {
		body := text.NewSegment(bodyStart, bodyStart+len(rest)-2)
		if !util.IsBlank(body.Value(reader.Source())) {
			node.Lines().Append(body)
		}
		node.Span = text.NewSegment(start, bodyStart+len(rest))
		node.closed = true
		return node, parser.NoChildren
	}
	if len(rest) > 0 || !hasMathCloser(reader.Source(), seg.Stop) {
		return nil, parser.NoChildren
	}
	node.Span = text.NewSegment(start, lineEnd(line, seg))
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}
	line, seg := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	trimmed := util.TrimRightSpace(line)
	if bytes.HasSuffix(trimmed, []byte("$$")) {
		body := trimmed[:len(trimmed)-2]
		if !util.IsBlank(body) {
			n.Lines().Append(text.NewSegment(seg.Start, seg.Start+len(body)))
		}
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

func (p *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (p *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

// hasMathCloser reports whether a closing line follows offset. The first line
// ending in $$ closes the block. Past a blank line only a bare $$ line counts,
// so a later paragraph that happens to end in $$ cannot close it.
func hasMathCloser(source []byte, offset int) bool {
	blank := false
	for offset < len(source) {
		end := bytes.IndexByte(source[offset:], '\n')
		if end < 0 {
			end = len(source)
		} else {
			end += offset
		}
		line := util.TrimRightSpace(source[offset:end])
		switch {
		case bytes.HasSuffix(line, []byte("$$")):
			return !blank || bytes.Equal(util.TrimLeftSpace(line), []byte("$$"))
		case len(util.TrimLeftSpace(line)) == 0:
			blank = true
		}
		offset = end + 1
	}
	return false
}
