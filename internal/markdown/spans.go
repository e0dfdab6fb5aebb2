package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// spanAttribute holds the [start, stop) source segment recorded for nodes
// goldmark does not position itself.
const spanAttribute = "mdtext-span"

const linkLabelStateKind = "LinkLabelState"

func setSpan(n ast.Node, start, stop int) {
	n.SetAttributeString(spanAttribute, text.NewSegment(start, stop))
}

func recordedSpan(n ast.Node) (text.Segment, bool) {
	value, ok := n.AttributeString(spanAttribute)
	if !ok {
		return text.Segment{}, false
	}
	seg, ok := value.(text.Segment)
	return seg, ok
}

// inlineSpanRecorder wraps an inline parser and records the source range the
// wrapped parser consumed on the node it returns.
type inlineSpanRecorder struct {
	inner parser.InlineParser
}

func recordInlineSpans(inner parser.InlineParser) parser.InlineParser {
	return &inlineSpanRecorder{inner: inner}
}

func (r *inlineSpanRecorder) Trigger() []byte {
	return r.inner.Trigger()
}

func (r *inlineSpanRecorder) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	_, start := block.Position()
	labelStart := -1
	if line, _ := block.PeekLine(); len(line) > 0 && line[0] == ']' {
		labelStart = lastLinkLabelStart(parent)
	}

	node := r.inner.Parse(parent, block, pc)
	if node == nil {
		return nil
	}
	_, stop := block.Position()

	switch node.Kind() {
	case ast.KindLink, ast.KindImage:
		if labelStart >= 0 {
			setSpan(node, labelStart, stop.Start)
		}
	default:
		setSpan(node, start.Start, stop.Start)
	}
	return node
}

// lastLinkLabelStart returns the recorded start of the innermost open link
// label, which is where a link closed by the current ']' begins.
func lastLinkLabelStart(parent ast.Node) int {
	for c := parent.LastChild(); c != nil; c = c.PreviousSibling() {
		if c.Kind().String() != linkLabelStateKind {
			continue
		}
		if seg, ok := recordedSpan(c); ok {
			return seg.Start
		}
		return -1
	}
	return -1
}

// blockSpanRecorder wraps a leaf block parser and records the span from the
// opening marker through the last consumed line, closing fence included.
type blockSpanRecorder struct {
	inner parser.BlockParser
}

func recordBlockSpans(inner parser.BlockParser) parser.BlockParser {
	return &blockSpanRecorder{inner: inner}
}

func (r *blockSpanRecorder) Trigger() []byte {
	return r.inner.Trigger()
}

func (r *blockSpanRecorder) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, seg := reader.PeekLine()
	start := seg.Start
	if offset := pc.BlockOffset(); offset > 0 {
		start += offset
	}
	node, state := r.inner.Open(parent, reader, pc)
	if node != nil {
		setSpan(node, start, lineEnd(line, seg))
	}
	return node, state
}

func (r *blockSpanRecorder) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, seg := reader.PeekLine()
	state := r.inner.Continue(node, reader, pc)

	span, ok := recordedSpan(node)
	if !ok || line == nil {
		return state
	}
	switch {
	case state&parser.Continue != 0:
		setSpan(node, span.Start, lineEnd(line, seg))
	case state&parser.Close != 0:
		if _, pos := reader.Position(); pos.Start > seg.Start {
			setSpan(node, span.Start, pos.Start)
		}
	}
	return state
}

func (r *blockSpanRecorder) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	r.inner.Close(node, reader, pc)
}

func (r *blockSpanRecorder) CanInterruptParagraph() bool {
	return r.inner.CanInterruptParagraph()
}

func (r *blockSpanRecorder) CanAcceptIndentedLine() bool {
	return r.inner.CanAcceptIndentedLine()
}

// lineEnd returns the stop of seg without its line terminator.
func lineEnd(line []byte, seg text.Segment) int {
	stop := seg.Stop
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
		stop--
	}
	return stop
}
