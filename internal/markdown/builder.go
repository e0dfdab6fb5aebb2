package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-mdtext/internal/annotated"
)

// Conversion is the result of one Build call.
type Conversion struct {
	Text     *annotated.Text
	Warnings []annotated.Warning
}

// Build walks tree once and renders source into annotated text according to
// policy. It never fails: nodes whose span cannot be determined fall back to
// plain text and are reported as warnings.
func Build(tree ast.Node, source []byte, policy Policy) *Conversion {
	w := &walker{
		source:   source,
		policy:   policy,
		b:        annotated.NewBuilder(),
		rowStart: -1,
	}
	if tree != nil {
		w.walk(tree)
	}
	w.flush(len(source))
	return &Conversion{
		Text:     w.b.Build(),
		Warnings: w.warnings,
	}
}

// walker holds the traversal state of one conversion. pos is the source
// cursor; every byte before it has been handed to the builder.
type walker struct {
	source   []byte
	policy   Policy
	b        *annotated.Builder
	pos      int
	inline   int
	brk      NodeKind
	dummies  int
	rowStart int
	warnings []annotated.Warning
}

var nodeKinds = map[ast.NodeKind]NodeKind{
	ast.KindDocument:               KindDocument,
	ast.KindParagraph:              KindParagraph,
	ast.KindTextBlock:              KindParagraph,
	ast.KindHeading:                KindHeading,
	ast.KindText:                   KindText,
	ast.KindLink:                   KindLink,
	ast.KindImage:                  KindImage,
	ast.KindAutoLink:               KindAutoLink,
	ast.KindCodeSpan:               KindInlineCode,
	ast.KindCodeBlock:              KindIndentedCodeBlock,
	ast.KindHTMLBlock:              KindHTMLBlock,
	ast.KindRawHTML:                KindHTMLInline,
	ast.KindBlockquote:             KindBlockQuote,
	ast.KindList:                   KindList,
	ast.KindListItem:               KindListItem,
	ast.KindThematicBreak:          KindThematicBreak,
	east.KindTable:                 KindTable,
	east.KindTableHeader:           KindTableRow,
	east.KindTableRow:              KindTableRow,
	east.KindTableCell:             KindTableCell,
	east.KindDefinitionList:        KindDefinitionList,
	east.KindDefinitionTerm:        KindDefinitionTerm,
	east.KindDefinitionDescription: KindDefinition,
	east.KindStrikethrough:         KindStrikethrough,
	east.KindTaskCheckBox:          KindTaskCheckBox,
	KindFrontMatterNode:            KindFrontMatter,
	KindMathInlineNode:             KindMathInline,
	KindMathBlockNode:              KindMathBlock,
}

// kindOf classifies a goldmark node. Fenced blocks tagged math count as
// display math.
func kindOf(n ast.Node, source []byte) NodeKind {
	switch node := n.(type) {
	case *ast.Emphasis:
		if node.Level >= 2 {
			return KindStrong
		}
		return KindEmphasis
	case *ast.FencedCodeBlock:
		if string(node.Language(source)) == "math" {
			return KindMathBlock
		}
		return KindFencedCodeBlock
	}
	if kind, ok := nodeKinds[n.Kind()]; ok {
		return kind
	}
	return KindUnknown
}

func isInlineContainer(kind NodeKind) bool {
	switch kind {
	case KindParagraph, KindHeading, KindDefinitionTerm, KindTableCell:
		return true
	}
	return false
}

func (w *walker) walk(n ast.Node) {
	kind := kindOf(n, w.source)
	if kind == KindDocument {
		w.children(n)
		return
	}
	action := w.policy.Resolve(kind)
	span, hasSpan := w.spanOf(n)

	if kind == KindTableCell && hasSpan {
		w.joinCell(span)
	}

	if action != ActionPlainText {
		if hasSpan {
			w.apply(n, kind, action, span)
			return
		}
		if kind != KindTableCell {
			w.warn(annotated.WarningInvalidSpan, fmt.Sprintf("%s: source span unavailable, rendering %s as plain text", kind, action))
		}
	}
	w.plain(n, kind, span, hasSpan)
}

func (w *walker) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.walk(c)
	}
}

func (w *walker) plain(n ast.Node, kind NodeKind, span text.Segment, hasSpan bool) {
	switch node := n.(type) {
	case *ast.Text:
		w.text(node)
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.AutoLink, *ast.RawHTML,
		*MathInline, *MathBlock, *FrontMatter:
		if hasSpan {
			w.literal(n, span)
		}
		return
	}

	switch {
	case isInlineContainer(kind):
		if hasSpan {
			w.flush(span.Start)
		}
		w.inline++
		w.children(n)
		w.inline--
		w.brk = KindUnknown
		if kind == KindDefinitionTerm {
			w.b.AddMarkupInterpreted("", ".")
		}
	case kind == KindTable:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.walk(c)
			if c.Kind() == east.KindTableHeader {
				w.separator(c)
			}
		}
	case kind == KindTableRow:
		w.rowStart = w.b.PlainLength()
		w.children(n)
		w.rowStart = -1
	default:
		w.children(n)
	}
}

func (w *walker) apply(n ast.Node, kind NodeKind, action Action, span text.Segment) {
	switch action {
	case ActionDrop:
		w.flush(span.Stop)
	case ActionPlaceholder:
		w.placeholder(span, n.Type() == ast.TypeBlock)
	case ActionLiteral:
		if t, ok := n.(*ast.Text); ok {
			w.flush(t.Segment.Start)
			w.raw(t.Segment.Stop)
			w.markBreak(t)
			return
		}
		w.literal(n, w.literalSpan(n, kind, span))
	}
}

// spanOf returns the [start, stop) source range of n.
func (w *walker) spanOf(n ast.Node) (text.Segment, bool) {
	var seg text.Segment
	found := false

	switch node := n.(type) {
	case *ast.Text:
		seg, found = node.Segment, true
	case *MathInline:
		seg, found = node.Span, true
	case *MathBlock:
		seg, found = node.Span, true
	case *FrontMatter:
		seg, found = node.Span, true
	case *ast.RawHTML:
		if node.Segments.Len() > 0 {
			seg = text.NewSegment(node.Segments.At(0).Start, node.Segments.At(node.Segments.Len()-1).Stop)
			found = true
		}
	}
	if !found {
		seg, found = recordedSpan(n)
	}
	if !found && n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		seg = text.NewSegment(lines.At(0).Start, w.trimLineEnd(lines.At(lines.Len()-1).Stop))
		found = true
	}
	if html, ok := n.(*ast.HTMLBlock); ok && html.HasClosure() {
		closure := html.ClosureLine
		if !found {
			seg, found = closure, true
		}
		seg.Stop = w.trimLineEnd(closure.Stop)
	}
	if !found {
		seg, found = w.childrenSpan(n)
	}
	if !found || seg.Start < 0 || seg.Stop < seg.Start || seg.Stop > len(w.source) {
		return text.Segment{}, false
	}
	return seg, true
}

func (w *walker) childrenSpan(n ast.Node) (text.Segment, bool) {
	start, stop := -1, -1
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		seg, ok := w.spanOf(c)
		if !ok {
			continue
		}
		if start < 0 || seg.Start < start {
			start = seg.Start
		}
		if seg.Stop > stop {
			stop = seg.Stop
		}
	}
	if start < 0 {
		return text.Segment{}, false
	}
	return text.NewSegment(start, stop), true
}

// literalSpan widens emphasis and strikethrough spans over their delimiters,
// which are not part of any child.
func (w *walker) literalSpan(n ast.Node, kind NodeKind, span text.Segment) text.Segment {
	var width int
	var marks string
	switch kind {
	case KindEmphasis, KindStrong:
		width, marks = n.(*ast.Emphasis).Level, "*_"
	case KindStrikethrough:
		width, marks = 2, "~"
	default:
		return span
	}
	for i := 0; i < width && span.Start > w.pos && strings.IndexByte(marks, w.source[span.Start-1]) >= 0; i++ {
		span.Start--
	}
	for i := 0; i < width && span.Stop < len(w.source) && strings.IndexByte(marks, w.source[span.Stop]) >= 0; i++ {
		span.Stop++
	}
	return span
}

// contentRegions returns the parts of a node rendered as prose by the literal
// action. Everything else inside the span stays markup.
func (w *walker) contentRegions(n ast.Node, span text.Segment) []text.Segment {
	switch node := n.(type) {
	case *ast.CodeSpan:
		var regions []text.Segment
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				regions = append(regions, t.Segment)
			}
		}
		return regions
	case *MathInline:
		return []text.Segment{node.Content}
	case *ast.FencedCodeBlock, *ast.CodeBlock, *MathBlock, *FrontMatter:
		return linesOf(n)
	case *ast.HTMLBlock:
		regions := linesOf(n)
		if node.HasClosure() {
			regions = append(regions, node.ClosureLine)
		}
		return regions
	case *ast.AutoLink:
		if span.Len() >= 2 && w.source[span.Start] == '<' && w.source[span.Stop-1] == '>' {
			return []text.Segment{text.NewSegment(span.Start+1, span.Stop-1)}
		}
	case *ast.RawHTML:
		regions := make([]text.Segment, 0, node.Segments.Len())
		for i := 0; i < node.Segments.Len(); i++ {
			regions = append(regions, node.Segments.At(i))
		}
		return regions
	}
	return []text.Segment{span}
}

func linesOf(n ast.Node) []text.Segment {
	lines := n.Lines()
	out := make([]text.Segment, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		out = append(out, lines.At(i))
	}
	return out
}

func (w *walker) literal(n ast.Node, span text.Segment) {
	w.flush(span.Start)
	for _, region := range w.contentRegions(n, span) {
		if region.Stop <= w.pos || region.Stop > len(w.source) {
			continue
		}
		w.flush(region.Start)
		w.raw(region.Stop)
	}
	w.flush(span.Stop)
}

func (w *walker) placeholder(span text.Segment, block bool) {
	w.flush(span.Start)
	stop := span.Stop
	if stop < w.pos {
		stop = w.pos
	}
	token := "Dummy" + strconv.Itoa(w.dummies)
	w.dummies++
	if block {
		token += strings.Repeat("\n", bytes.Count(w.source[w.pos:stop], []byte{'\n'}))
	}
	w.markup(stop, token)
}

// joinCell separates a cell from the cells before it in the same row with a
// single space, once the row has produced prose.
func (w *walker) joinCell(span text.Segment) {
	if w.rowStart < 0 || w.b.PlainLength() <= w.rowStart || span.Start <= w.pos {
		return
	}
	if bytes.IndexByte(w.source[w.pos:span.Start], '\n') >= 0 {
		return
	}
	w.markup(span.Start, " ")
}

// separator handles the delimiter row of a table, which goldmark does not
// keep as a node. It is the line following the header row.
func (w *walker) separator(header ast.Node) {
	anchor := w.pos
	if seg, ok := w.spanOf(header); ok && seg.Stop > anchor {
		anchor = seg.Stop
	}
	nl := bytes.IndexByte(w.source[anchor:], '\n')
	if nl < 0 {
		return
	}
	start := anchor + nl + 1
	stop := len(w.source)
	if end := bytes.IndexByte(w.source[start:], '\n'); end >= 0 {
		stop = start + end
	}
	stop = w.trimLineEnd(stop)
	if stop < start {
		return
	}
	span := text.NewSegment(start, stop)

	switch w.policy.Resolve(KindTableSeparator) {
	case ActionPlaceholder:
		w.placeholder(span, false)
	case ActionLiteral:
		content := start
		for content < stop && (w.source[content] == ' ' || w.source[content] == '\t' || w.source[content] == '>') {
			content++
		}
		w.flush(content)
		w.raw(stop)
	default:
		w.flush(stop)
	}
}

func (w *walker) text(t *ast.Text) {
	seg := t.Segment
	if seg.Stop > w.pos {
		w.flush(seg.Start)
		if t.IsRaw() {
			w.raw(seg.Stop)
		} else {
			w.prose(seg.Stop)
		}
	}
	w.markBreak(t)
}

func (w *walker) markBreak(t *ast.Text) {
	switch {
	case t.HardLineBreak():
		w.brk = KindHardLineBreak
	case t.SoftLineBreak():
		w.brk = KindSoftLineBreak
	}
}

// prose emits inline text up to stop. Backslash escapes keep the backslash as
// markup; character references follow the HtmlEntity action.
func (w *walker) prose(stop int) {
	i := w.pos
	for i < stop {
		c := w.source[i]
		switch {
		case c == '\\' && i+1 < stop && util.IsPunct(w.source[i+1]):
			w.raw(i)
			w.markup(i+1, "")
			w.raw(i + 2)
			i += 2
			continue
		case c == '&':
			if n, decoded, ok := matchEntity(w.source[i:stop]); ok {
				w.raw(i)
				w.entity(i+n, decoded)
				i += n
				continue
			}
		}
		i++
	}
	w.raw(stop)
}

func (w *walker) entity(stop int, decoded string) {
	switch w.policy.Resolve(KindHTMLEntity) {
	case ActionLiteral:
		w.raw(stop)
	case ActionDrop:
		w.markup(stop, "")
	case ActionPlaceholder:
		w.placeholder(text.NewSegment(w.pos, stop), false)
	default:
		w.b.AddDecodedText(string(w.source[w.pos:stop]), decoded)
		w.pos = stop
	}
}

// matchEntity recognises a named, decimal or hexadecimal character reference
// at the start of b and returns its length and decoded form.
func matchEntity(b []byte) (int, string, bool) {
	if len(b) < 3 || b[0] != '&' {
		return 0, "", false
	}
	if b[1] == '#' {
		i, base, limit := 2, 10, 7
		if b[i] == 'x' || b[i] == 'X' {
			i, base, limit = 3, 16, 6
		}
		j := i
		for j < len(b) && j-i < limit && isDigitOf(b[j], base) {
			j++
		}
		if j == i || j >= len(b) || b[j] != ';' {
			return 0, "", false
		}
		v, err := strconv.ParseInt(string(b[i:j]), base, 32)
		if err != nil {
			return 0, "", false
		}
		return j + 1, string(util.ToValidRune(rune(v))), true
	}

	j := 1
	for j < len(b) && j <= 32 && isAlphaNumeric(b[j]) {
		j++
	}
	if j == 1 || j >= len(b) || b[j] != ';' {
		return 0, "", false
	}
	entity, ok := util.LookUpHTML5EntityByName(string(b[1:j]))
	if !ok {
		return 0, "", false
	}
	return j + 1, string(entity.Characters), true
}

func isAlphaNumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigitOf(c byte, base int) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if base == 16 {
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}

// raw emits source up to stop as prose, carriage returns excepted.
func (w *walker) raw(stop int) {
	for w.pos < stop {
		cr := bytes.IndexByte(w.source[w.pos:stop], '\r')
		if cr < 0 {
			w.b.AddText(string(w.source[w.pos:stop]))
			w.pos = stop
			return
		}
		if cr > 0 {
			w.b.AddText(string(w.source[w.pos : w.pos+cr]))
			w.pos += cr
		}
		w.markup(w.pos+1, "")
	}
}

// flush emits the source between the cursor and to as markup. Line feeds keep
// the line structure outside inline containers; inside them they are line
// breaks and follow the break action.
func (w *walker) flush(to int) {
	if to > len(w.source) {
		to = len(w.source)
	}
	for w.pos < to {
		switch w.source[w.pos] {
		case '\n':
			w.markup(w.pos+1, w.newline())
		case '\r':
			w.markup(w.pos+1, "")
		default:
			end := w.pos
			for end < to && w.source[end] != '\n' && w.source[end] != '\r' {
				end++
			}
			w.markup(end, "")
		}
	}
}

func (w *walker) newline() string {
	if w.inline == 0 {
		return "\n"
	}
	kind := w.brk
	if kind == KindUnknown {
		kind = KindSoftLineBreak
	}
	w.brk = KindUnknown
	if w.policy.Resolve(kind) == ActionPlainText {
		return " "
	}
	return "\n"
}

func (w *walker) markup(stop int, interpretation string) {
	w.b.AddMarkupInterpreted(string(w.source[w.pos:stop]), interpretation)
	w.pos = stop
}

func (w *walker) trimLineEnd(stop int) int {
	for stop > 0 && stop <= len(w.source) && (w.source[stop-1] == '\n' || w.source[stop-1] == '\r') {
		stop--
	}
	return stop
}

func (w *walker) warn(kind annotated.WarningType, message string) {
	w.warnings = append(w.warnings, annotated.Warning{
		Type:    kind,
		Offset:  w.pos,
		Message: message,
	})
}
