package annotated

import "strings"

// Builder accumulates text and markup fragments in source order. Sources of
// consecutive calls must be contiguous: together they spell out the document.
type Builder struct {
	plain  strings.Builder
	runs   []Run
	source int
	done   bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddText appends prose that appears verbatim in the plain text.
func (b *Builder) AddText(source string) *Builder {
	return b.add(source, source, false)
}

// AddDecodedText appends prose whose plain form differs from its source, such
// as a decoded character reference.
func (b *Builder) AddDecodedText(source, text string) *Builder {
	return b.add(source, text, false)
}

// AddMarkup appends markup that contributes nothing to the plain text.
func (b *Builder) AddMarkup(source string) *Builder {
	return b.add(source, "", true)
}

// AddMarkupInterpreted appends markup that stands for interpretation in the
// plain text. The source may be empty.
func (b *Builder) AddMarkupInterpreted(source, interpretation string) *Builder {
	return b.add(source, interpretation, true)
}

// PlainLength returns the number of plain-text bytes emitted so far.
func (b *Builder) PlainLength() int { return b.plain.Len() }

// Build finalizes the artifact. The builder must not be used afterwards.
func (b *Builder) Build() *Text {
	if b.done {
		panic("annotated: builder reused after Build")
	}
	b.done = true
	return &Text{
		plain:        b.plain.String(),
		runs:         b.runs,
		sourceLength: b.source,
	}
}

func (b *Builder) add(source, plain string, markup bool) *Builder {
	if b.done {
		panic("annotated: builder reused after Build")
	}
	if plain != "" {
		run := Run{
			PlainOffset:  b.plain.Len(),
			PlainLength:  len(plain),
			SourceOffset: b.source,
			SourceLength: len(source),
			Markup:       markup,
		}
		if !b.merge(run) {
			b.runs = append(b.runs, run)
		}
		b.plain.WriteString(plain)
	}
	b.source += len(source)
	return b
}

func (b *Builder) merge(run Run) bool {
	if len(b.runs) == 0 || !run.Linear() {
		return false
	}
	last := &b.runs[len(b.runs)-1]
	if !last.Linear() || last.SourceEnd() != run.SourceOffset {
		return false
	}
	last.PlainLength += run.PlainLength
	last.SourceLength += run.SourceLength
	return true
}
