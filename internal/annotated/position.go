package annotated

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line/column pair. Column counts bytes from the
// start of the line; Character counts UTF-16 code units, the unit editor
// protocols use.
type Position struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	Character int `json:"character"`
}

// LineIndex resolves source offsets to positions and back.
type LineIndex struct {
	source string
	starts []int
}

// NewLineIndex indexes the line starts of source.
func NewLineIndex(source string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{source: source, starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (idx *LineIndex) LineCount() int { return len(idx.starts) }

// Position returns the position of offset, clamped to the source.
func (idx *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(idx.source) {
		offset = len(idx.source)
	}
	line := sort.Search(len(idx.starts), func(i int) bool {
		return idx.starts[i] > offset
	}) - 1
	start := idx.starts[line]
	return Position{
		Line:      line,
		Column:    offset - start,
		Character: utf16Units(idx.source[start:offset]),
	}
}

// Offset converts a line and UTF-16 character position into a byte offset.
// Characters past the end of the line clamp to the line end.
func (idx *LineIndex) Offset(line, character int) int {
	if line < 0 {
		return 0
	}
	if line >= len(idx.starts) {
		return len(idx.source)
	}
	offset := idx.starts[line]
	units := 0
	for offset < len(idx.source) && idx.source[offset] != '\n' && units < character {
		r, size := utf8.DecodeRuneInString(idx.source[offset:])
		units += runeUnits(r)
		offset += size
	}
	return offset
}

func utf16Units(s string) int {
	units := 0
	for _, r := range s {
		units += runeUnits(r)
	}
	return units
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
