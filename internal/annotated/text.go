package annotated

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrRunGap reports plain text that no run covers.
	ErrRunGap = errors.New("annotated text: position map has a gap")
	// ErrRunOverlap reports runs that claim the same plain or source bytes.
	ErrRunOverlap = errors.New("annotated text: position map runs overlap")
	// ErrRunOutOfBounds reports a run that points past the end of its text.
	ErrRunOutOfBounds = errors.New("annotated text: run out of bounds")
)

// Run anchors a slice of the plain text to the source range it was produced from.
// Prose runs whose plain and source lengths match map byte for byte; every
// other run maps to its source edges.
type Run struct {
	PlainOffset  int  `json:"plain_offset"`
	PlainLength  int  `json:"plain_length"`
	SourceOffset int  `json:"source_offset"`
	SourceLength int  `json:"source_length"`
	Markup       bool `json:"markup"`
}

// PlainEnd returns the exclusive end of the run in the plain text.
func (r Run) PlainEnd() int { return r.PlainOffset + r.PlainLength }

// SourceEnd returns the exclusive end of the run in the source.
func (r Run) SourceEnd() int { return r.SourceOffset + r.SourceLength }

// Linear reports whether offsets inside the run translate one to one.
func (r Run) Linear() bool {
	return !r.Markup && r.PlainLength == r.SourceLength
}

// Text is the immutable result of a conversion: plain text plus the position
// map back into the source document.
type Text struct {
	plain        string
	runs         []Run
	sourceLength int
}

// Plain returns the plain-text rendering.
func (t *Text) Plain() string {
	if t == nil {
		return ""
	}
	return t.plain
}

func (t *Text) String() string { return t.Plain() }

// Runs returns a copy of the position map.
func (t *Text) Runs() []Run {
	if t == nil {
		return nil
	}
	return append([]Run(nil), t.runs...)
}

// SourceLength returns the number of source bytes consumed while building.
func (t *Text) SourceLength() int {
	if t == nil {
		return 0
	}
	return t.sourceLength
}

// ToSourceOffset projects a plain-text offset onto the source. isEnd marks the
// offset as an exclusive range end, which resolves against the preceding run.
func (t *Text) ToSourceOffset(plainOffset int, isEnd bool) int {
	if t == nil || len(t.runs) == 0 {
		return 0
	}
	if plainOffset < 0 {
		plainOffset = 0
	}
	if plainOffset > len(t.plain) {
		plainOffset = len(t.plain)
	}

	if isEnd {
		if plainOffset == 0 {
			return t.runs[0].SourceOffset
		}
		run := t.runs[t.runIndex(plainOffset-1)]
		if run.Linear() {
			return run.SourceOffset + plainOffset - run.PlainOffset
		}
		return run.SourceEnd()
	}

	if plainOffset == len(t.plain) {
		return t.sourceLength
	}
	run := t.runs[t.runIndex(plainOffset)]
	if run.Linear() {
		return run.SourceOffset + plainOffset - run.PlainOffset
	}
	return run.SourceOffset
}

// SourceRange projects the plain range [plainStart, plainEnd) onto the source.
func (t *Text) SourceRange(plainStart, plainEnd int) (int, int) {
	start := t.ToSourceOffset(plainStart, false)
	if plainEnd <= plainStart {
		return start, start
	}
	end := t.ToSourceOffset(plainEnd, true)
	if end < start {
		end = start
	}
	return start, end
}

// Validate checks that the runs partition the plain text without gaps or
// overlaps and stay within the consumed source.
func (t *Text) Validate() error {
	if t == nil {
		return nil
	}
	plainCursor := 0
	sourceCursor := 0
	for i, run := range t.runs {
		if run.PlainLength <= 0 {
			return fmt.Errorf("%w: run %d is empty", ErrRunGap, i)
		}
		if run.PlainOffset > plainCursor {
			return fmt.Errorf("%w: plain [%d, %d)", ErrRunGap, plainCursor, run.PlainOffset)
		}
		if run.PlainOffset < plainCursor {
			return fmt.Errorf("%w: plain offset %d", ErrRunOverlap, run.PlainOffset)
		}
		if run.SourceOffset < sourceCursor {
			return fmt.Errorf("%w: source offset %d", ErrRunOverlap, run.SourceOffset)
		}
		if run.SourceEnd() > t.sourceLength || run.PlainEnd() > len(t.plain) {
			return fmt.Errorf("%w: run %d", ErrRunOutOfBounds, i)
		}
		plainCursor = run.PlainEnd()
		sourceCursor = run.SourceEnd()
	}
	if plainCursor != len(t.plain) {
		return fmt.Errorf("%w: plain [%d, %d)", ErrRunGap, plainCursor, len(t.plain))
	}
	return nil
}

// MarshalJSON exposes the plain text and the position map.
func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Plain        string `json:"plain"`
		SourceLength int    `json:"source_length"`
		Runs         []Run  `json:"runs"`
	}{
		Plain:        t.Plain(),
		SourceLength: t.SourceLength(),
		Runs:         t.Runs(),
	})
}

func (t *Text) runIndex(plainOffset int) int {
	idx := sort.Search(len(t.runs), func(i int) bool {
		return t.runs[i].PlainEnd() > plainOffset
	})
	if idx >= len(t.runs) {
		idx = len(t.runs) - 1
	}
	return idx
}
