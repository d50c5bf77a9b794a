package ast

import "fmt"

// Span locates a chunk of source code. Offsets are byte-based, lines and
// columns are 1-based. EndLine/EndCol point one column past the last
// character, so a span of length zero has StartCol == EndCol.
type Span struct {
	Offset int
	Length int

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// NewSpan builds a span for a single-line range. GDLK statements never cross
// line boundaries, so this covers every node the parser produces.
func NewSpan(offset, length, line, col int) Span {
	return Span{
		Offset:    offset,
		Length:    length,
		StartLine: line,
		StartCol:  col,
		EndLine:   line,
		EndCol:    col + length,
	}
}

// Position builds a zero-length span marking a single point in the source.
func Position(offset, line, col int) Span {
	return NewSpan(offset, 0, line, col)
}

// SourceSlice returns the chunk of src that this span covers.
func (s Span) SourceSlice(src string) string {
	if s.Offset < 0 || s.Offset+s.Length > len(src) {
		return ""
	}
	return src[s.Offset : s.Offset+s.Length]
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
}

// Node pairs an AST value with the span of source it was parsed from. The
// span is plain metadata: execution never depends on it, so contexts that
// have no source can leave it zero.
type Node[T any] struct {
	Value T
	Span  Span
}

// NewNode wraps a value with its span.
func NewNode[T any](value T, span Span) Node[T] {
	return Node[T]{Value: value, Span: span}
}
