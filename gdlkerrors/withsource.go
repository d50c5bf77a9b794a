package gdlkerrors

import (
	"fmt"
	"strings"

	"github.com/LucasPickering/gdlk-sub000/ast"
)

// SourceError is any error that points at a span of source code. Both error
// taxonomies implement it, which is all the shared surface they have; the
// message bodies stay with their own tagged structs.
type SourceError interface {
	TypeLabel() string
	ErrSpan() ast.Span
	Message(spannedSrc string) string
}

// Wrapped is one SourceError bound to the source fragment its span covers,
// so it can render itself without further context.
type Wrapped struct {
	Err           SourceError
	Span          ast.Span
	SpannedSource string
}

// Wrap binds an error to its source fragment.
func Wrap(err SourceError, src string) Wrapped {
	span := err.ErrSpan()
	return Wrapped{
		Err:           err,
		Span:          span,
		SpannedSource: span.SourceSlice(src),
	}
}

// Error renders "<Kind> error at <line>:<col>: <message>".
func (w Wrapped) Error() string {
	return fmt.Sprintf(
		"%s error at %d:%d: %s",
		w.Err.TypeLabel(),
		w.Span.StartLine,
		w.Span.StartCol,
		w.Err.Message(w.SpannedSource),
	)
}

// WithSource is a collection of errors from one compile or run, bundled with
// the source text they came from. It satisfies the error interface, so a
// caller that only wants a message can treat it as opaque; hosts that render
// source highlights use Highlighted.
type WithSource struct {
	Errs   []Wrapped
	Source string
}

// NewWithSource wraps each error with its source fragment.
func NewWithSource[E SourceError](errs []E, source string) *WithSource {
	wrapped := make([]Wrapped, len(errs))
	for i, err := range errs {
		wrapped[i] = Wrap(err, source)
	}
	return &WithSource{Errs: wrapped, Source: source}
}

// Error renders all errors, one per line.
func (w *WithSource) Error() string {
	var sb strings.Builder
	for i, err := range w.Errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Highlighted renders all errors, each followed by the offending source line
// and a caret marker under the spanned range.
func (w *WithSource) Highlighted() string {
	lines := strings.Split(w.Source, "\n")
	var sb strings.Builder
	for i, err := range w.Errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())

		lineIdx := err.Span.StartLine - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			continue
		}
		srcLine := strings.TrimRight(lines[lineIdx], "\r")
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, " %4d | %s\n", err.Span.StartLine, srcLine)

		markers := err.Span.Length
		if markers < 1 {
			markers = 1
		}
		col := err.Span.StartCol
		if col < 1 {
			col = 1
		}
		sb.WriteString("      | ")
		sb.WriteString(strings.Repeat(" ", col-1))
		sb.WriteString(strings.Repeat("^", markers))
	}
	return sb.String()
}
