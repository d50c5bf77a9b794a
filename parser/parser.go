// Package parser turns GDLK source text into a source program. The grammar
// is line-oriented: one statement per logical line, `;` comments, blank
// lines ignored. Keywords and register/stack tags are case-insensitive,
// labels are not. Parsing stops at the first failure and reports exactly one
// syntax error naming the construct that was expected.
package parser

import (
	"strconv"
	"strings"

	"github.com/LucasPickering/gdlk-sub000/ast"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
)

// Construct names used in "Expected <construct>" syntax errors.
const (
	expProgram        = "program"
	expStatement      = "statement"
	expEndOfStatement = "end of statement"
	expRegisterRef    = "register reference"
	expStackRef       = "stack reference"
	expValue          = "value"
	expLabel          = "label"
)

// token is one whitespace-delimited chunk of a line, with its absolute
// position in the source.
type token struct {
	text   string
	offset int
	line   int
	col    int
}

func (t token) span() ast.Span {
	return ast.NewSpan(t.offset, len(t.text), t.line, t.col)
}

// end returns the zero-length position immediately after the token.
func (t token) end() ast.Span {
	return ast.Position(t.offset+len(t.text), t.line, t.col+len(t.text))
}

// syntaxError carries the expected-construct name and failure position
// until Parse wraps it into a CompileError.
type syntaxError struct {
	expected string
	pos      ast.Span
}

func errAt(expected string, pos ast.Span) *syntaxError {
	return &syntaxError{expected: expected, pos: pos}
}

// Parse converts source text into a source program. On failure the returned
// error names the expected construct and the position where the match
// failed; no error recovery is attempted.
func Parse(source string) (*ast.SourceProgram, *gdlkerrors.CompileError) {
	var body []ast.Node[ast.Statement]

	offset := 0
	lineNum := 0
	remaining := source
	for {
		lineNum++
		line, rest, more := cutLine(remaining)

		toks := tokenize(line, offset, lineNum)
		if len(toks) > 0 {
			stmt, err := parseStatement(toks)
			if err != nil {
				return nil, &gdlkerrors.CompileError{
					Code:     gdlkerrors.ErrSyntax,
					Expected: err.expected,
					Span:     err.pos,
				}
			}
			body = append(body, stmt)
		}

		if !more {
			break
		}
		offset += len(line) + 1
		remaining = rest
	}

	// A program with no statements at all is not a program
	if len(body) == 0 {
		return nil, &gdlkerrors.CompileError{
			Code:     gdlkerrors.ErrSyntax,
			Expected: expProgram,
			Span:     ast.Position(0, 1, 1),
		}
	}
	return &ast.SourceProgram{Body: body}, nil
}

// cutLine splits off the next line (without its terminator). more is false
// once the input held no further newline.
func cutLine(s string) (line, rest string, more bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// tokenize splits one line into position-tagged tokens. Comments run from
// the first `;` to the end of the line. Carriage returns count as
// whitespace so CRLF input needs no special casing.
func tokenize(line string, lineOffset, lineNum int) []token {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}

	var toks []token
	start := -1
	for i := 0; i <= len(line); i++ {
		boundary := i == len(line) || line[i] == ' ' || line[i] == '\t' || line[i] == '\r'
		if boundary {
			if start >= 0 {
				toks = append(toks, token{
					text:   line[start:i],
					offset: lineOffset + start,
					line:   lineNum,
					col:    start + 1,
				})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	return toks
}

// parseStatement parses all tokens of one line into a single statement.
func parseStatement(toks []token) (ast.Node[ast.Statement], *syntaxError) {
	var zero ast.Node[ast.Statement]
	first := toks[0]

	// Label declarations are tried first, exactly like instruction keywords
	// they must fill a whole token (plus nothing else on the line).
	if colon := strings.IndexByte(first.text, ':'); colon >= 0 {
		name := first.text[:colon]
		if len(name) > 0 && isLabel(name) == len(name) {
			if colon != len(first.text)-1 {
				// Trailing text glued onto the colon
				pos := ast.Position(
					first.offset+colon+1, first.line, first.col+colon+1,
				)
				return zero, errAt(expEndOfStatement, pos)
			}
			if len(toks) > 1 {
				return zero, errAt(expEndOfStatement, toks[1].span())
			}
			node := ast.NewNode(name, first.span())
			return ast.NewNode(ast.LabelStatement(node), first.span()), nil
		}
		return zero, errAt(expStatement, first.span())
	}

	spec, ok := instructionSpecs[strings.ToUpper(first.text)]
	if !ok {
		return zero, errAt(expStatement, first.span())
	}

	instr := ast.Instruction{Op: spec.op}
	prev := first
	seenVal := false
	for _, kind := range spec.args {
		var tok *token
		if len(toks) > 1 {
			toks = toks[1:]
			tok = &toks[0]
		} else {
			toks = nil
		}

		switch kind {
		case argRegister:
			reg, err := parseArg(tok, prev, expRegisterRef, matchRegister)
			if err != nil {
				return zero, err
			}
			instr.Dst = reg
		case argValue:
			val, err := parseArg(tok, prev, expValue, matchValue)
			if err != nil {
				return zero, err
			}
			// The matcher can't see token positions, so the inner node's
			// span is filled in here. It always covers the whole token.
			if val.Value.IsConst {
				val.Value.Const.Span = val.Span
			} else {
				val.Value.Register.Span = val.Span
			}
			if seenVal {
				instr.Src2 = val
			} else {
				instr.Src = val
				seenVal = true
			}
		case argStack:
			stack, err := parseArg(tok, prev, expStackRef, matchStack)
			if err != nil {
				return zero, err
			}
			instr.Stack = stack
		case argLabel:
			label, err := parseArg(tok, prev, expLabel, matchLabel)
			if err != nil {
				return zero, err
			}
			instr.Label = label
		}
		prev = *tok
	}

	if len(toks) > 1 {
		return zero, errAt(expEndOfStatement, toks[1].span())
	}

	span := ast.NewSpan(
		first.offset,
		prev.offset+len(prev.text)-first.offset,
		first.line,
		first.col,
	)
	node := ast.NewNode(instr, span)
	return ast.NewNode(ast.InstrStatement(node), span), nil
}

// matcher attempts to recognize a construct at the start of a token.
// consumed is how many bytes matched; reject marks a token that matched
// structurally but failed a semantic check (leading zero, overflow).
type matcher[T any] func(text string) (value T, consumed int, reject bool)

// parseArg applies a matcher to one operand token, producing the syntax
// error position rules the language defines:
//   - operand missing entirely: error just after the previous token
//   - no prefix matched, or a semantic reject: error at the token start
//   - a valid prefix followed by garbage: error just after the previous
//     token (the whole operand region failed)
func parseArg[T any](
	tok *token, prev token, expected string, match matcher[T],
) (ast.Node[T], *syntaxError) {
	var zero ast.Node[T]
	if tok == nil {
		return zero, errAt(expected, prev.end())
	}
	value, consumed, reject := match(tok.text)
	switch {
	case consumed == 0:
		return zero, errAt(expected, tok.span())
	case reject:
		return zero, errAt(expected, tok.span())
	case consumed < len(tok.text):
		return zero, errAt(expected, prev.end())
	}
	return ast.NewNode(value, tok.span()), nil
}

type argKind uint8

const (
	argRegister argKind = iota
	argValue
	argStack
	argLabel
)

var instructionSpecs = map[string]struct {
	op   ast.Opcode
	args []argKind
}{
	"READ":  {ast.OpRead, []argKind{argRegister}},
	"WRITE": {ast.OpWrite, []argKind{argValue}},
	"SET":   {ast.OpSet, []argKind{argRegister, argValue}},
	"ADD":   {ast.OpAdd, []argKind{argRegister, argValue}},
	"SUB":   {ast.OpSub, []argKind{argRegister, argValue}},
	"MUL":   {ast.OpMul, []argKind{argRegister, argValue}},
	"DIV":   {ast.OpDiv, []argKind{argRegister, argValue}},
	"CMP":   {ast.OpCmp, []argKind{argRegister, argValue, argValue}},
	"PUSH":  {ast.OpPush, []argKind{argValue, argStack}},
	"POP":   {ast.OpPop, []argKind{argStack, argRegister}},
	"JMP":   {ast.OpJmp, []argKind{argLabel}},
	"JEZ":   {ast.OpJez, []argKind{argValue, argLabel}},
	"JNZ":   {ast.OpJnz, []argKind{argValue, argLabel}},
	"JLZ":   {ast.OpJlz, []argKind{argValue, argLabel}},
	"JGZ":   {ast.OpJgz, []argKind{argValue, argLabel}},
}

// digitRun returns the length of the leading run of ASCII digits.
func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// matchID recognizes a register or stack id: a digit run with no
// unnecessary leading zero.
func matchID(s string) (id int, consumed int, reject bool) {
	n := digitRun(s)
	if n == 0 {
		return 0, 0, false
	}
	if n > 1 && s[0] == '0' {
		return 0, n, true
	}
	id, err := strconv.Atoi(s[:n])
	if err != nil {
		return 0, n, true
	}
	return id, n, false
}

func matchRegister(text string) (ast.RegisterRef, int, bool) {
	upper := strings.ToUpper(text)
	switch {
	case strings.HasPrefix(upper, ast.NullRegisterRef):
		return ast.NullRegister(), len(ast.NullRegisterRef), false
	case strings.HasPrefix(upper, ast.InputLengthRegisterRef):
		return ast.InputLengthRegister(), len(ast.InputLengthRegisterRef), false
	case strings.HasPrefix(upper, ast.StackLengthRegisterTag):
		tag := len(ast.StackLengthRegisterTag)
		id, n, reject := matchID(text[tag:])
		if n == 0 || reject {
			return ast.RegisterRef{}, 0, false
		}
		return ast.StackLengthRegister(id), tag + n, false
	case strings.HasPrefix(upper, ast.UserRegisterTag):
		tag := len(ast.UserRegisterTag)
		id, n, reject := matchID(text[tag:])
		if n == 0 || reject {
			return ast.RegisterRef{}, 0, false
		}
		return ast.UserRegister(id), tag + n, false
	}
	return ast.RegisterRef{}, 0, false
}

func matchStack(text string) (ast.StackRef, int, bool) {
	if !strings.HasPrefix(strings.ToUpper(text), ast.StackRefTag) {
		return ast.StackRef{}, 0, false
	}
	tag := len(ast.StackRefTag)
	id, n, reject := matchID(text[tag:])
	if n == 0 || reject {
		return ast.StackRef{}, 0, false
	}
	return ast.StackRef{Index: id}, tag + n, false
}

// matchConst recognizes a signed decimal literal that fits the language's
// value width. Leading zeros are fine for constants, unlike ids.
func matchConst(text string) (ast.LangValue, int, bool) {
	start := 0
	if len(text) > 0 && text[0] == '-' {
		start = 1
	}
	n := digitRun(text[start:])
	if n == 0 {
		return 0, 0, false
	}
	consumed := start + n
	value, err := strconv.ParseInt(text[:consumed], 10, 32)
	if err != nil {
		return 0, consumed, true
	}
	return ast.LangValue(value), consumed, false
}

// matchValue recognizes a value source: a constant literal, else a register.
func matchValue(text string) (ast.ValueSource, int, bool) {
	if cval, n, reject := matchConst(text); n > 0 {
		node := ast.Node[ast.LangValue]{Value: cval}
		return ast.ConstSource(node), n, reject
	}
	reg, n, reject := matchRegister(text)
	node := ast.Node[ast.RegisterRef]{Value: reg}
	return ast.RegisterSource(node), n, reject
}

// isLabel returns the length of the leading run of label characters
// (alphanumerics and underscores -- a label may start with a digit).
func isLabel(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		ok := c == '_' ||
			('0' <= c && c <= '9') ||
			('a' <= c && c <= 'z') ||
			('A' <= c && c <= 'Z')
		if !ok {
			break
		}
		n++
	}
	return n
}

func matchLabel(text string) (string, int, bool) {
	n := isLabel(text)
	return text[:n], n, false
}
