package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// LexicalError reports an unrecognized character or malformed literal.
type LexicalError struct {
	Pos Pos
	Msg string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%s: lexical error: %s", e.Pos, e.Msg)
}

// SyntaxError reports the first token that does not fit the grammar.
type SyntaxError struct {
	Pos      Pos
	Found    string   // description of the offending token
	Expected []string // what would have been accepted instead
	eof      bool
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: syntax error: unexpected %s", e.Pos, e.Found)
	switch len(e.Expected) {
	case 0:
	case 1:
		fmt.Fprintf(&sb, ", expected %s", e.Expected[0])
	default:
		fmt.Fprintf(&sb, ", expected one of %s", strings.Join(e.Expected, ", "))
	}
	return sb.String()
}

// AtEOF reports whether the parser ran out of input.
func (e *SyntaxError) AtEOF() bool { return e.eof }

// IsIncomplete reports whether err is a syntax error caused by input that
// ended too early, i.e. more text could still make it valid.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.AtEOF()
}

// SemanticKind classifies checker diagnostics.
type SemanticKind int

const (
	UndeclaredIdentifier SemanticKind = iota + 1
	Redeclaration
	TypeMismatch
	ArityMismatch
	InvalidArrayIndex
	NonConstantInConstContext
	ReturnTypeMismatch
	BreakContinueOutsideLoop
	ConstAssignment
)

var semanticKindNames = map[SemanticKind]string{
	UndeclaredIdentifier:      "UndeclaredIdentifier",
	Redeclaration:             "Redeclaration",
	TypeMismatch:              "TypeMismatch",
	ArityMismatch:             "ArityMismatch",
	InvalidArrayIndex:         "InvalidArrayIndex",
	NonConstantInConstContext: "NonConstantInConstContext",
	ReturnTypeMismatch:        "ReturnTypeMismatch",
	BreakContinueOutsideLoop:  "BreakContinueOutsideLoop",
	ConstAssignment:           "ConstAssignment",
}

func (k SemanticKind) String() string {
	if s, ok := semanticKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SemanticKind(%d)", int(k))
}

// SemanticError reports a scope, type or context violation.
type SemanticError struct {
	Kind SemanticKind
	Pos  Pos
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

func semErr(kind SemanticKind, pos Pos, format string, args ...any) *SemanticError {
	return &SemanticError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the semantic kind of err, or 0 when err is not a
// SemanticError.
func KindOf(err error) SemanticKind {
	var se *SemanticError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// errorPos extracts the source position carried by a diagnostic.
func errorPos(err error) (Pos, bool) {
	var (
		le *LexicalError
		se *SyntaxError
		me *SemanticError
	)
	switch {
	case errors.As(err, &le):
		return le.Pos, true
	case errors.As(err, &se):
		return se.Pos, true
	case errors.As(err, &me):
		return me.Pos, true
	}
	return Pos{}, false
}

// errorText is the message without its position prefix.
func errorText(err error) string {
	var (
		le *LexicalError
		se *SyntaxError
		me *SemanticError
	)
	switch {
	case errors.As(err, &le):
		return "lexical error: " + le.Msg
	case errors.As(err, &se):
		full := se.Error()
		return strings.TrimPrefix(full, se.Pos.String()+": ")
	case errors.As(err, &me):
		return me.Kind.String() + ": " + me.Msg
	}
	return err.Error()
}

// FormatError renders a diagnostic as "file:line:col: error: msg" followed by
// the offending source line, in the style of a compiler's terminal output.
func FormatError(err error, filename, src string) string {
	pos, ok := errorPos(err)
	if !ok {
		return fmt.Sprintf("%s: error: %v", filename, err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d:%d: error: %s", filename, pos.Line, pos.Col, errorText(err))
	lines := strings.Split(src, "\n")
	if pos.Line >= 1 && pos.Line <= len(lines) {
		text := strings.TrimRight(lines[pos.Line-1], "\r")
		fmt.Fprintf(&sb, "\n  |> %s", text)
		if pos.Col >= 1 && pos.Col <= len([]rune(text))+1 {
			pad := []rune(text)[:pos.Col-1]
			for i, r := range pad {
				if r != '\t' {
					pad[i] = ' '
				}
			}
			fmt.Fprintf(&sb, "\n  |  %s^", string(pad))
		}
	}
	return sb.String()
}
