package compiler

import (
	"fmt"

	"cactc/pkg/ir"
	"cactc/pkg/irverify"
)

// Options carries per-compilation settings.
type Options struct {
	// Filename is recorded as the module's source_filename.
	Filename string
	// Verify re-reads the emitted text and checks its block structure.
	Verify bool
}

// Result holds every stage of one compilation. Fields for stages that did
// not run are nil.
type Result struct {
	Tokens  []Token
	Program *Program
	Symbols *SymbolTable
	Module  *ir.Module
	IR      string
}

// Translate runs the whole pipeline with fresh state and keeps the
// intermediate results.
func Translate(src string, opts Options) (*Result, error) {
	res := &Result{}
	tokens, err := Lex(src)
	if err != nil {
		return res, err
	}
	res.Tokens = tokens

	prog, err := Parse(tokens)
	if err != nil {
		return res, err
	}
	res.Program = prog

	res.Symbols = NewSymbolTable()
	mod, err := Generate(prog, res.Symbols, opts)
	if err != nil {
		return res, err
	}
	res.Module = mod
	res.IR = mod.String()

	if opts.Verify {
		if _, err := irverify.Verify(res.IR); err != nil {
			return res, fmt.Errorf("generated IR failed verification: %w", err)
		}
	}
	return res, nil
}

// Compile translates src and returns the module text. On any diagnostic
// it returns an empty string and the first error.
func Compile(src string, opts Options) (string, error) {
	res, err := Translate(src, opts)
	if err != nil {
		return "", err
	}
	return res.IR, nil
}
