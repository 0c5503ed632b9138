// Package irverify re-reads textual IR and checks the structural rules every
// module produced by the compiler must satisfy.
//
// Pass 1 collects functions, block labels and value definitions, rejecting
// duplicates. Pass 2 checks each block: it must be non-empty, end in exactly
// one terminator, and refer only to labels, values and globals that exist.
// A module that passes both is then parsed with llir/llvm, which checks the
// LLVM syntax and the types of constants and operands.
package irverify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

var (
	nameChars = `[-a-zA-Z$._0-9]+`
	defineRe  = regexp.MustCompile(`^define\s.*?@(` + nameChars + `)\((.*)\)[^{]*\{$`)
	declareRe = regexp.MustCompile(`^declare\s.*?@(` + nameChars + `)\(`)
	globalRe  = regexp.MustCompile(`^@(` + nameChars + `)\s*=`)
	labelRe   = regexp.MustCompile(`^(` + nameChars + `):$`)
	defRe     = regexp.MustCompile(`^%(` + nameChars + `)\s*=\s*(\S+)`)
	localRe   = regexp.MustCompile(`%(` + nameChars + `)`)
	globalRef = regexp.MustCompile(`@(` + nameChars + `)`)
	labelRef  = regexp.MustCompile(`label %(` + nameChars + `)`)
	phiEdgeRe = regexp.MustCompile(`\[\s*[^,\]]+,\s*%(` + nameChars + `)\s*\]`)
)

var terminators = map[string]bool{
	"ret":         true,
	"br":          true,
	"switch":      true,
	"unreachable": true,
}

// Instr is one instruction line.
type Instr struct {
	Line   int
	Text   string
	Def    string // defined value without '%', or ""
	Opcode string
}

type Block struct {
	Label  string
	Line   int
	Instrs []Instr
	Succs  []string
}

// Terminator returns the last instruction of the block.
func (b *Block) Terminator() Instr {
	if len(b.Instrs) == 0 {
		return Instr{}
	}
	return b.Instrs[len(b.Instrs)-1]
}

type Func struct {
	Name   string
	Line   int
	Params []string
	Blocks []*Block

	labels map[string]*Block
	defs   map[string]int
}

// Block returns the block with the given label, or nil.
func (f *Func) Block(label string) *Block { return f.labels[label] }

// Preds lists the labels of the blocks that branch to label.
func (f *Func) Preds(label string) []string {
	var preds []string
	for _, b := range f.Blocks {
		for _, s := range b.Succs {
			if s == label {
				preds = append(preds, b.Label)
				break
			}
		}
	}
	return preds
}

// Find returns the first block containing an instruction with substring sub.
func (f *Func) Find(sub string) *Block {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if strings.Contains(in.Text, sub) {
				return b
			}
		}
	}
	return nil
}

// Listing is the parsed form of a verified module.
type Listing struct {
	Funcs   []*Func
	Globals []string
	Module  *ir.Module // the same text as parsed by llir/llvm
}

// Func returns the defined function with the given name, or nil.
func (l *Listing) Func(name string) *Func {
	for _, f := range l.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type Verifier struct {
	listing *Listing
	symbols map[string]bool // globals, declarations and definitions
}

func NewVerifier() *Verifier {
	return &Verifier{listing: &Listing{}, symbols: make(map[string]bool)}
}

// Verify checks a module and returns its parsed listing.
func Verify(text string) (*Listing, error) {
	return NewVerifier().Verify(text)
}

func (v *Verifier) Verify(text string) (*Listing, error) {
	lines := strings.Split(text, "\n")
	if err := v.pass1(lines); err != nil {
		return nil, err
	}
	if err := v.pass2(); err != nil {
		return nil, err
	}
	m, err := asm.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("llvm syntax: %w", err)
	}
	v.listing.Module = m
	return v.listing, nil
}

func (v *Verifier) pass1(lines []string) error {
	var (
		fn  *Func
		cur *Block
	)
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(stripComments(raw))
		if line == "" {
			continue
		}

		if fn == nil {
			switch {
			case strings.HasPrefix(line, "source_filename"), strings.HasPrefix(line, "target "):
			case defineRe.MatchString(line):
				m := defineRe.FindStringSubmatch(line)
				if err := v.defineSymbol(m[1], lineNo); err != nil {
					return err
				}
				fn = &Func{Name: m[1], Line: lineNo, labels: make(map[string]*Block), defs: make(map[string]int)}
				for _, p := range localRe.FindAllStringSubmatch(m[2], -1) {
					if err := fn.define(p[1], lineNo); err != nil {
						return err
					}
					fn.Params = append(fn.Params, p[1])
				}
				cur = nil
			case declareRe.MatchString(line):
				if err := v.defineSymbol(declareRe.FindStringSubmatch(line)[1], lineNo); err != nil {
					return err
				}
			case globalRe.MatchString(line):
				name := globalRe.FindStringSubmatch(line)[1]
				if err := v.defineSymbol(name, lineNo); err != nil {
					return err
				}
				v.listing.Globals = append(v.listing.Globals, name)
			default:
				return fmt.Errorf("unexpected top-level text %q on line %d", line, lineNo)
			}
			continue
		}

		if line == "}" {
			if len(fn.Blocks) == 0 {
				return fmt.Errorf("function '%s' on line %d has no blocks", fn.Name, fn.Line)
			}
			v.listing.Funcs = append(v.listing.Funcs, fn)
			fn, cur = nil, nil
			continue
		}

		if m := labelRe.FindStringSubmatch(line); m != nil {
			if _, exists := fn.labels[m[1]]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", m[1], lineNo)
			}
			if _, exists := fn.defs[m[1]]; exists {
				return fmt.Errorf("label '%s' on line %d reuses a value name", m[1], lineNo)
			}
			cur = &Block{Label: m[1], Line: lineNo}
			fn.labels[m[1]] = cur
			fn.Blocks = append(fn.Blocks, cur)
			continue
		}

		if cur == nil {
			return fmt.Errorf("instruction outside a block on line %d", lineNo)
		}
		in := Instr{Line: lineNo, Text: line}
		if m := defRe.FindStringSubmatch(line); m != nil {
			in.Def, in.Opcode = m[1], m[2]
			if err := fn.define(m[1], lineNo); err != nil {
				return err
			}
		} else {
			in.Opcode = strings.Fields(line)[0]
		}
		cur.Instrs = append(cur.Instrs, in)
	}
	if fn != nil {
		return fmt.Errorf("function '%s' on line %d is not closed", fn.Name, fn.Line)
	}
	return nil
}

func (v *Verifier) defineSymbol(name string, lineNo int) error {
	if v.symbols[name] {
		return fmt.Errorf("duplicate global '@%s' on line %d", name, lineNo)
	}
	v.symbols[name] = true
	return nil
}

func (f *Func) define(name string, lineNo int) error {
	if prev, exists := f.defs[name]; exists {
		return fmt.Errorf("value '%%%s' on line %d already defined on line %d", name, lineNo, prev)
	}
	if _, exists := f.labels[name]; exists {
		return fmt.Errorf("value '%%%s' on line %d reuses a label name", name, lineNo)
	}
	f.defs[name] = lineNo
	return nil
}

func (v *Verifier) pass2() error {
	for _, fn := range v.listing.Funcs {
		for _, b := range fn.Blocks {
			if len(b.Instrs) == 0 {
				return fmt.Errorf("block '%s' on line %d is empty", b.Label, b.Line)
			}
			last := len(b.Instrs) - 1
			for i, in := range b.Instrs {
				isTerm := terminators[in.Opcode]
				if isTerm && i != last {
					return fmt.Errorf("instruction after terminator in block '%s' on line %d", b.Label, b.Instrs[i+1].Line)
				}
				if !isTerm && i == last {
					return fmt.Errorf("block '%s' does not end in a terminator (line %d)", b.Label, in.Line)
				}
				if err := v.checkRefs(fn, in); err != nil {
					return err
				}
			}
			for _, m := range labelRef.FindAllStringSubmatch(b.Instrs[last].Text, -1) {
				b.Succs = append(b.Succs, m[1])
			}
		}
	}
	return nil
}

// checkRefs resolves every %name and @name used by in.
func (v *Verifier) checkRefs(fn *Func, in Instr) error {
	text := in.Text
	if in.Def != "" {
		text = text[strings.Index(text, "=")+1:]
	}
	for _, m := range labelRef.FindAllStringSubmatch(text, -1) {
		if fn.labels[m[1]] == nil {
			return fmt.Errorf("undefined label '%s' on line %d", m[1], in.Line)
		}
	}
	if in.Opcode == "phi" {
		for _, m := range phiEdgeRe.FindAllStringSubmatch(text, -1) {
			if fn.labels[m[1]] == nil {
				return fmt.Errorf("undefined label '%s' in phi on line %d", m[1], in.Line)
			}
		}
	}
	for _, m := range localRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if _, ok := fn.defs[name]; ok {
			continue
		}
		if fn.labels[name] != nil {
			continue
		}
		return fmt.Errorf("undefined value '%%%s' on line %d", name, in.Line)
	}
	for _, m := range globalRef.FindAllStringSubmatch(text, -1) {
		if !v.symbols[m[1]] {
			return fmt.Errorf("undefined global '@%s' on line %d", m[1], in.Line)
		}
	}
	return nil
}

// stripComments removes a ';' comment that is not inside a quoted string.
func stripComments(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}
