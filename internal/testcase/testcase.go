// Package testcase extracts compiler test cases from Markdown files.
//
// A test case starts at a heading "Test: <name>" and holds one `cact` input
// fence followed by one or more assertion fences:
//
//	ir         every non-blank line must appear in the emitted IR
//	ir-absent  no non-blank line may appear in the emitted IR
//	error      compilation must fail with an error containing each line
package testcase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const InputFence = "cact"

type AssertionType string

const (
	AssertIR       AssertionType = "ir"
	AssertIRAbsent AssertionType = "ir-absent"
	AssertError    AssertionType = "error"
)

type Assertion struct {
	Type  AssertionType
	Lines []string // non-blank lines of the fence, trimmed
	Line  int      // first line of the fence body in the Markdown file
}

type Case struct {
	Name       string
	Input      string
	Line       int
	Assertions []Assertion
}

// Extract parses a Markdown document into test cases.
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var (
		cases []Case
		cur   *Case
	)
	finish := func() error {
		if cur == nil {
			return nil
		}
		if cur.Input == "" {
			return fmt.Errorf("line %d: test '%s' has no %s fence", cur.Line, cur.Name, InputFence)
		}
		if len(cur.Assertions) == 0 {
			return fmt.Errorf("line %d: test '%s' has no assertion fences", cur.Line, cur.Name)
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimPrefix(heading, "Test: "), Line: lineOf(n, source)}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			line := lineOf(n, source)
			if cur == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test case", line, lang)
				}
				return ast.WalkContinue, nil
			}
			content := fenceContent(n, source)
			switch AssertionType(lang) {
			case AssertIR, AssertIRAbsent, AssertError:
				cur.Assertions = append(cur.Assertions, Assertion{
					Type:  AssertionType(lang),
					Lines: nonBlankLines(content),
					Line:  line,
				})
			default:
				if lang != InputFence {
					return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
				}
				if cur.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences in test '%s'", line, InputFence, cur.Name)
				}
				cur.Input = content
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		seg := block.Lines().At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func nonBlankLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// lineOf returns the 1-based line where node starts.
func lineOf(node ast.Node, source []byte) int {
	start := -1
	if node.Lines().Len() > 0 {
		start = node.Lines().At(0).Start
	} else if h, ok := node.(*ast.Heading); ok && h.FirstChild() != nil {
		if t, ok := h.FirstChild().(*ast.Text); ok {
			start = t.Segment.Start
		}
	}
	if start < 0 {
		return 1
	}
	return bytes.Count(source[:start], []byte("\n")) + 1
}
