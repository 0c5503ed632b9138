package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"cactc/internal/testcase"
)

// TestCases runs every "Test:" section of the Markdown files in testdata.
// Successful compilations are always re-read by the IR verifier.
func TestCases(t *testing.T) {
	files, err := filepath.Glob("testdata/*.md")
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".md")
		t.Run(name, func(t *testing.T) {
			content, err := os.ReadFile(file)
			be.Err(t, err, nil)

			cases, err := testcase.Extract(string(content))
			be.Err(t, err, nil)

			for _, tc := range cases {
				t.Run(tc.Name, func(t *testing.T) {
					runCase(t, file, tc)
				})
			}
		})
	}
}

func runCase(t *testing.T, file string, tc testcase.Case) {
	t.Helper()
	out, err := Compile(tc.Input, Options{Verify: true})

	for _, a := range tc.Assertions {
		switch a.Type {
		case testcase.AssertError:
			if err == nil {
				t.Fatalf("%s:%d: expected an error, got IR:\n%s", file, a.Line, out)
			}
			for _, want := range a.Lines {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("%s:%d: error %q does not contain %q", file, a.Line, err, want)
				}
			}
			be.Equal(t, out, "")

		case testcase.AssertIR:
			if err != nil {
				t.Fatalf("%s:%d: compile failed: %v", file, a.Line, err)
			}
			for _, want := range a.Lines {
				if !strings.Contains(out, want) {
					t.Errorf("%s:%d: IR does not contain %q\nIR:\n%s", file, a.Line, want, out)
				}
			}

		case testcase.AssertIRAbsent:
			if err != nil {
				t.Fatalf("%s:%d: compile failed: %v", file, a.Line, err)
			}
			for _, bad := range a.Lines {
				if strings.Contains(out, bad) {
					t.Errorf("%s:%d: IR unexpectedly contains %q\nIR:\n%s", file, a.Line, bad, out)
				}
			}
		}
	}
}
