package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func newTestSession() (*session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &session{out: &out, errOut: &errOut}, &out, &errOut
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"int main() {", true},
		{"int main() {\n\tint a[2] = {1,", true},
		{"int main() { return 0; }", false},
		{"int main() { return 0 }", false},
		{"int main() { return y; }", false},
		{":quit", false},
	}
	for _, tt := range tests {
		be.Equal(t, needsMore(tt.src), tt.want)
	}
}

func TestSessionCompiles(t *testing.T) {
	s, out, errOut := newTestSession()
	be.True(t, s.handle("int main() { return 3; }"))
	be.True(t, strings.Contains(out.String(), "source_filename = \"<console>\""))
	be.True(t, strings.Contains(out.String(), "ret i32 3"))
	be.Equal(t, errOut.String(), "")
}

func TestSessionReportsDiagnostics(t *testing.T) {
	s, out, errOut := newTestSession()
	be.True(t, s.handle("int main() { break; }"))
	be.Equal(t, out.String(), "")
	be.True(t, strings.HasPrefix(errOut.String(), "<console>:1:14: error: BreakContinueOutsideLoop: "))
}

func TestSessionCommands(t *testing.T) {
	s, out, _ := newTestSession()
	be.True(t, s.handle("   "))
	be.True(t, s.handle(":verify"))
	be.True(t, s.verify)
	be.True(t, s.handle(":VERIFY"))
	be.True(t, !s.verify)
	be.True(t, s.handle(":help"))
	be.Equal(t, out.String(), "verification on\nverification off\nunknown command. Type :verify or :quit.\n")

	be.True(t, !s.handle(":quit"))
	be.True(t, !s.handle(" :q "))
}
