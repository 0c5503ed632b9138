// Command console compiles CACT snippets typed at a prompt and prints the IR.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"cactc/pkg/compiler"
)

const (
	promptMain  = "cact> "
	promptCont  = "....> "
	historyFile = ".cactc_history"
	banner      = "cactc console. Enter a CACT program; :verify toggles IR checking, :quit exits."
)

// session holds the console settings that persist between inputs.
type session struct {
	verify bool
	out    io.Writer
	errOut io.Writer
}

// handle processes one complete input. It reports false when the console
// should exit.
func (s *session) handle(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q":
			return false
		case ":verify":
			s.verify = !s.verify
			fmt.Fprintf(s.out, "verification %s\n", onOff(s.verify))
		default:
			fmt.Fprintln(s.out, "unknown command. Type :verify or :quit.")
		}
		return true
	}

	ir, err := compiler.Compile(code, compiler.Options{Filename: "<console>", Verify: s.verify})
	if err != nil {
		fmt.Fprintln(s.errOut, compiler.FormatError(err, "<console>", code))
		return true
	}
	fmt.Fprint(s.out, ir)
	return true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// needsMore reports whether src stops in the middle of a construct, so the
// prompt should ask for another line.
func needsMore(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	_, err := compiler.Translate(src, compiler.Options{})
	return compiler.IsIncomplete(err)
}

// readInput collects lines until they form a complete input.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" || !needsMore(src) {
			return src, true
		}
	}
}

func main() {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	s := &session{out: os.Stdout, errOut: os.Stderr}
	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return
		}
		if !s.handle(code) {
			return
		}
		if strings.TrimSpace(code) != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
	}
}
