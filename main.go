// Command cactc compiles one CACT source file to LLVM IR text.
//
//	cactc -emit-ir <ir-file> <input-file>
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"cactc/pkg/compiler"
	"cactc/pkg/irverify"
	"cactc/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the driver and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("cactc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	irPath := fs.String("emit-ir", "", "output LLVM IR file path")
	verbose := fs.Bool("v", false, "report progress and timing on stderr")
	verify := fs.Bool("verify", false, "check the structure of the emitted IR before writing it")

	// Flags and the input path may come in any order.
	var inputs []string
	for {
		if err := fs.Parse(args); err != nil {
			return flagError(fs, err, stderr)
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		inputs = append(inputs, args[0])
		args = args[1:]
	}

	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "error: need input file.")
		return 1
	}
	if *irPath == "" {
		fmt.Fprintln(stderr, "error: need output ir file.")
		return 1
	}
	inPath := inputs[len(inputs)-1]

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger.SetOutput(stderr)
	}

	src, err := utils.ReadSource(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger.Print("Parser & Visitor begin")
	start := time.Now()
	out, err := compiler.Compile(src, compiler.Options{Filename: inPath})
	logger.Printf("Parser & Visitor end, Use Time: %gs", time.Since(start).Seconds())
	if err != nil {
		fmt.Fprintln(stderr, compiler.FormatError(err, inPath, src))
		return 1
	}

	if *verify {
		if _, err := irverify.Verify(out); err != nil {
			fmt.Fprintf(stderr, "internal error: emitted IR is malformed: %v\n", err)
			return 2
		}
	}

	if err := utils.WriteIR(*irPath, out); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	logger.Print("CACT compilation finished successfully.")
	return 0
}

// flagError reports a command-line parse failure and returns the exit code.
// A trailing -emit-ir with no path is the same mistake as omitting it.
func flagError(fs *flag.FlagSet, err error, stderr io.Writer) int {
	if errors.Is(err, flag.ErrHelp) {
		fs.SetOutput(stderr)
		fs.Usage()
		return 0
	}
	if strings.HasPrefix(err.Error(), "flag needs an argument: ") && strings.HasSuffix(err.Error(), "emit-ir") {
		fmt.Fprintln(stderr, "error: need output ir file.")
		return 1
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	fs.SetOutput(stderr)
	fs.Usage()
	return 2
}
