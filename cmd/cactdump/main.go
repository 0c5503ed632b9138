// Command cactdump prints every stage of compiling one CACT file: tokens,
// AST, IR and the global symbol table.
package main

import (
	"fmt"
	"io"
	"os"

	"cactc/pkg/compiler"
	"cactc/pkg/utils"
)

const sampleSource = `const int N = 2;
int g[N] = {1, 2};

int main() {
	int x = g[0] + g[1];
	print_int(x);
	return 0;
}
`

func main() {
	os.Exit(dump(os.Args[1:], os.Stdout, os.Stderr))
}

func dump(args []string, stdout, stderr io.Writer) int {
	src, name := sampleSource, "<sample>"
	if len(args) > 0 {
		var err error
		name = args[0]
		src, err = utils.ReadSource(name)
		if err != nil {
			fmt.Fprintln(stderr, "read error:", err)
			return 1
		}
	}

	res, err := compiler.Translate(src, compiler.Options{Filename: name})

	if res.Tokens != nil {
		fmt.Fprintf(stdout, "Tokens (%d)\n", len(res.Tokens))
		for _, tok := range res.Tokens {
			fmt.Fprintln(stdout, " ", tok)
		}
		fmt.Fprintln(stdout)
	}

	if res.Program != nil {
		fmt.Fprintln(stdout, "AST")
		for _, item := range res.Program.Items {
			fmt.Fprintln(stdout, " ", item)
		}
		fmt.Fprintln(stdout)
	}

	if err != nil {
		fmt.Fprintln(stderr, compiler.FormatError(err, name, src))
		return 1
	}

	fmt.Fprintln(stdout, "Generated IR")
	fmt.Fprint(stdout, res.IR)
	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, res.Symbols)
	return 0
}
