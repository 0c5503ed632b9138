package compiler

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/nalgeon/be"

	"cactc/pkg/irverify"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

// compileListing compiles src and re-reads the result with the verifier.
func compileListing(t *testing.T, src string) (string, *irverify.Listing) {
	t.Helper()
	out, err := Compile(src, Options{Filename: "test.cact"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	listing, err := irverify.Verify(out)
	if err != nil {
		t.Fatalf("Verify failed: %v\nIR:\n%s", err, out)
	}
	return out, listing
}

const sampleProgram = `
const int N = 4;
int data[N] = {5, 3, 8, 1};
float scale = 0.5;

void sort(int a[], int n) {
	int i = 0;
	while (i < n) {
		int j = 0;
		while (j < n - 1 - i) {
			if (a[j] > a[j + 1]) {
				int t = a[j];
				a[j] = a[j + 1];
				a[j + 1] = t;
			}
			j = j + 1;
		}
		i = i + 1;
	}
}

float mean(int a[], int n) {
	int i = 0;
	float s = 0;
	while (1) {
		if (i >= n) break;
		s = s + a[i];
		i = i + 1;
	}
	return s / n * scale * 2;
}

int main() {
	int k = get_int();
	sort(data, N);
	if (k > 0 && data[0] <= data[N - 1] || !k) {
		print_int(data[0]);
	} else {
		print_float(mean(data, N));
	}
	return 0;
}
`

func TestGenerate_ModuleHeader(t *testing.T) {
	out, _ := compileListing(t, "int main() { return 0; }")
	be.True(t, strings.HasPrefix(out, "; ModuleID = 'test.cact'\nsource_filename = \"test.cact\"\n"))
}

func TestGenerate_SampleVerifies(t *testing.T) {
	out, listing := compileListing(t, sampleProgram)
	be.Equal(t, len(listing.Funcs), 3)
	be.Equal(t, listing.Globals, []string{"data", "scale"})

	assertContains(t, out, "@data = global [4 x i32] [i32 5, i32 3, i32 8, i32 1]")
	assertContains(t, out, "define void @sort(ptr %t0, i32 %t1) {")
	assertContains(t, out, "declare i32 @get_int()")
	assertContains(t, out, "call void @sort(ptr @data, i32 4)")

	for _, fn := range listing.Funcs {
		for _, b := range fn.Blocks {
			term := b.Terminator()
			be.True(t, term.Opcode == "br" || term.Opcode == "ret")
		}
	}
}

func TestGenerate_ShortCircuitCFG(t *testing.T) {
	_, listing := compileListing(t, `
int a() { return 1; }
int b() { return 0; }
int main() {
	if (a() || b()) { return 1; }
	return 0;
}
`)
	main := listing.Func("main")
	be.True(t, main != nil)

	callB := main.Find("call i32 @b()")
	be.True(t, callB != nil)
	// b() runs only when a() was false: its block has a single predecessor,
	// the block that called a().
	be.Equal(t, main.Preds(callB.Label), []string{main.Find("call i32 @a()").Label})

	then := main.Find("ret i32 1")
	be.Equal(t, main.Preds(then.Label), []string{"entry2", callB.Label})
}

func TestGenerate_ValueShortCircuitPhi(t *testing.T) {
	_, listing := compileListing(t, `
int main() {
	int x = get_int();
	int y = x > 0 && x < 5;
	return y;
}
`)
	main := listing.Func("main")
	join := main.Find("phi i1")
	be.True(t, join != nil)
	be.Equal(t, main.Preds(join.Label), []string{"entry0", "sc.rhs1"})
}

func TestGenerate_DeadCodeHasNoPredecessors(t *testing.T) {
	_, listing := compileListing(t, `
int main() {
	int i = 0;
	while (i < 3) {
		i = i + 1;
		continue;
		i = 100;
	}
	return i;
	print_int(i);
}
`)
	main := listing.Func("main")
	dead := 0
	for _, b := range main.Blocks {
		if strings.HasPrefix(b.Label, "dead") {
			dead++
			be.Equal(t, len(main.Preds(b.Label)), 0)
		}
	}
	be.Equal(t, dead, 2)
	store := main.Find("store i32 100")
	be.True(t, strings.HasPrefix(store.Label, "dead"))
}

func TestGenerate_ShadowedLocalsGetDistinctSlots(t *testing.T) {
	_, listing := compileListing(t, `
int main() {
	int x = 1;
	{
		int x = 2;
		{
			float x = 3.0;
		}
	}
	return x;
}
`)
	entry := listing.Func("main").Blocks[0]
	allocas := 0
	for _, in := range entry.Instrs {
		if in.Opcode == "alloca" {
			allocas++
		}
	}
	be.Equal(t, allocas, 3)
}

var (
	regDefRe   = regexp.MustCompile(`(?m)^\s+%(t\d+) =`)
	labelDefRe = regexp.MustCompile(`(?m)^([-a-zA-Z$._0-9]+):$`)
)

func TestGenerate_NamesAreUniqueAcrossModule(t *testing.T) {
	out, listing := compileListing(t, sampleProgram)

	seen := make(map[string]bool)
	for _, m := range regDefRe.FindAllStringSubmatch(out, -1) {
		be.True(t, !seen[m[1]])
		seen[m[1]] = true
	}
	for _, fn := range listing.Funcs {
		for _, p := range fn.Params {
			be.True(t, !seen[p])
			seen[p] = true
		}
	}

	labels := make(map[string]bool)
	for _, m := range labelDefRe.FindAllStringSubmatch(out, -1) {
		be.True(t, !labels[m[1]])
		labels[m[1]] = true
	}
	be.True(t, len(labels) > 10)
}

func TestGenerate_ParallelCompilationsAgree(t *testing.T) {
	want, err := Compile(sampleProgram, Options{Filename: "sample.cact"})
	be.Err(t, err, nil)

	const workers = 8
	results := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Compile(sampleProgram, Options{Filename: "sample.cact"})
		}(i)
	}
	wg.Wait()

	for i := range results {
		be.Err(t, errs[i], nil)
		be.Equal(t, results[i], want)
	}
}

func TestGenerate_KeepsGlobalSymbols(t *testing.T) {
	tokens, err := Lex("int g; int f(int a) { return a; }")
	be.Err(t, err, nil)
	prog, err := Parse(tokens)
	be.Err(t, err, nil)

	syms := NewSymbolTable()
	mod, err := Generate(prog, syms, Options{})
	be.Err(t, err, nil)
	be.Equal(t, mod.Name, "<input>")

	f, ok := syms.Lookup("f")
	be.True(t, ok)
	be.Equal(t, f.Sig.String(), "int(int)")
	be.True(t, f.Fn == mod.Func("f"))

	g, ok := syms.Lookup("g")
	be.True(t, ok)
	be.Equal(t, g.Addr.Ident(), "@g")

	_, ok = syms.Lookup("a")
	be.True(t, !ok)
	be.Equal(t, syms.Depth(), 1)
}

func TestGenerate_RuntimeVisibleEverywhere(t *testing.T) {
	for _, rt := range runtimeFuncs {
		t.Run(rt.name, func(t *testing.T) {
			args := make([]string, len(rt.sig.Params))
			for i, p := range rt.sig.Params {
				if p.Basic == Float {
					args[i] = "1.0"
				} else {
					args[i] = "1"
				}
			}
			src := "void main() { " + rt.name + "(" + strings.Join(args, ", ") + "); }"
			out, _ := compileListing(t, src)
			assertContains(t, out, "declare ")
			assertContains(t, out, "@"+rt.name+"(")
		})
	}
}
