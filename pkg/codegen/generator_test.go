package codegen_test

import (
	"strings"
	"testing"

	"pixardis/pkg/codegen"
	"pixardis/pkg/isa"
	"pixardis/pkg/lexer"
	"pixardis/pkg/parser"
	"pixardis/pkg/semantics"
)

func compile(t *testing.T, source string) (isa.Program, *codegen.Generator) {
	t.Helper()

	p := parser.NewParser(lexer.NewLexer(source))
	program := p.Parse()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("syntax errors in test source: %v", errs)
	}

	analyzer := semantics.NewAnalyzer()
	if result := analyzer.Analyse(program); result != semantics.ResultSuccess {
		t.Fatalf("analysis failed: %v", analyzer.Diagnostics())
	}

	generator := codegen.NewGenerator(analyzer.Scopes())
	code := generator.Generate(program)
	if generator.Status() != semantics.ResultSuccess {
		t.Fatalf("generation failed for %q", source)
	}

	return code, generator
}

func lines(program isa.Program) []string {
	return strings.Split(strings.TrimRight(isa.FormatProgram(program), "\n"), "\n")
}

func assertListing(t *testing.T, got isa.Program, want []string) {
	t.Helper()

	actual := lines(got)
	if len(actual) != len(want) {
		t.Fatalf("got %d instructions, want %d:\n%s", len(actual), len(want), isa.FormatProgram(got))
	}

	for i := range want {
		if actual[i] != want[i] {
			t.Errorf("slot %d: got %q, want %q", i, actual[i], want[i])
		}
	}
}

func TestGenerateDeclAndPrint(t *testing.T) {
	code, _ := compile(t, "let x: int = 2 + 3; __print x;")

	assertListing(t, code, []string{
		".main",
		"push 4",
		"jmp",
		"halt",
		"push 1",
		"oframe",
		"push 3",
		"push 2",
		"add",
		"push 0",
		"push 0",
		"st",
		"push [0:0]",
		"print",
		"cframe",
		"halt",
	})
}

func TestGenerateWhile(t *testing.T) {
	code, _ := compile(t, "let i: int = 0; while (i < 3) { i = i + 1; } __print i;")

	assertListing(t, code, []string{
		".main",
		"push 4",
		"jmp",
		"halt",
		"push 1",
		"oframe",
		"push 0",
		"push 0",
		"push 0",
		"st",
		"push 3",
		"push [0:0]",
		"lt",
		"push #PC+4",
		"cjmp",
		"push #PC+13",
		"jmp",
		"push 0",
		"oframe",
		"push 1",
		"push [0:1]",
		"add",
		"push 0",
		"push 1",
		"st",
		"cframe",
		"push #PC-16",
		"jmp",
		"push [0:0]",
		"print",
		"cframe",
		"halt",
	})
}

func TestGenerateFunction(t *testing.T) {
	code, _ := compile(t, "fun add(a: int, b: int) -> int { return a + b; } __print add(2, 3);")

	assertListing(t, code, []string{
		".main",
		"push 4",
		"jmp",
		"halt",
		"push 1",
		"oframe",
		"push #PC+9", // fence over the body
		"jmp",
		".add",
		"push 0", // locals beyond the two argument slots
		"alloc",
		"push [1:0]",
		"push [0:0]",
		"add",
		"ret",
		"push 3", // arguments, last first
		"push 2",
		"push 2", // argument count
		"push .add",
		"call",
		"print",
		"cframe",
		"halt",
	})
}

func TestGenerateArrayDecl(t *testing.T) {
	code, _ := compile(t, "let a: int[3] = [10, 20, 30]; __print a;")

	assertListing(t, code, []string{
		".main",
		"push 4",
		"jmp",
		"halt",
		"push 3",
		"oframe",
		"push 30", // elements last-first so slot zero is written first
		"push 20",
		"push 10",
		"push 3",
		"push 0",
		"push 0",
		"sta",
		"push 3",
		"pusha [0:0]",
		"push 3",
		"printa",
		"cframe",
		"halt",
	})
}

func TestGenerateNotEqual(t *testing.T) {
	code, _ := compile(t, "__print 2 != 3;")

	text := isa.FormatProgram(code)
	if !strings.Contains(text, "eq\npush 1\nsub") {
		t.Errorf("!= should lower to eq, push 1, sub:\n%s", text)
	}
}

func TestGenerateUnary(t *testing.T) {
	code, _ := compile(t, "__print -5; __print not true;")

	text := isa.FormatProgram(code)
	if !strings.Contains(text, "push 5\npush 0\nsub") {
		t.Errorf("negation should lower to push 0, sub:\n%s", text)
	}
	if !strings.Contains(text, "push 1\npush 1\nsub") {
		t.Errorf("not should lower to push 1, sub:\n%s", text)
	}
}

func TestGenerateIndexedAssignment(t *testing.T) {
	code, _ := compile(t, "let a: int[2] = [1, 2]; a[1] = 9;")

	// Element slot is base offset plus runtime index.
	text := isa.FormatProgram(code)
	if !strings.Contains(text, "push 9\npush 1\npush 0\nadd\npush 0\nst") {
		t.Errorf("indexed store sequence missing:\n%s", text)
	}
}

// A return buried under nested blocks closes one frame per block
// before ret; ret itself closes the function frame.
func TestReturnUnwindsNestedBlocks(t *testing.T) {
	code, _ := compile(t, "fun f(a: int) -> int { { { return a; } } } __print f(1);")

	text := isa.FormatProgram(code)
	if !strings.Contains(text, "cframe\ncframe\nret") {
		t.Errorf("return under two blocks should close two frames:\n%s", text)
	}
}

func TestScopeTagsCoverProgram(t *testing.T) {
	code, generator := compile(t, "let x: int = 1; { let y: int = 2; __print y; }")

	tags := generator.ScopeTags()
	if len(tags) != len(code) {
		t.Fatalf("got %d scope tags for %d instructions", len(tags), len(code))
	}

	// The inner block's instructions carry the inner scope id.
	sawInner := false
	for _, tag := range tags {
		if tag == 1 {
			sawInner = true
		}
	}
	if !sawInner {
		t.Error("no instruction tagged with the inner scope")
	}
}

func TestGeneratedLabels(t *testing.T) {
	code, _ := compile(t, "fun f(a: int) -> int { return a; } __print f(1);")

	labels := code.Labels()
	if _, ok := labels["main"]; !ok {
		t.Error("program has no main label")
	}
	if _, ok := labels["f"]; !ok {
		t.Error("program has no label for function f")
	}
	if labels["main"] != 0 {
		t.Errorf("main label at slot %d, want 0", labels["main"])
	}
}
