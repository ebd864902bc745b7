package parser_test

import (
	"testing"

	"pixardis/pkg/ast"
	"pixardis/pkg/lexer"
	"pixardis/pkg/parser"
)

func parse(t *testing.T, source string) (*ast.Program, *parser.Parser) {
	t.Helper()

	p := parser.NewParser(lexer.NewLexer(source))
	program := p.Parse()

	return program, p
}

func parseClean(t *testing.T, source string) *ast.Program {
	t.Helper()

	program, p := parse(t, source)
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected syntax errors: %v", errs)
	}

	return program
}

func TestVariableDecl(t *testing.T) {
	program := parseClean(t, "let x: int = 5;")

	if len(program.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(program.Statements))
	}

	decl, ok := program.Statements[0].(*ast.VariableDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.VariableDecl", program.Statements[0])
	}

	if decl.Identifier != "x" || decl.TypeName != "int" {
		t.Errorf("declared %q of type %q, want x of int", decl.Identifier, decl.TypeName)
	}
	if decl.Initializer == nil {
		t.Error("scalar declaration has no initializer")
	}
	if decl.Elements != nil {
		t.Error("scalar declaration has array elements")
	}
}

func TestArrayDecl(t *testing.T) {
	program := parseClean(t, "let a: int[3] = [10, 20, 30];")

	decl := program.Statements[0].(*ast.VariableDecl)

	if decl.TypeName != "int[3]" {
		t.Errorf("type name %q, want int[3]", decl.TypeName)
	}
	if len(decl.Elements) != 3 {
		t.Fatalf("got %d elements, want 3", len(decl.Elements))
	}
	if decl.Initializer != nil {
		t.Error("array declaration has a scalar initializer")
	}

	first, ok := decl.Elements[0].Factor.(*ast.IntLit)
	if !ok || first.Value != 10 {
		t.Errorf("first element is %v, want 10", decl.Elements[0].Factor)
	}
}

func TestFunctionDecl(t *testing.T) {
	program := parseClean(t, "fun add(a: int, b: int) -> int { return a + b; }")

	decl, ok := program.Statements[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.FunctionDecl", program.Statements[0])
	}

	if decl.Identifier != "add" || decl.ReturnType != "int" {
		t.Errorf("parsed %q -> %q, want add -> int", decl.Identifier, decl.ReturnType)
	}
	if len(decl.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(decl.Params))
	}
	if decl.Params[1].Identifier != "b" || decl.Params[1].TypeName != "int" {
		t.Errorf("second param %v", decl.Params[1])
	}

	// Function bodies share the parameter frame.
	body, ok := decl.Body.(*ast.UnscopedBlock)
	if !ok {
		t.Fatalf("body is %T, want *ast.UnscopedBlock", decl.Body)
	}
	if len(body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(body.Statements))
	}
	if _, ok := body.Statements[0].(*ast.Return); !ok {
		t.Errorf("body statement is %T, want *ast.Return", body.Statements[0])
	}
}

func TestIfElse(t *testing.T) {
	program := parseClean(t, "if (true) { __print 1; } else { __print 0; }")

	node, ok := program.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("statement is %T, want *ast.If", program.Statements[0])
	}

	if node.Condition == nil {
		t.Fatal("if has no condition")
	}
	if _, ok := node.Body.(*ast.Block); !ok {
		t.Errorf("body is %T, want *ast.Block", node.Body)
	}
	if _, ok := node.Else.(*ast.Block); !ok {
		t.Errorf("else is %T, want *ast.Block", node.Else)
	}
}

func TestElseIfChain(t *testing.T) {
	program := parseClean(t, "if (true) { } else if (false) { } else { }")

	node := program.Statements[0].(*ast.If)
	inner, ok := node.Else.(*ast.If)
	if !ok {
		t.Fatalf("else branch is %T, want a nested *ast.If", node.Else)
	}
	if inner.Else == nil {
		t.Error("nested if lost its else branch")
	}
}

func TestFor(t *testing.T) {
	program := parseClean(t, "for (let i: int = 0; i < 4; i = i + 1) { __print i; }")

	node, ok := program.Statements[0].(*ast.For)
	if !ok {
		t.Fatalf("statement is %T, want *ast.For", program.Statements[0])
	}

	if _, ok := node.Initializer.(*ast.VariableDecl); !ok {
		t.Errorf("initializer is %T, want *ast.VariableDecl", node.Initializer)
	}
	if node.Condition == nil {
		t.Error("for has no condition")
	}
	if _, ok := node.Increment.(*ast.Assignment); !ok {
		t.Errorf("increment is %T, want *ast.Assignment", node.Increment)
	}
}

func TestExprShape(t *testing.T) {
	// The chain leans right: 1 + (2 * 3).
	program := parseClean(t, "__print 1 + 2 * 3;")

	expr := program.Statements[0].(*ast.Print).Expression

	if expr.Operator != "+" {
		t.Fatalf("outer operator %q, want +", expr.Operator)
	}
	if lit, ok := expr.Factor.(*ast.IntLit); !ok || lit.Value != 1 {
		t.Errorf("outer factor is %v, want 1", expr.Factor)
	}

	right := expr.Right
	if right == nil || right.Operator != "*" {
		t.Fatalf("right side does not carry the * chain: %v", right)
	}
	if lit, ok := right.Factor.(*ast.IntLit); !ok || lit.Value != 2 {
		t.Errorf("inner factor is %v, want 2", right.Factor)
	}
}

func TestCast(t *testing.T) {
	program := parseClean(t, "let f: float = x as float;")

	expr := program.Statements[0].(*ast.VariableDecl).Initializer
	if expr.Operator != "as" || expr.CastType != "float" {
		t.Errorf("cast parsed as operator %q type %q", expr.Operator, expr.CastType)
	}
	if expr.Right != nil {
		t.Error("cast expression has a right-hand side")
	}
}

func TestIndexedAssignment(t *testing.T) {
	program := parseClean(t, "a[2] = 7;")

	node := program.Statements[0].(*ast.Assignment)
	if node.Identifier != "a" || node.Index == nil {
		t.Errorf("indexed assignment parsed as %v", node)
	}
}

func TestWriteBuiltins(t *testing.T) {
	program := parseClean(t, "__write 1, 2, #ff0000; __write_box 0, 0, 4, 4, #00ff00;")

	if len(program.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(program.Statements))
	}
	if _, ok := program.Statements[0].(*ast.Write); !ok {
		t.Errorf("first statement is %T, want *ast.Write", program.Statements[0])
	}
	if _, ok := program.Statements[1].(*ast.WriteBox); !ok {
		t.Errorf("second statement is %T, want *ast.WriteBox", program.Statements[1])
	}
}

func TestWriteArityError(t *testing.T) {
	_, p := parse(t, "__write 1, 2;")

	if len(p.Errors()) == 0 {
		t.Error("expected an arity error for __write with 2 arguments")
	}
}

func TestErrorRecovery(t *testing.T) {
	program, p := parse(t, "let = ;\nlet x: int = 1;")

	if len(p.Errors()) == 0 {
		t.Fatal("expected syntax errors for the malformed declaration")
	}

	// The parse resumes at the next statement.
	if len(program.Statements) != 1 {
		t.Fatalf("got %d statements after recovery, want 1", len(program.Statements))
	}
	decl, ok := program.Statements[0].(*ast.VariableDecl)
	if !ok || decl.Identifier != "x" {
		t.Errorf("recovered statement is %v", program.Statements[0])
	}
}

func TestUnaryOperators(t *testing.T) {
	program := parseClean(t, "__print -5; __print not true;")

	neg := program.Statements[0].(*ast.Print).Expression.Factor.(*ast.Unary)
	if neg.Operator != "-" {
		t.Errorf("first unary operator %q, want -", neg.Operator)
	}

	not := program.Statements[1].(*ast.Print).Expression.Factor.(*ast.Unary)
	if not.Operator != "not" {
		t.Errorf("second unary operator %q, want not", not.Operator)
	}
}
