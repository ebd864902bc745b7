package semantics

import (
	"fmt"

	"pixardis/pkg/ast"
	"pixardis/pkg/stack"
)

// Analyzer type-checks a program and populates the scope store that
// code generation later re-traverses. Expression types flow through a
// type stack: every factor pushes one type, every consumer pops.
//
// On any error the offending construct recovers with the Undefined
// sentinel, which compares equal to everything so one mistake is not
// reported through every enclosing expression.
type Analyzer struct {
	scopes *ScopeManager
	types  *stack.Stack[Type]
	diags  []Diagnostic
	result CompilationResult
}

// NewAnalyzer creates a new Analyzer instance
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		scopes: NewScopeManager(),
		types:  stack.NewStack[Type](),
		result: ResultPending,
	}
}

// Scopes exposes the populated scope store for code generation.
func (a *Analyzer) Scopes() *ScopeManager {
	return a.scopes
}

// Diagnostics returns the problems found so far.
func (a *Analyzer) Diagnostics() []Diagnostic {
	return a.diags
}

// TypeDepth reports how many expression types are still pending on
// the type stack. A completed walk over a well-typed program leaves
// it at zero; every factor push is matched by a consumer pop.
func (a *Analyzer) TypeDepth() int {
	return a.types.Size()
}

// Analyse walks the program and returns the rolled-up result.
func (a *Analyzer) Analyse(program *ast.Program) CompilationResult {
	a.result = ResultSuccess

	a.scopes.Open(false, nil)
	for _, stmt := range program.Statements {
		a.analyseStmt(stmt)
	}

	return a.result
}

func (a *Analyzer) report(kind DiagnosticKind, line int, format string, args ...any) {
	a.diags = append(a.diags, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	})
	a.result = ResultFailure
}

func (a *Analyzer) pushType(t Type) {
	a.types.Push(t)
}

func (a *Analyzer) popType() Type {
	t, ok := a.types.Pop()
	if !ok {
		return TypeUndefined
	}

	return t
}

// typesMatch treats the Undefined sentinel as compatible with
// anything, so recovery does not cascade.
func typesMatch(a, b Type) bool {
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return true
	}

	return a.Equal(b)
}

func (a *Analyzer) analyseStmt(s ast.Stmt) {
	switch node := s.(type) {
	case *ast.VariableDecl:
		a.analyseVariableDecl(node)

	case *ast.FunctionDecl:
		a.analyseFunctionDecl(node)

	case *ast.Assignment:
		a.analyseAssignment(node)

	case *ast.Print:
		a.analyseExpr(node.Expression)
		a.popType()

	case *ast.Delay:
		a.expectExpr(node.Expression, TypeInt, "__delay", node.Line)

	case *ast.Clear:
		a.expectExpr(node.Expression, TypeColour, "__clear", node.Line)

	case *ast.Write:
		a.expectExpr(node.Args[0], TypeInt, "__write x", node.Line)
		a.expectExpr(node.Args[1], TypeInt, "__write y", node.Line)
		a.expectExpr(node.Args[2], TypeColour, "__write colour", node.Line)

	case *ast.WriteBox:
		a.expectExpr(node.Args[0], TypeInt, "__write_box x", node.Line)
		a.expectExpr(node.Args[1], TypeInt, "__write_box y", node.Line)
		a.expectExpr(node.Args[2], TypeInt, "__write_box width", node.Line)
		a.expectExpr(node.Args[3], TypeInt, "__write_box height", node.Line)
		a.expectExpr(node.Args[4], TypeColour, "__write_box colour", node.Line)

	case *ast.WriteLine:
		a.expectExpr(node.Args[0], TypeInt, "__write_line x0", node.Line)
		a.expectExpr(node.Args[1], TypeInt, "__write_line y0", node.Line)
		a.expectExpr(node.Args[2], TypeInt, "__write_line x1", node.Line)
		a.expectExpr(node.Args[3], TypeInt, "__write_line y1", node.Line)
		a.expectExpr(node.Args[4], TypeColour, "__write_line colour", node.Line)

	case *ast.Return:
		a.analyseReturn(node)

	case *ast.Block:
		a.scopes.Open(false, nil)
		for _, stmt := range node.Statements {
			a.analyseStmt(stmt)
		}
		_ = a.scopes.Close()

	case *ast.UnscopedBlock:
		for _, stmt := range node.Statements {
			a.analyseStmt(stmt)
		}

	case *ast.If:
		a.expectExpr(node.Condition, TypeBool, "if condition", node.Line)
		a.analyseStmt(node.Body)
		if node.Else != nil {
			a.analyseStmt(node.Else)
		}

	case *ast.While:
		a.expectExpr(node.Condition, TypeBool, "while condition", node.Line)
		a.analyseStmt(node.Body)

	case *ast.For:
		a.scopes.Open(false, nil)
		if node.Initializer != nil {
			a.analyseStmt(node.Initializer)
		}
		if node.Condition != nil {
			a.expectExpr(node.Condition, TypeBool, "for condition", node.Line)
		}
		if node.Increment != nil {
			a.analyseStmt(node.Increment)
		}
		a.analyseStmt(node.Body)
		_ = a.scopes.Close()
	}
}

func (a *Analyzer) analyseVariableDecl(node *ast.VariableDecl) {
	declared, ok := TypeFromString(node.TypeName)
	if !ok {
		a.report(DiagType, node.Line, "unknown type %q", node.TypeName)
		declared = TypeUndefined
	}

	scope := a.scopes.Current()
	if scope.Exists(node.Identifier) {
		a.report(DiagSemantic, node.Line, "%q is already declared in this scope", node.Identifier)
	} else {
		scope.Insert(node.Identifier, SymbolEntry{Name: node.Identifier, Type: declared})
	}

	if declared.Array {
		if len(node.Elements) != declared.Length {
			a.report(DiagSemantic, node.Line,
				"array %q initialised with %d elements, want %d",
				node.Identifier, len(node.Elements), declared.Length)
		}

		elem := declared.Elem()
		for _, e := range node.Elements {
			a.analyseExpr(e)
			if actual := a.popType(); !typesMatch(actual, elem) {
				a.report(DiagType, node.Line,
					"array %q element has type %s, want %s", node.Identifier, actual, elem)
			}
		}

		return
	}

	a.analyseExpr(node.Initializer)
	if actual := a.popType(); !typesMatch(actual, declared) {
		a.report(DiagType, node.Line,
			"cannot initialise %q of type %s with %s", node.Identifier, declared, actual)
	}
}

func (a *Analyzer) analyseFunctionDecl(node *ast.FunctionDecl) {
	returnType, ok := TypeFromString(node.ReturnType)
	if !ok {
		a.report(DiagType, node.Line, "unknown return type %q", node.ReturnType)
		returnType = TypeUndefined
	}

	params := make([]SymbolEntry, 0, len(node.Params))
	for _, p := range node.Params {
		paramType, ok := TypeFromString(p.TypeName)
		if !ok {
			a.report(DiagType, p.Line, "unknown parameter type %q", p.TypeName)
			paramType = TypeUndefined
		}
		params = append(params, SymbolEntry{Name: p.Identifier, Type: paramType})
	}

	scope := a.scopes.Current()
	if scope.Exists(node.Identifier) {
		a.report(DiagSemantic, node.Line, "%q is already declared in this scope", node.Identifier)
	} else {
		scope.Insert(node.Identifier, SymbolEntry{
			Name:       node.Identifier,
			Type:       TypeFunction,
			Params:     params,
			ReturnType: &returnType,
		})
	}

	a.scopes.Open(true, &returnType)

	body := a.scopes.Current()
	for _, p := range params {
		if body.Exists(p.Name) {
			a.report(DiagSemantic, node.Line, "duplicate parameter %q", p.Name)
			continue
		}
		body.Insert(p.Name, p)
	}

	a.analyseStmt(node.Body)
	_ = a.scopes.Close()
}

func (a *Analyzer) analyseAssignment(node *ast.Assignment) {
	_, _, entry, ok := a.scopes.Find(node.Identifier)
	if !ok {
		a.report(DiagName, node.Line, "undefined variable %q", node.Identifier)
		a.analyseExpr(node.Expression)
		a.popType()
		return
	}

	if entry.Type.Kind == KindFunction {
		a.report(DiagSemantic, node.Line, "cannot assign to function %q", node.Identifier)
		a.analyseExpr(node.Expression)
		a.popType()
		return
	}

	if node.Index != nil {
		if !entry.Type.Array {
			a.report(DiagType, node.Line, "%q is not an array", node.Identifier)
		}
		a.expectExpr(node.Index, TypeInt, "array index", node.Line)

		a.analyseExpr(node.Expression)
		if actual := a.popType(); entry.Type.Array && !typesMatch(actual, entry.Type.Elem()) {
			a.report(DiagType, node.Line,
				"cannot assign %s to element of %q, want %s",
				actual, node.Identifier, entry.Type.Elem())
		}
		return
	}

	a.analyseExpr(node.Expression)
	if actual := a.popType(); !typesMatch(actual, entry.Type) {
		a.report(DiagType, node.Line,
			"cannot assign %s to %q of type %s", actual, node.Identifier, entry.Type)
	}
}

func (a *Analyzer) analyseReturn(node *ast.Return) {
	a.analyseExpr(node.Expression)
	actual := a.popType()

	expected := a.enclosingReturnType()
	if expected == nil {
		a.report(DiagSemantic, node.Line, "return outside of a function")
		return
	}

	if !typesMatch(actual, *expected) {
		a.report(DiagType, node.Line, "cannot return %s, function wants %s", actual, *expected)
	}
}

// enclosingReturnType walks the ancestor chain for the innermost
// function scope.
func (a *Analyzer) enclosingReturnType() *Type {
	scope := a.scopes.Current()
	for scope != nil {
		if scope.IsFunction {
			return scope.ReturnType
		}
		scope = a.scopes.Get(scope.Parent)
	}

	return nil
}

// expectExpr analyses an expression and checks its type.
func (a *Analyzer) expectExpr(e *ast.Expr, want Type, context string, line int) {
	a.analyseExpr(e)
	if actual := a.popType(); !typesMatch(actual, want) {
		a.report(DiagType, line, "%s expects %s, got %s", context, want, actual)
	}
}

func isRelational(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}

	return false
}

func isLogical(op string) bool {
	switch op {
	case "&&", "||", "and", "or":
		return true
	}

	return false
}

// analyseExpr leaves exactly one type on the type stack.
func (a *Analyzer) analyseExpr(e *ast.Expr) {
	if e == nil {
		a.pushType(TypeUndefined)
		return
	}

	a.analyseFactor(e.Factor)
	lhs := a.popType()

	switch {
	case e.Operator == "as":
		target, ok := TypeFromString(e.CastType)
		if !ok {
			a.report(DiagType, e.Line, "unknown cast target %q", e.CastType)
			target = TypeUndefined
		}
		if lhs.Array || target.Array {
			a.report(DiagType, e.Line, "cannot cast array types")
			target = TypeUndefined
		}
		lhs = target

	case e.Operator != "":
		a.analyseExpr(e.Right)
		rhs := a.popType()

		if !typesMatch(lhs, rhs) {
			a.report(DiagType, e.Line,
				"operator %q expects matching operand types, got %s and %s",
				e.Operator, lhs, rhs)
		}

		if isRelational(e.Operator) || isLogical(e.Operator) {
			lhs = TypeBool
		}
	}

	a.pushType(lhs)
}

func (a *Analyzer) analyseFactor(f ast.Factor) {
	switch node := f.(type) {
	case *ast.BoolLit:
		a.pushType(TypeBool)

	case *ast.IntLit:
		a.pushType(TypeInt)

	case *ast.FloatLit:
		a.pushType(TypeFloat)

	case *ast.ColourLit:
		a.pushType(TypeColour)

	case *ast.Width, *ast.Height:
		a.pushType(TypeInt)

	case *ast.RandomInt:
		a.expectExpr(node.Expression, TypeInt, "__random_int bound", node.Line)
		a.pushType(TypeInt)

	case *ast.Read:
		a.expectExpr(node.X, TypeInt, "__read x", node.Line)
		a.expectExpr(node.Y, TypeInt, "__read y", node.Line)
		a.pushType(TypeColour)

	case *ast.Identifier:
		_, _, entry, ok := a.scopes.Find(node.Name)
		if !ok {
			a.report(DiagName, node.Line, "undefined variable %q", node.Name)
			a.pushType(TypeUndefined)
			return
		}
		if entry.Type.Kind == KindFunction {
			a.report(DiagSemantic, node.Line, "function %q used as a value", node.Name)
			a.pushType(TypeUndefined)
			return
		}
		a.pushType(entry.Type)

	case *ast.ArrayAccess:
		a.expectExpr(node.Index, TypeInt, "array index", node.Line)

		_, _, entry, ok := a.scopes.Find(node.Name)
		if !ok {
			a.report(DiagName, node.Line, "undefined variable %q", node.Name)
			a.pushType(TypeUndefined)
			return
		}
		if !entry.Type.Array {
			a.report(DiagType, node.Line, "%q is not an array", node.Name)
			a.pushType(TypeUndefined)
			return
		}
		a.pushType(entry.Type.Elem())

	case *ast.Call:
		a.analyseCall(node)

	case *ast.Subexpr:
		a.analyseExpr(node.Expression)

	case *ast.Unary:
		// The operand's type carries through unchanged.
		a.analyseExpr(node.Expression)

	default:
		a.pushType(TypeUndefined)
	}
}

func (a *Analyzer) analyseCall(node *ast.Call) {
	_, _, entry, ok := a.scopes.Find(node.Identifier)
	if !ok {
		a.report(DiagName, node.Line, "undefined function %q", node.Identifier)
	} else if entry.Type.Kind != KindFunction {
		a.report(DiagType, node.Line, "%q is not a function", node.Identifier)
		ok = false
	}

	if !ok {
		for _, arg := range node.Arguments {
			a.analyseExpr(arg)
			a.popType()
		}
		a.pushType(TypeUndefined)
		return
	}

	if len(node.Arguments) != len(entry.Params) {
		a.report(DiagSemantic, node.Line,
			"function %q expects %d arguments, got %d",
			node.Identifier, len(entry.Params), len(node.Arguments))
	}

	for i, arg := range node.Arguments {
		a.analyseExpr(arg)
		actual := a.popType()

		if i < len(entry.Params) && !typesMatch(actual, entry.Params[i].Type) {
			a.report(DiagType, node.Line,
				"argument %d of %q has type %s, want %s",
				i+1, node.Identifier, actual, entry.Params[i].Type)
		}
	}

	if entry.ReturnType != nil {
		a.pushType(*entry.ReturnType)
		return
	}

	a.pushType(TypeUndefined)
}
