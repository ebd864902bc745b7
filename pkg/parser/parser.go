// Package parser builds a pixardis syntax tree from the token stream.
package parser

import (
	"fmt"
	"strconv"

	"pixardis/pkg/ast"
	"pixardis/pkg/lexer"
)

// Parser is a recursive-descent parser over the lexer's token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []string
}

// NewParser creates a new Parser instance
func NewParser(l *lexer.Lexer) *Parser {
	return &Parser{
		tokens: l.Tokens(),
		pos:    0,
	}
}

// Errors returns the syntax errors encountered so far
func (p *Parser) Errors() []string {
	return p.errors
}

// Parse consumes the token stream and returns the program root.
func (p *Parser) Parse() *ast.Program {
	program := &ast.Program{}

	for p.current().Type != lexer.EOF {
		before := p.pos

		if stmt := p.parseStatement(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}

		// Make sure an error cannot stall the parse loop
		if p.pos == before {
			p.advance()
		}
	}

	return program
}

func (p *Parser) current() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() lexer.Token {
	token := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return token
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.current().Type == t {
		return p.advance(), true
	}

	p.addError(fmt.Sprintf("expected %q, found %q", t, p.current().Lexeme), p.current().Position)
	return p.current(), false
}

func (p *Parser) addError(message string, pos lexer.Position) {
	p.errors = append(p.errors, fmt.Sprintf("%s at %s", message, pos))
}

// synchronize skips tokens until the next statement boundary
func (p *Parser) synchronize() {
	for {
		switch p.current().Type {
		case lexer.SEMI:
			p.advance()
			return
		case lexer.RBRACE, lexer.EOF:
			return
		}
		p.advance()
	}
}

func (p *Parser) line() int {
	return p.current().Position.Line
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.current().Type {
	case lexer.LET:
		return p.parseVariableDecl()
	case lexer.FUN:
		return p.parseFunctionDecl()
	case lexer.IDENT:
		return p.parseAssignment()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.BPRINT, lexer.BDELAY, lexer.BCLEAR:
		return p.parseUnaryBuiltin()
	case lexer.BWRITE, lexer.BWRITEBOX, lexer.BWRITELINE:
		return p.parseWriteBuiltin()
	}

	p.addError(fmt.Sprintf("unexpected token %q", p.current().Lexeme), p.current().Position)
	p.synchronize()

	return nil
}

// parseTypeName reads a scalar type, optionally suffixed with a fixed
// array length, and returns its textual form (e.g. "int[3]").
func (p *Parser) parseTypeName() (string, bool) {
	switch p.current().Type {
	case lexer.TYPEBOOL, lexer.TYPEINT, lexer.TYPEFLOAT, lexer.TYPECOLOUR:
	default:
		p.addError(fmt.Sprintf("expected type name, found %q", p.current().Lexeme), p.current().Position)
		return "", false
	}

	name := p.advance().Lexeme

	if p.current().Type == lexer.LBRACKET {
		p.advance()
		length, ok := p.expect(lexer.INT)
		if !ok {
			return name, false
		}
		if _, ok := p.expect(lexer.RBRACKET); !ok {
			return name, false
		}
		name = fmt.Sprintf("%s[%s]", name, length.Lexeme)
	}

	return name, true
}

func (p *Parser) parseVariableDecl() ast.Stmt {
	line := p.line()
	p.advance() // let

	name, ok := p.expect(lexer.IDENT)
	if !ok {
		p.synchronize()
		return nil
	}

	if _, ok := p.expect(lexer.COLON); !ok {
		p.synchronize()
		return nil
	}

	typeName, ok := p.parseTypeName()
	if !ok {
		p.synchronize()
		return nil
	}

	if _, ok := p.expect(lexer.ASSIGN); !ok {
		p.synchronize()
		return nil
	}

	decl := &ast.VariableDecl{
		Identifier: name.Lexeme,
		TypeName:   typeName,
		Line:       line,
	}

	if p.current().Type == lexer.LBRACKET {
		// Array initializer: [e, e, ...]
		p.advance()
		for p.current().Type != lexer.RBRACKET && p.current().Type != lexer.EOF {
			decl.Elements = append(decl.Elements, p.parseExpr())
			if p.current().Type != lexer.COMMA {
				break
			}
			p.advance()
		}
		p.expect(lexer.RBRACKET)
	} else {
		decl.Initializer = p.parseExpr()
	}

	p.expect(lexer.SEMI)

	return decl
}

func (p *Parser) parseFunctionDecl() ast.Stmt {
	line := p.line()
	p.advance() // fun

	name, ok := p.expect(lexer.IDENT)
	if !ok {
		p.synchronize()
		return nil
	}

	if _, ok := p.expect(lexer.LPAREN); !ok {
		p.synchronize()
		return nil
	}

	var params []ast.FormalParam
	for p.current().Type != lexer.RPAREN && p.current().Type != lexer.EOF {
		paramLine := p.line()
		paramName, ok := p.expect(lexer.IDENT)
		if !ok {
			break
		}
		if _, ok := p.expect(lexer.COLON); !ok {
			break
		}
		typeName, ok := p.parseTypeName()
		if !ok {
			break
		}

		params = append(params, ast.FormalParam{
			Identifier: paramName.Lexeme,
			TypeName:   typeName,
			Line:       paramLine,
		})

		if p.current().Type != lexer.COMMA {
			break
		}
		p.advance()
	}
	p.expect(lexer.RPAREN)

	if _, ok := p.expect(lexer.ARROW); !ok {
		p.synchronize()
		return nil
	}

	returnType, ok := p.parseTypeName()
	if !ok {
		p.synchronize()
		return nil
	}

	// The body shares the function's frame with its parameters, so it
	// parses as an unscoped block rather than a fresh lexical scope.
	if _, ok := p.expect(lexer.LBRACE); !ok {
		p.synchronize()
		return nil
	}

	body := &ast.UnscopedBlock{}
	for p.current().Type != lexer.RBRACE && p.current().Type != lexer.EOF {
		if stmt := p.parseStatement(); stmt != nil {
			body.Statements = append(body.Statements, stmt)
		}
	}
	p.expect(lexer.RBRACE)

	return &ast.FunctionDecl{
		Identifier: name.Lexeme,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		Line:       line,
	}
}

func (p *Parser) parseAssignment() ast.Stmt {
	line := p.line()
	name := p.advance()

	var index *ast.Expr
	if p.current().Type == lexer.LBRACKET {
		p.advance()
		index = p.parseExpr()
		p.expect(lexer.RBRACKET)
	}

	if _, ok := p.expect(lexer.ASSIGN); !ok {
		p.synchronize()
		return nil
	}

	expr := p.parseExpr()
	p.expect(lexer.SEMI)

	return &ast.Assignment{
		Identifier: name.Lexeme,
		Index:      index,
		Expression: expr,
		Line:       line,
	}
}

func (p *Parser) parseReturn() ast.Stmt {
	line := p.line()
	p.advance() // return

	expr := p.parseExpr()
	p.expect(lexer.SEMI)

	return &ast.Return{Expression: expr, Line: line}
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.line()
	p.advance() // if

	p.expect(lexer.LPAREN)
	condition := p.parseExpr()
	p.expect(lexer.RPAREN)

	body := p.parseBlock()

	var elseBody ast.Stmt
	if p.current().Type == lexer.ELSE {
		p.advance()
		if p.current().Type == lexer.IF {
			elseBody = p.parseIf()
		} else {
			elseBody = p.parseBlock()
		}
	}

	return &ast.If{Condition: condition, Body: body, Else: elseBody, Line: line}
}

func (p *Parser) parseWhile() ast.Stmt {
	line := p.line()
	p.advance() // while

	p.expect(lexer.LPAREN)
	condition := p.parseExpr()
	p.expect(lexer.RPAREN)

	return &ast.While{Condition: condition, Body: p.parseBlock(), Line: line}
}

func (p *Parser) parseFor() ast.Stmt {
	line := p.line()
	p.advance() // for

	p.expect(lexer.LPAREN)

	var initializer ast.Stmt
	if p.current().Type != lexer.SEMI {
		initializer = p.parseStatement() // consumes its own semicolon
	} else {
		p.advance()
	}

	var condition *ast.Expr
	if p.current().Type != lexer.SEMI {
		condition = p.parseExpr()
	}
	p.expect(lexer.SEMI)

	var increment ast.Stmt
	if p.current().Type != lexer.RPAREN {
		incrLine := p.line()
		name, ok := p.expect(lexer.IDENT)
		if ok {
			var index *ast.Expr
			if p.current().Type == lexer.LBRACKET {
				p.advance()
				index = p.parseExpr()
				p.expect(lexer.RBRACKET)
			}
			p.expect(lexer.ASSIGN)
			increment = &ast.Assignment{
				Identifier: name.Lexeme,
				Index:      index,
				Expression: p.parseExpr(),
				Line:       incrLine,
			}
		}
	}
	p.expect(lexer.RPAREN)

	return &ast.For{
		Initializer: initializer,
		Condition:   condition,
		Increment:   increment,
		Body:        p.parseBlock(),
		Line:        line,
	}
}

func (p *Parser) parseBlock() ast.Stmt {
	p.expect(lexer.LBRACE)

	block := &ast.Block{}
	for p.current().Type != lexer.RBRACE && p.current().Type != lexer.EOF {
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	p.expect(lexer.RBRACE)

	return block
}

func (p *Parser) parseUnaryBuiltin() ast.Stmt {
	line := p.line()
	builtin := p.advance()

	expr := p.parseExpr()
	p.expect(lexer.SEMI)

	switch builtin.Type {
	case lexer.BPRINT:
		return &ast.Print{Expression: expr, Line: line}
	case lexer.BDELAY:
		return &ast.Delay{Expression: expr, Line: line}
	default:
		return &ast.Clear{Expression: expr, Line: line}
	}
}

func (p *Parser) parseWriteBuiltin() ast.Stmt {
	line := p.line()
	builtin := p.advance()

	want := 5
	if builtin.Type == lexer.BWRITE {
		want = 3
	}

	args := make([]*ast.Expr, 0, want)
	for {
		args = append(args, p.parseExpr())
		if p.current().Type != lexer.COMMA {
			break
		}
		p.advance()
	}
	p.expect(lexer.SEMI)

	if len(args) != want {
		p.addError(fmt.Sprintf("%s expects %d arguments, found %d", builtin.Lexeme, want, len(args)), builtin.Position)
		return nil
	}

	switch builtin.Type {
	case lexer.BWRITE:
		return &ast.Write{Args: [3]*ast.Expr{args[0], args[1], args[2]}, Line: line}
	case lexer.BWRITEBOX:
		return &ast.WriteBox{Args: [5]*ast.Expr{args[0], args[1], args[2], args[3], args[4]}, Line: line}
	default:
		return &ast.WriteLine{Args: [5]*ast.Expr{args[0], args[1], args[2], args[3], args[4]}, Line: line}
	}
}

// parseExpr builds a right-leaning factor-operator chain. Semantic
// analysis and code generation both rely on this shape: the analyzer
// types the factor first, the generator emits the right side first.
func (p *Parser) parseExpr() *ast.Expr {
	line := p.line()
	factor := p.parseFactor()

	expr := &ast.Expr{Factor: factor, Line: line}

	if p.current().Type == lexer.AS {
		p.advance()
		castType, ok := p.parseTypeName()
		if !ok {
			return expr
		}
		expr.Operator = "as"
		expr.CastType = castType

		// A binary operator may follow a cast; nest the cast as a
		// subexpression of the outer chain.
		if op, ok := p.binaryOperator(); ok {
			inner := expr
			expr = &ast.Expr{
				Factor:   &ast.Subexpr{Expression: inner, Line: line},
				Operator: op,
				Line:     line,
			}
			expr.Right = p.parseExpr()
		}

		return expr
	}

	if op, ok := p.binaryOperator(); ok {
		expr.Operator = op
		expr.Right = p.parseExpr()
	}

	return expr
}

// binaryOperator consumes and returns the next token if it is a binary
// operator.
func (p *Parser) binaryOperator() (string, bool) {
	switch p.current().Type {
	case lexer.PLUS, lexer.MINUS, lexer.MULT, lexer.DIV, lexer.MOD,
		lexer.EQ, lexer.NE, lexer.LT, lexer.GT, lexer.LE, lexer.GE,
		lexer.ANDAND, lexer.OROR, lexer.AND, lexer.OR:
		return p.advance().Lexeme, true
	}

	return "", false
}

func (p *Parser) parseFactor() ast.Factor {
	line := p.line()

	switch p.current().Type {
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Line: line}

	case lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Line: line}

	case lexer.INT:
		token := p.advance()
		value, err := strconv.ParseInt(token.Lexeme, 10, 64)
		if err != nil {
			p.addError(fmt.Sprintf("malformed integer literal %q", token.Lexeme), token.Position)
		}
		return &ast.IntLit{Value: value, Line: line}

	case lexer.FLOAT:
		token := p.advance()
		value, err := strconv.ParseFloat(token.Lexeme, 64)
		if err != nil {
			p.addError(fmt.Sprintf("malformed float literal %q", token.Lexeme), token.Position)
		}
		return &ast.FloatLit{Value: value, Line: line}

	case lexer.COLOUR:
		return &ast.ColourLit{Value: p.advance().Lexeme, Line: line}

	case lexer.BWIDTH:
		p.advance()
		return &ast.Width{Line: line}

	case lexer.BHEIGHT:
		p.advance()
		return &ast.Height{Line: line}

	case lexer.BRANDOM:
		p.advance()
		return &ast.RandomInt{Expression: p.parseExpr(), Line: line}

	case lexer.BREAD:
		p.advance()
		x := p.parseExpr()
		p.expect(lexer.COMMA)
		y := p.parseExpr()
		return &ast.Read{X: x, Y: y, Line: line}

	case lexer.LPAREN:
		p.advance()
		expr := p.parseExpr()
		p.expect(lexer.RPAREN)
		return &ast.Subexpr{Expression: expr, Line: line}

	case lexer.MINUS, lexer.NOT:
		op := p.advance().Lexeme
		return &ast.Unary{Operator: op, Expression: p.parseExpr(), Line: line}

	case lexer.IDENT:
		name := p.advance()

		switch p.current().Type {
		case lexer.LPAREN:
			p.advance()
			call := &ast.Call{Identifier: name.Lexeme, Line: line}
			for p.current().Type != lexer.RPAREN && p.current().Type != lexer.EOF {
				call.Arguments = append(call.Arguments, p.parseExpr())
				if p.current().Type != lexer.COMMA {
					break
				}
				p.advance()
			}
			p.expect(lexer.RPAREN)
			return call

		case lexer.LBRACKET:
			p.advance()
			index := p.parseExpr()
			p.expect(lexer.RBRACKET)
			return &ast.ArrayAccess{Name: name.Lexeme, Index: index, Line: line}
		}

		return &ast.Identifier{Name: name.Lexeme, Line: line}
	}

	p.addError(fmt.Sprintf("unexpected token %q in expression", p.current().Lexeme), p.current().Position)
	p.advance()

	return &ast.IntLit{Value: 0, Line: line}
}
