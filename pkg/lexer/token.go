package lexer

type TokenType string

const (
	EOF     TokenType = "EOF"
	ILLEGAL TokenType = "ILLEGAL"

	IDENT  TokenType = "IDENT"
	INT    TokenType = "INT"
	FLOAT  TokenType = "FLOAT"
	COLOUR TokenType = "COLOUR"

	// Keywords
	LET    TokenType = "let"
	FUN    TokenType = "fun"
	RETURN TokenType = "return"
	IF     TokenType = "if"
	ELSE   TokenType = "else"
	WHILE  TokenType = "while"
	FOR    TokenType = "for"
	TRUE   TokenType = "true"
	FALSE  TokenType = "false"
	AS     TokenType = "as"
	NOT    TokenType = "not"
	AND    TokenType = "and"
	OR     TokenType = "or"

	// Type names
	TYPEBOOL   TokenType = "bool"
	TYPEINT    TokenType = "int"
	TYPEFLOAT  TokenType = "float"
	TYPECOLOUR TokenType = "colour"

	// Builtins
	BPRINT     TokenType = "__print"
	BDELAY     TokenType = "__delay"
	BCLEAR     TokenType = "__clear"
	BWRITE     TokenType = "__write"
	BWRITEBOX  TokenType = "__write_box"
	BWRITELINE TokenType = "__write_line"
	BREAD      TokenType = "__read"
	BWIDTH     TokenType = "__width"
	BHEIGHT    TokenType = "__height"
	BRANDOM    TokenType = "__random_int"

	// Operators and punctuation
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	MULT     TokenType = "*"
	DIV      TokenType = "/"
	MOD      TokenType = "%"
	EQ       TokenType = "=="
	NE       TokenType = "!="
	LT       TokenType = "<"
	GT       TokenType = ">"
	LE       TokenType = "<="
	GE       TokenType = ">="
	ANDAND   TokenType = "&&"
	OROR     TokenType = "||"
	ARROW    TokenType = "->"
	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	COMMA    TokenType = ","
	COLON    TokenType = ":"
	SEMI     TokenType = ";"
)

type Token struct {
	Type     TokenType
	Lexeme   string
	Position Position
}

var keywords = map[string]TokenType{
	"let":          LET,
	"fun":          FUN,
	"return":       RETURN,
	"if":           IF,
	"else":         ELSE,
	"while":        WHILE,
	"for":          FOR,
	"true":         TRUE,
	"false":        FALSE,
	"as":           AS,
	"not":          NOT,
	"and":          AND,
	"or":           OR,
	"bool":         TYPEBOOL,
	"int":          TYPEINT,
	"float":        TYPEFLOAT,
	"colour":       TYPECOLOUR,
	"__print":      BPRINT,
	"__delay":      BDELAY,
	"__clear":      BCLEAR,
	"__write":      BWRITE,
	"__write_box":  BWRITEBOX,
	"__write_line": BWRITELINE,
	"__read":       BREAD,
	"__width":      BWIDTH,
	"__height":     BHEIGHT,
	"__random_int": BRANDOM,
}

// LookupIdent maps an identifier lexeme to its keyword token type, if any
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}

	return IDENT
}
