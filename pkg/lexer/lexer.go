package lexer

import "fmt"

// Lexer scans source text into tokens, tracking line and column positions.
type Lexer struct {
	source string
	offset int
	line   int
	column int
	errors []string
}

// NewLexer creates a new Lexer instance
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		offset: 0,
		line:   0,
		column: 0,
	}
}

// Errors returns the lexical errors encountered so far
func (l *Lexer) Errors() []string {
	return l.errors
}

// Tokens scans the whole source and returns the token stream,
// terminated by an EOF token.
func (l *Lexer) Tokens() []Token {
	tokens := make([]Token, 0)

	for {
		token := l.Next()
		tokens = append(tokens, token)

		if token.Type == EOF {
			break
		}
	}

	return tokens
}

// Next scans and returns the next token
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	pos := NewPosition(l.line, l.column, l.offset)

	if l.offset >= len(l.source) {
		return Token{Type: EOF, Lexeme: "", Position: pos}
	}

	ch := l.source[l.offset]

	switch {
	case isLetter(ch) || ch == '_':
		lexeme := l.scanIdentifier()
		return Token{Type: LookupIdent(lexeme), Lexeme: lexeme, Position: pos}

	case isDigit(ch):
		lexeme, isFloat := l.scanNumber()
		if isFloat {
			return Token{Type: FLOAT, Lexeme: lexeme, Position: pos}
		}
		return Token{Type: INT, Lexeme: lexeme, Position: pos}

	case ch == '#':
		return l.scanColour(pos)
	}

	// Operators and punctuation
	two := ""
	if l.offset+1 < len(l.source) {
		two = l.source[l.offset : l.offset+2]
	}

	switch two {
	case "==", "!=", "<=", ">=", "&&", "||", "->":
		l.advance(2)
		return Token{Type: TokenType(two), Lexeme: two, Position: pos}
	}

	switch ch {
	case '=', '+', '-', '*', '/', '%', '<', '>', '(', ')', '{', '}', '[', ']', ',', ':', ';':
		l.advance(1)
		lexeme := string(ch)
		return Token{Type: TokenType(lexeme), Lexeme: lexeme, Position: pos}
	}

	l.addError(fmt.Sprintf("unexpected character %q", string(ch)), pos)
	l.advance(1)

	return Token{Type: ILLEGAL, Lexeme: string(ch), Position: pos}
}

func (l *Lexer) addError(message string, pos Position) {
	l.errors = append(l.errors, fmt.Sprintf("%s at %s", message, pos))
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.offset < len(l.source); i++ {
		if l.source[l.offset] == '\n' {
			l.line++
			l.column = 0
		} else {
			l.column++
		}
		l.offset++
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.offset < len(l.source) {
		ch := l.source[l.offset]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance(1)
			continue
		}

		// Line comments
		if ch == '/' && l.offset+1 < len(l.source) && l.source[l.offset+1] == '/' {
			for l.offset < len(l.source) && l.source[l.offset] != '\n' {
				l.advance(1)
			}
			continue
		}

		break
	}
}

func (l *Lexer) scanIdentifier() string {
	start := l.offset
	for l.offset < len(l.source) {
		ch := l.source[l.offset]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' {
			break
		}
		l.advance(1)
	}

	return l.source[start:l.offset]
}

func (l *Lexer) scanNumber() (string, bool) {
	start := l.offset
	isFloat := false

	for l.offset < len(l.source) && isDigit(l.source[l.offset]) {
		l.advance(1)
	}

	if l.offset+1 < len(l.source) && l.source[l.offset] == '.' && isDigit(l.source[l.offset+1]) {
		isFloat = true
		l.advance(1)
		for l.offset < len(l.source) && isDigit(l.source[l.offset]) {
			l.advance(1)
		}
	}

	return l.source[start:l.offset], isFloat
}

// scanColour reads a #RRGGBB literal
func (l *Lexer) scanColour(pos Position) Token {
	start := l.offset
	l.advance(1)

	digits := 0
	for l.offset < len(l.source) && isHexDigit(l.source[l.offset]) && digits < 6 {
		l.advance(1)
		digits++
	}

	lexeme := l.source[start:l.offset]
	if digits != 6 {
		l.addError(fmt.Sprintf("malformed colour literal %q, want #RRGGBB", lexeme), pos)
		return Token{Type: ILLEGAL, Lexeme: lexeme, Position: pos}
	}

	return Token{Type: COLOUR, Lexeme: lexeme, Position: pos}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
