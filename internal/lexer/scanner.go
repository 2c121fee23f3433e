package lexer

import (
	"fmt"
	"minijava/internal/errors"
	"strings"
	"unicode"
)

type TokenType string

const (
	// Keywords
	TokenPublic    TokenType = "PUBLIC"
	TokenClass     TokenType = "CLASS"
	TokenStatic    TokenType = "STATIC"
	TokenVoid      TokenType = "VOID"
	TokenMain      TokenType = "MAIN"
	TokenStringT   TokenType = "STRING"
	TokenDouble    TokenType = "DOUBLE"
	TokenIf        TokenType = "IF"
	TokenElse      TokenType = "ELSE"
	TokenWhile     TokenType = "WHILE"
	TokenSystem    TokenType = "SYSTEM"
	TokenOut       TokenType = "OUT"
	TokenPrintln   TokenType = "PRINTLN"
	TokenLerDouble TokenType = "LERDOUBLE"

	// Literals
	TokenIdent  TokenType = "IDENT"
	TokenNumber TokenType = "NUMBER"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenLBracket    TokenType = "["
	TokenRBracket    TokenType = "]"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenEqual       TokenType = "="
	TokenDoubleEqual TokenType = "=="
	TokenNotEqual    TokenType = "!="
	TokenLT          TokenType = "<"
	TokenGT          TokenType = ">"
	TokenLE          TokenType = "<="
	TokenGE          TokenType = ">="
	TokenComma       TokenType = ","
	TokenDot         TokenType = "."
	TokenSemicolon   TokenType = ";"
	TokenEOF         TokenType = "EOF"
)

type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}

type Scanner struct {
	source  string
	file    string
	lines   []string
	tokens  []Token
	start   int
	current int
	line    int
	col     int
	// position of the token being scanned
	startLine int
	startCol  int
}

func NewScanner(source, file string) *Scanner {
	return &Scanner{
		source: source,
		file:   file,
		lines:  strings.Split(source, "\n"),
		line:   1,
		col:    1,
	}
}

// ScanTokens tokenizes the whole source. The returned stream always
// ends with exactly one EOF token. The first unrecognized character
// aborts the scan; no partial stream is returned.
func (s *Scanner) ScanTokens() ([]Token, error) {
	for !s.isAtEnd() {
		s.sanitize()
		if s.isAtEnd() { // Prevent scanToken from running at EOF
			break
		}
		s.start = s.current
		s.startLine = s.line
		s.startCol = s.col
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, Token{Type: TokenEOF, Lexeme: "", Line: s.line, Col: s.col})
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLParen)
	case ')':
		s.addToken(TokenRParen)
	case '{':
		s.addToken(TokenLBrace)
	case '}':
		s.addToken(TokenRBrace)
	case '[':
		s.addToken(TokenLBracket)
	case ']':
		s.addToken(TokenRBracket)
	case '+':
		s.addToken(TokenPlus)
	case '-':
		s.addToken(TokenMinus)
	case '*':
		s.addToken(TokenStar)
	case '/':
		if s.match('/') {
			// Skip to end of line (ignore comments)
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(TokenSlash)
		}
	case '=':
		if s.match('=') {
			s.addToken(TokenDoubleEqual)
		} else {
			s.addToken(TokenEqual)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			// '!' only exists as part of '!='
			return s.errorf("unexpected character '!'")
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLE)
		} else {
			s.addToken(TokenLT)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGE)
		} else {
			s.addToken(TokenGT)
		}
	case ',':
		s.addToken(TokenComma)
	case '.':
		s.addToken(TokenDot)
	case ';':
		s.addToken(TokenSemicolon)
	default:
		if isDigit(c) {
			s.number()
		} else if isAlpha(c) {
			s.identifier()
		} else {
			return s.errorf("unexpected character %q", c)
		}
	}
	return nil
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	s.col++
	return true
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	switch text {
	case "public":
		s.addToken(TokenPublic)
	case "class":
		s.addToken(TokenClass)
	case "static":
		s.addToken(TokenStatic)
	case "void":
		s.addToken(TokenVoid)
	case "main":
		s.addToken(TokenMain)
	case "String":
		s.addToken(TokenStringT)
	case "double":
		s.addToken(TokenDouble)
	case "if":
		s.addToken(TokenIf)
	case "else":
		s.addToken(TokenElse)
	case "while":
		s.addToken(TokenWhile)
	case "System":
		s.addToken(TokenSystem)
	case "out":
		s.addToken(TokenOut)
	case "println":
		s.addToken(TokenPrintln)
	case "lerDouble":
		s.addToken(TokenLerDouble)
	default:
		s.addToken(TokenIdent)
	}
}

// number scans an integer or real literal. A trailing dot is legal:
// "10." scans as one NUMBER token.
func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	s.addToken(TokenNumber)
}

func (s *Scanner) addToken(t TokenType) {
	text := s.source[s.start:s.current]
	s.tokens = append(s.tokens, Token{Type: t, Lexeme: text, Line: s.startLine, Col: s.startCol})
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) sanitize() {
	for !s.isAtEnd() && unicode.IsSpace(rune(s.peek())) {
		s.advance()
	}
}

func (s *Scanner) errorf(format string, args ...interface{}) error {
	err := errors.NewLexicalError(fmt.Sprintf(format, args...), s.file, s.startLine, s.startCol)
	if s.startLine-1 < len(s.lines) {
		err = err.WithSource(s.lines[s.startLine-1])
	}
	return err
}

func isAlpha(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || unicode.IsDigit(rune(c))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
