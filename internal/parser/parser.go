// internal/parser/parser.go
package parser

import (
	"fmt"
	"minijava/internal/errors"
	"minijava/internal/lexer"
	"strings"
)

// Parser is a single-lookahead recursive-descent parser, one method
// per grammar nonterminal. Parsing is whole-or-nothing: the first
// unmatched expectation aborts the pass with a SyntaxError and no
// tree is returned.
type Parser struct {
	tokens      []lexer.Token
	current     int
	file        string
	sourceLines []string // Source lines for error reporting
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
	}
}

func NewParserWithSource(tokens []lexer.Token, source string, file string) *Parser {
	return &Parser{
		tokens:      tokens,
		current:     0,
		file:        file,
		sourceLines: strings.Split(source, "\n"),
	}
}

// Parse consumes the whole token stream and returns the Program node.
// Grammar methods signal failure by panicking with a *errors.Diagnostic;
// the panic is converted to an error return here so callers never see it.
func (p *Parser) Parse() (node *Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(*errors.Diagnostic); ok {
				node, err = nil, d
				return
			}
			panic(r)
		}
	}()
	node = p.program()
	return node, nil
}

// program := 'public class' id '{' 'public static void main'
//            '(' 'String' '[' ']' id ')' '{' cmds '}' '}'
func (p *Parser) program() *Node {
	start := p.peek()
	p.consume(lexer.TokenPublic, "at start of program")
	p.consume(lexer.TokenClass, "after 'public'")
	name := p.consume(lexer.TokenIdent, "as class name")
	p.consume(lexer.TokenLBrace, "after class name")
	p.consume(lexer.TokenPublic, "at start of main declaration")
	p.consume(lexer.TokenStatic, "after 'public'")
	p.consume(lexer.TokenVoid, "after 'static'")
	p.consume(lexer.TokenMain, "after 'void'")
	p.consume(lexer.TokenLParen, "after 'main'")
	p.consume(lexer.TokenStringT, "in main parameter list")
	p.consume(lexer.TokenLBracket, "after 'String'")
	p.consume(lexer.TokenRBracket, "after '['")
	p.consume(lexer.TokenIdent, "as main parameter name")
	p.consume(lexer.TokenRParen, "after main parameter")
	p.consume(lexer.TokenLBrace, "before main body")
	body := p.cmds()
	p.consume(lexer.TokenRBrace, "after main body")
	p.consume(lexer.TokenRBrace, "after class body")
	p.consume(lexer.TokenEOF, "after class declaration")
	return NewNode(NodeProgram, name.Lexeme, start.Line, start.Col, body)
}

// cmds := (varDecl | ifStatement | whileStatement | simpleCmd ';')*
func (p *Parser) cmds() *Node {
	block := NewNode(NodeBlock, "", p.peek().Line, p.peek().Col)
	for {
		switch {
		case p.match(lexer.TokenDouble):
			block.Children = append(block.Children, p.varDecl())
		case p.match(lexer.TokenIf):
			block.Children = append(block.Children, p.ifStatement())
		case p.match(lexer.TokenWhile):
			block.Children = append(block.Children, p.whileStatement())
		case p.check(lexer.TokenSystem):
			block.Children = append(block.Children, p.printStatement())
		case p.check(lexer.TokenIdent):
			block.Children = append(block.Children, p.assignStatement())
		default:
			return block
		}
	}
}

// varDecl := 'double' id (',' id)* ';'
func (p *Parser) varDecl() *Node {
	kw := p.previous()
	decl := NewNode(NodeVarDecl, kw.Lexeme, kw.Line, kw.Col)
	name := p.consume(lexer.TokenIdent, "after 'double'")
	decl.Children = append(decl.Children, identNode(name))
	for p.match(lexer.TokenComma) {
		name = p.consume(lexer.TokenIdent, "after ','")
		decl.Children = append(decl.Children, identNode(name))
	}
	p.consume(lexer.TokenSemicolon, "after variable declaration")
	return decl
}

// ifStatement := 'if' '(' condition ')' '{' cmds '}' ('else' '{' cmds '}')?
func (p *Parser) ifStatement() *Node {
	kw := p.previous()
	p.consume(lexer.TokenLParen, "after 'if'")
	cond := p.condition()
	p.consume(lexer.TokenRParen, "after condition")
	p.consume(lexer.TokenLBrace, "before if body")
	then := p.cmds()
	p.consume(lexer.TokenRBrace, "after if body")

	// An absent else is still a Block child, so walkers traverse
	// unconditionally.
	elseBlock := NewNode(NodeBlock, "", kw.Line, kw.Col)
	if p.match(lexer.TokenElse) {
		p.consume(lexer.TokenLBrace, "before else body")
		elseBlock = p.cmds()
		p.consume(lexer.TokenRBrace, "after else body")
	}
	return NewNode(NodeIf, "", kw.Line, kw.Col, cond, then, elseBlock)
}

// whileStatement := 'while' '(' condition ')' '{' cmds '}'
func (p *Parser) whileStatement() *Node {
	kw := p.previous()
	p.consume(lexer.TokenLParen, "after 'while'")
	cond := p.condition()
	p.consume(lexer.TokenRParen, "after condition")
	p.consume(lexer.TokenLBrace, "before while body")
	body := p.cmds()
	p.consume(lexer.TokenRBrace, "after while body")
	return NewNode(NodeWhile, "", kw.Line, kw.Col, cond, body)
}

// printStatement := 'System' '.' 'out' '.' 'println' '(' expression ')' ';'
func (p *Parser) printStatement() *Node {
	kw := p.advance()
	p.consume(lexer.TokenDot, "after 'System'")
	p.consume(lexer.TokenOut, "after 'System.'")
	p.consume(lexer.TokenDot, "after 'out'")
	p.consume(lexer.TokenPrintln, "after 'System.out.'")
	p.consume(lexer.TokenLParen, "after 'println'")
	expr := p.expression()
	p.consume(lexer.TokenRParen, "after println argument")
	p.consume(lexer.TokenSemicolon, "after statement")
	return NewNode(NodePrint, "", kw.Line, kw.Col, expr)
}

// assignStatement := id '=' (expression | 'lerDouble' '(' ')') ';'
func (p *Parser) assignStatement() *Node {
	name := p.advance()
	target := identNode(name)
	p.consume(lexer.TokenEqual, "after assignment target")

	var value *Node
	if p.match(lexer.TokenLerDouble) {
		call := p.previous()
		p.consume(lexer.TokenLParen, "after 'lerDouble'")
		p.consume(lexer.TokenRParen, "after 'lerDouble('")
		value = NewNode(NodeReadCall, "", call.Line, call.Col)
	} else {
		value = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "after statement")
	return NewNode(NodeAssign, "", name.Line, name.Col, target, value)
}

// condition := expression relation expression
func (p *Parser) condition() *Node {
	left := p.expression()
	rel := p.relation()
	right := p.expression()
	return NewNode(NodeCondition, "", left.Line, left.Col, left, rel, right)
}

var relationTokens = []lexer.TokenType{
	lexer.TokenDoubleEqual,
	lexer.TokenNotEqual,
	lexer.TokenGE,
	lexer.TokenLE,
	lexer.TokenGT,
	lexer.TokenLT,
}

func (p *Parser) relation() *Node {
	for _, t := range relationTokens {
		if p.match(t) {
			op := p.previous()
			return NewNode(NodeRelation, op.Lexeme, op.Line, op.Col)
		}
	}
	panic(p.errorExpected("a relational operator", "in condition"))
}

// expression := term (('+'|'-') term)*
func (p *Parser) expression() *Node {
	first := p.term()
	expr := NewNode(NodeExpr, "", first.Line, first.Col, first)
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := p.advance()
		expr.Children = append(expr.Children,
			NewNode(NodeAddOp, op.Lexeme, op.Line, op.Col), p.term())
	}
	return expr
}

// term := '-'? factor (('*'|'/') factor)*
func (p *Parser) term() *Node {
	pos := p.peek()
	unary := NewNode(NodeUnaryOp, "", pos.Line, pos.Col)
	if p.match(lexer.TokenMinus) {
		unary.Value = "-"
	}
	term := NewNode(NodeTerm, "", pos.Line, pos.Col, unary, p.factor())
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) {
		op := p.advance()
		term.Children = append(term.Children,
			NewNode(NodeMulOp, op.Lexeme, op.Line, op.Col), p.factor())
	}
	return term
}

// factor := id | number | '(' expression ')'
func (p *Parser) factor() *Node {
	tok := p.peek()
	switch {
	case p.match(lexer.TokenIdent):
		return NewNode(NodeFactor, "", tok.Line, tok.Col, identNode(tok))
	case p.match(lexer.TokenNumber):
		return NewNode(NodeFactor, "", tok.Line, tok.Col,
			NewNode(NodeNumber, tok.Lexeme, tok.Line, tok.Col))
	case p.match(lexer.TokenLParen):
		expr := p.expression()
		p.consume(lexer.TokenRParen, "after expression")
		return NewNode(NodeFactor, "", tok.Line, tok.Col, expr)
	}
	panic(p.errorExpected("an identifier, a number or '('", "in expression"))
}

func identNode(tok lexer.Token) *Node {
	return NewNode(NodeIdent, tok.Lexeme, tok.Line, tok.Col)
}

// ----- token plumbing -----

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, context string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	err := p.errorExpected(describe(t), context)
	if h := hintFor(t); h != "" {
		err = err.WithHint(h)
	}
	panic(err)
}

func (p *Parser) check(t lexer.TokenType) bool {
	if t == lexer.TokenEOF {
		return p.isAtEnd()
	}
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

// ----- diagnostics -----

var tokenNames = map[lexer.TokenType]string{
	lexer.TokenPublic:    "'public'",
	lexer.TokenClass:     "'class'",
	lexer.TokenStatic:    "'static'",
	lexer.TokenVoid:      "'void'",
	lexer.TokenMain:      "'main'",
	lexer.TokenStringT:   "'String'",
	lexer.TokenDouble:    "'double'",
	lexer.TokenIf:        "'if'",
	lexer.TokenElse:      "'else'",
	lexer.TokenWhile:     "'while'",
	lexer.TokenSystem:    "'System'",
	lexer.TokenOut:       "'out'",
	lexer.TokenPrintln:   "'println'",
	lexer.TokenLerDouble: "'lerDouble'",
	lexer.TokenIdent:     "an identifier",
	lexer.TokenNumber:    "a number",
	lexer.TokenEOF:       "end of input",
}

// describe names a token type for diagnostics. Symbol types read as
// themselves.
func describe(t lexer.TokenType) string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("'%s'", t)
}

func describeToken(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

func hintFor(t lexer.TokenType) string {
	switch t {
	case lexer.TokenSemicolon, lexer.TokenComma, lexer.TokenDot, lexer.TokenEqual,
		lexer.TokenLParen, lexer.TokenRParen, lexer.TokenLBrace, lexer.TokenRBrace,
		lexer.TokenLBracket, lexer.TokenRBracket:
		return fmt.Sprintf("missing '%s'", t)
	case lexer.TokenIdent:
		return "expected a name here"
	}
	return ""
}

func (p *Parser) errorExpected(expected, context string) *errors.Diagnostic {
	tok := p.peek()
	err := errors.NewSyntaxError(
		fmt.Sprintf("expected %s %s, found %s", expected, context, describeToken(tok)),
		p.file,
		tok.Line,
		tok.Col,
	)
	// Add source line if available
	if p.sourceLines != nil && tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		err = err.WithSource(p.sourceLines[tok.Line-1])
	}
	return err
}
