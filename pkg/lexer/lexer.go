package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config) *Lexer {
	return &Lexer{source: source, fileIndex: fileIndex, line: 1, column: 1, cfg: cfg}
}

// Tokenize consumes the whole source and returns the token stream,
// terminated by an EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine)
	}

	ch := l.peek()
	if unicode.IsLetter(ch) || ch == '_' {
		l.advance()
		return l.identifierOrKeyword(startPos, startCol, startLine)
	}
	if unicode.IsDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LParen, "", startPos, startCol, startLine)
	case ')':
		return l.makeToken(token.RParen, "", startPos, startCol, startLine)
	case '[':
		return l.makeToken(token.LBracket, "", startPos, startCol, startLine)
	case ']':
		return l.makeToken(token.RBracket, "", startPos, startCol, startLine)
	case ',':
		return l.makeToken(token.Comma, "", startPos, startCol, startLine)
	case ';':
		return l.makeToken(token.Semi, "", startPos, startCol, startLine)
	case '+':
		return l.makeToken(token.Plus, "", startPos, startCol, startLine)
	case '-':
		return l.makeToken(token.Minus, "", startPos, startCol, startLine)
	case '*':
		return l.makeToken(token.Star, "", startPos, startCol, startLine)
	case '/':
		return l.makeToken(token.Slash, "", startPos, startCol, startLine)
	case '=':
		return l.makeToken(token.Eq, "", startPos, startCol, startLine)
	case ':':
		return l.matchThen('=', token.Assign, token.Colon, startPos, startCol, startLine)
	case '<':
		if l.match('=') {
			return l.makeToken(token.Lte, "", startPos, startCol, startLine)
		}
		if l.match('>') {
			return l.makeToken(token.Neq, "", startPos, startCol, startLine)
		}
		return l.makeToken(token.Lt, "", startPos, startCol, startLine)
	case '>':
		return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
	case '.':
		return l.matchThen('.', token.DotDot, token.Dot, startPos, startCol, startLine)
	case '\'':
		return l.stringLiteral(startPos, startCol, startLine)
	}

	tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
	util.Error(tok, "Unexpected character: '%c'", ch)
	return tok
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) matchThen(expected rune, ifMatch, ifNot token.Type, startPos, startCol, startLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(ifMatch, "", startPos, startCol, startLine)
	}
	return l.makeToken(ifNot, "", startPos, startCol, startLine)
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(typ token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: typ, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch := l.peek()
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '{':
			l.braceComment()
		case ch == '(' && l.peekNext() == '*' && l.cfg.IsFeatureEnabled(config.FeatParenComments):
			l.parenComment()
		default:
			return
		}
	}
}

func (l *Lexer) braceComment() {
	start := l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	l.advance() // '{'
	for !l.isAtEnd() {
		if l.advance() == '}' {
			return
		}
	}
	util.Error(start, "Unterminated '{' comment.")
}

func (l *Lexer) parenComment() {
	start := l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	l.advance() // '('
	l.advance() // '*'
	for !l.isAtEnd() {
		if l.advance() == '*' && l.match(')') {
			return
		}
	}
	util.Error(start, "Unterminated '(*' comment.")
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	word := string(l.source[startPos:l.pos])

	lookup := word
	if l.cfg.IsFeatureEnabled(config.FeatCaseFold) {
		lookup = strings.ToLower(word)
	}
	if typ, ok := token.KeywordMap[lookup]; ok {
		return l.makeToken(typ, "", startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, word, startPos, startCol, startLine)
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	// A '.' starts a real literal only when followed by a digit;
	// "1..5" stays an integer followed by a range operator.
	isReal := false
	if l.peek() == '.' && unicode.IsDigit(l.peekNext()) {
		isReal = true
		l.advance()
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}

	text := string(l.source[startPos:l.pos])
	if isReal {
		return l.makeToken(token.RealLit, text, startPos, startCol, startLine)
	}

	tok := l.makeToken(token.IntLit, text, startPos, startCol, startLine)
	if _, err := strconv.Atoi(text); err != nil {
		util.Warn(l.cfg, config.WarnOverflow, tok, "Integer literal '%s' is out of range", text)
	}
	return tok
}

func (l *Lexer) stringLiteral(startPos, startCol, startLine int) token.Token {
	var sb strings.Builder
	for {
		if l.isAtEnd() || l.peek() == '\n' {
			tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
			util.Error(tok, "Unterminated string literal.")
		}
		ch := l.advance()
		if ch == '\'' {
			// A doubled quote is an escaped quote.
			if l.peek() == '\'' {
				l.advance()
				sb.WriteRune('\'')
				continue
			}
			break
		}
		sb.WriteRune(ch)
	}
	return l.makeToken(token.StringLit, sb.String(), startPos, startCol, startLine)
}
