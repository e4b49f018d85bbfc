package lexer

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
)

func tokenize(src string) []token.Token {
	cfg := config.NewConfig()
	return NewLexer([]rune(src), 0, cfg).Tokenize()
}

func types(tokens []token.Token) []token.Type {
	out := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tokens := tokenize("program demo; begin end.")
	be.Equal(t, types(tokens), []token.Type{
		token.Program, token.Ident, token.Semi,
		token.Begin, token.End, token.Dot, token.EOF,
	})
	be.Equal(t, tokens[1].Value, "demo")
}

func TestKeywordCaseFolding(t *testing.T) {
	tokens := tokenize("PROGRAM Begin WHILE")
	be.Equal(t, types(tokens), []token.Type{
		token.Program, token.Begin, token.While, token.EOF,
	})
}

func TestOperators(t *testing.T) {
	tokens := tokenize(":= : <= < <> >= > .. . = + - * /")
	be.Equal(t, types(tokens), []token.Type{
		token.Assign, token.Colon, token.Lte, token.Lt, token.Neq,
		token.Gte, token.Gt, token.DotDot, token.Dot, token.Eq,
		token.Plus, token.Minus, token.Star, token.Slash, token.EOF,
	})
}

func TestNumberLiterals(t *testing.T) {
	tokens := tokenize("42 3.14 0")
	be.Equal(t, types(tokens), []token.Type{
		token.IntLit, token.RealLit, token.IntLit, token.EOF,
	})
	be.Equal(t, tokens[0].Value, "42")
	be.Equal(t, tokens[1].Value, "3.14")
}

// "1..5" is an integer, a range operator, and another integer; the
// dot only starts a real literal when a digit follows it.
func TestRangeIsNotReal(t *testing.T) {
	tokens := tokenize("array[1..5]")
	be.Equal(t, types(tokens), []token.Type{
		token.Array, token.LBracket, token.IntLit, token.DotDot,
		token.IntLit, token.RBracket, token.EOF,
	})
	be.Equal(t, tokens[2].Value, "1")
	be.Equal(t, tokens[4].Value, "5")
}

func TestStringLiteral(t *testing.T) {
	tokens := tokenize("'hello world'")
	be.Equal(t, tokens[0].Type, token.StringLit)
	be.Equal(t, tokens[0].Value, "hello world")
}

func TestStringDoubledQuote(t *testing.T) {
	tokens := tokenize("'it''s'")
	be.Equal(t, tokens[0].Type, token.StringLit)
	be.Equal(t, tokens[0].Value, "it's")
}

func TestComments(t *testing.T) {
	tokens := tokenize("begin { a comment } (* another *) end")
	be.Equal(t, types(tokens), []token.Type{token.Begin, token.End, token.EOF})
}

func TestParenCommentsCanBeDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatParenComments, false)
	tokens := NewLexer([]rune("(*"), 0, cfg).Tokenize()
	// With the feature off this lexes as '(' then '*'.
	be.Equal(t, types(tokens), []token.Type{token.LParen, token.Star, token.EOF})
}

func TestPositions(t *testing.T) {
	tokens := tokenize("a\n  b")
	be.Equal(t, tokens[0].Line, 1)
	be.Equal(t, tokens[0].Column, 1)
	be.Equal(t, tokens[1].Line, 2)
	be.Equal(t, tokens[1].Column, 3)
}
