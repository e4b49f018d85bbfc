package token

type Type int

const (
	EOF Type = iota
	Ident
	IntLit
	RealLit
	StringLit

	// Keywords
	Program
	Var
	Integer
	Real
	Boolean
	Array
	Of
	Function
	Procedure
	Begin
	End
	If
	Then
	Else
	While
	Do
	Div
	And
	Or
	Not
	Return
	True
	False

	// Punctuation and operators
	Plus
	Minus
	Star
	Slash
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	Assign
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Semi
	Colon
	Dot
	DotDot
)

// KeywordMap holds the lower-cased spelling of every reserved word.
// The lexer folds candidate identifiers before consulting it.
var KeywordMap = map[string]Type{
	"program":   Program,
	"var":       Var,
	"integer":   Integer,
	"real":      Real,
	"boolean":   Boolean,
	"array":     Array,
	"of":        Of,
	"function":  Function,
	"procedure": Procedure,
	"begin":     Begin,
	"end":       End,
	"if":        If,
	"then":      Then,
	"else":      Else,
	"while":     While,
	"do":        Do,
	"div":       Div,
	"and":       And,
	"or":        Or,
	"not":       Not,
	"return":    Return,
	"true":      True,
	"false":     False,
}

// TypeStrings maps token types back to their spelling, for diagnostics.
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for typ, str := range map[Type]string{
		Plus: "+", Minus: "-", Star: "*", Slash: "/",
		Eq: "=", Neq: "<>", Lt: "<", Lte: "<=", Gt: ">", Gte: ">=",
		Assign: ":=", LParen: "(", RParen: ")", LBracket: "[", RBracket: "]",
		Comma: ",", Semi: ";", Colon: ":", Dot: ".", DotDot: "..",
	} {
		TypeStrings[typ] = str
	}
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
