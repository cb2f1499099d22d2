package formula

import "strconv"

type TokenKind int

const (
	NumberToken TokenKind = iota
	StringToken
	BooleanToken
	OperatorToken
	FunctionToken
	ReferenceToken
	RangeToken
	ParenOpenToken
	ParenCloseToken
	SeparatorToken
)

var tokenKindNames = map[TokenKind]string{
	NumberToken:     "Number",
	StringToken:     "String",
	BooleanToken:    "Boolean",
	OperatorToken:   "Operator",
	FunctionToken:   "Function",
	ReferenceToken:  "Reference",
	RangeToken:      "Range",
	ParenOpenToken:  "ParenOpen",
	ParenCloseToken: "ParenClose",
	SeparatorToken:  "Separator",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is a lexeme of a formula. Pos is the byte offset of its first
// character in the tokenized input.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

func (t Token) end() int {
	return t.Pos + len(t.Text)
}
