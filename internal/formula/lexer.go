package formula

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/formula-processor/internal/types"
)

type lexer struct {
	source string
	index  int
}

func newLexer(source string) *lexer {
	return &lexer{source: source}
}

// Tokenize splits a formula (without its leading "=") into tokens.
func Tokenize(input string) ([]Token, error) {
	lex := newLexer(input)

	var tokens []Token
	for {
		tok, err := lex.consume()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		} else if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) peekByte(offset int) (byte, bool) {
	if i := l.index + offset; i < len(l.source) {
		return l.source[i], true
	}
	return 0, false
}

func (l *lexer) emit(kind TokenKind, begins int) Token {
	return Token{Kind: kind, Text: l.source[begins:l.index], Pos: begins}
}

func (l *lexer) consume() (Token, error) {
	for l.index != len(l.source) {
		begins := l.index
		switch c := l.source[l.index]; c {
		case ' ', '\t', '\n', '\r':
			l.index++ // just skip white spaces
		case '"':
			return l.consumeString()
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return l.consumeNumber()
		case '.':
			if next, ok := l.peekByte(1); ok && isDigit(next) {
				return l.consumeNumber()
			}
			return Token{}, l.invalidCharacterError()
		case '+', '-', '*', '/', '^', '=':
			l.index++
			return l.emit(OperatorToken, begins), nil
		case '<':
			l.index++
			if next, ok := l.peekByte(0); ok && (next == '=' || next == '>') {
				l.index++
			}
			return l.emit(OperatorToken, begins), nil
		case '>':
			l.index++
			if next, ok := l.peekByte(0); ok && next == '=' {
				l.index++
			}
			return l.emit(OperatorToken, begins), nil
		case '(':
			l.index++
			return l.emit(ParenOpenToken, begins), nil
		case ')':
			l.index++
			return l.emit(ParenCloseToken, begins), nil
		case ',', ';':
			l.index++
			return l.emit(SeparatorToken, begins), nil
		default:
			if isWordStart(c) {
				return l.consumeWord()
			}
			return Token{}, l.invalidCharacterError()
		}
	}
	return Token{}, io.EOF
}

func (l *lexer) consumeString() (Token, error) {
	begins := l.index
	l.index++ // opening quote
	for l.index != len(l.source) {
		if l.source[l.index] != '"' {
			l.index++
			continue
		}

		// "" inside a string is an escaped quote
		if next, ok := l.peekByte(1); ok && next == '"' {
			l.index += 2
			continue
		}

		l.index++
		return l.emit(StringToken, begins), nil
	}
	return Token{}, types.NewSyntaxError(begins, "unterminated string literal")
}

func (l *lexer) consumeNumber() (Token, error) {
	begins := l.index
	l.skipDigits()
	if c, ok := l.peekByte(0); ok && c == '.' {
		l.index++
		l.skipDigits()
	}
	if c, ok := l.peekByte(0); ok && (c == 'e' || c == 'E') {
		l.index++
		if c, ok := l.peekByte(0); ok && (c == '+' || c == '-') {
			l.index++
		}
		if c, ok := l.peekByte(0); !ok || !isDigit(c) {
			return Token{}, types.NewSyntaxError(begins, "malformed number %q", l.source[begins:l.index])
		}
		l.skipDigits()
	}
	if c, ok := l.peekByte(0); ok && (c == '.' || isWordStart(c)) {
		return Token{}, l.invalidCharacterError()
	}
	return l.emit(NumberToken, begins), nil
}

func (l *lexer) skipDigits() {
	for l.index != len(l.source) && isDigit(l.source[l.index]) {
		l.index++
	}
}

func (l *lexer) skipWord() {
	for l.index != len(l.source) && isWordPart(l.source[l.index]) {
		l.index++
	}
}

func (l *lexer) consumeWord() (Token, error) {
	begins := l.index
	l.skipWord()
	word := l.source[begins:l.index]

	if c, ok := l.peekByte(0); ok && c == '(' {
		if !isIdentifier(word) {
			return Token{}, types.NewSyntaxError(begins, "invalid function name %q", word)
		}
		return l.emit(FunctionToken, begins), nil
	}

	if _, _, ok := parseReference(word); ok {
		if c, ok := l.peekByte(0); ok && c == ':' {
			l.index++
			rangeEndBegins := l.index
			l.skipWord()
			if _, _, ok := parseReference(l.source[rangeEndBegins:l.index]); !ok {
				return Token{}, types.NewSyntaxError(rangeEndBegins, "invalid range end %q", l.source[rangeEndBegins:l.index])
			}
			return l.emit(RangeToken, begins), nil
		}
		return l.emit(ReferenceToken, begins), nil
	}

	switch strings.ToUpper(word) {
	case "TRUE", "FALSE":
		return l.emit(BooleanToken, begins), nil
	}
	return Token{}, types.NewSyntaxError(begins, "unknown identifier %q", word)
}

func (l *lexer) invalidCharacterError() error {
	r, _ := utf8.DecodeRuneInString(l.source[l.index:])
	return types.NewSyntaxError(l.index, "invalid character %q", string(r))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isWordStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '$'
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c) || c == '.'
}

func isIdentifier(word string) bool {
	if word == "" || !(isLetter(word[0]) || word[0] == '_') {
		return false
	}
	return !strings.ContainsRune(word, '$')
}
