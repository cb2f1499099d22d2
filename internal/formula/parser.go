package formula

import (
	"errors"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/formula-processor/internal/types"
)

var infixOperatorBindingPowerMap = map[Operator]uint8{
	EqualOperator:        1,
	NotEqualOperator:     1,
	LessOperator:         1,
	LessEqualOperator:    1,
	GreaterOperator:      1,
	GreaterEqualOperator: 1,
	AddOperator:          2,
	SubtractOperator:     2,
	MultiplyOperator:     3,
	DivideOperator:       3,
	PowerOperator:        4,
}

var rightAssociativeOperatorSet = map[Operator]bool{
	PowerOperator: true,
}

var prefixOperatorBindingPowerMap = map[Operator]uint8{
	AddOperator:      5,
	SubtractOperator: 5,
}

const lowestBindingPower uint8 = 1

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("FORMULA_PROCESSOR_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

type parser struct {
	tokens []Token
	index  int
	debug  bool
}

// Parse tokenizes and parses a formula. A single leading "=" is optional.
// Error positions are offsets into source.
func Parse(source string) (Node, error) {
	tokens, err := tokenizeFormula(source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

func ParseWithDebugOutput(source string) (Node, error) {
	tokens, err := tokenizeFormula(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, debug: true}
	return p.parse()
}

func ParseTokens(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens, debug: parserDebugLog}
	return p.parse()
}

// IsFormula reports whether s is a formula rather than a plain text value.
func IsFormula(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "=")
}

func tokenizeFormula(source string) ([]Token, error) {
	body := strings.TrimPrefix(strings.TrimLeft(source, " \t\r\n"), "=")
	offset := len(source) - len(body)

	tokens, err := Tokenize(body)
	if err != nil {
		var e *types.Error
		if errors.As(err, &e) && e.Position != types.NoPosition {
			e.Position += offset
		}
		return nil, err
	}
	for i := range tokens {
		tokens[i].Pos += offset
	}
	return tokens, nil
}

func (p *parser) parse() (Node, error) {
	if len(p.tokens) == 0 {
		return nil, types.NewSyntaxError(0, "empty formula is not allowed")
	}

	node, err := p.parseExpression(lowestBindingPower)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		if p.debug {
			log.Println("not consumed token: ", tok.Text)
		}
		if tok.Kind == ParenCloseToken {
			return nil, types.NewSyntaxError(tok.Pos, "unbalanced parenthesis")
		}
		return nil, p.createUnexpectedTokenError(tok)
	}

	if p.debug {
		pp.Println(p.tokens)
		pp.Println(node)
		log.Println(Render(node))
	}
	return node, nil
}

func (p *parser) peek() (Token, bool) {
	if p.index < len(p.tokens) {
		return p.tokens[p.index], true
	}
	return Token{}, false
}

func (p *parser) consume() (Token, error) {
	tok, ok := p.peek()
	if !ok {
		return Token{}, io.EOF
	}
	p.index++
	return tok, nil
}

func (p *parser) parseExpression(minBP uint8) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != OperatorToken {
			return left, nil
		}

		op := Operator(tok.Text)
		bp, isInfixOP := infixOperatorBindingPowerMap[op]
		if !isInfixOP {
			return nil, p.createUnexpectedTokenError(tok)
		}
		if bp < minBP {
			return left, nil
		}
		p.index++

		nextMinBP := bp + 1
		if rightAssociativeOperatorSet[op] {
			nextMinBP = bp
		}
		if p.debug {
			log.Println("OP", minBP, op, Render(left))
		}

		right, err := p.parseExpression(nextMinBP)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Operator: op, Left: left, Right: right}
	}
}

func (p *parser) parsePrefix() (Node, error) {
	tok, err := p.consume()
	if errors.Is(err, io.EOF) {
		return nil, p.createUnexpectedEndError()
	}
	if p.debug {
		log.Println("prefix token: ", tok.Kind, tok.Text)
	}

	switch tok.Kind {
	case NumberToken:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, types.NewSyntaxError(tok.Pos, "invalid number %s: %v", tok.Text, err)
		}
		return &Literal{Value: v}, nil

	case StringToken:
		return &Literal{Value: unquoteString(tok.Text)}, nil

	case BooleanToken:
		return &Literal{Value: strings.EqualFold(tok.Text, "TRUE")}, nil

	case ReferenceToken:
		column, row, ok := parseReference(tok.Text)
		if !ok {
			return nil, types.NewSyntaxError(tok.Pos, "invalid reference %s", tok.Text)
		}
		return &Reference{Column: column, Row: row}, nil

	case RangeToken:
		begins, ends, _ := strings.Cut(tok.Text, ":")
		startColumn, startRow, ok := parseReference(begins)
		if !ok {
			return nil, types.NewSyntaxError(tok.Pos, "invalid range %s", tok.Text)
		}
		endColumn, endRow, ok := parseReference(ends)
		if !ok {
			return nil, types.NewSyntaxError(tok.Pos, "invalid range %s", tok.Text)
		}
		return newRange(startColumn, startRow, endColumn, endRow), nil

	case ParenOpenToken:
		node, err := p.parseExpression(lowestBindingPower)
		if err != nil {
			return nil, err
		}
		if err := p.expectParenClose(tok); err != nil {
			return nil, err
		}
		return node, nil

	case FunctionToken:
		return p.parseCall(tok)

	case OperatorToken:
		op := Operator(tok.Text)
		bp, isPrefixOP := prefixOperatorBindingPowerMap[op]
		if !isPrefixOP {
			return nil, p.createUnexpectedTokenError(tok)
		}
		operand, err := p.parseExpression(bp)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Operator: op, Operand: operand}, nil

	default:
		return nil, p.createUnexpectedTokenError(tok)
	}
}

func (p *parser) parseCall(nameTok Token) (Node, error) {
	openTok, err := p.consume()
	if err != nil || openTok.Kind != ParenOpenToken {
		return nil, types.NewSyntaxError(nameTok.Pos, "function %s must be followed by (", nameTok.Text)
	}

	call := &Call{Name: strings.ToUpper(nameTok.Text)}
	if tok, ok := p.peek(); ok && tok.Kind == ParenCloseToken {
		p.index++
		return call, nil
	}

	for {
		arg, err := p.parseExpression(lowestBindingPower)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		tok, err := p.consume()
		if errors.Is(err, io.EOF) {
			return nil, types.NewSyntaxError(openTok.Pos, "unbalanced parenthesis")
		}
		switch tok.Kind {
		case SeparatorToken:
			continue
		case ParenCloseToken:
			return call, nil
		default:
			return nil, p.createUnexpectedTokenError(tok)
		}
	}
}

func (p *parser) expectParenClose(openTok Token) error {
	tok, err := p.consume()
	if errors.Is(err, io.EOF) {
		return types.NewSyntaxError(openTok.Pos, "unbalanced parenthesis")
	}
	if tok.Kind != ParenCloseToken {
		return p.createUnexpectedTokenError(tok)
	}
	return nil
}

func (p *parser) createUnexpectedTokenError(tok Token) error {
	return types.NewSyntaxError(tok.Pos, "unexpected token %s", tok.Text)
}

func (p *parser) createUnexpectedEndError() error {
	pos := 0
	if len(p.tokens) != 0 {
		pos = p.tokens[len(p.tokens)-1].end()
	}
	return types.NewSyntaxError(pos, "unexpected end of formula")
}

func unquoteString(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}
