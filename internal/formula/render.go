package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karupanerura/formula-processor/internal/types"
)

// Render writes node back as formula text without the leading "=".
// Parentheses are only emitted where precedence requires them, so parsing
// the output yields a structurally identical tree.
func Render(node Node) string {
	var b strings.Builder
	render(&b, node)
	return b.String()
}

func render(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("nil")

	case *Literal:
		b.WriteString(renderLiteral(n.Value))

	case *Reference:
		b.WriteString(CellName(n.Column, n.Row))

	case *Range:
		b.WriteString(CellName(n.StartColumn, n.StartRow))
		b.WriteByte(':')
		b.WriteString(CellName(n.EndColumn, n.EndRow))

	case *BinaryOp:
		bp := infixOperatorBindingPowerMap[n.Operator]
		rightAssoc := rightAssociativeOperatorSet[n.Operator]
		renderOperand(b, n.Left, bp, rightAssoc)
		b.WriteString(string(n.Operator))
		renderOperand(b, n.Right, bp, !rightAssoc)

	case *UnaryOp:
		b.WriteString(string(n.Operator))
		if _, isBinary := n.Operand.(*BinaryOp); isBinary {
			b.WriteByte('(')
			render(b, n.Operand)
			b.WriteByte(')')
		} else {
			render(b, n.Operand)
		}

	case *Call:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, arg := range n.Args {
			if i != 0 {
				b.WriteByte(',')
			}
			render(b, arg)
		}
		b.WriteByte(')')

	default:
		panic(fmt.Sprintf("unknown node type: %T", node))
	}
}

// renderOperand parenthesizes a binary child that binds looser than its
// parent, or equally on the side where associativity would regroup it.
func renderOperand(b *strings.Builder, node Node, parentBP uint8, parenOnTie bool) {
	child, isBinary := node.(*BinaryOp)
	if isBinary {
		bp := infixOperatorBindingPowerMap[child.Operator]
		if bp < parentBP || (bp == parentBP && parenOnTie) {
			b.WriteByte('(')
			render(b, node)
			b.WriteByte(')')
			return
		}
	}
	render(b, node)
}

func renderLiteral(v Value) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case types.ErrorValue:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
