package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/karupanerura/formula-processor/internal/types"
)

// ErrorValueOf returns the error value carried by v, looking inside ranges.
func ErrorValueOf(v Value) (types.ErrorValue, bool) {
	switch vv := v.(type) {
	case types.ErrorValue:
		return vv, true
	case []Value:
		for _, item := range vv {
			if ev, ok := item.(types.ErrorValue); ok {
				return ev, true
			}
		}
	}
	return "", false
}

// ToNumber coerces v for a numeric operator. Ranges reduce by implicit SUM
// over their numeric cells.
func ToNumber(v Value) (float64, error) {
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return vv, nil
	case bool:
		if vv {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, types.NewError(types.TypeErrorTag, "cannot convert %q to a number", vv)
		}
		return n, nil
	case []Value:
		var sum float64
		for _, item := range vv {
			if n, ok := item.(float64); ok {
				sum += n
			}
		}
		return sum, nil
	default:
		return 0, types.NewError(types.TypeErrorTag, "cannot convert %T to a number", v)
	}
}

// ToText coerces v for a string parameter.
func ToText(v Value) (string, error) {
	switch vv := v.(type) {
	case nil:
		return "", nil
	case string:
		return vv, nil
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64), nil
	case bool:
		if vv {
			return "TRUE", nil
		}
		return "FALSE", nil
	case types.ErrorValue:
		return string(vv), nil
	default:
		return "", types.NewError(types.TypeErrorTag, "cannot convert %T to a string", v)
	}
}

// Truthy decides a condition: 0, "", false and empty cells are false.
func Truthy(v Value) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case float64:
		return vv != 0
	case string:
		return vv != ""
	case bool:
		return vv
	case []Value:
		n, _ := ToNumber(vv)
		return n != 0
	default:
		return true
	}
}

func (e *Evaluator) evaluateUnary(n *UnaryOp) (Value, error) {
	value, err := e.Evaluate(n.Operand)
	if err != nil {
		return nil, fmt.Errorf("value of unary operator %q: %w", n.Operator, err)
	}
	if ev, ok := ErrorValueOf(value); ok {
		return ev, nil
	}

	x, err := ToNumber(value)
	if err != nil {
		return nil, fmt.Errorf("value of unary operator %q: %w", n.Operator, err)
	}

	switch n.Operator {
	case AddOperator:
		return x, nil
	case SubtractOperator:
		return -x, nil
	default:
		return nil, types.NewError(types.TypeErrorTag, "unknown unary operator: %q", n.Operator)
	}
}

func (e *Evaluator) evaluateBinary(n *BinaryOp) (Value, error) {
	left, err := e.Evaluate(n.Left)
	if err != nil {
		return nil, fmt.Errorf("left of operator %q: %w", n.Operator, err)
	}
	right, err := e.Evaluate(n.Right)
	if err != nil {
		return nil, fmt.Errorf("right of operator %q: %w", n.Operator, err)
	}

	if ev, ok := ErrorValueOf(left); ok {
		return ev, nil
	}
	if ev, ok := ErrorValueOf(right); ok {
		return ev, nil
	}

	if n.Operator.isComparison() {
		return compareValues(n.Operator, left, right)
	}

	x, err := ToNumber(left)
	if err != nil {
		return nil, fmt.Errorf("left of operator %q: %w", n.Operator, err)
	}
	y, err := ToNumber(right)
	if err != nil {
		return nil, fmt.Errorf("right of operator %q: %w", n.Operator, err)
	}

	var ret float64
	switch n.Operator {
	case AddOperator:
		ret = x + y
	case SubtractOperator:
		ret = x - y
	case MultiplyOperator:
		ret = x * y
	case DivideOperator:
		if y == 0 {
			return types.ErrorValueDivZero, nil
		}
		ret = x / y
	case PowerOperator:
		ret = math.Pow(x, y)
	default:
		return nil, types.NewError(types.TypeErrorTag, "unknown operator: %q", n.Operator)
	}
	return numberResult(ret), nil
}

func numberResult(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return types.ErrorValueNum
	}
	return n
}

// type ranks for ordering values of different kinds
const (
	numberRank = iota
	stringRank
	booleanRank
)

func rankOf(v Value) int {
	switch v.(type) {
	case string:
		return stringRank
	case bool:
		return booleanRank
	default:
		return numberRank
	}
}

// comparisonOperand normalizes an operand: ranges become their implicit SUM and an
// empty cell takes the zero value of the other side's type.
func comparisonOperand(v, other Value) Value {
	if vs, ok := v.([]Value); ok {
		n, _ := ToNumber(vs)
		return n
	}
	if v != nil {
		return v
	}

	switch other.(type) {
	case string:
		return ""
	case bool:
		return false
	default:
		return float64(0)
	}
}

func compareValues(op Operator, left, right Value) (Value, error) {
	l := comparisonOperand(left, right)
	r := comparisonOperand(right, left)

	var c int
	if lr, rr := rankOf(l), rankOf(r); lr != rr {
		if op == EqualOperator {
			return false, nil
		}
		if op == NotEqualOperator {
			return true, nil
		}
		c = lr - rr
	} else {
		switch lv := l.(type) {
		case float64:
			c = compareOrdered(lv, r.(float64))
		case string:
			c = strings.Compare(lv, r.(string))
		case bool:
			c = compareOrdered(boolRank(lv), boolRank(r.(bool)))
		default:
			return nil, types.NewError(types.TypeErrorTag, "cannot compare %T with operator %q", l, op)
		}
	}

	switch op {
	case EqualOperator:
		return c == 0, nil
	case NotEqualOperator:
		return c != 0, nil
	case LessOperator:
		return c < 0, nil
	case LessEqualOperator:
		return c <= 0, nil
	case GreaterOperator:
		return c > 0, nil
	case GreaterEqualOperator:
		return c >= 0, nil
	default:
		return nil, types.NewError(types.TypeErrorTag, "unknown comparison operator: %q", op)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
