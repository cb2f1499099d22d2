package types

import "github.com/samber/lo"

// ErrorValue is a spreadsheet error result such as "#DIV/0!". It is a value,
// not a Go error: it flows through arithmetic and functions until the
// caller decides how to show it.
type ErrorValue string

const (
	ErrorValueDivZero ErrorValue = "#DIV/0!"
	ErrorValueNA      ErrorValue = "#N/A"
	ErrorValueNum     ErrorValue = "#NUM!"
	ErrorValueRef     ErrorValue = "#REF!"
	ErrorValueValue   ErrorValue = "#VALUE!"
)

func (v ErrorValue) String() string {
	return string(v)
}

func (v ErrorValue) MarshalText() ([]byte, error) {
	return []byte(v), nil
}

// ErrorValueFor maps a raised evaluation error onto the error value a
// spreadsheet cell would display for it.
func ErrorValueFor(err error) ErrorValue {
	switch tag, _ := TagOf(err); tag {
	case ReferenceErrorTag:
		return ErrorValueRef
	case TypeErrorTag, ArgumentErrorTag:
		return ErrorValueValue
	default:
		return ErrorValueNA
	}
}

var knownErrorValues = []ErrorValue{
	ErrorValueDivZero,
	ErrorValueNA,
	ErrorValueNum,
	ErrorValueRef,
	ErrorValueValue,
}

// ParseErrorValue recognizes the text form of an error value.
func ParseErrorValue(s string) (ErrorValue, bool) {
	v := ErrorValue(s)
	return v, lo.Contains(knownErrorValues, v)
}
