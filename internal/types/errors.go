package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	SyntaxErrorTag          ErrorTag = "SyntaxError"
	ReferenceErrorTag       ErrorTag = "ReferenceError"
	TypeErrorTag            ErrorTag = "TypeError"
	UnknownFunctionErrorTag ErrorTag = "UnknownFunctionError"
	ArgumentErrorTag        ErrorTag = "ArgumentError"
)

// NoPosition marks an error that is not tied to a place in the formula text.
const NoPosition = -1

type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag      ErrorTag
	Err      error
	Position int
	Extra    map[string]any
}

var _ Exception = (*Error)(nil)

func NewSyntaxError(pos int, format string, args ...any) *Error {
	return &Error{
		Tag:      SyntaxErrorTag,
		Err:      fmt.Errorf(format, args...),
		Position: pos,
	}
}

func NewError(tag ErrorTag, format string, args ...any) *Error {
	return &Error{
		Tag:      tag,
		Err:      fmt.Errorf(format, args...),
		Position: NoPosition,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Tag))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Position != NoPosition {
		fmt.Fprintf(&b, " at %d", e.Position+1)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Exception() any {
	tags := []any{}
	for err := error(e); err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags": tags,
	}
	if e.Err != nil {
		o["message"] = e.Err.Error()
	}
	if e.Position != NoPosition {
		o["position"] = e.Position
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// HasTag reports whether any *Error in err's chain carries tag.
func HasTag(err error, tag ErrorTag) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Tag == tag {
			return true
		}
	}
	return false
}

// TagOf returns the tag of the outermost *Error in err's chain.
func TagOf(err error) (ErrorTag, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Tag, true
	}
	return "", false
}
