package functions

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
)

var Text = aggregateFunctions(
	formula.NewRawFunction("CONCATENATE", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		values, err := ev.Flatten(args)
		if err != nil {
			return nil, err
		}
		if errValue, ok := formula.ErrorValueOf(values); ok {
			return errValue, nil
		}

		var s strings.Builder
		for _, v := range values {
			text, err := formula.ToText(v)
			if err != nil {
				return nil, err
			}
			s.WriteString(text)
		}
		return s.String(), nil
	}),
	formula.MustNewFunction("LEN", []formula.Argument{
		{Name: "text"},
	}, func(text string) (float64, error) {
		return float64(utf8.RuneCountInString(text)), nil
	}),
	formula.MustNewFunction("UPPER", []formula.Argument{
		{Name: "text"},
	}, func(text string) (string, error) {
		return strings.ToUpper(text), nil
	}),
	formula.MustNewFunction("LOWER", []formula.Argument{
		{Name: "text"},
	}, func(text string) (string, error) {
		return strings.ToLower(text), nil
	}),
	formula.MustNewFunction("TRIM", []formula.Argument{
		{Name: "text"},
	}, func(text string) (string, error) {
		// inner runs of spaces collapse to one
		return strings.Join(strings.Fields(text), " "), nil
	}),
	formula.MustNewFunction("LEFT", []formula.Argument{
		{Name: "text"},
		{Name: "count", Default: 1.0},
	}, func(text string, count float64) (formula.Value, error) {
		if count < 0 {
			return types.ErrorValueValue, nil
		}
		runes := []rune(text)
		return string(runes[:min(int(count), len(runes))]), nil
	}),
	formula.MustNewFunction("RIGHT", []formula.Argument{
		{Name: "text"},
		{Name: "count", Default: 1.0},
	}, func(text string, count float64) (formula.Value, error) {
		if count < 0 {
			return types.ErrorValueValue, nil
		}
		runes := []rune(text)
		return string(runes[len(runes)-min(int(count), len(runes)):]), nil
	}),
	formula.MustNewFunction("MID", []formula.Argument{
		{Name: "text"},
		{Name: "start"},
		{Name: "count"},
	}, func(text string, start, count float64) (formula.Value, error) {
		if start < 1 || count < 0 {
			return types.ErrorValueValue, nil
		}
		runes := []rune(text)
		begin := min(int(start)-1, len(runes))
		return string(runes[begin:min(begin+int(count), len(runes))]), nil
	}),
	formula.MustNewFunction("SUBSTITUTE", []formula.Argument{
		{Name: "text"},
		{Name: "search"},
		{Name: "replacement"},
	}, func(text, search, replacement string) (string, error) {
		if search == "" {
			return text, nil
		}
		return strings.ReplaceAll(text, search, replacement), nil
	}),
	formula.MustNewFunction("REGEXREPLACE", []formula.Argument{
		{Name: "text"},
		{Name: "pattern"},
		{Name: "replacement"},
	}, func(text, pattern, replacement string) (string, error) {
		if !utf8.ValidString(pattern) {
			return "", types.NewError(types.ArgumentErrorTag, "pattern is not valid utf8 string")
		}

		r, err := regexp.Compile(pattern)
		if err != nil {
			return "", &types.Error{
				Tag:      types.ArgumentErrorTag,
				Err:      err,
				Position: types.NoPosition,
			}
		}
		return r.ReplaceAllString(text, replacement), nil
	}),
	formula.MustNewFunction("ENCODEURL", []formula.Argument{
		{Name: "text"},
	}, func(text string) (string, error) {
		return strings.ReplaceAll(url.QueryEscape(text), "+", "%20"), nil
	}),
	formula.MustNewFunction("EXACT", []formula.Argument{
		{Name: "text1"},
		{Name: "text2"},
	}, func(a, b string) (bool, error) {
		return a == b, nil
	}),
)
