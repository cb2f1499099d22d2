package formula

import (
	"fmt"
	"strings"

	reflect "github.com/goccy/go-reflect"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/samber/lo"
)

// Function is a named formula function. Call receives the unevaluated
// argument nodes so that an implementation decides what to evaluate.
type Function interface {
	Name() string
	Call(*Evaluator, []Node) (Value, error)
}

type EvaluateFunc func(ev *Evaluator, args []Node) (Value, error)

// NewRawFunction wraps fn with an arity check. A negative maxArgs means the
// function is variadic.
func NewRawFunction(name string, minArgs, maxArgs int, fn EvaluateFunc) Function {
	return &rawFunction{
		name:    strings.ToUpper(name),
		minArgs: minArgs,
		maxArgs: maxArgs,
		f:       fn,
	}
}

type rawFunction struct {
	name    string
	minArgs int
	maxArgs int
	f       EvaluateFunc
}

func (f *rawFunction) Name() string {
	return f.name
}

func (f *rawFunction) Call(ev *Evaluator, args []Node) (Value, error) {
	if len(args) < f.minArgs {
		return nil, types.NewError(types.ArgumentErrorTag, "missing arguments: %d arguments are required but got %d arguments", f.minArgs, len(args))
	}
	if f.maxArgs >= 0 && len(args) > f.maxArgs {
		return nil, types.NewError(types.ArgumentErrorTag, "too many arguments: %d arguments are allowed but got %d arguments", f.maxArgs, len(args))
	}
	return f.f(ev, args)
}

type Argument struct {
	Name     string
	Default  any
	Optional bool
}

type argDef struct {
	name         string
	valueType    reflect.Type
	defaultValue reflect.Value
}

type reflectFunc struct {
	name        string
	args        []argDef
	minimumArgs int
	value       reflect.Value
}

var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

// NewFunction adapts a plain Go function whose parameters are float64,
// string, bool or Value. Arguments are evaluated eagerly and coerced to the
// parameter types; an error value argument is returned as the result
// without calling f unless the parameter is declared as Value.
func NewFunction(name string, args []Argument, f any) (Function, error) {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("must be function but got %T: %+v", f, f)
	}

	t := v.Type()
	if t.NumIn() != len(args) {
		return nil, fmt.Errorf("mis-match arguments count with args %+v: %+v", args, f)
	}
	if t.NumOut() != 2 {
		return nil, fmt.Errorf("function must return 2 values: %+v", f)
	}
	if lastOut := t.Out(1); !lastOut.Implements(errorInterfaceType) {
		return nil, fmt.Errorf("last return value type must be error: %s", lastOut.String())
	}

	minimumArgs := 0
	defs := make([]argDef, len(args))
	for i, arg := range args {
		argType := t.In(i)
		switch argType.Kind() {
		case reflect.Float64, reflect.String, reflect.Bool, reflect.Interface:
			// ok
		default:
			return nil, fmt.Errorf("argument[%d] %s: unsupported parameter type %s", i, arg.Name, argType.String())
		}

		defs[i].name = arg.Name
		defs[i].valueType = argType
		if arg.Default != nil {
			defs[i].defaultValue = reflect.ValueOf(arg.Default)
		} else if arg.Optional {
			defs[i].defaultValue = reflect.Zero(argType)
		}

		// this is required
		if arg.Default == nil && !arg.Optional {
			if i != minimumArgs {
				return nil, fmt.Errorf("argument[%d] %s: required argument after optional one", i, arg.Name)
			}
			minimumArgs++
			continue
		}

		// must not set both
		if arg.Default != nil && arg.Optional {
			return nil, fmt.Errorf("argument[%d] %s's default value is must be nil to be optional", i, arg.Name)
		}
		if !defs[i].defaultValue.Type().AssignableTo(argType) {
			return nil, fmt.Errorf("argument[%d] %s's default value %+v(%T) is not assignable to %s", i, arg.Name, arg.Default, arg.Default, argType.String())
		}
	}

	return &reflectFunc{
		name:        strings.ToUpper(name),
		args:        defs,
		minimumArgs: minimumArgs,
		value:       v,
	}, nil
}

func MustNewFunction(name string, args []Argument, f any) Function {
	fun, err := NewFunction(name, args, f)
	if err != nil {
		panic(err)
	}
	return fun
}

func (f *reflectFunc) Name() string {
	return f.name
}

func (f *reflectFunc) Args() []string {
	return lo.Map(f.args, func(def argDef, _ int) string {
		return def.name
	})
}

func (f *reflectFunc) Call(ev *Evaluator, args []Node) (Value, error) {
	if len(args) > len(f.args) {
		return nil, types.NewError(types.ArgumentErrorTag, "too many arguments: %d arguments are allowed but got %d arguments, usage: %s(%s)", len(f.args), len(args), f.name, renderArgDefs(f.args))
	}
	if len(args) < f.minimumArgs {
		return nil, types.NewError(types.ArgumentErrorTag, "missing arguments: %d arguments are required but got %d arguments, usage: %s(%s)", f.minimumArgs, len(args), f.name, renderArgDefs(f.args))
	}

	argValues := make([]reflect.Value, len(f.args))
	for i, arg := range f.args {
		// fill default value for missing args
		if i >= len(args) {
			argValues[i] = arg.defaultValue
			continue
		}

		v, err := ev.Evaluate(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument[%d] %s: %w", i, arg.name, err)
		}

		if arg.valueType.Kind() == reflect.Interface {
			if v == nil {
				argValues[i] = reflect.Zero(arg.valueType)
			} else {
				argValues[i] = reflect.ValueOf(v)
			}
			continue
		}
		if errValue, ok := ErrorValueOf(v); ok {
			return errValue, nil
		}

		var converted any
		switch arg.valueType.Kind() {
		case reflect.Float64:
			converted, err = ToNumber(v)
		case reflect.String:
			converted, err = ToText(v)
		case reflect.Bool:
			converted = Truthy(v)
		}
		if err != nil {
			return nil, fmt.Errorf("argument[%d] %s: %w", i, arg.name, err)
		}
		argValues[i] = reflect.ValueOf(converted)
	}

	ret := f.value.Call(argValues)
	if !ret[1].IsZero() {
		err := ret[1].Interface().(error)
		return nil, err
	}

	return ret[0].Interface(), nil
}

func renderArgDefs(args []argDef) string {
	var s strings.Builder
	for i, arg := range args {
		if i != 0 {
			s.WriteString(", ")
		}

		s.WriteString(arg.name)
		if !arg.defaultValue.IsValid() {
			continue
		} else if arg.defaultValue.IsZero() {
			s.WriteByte('?')
		} else {
			s.WriteString(" = ")
			fmt.Fprint(&s, arg.defaultValue.Interface())
		}
	}
	return s.String()
}
