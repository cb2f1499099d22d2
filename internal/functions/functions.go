// Package functions provides the built-in formula functions. Importing it
// registers them in formula.DefaultRegistry.
package functions

import (
	"fmt"

	"github.com/karupanerura/formula-processor/internal/formula"
)

// Builtins lists every built-in function.
var Builtins = mergeFunctions(Math, Statistics, Logic, Text)

func init() {
	Register(formula.DefaultRegistry)
}

// Register installs the built-ins into r, replacing same-named entries.
func Register(r *formula.Registry) {
	for _, f := range Builtins {
		r.Register(f)
	}
}

// NewRegistry returns an isolated registry holding only the built-ins.
func NewRegistry() *formula.Registry {
	r := formula.NewRegistry()
	Register(r)
	return r
}

func aggregateFunctions(funcs ...formula.Function) []formula.Function {
	seen := make(map[string]bool, len(funcs))
	for _, f := range funcs {
		name := f.Name()
		if seen[name] {
			panic(fmt.Sprintf("duplicated function name: %s", name))
		}
		seen[name] = true
	}
	return funcs
}

func mergeFunctions(sets ...[]formula.Function) []formula.Function {
	var funcs []formula.Function
	for _, set := range sets {
		funcs = append(funcs, set...)
	}
	return aggregateFunctions(funcs...)
}
