package formula

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Registry maps case-insensitive function names to implementations. It is
// safe for concurrent use; registering a name again replaces the old entry.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// DefaultRegistry is the process-wide registry that built-in function
// packages populate from their init functions.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		functions: map[string]Function{},
	}
}

func (r *Registry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
}

// RegisterFunc registers fn without arity checking.
func (r *Registry) RegisterFunc(name string, fn EvaluateFunc) {
	r.Register(NewRawFunction(name, 0, -1, fn))
}

func (r *Registry) Lookup(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[strings.ToUpper(name)]
	return f, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.functions)
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Clone returns an independent registry holding the same entries.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Registry{
		functions: lo.Assign(map[string]Function{}, r.functions),
	}
}

// RegisterProcessorFunction registers fn in DefaultRegistry.
func RegisterProcessorFunction(name string, fn EvaluateFunc) {
	DefaultRegistry.RegisterFunc(name, fn)
}
