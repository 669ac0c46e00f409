package ir

import "fmt"

// Binding associates a variable name with a value.
type Binding struct {
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Value int64  `json:"value" yaml:"value" msgpack:"value"`
}

// Env is a stack of bindings. New bindings shadow older bindings of the same
// name, and nothing is ever removed, so the full history of an evaluation
// stays available.
type Env struct {
	bindings []Binding
}

// NewEnv creates an environment holding bindings, oldest first.
func NewEnv(bindings ...Binding) *Env {
	return &Env{bindings: append([]Binding(nil), bindings...)}
}

// Set pushes a new binding for name.
func (e *Env) Set(name string, value int64) {
	e.bindings = append(e.bindings, Binding{Name: name, Value: value})
}

// Lookup returns the most recent value bound to name.
func (e *Env) Lookup(name string) (int64, bool) {
	for i := len(e.bindings) - 1; i >= 0; i-- {
		if e.bindings[i].Name == name {
			return e.bindings[i].Value, true
		}
	}
	return 0, false
}

// Get is Lookup with an error for unbound names.
func (e *Env) Get(name string) (int64, error) {
	if v, ok := e.Lookup(name); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %q is not bound", ErrMissingDefinition, name)
}

// LookupFirst returns the value of the most recent binding whose name is
// any of names. Evaluating a phi function relies on it: the operand
// assigned last is the one on the path actually taken.
func (e *Env) LookupFirst(names []string) (int64, bool) {
	for i := len(e.bindings) - 1; i >= 0; i-- {
		for _, n := range names {
			if e.bindings[i].Name == n {
				return e.bindings[i].Value, true
			}
		}
	}
	return 0, false
}

// GetFirst is LookupFirst with an error when none of names is bound.
func (e *Env) GetFirst(names []string) (int64, error) {
	if v, ok := e.LookupFirst(names); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: none of %v is bound", ErrMissingDefinition, names)
}

// Has reports whether name has any binding.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Len returns the number of bindings, shadowed ones included.
func (e *Env) Len() int { return len(e.bindings) }

// Bindings returns a copy of the binding history, oldest first.
func (e *Env) Bindings() []Binding {
	return append([]Binding(nil), e.bindings...)
}

// Names returns each bound name once, in order of first binding.
func (e *Env) Names() []string {
	seen := make(map[string]bool, len(e.bindings))
	var names []string
	for _, b := range e.bindings {
		if !seen[b.Name] {
			seen[b.Name] = true
			names = append(names, b.Name)
		}
	}
	return names
}

// Clone returns an independent copy of the environment.
func (e *Env) Clone() *Env {
	return NewEnv(e.bindings...)
}
