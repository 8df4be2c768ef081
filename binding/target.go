package binding

import (
	"errors"
	"fmt"
	"reflect"
)

// Target is a callable bound to its receiver: an exported method of a value
// or a plain func.
type Target struct {
	// Owner is the name of the receiver type ("func" for plain funcs).
	Owner string
	// Name is the method name, or the name given to FuncOf.
	Name string
	Func reflect.Value
}

// MethodOf resolves the exported method name on bean. Unexported methods are
// not reachable through reflection and cannot be bound.
func MethodOf(bean any, name string) (Target, error) {
	if bean == nil {
		return Target{}, errors.New("bean must not be nil")
	}
	if name == "" {
		return Target{}, errors.New("method name must not be empty")
	}
	rv := reflect.ValueOf(bean)
	owner := typeName(rv.Type())
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return Target{}, fmt.Errorf("method %s not found on %s (only exported methods can be bound)", name, owner)
	}
	return Target{Owner: owner, Name: name, Func: m}, nil
}

// FuncOf wraps fn, which must be a non-nil func, under the given name.
func FuncOf(fn any, name string) (Target, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return Target{}, fmt.Errorf("%s: expected a non-nil func, got %T", name, fn)
	}
	if name == "" {
		name = "anonymous"
	}
	return Target{Owner: "func", Name: name, Func: rv}, nil
}

// Type returns the func type of the target.
func (t Target) Type() reflect.Type { return t.Func.Type() }

func (t Target) String() string { return t.Owner + "." + t.Name }

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
