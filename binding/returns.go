package binding

import (
	"fmt"
	"reflect"
)

// ReturnKind describes how a method delivers its result.
type ReturnKind uint8

const (
	// ReturnNone methods produce no value (at most an error).
	ReturnNone ReturnKind = iota
	// ReturnValue methods return their value directly.
	ReturnValue
	// ReturnDeferred methods return a func(context.Context) (T, error), such
	// as async.Deferred[T], that yields the value when awaited.
	ReturnDeferred
	// ReturnChannel methods return a receive channel that yields at most one
	// value; closing it without a value yields the zero value.
	ReturnChannel
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnNone:
		return "none"
	case ReturnValue:
		return "value"
	case ReturnDeferred:
		return "deferred"
	case ReturnChannel:
		return "channel"
	}
	return "unknown"
}

// ReturnShape is the analyzed result signature of a method.
type ReturnShape struct {
	Kind ReturnKind
	// Value is the type of the produced value: the direct return type, or the
	// element type of a deferred or channel. Nil for ReturnNone.
	Value reflect.Type
	// HasError reports a trailing error result.
	HasError bool
}

// Async reports whether the result must be awaited.
func (s ReturnShape) Async() bool { return s.Kind == ReturnDeferred || s.Kind == ReturnChannel }

// ProducesValue reports whether the method yields a value (possibly via a
// deferred or channel).
func (s ReturnShape) ProducesValue() bool { return s.Kind != ReturnNone }

// AnalyzeReturn inspects the results of a func type. Accepted shapes are
// (), (error), (T) and (T, error) where T may itself be a deferred or a
// receive channel.
func AnalyzeReturn(ft reflect.Type) (ReturnShape, error) {
	switch ft.NumOut() {
	case 0:
		return ReturnShape{Kind: ReturnNone}, nil
	case 1:
		if ft.Out(0) == errorType {
			return ReturnShape{Kind: ReturnNone, HasError: true}, nil
		}
		return shapeOf(ft.Out(0)), nil
	case 2:
		if ft.Out(1) != errorType {
			return ReturnShape{}, fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		if ft.Out(0) == errorType {
			return ReturnShape{}, fmt.Errorf("first result must not be error when the second is")
		}
		s := shapeOf(ft.Out(0))
		s.HasError = true
		return s, nil
	default:
		return ReturnShape{}, fmt.Errorf("method must return at most 2 results, got %d", ft.NumOut())
	}
}

func shapeOf(t reflect.Type) ReturnShape {
	if IsDeferredType(t) {
		return ReturnShape{Kind: ReturnDeferred, Value: t.Out(0)}
	}
	if t.Kind() == reflect.Chan && t.ChanDir()&reflect.RecvDir != 0 {
		return ReturnShape{Kind: ReturnChannel, Value: t.Elem()}
	}
	return ReturnShape{Kind: ReturnValue, Value: t}
}

// IsDeferredType reports whether t has the shape func(context.Context) (T, error).
func IsDeferredType(t reflect.Type) bool {
	return t.Kind() == reflect.Func &&
		!t.IsVariadic() &&
		t.NumIn() == 1 && t.In(0) == contextType &&
		t.NumOut() == 2 && t.Out(1) == errorType
}
