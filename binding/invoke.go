package binding

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Sources holds the values injectable into non-payload parameters. Nil
// sources produce typed zero values.
type Sources struct {
	Ctx                 context.Context
	Session             sessions.Session
	Transport           sessions.TransportContext
	RequestContext      *reqctx.RequestContext
	AsyncRequestContext *reqctx.AsyncRequestContext
	ProgressToken       mcp.ProgressToken
	Meta                mcp.Meta
	// Request is the callback's request value, bound to KindRequest.
	Request any
}

// PayloadFunc produces the value of a payload parameter.
type PayloadFunc func(p Param) (reflect.Value, error)

// BuildArgs constructs the argument list for the signature.
func (s *Signature) BuildArgs(src Sources, payload PayloadFunc) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(s.Params))
	for i, p := range s.Params {
		var v reflect.Value
		switch p.Kind {
		case KindContext:
			ctx := src.Ctx
			if ctx == nil {
				ctx = context.Background()
			}
			v = reflect.ValueOf(&ctx).Elem()
		case KindSession:
			v = valueOf(src.Session, p.Type)
		case KindTransport:
			tc := src.Transport
			if tc == nil {
				tc = sessions.EmptyTransportContext
			}
			v = valueOf(tc, p.Type)
		case KindRequestContext:
			v = valueOf(src.RequestContext, p.Type)
		case KindAsyncRequestContext:
			v = valueOf(src.AsyncRequestContext, p.Type)
		case KindProgressToken:
			v = valueOf(src.ProgressToken, p.Type)
		case KindMeta:
			v = reflect.ValueOf(src.Meta)
		case KindRequest:
			v = valueOf(src.Request, p.Type)
		case KindPayload:
			if payload == nil {
				return nil, fmt.Errorf("no payload source for parameter %d", p.Index)
			}
			pv, err := payload(p)
			if err != nil {
				return nil, err
			}
			v = pv
			if !v.IsValid() {
				v = reflect.Zero(p.Type)
			}
		}
		if !v.Type().AssignableTo(p.Type) {
			return nil, fmt.Errorf("cannot bind %s to parameter %d of type %s", v.Type(), p.Index, p.Type)
		}
		args[i] = v
	}
	return args, nil
}

// valueOf returns v as a reflect.Value usable for a parameter of type t.
// Nil interfaces and typed nil pointers both become the zero value of t.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return reflect.Zero(t)
	}
	if t.Kind() == reflect.Interface && rv.Type() != t && rv.Type().Implements(t) {
		// Wrap so the assignability check above compares the interface type.
		iv := reflect.New(t).Elem()
		iv.Set(rv)
		return iv
	}
	return rv
}

// InvocationError reports a failure raised by, or while awaiting, a bound
// method.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("error invoking method %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// PanicError is a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Cause strips InvocationError wrappers and returns the error the method
// itself produced.
func Cause(err error) error {
	for {
		var ie *InvocationError
		if !errors.As(err, &ie) || ie.Err == nil {
			return err
		}
		err = ie.Err
	}
}

// Call invokes the target and splits its results into the produced value and
// the returned error. Method failures and panics come back as
// *InvocationError. The value is invalid for ReturnNone signatures.
func (s *Signature) Call(args []reflect.Value) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{Method: s.String(), Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()
	out := s.Target.Func.Call(args)
	if s.Return.HasError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return reflect.Value{}, &InvocationError{Method: s.String(), Err: e}
		}
	}
	if s.Return.Kind == ReturnNone {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// Resolve awaits a deferred or channel result and returns the produced
// value. Direct values are returned unchanged. A nil deferred or channel
// yields the zero value of the element type.
func (s *Signature) Resolve(ctx context.Context, v reflect.Value) (out reflect.Value, err error) {
	switch s.Return.Kind {
	case ReturnDeferred:
		if !v.IsValid() || v.IsNil() {
			return reflect.Zero(s.Return.Value), nil
		}
		if err := ctx.Err(); err != nil {
			return reflect.Value{}, err
		}
		defer func() {
			if r := recover(); r != nil {
				err = &InvocationError{Method: s.String(), Err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		res := v.Call([]reflect.Value{reflect.ValueOf(&ctx).Elem()})
		if e, _ := res[1].Interface().(error); e != nil {
			return reflect.Value{}, &InvocationError{Method: s.String(), Err: e}
		}
		return res[0], nil
	case ReturnChannel:
		if !v.IsValid() || v.IsNil() {
			return reflect.Zero(s.Return.Value), nil
		}
		chosen, recv, ok := reflect.Select([]reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: v},
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
		})
		if chosen == 1 {
			return reflect.Value{}, ctx.Err()
		}
		if !ok {
			return reflect.Zero(s.Return.Value), nil
		}
		return recv, nil
	default:
		return v, nil
	}
}

// Await is Call followed by Resolve.
func (s *Signature) Await(ctx context.Context, args []reflect.Value) (reflect.Value, error) {
	v, err := s.Call(args)
	if err != nil {
		return reflect.Value{}, err
	}
	return s.Resolve(ctx, v)
}
