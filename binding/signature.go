package binding

import (
	"fmt"
	"reflect"
)

// Rules declares the parameter shapes a callback kind accepts.
type Rules struct {
	// Allowed lists the injectable kinds. KindPayload is governed by Payload.
	Allowed KindSet
	// Unique lists kinds that may appear at most once.
	Unique KindSet
	// Request is the callback's request type, classified as KindRequest.
	Request reflect.Type
	// Payload validates a payload parameter. Nil rejects payload parameters.
	Payload func(index int, t reflect.Type) error
}

// Param is one analyzed parameter.
type Param struct {
	Index int
	Type  reflect.Type
	Kind  ParamKind
}

// Signature is a validated method signature ready for invocation.
type Signature struct {
	Target Target
	Params []Param
	Return ReturnShape
	counts [numKinds]int
}

// Analyze validates target against rules.
func Analyze(target Target, rules Rules) (*Signature, error) {
	if !target.Func.IsValid() {
		return nil, fmt.Errorf("invalid target %s", target)
	}
	ft := target.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%s: variadic methods are not supported", target)
	}
	sig := &Signature{Target: target}
	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		k := Classify(pt, rules.Request)
		switch {
		case k == KindPayload:
			if rules.Payload == nil {
				return nil, fmt.Errorf("%s: parameter %d of type %s is not supported", target, i, pt)
			}
			if err := rules.Payload(i, pt); err != nil {
				return nil, fmt.Errorf("%s: %w", target, err)
			}
		case !rules.Allowed.Has(k):
			return nil, fmt.Errorf("%s: parameter %d of type %s is not supported here", target, i, pt)
		}
		sig.counts[k]++
		if rules.Unique.Has(k) && sig.counts[k] > 1 {
			return nil, fmt.Errorf("%s: method cannot have more than one %s parameter", target, k)
		}
		sig.Params = append(sig.Params, Param{Index: i, Type: pt, Kind: k})
	}
	ret, err := AnalyzeReturn(ft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	sig.Return = ret
	return sig, nil
}

// Count returns how many parameters have kind k.
func (s *Signature) Count(k ParamKind) int { return s.counts[k] }

// Has reports whether any parameter has kind k.
func (s *Signature) Has(k ParamKind) bool { return s.counts[k] > 0 }

// Payload returns the payload parameters in declaration order.
func (s *Signature) Payload() []Param {
	var out []Param
	for _, p := range s.Params {
		if p.Kind == KindPayload {
			out = append(out, p)
		}
	}
	return out
}

// HasBidirectional reports whether the method needs a live session.
func (s *Signature) HasBidirectional() bool {
	for _, p := range s.Params {
		if Bidirectional.Has(p.Kind) {
			return true
		}
	}
	return false
}

func (s *Signature) String() string { return s.Target.String() }
