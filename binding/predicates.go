package binding

import (
	"reflect"
	"regexp"
)

// IsDeferredReturn reports whether the func type delivers its result through
// a deferred or a channel.
func IsDeferredReturn(ft reflect.Type) bool {
	if ft == nil || ft.Kind() != reflect.Func {
		return false
	}
	shape, err := AnalyzeReturn(ft)
	return err == nil && shape.Async()
}

// HasBidirectionalParams reports whether the func type declares a parameter
// that needs a live session.
func HasBidirectionalParams(ft reflect.Type) bool {
	if ft == nil || ft.Kind() != reflect.Func {
		return false
	}
	for i := 0; i < ft.NumIn(); i++ {
		if Bidirectional.Has(Classify(ft.In(i), nil)) {
			return true
		}
	}
	return false
}

// HasParamKind reports whether any parameter of ft classifies as k.
func HasParamKind(ft reflect.Type, k ParamKind) bool {
	for i := 0; i < ft.NumIn(); i++ {
		if Classify(ft.In(i), nil) == k {
			return true
		}
	}
	return false
}

var uriVariable = regexp.MustCompile(`\{([^/]+?)\}`)

// IsURITemplate reports whether uri contains at least one {variable}.
func IsURITemplate(uri string) bool {
	return uriVariable.MatchString(uri)
}
