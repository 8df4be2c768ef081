// Package async provides Deferred, the lazily evaluated result type returned
// by asynchronous callbacks and accepted from asynchronous bound methods.
package async

import (
	"context"
	"fmt"
)

// Deferred is a lazily evaluated computation. Nothing runs until Await is
// called; every Await re-runs the computation. A nil Deferred completes
// immediately with the zero value.
type Deferred[T any] func(ctx context.Context) (T, error)

// Just returns a Deferred that completes with v.
func Just[T any](v T) Deferred[T] {
	return func(context.Context) (T, error) { return v, nil }
}

// Fail returns a Deferred that completes with err.
func Fail[T any](err error) Deferred[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// From wraps a context-free function.
func From[T any](fn func() (T, error)) Deferred[T] {
	return func(context.Context) (T, error) { return fn() }
}

// Await runs the computation. It returns ctx.Err() without running it if ctx
// is already done. Panics raised by the computation are returned as errors.
func (d Deferred[T]) Await(ctx context.Context) (v T, err error) {
	if d == nil {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return v, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("async: panic: %v", r)
		}
	}()
	return d(ctx)
}

// Then chains fn onto d. fn only runs when d succeeds.
func Then[T, U any](d Deferred[T], fn func(context.Context, T) (U, error)) Deferred[U] {
	return func(ctx context.Context) (U, error) {
		v, err := d.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(ctx, v)
	}
}

// Catch lets fn recover from a failure of d. fn only runs when d fails.
func Catch[T any](d Deferred[T], fn func(context.Context, error) (T, error)) Deferred[T] {
	return func(ctx context.Context) (T, error) {
		v, err := d.Await(ctx)
		if err != nil {
			return fn(ctx, err)
		}
		return v, nil
	}
}

// Go starts d in a goroutine and returns a channel that receives its outcome
// exactly once.
func Go[T any](ctx context.Context, d Deferred[T]) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := d.Await(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// Result is the outcome of a Deferred delivered by Go.
type Result[T any] struct {
	Value T
	Err   error
}
