// Package foundation provides small generic types shared by the engine packages.
package foundation

import "fmt"

// Result is the outcome of an operation that either produced a T or failed with E.
// Decoders of persisted records return it so callers can fall back to a default
// without juggling (value, error) pairs.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok wraps a successful value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err wraps a failure.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// IsOk reports whether the Result holds a value.
func (r Result[T, E]) IsOk() bool {
	return r.isOk
}

// IsErr reports whether the Result holds an error.
func (r Result[T, E]) IsErr() bool {
	return !r.isOk
}

// Unwrap returns the value and panics on an Err result.
func (r Result[T, E]) Unwrap() T {
	if !r.isOk {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value, or fallback when the Result is an Err.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.isOk {
		return r.value
	}
	return fallback
}

// UnwrapErr returns the error and panics on an Ok result.
func (r Result[T, E]) UnwrapErr() E {
	if r.isOk {
		panic("called UnwrapErr on Ok result")
	}
	return r.err
}

// ToTuple converts the Result back to the (value, error) convention.
func (r Result[T, E]) ToTuple() (T, E) {
	if r.isOk {
		var zeroErr E
		return r.value, zeroErr
	}
	var zeroVal T
	return zeroVal, r.err
}

// Map transforms the value of an Ok result and passes errors through.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if r.isOk {
		return Ok[U, E](fn(r.value))
	}
	return Err[U, E](r.err)
}

// FromTuple builds a Result from the (value, error) convention.
func FromTuple[T any, E error](value T, err E) Result[T, E] {
	if any(err) != nil {
		return Err[T, E](err)
	}
	return Ok[T, E](value)
}
