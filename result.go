package guard

import (
	"errors"
	"fmt"
)

// ErrGuard is the failure payload produced when a predicate does not hold.
var ErrGuard = errors.New("guard: predicate does not hold")

// Result is either a T value or an error.
type Result[T any] struct {
	v   T // valid if err is nil
	err error
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{v: v}
}

// Err returns a failed Result. A nil err is replaced by ErrGuard, so a
// Result built through Err never reports success.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrGuard
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns r's value and error.
func (r Result[T]) Value() (T, error) {
	return r.v, r.err
}

// Err returns r's error, if any.
func (r Result[T]) Err() error {
	return r.err
}

// Fail implements Failable by turning r into Err(err).
func (r *Result[T]) Fail(err error) {
	*r = Err[T](err)
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.v)
}
