package guard

import "fmt"

// Unit is the marker payload carried by a successful verification.
type Unit struct{}

// Option is either a T value or nothing.
type Option[T any] struct {
	v     T
	valid bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{v: v, valid: true}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) IsSome() bool { return o.valid }
func (o Option[T]) IsNone() bool { return !o.valid }

// Get returns the held value and whether there was one.
func (o Option[T]) Get() (T, bool) {
	return o.v, o.valid
}

// OrElse returns the held value, or def if o is empty.
func (o Option[T]) OrElse(def T) T {
	if !o.valid {
		return def
	}
	return o.v
}

// Fail implements Failable by emptying o. The error is dropped: an Option
// has nowhere to keep it.
func (o *Option[T]) Fail(error) {
	*o = None[T]()
}

func (o Option[T]) String() string {
	if !o.valid {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.v)
}
