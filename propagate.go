package guard

import "fmt"

// Abort is the panic value that carries a failure from a propagating call
// (Guard, Try, TryResult, TryErr, TryOK) to the deferred catcher of the
// enclosing function.
//
// Seeing an Abort crash a program means the function that propagated did
// not defer a catcher.
type Abort struct {
	Err error
}

func (a *Abort) Error() string {
	return fmt.Sprintf("guard: early return escaped its function, no deferred catcher: %v", a.Err)
}

func (a *Abort) Unwrap() error {
	return a.Err
}

func abort(err error) {
	panic(&Abort{Err: err})
}

// Try unwraps o, or returns early from the enclosing function when o is
// empty.
func Try[T any](o Option[T]) T {
	v, ok := o.Get()
	if !ok {
		abort(ErrGuard)
	}
	return v
}

// TryResult unwraps r, or returns early from the enclosing function with
// r's error.
func TryResult[T any](r Result[T]) T {
	v, err := r.Value()
	if err != nil {
		abort(err)
	}
	return v
}

// TryErr returns early from the enclosing function when err is not nil.
func TryErr(err error) {
	if err != nil {
		abort(err)
	}
}

// TryOK unwraps a comma-ok pair, or returns early from the enclosing
// function when ok is false.
func TryOK[T any](v T, ok bool) T {
	if !ok {
		abort(ErrGuard)
	}
	return v
}

// Catch must be deferred directly by a function whose named result is res:
//
//	defer guard.Catch(&res)
//
// When a propagating call fails inside that function, Catch stores the
// failure instance into res and the function returns normally. Any other
// panic is re-raised.
//
// A recovering function deferred after Catch runs first and swallows the
// failure; defer it before Catch instead.
func Catch(res Failable) {
	if err, ok := caught(recover()); ok {
		res.Fail(err)
	}
}

// CatchErr is Catch for functions returning an error. The failure is
// stored into *errp.
func CatchErr(errp *error) {
	if err, ok := caught(recover()); ok {
		*errp = err
	}
}

// CatchOK is Catch for comma-ok functions. *okp is set to false on
// failure.
func CatchOK(okp *bool) {
	if _, ok := caught(recover()); ok {
		*okp = false
	}
}

func caught(r any) (error, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.(*Abort)
	if !ok {
		panic(r)
	}
	return a.Err, true
}
