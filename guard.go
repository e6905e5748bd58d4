package guard

// Failable is the capability of a dual-outcome type to be turned into its
// failure instance. It is implemented by pointers: Fail overwrites the
// pointed-to value with the failure carrying err.
//
// A user type becomes guardable by implementing it:
//
//	type Maybe struct{ v int; ok bool }
//
//	func (m *Maybe) Fail(error) { *m = Maybe{} }
type Failable interface {
	Fail(err error)
}

// Guard returns early from the enclosing function when cond is false.
//
// The enclosing function must name its result and defer one of the
// catchers before calling Guard:
//
//	func f(n int) (res guard.Option[int]) {
//		defer guard.Catch(&res)
//		guard.Guard(n > 0)
//		return guard.Some(n)
//	}
//
// On a false cond the catcher stores the failure instance into res and the
// function returns. On a true cond Guard does nothing. cond is evaluated
// exactly once, by the caller, as any other argument.
func Guard(cond bool) {
	Try(Verify(cond))
}

// Verify packages cond into an Option without returning: Some(Unit{})
// when cond holds, None otherwise.
func Verify(cond bool) Option[Unit] {
	if !cond {
		return None[Unit]()
	}
	return Some(Unit{})
}

// VerifyResult is Verify for Result: Ok(Unit{}) or Err(ErrGuard).
func VerifyResult(cond bool) Result[Unit] {
	if !cond {
		return Err[Unit](ErrGuard)
	}
	return Ok(Unit{})
}

// VerifyErr is Verify for the (T, error) convention: nil or ErrGuard.
func VerifyErr(cond bool) error {
	if !cond {
		return ErrGuard
	}
	return nil
}

// VerifyWith returns ok when cond holds and the failure instance of R
// otherwise. It serves dual-outcome types whose success variant cannot be
// built from Unit, so the caller spells the success value out.
func VerifyWith[R any, P interface {
	*R
	Failable
}](cond bool, ok R) R {
	if !cond {
		P(&ok).Fail(ErrGuard)
	}
	return ok
}
