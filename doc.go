// Package guard implements early return on a boolean predicate.
//
// The pattern it replaces shows up in almost every function that validates
// its input before doing work:
//
//	func half(n int) guard.Option[int] {
//		if n%2 != 0 {
//			return guard.None[int]()
//		}
//		return guard.Some(n / 2)
//	}
//
// With Guard the check becomes a single statement. The enclosing function
// names its result and defers a catcher that turns a failed predicate into
// the failure value of that result:
//
//	func half(n int) (res guard.Option[int]) {
//		defer guard.Catch(&res)
//
//		guard.Guard(n%2 == 0)
//		return guard.Some(n / 2)
//	}
//
// Guard works from any nested block. The exit always leaves the whole
// function, never just the block.
//
// # Verify
//
// Verify is the variant that does not return. It packages the predicate
// into a dual-outcome value and leaves propagation to the caller:
//
//	ok := guard.Verify(len(xs) > 0) // Some(Unit{}) or None
//	guard.Try(ok)                  // same control flow as guard.Guard(len(xs) > 0)
//
// # Dual-outcome types
//
// Any type whose pointer implements [Failable] can be used with [Catch] and
// [VerifyWith]. [Option] and [Result] are provided. The Go-native shapes
// (T, error) and (T, bool) are covered by [CatchErr] and [CatchOK].
//
// # Static checking and expansion
//
// Misplaced catchers are runtime bugs that the compiler cannot see. The
// guardcheck analyzer and the guardlint command report them, and
// "guardlint fix" rewrites every guard statement into a plain if/return.
package guard
