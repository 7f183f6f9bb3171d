// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

// Unit is the empty result type, used where an effect produces no
// meaningful value.
type Unit struct{}

// Never is an uninhabited type. An Eff[Never, A, R] is an effect that
// cannot fail — its error channel has no values.
type Never struct{ _ [0]func() }

// Option represents an optional value: Some(v) or None.
type Option[A any] struct {
	present bool
	value   A
}

// Some wraps a present value.
func Some[A any](v A) Option[A] { return Option[A]{present: true, value: v} }

// None returns the absent value for A.
func None[A any]() Option[A] { return Option[A]{} }

// IsSome reports whether the option holds a value.
func (o Option[A]) IsSome() bool { return o.present }

// IsNone reports whether the option is empty.
func (o Option[A]) IsNone() bool { return !o.present }

// Get returns the held value and true, or the zero value and false.
func (o Option[A]) Get() (A, bool) {
	if o.present {
		return o.value, true
	}
	var zero A
	return zero, false
}

// MapOption transforms the value inside a present Option.
func MapOption[A, B any](o Option[A], f func(A) B) Option[B] {
	if !o.present {
		return None[B]()
	}
	return Some(f(o.value))
}

// Either represents a value that is either Left (error) or Right (success).
// It is the representation of the fiber exit value in [AwaitFiber] and
// the onExit callback of [UnsafeRun]: the error channel and success
// channel of a completed (non-interrupted) effect.
type Either[E, A any] struct {
	isRight bool
	left    E
	right   A
}

// Left creates a Left (error) value.
func Left[E, A any](e E) Either[E, A] {
	return Either[E, A]{isRight: false, left: e}
}

// Right creates a Right (success) value.
func Right[E, A any](a A) Either[E, A] {
	return Either[E, A]{isRight: true, right: a}
}

// IsRight returns true if this is a Right value.
func (e Either[E, A]) IsRight() bool { return e.isRight }

// IsLeft returns true if this is a Left value.
func (e Either[E, A]) IsLeft() bool { return !e.isRight }

// GetRight returns the Right value and true, or zero and false.
func (e Either[E, A]) GetRight() (A, bool) {
	if e.isRight {
		return e.right, true
	}
	var zero A
	return zero, false
}

// GetLeft returns the Left value and true, or zero and false.
func (e Either[E, A]) GetLeft() (E, bool) {
	if !e.isRight {
		return e.left, true
	}
	var zero E
	return zero, false
}

// MatchEither pattern matches on the Either, calling onLeft or onRight.
func MatchEither[E, A, T any](e Either[E, A], onLeft func(E) T, onRight func(A) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// MapEither applies a function to the Right value.
func MapEither[E, A, B any](e Either[E, A], f func(A) B) Either[E, B] {
	if e.isRight {
		return Right[E](f(e.right))
	}
	return Left[E, B](e.left)
}

// FlatMapEither sequences two Either computations.
func FlatMapEither[E, A, B any](e Either[E, A], f func(A) Either[E, B]) Either[E, B] {
	if e.isRight {
		return f(e.right)
	}
	return Left[E, B](e.left)
}

// MapLeftEither applies a function to the Left value.
func MapLeftEither[E, F, A any](e Either[E, A], f func(E) F) Either[F, A] {
	if e.isRight {
		return Right[F](e.right)
	}
	return Left[F, A](f(e.left))
}

// fiberStatus is the lifecycle state of a [Fiber].
type fiberStatus uint8

const (
	statusPending fiberStatus = iota
	statusCompleted
	statusAborted
)
