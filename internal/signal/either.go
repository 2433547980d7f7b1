package signal

import "fmt"

// Either holds exactly one of a left value of type A or a right value of type B.
type Either[A, B any] struct {
	left    A
	right   B
	isRight bool
}

// Left wraps a left value.
func Left[A, B any](a A) Either[A, B] {
	return Either[A, B]{left: a}
}

// Right wraps a right value.
func Right[A, B any](b B) Either[A, B] {
	return Either[A, B]{right: b, isRight: true}
}

func (e Either[A, B]) IsLeft() bool  { return !e.isRight }
func (e Either[A, B]) IsRight() bool { return e.isRight }

// LeftValue returns the left value and whether e is a left.
func (e Either[A, B]) LeftValue() (A, bool) {
	return e.left, !e.isRight
}

// RightValue returns the right value and whether e is a right.
func (e Either[A, B]) RightValue() (B, bool) {
	return e.right, e.isRight
}

func (e Either[A, B]) String() string {
	if e.isRight {
		return fmt.Sprintf("Right(%v)", e.right)
	}
	return fmt.Sprintf("Left(%v)", e.left)
}
