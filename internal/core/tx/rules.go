package tx

import (
	"errors"

	"txprop/internal/core/apperror"
)

// Matcher reports whether err belongs to an error kind.
type Matcher func(err error) bool

// ErrorIs matches errors that wrap target.
func ErrorIs(target error) Matcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// ErrorAs matches errors whose chain contains a value of type T.
func ErrorAs[T error]() Matcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// AppErrorCode matches *apperror.AppError values carrying code.
func AppErrorCode(code string) Matcher {
	return func(err error) bool {
		appErr, ok := apperror.AsAppError(err)
		return ok && appErr.Code == code
	}
}

// RollbackRules decide whether an error returned by a unit of work rolls the
// transaction back.
//
// RollbackOn is checked first, then NoRollbackOn. Errors matching neither
// roll back.
type RollbackRules struct {
	RollbackOn   []Matcher
	NoRollbackOn []Matcher
}

// DefaultRollbackRules roll back on every error.
func DefaultRollbackRules() RollbackRules {
	return RollbackRules{}
}

// NoRollbackFor returns rules that commit on errors wrapping any of targets.
func NoRollbackFor(targets ...error) RollbackRules {
	var r RollbackRules
	for _, t := range targets {
		r.NoRollbackOn = append(r.NoRollbackOn, ErrorIs(t))
	}
	return r
}

// ShouldRollback reports whether err must roll the transaction back.
func (r RollbackRules) ShouldRollback(err error) bool {
	if err == nil {
		return false
	}
	for _, m := range r.RollbackOn {
		if m(err) {
			return true
		}
	}
	for _, m := range r.NoRollbackOn {
		if m(err) {
			return false
		}
	}
	return true
}
