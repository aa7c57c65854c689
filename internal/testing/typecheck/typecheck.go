// Package typecheck enforces boolean contracts on values produced by callers
// whose results are not statically typed (script callbacks, exported values).
package typecheck

import (
	"errors"
	"fmt"
)

// ErrTypeConstraint is matched by every TypeConstraintError.
var ErrTypeConstraint = errors.New("type constraint violated")

// TypeConstraintError reports that a boolean-valued contract received something else.
type TypeConstraintError struct {
	What  string
	Value any
}

func (e *TypeConstraintError) Error() string {
	return fmt.Sprintf("%s must be a bool, got %T", e.What, e.Value)
}

// Is lets errors.Is(err, ErrTypeConstraint) match.
func (e *TypeConstraintError) Is(target error) bool {
	return target == ErrTypeConstraint
}

// Bool returns v as a bool. Anything that is not a genuine bool, including
// truthy/falsy values such as 1 or "", is rejected.
func Bool(what string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &TypeConstraintError{What: what, Value: v}
	}

	return b, nil
}
