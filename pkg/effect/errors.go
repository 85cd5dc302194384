// pkg/effect/errors.go
package effect

import (
	"errors"
	"fmt"
	"reflect"
)

// Validation failure kinds. Match with errors.Is.
var (
	ErrMissingActionParameter        = errors.New("effect: missing action parameter")
	ErrStaticMethodArityMismatch     = errors.New("effect: static method must declare (action, Dispatcher)")
	ErrUnsupportedStaticExplicitType = errors.New("effect: static method cannot use an explicit reacts-to type")
	ErrExplicitTypeArityMismatch     = errors.New("effect: method with explicit reacts-to type must declare only (Dispatcher)")
	ErrParameterCountExceeded        = errors.New("effect: method declares more than (action, Dispatcher)")
	ErrDispatchHandleNotLast         = errors.New("effect: last parameter must be effect.Dispatcher")
	ErrUnsupportedReturnShape        = errors.New("effect: method must return nothing or *effect.Completion")
)

// ErrOwnerInstanceMismatch is returned by Build when the owner does not fit
// the binding. It is a caller bug, not a data problem.
var ErrOwnerInstanceMismatch = errors.New("effect: owner instance mismatch")

// ValidationError carries enough context for a registration diagnostic.
type ValidationError struct {
	Kind   error
	Owner  reflect.Type
	Method string
	Detail string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s (%s)", e.Kind, qualifiedName(e.Owner, e.Method))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, owner reflect.Type, method, format string, args ...any) error {
	return &ValidationError{
		Kind:   kind,
		Owner:  owner,
		Method: method,
		Detail: fmt.Sprintf(format, args...),
	}
}

func qualifiedName(owner reflect.Type, method string) string {
	if owner == nil {
		return method
	}
	return owner.String() + "." + method
}
