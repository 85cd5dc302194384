// pkg/effect/binding.go
package effect

import "reflect"

// Shape tags the eight legal effect signatures.
type Shape uint8

const (
	ShapeInvalid Shape = iota

	StaticActionDispatcherAsync // func(A, Dispatcher) *Completion
	StaticActionDispatcherSync  // func(A, Dispatcher)
	ActionDispatcherAsync       // (h) M(A, Dispatcher) *Completion
	ActionDispatcherSync        // (h) M(A, Dispatcher)
	ActionAsync                 // (h) M(A) *Completion
	ActionSync                  // (h) M(A)
	DispatcherAsync             // (h) M(Dispatcher) *Completion, type supplied out of band
	DispatcherSync              // (h) M(Dispatcher)
)

var shapeNames = [...]string{
	ShapeInvalid:                "invalid",
	StaticActionDispatcherAsync: "static(action,dispatcher)->completion",
	StaticActionDispatcherSync:  "static(action,dispatcher)",
	ActionDispatcherAsync:       "(action,dispatcher)->completion",
	ActionDispatcherSync:        "(action,dispatcher)",
	ActionAsync:                 "(action)->completion",
	ActionSync:                  "(action)",
	DispatcherAsync:             "(dispatcher)->completion",
	DispatcherSync:              "(dispatcher)",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "invalid"
}

func shapeOf(static, action, dispatcher, sync bool) Shape {
	switch {
	case static && action && dispatcher:
		if sync {
			return StaticActionDispatcherSync
		}
		return StaticActionDispatcherAsync
	case static:
		return ShapeInvalid
	case action && dispatcher:
		if sync {
			return ActionDispatcherSync
		}
		return ActionDispatcherAsync
	case action:
		if sync {
			return ActionSync
		}
		return ActionAsync
	case dispatcher:
		if sync {
			return DispatcherSync
		}
		return DispatcherAsync
	}
	return ShapeInvalid
}

// Binding is the validated description of one effect. Only Validate
// produces a usable Binding; the zero value is rejected by Build.
type Binding struct {
	ReactsTo              reflect.Type
	ActionIsParameter     bool
	DispatcherIsParameter bool
	Synchronous           bool
	RequiresInstance      bool
	Shape                 Shape

	// Owner and Method are kept for diagnostics.
	Owner  reflect.Type
	Method string

	recv      reflect.Type
	fn        reflect.Value
	index     int
	described bool
}

// Valid reports whether b came out of a successful Validate.
func (b Binding) Valid() bool { return b.Shape != ShapeInvalid }

// Name is the owner-qualified method name.
func (b Binding) Name() string { return qualifiedName(b.Owner, b.Method) }
