// pkg/effect/invoker.go
package effect

import (
	"errors"
	"fmt"
	"reflect"
)

// Owner says what a Binding is bound to: nothing (Static) or one instance.
type Owner interface{ isOwner() }

type staticOwner struct{}

type instanceOwner struct{ v any }

func (staticOwner) isOwner()   {}
func (instanceOwner) isOwner() {}

// Static is the owner of free-function effects.
func Static() Owner { return staticOwner{} }

// Instance binds an instance effect to v. v's dynamic type must be the
// receiver type the method was described on.
func Instance(v any) Owner { return instanceOwner{v: v} }

// Invoker is the canonical form of an effect. It holds no mutable state and
// is safe for concurrent use.
type Invoker struct {
	binding  Binding
	iface    bool
	call     reflect.Value
	args     func(action any, d Dispatcher) []reflect.Value
	complete func(out []reflect.Value) *Completion
}

var errUnvalidated = errors.New("effect: binding was not produced by Validate")

// completedOK is shared by every synchronous effect; a resolved Completion
// is read-only.
var completedOK = Completed(nil)

// Build turns a Binding into an Invoker. The argument selector and result
// adapter are picked here so Handle never branches on the shape.
func Build(b Binding, o Owner) (*Invoker, error) {
	if !b.Valid() || !b.described {
		return nil, errUnvalidated
	}

	call, err := bindOwner(b, o)
	if err != nil {
		return nil, err
	}

	inv := &Invoker{
		binding: b,
		iface:   b.ReactsTo.Kind() == reflect.Interface,
		call:    call,
	}

	actionType := b.ReactsTo
	switch {
	case b.ActionIsParameter && b.DispatcherIsParameter:
		inv.args = func(action any, d Dispatcher) []reflect.Value {
			return []reflect.Value{actionValue(actionType, action), dispatcherValue(d)}
		}
	case b.ActionIsParameter:
		inv.args = func(action any, _ Dispatcher) []reflect.Value {
			return []reflect.Value{actionValue(actionType, action)}
		}
	default:
		inv.args = func(_ any, d Dispatcher) []reflect.Value {
			return []reflect.Value{dispatcherValue(d)}
		}
	}

	if b.Synchronous {
		inv.complete = func([]reflect.Value) *Completion { return completedOK }
	} else {
		inv.complete = func(out []reflect.Value) *Completion {
			c, _ := out[0].Interface().(*Completion)
			return c
		}
	}
	return inv, nil
}

// MustBuild is Build that panics on a mismatched owner.
func MustBuild(b Binding, o Owner) *Invoker {
	inv, err := Build(b, o)
	if err != nil {
		panic(err)
	}
	return inv
}

func bindOwner(b Binding, o Owner) (reflect.Value, error) {
	switch o := o.(type) {
	case staticOwner:
		if b.RequiresInstance {
			return reflect.Value{}, ownerMismatch(b, "instance method bound as static")
		}
		return b.fn, nil
	case instanceOwner:
		if !b.RequiresInstance {
			return reflect.Value{}, ownerMismatch(b, "free function bound to an instance")
		}
		if o.v == nil {
			return reflect.Value{}, ownerMismatch(b, "nil instance")
		}
		rv := reflect.ValueOf(o.v)
		if rv.Type() != b.recv {
			return reflect.Value{}, ownerMismatch(b, fmt.Sprintf("instance is %s, want %s", rv.Type(), b.recv))
		}
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return reflect.Value{}, ownerMismatch(b, "nil instance")
		}
		return rv.Method(b.index), nil
	default:
		return reflect.Value{}, ownerMismatch(b, "no owner")
	}
}

func ownerMismatch(b Binding, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrOwnerInstanceMismatch, b.Name(), detail)
}

func actionValue(t reflect.Type, action any) reflect.Value {
	if action == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(action)
}

func dispatcherValue(d Dispatcher) reflect.Value {
	return reflect.ValueOf(&d).Elem()
}

// ShouldHandle reports whether action's runtime type is the effect's action
// type, or implements it when the action type is an interface.
func (inv *Invoker) ShouldHandle(action any) bool {
	if action == nil {
		return false
	}
	t := reflect.TypeOf(action)
	if t == inv.binding.ReactsTo {
		return true
	}
	return inv.iface && t.Implements(inv.binding.ReactsTo)
}

// Handle calls the wrapped method with the arguments its shape declares.
// Synchronous methods yield an already-resolved Completion; asynchronous
// ones return theirs untouched. Callers must only pass actions for which
// ShouldHandle is true.
func (inv *Invoker) Handle(action any, d Dispatcher) *Completion {
	return inv.complete(inv.call.Call(inv.args(action, d)))
}

// Binding returns the descriptor the invoker was built from.
func (inv *Invoker) Binding() Binding { return inv.binding }

func (inv *Invoker) String() string {
	return fmt.Sprintf("%s reacts to %s %s", inv.binding.Name(), inv.binding.ReactsTo, inv.binding.Shape)
}
