// pkg/effect/method.go
package effect

import (
	"fmt"
	"reflect"
)

// Dispatcher is the handle an effect uses to emit further actions. The binder
// treats it as opaque.
type Dispatcher interface {
	Dispatch(action any)
}

var (
	dispatcherType = reflect.TypeOf((*Dispatcher)(nil)).Elem()
	completionType = reflect.TypeOf((*Completion)(nil))
)

// Method describes a candidate effect: either a free function (Static) or a
// method looked up on a receiver type. Params never include the receiver.
type Method struct {
	Owner   reflect.Type
	Name    string
	Static  bool
	Params  []reflect.Type
	Results []reflect.Type

	fn        reflect.Value // Static only
	index     int           // index into Owner's method set
	described bool
}

// DescribeFunc describes a free function. fn must be a non-nil func value.
func DescribeFunc(name string, fn any) (Method, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return Method{}, fmt.Errorf("effect: %q is not a function (got %T)", name, fn)
	}
	t := v.Type()
	return Method{
		Name:      name,
		Static:    true,
		Params:    ins(t, 0),
		Results:   outs(t),
		fn:        v,
		index:     -1,
		described: true,
	}, nil
}

// DescribeMethod describes the exported method name in owner's method set.
// Pointer-receiver methods need owner to be the pointer type.
func DescribeMethod(owner reflect.Type, name string) (Method, error) {
	if owner == nil {
		return Method{}, fmt.Errorf("effect: nil owner type for method %q", name)
	}
	if owner.Kind() == reflect.Interface {
		return Method{}, fmt.Errorf("effect: owner %s is an interface; describe the concrete type", owner)
	}
	m, ok := owner.MethodByName(name)
	if !ok {
		return Method{}, fmt.Errorf("effect: %s has no exported method %q", owner, name)
	}
	return Method{
		Owner:     owner,
		Name:      name,
		Params:    ins(m.Type, 1), // In(0) is the receiver
		Results:   outs(m.Type),
		index:     m.Index,
		described: true,
	}, nil
}

func ins(t reflect.Type, skip int) []reflect.Type {
	out := make([]reflect.Type, 0, t.NumIn()-skip)
	for i := skip; i < t.NumIn(); i++ {
		out = append(out, t.In(i))
	}
	return out
}

func outs(t reflect.Type) []reflect.Type {
	out := make([]reflect.Type, 0, t.NumOut())
	for i := 0; i < t.NumOut(); i++ {
		out = append(out, t.Out(i))
	}
	return out
}
