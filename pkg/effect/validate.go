// pkg/effect/validate.go
package effect

import "reflect"

// Validate checks m against the effect signature grammar and returns its
// Binding. reactsTo is the optional explicit action type; when nil the action
// type is the first declared parameter. owner overrides m.Owner in
// diagnostics when non-nil.
//
// Rules run in order and the first failure wins.
func Validate(owner reflect.Type, m Method, reactsTo reflect.Type) (Binding, error) {
	if owner == nil {
		owner = m.Owner
	}
	name := m.Name
	explicit := reactsTo != nil
	n := len(m.Params)

	if !explicit && n == 0 {
		return Binding{}, invalid(ErrMissingActionParameter, owner, name,
			"declare the action as the first parameter or supply a reacts-to type")
	}

	if m.Static {
		if explicit {
			return Binding{}, invalid(ErrUnsupportedStaticExplicitType, owner, name,
				"reacts-to %s", reactsTo)
		}
		if n != 2 {
			return Binding{}, invalid(ErrStaticMethodArityMismatch, owner, name,
				"declares %d parameter(s)", n)
		}
	}

	if explicit && n != 1 {
		return Binding{}, invalid(ErrExplicitTypeArityMismatch, owner, name,
			"declares %d parameter(s)", n)
	}
	if !explicit && n > 2 {
		return Binding{}, invalid(ErrParameterCountExceeded, owner, name,
			"declares %d parameter(s)", n)
	}

	wantsDispatcher := (explicit && n >= 1) || (!explicit && n >= 2)
	if wantsDispatcher {
		if last := m.Params[n-1]; last != dispatcherType {
			return Binding{}, invalid(ErrDispatchHandleNotLast, owner, name,
				"last parameter is %s", last)
		}
	}

	var sync bool
	switch {
	case len(m.Results) == 0:
		sync = true
	case len(m.Results) == 1 && m.Results[0] == completionType:
		sync = false
	default:
		return Binding{}, invalid(ErrUnsupportedReturnShape, owner, name,
			"returns %v", m.Results)
	}

	b := Binding{
		ReactsTo:              reactsTo,
		ActionIsParameter:     !explicit,
		DispatcherIsParameter: wantsDispatcher,
		Synchronous:           sync,
		RequiresInstance:      !m.Static,
		Owner:                 owner,
		Method:                name,
		recv:                  m.Owner,
		fn:                    m.fn,
		index:                 m.index,
		described:             m.described,
	}
	if !explicit {
		b.ReactsTo = m.Params[0]
	}
	b.Shape = shapeOf(m.Static, b.ActionIsParameter, b.DispatcherIsParameter, sync)
	return b, nil
}
