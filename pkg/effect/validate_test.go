package effect_test

import (
	"reflect"
	"testing"

	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describe(t *testing.T, name string) effect.Method {
	t.Helper()
	m, err := effect.DescribeMethod(hostType, name)
	require.NoError(t, err)
	return m
}

func describeFunc(t *testing.T, fn any) effect.Method {
	t.Helper()
	m, err := effect.DescribeFunc("handler", fn)
	require.NoError(t, err)
	return m
}

func TestValidateLegalShapes(t *testing.T) {
	withdraw := typeOf[Withdraw]()

	cases := []struct {
		name       string
		method     func(t *testing.T) effect.Method
		reactsTo   reflect.Type
		wantType   reflect.Type
		action     bool
		dispatcher bool
		sync       bool
		instance   bool
		shape      effect.Shape
	}{
		{
			name: "static action dispatcher async",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(Deposit, effect.Dispatcher) *effect.Completion { return nil })
			},
			wantType: typeOf[Deposit](), action: true, dispatcher: true,
			shape: effect.StaticActionDispatcherAsync,
		},
		{
			name: "static action dispatcher sync",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(Deposit, effect.Dispatcher) {})
			},
			wantType: typeOf[Deposit](), action: true, dispatcher: true, sync: true,
			shape: effect.StaticActionDispatcherSync,
		},
		{
			name:     "instance action dispatcher async",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnDepositAsync") },
			wantType: typeOf[Deposit](), action: true, dispatcher: true, instance: true,
			shape: effect.ActionDispatcherAsync,
		},
		{
			name:     "instance action dispatcher sync",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnDepositSync") },
			wantType: typeOf[Deposit](), action: true, dispatcher: true, sync: true, instance: true,
			shape: effect.ActionDispatcherSync,
		},
		{
			name:     "instance action async",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnTransferAsync") },
			wantType: typeOf[Transfer](), action: true, instance: true,
			shape: effect.ActionAsync,
		},
		{
			name:     "instance action sync",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnTransferSync") },
			wantType: typeOf[Transfer](), action: true, sync: true, instance: true,
			shape: effect.ActionSync,
		},
		{
			name:     "instance dispatcher async",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnWithdrawAsync") },
			reactsTo: withdraw,
			wantType: withdraw, dispatcher: true, instance: true,
			shape: effect.DispatcherAsync,
		},
		{
			name:     "instance dispatcher sync",
			method:   func(t *testing.T) effect.Method { return describe(t, "OnWithdrawSync") },
			reactsTo: withdraw,
			wantType: withdraw, dispatcher: true, sync: true, instance: true,
			shape: effect.DispatcherSync,
		},
	}

	seen := map[effect.Shape]bool{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := effect.Validate(nil, tc.method(t), tc.reactsTo)
			require.NoError(t, err)
			assert.True(t, b.Valid())
			assert.Equal(t, tc.wantType, b.ReactsTo)
			assert.Equal(t, tc.action, b.ActionIsParameter)
			assert.Equal(t, tc.dispatcher, b.DispatcherIsParameter)
			assert.Equal(t, tc.sync, b.Synchronous)
			assert.Equal(t, tc.instance, b.RequiresInstance)
			assert.Equal(t, tc.shape, b.Shape)
		})
		seen[tc.shape] = true
	}
	assert.Len(t, seen, 8)
}

func TestValidateRejectsMalformed(t *testing.T) {
	deposit := typeOf[Deposit]()

	cases := []struct {
		name     string
		method   func(t *testing.T) effect.Method
		reactsTo reflect.Type
		want     error
	}{
		{
			name:   "no parameters and no explicit type",
			method: func(t *testing.T) effect.Method { return describe(t, "NoParams") },
			want:   effect.ErrMissingActionParameter,
		},
		{
			name: "static with no parameters",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func() {})
			},
			want: effect.ErrMissingActionParameter,
		},
		{
			name: "static with one parameter",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(Deposit) *effect.Completion { return nil })
			},
			want: effect.ErrStaticMethodArityMismatch,
		},
		{
			name: "static with three parameters",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(Deposit, int, effect.Dispatcher) {})
			},
			want: effect.ErrStaticMethodArityMismatch,
		},
		{
			name: "static with explicit type",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(effect.Dispatcher) {})
			},
			reactsTo: deposit,
			want:     effect.ErrUnsupportedStaticExplicitType,
		},
		{
			name:     "explicit type with action parameter",
			method:   func(t *testing.T) effect.Method { return describe(t, "ExplicitWithAction") },
			reactsTo: deposit,
			want:     effect.ErrExplicitTypeArityMismatch,
		},
		{
			name:     "explicit type with no parameters",
			method:   func(t *testing.T) effect.Method { return describe(t, "ExplicitNoParams") },
			reactsTo: deposit,
			want:     effect.ErrExplicitTypeArityMismatch,
		},
		{
			name:     "explicit type with non-dispatcher parameter",
			method:   func(t *testing.T) effect.Method { return describe(t, "ExplicitNotDispatcher") },
			reactsTo: deposit,
			want:     effect.ErrDispatchHandleNotLast,
		},
		{
			name:   "instance with three parameters",
			method: func(t *testing.T) effect.Method { return describe(t, "ThreeParams") },
			want:   effect.ErrParameterCountExceeded,
		},
		{
			name:   "dispatcher before action",
			method: func(t *testing.T) effect.Method { return describe(t, "DispatcherFirst") },
			want:   effect.ErrDispatchHandleNotLast,
		},
		{
			name: "static with dispatcher first",
			method: func(t *testing.T) effect.Method {
				return describeFunc(t, func(effect.Dispatcher, Deposit) {})
			},
			want: effect.ErrDispatchHandleNotLast,
		},
		{
			name:   "returns error",
			method: func(t *testing.T) effect.Method { return describe(t, "ReturnsError") },
			want:   effect.ErrUnsupportedReturnShape,
		},
		{
			name:   "returns two values",
			method: func(t *testing.T) effect.Method { return describe(t, "ReturnsTwo") },
			want:   effect.ErrUnsupportedReturnShape,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := effect.Validate(nil, tc.method(t), tc.reactsTo)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, b.Valid())
			assert.Equal(t, effect.Binding{}, b)

			var ve *effect.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.want, ve.Kind)
		})
	}
}

func TestValidateFirstFailureWins(t *testing.T) {
	// Static, explicit type and a bad return: rule 2 fires before rule 5.
	m := describeFunc(t, func(effect.Dispatcher) error { return nil })
	_, err := effect.Validate(nil, m, typeOf[Deposit]())
	assert.ErrorIs(t, err, effect.ErrUnsupportedStaticExplicitType)

	// Wrong arity and a bad return: arity wins.
	m = describeFunc(t, func(Deposit) error { return nil })
	_, err = effect.Validate(nil, m, nil)
	assert.ErrorIs(t, err, effect.ErrStaticMethodArityMismatch)
}

func TestValidationErrorNamesOwnerAndMethod(t *testing.T) {
	_, err := effect.Validate(nil, describe(t, "ReturnsError"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "*effect_test.accountHost.ReturnsError")
	assert.Contains(t, err.Error(), "returns [error]")

	// An explicit owner overrides the described one in diagnostics.
	_, err = effect.Validate(reflect.TypeOf(Deposit{}), describe(t, "ReturnsError"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effect_test.Deposit.ReturnsError")
}

func TestValidateHandBuiltDescription(t *testing.T) {
	// Validation only needs the declared shape.
	m := effect.Method{
		Name:   "OnDeposit",
		Static: true,
		Params: []reflect.Type{typeOf[Deposit]()},
	}
	_, err := effect.Validate(nil, m, nil)
	assert.ErrorIs(t, err, effect.ErrStaticMethodArityMismatch)

	m.Params = append(m.Params, typeOf[effect.Dispatcher]())
	b, err := effect.Validate(nil, m, nil)
	require.NoError(t, err)
	assert.Equal(t, effect.StaticActionDispatcherSync, b.Shape)

	// ... but it cannot be built: there is nothing to call.
	_, err = effect.Build(b, effect.Static())
	assert.Error(t, err)
}

func TestDescribeErrors(t *testing.T) {
	_, err := effect.DescribeFunc("nope", 42)
	assert.Error(t, err)

	var nilFn func(Deposit, effect.Dispatcher)
	_, err = effect.DescribeFunc("nil", nilFn)
	assert.Error(t, err)

	_, err = effect.DescribeMethod(hostType, "Missing")
	assert.Error(t, err)

	_, err = effect.DescribeMethod(typeOf[Notice](), "Text")
	assert.Error(t, err)

	_, err = effect.DescribeMethod(nil, "Anything")
	assert.Error(t, err)
}

func TestDescribeMethodSkipsReceiver(t *testing.T) {
	m := describe(t, "OnDepositAsync")
	assert.Equal(t, hostType, m.Owner)
	assert.False(t, m.Static)
	require.Len(t, m.Params, 2)
	assert.Equal(t, typeOf[Deposit](), m.Params[0])
	assert.Equal(t, typeOf[effect.Dispatcher](), m.Params[1])
}
