package effect_test

import (
	"errors"
	"reflect"
	"sync"

	"github.com/joeydtaylor/steeze-effects/pkg/effect"
)

type Deposit struct{ Amount int }
type Withdraw struct{ Amount int }
type Transfer struct{ From, To string }

type Notice interface{ Text() string }

type alert struct{ msg string }

func (a alert) Text() string { return a.msg }

type stubDispatcher struct {
	mu      sync.Mutex
	actions []any
}

func (s *stubDispatcher) Dispatch(action any) {
	s.mu.Lock()
	s.actions = append(s.actions, action)
	s.mu.Unlock()
}

// call records one invocation of a host method.
type call struct {
	method     string
	action     any
	dispatcher effect.Dispatcher
}

var errBoom = errors.New("boom")

type accountHost struct {
	mu    sync.Mutex
	calls []call
	fail  error
}

func (h *accountHost) record(method string, action any, d effect.Dispatcher) {
	h.mu.Lock()
	h.calls = append(h.calls, call{method: method, action: action, dispatcher: d})
	h.mu.Unlock()
}

func (h *accountHost) Calls() []call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]call(nil), h.calls...)
}

func (h *accountHost) OnDepositAsync(a Deposit, d effect.Dispatcher) *effect.Completion {
	h.record("OnDepositAsync", a, d)
	return effect.Completed(h.fail)
}

func (h *accountHost) OnDepositSync(a Deposit, d effect.Dispatcher) {
	h.record("OnDepositSync", a, d)
}

func (h *accountHost) OnTransferAsync(a Transfer) *effect.Completion {
	h.record("OnTransferAsync", a, nil)
	return effect.Completed(h.fail)
}

func (h *accountHost) OnTransferSync(a Transfer) {
	h.record("OnTransferSync", a, nil)
}

func (h *accountHost) OnWithdrawAsync(d effect.Dispatcher) *effect.Completion {
	h.record("OnWithdrawAsync", nil, d)
	return effect.Completed(h.fail)
}

func (h *accountHost) OnWithdrawSync(d effect.Dispatcher) {
	h.record("OnWithdrawSync", nil, d)
}

func (h *accountHost) OnNotice(n Notice) {
	h.record("OnNotice", n, nil)
}

func (h *accountHost) Panics(a Deposit) {
	panic("host exploded")
}

// Malformed shapes.

func (h *accountHost) NoParams() {}
func (h *accountHost) ThreeParams(a Deposit, n int, d effect.Dispatcher) {}
func (h *accountHost) DispatcherFirst(d effect.Dispatcher, a Deposit) {}
func (h *accountHost) ReturnsError(a Deposit) error { return nil }
func (h *accountHost) ReturnsTwo(a Deposit) (*effect.Completion, error) { return nil, nil }
func (h *accountHost) ExplicitWithAction(a Deposit, d effect.Dispatcher) {}
func (h *accountHost) ExplicitNotDispatcher(a Deposit) {}
func (h *accountHost) ExplicitNoParams() {}

var hostType = reflect.TypeOf(&accountHost{})

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
