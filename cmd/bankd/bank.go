package main

import (
	"sync"

	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/joeydtaylor/steeze-effects/pkg/relay"
	"go.uber.org/zap"
)

type Deposit struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type Withdraw struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Overdrawn is dispatched when a withdrawal exceeds the balance.
type Overdrawn struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
	Wanted  int64  `json:"wanted"`
}

// Ledger keeps balances in memory.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
	moved    int64
}

func NewLedger() *Ledger { return &Ledger{balances: map[string]int64{}} }

func (l *Ledger) OnDeposit(a Deposit) {
	l.mu.Lock()
	l.balances[a.Account] += a.Amount
	l.mu.Unlock()
}

func (l *Ledger) OnWithdraw(a Withdraw, d effect.Dispatcher) {
	l.mu.Lock()
	bal := l.balances[a.Account]
	ok := bal >= a.Amount
	if ok {
		l.balances[a.Account] = bal - a.Amount
	}
	l.mu.Unlock()
	if !ok {
		d.Dispatch(Overdrawn{Account: a.Account, Balance: bal, Wanted: a.Amount})
	}
}

// OnTransfer moves funds in one step so a queued transfer never sees a
// balance another one already spent.
func (l *Ledger) OnTransfer(a Transfer, d effect.Dispatcher) {
	l.mu.Lock()
	bal := l.balances[a.From]
	ok := bal >= a.Amount
	if ok {
		l.balances[a.From] = bal - a.Amount
		l.balances[a.To] += a.Amount
	}
	l.mu.Unlock()
	if !ok {
		d.Dispatch(Overdrawn{Account: a.From, Balance: bal, Wanted: a.Amount})
	}
}

// CountTransfer reacts to Transfer by explicit type.
func (l *Ledger) CountTransfer(effect.Dispatcher) {
	l.mu.Lock()
	l.moved++
	l.mu.Unlock()
}

func (l *Ledger) Balance(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *Ledger) Transfers() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moved
}

// Notifier reports problems asynchronously.
type Notifier struct {
	Log *zap.Logger
}

func (n *Notifier) OnOverdrawn(a Overdrawn) *effect.Completion {
	return effect.Go(func() error {
		n.Log.Warn("overdrawn",
			zap.String("account", a.Account),
			zap.Int64("balance", a.Balance),
			zap.Int64("wanted", a.Wanted),
		)
		return nil
	})
}

func (n *Notifier) OnRelayFailed(a relay.RelayFailed) {
	n.Log.Error("relay failed", zap.String("type", a.Type), zap.String("topic", a.Topic), zap.String("error", a.Err))
}

// auditTransfer is a free-function effect.
func auditTransfer(log *zap.Logger) func(Transfer, effect.Dispatcher) {
	return func(a Transfer, _ effect.Dispatcher) {
		log.Info("transfer", zap.String("from", a.From), zap.String("to", a.To), zap.Int64("amount", a.Amount))
	}
}
