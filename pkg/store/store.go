// pkg/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrStopped        = errors.New("store: stopped")
	ErrFull           = errors.New("store: queue full")
	ErrAlreadyStarted = errors.New("store: already started")
)

// Envelope is one dispatched action as subscribers see it.
type Envelope struct {
	ID     string
	Type   string
	Action any
	At     time.Time
}

// Store queues actions and runs every matching effect for each one. It
// implements effect.Dispatcher so effects can dispatch follow-ups.
type Store struct {
	log        *zap.Logger
	bufferSize int
	timeout    time.Duration
	registerer prometheus.Registerer
	actions    *actions.Registry
	metrics    *collectors

	queue chan Envelope

	mu       sync.RWMutex
	invokers []*effect.Invoker
	subs     []func(Envelope)
	started  bool
	stopped  bool

	stopCh   chan struct{}
	loopDone chan struct{}
	pending  sync.WaitGroup
	overflow sync.WaitGroup
	runCtx   context.Context
	cancel   context.CancelFunc
}

var _ effect.Dispatcher = (*Store)(nil)

func New(log *zap.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		log:        log.Named("store"),
		bufferSize: DefaultBufferSize,
		registerer: prometheus.DefaultRegisterer,
		actions:    actions.Default,
		stopCh:     make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	m, err := newCollectors(s.registerer)
	if err != nil {
		return nil, fmt.Errorf("store metrics: %w", err)
	}
	s.metrics = m
	s.queue = make(chan Envelope, s.bufferSize)
	return s, nil
}

// Register adds invokers. Safe while running; later actions see them.
func (s *Store) Register(invs ...*effect.Invoker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*effect.Invoker, 0, len(s.invokers)+len(invs))
	next = append(next, s.invokers...)
	for _, inv := range invs {
		if inv != nil {
			next = append(next, inv)
		}
	}
	s.invokers = next
}

// Invokers returns a snapshot of the registered effects.
func (s *Store) Invokers() []*effect.Invoker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*effect.Invoker(nil), s.invokers...)
}

// Subscribe registers fn to observe every action the loop processes. fn runs
// on the loop goroutine before any effect.
func (s *Store) Subscribe(fn func(Envelope)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Start launches the dispatch loop. Actions queued earlier are processed.
func (s *Store) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return ErrStopped
	case s.started:
		return ErrAlreadyStarted
	}
	s.started = true
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go s.loop()
	s.log.Info("store started", zap.Int("buffer", s.bufferSize), zap.Int("effects", len(s.invokers)))
	return nil
}

// Stop refuses new actions, drains the queue and waits for outstanding
// completions until ctx is done.
func (s *Store) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		<-s.loopDone
		s.pending.Wait()
		close(done)
	}()
	defer s.cancel()
	select {
	case <-done:
		s.log.Info("store stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("store stop timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Dispatch enqueues action. When the buffer is full the send is handed to a
// goroutine so effects dispatching from the loop never deadlock it; order
// between such actions is not kept. Dispatch after Stop drops the action.
func (s *Store) Dispatch(action any) {
	env, err := s.enqueue(action, true)
	switch {
	case err == nil:
	case errors.Is(err, ErrFull):
		go func() {
			defer s.overflow.Done()
			select {
			case s.queue <- env:
			case <-s.stopCh:
				s.dropped(env, ErrStopped)
			}
		}()
	default:
		s.dropped(env, err)
	}
}

// TryDispatch enqueues action without blocking.
func (s *Store) TryDispatch(action any) error {
	_, err := s.enqueue(action, false)
	return err
}

// enqueue reserves an overflow sender when spill is set and the queue is
// full. The reservation happens under the read lock, so none starts after Stop.
func (s *Store) enqueue(action any, spill bool) (Envelope, error) {
	env := Envelope{ID: uuid.NewString(), Type: s.typeName(action), Action: action, At: time.Now()}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return env, ErrStopped
	}
	select {
	case s.queue <- env:
		return env, nil
	default:
		if spill {
			s.overflow.Add(1)
		}
		return env, ErrFull
	}
}

func (s *Store) dropped(env Envelope, err error) {
	s.log.Warn("action dropped", zap.String("id", env.ID), zap.String("type", env.Type), zap.Error(err))
}

func (s *Store) loop() {
	defer close(s.loopDone)
	for {
		select {
		case env := <-s.queue:
			s.process(env)
		case <-s.stopCh:
			// overflow senders either land in the queue or give up on stopCh
			s.overflow.Wait()
			for {
				select {
				case env := <-s.queue:
					s.process(env)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) process(env Envelope) {
	s.metrics.dispatched.WithLabelValues(env.Type).Inc()

	s.mu.RLock()
	invs, subs := s.invokers, s.subs
	s.mu.RUnlock()

	for _, fn := range subs {
		s.notify(fn, env)
	}
	for _, inv := range invs {
		if inv.ShouldHandle(env.Action) {
			s.run(inv, env)
		}
	}
}

func (s *Store) notify(fn func(Envelope), env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("subscriber panic", zap.String("id", env.ID), zap.Any("panic", r))
		}
	}()
	fn(env)
}

func (s *Store) run(inv *effect.Invoker, env Envelope) {
	name := inv.Binding().Name()
	s.metrics.invocations.WithLabelValues(name).Inc()
	start := time.Now()

	c, err := s.handle(inv, env.Action)
	if err != nil {
		s.finish(name, env, start, err)
		return
	}
	select {
	case <-c.Done():
		s.finish(name, env, start, c.Err())
		return
	default:
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx := s.runCtx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		s.finish(name, env, start, c.Wait(ctx))
	}()
}

func (s *Store) handle(inv *effect.Invoker, action any) (c *effect.Completion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panic: %v", r)
		}
	}()
	return inv.Handle(action, s), nil
}

func (s *Store) finish(name string, env Envelope, start time.Time, err error) {
	s.metrics.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	s.metrics.failures.WithLabelValues(name).Inc()
	s.log.Error("effect failed",
		zap.String("id", env.ID),
		zap.String("type", env.Type),
		zap.String("effect", name),
		zap.Error(err),
	)
}
