// pkg/effect/completion.go
package effect

import (
	"context"
	"sync"
)

// Completion is the uniform result of Invoker.Handle. It is resolved exactly
// once; later resolutions are ignored. A nil *Completion behaves as already
// completed without error.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// NewCompletion returns a pending completion and the func that resolves it.
func NewCompletion() (*Completion, func(error)) {
	c := &Completion{done: make(chan struct{})}
	return c, c.resolve
}

// Completed returns a completion that is already resolved with err.
func Completed(err error) *Completion {
	c := &Completion{done: closedDone, err: err}
	c.once.Do(func() {})
	return c
}

// Go runs fn on its own goroutine and resolves the completion with its error.
func Go(fn func() error) *Completion {
	c, resolve := NewCompletion()
	go func() { resolve(fn()) }()
	return c
}

func (c *Completion) resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed once the completion is resolved.
func (c *Completion) Done() <-chan struct{} {
	if c == nil {
		return closedDone
	}
	return c.done
}

// Err returns the resolved error, or nil while still pending.
func (c *Completion) Err() error {
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the completion resolves or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
