package resilience

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Group deduplicates concurrent calls for the same key. Callers that arrive
// while a call is in flight share its result.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// PanicError is returned to every caller of a shared call whose function
// panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("shared call panicked: %v", e.Value)
}

// Do runs fn on the calling goroutine. A panic in fn is reported to waiting
// callers as a *PanicError and re-raised on the caller that ran it.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}

	g.run(key, c, fn, true)
	return c.val, c.err, false
}

// DoContext runs fn once per key under a context detached from any single
// caller's cancellation. Each caller stops waiting when its own ctx is done;
// the shared call keeps running for the others. fn is expected to bound its
// own runtime.
func (g *Group[T]) DoContext(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error, bool) {
	c, leader := g.join(key)
	if leader {
		detached := context.WithoutCancel(ctx)
		go g.run(key, c, func() (T, error) { return fn(detached) }, false)
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), !leader
	}
}

func (g *Group[T]) join(key string) (*call[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		return c, false
	}

	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *Group[T]) run(key string, c *call[T], fn func() (T, error), repanic bool) {
	var recovered any
	defer func() {
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)

		if recovered != nil && repanic {
			panic(recovered)
		}
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = r
				var zero T
				c.val = zero
				c.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		c.val, c.err = fn()
	}()
}
