// Package interceptor provides an ordered chain of callbacks with stable
// registration identities. Chains are the mutable extension point of the
// HTTP client pipeline: request interceptors run forward over the outgoing
// request, response interceptors run in reverse over the delivered response.
package interceptor

import (
	"context"
	"slices"
	"sync"
)

// Handler transforms an in-flight value. It receives the value produced by
// the previous handler and returns the value handed to the next one;
// returning the input unchanged is the identity. An error aborts the
// traversal and propagates to the caller as-is.
type Handler[T any] func(ctx context.Context, v T) (T, error)

type entry[T any] struct {
	id      int64
	handler Handler[T]
}

// Chain is an ordered registry of handlers. Ids grow monotonically and are
// never reused, even after Eject, so a handler's identity survives registry
// mutation. The zero value is ready to use and safe for concurrent use.
type Chain[T any] struct {
	mu      sync.Mutex
	nextID  int64
	entries []entry[T]
}

// New creates an empty chain.
func New[T any]() *Chain[T] {
	return &Chain[T]{}
}

// Use registers h at the end of the chain and returns its id.
func (c *Chain[T]) Use(h Handler[T]) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.entries = append(c.entries, entry[T]{id: c.nextID, handler: h})
	return c.nextID
}

// Eject removes the handler registered under id. Unknown ids are a no-op,
// so Eject is idempotent. Removal preserves the order of the remaining
// handlers.
func (c *Chain[T]) Eject(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].id == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Size returns the number of currently registered handlers.
func (c *Chain[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RunForward invokes the registered handlers strictly sequentially in
// registration order, threading seed through each one.
func (c *Chain[T]) RunForward(ctx context.Context, seed T) (T, error) {
	return c.run(ctx, seed, false)
}

// RunReverse invokes the registered handlers strictly sequentially in the
// exact reverse of registration order.
func (c *Chain[T]) RunReverse(ctx context.Context, seed T) (T, error) {
	return c.run(ctx, seed, true)
}

// run walks a snapshot of the registered ids. Each id is re-resolved
// against the live registry immediately before its handler is invoked, so
// a handler ejected mid-traversal is skipped if its turn has not yet come,
// while one already running completes normally. Handlers registered after
// the snapshot is taken are not visited.
func (c *Chain[T]) run(ctx context.Context, seed T, reverse bool) (T, error) {
	c.mu.Lock()
	ids := make([]int64, len(c.entries))
	for i := range c.entries {
		ids[i] = c.entries[i].id
	}
	c.mu.Unlock()

	if reverse {
		slices.Reverse(ids)
	}

	v := seed
	for _, id := range ids {
		h, ok := c.lookup(id)
		if !ok {
			continue
		}
		next, err := h(ctx, v)
		if err != nil {
			return v, err
		}
		v = next
	}
	return v, nil
}

func (c *Chain[T]) lookup(id int64) (Handler[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].id == id {
			return c.entries[i].handler, true
		}
	}
	return nil, false
}
