package greyhorse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/max-plutonium/greyhorse-sub000/internal/ctxstack"
)

// contextStateKind is the Go realisation of contexts.py's ContextState
// enum, collapsed from a tagged union carrying (count, value) per variant
// into a plain kind tag plus separate count/value fields - Go structs
// don't need a per-variant payload shape the way the Python Enum does.
type contextStateKind uint8

const (
	ctxIdle contextStateKind = iota
	ctxInUse
	ctxApplied
	ctxCancelled
)

// Context is a re-entrant, reference-counted resource scope, grounded on
// contexts.py's SyncContext/AsyncContext. Go has one goroutine execution
// model, so the Python sync/async dual hierarchy collapses to this single
// type - Enter/Exit may block, the caller decides whether to run them on
// their own goroutine.
type Context[T any] struct {
	mu    sync.Mutex
	state contextStateKind
	count int
	value T

	ident   string
	kind    string
	factory func() (T, error)
	destroy func(T)

	onEnter       func(T)
	onExit        func(T, error)
	onNestedEnter func(T)
	onNestedExit  func(T, error)

	finalizers []func() error
	stack      *ctxstack.Stack
}

// NewContext builds a Context whose value is produced by factory on first
// Enter and released by destroy (if non-nil) on final Exit. kind names the
// context for ctxstack bookkeeping - callers of the same logical resource
// type should pass the same kind string.
func NewContext[T any](kind string, factory func() (T, error), destroy func(T), stack *ctxstack.Stack) *Context[T] {
	return &Context[T]{
		ident:   uuid.NewString(),
		kind:    kind,
		factory: factory,
		destroy: destroy,
		stack:   stack,
	}
}

// Ident returns the context's unique identity.
func (c *Context[T]) Ident() string { return c.ident }

// OnEnter installs a hook invoked the first time the context is entered.
func (c *Context[T]) OnEnter(f func(T)) *Context[T] { c.onEnter = f; return c }

// OnExit installs a hook invoked on the final, unnested exit.
func (c *Context[T]) OnExit(f func(T, error)) *Context[T] { c.onExit = f; return c }

// OnNestedEnter installs a hook invoked on every re-entrant Enter after the first.
func (c *Context[T]) OnNestedEnter(f func(T)) *Context[T] { c.onNestedEnter = f; return c }

// OnNestedExit installs a hook invoked on every Exit that merely decrements the count.
func (c *Context[T]) OnNestedExit(f func(T, error)) *Context[T] { c.onNestedExit = f; return c }

// AddFinalizer registers a cleanup to run, in registration order, after
// destroy on the final Exit.
func (c *Context[T]) AddFinalizer(f func() error) { c.finalizers = append(c.finalizers, f) }

// Enter switches the context to InUse, invoking factory on the first call
// and merely incrementing the reference count on nested calls, mirroring
// contexts.py's __enter__ state-match.
func (c *Context[T]) Enter() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ctxIdle:
		value, err := c.factory()
		if err != nil {
			var zero T
			return zero, err
		}
		c.value = value
		c.count = 1
		c.state = ctxInUse
		if c.stack != nil {
			c.stack.Push(c.kind, c.ident)
		}
		if c.onEnter != nil {
			c.onEnter(value)
		}
		return value, nil

	default: // InUse, Applied, Cancelled all accept a nested re-entrance
		c.count++
		c.state = ctxInUse
		if c.onNestedEnter != nil {
			c.onNestedEnter(c.value)
		}
		return c.value, nil
	}
}

// Exit decrements the reference count, or - on the final matching Exit -
// runs destroy and registered finalizers and returns the context to Idle.
// err carries any failure observed by the caller's use of the value, the
// same role as Python's exc_type/exc_value/traceback triple.
func (c *Context[T]) Exit(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ctxIdle {
		return ErrInvalidContextState
	}

	if c.count > 1 {
		c.count--
		if c.onNestedExit != nil {
			c.onNestedExit(c.value, err)
		}
		return nil
	}

	if c.onExit != nil {
		c.onExit(c.value, err)
	}
	if c.stack != nil {
		c.stack.Pop(c.kind, c.ident)
	}
	if c.destroy != nil {
		c.destroy(c.value)
	}
	var first error
	for _, fin := range c.finalizers {
		if ferr := fin(); ferr != nil && first == nil {
			first = ferr
		}
	}
	c.count = 0
	c.state = ctxIdle
	return first
}

// Run is a convenience wrapper enacting the enter/defer-exit idiom in one
// call, the Go analogue of Python's `with` statement body.
func (c *Context[T]) Run(body func(T) error) error {
	value, err := c.Enter()
	if err != nil {
		return err
	}
	bodyErr := body(value)
	exitErr := c.Exit(bodyErr)
	if bodyErr != nil {
		return bodyErr
	}
	return exitErr
}
