package greyhorse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/max-plutonium/greyhorse-sub000/internal/ctxstack"
)

// Applier is the narrow interface MutContext's children propagate Apply/
// Cancel across, letting a parent MutContext hold children of any element
// type (Context's own type parameter is otherwise invisible once a value
// crosses this boundary, just as it is at a TypeKey).
type Applier interface {
	Apply() error
	Cancel() error
}

// MutContext is a re-entrant resource scope with a commit/rollback
// decision point, grounded on contexts.py's SyncMutContext/AsyncMutContext.
// It embeds the same Idle/InUse/Applied/Cancelled state machine as Context,
// plus apply/cancel transitions and the force_rollback/auto_apply policy
// resolved in SPEC_FULL.md's Design Notes (force_rollback wins outright;
// otherwise an unapplied commit auto-applies on clean Exit when configured).
type MutContext[T any] struct {
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
	onApply       func(T)
	onCancel      func(T)

	finalizers []func() error
	stack      *ctxstack.Stack
	children   []Applier

	forceRollback bool
	autoApply     bool
}

// NewMutContext builds a MutContext. Pass forceRollback=true to always
// cancel on Exit regardless of outcome; pass autoApply=true to apply on a
// clean (err==nil) Exit that never explicitly called Apply.
func NewMutContext[T any](
	kind string,
	factory func() (T, error),
	destroy func(T),
	stack *ctxstack.Stack,
	forceRollback, autoApply bool,
) *MutContext[T] {
	return &MutContext[T]{
		ident:         uuid.NewString(),
		kind:          kind,
		factory:       factory,
		destroy:       destroy,
		stack:         stack,
		forceRollback: forceRollback,
		autoApply:     autoApply,
	}
}

func (c *MutContext[T]) Ident() string { return c.ident }

func (c *MutContext[T]) OnEnter(f func(T)) *MutContext[T]       { c.onEnter = f; return c }
func (c *MutContext[T]) OnExit(f func(T, error)) *MutContext[T] { c.onExit = f; return c }
func (c *MutContext[T]) OnApply(f func(T)) *MutContext[T]       { c.onApply = f; return c }
func (c *MutContext[T]) OnCancel(f func(T)) *MutContext[T]      { c.onCancel = f; return c }

// AddChild registers a mutable child whose Apply/Cancel is propagated
// before this context's own _apply/_cancel runs, mirroring
// contexts.py's mutable_children traversal order.
func (c *MutContext[T]) AddChild(child Applier) { c.children = append(c.children, child) }

// AddFinalizer registers a cleanup to run after destroy on the final Exit.
func (c *MutContext[T]) AddFinalizer(f func() error) { c.finalizers = append(c.finalizers, f) }

func (c *MutContext[T]) Enter() (T, error) {
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

	default:
		c.count++
		c.state = ctxInUse
		if c.onNestedEnter != nil {
			c.onNestedEnter(c.value)
		}
		return c.value, nil
	}
}

// Exit applies the force_rollback/auto_apply policy on the final,
// unnested exit before tearing the context down.
func (c *MutContext[T]) Exit(err error) error {
	c.mu.Lock()

	if c.state == ctxIdle {
		c.mu.Unlock()
		return ErrInvalidContextState
	}

	if c.count > 1 {
		c.count--
		if c.onNestedExit != nil {
			c.onNestedExit(c.value, err)
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.forceRollback || err != nil {
		if cancelErr := c.Cancel(); cancelErr != nil {
			return cancelErr
		}
	} else if c.autoApply && c.state == ctxInUse {
		if applyErr := c.Apply(); applyErr != nil {
			return applyErr
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

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

// Apply commits the context, propagating to mutable children first, per
// contexts.py's _do_apply. Applying an already-Applied context is a no-op;
// applying a Cancelled one is an error.
func (c *MutContext[T]) Apply() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doApply()
}

func (c *MutContext[T]) doApply() error {
	switch c.state {
	case ctxIdle:
		return ErrInvalidContextState
	case ctxCancelled:
		return ErrInvalidContextState
	case ctxApplied:
		return nil
	}
	for _, child := range c.children {
		if err := child.Apply(); err != nil {
			return err
		}
	}
	if c.onApply != nil {
		c.onApply(c.value)
	}
	c.state = ctxApplied
	return nil
}

// Cancel rolls the context back, propagating to mutable children first.
func (c *MutContext[T]) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doCancel()
}

func (c *MutContext[T]) doCancel() error {
	switch c.state {
	case ctxIdle:
		return ErrInvalidContextState
	case ctxApplied:
		return ErrInvalidContextState
	case ctxCancelled:
		return nil
	}
	for _, child := range c.children {
		if err := child.Cancel(); err != nil {
			return err
		}
	}
	if c.onCancel != nil {
		c.onCancel(c.value)
	}
	c.state = ctxCancelled
	return nil
}

// Run is the enter/body/exit convenience wrapper, the Go analogue of
// Python's `with` statement body over a MutContext.
func (c *MutContext[T]) Run(body func(T) error) error {
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
