package greyhorse

import (
	"sync"

	"github.com/max-plutonium/greyhorse-sub000/internal/ctxstack"
)

// SharedCtxRefBox is a Shared provider whose borrowed value is a fresh
// *Context[T] per call rather than a plain T, grounded on boxes.py's
// SharedCtxRefBox. Each successful Borrow hands the caller a context they
// must themselves Enter/Exit; Reclaim only adjusts the shared counter, the
// context's own Exit is the caller's responsibility.
type SharedCtxRefBox[T any] struct {
	mu      sync.Mutex
	basic   basicRefBox
	factory func() (T, error)
	destroy func(T)
	kind    string
	name    string
	stack   *ctxstack.Stack
}

// NewSharedCtxRefBox builds a SharedCtxRefBox.
func NewSharedCtxRefBox[T any](name, kind string, factory func() (T, error), destroy func(T), stack *ctxstack.Stack, opts ...BoxOption) *SharedCtxRefBox[T] {
	b := &SharedCtxRefBox[T]{factory: factory, destroy: destroy, kind: kind, name: name, stack: stack}
	b.basic.apply(opts)
	return b
}

func (b *SharedCtxRefBox[T]) Borrow() Result[*Context[T], *BorrowError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryBorrow(b.name); err != nil {
		return Err[*Context[T], *BorrowError](err)
	}
	return Ok[*Context[T], *BorrowError](NewContext(b.kind, b.factory, b.destroy, b.stack))
}

func (b *SharedCtxRefBox[T]) Reclaim(*Context[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.reclaim()
}

// MutCtxRefBox is a Mut provider whose acquired value is a fresh
// *MutContext[T] per call, grounded on boxes.py's MutCtxRefBox.
type MutCtxRefBox[T any] struct {
	mu            sync.Mutex
	basic         basicRefBox
	factory       func() (T, error)
	destroy       func(T)
	kind          string
	name          string
	stack         *ctxstack.Stack
	forceRollback bool
	autoApply     bool
}

// NewMutCtxRefBox builds a MutCtxRefBox.
func NewMutCtxRefBox[T any](name, kind string, factory func() (T, error), destroy func(T), stack *ctxstack.Stack, forceRollback, autoApply bool, opts ...BoxOption) *MutCtxRefBox[T] {
	b := &MutCtxRefBox[T]{
		factory: factory, destroy: destroy, kind: kind, name: name, stack: stack,
		forceRollback: forceRollback, autoApply: autoApply,
	}
	b.basic.apply(opts)
	return b
}

func (b *MutCtxRefBox[T]) Acquire() Result[*MutContext[T], *BorrowMutError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryAcquire(b.name); err != nil {
		return Err[*MutContext[T], *BorrowMutError](err)
	}
	ctx := NewMutContext(b.kind, b.factory, b.destroy, b.stack, b.forceRollback, b.autoApply)
	return Ok[*MutContext[T], *BorrowMutError](ctx)
}

func (b *MutCtxRefBox[T]) Release(*MutContext[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.release()
}

// OwnerCtxRefBox is a combined Shared/Mut provider over two independent
// context kinds sharing one pair of ownership counters, grounded on
// boxes.py's OwnerCtxRefBox.
type OwnerCtxRefBox[TS, TM any] struct {
	mu    sync.Mutex
	basic basicRefBox

	sharedFactory func() (TS, error)
	sharedDestroy func(TS)
	sharedKind    string

	mutFactory func() (TM, error)
	mutDestroy func(TM)
	mutKind    string

	name          string
	stack         *ctxstack.Stack
	forceRollback bool
	autoApply     bool
}

// NewOwnerCtxRefBox builds an OwnerCtxRefBox.
func NewOwnerCtxRefBox[TS, TM any](
	name, sharedKind string, sharedFactory func() (TS, error), sharedDestroy func(TS),
	mutKind string, mutFactory func() (TM, error), mutDestroy func(TM),
	stack *ctxstack.Stack, forceRollback, autoApply bool, opts ...BoxOption,
) *OwnerCtxRefBox[TS, TM] {
	b := &OwnerCtxRefBox[TS, TM]{
		sharedFactory: sharedFactory, sharedDestroy: sharedDestroy, sharedKind: sharedKind,
		mutFactory: mutFactory, mutDestroy: mutDestroy, mutKind: mutKind,
		name: name, stack: stack, forceRollback: forceRollback, autoApply: autoApply,
	}
	b.basic.apply(opts)
	return b
}

func (b *OwnerCtxRefBox[TS, TM]) Borrow() Result[*Context[TS], *BorrowError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryBorrow(b.name); err != nil {
		return Err[*Context[TS], *BorrowError](err)
	}
	return Ok[*Context[TS], *BorrowError](NewContext(b.sharedKind, b.sharedFactory, b.sharedDestroy, b.stack))
}

func (b *OwnerCtxRefBox[TS, TM]) Reclaim(*Context[TS]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.reclaim()
}

func (b *OwnerCtxRefBox[TS, TM]) Acquire() Result[*MutContext[TM], *BorrowMutError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryAcquire(b.name); err != nil {
		return Err[*MutContext[TM], *BorrowMutError](err)
	}
	ctx := NewMutContext(b.mutKind, b.mutFactory, b.mutDestroy, b.stack, b.forceRollback, b.autoApply)
	return Ok[*MutContext[TM], *BorrowMutError](ctx)
}

func (b *OwnerCtxRefBox[TS, TM]) Release(*MutContext[TM]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.release()
}
