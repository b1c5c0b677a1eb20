package greyhorse

import "sync"

// The four *GenBox types below realise boxes.py's generator-backed
// providers (SharedGenBox, MutGenBox, FactoryGenBox, ForwardGenBox) as the
// explicit init/fini RAII pair called for in the Design Notes, in place of
// Python's yield/send generator protocol: init produces the instance (or
// fails), fini finalises the specific instance that was produced.

// SharedGenBox is a Shared provider whose instances are produced and
// finalised by an explicit init/fini pair instead of a plain factory,
// grounded on boxes.py's SharedGenBox.
type SharedGenBox[T any] struct {
	mu    sync.Mutex
	basic basicRefBox
	init  func() Result[T, *BorrowError]
	fini  func(T) error
	name  string
}

// NewSharedGenBox builds a SharedGenBox. fini may be nil if the produced
// instance needs no finalisation.
func NewSharedGenBox[T any](name string, init func() Result[T, *BorrowError], fini func(T) error, opts ...BoxOption) *SharedGenBox[T] {
	b := &SharedGenBox[T]{init: init, fini: fini, name: name}
	b.basic.apply(opts)
	return b
}

func (b *SharedGenBox[T]) Borrow() Result[T, *BorrowError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryBorrow(b.name); err != nil {
		return Err[T, *BorrowError](err)
	}
	res := b.init()
	if res.IsErr() {
		b.basic.reclaim()
	}
	return res
}

func (b *SharedGenBox[T]) Reclaim(instance T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fini != nil {
		_ = b.fini(instance)
	}
	b.basic.reclaim()
}

// MutGenBox is a Mut provider whose instances are produced and finalised
// by an explicit init/fini pair, grounded on boxes.py's MutGenBox.
type MutGenBox[T any] struct {
	mu    sync.Mutex
	basic basicRefBox
	init  func() Result[T, *BorrowMutError]
	fini  func(T) error
	name  string
}

// NewMutGenBox builds a MutGenBox.
func NewMutGenBox[T any](name string, init func() Result[T, *BorrowMutError], fini func(T) error, opts ...BoxOption) *MutGenBox[T] {
	b := &MutGenBox[T]{init: init, fini: fini, name: name}
	b.basic.apply(opts)
	return b
}

func (b *MutGenBox[T]) Acquire() Result[T, *BorrowMutError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryAcquire(b.name); err != nil {
		return Err[T, *BorrowMutError](err)
	}
	res := b.init()
	if res.IsErr() {
		b.basic.release()
	}
	return res
}

func (b *MutGenBox[T]) Release(instance T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fini != nil {
		_ = b.fini(instance)
	}
	b.basic.release()
}

// FactoryGenBox is a Factory provider whose instances are produced and
// finalised by an explicit init/fini pair, grounded on boxes.py's
// FactoryGenBox. Every Create call is independent - there is no shared
// counter to police, matching Factory's unlimited-creation contract.
type FactoryGenBox[T any] struct {
	init func() Result[T, *FactoryError]
	fini func(T) error
}

// NewFactoryGenBox builds a FactoryGenBox.
func NewFactoryGenBox[T any](init func() Result[T, *FactoryError], fini func(T) error) *FactoryGenBox[T] {
	return &FactoryGenBox[T]{init: init, fini: fini}
}

func (b *FactoryGenBox[T]) Create() Result[T, *FactoryError] {
	return b.init()
}

func (b *FactoryGenBox[T]) Destroy(instance T) {
	if b.fini != nil {
		_ = b.fini(instance)
	}
}

// ForwardGenBox is a Forward provider backed by a single init/fini pair
// invoked at most once, grounded on boxes.py's ForwardGenBox: a second
// Take observes MovedOut, and Drop finalises the instance exactly once.
type ForwardGenBox[T any] struct {
	mu       sync.Mutex
	init     func() Result[T, *ForwardError]
	fini     func(T) error
	movedOut bool
	dropped  bool
	name     string
}

// NewForwardGenBox builds a ForwardGenBox.
func NewForwardGenBox[T any](name string, init func() Result[T, *ForwardError], fini func(T) error) *ForwardGenBox[T] {
	return &ForwardGenBox[T]{init: init, fini: fini, name: name}
}

func (b *ForwardGenBox[T]) Take() Result[T, *ForwardError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.movedOut {
		return Err[T, *ForwardError](&ForwardError{Kind: ForwardMovedOut, Name: b.name})
	}
	res := b.init()
	if res.IsOk() {
		b.movedOut = true
	}
	return res
}

func (b *ForwardGenBox[T]) Drop(instance T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropped || !b.movedOut {
		return
	}
	b.dropped = true
	if b.fini != nil {
		_ = b.fini(instance)
	}
}

func (b *ForwardGenBox[T]) HasValue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.movedOut
}
