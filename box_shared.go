package greyhorse

import "sync"

// SharedRefBox is the Shared provider over a value produced by a factory
// function, grounded on boxes.py's SharedRefBox. Each Borrow invokes the
// factory, applies the mutual-exclusion rule, then passes the value
// through copyMaker before returning it.
type SharedRefBox[T any] struct {
	mu        sync.Mutex
	basic     basicRefBox
	factory   func() Maybe[T]
	copyMaker func(T) T
	name      string
}

// NewSharedRefBox builds a SharedRefBox. factory may return Nothing to
// signal the underlying value is not (yet) available.
func NewSharedRefBox[T any](name string, factory func() Maybe[T], opts ...BoxOption) *SharedRefBox[T] {
	b := &SharedRefBox[T]{factory: factory, copyMaker: identity[T], name: name}
	b.basic.apply(opts)
	return b
}

// WithCopyMaker overrides the default identity copy-maker.
func (b *SharedRefBox[T]) WithCopyMaker(f func(T) T) *SharedRefBox[T] {
	b.copyMaker = f
	return b
}

func (b *SharedRefBox[T]) Borrow() Result[T, *BorrowError] {
	b.mu.Lock()
	defer b.mu.Unlock()

	maybeVal := b.factory()
	if maybeVal.IsNothing() {
		return Err[T, *BorrowError](&BorrowError{Kind: BorrowEmpty, Name: b.name})
	}
	if err := b.basic.tryBorrow(b.name); err != nil {
		return Err[T, *BorrowError](err)
	}
	return Ok[T, *BorrowError](b.copyMaker(maybeVal.Unwrap()))
}

func (b *SharedRefBox[T]) Reclaim(T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.reclaim()
}

// Acquire lets a plain SharedRefBox also satisfy Mut[T]: it applies the
// same acquire-side counter rules as a Mut box (failing while borrows are
// outstanding unless overridden), then returns a copy of the factory's
// value, or Empty when the factory yields nothing. It exists so
// SharedRefBox alone can satisfy code written against Mut[T] in tests
// that probe the mutual-exclusion contract from the shared side only.
func (b *SharedRefBox[T]) Acquire() Result[T, *BorrowMutError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.basic.tryAcquire(b.name); err != nil {
		return Err[T, *BorrowMutError](err)
	}
	maybeVal := b.factory()
	if maybeVal.IsNothing() {
		b.basic.release()
		return Err[T, *BorrowMutError](&BorrowMutError{Kind: BorrowMutEmpty, Name: b.name})
	}
	return Ok[T, *BorrowMutError](b.copyMaker(maybeVal.Unwrap()))
}

func (b *SharedRefBox[T]) Release(T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.release()
}
