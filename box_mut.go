package greyhorse

import "sync"

// MutRefBox is the Mut provider over a value produced by a factory
// function, grounded on boxes.py's MutRefBox. At most one Acquire may be
// outstanding at a time unless AllowMultipleAcquisition was passed.
type MutRefBox[T any] struct {
	mu        sync.Mutex
	basic     basicRefBox
	factory   func() Maybe[T]
	copyMaker func(T) T
	name      string
}

// NewMutRefBox builds a MutRefBox.
func NewMutRefBox[T any](name string, factory func() Maybe[T], opts ...BoxOption) *MutRefBox[T] {
	b := &MutRefBox[T]{factory: factory, copyMaker: identity[T], name: name}
	b.basic.apply(opts)
	return b
}

// WithCopyMaker overrides the default identity copy-maker.
func (b *MutRefBox[T]) WithCopyMaker(f func(T) T) *MutRefBox[T] {
	b.copyMaker = f
	return b
}

func (b *MutRefBox[T]) Acquire() Result[T, *BorrowMutError] {
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

func (b *MutRefBox[T]) Release(T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.release()
}
