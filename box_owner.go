package greyhorse

import "sync"

// OwnerRefBox is a combined Shared/Mut provider over two independently
// produced views of one owned resource - TS for shared borrows, TM for
// the mutable acquisition - grounded on boxes.py's OwnerRefBox. The two
// sides still share one pair of counters, so a Borrow and an Acquire
// remain mutually exclusive by default.
type OwnerRefBox[TS, TM any] struct {
	mu           sync.Mutex
	basic        basicRefBox
	factory      func() Maybe[TS]
	mutFactory   func() Maybe[TM]
	copyMaker    func(TS) TS
	mutCopyMaker func(TM) TM
	name         string
}

// NewOwnerRefBox builds an OwnerRefBox.
func NewOwnerRefBox[TS, TM any](
	name string,
	factory func() Maybe[TS],
	mutFactory func() Maybe[TM],
	opts ...BoxOption,
) *OwnerRefBox[TS, TM] {
	b := &OwnerRefBox[TS, TM]{
		factory:      factory,
		mutFactory:   mutFactory,
		copyMaker:    identity[TS],
		mutCopyMaker: identity[TM],
		name:         name,
	}
	b.basic.apply(opts)
	return b
}

// WithCopyMaker overrides the shared-side copy-maker.
func (b *OwnerRefBox[TS, TM]) WithCopyMaker(f func(TS) TS) *OwnerRefBox[TS, TM] {
	b.copyMaker = f
	return b
}

// WithMutCopyMaker overrides the mutable-side copy-maker.
func (b *OwnerRefBox[TS, TM]) WithMutCopyMaker(f func(TM) TM) *OwnerRefBox[TS, TM] {
	b.mutCopyMaker = f
	return b
}

func (b *OwnerRefBox[TS, TM]) Borrow() Result[TS, *BorrowError] {
	b.mu.Lock()
	defer b.mu.Unlock()

	maybeVal := b.factory()
	if maybeVal.IsNothing() {
		return Err[TS, *BorrowError](&BorrowError{Kind: BorrowEmpty, Name: b.name})
	}
	if err := b.basic.tryBorrow(b.name); err != nil {
		return Err[TS, *BorrowError](err)
	}
	return Ok[TS, *BorrowError](b.copyMaker(maybeVal.Unwrap()))
}

func (b *OwnerRefBox[TS, TM]) Reclaim(TS) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.reclaim()
}

func (b *OwnerRefBox[TS, TM]) Acquire() Result[TM, *BorrowMutError] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.basic.tryAcquire(b.name); err != nil {
		return Err[TM, *BorrowMutError](err)
	}
	maybeVal := b.mutFactory()
	if maybeVal.IsNothing() {
		b.basic.release()
		return Err[TM, *BorrowMutError](&BorrowMutError{Kind: BorrowMutEmpty, Name: b.name})
	}
	return Ok[TM, *BorrowMutError](b.mutCopyMaker(maybeVal.Unwrap()))
}

func (b *OwnerRefBox[TS, TM]) Release(TM) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.basic.release()
}
