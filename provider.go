package greyhorse

// Shared is the "borrow" ownership contract from spec §3/§4.C: callers may
// hold any number of concurrent shared references, mutually exclusive with
// an outstanding Mut acquisition unless explicitly overridden.
type Shared[T any] interface {
	Borrow() Result[T, *BorrowError]
	Reclaim(T)
}

// Mut is the "acquire" ownership contract: at most one outstanding
// acquisition at a time, mutually exclusive with outstanding Shared
// borrows unless explicitly overridden.
type Mut[T any] interface {
	Acquire() Result[T, *BorrowMutError]
	Release(T)
}

// Factory is the unlimited-creation ownership contract: every Create call
// produces a fresh, independently owned instance.
type Factory[T any] interface {
	Create() Result[T, *FactoryError]
	Destroy(T)
}

// Forward is the move-once ownership contract: a value may be taken out
// exactly one time; a second Take on a ForwardBox observes Empty. A
// PermanentForwardBox instead returns its held value on every Take.
type Forward[T any] interface {
	Take() Result[T, *ForwardError]
	Drop(T)
	// HasValue reports whether a value is currently held, without
	// consuming it - the Go realisation of ForwardBox.__bool__.
	HasValue() bool
}

// Operator is a sink that consumes a value produced by a Provider during
// component setup and releases it during teardown (spec §3/§4.F).
type Operator[T any] interface {
	// Accept stores value, returning false if a value is already held.
	Accept(T) bool
	// Revoke releases and returns the held value, if any.
	Revoke() Maybe[T]
}

// basicRefBox implements the paired borrow/acquire counters and override
// flags shared by every Shared/Mut box variant, grounded on boxes.py's
// _BasicRefBox. It is embedded by value, not by pointer, so callers must
// take the address of the owning box before calling its methods - every
// exported box constructor in this package returns a pointer for exactly
// this reason.
type basicRefBox struct {
	sharedCt int
	acqCt    int

	allowBorrowWhenAcquired bool
	allowAcqWhenBorrowed    bool
	allowMultipleAcquire    bool
}

// BoxOption configures the override flags on a ref-box provider.
type BoxOption func(*basicRefBox)

// AllowBorrowWhenAcquired permits Shared.Borrow while a Mut acquisition is outstanding.
func AllowBorrowWhenAcquired() BoxOption {
	return func(b *basicRefBox) { b.allowBorrowWhenAcquired = true }
}

// AllowAcquireWhenBorrowed permits Mut.Acquire while Shared borrows are outstanding.
func AllowAcquireWhenBorrowed() BoxOption {
	return func(b *basicRefBox) { b.allowAcqWhenBorrowed = true }
}

// AllowMultipleAcquisition permits more than one outstanding Mut.Acquire.
func AllowMultipleAcquisition() BoxOption {
	return func(b *basicRefBox) { b.allowMultipleAcquire = true }
}

func (b *basicRefBox) apply(opts []BoxOption) {
	for _, opt := range opts {
		opt(b)
	}
}

// tryBorrow enforces the Shared-side mutual exclusion rule and, on
// success, increments the shared counter.
func (b *basicRefBox) tryBorrow(name string) *BorrowError {
	if !b.allowBorrowWhenAcquired && b.acqCt > 0 {
		return &BorrowError{Kind: BorrowAsMutable, Name: name}
	}
	b.sharedCt++
	return nil
}

func (b *basicRefBox) reclaim() {
	if b.sharedCt > 0 {
		b.sharedCt--
	}
}

// tryAcquire enforces the Mut-side mutual exclusion rules and, on
// success, increments the acquire counter.
func (b *basicRefBox) tryAcquire(name string) *BorrowMutError {
	if !b.allowMultipleAcquire && b.acqCt > 0 {
		return &BorrowMutError{Kind: BorrowMutAlreadyBorrowed, Name: name}
	}
	if !b.allowAcqWhenBorrowed && b.sharedCt > 0 {
		return &BorrowMutError{Kind: BorrowMutAsImmutable, Name: name}
	}
	b.acqCt++
	return nil
}

func (b *basicRefBox) release() {
	if b.acqCt > 0 {
		b.acqCt--
	}
}

// identity is the default copy_maker: Go values already copy by assignment
// and there is no generic deep-clone without reflection, so ref-box
// constructors default to returning the stored value unchanged. Pass a
// real cloning function via the copy-maker parameter where a defensive
// copy is actually required.
func identity[T any](v T) T { return v }
