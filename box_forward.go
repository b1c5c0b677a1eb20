package greyhorse

import "sync"

// ForwardBox is the move-once Forward provider, grounded on boxes.py's
// ForwardBox: Take consumes the held value, leaving the box empty; Drop
// is a no-op (the value was already moved out, there is nothing to
// return). ForwardBox also implements Operator so it can sit at the
// consuming end of a provider chain during component setup.
type ForwardBox[T any] struct {
	mu    sync.Mutex
	value Maybe[T]
	name  string
}

// NewForwardBox builds an empty ForwardBox, or one pre-seeded with an
// initial value when initial.IsJust().
func NewForwardBox[T any](name string, initial Maybe[T]) *ForwardBox[T] {
	return &ForwardBox[T]{value: initial, name: name}
}

// Accept stores value, returning false if a value is already held.
func (b *ForwardBox[T]) Accept(value T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.value.IsJust() {
		return false
	}
	b.value = Just(value)
	return true
}

// Revoke releases and returns the held value, if any, leaving the box empty.
func (b *ForwardBox[T]) Revoke() Maybe[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.value
	b.value = Nothing[T]()
	return v
}

func (b *ForwardBox[T]) Take() Result[T, *ForwardError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.value
	b.value = Nothing[T]()
	return ToResult(v, &ForwardError{Kind: ForwardEmpty, Name: b.name})
}

// Drop is a no-op: the value was already moved out by Take.
func (b *ForwardBox[T]) Drop(T) {}

func (b *ForwardBox[T]) HasValue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value.IsJust()
}

// PermanentForwardBox is a Forward provider whose value survives Take:
// every call returns the same held instance until explicitly Revoke'd,
// grounded on boxes.py's PermanentForwardBox.
type PermanentForwardBox[T any] struct {
	mu    sync.Mutex
	value Maybe[T]
	name  string
}

// NewPermanentForwardBox builds a PermanentForwardBox holding initial.
func NewPermanentForwardBox[T any](name string, initial Maybe[T]) *PermanentForwardBox[T] {
	return &PermanentForwardBox[T]{value: initial, name: name}
}

func (b *PermanentForwardBox[T]) Accept(value T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.value.IsJust() {
		return false
	}
	b.value = Just(value)
	return true
}

func (b *PermanentForwardBox[T]) Revoke() Maybe[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.value
	b.value = Nothing[T]()
	return v
}

func (b *PermanentForwardBox[T]) Take() Result[T, *ForwardError] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ToResult(b.value, &ForwardError{Kind: ForwardEmpty, Name: b.name})
}

// Drop is a no-op: the value is retained for future Take calls.
func (b *PermanentForwardBox[T]) Drop(T) {}

func (b *PermanentForwardBox[T]) HasValue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value.IsJust()
}
