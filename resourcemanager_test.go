package greyhorse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
)

type recordingOp[T any] struct {
	held    greyhorse.Maybe[T]
	revoked []T
}

func (o *recordingOp[T]) Accept(v T) bool {
	if o.held.IsJust() {
		return false
	}
	o.held = greyhorse.Just(v)
	return true
}

func (o *recordingOp[T]) Revoke() greyhorse.Maybe[T] {
	v := o.held
	o.held = greyhorse.Nothing[T]()
	if v.IsJust() {
		o.revoked = append(o.revoked, v.Unwrap())
	}
	return v
}

func TestResourceManagerResolvesDependencyChain(t *testing.T) {
	rm := greyhorse.NewResourceManager()

	baseKey := greyhorse.KeyOf[int]()
	derivedKey := greyhorse.KeyOf[string]()

	require.NoError(t, rm.RegisterProvider(baseKey, greyhorse.ValueFactory(7)))
	require.NoError(t, rm.RegisterProvider(derivedKey, greyhorse.FnFactory(func(greyhorse.TypeKey) (string, error) {
		return "derived", nil
	}, true), baseKey))

	v, err := rm.Resolve(derivedKey)
	require.NoError(t, err)
	assert.Equal(t, "derived", v)
	assert.True(t, rm.Graph().HasNode(baseKey))
}

func TestResourceManagerNoSuchDependency(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	missing := greyhorse.KeyOf[int]().Named("missing")
	derivedKey := greyhorse.KeyOf[string]()

	require.NoError(t, rm.RegisterProvider(derivedKey, greyhorse.FnFactory(func(greyhorse.TypeKey) (string, error) {
		return "x", nil
	}, false), missing))

	_, err := rm.Resolve(derivedKey)
	require.Error(t, err)
	var rerr *greyhorse.ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, greyhorse.ResourceNoSuchDependency, rerr.Kind)
}

func TestResourceManagerRejectsCycle(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	a := greyhorse.KeyOf[int]().Named("a")
	b := greyhorse.KeyOf[int]().Named("b")

	require.NoError(t, rm.RegisterProvider(a, greyhorse.ValueFactory(1), b))
	err := rm.RegisterProvider(b, greyhorse.ValueFactory(2), a)
	assert.Error(t, err, "a cyclic dependency declaration must be rejected")
}

func TestResourceManagerForwardNeverCached(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	calls := 0
	key := greyhorse.ForwardKey[string]()
	require.NoError(t, rm.RegisterProvider(key, greyhorse.FnFactory(func(greyhorse.TypeKey) (greyhorse.Forward[string], error) {
		calls++
		return greyhorse.NewForwardBox("tok", greyhorse.Just("v")), nil
	}, true)))

	_, err := rm.Resolve(key)
	require.NoError(t, err)
	_, err = rm.Resolve(key)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a Forward-kind key must never be served from cache even if its factory requests caching")
}

// TestResourceManagerBindBorrowAndTeardown is invariant 7: after Teardown
// the provided-resources bookkeeping is empty and the graph's own cache is
// cleared.
func TestResourceManagerBindBorrowAndTeardown(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	key := greyhorse.SharedKey[int]()
	box := greyhorse.NewSharedRefBox("conn", func() greyhorse.Maybe[int] { return greyhorse.Just(9) })
	require.NoError(t, rm.RegisterProvider(key, greyhorse.ValueFactory[greyhorse.Shared[int]](box)))

	op := &recordingOp[int]{}
	bind := greyhorse.BindBorrow(key, op)
	require.NoError(t, bind(rm))

	assert.Equal(t, 1, rm.ProvidedCount())
	require.True(t, op.held.IsJust())
	assert.Equal(t, 9, op.held.Unwrap())

	require.NoError(t, rm.Teardown())

	assert.Equal(t, 0, rm.ProvidedCount(), "teardown must leave the provided-resources map empty")
	assert.Equal(t, 0, rm.Graph().Size(), "teardown must clear the resource graph's cached providers")
	assert.Len(t, op.revoked, 1)
	assert.Equal(t, 9, op.revoked[0])
}

func TestResourceManagerBindAcquire(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	key := greyhorse.MutKey[int]()
	box := greyhorse.NewMutRefBox("counter", func() greyhorse.Maybe[int] { return greyhorse.Just(3) })
	require.NoError(t, rm.RegisterProvider(key, greyhorse.ValueFactory[greyhorse.Mut[int]](box)))

	op := &recordingOp[int]{}
	require.NoError(t, greyhorse.BindAcquire(key, op)(rm))

	assert.Equal(t, 1, rm.ProvidedCount())
	require.NoError(t, rm.Teardown())
	assert.Equal(t, 0, rm.ProvidedCount())
}

func TestBindBorrowWrongKindFails(t *testing.T) {
	rm := greyhorse.NewResourceManager()
	key := greyhorse.SharedKey[int]()
	require.NoError(t, rm.RegisterProvider(key, greyhorse.ValueFactory(5)))

	op := &recordingOp[int]{}
	err := greyhorse.BindBorrow(key, op)(rm)
	assert.Error(t, err, "binding a plain int as Shared[int] must fail the type assertion")
}
