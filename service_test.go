package greyhorse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
)

func TestServiceBaseLifecycleStateMachine(t *testing.T) {
	svc := greyhorse.NewServiceBase("cache")
	rm := greyhorse.NewResourceManager()

	assert.Equal(t, "Idle", svc.State().String())
	assert.False(t, svc.State().IsActive())

	require.NoError(t, svc.Setup(rm))
	assert.True(t, svc.State().IsActive())
	assert.False(t, svc.State().IsStarted())

	require.NoError(t, svc.Start())
	assert.True(t, svc.State().IsStarted())

	require.NoError(t, svc.Stop())
	assert.True(t, svc.State().IsActive())
	assert.False(t, svc.State().IsStarted())

	require.NoError(t, svc.Teardown())
	assert.False(t, svc.State().IsActive())
}

func TestServiceBaseSetupIsIdempotent(t *testing.T) {
	svc := greyhorse.NewServiceBase("cache")
	key := greyhorse.KeyOf[int]()
	registrations := 0
	svc.Provide("count", key, greyhorse.FnFactory(func(greyhorse.TypeKey) (int, error) {
		registrations++
		return registrations, nil
	}, true))

	rm := greyhorse.NewResourceManager()
	require.NoError(t, svc.Setup(rm))
	require.NoError(t, svc.Setup(rm), "a second Setup call on an already-Active service must be a no-op")
}

func TestServiceBaseStartBeforeSetupFails(t *testing.T) {
	svc := greyhorse.NewServiceBase("cache")
	err := svc.Start()
	assert.ErrorIs(t, err, greyhorse.ErrInvalidContextState)
}

func TestServiceBaseStopWhileIdleIsNoOp(t *testing.T) {
	svc := greyhorse.NewServiceBase("cache")
	assert.NoError(t, svc.Stop())
}

func TestServiceWaiterSignalIsIdempotentAndBroadcast(t *testing.T) {
	w := greyhorse.NewServiceWaiter()

	select {
	case <-w.Done():
		t.Fatal("waiter must not be signalled yet")
	default:
	}

	w.Signal()
	w.Signal()

	<-w.Done()
	<-w.Done()
}

func TestServiceBaseOperateBindsOnSetup(t *testing.T) {
	svc := greyhorse.NewServiceBase("consumer")
	key := greyhorse.SharedKey[int]()
	box := greyhorse.NewSharedRefBox("conn", func() greyhorse.Maybe[int] { return greyhorse.Just(11) })

	rm := greyhorse.NewResourceManager()
	require.NoError(t, rm.RegisterProvider(key, greyhorse.ValueFactory[greyhorse.Shared[int]](box)))

	op := &recordingOp[int]{}
	svc.Operate("conn", key, greyhorse.BindBorrow(key, op))

	require.NoError(t, svc.Setup(rm))
	require.True(t, op.held.IsJust())
	assert.Equal(t, 11, op.held.Unwrap())
}
