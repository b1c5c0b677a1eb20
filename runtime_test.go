package greyhorse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
	"github.com/max-plutonium/greyhorse-sub000/internal/testutil"
)

func newTestRuntime() *greyhorse.AppRuntime {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	return greyhorse.NewAppRuntime(root)
}

func TestAppRuntimeStartStopIsRefCounted(t *testing.T) {
	rt := newTestRuntime()

	rt.Start()
	rt.Start()
	assert.True(t, rt.Active())

	rt.Stop()
	assert.True(t, rt.Active(), "the loop must survive while any Start call is still unbalanced by a Stop")

	rt.Stop()
	assert.False(t, rt.Active())
}

func TestAppRuntimeRunSyncRoundTrips(t *testing.T) {
	rt := newTestRuntime()
	rt.Start()
	defer rt.Stop()

	v, err := rt.RunSync(func(context.Context) (any, error) { return 99, nil })
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestAppRuntimeRunSyncPropagatesJobError(t *testing.T) {
	rt := newTestRuntime()
	rt.Start()
	defer rt.Stop()

	boom := errors.New("boom")
	_, err := rt.RunSync(func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestAppRuntimeRunSyncBeforeStartFails(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.RunSync(func(context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, greyhorse.ErrRuntimeNotStarted)
}

func TestAppRuntimeRunAsyncDeliversResult(t *testing.T) {
	rt := newTestRuntime()
	rt.Start()
	defer rt.Stop()

	ch := rt.RunAsync(context.Background(), func(context.Context) (any, error) { return "done", nil })
	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.Equal(t, "done", res.Value)
	case <-time.After(time.Second):
		t.Fatal("RunAsync did not deliver a result in time")
	}
}

func TestAppRuntimeRunAsyncBeforeStartReportsError(t *testing.T) {
	rt := newTestRuntime()
	ch := rt.RunAsync(context.Background(), func(context.Context) (any, error) { return nil, nil })
	res := <-ch
	assert.ErrorIs(t, res.Err, greyhorse.ErrRuntimeNotStarted)
}

func TestApplicationRunStopsOnServiceSignal(t *testing.T) {
	svc := testutil.NewCounterService("counter", 1)
	conf := testutil.SimpleComponentConf("cache", "counter")
	rootConf := greyhorse.ModuleConf{Name: "root", Enabled: true, Components: []greyhorse.ComponentConf{conf}}

	asm := greyhorse.NewAssembler(
		map[string]greyhorse.ServiceFactory{"counter": testutil.FixedServiceFactory(svc)},
		map[string]greyhorse.ControllerFactory{},
	)

	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	app, err := greyhorse.LoadApplication(asm, root, rootConf)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		svc.Waiter().Signal()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, app.Run(ctx))
	assert.False(t, svc.Started, "Run must have stopped the service before returning")
}

func TestApplicationRunHonoursContextCancellation(t *testing.T) {
	conf := greyhorse.ModuleConf{Name: "root", Enabled: true}
	asm := greyhorse.NewAssembler(map[string]greyhorse.ServiceFactory{}, map[string]greyhorse.ControllerFactory{})

	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	app, err := greyhorse.LoadApplication(asm, root, conf)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, app.Run(ctx))
}
