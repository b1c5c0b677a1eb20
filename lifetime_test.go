package greyhorse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
)

// TestContainerScopeLadder is scenario S5 and invariant 6: a child
// container's lifetime always strictly exceeds its parent's, and Descend
// walks the ladder one rung at a time.
func TestContainerScopeLadder(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	assert.Equal(t, greyhorse.Root, root.Lifetime())

	rt, err := root.Descend("rt")
	require.NoError(t, err)
	assert.Equal(t, greyhorse.Runtime, rt.Lifetime())
	assert.True(t, rt.Lifetime() > root.Lifetime())

	session, err := rt.DescendTo(greyhorse.Session, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, greyhorse.Session, session.Lifetime())
	assert.True(t, session.Lifetime() > rt.Lifetime())
}

func TestDescendToRejectsShallowerOrEqualTarget(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")

	session, err := root.DescendTo(greyhorse.Session, "sess")
	require.NoError(t, err)

	_, err = session.DescendTo(greyhorse.Runtime, "back")
	assert.Error(t, err, "DescendTo must reject a target at or above the current lifetime")
}

func TestDescendPastStepFails(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	c, err := root.DescendTo(greyhorse.Step, "leaf")
	require.NoError(t, err)

	_, err = c.Descend("")
	assert.Error(t, err, "descending past Step must fail")
}

func TestLifetimeAutoCreateFlags(t *testing.T) {
	assert.True(t, greyhorse.Root.AutoCreate())
	assert.True(t, greyhorse.Runtime.AutoCreate())
	assert.False(t, greyhorse.Component.AutoCreate())
	assert.True(t, greyhorse.Session.AutoCreate())
	assert.False(t, greyhorse.Request.AutoCreate())
	assert.True(t, greyhorse.Action.AutoCreate())
	assert.False(t, greyhorse.Step.AutoCreate())
}

// TestContainerGetResolutionIdentity is invariant 5: resolving the same
// cached key twice from the same container returns the identical value.
func TestContainerGetResolutionIdentity(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	type widget struct{ n int }
	registry.AddFactory("", greyhorse.KeyOf[*widget](), greyhorse.ClassFactory(func() (*widget, error) {
		return &widget{n: 1}, nil
	}, true))

	root := greyhorse.NewRootContainer(context.Background(), registry, "")

	first := greyhorse.Get[*widget](root)
	require.True(t, first.IsOk())
	second := greyhorse.Get[*widget](root)
	require.True(t, second.IsOk())
	assert.Same(t, first.Unwrap(), second.Unwrap(), "a cached factory must resolve to the identical instance within one container")
}

func TestContainerGetMissingResourceFails(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")

	res := greyhorse.Get[int](root)
	require.True(t, res.IsErr())
	err, _ := res.Error()
	assert.Equal(t, greyhorse.ResourceNoSuchResource, err.Kind)
}

// TestContainerTeardownIsLIFO is invariant 7's container-side analogue:
// finalizers run in reverse registration order, and every finalizer runs
// even if an earlier one fails.
func TestContainerTeardownIsLIFO(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")

	var order []int
	root.AddFinalizer(func() error { order = append(order, 1); return nil })
	root.AddFinalizer(func() error { order = append(order, 2); return assert.AnError })
	root.AddFinalizer(func() error { order = append(order, 3); return nil })

	err := root.Close()
	assert.Error(t, err)
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.True(t, root.IsDisposed())
}

func TestContainerCloseClosesChildrenFirst(t *testing.T) {
	registry := greyhorse.NewFactoryRegistry()
	root := greyhorse.NewRootContainer(context.Background(), registry, "")
	child, err := root.Descend("child")
	require.NoError(t, err)

	var order []string
	root.AddFinalizer(func() error { order = append(order, "root"); return nil })
	child.AddFinalizer(func() error { order = append(order, "child"); return nil })

	require.NoError(t, root.Close())
	assert.Equal(t, []string{"child", "root"}, order)
	assert.True(t, child.IsDisposed())
}
