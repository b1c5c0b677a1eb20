package greyhorse_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
	"github.com/max-plutonium/greyhorse-sub000/internal/ctxstack"
)

// TestContextReentranceRefCounts is invariant 4: re-entering a Context
// merely increments its reference count; only the final Exit tears it down.
func TestContextReentranceRefCounts(t *testing.T) {
	built := 0
	destroyed := 0
	ctx := greyhorse.NewContext(
		"conn",
		func() (int, error) { built++; return built, nil },
		func(int) { destroyed++ },
		ctxstack.New(),
	)

	v1, err := ctx.Enter()
	require.NoError(t, err)
	v2, err := ctx.Enter()
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "a re-entrant Enter returns the same value, not a fresh one")
	assert.Equal(t, 1, built)

	require.NoError(t, ctx.Exit(nil))
	assert.Equal(t, 0, destroyed, "destroy must not run until the outermost Exit")

	require.NoError(t, ctx.Exit(nil))
	assert.Equal(t, 1, destroyed)
}

func TestContextExitWithoutEnterIsInvalid(t *testing.T) {
	ctx := greyhorse.NewContext("conn", func() (int, error) { return 1, nil }, nil, ctxstack.New())
	err := ctx.Exit(nil)
	assert.ErrorIs(t, err, greyhorse.ErrInvalidContextState)
}

func TestContextPushesAndPopsStack(t *testing.T) {
	stack := ctxstack.New()
	ctx := greyhorse.NewContext("session", func() (int, error) { return 1, nil }, nil, stack)

	_, err := ctx.Enter()
	require.NoError(t, err)
	ident, ok := stack.Last("session")
	require.True(t, ok)
	assert.Equal(t, ctx.Ident(), ident)

	require.NoError(t, ctx.Exit(nil))
	_, ok = stack.Last("session")
	assert.False(t, ok)
}

// TestMutContextAutoApplyOnCleanExit is invariant 8 and scenario S4: a
// mutating context configured with autoApply commits on a clean Exit when
// Apply was never called explicitly.
func TestMutContextAutoApplyOnCleanExit(t *testing.T) {
	applied := false
	ctx := greyhorse.NewMutContext(
		"tx",
		func() (int, error) { return 1, nil },
		nil,
		ctxstack.New(),
		false, // forceRollback
		true,  // autoApply
	).OnApply(func(int) { applied = true })

	_, err := ctx.Enter()
	require.NoError(t, err)
	require.NoError(t, ctx.Exit(nil))
	assert.True(t, applied, "autoApply must commit an unapplied context on a clean exit")
}

func TestMutContextForceRollbackWinsOverAutoApply(t *testing.T) {
	applied := false
	cancelled := false
	ctx := greyhorse.NewMutContext(
		"tx",
		func() (int, error) { return 1, nil },
		nil,
		ctxstack.New(),
		true, // forceRollback
		true, // autoApply
	).OnApply(func(int) { applied = true }).OnCancel(func(int) { cancelled = true })

	_, err := ctx.Enter()
	require.NoError(t, err)
	require.NoError(t, ctx.Exit(nil))

	assert.False(t, applied, "forceRollback must win outright over autoApply")
	assert.True(t, cancelled)
}

func TestMutContextErrorTriggersRollback(t *testing.T) {
	cancelled := false
	ctx := greyhorse.NewMutContext(
		"tx",
		func() (int, error) { return 1, nil },
		nil,
		ctxstack.New(),
		false,
		true,
	).OnCancel(func(int) { cancelled = true })

	_, err := ctx.Enter()
	require.NoError(t, err)
	require.NoError(t, ctx.Exit(errors.New("body failed")))
	assert.True(t, cancelled, "an Exit carrying an error must roll back even with autoApply set")
}

func TestMutContextExplicitApplyThenExitIsNoOp(t *testing.T) {
	applyCount := 0
	ctx := greyhorse.NewMutContext(
		"tx",
		func() (int, error) { return 1, nil },
		nil,
		ctxstack.New(),
		false,
		true,
	).OnApply(func(int) { applyCount++ })

	_, err := ctx.Enter()
	require.NoError(t, err)
	require.NoError(t, ctx.Apply())
	require.NoError(t, ctx.Exit(nil))
	assert.Equal(t, 1, applyCount, "an already-Applied context must not be applied twice on Exit")
}

func TestMutContextChildPropagation(t *testing.T) {
	childApplied := false
	child := &recordingApplier{onApply: func() { childApplied = true }}

	ctx := greyhorse.NewMutContext("tx", func() (int, error) { return 1, nil }, nil, ctxstack.New(), false, false)
	ctx.AddChild(child)

	_, err := ctx.Enter()
	require.NoError(t, err)
	require.NoError(t, ctx.Apply())
	require.NoError(t, ctx.Exit(nil))
	assert.True(t, childApplied, "Apply must propagate to registered children before the parent commits")
}

type recordingApplier struct {
	onApply  func()
	onCancel func()
}

func (r *recordingApplier) Apply() error {
	if r.onApply != nil {
		r.onApply()
	}
	return nil
}

func (r *recordingApplier) Cancel() error {
	if r.onCancel != nil {
		r.onCancel()
	}
	return nil
}
