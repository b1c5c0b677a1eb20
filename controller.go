package greyhorse

import (
	"fmt"
	"sync"
)

// Controller is a stateless-beyond-its-bindings wiring unit from spec
// §4.G, grounded on abc/controller.py's Controller: unlike a Service it
// has no Idle/Active(started) life of its own, it only binds operators to
// providers during Setup and releases them during Teardown.
type Controller interface {
	Name() string
	Setup(rm *ResourceManager) error
	Teardown() error
}

// ControllerBase implements the bind/release bookkeeping shared by every
// concrete controller kind below. Concrete controllers embed *ControllerBase
// and call Operate from their own constructor to register what they bind,
// replacing the source's reflection-scanned operator members
// (_init_operator_members / inspect.getmembers) with the compile-time
// registration the Design Notes call for.
type ControllerBase struct {
	mu       sync.Mutex
	name     string
	active   bool
	provides []ProvideMember
	operates []OperateMember
}

// NewControllerBase builds the base bookkeeping for a controller named name.
func NewControllerBase(name string) *ControllerBase {
	return &ControllerBase{name: name}
}

func (c *ControllerBase) Name() string { return c.name }

// Provide registers a producible member this controller supplies, the
// same explicit-registration idiom ServiceBase.Provide uses.
func (c *ControllerBase) Provide(name string, key TypeKey, factory TypeFactory, deps ...TypeKey) {
	c.provides = append(c.provides, ProvideMember{Name: name, Key: key, Factory: factory, Deps: deps})
}

// Operate registers a resource this controller consumes; bind is invoked
// with the owning component's ResourceManager during Setup.
func (c *ControllerBase) Operate(name string, key TypeKey, bind func(*ResourceManager) error) {
	c.operates = append(c.operates, OperateMember{Name: name, Key: key, bind: bind})
}

// Setup registers every declared Provide member and runs every declared
// Operate bind, in declaration order. Calling Setup while already active
// is a no-op.
func (c *ControllerBase) Setup(rm *ResourceManager) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil
	}
	for _, p := range c.provides {
		if err := rm.RegisterProvider(p.Key, p.Factory, p.Deps...); err != nil {
			return &ControllerError{Kind: ControllerDeps, Name: c.name, Cause: err}
		}
	}
	for _, o := range c.operates {
		if err := o.bind(rm); err != nil {
			return err
		}
	}
	c.active = true
	return nil
}

// Teardown returns the controller to its unbound state. The actual
// operator releases happen inside ResourceManager.Teardown, which is
// invoked once per component after every controller and service has torn
// its own local state down - Teardown here only flips the bookkeeping
// flag so a second Setup is possible.
func (c *ControllerBase) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	return nil
}

// ========================================
// Ownership-kind operator binders
// ========================================
//
// abc/controller.py expresses four concrete controllers - BorrowOpController,
// AcquireOpController, FactoryOpController, ForwardOpController - each
// hardcoded to one provider method pair via class-level init_method/
// fini_method strings dispatched through getattr(provider, name). Go has
// no such string dispatch, so each pair below is a distinct function
// asserting the provider satisfies the matching ownership interface
// directly; BindBorrow/BindAcquire/BindCreate/BindForward are what a
// concrete controller's constructor passes to Operate.

// BindBorrow resolves key through rm and routes it through op's
// Accept/Revoke via the Shared[T] contract, the Go realisation of
// BorrowOpController (init_method="borrow", fini_method="reclaim").
func BindBorrow[T any](key TypeKey, op Operator[T]) func(*ResourceManager) error {
	return func(rm *ResourceManager) error {
		raw, err := rm.Resolve(key)
		if err != nil {
			return &ControllerError{Kind: ControllerNoSuchResource, Name: key.String(), Cause: err}
		}
		provider, ok := raw.(Shared[T])
		if !ok {
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: fmt.Errorf("resolved value for %s is not Shared", key)}
		}
		res := provider.Borrow()
		if res.IsErr() {
			cause, _ := res.Error()
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: cause}
		}
		value := res.Unwrap()
		if !op.Accept(value) {
			provider.Reclaim(value)
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: ErrAlreadyBorrowed}
		}
		rm.recordTeardown(key.String(), func() error {
			if held := op.Revoke(); held.IsJust() {
				provider.Reclaim(held.Unwrap())
			}
			return nil
		})
		return nil
	}
}

// BindAcquire resolves key through rm and routes it through op via the
// Mut[T] contract, the Go realisation of AcquireOpController
// (init_method="acquire", fini_method="release").
func BindAcquire[T any](key TypeKey, op Operator[T]) func(*ResourceManager) error {
	return func(rm *ResourceManager) error {
		raw, err := rm.Resolve(key)
		if err != nil {
			return &ControllerError{Kind: ControllerNoSuchResource, Name: key.String(), Cause: err}
		}
		provider, ok := raw.(Mut[T])
		if !ok {
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: fmt.Errorf("resolved value for %s is not Mut", key)}
		}
		res := provider.Acquire()
		if res.IsErr() {
			cause, _ := res.Error()
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: cause}
		}
		value := res.Unwrap()
		if !op.Accept(value) {
			provider.Release(value)
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: ErrAlreadyBorrowed}
		}
		rm.recordTeardown(key.String(), func() error {
			if held := op.Revoke(); held.IsJust() {
				provider.Release(held.Unwrap())
			}
			return nil
		})
		return nil
	}
}

// BindCreate resolves key through rm and routes it through op via the
// Factory[T] contract, the Go realisation of FactoryOpController
// (init_method="create", fini_method="destroy").
func BindCreate[T any](key TypeKey, op Operator[T]) func(*ResourceManager) error {
	return func(rm *ResourceManager) error {
		raw, err := rm.Resolve(key)
		if err != nil {
			return &ControllerError{Kind: ControllerNoSuchResource, Name: key.String(), Cause: err}
		}
		provider, ok := raw.(Factory[T])
		if !ok {
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: fmt.Errorf("resolved value for %s is not Factory", key)}
		}
		res := provider.Create()
		if res.IsErr() {
			cause, _ := res.Error()
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: cause}
		}
		value := res.Unwrap()
		if !op.Accept(value) {
			provider.Destroy(value)
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: ErrAlreadyBorrowed}
		}
		rm.recordTeardown(key.String(), func() error {
			if held := op.Revoke(); held.IsJust() {
				provider.Destroy(held.Unwrap())
			}
			return nil
		})
		return nil
	}
}

// BindForward resolves key through rm and routes it through op via the
// Forward[T] contract, the Go realisation of ForwardOpController
// (init_method="take", fini_method="drop").
func BindForward[T any](key TypeKey, op Operator[T]) func(*ResourceManager) error {
	return func(rm *ResourceManager) error {
		raw, err := rm.Resolve(key)
		if err != nil {
			return &ControllerError{Kind: ControllerNoSuchResource, Name: key.String(), Cause: err}
		}
		provider, ok := raw.(Forward[T])
		if !ok {
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: fmt.Errorf("resolved value for %s is not Forward", key)}
		}
		res := provider.Take()
		if res.IsErr() {
			cause, _ := res.Error()
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: cause}
		}
		value := res.Unwrap()
		if !op.Accept(value) {
			provider.Drop(value)
			return &ControllerError{Kind: ControllerDeps, Name: key.String(), Cause: ErrAlreadyBorrowed}
		}
		rm.recordTeardown(key.String(), func() error {
			if held := op.Revoke(); held.IsJust() {
				provider.Drop(held.Unwrap())
			}
			return nil
		})
		return nil
	}
}

// BorrowController is a ready-made Controller binding one Shared[T]
// resource to one Operator[T] sink, the Go realisation of
// abc/controller.py's BorrowOpController.
type BorrowController[T any] struct {
	*ControllerBase
}

// NewBorrowController builds a BorrowController named name, binding key
// through op on Setup.
func NewBorrowController[T any](name string, key TypeKey, op Operator[T]) *BorrowController[T] {
	base := NewControllerBase(name)
	base.Operate(name, key, BindBorrow(key, op))
	return &BorrowController[T]{ControllerBase: base}
}

// AcquireController is a ready-made Controller binding one Mut[T]
// resource to one Operator[T] sink, the Go realisation of
// abc/controller.py's AcquireOpController.
type AcquireController[T any] struct {
	*ControllerBase
}

// NewAcquireController builds an AcquireController named name, binding
// key through op on Setup.
func NewAcquireController[T any](name string, key TypeKey, op Operator[T]) *AcquireController[T] {
	base := NewControllerBase(name)
	base.Operate(name, key, BindAcquire(key, op))
	return &AcquireController[T]{ControllerBase: base}
}

// FactoryController is a ready-made Controller binding one Factory[T]
// resource to one Operator[T] sink, the Go realisation of
// abc/controller.py's FactoryOpController.
type FactoryController[T any] struct {
	*ControllerBase
}

// NewFactoryController builds a FactoryController named name, binding
// key through op on Setup.
func NewFactoryController[T any](name string, key TypeKey, op Operator[T]) *FactoryController[T] {
	base := NewControllerBase(name)
	base.Operate(name, key, BindCreate(key, op))
	return &FactoryController[T]{ControllerBase: base}
}

// ForwardController is a ready-made Controller binding one Forward[T]
// resource to one Operator[T] sink, the Go realisation of
// abc/controller.py's ForwardOpController.
type ForwardController[T any] struct {
	*ControllerBase
}

// NewForwardController builds a ForwardController named name, binding
// key through op on Setup.
func NewForwardController[T any](name string, key TypeKey, op Operator[T]) *ForwardController[T] {
	base := NewControllerBase(name)
	base.Operate(name, key, BindForward(key, op))
	return &ForwardController[T]{ControllerBase: base}
}
