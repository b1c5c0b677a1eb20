package greyhorse

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/max-plutonium/greyhorse-sub000/internal/firsterr"
)

// Container is the lifetime-scoped resolution facade from spec §4.E,
// grounded on the teacher's serviceProviderScope (scope.go): a uuid'd
// node in a parent-chained tree, each node pinned to one Lifetime rung,
// memoising resolved values locally and tearing them down in LIFO order
// on Close. Unlike the teacher, resolution never goes through reflection:
// every lookup is a TypeKey against a shared FactoryRegistry addressed by
// the container's dotted module path.
type Container struct {
	mu       sync.RWMutex
	id       string
	lifetime Lifetime
	path     string
	registry *FactoryRegistry
	parent   *Container
	children map[string]*Container
	cache    map[TypeKey]any
	teardown []func() error // LIFO
	disposed int32
	ctx      context.Context
}

// NewRootContainer creates the Root-lifetime container at the top of the
// scope ladder, addressed at path in registry.
func NewRootContainer(ctx context.Context, registry *FactoryRegistry, path string) *Container {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Container{
		id:       uuid.NewString(),
		lifetime: Root,
		path:     path,
		registry: registry,
		children: make(map[string]*Container),
		cache:    make(map[TypeKey]any),
		ctx:      ctx,
	}
}

// ID returns the container's unique scope identity.
func (c *Container) ID() string { return c.id }

// Lifetime reports the rung this container occupies on the scope ladder.
func (c *Container) Lifetime() Lifetime { return c.lifetime }

// Path returns the dotted registry path this container resolves against.
func (c *Container) Path() string { return c.path }

// Context returns the context.Context carried by this container.
func (c *Container) Context() context.Context { return c.ctx }

// Parent returns the enclosing container, or nil for the root.
func (c *Container) Parent() *Container { return c.parent }

// IsDisposed reports whether Close has already run.
func (c *Container) IsDisposed() bool { return atomic.LoadInt32(&c.disposed) != 0 }

// Descend creates a child container at the next rung of the ladder.
// Lifetime.AutoCreate is not consulted: every child container, on any
// rung, is created only by an explicit Descend or DescendTo call, and a
// resource lookup never creates one. subpath, if non-empty, is appended
// to this container's registry path with a ".".
func (c *Container) Descend(subpath string) (*Container, error) {
	next, ok := c.lifetime.Next()
	if !ok {
		return nil, &LifetimeError{Value: c.lifetime}
	}
	return c.descendTo(next, subpath)
}

// DescendTo creates a chain of child containers down to target, creating
// every intermediate rung along the way. It fails if target is not
// strictly deeper than this container's own lifetime.
func (c *Container) DescendTo(target Lifetime, subpath string) (*Container, error) {
	if !target.IsValid() || target <= c.lifetime {
		return nil, &LifetimeError{Value: target}
	}
	cur := c
	for cur.lifetime != target {
		next, ok := cur.lifetime.Next()
		if !ok {
			return nil, &LifetimeError{Value: target}
		}
		var err error
		cur, err = cur.descendTo(next, "")
		if err != nil {
			return nil, err
		}
	}
	if subpath != "" {
		cur.path = joinPath(cur.path, subpath)
	}
	return cur, nil
}

func (c *Container) descendTo(lt Lifetime, subpath string) (*Container, error) {
	if c.IsDisposed() {
		return nil, ErrContainerClosed
	}
	child := &Container{
		id:       uuid.NewString(),
		lifetime: lt,
		path:     joinPath(c.path, subpath),
		registry: c.registry,
		parent:   c,
		children: make(map[string]*Container),
		cache:    make(map[TypeKey]any),
		ctx:      c.ctx,
	}
	c.mu.Lock()
	c.children[child.id] = child
	c.mu.Unlock()
	return child, nil
}

func joinPath(base, sub string) string {
	if base == "" {
		return sub
	}
	if sub == "" {
		return base
	}
	return base + "." + sub
}

// AddFinalizer registers a cleanup to run, LIFO, when this container is Closed.
func (c *Container) AddFinalizer(f func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown = append(c.teardown, f)
}

// Close first recursively closes every still-open child, then tears this
// container's own cached resources down in LIFO order, mirroring the
// teacher's reverse-order disposal in serviceProviderScope.Close.
func (c *Container) Close() error {
	if !atomic.CompareAndSwapInt32(&c.disposed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	children := make([]*Container, 0, len(c.children))
	for _, ch := range c.children {
		children = append(children, ch)
	}
	finalizers := c.teardown
	c.teardown = nil
	c.mu.Unlock()

	acc := firsterr.New()
	for _, ch := range children {
		acc.Add(ch.Close())
	}
	for i := len(finalizers) - 1; i >= 0; i-- {
		acc.Add(finalizers[i]())
	}

	if c.parent != nil {
		c.parent.mu.Lock()
		delete(c.parent.children, c.id)
		c.parent.mu.Unlock()
	}

	return acc.Err()
}

// Get resolves T against c's registry path, per spec §4.E: a cache hit
// returns the memoised instance; otherwise FactoryRegistry.GetFactory
// locates a TypeFactory for c's path, Get instantiates it, memoises the
// value when the factory reports Cache(), and - when the factory is Scoped - files
// its finalizer for LIFO teardown on Close. A method cannot introduce new
// type parameters in Go, so Get is a free function over *Container.
func Get[T any](c *Container) Result[T, *ResourceError] {
	key := KeyOf[T]()

	if c.IsDisposed() {
		return Err[T, *ResourceError](&ResourceError{Kind: ResourceProvision, Resource: key.String(), Cause: ErrContainerClosed})
	}

	c.mu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		v, ok := cached.(T)
		if !ok {
			return Err[T, *ResourceError](&ResourceError{Kind: ResourceProvision, Resource: key.String()})
		}
		return Ok[T, *ResourceError](v)
	}
	c.mu.RUnlock()

	factory, ok := c.registry.GetFactory(c.path, key)
	if !ok {
		return Err[T, *ResourceError](&ResourceError{Kind: ResourceNoSuchResource, Resource: key.String()})
	}

	raw, finalize, err := factory.instantiate(key)
	if err != nil {
		return Err[T, *ResourceError](&ResourceError{Kind: ResourceProvision, Resource: key.String(), Cause: err})
	}
	value, ok := raw.(T)
	if !ok {
		return Err[T, *ResourceError](&ResourceError{Kind: ResourceProvision, Resource: key.String()})
	}

	if factory.Cache() {
		c.mu.Lock()
		c.cache[key] = value
		c.mu.Unlock()
	}
	if factory.Scoped() && finalize != nil {
		c.AddFinalizer(finalize)
	}

	return Ok[T, *ResourceError](value)
}

// MustGet resolves T, panicking on failure - reserved for call sites that
// have already validated the resource graph (e.g. assembler wiring).
func MustGet[T any](c *Container) T {
	return Get[T](c).UnwrapOrRaise(func(e *ResourceError) error { return e })
}
