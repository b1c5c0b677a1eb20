package greyhorse

import (
	"sync"

	"github.com/max-plutonium/greyhorse-sub000/internal/firsterr"
	"github.com/max-plutonium/greyhorse-sub000/internal/graph"
)

// ResourceManager is the per-component resource resolver from spec §4.F,
// grounded on private/res_manager.py's ResourceManager. It keeps a
// directed dependency graph over TypeKey (internal/graph.DependencyGraph,
// adapted from the teacher's reflection-keyed version to take explicit
// caller-declared dependency edges instead of inspecting constructor
// parameters), a cache of already-resolved values, and an ordered record
// of every operator binding it has performed so Teardown can undo them in
// reverse.
type ResourceManager struct {
	mu sync.Mutex

	graph  *graph.DependencyGraph[TypeKey]
	cached map[TypeKey]any

	// provided mirrors _provided_resources: an ordered record of every
	// resource currently handed out to an operator, so Teardown (spec
	// invariant 7) can reverse it and end up with an empty map.
	providedNames []string
	provided      map[string]func() error

	// genTeardown holds finalizers from Scoped (generator-backed)
	// factories that were resolved but never bound to an operator.
	genTeardown []func() error
}

// NewResourceManager builds an empty ResourceManager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		graph:    graph.New[TypeKey](),
		cached:   make(map[TypeKey]any),
		provided: make(map[string]func() error),
	}
}

// Graph exposes the backing dependency graph for diagnostics and tests.
func (m *ResourceManager) Graph() *graph.DependencyGraph[TypeKey] { return m.graph }

// RegisterProvider declares one producible resource: key identifies it,
// factory produces it, and deps lists the other TypeKeys it depends on
// (spec §4.F: "a directed acyclic graph whose nodes are ProducibleType").
// A cyclic declaration is rejected by the underlying graph.
func (m *ResourceManager) RegisterProvider(key TypeKey, factory TypeFactory, deps ...TypeKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.graph.AddNode(key, factory, deps); err != nil {
		return &ResourceError{Kind: ResourceProvision, Resource: key.String(), Cause: err}
	}
	if err := m.graph.DetectCycles(); err != nil {
		return &ResourceError{Kind: ResourceProvision, Resource: key.String(), Cause: err}
	}
	return nil
}

// Resolve implements find_provider from spec §4.F: a cache hit returns
// the memoised value; otherwise every declared dependency is resolved
// first (a dependency placeholder with no registered factory surfaces as
// ResourceNoSuchDependency), then the node's own factory is invoked. The
// result of a successful invocation is cached when the factory reports
// Cache(), unless key denotes a Forward producible - a moved-once value
// must never be handed out twice from a cache. A Scoped factory's
// finalizer is filed for Teardown regardless of whether the value is
// later claimed by an operator.
func (m *ResourceManager) Resolve(key TypeKey) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(key)
}

func (m *ResourceManager) resolveLocked(key TypeKey) (any, error) {
	if v, ok := m.cached[key]; ok {
		return v, nil
	}

	node, ok := m.graph.GetNode(key)
	if !ok || node.Payload == nil {
		return nil, &ResourceError{Kind: ResourceNoSuchResource, Resource: key.String()}
	}

	for _, dep := range node.Dependencies {
		if _, err := m.resolveLocked(dep); err != nil {
			return nil, &ResourceError{Kind: ResourceNoSuchDependency, Resource: dep.String(), Cause: err}
		}
	}

	factory, ok := node.Payload.(TypeFactory)
	if !ok {
		return nil, &ResourceError{Kind: ResourceProvision, Resource: key.String()}
	}

	value, finalize, err := factory.instantiate(key)
	if err != nil {
		return nil, &ResourceError{Kind: ResourceProvision, Resource: key.String(), Cause: err}
	}

	if factory.Cache() && key.Kind() != "Forward" {
		m.cached[key] = value
	}
	if factory.Scoped() && finalize != nil {
		m.genTeardown = append(m.genTeardown, finalize)
	}

	return value, nil
}

// recordTeardown files a named operator-teardown callback, called by the
// Bind* helpers in controller.go after a successful Accept, so Teardown
// can reverse every binding LIFO (spec invariant 7).
func (m *ResourceManager) recordTeardown(name string, fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providedNames = append(m.providedNames, name)
	m.provided[name] = fn
}

// ProvidedCount reports how many operator bindings are currently open,
// for the "provided-resources map empty" half of invariant 7.
func (m *ResourceManager) ProvidedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.provided)
}

// Teardown reverses every recorded operator binding, most recent first,
// then runs every still-pending generator finalizer, then clears the
// graph's own cached nodes - the Go realisation of
// ResourceManager.teardown's LIFO walk over _provided_resources followed
// by clearing _cached_providers/_resource_graph. A failing step never
// aborts the remaining ones (spec §7's teardown propagation policy); the
// first error observed is what Teardown returns.
func (m *ResourceManager) Teardown() error {
	m.mu.Lock()
	names := m.providedNames
	provided := m.provided
	gens := m.genTeardown
	m.providedNames = nil
	m.provided = make(map[string]func() error)
	m.genTeardown = nil
	m.mu.Unlock()

	acc := firsterr.New()
	for i := len(names) - 1; i >= 0; i-- {
		if fn, ok := provided[names[i]]; ok {
			acc.Add(fn())
		}
	}
	for i := len(gens) - 1; i >= 0; i-- {
		acc.Add(gens[i]())
	}

	m.mu.Lock()
	m.cached = make(map[TypeKey]any)
	m.graph.Clear()
	m.mu.Unlock()

	return acc.First()
}
