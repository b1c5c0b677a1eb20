package greyhorse

import (
	"fmt"

	"github.com/max-plutonium/greyhorse-sub000/internal/firsterr"
	"github.com/max-plutonium/greyhorse-sub000/internal/rtlog"
)

// ProviderClaim declares that a module wants to re-export a provider
// matching key (optionally further narrowed by a substring match against
// NamePattern) from one of its own components or submodules up to its own
// parent, grounded on schemas/module.py's ProviderClaim.
type ProviderClaim struct {
	Key         TypeKey
	NamePattern string
}

// ModuleConf is a declarative module descriptor: a name, nested component
// descriptors, nested submodule descriptors, and the provider claims this
// module re-exports to its own parent, reconciling schemas/module.py's
// ModuleConf (minus the source's dynamic submodule-discovery mechanism -
// see config.go) into one static, YAML-decodable Go shape.
type ModuleConf struct {
	Name           string          `yaml:"name"`
	Enabled        bool            `yaml:"enabled"`
	Components     []ComponentConf `yaml:"components"`
	Submodules     []ModuleConf    `yaml:"submodules"`
	ProviderClaims []ProviderClaim `yaml:"-"`
}

// Module is a composition of components and, optionally, nested
// submodules, with cross-boundary provider claims resolved on Setup,
// grounded on entities/module.py's Module.
type Module struct {
	name       string
	path       string
	conf       ModuleConf
	components []*Component
	submodules []*Module
	parent     *Module
	exported   map[TypeKey]any
}

// NewModule builds an un-Created Module addressed at path.
func NewModule(path string, conf ModuleConf) *Module {
	return &Module{name: conf.Name, path: path, conf: conf, exported: make(map[TypeKey]any)}
}

func (m *Module) Name() string { return m.name }
func (m *Module) Path() string { return m.path }

// AddSubmodule attaches sub as a child of m.
func (m *Module) AddSubmodule(sub *Module) {
	sub.parent = m
	m.submodules = append(m.submodules, sub)
}

// AddComponent attaches comp to m.
func (m *Module) AddComponent(comp *Component) {
	m.components = append(m.components, comp)
}

// Submodules returns m's direct children.
func (m *Module) Submodules() []*Module { return m.submodules }

// Components returns m's direct components.
func (m *Module) Components() []*Component { return m.components }

// GetProvider returns a claimed/exported provider by key, the realisation
// of the parent module.get_provider call in spec §8 scenario S6.
func (m *Module) GetProvider(key TypeKey) Maybe[any] {
	if v, ok := m.exported[key]; ok {
		return Just(v)
	}
	return Nothing[any]()
}

// Create recursively instantiates every submodule then every component,
// the Go realisation of builders/module.py's create_module_pass, minus
// its dynamic import step - every ModuleConf here is already a fully
// populated, static descriptor (see config.go), so there is no
// import_path(f"{module}:__init__") equivalent to invoke.
func (m *Module) Create(svcFactories map[string]ServiceFactory, ctrlFactories map[string]ControllerFactory) error {
	if !m.conf.Enabled {
		return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: ErrModuleDisabled}
	}
	rtlog.Get().Info("creating module", "path", m.path)
	for _, sub := range m.submodules {
		if err := sub.Create(svcFactories, ctrlFactories); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
	}
	for _, comp := range m.components {
		if err := comp.Create(svcFactories, ctrlFactories); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
	}
	return nil
}

// Setup sets up every submodule and matches this module's provider claims
// against that submodule's exports, then sets up each of its own
// components and matches the still-open claims against that component's
// resource manager, in declaration order - the Go realisation of spec
// §4.H's Setup pass plus module.py's _resolve_claims. A submodule exports
// only what its own ProviderClaims matched. A claim that remains unsatisfied once every submodule
// and component has been tried fails with ErrNoProvFoundForPattern.
func (m *Module) Setup() error {
	for _, sub := range m.submodules {
		if err := sub.Setup(); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
		m.resolveClaimsFrom(sub.exported)
	}
	for _, comp := range m.components {
		if err := comp.Setup(); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
		m.resolveClaimsFromComponent(comp)
	}
	for _, claim := range m.conf.ProviderClaims {
		if _, ok := m.exported[claim.Key]; !ok {
			err := &ModuleError{Kind: ModuleResource, Path: m.path, Cause: fmt.Errorf("%w: %s", ErrNoProvFoundForPattern, claim.Key)}
			rtlog.Get().Error("module provider claim unsatisfied", "path", m.path, "key", claim.Key.String())
			return err
		}
	}
	rtlog.Get().Info("module set up", "path", m.path)
	return nil
}

func (m *Module) resolveClaimsFrom(exports map[TypeKey]any) {
	for _, claim := range m.conf.ProviderClaims {
		if _, already := m.exported[claim.Key]; already {
			continue
		}
		if v, ok := exports[claim.Key]; ok {
			m.exported[claim.Key] = v
		}
	}
}

func (m *Module) resolveClaimsFromComponent(comp *Component) {
	for _, claim := range m.conf.ProviderClaims {
		if _, already := m.exported[claim.Key]; already {
			continue
		}
		if v, err := comp.rm.Resolve(claim.Key); err == nil {
			m.exported[claim.Key] = v
		}
	}
}

// Start starts every component then every submodule, in declaration order.
func (m *Module) Start() error {
	for _, comp := range m.components {
		if err := comp.Start(); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
	}
	for _, sub := range m.submodules {
		if err := sub.Start(); err != nil {
			return &ModuleError{Kind: ModuleComponent, Path: m.path, Cause: err}
		}
	}
	return nil
}

// Stop stops every submodule then every component, in reverse
// declaration order, each step running even if an earlier one failed.
func (m *Module) Stop() error {
	acc := firsterr.New()
	for i := len(m.submodules) - 1; i >= 0; i-- {
		acc.Add(m.submodules[i].Stop())
	}
	for i := len(m.components) - 1; i >= 0; i-- {
		acc.Add(m.components[i].Stop())
	}
	return acc.Err()
}

// Teardown reverses Setup: components first, then submodules, matching
// spec §4.H's Teardown pass and §7's teardown-never-aborts policy.
func (m *Module) Teardown() error {
	acc := firsterr.New()
	for i := len(m.components) - 1; i >= 0; i-- {
		acc.Add(m.components[i].Teardown())
	}
	for i := len(m.submodules) - 1; i >= 0; i-- {
		acc.Add(m.submodules[i].Teardown())
	}
	return acc.Err()
}

// Waiters returns every service waiter across this module's whole subtree.
func (m *Module) Waiters() []*ServiceWaiter {
	var out []*ServiceWaiter
	for _, c := range m.components {
		out = append(out, c.Waiters()...)
	}
	for _, s := range m.submodules {
		out = append(out, s.Waiters()...)
	}
	return out
}
