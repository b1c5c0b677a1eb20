package greyhorse

import (
	"fmt"

	"github.com/max-plutonium/greyhorse-sub000/internal/firsterr"
	"github.com/max-plutonium/greyhorse-sub000/internal/rtlog"
)

// ResourceDecl declares one resource a component supplies to its own
// ResourceManager ahead of creating its services/controllers, the
// component-level analogue of ProvideMember.
type ResourceDecl struct {
	Name    string
	Key     TypeKey
	Factory TypeFactory
	Deps    []TypeKey
}

// ServiceConf is a declarative service descriptor: a name, the registered
// factory type it should be built from, and constructor args, grounded on
// schemas/service.py's SvcConf (args replace the source's get_type_hints
// parameter injection with an explicit map the factory itself destructures).
type ServiceConf struct {
	Name string         `yaml:"name"`
	Type string         `yaml:"type"`
	Args map[string]any `yaml:"args"`
}

// ControllerConf is a declarative controller descriptor, grounded on
// schemas/controller.py's CtrlConf.
type ControllerConf struct {
	Name string         `yaml:"name"`
	Type string         `yaml:"type"`
	Args map[string]any `yaml:"args"`
}

// ServiceFactory builds a Service from a ServiceConf's args, the explicit-
// registration replacement for the source's dynamic
// import_path(f"{module}:__init__")-discovered service_factories map.
type ServiceFactory func(conf ServiceConf) (Service, error)

// ControllerFactory builds a Controller from a ControllerConf's args.
type ControllerFactory func(conf ControllerConf) (Controller, error)

// ComponentConf is a declarative component descriptor, reconciling the
// source's two parallel component schema shapes (schemas/component.py's
// type-keyed ResourceConf and schemas/components.py's policy-keyed one)
// into a single Go shape: a name, an enable flag, the resources it
// supplies directly, and the services/controllers built from conf entries
// matched against caller-supplied factory tables at Create time.
type ComponentConf struct {
	Name        string           `yaml:"name"`
	Enabled     bool             `yaml:"enabled"`
	Resources   []ResourceDecl   `yaml:"-"`
	Services    []ServiceConf    `yaml:"services"`
	Controllers []ControllerConf `yaml:"controllers"`
}

// Component is a named, independently-lifecycled group of services and
// controllers sharing one ResourceManager-backed resource scope, grounded
// on entities/components.py's Component and builders/component.py's
// ComponentBuilder.
type Component struct {
	name        string
	path        string
	conf        ComponentConf
	rm          *ResourceManager
	services    []Service
	controllers []Controller
}

// NewComponent builds an un-Created Component addressed at path.
func NewComponent(path string, conf ComponentConf) *Component {
	return &Component{name: conf.Name, path: path, conf: conf, rm: NewResourceManager()}
}

func (c *Component) Name() string                      { return c.name }
func (c *Component) Path() string                       { return c.path }
func (c *Component) ResourceManager() *ResourceManager { return c.rm }
func (c *Component) Services() []Service               { return c.services }
func (c *Component) Controllers() []Controller          { return c.controllers }

// Create instantiates every configured resource/service/controller, the
// Go realisation of ComponentBuilder.create_pass: a disabled component is
// rejected outright, a missing factory for a declared service/controller
// type is reported and the whole pass aborts (spec §7's "first error
// short-circuits create/setup").
func (c *Component) Create(svcFactories map[string]ServiceFactory, ctrlFactories map[string]ControllerFactory) error {
	if !c.conf.Enabled {
		return &ComponentError{Kind: ComponentModule, Path: c.path, Name: c.name, Cause: ErrComponentDisabled}
	}

	rtlog.Get().Info("creating component", "path", c.path)

	for _, rd := range c.conf.Resources {
		if err := c.rm.RegisterProvider(rd.Key, rd.Factory, rd.Deps...); err != nil {
			err = &ComponentError{Kind: ComponentResource, Path: c.path, Name: rd.Name, Cause: err}
			rtlog.Get().Error("component resource registration failed", "path", c.path, "error", err)
			return err
		}
	}

	for _, sc := range c.conf.Services {
		factory, ok := svcFactories[sc.Type]
		if !ok {
			err := &ComponentError{Kind: ComponentService, Path: c.path, Name: sc.Name, Cause: fmt.Errorf("service factory not found: %q", sc.Type)}
			rtlog.Get().Error("component service factory missing", "path", c.path, "type", sc.Type)
			return err
		}
		svc, err := factory(sc)
		if err != nil {
			err = &ComponentError{Kind: ComponentService, Path: c.path, Name: sc.Name, Cause: err}
			rtlog.Get().Error("component service creation failed", "path", c.path, "name", sc.Name, "error", err)
			return err
		}
		c.services = append(c.services, svc)
	}

	for _, cc := range c.conf.Controllers {
		factory, ok := ctrlFactories[cc.Type]
		if !ok {
			err := &ComponentError{Kind: ComponentCtrl, Path: c.path, Name: cc.Name, Cause: fmt.Errorf("controller factory not found: %q", cc.Type)}
			rtlog.Get().Error("component controller factory missing", "path", c.path, "type", cc.Type)
			return err
		}
		ctrl, err := factory(cc)
		if err != nil {
			err = &ComponentError{Kind: ComponentCtrl, Path: c.path, Name: cc.Name, Cause: err}
			rtlog.Get().Error("component controller creation failed", "path", c.path, "name", cc.Name, "error", err)
			return err
		}
		c.controllers = append(c.controllers, ctrl)
	}

	rtlog.Get().Info("component created", "path", c.path)
	return nil
}

// Setup runs every controller's Setup then every service's Setup, in
// declaration order, matching spec §4.H's Setup pass: controllers bind
// their operators first so services that depend on a controller-exposed
// resource find it already wired.
func (c *Component) Setup() error {
	for _, ctrl := range c.controllers {
		if err := ctrl.Setup(c.rm); err != nil {
			return &ComponentError{Kind: ComponentCtrl, Path: c.path, Name: ctrl.Name(), Cause: err}
		}
	}
	for _, svc := range c.services {
		if err := svc.Setup(c.rm); err != nil {
			return &ComponentError{Kind: ComponentService, Path: c.path, Name: svc.Name(), Cause: err}
		}
	}
	return nil
}

// Start starts every service in declaration order.
func (c *Component) Start() error {
	for _, svc := range c.services {
		if err := svc.Start(); err != nil {
			return &ComponentError{Kind: ComponentService, Path: c.path, Name: svc.Name(), Cause: err}
		}
	}
	return nil
}

// Stop stops every service in reverse declaration order. Every service is
// stopped even if an earlier one fails (spec §7 teardown propagation
// policy); the first error observed is returned.
func (c *Component) Stop() error {
	acc := firsterr.New()
	for i := len(c.services) - 1; i >= 0; i-- {
		acc.Add(c.services[i].Stop())
	}
	return acc.First()
}

// Teardown reverses Setup: services first, then controllers, then the
// component's own ResourceManager, matching spec §4.H's Teardown pass.
func (c *Component) Teardown() error {
	acc := firsterr.New()
	for i := len(c.services) - 1; i >= 0; i-- {
		acc.Add(c.services[i].Teardown())
	}
	for i := len(c.controllers) - 1; i >= 0; i-- {
		acc.Add(c.controllers[i].Teardown())
	}
	acc.Add(c.rm.Teardown())
	return acc.Err()
}

// Waiters returns every service's waiter, for the application run loop to
// poll until they all signal stop.
func (c *Component) Waiters() []*ServiceWaiter {
	out := make([]*ServiceWaiter, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s.Waiter())
	}
	return out
}
