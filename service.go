package greyhorse

import (
	"sync"
)

// ProvideMember is the compile-time replacement for the source's
// @provide(provider_type, lifetime, cache) decorator (spec §9 Design
// Notes): one table entry naming the producible TypeKey, the TypeFactory
// that creates it, and the other TypeKeys it depends on, filled in by a
// service or controller's own constructor instead of being discovered by
// scanning decorated methods.
type ProvideMember struct {
	Name    string
	Key     TypeKey
	Factory TypeFactory
	Deps    []TypeKey
}

// OperateMember is the compile-time replacement for @operator(resource_type):
// one resource a service/controller consumes, bound into the owning
// ResourceManager via bind during Setup.
type OperateMember struct {
	Name string
	Key  TypeKey
	bind func(*ResourceManager) error
}

// ServiceState is Idle (the zero value) or Active, with Started tracking
// whether Start has additionally run, the Go realisation of
// abc/services.py's ServiceState enum (Unit Idle / Struct Active(started)).
type ServiceState struct {
	active  bool
	started bool
}

// IsActive reports whether the service has been set up (Active, whether
// or not it has also been started).
func (s ServiceState) IsActive() bool { return s.active }

// IsStarted reports whether the service is both Active and started.
func (s ServiceState) IsStarted() bool { return s.active && s.started }

func (s ServiceState) String() string {
	switch {
	case !s.active:
		return "Idle"
	case s.started:
		return "Active(started)"
	default:
		return "Active(stopped)"
	}
}

// ServiceWaiter lets the application run loop detect that a running
// Service wants to stop, the Go realisation of abc/services.py's
// ServiceWaiter Sync/Async variants - Go's single goroutine execution
// model collapses both to one channel-backed implementation instead of a
// threading.Event/asyncio.Event pair.
type ServiceWaiter struct {
	ch   chan struct{}
	once sync.Once
}

// NewServiceWaiter builds an unsignalled waiter.
func NewServiceWaiter() *ServiceWaiter { return &ServiceWaiter{ch: make(chan struct{})} }

// Done returns a channel closed once the service requests a stop.
func (w *ServiceWaiter) Done() <-chan struct{} { return w.ch }

// Signal requests a stop; idempotent.
func (w *ServiceWaiter) Signal() { w.once.Do(func() { close(w.ch) }) }

// Service is the producing/consuming unit with its own start/stop
// lifecycle from spec §4.G, grounded on abc/services.py's Service:
// Idle -[setup]-> Active(false) -[start]-> Active(true) -[stop]->
// Active(false) -[teardown]-> Idle, idempotent on repeated same-state
// calls.
type Service interface {
	Name() string
	State() ServiceState
	Waiter() *ServiceWaiter
	Setup(rm *ResourceManager) error
	Start() error
	Stop() error
	Teardown() error
}

// ServiceBase implements the state machine and member bookkeeping shared
// by every concrete service. Concrete services embed *ServiceBase and
// register what they provide/consume from their own constructor via
// Provide/Operate, and may override Start/Stop to add their own
// behaviour as long as they still delegate to ServiceBase's own
// Start/Stop for state tracking.
type ServiceBase struct {
	mu     sync.Mutex
	name   string
	state  ServiceState
	waiter *ServiceWaiter

	provides []ProvideMember
	operates []OperateMember
}

// NewServiceBase builds the Idle state machine for a service named name.
func NewServiceBase(name string) *ServiceBase {
	return &ServiceBase{name: name, waiter: NewServiceWaiter()}
}

func (s *ServiceBase) Name() string { return s.name }

func (s *ServiceBase) State() ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ServiceBase) Waiter() *ServiceWaiter { return s.waiter }

// Provide registers a producible member, the explicit-registration
// replacement for a @provide-decorated method.
func (s *ServiceBase) Provide(name string, key TypeKey, factory TypeFactory, deps ...TypeKey) {
	s.provides = append(s.provides, ProvideMember{Name: name, Key: key, Factory: factory, Deps: deps})
}

// Operate registers a consumed resource, the explicit-registration
// replacement for an @operator-decorated method. bind is invoked with the
// owning component's ResourceManager during Setup.
func (s *ServiceBase) Operate(name string, key TypeKey, bind func(*ResourceManager) error) {
	s.operates = append(s.operates, OperateMember{Name: name, Key: key, bind: bind})
}

// Setup registers every declared Provide member with rm, then runs every
// declared Operate bind, in declaration order, transitioning Idle ->
// Active(false). Calling Setup while already Active is a no-op, matching
// the source's idempotent re-entry.
func (s *ServiceBase) Setup(rm *ResourceManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.active {
		return nil
	}
	for _, p := range s.provides {
		if err := rm.RegisterProvider(p.Key, p.Factory, p.Deps...); err != nil {
			return &ServiceError{Kind: ServiceDeps, Name: s.name, Cause: err}
		}
	}
	for _, o := range s.operates {
		if err := o.bind(rm); err != nil {
			return &ServiceError{Kind: ServiceNoSuchResource, Name: s.name, Cause: err}
		}
	}
	s.state = ServiceState{active: true}
	return nil
}

// Start transitions Active(false) -> Active(true). Calling Start while
// already started, or before Setup has run, follows the source: the
// latter is an error, the former is a no-op.
func (s *ServiceBase) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.active {
		return &ServiceError{Kind: ServiceUnexpected, Name: s.name, Cause: ErrInvalidContextState}
	}
	if s.state.started {
		return nil
	}
	s.state.started = true
	return nil
}

// Stop transitions Active(true) -> Active(false). A no-op if not
// currently started.
func (s *ServiceBase) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.active || !s.state.started {
		return nil
	}
	s.state.started = false
	return nil
}

// Teardown returns the service to Idle. The actual resource release for
// every Operate binding happens once, globally, inside the owning
// component's ResourceManager.Teardown - Teardown here only resets the
// service's own bookkeeping so a later Setup can run again. A no-op if
// already Idle.
func (s *ServiceBase) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.active {
		return nil
	}
	s.state = ServiceState{}
	return nil
}
