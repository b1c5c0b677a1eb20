// Package testutil provides shared fixtures for greyhorse's external test
// suite: a recording Operator[T] sink, a minimal counter Service, fixed
// service/controller factories and a ComponentConf builder exercising the full
// component/module/assembler wiring from spec §4.F-§4.H. Rebuilt from
// scratch for this domain's Provider/Component/Module types rather than
// revived from the teacher's own internal/testutil, whose fixtures were
// typed against a reflection-based container this module doesn't have
// (see DESIGN.md).
package testutil

import (
	"sync"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
)

// RecordingOperator is an Operator[T] that records every value it
// accepts and revokes, in call order, for assertions about Resource
// Manager/controller/service wiring.
type RecordingOperator[T any] struct {
	mu      sync.Mutex
	value   greyhorse.Maybe[T]
	Accepts []T
	Revokes []T
}

// NewRecordingOperator builds an empty RecordingOperator.
func NewRecordingOperator[T any]() *RecordingOperator[T] {
	return &RecordingOperator[T]{value: greyhorse.Nothing[T]()}
}

func (o *RecordingOperator[T]) Accept(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.value.IsJust() {
		return false
	}
	o.value = greyhorse.Just(v)
	o.Accepts = append(o.Accepts, v)
	return true
}

func (o *RecordingOperator[T]) Revoke() greyhorse.Maybe[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.value
	o.value = greyhorse.Nothing[T]()
	if v.IsJust() {
		o.Revokes = append(o.Revokes, v.Unwrap())
	}
	return v
}

// Holds reports whether the operator currently holds a value.
func (o *RecordingOperator[T]) Holds() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value.IsJust()
}

// CounterService is a minimal Service exercising the component/module
// lifecycle without any real I/O: it provides one Shared[int] resource
// and tracks whether Start has run, for tests that only care about
// lifecycle ordering.
type CounterService struct {
	*greyhorse.ServiceBase
	Started bool
}

// NewCounterService builds a CounterService named name that provides
// value as a Shared[int] under the unnamed SharedKey[int](), through a
// member and box both named name+".counter".
func NewCounterService(name string, value int) *CounterService {
	base := greyhorse.NewServiceBase(name)
	box := greyhorse.NewSharedRefBox(name+".counter", func() greyhorse.Maybe[int] { return greyhorse.Just(value) })
	base.Provide(name+".counter", greyhorse.SharedKey[int](), greyhorse.ValueFactory[greyhorse.Shared[int]](box))
	return &CounterService{ServiceBase: base}
}

func (s *CounterService) Start() error {
	if err := s.ServiceBase.Start(); err != nil {
		return err
	}
	s.Started = true
	return nil
}

func (s *CounterService) Stop() error {
	s.Started = false
	return s.ServiceBase.Stop()
}

// FixedServiceFactory adapts a pre-built Service into a
// greyhorse.ServiceFactory that ignores its ServiceConf, for tests that
// don't need constructor-argument injection.
func FixedServiceFactory(svc greyhorse.Service) greyhorse.ServiceFactory {
	return func(greyhorse.ServiceConf) (greyhorse.Service, error) { return svc, nil }
}

// FixedControllerFactory adapts a pre-built Controller into a
// greyhorse.ControllerFactory that ignores its ControllerConf.
func FixedControllerFactory(ctrl greyhorse.Controller) greyhorse.ControllerFactory {
	return func(greyhorse.ControllerConf) (greyhorse.Controller, error) { return ctrl, nil }
}

// SimpleComponentConf returns an enabled ComponentConf with one named
// service of serviceType.
func SimpleComponentConf(name, serviceType string) greyhorse.ComponentConf {
	return greyhorse.ComponentConf{
		Name:    name,
		Enabled: true,
		Services: []greyhorse.ServiceConf{
			{Name: name + "-svc", Type: serviceType},
		},
	}
}
