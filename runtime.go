package greyhorse

import (
	"context"
	"sync"

	"github.com/max-plutonium/greyhorse-sub000/internal/rtlog"
)

// runtimeJob is one unit of work submitted to an AppRuntime's worker
// goroutine: fn runs on the worker, and its result is delivered to done.
type runtimeJob struct {
	fn   func(context.Context) (any, error)
	done chan RuntimeResult
}

// RuntimeResult is the outcome of one job run through an AppRuntime.
type RuntimeResult struct {
	Value any
	Err   error
}

// AppRuntime is the process-lifetime event loop from spec §4.I, grounded
// on app/runtime.py: a single worker goroutine draining a job queue,
// bridging synchronous and asynchronous callers onto one execution
// context, with reference-counted Start/Stop so nested callers (e.g. a
// Module and the Application that owns it) can each call Start/Stop
// without tearing the loop down under one another. Named AppRuntime, not
// Runtime, because Runtime already names a rung of the Lifetime ladder.
type AppRuntime struct {
	mu       sync.Mutex
	root     *Container
	jobs     chan runtimeJob
	quit     chan struct{}
	wg       sync.WaitGroup
	refCount int
	running  bool
}

// NewAppRuntime builds an AppRuntime whose jobs run against root.
func NewAppRuntime(root *Container) *AppRuntime {
	return &AppRuntime{root: root}
}

// Container returns the root container the runtime was built over.
func (rt *AppRuntime) Container() *Container { return rt.root }

// Active reports whether the worker goroutine is currently running.
func (rt *AppRuntime) Active() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.running
}

// Start increments the reference count, lazily spinning up the worker
// goroutine on the first call, the Go realisation of runtime.py's
// start()/_counter pairing with __enter__.
func (rt *AppRuntime) Start() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.refCount++
	if rt.running {
		return
	}
	rt.jobs = make(chan runtimeJob, 64)
	rt.quit = make(chan struct{})
	rt.running = true
	rt.wg.Add(1)
	go rt.loop()
	rtlog.Get().Info("runtime started")
}

func (rt *AppRuntime) loop() {
	defer rt.wg.Done()
	ctx := context.Background()
	if rt.root != nil {
		ctx = rt.root.Context()
	}
	for {
		select {
		case job, ok := <-rt.jobs:
			if !ok {
				return
			}
			value, err := job.fn(ctx)
			job.done <- RuntimeResult{Value: value, Err: err}
		case <-rt.quit:
			return
		}
	}
}

// Stop decrements the reference count, tearing the worker goroutine down
// once the count reaches zero, the Go realisation of runtime.py's
// stop()/__exit__ pairing. Stopping an already-stopped runtime is a no-op.
func (rt *AppRuntime) Stop() {
	rt.mu.Lock()
	if !rt.running {
		rt.mu.Unlock()
		return
	}
	rt.refCount--
	if rt.refCount > 0 {
		rt.mu.Unlock()
		return
	}
	rt.running = false
	close(rt.quit)
	rt.mu.Unlock()

	rt.wg.Wait()
	rtlog.Get().Info("runtime stopped")
}

// RunSync submits fn to the worker goroutine and blocks for its result,
// the Go realisation of runtime.py's invoke_sync: a synchronous caller
// gets ordinary blocking semantics even though the work itself always
// executes on the shared worker goroutine.
func (rt *AppRuntime) RunSync(fn func(context.Context) (any, error)) (any, error) {
	rt.mu.Lock()
	running := rt.running
	jobs := rt.jobs
	rt.mu.Unlock()
	if !running {
		return nil, ErrRuntimeNotStarted
	}

	done := make(chan RuntimeResult, 1)
	select {
	case jobs <- runtimeJob{fn: fn, done: done}:
	case <-rt.quit:
		return nil, ErrRuntimeStopped
	}

	select {
	case res := <-done:
		return res.Value, res.Err
	case <-rt.quit:
		return nil, ErrRuntimeStopped
	}
}

// RunAsync submits fn to the worker goroutine and returns immediately
// with a channel the caller can receive the result from whenever it
// chooses, the Go realisation of runtime.py's invoke_async. The returned
// channel is closed after delivering exactly one result.
func (rt *AppRuntime) RunAsync(ctx context.Context, fn func(context.Context) (any, error)) <-chan RuntimeResult {
	out := make(chan RuntimeResult, 1)

	rt.mu.Lock()
	running := rt.running
	jobs := rt.jobs
	rt.mu.Unlock()
	if !running {
		out <- RuntimeResult{Err: ErrRuntimeNotStarted}
		close(out)
		return out
	}

	done := make(chan RuntimeResult, 1)
	go func() {
		defer close(out)
		select {
		case jobs <- runtimeJob{fn: fn, done: done}:
		case <-rt.quit:
			out <- RuntimeResult{Err: ErrRuntimeStopped}
			return
		case <-ctx.Done():
			out <- RuntimeResult{Err: ctx.Err()}
			return
		}
		select {
		case res := <-done:
			out <- res
		case <-rt.quit:
			out <- RuntimeResult{Err: ErrRuntimeStopped}
		case <-ctx.Done():
			out <- RuntimeResult{Err: ctx.Err()}
		}
	}()

	return out
}

// Application binds one root Module to one AppRuntime, the Go realisation
// of entities/application.py's Application: the single object a process's
// main function builds, runs, and tears down.
type Application struct {
	root    *Module
	runtime *AppRuntime
}

// LoadApplication builds the Module tree described by conf via asm, wires
// it to a fresh AppRuntime over root, and returns the assembled, not-yet-
// set-up Application.
func LoadApplication(asm *Assembler, root *Container, conf ModuleConf) (*Application, error) {
	mod, err := asm.Build("app", conf)
	if err != nil {
		return nil, err
	}
	return &Application{root: mod, runtime: NewAppRuntime(root)}, nil
}

// Module returns the application's root module.
func (a *Application) Module() *Module { return a.root }

// Runtime returns the application's AppRuntime.
func (a *Application) Runtime() *AppRuntime { return a.runtime }

// Setup sets up the whole module tree.
func (a *Application) Setup() error { return a.root.Setup() }

// Start starts the runtime then the whole module tree.
func (a *Application) Start() error {
	a.runtime.Start()
	if err := a.root.Start(); err != nil {
		a.runtime.Stop()
		return err
	}
	return nil
}

// Stop stops the module tree then the runtime.
func (a *Application) Stop() error {
	err := a.root.Stop()
	a.runtime.Stop()
	return err
}

// Teardown tears the whole module tree down.
func (a *Application) Teardown() error { return a.root.Teardown() }

// Waiters returns every service waiter across the application.
func (a *Application) Waiters() []*ServiceWaiter { return a.root.Waiters() }

// Run blocks until every service signals stop or ctx is cancelled,
// running the application's whole Setup -> Start -> wait -> Stop ->
// Teardown lifecycle, the Go realisation of runtime.py's top-level
// run loop. With no service waiters at all, only ctx ends the wait.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		_ = a.Teardown()
		return err
	}

	waiters := a.Waiters()
	var allDone chan struct{}
	if len(waiters) > 0 {
		allDone = make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(len(waiters))
		for _, w := range waiters {
			go func(w *ServiceWaiter) {
				defer wg.Done()
				<-w.Done()
			}(w)
		}
		go func() { wg.Wait(); close(allDone) }()
	}

	select {
	case <-ctx.Done():
	case <-allDone:
	}

	stopErr := a.Stop()
	tdErr := a.Teardown()
	if stopErr != nil {
		return stopErr
	}
	return tdErr
}
