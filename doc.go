// Package greyhorse is a lifetime-scoped dependency container with
// ownership-aware resource providers and a declarative wiring engine.
//
// # Overview
//
// greyhorse resolves resources against a ladder of nested Containers, each
// pinned to one rung of a Lifetime (Root, Runtime, Component, Session,
// Request, Action, Step). A resource declares how it is owned - Shared (many borrowers, one
// owner), Mut (exclusive access), Factory (no ownership, fresh value every
// call), or Forward (a value handed off exactly once) - and the container
// enforces that contract at resolution time instead of leaving it to
// caller discipline.
//
// # Basic usage
//
//	reg := greyhorse.NewFactoryRegistry()
//	reg.AddFactory("", greyhorse.KeyOf[*Database](), greyhorse.ClassFactory(openDatabase, true))
//
//	root := greyhorse.NewRootContainer(ctx, reg, "")
//	defer root.Close()
//
//	res := greyhorse.Get[*Database](root)
//	if res.IsOk() {
//		db := res.Unwrap()
//		_ = db
//	}
//
// # Ownership
//
// Shared/Mut/Factory/Forward providers are backed by the box_*.go family:
// SharedRefBox and MutRefBox wrap a factory function behind borrow/acquire
// counters, OwnerRefBox binds a Shared and a Mut view of the same
// underlying value to one pair of counters, and ForwardBox/
// PermanentForwardBox model a value that can be taken at most once (or,
// in the permanent case, read repeatedly but never mutated in place).
//
// # Contexts
//
// Context[T] and MutContext[T] give a resource a re-entrant scope with
// Enter/Exit bracketing, mirroring a `with` block: nested Enter calls
// increase a reference count instead of re-running the factory, and the
// final Exit tears the value down and runs any registered finalizers.
// MutContext adds Apply/Cancel for resources that need an explicit
// commit/rollback decision, with force-rollback and auto-apply policies
// resolved once per context and documented in DESIGN.md.
//
// # Lifetimes and containers
//
// A Container is addressed at a dotted registry path and descends to the
// next Lifetime rung via Descend, or skips ahead to a specific rung via
// DescendTo. Resolving a resource memoises it for the container's own
// lifetime only; Close tears a container's own finalizers down in LIFO
// order, after recursively closing every still-open child.
//
// # Errors
//
// Failures are reported as typed Kind/context structs (BorrowError,
// BorrowMutError, FactoryError, ForwardError, ResourceError,
// ControllerError, ServiceError, ComponentError, ModuleError,
// LifetimeError) rather than bare strings, so callers can switch on
// Kind without string matching.
package greyhorse
