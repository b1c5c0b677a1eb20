// Package firsterr accumulates teardown errors without short-circuiting:
// every Add runs, First reports the first non-nil error seen and Err all
// of them (joined when there is more than one), matching
// the "teardown completeness" invariant from the spec (every finalizer in
// a LIFO chain must run even if an earlier one failed).
package firsterr

import "errors"

// Acc collects errors from a sequence of steps that must all run.
type Acc struct {
	errs []error
}

// New returns an empty accumulator.
func New() *Acc { return &Acc{} }

// Add records err if non-nil.
func (a *Acc) Add(err error) {
	if err != nil {
		a.errs = append(a.errs, err)
	}
}

// Err returns nil if nothing was recorded, the sole error if exactly one
// was recorded, or a joined error (errors.Is/As still work against each
// member) otherwise.
func (a *Acc) Err() error {
	switch len(a.errs) {
	case 0:
		return nil
	case 1:
		return a.errs[0]
	default:
		return errors.Join(a.errs...)
	}
}

// First returns the first error recorded, or nil.
func (a *Acc) First() error {
	if len(a.errs) == 0 {
		return nil
	}
	return a.errs[0]
}
