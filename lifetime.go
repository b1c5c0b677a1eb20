package greyhorse

import "encoding/json"

// Lifetime is a totally ordered tag controlling when a container-scoped
// resource is created and destroyed. A child Container's lifetime always
// strictly exceeds its parent's (spec invariant 6).
type Lifetime int

const (
	// Root is the outermost lifetime, created once for the whole process.
	Root Lifetime = iota
	// Runtime holds resources that live alongside the event loop/worker thread.
	Runtime
	// Component holds resources scoped to one assembled component.
	Component
	// Session holds resources scoped to a long-lived client session.
	Session
	// Request holds resources scoped to a single inbound request.
	Request
	// Action holds resources scoped to one action within a request.
	Action
	// Step is the innermost lifetime, scoped to a single unit of work.
	Step
)

// lifetimeNames is indexed by Lifetime and doubles as the bounds check for IsValid.
var lifetimeNames = [...]string{"Root", "Runtime", "Component", "Session", "Request", "Action", "Step"}

// autoCreateFlags holds the autocreate flag of each lifetime, as reported
// by AutoCreate: Root, Runtime, Session and Action are flagged; Component,
// Request and Step are not. Container.Descend and DescendTo do not read
// the flag; every container on every rung is created by an explicit call.
var autoCreateFlags = [...]bool{true, true, false, true, false, true, false}

// String returns the lifetime's name.
func (l Lifetime) String() string {
	if !l.IsValid() {
		return "Unknown"
	}
	return lifetimeNames[l]
}

// IsValid reports whether l is one of the seven defined lifetimes.
func (l Lifetime) IsValid() bool {
	return l >= Root && l <= Step
}

// AutoCreate reports whether a descent through this lifetime should
// instantiate it eagerly, without requiring an explicit target lifetime.
func (l Lifetime) AutoCreate() bool {
	if !l.IsValid() {
		return false
	}
	return autoCreateFlags[l]
}

// Next returns the lifetime immediately deeper than l, and whether one exists.
func (l Lifetime) Next() (Lifetime, bool) {
	if !l.IsValid() || l == Step {
		return l, false
	}
	return l + 1, true
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	s := string(text)
	for i, name := range lifetimeNames {
		if name == s {
			*l = Lifetime(i)
			return nil
		}
	}
	return &LifetimeError{Value: s}
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return l.UnmarshalText([]byte(s))
}
