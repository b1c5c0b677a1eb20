package greyhorse

import (
	"fmt"
	"reflect"
)

// keyKind discriminates which ownership wrapper (if any) a TypeKey denotes.
type keyKind uint8

const (
	kindValue keyKind = iota
	kindShared
	kindMut
	kindFactory
	kindForward
)

func (k keyKind) String() string {
	switch k {
	case kindShared:
		return "Shared"
	case kindMut:
		return "Mut"
	case kindFactory:
		return "Factory"
	case kindForward:
		return "Forward"
	default:
		return "Value"
	}
}

// TypeKey is a handle to a concrete producible type (spec §3). Identity is
// nominal: two keys are equal iff they denote the same producible. Keys
// parameterised over an ownership wrapper (Shared[T], Mut[T], Factory[T],
// Forward[T]) carry structural identity over T via reflect.Type, since Go
// generics erase T by the time a value crosses an interface boundary -
// the same type-erasure boundary the teacher's own Descriptor.Type
// (reflect.Type derived from a constructor's return type) lives at.
//
// TypeKey is comparable and safe to use as a map key.
type TypeKey struct {
	kind  keyKind
	rtype reflect.Type
	name  string // optional disambiguator for named registrations
}

// KeyOf returns the plain (unwrapped) TypeKey for T.
func KeyOf[T any]() TypeKey {
	return TypeKey{kind: kindValue, rtype: typeOf[T]()}
}

// SharedKey returns the TypeKey for Shared[T].
func SharedKey[T any]() TypeKey {
	return TypeKey{kind: kindShared, rtype: typeOf[T]()}
}

// MutKey returns the TypeKey for Mut[T].
func MutKey[T any]() TypeKey {
	return TypeKey{kind: kindMut, rtype: typeOf[T]()}
}

// FactoryKey returns the TypeKey for Factory[T].
func FactoryKey[T any]() TypeKey {
	return TypeKey{kind: kindFactory, rtype: typeOf[T]()}
}

// ForwardKey returns the TypeKey for Forward[T].
func ForwardKey[T any]() TypeKey {
	return TypeKey{kind: kindForward, rtype: typeOf[T]()}
}

// Named returns a copy of the key disambiguated by name, for multiple
// registrations of the same producible type within one registry node.
func (k TypeKey) Named(name string) TypeKey {
	k.name = name
	return k
}

// Kind reports which ownership wrapper this key denotes.
func (k TypeKey) Kind() string { return k.kind.String() }

// Type returns the reflect.Type of the wrapped producible.
func (k TypeKey) Type() reflect.Type { return k.rtype }

// Name returns the key's disambiguating name, or "" if unnamed.
func (k TypeKey) Name() string { return k.name }

// String renders the key for diagnostics, e.g. "Shared[*UserRepo]".
func (k TypeKey) String() string {
	base := fmt.Sprintf("%s[%s]", k.kind, k.rtype)
	if k.name != "" {
		return base + "#" + k.name
	}
	return base
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
