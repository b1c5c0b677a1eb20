package greyhorse

// TypeFactory is a tagged variant over the four shapes in spec §3: Value,
// Class/Ctor, Fn and Generator. It is sealed to this package - the only
// way to obtain one is through ValueFactory, ClassFactory, FnFactory or
// GeneratorFactory below - mirroring the compile-time member-registration
// replacement for reflection-driven discovery called for in the Design Notes.
type TypeFactory interface {
	// Scoped reports whether a produced value must be finalised when its
	// owning Container exits.
	Scoped() bool
	// Cache reports whether the Container should memoise the produced
	// value for the scope.
	Cache() bool
	// instantiate produces one value, type-erased, plus an optional
	// finalizer to run on scope exit when Scoped() is true.
	instantiate(key TypeKey) (any, func() error, error)
}

// valueFactory always returns the same pre-built instance (spec: "owns a
// pre-built instance; always returns it; marked cache = true").
type valueFactory[T any] struct {
	value T
}

// ValueFactory wraps a pre-built instance as a TypeFactory.
func ValueFactory[T any](value T) TypeFactory {
	return valueFactory[T]{value: value}
}

func (f valueFactory[T]) Scoped() bool { return false }
func (f valueFactory[T]) Cache() bool  { return true }
func (f valueFactory[T]) instantiate(TypeKey) (any, func() error, error) {
	return f.value, nil, nil
}

// classFactory invokes a nullary constructor on every call.
type classFactory[T any] struct {
	ctor  func() (T, error)
	cache bool
}

// ClassFactory wraps a nullary constructor as a TypeFactory. If cache is
// true the Container memoises the first produced value for its scope.
func ClassFactory[T any](ctor func() (T, error), cache bool) TypeFactory {
	return classFactory[T]{ctor: ctor, cache: cache}
}

func (f classFactory[T]) Scoped() bool { return false }
func (f classFactory[T]) Cache() bool  { return f.cache }
func (f classFactory[T]) instantiate(TypeKey) (any, func() error, error) {
	v, err := f.ctor()
	return v, nil, err
}

// fnFactory invokes a one-argument function taking the requested TypeKey.
type fnFactory[T any] struct {
	fn    func(TypeKey) (T, error)
	cache bool
}

// FnFactory wraps a one-argument constructor (the requested key is passed
// through, so one Fn factory can serve every key a default_factory accepts).
func FnFactory[T any](fn func(TypeKey) (T, error), cache bool) TypeFactory {
	return fnFactory[T]{fn: fn, cache: cache}
}

func (f fnFactory[T]) Scoped() bool { return false }
func (f fnFactory[T]) Cache() bool  { return f.cache }
func (f fnFactory[T]) instantiate(key TypeKey) (any, func() error, error) {
	v, err := f.fn(key)
	return v, nil, err
}

// generatorFactory represents the "yield instance, then finalise on second
// resumption" idiom from spec §3/§9 as an explicit RAII pair: init produces
// the instance, fini finalises it. This is the Go realisation the Design
// Notes call for in place of a coroutine/iterator protocol.
type generatorFactory[T any] struct {
	init  func() (T, error)
	fini  func(T) error
	cache bool
}

// GeneratorFactory wraps an init/fini pair as a TypeFactory. The produced
// value is always finalised on scope exit (Scoped() is always true); pass
// cache=true to additionally memoise it for the scope's lifetime.
func GeneratorFactory[T any](init func() (T, error), fini func(T) error, cache bool) TypeFactory {
	return generatorFactory[T]{init: init, fini: fini, cache: cache}
}

func (f generatorFactory[T]) Scoped() bool { return true }
func (f generatorFactory[T]) Cache() bool  { return f.cache }
func (f generatorFactory[T]) instantiate(TypeKey) (any, func() error, error) {
	v, err := f.init()
	if err != nil {
		var zero T
		return zero, nil, err
	}
	finalize := func() error {
		if f.fini == nil {
			return nil
		}
		return f.fini(v)
	}
	return v, finalize, nil
}
