package lazy

// singleton is a degenerate group wrapping a value known at construction
type singleton[T any] struct {
	value T
}

// Singleton returns a Lazy that already holds v. It never touches a handle.
func Singleton[T any](v T) Lazy[T] {
	return singleton[T]{value: v}
}

func (s singleton[T]) Value() (T, error) {
	return s.value, nil
}

// Once returns a single attribute computed by fn the first time it is read.
// fn is the acquisition: if it fails the error is kept like any failed
// acquisition of a Group.
func Once[T any](identity, name string, fn func() (T, error), opts ...Option) *Attribute[T] {
	g := NewGroup[T](identity, AcquirerFuncs[T]{AcquireFunc: fn}, opts...)
	return Register(g, name, func(v T) (T, error) {
		return v, nil
	})
}
