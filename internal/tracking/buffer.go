package tracking

// DoubleBuffer holds a current and a previous value and exchanges them
// without copying.
type DoubleBuffer[T any] struct {
	current  T
	previous T
}

// NewDoubleBuffer creates a buffer from two preallocated values.
func NewDoubleBuffer[T any](current, previous T) DoubleBuffer[T] {
	return DoubleBuffer[T]{current: current, previous: previous}
}

// Current returns the value being written this frame.
func (b *DoubleBuffer[T]) Current() T {
	return b.current
}

// Previous returns the value written last frame.
func (b *DoubleBuffer[T]) Previous() T {
	return b.previous
}

// Swap makes the current value the previous one.
func (b *DoubleBuffer[T]) Swap() {
	b.current, b.previous = b.previous, b.current
}
