package sim

import "log"

// A Register holds a value that only changes at a clock edge.
//
// During a cycle, Get always returns the value committed at the previous
// edge, no matter how many times Set is called. Commit publishes the last
// staged value. A register that is not Set during a cycle holds its value.
type Register[T any] struct {
	cur     T
	next    T
	pending bool
}

// NewRegister creates a register holding the initial value.
func NewRegister[T any](initial T) *Register[T] {
	return &Register[T]{cur: initial}
}

// Get returns the committed value.
func (r *Register[T]) Get() T {
	return r.cur
}

// Set stages the value to be committed at the next edge.
func (r *Register[T]) Set(v T) {
	r.next = v
	r.pending = true
}

// Commit publishes the staged value, if any.
func (r *Register[T]) Commit() {
	if !r.pending {
		return
	}

	r.cur = r.next
	r.pending = false
}

// Reset forces the register to a value and drops the staged one.
func (r *Register[T]) Reset(v T) {
	var zero T

	r.cur = v
	r.next = zero
	r.pending = false
}

// A DelayLine delivers each pushed value a fixed number of edges later.
// Cycles without a Push carry the zero value through the line.
type DelayLine[T any] struct {
	slots   []T
	staged  T
	pending bool
}

// NewDelayLine creates a delay line of the given depth, which must be at
// least one.
func NewDelayLine[T any](depth int) *DelayLine[T] {
	if depth < 1 {
		log.Panicf("delay line depth must be at least 1, got %d", depth)
	}

	return &DelayLine[T]{slots: make([]T, depth)}
}

// Depth returns the number of edges between Push and Out.
func (d *DelayLine[T]) Depth() int {
	return len(d.slots)
}

// Push stages the value entering the line in this cycle.
func (d *DelayLine[T]) Push(v T) {
	d.staged = v
	d.pending = true
}

// Out returns the value that was pushed Depth edges ago.
func (d *DelayLine[T]) Out() T {
	return d.slots[len(d.slots)-1]
}

// Any returns true if any value in the line, including the one pushed in
// this cycle, satisfies pred.
func (d *DelayLine[T]) Any(pred func(T) bool) bool {
	if d.pending && pred(d.staged) {
		return true
	}

	for _, v := range d.slots {
		if pred(v) {
			return true
		}
	}

	return false
}

// Commit shifts the line by one position.
func (d *DelayLine[T]) Commit() {
	var zero T

	copy(d.slots[1:], d.slots[:len(d.slots)-1])

	if d.pending {
		d.slots[0] = d.staged
	} else {
		d.slots[0] = zero
	}

	d.staged = zero
	d.pending = false
}

// Reset empties the line.
func (d *DelayLine[T]) Reset() {
	var zero T

	for i := range d.slots {
		d.slots[i] = zero
	}

	d.staged = zero
	d.pending = false
}
