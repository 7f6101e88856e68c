package vm

// DefaultStackDepth is the default maximum number of values a thread's
// operand stack can hold.
const DefaultStackDepth = 256

// ValueStack is the bounded operand stack owned by a single thread.
// Values are signed 32-bit integers; natives that work with 16-bit game
// values truncate on pop.
type ValueStack struct {
	values []int32
	max    int
}

// NewValueStack creates an empty stack bounded to max values.
func NewValueStack(max int) *ValueStack {
	if max <= 0 {
		max = DefaultStackDepth
	}
	return &ValueStack{
		values: make([]int32, 0, min(max, 32)),
		max:    max,
	}
}

// Push pushes a value. It fails with a fatal overflow error when the stack
// is full.
func (s *ValueStack) Push(v int32) error {
	if len(s.values) >= s.max {
		return NewStackOverflowError(len(s.values) + 1)
	}
	s.values = append(s.values, v)
	return nil
}

// Pop removes and returns the top value.
func (s *ValueStack) Pop() (int32, error) {
	n := len(s.values)
	if n == 0 {
		return 0, NewStackUnderflowError(1, 0)
	}
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v, nil
}

// Peek returns the top value without removing it.
func (s *ValueStack) Peek() (int32, error) {
	n := len(s.values)
	if n == 0 {
		return 0, NewStackUnderflowError(1, 0)
	}
	return s.values[n-1], nil
}

// Len returns the current depth.
func (s *ValueStack) Len() int {
	return len(s.values)
}

// Cap returns the maximum depth.
func (s *ValueStack) Cap() int {
	return s.max
}

// Values returns a copy of the stack contents, bottom first.
func (s *ValueStack) Values() []int32 {
	out := make([]int32, len(s.values))
	copy(out, s.values)
	return out
}

// Reset replaces the stack contents. Values are given bottom first.
func (s *ValueStack) Reset(values []int32) error {
	if len(values) > s.max {
		return NewStackOverflowError(len(values))
	}
	s.values = append(s.values[:0], values...)
	return nil
}
