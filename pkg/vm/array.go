package vm

import "math"

// NewArray creates an array holding elements.
func NewArray(elements ...Value) *Array {
	if elements == nil {
		elements = []Value{}
	}
	return &Array{Elements: elements}
}

// NewStringArray creates an array of strings, as passed to main.
func NewStringArray(items []string) *Array {
	elements := make([]Value, len(items))
	for i, s := range items {
		elements[i] = String(s)
	}
	return NewArray(elements...)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.Elements)
}

// Get returns the element at index.
func (a *Array) Get(index int) (Value, error) {
	if index >= len(a.Elements) {
		return nil, NewIndexOutOfRangeError(index, len(a.Elements))
	}
	return a.Elements[index], nil
}

// Set replaces the element at index in place. Arrays never grow through
// assignment; use push.
func (a *Array) Set(index int, value Value) error {
	if index >= len(a.Elements) {
		return NewIndexOutOfRangeError(index, len(a.Elements))
	}
	a.Elements[index] = value
	return nil
}

// Push appends values in place.
func (a *Array) Push(values ...Value) {
	a.Elements = append(a.Elements, values...)
}

// ToIndex truncates a number toward zero. Negative and NaN values become 0.
func ToIndex(n Number) int {
	f := float64(n)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
