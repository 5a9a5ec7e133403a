package vm

import "sort"

// Frame holds the local variables of one function activation or of the
// top-level program. Frames do not chain: a callee cannot see its caller.
type Frame struct {
	name      string
	variables map[string]Value
}

// NewFrame creates an empty frame for the named function.
func NewFrame(name string) *Frame {
	return &Frame{
		name:      name,
		variables: make(map[string]Value),
	}
}

// Name returns the function the frame belongs to.
func (f *Frame) Name() string {
	return f.name
}

// Get returns the value bound to name in this frame.
func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.variables[name]
	return v, ok
}

// Set binds name in this frame.
func (f *Frame) Set(name string, value Value) {
	f.variables[name] = value
}

// Has reports whether name is bound in this frame.
func (f *Frame) Has(name string) bool {
	_, ok := f.variables[name]
	return ok
}

// Keys returns the bound names in sorted order.
func (f *Frame) Keys() []string {
	return sortedKeys(f.variables)
}

// Size returns the number of bound names.
func (f *Frame) Size() int {
	return len(f.variables)
}

// Clear removes every binding.
func (f *Frame) Clear() {
	f.variables = make(map[string]Value)
}

// Heap is the definition table shared by every frame of a run. Only
// function and class definitions write to it.
type Heap struct {
	definitions map[string]Value
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{definitions: make(map[string]Value)}
}

// Define binds a definition, replacing any earlier one with the same name.
func (h *Heap) Define(name string, value Value) {
	h.definitions[name] = value
}

// Lookup returns the definition bound to name.
func (h *Heap) Lookup(name string) (Value, bool) {
	v, ok := h.definitions[name]
	return v, ok
}

// Names returns the defined names in sorted order.
func (h *Heap) Names() []string {
	return sortedKeys(h.definitions)
}

// Size returns the number of definitions.
func (h *Heap) Size() int {
	return len(h.definitions)
}

// Clear removes every definition.
func (h *Heap) Clear() {
	h.definitions = make(map[string]Value)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
