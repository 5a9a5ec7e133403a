package vm

import (
	"context"

	"github.com/zurustar/gem/pkg/compiler/ast"
)

// Session evaluates a sequence of blocks against one heap and one
// top-level frame, as an interactive shell does.
type Session struct {
	vm    *VM
	frame *Frame
}

// NewSession creates a session bound to vm.
func NewSession(vm *VM) *Session {
	return &Session{vm: vm, frame: NewFrame("<session>")}
}

// Eval evaluates block and returns its value as text. Definitions and
// variables survive errors raised by later statements.
func (s *Session) Eval(ctx context.Context, block *ast.Block) (string, error) {
	return s.vm.EvalBlock(ctx, block, s.frame)
}

// Frame returns the session's top-level frame.
func (s *Session) Frame() *Frame {
	return s.frame
}

// VM returns the session's VM.
func (s *Session) VM() *VM {
	return s.vm
}

// Reset forgets every definition and variable.
func (s *Session) Reset() {
	s.vm.heap.Clear()
	s.frame.Clear()
}
