// Package vm evaluates gem syntax trees.
//
// A VM owns the heap of function and class definitions and the builtin
// registry. Each call gets a fresh Frame; frames do not nest. The VM is
// single-threaded: use one VM per concurrent run.
package vm

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/gem/pkg/compiler/ast"
	"github.com/zurustar/gem/pkg/logger"
)

// MaxStackDepth is the default maximum call depth.
const MaxStackDepth = 1000

// EntryPoint is the function Run calls after the top-level block.
const EntryPoint = "main"

// BuiltinFunc is the signature for built-in functions.
// Built-in functions receive the VM and evaluated arguments.
type BuiltinFunc func(vm *VM, args []Value) (Value, error)

// VM evaluates programs against a persistent heap.
type VM struct {
	heap     *Heap
	builtins map[string]BuiltinFunc

	callStack []string
	maxDepth  int

	stdout io.Writer
	stdin  *bufio.Reader

	ctx context.Context
	log *slog.Logger
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithMaxDepth bounds the call depth. Zero or less keeps the default.
func WithMaxDepth(depth int) Option {
	return func(vm *VM) {
		if depth > 0 {
			vm.maxDepth = depth
		}
	}
}

// WithStdout sets where print and println write.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) {
		vm.stdout = w
	}
}

// WithStdin sets where read reads from.
func WithStdin(r io.Reader) Option {
	return func(vm *VM) {
		vm.stdin = bufio.NewReader(r)
	}
}

// New creates a VM with the default builtins registered.
func New(opts ...Option) *VM {
	vm := &VM{
		heap:      NewHeap(),
		builtins:  make(map[string]BuiltinFunc),
		callStack: make([]string, 0, 64),
		maxDepth:  MaxStackDepth,
		stdout:    os.Stdout,
		stdin:     bufio.NewReader(os.Stdin),
		ctx:       context.Background(),
		log:       logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(vm)
	}

	vm.registerDefaultBuiltins()
	return vm
}

// Heap returns the definition table.
func (vm *VM) Heap() *Heap {
	return vm.heap
}

// RegisterBuiltinFunction registers a builtin. Builtins shadow heap
// definitions of the same name.
func (vm *VM) RegisterBuiltinFunction(name string, fn BuiltinFunc) {
	vm.builtins[name] = fn
}

func (vm *VM) registerDefaultBuiltins() {
	vm.registerIOBuiltins()
	vm.registerArrayBuiltins()
	vm.registerStringBuiltins()
}

// Run evaluates the program's top-level block, then calls main. When main
// declares one parameter it receives args as an array of strings.
func (vm *VM) Run(ctx context.Context, program *ast.Block, args []string) error {
	vm.ctx = ctx
	defer func() { vm.ctx = context.Background() }()

	frame := NewFrame("<toplevel>")
	if _, err := vm.execBlock(program, frame); err != nil {
		return err
	}
	vm.log.Debug("Top-level block evaluated", "definitions", vm.heap.Size())

	def, ok := vm.heap.Lookup(EntryPoint)
	if !ok {
		return NewUndefinedFunctionError(EntryPoint)
	}
	mainFn, ok := def.(*Function)
	if !ok {
		return NewUndefinedFunctionError(EntryPoint)
	}

	var callArgs []Value
	if len(mainFn.Parameters) == 1 {
		callArgs = []Value{NewStringArray(args)}
	}
	_, err := vm.callFunction(mainFn, callArgs, nil)
	return err
}

// EvalBlock evaluates block against frame and the VM's heap, and returns
// the value of the last statement (or the returned value) as text.
func (vm *VM) EvalBlock(ctx context.Context, block *ast.Block, frame *Frame) (string, error) {
	vm.ctx = ctx
	defer func() { vm.ctx = context.Background() }()

	var last Value = Null{}
	for _, stmt := range block.Statements {
		out, err := vm.exec(stmt, frame)
		if err != nil {
			return "", err
		}
		last = out.value
		if out.returning {
			break
		}
	}
	return vm.Format(last)
}

// Format renders v as text, calling display hooks of objects.
func (vm *VM) Format(v Value) (string, error) {
	return formatValue(v, vm.display)
}

func (vm *VM) display(o *Object) (string, bool, error) {
	if o.Hooks.Display == nil {
		return "", false, nil
	}
	result, err := vm.callFunction(o.Hooks.Display, nil, o)
	if err != nil {
		return "", false, err
	}
	if s, ok := result.(String); ok {
		return string(s), true, nil
	}
	s, err := vm.Format(result)
	return s, err == nil, err
}

// PushStackFrame records entry into a function.
func (vm *VM) PushStackFrame(functionName string) error {
	if len(vm.callStack) >= vm.maxDepth {
		return NewStackOverflowError(len(vm.callStack)+1, vm.maxDepth)
	}
	vm.callStack = append(vm.callStack, functionName)
	vm.log.Debug("Stack frame pushed", "function", functionName, "depth", len(vm.callStack))
	return nil
}

// PopStackFrame records return from the current function.
func (vm *VM) PopStackFrame() {
	if len(vm.callStack) == 0 {
		return
	}
	name := vm.callStack[len(vm.callStack)-1]
	vm.callStack = vm.callStack[:len(vm.callStack)-1]
	vm.log.Debug("Stack frame popped", "function", name, "depth", len(vm.callStack))
}

// GetStackDepth returns the current call depth.
func (vm *VM) GetStackDepth() int {
	return len(vm.callStack)
}

// checkContext turns cancellation of the run's context into a runtime error.
func (vm *VM) checkContext() error {
	if err := vm.ctx.Err(); err != nil {
		rtErr := NewRuntimeError(ErrorTimeout, "execution stopped: "+err.Error())
		rtErr.Err = err
		return rtErr
	}
	return nil
}
