package vm

import (
	"fmt"

	"github.com/zurustar/gem/pkg/compiler/ast"
	"github.com/zurustar/gem/pkg/compiler/token"
)

// outcome is the result of executing a statement. returning is set once a
// return has been evaluated and stays set until the enclosing call consumes it.
type outcome struct {
	value     Value
	returning bool
}

var nothing = outcome{value: Null{}}

// execBlock executes the statements of block in order and stops at the
// first one that returns. A block's value is null unless it returned.
func (vm *VM) execBlock(block *ast.Block, frame *Frame) (outcome, error) {
	for _, stmt := range block.Statements {
		out, err := vm.exec(stmt, frame)
		if err != nil {
			return nothing, err
		}
		if out.returning {
			return out, nil
		}
	}
	return nothing, nil
}

// exec executes one statement. Expressions are delegated to eval.
func (vm *VM) exec(node ast.Node, frame *Frame) (outcome, error) {
	switch n := node.(type) {
	case *ast.Block:
		return vm.execBlock(n, frame)

	case *ast.Return:
		var result Value = Null{}
		if n.Value != nil {
			v, err := vm.eval(n.Value, frame)
			if err != nil {
				return nothing, atNode(err, n)
			}
			result = v
		}
		return outcome{value: result, returning: true}, nil

	case *ast.Loop:
		out, err := vm.execLoop(n, frame)
		return out, atNode(err, n)

	case *ast.If:
		out, err := vm.execIf(n, frame)
		return out, atNode(err, n)

	case *ast.FunctionDefinition:
		vm.heap.Define(n.Name, newFunction(n))
		vm.log.Debug("Definition registered", "kind", "function", "name", n.Name)
		return nothing, nil

	case *ast.ClassDefinition:
		vm.heap.Define(n.Name, newClass(n))
		vm.log.Debug("Definition registered", "kind", "class", "name", n.Name)
		return nothing, nil
	}

	v, err := vm.eval(node, frame)
	if err != nil {
		return nothing, err
	}
	return outcome{value: v}, nil
}

func (vm *VM) execLoop(loop *ast.Loop, frame *Frame) (outcome, error) {
	cond := loop.Condition
	var increment ast.Node
	if decl, ok := loop.Condition.(*ast.ForDeclaration); ok {
		if _, none := decl.Init.(*ast.NoDeclaration); !none {
			if _, err := vm.eval(decl.Init, frame); err != nil {
				return nothing, err
			}
		}
		cond = decl.Condition
		increment = decl.Increment
	}

	for {
		if err := vm.checkContext(); err != nil {
			return nothing, err
		}
		c, err := vm.eval(cond, frame)
		if err != nil {
			return nothing, err
		}
		if !IsTrue(c) {
			return nothing, nil
		}

		out, err := vm.execBlock(loop.Body, frame)
		if err != nil {
			return nothing, err
		}
		if out.returning {
			return out, nil
		}

		if increment != nil {
			if _, err := vm.eval(increment, frame); err != nil {
				return nothing, err
			}
		}
	}
}

func (vm *VM) execIf(stmt *ast.If, frame *Frame) (outcome, error) {
	for stmt != nil {
		c, err := vm.eval(stmt.Condition, frame)
		if err != nil {
			return nothing, err
		}
		if IsTrue(c) {
			return vm.execBlock(stmt.Body, frame)
		}

		switch alt := stmt.Alternative.(type) {
		case *ast.If:
			stmt = alt
		case *ast.Block:
			return vm.execBlock(alt, frame)
		default:
			stmt = nil
		}
	}
	return nothing, nil
}

// eval evaluates an expression to a value. Name values never escape it.
func (vm *VM) eval(node ast.Node, frame *Frame) (Value, error) {
	v, err := vm.evalNode(node, frame)
	if err != nil {
		return nil, atNode(err, node)
	}
	return vm.resolve(v, frame), nil
}

func (vm *VM) evalNode(node ast.Node, frame *Frame) (Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return Number(n.Value), nil
	case *ast.StringLiteral:
		return String(n.Value), nil
	case *ast.BooleanLiteral:
		return Bool(n.Value), nil
	case *ast.Name:
		return Name(n.Value), nil
	case *ast.NoDeclaration:
		return Null{}, nil

	case *ast.ArrayLiteral:
		elements := make([]Value, 0, len(n.Elements))
		for _, e := range n.Elements {
			v, err := vm.eval(e, frame)
			if err != nil {
				return nil, err
			}
			elements = append(elements, v)
		}
		return NewArray(elements...), nil

	case *ast.Index:
		arr, i, err := vm.evalIndexTarget(n, frame)
		if err != nil {
			return nil, err
		}
		return arr.Get(i)

	case *ast.Binary:
		if n.Operator == token.ASSIGN {
			return vm.evalAssign(n, frame)
		}
		left, err := vm.eval(n.Left, frame)
		if err != nil {
			return nil, err
		}
		right, err := vm.eval(n.Right, frame)
		if err != nil {
			return nil, err
		}
		return vm.binaryOp(n.Operator, left, right)

	case *ast.Call:
		return vm.evalCall(n, frame)

	case *ast.New:
		return vm.evalNew(n, frame)

	case *ast.Member:
		obj, err := vm.evalObject(n.Object, frame)
		if err != nil {
			return nil, err
		}
		v, ok := obj.Members[n.Name]
		if !ok {
			return nil, NewUndefinedMemberError(obj.Class, n.Name)
		}
		return v, nil

	case *ast.MethodCall:
		obj, err := vm.evalObject(n.Object, frame)
		if err != nil {
			return nil, err
		}
		fn, ok := obj.Members[n.Method].(*Function)
		if !ok {
			return nil, NewUndefinedMemberError(obj.Class, n.Method)
		}
		args, err := vm.evalArguments(n.Arguments, frame)
		if err != nil {
			return nil, err
		}
		return vm.callFunction(fn, args, obj)
	}

	return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("cannot evaluate %T as an expression", node))
}

// resolve turns a Name into the value it is bound to: the frame first,
// then the heap. Unbound names are null.
func (vm *VM) resolve(v Value, frame *Frame) Value {
	name, ok := v.(Name)
	if !ok {
		return v
	}
	if bound, ok := frame.Get(string(name)); ok {
		return bound
	}
	if def, ok := vm.heap.Lookup(string(name)); ok {
		return def
	}
	return Null{}
}

func (vm *VM) evalArguments(nodes []ast.Node, frame *Frame) ([]Value, error) {
	args := make([]Value, 0, len(nodes))
	for _, a := range nodes {
		v, err := vm.eval(a, frame)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// evalIndexTarget evaluates base[index] down to an array and an element position.
func (vm *VM) evalIndexTarget(n *ast.Index, frame *Frame) (*Array, int, error) {
	base, err := vm.eval(n.Base, frame)
	if err != nil {
		return nil, 0, err
	}
	arr, ok := base.(*Array)
	if !ok {
		return nil, 0, NewNotIndexableError(base.Kind())
	}
	idx, err := vm.eval(n.Index, frame)
	if err != nil {
		return nil, 0, err
	}
	num, ok := idx.(Number)
	if !ok {
		return nil, 0, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("array index must be a number, got %s", idx.Kind()))
	}
	return arr, ToIndex(num), nil
}

func (vm *VM) evalObject(node ast.Node, frame *Frame) (*Object, error) {
	v, err := vm.eval(node, frame)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("member access on %s", v.Kind()))
	}
	return obj, nil
}

// evalAssign binds a plain name in the current frame, writes an array
// element in place, or writes an object member. The assigned value is the result.
func (vm *VM) evalAssign(n *ast.Binary, frame *Frame) (Value, error) {
	switch target := n.Left.(type) {
	case *ast.Name:
		v, err := vm.eval(n.Right, frame)
		if err != nil {
			return nil, err
		}
		frame.Set(target.Value, v)
		return v, nil

	case *ast.Index:
		arr, i, err := vm.evalIndexTarget(target, frame)
		if err != nil {
			return nil, err
		}
		v, err := vm.eval(n.Right, frame)
		if err != nil {
			return nil, err
		}
		if err := arr.Set(i, v); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.Member:
		obj, err := vm.evalObject(target.Object, frame)
		if err != nil {
			return nil, err
		}
		v, err := vm.eval(n.Right, frame)
		if err != nil {
			return nil, err
		}
		obj.Members[target.Name] = v
		return v, nil
	}
	return nil, NewInvalidAssignmentError(n.Left.String())
}

// evalCall looks up the builtin registry before the heap.
func (vm *VM) evalCall(n *ast.Call, frame *Frame) (Value, error) {
	args, err := vm.evalArguments(n.Arguments, frame)
	if err != nil {
		return nil, err
	}

	if builtin, ok := vm.builtins[n.Callee]; ok {
		vm.log.Debug("Calling builtin", "function", n.Callee, "args", len(args))
		return builtin(vm, args)
	}

	def, ok := vm.heap.Lookup(n.Callee)
	if !ok {
		return nil, NewUndefinedFunctionError(n.Callee)
	}
	fn, ok := def.(*Function)
	if !ok {
		return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("%s is a %s, not a function", n.Callee, def.Kind()))
	}
	return vm.callFunction(fn, args, nil)
}

func (vm *VM) evalNew(n *ast.New, frame *Frame) (Value, error) {
	def, ok := vm.heap.Lookup(n.Class)
	class, isObj := def.(*Object)
	if !ok || !isObj || !class.IsClass {
		return nil, NewRuntimeError(ErrorNotAClass, fmt.Sprintf("%s is not a class", n.Class))
	}

	args, err := vm.evalArguments(n.Arguments, frame)
	if err != nil {
		return nil, err
	}

	obj := class.instantiate()
	if obj.Hooks.Init == nil {
		if len(args) > 0 {
			return nil, NewArityError(n.Class, 0, len(args))
		}
		return obj, nil
	}
	if _, err := vm.callFunction(obj.Hooks.Init, args, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// callFunction runs fn in a fresh frame. When self is non-nil it is bound
// to the first parameter and args fill the rest.
func (vm *VM) callFunction(fn *Function, args []Value, self *Object) (Value, error) {
	params := fn.Parameters
	if self != nil {
		if len(params) == 0 {
			return nil, NewArityError(fn.Name, 0, len(args)+1)
		}
		params = params[1:]
	}
	if len(args) != len(params) {
		return nil, NewArityError(fn.Name, len(params), len(args))
	}
	if err := vm.checkContext(); err != nil {
		return nil, err
	}
	if err := vm.PushStackFrame(fn.Name); err != nil {
		return nil, err
	}
	defer vm.PopStackFrame()

	frame := NewFrame(fn.Name)
	if self != nil {
		frame.Set(fn.Parameters[0], self)
	}
	for i, p := range params {
		frame.Set(p, args[i])
	}

	out, err := vm.execBlock(fn.Body, frame)
	if err != nil {
		return nil, err
	}
	return out.value, nil
}

// newClass builds the class object for a definition.
func newClass(def *ast.ClassDefinition) *Object {
	class := &Object{
		Class:   def.Name,
		IsClass: true,
		Members: make(map[string]Value, len(def.Methods)),
		Hooks: Hooks{
			Init:    newFunction(def.Init),
			Display: newFunction(def.Display),
		},
	}
	for _, m := range def.Methods {
		class.Members[m.Name] = newFunction(m)
	}
	return class
}
