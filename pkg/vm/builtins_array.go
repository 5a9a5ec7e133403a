package vm

import "fmt"

// registerArrayBuiltins registers array-related built-in functions.
func (vm *VM) registerArrayBuiltins() {
	// len: Element count of an array or byte length of a string
	vm.RegisterBuiltinFunction("len", func(v *VM, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, NewArityError("len", 1, len(args))
		}
		switch x := args[0].(type) {
		case *Array:
			return Number(x.Len()), nil
		case String:
			return Number(len(x)), nil
		}
		return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("len: unsupported type %s", args[0].Kind()))
	})

	// push: Append values in place and return the same array
	vm.RegisterBuiltinFunction("push", func(v *VM, args []Value) (Value, error) {
		if len(args) < 2 {
			return nil, NewArityError("push", 2, len(args))
		}
		arr, ok := args[0].(*Array)
		if !ok {
			return nil, NewNotIndexableError(args[0].Kind())
		}
		arr.Push(args[1:]...)
		v.log.Debug("push called", "size", arr.Len())
		return arr, nil
	})
}
