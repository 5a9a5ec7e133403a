package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// registerStringBuiltins registers string conversion built-in functions.
func (vm *VM) registerStringBuiltins() {
	// str: Convert a value to its display text
	vm.RegisterBuiltinFunction("str", func(v *VM, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, NewArityError("str", 1, len(args))
		}
		s, err := v.Format(args[0])
		if err != nil {
			return nil, err
		}
		return String(s), nil
	})

	// num: Parse a string as a number
	vm.RegisterBuiltinFunction("num", func(v *VM, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, NewArityError("num", 1, len(args))
		}
		switch x := args[0].(type) {
		case Number:
			return x, nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
			if err != nil {
				return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("num: cannot convert %q to a number", string(x)))
			}
			return Number(f), nil
		}
		return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("num: unsupported type %s", args[0].Kind()))
	})
}
