package vm

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// registerIOBuiltins registers console input and output built-in functions.
func (vm *VM) registerIOBuiltins() {
	// print: Write the arguments separated by spaces, without a newline
	vm.RegisterBuiltinFunction("print", func(v *VM, args []Value) (Value, error) {
		return Null{}, v.writeArgs(args, "")
	})

	// println: Like print, followed by a newline
	vm.RegisterBuiltinFunction("println", func(v *VM, args []Value) (Value, error) {
		return Null{}, v.writeArgs(args, "\n")
	})

	// read: Read one line from stdin without its line ending. Null at EOF
	vm.RegisterBuiltinFunction("read", func(v *VM, args []Value) (Value, error) {
		if len(args) != 0 {
			return nil, NewArityError("read", 0, len(args))
		}
		line, err := v.stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			rtErr := NewRuntimeError(ErrorIO, fmt.Sprintf("failed to read input: %v", err))
			rtErr.Err = err
			return nil, rtErr
		}
		if line == "" && err != nil {
			v.log.Debug("read reached end of input")
			return Null{}, nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		return String(line), nil
	})
}

func (vm *VM) writeArgs(args []Value, end string) error {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := vm.Format(a)
		if err != nil {
			return err
		}
		parts[i] = s
	}
	if _, err := io.WriteString(vm.stdout, strings.Join(parts, " ")+end); err != nil {
		rtErr := NewRuntimeError(ErrorIO, fmt.Sprintf("failed to write output: %v", err))
		rtErr.Err = err
		return rtErr
	}
	return nil
}
