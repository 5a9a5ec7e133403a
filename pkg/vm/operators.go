package vm

import (
	"github.com/zurustar/gem/pkg/compiler/token"
)

// binaryOp applies a non-assignment operator to two resolved operands.
func (vm *VM) binaryOp(op token.TokenType, left, right Value) (Value, error) {
	switch op {
	case token.EQ:
		return Bool(Compare(left, right) == 0), nil
	case token.NOT_EQ:
		return Bool(Compare(left, right) != 0), nil
	case token.LT:
		return Bool(Compare(left, right) < 0), nil
	case token.LTE:
		return Bool(Compare(left, right) <= 0), nil
	case token.GT:
		return Bool(Compare(left, right) > 0), nil
	case token.GTE:
		return Bool(Compare(left, right) >= 0), nil
	}

	if op == token.PLUS {
		if s, ok, err := vm.concat(left, right); ok || err != nil {
			return s, err
		}
	}

	l, lok := left.(Number)
	r, rok := right.(Number)
	if !lok || !rok {
		return nil, NewTypeMismatchError(string(op), left.Kind(), right.Kind())
	}

	switch op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.ASTERISK:
		return l * r, nil
	case token.SLASH:
		return l / r, nil
	}
	return nil, NewRuntimeError(ErrorTypeMismatch, "unknown operator: "+string(op))
}

// concat joins the text of both operands when either one is a string.
func (vm *VM) concat(left, right Value) (Value, bool, error) {
	_, ls := left.(String)
	_, rs := right.(String)
	if !ls && !rs {
		return nil, false, nil
	}
	l, err := vm.Format(left)
	if err != nil {
		return nil, true, err
	}
	r, err := vm.Format(right)
	if err != nil {
		return nil, true, err
	}
	return String(l + r), true, nil
}
