package vm

import (
	"fmt"

	"github.com/zurustar/gem/pkg/compiler/ast"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	ErrorUndefinedFunc   ErrorType = "UNDEFINED_FUNCTION"
	ErrorArityMismatch   ErrorType = "ARITY_MISMATCH"
	ErrorTypeMismatch    ErrorType = "TYPE_MISMATCH"
	ErrorNotIndexable    ErrorType = "NOT_INDEXABLE"
	ErrorIndexOutOfRange ErrorType = "INDEX_OUT_OF_RANGE"
	ErrorInvalidAssign   ErrorType = "INVALID_ASSIGNMENT"
	ErrorUndefinedMember ErrorType = "UNDEFINED_MEMBER"
	ErrorNotAClass       ErrorType = "NOT_A_CLASS"
	ErrorStackOverflow   ErrorType = "STACK_OVERFLOW"
	ErrorTimeout         ErrorType = "TIMEOUT"
	ErrorIO              ErrorType = "IO_ERROR"
)

// RuntimeError is raised during evaluation. Every runtime error is fatal
// to the current run or interactive input.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Line    int // Line number if available, -1 otherwise

	// Expected and Actual are set for ARITY_MISMATCH.
	Expected int
	Actual   int

	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("[%s] %s at line %d", e.Type, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    -1,
	}
}

// NewUndefinedFunctionError creates an undefined function error.
func NewUndefinedFunctionError(name string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedFunc, fmt.Sprintf("undefined function: %s", name))
}

// NewArityError reports a call with the wrong number of arguments.
func NewArityError(name string, expected, actual int) *RuntimeError {
	err := NewRuntimeError(ErrorArityMismatch,
		fmt.Sprintf("expected %d arguments for %s, got %d", expected, name, actual))
	err.Expected = expected
	err.Actual = actual
	return err
}

// NewTypeMismatchError reports an operator applied to unsupported operands.
func NewTypeMismatchError(op string, left, right Kind) *RuntimeError {
	return NewRuntimeError(ErrorTypeMismatch,
		fmt.Sprintf("unsupported operand types for %s: %s and %s", op, left, right))
}

// NewNotIndexableError reports indexing into a non-array.
func NewNotIndexableError(kind Kind) *RuntimeError {
	return NewRuntimeError(ErrorNotIndexable, fmt.Sprintf("type %s isn't indexable", kind))
}

// NewIndexOutOfRangeError creates an index out of range error.
func NewIndexOutOfRangeError(index, length int) *RuntimeError {
	return NewRuntimeError(ErrorIndexOutOfRange, fmt.Sprintf("index %d out of range (length %d)", index, length))
}

// NewInvalidAssignmentError reports an assignment to something that is not
// a name, an index expression or a member.
func NewInvalidAssignmentError(target string) *RuntimeError {
	return NewRuntimeError(ErrorInvalidAssign, fmt.Sprintf("cannot assign to %s", target))
}

// NewUndefinedMemberError reports a missing member or method.
func NewUndefinedMemberError(class, member string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedMember, fmt.Sprintf("%s has no member %s", class, member))
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(depth, max int) *RuntimeError {
	return NewRuntimeError(ErrorStackOverflow, fmt.Sprintf("stack overflow: depth %d exceeds maximum %d", depth, max))
}

// atNode fills in the line of a runtime error that has none yet. The
// innermost node reached first wins.
func atNode(err error, node ast.Node) error {
	if rtErr, ok := err.(*RuntimeError); ok && rtErr.Line < 0 {
		if line := nodeLine(node); line > 0 {
			rtErr.Line = line
		}
	}
	return err
}

func nodeLine(node ast.Node) int {
	switch n := node.(type) {
	case *ast.Binary:
		return n.Token.Line
	case *ast.Name:
		return n.Token.Line
	case *ast.Call:
		return n.Token.Line
	case *ast.Index:
		return n.Token.Line
	case *ast.Member:
		return n.Token.Line
	case *ast.MethodCall:
		return n.Token.Line
	case *ast.New:
		return n.Token.Line
	case *ast.Return:
		return n.Token.Line
	case *ast.Loop:
		return n.Token.Line
	case *ast.If:
		return n.Token.Line
	}
	return 0
}
