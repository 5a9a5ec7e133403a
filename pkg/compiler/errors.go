package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/gem/pkg/compiler/lexer"
	"github.com/zurustar/gem/pkg/compiler/parser"
)

// CompileError is a lexer or parser error with its location and a source
// excerpt. The underlying *lexer.Error or *parser.Error is kept in Err.
type CompileError struct {
	// Phase is "lexer" or "parser".
	Phase string

	Message string

	// Line and Column are 1-indexed.
	Line   int
	Column int

	// Context holds up to 2 lines around the error with a ^ under the column.
	Context string

	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// newCompileError converts a lexer or parser error into a CompileError.
// Other errors are returned unchanged.
func newCompileError(err error, source string) error {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return &CompileError{
			Phase:   "lexer",
			Message: fmt.Sprintf("%s %q", lexErr.Message, lexErr.Text),
			Line:    lexErr.Line,
			Column:  lexErr.Column,
			Context: GenerateErrorContext(source, lexErr.Line, lexErr.Column),
			Err:     err,
		}
	}

	var parseErr *parser.Error
	if errors.As(err, &parseErr) {
		msg := parseErr.Message
		if parseErr.Expected != "" {
			msg = fmt.Sprintf("expected %s, got %s", parseErr.Expected, parseErr.Found)
		} else {
			msg = fmt.Sprintf("%s: %s", msg, parseErr.Found)
		}
		line, column := parseErr.Found.Line, parseErr.Found.Column
		return &CompileError{
			Phase:   "parser",
			Message: msg,
			Line:    line,
			Column:  column,
			Context: GenerateErrorContext(source, line, column),
			Err:     err,
		}
	}
	return err
}

// GenerateErrorContext renders the lines around line with a > marker on the
// error line and a ^ under column.
//
// Example output:
//
//	  2 | i = 0;
//	  3 | while (i < 5 {
//	    |              ^
//	  4 |     i++;
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder
	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lines[i]))
			indent := 2 + lineNumWidth + 3
			if column > 1 {
				indent += column - 1
			}
			buf.WriteString(strings.Repeat(" ", indent) + "^\n")
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		}
	}

	return buf.String()
}
