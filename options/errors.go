package options

import (
	"fmt"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

type interpreterError struct {
	base error
	node ast.Node
}

func (e *interpreterError) Error() string { return e.base.Error() }
func (e *interpreterError) Unwrap() error { return e.base }
func (e *interpreterError) Node() ast.Node { return e.node }

// OptionNotFoundError means the referenced option name isn't a field of the
// option type being interpreted, and isn't a known extension of it either.
type OptionNotFoundError interface {
	error
	Node() ast.Node
	isOptionNotFoundError()
}

// OptionForbiddenError means the option name resolved, but this context
// doesn't allow setting it (currently unused, reserved for custom options
// restricted to specific targets).
type OptionForbiddenError interface {
	error
	Node() ast.Node
	isOptionForbiddenError()
}

// OptionTypeMismatchError means the option value's literal kind doesn't
// match what the option's type requires (e.g. a string where an enum
// identifier was expected).
type OptionTypeMismatchError interface {
	error
	Node() ast.Node
	isOptionTypeMismatchError()
}

// OptionValueError means the value is of the right kind but otherwise
// invalid for this option (out of range, unknown enum identifier, etc).
type OptionValueError interface {
	error
	Node() ast.Node
	isOptionValueError()
}

type optionNotFoundError struct{ interpreterError }

func (e *optionNotFoundError) isOptionNotFoundError() {}

type optionForbiddenError struct{ interpreterError }

func (e *optionForbiddenError) isOptionForbiddenError() {}

type optionTypeMismatchError struct{ interpreterError }

func (e *optionTypeMismatchError) isOptionTypeMismatchError() {}

type optionValueError struct{ interpreterError }

func (e *optionValueError) isOptionValueError() {}

var (
	_ OptionForbiddenError    = (*optionForbiddenError)(nil)
	_ OptionNotFoundError     = (*optionNotFoundError)(nil)
	_ OptionTypeMismatchError = (*optionTypeMismatchError)(nil)
	_ OptionValueError        = (*optionValueError)(nil)
)

func (i *interpreter) handleNotFoundErrorf(span ast.SourceSpan, node ast.Node, format string, args ...interface{}) error {
	return i.handler.HandleError(reporter.Error(span, &optionNotFoundError{
		interpreterError{base: fmt.Errorf(format, args...), node: node},
	}))
}

func (i *interpreter) handleTypeMismatchErrorf(span ast.SourceSpan, node ast.Node, format string, args ...interface{}) error {
	return i.handler.HandleError(reporter.Error(span, &optionTypeMismatchError{
		interpreterError{base: fmt.Errorf(format, args...), node: node},
	}))
}

func (i *interpreter) handleValueErrorf(span ast.SourceSpan, node ast.Node, format string, args ...interface{}) error {
	return i.handler.HandleError(reporter.Error(span, &optionValueError{
		interpreterError{base: fmt.Errorf(format, args...), node: node},
	}))
}
