// Package reporter defines the error-and-warning surface used throughout
// the compile pipeline (§7). Every user-visible failure is an
// ErrorWithPos: a Go error plus the source span that caused it.
package reporter

import (
	"errors"
	"fmt"

	"github.com/protolang/protocompile/ast"
)

// ErrInvalidSource is returned by a pipeline stage when one or more
// errors were reported but the configured Reporter chose to swallow them
// (by returning nil from Error) rather than abort immediately.
var ErrInvalidSource = errors.New("invalid proto source")

// ErrorWithPos pairs an error with the source span that produced it.
type ErrorWithPos interface {
	error
	GetPosition() ast.SourceSpan
	Unwrap() error
}

type errorWithPos struct {
	span ast.SourceSpan
	err  error
}

func Error(span ast.SourceSpan, err error) ErrorWithPos {
	return errorWithPos{span: span, err: err}
}

func Errorf(span ast.SourceSpan, format string, args ...interface{}) ErrorWithPos {
	return errorWithPos{span: span, err: fmt.Errorf(format, args...)}
}

func (e errorWithPos) Error() string               { return fmt.Sprintf("%s: %v", e.span, e.err) }
func (e errorWithPos) GetPosition() ast.SourceSpan { return e.span }
func (e errorWithPos) Unwrap() error               { return e.err }

var _ ErrorWithPos = errorWithPos{}

// ErrorKind classifies an error per the taxonomy of §7. It does not
// replace ErrorWithPos; it is attached alongside it so that callers can
// switch on the kind of failure without parsing messages.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindFileNotFound
	KindIO
	KindDependencyResolution
	KindCircularDependency
	KindLexical
	KindSyntax
	KindSemantic
)

func (k ErrorKind) String() string {
	switch k {
	case KindFileNotFound:
		return "file-not-found"
	case KindIO:
		return "io-error"
	case KindDependencyResolution:
		return "dependency-resolution"
	case KindCircularDependency:
		return "circular-dependency"
	case KindLexical:
		return "lexical-error"
	case KindSyntax:
		return "syntax-error"
	case KindSemantic:
		return "semantic-error"
	default:
		return "internal-error"
	}
}

// KindedError carries an ErrorKind alongside the usual position/message,
// so that embedders can branch on error category per §7 without string
// matching.
type KindedError struct {
	Kind ErrorKind
	errorWithPos
}

func NewKinded(kind ErrorKind, span ast.SourceSpan, err error) KindedError {
	return KindedError{Kind: kind, errorWithPos: errorWithPos{span: span, err: err}}
}

func NewKindedf(kind ErrorKind, span ast.SourceSpan, format string, args ...interface{}) KindedError {
	return NewKinded(kind, span, fmt.Errorf(format, args...))
}

// Reporter is the embedder-supplied sink for errors and warnings
// encountered during compilation. Error returning nil means "continue
// compiling if at all possible"; returning non-nil aborts the operation
// with that error.
type Reporter interface {
	Error(ErrorWithPos) error
	Warning(ErrorWithPos)
}

// Handler wraps a Reporter, providing the fail-fast (lexer/parser) and
// accumulate-then-report (semantic analyzer) behaviors described in §7.
type Handler struct {
	reporter Reporter
	errs     []ErrorWithPos
	stopped  error
}

// NewHandler returns a Handler for r. If r is nil, a default reporter is
// used that fails on the first error and ignores all warnings (matching
// the teacher's default behavior).
func NewHandler(r Reporter) *Handler {
	if r == nil {
		r = failFastReporter{}
	}
	return &Handler{reporter: r}
}

type failFastReporter struct{}

func (failFastReporter) Error(e ErrorWithPos) error { return e }
func (failFastReporter) Warning(ErrorWithPos)        {}

// HandleError reports err. If the configured Reporter returns a non-nil
// error, further calls short-circuit and return that same error
// (fail-fast semantics for the lexer and parser).
func (h *Handler) HandleError(err ErrorWithPos) error {
	if h.stopped != nil {
		return h.stopped
	}
	h.errs = append(h.errs, err)
	if rerr := h.reporter.Error(err); rerr != nil {
		h.stopped = rerr
		return rerr
	}
	return nil
}

func (h *Handler) HandleErrorf(span ast.SourceSpan, format string, args ...interface{}) error {
	return h.HandleError(Errorf(span, format, args...))
}

func (h *Handler) HandleWarning(w ErrorWithPos) {
	h.reporter.Warning(w)
}

func (h *Handler) HandleWarningf(span ast.SourceSpan, format string, args ...interface{}) {
	h.HandleWarning(Errorf(span, format, args...))
}

// Error returns ErrInvalidSource if any error was reported and the
// Reporter never aborted the operation outright (i.e. it chose to
// swallow errors so that multiple diagnostics could be collected, as the
// semantic analyzer does per §7). It returns the stored abort error if
// the Reporter did abort. It returns nil if no error was ever reported.
func (h *Handler) Error() error {
	if h.stopped != nil {
		return h.stopped
	}
	if len(h.errs) > 0 {
		return ErrInvalidSource
	}
	return nil
}

// Errors returns every error reported to this handler, in report order.
func (h *Handler) Errors() []ErrorWithPos { return h.errs }

// ReporterError returns the error that caused the Reporter to abort, if
// any, without the ErrInvalidSource substitution that Error() performs.
func (h *Handler) ReporterError() error { return h.stopped }
