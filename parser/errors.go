package parser

import (
	"errors"
	"fmt"

	"github.com/protolang/protocompile/reporter"
)

// ErrNoSyntax is reported as a warning (never an error) when a file has no
// leading "syntax" statement; per §4.2 the compiler defaults to proto3 in
// that case rather than rejecting the file.
var ErrNoSyntax = errors.New("no syntax specified; defaulting to proto3 syntax")

// syntaxError reports a parse failure at the given token and aborts
// parsing of the current file, per the fail-fast policy of §7: unlike the
// semantic analyzer, the parser cannot safely keep going once the token
// stream stops matching the grammar it expects.
func (p *parser) syntaxError(tok LexedToken, format string, args ...interface{}) error {
	span := p.info.NodeSpan(tokenNode{tok.Tok})
	if err := p.handler.HandleErrorf(span, format, args...); err != nil {
		return err
	}
	return reporter.ErrInvalidSource
}

func (p *parser) errExpectedToken(tok LexedToken, want string) error {
	got := describeToken(tok)
	return p.syntaxError(tok, "expected %s, found %s", want, got)
}

func describeToken(tok LexedToken) string {
	switch tok.Kind {
	case TokenEOF:
		return "EOF"
	case TokenString:
		return fmt.Sprintf("string literal %q", tok.Literal)
	case TokenInt, TokenFloat:
		return fmt.Sprintf("numeric literal %q", tok.Text)
	case TokenIdentifier:
		return fmt.Sprintf("identifier %q", tok.Text)
	default:
		return fmt.Sprintf("%q", tok.Text)
	}
}
