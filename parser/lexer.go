package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

// TokenKind classifies a lexed token (§3.1).
type TokenKind int

const (
	TokenKeyword TokenKind = iota
	TokenIdentifier
	TokenInt
	TokenFloat
	TokenString
	TokenBool
	TokenPunct
	TokenEOF
)

// LexedToken is one entry of the positioned token stream the lexer
// produces (§3.1). Literal is nil for punctuation, keywords and EOF, holds
// the name for identifiers, and the decoded value for strings/numbers/bools
// (as the concrete Go type: string, uint64, float64, or bool).
type LexedToken struct {
	Kind    TokenKind
	Text    string // raw lexeme, always populated
	Literal interface{}
	Tok     ast.Token // handle into the FileInfo for position lookups

	LeadingComments []ast.Comment
	TrailingComment *ast.Comment
}

var keywords = map[string]bool{
	"syntax": true, "import": true, "weak": true, "public": true, "package": true,
	"option": true, "message": true, "enum": true, "service": true, "rpc": true,
	"returns": true, "stream": true, "repeated": true, "optional": true,
	"reserved": true, "to": true, "map": true, "oneof": true, "extend": true,
	"extensions": true, "max": true, "required": true, "true": true, "false": true,
	"double": true, "float": true, "int32": true, "int64": true, "uint32": true,
	"uint64": true, "sint32": true, "sint64": true, "fixed32": true, "fixed64": true,
	"sfixed32": true, "sfixed64": true, "bool": true, "string": true, "bytes": true,
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// lexer turns a source buffer into a stream of LexedTokens. It has no
// backtracking: Next() always advances, and the parser is responsible for
// any lookahead it needs by buffering tokens itself.
type lexer struct {
	filename string
	data     []byte
	pos      int
	info     *ast.FileInfo
	handler  *reporter.Handler

	// prevKind/prevText describe the most recently emitted non-comment
	// token, used for the context-sensitive rule in §4.1 that identifiers
	// after '.' are never treated as keywords. Signs are not folded here:
	// '+' and '-' are always emitted as punctuation.
	prevKind TokenKind
	prevText string
	prevTok  ast.Token
	havePrev bool

	eofEmitted bool
}

func newLexer(filename string, data []byte, handler *reporter.Handler) *lexer {
	if bytes.HasPrefix(data, bom) {
		data = data[len(bom):]
	}
	return &lexer{
		filename: filename,
		data:     data,
		info:     ast.NewFileInfo(filename, data),
		handler:  handler,
	}
}

func (l *lexer) fileInfo() *ast.FileInfo { return l.info }

// posSpan returns the span for the single byte at offset (used when an
// error occurs before a token could be fully formed).
func (l *lexer) posSpan(offset int) ast.SourceSpan {
	p := l.info.SourcePos(offset)
	return ast.NewSourceSpan(p, p)
}

// errorf reports a lexing error. The lexer does not recover from one, so
// it returns a non-nil error even when the reporter chooses to continue.
func (l *lexer) errorf(offset int, format string, args ...interface{}) error {
	if err := l.handler.HandleErrorf(l.posSpan(offset), format, args...); err != nil {
		return err
	}
	return reporter.ErrInvalidSource
}

// Next lexes and returns the next token. Once EOF is reached, every
// subsequent call keeps returning an EOF token at the same position
// (§4.1).
func (l *lexer) Next() (LexedToken, error) {
	leading, trailing := l.consumeComments()
	if trailing != nil && l.havePrev {
		l.info.SetTrailingComment(l.prevTok, *trailing)
	}

	if l.pos >= len(l.data) {
		tok := l.emit(TokenEOF, "", nil, l.pos, 0)
		l.info.SetLeadingComments(tok.Tok, leading)
		tok.LeadingComments = leading
		l.eofEmitted = true
		return tok, nil
	}

	start := l.pos
	c := l.data[l.pos]

	var (
		tok LexedToken
		err error
	)

	switch {
	case isIdentStart(c):
		tok, err = l.lexIdentOrKeyword(start)
	case c >= '0' && c <= '9':
		tok, err = l.lexNumber(start, false)
	case c == '+' || c == '-':
		// Signs are always standalone punctuation tokens; folding a sign
		// into the following numeric literal is the parser's job (it only
		// does so in value position), not the lexer's.
		l.pos++
		tok = l.emit(TokenPunct, string(c), nil, start, 1)
	case c == '"' || c == '\'':
		tok, err = l.lexString(start)
	case c == '.':
		// Could be the start of a float like ".5", or a bare dot.
		if start+1 < len(l.data) && isDigit(l.data[start+1]) {
			tok, err = l.lexNumber(start, false)
		} else {
			l.pos++
			tok = l.emit(TokenPunct, ".", nil, start, 1)
		}
	case strings.ContainsRune("={};()[]<>,:", rune(c)):
		l.pos++
		tok = l.emit(TokenPunct, string(c), nil, start, 1)
	default:
		l.pos++
		err = l.errorf(start, "invalid character %q", c)
		tok = l.emit(TokenPunct, string(c), nil, start, 1)
	}
	if err != nil {
		return tok, err
	}
	l.info.SetLeadingComments(tok.Tok, leading)
	tok.LeadingComments = leading
	l.setPrev(tok)
	return tok, nil
}

func (l *lexer) setPrev(tok LexedToken) {
	l.prevKind = tok.Kind
	l.prevText = tok.Text
	l.prevTok = tok.Tok
	l.havePrev = true
}

func (l *lexer) emit(kind TokenKind, text string, lit interface{}, offset, length int) LexedToken {
	tok := l.info.AddToken(offset, length)
	return LexedToken{Kind: kind, Text: text, Literal: lit, Tok: tok}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// consumeComments skips whitespace and accumulates any leading comment
// sequence (§4.1). It also detects whether the immediately preceding
// token (on the same line, before any newline was crossed) should receive
// a trailing comment, returning that owner's handle in which case the
// caller attaches it once the owning token is known -- here we instead
// return the comments themselves split by "attaches to previous token on
// same line" vs "leading comments of the next token", since this lexer
// emits tokens synchronously rather than buffering.
func (l *lexer) consumeComments() (leading []ast.Comment, trailing *ast.Comment) {
	sameLineAsPrevToken := l.havePrev
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\n':
			l.pos++
			l.info.AddLine(l.pos)
			sameLineAsPrevToken = false
		case c == '/' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '/':
			start := l.pos
			for l.pos < len(l.data) && l.data[l.pos] != '\n' {
				l.pos++
			}
			text := string(l.data[start:l.pos])
			tok := l.info.AddToken(start, l.pos-start)
			cmt := ast.Comment{Text: text, Span: l.info.NodeSpan(tokenNode{tok})}
			if sameLineAsPrevToken && trailing == nil && len(leading) == 0 {
				cmt.IsTrailing = true
				trailing = &cmt
			} else {
				leading = append(leading, cmt)
			}
			sameLineAsPrevToken = false
		case c == '/' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '*':
			start := l.pos
			l.pos += 2
			closed := false
			for l.pos+1 < len(l.data) {
				if l.data[l.pos] == '*' && l.data[l.pos+1] == '/' {
					l.pos += 2
					closed = true
					break
				}
				if l.data[l.pos] == '/' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '*' {
					_ = l.errorf(l.pos, "block comments cannot be nested")
				}
				if l.data[l.pos] == '\n' {
					l.info.AddLine(l.pos + 1)
					sameLineAsPrevToken = false
				}
				l.pos++
			}
			if !closed {
				_ = l.errorf(start, "unterminated block comment")
				l.pos = len(l.data)
			}
			text := string(l.data[start:l.pos])
			tok := l.info.AddToken(start, l.pos-start)
			cmt := ast.Comment{Text: text, Span: l.info.NodeSpan(tokenNode{tok})}
			if sameLineAsPrevToken && trailing == nil && len(leading) == 0 {
				cmt.IsTrailing = true
				trailing = &cmt
			} else {
				leading = append(leading, cmt)
			}
		default:
			return leading, trailing
		}
	}
	return leading, trailing
}

type tokenNode struct{ tok ast.Token }

func (t tokenNode) Start() ast.Token { return t.tok }
func (t tokenNode) End() ast.Token   { return t.tok }

func (l *lexer) lexIdentOrKeyword(start int) (LexedToken, error) {
	l.pos++
	for l.pos < len(l.data) && isIdentCont(l.data[l.pos]) {
		l.pos++
	}
	text := string(l.data[start:l.pos])

	// Context-sensitive rule (§4.1): right after a '.', an identifier-
	// shaped lexeme is never treated as a keyword, even if it matches one,
	// so that dotted names like "foo.message.bar" parse as identifiers.
	afterDot := l.havePrev && l.prevKind == TokenPunct && l.prevText == "."

	if !afterDot {
		if text == "true" || text == "false" {
			return l.emit(TokenBool, text, text == "true", start, l.pos-start), nil
		}
		if keywords[text] {
			return l.emit(TokenKeyword, text, nil, start, l.pos-start), nil
		}
	}
	return l.emit(TokenIdentifier, text, text, start, l.pos-start), nil
}

func (l *lexer) lexNumber(start int, negative bool) (LexedToken, error) {
	// hex / octal / binary integer literals
	if l.data[start] == '0' && start+1 < len(l.data) {
		switch l.data[start+1] {
		case 'x', 'X':
			l.pos = start + 2
			hexStart := l.pos
			for l.pos < len(l.data) && isHexDigit(l.data[l.pos]) {
				l.pos++
			}
			if l.pos == hexStart {
				return l.failNumber(start, "invalid number format: expected hex digits after 0x")
			}
			if err := l.rejectTrailingIdentChar(start); err != nil {
				return l.failToken(start), err
			}
			v, err := strconv.ParseUint(string(l.data[hexStart:l.pos]), 16, 64)
			if err != nil {
				return l.failNumber(start, "invalid number format: %v", err)
			}
			return l.emitInt(start, v, negative)
		case 'b', 'B':
			l.pos = start + 2
			binStart := l.pos
			for l.pos < len(l.data) && (l.data[l.pos] == '0' || l.data[l.pos] == '1') {
				l.pos++
			}
			if l.pos == binStart {
				return l.failNumber(start, "invalid number format: expected binary digits after 0b")
			}
			if err := l.rejectTrailingIdentChar(start); err != nil {
				return l.failToken(start), err
			}
			v, _ := strconv.ParseUint(string(l.data[binStart:l.pos]), 2, 64)
			return l.emitInt(start, v, negative)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			l.pos = start + 1
			for l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7' {
				l.pos++
			}
			if err := l.rejectTrailingIdentChar(start); err != nil {
				return l.failToken(start), err
			}
			v, err := strconv.ParseUint(string(l.data[start+1:l.pos]), 8, 64)
			if err != nil {
				return l.failNumber(start, "invalid number format: %v", err)
			}
			return l.emitInt(start, v, negative)
		}
	}

	l.pos = start
	if l.data[l.pos] != '.' {
		for l.pos < len(l.data) && isDigit(l.data[l.pos]) {
			l.pos++
		}
	}
	isFloat := false
	if l.pos < len(l.data) && l.data[l.pos] == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.data) && isDigit(l.data[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.data) && (l.data[l.pos] == 'e' || l.data[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.data) && (l.data[l.pos] == '+' || l.data[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.data) && isDigit(l.data[l.pos]) {
			isFloat = true
			for l.pos < len(l.data) && isDigit(l.data[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	if err := l.rejectTrailingIdentChar(start); err != nil {
		return l.failToken(start), err
	}
	text := string(l.data[start:l.pos])
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return l.failNumber(start, "invalid number format: %v", err)
		}
		if negative {
			v = -v
		}
		tok := l.emit(TokenFloat, text, v, start, l.pos-start)
		return tok, nil
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return l.failNumber(start, "invalid number format: %v", err)
	}
	return l.emitInt(start, v, negative)
}

func (l *lexer) emitInt(start int, v uint64, negative bool) (LexedToken, error) {
	text := string(l.data[start:l.pos])
	if negative {
		text = "-" + text
	}
	tok := l.emit(TokenInt, text, v, start, l.pos-start)
	return tok, nil
}

func (l *lexer) failNumber(start int, format string, args ...interface{}) (LexedToken, error) {
	err := l.errorf(start, format, args...)
	return l.failToken(start), err
}

func (l *lexer) failToken(start int) LexedToken {
	return l.emit(TokenInt, string(l.data[start:l.pos]), uint64(0), start, l.pos-start)
}

// rejectTrailingIdentChar enforces "a trailing identifier character
// immediately after digits is a hard error" (§4.1).
func (l *lexer) rejectTrailingIdentChar(start int) error {
	if l.pos < len(l.data) && isIdentCont(l.data[l.pos]) {
		badStart := l.pos
		for l.pos < len(l.data) && isIdentCont(l.data[l.pos]) {
			l.pos++
		}
		return l.errorf(badStart, "invalid number format: unexpected character %q after number", l.data[badStart])
	}
	return nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *lexer) lexString(start int) (LexedToken, error) {
	quote := l.data[start]
	l.pos++
	var sb strings.Builder
	for {
		if l.pos >= len(l.data) {
			return l.failToken(start), l.errorf(start, "unterminated string literal")
		}
		c := l.data[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\n' {
			return l.failToken(start), l.errorf(l.pos, "newline in string literal")
		}
		if c == '\\' {
			r, n, err := l.decodeEscape(l.pos)
			if err != nil {
				return l.failToken(start), err
			}
			if r < utf8.RuneSelf {
				sb.WriteByte(byte(r))
			} else {
				sb.WriteRune(r)
			}
			l.pos += n
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	text := string(l.data[start:l.pos])
	tok := l.info.AddToken(start, l.pos-start)
	return LexedToken{Kind: TokenString, Text: text, Literal: sb.String(), Tok: tok}, nil
}

// decodeEscape decodes one escape sequence starting at the backslash and
// returns the decoded rune and the number of bytes (including the
// backslash) it consumed (§4.1).
func (l *lexer) decodeEscape(backslash int) (rune, int, error) {
	if backslash+1 >= len(l.data) {
		return 0, 0, l.errorf(backslash, "unterminated escape sequence")
	}
	c := l.data[backslash+1]
	switch c {
	case 'a':
		return 7, 2, nil
	case 'b':
		return 8, 2, nil
	case 'f':
		return 12, 2, nil
	case 'n':
		return 10, 2, nil
	case 'r':
		return 13, 2, nil
	case 't':
		return 9, 2, nil
	case 'v':
		return 11, 2, nil
	case '\\':
		return '\\', 2, nil
	case '\'':
		return '\'', 2, nil
	case '"':
		return '"', 2, nil
	case 'x', 'X':
		p := backslash + 2
		start := p
		for p < len(l.data) && p < start+2 && isHexDigit(l.data[p]) {
			p++
		}
		if p == start {
			return 0, 0, l.errorf(backslash, "invalid escape sequence: expected hex digits after \\x")
		}
		v, _ := strconv.ParseUint(string(l.data[start:p]), 16, 32)
		return rune(v), p - backslash, nil
	case 'u':
		p := backslash + 2
		if p+4 > len(l.data) {
			return 0, 0, l.errorf(backslash, "invalid escape sequence: expected 4 hex digits after \\u")
		}
		v, err := strconv.ParseUint(string(l.data[p:p+4]), 16, 32)
		if err != nil {
			return 0, 0, l.errorf(backslash, "invalid escape sequence: expected 4 hex digits after \\u")
		}
		return rune(v), p + 4 - backslash, nil
	default:
		if c >= '0' && c <= '7' {
			p := backslash + 1
			start := p
			for p < len(l.data) && p < start+3 && l.data[p] >= '0' && l.data[p] <= '7' {
				p++
			}
			v, _ := strconv.ParseUint(string(l.data[start:p]), 8, 32)
			return rune(v), p - backslash, nil
		}
		return 0, 0, l.errorf(backslash, "invalid escape sequence %q", fmt.Sprintf("\\%c", c))
	}
}
