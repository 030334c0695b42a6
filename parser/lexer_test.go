package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolang/protocompile/reporter"
)

func lexAll(t *testing.T, src string) ([]LexedToken, *lexer) {
	t.Helper()
	handler := reporter.NewHandler(nil)
	l := newLexer("test.proto", []byte(src), handler)
	var toks []LexedToken
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, l
		}
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	t.Parallel()
	toks, _ := lexAll(t, `syntax = "proto3"; message Foo {}`)

	require.GreaterOrEqual(t, len(toks), 7)
	assert.Equal(t, TokenKeyword, toks[0].Kind)
	assert.Equal(t, "syntax", toks[0].Text)
	assert.Equal(t, TokenPunct, toks[1].Kind)
	assert.Equal(t, "=", toks[1].Text)
	assert.Equal(t, TokenString, toks[2].Kind)
	assert.Equal(t, "proto3", toks[2].Literal)
	assert.Equal(t, TokenPunct, toks[3].Kind)
	assert.Equal(t, ";", toks[3].Text)
	assert.Equal(t, TokenKeyword, toks[4].Kind)
	assert.Equal(t, "message", toks[4].Text)
	assert.Equal(t, TokenIdentifier, toks[5].Kind)
	assert.Equal(t, "Foo", toks[5].Text)
}

func TestLexerIdentifierAfterDotIsNeverKeyword(t *testing.T) {
	t.Parallel()
	toks, _ := lexAll(t, `.message`)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, TokenPunct, toks[0].Kind)
	assert.Equal(t, ".", toks[0].Text)
	assert.Equal(t, TokenIdentifier, toks[1].Kind)
	assert.Equal(t, "message", toks[1].Text)
}

func TestLexerIntegerLiterals(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input    string
		expected uint64
	}{
		{"0", 0},
		{"123", 123},
		{"012345", 0o12345},
		{"0x2134abcdef30", 0x2134abcdef30},
		{"0xff76", 0xff76},
	}
	for _, tc := range testCases {
		toks, _ := lexAll(t, tc.input)
		require.Equal(t, TokenInt, toks[0].Kind, "input %q", tc.input)
		assert.Equal(t, tc.expected, toks[0].Literal, "input %q", tc.input)
	}
}

func TestLexerFloatLiterals(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input    string
		expected float64
	}{
		{"0.01", 0.01},
		{".01e12", .01e12},
		{"0.01e+5", 0.01e+5},
		{"3.1234e+12", 3.1234e+12},
		{"12e12", 12e12},
	}
	for _, tc := range testCases {
		toks, _ := lexAll(t, tc.input)
		require.Equal(t, TokenFloat, toks[0].Kind, "input %q", tc.input)
		assert.Equal(t, tc.expected, toks[0].Literal, "input %q", tc.input)
	}
}

func TestLexerStringLiteralsWithEscapes(t *testing.T) {
	t.Parallel()
	toks, _ := lexAll(t, `"\032\x16\n\rfoobar\"zap"`)
	require.Equal(t, TokenString, toks[0].Kind)
	assert.Equal(t, "\032\x16\n\rfoobar\"zap", toks[0].Literal)
}

func TestLexerStringLiteralErrors(t *testing.T) {
	t.Parallel()
	testCases := map[string]struct {
		input       string
		expectedErr string
	}{
		"unterminated": {
			input:       `"foobar`,
			expectedErr: "unterminated string literal",
		},
		"invalid_escape": {
			input:       `"foobar\J"`,
			expectedErr: "invalid escape sequence",
		},
		"invalid_hex_escape": {
			input:       `"foobar\xgfoo"`,
			expectedErr: "expected hex digits after",
		},
		"newline": {
			input:       "'foobar\nbaz'",
			expectedErr: "newline in string literal",
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var errs []reporter.ErrorWithPos
			handler := reporter.NewHandler(reporter.NewReporter(
				func(err reporter.ErrorWithPos) error {
					errs = append(errs, err)
					return nil
				},
				nil,
			))
			l := newLexer("test.proto", []byte(tc.input), handler)
			_, err := l.Next()
			require.Error(t, err)
			require.NotEmpty(t, errs)
			assert.ErrorContains(t, errs[0], tc.expectedErr)
		})
	}
}

func TestLexerNumericErrors(t *testing.T) {
	t.Parallel()
	testCases := map[string]string{
		"int_hex_out_of_range":   `0x10000000000000000`,
		"int_octal_out_of_range": `02000000000000000000000`,
	}
	for name, input := range testCases {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			handler := reporter.NewHandler(reporter.NewReporter(
				func(err reporter.ErrorWithPos) error { return err },
				nil,
			))
			l := newLexer("test.proto", []byte(input), handler)
			_, err := l.Next()
			require.Error(t, err)
		})
	}
}

func TestLexerEOFIsSticky(t *testing.T) {
	t.Parallel()
	handler := reporter.NewHandler(nil)
	l := newLexer("test.proto", []byte(""), handler)
	tok1, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenEOF, tok1.Kind)
	tok2, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenEOF, tok2.Kind)
}

func TestLexerComments(t *testing.T) {
	t.Parallel()
	src := `
		// leading line comment
		/* leading block comment */
		message Foo {} // trailing comment
	`
	toks, l := lexAll(t, src)

	var messageTok LexedToken
	for _, tok := range toks {
		if tok.Kind == TokenKeyword && tok.Text == "message" {
			messageTok = tok
			break
		}
	}
	require.NotEmpty(t, messageTok.Text)
	require.Len(t, messageTok.LeadingComments, 2)
	assert.Contains(t, messageTok.LeadingComments[0].Text, "leading line comment")
	assert.Contains(t, messageTok.LeadingComments[1].Text, "leading block comment")

	_ = l
}

func TestLexerInvalidCharacters(t *testing.T) {
	t.Parallel()
	testCases := []string{"\x00", "\x03", "\x1B", "\x7F", "#", "?", "^"}
	for _, input := range testCases {
		input := input
		handler := reporter.NewHandler(reporter.NewReporter(
			func(err reporter.ErrorWithPos) error { return err },
			nil,
		))
		l := newLexer("test.proto", []byte(input), handler)
		_, err := l.Next()
		assert.Error(t, err, "input %q", input)
	}
}
