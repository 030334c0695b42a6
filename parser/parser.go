package parser

import (
	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

const (
	minFieldNumber     = 1
	maxFieldNumber     = 536870911 // 2^29 - 1
	reservedRangeStart = 19000
	reservedRangeEnd   = 19999
)

// parser is a hand-written recursive-descent consumer of the lexer's
// token stream, with a single token of lookahead held in p.tok (§4.2):
// every production decides what to do purely by inspecting p.tok, then
// advances past it.
type parser struct {
	lex     *lexer
	info    *ast.FileInfo
	handler *reporter.Handler

	tok LexedToken
}

// Parse lexes and parses one proto3 source file, returning its AST. It
// stops at the first syntax or lexical error (§7: the parser is
// fail-fast, unlike the semantic analyzer).
func Parse(filename string, data []byte, handler *reporter.Handler) (*ast.FileNode, error) {
	lex := newLexer(filename, data, handler)
	p := &parser{lex: lex, info: lex.fileInfo(), handler: handler}
	if err := p.advance(); err != nil {
		return ast.NewEmptyFileNode(filename), err
	}
	f, err := p.parseFile()
	if err != nil {
		return ast.NewEmptyFileNode(filename), err
	}
	return f, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	p.tok = tok
	if err != nil {
		return err
	}
	return nil
}

func (p *parser) curSpan() ast.SourceSpan {
	return p.info.NodeSpan(tokenNode{p.tok.Tok})
}

func (p *parser) atEOF() bool { return p.tok.Kind == TokenEOF }

func (p *parser) atPunct(r rune) bool {
	return p.tok.Kind == TokenPunct && len(p.tok.Text) == 1 && rune(p.tok.Text[0]) == r
}

func (p *parser) atKeyword(kw string) bool {
	return p.tok.Kind == TokenKeyword && p.tok.Text == kw
}

func (p *parser) consumePunct(r rune) (*ast.RuneNode, error) {
	if !p.atPunct(r) {
		return nil, p.errExpectedToken(p.tok, "'"+string(r)+"'")
	}
	n := ast.NewRuneNode(r, p.tok.Tok)
	return n, p.advance()
}

// expectPunct is consumePunct with a name identical in behavior; kept as
// a distinct name at call sites that read more naturally as "expect".
func (p *parser) expectPunct(r rune) (*ast.RuneNode, error) { return p.consumePunct(r) }

func (p *parser) consumeKeyword(kw string) (*ast.KeywordNode, error) {
	if !p.atKeyword(kw) {
		return nil, p.errExpectedToken(p.tok, "'"+kw+"'")
	}
	n := ast.NewKeywordNode(kw, p.tok.Tok)
	return n, p.advance()
}

func (p *parser) expectIdent() (*ast.IdentNode, error) {
	if p.tok.Kind != TokenIdentifier {
		return nil, p.errExpectedToken(p.tok, "identifier")
	}
	n := ast.NewIdentNode(p.tok.Text, p.tok.Tok)
	return n, p.advance()
}

func (p *parser) expectString() (*ast.StringLiteralNode, error) {
	if p.tok.Kind != TokenString {
		return nil, p.errExpectedToken(p.tok, "string literal")
	}
	n := ast.NewStringLiteralNode(p.tok.Literal.(string), p.tok.Tok)
	return n, p.advance()
}

func (p *parser) expectUint() (*ast.UintLiteralNode, error) {
	if p.tok.Kind != TokenInt {
		return nil, p.errExpectedToken(p.tok, "integer literal")
	}
	n := ast.NewUintLiteralNode(p.tok.Literal.(uint64), p.tok.Tok)
	return n, p.advance()
}

func (p *parser) parseCompoundIdent() (*ast.CompoundIdentNode, error) {
	var leadingDot *ast.RuneNode
	if p.atPunct('.') {
		var err error
		leadingDot, err = p.consumePunct('.')
		if err != nil {
			return nil, err
		}
	}
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	components := []*ast.IdentNode{first}
	var dots []*ast.RuneNode
	for p.atPunct('.') {
		dot, err := p.consumePunct('.')
		if err != nil {
			return nil, err
		}
		dots = append(dots, dot)
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		components = append(components, id)
	}
	return ast.NewCompoundIdentNode(leadingDot, components, dots), nil
}

// checkFieldNumber enforces the field-number policy of §3.3: 1 through
// 536,870,911 inclusive, excluding the reserved range 19000-19999.
func (p *parser) checkFieldNumber(n *ast.UintLiteralNode) error {
	v := n.Val
	if v < minFieldNumber || v > maxFieldNumber {
		return p.handler.HandleErrorf(p.info.NodeSpan(n), "field number %d out of range (%d to %d)", v, minFieldNumber, maxFieldNumber)
	}
	if v >= reservedRangeStart && v <= reservedRangeEnd {
		return p.handler.HandleErrorf(p.info.NodeSpan(n), "field number %d is reserved for internal protobuf use", v)
	}
	return nil
}

// ----------------------------------------------------------------------
// File-level grammar

func (p *parser) parseFile() (*ast.FileNode, error) {
	var syntax *ast.SyntaxNode
	if p.atKeyword("syntax") {
		var err error
		syntax, err = p.parseSyntax()
		if err != nil {
			return nil, err
		}
		if syntax.Val.Val != "proto3" {
			p.handler.HandleWarningf(p.info.NodeSpan(syntax.Val), "unrecognized syntax %q; only proto3 is supported", syntax.Val.Val)
		}
	} else {
		p.handler.HandleWarningf(p.curSpan(), "%s", ErrNoSyntax)
	}

	var decls []ast.FileElement
	for !p.atEOF() {
		d, err := p.parseFileElement()
		if err != nil {
			return nil, err
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	return ast.NewFileNode(p.info, syntax, decls), nil
}

func (p *parser) parseSyntax() (*ast.SyntaxNode, error) {
	kw, err := p.consumeKeyword("syntax")
	if err != nil {
		return nil, err
	}
	eq, err := p.consumePunct('=')
	if err != nil {
		return nil, err
	}
	val, err := p.expectString()
	if err != nil {
		return nil, err
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewSyntaxNode(kw, eq, val, semi), nil
}

func (p *parser) parseFileElement() (ast.FileElement, error) {
	switch {
	case p.atPunct(';'):
		semi, err := p.consumePunct(';')
		if err != nil {
			return nil, err
		}
		return ast.NewEmptyDeclNode(semi), nil
	case p.atKeyword("import"):
		return p.parseImport()
	case p.atKeyword("package"):
		return p.parsePackage()
	case p.atKeyword("option"):
		return p.parseOptionStatement()
	case p.atKeyword("message"):
		return p.parseMessage()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("service"):
		return p.parseService()
	case p.atKeyword("extend"):
		return p.parseExtend()
	default:
		return nil, p.errExpectedToken(p.tok, "'import', 'package', 'option', 'message', 'enum', 'service', or 'extend'")
	}
}

func (p *parser) parseImport() (*ast.ImportNode, error) {
	kw, err := p.consumeKeyword("import")
	if err != nil {
		return nil, err
	}
	var modifier *ast.KeywordNode
	if p.atKeyword("public") {
		modifier, err = p.consumeKeyword("public")
	} else if p.atKeyword("weak") {
		modifier, err = p.consumeKeyword("weak")
	}
	if err != nil {
		return nil, err
	}
	name, err := p.expectString()
	if err != nil {
		return nil, err
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewImportNode(kw, modifier, name, semi), nil
}

func (p *parser) parsePackage() (*ast.PackageNode, error) {
	kw, err := p.consumeKeyword("package")
	if err != nil {
		return nil, err
	}
	name, err := p.parseCompoundIdent()
	if err != nil {
		return nil, err
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewPackageNode(kw, name, semi), nil
}

// parseOptionStatement parses a full "option name = value;" statement, as
// opposed to a bracketed compact-option entry (§3.2).
func (p *parser) parseOptionStatement() (*ast.OptionNode, error) {
	kw, err := p.consumeKeyword("option")
	if err != nil {
		return nil, err
	}
	name, err := p.parseOptionName()
	if err != nil {
		return nil, err
	}
	eq, err := p.consumePunct('=')
	if err != nil {
		return nil, err
	}
	val, err := p.parseOptionValue()
	if err != nil {
		return nil, err
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewOptionNode(kw, name, eq, val, semi), nil
}

func (p *parser) parseOptionName() (*ast.OptionNameNode, error) {
	var parts []*ast.OptionNamePartNode
	var dots []*ast.RuneNode
	part, err := p.parseOptionNamePart()
	if err != nil {
		return nil, err
	}
	parts = append(parts, part)
	for p.atPunct('.') {
		dot, err := p.consumePunct('.')
		if err != nil {
			return nil, err
		}
		dots = append(dots, dot)
		part, err := p.parseOptionNamePart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return ast.NewOptionNameNode(parts, dots), nil
}

func (p *parser) parseOptionNamePart() (*ast.OptionNamePartNode, error) {
	if p.atPunct('(') {
		open, err := p.consumePunct('(')
		if err != nil {
			return nil, err
		}
		name, err := p.parseCompoundIdent()
		if err != nil {
			return nil, err
		}
		closeParen, err := p.consumePunct(')')
		if err != nil {
			return nil, err
		}
		return ast.NewExtensionOptionNamePartNode(open, name, closeParen), nil
	}
	id, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	name := ast.NewCompoundIdentNode(nil, []*ast.IdentNode{id}, nil)
	return ast.NewSimpleOptionNamePartNode(name), nil
}

// parseOptionValue parses any value legal in option-value position: a
// string, number (optionally signed), bool, enum-constant identifier, or
// aggregate literal (§3.2, §9).
func (p *parser) parseOptionValue() (ast.ValueNode, error) {
	switch {
	case p.tok.Kind == TokenString:
		return p.expectString()
	case p.tok.Kind == TokenBool:
		n := ast.NewBoolLiteralNode(p.tok.Literal.(bool), p.tok.Tok)
		return n, p.advance()
	case p.tok.Kind == TokenInt:
		return p.expectUint()
	case p.tok.Kind == TokenFloat:
		n := ast.NewFloatLiteralNode(p.tok.Literal.(float64), p.tok.Tok)
		return n, p.advance()
	case p.atPunct('+') || p.atPunct('-'):
		return p.parseSignedNumber()
	case p.tok.Kind == TokenIdentifier:
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return ast.IdentValueLiteralNode{IdentNode: id}, nil
	case p.atPunct('{'):
		return p.parseAggregateLiteral()
	default:
		return nil, p.errExpectedToken(p.tok, "option value")
	}
}

func (p *parser) parseSignedNumber() (*ast.SignedNumberNode, error) {
	r := rune('+')
	if p.atPunct('-') {
		r = '-'
	}
	sign, err := p.consumePunct(r)
	if err != nil {
		return nil, err
	}
	var inner ast.ValueNode
	switch p.tok.Kind {
	case TokenInt:
		inner, err = p.expectUint()
	case TokenFloat:
		n := ast.NewFloatLiteralNode(p.tok.Literal.(float64), p.tok.Tok)
		inner, err = n, p.advance()
	default:
		return nil, p.errExpectedToken(p.tok, "number")
	}
	if err != nil {
		return nil, err
	}
	return ast.NewSignedNumberNode(sign, inner), nil
}

func (p *parser) parseAggregateLiteral() (*ast.AggregateLiteralNode, error) {
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var entries []*ast.AggregateEntryNode
	for !p.atPunct('}') {
		entry, err := p.parseAggregateEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		// Entries may be separated by ',' or ';', or by nothing at all.
		if p.atPunct(',') || p.atPunct(';') {
			if _, err := p.advanceOne(); err != nil {
				return nil, err
			}
		}
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewAggregateLiteralNode(open, entries, close), nil
}

// advanceOne consumes whatever token is current, without checking its
// kind; used for aggregate-literal separators where either ',' or ';' is
// accepted.
func (p *parser) advanceOne() (LexedToken, error) {
	tok := p.tok
	return tok, p.advance()
}

func (p *parser) parseAggregateEntry() (*ast.AggregateEntryNode, error) {
	name, err := p.parseOptionNamePart()
	if err != nil {
		return nil, err
	}
	var colon *ast.RuneNode
	if p.atPunct(':') {
		colon, err = p.consumePunct(':')
		if err != nil {
			return nil, err
		}
	}
	var val ast.ValueNode
	if p.atPunct('{') {
		val, err = p.parseAggregateLiteral()
	} else {
		val, err = p.parseOptionValue()
	}
	if err != nil {
		return nil, err
	}
	return ast.NewAggregateEntryNode(name, colon, val), nil
}

func (p *parser) parseCompactOptions() (*ast.CompactOptionsNode, error) {
	open, err := p.consumePunct('[')
	if err != nil {
		return nil, err
	}
	var opts []*ast.OptionNode
	for {
		name, err := p.parseOptionName()
		if err != nil {
			return nil, err
		}
		eq, err := p.consumePunct('=')
		if err != nil {
			return nil, err
		}
		val, err := p.parseOptionValue()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ast.NewOptionNode(nil, name, eq, val, nil))
		if p.atPunct(',') {
			if _, err := p.consumePunct(','); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	close, err := p.consumePunct(']')
	if err != nil {
		return nil, err
	}
	return ast.NewCompactOptionsNode(open, opts, close), nil
}

// ----------------------------------------------------------------------
// Message bodies

func (p *parser) parseMessage() (*ast.MessageNode, error) {
	kw, err := p.consumeKeyword("message")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var decls []ast.MessageElement
	oneofCount := 0
	for !p.atPunct('}') {
		d, err := p.parseMessageElement()
		if err != nil {
			return nil, err
		}
		if o, ok := d.(*ast.OneofNode); ok {
			for _, f := range o.Fields() {
				f.OneofIndex = oneofCount
			}
			oneofCount++
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewMessageNode(kw, name, open, decls, close), nil
}

func (p *parser) parseMessageElement() (ast.MessageElement, error) {
	switch {
	case p.atPunct(';'):
		semi, err := p.consumePunct(';')
		if err != nil {
			return nil, err
		}
		return ast.NewEmptyDeclNode(semi), nil
	case p.atKeyword("message"):
		return p.parseMessage()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("extend"):
		return p.parseExtend()
	case p.atKeyword("oneof"):
		return p.parseOneof()
	case p.atKeyword("option"):
		return p.parseOptionStatement()
	case p.atKeyword("reserved"):
		return p.parseReserved()
	case p.atKeyword("extensions"):
		return p.parseExtensionRange()
	case p.atKeyword("map"):
		return p.parseMapField()
	case p.atKeyword("repeated"), p.atKeyword("optional"), p.atKeyword("required"), p.isScalarType(), p.tok.Kind == TokenIdentifier:
		return p.parseField(-1)
	default:
		return nil, p.errExpectedToken(p.tok, "message element")
	}
}

func (p *parser) isScalarType() bool {
	return p.tok.Kind == TokenKeyword && isScalarKeyword(p.tok.Text)
}

func isScalarKeyword(kw string) bool {
	_, ok := ast.ScalarTypeNames[kw]
	return ok
}

// parseFieldType parses a field's type: either a scalar keyword or a
// (possibly dotted) message/enum reference, whose actual kind is decided
// later by the linker's resolution pass (§4.4, §9).
func (p *parser) parseFieldType() (ast.FieldTypeNode, error) {
	if p.tok.Kind == TokenKeyword && isScalarKeyword(p.tok.Text) {
		kind := ast.ScalarTypeNames[p.tok.Text]
		kw := p.tok.Text
		tok := p.tok.Tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewScalarTypeNode(kw, kind, tok), nil
	}
	ident, err := p.parseCompoundIdent()
	if err != nil {
		return nil, err
	}
	return ast.NewIdentTypeNode(ident), nil
}

// parseField parses a field declaration. oneofIndex is -1 for a direct
// message field; parseOneof passes 0, and parseMessage then sets each
// oneof field's OneofIndex to the position of its oneof in the message.
func (p *parser) parseField(oneofIndex int) (*ast.FieldNode, error) {
	var labelTok *ast.KeywordNode
	label := ast.LabelImplicitSingular
	var err error
	switch {
	case p.atKeyword("repeated"):
		labelTok, err = p.consumeKeyword("repeated")
		label = ast.LabelRepeated
	case p.atKeyword("optional"):
		labelTok, err = p.consumeKeyword("optional")
		label = ast.LabelOptional
	case p.atKeyword("required"):
		return nil, p.syntaxError(p.tok, "proto3 forbids required fields; use optional or a bare field instead")
	}
	if err != nil {
		return nil, err
	}

	typ, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	eq, err := p.consumePunct('=')
	if err != nil {
		return nil, err
	}
	num, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	if err := p.checkFieldNumber(num); err != nil {
		return nil, err
	}
	var opts *ast.CompactOptionsNode
	if p.atPunct('[') {
		opts, err = p.parseCompactOptions()
		if err != nil {
			return nil, err
		}
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	f := ast.NewFieldNode(labelTok, label, typ, name, eq, num, opts, semi)
	f.OneofIndex = oneofIndex
	return f, nil
}

func (p *parser) parseMapField() (*ast.MapFieldNode, error) {
	mapKw, err := p.consumeKeyword("map")
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('<')
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokenKeyword || !isScalarKeyword(p.tok.Text) {
		return nil, p.errExpectedToken(p.tok, "map key type")
	}
	keyTok := p.tok.Tok
	keyText := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	keyType := ast.NewIdentNode(keyText, keyTok)
	comma, err := p.consumePunct(',')
	if err != nil {
		return nil, err
	}
	valType, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	closeAngle, err := p.consumePunct('>')
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	eq, err := p.consumePunct('=')
	if err != nil {
		return nil, err
	}
	num, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	if err := p.checkFieldNumber(num); err != nil {
		return nil, err
	}
	var opts *ast.CompactOptionsNode
	if p.atPunct('[') {
		opts, err = p.parseCompactOptions()
		if err != nil {
			return nil, err
		}
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewMapFieldNode(mapKw, open, keyType, comma, valType, closeAngle, name, eq, num, opts, semi), nil
}

func (p *parser) parseOneof() (*ast.OneofNode, error) {
	kw, err := p.consumeKeyword("oneof")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var decls []ast.OneofElement
	for !p.atPunct('}') {
		switch {
		case p.atPunct(';'):
			semi, err := p.consumePunct(';')
			if err != nil {
				return nil, err
			}
			decls = append(decls, ast.NewEmptyDeclNode(semi))
		case p.atKeyword("option"):
			o, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			decls = append(decls, o)
		default:
			f, err := p.parseField(0)
			if err != nil {
				return nil, err
			}
			decls = append(decls, f)
		}
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewOneofNode(kw, name, open, decls, close), nil
}

func (p *parser) parseReserved() (ast.MessageElement, error) {
	kw, err := p.consumeKeyword("reserved")
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokenString {
		var names []*ast.StringLiteralNode
		for {
			s, err := p.expectString()
			if err != nil {
				return nil, err
			}
			names = append(names, s)
			if p.atPunct(',') {
				if _, err := p.consumePunct(','); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		semi, err := p.consumePunct(';')
		if err != nil {
			return nil, err
		}
		return ast.NewReservedNamesNode(kw, names, semi), nil
	}
	var ranges []*ast.RangeNode
	for {
		r, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
		if p.atPunct(',') {
			if _, err := p.consumePunct(','); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewReservedRangesNode(kw, ranges, semi), nil
}

func (p *parser) parseExtensionRange() (*ast.ExtensionRangeNode, error) {
	kw, err := p.consumeKeyword("extensions")
	if err != nil {
		return nil, err
	}
	var ranges []*ast.RangeNode
	for {
		r, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
		if p.atPunct(',') {
			if _, err := p.consumePunct(','); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.atPunct('[') {
		if _, err := p.parseCompactOptions(); err != nil {
			return nil, err
		}
		// Extension-range options are rare and not part of the minimum
		// recognized option set (§4.6); parsed for grammar completeness and
		// discarded here, same as an unrecognized bracketed option elsewhere.
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewExtensionRangeNode(kw, ranges, semi), nil
}

func (p *parser) parseRange() (*ast.RangeNode, error) {
	start, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("to") {
		return ast.NewSingleRangeNode(start), nil
	}
	to, err := p.consumeKeyword("to")
	if err != nil {
		return nil, err
	}
	if p.atKeyword("max") {
		maxKw, err := p.consumeKeyword("max")
		if err != nil {
			return nil, err
		}
		return ast.NewToMaxRangeNode(start, to, maxKw), nil
	}
	end, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	return ast.NewToRangeNode(start, to, end), nil
}

func (p *parser) parseExtend() (*ast.ExtendNode, error) {
	kw, err := p.consumeKeyword("extend")
	if err != nil {
		return nil, err
	}
	extendee, err := p.parseCompoundIdent()
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var fields []*ast.FieldNode
	for !p.atPunct('}') {
		if p.atPunct(';') {
			if _, err := p.consumePunct(';'); err != nil {
				return nil, err
			}
			continue
		}
		f, err := p.parseField(-1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewExtendNode(kw, extendee, open, fields, close), nil
}

// ----------------------------------------------------------------------
// Enums

func (p *parser) parseEnum() (*ast.EnumNode, error) {
	kw, err := p.consumeKeyword("enum")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var decls []ast.EnumElement
	for !p.atPunct('}') {
		d, err := p.parseEnumElement()
		if err != nil {
			return nil, err
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewEnumNode(kw, name, open, decls, close), nil
}

func (p *parser) parseEnumElement() (ast.EnumElement, error) {
	switch {
	case p.atPunct(';'):
		semi, err := p.consumePunct(';')
		if err != nil {
			return nil, err
		}
		return ast.NewEmptyDeclNode(semi), nil
	case p.atKeyword("option"):
		return p.parseOptionStatement()
	case p.atKeyword("reserved"):
		return p.parseReserved()
	default:
		return p.parseEnumValue()
	}
}

func (p *parser) parseEnumValue() (*ast.EnumValueNode, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	eq, err := p.consumePunct('=')
	if err != nil {
		return nil, err
	}
	var sign *ast.RuneNode
	if p.atPunct('-') {
		sign, err = p.consumePunct('-')
		if err != nil {
			return nil, err
		}
	}
	num, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	var opts *ast.CompactOptionsNode
	if p.atPunct('[') {
		opts, err = p.parseCompactOptions()
		if err != nil {
			return nil, err
		}
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewEnumValueNode(name, eq, sign, num, opts, semi), nil
}

// ----------------------------------------------------------------------
// Services

func (p *parser) parseService() (*ast.ServiceNode, error) {
	kw, err := p.consumeKeyword("service")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	open, err := p.consumePunct('{')
	if err != nil {
		return nil, err
	}
	var decls []ast.ServiceElement
	for !p.atPunct('}') {
		switch {
		case p.atPunct(';'):
			semi, err := p.consumePunct(';')
			if err != nil {
				return nil, err
			}
			decls = append(decls, ast.NewEmptyDeclNode(semi))
		case p.atKeyword("option"):
			o, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			decls = append(decls, o)
		case p.atKeyword("rpc"):
			r, err := p.parseRPC()
			if err != nil {
				return nil, err
			}
			decls = append(decls, r)
		default:
			return nil, p.errExpectedToken(p.tok, "'option' or 'rpc'")
		}
	}
	close, err := p.consumePunct('}')
	if err != nil {
		return nil, err
	}
	return ast.NewServiceNode(kw, name, open, decls, close), nil
}

func (p *parser) parseRPC() (*ast.RPCNode, error) {
	kw, err := p.consumeKeyword("rpc")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	in, err := p.parseRPCType()
	if err != nil {
		return nil, err
	}
	returns, err := p.consumeKeyword("returns")
	if err != nil {
		return nil, err
	}
	out, err := p.parseRPCType()
	if err != nil {
		return nil, err
	}
	if p.atPunct('{') {
		open, err := p.consumePunct('{')
		if err != nil {
			return nil, err
		}
		var opts []*ast.OptionNode
		for !p.atPunct('}') {
			if p.atPunct(';') {
				if _, err := p.consumePunct(';'); err != nil {
					return nil, err
				}
				continue
			}
			o, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			opts = append(opts, o)
		}
		close, err := p.consumePunct('}')
		if err != nil {
			return nil, err
		}
		return ast.NewRPCNodeWithBody(kw, name, in, returns, out, open, opts, close), nil
	}
	semi, err := p.consumePunct(';')
	if err != nil {
		return nil, err
	}
	return ast.NewRPCNode(kw, name, in, returns, out, semi), nil
}

func (p *parser) parseRPCType() (*ast.RPCTypeNode, error) {
	var streamKw *ast.KeywordNode
	if p.atKeyword("stream") {
		var err error
		streamKw, err = p.consumeKeyword("stream")
		if err != nil {
			return nil, err
		}
	}
	open, err := p.consumePunct('(')
	if err != nil {
		return nil, err
	}
	msgType, err := p.parseCompoundIdent()
	if err != nil {
		return nil, err
	}
	close, err := p.consumePunct(')')
	if err != nil {
		return nil, err
	}
	return ast.NewRPCTypeNode(streamKw, open, msgType, close), nil
}
