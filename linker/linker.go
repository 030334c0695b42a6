package linker

import (
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
)

// allowedExtendees is the fixed set of descriptor option messages that a
// proto3 "extend" statement may target (§4.4, §7); proto3 forbids
// extending any other (user-defined) message.
var allowedExtendees = map[string]bool{
	"google.protobuf.FileOptions":           true,
	"google.protobuf.MessageOptions":        true,
	"google.protobuf.FieldOptions":          true,
	"google.protobuf.OneofOptions":          true,
	"google.protobuf.EnumOptions":           true,
	"google.protobuf.EnumValueOptions":      true,
	"google.protobuf.ServiceOptions":        true,
	"google.protobuf.MethodOptions":         true,
	"google.protobuf.ExtensionRangeOptions": true,
}

// Link runs the semantic analyzer (§4.4) over parsed: it populates table
// with every symbol parsed declares, resolves every bare type reference
// against table (consulting deps for anything not declared locally), and
// enforces the proto3-specific rules. Unlike the parser, errors are
// accumulated rather than reported fail-fast, so a caller sees every
// diagnostic from one run (§7). table may be nil, in which case a private
// one is used (meaning no cross-file symbols are visible).
func Link(parsed *parser.Result, deps Files, table *Table, handler *reporter.Handler) error {
	if table == nil {
		table = NewTable()
	}
	fd := parsed.FileDescriptorProto()

	if fd.GetSyntax() != "" && fd.GetSyntax() != "proto3" {
		handler.HandleErrorf(ast.UnknownSpan(fd.GetName()), "unsupported syntax %q: only proto3 is supported", fd.GetSyntax())
	}

	l := &linker{
		result:  parsed,
		fd:      fd,
		deps:    deps,
		table:   table,
		handler: handler,
	}
	l.declare()
	l.resolve()
	return handler.Error()
}

type linker struct {
	result  *parser.Result
	fd      *descriptorpb.FileDescriptorProto
	deps    Files
	table   *Table
	handler *reporter.Handler
}

func (l *linker) span(m interface{}) ast.SourceSpan {
	if n := l.result.Node(m); n != nil {
		return l.result.AST().NodeInfo(n)
	}
	return ast.UnknownSpan(l.fd.GetName())
}

// declare walks the file's own descriptor tree (not its imports) and
// enters every named element into the shared table, per §4.3's "enter"
// operation. Declaration order is lexical (depth-first, matching source
// order), so duplicate-sibling detection sees the first declaration as
// the canonical one and reports every later collision against it.
func (l *linker) declare() {
	pkg := l.fd.GetPackage()

	for _, m := range l.fd.MessageType {
		l.declareMessage(pkg, m)
	}
	for _, e := range l.fd.EnumType {
		l.declareEnum(pkg, e)
	}
	for _, s := range l.fd.Service {
		l.declareService(pkg, s)
	}
	for _, f := range l.fd.Extension {
		l.declareExtensionField(pkg, f)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (l *linker) declareMessage(scope string, m *descriptorpb.DescriptorProto) {
	full := join(scope, m.GetName())
	l.table.Enter(Symbol{FullName: full, Kind: KindMessage, Span: l.span(m)}, l.handler)

	seenFieldNumbers := map[int32]bool{}
	seenFieldNames := map[string]bool{}
	for _, f := range m.Field {
		if seenFieldNumbers[f.GetNumber()] {
			l.handler.HandleErrorf(l.span(f), "duplicate field number %d in message %s", f.GetNumber(), full)
		}
		seenFieldNumbers[f.GetNumber()] = true
		if seenFieldNames[f.GetName()] {
			l.handler.HandleErrorf(l.span(f), "duplicate field name %q in message %s", f.GetName(), full)
		}
		seenFieldNames[f.GetName()] = true

		if f.OneofIndex != nil && f.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			l.handler.HandleErrorf(l.span(f), "field %q: oneof fields cannot be repeated", f.GetName())
		}

		fieldFull := join(full, f.GetName())
		l.table.Enter(Symbol{FullName: fieldFull, Kind: KindField, Span: l.span(f)}, l.handler)
	}
	for _, o := range m.OneofDecl {
		l.table.Enter(Symbol{FullName: join(full, o.GetName()), Kind: KindOneof, Span: l.span(o)}, l.handler)
	}
	if m.GetOptions().GetMapEntry() {
		l.checkMapKey(full, m)
	}
	for _, nm := range m.NestedType {
		l.declareMessage(full, nm)
	}
	for _, ne := range m.EnumType {
		l.declareEnum(full, ne)
	}
	for _, f := range m.Extension {
		l.declareExtensionField(full, f)
	}
}

func (l *linker) checkMapKey(entryFull string, entry *descriptorpb.DescriptorProto) {
	for _, f := range entry.Field {
		if f.GetName() != "key" {
			continue
		}
		switch f.GetType() {
		case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
			descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
			descriptorpb.FieldDescriptorProto_TYPE_BYTES:
			l.handler.HandleErrorf(l.span(entry), "map key in %s must not be float, double, or bytes", entryFull)
		}
	}
}

func (l *linker) declareEnum(scope string, e *descriptorpb.EnumDescriptorProto) {
	full := join(scope, e.GetName())
	l.table.Enter(Symbol{FullName: full, Kind: KindEnum, Span: l.span(e)}, l.handler)

	if len(e.Value) == 0 || e.Value[0].GetNumber() != 0 {
		l.handler.HandleErrorf(l.span(e), "enum %s: the first value must be numbered 0", full)
	}
	allowAlias := e.GetOptions().GetAllowAlias()
	seenNumbers := map[int32]bool{}
	seenNames := map[string]bool{}
	for _, v := range e.Value {
		if !allowAlias && seenNumbers[v.GetNumber()] {
			l.handler.HandleErrorf(l.span(v), "enum %s: value %d reused without allow_alias", full, v.GetNumber())
		}
		seenNumbers[v.GetNumber()] = true
		if seenNames[v.GetName()] {
			l.handler.HandleErrorf(l.span(v), "enum %s: duplicate value name %q", full, v.GetName())
		}
		seenNames[v.GetName()] = true

		// Enum values live in the scope enclosing the enum (C++ scoping
		// rules), not inside the enum itself.
		l.table.Enter(Symbol{FullName: join(scope, v.GetName()), Kind: KindEnumValue, Span: l.span(v)}, l.handler)
	}
}

func (l *linker) declareService(scope string, s *descriptorpb.ServiceDescriptorProto) {
	full := join(scope, s.GetName())
	l.table.Enter(Symbol{FullName: full, Kind: KindService, Span: l.span(s)}, l.handler)
	for _, m := range s.Method {
		l.table.Enter(Symbol{FullName: join(full, m.GetName()), Kind: KindField, Span: l.span(m)}, l.handler)
	}
}

func (l *linker) declareExtensionField(scope string, f *descriptorpb.FieldDescriptorProto) {
	full := join(scope, f.GetName())
	l.table.Enter(Symbol{FullName: full, Kind: KindField, Span: l.span(f)}, l.handler)
}

// resolve runs the resolution pass (§4.4): every plain-name field/rpc/
// extend type is looked up via the symbol table (falling back to deps for
// names not declared in this file) and rewritten in place on the
// FileDescriptorProto to its resolved kind (message or enum) and
// fully-qualified name.
func (l *linker) resolve() {
	pkg := l.fd.GetPackage()
	var scopeChain []string
	if pkg != "" {
		parts := strings.Split(pkg, ".")
		prefix := ""
		for _, p := range parts {
			prefix = join(prefix, p)
			scopeChain = append(scopeChain, prefix)
		}
	}

	for _, m := range l.fd.MessageType {
		l.resolveMessage(scopeChain, m)
	}
	// enums carry no unresolved references of their own
	for _, s := range l.fd.Service {
		l.resolveService(scopeChain, s)
	}
	for _, f := range l.fd.Extension {
		l.resolveExtension(scopeChain, f)
	}
}

func (l *linker) resolveMessage(scopeChain []string, m *descriptorpb.DescriptorProto) {
	selfFull := join(chainTail(scopeChain), m.GetName())
	innerScope := append(append([]string(nil), scopeChain...), selfFull)

	for _, f := range m.Field {
		l.resolveField(innerScope, f)
	}
	for _, nm := range m.NestedType {
		if nm.GetOptions().GetMapEntry() {
			// map-entry key/value were already fully resolved at build
			// time for scalars; a message/enum value type still needs
			// resolving like any other field.
			for _, f := range nm.Field {
				l.resolveField(innerScope, f)
			}
			continue
		}
		l.resolveMessage(innerScope, nm)
	}
	for _, f := range m.Extension {
		l.resolveExtension(innerScope, f)
	}
}

func chainTail(scopeChain []string) string {
	if len(scopeChain) == 0 {
		return ""
	}
	return scopeChain[len(scopeChain)-1]
}

func (l *linker) resolveField(scopeChain []string, f *descriptorpb.FieldDescriptorProto) {
	if f.TypeName == nil {
		return
	}
	name := f.GetTypeName()
	sym, ok := l.table.Lookup(scopeChain, name)
	if !ok {
		l.handler.HandleErrorf(l.span(f), "unresolved type %q referenced by field %q", name, f.GetName())
		return
	}
	switch sym.Kind {
	case KindEnum:
		f.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
		f.TypeName = stringPtr("." + sym.FullName)
	case KindMessage:
		f.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		f.TypeName = stringPtr("." + sym.FullName)
	default:
		l.handler.HandleErrorf(l.span(f), "%q does not name a message or enum type", name)
	}
}

func (l *linker) resolveService(scopeChain []string, s *descriptorpb.ServiceDescriptorProto) {
	for _, m := range s.Method {
		l.resolveMethodType(scopeChain, m, m.GetInputType(), func(n string) { m.InputType = stringPtr(n) })
		l.resolveMethodType(scopeChain, m, m.GetOutputType(), func(n string) { m.OutputType = stringPtr(n) })
	}
}

func (l *linker) resolveMethodType(scopeChain []string, m *descriptorpb.MethodDescriptorProto, name string, set func(string)) {
	sym, ok := l.table.Lookup(scopeChain, name)
	if !ok {
		l.handler.HandleErrorf(l.span(m), "unresolved type %q referenced by rpc %q", name, m.GetName())
		return
	}
	if sym.Kind != KindMessage {
		l.handler.HandleErrorf(l.span(m), "%q must be a message type, found %s", name, sym.Kind)
		return
	}
	set("." + sym.FullName)
}

func (l *linker) resolveExtension(scopeChain []string, f *descriptorpb.FieldDescriptorProto) {
	l.resolveField(scopeChain, f)

	extendee := f.GetExtendee()
	sym, ok := l.table.Lookup(scopeChain, extendee)
	if !ok {
		l.handler.HandleErrorf(l.span(f), "unresolved extendee %q", extendee)
		return
	}
	if sym.Kind != KindMessage {
		l.handler.HandleErrorf(l.span(f), "%q is not a message type", extendee)
		return
	}
	f.Extendee = stringPtr("." + sym.FullName)
	if !allowedExtendees[sym.FullName] {
		l.handler.HandleErrorf(l.span(f), "proto3 forbids extending %q: only descriptor option messages may be extended", sym.FullName)
		return
	}
	if err := l.table.EnterExtension(sym.FullName, join(chainTail(scopeChain), f.GetName()), f.GetNumber(), l.span(f), l.handler); err != nil {
		return
	}
}

func stringPtr(s string) *string { return &s }

// CheckForUnusedImports reports a warning for every "import" statement in
// parsed whose file contributes no symbol actually referenced by parsed,
// per §4.5. deps must be the same dependency set used to Link parsed.
// Field, method and extension types and extendee names count as uses;
// option names and values are not examined, so an import used only by a
// custom option is reported as unused.
func CheckForUnusedImports(parsed *parser.Result, deps Files, handler *reporter.Handler) {
	touched := map[string]bool{}
	collectTypeNames(parsed.FileDescriptorProto(), touched)

	for _, imp := range parsed.AST().Imports() {
		path := imp.Name.Val
		if imp.ImportModifier() == ast.ImportWeak {
			continue
		}
		dep := deps.FindFileByPath(path)
		if dep == nil {
			continue
		}
		usedByThisImport := false
		for name := range touched {
			if dep.DeclaresSymbol(strings.TrimPrefix(name, ".")) {
				usedByThisImport = true
				break
			}
		}
		if !usedByThisImport {
			handler.HandleWarningf(parsed.AST().NodeInfo(imp), "import %q not used", path)
		}
	}
}

func collectTypeNames(fd *descriptorpb.FileDescriptorProto, out map[string]bool) {
	for _, m := range fd.MessageType {
		collectMessageTypeNames(m, out)
	}
	for _, s := range fd.Service {
		for _, m := range s.Method {
			out[m.GetInputType()] = true
			out[m.GetOutputType()] = true
		}
	}
	for _, f := range fd.Extension {
		out[f.GetTypeName()] = true
		out[f.GetExtendee()] = true
	}
}

func collectMessageTypeNames(m *descriptorpb.DescriptorProto, out map[string]bool) {
	for _, f := range m.Field {
		if f.TypeName != nil {
			out[f.GetTypeName()] = true
		}
	}
	for _, nm := range m.NestedType {
		collectMessageTypeNames(nm, out)
	}
	for _, f := range m.Extension {
		if f.TypeName != nil {
			out[f.GetTypeName()] = true
		}
		out[f.GetExtendee()] = true
	}
}
