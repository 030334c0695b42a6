// Package options interprets the raw UninterpretedOption entries the
// descriptor builder left behind (§4.6), packing the ones it recognizes
// into their typed descriptor fields and leaving everything else (custom
// options, unknown names) in uninterpreted_option; no later pass in this
// module interprets them.
package options

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
)

type interpreter struct {
	result  *parser.Result
	handler *reporter.Handler
}

// InterpretOptions walks every options-bearing element of result's
// descriptor and moves each option whose name matches one of the
// recognized standard fields (§4.6's "minimum recognized set") out of
// uninterpreted_option and into that field. Names it doesn't recognize --
// custom (extension) options chief among them -- are left untouched in
// uninterpreted_option, since interpreting those requires resolving the
// extension against the symbol table, which this pass does not do (and
// neither does the linker, which runs before it).
func InterpretOptions(result *parser.Result, handler *reporter.Handler) error {
	interp := &interpreter{result: result, handler: handler}
	fd := result.FileDescriptorProto()

	if fd.Options != nil {
		remaining, err := interp.interpret(fd, fd.Options.UninterpretedOption, fd.Options)
		if err != nil {
			return err
		}
		fd.Options.UninterpretedOption = remaining
	}
	for _, m := range fd.MessageType {
		if err := interp.interpretMessage(m); err != nil {
			return err
		}
	}
	for _, e := range fd.EnumType {
		if err := interp.interpretEnum(e); err != nil {
			return err
		}
	}
	for _, s := range fd.Service {
		if err := interp.interpretService(s); err != nil {
			return err
		}
	}
	for _, ext := range fd.Extension {
		if err := interp.interpretField(ext); err != nil {
			return err
		}
	}
	return handler.Error()
}

func (interp *interpreter) span(elem interface{}) ast.SourceSpan {
	if n := interp.result.Node(elem); n != nil {
		return interp.result.AST().FileInfo().NodeSpan(n)
	}
	return ast.UnknownSpan(interp.result.FileDescriptorProto().GetName())
}

func (interp *interpreter) node(elem interface{}) ast.Node { return interp.result.Node(elem) }

func (interp *interpreter) interpretMessage(m *descriptorpb.DescriptorProto) error {
	if m.Options != nil {
		remaining, err := interp.interpret(m, m.Options.UninterpretedOption, m.Options)
		if err != nil {
			return err
		}
		m.Options.UninterpretedOption = remaining
	}
	for _, f := range m.Field {
		if err := interp.interpretField(f); err != nil {
			return err
		}
	}
	for _, o := range m.OneofDecl {
		if o.Options != nil {
			remaining, err := interp.interpret(o, o.Options.UninterpretedOption, o.Options)
			if err != nil {
				return err
			}
			o.Options.UninterpretedOption = remaining
		}
	}
	for _, nm := range m.NestedType {
		if err := interp.interpretMessage(nm); err != nil {
			return err
		}
	}
	for _, ne := range m.EnumType {
		if err := interp.interpretEnum(ne); err != nil {
			return err
		}
	}
	for _, ext := range m.Extension {
		if err := interp.interpretField(ext); err != nil {
			return err
		}
	}
	return nil
}

func (interp *interpreter) interpretField(f *descriptorpb.FieldDescriptorProto) error {
	if f.Options == nil {
		return nil
	}
	remaining, err := interp.interpret(f, f.Options.UninterpretedOption, f.Options)
	if err != nil {
		return err
	}
	f.Options.UninterpretedOption = remaining
	return nil
}

func (interp *interpreter) interpretEnum(e *descriptorpb.EnumDescriptorProto) error {
	if e.Options != nil {
		remaining, err := interp.interpret(e, e.Options.UninterpretedOption, e.Options)
		if err != nil {
			return err
		}
		e.Options.UninterpretedOption = remaining
	}
	for _, v := range e.Value {
		if v.Options == nil {
			continue
		}
		remaining, err := interp.interpret(v, v.Options.UninterpretedOption, v.Options)
		if err != nil {
			return err
		}
		v.Options.UninterpretedOption = remaining
	}
	return nil
}

func (interp *interpreter) interpretService(s *descriptorpb.ServiceDescriptorProto) error {
	if s.Options != nil {
		remaining, err := interp.interpret(s, s.Options.UninterpretedOption, s.Options)
		if err != nil {
			return err
		}
		s.Options.UninterpretedOption = remaining
	}
	for _, m := range s.Method {
		if m.Options == nil {
			continue
		}
		remaining, err := interp.interpret(m, m.Options.UninterpretedOption, m.Options)
		if err != nil {
			return err
		}
		m.Options.UninterpretedOption = remaining
	}
	return nil
}

// interpret applies every recognized option in uos to opts (one of the
// *descriptorpb.*Options types), in order, and returns the subset of uos
// that weren't recognized, unchanged, for the caller to leave in place.
func (interp *interpreter) interpret(elem interface{}, uos []*descriptorpb.UninterpretedOption, opts interface{}) ([]*descriptorpb.UninterpretedOption, error) {
	var remaining []*descriptorpb.UninterpretedOption
	for _, uo := range uos {
		ok, err := interp.interpretOne(elem, uo, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			remaining = append(remaining, uo)
		}
	}
	return remaining, nil
}

// simpleName returns uo's option name as a bare dotted string, or "" if
// it names an extension (those are never part of the recognized set --
// §4.6 defers all extension options to uninterpreted_option).
func simpleName(uo *descriptorpb.UninterpretedOption) string {
	var parts []string
	for _, p := range uo.Name {
		if p.GetIsExtension() {
			return ""
		}
		parts = append(parts, p.GetNamePart())
	}
	return strings.Join(parts, ".")
}

func (interp *interpreter) interpretOne(elem interface{}, uo *descriptorpb.UninterpretedOption, opts interface{}) (bool, error) {
	name := simpleName(uo)
	if name == "" {
		return false, nil
	}
	switch o := opts.(type) {
	case *descriptorpb.FileOptions:
		return interp.interpretFileOption(elem, uo, name, o)
	case *descriptorpb.MessageOptions:
		return interp.interpretMessageOption(elem, uo, name, o)
	case *descriptorpb.FieldOptions:
		return interp.interpretFieldOption(elem, uo, name, o)
	case *descriptorpb.OneofOptions:
		return false, nil
	case *descriptorpb.EnumOptions:
		return interp.interpretEnumOption(elem, uo, name, o)
	case *descriptorpb.EnumValueOptions:
		return interp.interpretEnumValueOption(elem, uo, name, o)
	case *descriptorpb.ServiceOptions:
		return interp.interpretServiceOption(elem, uo, name, o)
	case *descriptorpb.MethodOptions:
		return interp.interpretMethodOption(elem, uo, name, o)
	default:
		return false, nil
	}
}

func (interp *interpreter) boolValue(elem interface{}, uo *descriptorpb.UninterpretedOption, name string) (bool, bool, error) {
	id := uo.GetIdentifierValue()
	if id != "true" && id != "false" {
		return false, false, interp.handleTypeMismatchErrorf(interp.span(elem), interp.node(elem), "option %s: expecting bool value, got %s", name, optionValueKind(uo))
	}
	return id == "true", true, nil
}

func optionValueKind(uo *descriptorpb.UninterpretedOption) string {
	switch {
	case uo.IdentifierValue != nil:
		return "identifier"
	case uo.StringValue != nil:
		return "string"
	case uo.PositiveIntValue != nil, uo.NegativeIntValue != nil:
		return "integer"
	case uo.DoubleValue != nil:
		return "double"
	case uo.AggregateValue != nil:
		return "message literal"
	default:
		return "unknown"
	}
}

func (interp *interpreter) interpretFileOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.FileOptions) (bool, error) {
	switch name {
	case "java_package":
		o.JavaPackage = proto.String(uo.GetStringValue())
	case "java_outer_classname":
		o.JavaOuterClassname = proto.String(uo.GetStringValue())
	case "java_multiple_files":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.JavaMultipleFiles = proto.Bool(b)
	case "java_generate_equals_and_hash":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.JavaGenerateEqualsAndHash = proto.Bool(b)
	case "java_string_check_utf8":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.JavaStringCheckUtf8 = proto.Bool(b)
	case "optimize_for":
		v, ok := descriptorpb.FileOptions_OptimizeMode_value[uo.GetIdentifierValue()]
		if !ok {
			return true, interp.handleValueErrorf(interp.span(elem), interp.node(elem), "option optimize_for: unknown value %q", uo.GetIdentifierValue())
		}
		o.OptimizeFor = descriptorpb.FileOptions_OptimizeMode(v).Enum()
	case "go_package":
		o.GoPackage = proto.String(uo.GetStringValue())
	case "cc_generic_services":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.CcGenericServices = proto.Bool(b)
	case "java_generic_services":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.JavaGenericServices = proto.Bool(b)
	case "py_generic_services":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.PyGenericServices = proto.Bool(b)
	case "deprecated":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Deprecated = proto.Bool(b)
	case "cc_enable_arenas":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.CcEnableArenas = proto.Bool(b)
	case "objc_class_prefix":
		o.ObjcClassPrefix = proto.String(uo.GetStringValue())
	case "csharp_namespace":
		o.CsharpNamespace = proto.String(uo.GetStringValue())
	case "swift_prefix":
		o.SwiftPrefix = proto.String(uo.GetStringValue())
	case "php_class_prefix":
		o.PhpClassPrefix = proto.String(uo.GetStringValue())
	case "php_namespace":
		o.PhpNamespace = proto.String(uo.GetStringValue())
	case "php_metadata_namespace":
		o.PhpMetadataNamespace = proto.String(uo.GetStringValue())
	case "ruby_package":
		o.RubyPackage = proto.String(uo.GetStringValue())
	default:
		return false, nil
	}
	return true, nil
}

func (interp *interpreter) interpretMessageOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.MessageOptions) (bool, error) {
	switch name {
	case "deprecated", "map_entry", "message_set_wire_format", "no_standard_descriptor_accessor":
	default:
		return false, nil
	}
	b, ok, err := interp.boolValue(elem, uo, name)
	if !ok {
		return true, err
	}
	switch name {
	case "deprecated":
		o.Deprecated = proto.Bool(b)
	case "map_entry":
		o.MapEntry = proto.Bool(b)
	case "message_set_wire_format":
		o.MessageSetWireFormat = proto.Bool(b)
	case "no_standard_descriptor_accessor":
		o.NoStandardDescriptorAccessor = proto.Bool(b)
	}
	return true, nil
}

func (interp *interpreter) interpretFieldOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.FieldOptions) (bool, error) {
	switch name {
	case "deprecated":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Deprecated = proto.Bool(b)
	case "packed":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Packed = proto.Bool(b)
	case "lazy":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Lazy = proto.Bool(b)
	case "weak":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Weak = proto.Bool(b)
	case "jstype":
		v, ok := descriptorpb.FieldOptions_JSType_value[uo.GetIdentifierValue()]
		if !ok {
			return true, interp.handleValueErrorf(interp.span(elem), interp.node(elem), "option jstype: unknown value %q", uo.GetIdentifierValue())
		}
		o.Jstype = descriptorpb.FieldOptions_JSType(v).Enum()
	case "ctype":
		v, ok := descriptorpb.FieldOptions_CType_value[uo.GetIdentifierValue()]
		if !ok {
			return true, interp.handleValueErrorf(interp.span(elem), interp.node(elem), "option ctype: unknown value %q", uo.GetIdentifierValue())
		}
		o.Ctype = descriptorpb.FieldOptions_CType(v).Enum()
	default:
		return false, nil
	}
	return true, nil
}

func (interp *interpreter) interpretEnumOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.EnumOptions) (bool, error) {
	switch name {
	case "allow_alias", "deprecated":
	default:
		return false, nil
	}
	b, ok, err := interp.boolValue(elem, uo, name)
	if !ok {
		return true, err
	}
	switch name {
	case "allow_alias":
		o.AllowAlias = proto.Bool(b)
	case "deprecated":
		o.Deprecated = proto.Bool(b)
	}
	return true, nil
}

func (interp *interpreter) interpretEnumValueOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.EnumValueOptions) (bool, error) {
	if name != "deprecated" {
		return false, nil
	}
	b, ok, err := interp.boolValue(elem, uo, name)
	if !ok {
		return true, err
	}
	o.Deprecated = proto.Bool(b)
	return true, nil
}

func (interp *interpreter) interpretServiceOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.ServiceOptions) (bool, error) {
	if name != "deprecated" {
		return false, nil
	}
	b, ok, err := interp.boolValue(elem, uo, name)
	if !ok {
		return true, err
	}
	o.Deprecated = proto.Bool(b)
	return true, nil
}

func (interp *interpreter) interpretMethodOption(elem interface{}, uo *descriptorpb.UninterpretedOption, name string, o *descriptorpb.MethodOptions) (bool, error) {
	switch name {
	case "deprecated":
		b, ok, err := interp.boolValue(elem, uo, name)
		if !ok {
			return true, err
		}
		o.Deprecated = proto.Bool(b)
	case "idempotency_level":
		v, ok := descriptorpb.MethodOptions_IdempotencyLevel_value[uo.GetIdentifierValue()]
		if !ok {
			return true, interp.handleValueErrorf(interp.span(elem), interp.node(elem), "option idempotency_level: unknown value %q", uo.GetIdentifierValue())
		}
		o.IdempotencyLevel = descriptorpb.MethodOptions_IdempotencyLevel(v).Enum()
	default:
		return false, nil
	}
	return true, nil
}
