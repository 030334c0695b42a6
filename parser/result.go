package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

// Result pairs a parsed file's AST with the FileDescriptorProto built from
// it (§4.6), and lets later stages (the linker, SourceCodeInfo
// generation) map a descriptor element back to the AST node it came
// from.
type Result struct {
	file  *ast.FileNode
	proto *descriptorpb.FileDescriptorProto
	nodes map[interface{}]ast.Node
}

// NewPlaceholderResult wraps a bare FileDescriptorProto that has no
// corresponding parsed source -- used by the linker for placeholder
// files standing in for unresolved weak imports (§4.5).
func NewPlaceholderResult(file *ast.FileNode, fd *descriptorpb.FileDescriptorProto) *Result {
	return &Result{file: file, proto: fd, nodes: map[interface{}]ast.Node{}}
}

func (r *Result) AST() *ast.FileNode { return r.file }

func (r *Result) FileDescriptorProto() *descriptorpb.FileDescriptorProto { return r.proto }

// Node returns the AST node that produced the given descriptor element
// (a *descriptorpb.DescriptorProto, *FieldDescriptorProto, and so on), or
// nil if m was not built by this Result (e.g. it came from another file).
func (r *Result) Node(m interface{}) ast.Node { return r.nodes[m] }

var scalarToFieldType = map[ast.ScalarKind]descriptorpb.FieldDescriptorProto_Type{
	ast.ScalarDouble:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	ast.ScalarFloat:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	ast.ScalarInt64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	ast.ScalarUint64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	ast.ScalarInt32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	ast.ScalarFixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	ast.ScalarFixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	ast.ScalarBool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	ast.ScalarString:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	ast.ScalarBytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
	ast.ScalarUint32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	ast.ScalarSfixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	ast.ScalarSfixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	ast.ScalarSint32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	ast.ScalarSint64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
}

// builder accumulates a FileDescriptorProto from an AST in a single
// depth-first pass, tracking the dotted-name stack so that map-entry
// messages (the one descriptor element this stage itself synthesizes,
// per §4.6) can be given a fully-qualified type_name without waiting for
// the linker.
type builder struct {
	handler   *reporter.Handler
	nodes     map[interface{}]ast.Node
	nameStack []string
}

// ResultFromAST walks file's AST and builds the corresponding
// FileDescriptorProto (§4.6): proto3 labels, map-entry synthesis,
// proto3-optional oneof synthesis, reserved/extension ranges, and raw
// UninterpretedOption entries for every option (the options package
// interprets the recognized subset afterward, once linking has run).
func ResultFromAST(file *ast.FileNode, handler *reporter.Handler) (*Result, error) {
	syntax := "proto3"
	if file.Syntax != nil {
		syntax = file.Syntax.Val.Val
	}
	fd := &descriptorpb.FileDescriptorProto{
		Name:   proto.String(file.Name()),
		Syntax: proto.String(syntax),
	}
	b := &builder{handler: handler, nodes: map[interface{}]ast.Node{}}

	if pkg := file.Package(); pkg != nil {
		name := pkg.Name.AsIdentifier()
		fd.Package = proto.String(name)
		b.nameStack = strings.Split(name, ".")
	}

	for _, imp := range file.Imports() {
		fd.Dependency = append(fd.Dependency, imp.Name.Val)
		idx := int32(len(fd.Dependency) - 1)
		switch imp.ImportModifier() {
		case ast.ImportPublic:
			fd.PublicDependency = append(fd.PublicDependency, idx)
		case ast.ImportWeak:
			fd.WeakDependency = append(fd.WeakDependency, idx)
		}
	}

	for _, decl := range file.Decls {
		switch e := decl.(type) {
		case *ast.MessageNode:
			fd.MessageType = append(fd.MessageType, b.buildMessage(e))
		case *ast.EnumNode:
			fd.EnumType = append(fd.EnumType, b.buildEnum(e))
		case *ast.ServiceNode:
			fd.Service = append(fd.Service, b.buildService(e))
		case *ast.ExtendNode:
			fd.Extension = append(fd.Extension, b.buildExtendFields(e)...)
		case *ast.OptionNode:
			if fd.Options == nil {
				fd.Options = &descriptorpb.FileOptions{}
			}
			fd.Options.UninterpretedOption = append(fd.Options.UninterpretedOption, b.buildUninterpretedOption(e))
		}
	}

	return &Result{file: file, proto: fd, nodes: b.nodes}, nil
}

// fullName returns the absolute (leading-dot) fully-qualified name of an
// element declared directly within the builder's current scope.
func (b *builder) fullName(name string) string {
	if len(b.nameStack) == 0 {
		return "." + name
	}
	return "." + strings.Join(b.nameStack, ".") + "." + name
}

func (b *builder) buildMessage(m *ast.MessageNode) *descriptorpb.DescriptorProto {
	d := &descriptorpb.DescriptorProto{Name: proto.String(m.Name.Val)}
	b.nodes[d] = m
	b.nameStack = append(b.nameStack, m.Name.Val)
	defer func() { b.nameStack = b.nameStack[:len(b.nameStack)-1] }()

	oneofIndex := map[*ast.OneofNode]int32{}
	for _, o := range m.Oneofs() {
		od := &descriptorpb.OneofDescriptorProto{Name: proto.String(o.Name.Val)}
		b.nodes[od] = o
		oneofIndex[o] = int32(len(d.OneofDecl))
		d.OneofDecl = append(d.OneofDecl, od)
	}

	for _, decl := range m.Decls {
		switch e := decl.(type) {
		case *ast.FieldNode:
			d.Field = append(d.Field, b.buildField(d, e, 0, false))
		case *ast.MapFieldNode:
			field, entry := b.buildMapField(e)
			d.Field = append(d.Field, field)
			d.NestedType = append(d.NestedType, entry)
		case *ast.OneofNode:
			idx := oneofIndex[e]
			for _, f := range e.Fields() {
				d.Field = append(d.Field, b.buildField(d, f, idx, true))
			}
		case *ast.MessageNode:
			d.NestedType = append(d.NestedType, b.buildMessage(e))
		case *ast.EnumNode:
			d.EnumType = append(d.EnumType, b.buildEnum(e))
		case *ast.ExtendNode:
			d.Extension = append(d.Extension, b.buildExtendFields(e)...)
		case *ast.ExtensionRangeNode:
			d.ExtensionRange = append(d.ExtensionRange, buildExtensionRanges(e)...)
		case *ast.ReservedRangesNode:
			d.ReservedRange = append(d.ReservedRange, buildReservedRanges(e)...)
		case *ast.ReservedNamesNode:
			for _, n := range e.Names {
				d.ReservedName = append(d.ReservedName, n.Val)
			}
		case *ast.OptionNode:
			if d.Options == nil {
				d.Options = &descriptorpb.MessageOptions{}
			}
			d.Options.UninterpretedOption = append(d.Options.UninterpretedOption, b.buildUninterpretedOption(e))
		}
	}
	return d
}

// buildField builds one field descriptor. If f declares "optional"
// (proto3 explicit presence) and isn't already inside a user-declared
// oneof, a synthetic single-field oneof named "_"+fieldName is appended
// to msgDesc and the field is marked Proto3Optional, per §4.6/§9.
func (b *builder) buildField(msgDesc *descriptorpb.DescriptorProto, f *ast.FieldNode, oneofIndex int32, hasOneof bool) *descriptorpb.FieldDescriptorProto {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(f.Name.Val),
		Number:   proto.Int32(f.FieldNumber()),
		JsonName: proto.String(jsonName(f.Name.Val)),
	}
	b.nodes[fd] = f

	if f.Label == ast.LabelRepeated {
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	} else {
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	}

	switch t := f.FieldType.(type) {
	case *ast.ScalarTypeNode:
		fd.Type = scalarToFieldType[t.Kind].Enum()
	case *ast.IdentTypeNode:
		fd.TypeName = proto.String(t.TypeName())
	}

	if f.Label == ast.LabelOptional && !hasOneof {
		idx := int32(len(msgDesc.OneofDecl))
		msgDesc.OneofDecl = append(msgDesc.OneofDecl, &descriptorpb.OneofDescriptorProto{
			Name: proto.String("_" + f.Name.Val),
		})
		oneofIndex = idx
		hasOneof = true
		fd.Proto3Optional = proto.Bool(true)
	}
	if hasOneof {
		fd.OneofIndex = proto.Int32(oneofIndex)
	}

	if f.Options != nil {
		fd.Options = &descriptorpb.FieldOptions{}
		for _, o := range f.Options.Options {
			fd.Options.UninterpretedOption = append(fd.Options.UninterpretedOption, b.buildUninterpretedOption(o))
		}
	}
	return fd
}

// buildMapField synthesizes the nested "FooEntry" message for a map
// field, per §4.6: two fields ("key"/"value", numbers 1/2), MapEntry set
// in its MessageOptions, and the outer field rewritten to a repeated
// message field referencing it.
func (b *builder) buildMapField(f *ast.MapFieldNode) (*descriptorpb.FieldDescriptorProto, *descriptorpb.DescriptorProto) {
	entryName := mapEntryMessageName(f.Name.Val)
	entry := &descriptorpb.DescriptorProto{
		Name:    proto.String(entryName),
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
	b.nodes[entry] = f

	keyKind := ast.ScalarTypeNames[f.KeyType.Val]
	entry.Field = append(entry.Field, &descriptorpb.FieldDescriptorProto{
		Name:     proto.String("key"),
		Number:   proto.Int32(1),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     scalarToFieldType[keyKind].Enum(),
		JsonName: proto.String("key"),
	})

	valueField := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String("value"),
		Number:   proto.Int32(2),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		JsonName: proto.String("value"),
	}
	switch t := f.ValueType.(type) {
	case *ast.ScalarTypeNode:
		valueField.Type = scalarToFieldType[t.Kind].Enum()
	case *ast.IdentTypeNode:
		valueField.TypeName = proto.String(t.TypeName())
	}
	entry.Field = append(entry.Field, valueField)

	mapField := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(f.Name.Val),
		Number:   proto.Int32(f.FieldNumber()),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: proto.String(b.fullName(entryName)),
		JsonName: proto.String(jsonName(f.Name.Val)),
	}
	if f.Options != nil {
		mapField.Options = &descriptorpb.FieldOptions{}
		for _, o := range f.Options.Options {
			mapField.Options.UninterpretedOption = append(mapField.Options.UninterpretedOption, b.buildUninterpretedOption(o))
		}
	}
	b.nodes[mapField] = f
	return mapField, entry
}

func (b *builder) buildExtendFields(e *ast.ExtendNode) []*descriptorpb.FieldDescriptorProto {
	extendee := e.Extendee.AsIdentifier()
	var out []*descriptorpb.FieldDescriptorProto
	for _, f := range e.Fields {
		fd := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(f.Name.Val),
			Number:   proto.Int32(f.FieldNumber()),
			Extendee: proto.String(extendee),
			JsonName: proto.String(jsonName(f.Name.Val)),
		}
		if f.Label == ast.LabelRepeated {
			fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		} else {
			fd.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
		}
		switch t := f.FieldType.(type) {
		case *ast.ScalarTypeNode:
			fd.Type = scalarToFieldType[t.Kind].Enum()
		case *ast.IdentTypeNode:
			fd.TypeName = proto.String(t.TypeName())
		}
		if f.Options != nil {
			fd.Options = &descriptorpb.FieldOptions{}
			for _, o := range f.Options.Options {
				fd.Options.UninterpretedOption = append(fd.Options.UninterpretedOption, b.buildUninterpretedOption(o))
			}
		}
		b.nodes[fd] = f
		out = append(out, fd)
	}
	return out
}

func (b *builder) buildEnum(n *ast.EnumNode) *descriptorpb.EnumDescriptorProto {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(n.Name.Val)}
	b.nodes[ed] = n
	for _, decl := range n.Decls {
		switch e := decl.(type) {
		case *ast.EnumValueNode:
			vd := &descriptorpb.EnumValueDescriptorProto{
				Name:   proto.String(e.Name.Val),
				Number: proto.Int32(e.NumberValue()),
			}
			if e.Options != nil {
				vd.Options = &descriptorpb.EnumValueOptions{}
				for _, o := range e.Options.Options {
					vd.Options.UninterpretedOption = append(vd.Options.UninterpretedOption, b.buildUninterpretedOption(o))
				}
			}
			b.nodes[vd] = e
			ed.Value = append(ed.Value, vd)
		case *ast.OptionNode:
			if ed.Options == nil {
				ed.Options = &descriptorpb.EnumOptions{}
			}
			ed.Options.UninterpretedOption = append(ed.Options.UninterpretedOption, b.buildUninterpretedOption(e))
		case *ast.ReservedRangesNode:
			for _, r := range e.Ranges {
				ed.ReservedRange = append(ed.ReservedRange, &descriptorpb.EnumDescriptorProto_EnumReservedRange{
					Start: proto.Int32(r.StartNumber()),
					End:   proto.Int32(r.EndNumberInclusive(math.MaxInt32)),
				})
			}
		case *ast.ReservedNamesNode:
			for _, nm := range e.Names {
				ed.ReservedName = append(ed.ReservedName, nm.Val)
			}
		}
	}
	return ed
}

func (b *builder) buildService(n *ast.ServiceNode) *descriptorpb.ServiceDescriptorProto {
	sd := &descriptorpb.ServiceDescriptorProto{Name: proto.String(n.Name.Val)}
	b.nodes[sd] = n
	for _, m := range n.Methods() {
		md := &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.Name.Val),
			InputType:  proto.String(m.Input.MessageType.AsIdentifier()),
			OutputType: proto.String(m.Output.MessageType.AsIdentifier()),
		}
		if m.ClientStreaming() {
			md.ClientStreaming = proto.Bool(true)
		}
		if m.ServerStreaming() {
			md.ServerStreaming = proto.Bool(true)
		}
		for _, o := range m.Options {
			if md.Options == nil {
				md.Options = &descriptorpb.MethodOptions{}
			}
			md.Options.UninterpretedOption = append(md.Options.UninterpretedOption, b.buildUninterpretedOption(o))
		}
		b.nodes[md] = m
		sd.Method = append(sd.Method, md)
	}
	for _, o := range n.Options() {
		if sd.Options == nil {
			sd.Options = &descriptorpb.ServiceOptions{}
		}
		sd.Options.UninterpretedOption = append(sd.Options.UninterpretedOption, b.buildUninterpretedOption(o))
	}
	return sd
}

func buildExtensionRanges(e *ast.ExtensionRangeNode) []*descriptorpb.DescriptorProto_ExtensionRange {
	var out []*descriptorpb.DescriptorProto_ExtensionRange
	for _, r := range e.Ranges {
		out = append(out, &descriptorpb.DescriptorProto_ExtensionRange{
			Start: proto.Int32(r.StartNumber()),
			End:   proto.Int32(r.EndNumberInclusive(maxFieldNumber) + 1),
		})
	}
	return out
}

func buildReservedRanges(e *ast.ReservedRangesNode) []*descriptorpb.DescriptorProto_ReservedRange {
	var out []*descriptorpb.DescriptorProto_ReservedRange
	for _, r := range e.Ranges {
		out = append(out, &descriptorpb.DescriptorProto_ReservedRange{
			Start: proto.Int32(r.StartNumber()),
			End:   proto.Int32(r.EndNumberInclusive(maxFieldNumber) + 1),
		})
	}
	return out
}

func (b *builder) buildUninterpretedOption(o *ast.OptionNode) *descriptorpb.UninterpretedOption {
	uo := &descriptorpb.UninterpretedOption{}
	for _, part := range o.Name.Parts {
		uo.Name = append(uo.Name, &descriptorpb.UninterpretedOption_NamePart{
			NamePart:    proto.String(part.Text()),
			IsExtension: proto.Bool(part.IsExtension),
		})
	}
	b.setUninterpretedValue(uo, o.Val)
	return uo
}

func (b *builder) setUninterpretedValue(uo *descriptorpb.UninterpretedOption, v ast.ValueNode) {
	switch val := v.(type) {
	case *ast.StringLiteralNode:
		uo.StringValue = []byte(val.Val)
	case *ast.UintLiteralNode:
		uo.PositiveIntValue = proto.Uint64(val.Val)
	case *ast.FloatLiteralNode:
		uo.DoubleValue = proto.Float64(val.Val)
	case *ast.BoolLiteralNode:
		uo.IdentifierValue = proto.String(strconv.FormatBool(val.Val))
	case ast.IdentValueLiteralNode:
		uo.IdentifierValue = proto.String(val.Val)
	case *ast.SignedNumberNode:
		switch n := val.Value().(type) {
		case int64:
			if n < 0 {
				uo.NegativeIntValue = proto.Int64(n)
			} else {
				uo.PositiveIntValue = proto.Uint64(uint64(n))
			}
		case float64:
			uo.DoubleValue = proto.Float64(n)
		}
	case *ast.AggregateLiteralNode:
		uo.AggregateValue = proto.String(b.renderAggregate(val))
	}
}

func (b *builder) renderAggregate(a *ast.AggregateLiteralNode) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, e := range a.Entries {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.Name.Text())
		sb.WriteString(":")
		sb.WriteString(b.renderValue(e.Val))
	}
	sb.WriteString("}")
	return sb.String()
}

func (b *builder) renderValue(v ast.ValueNode) string {
	switch val := v.(type) {
	case *ast.StringLiteralNode:
		return strconv.Quote(val.Val)
	case *ast.UintLiteralNode:
		return strconv.FormatUint(val.Val, 10)
	case *ast.FloatLiteralNode:
		return strconv.FormatFloat(val.Val, 'g', -1, 64)
	case *ast.BoolLiteralNode:
		return strconv.FormatBool(val.Val)
	case ast.IdentValueLiteralNode:
		return val.Val
	case *ast.AggregateLiteralNode:
		return b.renderAggregate(val)
	case *ast.SignedNumberNode:
		switch n := val.Value().(type) {
		case int64:
			return strconv.FormatInt(n, 10)
		case float64:
			return strconv.FormatFloat(n, 'g', -1, 64)
		}
	}
	return ""
}

// jsonName implements protoc's lowerCamelCase conversion of a
// snake_case field name (§4.6).
func jsonName(s string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range s {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapEntryMessageName implements protoc's map-entry naming convention: the
// field name, UpperCamelCased, with "Entry" appended (§4.6).
func mapEntryMessageName(fieldName string) string {
	jn := jsonName(fieldName)
	if jn == "" {
		return "Entry"
	}
	return strings.ToUpper(jn[:1]) + jn[1:] + "Entry"
}
