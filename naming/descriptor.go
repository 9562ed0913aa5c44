package naming

import (
	"strings"

	"github.com/broady/classgen/ir"
)

// jvmBuiltins maps built-in class names to JVM internal names.
var jvmBuiltins = map[string]string{
	ir.AnyName:    "java/lang/Object",
	ir.StringName: "java/lang/String",
	ir.EnumName:   "java/lang/Enum",
}

// jsBuiltins maps built-in class names to JS runtime references.
var jsBuiltins = map[string]string{
	ir.AnyName:    "Object",
	ir.StringName: "String",
	ir.EnumName:   "Kotlin.Enum",
}

// boxed maps primitive kinds to the reference types that hold them.
var boxed = map[ir.TypeKind]string{
	ir.TypeBoolean: "java/lang/Boolean",
	ir.TypeByte:    "java/lang/Byte",
	ir.TypeChar:    "java/lang/Character",
	ir.TypeShort:   "java/lang/Short",
	ir.TypeInt:     "java/lang/Integer",
	ir.TypeLong:    "java/lang/Long",
	ir.TypeFloat:   "java/lang/Float",
	ir.TypeDouble:  "java/lang/Double",
}

var primitiveDescriptors = map[ir.TypeKind]string{
	ir.TypeUnit:    "V",
	ir.TypeBoolean: "Z",
	ir.TypeByte:    "B",
	ir.TypeChar:    "C",
	ir.TypeShort:   "S",
	ir.TypeInt:     "I",
	ir.TypeLong:    "J",
	ir.TypeFloat:   "F",
	ir.TypeDouble:  "D",
}

// Descriptor returns the erased JVM descriptor of t. Type parameters erase
// to the root object type and nullable primitives to their boxed class.
func (m *Mapper) Descriptor(t *ir.Type) string {
	if t == nil {
		return "V"
	}
	switch t.Kind {
	case ir.TypeClass:
		return "L" + m.internalName(t.Class) + ";"
	case ir.TypeArray:
		return "[" + m.Descriptor(t.Elem)
	case ir.TypeParameter:
		return "Ljava/lang/Object;"
	case ir.TypeUnit:
		return "V"
	}
	if t.Nullable {
		return "L" + boxed[t.Kind] + ";"
	}
	return primitiveDescriptors[t.Kind]
}

// MethodDescriptor returns "(params)return" for the given types.
func (m *Mapper) MethodDescriptor(params []*ir.Type, ret *ir.Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(m.Descriptor(p))
	}
	sb.WriteByte(')')
	sb.WriteString(m.Descriptor(ret))
	return sb.String()
}

// BoxedName returns the internal name of the class boxing primitive t.
func BoxedName(t *ir.Type) (string, bool) {
	name, ok := boxed[t.Kind]
	return name, ok
}

// internalName returns the JVM internal name of a class.
func (m *Mapper) internalName(fq string) string {
	if name, ok := jvmBuiltins[fq]; ok {
		return name
	}
	if c, ok := m.oracle.Class(fq); ok {
		return jvmClassName(c)
	}
	return strings.ReplaceAll(fq, ".", "/")
}

func jvmClassName(c *ir.Class) string {
	rel := strings.ReplaceAll(c.RelativeName(), ".", "$")
	if c.Package == "" {
		return rel
	}
	return strings.ReplaceAll(c.Package, ".", "/") + "/" + rel
}

// ClassSignature returns the generic signature of c, or "" when c is not
// generic or the style does not record generic signatures.
func (m *Mapper) ClassSignature(c *ir.Class) string {
	if !m.style.GenericSignatures || len(c.TypeParameters) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('<')
	for _, tp := range c.TypeParameters {
		sb.WriteString(tp.Name)
		sb.WriteByte(':')
		if tp.Bound != nil {
			sb.WriteString(m.genericDescriptor(tp.Bound))
		} else {
			sb.WriteString("Ljava/lang/Object;")
		}
	}
	sb.WriteByte('>')
	hasClass := false
	for _, st := range c.Supertypes {
		if sc, ok := m.oracle.Class(st.Class); ok && !sc.IsInterface() {
			hasClass = true
		}
	}
	if !hasClass {
		sb.WriteString("Ljava/lang/Object;")
	}
	for _, st := range c.Supertypes {
		sb.WriteString(m.genericDescriptor(st))
	}
	return sb.String()
}

func (m *Mapper) genericDescriptor(t *ir.Type) string {
	switch t.Kind {
	case ir.TypeParameter:
		return "T" + t.Param + ";"
	case ir.TypeArray:
		return "[" + m.genericDescriptor(t.Elem)
	case ir.TypeClass:
		if len(t.Args) == 0 {
			return m.Descriptor(t)
		}
		var sb strings.Builder
		sb.WriteString("L" + m.internalName(t.Class) + "<")
		for _, a := range t.Args {
			sb.WriteString(m.genericDescriptor(boxedArg(a)))
		}
		sb.WriteString(">;")
		return sb.String()
	}
	return m.Descriptor(t)
}

// boxedArg returns the reference form of a type argument.
func boxedArg(t *ir.Type) *ir.Type {
	if t.IsPrimitive() {
		return ir.Nullable(t)
	}
	return t
}
