package ir

import "strings"

// TypeKind identifies the category of a resolved type.
type TypeKind int

const (
	TypeUnit TypeKind = iota
	TypeBoolean
	TypeByte
	TypeChar
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeClass     // Reference to a class, interface, enum or object
	TypeArray     // Array with an element type
	TypeParameter // Reference to a declared type parameter
)

// String returns the source spelling of the kind.
func (k TypeKind) String() string {
	switch k {
	case TypeUnit:
		return "Unit"
	case TypeBoolean:
		return "Boolean"
	case TypeByte:
		return "Byte"
	case TypeChar:
		return "Char"
	case TypeShort:
		return "Short"
	case TypeInt:
		return "Int"
	case TypeLong:
		return "Long"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeClass:
		return "Class"
	case TypeArray:
		return "Array"
	case TypeParameter:
		return "TypeParameter"
	default:
		return "Unknown"
	}
}

// Well-known class names of the source language's built-ins.
const (
	AnyName    = "kotlin.Any"
	StringName = "kotlin.String"
	EnumName   = "kotlin.Enum"
)

// Type is a resolved type as produced by the front-end.
// Types are values; compare them with Equal.
type Type struct {
	Kind TypeKind

	// Class is the fully-qualified class name for TypeClass.
	Class string

	// Param is the type parameter name for TypeParameter.
	Param string

	// Elem is the element type for TypeArray.
	Elem *Type

	// Args are type arguments for generic class types.
	Args []*Type

	// Nullable marks a type that admits null.
	Nullable bool
}

var (
	unitType    = &Type{Kind: TypeUnit}
	booleanType = &Type{Kind: TypeBoolean}
	byteType    = &Type{Kind: TypeByte}
	charType    = &Type{Kind: TypeChar}
	shortType   = &Type{Kind: TypeShort}
	intType     = &Type{Kind: TypeInt}
	longType    = &Type{Kind: TypeLong}
	floatType   = &Type{Kind: TypeFloat}
	doubleType  = &Type{Kind: TypeDouble}
)

// Unit returns the unit (void) type.
func Unit() *Type { return unitType }

// Boolean returns the boolean type.
func Boolean() *Type { return booleanType }

// Byte returns the 8-bit integer type.
func Byte() *Type { return byteType }

// Char returns the character type.
func Char() *Type { return charType }

// Short returns the 16-bit integer type.
func Short() *Type { return shortType }

// Int returns the 32-bit integer type.
func Int() *Type { return intType }

// Long returns the 64-bit integer type.
func Long() *Type { return longType }

// Float returns the 32-bit floating point type.
func Float() *Type { return floatType }

// Double returns the 64-bit floating point type.
func Double() *Type { return doubleType }

// String returns the built-in string type.
func String() *Type { return ClassType(StringName) }

// Any returns the root reference type.
func Any() *Type { return ClassType(AnyName) }

// ClassType returns a reference to the named class.
func ClassType(name string, args ...*Type) *Type {
	return &Type{Kind: TypeClass, Class: name, Args: args}
}

// ArrayOf returns an array type with the given element type.
func ArrayOf(elem *Type) *Type {
	return &Type{Kind: TypeArray, Elem: elem}
}

// ParamType returns a reference to a type parameter.
func ParamType(name string) *Type {
	return &Type{Kind: TypeParameter, Param: name}
}

// Nullable returns a copy of t that admits null.
func Nullable(t *Type) *Type {
	c := *t
	c.Nullable = true
	return &c
}

// IsPrimitive reports whether t is a non-nullable primitive value type.
// Nullable primitives are represented by reference (boxed) types.
func (t *Type) IsPrimitive() bool {
	if t == nil || t.Nullable {
		return false
	}
	switch t.Kind {
	case TypeBoolean, TypeByte, TypeChar, TypeShort, TypeInt, TypeLong, TypeFloat, TypeDouble:
		return true
	}
	return false
}

// IsNumeric reports whether t is one of the numeric primitive kinds.
func (t *Type) IsNumeric() bool {
	if !t.IsPrimitive() {
		return false
	}
	switch t.Kind {
	case TypeByte, TypeShort, TypeInt, TypeLong, TypeFloat, TypeDouble:
		return true
	}
	return false
}

// IsUnit reports whether t is the unit type.
func (t *Type) IsUnit() bool { return t == nil || t.Kind == TypeUnit }

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool { return t != nil && t.Kind == TypeArray }

// IsWide reports whether values of t occupy two local slots on the JVM.
func (t *Type) IsWide() bool {
	return t.IsPrimitive() && (t.Kind == TypeLong || t.Kind == TypeDouble)
}

// Equal reports whether two types are structurally identical.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Nullable != o.Nullable || t.Class != o.Class || t.Param != o.Param {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) || (t.Elem != nil && !t.Elem.Equal(o.Elem)) {
		return false
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Substitute replaces type parameter references using the given bindings.
func (t *Type) Substitute(bindings map[string]*Type) *Type {
	if t == nil || len(bindings) == 0 {
		return t
	}
	switch t.Kind {
	case TypeParameter:
		if b, ok := bindings[t.Param]; ok {
			if t.Nullable {
				return Nullable(b)
			}
			return b
		}
		return t
	case TypeArray:
		c := *t
		c.Elem = t.Elem.Substitute(bindings)
		return &c
	case TypeClass:
		if len(t.Args) == 0 {
			return t
		}
		c := *t
		c.Args = make([]*Type, len(t.Args))
		for i, a := range t.Args {
			c.Args[i] = a.Substitute(bindings)
		}
		return &c
	}
	return t
}

// String renders the type in source syntax, e.g. "Array<Int>?".
func (t *Type) String() string {
	if t == nil {
		return "Unit"
	}
	var sb strings.Builder
	switch t.Kind {
	case TypeClass:
		sb.WriteString(shortName(t.Class))
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(a.String())
			}
			sb.WriteByte('>')
		}
	case TypeArray:
		sb.WriteString("Array<")
		sb.WriteString(t.Elem.String())
		sb.WriteByte('>')
	case TypeParameter:
		sb.WriteString(t.Param)
	default:
		sb.WriteString(t.Kind.String())
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
	return sb.String()
}

func shortName(fq string) string {
	if i := strings.LastIndexByte(fq, '.'); i >= 0 {
		return fq[i+1:]
	}
	return fq
}

// TypeParam is a declared type parameter of a class or function.
type TypeParam struct {
	Name string

	// Bound is the upper bound; nil means the root reference type.
	Bound *Type
}

// Source identifies where a declaration came from.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}
