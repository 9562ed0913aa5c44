// Package jvm emits the class-file model of the JVM target.
//
// The Writer implements target.Emitter. Every defined type becomes a
// ClassFile holding access flags, fields, methods as instruction lists and
// the InnerClasses table. The model is not a binary class file: constant
// pools, stack map frames and max-stack are not computed. Listing renders a
// javap-like text view and Marshal a canonical CBOR encoding.
package jvm

import (
	"strings"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/target"
)

// Access is a set of class-file access flags.
type Access uint16

const (
	AccPublic     Access = 0x0001
	AccPrivate    Access = 0x0002
	AccProtected  Access = 0x0004
	AccStatic     Access = 0x0008
	AccFinal      Access = 0x0010
	AccSuper      Access = 0x0020
	AccBridge     Access = 0x0040
	AccInterface  Access = 0x0200
	AccAbstract   Access = 0x0400
	AccSynthetic  Access = 0x1000
	AccAnnotation Access = 0x2000
	AccEnum       Access = 0x4000
)

// Has reports whether all flags in f are set.
func (a Access) Has(f Access) bool { return a&f == f }

type flagName struct {
	flag Access
	name string
}

var (
	classFlagNames = []flagName{
		{AccPublic, "public"}, {AccFinal, "final"}, {AccSuper, "super"},
		{AccInterface, "interface"}, {AccAbstract, "abstract"}, {AccSynthetic, "synthetic"},
		{AccAnnotation, "annotation"}, {AccEnum, "enum"},
	}
	memberFlagNames = []flagName{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccStatic, "static"}, {AccFinal, "final"}, {AccBridge, "bridge"},
		{AccAbstract, "abstract"}, {AccSynthetic, "synthetic"}, {AccEnum, "enum"},
	}
)

func formatFlags(a Access, names []flagName) string {
	var parts []string
	for _, n := range names {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// ClassAccess converts type modifiers to class flags. Class files only
// record public or package visibility; nested visibility is kept in the
// InnerClasses entry.
func ClassAccess(m target.Modifiers) Access {
	var a Access
	if m.Has(target.Public) || m.Has(target.Protected) {
		a |= AccPublic
	}
	if m.Has(target.Final) {
		a |= AccFinal
	}
	if m.Has(target.Interface) {
		a |= AccInterface | AccAbstract
	} else {
		a |= AccSuper
	}
	if m.Has(target.Abstract) {
		a |= AccAbstract
	}
	if m.Has(target.Synthetic) {
		a |= AccSynthetic
	}
	if m.Has(target.Annotation) {
		a |= AccAnnotation
	}
	if m.Has(target.Enum) {
		a |= AccEnum
	}
	return a
}

// MemberAccess converts field, method and nested-type modifiers to flags.
func MemberAccess(m target.Modifiers) Access {
	var a Access
	for _, f := range []struct {
		mod target.Modifiers
		acc Access
	}{
		{target.Public, AccPublic},
		{target.Private, AccPrivate},
		{target.Protected, AccProtected},
		{target.Static, AccStatic},
		{target.Final, AccFinal},
		{target.Bridge, AccBridge},
		{target.Abstract, AccAbstract},
		{target.Synthetic, AccSynthetic},
		{target.Enum, AccEnum},
		{target.Interface, AccInterface},
		{target.Annotation, AccAnnotation},
	} {
		if m.Has(f.mod) {
			a |= f.acc
		}
	}
	return a
}

// ClassFile is the model of one emitted class.
type ClassFile struct {
	Name         string       `cbor:"1,keyasint"`
	Access       Access       `cbor:"2,keyasint"`
	Super        string       `cbor:"3,keyasint,omitempty"`
	Interfaces   []string     `cbor:"4,keyasint,omitempty"`
	Signature    string       `cbor:"5,keyasint,omitempty"`
	Fields       []*Field     `cbor:"6,keyasint,omitempty"`
	Methods      []*Method    `cbor:"7,keyasint,omitempty"`
	InnerClasses []InnerClass `cbor:"8,keyasint,omitempty"`
}

// IsInterface reports whether the class file defines an interface.
func (cf *ClassFile) IsInterface() bool { return cf.Access.Has(AccInterface) }

// Field returns the field named name, or nil.
func (cf *ClassFile) Field(name string) *Field {
	for _, f := range cf.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the method with the given name and descriptor, or nil.
// An empty descriptor matches the first method named name.
func (cf *ClassFile) Method(name, desc string) *Method {
	for _, m := range cf.Methods {
		if m.Name == name && (desc == "" || m.Descriptor == desc) {
			return m
		}
	}
	return nil
}

// Field is a field_info.
type Field struct {
	Name       string `cbor:"1,keyasint"`
	Descriptor string `cbor:"2,keyasint"`
	Access     Access `cbor:"3,keyasint"`

	// Constant is the ConstantValue attribute, or nil.
	Constant *Value `cbor:"4,keyasint,omitempty"`
}

// Method is a method_info with its code as an instruction list.
type Method struct {
	Name       string `cbor:"1,keyasint"`
	Descriptor string `cbor:"2,keyasint"`
	Access     Access `cbor:"3,keyasint"`

	// MaxLocals counts local slots, including this and wide halves.
	MaxLocals int    `cbor:"4,keyasint,omitempty"`
	Code      []Insn `cbor:"5,keyasint,omitempty"`
}

// InnerClass is one entry of the InnerClasses attribute.
type InnerClass struct {
	Inner  string `cbor:"1,keyasint"`
	Outer  string `cbor:"2,keyasint"`
	Name   string `cbor:"3,keyasint"`
	Access Access `cbor:"4,keyasint"`
}

// ValueKind is the constant-pool kind of a Value.
type ValueKind uint8

const (
	ValueInt ValueKind = iota + 1
	ValueLong
	ValueFloat
	ValueDouble
	ValueString
	ValueClass
)

// Value is a loadable constant.
type Value struct {
	Kind  ValueKind `cbor:"1,keyasint"`
	Int   int64     `cbor:"2,keyasint,omitempty"`
	Float float64   `cbor:"3,keyasint,omitempty"`
	Str   string    `cbor:"4,keyasint,omitempty"`
}

// ConstantValue converts a compile-time constant to a field constant.
// Booleans and characters are stored as ints.
func ConstantValue(c *ir.Constant) *Value {
	if c == nil {
		return nil
	}
	switch v := c.Value.(type) {
	case bool:
		if v {
			return &Value{Kind: ValueInt, Int: 1}
		}
		return &Value{Kind: ValueInt}
	case rune:
		return &Value{Kind: ValueInt, Int: int64(v)}
	case string:
		return &Value{Kind: ValueString, Str: v}
	case int64:
		switch c.Type.Kind {
		case ir.TypeLong:
			return &Value{Kind: ValueLong, Int: v}
		case ir.TypeFloat:
			return &Value{Kind: ValueFloat, Float: float64(v)}
		case ir.TypeDouble:
			return &Value{Kind: ValueDouble, Float: float64(v)}
		}
		return &Value{Kind: ValueInt, Int: v}
	case float64:
		if c.Type.Kind == ir.TypeFloat {
			return &Value{Kind: ValueFloat, Float: v}
		}
		return &Value{Kind: ValueDouble, Float: v}
	}
	return nil
}

// Insn is one instruction. Only the operands of the opcode's form are set.
type Insn struct {
	Op Opcode `cbor:"1,keyasint"`

	// Var is the local slot of loads and stores, the operand of BIPUSH and
	// SIPUSH, or the array type code of NEWARRAY.
	Var int `cbor:"2,keyasint,omitempty"`

	// Owner, Name and Desc identify the member of field and method
	// instructions.
	Owner string `cbor:"3,keyasint,omitempty"`
	Name  string `cbor:"4,keyasint,omitempty"`
	Desc  string `cbor:"5,keyasint,omitempty"`

	// Type is the class operand of NEW, ANEWARRAY, CHECKCAST and INSTANCEOF.
	Type string `cbor:"6,keyasint,omitempty"`

	// Const is the operand of LDC and LDC2_W.
	Const *Value `cbor:"7,keyasint,omitempty"`

	// Label is the branch target, or the label an OpLabel defines.
	Label int `cbor:"8,keyasint,omitempty"`
}
