package ir

import "strings"

// ClassKind identifies the category of a class declaration.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindEnum
	KindAnnotation
	KindObject    // Named singleton
	KindCompanion // Class object nested in a class or interface
	KindEnumEntry // Enum constant with its own body
)

// String returns the string representation of the class kind.
func (k ClassKind) String() string {
	switch k {
	case KindClass:
		return "Class"
	case KindInterface:
		return "Interface"
	case KindEnum:
		return "Enum"
	case KindAnnotation:
		return "Annotation"
	case KindObject:
		return "Object"
	case KindCompanion:
		return "Companion"
	case KindEnumEntry:
		return "EnumEntry"
	default:
		return "Unknown"
	}
}

// IsSingleton reports whether declarations of this kind have exactly one instance.
func (k ClassKind) IsSingleton() bool {
	return k == KindObject || k == KindCompanion
}

// Modality is the inheritance openness of a class or member.
type Modality int

const (
	Final Modality = iota
	Open
	Abstract
)

// String returns the string representation of the modality.
func (m Modality) String() string {
	switch m {
	case Final:
		return "final"
	case Open:
		return "open"
	case Abstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// Overridable reports whether members of this modality may be overridden.
func (m Modality) Overridable() bool { return m != Final }

// Visibility is the declared visibility of a declaration.
// Values are ordered so that a larger value is more visible.
type Visibility int

const (
	Private Visibility = iota
	Protected
	Internal
	Public
)

// String returns the string representation of the visibility.
func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Protected:
		return "protected"
	case Internal:
		return "internal"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// Class is a resolved class, interface, enum, annotation, object or enum entry.
// Classes are owned by a Program and must not be mutated after Link.
type Class struct {
	// Name is the fully-qualified name, with '.' between package segments
	// and between nesting levels ("demo.Outer.Inner").
	Name string

	// Package is the package part of Name.
	Package string

	Kind       ClassKind
	Modality   Modality
	Visibility Visibility

	// Data marks a data-like aggregate whose primary constructor properties
	// drive derived structural methods.
	Data bool

	// Inner marks a nested class that captures its outer instance.
	Inner bool

	TypeParameters []TypeParam

	// Supertypes lists the class supertype (if any) followed by interfaces.
	Supertypes []*Type

	// Delegations are the delegation specifiers in source order.
	Delegations []DelegationSpecifier

	// Constructors are the declared constructors. The first is primary.
	Constructors []*Constructor

	// Declarations are the declared members and initializer blocks in
	// source order.
	Declarations []Declaration

	// Members is the full member scope: declared members, fabricated
	// overrides and delegated members. Filled by Program.Link.
	Members []Member

	// Outer is the containing class, or nil for top-level classes.
	Outer *Class

	// Companion is the class object, if any.
	Companion *Class

	// Nested are nested and inner classes, excluding the companion and
	// enum entry bodies.
	Nested []*Class

	// Entries are the enum constants, for enum classes.
	Entries []*EnumEntry

	Source Source
}

// DefaultType returns the class type with its own type parameters as arguments.
func (c *Class) DefaultType() *Type {
	args := make([]*Type, len(c.TypeParameters))
	for i, tp := range c.TypeParameters {
		args[i] = ParamType(tp.Name)
	}
	return ClassType(c.Name, args...)
}

// SimpleName returns the last segment of the class name.
func (c *Class) SimpleName() string {
	return shortName(c.Name)
}

// RelativeName returns the name relative to the package ("Outer.Inner").
func (c *Class) RelativeName() string {
	if c.Package == "" {
		return c.Name
	}
	return strings.TrimPrefix(c.Name, c.Package+".")
}

// IsInterface reports whether c is an interface or annotation.
func (c *Class) IsInterface() bool {
	return c.Kind == KindInterface || c.Kind == KindAnnotation
}

// PrimaryConstructor returns the primary constructor or nil.
func (c *Class) PrimaryConstructor() *Constructor {
	if len(c.Constructors) == 0 || !c.Constructors[0].Primary {
		return nil
	}
	return c.Constructors[0]
}

// Properties returns the declared properties in source order.
func (c *Class) Properties() []*Property {
	var props []*Property
	for _, d := range c.Declarations {
		if p, ok := d.(*Property); ok {
			props = append(props, p)
		}
	}
	return props
}

// Functions returns the declared functions in source order.
func (c *Class) Functions() []*Function {
	var fns []*Function
	for _, d := range c.Declarations {
		if f, ok := d.(*Function); ok {
			fns = append(fns, f)
		}
	}
	return fns
}

// DataProperties returns the primary constructor parameters declared as
// properties, in declaration order.
func (c *Class) DataProperties() []*Property {
	ctor := c.PrimaryConstructor()
	if ctor == nil {
		return nil
	}
	var props []*Property
	for _, p := range ctor.Params {
		if p.Property != nil {
			props = append(props, p.Property)
		}
	}
	return props
}

// BackingFieldsInOuter reports whether the backing fields of a class object
// are hosted as static fields of its containing class.
func (c *Class) BackingFieldsInOuter() bool {
	return c.Kind == KindCompanion && c.Outer != nil && !c.Outer.IsInterface()
}

// EnumEntry is one constant of an enum class.
type EnumEntry struct {
	Name    string
	Ordinal int

	// Body is the anonymous subclass for entries that declare members;
	// nil for plain constants.
	Body *Class

	// Delegations are the entry's delegation specifiers. At most one
	// (a super call with arguments) is supported.
	Delegations []DelegationSpecifier
}

// Constructor is a declared constructor.
type Constructor struct {
	Owner      *Class
	Visibility Visibility
	Primary    bool
	Params     []*ValueParameter
}

// HasDefaults reports whether any parameter declares a default value.
func (c *Constructor) HasDefaults() bool {
	return hasDefaults(c.Params)
}

// ValueParameter is a formal parameter of a function or constructor.
type ValueParameter struct {
	Name  string
	Type  *Type
	Index int

	// Default is the default argument expression, or nil.
	Default Expr

	// Property is set when a constructor parameter also declares a property.
	Property *Property
}

func hasDefaults(params []*ValueParameter) bool {
	for _, p := range params {
		if p.Default != nil {
			return true
		}
	}
	return false
}

// DelegationSpecifier establishes how a supertype is satisfied.
type DelegationSpecifier interface {
	// Supertype returns the delegated supertype.
	Supertype() *Type

	sealed()
}

// SuperClass delegates to a superclass without explicit arguments.
type SuperClass struct {
	Type *Type
}

// SuperCall delegates to a superclass constructor with resolved arguments.
type SuperCall struct {
	Type *Type
	Call *Call
}

// ByExpression implements an interface by delegating to a held value.
type ByExpression struct {
	Type *Type
	Expr Expr
}

func (d *SuperClass) Supertype() *Type   { return d.Type }
func (d *SuperCall) Supertype() *Type    { return d.Type }
func (d *ByExpression) Supertype() *Type { return d.Type }

func (*SuperClass) sealed()   {}
func (*SuperCall) sealed()    {}
func (*ByExpression) sealed() {}

// Closure records the outer-scope bindings a declaration captures.
// A Closure is computed once per declaration and is immutable.
type Closure struct {
	// OuterThis is the captured outer instance's class, or nil.
	OuterThis *Class

	// Receiver is the captured extension receiver type, or nil.
	Receiver *Type

	// Captured are captured local variables in generation order.
	Captured []CapturedVar

	// PrivateAccess lists private members of the declaration that nested
	// declarations access and that therefore need synthetic accessors.
	PrivateAccess []AccessRequest
}

// IsEmpty reports whether the closure captures nothing.
func (c *Closure) IsEmpty() bool {
	return c == nil || (c.OuterThis == nil && c.Receiver == nil && len(c.Captured) == 0)
}

// CapturedVar is a captured local variable.
type CapturedVar struct {
	Name string
	Type *Type
}

// AccessKind selects which part of a member an accessor exposes.
type AccessKind int

const (
	AccessCall AccessKind = iota
	AccessGet
	AccessSet
)

// AccessRequest is a private member access from a nested declaration.
type AccessRequest struct {
	Member Member
	Kind   AccessKind
}
