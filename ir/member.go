package ir

// Declaration is an entry of a class body in source order: a member or
// an initializer block.
type Declaration interface {
	declaration()
}

// MemberKind distinguishes declared members from members the front-end
// fabricates in a class's member scope.
type MemberKind int

const (
	KindDeclaration  MemberKind = iota // Declared in the class body
	KindFakeOverride                   // Inherited without a body in this class
	KindDelegation                     // Implemented by a by-expression delegate
	KindSynthesized                    // Created by the compiler (data methods, enum helpers)
)

// String returns the string representation of the member kind.
func (k MemberKind) String() string {
	switch k {
	case KindDeclaration:
		return "Declaration"
	case KindFakeOverride:
		return "FakeOverride"
	case KindDelegation:
		return "Delegation"
	case KindSynthesized:
		return "Synthesized"
	default:
		return "Unknown"
	}
}

// IsReal reports whether the member exists in source rather than by inheritance.
func (k MemberKind) IsReal() bool {
	return k == KindDeclaration || k == KindSynthesized
}

// Member is a callable member: a function or a property.
type Member interface {
	Declaration

	// Base returns the attributes shared by all members.
	Base() *Callable

	sealed()
}

// Callable holds the attributes shared by functions and properties.
type Callable struct {
	Name       string
	Owner      *Class
	Visibility Visibility
	Modality   Modality
	Kind       MemberKind

	// Overridden is the directly overridden member set.
	Overridden []Member

	Source Source
}

// Base returns c.
func (c *Callable) Base() *Callable { return c }

// IsAbstract reports whether the member has no body.
func (c *Callable) IsAbstract() bool { return c.Modality == Abstract }

// Function is a member function.
type Function struct {
	Callable

	TypeParameters []TypeParam
	Params         []*ValueParameter
	Return         *Type

	// Body is the lowered-from-source body; nil for abstract functions.
	Body []Stmt
}

// HasDefaults reports whether any parameter declares a default value.
func (f *Function) HasDefaults() bool { return hasDefaults(f.Params) }

// ParamTypes returns the parameter types in order.
func (f *Function) ParamTypes() []*Type {
	types := make([]*Type, len(f.Params))
	for i, p := range f.Params {
		types[i] = p.Type
	}
	return types
}

// Property is a member property with optional accessors and backing field.
type Property struct {
	Callable

	Type *Type
	Var  bool

	// Initializer is the initializer expression, or nil.
	Initializer Expr

	// Getter and Setter describe the accessors. A nil Setter on a var
	// property means a default setter.
	Getter *Accessor
	Setter *Accessor

	// BackingField is set when the property stores its value in a field.
	BackingField bool

	// Param is the declaring constructor parameter, if any.
	Param *ValueParameter
}

// GetterAccessor returns the getter, creating the default one on demand.
func (p *Property) GetterAccessor() *Accessor {
	if p.Getter == nil {
		p.Getter = &Accessor{Property: p, Visibility: p.Visibility}
	}
	return p.Getter
}

// SetterAccessor returns the setter for var properties, or nil.
func (p *Property) SetterAccessor() *Accessor {
	if !p.Var {
		return nil
	}
	if p.Setter == nil {
		p.Setter = &Accessor{Property: p, Setter: true, Visibility: p.Visibility}
	}
	return p.Setter
}

// HasCustomSetter reports whether the property declares a setter body.
func (p *Property) HasCustomSetter() bool {
	return p.Setter != nil && !p.Setter.IsDefault()
}

// Accessor is a property getter or setter.
type Accessor struct {
	Property   *Property
	Setter     bool
	Visibility Visibility

	// Body is the custom accessor body; nil means the default accessor.
	Body []Stmt

	// Param is the value parameter of a custom setter body.
	Param *ValueParameter
}

// IsDefault reports whether the accessor reads or writes the backing field directly.
func (a *Accessor) IsDefault() bool { return a.Body == nil }

// Initializer is an anonymous initializer block.
type Initializer struct {
	Body []Stmt
}

func (*Function) declaration()    {}
func (*Property) declaration()    {}
func (*Initializer) declaration() {}

func (*Function) sealed() {}
func (*Property) sealed() {}

// MemberName returns the name of m.
func MemberName(m Member) string { return m.Base().Name }

// QualifiedName returns "Owner.name" for diagnostics.
func QualifiedName(m Member) string {
	b := m.Base()
	if b.Owner == nil {
		return b.Name
	}
	return b.Owner.Name + "." + b.Name
}
