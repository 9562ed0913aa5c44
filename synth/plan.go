// Package synth decides which members a class compiles to.
//
// Synthesize walks a resolved class and produces a Plan: the type and field
// definitions plus an ordered list of members, each pairing a target
// signature with the Strategy that produces its body. Synthesis never emits
// code; lowering consumes the plan.
package synth

import (
	"errors"
	"fmt"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

var (
	// ErrAmbiguousDelegation marks a fabricated override with more than one
	// interface default body to delegate to.
	ErrAmbiguousDelegation = errors.New("ambiguous interface delegation")

	// ErrUnsupported marks a source construct the backend cannot compile.
	ErrUnsupported = errors.New("unsupported construct")
)

// MemberError attaches a synthesis failure to a class member.
type MemberError struct {
	Class  string
	Member string

	// Reason describes the failure in source terms.
	Reason string

	// Candidates lists the conflicting declarations, if any.
	Candidates []string

	Err error
}

func (e *MemberError) Error() string {
	msg := fmt.Sprintf("%s: %s.%s", e.Err, e.Class, e.Member)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (candidates: %v)", e.Candidates)
	}
	return msg
}

func (e *MemberError) Unwrap() error { return e.Err }

// Plan is the synthesis result for one class.
type Plan struct {
	Class *ir.Class
	Type  target.TypeDef

	// TraitImpl defines the static type holding interface default bodies;
	// nil when the class has none.
	TraitImpl *target.TypeDef

	Fields     []Field
	Members    []Member
	Delegates  []*DelegateField
	StaticInit []StaticInit
	Nested     []Nesting
}

// Field is a field definition and the type that hosts it.
type Field struct {
	Owner string
	Def   target.FieldDef

	// Property is the property the field backs, if any.
	Property *ir.Property
}

// Member is one method to generate.
type Member struct {
	// Owner is the target type that receives the method.
	Owner     string
	Signature naming.Signature
	Modifiers target.Modifiers
	Kind      target.MethodKind

	// Property names the property of accessor methods.
	Property string

	Strategy Strategy

	// Step is the synthesis step that produced the member.
	Step Step
}

// Def returns the emitter definition of the member.
func (m Member) Def() target.MethodDef {
	def := target.MethodFor(m.Signature, m.Modifiers, m.Kind)
	def.Property = m.Property
	return def
}

// Step identifies a synthesis step.
type Step int

const (
	StepDeclared Step = iota
	StepSingleton
	StepDataComponents
	StepDataObjectMethods
	StepDelegation
	StepAccessors
	StepEnum
)

// String returns the string representation of the step.
func (s Step) String() string {
	switch s {
	case StepDeclared:
		return "declared"
	case StepSingleton:
		return "singleton"
	case StepDataComponents:
		return "data-components"
	case StepDataObjectMethods:
		return "data-object-methods"
	case StepDelegation:
		return "delegation"
	case StepAccessors:
		return "accessors"
	case StepEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// DelegateField is the field backing one by-expression specifier.
type DelegateField struct {
	// Ordinal counts by-expression specifiers in declaration order.
	Ordinal int

	Spec      *ir.ByExpression
	Interface *ir.Class
	Field     code.FieldRef

	// Reused is the constructor property whose field holds the delegate;
	// nil when a fresh field stores the evaluated expression.
	Reused *ir.Property
}

// Nesting is a nested type relationship.
type Nesting struct {
	Inner, Outer string
	Modifiers    target.Modifiers
}

// Strategy describes how a member's body is produced.
type Strategy interface {
	strategy()
}

// Verbatim lowers a source body: a function, or a property accessor
// (default accessors read or write the backing field).
type Verbatim struct {
	Function *ir.Function
	Accessor *ir.Accessor

	// TraitBody marks an interface default body compiled as a static
	// method whose first parameter is the implementing instance.
	TraitBody bool
}

// Abstract produces no body.
type Abstract struct{}

// Delegate forwards to another implementation: the static default body of
// an interface member, or the same member on a delegate field.
type Delegate struct {
	Target code.MethodRef
	Kind   code.CallKind

	// Field is the delegate field for by-expression delegation; nil for
	// interface default bodies.
	Field *DelegateField
}

// DataKind selects a derived data method.
type DataKind int

const (
	DataComponent DataKind = iota
	DataCopy
	DataToString
	DataHashCode
	DataEquals
)

// String returns the string representation of the data method kind.
func (k DataKind) String() string {
	switch k {
	case DataComponent:
		return "componentN"
	case DataCopy:
		return "copy"
	case DataToString:
		return "toString"
	case DataHashCode:
		return "hashCode"
	case DataEquals:
		return "equals"
	default:
		return "unknown"
	}
}

// DataMethod derives a structural method from the data properties.
type DataMethod struct {
	Kind DataKind

	// Index is the zero-based property index of a component method.
	Index int

	Properties []*ir.Property

	// Function is the synthesized source-level function for copy.
	Function *ir.Function
}

// SyntheticAccessor exposes a private member to nested declarations.
type SyntheticAccessor struct {
	Request ir.AccessRequest
}

// ConstructorChain lowers a constructor. Constructor is nil for the
// implicit constructor of a class that declares none.
type ConstructorChain struct {
	Constructor *ir.Constructor
}

// DefaultOverload substitutes default arguments for the parameters whose
// mask bit is set, then calls the canonical member.
type DefaultOverload struct {
	Function    *ir.Function
	Constructor *ir.Constructor

	// Canonical is the all-parameters member the overload calls.
	Canonical code.MethodRef
}

// Bridge converts arguments to the erased types of Target and calls it.
type Bridge struct {
	Target code.MethodRef
}

// EnumValues returns a copy of the constant table.
type EnumValues struct{}

// EnumValueOf looks up a constant by name.
type EnumValueOf struct{}

func (*Verbatim) strategy()          {}
func (*Abstract) strategy()          {}
func (*Delegate) strategy()          {}
func (*DataMethod) strategy()        {}
func (*SyntheticAccessor) strategy() {}
func (*ConstructorChain) strategy()  {}
func (*DefaultOverload) strategy()   {}
func (*Bridge) strategy()            {}
func (*EnumValues) strategy()        {}
func (*EnumValueOf) strategy()       {}

// StaticInit is a contribution to a type's static initializer.
type StaticInit interface {
	// InitOwner returns the type whose static initializer receives the step.
	InitOwner() string

	staticInit()
}

// SingletonInit constructs singleton Class once and stores it in Field.
type SingletonInit struct {
	Owner string
	Class *ir.Class
	Field code.FieldRef
	Ctor  code.MethodRef
}

// EnumConstants constructs every constant of Class and fills its table.
type EnumConstants struct {
	Owner string
	Class *ir.Class
}

// CompanionInit runs the property initializers of a class object whose
// backing fields the outer class hosts.
type CompanionInit struct {
	Owner     string
	Companion *ir.Class
}

func (s *SingletonInit) InitOwner() string { return s.Owner }
func (s *EnumConstants) InitOwner() string { return s.Owner }
func (s *CompanionInit) InitOwner() string { return s.Owner }

func (*SingletonInit) staticInit() {}
func (*EnumConstants) staticInit() {}
func (*CompanionInit) staticInit() {}
