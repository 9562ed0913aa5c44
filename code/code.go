// Package code defines the target-agnostic statement and expression tree
// that lowering produces and emitters render.
//
// Symbolic references are already mapped to target names: a FieldRef or
// MethodRef carries the owner's target name, the member's mapped name and
// its erased descriptor. Emitters never consult the program model.
package code

import "github.com/broady/classgen/ir"

// Expr is a lowered expression.
type Expr interface {
	exprNode()
}

// Stmt is a lowered statement.
type Stmt interface {
	stmtNode()
}

// FieldRef identifies a field of a target type.
type FieldRef struct {
	Owner      string
	Name       string
	Type       *ir.Type
	Descriptor string
	Static     bool
}

// MethodRef identifies a method of a target type.
type MethodRef struct {
	Owner      string
	Name       string
	Params     []*ir.Type
	Return     *ir.Type
	Descriptor string
	Static     bool

	// Interface is set when Owner is an interface type.
	Interface bool
}

// CallKind selects the dispatch of a call.
type CallKind int

const (
	Virtual   CallKind = iota // Dynamic dispatch on the receiver
	Static                    // No receiver
	Special                   // Non-virtual call of a private member
	Super                     // Non-virtual call of the superclass implementation on this
	Interface                 // Dynamic dispatch through an interface type
)

// String returns the string representation of the call kind.
func (k CallKind) String() string {
	switch k {
	case Virtual:
		return "virtual"
	case Static:
		return "static"
	case Special:
		return "special"
	case Super:
		return "super"
	case Interface:
		return "interface"
	default:
		return "unknown"
	}
}

// This is the receiver of an instance method or constructor.
type This struct {
	Type *ir.Type
}

// Param reads a method parameter. Index counts declared parameters from
// zero, excluding the receiver.
type Param struct {
	Index int
	Name  string
	Type  *ir.Type
}

// Local reads a local variable introduced by Let.
type Local struct {
	Name string
	Type *ir.Type
}

// Const is a literal; Value follows ir.Const conventions.
type Const struct {
	Value any
	Type  *ir.Type
}

// GetField reads a field. Receiver is nil for static fields.
type GetField struct {
	Receiver Expr
	Field    FieldRef
}

// Call invokes a method. Receiver is nil for static and super calls.
type Call struct {
	Kind     CallKind
	Method   MethodRef
	Receiver Expr
	Args     []Expr
}

// New allocates an instance and runs a constructor.
type New struct {
	Class string
	Type  *ir.Type
	Ctor  MethodRef
	Args  []Expr
}

// InstanceOf tests whether X is an instance of Class.
type InstanceOf struct {
	X     Expr
	Class string
}

// Cast converts X to To: a checked reference cast, or boxing and unboxing
// between primitive and reference forms.
type Cast struct {
	X     Expr
	To    *ir.Type
	Class string
}

// Op is a binary operator of the lowered tree.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	And // Short-circuit conjunction
	Or  // Short-circuit disjunction
	Lt
	RefEq   // Reference identity
	ValueEq // Structural equality, null-safe for references
)

// String returns the operator's spelling in listings.
func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case And:
		return "&&"
	case Or:
		return "||"
	case Lt:
		return "<"
	case RefEq:
		return "==="
	case ValueEq:
		return "=="
	default:
		return "?"
	}
}

// Binary applies Op. Type is the operand type; comparisons and logical
// operators produce Boolean.
type Binary struct {
	Op          Op
	Left, Right Expr
	Type        *ir.Type
}

// Not negates a boolean.
type Not struct {
	X Expr
}

// Cond selects Then or Else.
type Cond struct {
	If         Expr
	Then, Else Expr
	Type       *ir.Type
}

// Concat concatenates the string forms of its parts.
type Concat struct {
	Parts []Expr
}

// Hash computes the hash code of X: 0 for null, the numeric identity of
// primitives, element-wise for arrays, and the value's own hash otherwise.
type Hash struct {
	X Expr
}

// ArrayToString renders an array element-wise, e.g. "[1, 2]".
type ArrayToString struct {
	X Expr
}

// ArrayEquals compares two arrays element-wise.
type ArrayEquals struct {
	Left, Right Expr
}

// NewArray builds an array from its elements.
type NewArray struct {
	Elem  *ir.Type
	Class string
	Elems []Expr
}

// ArrayClone returns a shallow copy of an array. Descriptor is the target
// spelling of the array type.
type ArrayClone struct {
	X          Expr
	Descriptor string
}

// EnumValueOf looks up the constant of enum Class named by Name.
type EnumValueOf struct {
	Class string
	Type  *ir.Type
	Name  Expr
}

// MaskBit tests bit Bit of an Int mask.
type MaskBit struct {
	Mask Expr
	Bit  int
}

func (*This) exprNode()          {}
func (*Param) exprNode()         {}
func (*Local) exprNode()         {}
func (*Const) exprNode()         {}
func (*GetField) exprNode()      {}
func (*Call) exprNode()          {}
func (*New) exprNode()           {}
func (*InstanceOf) exprNode()    {}
func (*Cast) exprNode()          {}
func (*Binary) exprNode()        {}
func (*Not) exprNode()           {}
func (*Cond) exprNode()          {}
func (*Concat) exprNode()        {}
func (*Hash) exprNode()          {}
func (*ArrayToString) exprNode() {}
func (*ArrayEquals) exprNode()   {}
func (*NewArray) exprNode()      {}
func (*ArrayClone) exprNode()    {}
func (*EnumValueOf) exprNode()   {}
func (*MaskBit) exprNode()       {}

// Eval evaluates X and discards the result.
type Eval struct {
	X Expr
}

// Return leaves the method. Value is nil in unit methods.
type Return struct {
	Value Expr
}

// SetField stores into a field. Receiver is nil for static fields.
type SetField struct {
	Receiver Expr
	Field    FieldRef
	Value    Expr
}

// SetParam overwrites a parameter; default-argument overloads use it to
// substitute defaults for omitted arguments.
type SetParam struct {
	Index int
	Name  string
	Type  *ir.Type
	Value Expr
}

// Let introduces a local variable.
type Let struct {
	Name  string
	Type  *ir.Type
	Value Expr
}

// If runs Then when Cond holds and Else otherwise.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// SuperInit runs a superclass constructor on this.
type SuperInit struct {
	Ctor MethodRef
	Args []Expr
}

// ThisInit runs another constructor of the same class on this.
type ThisInit struct {
	Ctor MethodRef
	Args []Expr
}

func (*Eval) stmtNode()      {}
func (*Return) stmtNode()    {}
func (*SetField) stmtNode()  {}
func (*SetParam) stmtNode()  {}
func (*Let) stmtNode()       {}
func (*If) stmtNode()        {}
func (*SuperInit) stmtNode() {}
func (*ThisInit) stmtNode()  {}

// TypeOf returns the static type of a lowered expression.
func TypeOf(e Expr) *ir.Type {
	switch x := e.(type) {
	case *This:
		return x.Type
	case *Param:
		return x.Type
	case *Local:
		return x.Type
	case *Const:
		return x.Type
	case *GetField:
		return x.Field.Type
	case *Call:
		return x.Method.Return
	case *New:
		return x.Type
	case *Cast:
		return x.To
	case *Binary:
		switch x.Op {
		case And, Or, Lt, RefEq, ValueEq:
			return ir.Boolean()
		}
		return x.Type
	case *Cond:
		return x.Type
	case *InstanceOf, *Not, *ArrayEquals, *MaskBit:
		return ir.Boolean()
	case *Concat, *ArrayToString:
		return ir.String()
	case *Hash:
		return ir.Int()
	case *NewArray:
		return ir.ArrayOf(x.Elem)
	case *ArrayClone:
		return TypeOf(x.X)
	case *EnumValueOf:
		return x.Type
	}
	return ir.Unit()
}
