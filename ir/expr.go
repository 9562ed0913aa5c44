package ir

import "math"

// Expr is a resolved source expression. Types, call targets and constant
// values of expressions are answered by the Oracle.
type Expr interface {
	exprNode()
}

// Const is a literal. Value holds int64 for integral kinds, float64 for
// floating kinds, bool, rune for chars, string, or nil for null.
type Const struct {
	Value any
	Type  *Type
}

// ParamRef reads a value parameter of the enclosing function or constructor.
type ParamRef struct {
	Param *ValueParameter
}

// PropertyRef reads a property. A nil Receiver means the implicit this.
type PropertyRef struct {
	Receiver Expr
	Property *Property
}

// Call is a call site of a function or constructor. Its target and
// argument mapping come from Oracle.ResolvedCall.
type Call struct {
	Callee   string
	Receiver Expr
	Args     []Expr
	Source   Source
}

// This is the implicit or qualified receiver. A nil Class means the
// innermost enclosing class.
type This struct {
	Class *Class
}

// CapturedRef reads a captured local variable.
type CapturedRef struct {
	Name string
}

// ObjectRef reads the singleton instance of an object.
type ObjectRef struct {
	Class *Class
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpEq
	OpNotEq
	OpLess
	OpAnd
	OpOr
)

// String returns the operator's source spelling.
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLess:
		return "<"
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// Binary applies an operator to two operands.
type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

// Template is a string template; parts are concatenated as strings.
type Template struct {
	Parts []Expr
}

func (*Const) exprNode()       {}
func (*ParamRef) exprNode()    {}
func (*PropertyRef) exprNode() {}
func (*Call) exprNode()        {}
func (*This) exprNode()        {}
func (*CapturedRef) exprNode() {}
func (*ObjectRef) exprNode()   {}
func (*Binary) exprNode()      {}
func (*Template) exprNode()    {}

// Stmt is a statement of a function, accessor or initializer body.
type Stmt interface {
	stmtNode()
}

// Return returns from the enclosing body. Value is nil for unit returns.
type Return struct {
	Value Expr
}

// Eval evaluates an expression for its effects.
type Eval struct {
	X Expr
}

// Assign stores into a property. A nil Receiver means the implicit this.
type Assign struct {
	Receiver Expr
	Property *Property
	Value    Expr
}

func (*Return) stmtNode() {}
func (*Eval) stmtNode()   {}
func (*Assign) stmtNode() {}

// Constant is a compile-time constant value with its type.
type Constant struct {
	Value any
	Type  *Type
}

// IsZero reports whether the constant equals the natural default value of
// a field of type t: numeric zero of any width, false, the zero char, or
// null for reference types.
func (c Constant) IsZero(t *Type) bool {
	if t.IsPrimitive() {
		switch v := c.Value.(type) {
		case int64:
			return v == 0 && t.IsNumeric()
		case int:
			return v == 0 && t.IsNumeric()
		case float64:
			return v == 0 && !math.Signbit(v) && t.IsNumeric()
		case bool:
			return !v && t.Kind == TypeBoolean
		case rune:
			return v == 0 && t.Kind == TypeChar
		}
		return false
	}
	return c.Value == nil
}
