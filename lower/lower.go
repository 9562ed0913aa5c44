// Package lower turns planned members into code trees.
//
// A Lowerer is bound to one Layout and therefore to one target's naming.
// Member bodies, constructor chains and static initializer steps are
// lowered independently; the caller decides where each tree is emitted.
package lower

import (
	"fmt"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/synth"
)

// Lowerer lowers the members of synthesis plans.
type Lowerer struct {
	l *synth.Layout
	m *naming.Mapper
	o ir.Oracle
}

// New returns a lowerer using layout l.
func New(l *synth.Layout) *Lowerer {
	return &Lowerer{l: l, m: l.Mapper(), o: l.Oracle()}
}

// Lowered is a lowered method body.
type Lowered struct {
	Body []code.Stmt

	// Trace lists the constructor lowering steps in emission order; empty
	// for other members.
	Trace []Step
}

// Member lowers the body of member m of plan. Abstract members lower to a
// nil body.
func (lw *Lowerer) Member(plan *synth.Plan, m synth.Member) (*Lowered, error) {
	var (
		body []code.Stmt
		err  error
	)
	switch s := m.Strategy.(type) {
	case *synth.Abstract:
		return &Lowered{}, nil
	case *synth.ConstructorChain:
		return lw.Constructor(plan, s.Constructor)
	case *synth.Verbatim:
		body, err = lw.verbatim(plan.Class, m, s)
	case *synth.Delegate:
		body, err = lw.delegate(plan.Class, m, s)
	case *synth.Bridge:
		body = lw.bridge(plan.Class, m, s)
	case *synth.DataMethod:
		body, err = lw.dataMethod(plan.Class, m, s)
	case *synth.SyntheticAccessor:
		body, err = lw.accessor(plan.Class, m, s)
	case *synth.DefaultOverload:
		body, err = lw.defaultOverload(plan.Class, m, s)
	case *synth.EnumValues:
		values := lw.l.ValuesField(plan.Class)
		body = []code.Stmt{&code.Return{Value: &code.ArrayClone{X: &code.GetField{Field: values}, Descriptor: values.Descriptor}}}
	case *synth.EnumValueOf:
		c := plan.Class
		body = []code.Stmt{&code.Return{Value: &code.EnumValueOf{
			Class: lw.m.ClassName(c),
			Type:  c.DefaultType(),
			Name:  param(m.Signature, 0),
		}}}
	default:
		return nil, fmt.Errorf("lower %s.%s: unknown strategy %T", plan.Class.Name, m.Signature.Name, m.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("lower %s.%s: %w", plan.Class.Name, m.Signature.Name, err)
	}
	return &Lowered{Body: body}, nil
}

// param reads parameter i of sig.
func param(sig naming.Signature, i int) *code.Param {
	p := sig.Params[i]
	return &code.Param{Index: i, Name: p.Name, Type: p.Type}
}

// params reads parameters [from, len) of sig.
func params(sig naming.Signature, from int) []code.Expr {
	var out []code.Expr
	for i := from; i < len(sig.Params); i++ {
		out = append(out, param(sig, i))
	}
	return out
}

// returning wraps a call result in the statements ending a method of
// return type ret.
func returning(x code.Expr, ret *ir.Type) []code.Stmt {
	if ret.IsUnit() {
		return []code.Stmt{&code.Eval{X: x}, &code.Return{}}
	}
	return []code.Stmt{&code.Return{Value: x}}
}

// convert casts x to t when its static type differs.
func (lw *Lowerer) convert(x code.Expr, t *ir.Type) code.Expr {
	from := code.TypeOf(x)
	if from.Equal(t) || lw.m.Descriptor(from) == lw.m.Descriptor(t) && from.IsPrimitive() == t.IsPrimitive() {
		return x
	}
	if !from.IsPrimitive() && isTop(t) {
		return x
	}
	return &code.Cast{X: x, To: t, Class: lw.castClass(t)}
}

// isTop reports whether every reference value conforms to t.
func isTop(t *ir.Type) bool {
	return t.Kind == ir.TypeParameter || t.Kind == ir.TypeClass && t.Class == ir.AnyName
}

func (lw *Lowerer) castClass(t *ir.Type) string {
	switch {
	case t.Kind == ir.TypeClass:
		if c, ok := lw.o.Class(t.Class); ok {
			return lw.m.ClassName(c)
		}
		return lw.m.ClassRef(t.Class)
	case t.Kind == ir.TypeParameter:
		return lw.m.ClassRef(ir.AnyName)
	case t.IsArray():
		return lw.m.Descriptor(t)
	}
	return ""
}

// zero returns the natural default value of t.
func zero(t *ir.Type) *code.Const {
	if !t.IsPrimitive() {
		return &code.Const{Value: nil, Type: t}
	}
	switch t.Kind {
	case ir.TypeBoolean:
		return &code.Const{Value: false, Type: t}
	case ir.TypeChar:
		return &code.Const{Value: rune(0), Type: t}
	case ir.TypeFloat, ir.TypeDouble:
		return &code.Const{Value: float64(0), Type: t}
	}
	return &code.Const{Value: int64(0), Type: t}
}

func intConst(v int) *code.Const {
	return &code.Const{Value: int64(v), Type: ir.Int()}
}

func stringConst(s string) *code.Const {
	return &code.Const{Value: s, Type: ir.String()}
}
