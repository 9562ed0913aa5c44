package lower

import (
	"fmt"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/synth"
)

// StaticInit lowers one static initializer step.
func (lw *Lowerer) StaticInit(s synth.StaticInit) ([]code.Stmt, error) {
	switch x := s.(type) {
	case *synth.SingletonInit:
		return []code.Stmt{&code.SetField{Field: x.Field, Value: &code.New{
			Class: lw.m.ClassName(x.Class),
			Type:  x.Class.DefaultType(),
			Ctor:  x.Ctor,
		}}}, nil
	case *synth.EnumConstants:
		return lw.enumConstants(x.Class)
	case *synth.CompanionInit:
		return lw.companionInit(x.Companion)
	}
	return nil, fmt.Errorf("lower: unknown static init %T", s)
}

func (lw *Lowerer) enumConstants(c *ir.Class) ([]code.Stmt, error) {
	f := &frame{lw: lw, class: c, params: make(map[*ir.ValueParameter]code.Expr)}
	name := lw.m.ClassName(c)
	var (
		out   []code.Stmt
		elems []code.Expr
	)
	for _, e := range c.Entries {
		lead := []code.Expr{stringConst(e.Name), intConst(e.Ordinal)}
		var value *code.New
		if e.Body != nil {
			ctor := e.Body.PrimaryConstructor()
			value = &code.New{
				Class: lw.m.ClassName(e.Body),
				Type:  c.DefaultType(),
				Ctor:  lw.l.ConstructorRef(e.Body, ctor, false),
				Args:  lead,
			}
		} else {
			ctor := c.PrimaryConstructor()
			var resolved []ir.Expr
			if len(e.Delegations) > 0 {
				if sc, ok := e.Delegations[0].(*ir.SuperCall); ok {
					r, err := ir.ResolvedCallOrErr(lw.o, sc.Call)
					if err != nil {
						return nil, err
					}
					resolved = r.Args
				}
			}
			args := lead
			mask := 0
			if ctor != nil {
				vals, m, err := f.args(ctor.Params, resolved)
				if err != nil {
					return nil, fmt.Errorf("enum constant %s: %w", e.Name, err)
				}
				args, mask = append(args, vals...), m
			}
			if mask != 0 {
				args = append(args, intConst(mask))
			}
			value = &code.New{
				Class: name,
				Type:  c.DefaultType(),
				Ctor:  lw.l.ConstructorRef(c, ctor, mask != 0),
				Args:  args,
			}
		}
		field := lw.l.EntryField(c, e)
		out = append(out, &code.SetField{Field: field, Value: value})
		elems = append(elems, &code.GetField{Field: field})
	}
	out = append(out, &code.SetField{
		Field: lw.l.ValuesField(c),
		Value: &code.NewArray{Elem: c.DefaultType(), Class: name, Elems: elems},
	})
	return out, nil
}

// companionInit runs the initializers of a class object whose backing
// fields are static fields of the outer class. Constant fields carry their
// value in the field definition and are not stored again.
func (lw *Lowerer) companionInit(comp *ir.Class) ([]code.Stmt, error) {
	f := &frame{
		lw:     lw,
		class:  comp,
		this:   &code.GetField{Field: lw.l.InstanceField(comp)},
		params: make(map[*ir.ValueParameter]code.Expr),
	}
	var out []code.Stmt
	for _, d := range comp.Declarations {
		switch x := d.(type) {
		case *ir.Property:
			if x.Initializer == nil || !x.BackingField || SkipsInitializer(lw.o, x) || lw.l.ConstantField(x) != nil {
				continue
			}
			v, err := f.expr(x.Initializer)
			if err != nil {
				return nil, err
			}
			out = append(out, fieldStore(nil, lw.l.PropertyField(x), lw.convert(v, x.Type)))
		case *ir.Initializer:
			stmts, err := f.stmts(x.Body, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
	}
	return out, nil
}

// StaticInitBuilder collects static initializer statements per owning
// type. Several classes may contribute to one owner; contributions keep
// their arrival order.
type StaticInitBuilder struct {
	owners []string
	bodies map[string][]code.Stmt
}

// NewStaticInitBuilder returns an empty builder.
func NewStaticInitBuilder() *StaticInitBuilder {
	return &StaticInitBuilder{bodies: make(map[string][]code.Stmt)}
}

// Add appends stmts to the static initializer of owner.
func (b *StaticInitBuilder) Add(owner string, stmts ...code.Stmt) {
	if _, ok := b.bodies[owner]; !ok {
		b.owners = append(b.owners, owner)
		b.bodies[owner] = nil
	}
	b.bodies[owner] = append(b.bodies[owner], stmts...)
}

// Owners returns the owners in first-contribution order.
func (b *StaticInitBuilder) Owners() []string { return b.owners }

// Body returns the complete initializer of owner, ending in a return.
func (b *StaticInitBuilder) Body(owner string) []code.Stmt {
	body := append([]code.Stmt(nil), b.bodies[owner]...)
	return append(body, &code.Return{})
}
