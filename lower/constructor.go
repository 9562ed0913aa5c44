package lower

import (
	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/synth"
)

// State is a constructor lowering state. States are visited in declaration
// order and never revisited.
type State int

const (
	SuperCall State = iota
	ClosureFieldInit
	ExpressionDelegateFields
	ConstructorParameterPropertyAssign
	UserInitializers
	Return
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case SuperCall:
		return "SUPER_CALL"
	case ClosureFieldInit:
		return "CLOSURE_FIELD_INIT"
	case ExpressionDelegateFields:
		return "EXPRESSION_DELEGATE_FIELDS"
	case ConstructorParameterPropertyAssign:
		return "CONSTRUCTOR_PARAMETER_PROPERTY_ASSIGN"
	case UserInitializers:
		return "USER_INITIALIZERS"
	case Return:
		return "RETURN"
	default:
		return "UNKNOWN"
	}
}

// Step is one emitted action of constructor lowering.
type Step struct {
	State State

	// Detail names what the step initializes: the super constructor owner,
	// a field name, or "init" for initializer blocks.
	Detail string
}

func (s Step) String() string {
	if s.Detail == "" {
		return s.State.String()
	}
	return s.State.String() + " " + s.Detail
}

type ctorBuilder struct {
	*frame
	plan  *synth.Plan
	ctor  *ir.Constructor
	body  []code.Stmt
	trace []Step
	state State
}

func (b *ctorBuilder) emit(state State, detail string, stmts ...code.Stmt) {
	if state < b.state {
		panic("lower: constructor state " + state.String() + " after " + b.state.String())
	}
	b.state = state
	b.body = append(b.body, stmts...)
	b.trace = append(b.trace, Step{State: state, Detail: detail})
}

// Constructor lowers ctor of plan's class. ctor is nil for the implicit
// constructor of a class that declares none.
func (lw *Lowerer) Constructor(plan *synth.Plan, ctor *ir.Constructor) (*Lowered, error) {
	c := plan.Class
	b := &ctorBuilder{frame: lw.instanceFrame(c), plan: plan, ctor: ctor}
	layout := lw.l.ConstructorParams(c, ctor)
	for i, p := range layout {
		pe := &code.Param{Index: i, Name: p.Name, Type: p.Type}
		switch p.Role {
		case synth.RoleValue:
			b.params[p.Value] = pe
		case synth.RoleOuter:
			b.outer = pe
		}
	}

	if err := b.superCall(layout); err != nil {
		return nil, err
	}
	b.closureFields(layout)
	if err := b.delegateFields(); err != nil {
		return nil, err
	}
	b.propertyAssigns()
	if err := b.userInitializers(); err != nil {
		return nil, err
	}
	b.emit(Return, "", &code.Return{})
	return &Lowered{Body: b.body, Trace: b.trace}, nil
}

func paramOf(layout []synth.CtorParam, role synth.ParamRole) *code.Param {
	for i, p := range layout {
		if p.Role == role {
			return &code.Param{Index: i, Name: p.Name, Type: p.Type}
		}
	}
	return nil
}

// enumEntry returns the entry whose body is c.
func enumEntry(c *ir.Class) *ir.EnumEntry {
	if c.Outer == nil {
		return nil
	}
	for _, e := range c.Outer.Entries {
		if e.Body == c {
			return e
		}
	}
	return nil
}

func (b *ctorBuilder) superCall(layout []synth.CtorParam) error {
	c := b.class
	lw := b.lw
	switch c.Kind {
	case ir.KindEnum:
		sig := lw.m.Method(naming.ConstructorName, []naming.Param{
			{Name: naming.EnumNameParam, Type: ir.String()},
			{Name: naming.EnumOrdinalParam, Type: ir.Int()},
		}, ir.Unit(), false)
		owner := lw.m.ClassRef(ir.EnumName)
		ref := code.MethodRef{Owner: owner, Name: sig.Name, Params: sig.ParamTypes(), Return: sig.Return, Descriptor: sig.Descriptor}
		b.emit(SuperCall, owner, &code.SuperInit{Ctor: ref, Args: []code.Expr{
			paramOf(layout, synth.RoleEnumName), paramOf(layout, synth.RoleEnumOrdinal),
		}})
		return nil
	case ir.KindEnumEntry:
		enum := c.Outer
		ctor := enum.PrimaryConstructor()
		lead := []code.Expr{paramOf(layout, synth.RoleEnumName), paramOf(layout, synth.RoleEnumOrdinal)}
		var resolved []ir.Expr
		if e := enumEntry(c); e != nil && len(e.Delegations) > 0 {
			if sc, ok := e.Delegations[0].(*ir.SuperCall); ok {
				r, err := ir.ResolvedCallOrErr(lw.o, sc.Call)
				if err != nil {
					return err
				}
				ctor, resolved = r.Constructor, r.Args
			}
		}
		return b.superInit(enum, ctor, lead, resolved, true)
	}

	for _, d := range c.Delegations {
		if sc, ok := d.(*ir.SuperCall); ok {
			r, err := ir.ResolvedCallOrErr(lw.o, sc.Call)
			if err != nil {
				return err
			}
			if r.Constructor == nil {
				return b.unresolved("super constructor", sc.Call.Callee)
			}
			return b.superInit(r.Constructor.Owner, r.Constructor, nil, r.Args, false)
		}
	}
	if st := ir.SuperClassOf(lw.o, c); st != nil {
		sc, ok := lw.o.Class(st.Class)
		if !ok {
			return b.unresolved("class", st.Class)
		}
		ctor := sc.PrimaryConstructor()
		var resolved []ir.Expr
		if ctor != nil {
			// No explicit arguments: every parameter takes its default.
			resolved = make([]ir.Expr, len(ctor.Params))
			for _, vp := range ctor.Params {
				if vp.Default == nil {
					return &synth.MemberError{
						Class:  c.Name,
						Member: naming.ConstructorName,
						Reason: "superclass " + sc.Name + " has no no-argument constructor",
						Err:    synth.ErrUnsupported,
					}
				}
			}
		}
		return b.superInit(sc, ctor, nil, resolved, false)
	}

	owner := lw.m.ClassRef(ir.AnyName)
	sig := lw.m.Method(naming.ConstructorName, nil, ir.Unit(), false)
	b.emit(SuperCall, owner, &code.SuperInit{Ctor: code.MethodRef{Owner: owner, Name: sig.Name, Return: sig.Return, Descriptor: sig.Descriptor}})
	return nil
}

// superInit emits the call of super constructor ctor of sc. lead holds
// the enum name and ordinal for enum entry bodies.
func (b *ctorBuilder) superInit(sc *ir.Class, ctor *ir.Constructor, lead []code.Expr, resolved []ir.Expr, enumLike bool) error {
	var args []code.Expr
	args = append(args, lead...)
	if !enumLike {
		closure, err := b.closureArgs(sc)
		if err != nil {
			return err
		}
		args = append(args, closure...)
	}
	mask := 0
	if ctor != nil {
		vals, m, err := b.args(ctor.Params, resolved)
		if err != nil {
			return err
		}
		args, mask = append(args, vals...), m
	}
	if mask != 0 {
		args = append(args, intConst(mask))
	}
	ref := b.lw.l.ConstructorRef(sc, ctor, mask != 0)
	b.emit(SuperCall, ref.Owner, &code.SuperInit{Ctor: ref, Args: args})
	return nil
}

func (b *ctorBuilder) closureFields(layout []synth.CtorParam) {
	c := b.class
	for i, p := range layout {
		var ref code.FieldRef
		switch p.Role {
		case synth.RoleOuter:
			ref = b.lw.l.OuterField(c)
		case synth.RoleReceiver:
			ref = b.lw.l.ReceiverField(c)
		case synth.RoleCaptured:
			ref = b.lw.l.CapturedField(c, ir.CapturedVar{Name: p.Captured, Type: p.Type})
		default:
			continue
		}
		b.emit(ClosureFieldInit, ref.Name, &code.SetField{
			Receiver: b.this,
			Field:    ref,
			Value:    &code.Param{Index: i, Name: p.Name, Type: p.Type},
		})
	}
}

func (b *ctorBuilder) primary() bool {
	return b.ctor == nil || b.ctor.Primary
}

func (b *ctorBuilder) delegateFields() error {
	if !b.primary() {
		return nil
	}
	for _, df := range b.plan.Delegates {
		if df.Reused != nil {
			continue
		}
		v, err := b.expr(df.Spec.Expr)
		if err != nil {
			return err
		}
		b.emit(ExpressionDelegateFields, df.Field.Name, &code.SetField{Receiver: b.this, Field: df.Field, Value: v})
	}
	return nil
}

func (b *ctorBuilder) propertyAssigns() {
	if b.ctor == nil || !b.ctor.Primary {
		return
	}
	for _, vp := range b.ctor.Params {
		p := vp.Property
		if p == nil || !p.BackingField {
			continue
		}
		ref := b.lw.l.PropertyField(p)
		b.emit(ConstructorParameterPropertyAssign, ref.Name, fieldStore(b.this, ref, b.params[vp]))
	}
}

// SkipsInitializer reports whether the initializer of p can be omitted
// because it stores the value the field holds by default.
func SkipsInitializer(o ir.Oracle, p *ir.Property) bool {
	if p.Initializer == nil || p.HasCustomSetter() {
		return false
	}
	k, ok := o.ConstantOf(p.Initializer)
	return ok && k.IsZero(p.Type)
}

func (b *ctorBuilder) userInitializers() error {
	c := b.class
	if !b.primary() || c.BackingFieldsInOuter() {
		return nil
	}
	for _, d := range c.Declarations {
		switch x := d.(type) {
		case *ir.Property:
			if x.Initializer == nil || !x.BackingField || SkipsInitializer(b.lw.o, x) {
				continue
			}
			v, err := b.expr(x.Initializer)
			if err != nil {
				return err
			}
			ref := b.lw.l.PropertyField(x)
			b.emit(UserInitializers, ref.Name, fieldStore(b.this, ref, b.lw.convert(v, x.Type)))
		case *ir.Initializer:
			stmts, err := b.stmts(x.Body, nil)
			if err != nil {
				return err
			}
			b.emit(UserInitializers, "init", stmts...)
		}
	}
	return nil
}
