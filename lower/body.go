package lower

import (
	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/synth"
)

// frame is the lowering context of one method body.
type frame struct {
	lw *Lowerer

	// class is the class whose member is lowered.
	class *ir.Class

	// this is the receiver: code.This in instance methods, the explicit
	// receiver parameter in static bodies, or nil.
	this code.Expr

	// outer reads the outer instance before its field is assigned; set in
	// constructors of classes that capture one.
	outer code.Expr

	params map[*ir.ValueParameter]code.Expr
}

func (lw *Lowerer) instanceFrame(c *ir.Class) *frame {
	return &frame{lw: lw, class: c, this: &code.This{Type: c.DefaultType()}, params: make(map[*ir.ValueParameter]code.Expr)}
}

// bind maps value parameters to method parameters starting at index from.
func (f *frame) bind(vps []*ir.ValueParameter, from int) {
	for i, vp := range vps {
		f.params[vp] = &code.Param{Index: from + i, Name: f.lw.m.Identifier(vp.Name), Type: vp.Type}
	}
}

func (f *frame) unresolved(what, subject string) error {
	return &ir.UnresolvedError{What: what, Subject: subject}
}

// isSubclass reports whether c is owner or inherits from it.
func (f *frame) isSubclass(c, owner *ir.Class) bool {
	return c == owner || ir.AllSupertypes(f.lw.o, c.DefaultType())[owner.Name]
}

// thisFor returns the receiver of an implicit access to a member of owner:
// the innermost enclosing instance that is an owner, reached through the
// chain of outer-instance fields, or the singleton instance of owner.
func (f *frame) thisFor(owner *ir.Class) (code.Expr, error) {
	e, k := f.this, f.class
	for first := true; e != nil && k != nil; first = false {
		if f.isSubclass(k, owner) {
			return e, nil
		}
		cl := f.lw.o.ClosureOf(k)
		if cl.OuterThis == nil {
			break
		}
		if first && f.outer != nil {
			e = f.outer
		} else {
			e = &code.GetField{Receiver: e, Field: f.lw.l.OuterField(k)}
		}
		k = cl.OuterThis
	}
	if owner.Kind.IsSingleton() {
		return &code.GetField{Field: f.lw.l.InstanceField(owner)}, nil
	}
	return nil, f.unresolved("receiver", owner.Name)
}

// fieldAccess reads ref on recv; static fields take no receiver.
func fieldAccess(recv code.Expr, ref code.FieldRef) *code.GetField {
	if ref.Static {
		recv = nil
	}
	return &code.GetField{Receiver: recv, Field: ref}
}

func fieldStore(recv code.Expr, ref code.FieldRef, v code.Expr) *code.SetField {
	if ref.Static {
		recv = nil
	}
	return &code.SetField{Receiver: recv, Field: ref, Value: v}
}

// owns reports whether the frame's class stores the backing field of p.
func (f *frame) owns(p *ir.Property) bool {
	return p.Owner == f.class && !p.Owner.IsInterface() && p.BackingField
}

func dispatch(owner *ir.Class, private bool) code.CallKind {
	switch {
	case private:
		return code.Special
	case owner.IsInterface():
		return code.Interface
	}
	return code.Virtual
}

// foreignPrivate reports whether m is a private member of another class,
// reachable only through a synthetic accessor.
func (f *frame) foreignPrivate(m ir.Member) bool {
	b := m.Base()
	return b.Visibility == ir.Private && b.Owner != f.class
}

func (f *frame) accessorCall(m ir.Member, kind ir.AccessKind, args []code.Expr) (code.Expr, error) {
	owner := m.Base().Owner
	if !f.lw.l.HasAccessor(owner, m, kind) {
		return nil, f.unresolved("synthetic accessor", ir.QualifiedName(m))
	}
	return &code.Call{Kind: code.Static, Method: f.lw.l.AccessorRef(owner, ir.AccessRequest{Member: m, Kind: kind}), Args: args}, nil
}

func (f *frame) receiver(recv ir.Expr, owner *ir.Class) (code.Expr, error) {
	if recv == nil {
		return f.thisFor(owner)
	}
	return f.expr(recv)
}

func (f *frame) readProperty(recv code.Expr, p *ir.Property) (code.Expr, error) {
	getter := p.GetterAccessor()
	if f.owns(p) && getter.IsDefault() && (p.Visibility == ir.Private || !p.Modality.Overridable()) {
		return fieldAccess(recv, f.lw.l.PropertyField(p)), nil
	}
	if f.foreignPrivate(p) {
		return f.accessorCall(p, ir.AccessGet, []code.Expr{recv})
	}
	return &code.Call{
		Kind:     dispatch(p.Owner, p.Visibility == ir.Private),
		Method:   f.lw.l.GetterRef(p),
		Receiver: recv,
	}, nil
}

func (f *frame) writeProperty(recv code.Expr, p *ir.Property, v code.Expr) (code.Stmt, error) {
	setter := p.SetterAccessor()
	if f.owns(p) && (setter == nil || setter.IsDefault() && (p.Visibility == ir.Private || !p.Modality.Overridable())) {
		return fieldStore(recv, f.lw.l.PropertyField(p), v), nil
	}
	if setter == nil {
		return nil, f.unresolved("setter", ir.QualifiedName(p))
	}
	if f.foreignPrivate(p) {
		call, err := f.accessorCall(p, ir.AccessSet, []code.Expr{recv, v})
		if err != nil {
			return nil, err
		}
		return &code.Eval{X: call}, nil
	}
	return &code.Eval{X: &code.Call{
		Kind:     dispatch(p.Owner, p.Visibility == ir.Private),
		Method:   f.lw.l.SetterRef(p),
		Receiver: recv,
		Args:     []code.Expr{v},
	}}, nil
}

func (f *frame) captured(name string) (code.Expr, error) {
	e, k := f.this, f.class
	for e != nil && k != nil {
		cl := f.lw.o.ClosureOf(k)
		for _, cv := range cl.Captured {
			if cv.Name == name {
				return &code.GetField{Receiver: e, Field: f.lw.l.CapturedField(k, cv)}, nil
			}
		}
		if cl.OuterThis == nil {
			break
		}
		e = &code.GetField{Receiver: e, Field: f.lw.l.OuterField(k)}
		k = cl.OuterThis
	}
	return nil, f.unresolved("captured variable", name)
}

// args lowers resolved arguments. Omitted arguments become the zero value
// of their parameter and set the corresponding bit of the returned mask.
func (f *frame) args(params []*ir.ValueParameter, args []ir.Expr) ([]code.Expr, int, error) {
	out := make([]code.Expr, len(params))
	mask := 0
	for i := range params {
		var a ir.Expr
		if i < len(args) {
			a = args[i]
		}
		if a == nil {
			out[i] = zero(params[i].Type)
			mask |= 1 << i
			continue
		}
		x, err := f.expr(a)
		if err != nil {
			return nil, 0, err
		}
		out[i] = f.lw.convert(x, params[i].Type)
	}
	return out, mask, nil
}

// closureArgs returns the leading constructor arguments that class c
// captures, read from the frame.
func (f *frame) closureArgs(c *ir.Class) ([]code.Expr, error) {
	var out []code.Expr
	for _, p := range f.lw.l.ConstructorParams(c, nil) {
		switch p.Role {
		case synth.RoleOuter:
			e, err := f.thisFor(f.lw.o.ClosureOf(c).OuterThis)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		case synth.RoleReceiver:
			if f.class == nil || f.lw.o.ClosureOf(f.class).Receiver == nil || f.this == nil {
				return nil, f.unresolved("captured receiver", c.Name)
			}
			out = append(out, &code.GetField{Receiver: f.this, Field: f.lw.l.ReceiverField(f.class)})
		case synth.RoleCaptured:
			e, err := f.captured(p.Captured)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		case synth.RoleEnumName, synth.RoleEnumOrdinal:
			return nil, &synth.MemberError{Class: c.Name, Member: "<init>", Reason: "enum constructors cannot be called", Err: synth.ErrUnsupported}
		}
	}
	return out, nil
}

// construct lowers a constructor call of ctor with resolved arguments.
func (f *frame) construct(ctor *ir.Constructor, resolved []ir.Expr) (code.Expr, error) {
	c := ctor.Owner
	lead, err := f.closureArgs(c)
	if err != nil {
		return nil, err
	}
	args, mask, err := f.args(ctor.Params, resolved)
	if err != nil {
		return nil, err
	}
	all := append(lead, args...)
	if mask != 0 {
		all = append(all, intConst(mask))
	}
	return &code.New{
		Class: f.lw.m.ClassName(c),
		Type:  c.DefaultType(),
		Ctor:  f.lw.l.ConstructorRef(c, ctor, mask != 0),
		Args:  all,
	}, nil
}

func (f *frame) call(call *ir.Call) (code.Expr, error) {
	r, err := ir.ResolvedCallOrErr(f.lw.o, call)
	if err != nil {
		return nil, err
	}
	if r.Constructor != nil {
		return f.construct(r.Constructor, r.Args)
	}
	fn := r.Function
	recv, err := f.receiver(call.Receiver, fn.Owner)
	if err != nil {
		return nil, err
	}
	args, mask, err := f.args(fn.Params, r.Args)
	if err != nil {
		return nil, err
	}
	if mask != 0 {
		all := append([]code.Expr{recv}, args...)
		return &code.Call{Kind: code.Static, Method: f.lw.l.DefaultRef(fn), Args: append(all, intConst(mask))}, nil
	}
	if f.foreignPrivate(fn) {
		return f.accessorCall(fn, ir.AccessCall, append([]code.Expr{recv}, args...))
	}
	return &code.Call{
		Kind:     dispatch(fn.Owner, fn.Visibility == ir.Private),
		Method:   f.lw.l.FunctionRef(fn),
		Receiver: recv,
		Args:     args,
	}, nil
}

var binaryOps = map[ir.BinaryOp]code.Op{
	ir.OpAdd:  code.Add,
	ir.OpSub:  code.Sub,
	ir.OpMul:  code.Mul,
	ir.OpAnd:  code.And,
	ir.OpOr:   code.Or,
	ir.OpLess: code.Lt,
	ir.OpEq:   code.ValueEq,
}

func (f *frame) binary(b *ir.Binary) (code.Expr, error) {
	t, err := ir.TypeOfOrErr(f.lw.o, b)
	if err != nil {
		return nil, err
	}
	left, err := f.expr(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.expr(b.Right)
	if err != nil {
		return nil, err
	}
	if b.Op == ir.OpAdd && t.Kind == ir.TypeClass && t.Class == ir.StringName {
		return &code.Concat{Parts: []code.Expr{left, right}}, nil
	}
	if b.Op == ir.OpNotEq {
		return &code.Not{X: &code.Binary{Op: code.ValueEq, Left: left, Right: right, Type: code.TypeOf(left)}}, nil
	}
	op, ok := binaryOps[b.Op]
	if !ok {
		return nil, f.unresolved("operator", b.Op.String())
	}
	operand := t
	if op == code.ValueEq || op == code.Lt {
		operand = code.TypeOf(left)
	}
	return &code.Binary{Op: op, Left: left, Right: right, Type: operand}, nil
}

func (f *frame) expr(e ir.Expr) (code.Expr, error) {
	switch x := e.(type) {
	case *ir.Const:
		t := x.Type
		if t == nil {
			var err error
			if t, err = ir.TypeOfOrErr(f.lw.o, x); err != nil {
				return nil, err
			}
		}
		return &code.Const{Value: x.Value, Type: t}, nil
	case *ir.ParamRef:
		if p, ok := f.params[x.Param]; ok {
			return p, nil
		}
		return nil, f.unresolved("parameter", x.Param.Name)
	case *ir.PropertyRef:
		recv, err := f.receiver(x.Receiver, x.Property.Owner)
		if err != nil {
			return nil, err
		}
		return f.readProperty(recv, x.Property)
	case *ir.Call:
		return f.call(x)
	case *ir.This:
		owner := x.Class
		if owner == nil {
			owner = f.class
		}
		return f.thisFor(owner)
	case *ir.CapturedRef:
		return f.captured(x.Name)
	case *ir.ObjectRef:
		return &code.GetField{Field: f.lw.l.InstanceField(x.Class)}, nil
	case *ir.Binary:
		return f.binary(x)
	case *ir.Template:
		parts := make([]code.Expr, len(x.Parts))
		for i, p := range x.Parts {
			var err error
			if parts[i], err = f.expr(p); err != nil {
				return nil, err
			}
		}
		return &code.Concat{Parts: parts}, nil
	}
	return nil, f.unresolved("expression", "unknown node")
}

// stmts lowers a source body. ret is the declared return type; unit
// bodies that fall off the end get an explicit return.
func (f *frame) stmts(body []ir.Stmt, ret *ir.Type) ([]code.Stmt, error) {
	var out []code.Stmt
	for _, s := range body {
		switch x := s.(type) {
		case *ir.Return:
			if x.Value == nil {
				out = append(out, &code.Return{})
				continue
			}
			v, err := f.expr(x.Value)
			if err != nil {
				return nil, err
			}
			if ret != nil && !ret.IsUnit() {
				v = f.lw.convert(v, ret)
			}
			out = append(out, &code.Return{Value: v})
		case *ir.Eval:
			v, err := f.expr(x.X)
			if err != nil {
				return nil, err
			}
			out = append(out, &code.Eval{X: v})
		case *ir.Assign:
			recv, err := f.receiver(x.Receiver, x.Property.Owner)
			if err != nil {
				return nil, err
			}
			v, err := f.expr(x.Value)
			if err != nil {
				return nil, err
			}
			st, err := f.writeProperty(recv, x.Property, v)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
	}
	if ret != nil && ret.IsUnit() {
		if len(out) == 0 {
			out = append(out, &code.Return{})
		} else if _, ok := out[len(out)-1].(*code.Return); !ok {
			out = append(out, &code.Return{})
		}
	}
	return out, nil
}
