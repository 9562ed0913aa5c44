package lower

import (
	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/synth"
)

// staticFrame returns a frame whose receiver is parameter 0 of type recv.
func (lw *Lowerer) staticFrame(c *ir.Class, name string, recv *ir.Type) *frame {
	return &frame{lw: lw, class: c, this: &code.Param{Index: 0, Name: name, Type: recv}, params: make(map[*ir.ValueParameter]code.Expr)}
}

func (lw *Lowerer) verbatim(c *ir.Class, m synth.Member, s *synth.Verbatim) ([]code.Stmt, error) {
	owner := c
	if s.Function != nil {
		owner = s.Function.Owner
	} else if s.Accessor != nil {
		owner = s.Accessor.Property.Owner
	}
	f, first := lw.instanceFrame(owner), 0
	if s.TraitBody {
		f, first = lw.staticFrame(owner, m.Signature.Params[0].Name, owner.DefaultType()), 1
	}

	if fn := s.Function; fn != nil {
		f.bind(fn.Params, first)
		return f.stmts(fn.Body, fn.Return)
	}

	a := s.Accessor
	p := a.Property
	switch {
	case !a.Setter && a.IsDefault():
		return []code.Stmt{&code.Return{Value: fieldAccess(f.this, lw.l.PropertyField(p))}}, nil
	case a.Setter && a.IsDefault():
		return []code.Stmt{
			fieldStore(f.this, lw.l.PropertyField(p), param(m.Signature, first)),
			&code.Return{},
		}, nil
	case a.Setter:
		if a.Param != nil {
			f.params[a.Param] = param(m.Signature, first)
		}
		return f.stmts(a.Body, ir.Unit())
	}
	return f.stmts(a.Body, p.Type)
}

func (lw *Lowerer) delegate(c *ir.Class, m synth.Member, s *synth.Delegate) ([]code.Stmt, error) {
	this := &code.This{Type: c.DefaultType()}
	target := s.Target
	var (
		args []code.Expr
		recv code.Expr
	)
	offset := 0
	if s.Field == nil {
		args = append(args, this)
		offset = 1
	} else {
		recv = &code.GetField{Receiver: this, Field: s.Field.Field}
	}
	for i := range m.Signature.Params {
		if i+offset >= len(target.Params) {
			return nil, &ir.UnresolvedError{What: "delegate parameter", Subject: target.Owner + "." + target.Name}
		}
		args = append(args, lw.convert(param(m.Signature, i), target.Params[i+offset]))
	}
	call := &code.Call{Kind: s.Kind, Method: target, Receiver: recv, Args: args}
	if m.Signature.Return.IsUnit() {
		return returning(call, m.Signature.Return), nil
	}
	return returning(lw.convert(call, m.Signature.Return), m.Signature.Return), nil
}

func (lw *Lowerer) bridge(c *ir.Class, m synth.Member, s *synth.Bridge) []code.Stmt {
	var args []code.Expr
	for i := range m.Signature.Params {
		args = append(args, lw.convert(param(m.Signature, i), s.Target.Params[i]))
	}
	call := &code.Call{Kind: code.Virtual, Method: s.Target, Receiver: &code.This{Type: c.DefaultType()}, Args: args}
	if m.Signature.Return.IsUnit() {
		return returning(call, m.Signature.Return)
	}
	return returning(lw.convert(call, m.Signature.Return), m.Signature.Return)
}

// get reads data property p of recv through its getter.
func (lw *Lowerer) get(recv code.Expr, p *ir.Property) code.Expr {
	if !synth.NeedsGetter(p) {
		return fieldAccess(recv, lw.l.PropertyField(p))
	}
	return &code.Call{Kind: dispatch(p.Owner, p.Visibility == ir.Private), Method: lw.l.GetterRef(p), Receiver: recv}
}

func (lw *Lowerer) dataMethod(c *ir.Class, m synth.Member, s *synth.DataMethod) ([]code.Stmt, error) {
	this := &code.This{Type: c.DefaultType()}
	props := s.Properties
	switch s.Kind {
	case synth.DataComponent:
		return []code.Stmt{&code.Return{Value: lw.get(this, props[s.Index])}}, nil

	case synth.DataCopy:
		return lw.copyBody(c, m, props)

	case synth.DataToString:
		name := c.SimpleName()
		var parts []code.Expr
		for i, p := range props {
			sep := ", "
			if i == 0 {
				sep = name + "("
			}
			parts = append(parts, stringConst(sep+p.Name+"="))
			v := lw.get(this, p)
			if p.Type.IsArray() {
				v = &code.ArrayToString{X: v}
			}
			parts = append(parts, v)
		}
		parts = append(parts, stringConst(")"))
		return []code.Stmt{&code.Return{Value: &code.Concat{Parts: parts}}}, nil

	case synth.DataHashCode:
		var acc code.Expr = &code.Hash{X: lw.get(this, props[0])}
		for _, p := range props[1:] {
			acc = &code.Binary{
				Op:    code.Add,
				Left:  &code.Binary{Op: code.Mul, Left: acc, Right: intConst(31), Type: ir.Int()},
				Right: &code.Hash{X: lw.get(this, p)},
				Type:  ir.Int(),
			}
		}
		return []code.Stmt{&code.Return{Value: acc}}, nil

	case synth.DataEquals:
		other := param(m.Signature, 0)
		name := lw.m.ClassName(c)
		typed := &code.Local{Name: "that", Type: c.DefaultType()}
		then := []code.Stmt{&code.Let{Name: typed.Name, Type: typed.Type, Value: &code.Cast{X: other, To: c.DefaultType(), Class: name}}}
		for _, p := range props {
			var eq code.Expr
			if p.Type.IsArray() {
				eq = &code.ArrayEquals{Left: lw.get(this, p), Right: lw.get(typed, p)}
			} else {
				eq = &code.Binary{Op: code.ValueEq, Left: lw.get(this, p), Right: lw.get(typed, p), Type: p.Type}
			}
			then = append(then, &code.If{Cond: &code.Not{X: eq}, Then: []code.Stmt{&code.Return{Value: &code.Const{Value: false, Type: ir.Boolean()}}}})
		}
		then = append(then, &code.Return{Value: &code.Const{Value: true, Type: ir.Boolean()}})
		return []code.Stmt{
			&code.If{
				Cond: &code.Binary{Op: code.RefEq, Left: this, Right: other, Type: ir.Any()},
				Then: []code.Stmt{&code.Return{Value: &code.Const{Value: true, Type: ir.Boolean()}}},
			},
			&code.If{Cond: &code.InstanceOf{X: other, Class: name}, Then: then},
			&code.Return{Value: &code.Const{Value: false, Type: ir.Boolean()}},
		}, nil
	}
	return nil, &ir.UnresolvedError{What: "data method", Subject: s.Kind.String()}
}

// copyBody constructs a new instance from the copy parameters, forwarding
// the captured closure fields unchanged.
func (lw *Lowerer) copyBody(c *ir.Class, m synth.Member, props []*ir.Property) ([]code.Stmt, error) {
	this := &code.This{Type: c.DefaultType()}
	index := make(map[*ir.Property]int, len(props))
	for i, p := range props {
		index[p] = i
	}
	ctor := c.PrimaryConstructor()
	var args []code.Expr
	for _, p := range lw.l.ConstructorParams(c, ctor) {
		switch p.Role {
		case synth.RoleOuter:
			args = append(args, &code.GetField{Receiver: this, Field: lw.l.OuterField(c)})
		case synth.RoleReceiver:
			args = append(args, &code.GetField{Receiver: this, Field: lw.l.ReceiverField(c)})
		case synth.RoleCaptured:
			args = append(args, &code.GetField{Receiver: this, Field: lw.l.CapturedField(c, ir.CapturedVar{Name: p.Captured, Type: p.Type})})
		case synth.RoleValue:
			if i, ok := index[p.Value.Property]; ok && p.Value.Property != nil {
				args = append(args, param(m.Signature, i))
			} else {
				args = append(args, zero(p.Type))
			}
		default:
			return nil, &synth.MemberError{Class: c.Name, Member: "copy", Reason: "enum classes cannot be copied", Err: synth.ErrUnsupported}
		}
	}
	return []code.Stmt{&code.Return{Value: &code.New{
		Class: lw.m.ClassName(c),
		Type:  c.DefaultType(),
		Ctor:  lw.l.ConstructorRef(c, ctor, false),
		Args:  args,
	}}}, nil
}

func (lw *Lowerer) accessor(c *ir.Class, m synth.Member, s *synth.SyntheticAccessor) ([]code.Stmt, error) {
	this := param(m.Signature, 0)
	switch x := s.Request.Member.(type) {
	case *ir.Function:
		call := &code.Call{Kind: code.Special, Method: lw.l.FunctionRef(x), Receiver: this, Args: params(m.Signature, 1)}
		return returning(call, m.Signature.Return), nil
	case *ir.Property:
		direct := x.BackingField && !x.Owner.IsInterface()
		if s.Request.Kind == ir.AccessSet {
			v := param(m.Signature, 1)
			if direct && (x.SetterAccessor() == nil || x.SetterAccessor().IsDefault()) {
				return []code.Stmt{fieldStore(this, lw.l.PropertyField(x), v), &code.Return{}}, nil
			}
			call := &code.Call{Kind: code.Special, Method: lw.l.SetterRef(x), Receiver: this, Args: []code.Expr{v}}
			return returning(call, ir.Unit()), nil
		}
		if direct && x.GetterAccessor().IsDefault() {
			return []code.Stmt{&code.Return{Value: fieldAccess(this, lw.l.PropertyField(x))}}, nil
		}
		return []code.Stmt{&code.Return{Value: &code.Call{Kind: code.Special, Method: lw.l.GetterRef(x), Receiver: this}}}, nil
	}
	return nil, &ir.UnresolvedError{What: "accessor target", Subject: m.Signature.Name}
}

func (lw *Lowerer) defaultOverload(c *ir.Class, m synth.Member, s *synth.DefaultOverload) ([]code.Stmt, error) {
	sig := m.Signature
	mask := param(sig, len(sig.Params)-1)

	if fn := s.Function; fn != nil {
		f := lw.staticFrame(fn.Owner, sig.Params[0].Name, fn.Owner.DefaultType())
		f.bind(fn.Params, 1)
		body, err := lw.substituteDefaults(f, fn.Params, mask)
		if err != nil {
			return nil, err
		}
		call := &code.Call{
			Kind:     dispatch(fn.Owner, fn.Visibility == ir.Private),
			Method:   s.Canonical,
			Receiver: f.this,
			Args:     params(sig, 1)[:len(fn.Params)],
		}
		return append(body, returning(call, fn.Return)...), nil
	}

	ctor := s.Constructor
	f := lw.instanceFrame(c)
	layout := lw.l.ConstructorParams(c, ctor)
	for i, p := range layout {
		pe := &code.Param{Index: i, Name: p.Name, Type: p.Type}
		switch p.Role {
		case synth.RoleValue:
			f.params[p.Value] = pe
		case synth.RoleOuter:
			f.outer = pe
		}
	}
	body, err := lw.substituteDefaults(f, ctor.Params, mask)
	if err != nil {
		return nil, err
	}
	return append(body,
		&code.ThisInit{Ctor: s.Canonical, Args: params(sig, 0)[:len(layout)]},
		&code.Return{},
	), nil
}

// substituteDefaults overwrites every parameter whose mask bit is set with
// its default value, in declaration order.
func (lw *Lowerer) substituteDefaults(f *frame, vps []*ir.ValueParameter, mask code.Expr) ([]code.Stmt, error) {
	var out []code.Stmt
	for i, vp := range vps {
		if vp.Default == nil {
			continue
		}
		v, err := f.expr(vp.Default)
		if err != nil {
			return nil, err
		}
		target := f.params[vp].(*code.Param)
		out = append(out, &code.If{
			Cond: &code.MaskBit{Mask: mask, Bit: i},
			Then: []code.Stmt{&code.SetParam{Index: target.Index, Name: target.Name, Type: target.Type, Value: lw.convert(v, vp.Type)}},
		})
	}
	return out, nil
}
