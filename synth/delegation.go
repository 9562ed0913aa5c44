package synth

import (
	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

// TraitCandidate returns the interface declaration whose default body a
// fabricated override of m should call, or nil when no thunk is needed:
// the member is abstract, a class in the hierarchy implements it, or the
// superclass already routes it.
func TraitCandidate(o ir.Oracle, c *ir.Class, m ir.Member) (ir.Member, error) {
	decls := ir.FilterOverrides(o, ir.OverriddenDeclarations(o, m))
	var candidates []ir.Member
	for _, d := range decls {
		owner := d.Base().Owner
		if !owner.IsInterface() {
			if !d.Base().IsAbstract() {
				return nil, nil
			}
			continue
		}
		if hasDefaultBody(d) {
			candidates = append(candidates, d)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
	default:
		names := make([]string, len(candidates))
		for i, cand := range candidates {
			names[i] = ir.QualifiedName(cand)
		}
		return nil, &MemberError{
			Class:      c.Name,
			Member:     ir.MemberName(m),
			Reason:     "inherits more than one interface implementation",
			Candidates: names,
			Err:        ErrAmbiguousDelegation,
		}
	}
	cand := candidates[0]
	if sc := ir.SuperClassOf(o, c); sc != nil && ir.AllSupertypes(o, sc)[cand.Base().Owner.Name] {
		return nil, nil
	}
	return cand, nil
}

func hasDefaultBody(m ir.Member) bool {
	switch x := m.(type) {
	case *ir.Function:
		return x.Body != nil
	case *ir.Property:
		return !x.GetterAccessor().IsDefault()
	}
	return false
}

// ResolveDelegations plans the thunks of c's fabricated members: calls to
// interface default bodies for inherited members, and forwarding calls
// through delegate fields for by-expression members.
func ResolveDelegations(c *ir.Class, l *Layout, delegates []*DelegateField) ([]Member, error) {
	if c.IsInterface() {
		return nil, nil
	}
	r := &resolver{l: l, m: l.Mapper(), o: l.Oracle(), c: c, owner: l.Mapper().ClassName(c), delegates: delegates}
	for _, mem := range c.Members {
		var err error
		switch mem.Base().Kind {
		case ir.KindFakeOverride:
			err = r.traitThunk(mem)
		case ir.KindDelegation:
			err = r.fieldThunk(mem)
		}
		if err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

type resolver struct {
	l         *Layout
	m         *naming.Mapper
	o         ir.Oracle
	c         *ir.Class
	owner     string
	delegates []*DelegateField
	out       []Member
}

func (r *resolver) thunk(sig naming.Signature, vis ir.Visibility, kind target.MethodKind, prop string, s Strategy) {
	r.out = append(r.out, Member{
		Owner:     r.owner,
		Signature: sig,
		Modifiers: target.Visibility(vis),
		Kind:      kind,
		Property:  prop,
		Strategy:  s,
		Step:      StepDelegation,
	})
}

// bridge adds a method with the erased signature of the overridden member
// that forwards to sig.
func (r *resolver) bridge(sig, erased naming.Signature) {
	if erased.Descriptor == sig.Descriptor {
		return
	}
	erased.Static = false
	r.out = append(r.out, Member{
		Owner:     r.owner,
		Signature: erased,
		Modifiers: target.Public | target.Synthetic | target.Bridge,
		Kind:      target.Method,
		Strategy:  &Bridge{Target: r.l.ref(r.owner, sig, false)},
		Step:      StepDelegation,
	})
}

func (r *resolver) traitThunk(mem ir.Member) error {
	cand, err := TraitCandidate(r.o, r.c, mem)
	if err != nil || cand == nil {
		return err
	}
	iface := cand.Base().Owner
	switch x := mem.(type) {
	case *ir.Function:
		sig := r.m.FunctionSignature(x)
		declSig := r.m.FunctionSignature(cand.(*ir.Function))
		r.thunk(sig, x.Visibility, target.Method, "",
			&Delegate{Target: r.l.TraitBodyRef(iface, declSig), Kind: code.Static})
		r.bridge(sig, declSig)
	case *ir.Property:
		decl := cand.(*ir.Property)
		sig := r.m.GetterSignature(x)
		declSig := r.m.GetterSignature(decl)
		r.thunk(sig, x.Visibility, target.Getter, x.Name,
			&Delegate{Target: r.l.TraitBodyRef(iface, declSig), Kind: code.Static})
		r.bridge(sig, declSig)
		if decl.HasCustomSetter() {
			sig := r.m.SetterSignature(x)
			declSig := r.m.SetterSignature(decl)
			r.thunk(sig, x.Visibility, target.Setter, x.Name,
				&Delegate{Target: r.l.TraitBodyRef(iface, declSig), Kind: code.Static})
			r.bridge(sig, declSig)
		}
	}
	return nil
}

// delegateFor returns the delegate field whose specifier type is iface or
// one of its subtypes.
func (r *resolver) delegateFor(iface *ir.Class) *DelegateField {
	for _, df := range r.delegates {
		t := df.Spec.Type
		if t.Class == iface.Name || ir.AllSupertypes(r.o, t)[iface.Name] {
			return df
		}
	}
	return nil
}

func (r *resolver) fieldThunk(mem ir.Member) error {
	decls := ir.OverriddenDeclarations(r.o, mem)
	if len(decls) == 0 {
		return &ir.UnresolvedError{What: "delegated declaration", Subject: ir.QualifiedName(mem)}
	}
	decl := decls[0]
	df := r.delegateFor(decl.Base().Owner)
	if df == nil {
		return &MemberError{
			Class:  r.c.Name,
			Member: ir.MemberName(mem),
			Reason: "no delegate field supplies " + decl.Base().Owner.Name,
			Err:    ErrUnsupported,
		}
	}
	spec, ok := r.o.Class(df.Spec.Type.Class)
	if !ok {
		return &ir.UnresolvedError{What: "class", Subject: df.Spec.Type.Class}
	}
	specName := r.m.ClassName(spec)
	forward := func(sig, declSig naming.Signature, kind target.MethodKind, prop string) {
		r.thunk(sig, mem.Base().Visibility, kind, prop, &Delegate{
			Target: r.l.ref(specName, declSig, spec.IsInterface()),
			Kind:   callKind(spec),
			Field:  df,
		})
		r.bridge(sig, declSig)
	}
	switch x := mem.(type) {
	case *ir.Function:
		d, ok := decl.(*ir.Function)
		if !ok {
			return &ir.UnresolvedError{What: "delegated function", Subject: ir.QualifiedName(mem)}
		}
		forward(r.m.FunctionSignature(x), r.m.FunctionSignature(d), target.Method, "")
	case *ir.Property:
		d, ok := decl.(*ir.Property)
		if !ok {
			return &ir.UnresolvedError{What: "delegated property", Subject: ir.QualifiedName(mem)}
		}
		forward(r.m.GetterSignature(x), r.m.GetterSignature(d), target.Getter, x.Name)
		if x.Var {
			forward(r.m.SetterSignature(x), r.m.SetterSignature(d), target.Setter, x.Name)
		}
	}
	return nil
}

func callKind(c *ir.Class) code.CallKind {
	if c.IsInterface() {
		return code.Interface
	}
	return code.Virtual
}
