package synth

import (
	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
)

// ParamRole tells what a constructor parameter carries.
type ParamRole int

const (
	RoleEnumName ParamRole = iota
	RoleEnumOrdinal
	RoleOuter
	RoleReceiver
	RoleCaptured
	RoleValue
	RoleMask
)

// CtorParam is one parameter of a lowered constructor.
type CtorParam struct {
	naming.Param
	Role ParamRole

	// Value is the declared parameter for RoleValue.
	Value *ir.ValueParameter

	// Captured names the captured variable for RoleCaptured.
	Captured string
}

// Layout answers where a class keeps its state and how its members are
// referenced on the target. It is shared by synthesis and lowering.
type Layout struct {
	m *naming.Mapper
	o ir.Oracle
}

// NewLayout returns a layout backed by mapper m.
func NewLayout(m *naming.Mapper) *Layout {
	return &Layout{m: m, o: m.Oracle()}
}

// Mapper returns the naming mapper.
func (l *Layout) Mapper() *naming.Mapper { return l.m }

// Oracle returns the binding oracle.
func (l *Layout) Oracle() ir.Oracle { return l.o }

// IsEnumLike reports whether constructors of c take the enum name and ordinal.
func IsEnumLike(c *ir.Class) bool {
	return c.Kind == ir.KindEnum || c.Kind == ir.KindEnumEntry
}

// ConstructorParams returns the parameter layout of ctor: enum name and
// ordinal, outer instance, receiver, captured variables, then the declared
// parameters. ctor may be nil for an implicit constructor.
func (l *Layout) ConstructorParams(c *ir.Class, ctor *ir.Constructor) []CtorParam {
	var out []CtorParam
	if IsEnumLike(c) {
		out = append(out,
			CtorParam{Param: naming.Param{Name: naming.EnumNameParam, Type: ir.String()}, Role: RoleEnumName},
			CtorParam{Param: naming.Param{Name: naming.EnumOrdinalParam, Type: ir.Int()}, Role: RoleEnumOrdinal},
		)
	}
	cl := l.o.ClosureOf(c)
	if cl.OuterThis != nil {
		out = append(out, CtorParam{Param: naming.Param{Name: "$outer", Type: cl.OuterThis.DefaultType()}, Role: RoleOuter})
	}
	if cl.Receiver != nil {
		out = append(out, CtorParam{Param: naming.Param{Name: "$receiver", Type: cl.Receiver}, Role: RoleReceiver})
	}
	for _, cv := range cl.Captured {
		out = append(out, CtorParam{
			Param:    naming.Param{Name: l.m.CapturedFieldName(cv.Name), Type: cv.Type},
			Role:     RoleCaptured,
			Captured: cv.Name,
		})
	}
	if ctor != nil {
		for _, vp := range ctor.Params {
			out = append(out, CtorParam{Param: naming.Param{Name: l.m.Identifier(vp.Name), Type: vp.Type}, Role: RoleValue, Value: vp})
		}
	}
	return out
}

// MaskParam is the trailing parameter of default-argument overloads.
func MaskParam() naming.Param {
	return naming.Param{Name: naming.DefaultMaskParam, Type: ir.Int()}
}

// ConstructorSignature returns the signature of ctor, with a trailing mask
// parameter for the default-argument overload.
func (l *Layout) ConstructorSignature(c *ir.Class, ctor *ir.Constructor, mask bool) naming.Signature {
	var params []naming.Param
	for _, p := range l.ConstructorParams(c, ctor) {
		params = append(params, p.Param)
	}
	if mask {
		params = append(params, MaskParam())
	}
	return l.m.Method(naming.ConstructorName, params, ir.Unit(), false)
}

// ConstructorRef references ctor of c.
func (l *Layout) ConstructorRef(c *ir.Class, ctor *ir.Constructor, mask bool) code.MethodRef {
	return l.ref(l.m.ClassName(c), l.ConstructorSignature(c, ctor, mask), false)
}

func (l *Layout) ref(owner string, sig naming.Signature, iface bool) code.MethodRef {
	return code.MethodRef{
		Owner:      owner,
		Name:       sig.Name,
		Params:     sig.ParamTypes(),
		Return:     sig.Return,
		Descriptor: sig.Descriptor,
		Static:     sig.Static,
		Interface:  iface,
	}
}

// Ref references the method with signature sig on owner.
func (l *Layout) Ref(owner *ir.Class, sig naming.Signature) code.MethodRef {
	return l.ref(l.m.ClassName(owner), sig, owner.IsInterface() && !sig.Static)
}

// PropertyField returns the backing field of p. Backing fields of a class
// object whose outer class hosts them are static fields of the outer class.
func (l *Layout) PropertyField(p *ir.Property) code.FieldRef {
	owner := p.Owner
	static := false
	if owner.BackingFieldsInOuter() {
		owner = owner.Outer
		static = true
	}
	return code.FieldRef{
		Owner:      l.m.ClassName(owner),
		Name:       l.m.FieldName(p),
		Type:       p.Type,
		Descriptor: l.m.Descriptor(p.Type),
		Static:     static,
	}
}

func (l *Layout) field(owner *ir.Class, name string, t *ir.Type, static bool) code.FieldRef {
	return code.FieldRef{
		Owner:      l.m.ClassName(owner),
		Name:       name,
		Type:       t,
		Descriptor: l.m.Descriptor(t),
		Static:     static,
	}
}

// OuterField returns the field holding the captured outer instance of c.
func (l *Layout) OuterField(c *ir.Class) code.FieldRef {
	return l.field(c, naming.OuterThisField, l.o.ClosureOf(c).OuterThis.DefaultType(), false)
}

// ReceiverField returns the field holding the captured receiver of c.
func (l *Layout) ReceiverField(c *ir.Class) code.FieldRef {
	return l.field(c, naming.ReceiverField, l.o.ClosureOf(c).Receiver, false)
}

// CapturedField returns the field holding captured variable cv of c.
func (l *Layout) CapturedField(c *ir.Class, cv ir.CapturedVar) code.FieldRef {
	return l.field(c, l.m.CapturedFieldName(cv.Name), cv.Type, false)
}

// ClosureFields returns the closure fields of c in generation order.
func (l *Layout) ClosureFields(c *ir.Class) []code.FieldRef {
	cl := l.o.ClosureOf(c)
	var out []code.FieldRef
	if cl.OuterThis != nil {
		out = append(out, l.OuterField(c))
	}
	if cl.Receiver != nil {
		out = append(out, l.ReceiverField(c))
	}
	for _, cv := range cl.Captured {
		out = append(out, l.CapturedField(c, cv))
	}
	return out
}

// InstanceField returns the static field holding the instance of singleton c.
// Objects hold their own instance; class objects are held by the outer class.
func (l *Layout) InstanceField(c *ir.Class) code.FieldRef {
	if c.Kind == ir.KindCompanion && c.Outer != nil {
		return l.field(c.Outer, naming.CompanionInstance, c.DefaultType(), true)
	}
	return l.field(c, naming.ObjectInstance, c.DefaultType(), true)
}

// EntryField returns the static field of enum constant e of enum c.
func (l *Layout) EntryField(c *ir.Class, e *ir.EnumEntry) code.FieldRef {
	return l.field(c, e.Name, c.DefaultType(), true)
}

// ValuesField returns the constant table of enum c.
func (l *Layout) ValuesField(c *ir.Class) code.FieldRef {
	return l.field(c, naming.ValuesField, ir.ArrayOf(c.DefaultType()), true)
}

// FunctionRef references f for a call through its owner.
func (l *Layout) FunctionRef(f *ir.Function) code.MethodRef {
	return l.Ref(f.Owner, l.m.FunctionSignature(f))
}

// GetterRef references the getter of p.
func (l *Layout) GetterRef(p *ir.Property) code.MethodRef {
	return l.Ref(p.Owner, l.m.GetterSignature(p))
}

// SetterRef references the setter of p.
func (l *Layout) SetterRef(p *ir.Property) code.MethodRef {
	return l.Ref(p.Owner, l.m.SetterSignature(p))
}

// withReceiver prepends an explicit receiver parameter of type recv and
// makes sig static.
func (l *Layout) withReceiver(sig naming.Signature, recv *ir.Type) naming.Signature {
	params := append([]naming.Param{{Name: naming.ReceiverParam, Type: recv}}, sig.Params...)
	return l.m.Method(sig.Name, params, sig.Return, true)
}

// TraitBodySignature returns the static signature under which the default
// body of interface member sig is compiled: the implementing instance is
// passed first.
func (l *Layout) TraitBodySignature(iface *ir.Class, sig naming.Signature) naming.Signature {
	return l.withReceiver(sig, iface.DefaultType())
}

// TraitBodyRef references the static default body of interface member sig.
func (l *Layout) TraitBodyRef(iface *ir.Class, sig naming.Signature) code.MethodRef {
	return l.ref(l.m.TraitImplName(iface), l.TraitBodySignature(iface, sig), false)
}

// DefaultSignature returns the signature of the default-argument overload
// of f: static, receiver first, trailing mask.
func (l *Layout) DefaultSignature(f *ir.Function) naming.Signature {
	sig := l.m.FunctionSignature(f)
	params := append([]naming.Param{{Name: naming.ReceiverParam, Type: f.Owner.DefaultType()}}, sig.Params...)
	params = append(params, MaskParam())
	return l.m.Method(sig.Name+naming.DefaultSuffix, params, sig.Return, true)
}

// DefaultOwner returns the target type holding the default-argument
// overload of f.
func (l *Layout) DefaultOwner(f *ir.Function) string {
	if f.Owner.IsInterface() {
		return l.m.TraitImplName(f.Owner)
	}
	return l.m.ClassName(f.Owner)
}

// DefaultRef references the default-argument overload of f.
func (l *Layout) DefaultRef(f *ir.Function) code.MethodRef {
	return l.ref(l.DefaultOwner(f), l.DefaultSignature(f), false)
}

// AccessorSignature returns the synthetic accessor signature for req on c.
func (l *Layout) AccessorSignature(c *ir.Class, req ir.AccessRequest) naming.Signature {
	var (
		params []naming.Param
		ret    *ir.Type
	)
	switch m := req.Member.(type) {
	case *ir.Function:
		sig := l.m.FunctionSignature(m)
		params, ret = sig.Params, sig.Return
	case *ir.Property:
		ret = m.Type
		if req.Kind == ir.AccessSet {
			params = []naming.Param{{Name: "value", Type: m.Type}}
			ret = ir.Unit()
		}
	}
	sig := l.m.Method(l.m.AccessorName(req.Member, req.Kind), params, ret, false)
	return l.withReceiver(sig, c.DefaultType())
}

// AccessorRef references the synthetic accessor for req on c.
func (l *Layout) AccessorRef(c *ir.Class, req ir.AccessRequest) code.MethodRef {
	return l.ref(l.m.ClassName(c), l.AccessorSignature(c, req), false)
}

// HasAccessor reports whether c publishes a synthetic accessor for member
// m of the given kind.
func (l *Layout) HasAccessor(c *ir.Class, m ir.Member, kind ir.AccessKind) bool {
	for _, req := range l.o.ClosureOf(c).PrivateAccess {
		if req.Member == m && req.Kind == kind {
			return true
		}
	}
	return false
}

// NeedsGetter reports whether p is read through a getter method. Private
// properties with default accessors are read from the field directly.
func NeedsGetter(p *ir.Property) bool {
	return !(p.Visibility == ir.Private && p.GetterAccessor().IsDefault() && p.BackingField)
}

// NeedsSetter reports whether p is written through a setter method.
func NeedsSetter(p *ir.Property) bool {
	s := p.SetterAccessor()
	if s == nil {
		return false
	}
	return !(p.Visibility == ir.Private && s.IsDefault() && p.BackingField)
}

// ConstantField returns the compile-time value recorded on the backing
// field of p, or nil. Only static immutable fields of primitive or string
// type with a constant initializer carry one.
func (l *Layout) ConstantField(p *ir.Property) *ir.Constant {
	if p.Var || p.Initializer == nil || !p.BackingField || !l.PropertyField(p).Static {
		return nil
	}
	t := p.Type
	if !t.IsPrimitive() && !(t.Kind == ir.TypeClass && t.Class == ir.StringName && !t.Nullable) {
		return nil
	}
	k, ok := l.o.ConstantOf(p.Initializer)
	if !ok {
		return nil
	}
	return &k
}
