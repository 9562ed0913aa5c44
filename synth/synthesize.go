package synth

import (
	"strconv"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

type builder struct {
	l    *Layout
	m    *naming.Mapper
	o    ir.Oracle
	c    *ir.Class
	name string
	plan *Plan
	step Step
}

// Synthesize plans the members of c. The member list follows a fixed
// order: declared members, singleton and constructors, data components and
// copy, data toString/hashCode/equals, interface delegation, synthetic
// accessors, enum helpers. Nested classes are synthesized separately.
func Synthesize(c *ir.Class, l *Layout) (*Plan, error) {
	b := &builder{
		l:    l,
		m:    l.Mapper(),
		o:    l.Oracle(),
		c:    c,
		name: l.Mapper().ClassName(c),
		plan: &Plan{Class: c},
	}
	if err := b.checkSupported(); err != nil {
		return nil, err
	}
	b.defineTypes()
	b.delegateFields()

	b.step = StepDeclared
	b.declared()

	b.step = StepSingleton
	b.singleton()
	b.constructors()

	if c.Data && c.PrimaryConstructor() != nil {
		b.step = StepDataComponents
		b.dataComponents()
		b.step = StepDataObjectMethods
		b.dataObjectMethods()
	}

	b.step = StepDelegation
	thunks, err := ResolveDelegations(c, l, b.plan.Delegates)
	if err != nil {
		return nil, err
	}
	b.plan.Members = append(b.plan.Members, thunks...)

	b.step = StepAccessors
	b.accessors()

	b.step = StepEnum
	b.enum()

	b.nested()
	return b.plan, nil
}

func (b *builder) checkSupported() error {
	for _, e := range b.c.Entries {
		if len(e.Delegations) > 1 {
			return &MemberError{
				Class:  b.c.Name,
				Member: e.Name,
				Reason: "enum constant declares " + strconv.Itoa(len(e.Delegations)) + " delegation specifiers",
				Err:    ErrUnsupported,
			}
		}
	}
	return nil
}

func (b *builder) add(owner string, sig naming.Signature, mods target.Modifiers, kind target.MethodKind, s Strategy) *Member {
	b.plan.Members = append(b.plan.Members, Member{
		Owner:     owner,
		Signature: sig,
		Modifiers: mods,
		Kind:      kind,
		Strategy:  s,
		Step:      b.step,
	})
	return &b.plan.Members[len(b.plan.Members)-1]
}

func (b *builder) addField(ref code.FieldRef, mods target.Modifiers, prop *ir.Property, constant *ir.Constant) {
	if ref.Static {
		mods |= target.Static
	}
	b.plan.Fields = append(b.plan.Fields, Field{
		Owner: ref.Owner,
		Def: target.FieldDef{
			Name:       ref.Name,
			Type:       ref.Type,
			Descriptor: ref.Descriptor,
			Modifiers:  mods,
			Constant:   constant,
		},
		Property: prop,
	})
}

// ClassModifiers returns the type flags of c.
func ClassModifiers(c *ir.Class) target.Modifiers {
	var mods target.Modifiers
	if c.Visibility != ir.Private {
		mods |= target.Public
	}
	switch c.Kind {
	case ir.KindInterface:
		return mods | target.Interface | target.Abstract
	case ir.KindAnnotation:
		return mods | target.Interface | target.Abstract | target.Annotation
	case ir.KindEnum:
		mods |= target.Enum
		if !hasEntryBodies(c) && c.Modality != ir.Abstract {
			mods |= target.Final
		}
		return mods
	case ir.KindObject, ir.KindCompanion:
		return mods | target.Final
	case ir.KindEnumEntry:
		return mods | target.Final | target.Enum
	}
	switch c.Modality {
	case ir.Final:
		mods |= target.Final
	case ir.Abstract:
		mods |= target.Abstract
	}
	return mods
}

func hasEntryBodies(c *ir.Class) bool {
	for _, e := range c.Entries {
		if e.Body != nil {
			return true
		}
	}
	return false
}

func (b *builder) defineTypes() {
	b.plan.Type = target.TypeDef{
		Name:       b.name,
		Modifiers:  ClassModifiers(b.c),
		Super:      b.m.SuperName(b.c),
		Interfaces: b.m.InterfaceNames(b.c),
		Signature:  b.m.ClassSignature(b.c),
	}
	if b.c.IsInterface() && hasTraitBodies(b.c) {
		b.plan.TraitImpl = &target.TypeDef{
			Name:      b.m.TraitImplName(b.c),
			Modifiers: target.Public | target.Final,
			Super:     b.m.ClassRef(ir.AnyName),
		}
	}
}

func hasTraitBodies(c *ir.Class) bool {
	for _, d := range c.Declarations {
		switch x := d.(type) {
		case *ir.Function:
			if x.Body != nil {
				return true
			}
		case *ir.Property:
			if !x.GetterAccessor().IsDefault() || x.HasCustomSetter() {
				return true
			}
		}
	}
	return false
}

// properties returns constructor properties followed by body properties.
func properties(c *ir.Class) []*ir.Property {
	return append(c.DataProperties(), c.Properties()...)
}

func (b *builder) delegateFields() {
	n := 0
	for _, d := range b.c.Delegations {
		be, ok := d.(*ir.ByExpression)
		if !ok {
			continue
		}
		iface, _ := b.o.Class(be.Type.Class)
		df := &DelegateField{Ordinal: n, Spec: be, Interface: iface}
		if p := ReusableProperty(be.Expr); p != nil {
			df.Reused = p
			df.Field = b.l.PropertyField(p)
		} else {
			df.Field = code.FieldRef{
				Owner:      b.name,
				Name:       b.m.DelegateFieldName(n),
				Type:       be.Type,
				Descriptor: b.m.Descriptor(be.Type),
			}
		}
		b.plan.Delegates = append(b.plan.Delegates, df)
		n++
	}
}

// ReusableProperty returns the constructor property a delegate expression
// reads, when its backing field can hold the delegate: an immutable
// constructor-parameter property with default accessors.
func ReusableProperty(e ir.Expr) *ir.Property {
	var p *ir.Property
	switch x := e.(type) {
	case *ir.ParamRef:
		p = x.Param.Property
	case *ir.PropertyRef:
		if x.Receiver == nil && x.Property.Param != nil {
			p = x.Property
		}
	}
	if p == nil || p.Var || p.HasCustomSetter() || !p.GetterAccessor().IsDefault() || !p.BackingField {
		return nil
	}
	return p
}

// declared plans fields and methods of the declared members.
func (b *builder) declared() {
	c := b.c
	if !c.IsInterface() {
		for _, p := range properties(c) {
			if !p.BackingField {
				continue
			}
			ref := b.l.PropertyField(p)
			mods := target.Private
			if !p.Var {
				mods |= target.Final
			}
			b.addField(ref, mods, p, b.l.ConstantField(p))
		}
		for _, f := range b.l.ClosureFields(c) {
			b.addField(f, target.Final|target.Synthetic, nil, nil)
		}
		for _, df := range b.plan.Delegates {
			if df.Reused == nil {
				b.addField(df.Field, target.Private|target.Final|target.Synthetic, nil, nil)
			}
		}
	}

	for _, p := range c.DataProperties() {
		b.propertyAccessors(p)
	}
	for _, d := range c.Declarations {
		switch x := d.(type) {
		case *ir.Property:
			b.propertyAccessors(x)
		case *ir.Function:
			b.function(x)
		}
	}
}

func memberModifiers(vis ir.Visibility, mod ir.Modality) target.Modifiers {
	mods := target.Visibility(vis)
	switch mod {
	case ir.Final:
		mods |= target.Final
	case ir.Abstract:
		mods |= target.Abstract
	}
	return mods
}

func (b *builder) function(f *ir.Function) {
	sig := b.m.FunctionSignature(f)
	switch {
	case b.c.IsInterface():
		b.add(b.name, sig, target.Visibility(f.Visibility)|target.Abstract, target.Method, &Abstract{})
		if f.Body != nil {
			b.add(b.m.TraitImplName(b.c), b.l.TraitBodySignature(b.c, sig), target.Public|target.Static, target.Method,
				&Verbatim{Function: f, TraitBody: true})
		}
	case f.IsAbstract():
		b.add(b.name, sig, memberModifiers(f.Visibility, f.Modality), target.Method, &Abstract{})
	default:
		b.add(b.name, sig, memberModifiers(f.Visibility, f.Modality), target.Method, &Verbatim{Function: f})
	}
	if f.HasDefaults() {
		b.add(b.l.DefaultOwner(f), b.l.DefaultSignature(f), target.Public|target.Static|target.Synthetic, target.Method,
			&DefaultOverload{Function: f, Canonical: b.l.FunctionRef(f)})
	}
}

func (b *builder) propertyAccessors(p *ir.Property) {
	getter, setter := p.GetterAccessor(), p.SetterAccessor()
	getSig := b.m.GetterSignature(p)
	var setSig naming.Signature
	if setter != nil {
		setSig = b.m.SetterSignature(p)
	}

	if b.c.IsInterface() {
		b.add(b.name, getSig, target.Visibility(getter.Visibility)|target.Abstract, target.Getter, &Abstract{}).Property = p.Name
		if !getter.IsDefault() {
			b.add(b.m.TraitImplName(b.c), b.l.TraitBodySignature(b.c, getSig), target.Public|target.Static, target.Method,
				&Verbatim{Accessor: getter, TraitBody: true})
		}
		if setter != nil {
			b.add(b.name, setSig, target.Visibility(setter.Visibility)|target.Abstract, target.Setter, &Abstract{}).Property = p.Name
			if !setter.IsDefault() {
				b.add(b.m.TraitImplName(b.c), b.l.TraitBodySignature(b.c, setSig), target.Public|target.Static, target.Method,
					&Verbatim{Accessor: setter, TraitBody: true})
			}
		}
		return
	}

	if p.IsAbstract() {
		b.add(b.name, getSig, memberModifiers(getter.Visibility, p.Modality), target.Getter, &Abstract{}).Property = p.Name
		if setter != nil {
			b.add(b.name, setSig, memberModifiers(setter.Visibility, p.Modality), target.Setter, &Abstract{}).Property = p.Name
		}
		return
	}
	if NeedsGetter(p) {
		b.add(b.name, getSig, memberModifiers(getter.Visibility, p.Modality), target.Getter, &Verbatim{Accessor: getter}).Property = p.Name
	}
	if NeedsSetter(p) {
		b.add(b.name, setSig, memberModifiers(setter.Visibility, p.Modality), target.Setter, &Verbatim{Accessor: setter}).Property = p.Name
	}
}

// singleton plans the static instance field and its initialization.
func (b *builder) singleton() {
	c := b.c
	switch {
	case c.Kind == ir.KindObject:
		f := b.l.InstanceField(c)
		b.addField(f, target.Public|target.Final, nil, nil)
		b.plan.StaticInit = append(b.plan.StaticInit, &SingletonInit{
			Owner: b.name,
			Class: c,
			Field: f,
			Ctor:  b.l.ConstructorRef(c, c.PrimaryConstructor(), false),
		})
	case c.Kind == ir.KindCompanion && c.BackingFieldsInOuter():
		outer := b.m.ClassName(c.Outer)
		b.plan.StaticInit = append(b.plan.StaticInit,
			&SingletonInit{
				Owner: outer,
				Class: c,
				Field: b.l.InstanceField(c),
				Ctor:  b.l.ConstructorRef(c, c.PrimaryConstructor(), false),
			},
			&CompanionInit{Owner: outer, Companion: c},
		)
	}
	if comp := c.Companion; comp != nil {
		f := b.l.InstanceField(comp)
		b.addField(f, target.Public|target.Final, nil, nil)
		if !comp.BackingFieldsInOuter() {
			b.plan.StaticInit = append(b.plan.StaticInit, &SingletonInit{
				Owner: b.name,
				Class: comp,
				Field: f,
				Ctor:  b.l.ConstructorRef(comp, comp.PrimaryConstructor(), false),
			})
		}
	}
}

func (b *builder) constructorModifiers(ctor *ir.Constructor) target.Modifiers {
	switch b.c.Kind {
	case ir.KindObject:
		return target.Private
	case ir.KindCompanion, ir.KindEnumEntry:
		return 0
	case ir.KindEnum:
		if hasEntryBodies(b.c) {
			return 0
		}
		return target.Private
	}
	if ctor == nil {
		return target.Public
	}
	return target.Visibility(ctor.Visibility)
}

func (b *builder) constructors() {
	if b.c.IsInterface() {
		return
	}
	ctors := b.c.Constructors
	if len(ctors) == 0 {
		ctors = []*ir.Constructor{nil}
	}
	for _, ctor := range ctors {
		mods := b.constructorModifiers(ctor)
		b.add(b.name, b.l.ConstructorSignature(b.c, ctor, false), mods, target.Constructor, &ConstructorChain{Constructor: ctor})
		if ctor != nil && ctor.HasDefaults() {
			b.add(b.name, b.l.ConstructorSignature(b.c, ctor, true), mods|target.Synthetic, target.Constructor,
				&DefaultOverload{Constructor: ctor, Canonical: b.l.ConstructorRef(b.c, ctor, false)})
		}
	}
}

// declares reports whether c declares a function with the given name and
// erased parameter types.
func (b *builder) declares(name string, params []*ir.Type) bool {
	key := b.m.SourceKey(name, params)
	for _, f := range b.c.Functions() {
		if f.Name == name && b.m.SourceKey(f.Name, f.ParamTypes()) == key {
			return true
		}
	}
	return false
}

func (b *builder) dataComponents() {
	props := b.c.DataProperties()
	for i, p := range props {
		name := naming.ComponentPrefix + strconv.Itoa(i+1)
		if b.declares(name, nil) {
			continue
		}
		sig := b.m.Method(b.m.Identifier(name), nil, p.Type, false)
		b.add(b.name, sig, target.Public|target.Final, target.Method,
			&DataMethod{Kind: DataComponent, Index: i, Properties: props})
	}

	types := make([]*ir.Type, len(props))
	for i, p := range props {
		types[i] = p.Type
	}
	if b.declares("copy", types) {
		return
	}
	fn := CopyFunction(b.c)
	b.add(b.name, b.m.FunctionSignature(fn), target.Public|target.Final, target.Method,
		&DataMethod{Kind: DataCopy, Properties: props, Function: fn})
	if fn.HasDefaults() {
		b.add(b.name, b.l.DefaultSignature(fn), target.Public|target.Static|target.Synthetic, target.Method,
			&DefaultOverload{Function: fn, Canonical: b.l.FunctionRef(fn)})
	}
}

// CopyFunction returns the synthesized copy function of data class c. Each
// parameter defaults to the current value of its property.
func CopyFunction(c *ir.Class) *ir.Function {
	fn := &ir.Function{
		Callable: ir.Callable{
			Name:       "copy",
			Owner:      c,
			Visibility: ir.Public,
			Modality:   ir.Final,
			Kind:       ir.KindSynthesized,
		},
		Return: c.DefaultType(),
	}
	for i, p := range c.DataProperties() {
		fn.Params = append(fn.Params, &ir.ValueParameter{
			Name:    p.Name,
			Type:    p.Type,
			Index:   i,
			Default: &ir.PropertyRef{Property: p},
		})
	}
	return fn
}

func (b *builder) dataObjectMethods() {
	props := b.c.DataProperties()
	if len(props) == 0 {
		return
	}
	if !b.declares("toString", nil) {
		b.add(b.name, b.m.Method("toString", nil, ir.String(), false), target.Public, target.Method,
			&DataMethod{Kind: DataToString, Properties: props})
	}
	if !b.declares("hashCode", nil) {
		b.add(b.name, b.m.Method("hashCode", nil, ir.Int(), false), target.Public, target.Method,
			&DataMethod{Kind: DataHashCode, Properties: props})
	}
	other := ir.Nullable(ir.Any())
	if !b.declares("equals", []*ir.Type{other}) {
		sig := b.m.Method("equals", []naming.Param{{Name: "other", Type: other}}, ir.Boolean(), false)
		b.add(b.name, sig, target.Public, target.Method, &DataMethod{Kind: DataEquals, Properties: props})
	}
}

func (b *builder) accessors() {
	seen := make(map[ir.AccessRequest]bool)
	for _, req := range b.o.ClosureOf(b.c).PrivateAccess {
		if seen[req] {
			continue
		}
		seen[req] = true
		b.add(b.name, b.l.AccessorSignature(b.c, req), target.Static|target.Synthetic, target.Method,
			&SyntheticAccessor{Request: req})
	}
}

func (b *builder) enum() {
	c := b.c
	if c.Kind != ir.KindEnum || len(c.Entries) == 0 {
		return
	}
	for _, e := range c.Entries {
		b.addField(b.l.EntryField(c, e), target.Public|target.Final|target.Enum, nil, nil)
	}
	b.addField(b.l.ValuesField(c), target.Private|target.Final|target.Synthetic, nil, nil)

	b.add(b.name, b.m.Method("values", nil, ir.ArrayOf(c.DefaultType()), true), target.Public, target.Method, &EnumValues{})
	b.add(b.name, b.m.Method("valueOf", []naming.Param{{Name: "name", Type: ir.String()}}, c.DefaultType(), true),
		target.Public, target.Method, &EnumValueOf{})
	b.plan.StaticInit = append(b.plan.StaticInit, &EnumConstants{Owner: b.name, Class: c})
}

func (b *builder) nested() {
	for _, child := range ir.Children(b.c) {
		mods := ClassModifiers(child)
		if !child.Inner {
			mods |= target.Static
		}
		b.plan.Nested = append(b.plan.Nested, Nesting{
			Inner:     b.m.ClassName(child),
			Outer:     b.name,
			Modifiers: mods,
		})
	}
}
