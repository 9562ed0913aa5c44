package ir

import (
	"fmt"
	"strings"
)

// Link completes the member scope of every class: declared members get
// their owner and overridden sets, and every inherited member that a class
// does not declare becomes a fabricated override (or a delegated member
// when a by-expression specifier supplies it). Link is idempotent only
// before the first call; run Validate first so the supertype graph is
// acyclic.
func (p *Program) Link() error {
	done := make(map[*Class]bool)
	var link func(c *Class) error
	link = func(c *Class) error {
		if done[c] {
			return nil
		}
		done[c] = true
		for _, st := range c.Supertypes {
			if sc, ok := p.Class(st.Class); ok {
				if err := link(sc); err != nil {
					return err
				}
			}
		}
		return p.linkClass(c)
	}
	for _, c := range p.AllClasses() {
		if err := link(c); err != nil {
			return err
		}
	}
	return nil
}

type inherited struct {
	member Member
	via    *Type
	bind   map[string]*Type
}

func (p *Program) linkClass(c *Class) error {
	for i, ctor := range c.Constructors {
		ctor.Owner = c
		if i == 0 && !ctor.Primary && len(c.Constructors) == 1 {
			ctor.Primary = true
		}
		for j, vp := range ctor.Params {
			vp.Index = j
			if vp.Property != nil {
				prop := vp.Property
				prop.Param = vp
				prop.BackingField = true
				if prop.Type == nil {
					prop.Type = vp.Type
				}
				if prop.Name == "" {
					prop.Name = vp.Name
				}
			}
		}
	}
	for _, e := range c.Entries {
		if e.Body == nil {
			continue
		}
		e.Body.Kind = KindEnumEntry
		e.Body.Outer = c
		if len(e.Body.Supertypes) == 0 {
			e.Body.Supertypes = []*Type{c.DefaultType()}
		}
	}
	if c.Companion != nil {
		c.Companion.Kind = KindCompanion
	}

	var declared []Member
	if ctor := c.PrimaryConstructor(); ctor != nil {
		for _, vp := range ctor.Params {
			if vp.Property != nil {
				declared = append(declared, vp.Property)
			}
		}
	}
	for _, d := range c.Declarations {
		if m, ok := d.(Member); ok {
			declared = append(declared, m)
		}
	}
	for _, m := range declared {
		b := m.Base()
		b.Owner = c
		if b.Kind == KindFakeOverride || b.Kind == KindDelegation {
			return fmt.Errorf("class %s: member %s declared with kind %s", c.Name, b.Name, b.Kind)
		}
		switch x := m.(type) {
		case *Function:
			for j, vp := range x.Params {
				vp.Index = j
			}
			if x.Body == nil && !c.IsInterface() && x.Modality != Abstract {
				x.Body = []Stmt{}
			}
			if x.Body == nil {
				x.Modality = Abstract
			}
		case *Property:
			x.GetterAccessor()
			x.SetterAccessor()
			if x.Modality == Abstract || c.IsInterface() {
				x.BackingField = false
			}
		}
	}

	// Gather inherited members keyed by signature.
	var order []string
	groups := make(map[string][]inherited)
	for _, st := range c.Supertypes {
		sc, ok := p.Class(st.Class)
		if !ok {
			continue
		}
		bind := TypeBindings(p, st)
		for _, sm := range sc.Members {
			if sm.Base().Visibility == Private {
				continue
			}
			key := memberKey(sm, bind)
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], inherited{member: sm, via: st, bind: bind})
		}
	}

	declaredKeys := make(map[string]Member)
	for _, m := range declared {
		key := memberKey(m, nil)
		declaredKeys[key] = m
		if g, ok := groups[key]; ok && len(m.Base().Overridden) == 0 {
			for _, in := range g {
				m.Base().Overridden = append(m.Base().Overridden, in.member)
			}
		}
	}

	delegated := make(map[string]bool)
	for _, d := range c.Delegations {
		if be, ok := d.(*ByExpression); ok {
			delegated[be.Type.Class] = true
		}
	}

	c.Members = append([]Member(nil), declared...)
	for _, key := range order {
		if _, ok := declaredKeys[key]; ok {
			continue
		}
		c.Members = append(c.Members, fabricate(c, groups[key], delegated))
	}
	return nil
}

// fabricate builds the fabricated member standing for an inherited group.
func fabricate(c *Class, group []inherited, delegated map[string]bool) Member {
	kind := KindFakeOverride
	var overridden []Member
	for _, in := range group {
		if delegated[in.via.Class] && !c.IsInterface() {
			kind = KindDelegation
		}
	}
	allAbstract := true
	vis := Private
	var included []inherited
	for _, in := range group {
		if kind == KindDelegation && !delegated[in.via.Class] {
			continue
		}
		included = append(included, in)
		overridden = append(overridden, in.member)
		b := in.member.Base()
		if !b.IsAbstract() {
			allAbstract = false
		}
		if b.Visibility > vis {
			vis = b.Visibility
		}
	}
	first := included[0]
	modality := Open
	if allAbstract && kind != KindDelegation {
		modality = Abstract
	}
	base := Callable{
		Name:       first.member.Base().Name,
		Owner:      c,
		Visibility: vis,
		Modality:   modality,
		Kind:       kind,
		Overridden: overridden,
	}
	switch src := first.member.(type) {
	case *Function:
		fn := &Function{
			Callable:       base,
			TypeParameters: src.TypeParameters,
			Return:         src.Return.Substitute(first.bind),
		}
		for i, vp := range src.Params {
			fn.Params = append(fn.Params, &ValueParameter{
				Name:  vp.Name,
				Type:  vp.Type.Substitute(first.bind),
				Index: i,
			})
		}
		return fn
	case *Property:
		prop := &Property{
			Callable: base,
			Type:     src.Type.Substitute(first.bind),
			Var:      src.Var,
		}
		prop.GetterAccessor()
		prop.SetterAccessor()
		return prop
	}
	panic("unreachable")
}

// memberKey identifies a member by name and substituted parameter types.
func memberKey(m Member, bind map[string]*Type) string {
	switch x := m.(type) {
	case *Function:
		parts := make([]string, len(x.Params))
		for i, vp := range x.Params {
			t := vp.Type.Substitute(bind)
			parts[i] = t.String()
		}
		return "fun " + x.Name + "(" + strings.Join(parts, ",") + ")"
	case *Property:
		return "val " + x.Name
	}
	return ""
}
