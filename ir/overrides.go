package ir

// OverriddenDeclarations returns the real declarations a member ultimately
// stands for. A declared member stands for itself; a fabricated override or
// delegated member stands for the union over its overridden set.
func OverriddenDeclarations(o Oracle, m Member) []Member {
	var out []Member
	seen := make(map[Member]bool)
	var collect func(m Member)
	collect = func(m Member) {
		if m.Base().Kind.IsReal() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
			return
		}
		for _, o := range o.OverriddenOf(m) {
			collect(o)
		}
	}
	for _, ov := range o.OverriddenOf(m) {
		collect(ov)
	}
	return out
}

// FilterOverrides returns the most-derived subset of members: any member
// that another member of the set overrides, directly or transitively, is
// dropped. Input order is preserved.
func FilterOverrides(o Oracle, members []Member) []Member {
	var out []Member
	for i, m := range members {
		redundant := false
		for j, other := range members {
			if i == j || other == m {
				continue
			}
			if Overrides(o, other, m) {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, m)
		}
	}
	return out
}

// Overrides reports whether m overrides target, directly or transitively.
func Overrides(o Oracle, m, target Member) bool {
	seen := make(map[Member]bool)
	var walk func(m Member) bool
	walk = func(m Member) bool {
		for _, ov := range o.OverriddenOf(m) {
			if ov == target {
				return true
			}
			if seen[ov] {
				continue
			}
			seen[ov] = true
			if walk(ov) {
				return true
			}
		}
		return false
	}
	return walk(m)
}

// AllSupertypes returns the names of every class reachable from t through
// supertype edges, excluding t itself. Unknown classes end the walk.
func AllSupertypes(o Oracle, t *Type) map[string]bool {
	out := make(map[string]bool)
	if t == nil || t.Kind != TypeClass {
		return out
	}
	var walk func(name string)
	walk = func(name string) {
		c, ok := o.Class(name)
		if !ok {
			return
		}
		for _, st := range c.Supertypes {
			if st.Kind != TypeClass || out[st.Class] {
				continue
			}
			out[st.Class] = true
			walk(st.Class)
		}
	}
	walk(t.Class)
	return out
}

// SuperClassOf returns the class supertype of c, or nil when c extends the
// root type implicitly.
func SuperClassOf(o Oracle, c *Class) *Type {
	for _, st := range c.Supertypes {
		if st.Kind != TypeClass {
			continue
		}
		if sc, ok := o.Class(st.Class); ok && !sc.IsInterface() {
			return st
		}
	}
	return nil
}

// Interfaces returns the interface supertypes of c in declaration order.
func Interfaces(o Oracle, c *Class) []*Type {
	var out []*Type
	for _, st := range c.Supertypes {
		if sc, ok := o.Class(st.Class); ok && sc.IsInterface() {
			out = append(out, st)
		}
	}
	return out
}

// TypeBindings maps the type parameters of the class named by t to t's
// arguments.
func TypeBindings(o Oracle, t *Type) map[string]*Type {
	c, ok := o.Class(t.Class)
	if !ok || len(t.Args) == 0 {
		return nil
	}
	b := make(map[string]*Type, len(c.TypeParameters))
	for i, tp := range c.TypeParameters {
		if i < len(t.Args) {
			b[tp.Name] = t.Args[i]
		}
	}
	return b
}
