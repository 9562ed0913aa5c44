package naming

import (
	"sort"
	"strconv"
	"strings"

	"github.com/broady/classgen/ir"
)

// Cache holds the naming decisions of one compilation unit. It is not safe
// for concurrent use; a unit owns exactly one cache per style.
type Cache struct {
	functions map[*ir.Function]string
	scopes    map[*ir.Class]bool
	classes   map[*ir.Class]string
	taken     map[string]*ir.Class
	clashes   map[string]int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		functions: make(map[*ir.Function]string),
		scopes:    make(map[*ir.Class]bool),
		classes:   make(map[*ir.Class]string),
		taken:     make(map[string]*ir.Class),
		clashes:   make(map[string]int),
	}
}

// Mapper maps declarations to target names and signatures.
type Mapper struct {
	style  Style
	cache  *Cache
	oracle ir.Oracle
}

// New returns a mapper for style backed by cache.
func New(style Style, cache *Cache, oracle ir.Oracle) *Mapper {
	if cache == nil {
		cache = NewCache()
	}
	return &Mapper{style: style, cache: cache, oracle: oracle}
}

// Style returns the mapper's style.
func (m *Mapper) Style() Style { return m.style }

// Oracle returns the binding oracle the mapper resolves classes with.
func (m *Mapper) Oracle() ir.Oracle { return m.oracle }

// ClassName returns the target name of c: the JVM internal name
// ("demo/Outer$Inner") or the JS qualified reference ("demo.Outer.Inner").
func (m *Mapper) ClassName(c *ir.Class) string {
	if name, ok := m.cache.classes[c]; ok {
		return name
	}
	var name string
	if m.style.Target == "jvm" {
		name = jvmClassName(c)
	} else {
		name = m.jsClassName(c)
	}
	m.cache.classes[c] = name
	return name
}

// ClassRef returns the target name of a class referenced by its
// fully-qualified name, including built-ins outside the program.
func (m *Mapper) ClassRef(fq string) string {
	builtins := jvmBuiltins
	if m.style.Target != "jvm" {
		builtins = jsBuiltins
	}
	if name, ok := builtins[fq]; ok {
		return name
	}
	if c, ok := m.oracle.Class(fq); ok {
		return m.ClassName(c)
	}
	if m.style.Target == "jvm" {
		return strings.ReplaceAll(fq, ".", "/")
	}
	return fq
}

// SimpleName returns the identifier a type is declared under within its
// container, after sanitizing and clash guarding.
func (m *Mapper) SimpleName(c *ir.Class) string {
	name := m.ClassName(c)
	if i := strings.LastIndexAny(name, "./$"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (m *Mapper) jsClassName(c *ir.Class) string {
	prefix := c.Package
	if c.Outer != nil {
		prefix = m.ClassName(c.Outer)
	}
	simple := c.SimpleName()
	if m.style.SanitizeIdentifiers {
		simple = SanitizeIdentifier(simple)
	}
	if m.style.GuardClassNames {
		key := prefix + "." + simple
		if owner, ok := m.cache.taken[key]; ok && owner != c {
			n := m.cache.clashes[key]
			m.cache.clashes[key] = n + 1
			simple = simple + "_" + strconv.Itoa(n)
		} else {
			m.cache.taken[key] = c
		}
	}
	if prefix == "" {
		return simple
	}
	return prefix + "." + simple
}

// TraitImplName returns the name of the static type that holds the default
// bodies of interface iface.
func (m *Mapper) TraitImplName(iface *ir.Class) string {
	return m.ClassName(iface) + m.style.TraitImplSuffix
}

// SuperName returns the target name of c's class supertype: the declared
// superclass, the enum base for enums, or the root object type.
func (m *Mapper) SuperName(c *ir.Class) string {
	if st := ir.SuperClassOf(m.oracle, c); st != nil {
		return m.ClassRef(st.Class)
	}
	if c.Kind == ir.KindEnum {
		return m.ClassRef(ir.EnumName)
	}
	return m.ClassRef(ir.AnyName)
}

// InterfaceNames returns the target names of c's interface supertypes.
func (m *Mapper) InterfaceNames(c *ir.Class) []string {
	var out []string
	for _, t := range ir.Interfaces(m.oracle, c) {
		out = append(out, m.ClassRef(t.Class))
	}
	return out
}

// Identifier sanitizes a member identifier for the target.
func (m *Mapper) Identifier(name string) string {
	if m.style.SanitizeIdentifiers {
		return SanitizeIdentifier(name)
	}
	return name
}

// FunctionName returns the target name of f. With overload suffixes
// enabled, functions sharing a name within one scope are ordered by
// visibility (descending) and overridability; the first keeps the bare
// name and the rest get name$1, name$2 in order. An override reuses the
// name of the member it overrides.
func (m *Mapper) FunctionName(f *ir.Function) string {
	if !m.style.Overloads {
		return m.Identifier(f.Name)
	}
	if name, ok := m.cache.functions[f]; ok {
		return name
	}
	if f.Owner != nil {
		m.resolveScope(f.Owner)
		if name, ok := m.cache.functions[f]; ok {
			return name
		}
	}
	name := m.Identifier(f.Name)
	m.cache.functions[f] = name
	return name
}

// resolveScope assigns names to every function of c's member scope.
func (m *Mapper) resolveScope(c *ir.Class) {
	if m.cache.scopes[c] {
		return
	}
	m.cache.scopes[c] = true

	var order []string
	groups := make(map[string][]*ir.Function)
	add := func(f *ir.Function) {
		if _, ok := groups[f.Name]; !ok {
			order = append(order, f.Name)
		}
		for _, g := range groups[f.Name] {
			if g == f {
				return
			}
		}
		groups[f.Name] = append(groups[f.Name], f)
	}
	for _, mem := range c.Members {
		if f, ok := mem.(*ir.Function); ok {
			add(f)
		}
	}
	for _, f := range c.Functions() {
		add(f)
	}

	for _, name := range order {
		group := groups[name]
		base := m.Identifier(name)
		occupied := make(map[int]bool)
		var fresh []*ir.Function

		// Overrides and inherited members keep the names of the members
		// they stand for.
		for _, f := range group {
			ov := m.oracle.OverriddenOf(f)
			if len(ov) == 0 {
				fresh = append(fresh, f)
				continue
			}
			inherited := base
			if of, ok := ov[0].(*ir.Function); ok {
				inherited = m.FunctionName(of)
			}
			m.cache.functions[f] = inherited
			occupied[suffixIndex(base, inherited)] = true
		}

		sort.SliceStable(fresh, func(i, j int) bool {
			a, b := fresh[i], fresh[j]
			if a.Visibility != b.Visibility {
				return a.Visibility > b.Visibility
			}
			return a.Modality.Overridable() && !b.Modality.Overridable()
		})
		next := 0
		for _, f := range fresh {
			for occupied[next] {
				next++
			}
			occupied[next] = true
			if next == 0 {
				m.cache.functions[f] = base
			} else {
				m.cache.functions[f] = base + "$" + strconv.Itoa(next)
			}
		}
	}
}

// suffixIndex returns k for "base$k" and 0 for the bare name.
func suffixIndex(base, name string) int {
	rest, ok := strings.CutPrefix(name, base+"$")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return -1
	}
	return n
}

// GetterName returns the name of p's getter.
func (m *Mapper) GetterName(p *ir.Property) string {
	return m.accessorName(m.style.GetterPrefix, p.Name)
}

// SetterName returns the name of p's setter.
func (m *Mapper) SetterName(p *ir.Property) string {
	return m.accessorName(m.style.SetterPrefix, p.Name)
}

func (m *Mapper) accessorName(prefix, name string) string {
	if m.style.NativeProperties {
		return m.Identifier(name)
	}
	if m.style.Capitalize {
		return prefix + Capitalize(name)
	}
	return prefix + name
}

// FieldName returns the backing field name of p.
func (m *Mapper) FieldName(p *ir.Property) string {
	return m.style.FieldPrefix + p.Name
}

// CapturedFieldName returns the field holding captured variable name.
func (m *Mapper) CapturedFieldName(name string) string {
	return "$" + name
}

// DelegateFieldName returns the field of the n-th by-expression specifier.
func (m *Mapper) DelegateFieldName(n int) string {
	return DelegateFieldStem + strconv.Itoa(n)
}

// AccessorName returns the synthetic accessor name for a private access.
func (m *Mapper) AccessorName(mem ir.Member, kind ir.AccessKind) string {
	name := mem.Base().Name
	switch kind {
	case ir.AccessGet:
		return AccessorPrefix + "get" + Capitalize(name)
	case ir.AccessSet:
		return AccessorPrefix + "set" + Capitalize(name)
	}
	return AccessorPrefix + name
}
