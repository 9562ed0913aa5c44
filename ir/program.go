package ir

import (
	"sort"
	"strings"
)

// Program is a resolved program: its classes plus the bindings the
// front-end recorded. Program implements Oracle.
type Program struct {
	// Classes are the top-level classes in declaration order.
	Classes []*Class

	// Warnings contains non-fatal issues found while loading.
	Warnings []Warning

	byName   map[string]*Class
	calls    map[*Call]*ResolvedCall
	types    map[Expr]*Type
	consts   map[Expr]Constant
	closures map[*Class]*Closure
}

// Warning is a non-fatal issue attached to a declaration.
type Warning struct {
	Code    string
	Message string
	Source  Source
	Subject string
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		byName:   make(map[string]*Class),
		calls:    make(map[*Call]*ResolvedCall),
		types:    make(map[Expr]*Type),
		consts:   make(map[Expr]Constant),
		closures: make(map[*Class]*Closure),
	}
}

// AddClass adds a top-level class and registers it with its nested classes.
func (p *Program) AddClass(c *Class) {
	p.Classes = append(p.Classes, c)
	p.register(c)
}

func (p *Program) register(c *Class) {
	p.byName[c.Name] = c
	for _, n := range Children(c) {
		n.Outer = c
		p.register(n)
	}
}

// Children returns the directly nested classes of c: the companion,
// nested classes and enum entry bodies.
func Children(c *Class) []*Class {
	var out []*Class
	if c.Companion != nil {
		out = append(out, c.Companion)
	}
	out = append(out, c.Nested...)
	for _, e := range c.Entries {
		if e.Body != nil {
			out = append(out, e.Body)
		}
	}
	return out
}

// AllClasses returns every class in the program, parents before children.
func (p *Program) AllClasses() []*Class {
	var out []*Class
	var walk func(c *Class)
	walk = func(c *Class) {
		out = append(out, c)
		for _, n := range Children(c) {
			walk(n)
		}
	}
	for _, c := range p.Classes {
		walk(c)
	}
	return out
}

// BindCall records the resolution of a call site.
func (p *Program) BindCall(c *Call, r *ResolvedCall) { p.calls[c] = r }

// BindType records the resolved type of an expression.
func (p *Program) BindType(e Expr, t *Type) { p.types[e] = t }

// BindConstant records a compile-time constant for an expression.
func (p *Program) BindConstant(e Expr, c Constant) { p.consts[e] = c }

// SetClosure records the closure of a class.
func (p *Program) SetClosure(c *Class, cl *Closure) { p.closures[c] = cl }

// Class looks up a class by fully-qualified name.
func (p *Program) Class(name string) (*Class, bool) {
	c, ok := p.byName[name]
	return c, ok
}

// ResolvedCall returns the recorded resolution of a call site.
func (p *Program) ResolvedCall(c *Call) (*ResolvedCall, bool) {
	r, ok := p.calls[c]
	return r, ok
}

// OverriddenOf returns the members directly overridden by m.
func (p *Program) OverriddenOf(m Member) []Member {
	return m.Base().Overridden
}

// ClosureOf returns the recorded closure of c. Classes without a recorded
// closure capture only their outer instance, and only when inner.
func (p *Program) ClosureOf(c *Class) *Closure {
	if cl, ok := p.closures[c]; ok {
		return cl
	}
	return defaultClosure(c)
}

func defaultClosure(c *Class) *Closure {
	cl := &Closure{}
	if c.Inner && c.Outer != nil {
		cl.OuterThis = c.Outer
	}
	return cl
}

// ConstantOf returns the compile-time value of literals and bound constants.
func (p *Program) ConstantOf(e Expr) (Constant, bool) {
	if c, ok := p.consts[e]; ok {
		return c, true
	}
	if c, ok := e.(*Const); ok {
		return Constant{Value: c.Value, Type: c.Type}, true
	}
	return Constant{}, false
}

// TypeOf returns the recorded type of e, or derives it from the node.
func (p *Program) TypeOf(e Expr) (*Type, bool) {
	if t, ok := p.types[e]; ok {
		return t, true
	}
	switch x := e.(type) {
	case *Const:
		return x.Type, x.Type != nil
	case *ParamRef:
		return x.Param.Type, true
	case *PropertyRef:
		return x.Property.Type, true
	case *This:
		if x.Class == nil {
			return nil, false
		}
		return x.Class.DefaultType(), true
	case *ObjectRef:
		return x.Class.DefaultType(), true
	case *Call:
		r, ok := p.calls[x]
		if !ok {
			return nil, false
		}
		if r.Constructor != nil {
			return r.Constructor.Owner.DefaultType(), true
		}
		return r.Function.Return, r.Function.Return != nil
	case *Template:
		return String(), true
	case *Binary:
		switch x.Op {
		case OpEq, OpNotEq, OpLess, OpAnd, OpOr:
			return Boolean(), true
		}
		lt, ok := p.TypeOf(x.Left)
		if !ok {
			return nil, false
		}
		if x.Op == OpAdd {
			if rt, ok := p.TypeOf(x.Right); ok && rt.Kind == TypeClass && rt.Class == StringName {
				return rt, true
			}
		}
		return lt, true
	}
	return nil, false
}

// ValidationError represents a program validation error.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the program for structural issues.
// Returns all validation errors found (not just the first).
func (p *Program) Validate() []error {
	var errs []*ValidationError

	seen := make(map[string]bool)
	for _, c := range p.AllClasses() {
		if seen[c.Name] {
			errs = append(errs, &ValidationError{
				Code:    "duplicate_class",
				Message: "duplicate class name: " + c.Name,
			})
		}
		seen[c.Name] = true
	}

	for _, c := range p.AllClasses() {
		classSupers := 0
		for _, st := range c.Supertypes {
			if st.Kind != TypeClass {
				errs = append(errs, &ValidationError{
					Code:    "invalid_supertype",
					Message: "class " + c.Name + " has non-class supertype " + st.String(),
				})
				continue
			}
			sc, ok := p.Class(st.Class)
			if !ok {
				if !isBuiltin(st.Class) {
					errs = append(errs, &ValidationError{
						Code:    "missing_supertype",
						Message: "class " + c.Name + " extends unknown type: " + st.Class,
					})
				}
				continue
			}
			if !sc.IsInterface() {
				classSupers++
			}
		}
		if classSupers > 1 {
			errs = append(errs, &ValidationError{
				Code:    "multiple_class_supertypes",
				Message: "class " + c.Name + " has more than one class supertype",
			})
		}
		if len(c.Entries) > 0 && c.Kind != KindEnum {
			errs = append(errs, &ValidationError{
				Code:    "entries_outside_enum",
				Message: "class " + c.Name + " declares enum entries but is " + c.Kind.String(),
			})
		}
		for _, m := range c.Members {
			if m.Base().Owner != c {
				errs = append(errs, &ValidationError{
					Code:    "foreign_member",
					Message: "member " + QualifiedName(m) + " listed in scope of " + c.Name,
				})
			}
		}
	}

	errs = append(errs, p.detectCircularInheritance()...)

	var result []error
	for _, e := range errs {
		result = append(result, e)
	}
	return result
}

// detectCircularInheritance checks for cycles in the supertype graph.
func (p *Program) detectCircularInheritance() []*ValidationError {
	var errs []*ValidationError

	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	var detect func(name string, path []string)
	detect = func(name string, path []string) {
		if inStack[name] {
			errs = append(errs, &ValidationError{
				Code:    "circular_inheritance",
				Message: "circular inheritance detected: " + strings.Join(append(path, name), " -> "),
			})
			return
		}
		if visited[name] {
			return
		}
		visited[name] = true
		inStack[name] = true
		if c, ok := p.byName[name]; ok {
			for _, st := range c.Supertypes {
				detect(st.Class, append(path, name))
			}
		}
		inStack[name] = false
	}

	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		detect(name, nil)
	}
	return errs
}

func isBuiltin(name string) bool {
	return strings.HasPrefix(name, "kotlin.") || strings.HasPrefix(name, "java.")
}
