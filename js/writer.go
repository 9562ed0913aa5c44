// Package js emits JavaScript for the Kotlin JS runtime.
//
// The Writer implements target.Emitter and keeps every definition until
// Source renders the unit. Classes become Kotlin.createClass calls with an
// initializer function, an instance member object and a static member
// object; interfaces become Kotlin.createTrait calls. The first constructor
// defined for a class is its initializer; further constructors become
// static init$N functions invoked on a fresh prototype instance.
package js

import (
	"fmt"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

// Writer accumulates the classes of one unit. It implements target.Emitter.
type Writer struct {
	ecma5   bool
	classes map[string]*class
	order   []string
	nested  map[string]string

	// accessors maps owner.name+descriptor of every defined getter and
	// setter to its kind.
	accessors map[string]target.MethodKind
}

var _ target.Emitter = (*Writer)(nil)

type class struct {
	def        target.TypeDef
	fields     []target.FieldDef
	ctors      []*method
	methods    []*method
	staticInit *method
	keys       map[string]bool
}

type method struct {
	owner string
	def   target.MethodDef
	body  []code.Stmt
	done  bool
}

// NewWriter returns an empty writer. With ecma5 set, properties are
// defined natively and super initializers are reached through
// baseInitializer.
func NewWriter(ecma5 bool) *Writer {
	return &Writer{
		ecma5:     ecma5,
		classes:   make(map[string]*class),
		nested:    make(map[string]string),
		accessors: make(map[string]target.MethodKind),
	}
}

// NamingStyle returns the JS naming style.
func (w *Writer) NamingStyle() naming.Style { return naming.JS(w.ecma5) }

// DefineType starts a class or trait.
func (w *Writer) DefineType(def target.TypeDef) error {
	if _, ok := w.classes[def.Name]; ok {
		return fmt.Errorf("js: type %s already defined", def.Name)
	}
	w.classes[def.Name] = &class{def: def, keys: make(map[string]bool)}
	w.order = append(w.order, def.Name)
	return nil
}

func (w *Writer) class(name string) (*class, error) {
	c, ok := w.classes[name]
	if !ok {
		return nil, fmt.Errorf("js: type %s not defined", name)
	}
	return c, nil
}

// DefineField records a field. Static fields are assigned after their
// class; instance fields exist once their initializer stores them.
func (w *Writer) DefineField(owner string, def target.FieldDef) error {
	c, err := w.class(owner)
	if err != nil {
		return err
	}
	for _, f := range c.fields {
		if f.Name == def.Name {
			return fmt.Errorf("js: field %s.%s already defined", owner, def.Name)
		}
	}
	c.fields = append(c.fields, def)
	return nil
}

// BeginMethod opens a method of a defined type.
func (w *Writer) BeginMethod(owner string, def target.MethodDef) (target.MethodSink, error) {
	c, err := w.class(owner)
	if err != nil {
		return nil, err
	}
	m := &method{owner: owner, def: def}
	switch def.Kind {
	case target.Constructor:
		for _, other := range c.ctors {
			if other.def.Descriptor == def.Descriptor {
				return nil, fmt.Errorf("js: constructor %s%s already defined", owner, def.Descriptor)
			}
		}
		c.ctors = append(c.ctors, m)
		return m, nil
	case target.StaticInit:
		if c.staticInit != nil {
			return nil, fmt.Errorf("js: static initializer of %s already defined", owner)
		}
		c.staticInit = m
		return m, nil
	}
	key := w.memberKey(def)
	if c.keys[key] {
		return nil, fmt.Errorf("js: member %s.%s already defined", owner, def.Name)
	}
	c.keys[key] = true
	if def.Kind == target.Getter || def.Kind == target.Setter {
		w.accessors[owner+"."+def.Name+def.Descriptor] = def.Kind
	}
	c.methods = append(c.methods, m)
	return m, nil
}

// memberKey identifies a member within its object literal. Native getters
// and setters share one property.
func (w *Writer) memberKey(def target.MethodDef) string {
	key := def.Name
	if def.Modifiers.Has(target.Static) {
		key = "static " + key
	}
	if w.ecma5 && (def.Kind == target.Getter || def.Kind == target.Setter) {
		key += "/" + def.Kind.String()
	}
	return key
}

// DefineNestedType records that inner is nested in outer. Nested classes
// are reached as properties of their outer class.
func (w *Writer) DefineNestedType(inner, outer string, _ target.Modifiers) error {
	if prev, ok := w.nested[inner]; ok {
		return fmt.Errorf("js: %s already nested in %s", inner, prev)
	}
	w.nested[inner] = outer
	return nil
}

// Types returns the defined type names in definition order.
func (w *Writer) Types() []string {
	return append([]string(nil), w.order...)
}

// ctorIndex returns the position of the constructor of owner with desc:
// zero for the initializer, n for init$n. Constructors of types outside
// the unit are initializers.
func (w *Writer) ctorIndex(owner, desc string) int {
	c, ok := w.classes[owner]
	if !ok {
		return 0
	}
	for i, m := range c.ctors {
		if m.def.Descriptor == desc {
			return i
		}
	}
	return 0
}

func (w *Writer) accessor(ref code.MethodRef) (target.MethodKind, bool) {
	if !w.ecma5 {
		return 0, false
	}
	k, ok := w.accessors[ref.Owner+"."+ref.Name+ref.Descriptor]
	return k, ok
}

func (m *method) Emit(s code.Stmt) {
	if m.done {
		panic("js: Emit after End on " + m.def.Name)
	}
	m.body = append(m.body, s)
}

func (m *method) End() error {
	if m.done {
		return fmt.Errorf("js: method %s ended twice", m.def.Name)
	}
	m.done = true
	return nil
}

// Truncate drops every type defined after the first n. Callers use it to
// discard the output of a class that failed to lower.
func (w *Writer) Truncate(n int) {
	if n >= len(w.order) {
		return
	}
	for _, name := range w.order[n:] {
		delete(w.classes, name)
		delete(w.nested, name)
	}
	w.order = w.order[:n]
}
