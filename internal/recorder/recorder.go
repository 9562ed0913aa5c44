// Package recorder implements target.Emitter by keeping every definition
// as it was received. Tests use it to observe the emitter calls of a unit
// and to evaluate the recorded bodies with package interp.
package recorder

import (
	"fmt"
	"strings"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

// Recorder records the definitions of one unit.
type Recorder struct {
	style naming.Style

	Types   []target.TypeDef
	Fields  []*Field
	Methods []*Method
	Nested  []Nesting

	// Calls lists the emitter calls in order, e.g. "DefineType demo/Point".
	Calls []string
}

var _ target.Emitter = (*Recorder)(nil)

// Field is a recorded field definition.
type Field struct {
	Owner string
	target.FieldDef
}

// Method is a recorded method and its body.
type Method struct {
	Owner string
	target.MethodDef
	Body  []code.Stmt
	Ended bool
}

// Nesting is a recorded nesting link.
type Nesting struct {
	Inner, Outer string
	Modifiers    target.Modifiers
}

// New returns a recorder that reports style from NamingStyle.
func New(style naming.Style) *Recorder {
	return &Recorder{style: style}
}

func (r *Recorder) NamingStyle() naming.Style { return r.style }

func (r *Recorder) DefineType(def target.TypeDef) error {
	if _, ok := r.Type(def.Name); ok {
		return fmt.Errorf("recorder: type %s already defined", def.Name)
	}
	r.Types = append(r.Types, def)
	r.Calls = append(r.Calls, "DefineType "+def.Name)
	return nil
}

func (r *Recorder) DefineField(owner string, def target.FieldDef) error {
	if _, ok := r.Type(owner); !ok {
		return fmt.Errorf("recorder: field %s of undefined type %s", def.Name, owner)
	}
	r.Fields = append(r.Fields, &Field{Owner: owner, FieldDef: def})
	r.Calls = append(r.Calls, "DefineField "+owner+"."+def.Name)
	return nil
}

func (r *Recorder) BeginMethod(owner string, def target.MethodDef) (target.MethodSink, error) {
	if _, ok := r.Type(owner); !ok {
		return nil, fmt.Errorf("recorder: method %s of undefined type %s", def.Name, owner)
	}
	if r.Method(owner, def.Name, def.Descriptor) != nil {
		return nil, fmt.Errorf("recorder: method %s.%s%s already defined", owner, def.Name, def.Descriptor)
	}
	m := &Method{Owner: owner, MethodDef: def}
	r.Methods = append(r.Methods, m)
	r.Calls = append(r.Calls, "BeginMethod "+owner+"."+def.Name+def.Descriptor)
	return m, nil
}

func (r *Recorder) DefineNestedType(inner, outer string, mods target.Modifiers) error {
	r.Nested = append(r.Nested, Nesting{Inner: inner, Outer: outer, Modifiers: mods})
	r.Calls = append(r.Calls, "DefineNestedType "+inner+" in "+outer)
	return nil
}

// Type returns the definition of the type named name.
func (r *Recorder) Type(name string) (target.TypeDef, bool) {
	for _, t := range r.Types {
		if t.Name == name {
			return t, true
		}
	}
	return target.TypeDef{}, false
}

// Field returns the field of owner named name, or nil.
func (r *Recorder) Field(owner, name string) *Field {
	for _, f := range r.Fields {
		if f.Owner == owner && f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the method of owner with name and descriptor, or nil. An
// empty descriptor matches the first method named name.
func (r *Recorder) Method(owner, name, desc string) *Method {
	for _, m := range r.Methods {
		if m.Owner == owner && m.Name == name && (desc == "" || m.Descriptor == desc) {
			return m
		}
	}
	return nil
}

// MethodsOf returns the methods of owner in definition order.
func (r *Recorder) MethodsOf(owner string) []*Method {
	var out []*Method
	for _, m := range r.Methods {
		if m.Owner == owner {
			out = append(out, m)
		}
	}
	return out
}

// Listing renders owner's methods with their bodies, one block per method.
func (r *Recorder) Listing(owner string) string {
	var sb strings.Builder
	for _, m := range r.MethodsOf(owner) {
		fmt.Fprintf(&sb, "%s%s [%s]\n", m.Name, m.Descriptor, m.Modifiers)
		for _, line := range strings.Split(strings.TrimSuffix(code.Format(m.Body), "\n"), "\n") {
			if line != "" {
				sb.WriteString("  " + line + "\n")
			}
		}
	}
	return sb.String()
}

func (m *Method) Emit(s code.Stmt) {
	if m.Ended {
		panic("recorder: Emit after End on " + m.Name)
	}
	m.Body = append(m.Body, s)
}

func (m *Method) End() error {
	if m.Ended {
		return fmt.Errorf("recorder: method %s ended twice", m.Name)
	}
	m.Ended = true
	return nil
}
