package jvm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

// Writer accumulates class files. It implements target.Emitter.
type Writer struct {
	classes map[string]*ClassFile
	order   []string
	nesting []InnerClass
}

var _ target.Emitter = (*Writer)(nil)

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{classes: make(map[string]*ClassFile)}
}

// NamingStyle returns the JVM naming style.
func (w *Writer) NamingStyle() naming.Style { return naming.JVM() }

// DefineType starts a class file.
func (w *Writer) DefineType(def target.TypeDef) error {
	if _, ok := w.classes[def.Name]; ok {
		return fmt.Errorf("jvm: class %s already defined", def.Name)
	}
	cf := &ClassFile{
		Name:       def.Name,
		Access:     ClassAccess(def.Modifiers),
		Super:      def.Super,
		Interfaces: append([]string(nil), def.Interfaces...),
		Signature:  def.Signature,
	}
	if cf.Super == "" {
		cf.Super = objectClass
	}
	for _, ic := range w.nesting {
		if ic.Inner == def.Name || ic.Outer == def.Name {
			cf.InnerClasses = append(cf.InnerClasses, ic)
		}
	}
	w.classes[def.Name] = cf
	w.order = append(w.order, def.Name)
	return nil
}

func (w *Writer) class(name string) (*ClassFile, error) {
	cf, ok := w.classes[name]
	if !ok {
		return nil, fmt.Errorf("jvm: class %s not defined", name)
	}
	return cf, nil
}

// DefineField adds a field to a defined class.
func (w *Writer) DefineField(owner string, def target.FieldDef) error {
	cf, err := w.class(owner)
	if err != nil {
		return err
	}
	if cf.Field(def.Name) != nil {
		return fmt.Errorf("jvm: field %s.%s already defined", owner, def.Name)
	}
	cf.Fields = append(cf.Fields, &Field{
		Name:       def.Name,
		Descriptor: def.Descriptor,
		Access:     MemberAccess(def.Modifiers),
		Constant:   ConstantValue(def.Constant),
	})
	return nil
}

// BeginMethod opens a method of a defined class. The method is added when
// its sink ends.
func (w *Writer) BeginMethod(owner string, def target.MethodDef) (target.MethodSink, error) {
	cf, err := w.class(owner)
	if err != nil {
		return nil, err
	}
	if def.Kind == target.StaticInit {
		def.Name, def.Descriptor = naming.StaticInitName, "()V"
		def.Modifiers |= target.Static
	}
	if cf.Method(def.Name, def.Descriptor) != nil {
		return nil, fmt.Errorf("jvm: method %s.%s%s already defined", owner, def.Name, def.Descriptor)
	}
	return &methodSink{cf: cf, def: def}, nil
}

// DefineNestedType records an InnerClasses entry in both classes.
func (w *Writer) DefineNestedType(inner, outer string, mods target.Modifiers) error {
	ic := InnerClass{
		Inner:  inner,
		Outer:  outer,
		Name:   strings.TrimPrefix(inner, outer+"$"),
		Access: MemberAccess(mods),
	}
	for _, existing := range w.nesting {
		if existing.Inner == inner {
			return fmt.Errorf("jvm: %s already nested in %s", inner, existing.Outer)
		}
	}
	w.nesting = append(w.nesting, ic)
	for _, name := range []string{outer, inner} {
		if cf, ok := w.classes[name]; ok {
			cf.InnerClasses = append(cf.InnerClasses, ic)
		}
	}
	return nil
}

// Classes returns the class files in definition order.
func (w *Writer) Classes() []*ClassFile {
	out := make([]*ClassFile, len(w.order))
	for i, name := range w.order {
		out[i] = w.classes[name]
	}
	return out
}

// Class returns the class file named name.
func (w *Writer) Class(name string) (*ClassFile, bool) {
	cf, ok := w.classes[name]
	return cf, ok
}

type methodSink struct {
	cf   *ClassFile
	def  target.MethodDef
	body []code.Stmt
	done bool
}

func (s *methodSink) Emit(st code.Stmt) {
	if s.done {
		panic("jvm: Emit after End on " + s.def.Name)
	}
	s.body = append(s.body, st)
}

func (s *methodSink) End() error {
	if s.done {
		return fmt.Errorf("jvm: method %s ended twice", s.def.Name)
	}
	s.done = true
	m, err := newSelector(s.def).method(s.body)
	if err != nil {
		return fmt.Errorf("jvm: %s: %w", s.cf.Name, err)
	}
	s.cf.Methods = append(s.cf.Methods, m)
	return nil
}

// Truncate drops every class defined after the first n, with the nesting
// entries that mention them. Callers use it to discard the output of a
// class that failed to lower.
func (w *Writer) Truncate(n int) {
	if n >= len(w.order) {
		return
	}
	dropped := make(map[string]bool)
	for _, name := range w.order[n:] {
		dropped[name] = true
		delete(w.classes, name)
	}
	w.order = w.order[:n]
	keep := func(ic InnerClass) bool { return !dropped[ic.Inner] && !dropped[ic.Outer] }
	w.nesting = slices.DeleteFunc(w.nesting, func(ic InnerClass) bool { return !keep(ic) })
	for _, cf := range w.classes {
		cf.InnerClasses = slices.DeleteFunc(cf.InnerClasses, func(ic InnerClass) bool { return !keep(ic) })
	}
}
