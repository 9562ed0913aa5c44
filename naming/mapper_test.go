package naming

import (
	"strings"
	"testing"

	"github.com/broady/classgen/ir"
)

const overloadProgram = `
package: demo
classes:
  - name: Base
    modality: open
    members:
      - fun: f
        visibility: private
        params: [{name: a, type: Int}, {name: b, type: Int}]
      - fun: f
        modality: open
      - fun: f
        visibility: internal
        params: [{name: s, type: String}]
      - fun: g
      - fun: g
        modality: open
        params: [{name: x, type: Int}]
  - name: Derived
    supertypes: [Base]
    members:
      - fun: f
        modality: open
      - fun: f
        params: [{name: x, type: Long}]
`

func mustLoad(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := ir.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return p
}

// function finds a function of c's member scope by name and parameter types.
func function(t *testing.T, p *ir.Program, class, name string, params ...string) *ir.Function {
	t.Helper()
	c, ok := p.Class(class)
	if !ok {
		t.Fatalf("class %s not found", class)
	}
	for _, m := range c.Members {
		f, ok := m.(*ir.Function)
		if !ok || f.Name != name || len(f.Params) != len(params) {
			continue
		}
		match := true
		for i, vp := range f.Params {
			if vp.Type.String() != params[i] {
				match = false
			}
		}
		if match {
			return f
		}
	}
	t.Fatalf("%s.%s(%s) not found", class, name, strings.Join(params, ", "))
	return nil
}

func TestMapper_OverloadNames(t *testing.T) {
	p := mustLoad(t, overloadProgram)
	m := New(JS(false), NewCache(), p)

	tests := []struct {
		class  string
		name   string
		params []string
		want   string
	}{
		{"demo.Base", "f", nil, "f"},
		{"demo.Base", "f", []string{"String"}, "f$1"},
		{"demo.Base", "f", []string{"Int", "Int"}, "f$2"},
		{"demo.Base", "g", []string{"Int"}, "g"},
		{"demo.Base", "g", nil, "g$1"},
		// The override reuses the overridden name; the inherited overload
		// keeps its suffix and the new overload takes the next free index.
		{"demo.Derived", "f", nil, "f"},
		{"demo.Derived", "f", []string{"String"}, "f$1"},
		{"demo.Derived", "f", []string{"Long"}, "f$2"},
	}
	for _, tt := range tests {
		t.Run(tt.class+"."+tt.want, func(t *testing.T) {
			f := function(t, p, tt.class, tt.name, tt.params...)
			if got := m.FunctionName(f); got != tt.want {
				t.Errorf("FunctionName() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMapper_OverloadNamesStable(t *testing.T) {
	p := mustLoad(t, overloadProgram)
	m := New(JS(false), NewCache(), p)

	// Resolving the subclass first must not change the base assignment.
	derived := m.FunctionName(function(t, p, "demo.Derived", "f", "Long"))
	base := m.FunctionName(function(t, p, "demo.Base", "f", "Int", "Int"))
	if derived != "f$2" || base != "f$2" {
		t.Errorf("names = %s, %s, want f$2, f$2", derived, base)
	}
}

func TestMapper_NoOverloadSuffixes(t *testing.T) {
	p := mustLoad(t, overloadProgram)
	m := New(JVM(), NewCache(), p)
	f := function(t, p, "demo.Base", "f", "Int", "Int")
	if got := m.FunctionName(f); got != "f" {
		t.Errorf("FunctionName() = %s, want f", got)
	}
}

func TestMapper_Accessors(t *testing.T) {
	prop := &ir.Property{Callable: ir.Callable{Name: "name"}, Type: ir.String(), Var: true}
	upper := &ir.Property{Callable: ir.Callable{Name: "uRL"}, Type: ir.String()}

	tests := []struct {
		style      Style
		wantGet    string
		wantSet    string
		wantField  string
		wantUpperG string
	}{
		{JVM(), "getName", "setName", "name", "getuRL"},
		{JS(false), "get_name", "set_name", "$name", "get_uRL"},
		{JS(true), "name", "name", "$name", "uRL"},
	}
	for _, tt := range tests {
		t.Run(tt.style.Key(), func(t *testing.T) {
			m := New(tt.style, nil, ir.NewProgram())
			if got := m.GetterName(prop); got != tt.wantGet {
				t.Errorf("GetterName() = %s, want %s", got, tt.wantGet)
			}
			if got := m.SetterName(prop); got != tt.wantSet {
				t.Errorf("SetterName() = %s, want %s", got, tt.wantSet)
			}
			if got := m.FieldName(prop); got != tt.wantField {
				t.Errorf("FieldName() = %s, want %s", got, tt.wantField)
			}
			if got := m.GetterName(upper); got != tt.wantUpperG {
				t.Errorf("GetterName(uRL) = %s, want %s", got, tt.wantUpperG)
			}
		})
	}
}

func TestMapper_Descriptor(t *testing.T) {
	p := ir.NewProgram()
	outer := &ir.Class{Name: "demo.Outer", Package: "demo"}
	outer.Nested = []*ir.Class{{Name: "demo.Outer.Inner", Package: "demo"}}
	p.AddClass(outer)
	m := New(JVM(), nil, p)

	tests := []struct {
		name string
		typ  *ir.Type
		want string
	}{
		{"int", ir.Int(), "I"},
		{"long", ir.Long(), "J"},
		{"boolean", ir.Boolean(), "Z"},
		{"unit", ir.Unit(), "V"},
		{"nullable int", ir.Nullable(ir.Int()), "Ljava/lang/Integer;"},
		{"string", ir.String(), "Ljava/lang/String;"},
		{"any", ir.Any(), "Ljava/lang/Object;"},
		{"int array", ir.ArrayOf(ir.Int()), "[I"},
		{"string array", ir.ArrayOf(ir.String()), "[Ljava/lang/String;"},
		{"nested", ir.ClassType("demo.Outer.Inner"), "Ldemo/Outer$Inner;"},
		{"type parameter", ir.ParamType("T"), "Ljava/lang/Object;"},
		{"external", ir.ClassType("lib.Thing"), "Llib/Thing;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Descriptor(tt.typ); got != tt.want {
				t.Errorf("Descriptor(%s) = %s, want %s", tt.typ, got, tt.want)
			}
		})
	}

	got := m.MethodDescriptor([]*ir.Type{ir.Int(), ir.String()}, ir.Boolean())
	if got != "(ILjava/lang/String;)Z" {
		t.Errorf("MethodDescriptor() = %s", got)
	}
}

func TestMapper_ClassSignature(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Box
    kind: interface
    typeParams: [T]
  - name: IntBox
    supertypes: ["Box<Int>"]
  - name: Holder
    typeParams: [T]
    supertypes: ["Box<T>"]
`)
	jvm := New(JVM(), nil, p)
	tests := []struct {
		class string
		want  string
	}{
		{"demo.Box", "<T:Ljava/lang/Object;>Ljava/lang/Object;"},
		{"demo.IntBox", ""},
		{"demo.Holder", "<T:Ljava/lang/Object;>Ljava/lang/Object;Ldemo/Box<TT;>;"},
	}
	for _, tt := range tests {
		c, _ := p.Class(tt.class)
		if got := jvm.ClassSignature(c); got != tt.want {
			t.Errorf("ClassSignature(%s) = %q, want %q", tt.class, got, tt.want)
		}
	}

	box, _ := p.Class("demo.Box")
	if got := New(JS(true), nil, p).ClassSignature(box); got != "" {
		t.Errorf("JS ClassSignature() = %q, want none", got)
	}
}

func TestMapper_ClassNames(t *testing.T) {
	p := ir.NewProgram()
	a := &ir.Class{Name: "demo.a-b", Package: "demo"}
	b := &ir.Class{Name: "demo.a_b", Package: "demo"}
	reserved := &ir.Class{Name: "demo.delete", Package: "demo"}
	outer := &ir.Class{Name: "demo.Outer", Package: "demo"}
	inner := &ir.Class{Name: "demo.Outer.Inner", Package: "demo"}
	outer.Nested = []*ir.Class{inner}
	for _, c := range []*ir.Class{a, b, reserved, outer} {
		p.AddClass(c)
	}

	js := New(JS(false), NewCache(), p)
	jvm := New(JVM(), NewCache(), p)
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"first keeps name", js.ClassName(a), "demo.a_b"},
		{"clash suffixed", js.ClassName(b), "demo.a_b_0"},
		{"stable", js.ClassName(a), "demo.a_b"},
		{"reserved word", js.ClassName(reserved), "demo.delete_"},
		{"js nested", js.ClassName(inner), "demo.Outer.Inner"},
		{"jvm nested", jvm.ClassName(inner), "demo/Outer$Inner"},
		{"jvm trait impl", jvm.TraitImplName(outer), "demo/Outer$$TImpl"},
		{"js trait impl", js.TraitImplName(outer), "demo.Outer$TImpl"},
		{"jvm super", jvm.SuperName(outer), "java/lang/Object"},
		{"js enum base", js.ClassRef(ir.EnumName), "Kotlin.Enum"},
		{"simple name", js.SimpleName(b), "a_b_0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestMapper_SignatureKey(t *testing.T) {
	m := New(JVM(), nil, ir.NewProgram())
	a := m.Method("equals", []Param{{Name: "other", Type: ir.Nullable(ir.Any())}}, ir.Boolean(), false)
	b := m.Method("equals", []Param{{Name: "o", Type: ir.Any()}}, ir.Boolean(), false)
	if a.Key() != b.Key() {
		t.Errorf("Key() %s != %s; erased parameter types match", a.Key(), b.Key())
	}
	if a.Key() != "equals(Ljava/lang/Object;)" {
		t.Errorf("Key() = %s", a.Key())
	}
	if got := m.SourceKey("hashCode", nil); got != "hashCode()" {
		t.Errorf("SourceKey() = %s, want hashCode()", got)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"delete", "delete_"},
		{"1st", "_1st"},
		{"a-b", "a_b"},
		{"$x", "$x"},
		{"", "_"},
		{"eval", "eval_"},
		{"x y", "x_y"},
		{"\u0663d", "_\u0663d"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
