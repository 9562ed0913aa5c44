package ir

import (
	"strings"
	"testing"
)

func TestProgram_Validate(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Program
		wantCode string
	}{
		{
			name: "duplicate class",
			build: func() *Program {
				p := NewProgram()
				p.AddClass(&Class{Name: "demo.A"})
				p.AddClass(&Class{Name: "demo.A"})
				return p
			},
			wantCode: "duplicate_class",
		},
		{
			name: "unknown supertype",
			build: func() *Program {
				p := NewProgram()
				p.AddClass(&Class{Name: "demo.A", Supertypes: []*Type{ClassType("demo.Missing")}})
				return p
			},
			wantCode: "missing_supertype",
		},
		{
			name: "two class supertypes",
			build: func() *Program {
				p := NewProgram()
				p.AddClass(&Class{Name: "demo.B", Modality: Open})
				p.AddClass(&Class{Name: "demo.C", Modality: Open})
				p.AddClass(&Class{Name: "demo.A", Supertypes: []*Type{ClassType("demo.B"), ClassType("demo.C")}})
				return p
			},
			wantCode: "multiple_class_supertypes",
		},
		{
			name: "cycle",
			build: func() *Program {
				p := NewProgram()
				p.AddClass(&Class{Name: "demo.A", Kind: KindInterface, Supertypes: []*Type{ClassType("demo.B")}})
				p.AddClass(&Class{Name: "demo.B", Kind: KindInterface, Supertypes: []*Type{ClassType("demo.A")}})
				return p
			},
			wantCode: "circular_inheritance",
		},
		{
			name: "entries outside enum",
			build: func() *Program {
				p := NewProgram()
				p.AddClass(&Class{Name: "demo.A", Entries: []*EnumEntry{{Name: "X"}}})
				return p
			},
			wantCode: "entries_outside_enum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.build().Validate()
			found := false
			for _, err := range errs {
				if ve, ok := err.(*ValidationError); ok && ve.Code == tt.wantCode {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error with code %s", errs, tt.wantCode)
			}
		})
	}
}

func TestProgram_ValidateClean(t *testing.T) {
	p := NewProgram()
	p.AddClass(&Class{Name: "demo.I", Kind: KindInterface})
	p.AddClass(&Class{Name: "demo.A", Supertypes: []*Type{Any(), ClassType("demo.I")}})
	if errs := p.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestProgram_TypeOf(t *testing.T) {
	p := NewProgram()
	c := &Class{Name: "demo.A"}
	p.AddClass(c)
	param := &ValueParameter{Name: "x", Type: Long()}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"const", &Const{Value: int64(1), Type: Int()}, "Int"},
		{"param", &ParamRef{Param: param}, "Long"},
		{"this", &This{Class: c}, "A"},
		{"template", &Template{}, "String"},
		{"comparison", &Binary{Op: OpEq, Left: &ParamRef{Param: param}, Right: &ParamRef{Param: param}}, "Boolean"},
		{"string concat", &Binary{Op: OpAdd, Left: &ParamRef{Param: param}, Right: &Const{Value: "s", Type: String()}}, "String"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.TypeOf(tt.expr)
			if !ok {
				t.Fatal("TypeOf() not resolved")
			}
			if got.String() != tt.want {
				t.Errorf("TypeOf() = %s, want %s", got, tt.want)
			}
		})
	}

	call := &Call{Callee: "missing"}
	if _, err := ResolvedCallOrErr(p, call); err == nil || !strings.Contains(err.Error(), "call target") {
		t.Errorf("ResolvedCallOrErr() error = %v, want call target miss", err)
	}
}

func TestProgram_ClosureDefaults(t *testing.T) {
	p := NewProgram()
	outer := &Class{Name: "demo.Outer"}
	inner := &Class{Name: "demo.Outer.Inner", Inner: true}
	nested := &Class{Name: "demo.Outer.Nested"}
	outer.Nested = []*Class{inner, nested}
	p.AddClass(outer)

	if got := p.ClosureOf(inner).OuterThis; got != outer {
		t.Errorf("inner closure OuterThis = %v, want Outer", got)
	}
	if !p.ClosureOf(nested).IsEmpty() {
		t.Error("nested (non-inner) class should capture nothing")
	}
}
