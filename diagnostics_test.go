package classgen

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/synth"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantCode   Code
		wantMember string
		wantDecl   string
	}{
		{name: "canceled", err: context.Canceled, wantNil: true},
		{name: "deadline", err: fmt.Errorf("lower: %w", context.DeadlineExceeded), wantNil: true},
		{
			name:     "unresolved",
			err:      fmt.Errorf("body: %w", &ir.UnresolvedError{What: "call target", Subject: "next"}),
			wantCode: CodeUnresolved,
			wantDecl: "demo.Point",
		},
		{
			name: "member error",
			err: &synth.MemberError{
				Class: "demo.Enum.A", Member: "<init>", Reason: "more than one specifier", Err: synth.ErrUnsupported,
			},
			wantCode:   CodeUnsupported,
			wantMember: "<init>",
			wantDecl:   "demo.Enum.A",
		},
		{
			name:     "emitter",
			err:      emitError(errors.New("jvm: method f()V already defined")),
			wantCode: CodeEmit,
			wantDecl: "demo.Point",
		},
		{
			name:     "other",
			err:      errors.New("boom"),
			wantCode: CodeInternal,
			wantDecl: "demo.Point",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := classify("demo.Point", tt.err)
			if tt.wantNil {
				if d != nil {
					t.Errorf("classify() = %v, want nil", d)
				}
				return
			}
			if d == nil {
				t.Fatal("classify() = nil")
			}
			if d.Code != tt.wantCode || d.Member != tt.wantMember || d.Declaration != tt.wantDecl {
				t.Errorf("classify() = %s %s.%s, want %s %s.%s",
					d.Code, d.Declaration, d.Member, tt.wantCode, tt.wantDecl, tt.wantMember)
			}
			if !errors.Is(d, tt.err) {
				t.Errorf("classify() does not wrap %v", tt.err)
			}
		})
	}
}

func TestClassify_Details(t *testing.T) {
	d := classify("demo.Point", &ir.UnresolvedError{What: "expression type", Subject: "*ir.Binary"})
	if d.Details["query"] != "expression type" || d.Details["subject"] != "*ir.Binary" {
		t.Errorf("Details = %v", d.Details)
	}
	if want := "unresolved: demo.Point: unresolved binding: expression type missing for *ir.Binary"; d.Error() != want {
		t.Errorf("Error() = %q, want %q", d.Error(), want)
	}
}

func TestDiagnostic_WithDetail(t *testing.T) {
	d := &Diagnostic{Code: CodeEmit, Details: map[string]any{"a": 1}}
	d2 := d.WithDetail("b", 2)
	if len(d.Details) != 1 {
		t.Errorf("WithDetail modified the receiver: %v", d.Details)
	}
	if d2.Details["a"] != 1 || d2.Details["b"] != 2 {
		t.Errorf("WithDetail() details = %v", d2.Details)
	}
}

func TestDiagnostics(t *testing.T) {
	var none Diagnostics
	if none.Err() != nil || none.FatalForUnit() {
		t.Error("empty diagnostics should be neither an error nor fatal")
	}

	ds := Diagnostics{
		{Code: CodeAmbiguousDelegation, Declaration: "demo.Both", Member: "f", Message: "inherits more than one interface implementation"},
		{Code: CodeInternal, Declaration: "demo.X", Message: "boom"},
	}
	if !ds.FatalForUnit() {
		t.Error("internal diagnostics abort the unit")
	}
	want := "ambiguous_delegation: demo.Both.f: inherits more than one interface implementation\ninternal: demo.X: boom"
	if got := ds.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	var d *Diagnostic
	if !errors.As(ds.Err(), &d) || d.Code != CodeAmbiguousDelegation {
		t.Errorf("Err() should expose the first diagnostic, got %v", d)
	}
}

func TestCode_FatalForUnit(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeUnresolved, true},
		{CodeInternal, true},
		{CodeAmbiguousDelegation, false},
		{CodeUnsupported, false},
		{CodeEmit, false},
	}
	for _, tt := range tests {
		if got := tt.code.FatalForUnit(); got != tt.want {
			t.Errorf("%s.FatalForUnit() = %v, want %v", tt.code, got, tt.want)
		}
	}
}
