package classgen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/js"
	"github.com/broady/classgen/jvm"
	"github.com/broady/classgen/naming"
)

const diamondSource = `
package: demo
classes:
  - name: A
    kind: interface
    members:
      - fun: f
        body: [{return: ~}]
  - name: B
    kind: interface
    members:
      - fun: f
        body: [{return: ~}]
  - name: Both
    supertypes: [A, B]
  - name: Resolved
    supertypes: [A, B]
    members:
      - fun: f
        body: [{return: ~}]
      - fun: g
        body:
          - eval: {call: f}
          - return: ~
`

const registrySource = `
package: demo
classes:
  - name: Registry
    companion:
      members:
        - val: size
          type: Int
          value: {const: 3}
        - var: hits
          type: Int
          value: {const: 2}
    nested:
      - name: Entry
        constructor:
          params:
            - {name: key, type: String, property: val}
`

func mustLoad(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := ir.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return p
}

func mustClass(t *testing.T, p *ir.Program, name string) *ir.Class {
	t.Helper()
	c, ok := p.Class(name)
	if !ok {
		t.Fatalf("class %s not found", name)
	}
	return c
}

func classNames(w *jvm.Writer) []string {
	var names []string
	for _, cf := range w.Classes() {
		names = append(names, cf.Name)
	}
	return names
}

// blindOracle answers no call resolution queries.
type blindOracle struct{ *ir.Program }

func (blindOracle) ResolvedCall(*ir.Call) (*ir.ResolvedCall, bool) { return nil, false }

func TestLowerAndEmit_ParentFirst(t *testing.T) {
	p := mustLoad(t, registrySource)
	u := NewUnit(p)
	w := jvm.NewWriter()

	if diags := u.LowerAndEmit(context.Background(), mustClass(t, p, "demo.Registry"), w); len(diags) != 0 {
		t.Fatalf("LowerAndEmit() diagnostics = %v", diags)
	}
	names := classNames(w)
	if len(names) != 3 || names[0] != "demo/Registry" {
		t.Fatalf("classes = %v, want demo/Registry first of 3", names)
	}
	for _, want := range []string{"demo/Registry$object", "demo/Registry$Entry"} {
		if !slices.Contains(names, want) {
			t.Errorf("classes = %v, missing %s", names, want)
		}
	}

	reg, _ := w.Class("demo/Registry")
	clinit := reg.Method(naming.StaticInitName, "()V")
	if clinit == nil {
		t.Fatal("demo/Registry should have a static initializer")
	}
	listing := jvm.Listing(reg)
	for _, want := range []string{"object$", "hits"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestLowerAndEmit_Diagnostics(t *testing.T) {
	tests := []struct {
		name      string
		oracle    func(*ir.Program) ir.Oracle
		class     string
		wantCode  Code
		wantFatal bool
		wantErr   error
	}{
		{
			name:     "ambiguous delegation",
			oracle:   func(p *ir.Program) ir.Oracle { return p },
			class:    "demo.Both",
			wantCode: CodeAmbiguousDelegation,
		},
		{
			name:      "unresolved call",
			oracle:    func(p *ir.Program) ir.Oracle { return blindOracle{p} },
			class:     "demo.Resolved",
			wantCode:  CodeUnresolved,
			wantFatal: true,
			wantErr:   ir.ErrUnresolved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustLoad(t, diamondSource)
			u := NewUnit(tt.oracle(p))
			diags := u.LowerAndEmit(context.Background(), mustClass(t, p, tt.class), jvm.NewWriter())
			if len(diags) != 1 {
				t.Fatalf("diagnostics = %v, want 1", diags)
			}
			d := diags[0]
			if d.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", d.Code, tt.wantCode)
			}
			if d.Declaration != tt.class {
				t.Errorf("Declaration = %s, want %s", d.Declaration, tt.class)
			}
			if got := diags.FatalForUnit(); got != tt.wantFatal {
				t.Errorf("FatalForUnit() = %v, want %v", got, tt.wantFatal)
			}
			if tt.wantErr != nil && !errors.Is(diags.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want wrapping %v", diags.Err(), tt.wantErr)
			}
		})
	}
}

func TestLowerAndEmit_AmbiguousCandidates(t *testing.T) {
	p := mustLoad(t, diamondSource)
	diags := NewUnit(p).LowerAndEmit(context.Background(), mustClass(t, p, "demo.Both"), js.NewWriter(true))
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want 1", diags)
	}
	if diags[0].Member != "f" {
		t.Errorf("Member = %q, want f", diags[0].Member)
	}
	cands, _ := diags[0].Details["candidates"].([]string)
	if len(cands) != 2 {
		t.Errorf("candidates = %v, want 2", diags[0].Details["candidates"])
	}
}

func TestLowerAndEmit_Canceled(t *testing.T) {
	p := mustLoad(t, registrySource)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := jvm.NewWriter()
	if diags := NewUnit(p).LowerAndEmit(ctx, mustClass(t, p, "demo.Registry"), w); diags != nil {
		t.Errorf("LowerAndEmit() = %v, want no diagnostics on cancellation", diags)
	}
	if n := len(w.Classes()); n != 0 {
		t.Errorf("classes = %d, want 0", n)
	}
}

func TestUnit_MapperCache(t *testing.T) {
	p := mustLoad(t, registrySource)
	u := NewUnit(p)
	c := mustClass(t, p, "demo.Registry")

	a := u.Mapper(naming.JVM()).ClassName(c)
	b := u.Mapper(naming.JVM()).ClassName(c)
	if a != b || a != "demo/Registry" {
		t.Errorf("ClassName() = %q, %q, want demo/Registry twice", a, b)
	}
	if got := u.Mapper(naming.JS(true)).ClassName(c); got != "demo.Registry" {
		t.Errorf("JS ClassName() = %q, want demo.Registry", got)
	}
}
