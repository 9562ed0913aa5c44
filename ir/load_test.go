package ir

import (
	"strings"
	"testing"
)

func TestLoad_DataClass(t *testing.T) {
	p := mustLoad(t, `
package: geo
classes:
  - name: Point
    data: true
    constructor:
      params:
        - {name: x, type: Int, property: val}
        - {name: y, type: Int, property: var, default: {const: 0}}
        - {name: label, type: "String?"}
    members:
      - val: norm
        type: Int
        value: {op: "+", left: {prop: x}, right: {prop: y}}
      - fun: describe
        returns: String
        body:
          - return: {template: [{const: "p="}, {prop: x}]}
`)
	c := mustClass(t, p, "geo.Point")
	props := c.DataProperties()
	if len(props) != 2 {
		t.Fatalf("DataProperties() = %d, want 2", len(props))
	}
	if props[0].Name != "x" || props[0].Var {
		t.Errorf("first property = %s var=%v, want val x", props[0].Name, props[0].Var)
	}
	if !props[1].Var || props[1].Param.Default == nil {
		t.Error("y should be a var with a default")
	}
	if !c.PrimaryConstructor().Params[2].Type.Nullable {
		t.Error("label should be nullable")
	}

	norm := c.Properties()[0]
	if _, ok := norm.Initializer.(*Binary); !ok {
		t.Errorf("norm initializer = %T, want *Binary", norm.Initializer)
	}
	if !norm.BackingField {
		t.Error("norm should have a backing field")
	}
}

func TestLoad_EnumAndCompanion(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Color
    kind: enum
    constructor:
      params:
        - {name: rgb, type: Int, property: val}
    entries:
      - name: RED
        args: [{const: 0xff0000}]
      - name: GREEN
        args: [{const: 0x00ff00}]
        members:
          - fun: toString
            modality: open
            returns: String
            body:
              - return: {const: "green"}
  - name: Registry
    companion:
      members:
        - val: size
          type: Int
          value: {const: 3}
`)
	color := mustClass(t, p, "demo.Color")
	if len(color.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(color.Entries))
	}
	green := color.Entries[1]
	if green.Ordinal != 1 || green.Body == nil {
		t.Fatalf("GREEN ordinal=%d body=%v", green.Ordinal, green.Body)
	}
	if green.Body.Kind != KindEnumEntry {
		t.Errorf("GREEN body kind = %s, want EnumEntry", green.Body.Kind)
	}
	sc, ok := green.Body.Supertypes[0], len(green.Body.Supertypes) == 1
	if !ok || sc.Class != "demo.Color" {
		t.Errorf("GREEN body supertypes = %v, want [Color]", green.Body.Supertypes)
	}
	call, ok := color.Entries[0].Delegations[0].(*SuperCall)
	if !ok {
		t.Fatal("RED should carry a super call")
	}
	r, ok := p.ResolvedCall(call.Call)
	if !ok || r.Constructor == nil {
		t.Fatal("RED super call should resolve to a constructor")
	}
	if v := r.Args[0].(*Const).Value; v != int64(0xff0000) {
		t.Errorf("RED argument = %v, want 0xff0000", v)
	}

	reg := mustClass(t, p, "demo.Registry")
	if reg.Companion == nil || reg.Companion.Kind != KindCompanion {
		t.Fatal("Registry should have a companion")
	}
	if reg.Companion.Name != "demo.Registry.object" {
		t.Errorf("companion name = %s", reg.Companion.Name)
	}
	if !reg.Companion.BackingFieldsInOuter() {
		t.Error("companion of a class keeps backing fields in the outer class")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown field",
			src:     "classes:\n  - name: A\n    colour: red\n",
			wantErr: "colour",
		},
		{
			name:    "unknown type",
			src:     "classes:\n  - name: A\n    constructor:\n      params:\n        - {name: x, type: Nope}\n",
			wantErr: `unknown type "Nope"`,
		},
		{
			name:    "unknown kind",
			src:     "classes:\n  - name: A\n    kind: struct\n",
			wantErr: `unknown class kind "struct"`,
		},
		{
			name:    "missing parameter",
			src:     "classes:\n  - name: A\n    members:\n      - val: v\n        type: Int\n        value: {param: q}\n",
			wantErr: "unknown parameter q",
		},
		{
			name:    "outer property from nested class",
			src:     "classes:\n  - name: A\n    members:\n      - {val: v, type: Int, value: {const: 1}}\n    nested:\n      - name: N\n        members:\n          - fun: f\n            returns: Int\n            body:\n              - return: {prop: v}\n",
			wantErr: "unknown property v of",
		},
		{
			name:    "missing supertype",
			src:     "classes:\n  - name: A\n    supertypes: [B]\n",
			wantErr: `unknown type "B"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Closure(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Outer
    closure:
      privateAccess:
        - {member: secret}
    members:
      - val: secret
        visibility: private
        type: Int
        value: {const: 7}
    nested:
      - name: Inner
        inner: true
        closure:
          captured:
            - {name: n, type: Int}
`)
	inner := mustClass(t, p, "demo.Outer.Inner")
	cl := p.ClosureOf(inner)
	if cl.OuterThis == nil || cl.OuterThis.Name != "demo.Outer" {
		t.Errorf("Inner OuterThis = %v, want Outer", cl.OuterThis)
	}
	if len(cl.Captured) != 1 || cl.Captured[0].Name != "n" {
		t.Errorf("Inner captured = %v", cl.Captured)
	}
	outer := mustClass(t, p, "demo.Outer")
	acc := p.ClosureOf(outer).PrivateAccess
	if len(acc) != 1 || acc[0].Kind != AccessGet {
		t.Errorf("Outer private access = %v, want one getter access", acc)
	}
}

func TestLoad_Constants(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Consts
    members:
      - {val: i, type: Int, value: {const: 1}}
      - {val: hex, type: Int, value: {const: 0x10}}
      - {val: l, type: Long, value: {const: 5, type: Long}}
      - {val: d, type: Double, value: {const: 1.5}}
      - {val: f, type: Float, value: {const: 2, type: Float}}
      - {val: b, type: Boolean, value: {const: true}}
      - {val: s, type: String, value: {const: "hi"}}
      - {val: q, type: String, value: {const: "12"}}
      - {val: c, type: Char, value: {char: "x"}}
      - {val: n, type: "String?", value: {nil: true, type: "String?"}}
      - {val: a, type: "Any?", value: {nil: true}}
`)
	c := mustClass(t, p, "demo.Consts")
	tests := []struct {
		prop     string
		wantVal  any
		wantType string
	}{
		{"i", int64(1), "Int"},
		{"hex", int64(16), "Int"},
		{"l", int64(5), "Long"},
		{"d", 1.5, "Double"},
		{"f", float64(2), "Float"},
		{"b", true, "Boolean"},
		{"s", "hi", "String"},
		{"q", "12", "String"},
		{"c", 'x', "Char"},
		{"n", nil, "String?"},
		{"a", nil, "Any?"},
	}
	props := make(map[string]*Property)
	for _, pr := range c.Properties() {
		props[pr.Name] = pr
	}
	for _, tt := range tests {
		t.Run(tt.prop, func(t *testing.T) {
			pr := props[tt.prop]
			if pr == nil {
				t.Fatalf("property %s not loaded", tt.prop)
			}
			k, ok := pr.Initializer.(*Const)
			if !ok {
				t.Fatalf("initializer = %T, want *Const", pr.Initializer)
			}
			if k.Value != tt.wantVal {
				t.Errorf("value = %#v, want %#v", k.Value, tt.wantVal)
			}
			if got := k.Type.String(); got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestLoad_InnerPropertyRef(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Outer
    members:
      - val: secret
        visibility: private
        type: Int
        value: {const: 7}
    nested:
      - name: Inner
        inner: true
        members:
          - fun: read
            returns: Int
            body:
              - return: {prop: secret}
`)
	inner := mustClass(t, p, "demo.Outer.Inner")
	read := inner.Functions()[0]
	ret, ok := read.Body[0].(*Return)
	if !ok {
		t.Fatalf("body[0] = %T, want *Return", read.Body[0])
	}
	ref, ok := ret.Value.(*PropertyRef)
	if !ok {
		t.Fatalf("return value = %T, want *PropertyRef", ret.Value)
	}
	if ref.Receiver != nil || ref.Property.Owner.Name != "demo.Outer" {
		t.Errorf("secret resolved to %s with receiver %v, want demo.Outer implicitly", ref.Property.Owner.Name, ref.Receiver)
	}
}
