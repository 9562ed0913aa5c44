package ir

import (
	"strings"
	"testing"
)

const diamondProgram = `
package: demo
classes:
  - name: Greeter
    kind: interface
    members:
      - fun: greet
        returns: String
        body:
          - return: {const: "hello"}
      - fun: name
        returns: String
  - name: Base
    modality: open
    supertypes: [Greeter]
    members:
      - fun: name
        modality: open
        returns: String
        body:
          - return: {const: "base"}
  - name: Impl
    supertypes: [Base]
  - name: Direct
    supertypes: [Greeter]
    members:
      - fun: name
        returns: String
        body:
          - return: {const: "direct"}
`

func mustLoad(t *testing.T, src string) *Program {
	t.Helper()
	p, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return p
}

func mustClass(t *testing.T, p *Program, name string) *Class {
	t.Helper()
	c, ok := p.Class(name)
	if !ok {
		t.Fatalf("class %s not found", name)
	}
	return c
}

func findMember(c *Class, name string) Member {
	for _, m := range c.Members {
		if m.Base().Name == name {
			return m
		}
	}
	return nil
}

func TestLink_FabricatesOverrides(t *testing.T) {
	p := mustLoad(t, diamondProgram)

	direct := mustClass(t, p, "demo.Direct")
	greet := findMember(direct, "greet")
	if greet == nil {
		t.Fatal("Direct should inherit greet")
	}
	if greet.Base().Kind != KindFakeOverride {
		t.Errorf("Direct.greet kind = %s, want FakeOverride", greet.Base().Kind)
	}
	if greet.Base().Modality == Abstract {
		t.Error("Direct.greet should not be abstract: the interface provides a body")
	}

	name := findMember(direct, "name")
	if name.Base().Kind != KindDeclaration {
		t.Errorf("Direct.name kind = %s, want Declaration", name.Base().Kind)
	}
	if len(name.Base().Overridden) != 1 || name.Base().Overridden[0].Base().Owner.Name != "demo.Greeter" {
		t.Errorf("Direct.name should override Greeter.name, got %v", name.Base().Overridden)
	}
}

func TestOverriddenDeclarations_ThroughSuperclass(t *testing.T) {
	p := mustLoad(t, diamondProgram)
	impl := mustClass(t, p, "demo.Impl")
	greet := findMember(impl, "greet")
	if greet == nil {
		t.Fatal("Impl should inherit greet")
	}

	decls := OverriddenDeclarations(p, greet)
	if len(decls) != 1 {
		t.Fatalf("OverriddenDeclarations() = %d members, want 1", len(decls))
	}
	if got := QualifiedName(decls[0]); got != "demo.Greeter.greet" {
		t.Errorf("OverriddenDeclarations()[0] = %s, want demo.Greeter.greet", got)
	}

	supers := AllSupertypes(p, SuperClassOf(p, impl))
	if !supers["demo.Greeter"] {
		t.Errorf("AllSupertypes(Base) = %v, want to include demo.Greeter", supers)
	}
}

func TestFilterOverrides(t *testing.T) {
	p := mustLoad(t, diamondProgram)
	base := mustClass(t, p, "demo.Base")
	greeter := mustClass(t, p, "demo.Greeter")

	baseName := findMember(base, "name")
	ifaceName := findMember(greeter, "name")

	got := FilterOverrides(p, []Member{ifaceName, baseName})
	if len(got) != 1 || got[0] != baseName {
		t.Errorf("FilterOverrides() kept %d members, want only Base.name", len(got))
	}
}

func TestLink_Delegation(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Source
    kind: interface
    members:
      - fun: next
        returns: Int
  - name: Wrapper
    supertypes: [Source]
    constructor:
      params:
        - {name: inner, type: Source, property: val}
    delegations:
      - by: Source
        expr: {param: inner}
`)
	w := mustClass(t, p, "demo.Wrapper")
	next := findMember(w, "next")
	if next == nil {
		t.Fatal("Wrapper should have next in scope")
	}
	if next.Base().Kind != KindDelegation {
		t.Errorf("Wrapper.next kind = %s, want Delegation", next.Base().Kind)
	}
	if next.Base().IsAbstract() {
		t.Error("delegated member should not be abstract")
	}
}

func TestLink_GenericSubstitution(t *testing.T) {
	p := mustLoad(t, `
package: demo
classes:
  - name: Box
    kind: interface
    typeParams: [T]
    members:
      - fun: get
        returns: T
        body:
          - return: {nil: true, type: "T"}
  - name: StringBox
    supertypes: ["Box<String>"]
`)
	sb := mustClass(t, p, "demo.StringBox")
	get, ok := findMember(sb, "get").(*Function)
	if !ok {
		t.Fatal("StringBox.get should be a function")
	}
	if !get.Return.Equal(String()) {
		t.Errorf("StringBox.get returns %s, want String", get.Return)
	}
}
