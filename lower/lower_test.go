package lower

import (
	"slices"
	"strings"
	"testing"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/synth"
)

type fixture struct {
	t  *testing.T
	p  *ir.Program
	lw *Lowerer
	l  *synth.Layout
}

func load(t *testing.T, src string) *fixture {
	t.Helper()
	p, err := ir.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	l := synth.NewLayout(naming.New(naming.JVM(), nil, p))
	return &fixture{t: t, p: p, lw: New(l), l: l}
}

func (f *fixture) plan(class string) *synth.Plan {
	f.t.Helper()
	c, ok := f.p.Class(class)
	if !ok {
		f.t.Fatalf("class %s not found", class)
	}
	plan, err := synth.Synthesize(c, f.l)
	if err != nil {
		f.t.Fatalf("Synthesize(%s) error = %v", class, err)
	}
	return plan
}

// lower lowers the n-th member of plan named name.
func (f *fixture) lower(plan *synth.Plan, name string, n int) *Lowered {
	f.t.Helper()
	for _, m := range plan.Members {
		if m.Signature.Name != name {
			continue
		}
		if n > 0 {
			n--
			continue
		}
		low, err := f.lw.Member(plan, m)
		if err != nil {
			f.t.Fatalf("Member(%s) error = %v", name, err)
		}
		return low
	}
	f.t.Fatalf("member %s not planned in %s", name, plan.Class.Name)
	return nil
}

func (f *fixture) body(class, name string) string {
	f.t.Helper()
	return code.Format(f.lower(f.plan(class), name, 0).Body)
}

func checkContains(t *testing.T, got string, want []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("body missing %q\n%s", w, got)
		}
	}
}

const workerProgram = `
package: demo
classes:
  - name: Source
    kind: interface
    members:
      - fun: next
        returns: Int
  - name: Base
    modality: open
    constructor:
      params:
        - {name: seed, type: Int}
  - name: Worker
    supertypes: [Base, Source]
    closure:
      captured:
        - {name: a, type: Int}
        - {name: b, type: String}
    constructor:
      params:
        - {name: x, type: Int, property: val}
        - {name: src, type: Source}
        - {name: y, type: String, property: var}
    delegations:
      - superCall: Base
        args: [{param: x}]
      - by: Source
        expr: {param: src}
    members:
      - val: count
        type: Int
        value: {const: 0}
      - val: total
        type: Int
        value: {const: 1}
      - init:
          - eval: {call: next}
`

func TestConstructor_Order(t *testing.T) {
	f := load(t, workerProgram)
	low := f.lower(f.plan("demo.Worker"), naming.ConstructorName, 0)

	var trace []string
	for _, s := range low.Trace {
		trace = append(trace, s.String())
	}
	want := []string{
		"SUPER_CALL demo/Base",
		"CLOSURE_FIELD_INIT $a",
		"CLOSURE_FIELD_INIT $b",
		"EXPRESSION_DELEGATE_FIELDS $delegate_0",
		"CONSTRUCTOR_PARAMETER_PROPERTY_ASSIGN x",
		"CONSTRUCTOR_PARAMETER_PROPERTY_ASSIGN y",
		"USER_INITIALIZERS total",
		"USER_INITIALIZERS init",
		"RETURN",
	}
	if !slices.Equal(trace, want) {
		t.Errorf("trace = %v\nwant %v", trace, want)
	}

	wantBody := strings.Join([]string{
		"super demo/Base(x)",
		"this.$a = $a",
		"this.$b = $b",
		"this.$delegate_0 = src",
		"this.x = x",
		"this.y = y",
		"this.total = 1",
		"this.next()",
		"return",
	}, "\n") + "\n"
	if got := code.Format(low.Body); got != wantBody {
		t.Errorf("body =\n%s\nwant\n%s", got, wantBody)
	}
}

func TestConstructor_SkipDefault(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value string
		want  int
	}{
		{"int zero", "Int", "{const: 0}", 0},
		{"int one", "Int", "{const: 1}", 1},
		{"long zero", "Long", "{const: 0, type: Long}", 0},
		{"false", "Boolean", "{const: false}", 0},
		{"true", "Boolean", "{const: true}", 1},
		{"nullable null", "String?", "{nil: true, type: \"String?\"}", 0},
		{"empty string", "String", "{const: \"\"}", 1},
		{"negative zero", "Double", "{const: -0.0}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, `
package: demo
classes:
  - name: Counter
    members:
      - var: count
        type: "`+tt.typ+`"
        value: `+tt.value+`
`)
			low := f.lower(f.plan("demo.Counter"), naming.ConstructorName, 0)
			got := 0
			for _, s := range low.Trace {
				if s.State == UserInitializers {
					got++
				}
			}
			if got != tt.want {
				t.Errorf("initializer statements = %d, want %d\n%s", got, tt.want, code.Format(low.Body))
			}
		})
	}
}

func TestSkipsInitializer_CustomSetter(t *testing.T) {
	f := load(t, `
package: demo
classes:
  - name: Counter
    members:
      - var: count
        type: Int
        value: {const: 0}
        setter:
          - assign: count
            value: {param: value}
`)
	c, _ := f.p.Class("demo.Counter")
	if SkipsInitializer(f.p, c.Properties()[0]) {
		t.Error("a property with a custom setter keeps its initializer")
	}
}

func TestDataMethods(t *testing.T) {
	f := load(t, `
package: geo
classes:
  - name: Point
    data: true
    constructor:
      params:
        - {name: x, type: Int, property: val}
        - {name: y, type: Int, property: val}
`)
	tests := []struct {
		member string
		want   []string
	}{
		{"component1", []string{"return this.getX()\n"}},
		{"component2", []string{"return this.getY()\n"}},
		{"copy", []string{"return new geo/Point(x, y)\n"}},
		{"copy$default", []string{
			"if bit($mask, 0) {\n  x = $this.x\n}\n",
			"if bit($mask, 1) {\n  y = $this.y\n}\n",
			"return $this.copy(x, y)\n",
		}},
		{"toString", []string{`return concat("Point(x=", this.getX(), ", y=", this.getY(), ")")`}},
		{"hashCode", []string{"return ((hash(this.getX()) * 31) + hash(this.getY()))"}},
		{"equals", []string{
			"if (this === other) {\n  return true\n}\n",
			"if other is geo/Point {\n",
			"let that = (other as Point)\n",
			"if !(this.getX() == that.getX()) {\n    return false\n  }\n",
			"  return true\n}\nreturn false\n",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			checkContains(t, f.body("geo.Point", tt.member), tt.want)
		})
	}
}

func TestDataMethods_Arrays(t *testing.T) {
	f := load(t, `
package: geo
classes:
  - name: Path
    data: true
    constructor:
      params:
        - {name: points, type: IntArray, property: val}
`)
	checkContains(t, f.body("geo.Path", "toString"), []string{`concat("Path(points=", arrayToString(this.getPoints()), ")")`})
	checkContains(t, f.body("geo.Path", "equals"), []string{"if !arrayEquals(this.getPoints(), that.getPoints()) {"})
	checkContains(t, f.body("geo.Path", "hashCode"), []string{"return hash(this.getPoints())"})
}

func TestDefaultOverloads(t *testing.T) {
	f := load(t, `
package: demo
classes:
  - name: Counter
    constructor:
      params:
        - {name: start, type: Int, default: {const: 5}}
    members:
      - fun: greet
        params:
          - {name: name, type: String, default: {const: "world"}}
          - {name: times, type: Int}
        returns: String
        body:
          - return: {param: name}
      - fun: hello
        returns: String
        body:
          - return: {call: greet, args: [{skip: true}, {const: 2}]}
      - fun: fresh
        returns: Counter
        body:
          - return: {new: Counter}
`)
	plan := f.plan("demo.Counter")

	checkContains(t, code.Format(f.lower(plan, "greet$default", 0).Body), []string{
		"if bit($mask, 0) {\n  name = \"world\"\n}\n",
		"return $this.greet(name, times)\n",
	})
	checkContains(t, code.Format(f.lower(plan, "hello", 0).Body), []string{
		"return demo/Counter.greet$default(this, null, 2, 1)\n",
	})
	checkContains(t, code.Format(f.lower(plan, "fresh", 0).Body), []string{
		"return new demo/Counter(0, 1)\n",
	})

	mask := f.lower(plan, naming.ConstructorName, 1)
	want := "if bit($mask, 0) {\n  start = 5\n}\nthis demo/Counter(start)\nreturn\n"
	if got := code.Format(mask.Body); got != want {
		t.Errorf("mask constructor =\n%s\nwant\n%s", got, want)
	}
}

func TestThunks(t *testing.T) {
	f := load(t, `
package: demo
classes:
  - name: Greeter
    kind: interface
    members:
      - fun: greet
        returns: String
        body:
          - return: {template: [{const: "hi "}, {call: name}]}
      - fun: name
        returns: String
  - name: Direct
    supertypes: [Greeter]
    members:
      - fun: name
        returns: String
        body:
          - return: {const: "direct"}
  - name: Wrapper
    supertypes: [Greeter]
    constructor:
      params:
        - {name: inner, type: Greeter}
    delegations:
      - by: Greeter
        expr: {param: inner}
`)
	if got := f.body("demo.Direct", "greet"); got != "return demo/Greeter$$TImpl.greet(this)\n" {
		t.Errorf("trait thunk = %q", got)
	}
	if got := f.body("demo.Wrapper", "greet"); got != "return this.$delegate_0.greet()\n" {
		t.Errorf("delegate thunk = %q", got)
	}
	if got := f.body("demo.Wrapper", "name"); got != "return this.$delegate_0.name()\n" {
		t.Errorf("delegate thunk = %q", got)
	}

	iface := f.plan("demo.Greeter")
	var body string
	for _, m := range iface.Members {
		if m.Signature.Static {
			low, err := f.lw.Member(iface, m)
			if err != nil {
				t.Fatal(err)
			}
			body = code.Format(low.Body)
		}
	}
	if body != "return concat(\"hi \", $this.name())\n" {
		t.Errorf("trait body = %q", body)
	}
}

func TestEnumLowering(t *testing.T) {
	f := load(t, `
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
          - fun: hex
            returns: Int
            body:
              - return: {const: 1}
`)
	plan := f.plan("demo.Color")
	steps, err := f.lw.StaticInit(plan.StaticInit[0])
	if err != nil {
		t.Fatalf("StaticInit() error = %v", err)
	}
	want := strings.Join([]string{
		`demo/Color.RED = new demo/Color("RED", 0, 16711680)`,
		`demo/Color.GREEN = new demo/Color$GREEN("GREEN", 1)`,
		`demo/Color.$VALUES = [demo/Color.RED, demo/Color.GREEN]`,
	}, "\n") + "\n"
	if got := code.Format(steps); got != want {
		t.Errorf("static init =\n%s\nwant\n%s", got, want)
	}

	checkContains(t, code.Format(f.lower(plan, naming.ConstructorName, 0).Body), []string{
		"super java/lang/Enum($enum$name, $enum$ordinal)\nthis.rgb = rgb\nreturn\n",
	})
	checkContains(t, f.body("demo.Color", "values"), []string{"return clone(demo/Color.$VALUES)"})
	checkContains(t, f.body("demo.Color", "valueOf"), []string{"return valueOf(demo/Color, name)"})
	checkContains(t, f.body("demo.Color.GREEN", naming.ConstructorName), []string{
		"super demo/Color($enum$name, $enum$ordinal, 65280)",
	})
}

func TestCompanionInit(t *testing.T) {
	f := load(t, `
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
        - var: misses
          type: Int
          value: {const: 0}
`)
	plan := f.plan("demo.Registry.object")
	var got []string
	for _, s := range plan.StaticInit {
		stmts, err := f.lw.StaticInit(s)
		if err != nil {
			t.Fatalf("StaticInit() error = %v", err)
		}
		got = append(got, code.Format(stmts))
	}
	want := []string{
		"demo/Registry.object$ = new demo/Registry$object()\n",
		"demo/Registry.hits = 2\n",
	}
	if !slices.Equal(got, want) {
		t.Errorf("static init = %q, want %q", got, want)
	}
}

func TestInnerClassAccess(t *testing.T) {
	f := load(t, `
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
        members:
          - fun: read
            returns: Int
            body:
              - return: {prop: secret}
`)
	if got := f.body("demo.Outer.Inner", "read"); got != "return demo/Outer.access$getSecret(this.this$0)\n" {
		t.Errorf("read = %q", got)
	}
	checkContains(t, f.body("demo.Outer.Inner", naming.ConstructorName), []string{
		"super java/lang/Object()\nthis.this$0 = $outer\nreturn\n",
	})
	if got := f.body("demo.Outer", "access$getSecret"); got != "return $this.secret\n" {
		t.Errorf("accessor = %q", got)
	}
}

func TestStaticInitBuilder(t *testing.T) {
	b := NewStaticInitBuilder()
	b.Add("demo/B", &code.Eval{X: intConst(1)})
	b.Add("demo/A", &code.Eval{X: intConst(2)})
	b.Add("demo/B", &code.Eval{X: intConst(3)})

	if got := b.Owners(); !slices.Equal(got, []string{"demo/B", "demo/A"}) {
		t.Errorf("Owners() = %v", got)
	}
	if got := code.Format(b.Body("demo/B")); got != "1\n3\nreturn\n" {
		t.Errorf("Body() = %q", got)
	}
}
