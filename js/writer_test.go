package js

import (
	"strings"
	"testing"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

var objectInit = code.MethodRef{Owner: "Object", Name: naming.ConstructorName, Descriptor: "()V"}

func define(t *testing.T, w *Writer, def target.TypeDef) {
	t.Helper()
	if err := w.DefineType(def); err != nil {
		t.Fatalf("DefineType(%s) error = %v", def.Name, err)
	}
}

func body(t *testing.T, w *Writer, owner string, def target.MethodDef, stmts ...code.Stmt) {
	t.Helper()
	sink, err := w.BeginMethod(owner, def)
	if err != nil {
		t.Fatalf("BeginMethod(%s.%s) error = %v", owner, def.Name, err)
	}
	for _, s := range stmts {
		sink.Emit(s)
	}
	if err := sink.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
}

func source(t *testing.T, w *Writer) string {
	t.Helper()
	got, err := w.Source()
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	return got
}

func param(i int, name string, typ *ir.Type) *code.Param {
	return &code.Param{Index: i, Name: name, Type: typ}
}

func intConst(v int64) *code.Const { return &code.Const{Value: v, Type: ir.Int()} }

func TestSource_NativeProperties(t *testing.T) {
	w := NewWriter(true)
	this := &code.This{Type: ir.ClassType("demo.Point")}
	x := code.FieldRef{Owner: "demo.Point", Name: "$x", Type: ir.Int()}

	define(t, w, target.TypeDef{Name: "demo.Point", Super: "Object", Modifiers: target.Public | target.Final})
	for _, f := range []target.FieldDef{
		{Name: "$x", Type: ir.Int(), Modifiers: target.Private},
		{Name: "LIMIT", Type: ir.Int(), Modifiers: target.Public | target.Static | target.Final,
			Constant: &ir.Constant{Value: int64(3), Type: ir.Int()}},
	} {
		if err := w.DefineField("demo.Point", f); err != nil {
			t.Fatalf("DefineField() error = %v", err)
		}
	}
	body(t, w, "demo.Point",
		target.MethodDef{Name: naming.ConstructorName, Descriptor: "(I)V", Kind: target.Constructor,
			Params: []naming.Param{{Name: "x", Type: ir.Int()}}},
		&code.SuperInit{Ctor: objectInit},
		&code.SetField{Receiver: this, Field: x, Value: param(0, "x", ir.Int())},
		&code.Return{},
	)
	body(t, w, "demo.Point",
		target.MethodDef{Name: "x", Descriptor: "()I", Kind: target.Getter, Property: "x"},
		&code.Return{Value: &code.GetField{Receiver: this, Field: x}},
	)
	body(t, w, "demo.Point",
		target.MethodDef{Name: "x", Descriptor: "(I)V", Kind: target.Setter, Property: "x",
			Params: []naming.Param{{Name: "value", Type: ir.Int()}}},
		&code.SetField{Receiver: this, Field: x, Value: param(0, "value", ir.Int())},
		&code.Return{},
	)
	getX := code.MethodRef{Owner: "demo.Point", Name: "x", Descriptor: "()I", Return: ir.Int()}
	body(t, w, "demo.Point",
		target.MethodDef{Name: "plus", Descriptor: "(I)I", Params: []naming.Param{{Name: "n", Type: ir.Int()}}},
		&code.Return{Value: &code.Binary{Op: code.Add, Type: ir.Int(),
			Left:  &code.Call{Kind: code.Virtual, Method: getX, Receiver: this},
			Right: param(0, "n", ir.Int()),
		}},
	)
	body(t, w, "demo.Point",
		target.MethodDef{Name: "zero", Descriptor: "()Ldemo/Point;", Modifiers: target.Static},
		&code.Return{Value: &code.New{Class: "demo.Point", Ctor: code.MethodRef{Owner: "demo.Point", Descriptor: "(I)V"},
			Args: []code.Expr{intConst(0)}}},
	)

	want := `var demo = demo || {};
demo.Point = Kotlin.createClass(null, function $fun(x) {
  this.$x = x;
}, {
  x: {
    get: function () {
      return this.$x;
    },
    set: function (value) {
      this.$x = value;
    }
  },
  plus: function (n) {
    return (this.x + n) | 0;
  }
}, {
  zero: function () {
    return new demo.Point(0);
  }
});
demo.Point.LIMIT = 3;
`
	if got := source(t, w); got != want {
		t.Errorf("Source() =\n%s\nwant:\n%s", got, want)
	}
}

func TestSource_SecondaryConstructors(t *testing.T) {
	w := NewWriter(false)
	this := &code.This{Type: ir.ClassType("demo.Sub")}
	n := param(0, "n", ir.Int())
	baseInit := code.MethodRef{Owner: "demo.Base", Name: naming.ConstructorName, Descriptor: "(I)V"}
	subInit := code.MethodRef{Owner: "demo.Sub", Name: naming.ConstructorName, Descriptor: "(I)V"}
	ctor := func(desc string, params ...naming.Param) target.MethodDef {
		return target.MethodDef{Name: naming.ConstructorName, Descriptor: desc, Kind: target.Constructor, Params: params}
	}

	define(t, w, target.TypeDef{Name: "demo.Base", Super: "Object", Modifiers: target.Public})
	body(t, w, "demo.Base", ctor("(I)V", naming.Param{Name: "n", Type: ir.Int()}),
		&code.SuperInit{Ctor: objectInit},
		&code.SetField{Receiver: this, Field: code.FieldRef{Owner: "demo.Base", Name: "$n", Type: ir.Int()}, Value: n},
		&code.Return{},
	)
	define(t, w, target.TypeDef{Name: "demo.Named", Modifiers: target.Public | target.Interface | target.Abstract})
	body(t, w, "demo.Named", target.MethodDef{Name: "name", Descriptor: "()Ljava/lang/String;", Modifiers: target.Public | target.Abstract})

	define(t, w, target.TypeDef{Name: "demo.Sub", Super: "demo.Base", Interfaces: []string{"demo.Named"}, Modifiers: target.Public})
	body(t, w, "demo.Sub", ctor("(I)V", naming.Param{Name: "n", Type: ir.Int()}),
		&code.SuperInit{Ctor: baseInit, Args: []code.Expr{n}},
		&code.Return{},
	)
	body(t, w, "demo.Sub", ctor("(II)V", naming.Param{Name: "n", Type: ir.Int()}, naming.Param{Name: "$mask", Type: ir.Int()}),
		&code.If{
			Cond: &code.MaskBit{Mask: param(1, "$mask", ir.Int()), Bit: 0},
			Then: []code.Stmt{&code.SetParam{Index: 0, Name: "n", Type: ir.Int(), Value: intConst(5)}},
		},
		&code.ThisInit{Ctor: subInit, Args: []code.Expr{n}},
		&code.Return{},
	)
	body(t, w, "demo.Sub", target.MethodDef{Name: "name", Descriptor: "()Ljava/lang/String;", Modifiers: target.Public},
		&code.Return{Value: &code.Concat{Parts: []code.Expr{
			&code.Const{Value: "sub ", Type: ir.String()},
			&code.GetField{Receiver: this, Field: code.FieldRef{Owner: "demo.Base", Name: "$n", Type: ir.Int()}},
		}}},
	)
	body(t, w, "demo.Sub", target.MethodDef{Name: "make", Descriptor: "()Ldemo/Sub;", Modifiers: target.Public | target.Static},
		&code.Return{Value: &code.New{
			Class: "demo.Sub",
			Ctor:  code.MethodRef{Owner: "demo.Sub", Name: naming.ConstructorName, Descriptor: "(II)V"},
			Args:  []code.Expr{intConst(0), intConst(1)},
		}},
	)

	want := `var demo = demo || {};
demo.Base = Kotlin.createClass(null, function (n) {
  this.$n = n;
}, {});
demo.Named = Kotlin.createTrait(null, {});
demo.Sub = Kotlin.createClass(function () { return [demo.Base, demo.Named]; }, function (n) {
  this.super_init(n);
}, {
  name: function () {
    return "sub " + Kotlin.toString(this.$n);
  }
}, {
  make: function () {
    return demo.Sub.init$1.call(Object.create(demo.Sub.prototype), 0, 1);
  },
  init$1: function (n, $mask) {
    if (($mask & 1) !== 0) {
      n = 5;
    }
    demo.Sub.call(this, n);
    return this;
  }
});
`
	if got := source(t, w); got != want {
		t.Errorf("Source() =\n%s\nwant:\n%s", got, want)
	}
}

func TestSource_BaseInitializer(t *testing.T) {
	w := NewWriter(true)
	define(t, w, target.TypeDef{Name: "demo.Color", Super: "Kotlin.Enum", Modifiers: target.Public | target.Enum})
	body(t, w, "demo.Color",
		target.MethodDef{Name: naming.ConstructorName, Descriptor: "(Ljava/lang/String;I)V", Kind: target.Constructor,
			Params: []naming.Param{{Name: "$enum$name", Type: ir.String()}, {Name: "$enum$ordinal", Type: ir.Int()}}},
		&code.SuperInit{
			Ctor: code.MethodRef{Owner: "Kotlin.Enum", Name: naming.ConstructorName, Descriptor: "(Ljava/lang/String;I)V"},
			Args: []code.Expr{param(0, "$enum$name", ir.String()), param(1, "$enum$ordinal", ir.Int())},
		},
		&code.Return{},
	)
	got := source(t, w)
	if want := "  $fun.baseInitializer.call(this, $enum$name, $enum$ordinal);\n"; !strings.Contains(got, want) {
		t.Errorf("Source() =\n%s\nmissing %q", got, want)
	}
	if want := "function () { return [Kotlin.Enum]; }"; !strings.Contains(got, want) {
		t.Errorf("Source() =\n%s\nmissing %q", got, want)
	}
}

func TestSource_StaticsAndNesting(t *testing.T) {
	w := NewWriter(true)
	define(t, w, target.TypeDef{Name: "demo.Greeter$TImpl", Modifiers: target.Public | target.Final | target.Synthetic})
	body(t, w, "demo.Greeter$TImpl",
		target.MethodDef{Name: "greet", Descriptor: "(Ldemo/Greeter;)Ljava/lang/String;", Modifiers: target.Public | target.Static,
			Params: []naming.Param{{Name: "$this", Type: ir.ClassType("demo.Greeter")}}},
		&code.Return{Value: &code.Call{
			Kind:     code.Interface,
			Method:   code.MethodRef{Owner: "demo.Greeter", Name: "name", Descriptor: "()Ljava/lang/String;", Interface: true},
			Receiver: param(0, "$this", ir.ClassType("demo.Greeter")),
		}},
	)
	define(t, w, target.TypeDef{Name: "demo.Reg", Modifiers: target.Public | target.Final})
	if err := w.DefineField("demo.Reg", target.FieldDef{Name: "hits", Type: ir.Int(), Modifiers: target.Public | target.Static}); err != nil {
		t.Fatalf("DefineField() error = %v", err)
	}
	define(t, w, target.TypeDef{Name: "demo.Reg.Entry", Super: "Object", Modifiers: target.Public | target.Final})
	if err := w.DefineNestedType("demo.Reg.Entry", "demo.Reg", target.Public|target.Static); err != nil {
		t.Fatalf("DefineNestedType() error = %v", err)
	}
	body(t, w, "demo.Reg.Entry",
		target.MethodDef{Name: naming.ConstructorName, Descriptor: "()V", Kind: target.Constructor},
		&code.SuperInit{Ctor: objectInit},
		&code.Return{},
	)
	body(t, w, "demo.Reg", target.MethodDef{Kind: target.StaticInit},
		&code.SetField{
			Field: code.FieldRef{Owner: "demo.Reg", Name: "hits", Type: ir.Int(), Static: true},
			Value: &code.Binary{Op: code.Mul, Type: ir.Int(), Left: intConst(2), Right: intConst(3)},
		},
		&code.Return{},
	)

	want := `var demo = demo || {};
demo.Greeter$TImpl = {
  greet: function ($this) {
    return $this.name();
  }
};
demo.Reg = {};
demo.Reg.hits = 0;
demo.Reg.Entry = Kotlin.createClass(null, function $fun() {
}, {});
demo.Reg.hits = Math.imul(2, 3);
`
	if got := source(t, w); got != want {
		t.Errorf("Source() =\n%s\nwant:\n%s", got, want)
	}
	if got := w.Types(); len(got) != 3 || got[2] != "demo.Reg.Entry" {
		t.Errorf("Types() = %v", got)
	}
}

func TestExpr(t *testing.T) {
	str := ir.String()
	a, b := param(0, "a", str), param(1, "b", str)
	i, j := param(0, "i", ir.Int()), param(1, "j", ir.Int())

	tests := []struct {
		name string
		expr code.Expr
		want string
	}{
		{"reference equality", &code.Binary{Op: code.ValueEq, Left: a, Right: b, Type: str}, "Kotlin.equals(a, b)"},
		{"primitive equality", &code.Binary{Op: code.ValueEq, Left: i, Right: j, Type: ir.Int()}, "(i === j)"},
		{"identity", &code.Binary{Op: code.RefEq, Left: a, Right: &code.Const{Type: str}, Type: str}, "(a === null)"},
		{"reference compare", &code.Binary{Op: code.Lt, Left: a, Right: b, Type: str}, "(Kotlin.compareTo(a, b) < 0)"},
		{"int compare", &code.Binary{Op: code.Lt, Left: i, Right: j, Type: ir.Int()}, "(i < j)"},
		{"int subtract", &code.Binary{Op: code.Sub, Left: i, Right: j, Type: ir.Int()}, "((i - j) | 0)"},
		{"long add", &code.Binary{Op: code.Add, Left: param(0, "x", ir.Long()), Right: param(1, "y", ir.Long()), Type: ir.Long()}, "(x + y)"},
		{"double multiply", &code.Binary{Op: code.Mul, Left: param(0, "x", ir.Double()), Right: param(1, "y", ir.Double()), Type: ir.Double()}, "(x * y)"},
		{"char concat", &code.Concat{Parts: []code.Expr{&code.Const{Value: "c=", Type: str}, param(0, "c", ir.Char())}},
			`("c=" + String.fromCharCode(c))`},
		{"empty concat", &code.Concat{}, `""`},
		{"char constant", &code.Const{Value: 'A', Type: ir.Char()}, "65"},
		{"escaped string", &code.Const{Value: "a\"b\n", Type: str}, `"a\"b\n"`},
		{"astral string", &code.Const{Value: "\U0001F600", Type: str}, `"\ud83d\ude00"`},
		{"instance check", &code.InstanceOf{X: a, Class: "demo.Point"}, "Kotlin.isType(a, demo.Point)"},
		{"cast", &code.Cast{X: a, To: ir.ClassType("demo.Point"), Class: "demo.Point"}, "a"},
		{"not", &code.Not{X: &code.MaskBit{Mask: i, Bit: 2}}, "!((i & 4) !== 0)"},
		{"hash", &code.Hash{X: a}, "Kotlin.hashCode(a)"},
		{"clone", &code.ArrayClone{X: a}, "a.slice()"},
		{"array literal", &code.NewArray{Elem: ir.Int(), Elems: []code.Expr{intConst(1), intConst(2)}}, "[1, 2]"},
		{"array equals", &code.ArrayEquals{Left: a, Right: b}, "Kotlin.arrayEquals(a, b)"},
		{"enum lookup", &code.EnumValueOf{Class: "demo.Color", Name: a}, "Kotlin.enumValueOf(demo.Color, a)"},
		{"conditional", &code.Cond{If: &code.Const{Value: true, Type: ir.Boolean()}, Then: intConst(1), Else: intConst(2), Type: ir.Int()},
			"(true ? 1 : 2)"},
		{"static call", &code.Call{Kind: code.Static, Method: code.MethodRef{Owner: "demo.Util", Name: "max"}, Args: []code.Expr{i, j}},
			"demo.Util.max(i, j)"},
		{"super call", &code.Call{Kind: code.Super, Method: code.MethodRef{Owner: "demo.Base", Name: "describe"}, Args: []code.Expr{a}},
			"demo.Base.prototype.describe.call(this, a)"},
		{"implicit receiver", &code.Call{Method: code.MethodRef{Owner: "demo.Point", Name: "next"}}, "this.next()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &printer{w: NewWriter(true)}
			if got := p.expr(tt.expr); got != tt.want {
				t.Errorf("expr() = %q, want %q", got, tt.want)
			}
			if p.err != nil {
				t.Errorf("expr() error = %v", p.err)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	negZero := 0.0
	negZero = -negZero
	tests := []struct {
		v    float64
		want string
	}{
		{1.5, "1.5"},
		{negZero, "-0"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		if got := number(tt.v); got != tt.want {
			t.Errorf("number(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestUnparen(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(a + b)", "a + b"},
		{"(a) + (b)", "(a) + (b)"},
		{`("(" + a)`, `"(" + a`},
		{`(")") + (b)`, `(")") + (b)`},
		{"a", "a"},
	}
	for _, tt := range tests {
		if got := unparen(tt.in); got != tt.want {
			t.Errorf("unparen(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriter_Errors(t *testing.T) {
	w := NewWriter(false)
	define(t, w, target.TypeDef{Name: "demo.A"})
	ctor := target.MethodDef{Name: naming.ConstructorName, Descriptor: "()V", Kind: target.Constructor}
	body(t, w, "demo.A", ctor)
	body(t, w, "demo.A", target.MethodDef{Name: "f", Descriptor: "()V"})
	body(t, w, "demo.A", target.MethodDef{Kind: target.StaticInit})
	if err := w.DefineField("demo.A", target.FieldDef{Name: "x", Type: ir.Int()}); err != nil {
		t.Fatalf("DefineField() error = %v", err)
	}

	checks := []struct {
		name string
		err  error
	}{
		{"duplicate type", w.DefineType(target.TypeDef{Name: "demo.A"})},
		{"duplicate field", w.DefineField("demo.A", target.FieldDef{Name: "x", Type: ir.Int()})},
		{"field of unknown type", w.DefineField("demo.B", target.FieldDef{Name: "x"})},
		{"nested twice", func() error {
			if err := w.DefineNestedType("demo.A.In", "demo.A", 0); err != nil {
				return nil
			}
			return w.DefineNestedType("demo.A.In", "demo.A", 0)
		}()},
	}
	for _, c := range checks {
		if c.err == nil {
			t.Errorf("%s: error = nil", c.name)
		}
	}
	for _, def := range []target.MethodDef{ctor, {Name: "f", Descriptor: "(I)V"}, {Kind: target.StaticInit}} {
		if _, err := w.BeginMethod("demo.A", def); err == nil {
			t.Errorf("BeginMethod(%s %s) error = nil", def.Kind, def.Name)
		}
	}
	if _, err := w.BeginMethod("demo.B", target.MethodDef{Name: "f"}); err == nil {
		t.Error("BeginMethod() on unknown type error = nil")
	}

	sink, err := w.BeginMethod("demo.A", target.MethodDef{Name: "g", Descriptor: "()V"})
	if err != nil {
		t.Fatalf("BeginMethod() error = %v", err)
	}
	if err := sink.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := sink.End(); err == nil {
		t.Error("second End() error = nil")
	}
}

func TestWriter_NativeAccessorsShareName(t *testing.T) {
	w := NewWriter(true)
	define(t, w, target.TypeDef{Name: "demo.A"})
	body(t, w, "demo.A", target.MethodDef{Name: "x", Descriptor: "()I", Kind: target.Getter})
	if _, err := w.BeginMethod("demo.A", target.MethodDef{Name: "x", Descriptor: "(I)V", Kind: target.Setter}); err != nil {
		t.Errorf("BeginMethod(setter) error = %v", err)
	}
	if _, err := w.BeginMethod("demo.A", target.MethodDef{Name: "x", Descriptor: "()I", Kind: target.Getter}); err == nil {
		t.Error("BeginMethod(duplicate getter) error = nil")
	}
}
