// Package interp evaluates code trees recorded with JVM naming, so tests can
// check the behavior of synthesized members rather than their shape.
//
// Values are nil, bool, int64 for integral types, rune for chars, float64,
// string, *Object and *Array. Classes outside the recording behave like
// java/lang/Object and java/lang/Enum.
package interp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/internal/recorder"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/target"
)

// Value is a runtime value.
type Value = any

// Object is an instance of a recorded class.
type Object struct {
	Class  string
	Fields map[string]Value

	id          int
	enumName    string
	enumOrdinal int64
	isEnum      bool
}

// Array is an array instance.
type Array struct {
	Elems []Value
}

// ErrNoMethod marks a call without a recorded or built-in target.
var ErrNoMethod = errors.New("no such method")

// Machine evaluates the methods of a recording.
type Machine struct {
	rec     *recorder.Recorder
	statics map[string]Value
	inited  map[string]bool
	nextID  int
	depth   int
}

const maxDepth = 256

// New returns a machine over rec.
func New(rec *recorder.Recorder) *Machine {
	return &Machine{rec: rec, statics: make(map[string]Value), inited: make(map[string]bool)}
}

// New allocates an instance of class and runs its constructor with
// descriptor desc. An empty desc selects the first constructor.
func (m *Machine) New(class, desc string, args ...Value) (*Object, error) {
	ctor := m.rec.Method(class, "<init>", desc)
	if ctor == nil {
		return nil, fmt.Errorf("%w: %s.<init>%s", ErrNoMethod, class, desc)
	}
	if err := m.init(class); err != nil {
		return nil, err
	}
	obj := m.alloc(class)
	if _, err := m.invoke(ctor, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// Call invokes the method of recv named name with descriptor desc using
// virtual dispatch. An empty desc selects the first method named name.
func (m *Machine) Call(recv Value, name, desc string, args ...Value) (Value, error) {
	return m.virtual(recv, name, desc, args)
}

// CallStatic invokes a static method of owner.
func (m *Machine) CallStatic(owner, name, desc string, args ...Value) (Value, error) {
	meth := m.rec.Method(owner, name, desc)
	if meth == nil {
		return nil, fmt.Errorf("%w: %s.%s%s", ErrNoMethod, owner, name, desc)
	}
	if err := m.init(owner); err != nil {
		return nil, err
	}
	return m.invoke(meth, nil, args)
}

// Static returns the value of a static field, running the owner's static
// initializer first.
func (m *Machine) Static(owner, name string) (Value, error) {
	if err := m.init(owner); err != nil {
		return nil, err
	}
	return m.static(code.FieldRef{Owner: owner, Name: name}), nil
}

// String renders v the way string concatenation does.
func (m *Machine) String(v Value) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case rune:
		return string(x), nil
	case float64:
		return formatDouble(x), nil
	case *Array:
		return fmt.Sprintf("[Ljava.lang.Object;@%x", m.identity(x)), nil
	}
	r, err := m.virtual(v, "toString", "()Ljava/lang/String;", nil)
	if err != nil {
		return "", err
	}
	s, ok := r.(string)
	if !ok {
		return "", fmt.Errorf("toString returned %T", r)
	}
	return s, nil
}

// Equals compares a and b structurally; null equals only null.
func (m *Machine) Equals(a, b Value) (bool, error) {
	switch x := a.(type) {
	case nil:
		return b == nil, nil
	case *Object:
		r, err := m.virtual(x, "equals", "(Ljava/lang/Object;)Z", []Value{b})
		if err != nil {
			return false, err
		}
		return r == true, nil
	case *Array:
		return a == b, nil
	case float64:
		y, ok := b.(float64)
		return ok && (x == y || math.IsNaN(x) && math.IsNaN(y)), nil
	}
	return a == b, nil
}

// Hash returns the hash code of v as java/lang/Object.hashCode computes it.
// Integral values hash as Int; use a typed hash for Long.
func (m *Machine) Hash(v Value) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case bool:
		return boxedBoolHash(x), nil
	case int64:
		return int64(int32(x)), nil
	case rune:
		return int64(x), nil
	case float64:
		return doubleHash(x), nil
	case string:
		return stringHash(x), nil
	case *Array:
		return m.arrayHash(x, nil)
	}
	r, err := m.virtual(v, "hashCode", "()I", nil)
	if err != nil {
		return 0, err
	}
	h, ok := r.(int64)
	if !ok {
		return 0, fmt.Errorf("hashCode returned %T", r)
	}
	return h, nil
}

// hashOf hashes v the way emitted code does for a value of static type t:
// primitive booleans hash to 1 or 0, boxed ones to 1231 or 1237, and wide
// numbers fold through their box's hashCode.
func (m *Machine) hashOf(v Value, t *ir.Type) (int64, error) {
	if v == nil || t == nil {
		return m.Hash(v)
	}
	switch t.Kind {
	case ir.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("hash of %T as Boolean", v)
		}
		if t.Nullable {
			return boxedBoolHash(b), nil
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case ir.TypeLong:
		x, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("hash of %T as Long", v)
		}
		return int64(int32(x ^ int64(uint64(x)>>32))), nil
	case ir.TypeFloat:
		x, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("hash of %T as Float", v)
		}
		return floatHash(x), nil
	case ir.TypeArray:
		a, ok := v.(*Array)
		if !ok {
			return 0, fmt.Errorf("hash of %T as array", v)
		}
		return m.arrayHash(a, t.Elem)
	}
	return m.Hash(v)
}

// arrayHash mirrors java/util/Arrays.hashCode; elem is the element type,
// or nil when unknown.
func (m *Machine) arrayHash(a *Array, elem *ir.Type) (int64, error) {
	if elem != nil && elem.IsPrimitive() {
		elem = ir.Nullable(elem)
	}
	h := int64(1)
	for _, e := range a.Elems {
		eh, err := m.hashOf(e, elem)
		if err != nil {
			return 0, err
		}
		h = int64(int32(31*h + eh))
	}
	return h, nil
}

func boxedBoolHash(b bool) int64 {
	if b {
		return 1231
	}
	return 1237
}

func floatHash(x float64) int64 {
	if math.IsNaN(x) {
		return 0x7fc00000
	}
	return int64(int32(math.Float32bits(float32(x))))
}

func doubleHash(x float64) int64 {
	bits := math.Float64bits(x)
	if math.IsNaN(x) {
		bits = 0x7ff8000000000000
	}
	return int64(int32(bits ^ bits>>32))
}

func (m *Machine) alloc(class string) *Object {
	m.nextID++
	return &Object{Class: class, Fields: make(map[string]Value), id: m.nextID}
}

func (m *Machine) identity(v Value) int {
	if o, ok := v.(*Object); ok {
		return o.id
	}
	m.nextID++
	return m.nextID
}

// init runs the static initializer of owner once.
func (m *Machine) init(owner string) error {
	if m.inited[owner] {
		return nil
	}
	m.inited[owner] = true
	if t, ok := m.rec.Type(owner); ok && t.Super != "" {
		if err := m.init(t.Super); err != nil {
			return err
		}
	}
	clinit := m.rec.Method(owner, "<clinit>", "")
	if clinit == nil {
		return nil
	}
	_, err := m.invoke(clinit, nil, nil)
	return err
}

// lookup finds the implementation of name+desc for class, walking
// superclasses.
func (m *Machine) lookup(class, name, desc string) *recorder.Method {
	for class != "" {
		if meth := m.rec.Method(class, name, desc); meth != nil && !meth.Modifiers.Has(target.Abstract) {
			return meth
		}
		t, ok := m.rec.Type(class)
		if !ok {
			return nil
		}
		class = t.Super
	}
	return nil
}

func (m *Machine) virtual(recv Value, name, desc string, args []Value) (Value, error) {
	if obj, ok := recv.(*Object); ok {
		if meth := m.lookup(obj.Class, name, desc); meth != nil {
			return m.invoke(meth, obj, args)
		}
	}
	return m.builtin(recv, name, args)
}

// builtin implements the members every value inherits from the platform.
func (m *Machine) builtin(recv Value, name string, args []Value) (Value, error) {
	if recv == nil {
		return nil, fmt.Errorf("call of %s on null", name)
	}
	obj, isObj := recv.(*Object)
	switch name {
	case "toString":
		if isObj {
			if obj.isEnum {
				return obj.enumName, nil
			}
			return fmt.Sprintf("%s@%x", strings.ReplaceAll(obj.Class, "/", "."), obj.id), nil
		}
		return m.String(recv)
	case "hashCode":
		if isObj {
			return int64(obj.id), nil
		}
		return m.Hash(recv)
	case "equals":
		if len(args) != 1 {
			break
		}
		if isObj {
			return recv == args[0], nil
		}
		return m.Equals(recv, args[0])
	case "name":
		if isObj && obj.isEnum {
			return obj.enumName, nil
		}
	case "ordinal":
		if isObj && obj.isEnum {
			return obj.enumOrdinal, nil
		}
	case "length":
		if s, ok := recv.(string); ok {
			return int64(len([]rune(s))), nil
		}
	}
	return nil, fmt.Errorf("%w: %T.%s", ErrNoMethod, recv, name)
}

// frame is the activation of one method.
type frame struct {
	meth   *recorder.Method
	this   *Object
	params []Value
	locals map[string]Value
}

func (m *Machine) invoke(meth *recorder.Method, this *Object, args []Value) (Value, error) {
	if m.depth >= maxDepth {
		return nil, fmt.Errorf("call depth exceeded in %s.%s", meth.Owner, meth.Name)
	}
	m.depth++
	defer func() { m.depth-- }()

	f := &frame{meth: meth, this: this, params: append([]Value(nil), args...), locals: make(map[string]Value)}
	v, _, err := m.exec(f, meth.Body)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", meth.Owner, meth.Name, err)
	}
	return v, nil
}

func (m *Machine) exec(f *frame, stmts []code.Stmt) (Value, bool, error) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *code.Return:
			if s.Value == nil {
				return nil, true, nil
			}
			v, err := m.eval(f, s.Value)
			return v, true, err
		case *code.Eval:
			if _, err := m.eval(f, s.X); err != nil {
				return nil, false, err
			}
		case *code.SetField:
			v, err := m.eval(f, s.Value)
			if err != nil {
				return nil, false, err
			}
			if s.Receiver == nil || s.Field.Static {
				if err := m.init(s.Field.Owner); err != nil {
					return nil, false, err
				}
				m.statics[s.Field.Owner+"."+s.Field.Name] = v
				continue
			}
			recv, err := m.object(f, s.Receiver)
			if err != nil {
				return nil, false, err
			}
			recv.Fields[s.Field.Name] = v
		case *code.SetParam:
			v, err := m.eval(f, s.Value)
			if err != nil {
				return nil, false, err
			}
			if s.Index >= len(f.params) {
				return nil, false, fmt.Errorf("parameter %d out of range", s.Index)
			}
			f.params[s.Index] = v
		case *code.Let:
			v, err := m.eval(f, s.Value)
			if err != nil {
				return nil, false, err
			}
			f.locals[s.Name] = v
		case *code.If:
			c, err := m.eval(f, s.Cond)
			if err != nil {
				return nil, false, err
			}
			branch := s.Else
			if c == true {
				branch = s.Then
			}
			if v, done, err := m.exec(f, branch); err != nil || done {
				return v, done, err
			}
		case *code.SuperInit:
			args, err := m.evalAll(f, s.Args)
			if err != nil {
				return nil, false, err
			}
			if err := m.superInit(f.this, s.Ctor, args); err != nil {
				return nil, false, err
			}
		case *code.ThisInit:
			args, err := m.evalAll(f, s.Args)
			if err != nil {
				return nil, false, err
			}
			ctor := m.rec.Method(s.Ctor.Owner, s.Ctor.Name, s.Ctor.Descriptor)
			if ctor == nil {
				return nil, false, fmt.Errorf("%w: %s.%s%s", ErrNoMethod, s.Ctor.Owner, s.Ctor.Name, s.Ctor.Descriptor)
			}
			if _, err := m.invoke(ctor, f.this, args); err != nil {
				return nil, false, err
			}
		default:
			return nil, false, fmt.Errorf("unsupported statement %T", s)
		}
	}
	return nil, false, nil
}

func (m *Machine) superInit(this *Object, ctor code.MethodRef, args []Value) error {
	if meth := m.rec.Method(ctor.Owner, ctor.Name, ctor.Descriptor); meth != nil {
		_, err := m.invoke(meth, this, args)
		return err
	}
	if ctor.Owner == "java/lang/Enum" && len(args) == 2 {
		name, _ := args[0].(string)
		ord, _ := args[1].(int64)
		this.enumName, this.enumOrdinal, this.isEnum = name, ord, true
	}
	return nil
}

func (m *Machine) object(f *frame, e code.Expr) (*Object, error) {
	v, err := m.eval(f, e)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%s is %T, not an object", code.FormatExpr(e), v)
	}
	return obj, nil
}

func (m *Machine) evalAll(f *frame, exprs []code.Expr) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := m.eval(f, e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Machine) static(ref code.FieldRef) Value {
	if v, ok := m.statics[ref.Owner+"."+ref.Name]; ok {
		return v
	}
	if fd := m.rec.Field(ref.Owner, ref.Name); fd != nil {
		if fd.Constant != nil {
			return constant(fd.Constant.Value)
		}
		return zero(fd.Type)
	}
	return zero(ref.Type)
}

func (m *Machine) eval(f *frame, e code.Expr) (Value, error) {
	switch x := e.(type) {
	case *code.This:
		if f.this == nil {
			return nil, errors.New("this in a static method")
		}
		return f.this, nil
	case *code.Param:
		if x.Index >= len(f.params) {
			return nil, fmt.Errorf("parameter %s (%d) not passed", x.Name, x.Index)
		}
		return f.params[x.Index], nil
	case *code.Local:
		v, ok := f.locals[x.Name]
		if !ok {
			return nil, fmt.Errorf("local %s not bound", x.Name)
		}
		return v, nil
	case *code.Const:
		return constant(x.Value), nil
	case *code.GetField:
		if x.Receiver == nil || x.Field.Static {
			if err := m.init(x.Field.Owner); err != nil {
				return nil, err
			}
			return m.static(x.Field), nil
		}
		obj, err := m.object(f, x.Receiver)
		if err != nil {
			return nil, err
		}
		if v, ok := obj.Fields[x.Field.Name]; ok {
			return v, nil
		}
		return zero(x.Field.Type), nil
	case *code.Call:
		return m.call(f, x)
	case *code.New:
		args, err := m.evalAll(f, x.Args)
		if err != nil {
			return nil, err
		}
		return m.New(x.Class, x.Ctor.Descriptor, args...)
	case *code.InstanceOf:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		return m.instanceOf(v, x.Class), nil
	case *code.Cast:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		if obj, ok := v.(*Object); ok && x.Class != "" && !m.instanceOf(obj, x.Class) && m.known(x.Class) {
			return nil, fmt.Errorf("%s cannot be cast to %s", obj.Class, x.Class)
		}
		return v, nil
	case *code.Binary:
		return m.binary(f, x)
	case *code.Not:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		return v != true, nil
	case *code.Cond:
		c, err := m.eval(f, x.If)
		if err != nil {
			return nil, err
		}
		if c == true {
			return m.eval(f, x.Then)
		}
		return m.eval(f, x.Else)
	case *code.Concat:
		var sb strings.Builder
		for _, p := range x.Parts {
			v, err := m.eval(f, p)
			if err != nil {
				return nil, err
			}
			s, err := m.String(v)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	case *code.Hash:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		return m.hashOf(v, code.TypeOf(x.X))
	case *code.ArrayToString:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		return m.arrayString(v)
	case *code.ArrayEquals:
		l, err := m.eval(f, x.Left)
		if err != nil {
			return nil, err
		}
		r, err := m.eval(f, x.Right)
		if err != nil {
			return nil, err
		}
		return m.arrayEquals(l, r)
	case *code.NewArray:
		elems, err := m.evalAll(f, x.Elems)
		if err != nil {
			return nil, err
		}
		return &Array{Elems: elems}, nil
	case *code.ArrayClone:
		v, err := m.eval(f, x.X)
		if err != nil {
			return nil, err
		}
		a, ok := v.(*Array)
		if !ok {
			return nil, fmt.Errorf("clone of %T", v)
		}
		return &Array{Elems: append([]Value(nil), a.Elems...)}, nil
	case *code.EnumValueOf:
		name, err := m.eval(f, x.Name)
		if err != nil {
			return nil, err
		}
		return m.enumValueOf(x.Class, name)
	case *code.MaskBit:
		v, err := m.eval(f, x.Mask)
		if err != nil {
			return nil, err
		}
		mask, _ := v.(int64)
		return mask&(1<<x.Bit) != 0, nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (m *Machine) call(f *frame, x *code.Call) (Value, error) {
	args, err := m.evalAll(f, x.Args)
	if err != nil {
		return nil, err
	}
	switch x.Kind {
	case code.Static:
		return m.CallStatic(x.Method.Owner, x.Method.Name, x.Method.Descriptor, args...)
	case code.Super:
		if f.this == nil {
			return nil, errors.New("super call in a static method")
		}
		if meth := m.lookup(x.Method.Owner, x.Method.Name, x.Method.Descriptor); meth != nil {
			return m.invoke(meth, f.this, args)
		}
		return m.builtin(f.this, x.Method.Name, args)
	}
	recv, err := m.eval(f, x.Receiver)
	if err != nil {
		return nil, err
	}
	if x.Kind == code.Special {
		if meth := m.rec.Method(x.Method.Owner, x.Method.Name, x.Method.Descriptor); meth != nil {
			obj, ok := recv.(*Object)
			if !ok {
				return nil, fmt.Errorf("special call of %s on %T", x.Method.Name, recv)
			}
			return m.invoke(meth, obj, args)
		}
	}
	return m.virtual(recv, x.Method.Name, x.Method.Descriptor, args)
}

func (m *Machine) binary(f *frame, x *code.Binary) (Value, error) {
	l, err := m.eval(f, x.Left)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case code.And:
		if l != true {
			return false, nil
		}
		r, err := m.eval(f, x.Right)
		return r == true, err
	case code.Or:
		if l == true {
			return true, nil
		}
		r, err := m.eval(f, x.Right)
		return r == true, err
	}
	r, err := m.eval(f, x.Right)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case code.RefEq:
		return l == r, nil
	case code.ValueEq:
		return m.Equals(l, r)
	case code.Lt:
		a, b, ok := numbers(l, r)
		if !ok {
			return nil, fmt.Errorf("comparison of %T and %T", l, r)
		}
		return a < b, nil
	}
	if li, ok := integral(l); ok {
		if ri, ok := integral(r); ok {
			var v int64
			switch x.Op {
			case code.Add:
				v = li + ri
			case code.Sub:
				v = li - ri
			case code.Mul:
				v = li * ri
			default:
				return nil, fmt.Errorf("unsupported operator %s", x.Op)
			}
			if x.Type == nil || x.Type.Kind != ir.TypeLong {
				v = int64(int32(v))
			}
			return v, nil
		}
	}
	a, b, ok := numbers(l, r)
	if !ok {
		return nil, fmt.Errorf("arithmetic on %T and %T", l, r)
	}
	switch x.Op {
	case code.Add:
		return a + b, nil
	case code.Sub:
		return a - b, nil
	case code.Mul:
		return a * b, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", x.Op)
}

func (m *Machine) known(class string) bool {
	_, ok := m.rec.Type(class)
	return ok
}

func (m *Machine) instanceOf(v Value, class string) bool {
	obj, ok := v.(*Object)
	if !ok {
		return v != nil && class == "java/lang/Object"
	}
	seen := make(map[string]bool)
	var walk func(name string) bool
	walk = func(name string) bool {
		if name == class {
			return true
		}
		if seen[name] {
			return false
		}
		seen[name] = true
		t, ok := m.rec.Type(name)
		if !ok {
			return false
		}
		if t.Super != "" && walk(t.Super) {
			return true
		}
		for _, i := range t.Interfaces {
			if walk(i) {
				return true
			}
		}
		return false
	}
	return class == "java/lang/Object" || walk(obj.Class)
}

func (m *Machine) arrayString(v Value) (Value, error) {
	if v == nil {
		return "null", nil
	}
	a, ok := v.(*Array)
	if !ok {
		return nil, fmt.Errorf("array string of %T", v)
	}
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		s, err := m.String(e)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (m *Machine) arrayEquals(l, r Value) (Value, error) {
	if l == nil || r == nil {
		return l == r, nil
	}
	a, ok1 := l.(*Array)
	b, ok2 := r.(*Array)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("array equality of %T and %T", l, r)
	}
	if len(a.Elems) != len(b.Elems) {
		return false, nil
	}
	for i := range a.Elems {
		eq, err := m.Equals(a.Elems[i], b.Elems[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func (m *Machine) enumValueOf(class string, name Value) (Value, error) {
	if err := m.init(class); err != nil {
		return nil, err
	}
	values, ok := m.static(code.FieldRef{Owner: class, Name: "$VALUES"}).(*Array)
	if !ok {
		return nil, fmt.Errorf("%s has no $VALUES table", class)
	}
	for _, v := range values.Elems {
		if obj, ok := v.(*Object); ok && obj.enumName == name {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("no enum constant %s.%v", class, name)
}

func constant(v any) Value {
	switch x := v.(type) {
	case int:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func zero(t *ir.Type) Value {
	if t == nil || t.Nullable {
		return nil
	}
	switch t.Kind {
	case ir.TypeBoolean:
		return false
	case ir.TypeByte, ir.TypeShort, ir.TypeInt, ir.TypeLong:
		return int64(0)
	case ir.TypeChar:
		return rune(0)
	case ir.TypeFloat, ir.TypeDouble:
		return float64(0)
	}
	return nil
}

func integral(v Value) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case rune:
		return int64(x), true
	}
	return 0, false
}

func numbers(l, r Value) (float64, float64, bool) {
	a, ok1 := number(l)
	b, ok2 := number(r)
	return a, b, ok1 && ok2
}

func number(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case rune:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// stringHash is the Java String.hashCode of s over UTF-16 code units.
func stringHash(s string) int64 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			h = 31*h + int32(0xd800+(r>>10))
			h = 31*h + int32(0xdc00+(r&0x3ff))
			continue
		}
		h = 31*h + int32(r)
	}
	return int64(h)
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e7:
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
