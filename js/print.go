package js

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/target"
)

const objectClass = "Object"

// bodyMode tells how constructor statements and bare returns render.
type bodyMode int

const (
	plainBody bodyMode = iota
	initializerBody
	secondaryBody
)

type printer struct {
	w    *Writer
	buf  bytes.Buffer
	mode bodyMode
	err  error
}

func (p *printer) fail(format string, args ...any) string {
	if p.err == nil {
		p.err = fmt.Errorf("js: "+format, args...)
	}
	return "undefined"
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

// Source renders the unit: namespace declarations, one definition per type
// in definition order, then the static initializers.
func (w *Writer) Source() (string, error) {
	p := &printer{w: w}
	p.namespaces()
	for _, name := range w.order {
		p.class(w.classes[name])
	}
	for _, name := range w.order {
		if si := w.classes[name].staticInit; si != nil {
			p.mode = plainBody
			p.stmts(trimReturn(si.body), 0)
		}
	}
	if p.err != nil {
		return "", p.err
	}
	return p.buf.String(), nil
}

// namespaces declares the package objects that top-level types live in.
func (p *printer) namespaces() {
	seen := make(map[string]bool)
	for _, name := range p.w.order {
		if _, ok := p.w.nested[name]; ok {
			continue
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			continue
		}
		if _, ok := p.w.classes[name[:i]]; ok {
			continue
		}
		segs := strings.Split(name[:i], ".")
		for j := range segs {
			ns := strings.Join(segs[:j+1], ".")
			if seen[ns] {
				continue
			}
			seen[ns] = true
			if j == 0 {
				fmt.Fprintf(&p.buf, "var %s = %s || {};\n", ns, ns)
			} else {
				fmt.Fprintf(&p.buf, "%s = %s || {};\n", ns, ns)
			}
		}
	}
}

func (p *printer) bases(c *class) string {
	var bases []string
	if c.def.Super != "" && c.def.Super != objectClass {
		bases = append(bases, c.def.Super)
	}
	bases = append(bases, c.def.Interfaces...)
	if len(bases) == 0 {
		return "null"
	}
	return "function () { return [" + strings.Join(bases, ", ") + "]; }"
}

func (p *printer) class(c *class) {
	var instance, static []*method
	for _, m := range c.methods {
		if len(m.body) == 0 {
			continue
		}
		if m.def.Modifiers.Has(target.Static) {
			static = append(static, m)
		} else {
			instance = append(instance, m)
		}
	}
	name := c.def.Name
	switch {
	case c.def.Modifiers.Has(target.Interface):
		fmt.Fprintf(&p.buf, "%s = Kotlin.createTrait(%s, ", name, p.bases(c))
		p.members(instance, 0)
		if len(static) > 0 || len(c.ctors) > 1 {
			p.buf.WriteString(", ")
			p.statics(c, static, 0)
		}
		p.buf.WriteString(");\n")
	case len(c.ctors) == 0 && len(instance) == 0:
		fmt.Fprintf(&p.buf, "%s = ", name)
		p.statics(c, static, 0)
		p.buf.WriteString(";\n")
	default:
		fmt.Fprintf(&p.buf, "%s = Kotlin.createClass(%s, ", name, p.bases(c))
		p.initializer(c)
		p.buf.WriteString(", ")
		p.members(instance, 0)
		if len(static) > 0 || len(c.ctors) > 1 {
			p.buf.WriteString(", ")
			p.statics(c, static, 0)
		}
		p.buf.WriteString(");\n")
	}
	for _, f := range c.fields {
		if f.Modifiers.Has(target.Static) {
			fmt.Fprintf(&p.buf, "%s.%s = %s;\n", name, f.Name, fieldValue(f))
		}
	}
}

func fieldValue(f target.FieldDef) string {
	if f.Constant != nil {
		return constant(f.Constant.Value)
	}
	return zero(f.Type)
}

func zero(t *ir.Type) string {
	if t.IsPrimitive() {
		if t.Kind == ir.TypeBoolean {
			return "false"
		}
		return "0"
	}
	return "null"
}

func (p *printer) initializer(c *class) {
	if len(c.ctors) == 0 {
		p.buf.WriteString("null")
		return
	}
	name := ""
	if p.w.ecma5 {
		name = "$fun"
	}
	p.mode = initializerBody
	p.function(name, c.ctors[0].def.Params, trimReturn(c.ctors[0].body), 0)
}

// members renders the instance member object. With native properties, a
// getter and setter of one property share a descriptor entry.
func (p *printer) members(ms []*method, depth int) {
	if len(ms) == 0 {
		p.buf.WriteString("{}")
		return
	}
	type entry struct {
		name   string
		m      *method
		get    *method
		set    *method
		native bool
	}
	var entries []*entry
	props := make(map[string]*entry)
	for _, m := range ms {
		if p.w.ecma5 && (m.def.Kind == target.Getter || m.def.Kind == target.Setter) {
			e, ok := props[m.def.Name]
			if !ok {
				e = &entry{name: m.def.Name, native: true}
				props[m.def.Name] = e
				entries = append(entries, e)
			}
			if m.def.Kind == target.Getter {
				e.get = m
			} else {
				e.set = m
			}
			continue
		}
		entries = append(entries, &entry{name: m.def.Name, m: m})
	}
	p.buf.WriteString("{\n")
	in := indent(depth + 1)
	for i, e := range entries {
		if i > 0 {
			p.buf.WriteString(",\n")
		}
		p.buf.WriteString(in + propertyKey(e.name) + ": ")
		if !e.native {
			p.method(e.m, depth+1)
			continue
		}
		p.buf.WriteString("{\n")
		first := true
		for _, part := range []struct {
			key string
			m   *method
		}{{"get", e.get}, {"set", e.set}} {
			if part.m == nil {
				continue
			}
			if !first {
				p.buf.WriteString(",\n")
			}
			first = false
			p.buf.WriteString(indent(depth+2) + part.key + ": ")
			p.method(part.m, depth+2)
		}
		p.buf.WriteString("\n" + in + "}")
	}
	p.buf.WriteString("\n" + indent(depth) + "}")
}

// statics renders the static member object: static methods, then the
// secondary constructors as init$N.
func (p *printer) statics(c *class, ms []*method, depth int) {
	if len(ms) == 0 && len(c.ctors) < 2 {
		p.buf.WriteString("{}")
		return
	}
	p.buf.WriteString("{\n")
	in := indent(depth + 1)
	n := 0
	sep := func() {
		if n > 0 {
			p.buf.WriteString(",\n")
		}
		n++
	}
	for _, m := range ms {
		sep()
		p.buf.WriteString(in + propertyKey(m.def.Name) + ": ")
		p.method(m, depth+1)
	}
	for i, m := range c.ctors[min(1, len(c.ctors)):] {
		sep()
		fmt.Fprintf(&p.buf, "%sinit$%d: ", in, i+1)
		p.mode = secondaryBody
		p.function("", m.def.Params, secondaryReturn(m.body), depth+1)
	}
	p.buf.WriteString("\n" + indent(depth) + "}")
}

func (p *printer) method(m *method, depth int) {
	p.mode = plainBody
	p.function("", m.def.Params, trimReturn(m.body), depth)
}

func (p *printer) function(name string, params []naming.Param, body []code.Stmt, depth int) {
	names := make([]string, len(params))
	for i, prm := range params {
		names[i] = prm.Name
	}
	p.buf.WriteString("function ")
	if name != "" {
		p.buf.WriteString(name)
	}
	p.buf.WriteString("(" + strings.Join(names, ", ") + ") {\n")
	p.stmts(body, depth+1)
	p.buf.WriteString(indent(depth) + "}")
}

// trimReturn drops the bare return that ends unit bodies.
func trimReturn(body []code.Stmt) []code.Stmt {
	if n := len(body); n > 0 {
		if r, ok := body[n-1].(*code.Return); ok && r.Value == nil {
			return body[:n-1]
		}
	}
	return body
}

// secondaryReturn makes a secondary constructor end by returning this.
func secondaryReturn(body []code.Stmt) []code.Stmt {
	if n := len(body); n > 0 {
		if _, ok := body[n-1].(*code.Return); ok {
			return body
		}
	}
	return append(append([]code.Stmt(nil), body...), &code.Return{})
}

func (p *printer) stmts(stmts []code.Stmt, depth int) {
	in := indent(depth)
	for _, s := range stmts {
		switch x := s.(type) {
		case *code.Eval:
			p.buf.WriteString(in + unparen(p.expr(x.X)) + ";\n")
		case *code.Return:
			switch {
			case x.Value != nil:
				p.buf.WriteString(in + "return " + unparen(p.expr(x.Value)) + ";\n")
			case p.mode == secondaryBody:
				p.buf.WriteString(in + "return this;\n")
			default:
				p.buf.WriteString(in + "return;\n")
			}
		case *code.SetField:
			p.buf.WriteString(in + p.field(x.Receiver, x.Field) + " = " + unparen(p.expr(x.Value)) + ";\n")
		case *code.SetParam:
			p.buf.WriteString(in + x.Name + " = " + unparen(p.expr(x.Value)) + ";\n")
		case *code.Let:
			p.buf.WriteString(in + "var " + x.Name + " = " + unparen(p.expr(x.Value)) + ";\n")
		case *code.If:
			p.buf.WriteString(in + "if (" + unparen(p.expr(x.Cond)) + ") {\n")
			p.stmts(x.Then, depth+1)
			p.buf.WriteString(in + "}")
			if len(x.Else) > 0 {
				p.buf.WriteString(" else {\n")
				p.stmts(x.Else, depth+1)
				p.buf.WriteString(in + "}")
			}
			p.buf.WriteString("\n")
		case *code.SuperInit:
			if x.Ctor.Owner == objectClass {
				continue
			}
			p.buf.WriteString(in + p.initCall(x.Ctor, x.Args, true) + ";\n")
		case *code.ThisInit:
			p.buf.WriteString(in + p.initCall(x.Ctor, x.Args, false) + ";\n")
		default:
			p.fail("unsupported statement %T", s)
		}
	}
}

// initCall runs a constructor on this. The initializer's own super call goes
// through baseInitializer on ECMA5 and super_init on ECMA3.
func (p *printer) initCall(ctor code.MethodRef, args []code.Expr, super bool) string {
	if n := p.w.ctorIndex(ctor.Owner, ctor.Descriptor); n > 0 {
		return fmt.Sprintf("%s.init$%d.call(%s)", ctor.Owner, n, p.thisArgs(args))
	}
	if super && p.mode == initializerBody {
		if p.w.ecma5 {
			return "$fun.baseInitializer.call(" + p.thisArgs(args) + ")"
		}
		return "this.super_init(" + p.args(args) + ")"
	}
	return ctor.Owner + ".call(" + p.thisArgs(args) + ")"
}

func (p *printer) args(args []code.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = unparen(p.expr(a))
	}
	return strings.Join(parts, ", ")
}

func (p *printer) thisArgs(args []code.Expr) string {
	return p.prefixed("this", args)
}

func (p *printer) prefixed(first string, args []code.Expr) string {
	if len(args) == 0 {
		return first
	}
	return first + ", " + p.args(args)
}

func (p *printer) field(recv code.Expr, f code.FieldRef) string {
	if f.Static {
		return f.Owner + "." + f.Name
	}
	if recv == nil {
		return "this." + f.Name
	}
	return p.expr(recv) + "." + f.Name
}

// intLike reports whether arithmetic on t must wrap to 32 bits.
func intLike(t *ir.Type) bool {
	if !t.IsPrimitive() {
		return false
	}
	switch t.Kind {
	case ir.TypeByte, ir.TypeChar, ir.TypeShort, ir.TypeInt:
		return true
	}
	return false
}

func (p *printer) expr(e code.Expr) string {
	switch x := e.(type) {
	case *code.This:
		return "this"
	case *code.Param:
		return x.Name
	case *code.Local:
		return x.Name
	case *code.Const:
		return constant(x.Value)
	case *code.GetField:
		return p.field(x.Receiver, x.Field)
	case *code.Call:
		return p.call(x)
	case *code.New:
		if n := p.w.ctorIndex(x.Class, x.Ctor.Descriptor); n > 0 {
			return fmt.Sprintf("%s.init$%d.call(%s)", x.Class, n, p.prefixed("Object.create("+x.Class+".prototype)", x.Args))
		}
		return "new " + x.Class + "(" + p.args(x.Args) + ")"
	case *code.InstanceOf:
		return "Kotlin.isType(" + unparen(p.expr(x.X)) + ", " + x.Class + ")"
	case *code.Cast:
		return p.expr(x.X)
	case *code.Binary:
		return p.binary(x)
	case *code.Not:
		return "!" + p.expr(x.X)
	case *code.Cond:
		return "(" + unparen(p.expr(x.If)) + " ? " + p.expr(x.Then) + " : " + p.expr(x.Else) + ")"
	case *code.Concat:
		return p.concat(x)
	case *code.Hash:
		return "Kotlin.hashCode(" + unparen(p.expr(x.X)) + ")"
	case *code.ArrayToString:
		return "Kotlin.arrayToString(" + unparen(p.expr(x.X)) + ")"
	case *code.ArrayEquals:
		return "Kotlin.arrayEquals(" + p.args([]code.Expr{x.Left, x.Right}) + ")"
	case *code.NewArray:
		return "[" + p.args(x.Elems) + "]"
	case *code.ArrayClone:
		return p.expr(x.X) + ".slice()"
	case *code.EnumValueOf:
		return "Kotlin.enumValueOf(" + x.Class + ", " + unparen(p.expr(x.Name)) + ")"
	case *code.MaskBit:
		return fmt.Sprintf("((%s & %d) !== 0)", p.expr(x.Mask), 1<<x.Bit)
	}
	return p.fail("unsupported expression %T", e)
}

func (p *printer) call(c *code.Call) string {
	ref := c.Method
	switch c.Kind {
	case code.Static:
		return ref.Owner + "." + ref.Name + "(" + p.args(c.Args) + ")"
	case code.Super:
		if kind, ok := p.w.accessor(ref); ok {
			desc := fmt.Sprintf("Object.getOwnPropertyDescriptor(%s.prototype, %s)", ref.Owner, quote(ref.Name))
			if kind == target.Getter {
				return desc + ".get.call(this)"
			}
			return desc + ".set.call(" + p.thisArgs(c.Args) + ")"
		}
		return ref.Owner + ".prototype." + ref.Name + ".call(" + p.thisArgs(c.Args) + ")"
	}
	recv := "this"
	if c.Receiver != nil {
		recv = p.expr(c.Receiver)
	}
	if kind, ok := p.w.accessor(ref); ok {
		if kind == target.Getter {
			return recv + "." + ref.Name
		}
		return "(" + recv + "." + ref.Name + " = " + p.args(c.Args) + ")"
	}
	return recv + "." + ref.Name + "(" + p.args(c.Args) + ")"
}

func (p *printer) binary(b *code.Binary) string {
	l, r := p.expr(b.Left), p.expr(b.Right)
	switch b.Op {
	case code.Add, code.Sub:
		if intLike(b.Type) {
			return "((" + l + " " + b.Op.String() + " " + r + ") | 0)"
		}
		return "(" + l + " " + b.Op.String() + " " + r + ")"
	case code.Mul:
		if intLike(b.Type) {
			return "Math.imul(" + unparen(l) + ", " + unparen(r) + ")"
		}
		return "(" + l + " * " + r + ")"
	case code.And, code.Or:
		return "(" + l + " " + b.Op.String() + " " + r + ")"
	case code.Lt:
		if b.Type.IsPrimitive() {
			return "(" + l + " < " + r + ")"
		}
		return "(Kotlin.compareTo(" + unparen(l) + ", " + unparen(r) + ") < 0)"
	case code.RefEq:
		return "(" + l + " === " + r + ")"
	case code.ValueEq:
		if b.Type.IsPrimitive() {
			return "(" + l + " === " + r + ")"
		}
		return "Kotlin.equals(" + unparen(l) + ", " + unparen(r) + ")"
	}
	return p.fail("unsupported operator %s", b.Op)
}

func (p *printer) concat(c *code.Concat) string {
	if len(c.Parts) == 0 {
		return `""`
	}
	parts := make([]string, len(c.Parts))
	for i, part := range c.Parts {
		if k, ok := part.(*code.Const); ok {
			if s, ok := k.Value.(string); ok {
				parts[i] = quote(s)
				continue
			}
		}
		t := code.TypeOf(part)
		switch {
		case t.IsPrimitive() && t.Kind == ir.TypeChar:
			parts[i] = "String.fromCharCode(" + unparen(p.expr(part)) + ")"
		default:
			parts[i] = "Kotlin.toString(" + unparen(p.expr(part)) + ")"
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func constant(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case rune:
		return strconv.Itoa(int(v))
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return number(v)
	case string:
		return quote(v)
	}
	return "undefined"
}

func number(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0 && math.Signbit(v):
		return "-0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// quote renders s as a double-quoted JS string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			switch {
			case r < 0x20 || r > 0xfffe:
				if r > 0xffff {
					r1, r2 := utf16.EncodeRune(r)
					fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
				} else {
					fmt.Fprintf(&sb, `\u%04x`, r)
				}
			case r == 0x2028 || r == 0x2029:
				fmt.Fprintf(&sb, `\u%04x`, r)
			default:
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// propertyKey quotes object keys that are not plain identifiers.
func propertyKey(name string) string {
	for i, r := range name {
		ok := r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9'
		if !ok {
			return quote(name)
		}
	}
	if name == "" {
		return `""`
	}
	return name
}

// unparen strips one pair of parentheses enclosing all of s.
func unparen(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i < len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}
