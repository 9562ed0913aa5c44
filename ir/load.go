package ir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// programDoc is the YAML form of a resolved program.
type programDoc struct {
	Package string      `yaml:"package"`
	Classes []*classDoc `yaml:"classes"`
}

type classDoc struct {
	Name        string           `yaml:"name"`
	Kind        string           `yaml:"kind"`
	Modality    string           `yaml:"modality"`
	Visibility  string           `yaml:"visibility"`
	Data        bool             `yaml:"data"`
	Inner       bool             `yaml:"inner"`
	TypeParams  []typeParamDoc   `yaml:"typeParams"`
	Supertypes  []string         `yaml:"supertypes"`
	Delegations []*delegationDoc `yaml:"delegations"`
	Constructor *ctorDoc         `yaml:"constructor"`
	Closure     *closureDoc      `yaml:"closure"`
	Members     []*memberDoc     `yaml:"members"`
	Companion   *classDoc        `yaml:"companion"`
	Nested      []*classDoc      `yaml:"nested"`
	Entries     []*entryDoc      `yaml:"entries"`
}

type typeParamDoc struct {
	Name  string `yaml:"name"`
	Bound string `yaml:"bound"`
}

// UnmarshalYAML accepts either a bare name or a {name, bound} mapping.
func (t *typeParamDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		t.Name = n.Value
		return nil
	}
	type plain typeParamDoc
	return n.Decode((*plain)(t))
}

type delegationDoc struct {
	Super     string     `yaml:"super"`
	SuperCall string     `yaml:"superCall"`
	Args      []*exprDoc `yaml:"args"`
	By        string     `yaml:"by"`
	Expr      *exprDoc   `yaml:"expr"`
}

type ctorDoc struct {
	Visibility string      `yaml:"visibility"`
	Params     []*paramDoc `yaml:"params"`
}

type paramDoc struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Property string   `yaml:"property"`
	Default  *exprDoc `yaml:"default"`
}

type closureDoc struct {
	Outer         bool               `yaml:"outer"`
	Receiver      string             `yaml:"receiver"`
	Captured      []paramDoc         `yaml:"captured"`
	PrivateAccess []privateAccessDoc `yaml:"privateAccess"`
}

type privateAccessDoc struct {
	Member string `yaml:"member"`
	Kind   string `yaml:"kind"`
}

type memberDoc struct {
	Fun        string      `yaml:"fun"`
	Val        string      `yaml:"val"`
	Var        string      `yaml:"var"`
	Init       []*stmtDoc  `yaml:"init"`
	Visibility string      `yaml:"visibility"`
	Modality   string      `yaml:"modality"`
	Params     []*paramDoc `yaml:"params"`
	Returns    string      `yaml:"returns"`
	Type       string      `yaml:"type"`
	Body       []*stmtDoc  `yaml:"body"`
	Abstract   bool        `yaml:"abstract"`
	Value      *exprDoc    `yaml:"value"`
	Getter     []*stmtDoc  `yaml:"getter"`
	Setter     []*stmtDoc  `yaml:"setter"`
	NoField    bool        `yaml:"noField"`
}

type entryDoc struct {
	Name    string       `yaml:"name"`
	Args    []*exprDoc   `yaml:"args"`
	Members []*memberDoc `yaml:"members"`

	// Specifiers declares extra delegation specifiers; more than one is
	// rejected during synthesis.
	Specifiers int `yaml:"specifiers"`
}

type exprDoc struct {
	Const    yaml.Node  `yaml:"const"`
	Char     string     `yaml:"char"`
	Nil      bool       `yaml:"nil"`
	Type     string     `yaml:"type"`
	Param    string     `yaml:"param"`
	Prop     string     `yaml:"prop"`
	Of       *exprDoc   `yaml:"of"`
	Call     string     `yaml:"call"`
	On       *exprDoc   `yaml:"on"`
	New      string     `yaml:"new"`
	Args     []*exprDoc `yaml:"args"`
	This     *string    `yaml:"this"`
	Captured string     `yaml:"captured"`
	Object   string     `yaml:"object"`
	Op       string     `yaml:"op"`
	Left     *exprDoc   `yaml:"left"`
	Right    *exprDoc   `yaml:"right"`
	Template []*exprDoc `yaml:"template"`
	Skip     bool       `yaml:"skip"`
}

type stmtDoc struct {
	Return *exprDoc `yaml:"return"`
	Eval   *exprDoc `yaml:"eval"`
	Assign string   `yaml:"assign"`
	Of     *exprDoc `yaml:"of"`
	Value  *exprDoc `yaml:"value"`
}

// LoadFile reads a program document from path.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Load decodes a YAML program document, resolves its references, validates
// the class graph and links member scopes.
func Load(r io.Reader) (*Program, error) {
	var doc programDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	l := &loader{prog: NewProgram(), pkg: doc.Package, docs: make(map[*Class]*classDoc)}

	// 1. Declare class shells so that names resolve in any order.
	for _, cd := range doc.Classes {
		c, err := l.declareClass(cd, nil)
		if err != nil {
			return nil, err
		}
		l.prog.AddClass(c)
	}

	// 2. Resolve signatures: supertypes, parameters, member types.
	for _, c := range l.prog.AllClasses() {
		if err := l.resolveSignatures(c); err != nil {
			return nil, err
		}
	}
	if errs := l.prog.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// 3. Resolve bodies and expressions.
	for _, c := range l.prog.AllClasses() {
		if err := l.resolveBodies(c); err != nil {
			return nil, err
		}
	}

	// 4. Compute member scopes.
	if err := l.prog.Link(); err != nil {
		return nil, err
	}
	return l.prog, nil
}

type loader struct {
	prog *Program
	pkg  string
	docs map[*Class]*classDoc

	entryArgs map[*EnumEntry][]*exprDoc
}

func (l *loader) declareClass(cd *classDoc, outer *Class) (*Class, error) {
	if cd.Name == "" {
		return nil, errors.New("class without name")
	}
	name := cd.Name
	switch {
	case outer != nil:
		name = outer.Name + "." + cd.Name
	case l.pkg != "":
		name = l.pkg + "." + cd.Name
	}
	kind, err := parseClassKind(cd.Kind)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	modality, err := parseModality(cd.Modality, Final)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	if kind == KindInterface || kind == KindAnnotation {
		modality = Abstract
	}
	vis, err := parseVisibility(cd.Visibility)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	c := &Class{
		Name:       name,
		Package:    l.pkg,
		Kind:       kind,
		Modality:   modality,
		Visibility: vis,
		Data:       cd.Data,
		Inner:      cd.Inner,
		Outer:      outer,
	}
	l.docs[c] = cd
	if cd.Companion != nil {
		if cd.Companion.Name == "" {
			cd.Companion.Name = "object"
		}
		cd.Companion.Kind = "companion"
		comp, err := l.declareClass(cd.Companion, c)
		if err != nil {
			return nil, err
		}
		c.Companion = comp
	}
	for _, nd := range cd.Nested {
		n, err := l.declareClass(nd, c)
		if err != nil {
			return nil, err
		}
		c.Nested = append(c.Nested, n)
	}
	for i, ed := range cd.Entries {
		e := &EnumEntry{Name: ed.Name, Ordinal: i}
		if len(ed.Members) > 0 {
			body, err := l.declareClass(&classDoc{Name: ed.Name, Kind: "entry", Members: ed.Members}, c)
			if err != nil {
				return nil, err
			}
			e.Body = body
		}
		for j := 0; j < ed.Specifiers; j++ {
			e.Delegations = append(e.Delegations, &SuperCall{Type: c.DefaultType(), Call: &Call{Callee: c.Name}})
		}
		if l.entryArgs == nil {
			l.entryArgs = make(map[*EnumEntry][]*exprDoc)
		}
		l.entryArgs[e] = ed.Args
		c.Entries = append(c.Entries, e)
	}
	return c, nil
}

func (l *loader) resolveSignatures(c *Class) error {
	cd := l.docs[c]
	if cd == nil {
		return nil
	}
	for _, tp := range cd.TypeParams {
		p := TypeParam{Name: tp.Name}
		if tp.Bound != "" {
			b, err := l.parseType(tp.Bound, c, nil)
			if err != nil {
				return err
			}
			p.Bound = b
		}
		c.TypeParameters = append(c.TypeParameters, p)
	}
	for _, s := range cd.Supertypes {
		t, err := l.parseType(s, c, nil)
		if err != nil {
			return fmt.Errorf("class %s supertype: %w", c.Name, err)
		}
		c.Supertypes = append(c.Supertypes, t)
	}
	if cd.Constructor != nil || c.Kind == KindClass || c.Kind == KindEnum || c.Kind.IsSingleton() || c.Kind == KindEnumEntry {
		ctor := &Constructor{Owner: c, Primary: true, Visibility: Public}
		if cd.Constructor != nil {
			vis, err := parseVisibility(cd.Constructor.Visibility)
			if err != nil {
				return err
			}
			ctor.Visibility = vis
			for i, pd := range cd.Constructor.Params {
				vp, err := l.param(pd, i, c, nil)
				if err != nil {
					return fmt.Errorf("class %s constructor: %w", c.Name, err)
				}
				switch pd.Property {
				case "":
				case "val", "var":
					vp.Property = &Property{
						Callable: Callable{Name: vp.Name, Owner: c, Visibility: Public, Modality: Final},
						Type:     vp.Type,
						Var:      pd.Property == "var",
					}
				default:
					return fmt.Errorf("class %s: parameter %s: unknown property marker %q", c.Name, pd.Name, pd.Property)
				}
				ctor.Params = append(ctor.Params, vp)
			}
		}
		if !c.IsInterface() {
			c.Constructors = []*Constructor{ctor}
		}
	}
	for _, md := range cd.Members {
		d, err := l.member(md, c)
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
		c.Declarations = append(c.Declarations, d)
	}
	return nil
}

func (l *loader) param(pd *paramDoc, index int, c *Class, fn *Function) (*ValueParameter, error) {
	t, err := l.parseType(pd.Type, c, fn)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", pd.Name, err)
	}
	return &ValueParameter{Name: pd.Name, Type: t, Index: index}, nil
}

func (l *loader) member(md *memberDoc, c *Class) (Declaration, error) {
	if md.Init != nil && md.Fun == "" && md.Val == "" && md.Var == "" {
		return &Initializer{}, nil
	}
	vis, err := parseVisibility(md.Visibility)
	if err != nil {
		return nil, err
	}
	def := Final
	if c.IsInterface() {
		def = Open
	}
	mod, err := parseModality(md.Modality, def)
	if err != nil {
		return nil, err
	}
	if md.Abstract {
		mod = Abstract
	}
	switch {
	case md.Fun != "":
		fn := &Function{Callable: Callable{Name: md.Fun, Owner: c, Visibility: vis, Modality: mod}}
		for i, pd := range md.Params {
			vp, err := l.param(pd, i, c, fn)
			if err != nil {
				return nil, fmt.Errorf("fun %s: %w", md.Fun, err)
			}
			fn.Params = append(fn.Params, vp)
		}
		fn.Return = Unit()
		if md.Returns != "" {
			rt, err := l.parseType(md.Returns, c, fn)
			if err != nil {
				return nil, fmt.Errorf("fun %s: %w", md.Fun, err)
			}
			fn.Return = rt
		}
		if c.IsInterface() && md.Body == nil {
			fn.Modality = Abstract
		}
		return fn, nil
	case md.Val != "" || md.Var != "":
		name := md.Val
		if name == "" {
			name = md.Var
		}
		t, err := l.parseType(md.Type, c, nil)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		prop := &Property{
			Callable:     Callable{Name: name, Owner: c, Visibility: vis, Modality: mod},
			Type:         t,
			Var:          md.Var != "",
			BackingField: !md.NoField && !c.IsInterface() && mod != Abstract,
		}
		if c.IsInterface() && md.Getter == nil {
			prop.Modality = Abstract
		}
		return prop, nil
	}
	return nil, errors.New("member must declare one of fun, val, var or init")
}

func (l *loader) resolveBodies(c *Class) error {
	cd := l.docs[c]
	if cd == nil {
		return nil
	}
	sc := &scope{class: c}
	if ctor := c.PrimaryConstructor(); ctor != nil {
		sc.params = ctor.Params
		if cd.Constructor != nil {
			for i, pd := range cd.Constructor.Params {
				if pd.Default != nil {
					e, err := l.expr(pd.Default, sc)
					if err != nil {
						return fmt.Errorf("class %s: default of %s: %w", c.Name, pd.Name, err)
					}
					ctor.Params[i].Default = e
				}
			}
		}
	}
	if cd.Closure != nil {
		cl := &Closure{}
		if cd.Closure.Outer || c.Inner {
			cl.OuterThis = c.Outer
		}
		if cd.Closure.Receiver != "" {
			rt, err := l.parseType(cd.Closure.Receiver, c, nil)
			if err != nil {
				return err
			}
			cl.Receiver = rt
		}
		for _, cv := range cd.Closure.Captured {
			t, err := l.parseType(cv.Type, c, nil)
			if err != nil {
				return err
			}
			cl.Captured = append(cl.Captured, CapturedVar{Name: cv.Name, Type: t})
		}
		for _, pa := range cd.Closure.PrivateAccess {
			m := l.findMember(c, pa.Member)
			if m == nil {
				return fmt.Errorf("class %s: private access to unknown member %s", c.Name, pa.Member)
			}
			req := AccessRequest{Member: m}
			switch pa.Kind {
			case "", "call":
				req.Kind = AccessCall
				if _, ok := m.(*Property); ok {
					req.Kind = AccessGet
				}
			case "get":
				req.Kind = AccessGet
			case "set":
				req.Kind = AccessSet
			default:
				return fmt.Errorf("class %s: unknown access kind %q", c.Name, pa.Kind)
			}
			cl.PrivateAccess = append(cl.PrivateAccess, req)
		}
		l.prog.SetClosure(c, cl)
	}
	for _, dd := range cd.Delegations {
		d, err := l.delegation(dd, sc)
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
		c.Delegations = append(c.Delegations, d)
	}
	for i, md := range cd.Members {
		if err := l.memberBody(md, c.Declarations[i], sc); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	for _, e := range c.Entries {
		args := l.entryArgs[e]
		if len(args) == 0 {
			continue
		}
		call := &Call{Callee: c.Name}
		for _, ad := range args {
			a, err := l.expr(ad, &scope{class: c})
			if err != nil {
				return fmt.Errorf("enum entry %s: %w", e.Name, err)
			}
			call.Args = append(call.Args, a)
		}
		if err := l.bindCtor(call, c); err != nil {
			return fmt.Errorf("enum entry %s: %w", e.Name, err)
		}
		if len(e.Delegations) == 0 {
			e.Delegations = []DelegationSpecifier{&SuperCall{Type: c.DefaultType(), Call: call}}
		} else {
			e.Delegations[0] = &SuperCall{Type: c.DefaultType(), Call: call}
		}
	}
	return nil
}

func (l *loader) delegation(dd *delegationDoc, sc *scope) (DelegationSpecifier, error) {
	c := sc.class
	switch {
	case dd.Super != "":
		t, err := l.parseType(dd.Super, c, nil)
		if err != nil {
			return nil, err
		}
		return &SuperClass{Type: t}, nil
	case dd.SuperCall != "":
		t, err := l.parseType(dd.SuperCall, c, nil)
		if err != nil {
			return nil, err
		}
		target, ok := l.prog.Class(t.Class)
		if !ok {
			return nil, fmt.Errorf("super call to unknown class %s", t.Class)
		}
		call := &Call{Callee: t.Class}
		for _, ad := range dd.Args {
			a, err := l.expr(ad, sc)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
		}
		if err := l.bindCtor(call, target); err != nil {
			return nil, err
		}
		return &SuperCall{Type: t, Call: call}, nil
	case dd.By != "":
		t, err := l.parseType(dd.By, c, nil)
		if err != nil {
			return nil, err
		}
		if dd.Expr == nil {
			return nil, fmt.Errorf("delegation to %s without expression", dd.By)
		}
		e, err := l.expr(dd.Expr, sc)
		if err != nil {
			return nil, err
		}
		return &ByExpression{Type: t, Expr: e}, nil
	}
	return nil, errors.New("delegation must declare one of super, superCall or by")
}

func (l *loader) memberBody(md *memberDoc, d Declaration, sc *scope) error {
	switch x := d.(type) {
	case *Initializer:
		body, err := l.stmts(md.Init, sc)
		if err != nil {
			return err
		}
		x.Body = body
	case *Function:
		fsc := &scope{class: sc.class, params: x.Params}
		for i, pd := range md.Params {
			if pd.Default != nil {
				e, err := l.expr(pd.Default, fsc)
				if err != nil {
					return fmt.Errorf("fun %s: %w", x.Name, err)
				}
				x.Params[i].Default = e
			}
		}
		if md.Body != nil {
			body, err := l.stmts(md.Body, fsc)
			if err != nil {
				return fmt.Errorf("fun %s: %w", x.Name, err)
			}
			x.Body = body
		}
	case *Property:
		if md.Value != nil {
			e, err := l.expr(md.Value, sc)
			if err != nil {
				return fmt.Errorf("property %s: %w", x.Name, err)
			}
			x.Initializer = e
		}
		if md.Getter != nil {
			body, err := l.stmts(md.Getter, sc)
			if err != nil {
				return fmt.Errorf("property %s getter: %w", x.Name, err)
			}
			x.Getter = &Accessor{Property: x, Visibility: x.Visibility, Body: body}
		}
		if md.Setter != nil {
			value := &ValueParameter{Name: "value", Type: x.Type}
			body, err := l.stmts(md.Setter, &scope{class: sc.class, params: []*ValueParameter{value}})
			if err != nil {
				return fmt.Errorf("property %s setter: %w", x.Name, err)
			}
			x.Setter = &Accessor{Property: x, Setter: true, Visibility: x.Visibility, Body: body, Param: value}
		}
	}
	return nil
}

type scope struct {
	class  *Class
	params []*ValueParameter
}

func (l *loader) stmts(docs []*stmtDoc, sc *scope) ([]Stmt, error) {
	out := []Stmt{}
	for _, sd := range docs {
		switch {
		case sd.Return != nil:
			e, err := l.expr(sd.Return, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, &Return{Value: e})
		case sd.Eval != nil:
			e, err := l.expr(sd.Eval, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, &Eval{X: e})
		case sd.Assign != "":
			prop := l.findEnclosingProperty(sc.class, sd.Assign)
			if prop == nil {
				return nil, fmt.Errorf("assignment to unknown property %s", sd.Assign)
			}
			if sd.Value == nil {
				return nil, fmt.Errorf("assignment to %s without value", sd.Assign)
			}
			v, err := l.expr(sd.Value, sc)
			if err != nil {
				return nil, err
			}
			a := &Assign{Property: prop, Value: v}
			if sd.Of != nil {
				if a.Receiver, err = l.expr(sd.Of, sc); err != nil {
					return nil, err
				}
			}
			out = append(out, a)
		default:
			// `return: ~` returns unit.
			out = append(out, &Return{})
		}
	}
	return out, nil
}

func (l *loader) expr(ed *exprDoc, sc *scope) (Expr, error) {
	c := sc.class
	switch {
	case ed.Const.Kind != 0:
		return l.constant(ed, c)
	case ed.Char != "":
		r := []rune(ed.Char)
		if len(r) != 1 {
			return nil, fmt.Errorf("char literal %q must be one character", ed.Char)
		}
		return &Const{Value: r[0], Type: Char()}, nil
	case ed.Nil:
		t := Nullable(Any())
		if ed.Type != "" {
			var err error
			if t, err = l.parseType(ed.Type, c, nil); err != nil {
				return nil, err
			}
		}
		return &Const{Value: nil, Type: t}, nil
	case ed.Param != "":
		for _, p := range sc.params {
			if p.Name == ed.Param {
				return &ParamRef{Param: p}, nil
			}
		}
		return nil, fmt.Errorf("unknown parameter %s", ed.Param)
	case ed.Prop != "":
		owner := c
		var recv Expr
		if ed.Of != nil {
			var err error
			if recv, err = l.expr(ed.Of, sc); err != nil {
				return nil, err
			}
			rt, ok := l.prog.TypeOf(recv)
			if !ok {
				return nil, fmt.Errorf("property %s: receiver type unknown", ed.Prop)
			}
			if owner, ok = l.prog.Class(rt.Class); !ok {
				return nil, fmt.Errorf("property %s: unknown receiver class %s", ed.Prop, rt.Class)
			}
		}
		var prop *Property
		if recv == nil {
			prop = l.findEnclosingProperty(owner, ed.Prop)
		} else {
			prop = l.findProperty(owner, ed.Prop)
		}
		if prop == nil {
			return nil, fmt.Errorf("unknown property %s of %s", ed.Prop, owner.Name)
		}
		return &PropertyRef{Receiver: recv, Property: prop}, nil
	case ed.Call != "":
		call := &Call{Callee: ed.Call}
		owner := c
		if ed.On != nil {
			recv, err := l.expr(ed.On, sc)
			if err != nil {
				return nil, err
			}
			call.Receiver = recv
			rt, ok := l.prog.TypeOf(recv)
			if !ok || rt.Kind != TypeClass {
				return nil, fmt.Errorf("call %s: receiver type unknown", ed.Call)
			}
			if owner, ok = l.prog.Class(rt.Class); !ok {
				return nil, fmt.Errorf("call %s: unknown receiver class %s", ed.Call, rt.Class)
			}
		}
		args, err := l.args(ed.Args, sc)
		if err != nil {
			return nil, err
		}
		fn := l.findFunction(owner, ed.Call, len(args))
		if fn == nil {
			return nil, fmt.Errorf("unknown function %s/%d of %s", ed.Call, len(args), owner.Name)
		}
		call.Args = args
		mapped, err := mapArgs(fn.Params, args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", ed.Call, err)
		}
		l.prog.BindCall(call, &ResolvedCall{Function: fn, Args: mapped})
		return call, nil
	case ed.New != "":
		t, err := l.parseType(ed.New, c, nil)
		if err != nil {
			return nil, err
		}
		target, ok := l.prog.Class(t.Class)
		if !ok {
			return nil, fmt.Errorf("new of unknown class %s", t.Class)
		}
		args, err := l.args(ed.Args, sc)
		if err != nil {
			return nil, err
		}
		call := &Call{Callee: t.Class, Args: args}
		if err := l.bindCtor(call, target); err != nil {
			return nil, err
		}
		return call, nil
	case ed.This != nil:
		if *ed.This == "" || *ed.This == "true" {
			return &This{Class: c}, nil
		}
		for o := c; o != nil; o = o.Outer {
			if o.SimpleName() == *ed.This {
				return &This{Class: o}, nil
			}
		}
		return nil, fmt.Errorf("unknown this@%s", *ed.This)
	case ed.Captured != "":
		return &CapturedRef{Name: ed.Captured}, nil
	case ed.Object != "":
		t, err := l.parseType(ed.Object, c, nil)
		if err != nil {
			return nil, err
		}
		oc, ok := l.prog.Class(t.Class)
		if !ok || !oc.Kind.IsSingleton() {
			return nil, fmt.Errorf("%s is not an object", ed.Object)
		}
		return &ObjectRef{Class: oc}, nil
	case ed.Op != "":
		op, err := parseOp(ed.Op)
		if err != nil {
			return nil, err
		}
		if ed.Left == nil || ed.Right == nil {
			return nil, fmt.Errorf("operator %s needs left and right", ed.Op)
		}
		left, err := l.expr(ed.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(ed.Right, sc)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil
	case ed.Template != nil:
		t := &Template{}
		for _, pd := range ed.Template {
			part, err := l.expr(pd, sc)
			if err != nil {
				return nil, err
			}
			t.Parts = append(t.Parts, part)
		}
		return t, nil
	}
	return nil, errors.New("empty expression")
}

func (l *loader) args(docs []*exprDoc, sc *scope) ([]Expr, error) {
	var args []Expr
	for _, ad := range docs {
		if ad.Skip {
			args = append(args, nil)
			continue
		}
		a, err := l.expr(ad, sc)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func (l *loader) bindCtor(call *Call, target *Class) error {
	ctor := target.PrimaryConstructor()
	if ctor == nil {
		return fmt.Errorf("class %s has no constructor", target.Name)
	}
	mapped, err := mapArgs(ctor.Params, call.Args)
	if err != nil {
		return fmt.Errorf("constructor of %s: %w", target.Name, err)
	}
	l.prog.BindCall(call, &ResolvedCall{Constructor: ctor, Args: mapped})
	return nil
}

// mapArgs matches positional arguments to parameters. Trailing parameters
// with defaults may be omitted.
func mapArgs(params []*ValueParameter, args []Expr) ([]Expr, error) {
	if len(args) > len(params) {
		return nil, fmt.Errorf("too many arguments: %d for %d parameters", len(args), len(params))
	}
	mapped := make([]Expr, len(params))
	for i, p := range params {
		if i < len(args) && args[i] != nil {
			mapped[i] = args[i]
			continue
		}
		if p.Default == nil {
			return nil, fmt.Errorf("no value for parameter %s", p.Name)
		}
	}
	return mapped, nil
}

func (l *loader) constant(ed *exprDoc, c *Class) (Expr, error) {
	n := &ed.Const
	var (
		v   any
		typ *Type
	)
	switch n.Tag {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int constant %q: %w", n.Value, err)
		}
		v, typ = i, Int()
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float constant %q: %w", n.Value, err)
		}
		v, typ = f, Double()
	case "!!bool":
		v, typ = n.Value == "true", Boolean()
	case "!!null":
		v, typ = nil, Nullable(Any())
	default:
		v, typ = n.Value, String()
	}
	if ed.Type != "" {
		t, err := l.parseType(ed.Type, c, nil)
		if err != nil {
			return nil, err
		}
		if i, ok := v.(int64); ok && (t.Kind == TypeFloat || t.Kind == TypeDouble) {
			v = float64(i)
		}
		typ = t
	}
	return &Const{Value: v, Type: typ}, nil
}

func (l *loader) findProperty(c *Class, name string) *Property {
	for k := c; k != nil; k = l.superOf(k) {
		for _, p := range k.DataProperties() {
			if p.Name == name {
				return p
			}
		}
		for _, p := range k.Properties() {
			if p.Name == name {
				return p
			}
		}
	}
	for _, st := range c.Supertypes {
		if sc, ok := l.prog.Class(st.Class); ok && sc.IsInterface() {
			if p := l.findProperty(sc, name); p != nil {
				return p
			}
		}
	}
	return nil
}

// findEnclosingProperty resolves an implicit-receiver property reference
// from c outwards: through outer instances of inner classes and through
// enclosing singletons.
func (l *loader) findEnclosingProperty(c *Class, name string) *Property {
	for k := c; k != nil; k = k.Outer {
		if p := l.findProperty(k, name); p != nil {
			return p
		}
		if !k.Inner && (k.Outer == nil || !k.Outer.Kind.IsSingleton()) {
			break
		}
	}
	return nil
}

func (l *loader) findFunction(c *Class, name string, arity int) *Function {
	for _, f := range c.Functions() {
		if f.Name == name && len(f.Params) >= arity {
			return f
		}
	}
	for _, st := range c.Supertypes {
		if sc, ok := l.prog.Class(st.Class); ok {
			if f := l.findFunction(sc, name, arity); f != nil {
				return f
			}
		}
	}
	return nil
}

func (l *loader) findMember(c *Class, name string) Member {
	if p := l.findProperty(c, name); p != nil {
		return p
	}
	for _, f := range c.Functions() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (l *loader) superOf(c *Class) *Class {
	for _, st := range c.Supertypes {
		if sc, ok := l.prog.Class(st.Class); ok && !sc.IsInterface() {
			return sc
		}
	}
	return nil
}

var builtinTypes = map[string]func() *Type{
	"Unit":    Unit,
	"Boolean": Boolean,
	"Byte":    Byte,
	"Char":    Char,
	"Short":   Short,
	"Int":     Int,
	"Long":    Long,
	"Float":   Float,
	"Double":  Double,
	"String":  String,
	"Any":     Any,
}

var primitiveArrays = map[string]func() *Type{
	"BooleanArray": Boolean,
	"ByteArray":    Byte,
	"CharArray":    Char,
	"ShortArray":   Short,
	"IntArray":     Int,
	"LongArray":    Long,
	"FloatArray":   Float,
	"DoubleArray":  Double,
}

// parseType parses a type in source syntax relative to class c and,
// optionally, function fn (for function type parameters).
func (l *loader) parseType(s string, c *Class, fn *Function) (*Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("missing type")
	}
	if strings.HasSuffix(s, "?") {
		t, err := l.parseType(s[:len(s)-1], c, fn)
		if err != nil {
			return nil, err
		}
		return Nullable(t), nil
	}
	name, argStr := s, ""
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("malformed type %q", s)
		}
		name, argStr = s[:i], s[i+1:len(s)-1]
	}
	var args []*Type
	for _, a := range splitTypeArgs(argStr) {
		t, err := l.parseType(a, c, fn)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	if name == "Array" {
		if len(args) != 1 {
			return nil, fmt.Errorf("Array needs one type argument: %q", s)
		}
		return ArrayOf(args[0]), nil
	}
	if len(args) == 0 {
		if mk, ok := builtinTypes[name]; ok {
			return mk(), nil
		}
		if mk, ok := primitiveArrays[name]; ok {
			return ArrayOf(mk()), nil
		}
		if fn != nil {
			for _, tp := range fn.TypeParameters {
				if tp.Name == name {
					return ParamType(name), nil
				}
			}
		}
		for k := c; k != nil; k = k.Outer {
			for _, tp := range k.TypeParameters {
				if tp.Name == name {
					return ParamType(name), nil
				}
			}
			if l.docs[k] != nil {
				for _, tp := range l.docs[k].TypeParams {
					if tp.Name == name {
						return ParamType(name), nil
					}
				}
			}
		}
	}
	fq, ok := l.resolveClassName(name, c)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return ClassType(fq, args...), nil
}

func (l *loader) resolveClassName(name string, c *Class) (string, bool) {
	for k := c; k != nil; k = k.Outer {
		if _, ok := l.prog.Class(k.Name + "." + name); ok {
			return k.Name + "." + name, true
		}
	}
	if l.pkg != "" {
		if _, ok := l.prog.Class(l.pkg + "." + name); ok {
			return l.pkg + "." + name, true
		}
	}
	if _, ok := l.prog.Class(name); ok {
		return name, true
	}
	if strings.HasPrefix(name, "kotlin.") || strings.HasPrefix(name, "java.") {
		return name, true
	}
	return "", false
}

func splitTypeArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func parseClassKind(s string) (ClassKind, error) {
	switch s {
	case "", "class":
		return KindClass, nil
	case "interface", "trait":
		return KindInterface, nil
	case "enum":
		return KindEnum, nil
	case "annotation":
		return KindAnnotation, nil
	case "object":
		return KindObject, nil
	case "companion":
		return KindCompanion, nil
	case "entry":
		return KindEnumEntry, nil
	}
	return 0, fmt.Errorf("unknown class kind %q", s)
}

func parseModality(s string, def Modality) (Modality, error) {
	switch s {
	case "":
		return def, nil
	case "final":
		return Final, nil
	case "open":
		return Open, nil
	case "abstract":
		return Abstract, nil
	}
	return 0, fmt.Errorf("unknown modality %q", s)
}

func parseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return Public, nil
	case "internal":
		return Internal, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return 0, fmt.Errorf("unknown visibility %q", s)
}

func parseOp(s string) (BinaryOp, error) {
	for op := OpAdd; op <= OpOr; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
