package jvm

import (
	"fmt"
	"math"

	"github.com/broady/classgen/code"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/target"
)

// Runtime helpers referenced by selected code.
const (
	objectClass  = "java/lang/Object"
	builderClass = "java/lang/StringBuilder"
	arraysClass  = "java/util/Arrays"
	enumClass    = "java/lang/Enum"
	intrinsics   = "kotlin/jvm/internal/Intrinsics"
)

type box struct {
	class, unbox, desc string
}

var boxes = map[ir.TypeKind]box{
	ir.TypeBoolean: {"java/lang/Boolean", "booleanValue", "Z"},
	ir.TypeByte:    {"java/lang/Byte", "byteValue", "B"},
	ir.TypeChar:    {"java/lang/Character", "charValue", "C"},
	ir.TypeShort:   {"java/lang/Short", "shortValue", "S"},
	ir.TypeInt:     {"java/lang/Integer", "intValue", "I"},
	ir.TypeLong:    {"java/lang/Long", "longValue", "J"},
	ir.TypeFloat:   {"java/lang/Float", "floatValue", "F"},
	ir.TypeDouble:  {"java/lang/Double", "doubleValue", "D"},
}

// category is the computational type of a value on the operand stack.
type category byte

const (
	catVoid   category = 'V'
	catInt    category = 'I'
	catLong   category = 'J'
	catFloat  category = 'F'
	catDouble category = 'D'
	catRef    category = 'A'
)

func categoryOf(t *ir.Type) category {
	if t.IsUnit() {
		return catVoid
	}
	if !t.IsPrimitive() {
		return catRef
	}
	switch t.Kind {
	case ir.TypeLong:
		return catLong
	case ir.TypeFloat:
		return catFloat
	case ir.TypeDouble:
		return catDouble
	}
	return catInt
}

func width(t *ir.Type) int {
	if t.IsWide() {
		return 2
	}
	return 1
}

// primitiveDesc returns the descriptor of a primitive kind.
func primitiveDesc(k ir.TypeKind) string { return boxes[k].desc }

// helperDesc is the parameter descriptor of java/util/Arrays overloads.
func helperDesc(t *ir.Type) string {
	if t.IsArray() && t.Elem.IsPrimitive() {
		return "[" + primitiveDesc(t.Elem.Kind)
	}
	return "[Ljava/lang/Object;"
}

func isString(t *ir.Type) bool {
	return t != nil && t.Kind == ir.TypeClass && t.Class == ir.StringName
}

type slot struct {
	index int
	t     *ir.Type
}

// selector translates one method body from the code tree to instructions.
type selector struct {
	def    target.MethodDef
	code   []Insn
	params map[int]slot
	locals map[string]slot
	next   int
	max    int
	labels int
}

func newSelector(def target.MethodDef) *selector {
	s := &selector{def: def, params: make(map[int]slot), locals: make(map[string]slot)}
	if !def.Modifiers.Has(target.Static) {
		s.next = 1
	}
	for i, p := range def.Params {
		s.params[i] = slot{s.next, p.Type}
		s.next += width(p.Type)
	}
	s.max = s.next
	return s
}

// method selects body and returns the finished method.
func (s *selector) method(body []code.Stmt) (*Method, error) {
	m := &Method{Name: s.def.Name, Descriptor: s.def.Descriptor, Access: MemberAccess(s.def.Modifiers)}
	if len(body) == 0 {
		return m, nil
	}
	if err := s.stmts(body); err != nil {
		return nil, fmt.Errorf("method %s%s: %w", s.def.Name, s.def.Descriptor, err)
	}
	m.Code, m.MaxLocals = s.code, s.max
	return m, nil
}

func (s *selector) emit(in Insn)          { s.code = append(s.code, in) }
func (s *selector) op(op Opcode)          { s.emit(Insn{Op: op}) }
func (s *selector) jump(op Opcode, l int) { s.emit(Insn{Op: op, Label: l}) }
func (s *selector) mark(l int)            { s.emit(Insn{Op: OpLabel, Label: l}) }

func (s *selector) label() int {
	l := s.labels
	s.labels++
	return l
}

func (s *selector) member(op Opcode, owner, name, desc string) {
	s.emit(Insn{Op: op, Owner: owner, Name: name, Desc: desc})
}

func (s *selector) typed(op Opcode, class string) { s.emit(Insn{Op: op, Type: class}) }

func (s *selector) load(sl slot) {
	op := map[category]Opcode{catInt: ILOAD, catLong: LLOAD, catFloat: FLOAD, catDouble: DLOAD, catRef: ALOAD}[categoryOf(sl.t)]
	s.emit(Insn{Op: op, Var: sl.index})
}

func (s *selector) store(sl slot) {
	op := map[category]Opcode{catInt: ISTORE, catLong: LSTORE, catFloat: FSTORE, catDouble: DSTORE, catRef: ASTORE}[categoryOf(sl.t)]
	s.emit(Insn{Op: op, Var: sl.index})
}

func (s *selector) drop(t *ir.Type) {
	switch categoryOf(t) {
	case catVoid:
	case catLong, catDouble:
		s.op(POP2)
	default:
		s.op(POP)
	}
}

func returnOp(t *ir.Type) Opcode {
	switch categoryOf(t) {
	case catVoid:
		return RETURN
	case catInt:
		return IRETURN
	case catLong:
		return LRETURN
	case catFloat:
		return FRETURN
	case catDouble:
		return DRETURN
	}
	return ARETURN
}

func (s *selector) stmts(list []code.Stmt) error {
	for _, st := range list {
		if err := s.stmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *selector) stmt(st code.Stmt) error {
	switch x := st.(type) {
	case *code.Eval:
		if err := s.expr(x.X); err != nil {
			return err
		}
		s.drop(code.TypeOf(x.X))
	case *code.Return:
		if x.Value == nil {
			s.op(RETURN)
			return nil
		}
		if err := s.expr(x.Value); err != nil {
			return err
		}
		s.op(returnOp(s.def.Return))
	case *code.SetField:
		op := PUTSTATIC
		if !x.Field.Static {
			op = PUTFIELD
			if err := s.expr(x.Receiver); err != nil {
				return err
			}
		}
		if err := s.expr(x.Value); err != nil {
			return err
		}
		s.member(op, x.Field.Owner, x.Field.Name, x.Field.Descriptor)
	case *code.SetParam:
		sl, ok := s.params[x.Index]
		if !ok {
			return fmt.Errorf("no parameter %d", x.Index)
		}
		if err := s.expr(x.Value); err != nil {
			return err
		}
		s.store(sl)
	case *code.Let:
		if err := s.expr(x.Value); err != nil {
			return err
		}
		sl := slot{s.next, x.Type}
		s.next += width(x.Type)
		s.max = max(s.max, s.next)
		s.locals[x.Name] = sl
		s.store(sl)
	case *code.If:
		els := s.label()
		if err := s.jumpIf(x.Cond, els, false); err != nil {
			return err
		}
		if err := s.stmts(x.Then); err != nil {
			return err
		}
		if len(x.Else) == 0 {
			s.mark(els)
			return nil
		}
		end := s.label()
		s.jump(GOTO, end)
		s.mark(els)
		if err := s.stmts(x.Else); err != nil {
			return err
		}
		s.mark(end)
	case *code.SuperInit:
		return s.initCall(x.Ctor, x.Args)
	case *code.ThisInit:
		return s.initCall(x.Ctor, x.Args)
	default:
		return fmt.Errorf("unsupported statement %T", st)
	}
	return nil
}

func (s *selector) initCall(ctor code.MethodRef, args []code.Expr) error {
	s.emit(Insn{Op: ALOAD, Var: 0})
	if err := s.exprs(args); err != nil {
		return err
	}
	s.member(INVOKESPECIAL, ctor.Owner, ctor.Name, ctor.Descriptor)
	return nil
}

func (s *selector) exprs(list []code.Expr) error {
	for _, e := range list {
		if err := s.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *selector) expr(e code.Expr) error {
	switch x := e.(type) {
	case *code.This:
		s.emit(Insn{Op: ALOAD, Var: 0})
	case *code.Param:
		sl, ok := s.params[x.Index]
		if !ok {
			return fmt.Errorf("no parameter %d (%s)", x.Index, x.Name)
		}
		s.load(sl)
	case *code.Local:
		sl, ok := s.locals[x.Name]
		if !ok {
			return fmt.Errorf("no local %s", x.Name)
		}
		s.load(sl)
	case *code.Const:
		s.constant(x)
	case *code.GetField:
		op := GETSTATIC
		if !x.Field.Static {
			op = GETFIELD
			if err := s.expr(x.Receiver); err != nil {
				return err
			}
		}
		s.member(op, x.Field.Owner, x.Field.Name, x.Field.Descriptor)
	case *code.Call:
		return s.call(x)
	case *code.New:
		s.typed(NEW, x.Class)
		s.op(DUP)
		if err := s.exprs(x.Args); err != nil {
			return err
		}
		s.member(INVOKESPECIAL, x.Ctor.Owner, x.Ctor.Name, x.Ctor.Descriptor)
	case *code.InstanceOf:
		if err := s.expr(x.X); err != nil {
			return err
		}
		s.typed(INSTANCEOF, x.Class)
	case *code.Cast:
		if err := s.expr(x.X); err != nil {
			return err
		}
		s.convert(code.TypeOf(x.X), x.To, x.Class)
	case *code.Binary:
		switch x.Op {
		case code.Add, code.Sub, code.Mul:
			return s.arith(x)
		}
		return s.boolean(x)
	case *code.Not:
		return s.boolean(x)
	case *code.Cond:
		els, end := s.label(), s.label()
		if err := s.jumpIf(x.If, els, false); err != nil {
			return err
		}
		if err := s.expr(x.Then); err != nil {
			return err
		}
		s.jump(GOTO, end)
		s.mark(els)
		if err := s.expr(x.Else); err != nil {
			return err
		}
		s.mark(end)
	case *code.Concat:
		return s.concat(x.Parts)
	case *code.Hash:
		return s.hash(x.X)
	case *code.ArrayToString:
		if err := s.expr(x.X); err != nil {
			return err
		}
		s.member(INVOKESTATIC, arraysClass, "toString", "("+helperDesc(code.TypeOf(x.X))+")Ljava/lang/String;")
	case *code.ArrayEquals:
		if err := s.expr(x.Left); err != nil {
			return err
		}
		if err := s.expr(x.Right); err != nil {
			return err
		}
		d := helperDesc(code.TypeOf(x.Left))
		s.member(INVOKESTATIC, arraysClass, "equals", "("+d+d+")Z")
	case *code.NewArray:
		return s.newArray(x)
	case *code.ArrayClone:
		if err := s.expr(x.X); err != nil {
			return err
		}
		s.member(INVOKEVIRTUAL, x.Descriptor, "clone", "()Ljava/lang/Object;")
		s.typed(CHECKCAST, x.Descriptor)
	case *code.EnumValueOf:
		s.emit(Insn{Op: LDC, Const: &Value{Kind: ValueClass, Str: x.Class}})
		if err := s.expr(x.Name); err != nil {
			return err
		}
		s.member(INVOKESTATIC, enumClass, "valueOf", "(Ljava/lang/Class;Ljava/lang/String;)Ljava/lang/Enum;")
		s.typed(CHECKCAST, x.Class)
	case *code.MaskBit:
		if err := s.expr(x.Mask); err != nil {
			return err
		}
		s.pushInt(1 << x.Bit)
		s.op(IAND)
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
	return nil
}

func (s *selector) call(x *code.Call) error {
	m := x.Method
	switch x.Kind {
	case code.Static:
		if err := s.exprs(x.Args); err != nil {
			return err
		}
		s.member(INVOKESTATIC, m.Owner, m.Name, m.Descriptor)
		return nil
	case code.Super:
		s.emit(Insn{Op: ALOAD, Var: 0})
		if err := s.exprs(x.Args); err != nil {
			return err
		}
		s.member(INVOKESPECIAL, m.Owner, m.Name, m.Descriptor)
		return nil
	}
	if x.Receiver == nil {
		s.emit(Insn{Op: ALOAD, Var: 0})
	} else if err := s.expr(x.Receiver); err != nil {
		return err
	}
	if err := s.exprs(x.Args); err != nil {
		return err
	}
	op := INVOKEVIRTUAL
	switch {
	case x.Kind == code.Special:
		op = INVOKESPECIAL
	case x.Kind == code.Interface || m.Interface:
		op = INVOKEINTERFACE
	}
	s.member(op, m.Owner, m.Name, m.Descriptor)
	return nil
}

func (s *selector) pushInt(v int64) {
	switch {
	case v >= -1 && v <= 5:
		s.op(ICONST_0 + Opcode(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		s.emit(Insn{Op: BIPUSH, Var: int(v)})
	case v >= math.MinInt16 && v <= math.MaxInt16:
		s.emit(Insn{Op: SIPUSH, Var: int(v)})
	default:
		s.emit(Insn{Op: LDC, Const: &Value{Kind: ValueInt, Int: v}})
	}
}

func (s *selector) pushLong(v int64) {
	switch v {
	case 0:
		s.op(LCONST_0)
	case 1:
		s.op(LCONST_1)
	default:
		s.emit(Insn{Op: LDC2_W, Const: &Value{Kind: ValueLong, Int: v}})
	}
}

func (s *selector) pushFloat(v float64) {
	if (v == 0 && !math.Signbit(v)) || v == 1 || v == 2 {
		s.op(FCONST_0 + Opcode(v))
		return
	}
	s.emit(Insn{Op: LDC, Const: &Value{Kind: ValueFloat, Float: v}})
}

func (s *selector) pushDouble(v float64) {
	if (v == 0 && !math.Signbit(v)) || v == 1 {
		s.op(DCONST_0 + Opcode(v))
		return
	}
	s.emit(Insn{Op: LDC2_W, Const: &Value{Kind: ValueDouble, Float: v}})
}

func (s *selector) constant(c *code.Const) {
	t := c.Type
	switch v := c.Value.(type) {
	case nil:
		s.op(ACONST_NULL)
		return
	case bool:
		if v {
			s.op(ICONST_1)
		} else {
			s.op(ICONST_0)
		}
	case rune:
		s.pushInt(int64(v))
	case int64:
		switch t.Kind {
		case ir.TypeLong:
			s.pushLong(v)
		case ir.TypeFloat:
			s.pushFloat(float64(v))
		case ir.TypeDouble:
			s.pushDouble(float64(v))
		default:
			s.pushInt(v)
		}
	case float64:
		if t.Kind == ir.TypeFloat {
			s.pushFloat(v)
		} else {
			s.pushDouble(v)
		}
	case string:
		s.emit(Insn{Op: LDC, Const: &Value{Kind: ValueString, Str: v}})
		return
	}
	if !t.IsPrimitive() {
		s.box(t.Kind)
	}
}

func (s *selector) box(k ir.TypeKind) {
	b, ok := boxes[k]
	if !ok {
		return
	}
	s.member(INVOKESTATIC, b.class, "valueOf", "("+b.desc+")L"+b.class+";")
}

var primitiveConversions = map[[2]category]Opcode{
	{catInt, catLong}:     I2L,
	{catInt, catFloat}:    I2F,
	{catInt, catDouble}:   I2D,
	{catLong, catInt}:     L2I,
	{catLong, catFloat}:   L2F,
	{catLong, catDouble}:  L2D,
	{catFloat, catInt}:    F2I,
	{catFloat, catLong}:   F2L,
	{catFloat, catDouble}: F2D,
	{catDouble, catInt}:   D2I,
	{catDouble, catLong}:  D2L,
	{catDouble, catFloat}: D2F,
}

// convert changes the value on the stack from type from to type to:
// primitive widening and narrowing, boxing, unboxing or a checked cast.
func (s *selector) convert(from, to *ir.Type, class string) {
	switch {
	case from.IsPrimitive() && to.IsPrimitive():
		if op, ok := primitiveConversions[[2]category{categoryOf(from), categoryOf(to)}]; ok {
			s.op(op)
		}
		if categoryOf(to) == catInt && from.Kind != to.Kind {
			switch to.Kind {
			case ir.TypeByte:
				s.op(I2B)
			case ir.TypeChar:
				s.op(I2C)
			case ir.TypeShort:
				s.op(I2S)
			}
		}
	case from.IsPrimitive():
		s.box(from.Kind)
	case to.IsPrimitive():
		b := boxes[to.Kind]
		s.typed(CHECKCAST, b.class)
		s.member(INVOKEVIRTUAL, b.class, b.unbox, "()"+b.desc)
	default:
		if b, ok := boxes[to.Kind]; ok {
			class = b.class
		}
		if class != "" && class != objectClass {
			s.typed(CHECKCAST, class)
		}
	}
}

func (s *selector) arith(x *code.Binary) error {
	if err := s.expr(x.Left); err != nil {
		return err
	}
	if err := s.expr(x.Right); err != nil {
		return err
	}
	ops := map[code.Op][4]Opcode{
		code.Add: {IADD, LADD, FADD, DADD},
		code.Sub: {ISUB, LSUB, FSUB, DSUB},
		code.Mul: {IMUL, LMUL, FMUL, DMUL},
	}[x.Op]
	switch categoryOf(x.Type) {
	case catInt:
		s.op(ops[0])
	case catLong:
		s.op(ops[1])
	case catFloat:
		s.op(ops[2])
	case catDouble:
		s.op(ops[3])
	default:
		return fmt.Errorf("arithmetic on %s", x.Type)
	}
	return nil
}

// boolean materializes a condition as 0 or 1.
func (s *selector) boolean(e code.Expr) error {
	f, end := s.label(), s.label()
	if err := s.jumpIf(e, f, false); err != nil {
		return err
	}
	s.op(ICONST_1)
	s.jump(GOTO, end)
	s.mark(f)
	s.op(ICONST_0)
	s.mark(end)
	return nil
}

func isNull(e code.Expr) bool {
	c, ok := e.(*code.Const)
	return ok && c.Value == nil
}

// jumpIf branches to l when e evaluates to want and falls through otherwise.
func (s *selector) jumpIf(e code.Expr, l int, want bool) error {
	cond := func(op Opcode) {
		if !want {
			op = negate(op)
		}
		s.jump(op, l)
	}
	switch x := e.(type) {
	case *code.Not:
		return s.jumpIf(x.X, l, !want)
	case *code.Const:
		if b, ok := x.Value.(bool); ok {
			if b == want {
				s.jump(GOTO, l)
			}
			return nil
		}
	case *code.Binary:
		switch x.Op {
		case code.And, code.Or:
			// Or taken on true and And taken on false branch on each operand.
			if (x.Op == code.Or) == want {
				if err := s.jumpIf(x.Left, l, want); err != nil {
					return err
				}
				return s.jumpIf(x.Right, l, want)
			}
			skip := s.label()
			if err := s.jumpIf(x.Left, skip, !want); err != nil {
				return err
			}
			if err := s.jumpIf(x.Right, l, want); err != nil {
				return err
			}
			s.mark(skip)
			return nil
		case code.RefEq:
			switch {
			case isNull(x.Right):
				if err := s.expr(x.Left); err != nil {
					return err
				}
				cond(IFNULL)
			case isNull(x.Left):
				if err := s.expr(x.Right); err != nil {
					return err
				}
				cond(IFNULL)
			default:
				if err := s.expr(x.Left); err != nil {
					return err
				}
				if err := s.expr(x.Right); err != nil {
					return err
				}
				cond(IF_ACMPEQ)
			}
			return nil
		case code.ValueEq, code.Lt:
			return s.compare(x, cond)
		}
	}
	if err := s.expr(e); err != nil {
		return err
	}
	cond(IFNE)
	return nil
}

func (s *selector) compare(x *code.Binary, cond func(Opcode)) error {
	t := x.Type
	if t == nil {
		t = code.TypeOf(x.Left)
	}
	if err := s.expr(x.Left); err != nil {
		return err
	}
	if err := s.expr(x.Right); err != nil {
		return err
	}
	eq := x.Op == code.ValueEq
	pick := func(ifEq, ifLt Opcode) {
		if eq {
			cond(ifEq)
		} else {
			cond(ifLt)
		}
	}
	switch categoryOf(t) {
	case catInt:
		pick(IF_ICMPEQ, IF_ICMPLT)
	case catLong:
		s.op(LCMP)
		pick(IFEQ, IFLT)
	case catFloat:
		if eq {
			s.op(FCMPL)
		} else {
			s.op(FCMPG)
		}
		pick(IFEQ, IFLT)
	case catDouble:
		if eq {
			s.op(DCMPL)
		} else {
			s.op(DCMPG)
		}
		pick(IFEQ, IFLT)
	default:
		if eq {
			s.member(INVOKESTATIC, intrinsics, "areEqual", "(Ljava/lang/Object;Ljava/lang/Object;)Z")
			cond(IFNE)
		} else {
			s.member(INVOKEINTERFACE, "java/lang/Comparable", "compareTo", "(Ljava/lang/Object;)I")
			cond(IFLT)
		}
	}
	return nil
}

func appendDesc(t *ir.Type) string {
	arg := "Ljava/lang/Object;"
	switch {
	case t.IsPrimitive():
		arg = primitiveDesc(t.Kind)
		if t.Kind == ir.TypeByte || t.Kind == ir.TypeShort {
			arg = "I"
		}
	case isString(t):
		arg = "Ljava/lang/String;"
	}
	return "(" + arg + ")Ljava/lang/StringBuilder;"
}

func (s *selector) concat(parts []code.Expr) error {
	s.typed(NEW, builderClass)
	s.op(DUP)
	s.member(INVOKESPECIAL, builderClass, "<init>", "()V")
	for _, p := range parts {
		if err := s.expr(p); err != nil {
			return err
		}
		s.member(INVOKEVIRTUAL, builderClass, "append", appendDesc(code.TypeOf(p)))
	}
	s.member(INVOKEVIRTUAL, builderClass, "toString", "()Ljava/lang/String;")
	return nil
}

// hash pushes the hash code of x: null hashes to 0, booleans to 1 or 0.
func (s *selector) hash(x code.Expr) error {
	t := code.TypeOf(x)
	if err := s.expr(x); err != nil {
		return err
	}
	switch {
	case t.IsArray():
		s.member(INVOKESTATIC, arraysClass, "hashCode", "("+helperDesc(t)+")I")
	case t.IsPrimitive():
		switch t.Kind {
		case ir.TypeLong, ir.TypeFloat, ir.TypeDouble:
			b := boxes[t.Kind]
			s.member(INVOKESTATIC, b.class, "hashCode", "("+b.desc+")I")
		}
	default:
		null, end := s.label(), s.label()
		s.op(DUP)
		s.jump(IFNULL, null)
		s.member(INVOKEVIRTUAL, objectClass, "hashCode", "()I")
		s.jump(GOTO, end)
		s.mark(null)
		s.op(POP)
		s.op(ICONST_0)
		s.mark(end)
	}
	return nil
}

var arrayStores = map[ir.TypeKind]Opcode{
	ir.TypeBoolean: BASTORE,
	ir.TypeByte:    BASTORE,
	ir.TypeChar:    CASTORE,
	ir.TypeShort:   SASTORE,
	ir.TypeInt:     IASTORE,
	ir.TypeLong:    LASTORE,
	ir.TypeFloat:   FASTORE,
	ir.TypeDouble:  DASTORE,
}

var arrayTypes = map[ir.TypeKind]int{
	ir.TypeBoolean: T_BOOLEAN,
	ir.TypeByte:    T_BYTE,
	ir.TypeChar:    T_CHAR,
	ir.TypeShort:   T_SHORT,
	ir.TypeInt:     T_INT,
	ir.TypeLong:    T_LONG,
	ir.TypeFloat:   T_FLOAT,
	ir.TypeDouble:  T_DOUBLE,
}

func (s *selector) newArray(x *code.NewArray) error {
	s.pushInt(int64(len(x.Elems)))
	store := AASTORE
	if x.Elem.IsPrimitive() {
		s.emit(Insn{Op: NEWARRAY, Var: arrayTypes[x.Elem.Kind]})
		store = arrayStores[x.Elem.Kind]
	} else {
		s.typed(ANEWARRAY, x.Class)
	}
	for i, el := range x.Elems {
		s.op(DUP)
		s.pushInt(int64(i))
		if err := s.expr(el); err != nil {
			return err
		}
		s.op(store)
	}
	return nil
}
