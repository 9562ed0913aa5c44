package jvm

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the constant as it appears in listings.
func (v *Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueLong:
		return strconv.FormatInt(v.Int, 10) + "L"
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 32) + "f"
	case ValueDouble:
		return strconv.FormatFloat(v.Float, 'g', -1, 64) + "d"
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueClass:
		return "class " + v.Str
	}
	return "?"
}

// String renders the instruction in javap style.
func (in Insn) String() string {
	switch {
	case in.Op == OpLabel:
		return fmt.Sprintf("L%d:", in.Label)
	case in.Op.IsBranch():
		return fmt.Sprintf("%s L%d", in.Op, in.Label)
	case in.Owner != "":
		return fmt.Sprintf("%s %s.%s:%s", in.Op, in.Owner, in.Name, in.Desc)
	case in.Type != "":
		return in.Op.String() + " " + in.Type
	case in.Const != nil:
		return in.Op.String() + " " + in.Const.String()
	}
	switch in.Op {
	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD, ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, BIPUSH, SIPUSH:
		return in.Op.String() + " " + strconv.Itoa(in.Var)
	case NEWARRAY:
		return "newarray " + arrayTypeNames[in.Var]
	}
	return in.Op.String()
}

func withFlags(flags, rest string) string {
	if flags == "" {
		return rest
	}
	return flags + " " + rest
}

// Listing renders a class file as text.
func Listing(cf *ClassFile) string {
	var sb strings.Builder
	kind := "class"
	if cf.IsInterface() {
		kind = "interface"
	}
	fmt.Fprintln(&sb, withFlags(formatFlags(cf.Access&^AccInterface, classFlagNames), kind+" "+cf.Name))
	if cf.Super != "" {
		fmt.Fprintf(&sb, "  extends %s\n", cf.Super)
	}
	for _, i := range cf.Interfaces {
		fmt.Fprintf(&sb, "  implements %s\n", i)
	}
	if cf.Signature != "" {
		fmt.Fprintf(&sb, "  signature %s\n", cf.Signature)
	}
	for _, ic := range cf.InnerClasses {
		fmt.Fprintf(&sb, "  inner %s of %s as %s: %s\n", ic.Inner, ic.Outer, ic.Name, formatFlags(ic.Access, memberFlagNames))
	}
	for _, f := range cf.Fields {
		line := "  field " + withFlags(formatFlags(f.Access, memberFlagNames), f.Name+":"+f.Descriptor)
		if f.Constant != nil {
			line += " = " + f.Constant.String()
		}
		sb.WriteString("\n" + line + "\n")
	}
	for _, m := range cf.Methods {
		fmt.Fprintf(&sb, "\n  method %s\n", withFlags(formatFlags(m.Access, memberFlagNames), m.Name+m.Descriptor))
		if m.Code == nil {
			continue
		}
		fmt.Fprintf(&sb, "    locals %d\n", m.MaxLocals)
		for _, in := range m.Code {
			if in.Op == OpLabel {
				fmt.Fprintf(&sb, "   %s\n", in)
				continue
			}
			fmt.Fprintf(&sb, "    %s\n", in)
		}
	}
	return sb.String()
}
