package code

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a statement list as indented pseudo-code, one statement
// per line. The output is stable and used in listings and tests.
func Format(stmts []Stmt) string {
	var sb strings.Builder
	formatStmts(&sb, stmts, 0)
	return sb.String()
}

// FormatStmt renders a single statement without a trailing newline.
func FormatStmt(s Stmt) string {
	return strings.TrimSuffix(Format([]Stmt{s}), "\n")
}

func formatStmts(sb *strings.Builder, stmts []Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range stmts {
		sb.WriteString(indent)
		switch x := s.(type) {
		case *Eval:
			sb.WriteString(FormatExpr(x.X))
		case *Return:
			sb.WriteString("return")
			if x.Value != nil {
				sb.WriteString(" " + FormatExpr(x.Value))
			}
		case *SetField:
			sb.WriteString(fieldTarget(x.Receiver, x.Field) + " = " + FormatExpr(x.Value))
		case *SetParam:
			sb.WriteString(x.Name + " = " + FormatExpr(x.Value))
		case *Let:
			sb.WriteString("let " + x.Name + " = " + FormatExpr(x.Value))
		case *If:
			sb.WriteString("if " + FormatExpr(x.Cond) + " {\n")
			formatStmts(sb, x.Then, depth+1)
			sb.WriteString(indent + "}")
			if len(x.Else) > 0 {
				sb.WriteString(" else {\n")
				formatStmts(sb, x.Else, depth+1)
				sb.WriteString(indent + "}")
			}
		case *SuperInit:
			sb.WriteString("super " + x.Ctor.Owner + "(" + formatArgs(x.Args) + ")")
		case *ThisInit:
			sb.WriteString("this " + x.Ctor.Owner + "(" + formatArgs(x.Args) + ")")
		default:
			fmt.Fprintf(sb, "<%T>", s)
		}
		sb.WriteByte('\n')
	}
}

// FormatExpr renders an expression.
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *This:
		return "this"
	case *Param:
		return x.Name
	case *Local:
		return x.Name
	case *Const:
		return formatConst(x.Value)
	case *GetField:
		return fieldTarget(x.Receiver, x.Field)
	case *Call:
		target := x.Method.Owner + "." + x.Method.Name
		if x.Receiver != nil {
			target = FormatExpr(x.Receiver) + "." + x.Method.Name
		}
		if x.Kind == Super {
			target = "super." + x.Method.Name
		}
		return target + "(" + formatArgs(x.Args) + ")"
	case *New:
		return "new " + x.Class + "(" + formatArgs(x.Args) + ")"
	case *InstanceOf:
		return FormatExpr(x.X) + " is " + x.Class
	case *Cast:
		return "(" + FormatExpr(x.X) + " as " + x.To.String() + ")"
	case *Binary:
		return "(" + FormatExpr(x.Left) + " " + x.Op.String() + " " + FormatExpr(x.Right) + ")"
	case *Not:
		return "!" + FormatExpr(x.X)
	case *Cond:
		return "(" + FormatExpr(x.If) + " ? " + FormatExpr(x.Then) + " : " + FormatExpr(x.Else) + ")"
	case *Concat:
		return "concat(" + formatArgs(x.Parts) + ")"
	case *Hash:
		return "hash(" + FormatExpr(x.X) + ")"
	case *ArrayToString:
		return "arrayToString(" + FormatExpr(x.X) + ")"
	case *ArrayEquals:
		return "arrayEquals(" + FormatExpr(x.Left) + ", " + FormatExpr(x.Right) + ")"
	case *NewArray:
		return "[" + formatArgs(x.Elems) + "]"
	case *ArrayClone:
		return "clone(" + FormatExpr(x.X) + ")"
	case *EnumValueOf:
		return "valueOf(" + x.Class + ", " + FormatExpr(x.Name) + ")"
	case *MaskBit:
		return "bit(" + FormatExpr(x.Mask) + ", " + strconv.Itoa(x.Bit) + ")"
	}
	return fmt.Sprintf("<%T>", e)
}

func fieldTarget(recv Expr, f FieldRef) string {
	if recv == nil {
		return f.Owner + "." + f.Name
	}
	return FormatExpr(recv) + "." + f.Name
}

func formatArgs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatExpr(a)
	}
	return strings.Join(parts, ", ")
}

func formatConst(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case rune:
		return strconv.QuoteRune(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
