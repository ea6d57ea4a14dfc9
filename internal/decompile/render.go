package decompile

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/garlic/internal/lift"
)

// renderBody turns a lifted method's statement list into a brace-
// delimited Java source block at the given base indent. A trailing
// `return;` is always elided, so a body that lowers to nothing but
// `return;` (the common void-method shape) renders as "{ }" rather
// than carrying a redundant explicit return.
func renderBody(stmts []lift.Stmt, indent int) string {
	stmts = elideTrailingVoidReturn(stmts)
	if len(stmts) == 0 {
		return "{ }"
	}
	var b strings.Builder
	b.WriteString("{\n")
	writeStmts(&b, stmts, indent+1)
	writeIndent(&b, indent)
	b.WriteString("}")
	return b.String()
}

func elideTrailingVoidReturn(stmts []lift.Stmt) []lift.Stmt {
	if len(stmts) == 0 {
		return stmts
	}
	last, ok := stmts[len(stmts)-1].(lift.Return)
	if ok && last.Value == nil {
		return stmts[:len(stmts)-1]
	}
	return stmts
}

func writeIndent(b *strings.Builder, indent int) {
	b.WriteString(strings.Repeat("    ", indent))
}

func writeStmts(b *strings.Builder, stmts []lift.Stmt, indent int) {
	for _, s := range stmts {
		writeStmt(b, s, indent)
	}
}

func writeStmt(b *strings.Builder, s lift.Stmt, indent int) {
	writeIndent(b, indent)
	switch v := s.(type) {
	case lift.Decl:
		fmt.Fprintf(b, "%s %s;\n", typeOrVar(v.Local), v.Local.Name)
	case lift.Assign:
		if v.Reassign {
			fmt.Fprintf(b, "%s = %s;\n", v.Dst.Name, v.Src)
		} else {
			fmt.Fprintf(b, "%s %s = %s;\n", typeOrVar(v.Dst), v.Dst.Name, v.Src)
		}
	case lift.ExprStmt:
		fmt.Fprintf(b, "%s;\n", v.X)
	case lift.FieldWrite:
		if v.Target == nil {
			fmt.Fprintf(b, "%s.%s = %s;\n", v.Owner, v.Name, v.Value)
		} else {
			fmt.Fprintf(b, "%s.%s = %s;\n", v.Target, v.Name, v.Value)
		}
	case lift.ArrayWrite:
		fmt.Fprintf(b, "%s[%s] = %s;\n", v.Array, v.Index, v.Value)
	case lift.If:
		fmt.Fprintf(b, "if (%s) {\n", v.Cond)
		writeStmts(b, v.Then, indent+1)
		writeIndent(b, indent)
		if len(v.Else) == 0 {
			b.WriteString("}\n")
		} else {
			b.WriteString("} else {\n")
			writeStmts(b, v.Else, indent+1)
			writeIndent(b, indent)
			b.WriteString("}\n")
		}
	case lift.While:
		fmt.Fprintf(b, "while (%s) {\n", v.Cond)
		writeStmts(b, v.Body, indent+1)
		writeIndent(b, indent)
		b.WriteString("}\n")
	case lift.DoWhile:
		b.WriteString("do {\n")
		writeStmts(b, v.Body, indent+1)
		writeIndent(b, indent)
		fmt.Fprintf(b, "} while (%s);\n", v.Cond)
	case lift.Switch:
		fmt.Fprintf(b, "switch (%s) {\n", v.Value)
		for _, c := range v.Cases {
			writeIndent(b, indent+1)
			fmt.Fprintf(b, "case %d:\n", c.Key)
			writeStmts(b, c.Body, indent+2)
		}
		if len(v.Default) > 0 {
			writeIndent(b, indent+1)
			b.WriteString("default:\n")
			writeStmts(b, v.Default, indent+2)
		}
		writeIndent(b, indent)
		b.WriteString("}\n")
	case lift.Synchronized:
		fmt.Fprintf(b, "synchronized (%s) {\n", v.Monitor)
		writeStmts(b, v.Body, indent+1)
		writeIndent(b, indent)
		b.WriteString("}\n")
	case lift.MonitorEnter:
		fmt.Fprintf(b, "/* monitor-enter */ %s;\n", v.X)
	case lift.MonitorExit:
		fmt.Fprintf(b, "/* monitor-exit */ %s;\n", v.X)
	case lift.TryCatch:
		b.WriteString("try {\n")
		writeStmts(b, v.Body, indent+1)
		writeIndent(b, indent)
		b.WriteString("}")
		for _, c := range v.Handlers {
			fmt.Fprintf(b, " catch (%s e) {\n", javaTypeName(c.Type))
			writeStmts(b, c.Body, indent+1)
			writeIndent(b, indent)
			b.WriteString("}")
		}
		if v.CatchAll != nil {
			b.WriteString(" catch (Throwable e) {\n")
			writeStmts(b, v.CatchAll, indent+1)
			writeIndent(b, indent)
			b.WriteString("}")
		}
		b.WriteString("\n")
	case lift.Goto:
		fmt.Fprintf(b, "goto %s;\n", v.Label)
	case lift.Label:
		fmt.Fprintf(b, "%s:\n", v.Name)
	case lift.Return:
		if v.Value == nil {
			b.WriteString("return;\n")
		} else {
			fmt.Fprintf(b, "return %s;\n", v.Value)
		}
	case lift.Throw:
		fmt.Fprintf(b, "throw %s;\n", v.Value)
	case lift.Stub:
		fmt.Fprintf(b, "// lift failed at offset 0x%x: %s\n", v.MethodOffset, v.Reason)
		for _, line := range strings.Split(strings.TrimRight(v.RawSmali, "\n"), "\n") {
			writeIndent(b, indent)
			fmt.Fprintf(b, "// %s\n", line)
		}
	default:
		fmt.Fprintf(b, "// unrenderable statement %T\n", s)
	}
}

// typeOrVar renders a local's declared type when known, falling back
// to "var" for a merge local the lifter never typed.
func typeOrVar(l lift.Local) string {
	if l.Type == "" {
		return "var"
	}
	return javaTypeName(l.Type)
}
