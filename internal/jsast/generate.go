package jsast

import (
	"fmt"
	"sort"
	"strings"
)

const indentUnit = "  "

// Generate renders a program to source text. The rendering is purely
// structural and byte-deterministic: identical trees always produce
// identical text, which the golden-file and rerun tests rely on.
func Generate(p *Program) string {
	var b strings.Builder

	imports := make([]ImportDecl, len(p.Imports))
	copy(imports, p.Imports)
	sort.Slice(imports, func(i, j int) bool { return imports[i].From < imports[j].From })
	for _, imp := range imports {
		names := make([]string, len(imp.Names))
		copy(names, imp.Names)
		sort.Strings(names)
		fmt.Fprintf(&b, "import { %s } from %q;\n", strings.Join(names, ", "), imp.From)
	}
	if len(imports) > 0 && len(p.Body) > 0 {
		b.WriteString("\n")
	}

	for i, st := range p.Body {
		if i > 0 {
			if _, ok := st.(*FunctionDecl); ok {
				b.WriteString("\n")
			}
		}
		writeStmt(&b, st, 0)
	}
	return b.String()
}

func writeStmt(b *strings.Builder, st Stmt, depth int) {
	ind := strings.Repeat(indentUnit, depth)
	switch s := st.(type) {
	case *FunctionDecl:
		if s.Comment != "" {
			fmt.Fprintf(b, "%s// %s\n", ind, s.Comment)
		}
		fmt.Fprintf(b, "%sfunction %s(%s) {\n", ind, s.Name, strings.Join(s.Params, ", "))
		for _, inner := range s.Body {
			writeStmt(b, inner, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", ind)
	case *ConstDecl:
		fmt.Fprintf(b, "%sconst %s = %s;\n", ind, s.Name, exprString(s.Value, depth))
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s;\n", ind, exprString(s.X, depth))
	case *ReturnStmt:
		if s.Value == nil {
			fmt.Fprintf(b, "%sreturn;\n", ind)
		} else {
			fmt.Fprintf(b, "%sreturn %s;\n", ind, exprString(s.Value, depth))
		}
	case *CommentStmt:
		fmt.Fprintf(b, "%s// %s\n", ind, s.Text)
	}
}

func exprString(e Expr, depth int) string {
	switch x := e.(type) {
	case *Ident:
		return x.Name
	case *StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *NumberLit:
		return x.Text
	case *BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *MemberExpr:
		return exprString(x.Object, depth) + "." + x.Property
	case *CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = exprString(a, depth)
		}
		return exprString(x.Callee, depth) + "(" + strings.Join(args, ", ") + ")"
	case *ObjectLit:
		if len(x.Fields) == 0 {
			return "{}"
		}
		ind := strings.Repeat(indentUnit, depth+1)
		var parts []string
		for _, f := range x.Fields {
			parts = append(parts, fmt.Sprintf("%s%s: %s", ind, f.Key, exprString(f.Value, depth+1)))
		}
		return "{\n" + strings.Join(parts, ",\n") + "\n" + strings.Repeat(indentUnit, depth) + "}"
	case *ArrowFn:
		var b strings.Builder
		fmt.Fprintf(&b, "(%s) => {\n", strings.Join(x.Params, ", "))
		for _, st := range x.Body {
			writeStmt(&b, st, depth+1)
		}
		b.WriteString(strings.Repeat(indentUnit, depth) + "}")
		return b.String()
	default:
		return ""
	}
}
