package javaparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"modport/internal/diag"
)

// Parser turns Java source text into the typed AST above. One Parser may
// be reused across files but not across goroutines; callers that fan out
// construct one Parser per worker.
type Parser struct {
	parser *sitter.Parser
}

func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses one file. It never fails hard: malformed source degrades to
// a partial AST plus an error-severity note, and the caller continues with
// the remaining files.
func (p *Parser) Parse(source []byte, path string) (*File, []diag.Note) {
	var notes []diag.Note

	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		notes = append(notes, diag.Note{
			Severity: diag.SeverityError,
			Stage:    diag.StageParser,
			File:     path,
			Message:  fmt.Sprintf("parse failed: %v", err),
		})
		return &File{Path: path, Partial: true}, notes
	}

	root := tree.RootNode()
	file := &File{Path: path}

	if root.HasError() {
		file.Partial = true
		line := firstErrorLine(root)
		notes = append(notes, diag.Note{
			Severity:       diag.SeverityError,
			Stage:          diag.StageParser,
			File:           path,
			Line:           line,
			Message:        fmt.Sprintf("syntax error near line %d; continuing with partial tree", line),
			RecommendedFix: "fix the source file and re-run the conversion",
		})
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			file.Package = packageName(child, source)
		case "import_declaration":
			if imp := importPath(child, source); imp != "" {
				file.Imports = append(file.Imports, imp)
			}
		case "class_declaration", "interface_declaration", "enum_declaration":
			if cls := p.classDecl(child, source); cls != nil {
				file.Classes = append(file.Classes, cls)
			}
		}
	}

	return file, notes
}

func firstErrorLine(root *sitter.Node) int {
	line := int(root.StartPoint().Row) + 1
	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(root)
	return line
}

func packageName(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return c.Content(source)
		}
	}
	return ""
}

func importPath(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return c.Content(source)
		}
	}
	return ""
}

func (p *Parser) classDecl(n *sitter.Node, source []byte) *ClassDecl {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	cls := &ClassDecl{
		Name:        nameNode.Content(source),
		Annotations: annotations(n, source),
		Span:        span(n),
	}
	if sup := n.ChildByFieldName("superclass"); sup != nil {
		cls.Extends = strings.TrimSpace(strings.TrimPrefix(sup.Content(source), "extends"))
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration":
			if f := p.fieldDecl(member, source); f != nil {
				cls.Fields = append(cls.Fields, f)
			}
		case "method_declaration":
			if m := p.methodDecl(member, source); m != nil {
				cls.Methods = append(cls.Methods, m)
			}
		case "constructor_declaration":
			if m := p.methodDecl(member, source); m != nil {
				cls.Methods = append(cls.Methods, m)
			}
		case "static_initializer":
			cls.Methods = append(cls.Methods, &MethodDecl{
				Name:      "<static>",
				Modifiers: []string{"static"},
				Body:      p.blockStmts(member, source),
				Span:      span(member),
			})
		case "class_declaration":
			if nested := p.classDecl(member, source); nested != nil {
				cls.Nested = append(cls.Nested, nested)
			}
		}
	}
	return cls
}

func (p *Parser) fieldDecl(n *sitter.Node, source []byte) *FieldDecl {
	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return nil
	}
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	f := &FieldDecl{
		Name:        nameNode.Content(source),
		Modifiers:   modifiers(n, source),
		Annotations: annotations(n, source),
		Span:        span(n),
	}
	if t := n.ChildByFieldName("type"); t != nil {
		f.Type = t.Content(source)
	}
	if v := decl.ChildByFieldName("value"); v != nil {
		f.Init = p.expr(v, source)
	}
	return f
}

func (p *Parser) methodDecl(n *sitter.Node, source []byte) *MethodDecl {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	m := &MethodDecl{
		Name:        nameNode.Content(source),
		Modifiers:   modifiers(n, source),
		Annotations: annotations(n, source),
		Span:        span(n),
	}
	if t := n.ChildByFieldName("type"); t != nil {
		m.ReturnType = t.Content(source)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			pn := params.NamedChild(i)
			if pn.Type() != "formal_parameter" {
				continue
			}
			var param Param
			if t := pn.ChildByFieldName("type"); t != nil {
				param.Type = t.Content(source)
			}
			if nm := pn.ChildByFieldName("name"); nm != nil {
				param.Name = nm.Content(source)
			}
			m.Params = append(m.Params, param)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.Body = p.stmts(body, source)
	}
	return m
}

// blockStmts finds the block child of a node (static initializers wrap one).
func (p *Parser) blockStmts(n *sitter.Node, source []byte) []Stmt {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "block" {
			return p.stmts(c, source)
		}
	}
	return nil
}

func (p *Parser) stmts(block *sitter.Node, source []byte) []Stmt {
	var out []Stmt
	for i := 0; i < int(block.NamedChildCount()); i++ {
		n := block.NamedChild(i)
		switch n.Type() {
		case "expression_statement":
			inner := n.NamedChild(0)
			if inner != nil && inner.Type() == "method_invocation" {
				out = append(out, Stmt{
					Kind: StmtCall,
					Call: p.callExpr(inner, source),
					Span: span(n),
				})
				continue
			}
			out = append(out, Stmt{Kind: StmtOther, Raw: n.Content(source), Span: span(n)})
		case "local_variable_declaration":
			out = append(out, p.localDecl(n, source))
		case "line_comment", "block_comment":
			// skip
		default:
			out = append(out, Stmt{Kind: StmtOther, Raw: n.Content(source), Span: span(n)})
		}
	}
	return out
}

func (p *Parser) localDecl(n *sitter.Node, source []byte) Stmt {
	st := Stmt{Kind: StmtDecl, Span: span(n)}
	decl := &LocalDecl{}
	if t := n.ChildByFieldName("type"); t != nil {
		decl.Type = t.Content(source)
	}
	if d := n.ChildByFieldName("declarator"); d != nil {
		if nm := d.ChildByFieldName("name"); nm != nil {
			decl.Name = nm.Content(source)
		}
		if v := d.ChildByFieldName("value"); v != nil {
			decl.Init = p.expr(v, source)
		}
	}
	st.Decl = decl
	st.Raw = n.Content(source)
	return st
}

func (p *Parser) callExpr(n *sitter.Node, source []byte) *CallExpr {
	call := &CallExpr{Span: span(n)}
	call.Path = callPath(n, source)
	if obj := n.ChildByFieldName("object"); obj != nil && obj.Type() == "method_invocation" {
		call.Recv = p.callExpr(obj, source)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			call.Args = append(call.Args, *p.expr(args.NamedChild(i), source))
		}
	}
	return call
}

// callPath flattens the receiver chain of a method_invocation into a
// dotted path: Registry.register, BLOCKS.register, a.b.c().d becomes the
// text of the receiver plus the method name.
func callPath(n *sitter.Node, source []byte) string {
	name := ""
	if nm := n.ChildByFieldName("name"); nm != nil {
		name = nm.Content(source)
	}
	obj := n.ChildByFieldName("object")
	if obj == nil {
		return name
	}
	switch obj.Type() {
	case "identifier", "field_access", "scoped_identifier":
		return obj.Content(source) + "." + name
	case "method_invocation":
		return callPath(obj, source) + "()." + name
	default:
		return obj.Content(source) + "." + name
	}
}

func (p *Parser) expr(n *sitter.Node, source []byte) *Expr {
	switch n.Type() {
	case "string_literal":
		return &Expr{Kind: ExprString, Raw: strings.Trim(n.Content(source), `"`)}
	case "decimal_integer_literal", "decimal_floating_point_literal", "hex_integer_literal":
		return &Expr{Kind: ExprNumber, Raw: strings.TrimSuffix(strings.TrimSuffix(n.Content(source), "f"), "F")}
	case "true", "false":
		return &Expr{Kind: ExprBool, Raw: n.Content(source)}
	case "identifier", "field_access", "scoped_identifier":
		return &Expr{Kind: ExprRef, Raw: n.Content(source)}
	case "method_invocation":
		return &Expr{Kind: ExprCall, Raw: n.Content(source), Call: p.callExpr(n, source)}
	case "object_creation_expression":
		ne := &NewExpr{}
		if t := n.ChildByFieldName("type"); t != nil {
			ne.Type = t.Content(source)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				ne.Args = append(ne.Args, *p.expr(args.NamedChild(i), source))
			}
		}
		return &Expr{Kind: ExprNew, Raw: n.Content(source), New: ne}
	case "lambda_expression":
		return &Expr{Kind: ExprLambda, Raw: n.Content(source), Lambda: p.lambda(n, source)}
	case "method_reference":
		return &Expr{Kind: ExprRef, Raw: n.Content(source)}
	default:
		return &Expr{Kind: ExprRaw, Raw: n.Content(source)}
	}
}

func (p *Parser) lambda(n *sitter.Node, source []byte) *Lambda {
	l := &Lambda{}
	if params := n.ChildByFieldName("parameters"); params != nil {
		switch params.Type() {
		case "identifier":
			l.Params = append(l.Params, params.Content(source))
		default:
			for i := 0; i < int(params.NamedChildCount()); i++ {
				pn := params.NamedChild(i)
				switch pn.Type() {
				case "identifier":
					l.Params = append(l.Params, pn.Content(source))
				case "formal_parameter":
					if nm := pn.ChildByFieldName("name"); nm != nil {
						l.Params = append(l.Params, nm.Content(source))
					}
				}
			}
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Type() == "block" {
			l.Body = p.stmts(body, source)
		} else {
			l.ExprBody = p.expr(body, source)
		}
	}
	return l
}

func modifiers(n *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(c.ChildCount()); j++ {
			m := c.Child(j)
			switch m.Type() {
			case "marker_annotation", "annotation":
				// collected separately
			default:
				out = append(out, m.Content(source))
			}
		}
	}
	return out
}

func annotations(n *sitter.Node, source []byte) []Annotation {
	var out []Annotation
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			m := c.NamedChild(j)
			if m.Type() != "marker_annotation" && m.Type() != "annotation" {
				continue
			}
			ann := Annotation{Span: span(m)}
			if nm := m.ChildByFieldName("name"); nm != nil {
				ann.Name = nm.Content(source)
			}
			if args := m.ChildByFieldName("arguments"); args != nil {
				ann.Args = make(map[string]string)
				for k := 0; k < int(args.NamedChildCount()); k++ {
					a := args.NamedChild(k)
					if a.Type() == "element_value_pair" {
						key, val := "", ""
						if kn := a.ChildByFieldName("key"); kn != nil {
							key = kn.Content(source)
						}
						if vn := a.ChildByFieldName("value"); vn != nil {
							val = strings.Trim(vn.Content(source), `"`)
						}
						ann.Args[key] = val
					} else {
						ann.Value = strings.Trim(a.Content(source), `"`)
					}
				}
			}
			out = append(out, ann)
		}
	}
	return out
}

func span(n *sitter.Node) Span {
	return Span{
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}
