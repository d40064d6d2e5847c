package javaparse

// Span is a line range in the original source file.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// File is the typed per-file parse result. It is immutable once returned
// by Parse; downstream stages only read it.
type File struct {
	Path    string
	Package string
	Imports []string
	Classes []*ClassDecl

	// Partial is set when the source contained syntax errors and the
	// tree below covers only the recoverable portion.
	Partial bool
}

type ClassDecl struct {
	Name        string
	Annotations []Annotation
	Fields      []*FieldDecl
	Methods     []*MethodDecl
	Nested      []*ClassDecl
	Extends     string
	Span        Span
}

type FieldDecl struct {
	Name        string
	Type        string
	Modifiers   []string
	Annotations []Annotation
	Init        *Expr
	Span        Span
}

type MethodDecl struct {
	Name        string
	ReturnType  string
	Modifiers   []string
	Annotations []Annotation
	Params      []Param
	Body        []Stmt
	Span        Span
}

type Param struct {
	Name string
	Type string
}

// Annotation is a source annotation such as @SubscribeEvent or
// @ObjectHolder("mod:name"). Value holds the single unnamed argument if
// one was given; Args holds named arguments.
type Annotation struct {
	Name  string
	Value string
	Args  map[string]string
	Span  Span
}

type StmtKind string

const (
	StmtCall  StmtKind = "call"
	StmtDecl  StmtKind = "decl"
	StmtOther StmtKind = "other"
)

// Stmt is a simplified statement: method-invocation statements and local
// declarations are modeled precisely, everything else keeps its raw text
// so nothing is silently lost.
type Stmt struct {
	Kind StmtKind
	Call *CallExpr
	Decl *LocalDecl
	Raw  string
	Span Span
}

type LocalDecl struct {
	Name string
	Type string
	Init *Expr
}

// CallExpr is a method invocation. Path is the dotted receiver chain plus
// the method name as written, e.g. "Registry.register" or
// "player.sendMessage". For chained invocations like
// Settings.create().strength(1.5f), Recv holds the receiver invocation and
// Path keeps the flattened form with "()." separators.
type CallExpr struct {
	Path string
	Args []Expr
	Recv *CallExpr
	Span Span
}

// Chain unrolls a chained invocation innermost-first: for
// Settings.create().strength(1.5f).sounds(x) it yields the create,
// strength and sounds links in that order.
func (c *CallExpr) Chain() []*CallExpr {
	if c.Recv == nil {
		return []*CallExpr{c}
	}
	return append(c.Recv.Chain(), c)
}

// Method returns the final segment of the call path.
func (c *CallExpr) Method() string {
	for i := len(c.Path) - 1; i >= 0; i-- {
		if c.Path[i] == '.' {
			return c.Path[i+1:]
		}
	}
	return c.Path
}

type ExprKind string

const (
	ExprString ExprKind = "string"
	ExprNumber ExprKind = "number"
	ExprBool   ExprKind = "bool"
	ExprRef    ExprKind = "ref"
	ExprCall   ExprKind = "call"
	ExprNew    ExprKind = "new"
	ExprLambda ExprKind = "lambda"
	ExprRaw    ExprKind = "raw"
)

// Expr is a simplified expression. Exactly one payload field is set,
// matching Kind; Raw always carries the original text.
type Expr struct {
	Kind   ExprKind
	Raw    string
	Call   *CallExpr
	New    *NewExpr
	Lambda *Lambda
}

type NewExpr struct {
	Type string
	Args []Expr
}

type Lambda struct {
	Params []string
	Body   []Stmt
	// ExprBody is set for expression-bodied lambdas, e.g. () -> new Block(s).
	ExprBody *Expr
}
