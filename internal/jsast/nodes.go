// Package jsast models the generated JavaScript as a small typed tree and
// renders it deterministically. No semantic decisions happen here; the
// transpiler decides what to emit, this package only decides how it prints.
package jsast

type Node interface {
	node()
}

type Stmt interface {
	Node
	stmt()
}

type Expr interface {
	Node
	expr()
}

// Program is one generated script file.
type Program struct {
	Imports []ImportDecl
	Body    []Stmt
}

func (Program) node() {}

// ImportDecl is a named import: import { world, system } from "@minecraft/server".
type ImportDecl struct {
	Names []string
	From  string
}

func (ImportDecl) node() {}

type FunctionDecl struct {
	Name    string
	Params  []string
	Body    []Stmt
	Comment string // leading line comment, one line
}

func (FunctionDecl) node() {}
func (FunctionDecl) stmt() {}

type ConstDecl struct {
	Name  string
	Value Expr
}

func (ConstDecl) node() {}
func (ConstDecl) stmt() {}

type ExprStmt struct {
	X Expr
}

func (ExprStmt) node() {}
func (ExprStmt) stmt() {}

type ReturnStmt struct {
	Value Expr // nil for bare return
}

func (ReturnStmt) node() {}
func (ReturnStmt) stmt() {}

// CommentStmt is a standalone line comment.
type CommentStmt struct {
	Text string
}

func (CommentStmt) node() {}
func (CommentStmt) stmt() {}

type CallExpr struct {
	Callee Expr
	Args   []Expr
}

func (CallExpr) node() {}
func (CallExpr) expr() {}

type MemberExpr struct {
	Object   Expr
	Property string
}

func (MemberExpr) node() {}
func (MemberExpr) expr() {}

// Ident is an identifier or a pre-joined dotted path such as
// "world.afterEvents.playerBreakBlock".
type Ident struct {
	Name string
}

func (Ident) node() {}
func (Ident) expr() {}

type StringLit struct {
	Value string
}

func (StringLit) node() {}
func (StringLit) expr() {}

// NumberLit keeps the source text of the number so rendering is
// byte-stable regardless of float formatting.
type NumberLit struct {
	Text string
}

func (NumberLit) node() {}
func (NumberLit) expr() {}

type BoolLit struct {
	Value bool
}

func (BoolLit) node() {}
func (BoolLit) expr() {}

type ObjectField struct {
	Key   string
	Value Expr
}

type ObjectLit struct {
	Fields []ObjectField
}

func (ObjectLit) node() {}
func (ObjectLit) expr() {}

type ArrowFn struct {
	Params []string
	Body   []Stmt
}

func (ArrowFn) node() {}
func (ArrowFn) expr() {}

// Call builds a call expression on a dotted path.
func Call(path string, args ...Expr) *CallExpr {
	return &CallExpr{Callee: &Ident{Name: path}, Args: args}
}
