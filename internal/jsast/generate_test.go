package jsast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() *Program {
	return &Program{
		Imports: []ImportDecl{
			{Names: []string{"system", "world"}, From: "@minecraft/server"},
		},
		Body: []Stmt{
			&ConstDecl{
				Name: "RUBY_BLOCK",
				Value: Call("registry.registerBlock",
					&StringLit{Value: "rubymod:ruby_block"},
					&ObjectLit{Fields: []ObjectField{
						{Key: "strength", Value: &NumberLit{Text: "1.5"}},
					}},
				),
			},
			&ExprStmt{X: Call("world.afterEvents.playerBreakBlock.subscribe",
				&ArrowFn{
					Params: []string{"event"},
					Body: []Stmt{
						&ExprStmt{X: Call("event.player.sendMessage", &StringLit{Value: "mined"})},
					},
				},
			)},
			&FunctionDecl{
				Name:    "unsupported_1",
				Comment: "World.createExplosion (Ruby.java:12) has no target equivalent",
				Body:    []Stmt{&CommentStmt{Text: "intentionally left empty"}},
			},
		},
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := Generate(sampleProgram())
	second := Generate(sampleProgram())
	assert.Equal(t, first, second)
}

func TestGenerateShape(t *testing.T) {
	out := Generate(sampleProgram())

	assert.Contains(t, out, `import { system, world } from "@minecraft/server";`)
	assert.Contains(t, out, `const RUBY_BLOCK = registry.registerBlock("rubymod:ruby_block", {`)
	assert.Contains(t, out, "  strength: 1.5\n")
	assert.Contains(t, out, "world.afterEvents.playerBreakBlock.subscribe((event) => {")
	assert.Contains(t, out, `  event.player.sendMessage("mined");`)
	assert.Contains(t, out, "function unsupported_1() {")
	assert.Contains(t, out, "// intentionally left empty")
}

func TestGeneratedOutputReparses(t *testing.T) {
	out := Generate(sampleProgram())
	require.NoError(t, Verify(out))
}

func TestVerifyRejectsBrokenSource(t *testing.T) {
	require.Error(t, Verify("function (((("))
}

func TestGenerateSortsImports(t *testing.T) {
	p := &Program{
		Imports: []ImportDecl{
			{Names: []string{"registry"}, From: "./modport/registry"},
			{Names: []string{"world"}, From: "@minecraft/server"},
		},
		Body: []Stmt{&ExprStmt{X: Call("registry.registerBlock")}},
	}
	out := Generate(p)

	first := `import { registry } from "./modport/registry";`
	second := `import { world } from "@minecraft/server";`
	require.Contains(t, out, first)
	require.Contains(t, out, second)
	assert.Less(t, strings.Index(out, first), strings.Index(out, second))
}
