package javaparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modport/internal/diag"
)

const rubySource = `package com.example.rubymod;

import net.minecraft.block.Block;

public class RubyBlocks {
    public static final Block RUBY_BLOCK = Registry.register(
        Registries.BLOCK,
        new Identifier("rubymod", "ruby_block"),
        new Block(AbstractBlock.Settings.create().strength(1.5f)));

    @SubscribeEvent
    public void onBlockBreak(BlockBreakEvent event) {
        event.getPlayer().sendMessage("ruby mined");
    }
}
`

func TestParseTypedTree(t *testing.T) {
	file, notes := NewParser().Parse([]byte(rubySource), "RubyBlocks.java")
	require.Empty(t, notes)
	require.False(t, file.Partial)

	assert.Equal(t, "com.example.rubymod", file.Package)
	assert.Equal(t, []string{"net.minecraft.block.Block"}, file.Imports)
	require.Len(t, file.Classes, 1)

	cls := file.Classes[0]
	assert.Equal(t, "RubyBlocks", cls.Name)

	require.Len(t, cls.Fields, 1)
	field := cls.Fields[0]
	assert.Equal(t, "RUBY_BLOCK", field.Name)
	assert.Equal(t, "Block", field.Type)
	assert.Contains(t, field.Modifiers, "static")
	require.NotNil(t, field.Init)
	require.Equal(t, ExprCall, field.Init.Kind)

	call := field.Init.Call
	assert.Equal(t, "Registry.register", call.Path)
	require.Len(t, call.Args, 3)
	assert.Equal(t, ExprRef, call.Args[0].Kind)
	assert.Equal(t, "Registries.BLOCK", call.Args[0].Raw)
	require.Equal(t, ExprNew, call.Args[1].Kind)
	assert.Equal(t, "Identifier", call.Args[1].New.Type)
	require.Equal(t, ExprNew, call.Args[2].Kind)
	assert.Equal(t, "Block", call.Args[2].New.Type)
}

func TestParseSettingsChain(t *testing.T) {
	file, _ := NewParser().Parse([]byte(rubySource), "RubyBlocks.java")
	block := file.Classes[0].Fields[0].Init.Call.Args[2].New

	require.Len(t, block.Args, 1)
	require.Equal(t, ExprCall, block.Args[0].Kind)

	chain := block.Args[0].Call.Chain()
	require.Len(t, chain, 2)
	assert.Equal(t, "create", chain[0].Method())
	assert.Equal(t, "strength", chain[1].Method())
	require.Len(t, chain[1].Args, 1)
	assert.Equal(t, ExprNumber, chain[1].Args[0].Kind)
	assert.Equal(t, "1.5", chain[1].Args[0].Raw)
}

func TestParseAnnotatedMethod(t *testing.T) {
	file, _ := NewParser().Parse([]byte(rubySource), "RubyBlocks.java")
	cls := file.Classes[0]

	require.Len(t, cls.Methods, 1)
	m := cls.Methods[0]
	assert.Equal(t, "onBlockBreak", m.Name)
	require.Len(t, m.Annotations, 1)
	assert.Equal(t, "SubscribeEvent", m.Annotations[0].Name)
	require.Len(t, m.Params, 1)
	assert.Equal(t, "BlockBreakEvent", m.Params[0].Type)
	assert.Equal(t, "event", m.Params[0].Name)

	require.Len(t, m.Body, 1)
	st := m.Body[0]
	require.Equal(t, StmtCall, st.Kind)
	assert.Equal(t, "event.getPlayer().sendMessage", st.Call.Path)
	require.Len(t, st.Call.Args, 1)
	assert.Equal(t, ExprString, st.Call.Args[0].Kind)
	assert.Equal(t, "ruby mined", st.Call.Args[0].Raw)
}

func TestParseLambdaRegistration(t *testing.T) {
	src := `package com.example;

public class ModItems {
    public static final RegistryObject<Item> RUBY = ITEMS.register("ruby",
        () -> new Item(new Item.Settings().maxCount(16)));
}
`
	file, notes := NewParser().Parse([]byte(src), "ModItems.java")
	require.Empty(t, notes)

	field := file.Classes[0].Fields[0]
	require.NotNil(t, field.Init)
	call := field.Init.Call
	assert.Equal(t, "ITEMS.register", call.Path)
	require.Len(t, call.Args, 2)
	assert.Equal(t, ExprString, call.Args[0].Kind)
	require.Equal(t, ExprLambda, call.Args[1].Kind)

	lambda := call.Args[1].Lambda
	require.NotNil(t, lambda.ExprBody)
	require.Equal(t, ExprNew, lambda.ExprBody.Kind)
	assert.Equal(t, "Item", lambda.ExprBody.New.Type)
}

func TestParseMalformedSourceDegrades(t *testing.T) {
	src := `package com.example;

public class Broken {
    public void oops( {
}
`
	file, notes := NewParser().Parse([]byte(src), "Broken.java")
	require.True(t, file.Partial)
	require.NotEmpty(t, notes)
	assert.Equal(t, diag.SeverityError, notes[0].Severity)
	assert.Equal(t, diag.StageParser, notes[0].Stage)
	assert.Equal(t, "Broken.java", notes[0].File)
}

func TestParseStaticInitializer(t *testing.T) {
	src := `package com.example;

public class ModInit {
    static {
        Registry.register(Registries.ITEM, "example:gem", new Item());
    }
}
`
	file, notes := NewParser().Parse([]byte(src), "ModInit.java")
	require.Empty(t, notes)

	cls := file.Classes[0]
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "<static>", cls.Methods[0].Name)
	require.Len(t, cls.Methods[0].Body, 1)
	assert.Equal(t, StmtCall, cls.Methods[0].Body[0].Kind)
	assert.Equal(t, "Registry.register", cls.Methods[0].Body[0].Call.Path)
}
