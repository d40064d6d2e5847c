package irbuild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modport/internal/diag"
	"modport/internal/ir"
	"modport/internal/javaparse"
)

func parseFiles(t *testing.T, sources map[string]string) []*javaparse.File {
	t.Helper()
	p := javaparse.NewParser()
	var out []*javaparse.File
	for path, src := range sources {
		file, notes := p.Parse([]byte(src), path)
		require.Empty(t, notes, "unexpected parse notes for %s", path)
		out = append(out, file)
	}
	return out
}

func build(t *testing.T, sink *diag.Sink, sources map[string]string) *ir.Context {
	t.Helper()
	files := parseFiles(t, sources)
	irc, err := NewBuilder(sink).Build(context.Background(), files, Meta{ModID: "rubymod", LoaderVariant: "forge"})
	require.NoError(t, err)
	return irc
}

const deferredSource = `package com.example;

public class ModBlocks {
    public static final RegistryObject<Block> RUBY_BLOCK = BLOCKS.register("ruby_block",
        () -> new Block(AbstractBlock.Settings.create().strength(1.5f)));
}
`

const directSource = `package com.example;

public class RubyBlocks {
    public static final Block RUBY_BLOCK = Registry.register(
        Registries.BLOCK,
        new Identifier("rubymod", "ruby_block"),
        new Block(AbstractBlock.Settings.create().strength(1.5f)));
}
`

const annotatedHandlerSource = `package com.example;

public class BreakHandler {
    @SubscribeEvent
    public void onBlockBreak(BlockBreakEvent event) {
        event.getPlayer().sendMessage("mined");
        world.playSound(RUBY_BLOCK, 1.0f);
    }
}
`

func TestDeferredRegisterNormalized(t *testing.T) {
	irc := build(t, diag.NewSink(), map[string]string{"ModBlocks.java": deferredSource})

	regs := irc.NodesOfKind(ir.KindRegistration)
	require.Len(t, regs, 1)
	reg := regs[0].Registration
	assert.Equal(t, "rubymod:ruby_block", reg.Identifier)
	assert.Equal(t, ir.SubjectBlock, reg.Subject)
	assert.Equal(t, "RUBY_BLOCK", reg.FieldName)
	assert.Equal(t, ir.IdiomDeferred, reg.Idiom)
	require.Len(t, reg.Properties, 1)
	assert.Equal(t, "block.settings.strength", reg.Properties[0].Signature)
	require.Len(t, reg.Properties[0].Args, 1)
	assert.Equal(t, ir.Arg{Kind: "number", Value: "1.5"}, reg.Properties[0].Args[0])
}

func TestDirectAndDeferredConvergeOnOneShape(t *testing.T) {
	direct := build(t, diag.NewSink(), map[string]string{"RubyBlocks.java": directSource})
	deferred := build(t, diag.NewSink(), map[string]string{"ModBlocks.java": deferredSource})

	dregs := direct.NodesOfKind(ir.KindRegistration)
	fregs := deferred.NodesOfKind(ir.KindRegistration)
	require.Len(t, dregs, 1)
	require.Len(t, fregs, 1)

	// Two structurally different idioms normalize to the same IR payload
	// apart from provenance.
	assert.Equal(t, fregs[0].Registration.Identifier, dregs[0].Registration.Identifier)
	assert.Equal(t, fregs[0].Registration.Subject, dregs[0].Registration.Subject)
	assert.Equal(t, fregs[0].Registration.Properties[0].Signature, dregs[0].Registration.Properties[0].Signature)
	assert.NotEqual(t, fregs[0].Registration.Idiom, dregs[0].Registration.Idiom)
}

func TestAnnotationHolderRecognized(t *testing.T) {
	src := `package com.example;

public class Holders {
    @ObjectHolder("rubymod:ruby_block")
    public static Block RUBY_BLOCK;
}
`
	irc := build(t, diag.NewSink(), map[string]string{"Holders.java": src})

	regs := irc.NodesOfKind(ir.KindRegistration)
	require.Len(t, regs, 1)
	assert.Equal(t, "rubymod:ruby_block", regs[0].Registration.Identifier)
	assert.Equal(t, ir.IdiomAnnotation, regs[0].Registration.Idiom)
	assert.Equal(t, ir.SubjectBlock, regs[0].Registration.Subject)
}

func TestAnnotatedEventHandlerWithLogicChild(t *testing.T) {
	irc := build(t, diag.NewSink(), map[string]string{"BreakHandler.java": annotatedHandlerSource})

	handlers := irc.NodesOfKind(ir.KindEventHandler)
	require.Len(t, handlers, 1)
	h := handlers[0]
	assert.Equal(t, "BlockBreakEvent", h.EventHandler.Event)
	assert.Equal(t, "onBlockBreak", h.EventHandler.HandlerName)
	assert.Equal(t, "RUBY_BLOCK", h.EventHandler.RefField)

	require.Len(t, h.Children, 1)
	logic := irc.NodeByID(h.Children[0])
	require.NotNil(t, logic)
	require.Equal(t, ir.KindLogicBlock, logic.Kind)
	assert.Equal(t, h.ID, logic.Parent)

	require.Len(t, logic.Logic.Calls, 2)
	assert.Equal(t, "event.getPlayer().sendMessage", logic.Logic.Calls[0].Signature)
	assert.Equal(t, "world.playSound", logic.Logic.Calls[1].Signature)
}

func TestCallbackRegisterRecognized(t *testing.T) {
	src := `package com.example;

public class ModInit {
    public void onInitialize() {
        PlayerBlockBreakEvents.AFTER.register((player) -> {
            player.sendMessage("after break");
        });
    }
}
`
	irc := build(t, diag.NewSink(), map[string]string{"ModInit.java": src})

	handlers := irc.NodesOfKind(ir.KindEventHandler)
	require.Len(t, handlers, 1)
	assert.Equal(t, "PlayerBlockBreakEvents", handlers[0].EventHandler.Event)
	assert.Equal(t, ir.IdiomCallback, handlers[0].EventHandler.Idiom)

	require.Len(t, handlers[0].Children, 1)
	logic := irc.NodeByID(handlers[0].Children[0])
	require.Len(t, logic.Logic.Calls, 1)
	assert.Equal(t, "event.sendMessage", logic.Logic.Calls[0].Signature)
}

func TestNestedRegistryClassRecognized(t *testing.T) {
	src := `package com.example;

public class ModContent {
    public static class Blocks {
        public static final RegistryObject<Block> RUBY_BLOCK = BLOCKS.register("ruby_block",
            () -> new Block(AbstractBlock.Settings.create().strength(1.5f)));
    }

    public static class Items {
        public static final RegistryObject<Item> RUBY = ITEMS.register("ruby",
            () -> new Item(new Item.Settings().maxCount(16)));
    }
}
`
	sink := diag.NewSink()
	irc := build(t, sink, map[string]string{"ModContent.java": src})

	regs := irc.NodesOfKind(ir.KindRegistration)
	require.Len(t, regs, 2)
	assert.Equal(t, "rubymod:ruby_block", regs[0].Registration.Identifier)
	assert.Equal(t, "RUBY_BLOCK", regs[0].Registration.FieldName)
	assert.Equal(t, ir.SubjectBlock, regs[0].Registration.Subject)
	assert.Equal(t, "rubymod:ruby", regs[1].Registration.Identifier)
	assert.Equal(t, ir.SubjectItem, regs[1].Registration.Subject)

	// The outer class is just a container; a match anywhere in its
	// subtree keeps it out of the unrecognized bucket.
	assert.Empty(t, irc.NodesOfKind(ir.KindUnrecognized))
	assert.Empty(t, sink.Notes())
}

func TestUnrecognizedIsNeverDropped(t *testing.T) {
	src := `package com.example;

public class MathUtil {
    public int clamp(int v, int lo, int hi) {
        return v;
    }
}
`
	sink := diag.NewSink()
	irc := build(t, sink, map[string]string{"MathUtil.java": src})

	assert.Empty(t, irc.NodesOfKind(ir.KindRegistration))
	assert.Empty(t, irc.NodesOfKind(ir.KindEventHandler))

	unrec := irc.NodesOfKind(ir.KindUnrecognized)
	require.Len(t, unrec, 1)
	assert.Equal(t, "MathUtil", unrec[0].Unrecognized.DeclName)

	notes := sink.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, diag.SeverityInfo, notes[0].Severity)
	assert.Equal(t, unrec[0].ID, notes[0].SourceNodeID)
}

func TestCrossFileLinking(t *testing.T) {
	irc := build(t, diag.NewSink(), map[string]string{
		"ModBlocks.java":    deferredSource,
		"BreakHandler.java": annotatedHandlerSource,
	})

	handlers := irc.NodesOfKind(ir.KindEventHandler)
	require.Len(t, handlers, 1)
	regs := irc.NodesOfKind(ir.KindRegistration)
	require.Len(t, regs, 1)

	// The handler lives in a different file than the registration it
	// references; linking is by identifier across the whole mod.
	assert.Equal(t, regs[0].ID, handlers[0].EventHandler.RefNode)
}

func TestBuildIsDeterministic(t *testing.T) {
	sources := map[string]string{
		"ModBlocks.java":    deferredSource,
		"BreakHandler.java": annotatedHandlerSource,
		"RubyBlocks.java":   directSource,
	}

	first := build(t, diag.NewSink(), sources)
	second := build(t, diag.NewSink(), sources)

	require.Equal(t, len(first.Nodes), len(second.Nodes))
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].ID, second.Nodes[i].ID)
		assert.Equal(t, first.Nodes[i].Kind, second.Nodes[i].Kind)
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := parseFiles(t, map[string]string{"ModBlocks.java": deferredSource})
	_, err := NewBuilder(diag.NewSink()).Build(ctx, files, Meta{ModID: "rubymod"})
	require.Error(t, err)
}
