package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modport/internal/diag"
	"modport/internal/jsast"
	"modport/internal/mapping"
	"modport/internal/transpiler"
)

const modBlocksSource = `package com.example.rubymod;

public class ModBlocks {
    public static final RegistryObject<Block> RUBY_BLOCK = BLOCKS.register("ruby_block",
        () -> new Block(AbstractBlock.Settings.create().strength(1.5f)));
}
`

const breakHandlerSource = `package com.example.rubymod;

public class BreakHandler {
    @SubscribeEvent
    public void onBlockBreak(BlockBreakEvent event) {
        event.getPlayer().sendMessage("ruby mined");
        world.createExplosion(4.0f);
    }
}
`

func rubyTable() []mapping.APIMapping {
	return []mapping.APIMapping{
		{ID: "reg-block", SourceSignature: "registry.register.block",
			TargetEquivalent: "registry.registerBlock", ConversionType: mapping.ConversionDirect, Version: 1},
		{ID: "prop-strength", SourceSignature: "block.settings.strength",
			TargetEquivalent: "registry.blockOptions.strength", ConversionType: mapping.ConversionDirect, Version: 1},
		{ID: "ev-break", SourceSignature: "BlockBreakEvent",
			TargetEquivalent: "world.afterEvents.playerBreakBlock", ConversionType: mapping.ConversionDirect, Version: 1},
		{ID: "msg", SourceSignature: "event.getPlayer().sendMessage",
			TargetEquivalent: "event.player.sendMessage", ConversionType: mapping.ConversionDirect, Version: 1},
		{ID: "explode", SourceSignature: "world.createExplosion",
			TargetEquivalent: mapping.Unsupported, ConversionType: mapping.ConversionImpossible, Version: 1,
			Notes: "author explosion behavior manually"},
	}
}

func rubyInput() Input {
	return Input{
		ModID:         "rubymod",
		LoaderVariant: "forge",
		Files: []SourceFile{
			{Path: "src/main/java/com/example/ModBlocks.java", Source: []byte(modBlocksSource)},
			{Path: "src/main/java/com/example/BreakHandler.java", Source: []byte(breakHandlerSource)},
		},
		Mappings:       rubyTable(),
		MappingVersion: 1,
		Strategies:     transpiler.Strategies{AllowStubs: true, AllowWarnings: true},
	}
}

func fileByPath(t *testing.T, files []GeneratedFile, path string) GeneratedFile {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no generated file at %s", path)
	return GeneratedFile{}
}

func TestConvertMixedMod(t *testing.T) {
	res, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	blocks := fileByPath(t, res.Files, "scripts/ModBlocks.js")
	handler := fileByPath(t, res.Files, "scripts/BreakHandler.js")

	assert.Contains(t, blocks.Source, `const RUBY_BLOCK = registry.registerBlock("rubymod:ruby_block", {`)
	assert.Contains(t, blocks.Source, "strength: 1.5")

	assert.Contains(t, handler.Source, "world.afterEvents.playerBreakBlock.subscribe((event) => {")
	assert.Contains(t, handler.Source, `event.player.sendMessage("ruby mined");`)
	assert.Contains(t, handler.Source, "function unsupported_1() {")
	assert.Contains(t, handler.Source, "unsupported_1();")

	warnings := 0
	for _, n := range res.Notes {
		require.NotEqual(t, diag.SeverityError, n.Severity)
		require.NotEqual(t, diag.SeverityCritical, n.Severity)
		if n.Severity == diag.SeverityWarning {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
	assert.True(t, res.Success)

	require.Len(t, res.Unmappable, 1)
	assert.Equal(t, "world.createExplosion", res.Unmappable[0].Signature)
}

func TestConvertOutputReparses(t *testing.T) {
	res, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)

	for _, f := range res.Files {
		require.NoError(t, jsast.Verify(f.Source), "generated %s must re-parse", f.Path)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	first, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)
	second, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)

	require.Len(t, second.Files, len(first.Files))
	for i := range first.Files {
		assert.Equal(t, first.Files[i].Path, second.Files[i].Path)
		assert.Equal(t, first.Files[i].Source, second.Files[i].Source)
	}
	assert.Equal(t, first.Notes, second.Notes)
	assert.Equal(t, first.Unmappable, second.Unmappable)
}

func TestConvertStrictStrategiesFail(t *testing.T) {
	in := rubyInput()
	in.Strategies = transpiler.Strategies{AllowStubs: false, AllowWarnings: false}

	res, err := Convert(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, res.Success)
	for _, f := range res.Files {
		assert.NotContains(t, f.Source, "unsupported_")
	}
	require.Len(t, res.Unmappable, 1)
}

func TestConvertRejectsInvalidMappingTable(t *testing.T) {
	in := rubyInput()
	in.Mappings = append(in.Mappings, in.Mappings[0])

	_, err := Convert(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping table rejected")
}

func TestConvertHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Convert(ctx, rubyInput())
	require.Error(t, err)
	assert.Nil(t, res, "a canceled run must not leave partial output")
}

func TestConvertMalformedFileDegrades(t *testing.T) {
	in := rubyInput()
	in.Files = append(in.Files, SourceFile{
		Path:   "src/main/java/com/example/Broken.java",
		Source: []byte("public class Broken { public void oops( {"),
	})

	res, err := Convert(context.Background(), in)
	require.NoError(t, err)

	// The malformed file produces an error note but the healthy files
	// still convert.
	require.Len(t, res.Files, 2)
	errors := 0
	for _, n := range res.Notes {
		if n.Severity == diag.SeverityError {
			errors++
		}
	}
	assert.Equal(t, 1, errors)
	assert.True(t, res.Success, "parse errors are findings, not run failures, when warnings are allowed")
}

func TestConvertReport(t *testing.T) {
	res, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)

	report := res.Report
	require.NotNil(t, report)
	assert.Equal(t, "v1", report.Version)
	assert.Equal(t, "rubymod", report.ModID)

	var stageNames []string
	for _, st := range report.Stages {
		stageNames = append(stageNames, st.Name)
		assert.Equal(t, "ok", st.Status)
	}
	assert.Equal(t, []string{"parse", "irbuild", "transpile", "generate"}, stageNames)

	assert.Equal(t, 2, report.Summary.FilesIn)
	assert.Equal(t, 2, report.Summary.FilesOut)
	assert.Equal(t, 1, report.Summary.UnmappableCount)
	assert.Equal(t, 0, report.Summary.FailedStages)
}

func TestReportSave(t *testing.T) {
	res, err := Convert(context.Background(), rubyInput())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "conversion_report.json")
	require.NoError(t, res.Report.Save(path))
	assert.FileExists(t, path)
}
