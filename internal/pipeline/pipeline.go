// Package pipeline composes the conversion stages for one mod: parse,
// IR build, transpile, generate. All I/O happens in the callers; the
// pipeline works on in-memory inputs and returns in-memory outputs.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"modport/internal/diag"
	"modport/internal/irbuild"
	"modport/internal/javaparse"
	"modport/internal/jsast"
	"modport/internal/mapping"
	"modport/internal/transpiler"
)

// SourceFile is one (path, source) pair supplied by the ingestion side.
type SourceFile struct {
	Path   string
	Source []byte
}

// Input is everything a run needs, fully loaded up front. The engine does
// no I/O of its own after Convert starts.
type Input struct {
	ModID          string
	LoaderVariant  string
	Files          []SourceFile
	Mappings       []mapping.APIMapping
	MappingVersion int
	Strategies     transpiler.Strategies
}

// GeneratedFile is one output script.
type GeneratedFile struct {
	Path   string
	Source string
}

// Result aggregates everything the packaging side consumes.
type Result struct {
	Files      []GeneratedFile
	Notes      []diag.Note
	Unmappable []transpiler.UnmappableFeature
	Renames    map[string]string
	Report     *Report
	Success    bool
}

// Convert runs the full pipeline for one mod. Per-file and per-node
// faults degrade output quality via notes; Convert itself errs only on
// cancellation or an invalid mapping table, which are contract
// violations rather than conversion findings.
func Convert(ctx context.Context, in Input) (*Result, error) {
	sink := diag.NewSink()
	report := NewReport(in.ModID)

	resolver, err := mapping.NewResolver(in.Mappings)
	if err != nil {
		return nil, fmt.Errorf("mapping table rejected: %w", err)
	}

	// Parse. One parser per call keeps this loop single-threaded; the
	// parallel path is the builder's collection pass.
	h := report.BeginStage("parse")
	p := javaparse.NewParser()
	var files []*javaparse.File
	parseErrors := 0
	for _, sf := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, notes := p.Parse(sf.Source, sf.Path)
		for _, n := range notes {
			sink.Add(n)
			if n.Severity == diag.SeverityError {
				parseErrors++
			}
		}
		files = append(files, file)
	}
	report.EndStage(h, map[string]float64{
		"files":  float64(len(files)),
		"errors": float64(parseErrors),
	}, nil)

	// IR build.
	h = report.BeginStage("irbuild")
	builder := irbuild.NewBuilder(sink)
	irc, err := builder.Build(ctx, files, irbuild.Meta{ModID: in.ModID, LoaderVariant: in.LoaderVariant})
	if err != nil {
		report.EndStage(h, nil, err)
		return nil, err
	}
	report.EndStage(h, map[string]float64{"nodes": float64(len(irc.Nodes))}, nil)

	// Transpile.
	h = report.BeginStage("transpile")
	tr := transpiler.New(resolver, sink, transpiler.Options{
		ModID:          in.ModID,
		MappingVersion: in.MappingVersion,
		Strategies:     in.Strategies,
	})
	tres, err := tr.Transpile(ctx, irc)
	if err != nil {
		report.EndStage(h, nil, err)
		return nil, err
	}
	report.EndStage(h, map[string]float64{"unmappable": float64(len(tres.Unmappable))}, nil)

	// Generate, in sorted source order for reproducible output.
	h = report.BeginStage("generate")
	var srcPaths []string
	for path := range tres.Programs {
		srcPaths = append(srcPaths, path)
	}
	sort.Strings(srcPaths)

	res := &Result{Renames: tres.Renames, Unmappable: tres.Unmappable, Report: report}
	for _, src := range srcPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prog := tres.Programs[src]
		if len(prog.Body) == 0 {
			continue
		}
		res.Files = append(res.Files, GeneratedFile{
			Path:   outputPath(src),
			Source: jsast.Generate(prog),
		})
	}
	report.EndStage(h, map[string]float64{"files": float64(len(res.Files))}, nil)

	res.Notes = sink.Notes()
	res.Success = sink.Success(in.Strategies.AllowWarnings)

	counts := sink.CountBySeverity()
	notesBySeverity := make(map[string]int, len(counts))
	for sev, c := range counts {
		notesBySeverity[string(sev)] = c
		if sev == diag.SeverityCritical || sev == diag.SeverityError {
			report.AddSignal("conversion_"+string(sev)+"_notes", "pipeline", string(sev),
				fmt.Sprintf("run produced %d %s note(s)", c, sev), float64(c))
		}
	}
	if !res.Success {
		report.AddSignal("conversion_failed", "pipeline", "critical", "conversion did not meet the configured success criteria", 1)
	}
	report.Finalize(len(in.Files), len(res.Files), len(res.Unmappable), notesBySeverity)
	return res, nil
}

// outputPath maps a source file path to its generated script path:
// src/main/java/com/mod/RubyBlock.java -> scripts/RubyBlock.js.
func outputPath(src string) string {
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return "scripts/" + base + ".js"
}
