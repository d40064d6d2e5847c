package irbuild

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"modport/internal/diag"
	"modport/internal/ir"
	"modport/internal/javaparse"
)

// Meta carries the per-mod context supplied by the ingestion side.
type Meta struct {
	ModID         string
	LoaderVariant string
}

// Builder normalizes parsed files into the platform-neutral IR. The
// collection pass is parallel across files (files share no mutable state);
// the linking pass runs single-threaded over the whole mod.
type Builder struct {
	sink    *diag.Sink
	workers int
}

func NewBuilder(sink *diag.Sink) *Builder {
	return &Builder{sink: sink, workers: runtime.NumCPU()}
}

// Build runs both passes. Node IDs are a pure function of file path and
// declaration order, so identical input yields ID-for-ID identical output.
func (b *Builder) Build(ctx context.Context, files []*javaparse.File, meta Meta) (*ir.Context, error) {
	ordered := make([]*javaparse.File, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	perFile := make([][]*ir.Node, len(ordered))
	perFileNotes := make([][]diag.Note, len(ordered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range ordered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i], perFileNotes[i] = b.collectFile(f, meta)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collection pass: %w", err)
	}

	// Notes are flushed in file order so identical input yields an
	// identical diagnostics list regardless of goroutine scheduling.
	irc := &ir.Context{ModID: meta.ModID, LoaderVariant: meta.LoaderVariant}
	for i, nodes := range perFile {
		irc.Nodes = append(irc.Nodes, nodes...)
		for _, note := range perFileNotes[i] {
			b.sink.Add(note)
		}
	}

	b.link(irc)
	return irc, nil
}

// collectFile is pass 1 for one file: try every idiom rule against every
// declaration, in declaration order, descending into nested classes (mod
// content is routinely grouped in static inner classes). Whatever no rule
// claims becomes an UnrecognizedConstruct; nothing is dropped.
func (b *Builder) collectFile(f *javaparse.File, meta Meta) ([]*ir.Node, []diag.Note) {
	var nodes []*ir.Node
	var notes []diag.Note
	ordinal := 0

	assign := func(m *match) {
		m.primary.ID = nodeID(meta.ModID, f.Path, ordinal)
		ordinal++
		nodes = append(nodes, m.primary)
		if m.logic != nil {
			m.logic.ID = nodeID(meta.ModID, f.Path, ordinal)
			ordinal++
			m.logic.Parent = m.primary.ID
			m.primary.Children = append(m.primary.Children, m.logic.ID)
			nodes = append(nodes, m.logic)
		}
	}

	var collect func(cls *javaparse.ClassDecl) bool
	collect = func(cls *javaparse.ClassDecl) bool {
		matchedAny := false
		rc := ruleContext{file: f, class: cls, modID: meta.ModID}

		for _, field := range cls.Fields {
			for _, rule := range ruleTable {
				if rule.matchField == nil {
					continue
				}
				if m := rule.matchField(rc, field); m != nil {
					assign(m)
					matchedAny = true
					break
				}
			}
		}
		for _, method := range cls.Methods {
			for _, rule := range ruleTable {
				if rule.matchMethod == nil {
					continue
				}
				if ms := rule.matchMethod(rc, method); len(ms) > 0 {
					for _, m := range ms {
						assign(m)
					}
					matchedAny = true
					break
				}
			}
		}
		for _, nested := range cls.Nested {
			if collect(nested) {
				matchedAny = true
			}
		}
		return matchedAny
	}

	for _, cls := range f.Classes {
		if !collect(cls) {
			node := &ir.Node{
				ID:       nodeID(meta.ModID, f.Path, ordinal),
				Kind:     ir.KindUnrecognized,
				Evidence: ir.Evidence{File: f.Path, StartLine: cls.Span.StartLine, EndLine: cls.Span.EndLine},
				Unrecognized: &ir.Unrecognized{
					DeclName: cls.Name,
					DeclKind: "class",
				},
			}
			ordinal++
			nodes = append(nodes, node)
			notes = append(notes, diag.Note{
				Severity:     diag.SeverityInfo,
				Stage:        diag.StageIRBuilder,
				SourceNodeID: node.ID,
				File:         f.Path,
				Line:         cls.Span.StartLine,
				Message:      fmt.Sprintf("class %s matched no registration or event idiom; carried as unrecognized", cls.Name),
			})
		}
	}

	return nodes, notes
}

// link is pass 2: resolve handler references to registrations by holder
// field name across the whole mod, since source ecosystems routinely split
// registration and behavior across files.
func (b *Builder) link(irc *ir.Context) {
	byField := make(map[string]string)
	for _, n := range irc.Nodes {
		if n.Kind == ir.KindRegistration && n.Registration.FieldName != "" {
			if _, dup := byField[n.Registration.FieldName]; !dup {
				byField[n.Registration.FieldName] = n.ID
			}
		}
	}

	for _, n := range irc.Nodes {
		if n.Kind != ir.KindEventHandler || n.EventHandler.RefField == "" {
			continue
		}
		target, ok := byField[n.EventHandler.RefField]
		if !ok {
			b.sink.Add(diag.Note{
				Severity:     diag.SeverityInfo,
				Stage:        diag.StageIRBuilder,
				SourceNodeID: n.ID,
				File:         n.Evidence.File,
				Line:         n.Evidence.StartLine,
				Message:      fmt.Sprintf("handler %s references %s but no registration declares that holder", n.EventHandler.HandlerName, n.EventHandler.RefField),
			})
			continue
		}
		n.EventHandler.RefNode = target
	}
}

func nodeID(modID, path string, ordinal int) string {
	return fmt.Sprintf("%s/%s#%d", modID, strings.TrimPrefix(path, "/"), ordinal)
}
