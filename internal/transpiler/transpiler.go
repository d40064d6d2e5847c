package transpiler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"modport/internal/diag"
	"modport/internal/ir"
	"modport/internal/jsast"
	"modport/internal/mapping"
)

// Strategies are the run-level fidelity/completeness trade-offs applied
// when no clean mapping exists.
type Strategies struct {
	AllowStubs           bool `yaml:"allow_stubs" json:"allow_stubs"`
	AllowWarnings        bool `yaml:"allow_warnings" json:"allow_warnings"`
	AllowSimplifications bool `yaml:"allow_simplifications" json:"allow_simplifications"`
}

type Options struct {
	ModID          string
	MappingVersion int
	Strategies     Strategies
}

// UnmappableFeature is a source construct for which no acceptable target
// emission could be produced, flagged for manual follow-up.
type UnmappableFeature struct {
	NodeID            string `json:"node_id"`
	Signature         string `json:"signature"`
	File              string `json:"file"`
	Line              int    `json:"line"`
	RecommendedAction string `json:"recommended_action"`
}

// NodeState tracks each IR node through the transpile state machine.
type NodeState string

const (
	StatePending     NodeState = "pending"
	StateResolved    NodeState = "resolved"
	StateEmitted     NodeState = "emitted"
	StateUnmapped    NodeState = "unmapped"
	StateStubEmitted NodeState = "stub_emitted"
	StateOmitted     NodeState = "omitted"
	StateAborted     NodeState = "aborted"
	StateFaulted     NodeState = "faulted"
)

// Result is the transpiler output: one target program per source file
// that produced emissions, plus the unmappable-feature ledger.
type Result struct {
	Programs   map[string]*jsast.Program // keyed by source file path
	Unmappable []UnmappableFeature
	States     map[string]NodeState
	Renames    map[string]string
}

// Transpiler walks the IR and emits target AST using the injected
// read-only resolver. It is single-threaded per mod; independent mods get
// independent Transpiler instances.
type Transpiler struct {
	resolver *mapping.Resolver
	sink     *diag.Sink
	opts     Options
	renames  *RenameTable
	stubSeq  int
	roots    map[*jsast.Program]map[string]bool
}

func New(resolver *mapping.Resolver, sink *diag.Sink, opts Options) *Transpiler {
	return &Transpiler{
		resolver: resolver,
		sink:     sink,
		opts:     opts,
		renames:  NewRenameTable(),
		roots:    make(map[*jsast.Program]map[string]bool),
	}
}

// Transpile processes every top-level IR node. A fault in one node is
// caught at the node boundary and must not abort the rest of the mod.
// Cancellation is checked between nodes, never mid-emission.
func (t *Transpiler) Transpile(ctx context.Context, irc *ir.Context) (*Result, error) {
	res := &Result{
		Programs: make(map[string]*jsast.Program),
		States:   make(map[string]NodeState),
	}

	for _, n := range irc.Nodes {
		if n.Parent != "" {
			continue // logic blocks are emitted through their owners
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.States[n.ID] = StatePending
		t.transpileNode(n, irc, res)
	}

	for _, prog := range res.Programs {
		prog.Imports = t.imports(prog)
	}
	res.Renames = t.renames.Pairs()
	return res, nil
}

func (t *Transpiler) transpileNode(n *ir.Node, irc *ir.Context, res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res.States[n.ID] = StateFaulted
			t.sink.Add(diag.Note{
				Severity:     diag.SeverityCritical,
				Stage:        diag.StageTranspiler,
				SourceNodeID: n.ID,
				File:         n.Evidence.File,
				Line:         n.Evidence.StartLine,
				Message:      fmt.Sprintf("internal fault while transpiling node: %v", r),
			})
		}
	}()

	switch n.Kind {
	case ir.KindRegistration:
		t.emitRegistration(n, res)
	case ir.KindEventHandler:
		t.emitEventHandler(n, irc, res)
	case ir.KindUnrecognized:
		// Carried, never emitted. The builder already noted it.
		res.States[n.ID] = StateOmitted
	}
}

func (t *Transpiler) program(res *Result, file string) *jsast.Program {
	if p, ok := res.Programs[file]; ok {
		return p
	}
	p := &jsast.Program{}
	res.Programs[file] = p
	return p
}

// emitRegistration renders a normalized registration as a registry call on
// the target API, with settings properties folded into an options object.
func (t *Transpiler) emitRegistration(n *ir.Node, res *Result) {
	reg := n.Registration
	signature := "registry.register." + string(reg.Subject)

	m, ok := t.resolver.Resolve(signature, t.opts.MappingVersion)
	if !ok || m.ConversionType == mapping.ConversionImpossible {
		t.compromise(n, signature, res, m, ok)
		return
	}
	res.States[n.ID] = StateResolved

	prog := t.program(res, n.Evidence.File)
	options := &jsast.ObjectLit{}
	var after []jsast.Stmt

	for _, prop := range reg.Properties {
		t.emitProperty(n, prop, options, &after, prog, res)
	}

	constName := reg.FieldName
	if constName == "" {
		constName = nameFromIdentifier(reg.Identifier)
	}
	constName = t.renames.Rename(constName)

	call := jsast.Call(m.TargetEquivalent, &jsast.StringLit{Value: reg.Identifier}, options)
	prog.Body = append(prog.Body, &jsast.ConstDecl{Name: constName, Value: call})
	prog.Body = append(prog.Body, after...)
	t.markUse(prog, m.TargetEquivalent)

	switch m.ConversionType {
	case mapping.ConversionWrapper:
		t.note(diag.SeverityInfo, n, fmt.Sprintf("%s bridged through adapter %s", signature, m.TargetEquivalent), m.Notes)
	case mapping.ConversionComplex:
		t.note(diag.SeverityWarning, n, fmt.Sprintf("%s used a heuristic expansion; review the generated registration", signature), m.Notes)
	default:
		t.note(diag.SeverityInfo, n, fmt.Sprintf("registered %s as %s", reg.Identifier, m.TargetEquivalent), "")
	}
	res.States[n.ID] = StateEmitted
}

// emitProperty maps one settings call. Direct and wrapper properties become
// option-object fields; complex ones expand to post-registration statements
// unless a simplified form is allowed.
func (t *Transpiler) emitProperty(n *ir.Node, prop ir.Property, options *jsast.ObjectLit, after *[]jsast.Stmt, prog *jsast.Program, res *Result) {
	m, ok := t.resolver.Resolve(prop.Signature, t.opts.MappingVersion)
	if !ok || m.ConversionType == mapping.ConversionImpossible {
		sev := diag.SeverityWarning
		action := "set the property manually in the generated script"
		if !t.opts.Strategies.AllowStubs {
			sev = diag.SeverityError
		}
		t.note(sev, n, fmt.Sprintf("no target equivalent for property %s; dropped from options", prop.Signature), "")
		res.Unmappable = append(res.Unmappable, UnmappableFeature{
			NodeID:            n.ID,
			Signature:         prop.Signature,
			File:              prop.Evidence.File,
			Line:              prop.Evidence.StartLine,
			RecommendedAction: action,
		})
		return
	}

	var value jsast.Expr = &jsast.BoolLit{Value: true}
	if len(prop.Args) > 0 {
		value = t.argExpr(n, prop.Args[0])
	}

	switch m.ConversionType {
	case mapping.ConversionDirect:
		options.Fields = append(options.Fields, jsast.ObjectField{Key: lastSegment(m.TargetEquivalent), Value: value})
	case mapping.ConversionWrapper:
		options.Fields = append(options.Fields, jsast.ObjectField{
			Key:   lastSegment(prop.Signature),
			Value: jsast.Call(m.TargetEquivalent, value),
		})
		t.note(diag.SeverityInfo, n, fmt.Sprintf("property %s bridged through %s", prop.Signature, m.TargetEquivalent), m.Notes)
	case mapping.ConversionComplex:
		if t.opts.Strategies.AllowSimplifications && m.SimplifiedForm != "" {
			options.Fields = append(options.Fields, jsast.ObjectField{Key: lastSegment(m.SimplifiedForm), Value: value})
			t.note(diag.SeverityWarning, n, fmt.Sprintf("property %s simplified to %s; some fidelity lost", prop.Signature, m.SimplifiedForm), m.Notes)
			return
		}
		stmts := t.expandTemplate(n, m, prop.Args, "", prog)
		*after = append(*after, stmts...)
		t.note(diag.SeverityWarning, n, fmt.Sprintf("property %s expanded heuristically; review recommended", prop.Signature), m.Notes)
	}
}

// emitEventHandler renders a handler as a subscribe call on the mapped
// target event, with the logic block translated call by call.
func (t *Transpiler) emitEventHandler(n *ir.Node, irc *ir.Context, res *Result) {
	handler := n.EventHandler

	m, ok := t.resolver.Resolve(handler.Event, t.opts.MappingVersion)
	if !ok || m.ConversionType == mapping.ConversionImpossible {
		t.compromise(n, handler.Event, res, m, ok)
		return
	}
	res.States[n.ID] = StateResolved

	prog := t.program(res, n.Evidence.File)
	body := t.logicStmts(n, irc, prog, res)

	arrow := &jsast.ArrowFn{Params: []string{"event"}, Body: body}
	var subscribe jsast.Expr
	switch m.ConversionType {
	case mapping.ConversionWrapper:
		subscribe = jsast.Call(m.TargetEquivalent, arrow)
		t.note(diag.SeverityInfo, n, fmt.Sprintf("event %s bridged through adapter %s", handler.Event, m.TargetEquivalent), m.Notes)
	case mapping.ConversionComplex:
		subscribe = jsast.Call(m.TargetEquivalent+".subscribe", arrow)
		t.note(diag.SeverityWarning, n, fmt.Sprintf("event %s mapped heuristically to %s; review recommended", handler.Event, m.TargetEquivalent), m.Notes)
	default:
		subscribe = jsast.Call(m.TargetEquivalent+".subscribe", arrow)
		t.note(diag.SeverityInfo, n, fmt.Sprintf("handler %s subscribed to %s", handler.HandlerName, m.TargetEquivalent), "")
	}
	prog.Body = append(prog.Body, &jsast.ExprStmt{X: subscribe})
	t.markUse(prog, m.TargetEquivalent)
	res.States[n.ID] = StateEmitted
}

// logicStmts translates the handler's logic-block child. Each call is
// resolved independently so one unmapped API degrades only itself.
func (t *Transpiler) logicStmts(n *ir.Node, irc *ir.Context, prog *jsast.Program, res *Result) []jsast.Stmt {
	var logic *ir.LogicBlock
	var logicID string
	for _, childID := range n.Children {
		if child := irc.NodeByID(childID); child != nil && child.Kind == ir.KindLogicBlock {
			logic = child.Logic
			logicID = child.ID
			break
		}
	}
	if logic == nil {
		return nil
	}

	var out []jsast.Stmt
	for _, call := range logic.Calls {
		m, ok := t.resolver.Resolve(call.Signature, t.opts.MappingVersion)
		if !ok || m.ConversionType == mapping.ConversionImpossible {
			if stub := t.compromiseCall(n, logicID, call, prog, res); stub != nil {
				out = append(out, stub)
			}
			continue
		}

		args := make([]jsast.Expr, 0, len(call.Args))
		for _, a := range call.Args {
			args = append(args, t.argExpr(n, a))
		}

		switch m.ConversionType {
		case mapping.ConversionDirect:
			out = append(out, &jsast.ExprStmt{X: jsast.Call(m.TargetEquivalent, args...)})
			t.markUse(prog, m.TargetEquivalent)
			t.note(diag.SeverityInfo, n, fmt.Sprintf("%s translated to %s", call.Signature, m.TargetEquivalent), "")
		case mapping.ConversionWrapper:
			out = append(out, &jsast.ExprStmt{X: jsast.Call(m.TargetEquivalent, args...)})
			t.markUse(prog, m.TargetEquivalent)
			t.note(diag.SeverityInfo, n, fmt.Sprintf("%s bridged through adapter %s", call.Signature, m.TargetEquivalent), m.Notes)
		case mapping.ConversionComplex:
			if t.opts.Strategies.AllowSimplifications && m.SimplifiedForm != "" {
				out = append(out, &jsast.ExprStmt{X: jsast.Call(m.SimplifiedForm, args...)})
				t.markUse(prog, m.SimplifiedForm)
				t.note(diag.SeverityWarning, n, fmt.Sprintf("%s simplified to %s; some fidelity lost", call.Signature, m.SimplifiedForm), m.Notes)
				continue
			}
			out = append(out, t.expandTemplate(n, m, call.Args, "event", prog)...)
			t.note(diag.SeverityWarning, n, fmt.Sprintf("%s expanded from a heuristic template; review recommended", call.Signature), m.Notes)
		}
	}
	return out
}

// compromise handles a whole node (registration or handler) that has no
// usable mapping.
func (t *Transpiler) compromise(n *ir.Node, signature string, res *Result, m mapping.APIMapping, found bool) {
	res.States[n.ID] = StateUnmapped

	action := "port this construct by hand"
	if found && m.Notes != "" {
		action = m.Notes
	}
	res.Unmappable = append(res.Unmappable, UnmappableFeature{
		NodeID:            n.ID,
		Signature:         signature,
		File:              n.Evidence.File,
		Line:              n.Evidence.StartLine,
		RecommendedAction: action,
	})

	if t.opts.Strategies.AllowStubs {
		prog := t.program(res, n.Evidence.File)
		prog.Body = append(prog.Body, t.stubFunction(signature, n.Evidence.File, n.Evidence.StartLine))
		res.States[n.ID] = StateStubEmitted
		t.note(diag.SeverityWarning, n, fmt.Sprintf("no target equivalent for %s; emitted a stub", signature), action)
		return
	}

	sev := diag.SeverityError
	res.States[n.ID] = StateOmitted
	if !t.opts.Strategies.AllowWarnings {
		res.States[n.ID] = StateAborted
	}
	t.note(sev, n, fmt.Sprintf("no target equivalent for %s; nothing emitted", signature), action)
}

// compromiseCall handles one unmapped logic call inside an otherwise
// mapped handler. Returns the in-body statement to keep, if any.
func (t *Transpiler) compromiseCall(n *ir.Node, logicID string, call ir.LogicCall, prog *jsast.Program, res *Result) jsast.Stmt {
	res.Unmappable = append(res.Unmappable, UnmappableFeature{
		NodeID:            logicID,
		Signature:         call.Signature,
		File:              call.Evidence.File,
		Line:              call.Evidence.StartLine,
		RecommendedAction: "port this call by hand",
	})

	if t.opts.Strategies.AllowStubs {
		stub := t.stubFunction(call.Signature, call.Evidence.File, call.Evidence.StartLine)
		prog.Body = append(prog.Body, stub)
		t.note(diag.SeverityWarning, n, fmt.Sprintf("no target equivalent for %s; emitted a stub", call.Signature), "")
		return &jsast.ExprStmt{X: jsast.Call(stub.Name)}
	}

	t.note(diag.SeverityError, n, fmt.Sprintf("no target equivalent for %s; call omitted", call.Signature), "")
	return nil
}

// stubFunction emits a parseable no-op carrying the original location, so
// reviewers can find the source construct without re-running the pipeline.
func (t *Transpiler) stubFunction(signature, file string, line int) *jsast.FunctionDecl {
	t.stubSeq++
	return &jsast.FunctionDecl{
		Name:    fmt.Sprintf("unsupported_%d", t.stubSeq),
		Comment: fmt.Sprintf("%s (%s:%d) has no target equivalent", signature, file, line),
		Body: []jsast.Stmt{
			&jsast.CommentStmt{Text: "intentionally left empty"},
		},
	}
}

// expandTemplate renders a complex mapping's example-usage template. Each
// non-empty line is either a call of the form path(args) or is preserved
// as a comment. $0..$n substitute the source arguments; $event substitutes
// the handler parameter.
func (t *Transpiler) expandTemplate(n *ir.Node, m mapping.APIMapping, args []ir.Arg, eventName string, prog *jsast.Program) []jsast.Stmt {
	template := m.ExampleUsage
	if template == "" {
		template = m.TargetEquivalent + "($0)"
	}

	var out []jsast.Stmt
	for _, line := range strings.Split(template, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		open := strings.Index(line, "(")
		if open <= 0 || !strings.HasSuffix(line, ")") {
			out = append(out, &jsast.CommentStmt{Text: line})
			continue
		}
		path := line[:open]
		rawArgs := strings.TrimSuffix(line[open+1:], ")")

		var callArgs []jsast.Expr
		for _, tok := range splitArgs(rawArgs) {
			callArgs = append(callArgs, t.templateArg(n, tok, args, eventName))
		}
		out = append(out, &jsast.ExprStmt{X: jsast.Call(path, callArgs...)})
		t.markUse(prog, path)
	}
	return out
}

func (t *Transpiler) templateArg(n *ir.Node, tok string, args []ir.Arg, eventName string) jsast.Expr {
	switch {
	case tok == "$event" && eventName != "":
		return &jsast.Ident{Name: eventName}
	case strings.HasPrefix(tok, "$"):
		if idx, err := strconv.Atoi(tok[1:]); err == nil && idx >= 0 && idx < len(args) {
			return t.argExpr(n, args[idx])
		}
		return &jsast.Ident{Name: "undefined"}
	case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`):
		return &jsast.StringLit{Value: strings.Trim(tok, `"`)}
	case tok == "true" || tok == "false":
		return &jsast.BoolLit{Value: tok == "true"}
	case isNumber(tok):
		return &jsast.NumberLit{Text: tok}
	default:
		return &jsast.Ident{Name: tok}
	}
}

// argExpr converts a captured source argument to a target expression.
// Arguments the builder could not classify degrade to undefined with an
// info note rather than emitting unparseable text.
func (t *Transpiler) argExpr(n *ir.Node, a ir.Arg) jsast.Expr {
	switch a.Kind {
	case "string":
		return &jsast.StringLit{Value: a.Value}
	case "number":
		return &jsast.NumberLit{Text: a.Value}
	case "bool":
		return &jsast.BoolLit{Value: a.Value == "true"}
	case "ref":
		return &jsast.Ident{Name: t.renameRef(a.Value)}
	default:
		t.note(diag.SeverityInfo, n, fmt.Sprintf("argument %q could not be translated; emitted undefined", a.Value), "")
		return &jsast.Ident{Name: "undefined"}
	}
}

// renameRef renames only the root segment of a dotted reference; member
// accesses after the root belong to the target API surface.
func (t *Transpiler) renameRef(ref string) string {
	if ref == "event" || strings.HasPrefix(ref, "event.") {
		return ref
	}
	root := ref
	rest := ""
	if i := strings.Index(ref, "."); i >= 0 {
		root, rest = ref[:i], ref[i:]
	}
	return t.renames.Rename(root) + rest
}

func (t *Transpiler) note(sev diag.Severity, n *ir.Node, msg, fix string) {
	t.sink.Add(diag.Note{
		Severity:       sev,
		Stage:          diag.StageTranspiler,
		SourceNodeID:   n.ID,
		File:           n.Evidence.File,
		Line:           n.Evidence.StartLine,
		Message:        msg,
		RecommendedFix: fix,
	})
}

// markUse records the root module of a target path so imports can be
// synthesized per file.
func (t *Transpiler) markUse(prog *jsast.Program, path string) {
	root := path
	if i := strings.Index(path, "."); i >= 0 {
		root = path[:i]
	}
	if t.roots[prog] == nil {
		t.roots[prog] = make(map[string]bool)
	}
	t.roots[prog][root] = true
}

// importSources maps target API roots to their modules.
var importSources = map[string]string{
	"world":    "@minecraft/server",
	"system":   "@minecraft/server",
	"registry": "./modport/registry",
	"adapters": "./modport/adapters",
}

func (t *Transpiler) imports(prog *jsast.Program) []jsast.ImportDecl {
	byModule := make(map[string][]string)
	for root := range t.roots[prog] {
		if mod, ok := importSources[root]; ok {
			byModule[mod] = append(byModule[mod], root)
		}
	}
	var out []jsast.ImportDecl
	for mod, names := range byModule {
		out = append(out, jsast.ImportDecl{Names: names, From: mod})
	}
	return out
}

func nameFromIdentifier(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func splitArgs(raw string) []string {
	var out []string
	depth := 0
	inString := false
	escaped := false
	start := 0
	for i, r := range raw {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '(' || r == '{' || r == '[':
			depth++
		case r == ')' || r == '}' || r == ']':
			depth--
		case r == ',' && depth == 0:
			if tok := strings.TrimSpace(raw[start:i]); tok != "" {
				out = append(out, tok)
			}
			start = i + 1
		}
	}
	if tok := strings.TrimSpace(raw[start:]); tok != "" {
		out = append(out, tok)
	}
	return out
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return true
}
