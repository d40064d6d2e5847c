package irbuild

import (
	"strings"

	"modport/internal/ir"
	"modport/internal/javaparse"
)

// match is one rule hit before ID assignment: a primary node plus an
// optional logic block that becomes its child.
type match struct {
	rule    string
	primary *ir.Node
	logic   *ir.Node
}

// ruleContext is what a rule gets to look at: the declaring file and the
// innermost enclosing class. Association is by AST containment only; there
// is no line-distance fallback.
type ruleContext struct {
	file  *javaparse.File
	class *javaparse.ClassDecl
	modID string
}

// idiomRule recognizes one source-side registration or event-binding
// style. New idioms are added to ruleTable as data; the builder itself
// never pattern-matches on source shapes.
type idiomRule struct {
	name        string
	matchField  func(rc ruleContext, f *javaparse.FieldDecl) *match
	matchMethod func(rc ruleContext, m *javaparse.MethodDecl) []*match
}

// ruleTable is tried in order; the first hit per declaration wins.
var ruleTable = []idiomRule{
	{name: "deferred_register", matchField: matchDeferredRegister},
	{name: "direct_registry_field", matchField: matchDirectRegistryField},
	{name: "annotation_holder", matchField: matchAnnotationHolder},
	{name: "direct_registry", matchMethod: matchDirectRegistry},
	{name: "annotated_event", matchMethod: matchAnnotatedEvent},
	{name: "callback_register", matchMethod: matchCallbackRegister},
}

// matchDeferredRegister recognizes the factory-lambda style:
//
//	public static final RegistryObject<Block> RUBY_BLOCK =
//	    BLOCKS.register("ruby_block", () -> new Block(Settings.create().strength(1.5f)));
func matchDeferredRegister(rc ruleContext, f *javaparse.FieldDecl) *match {
	if f.Init == nil || f.Init.Kind != javaparse.ExprCall {
		return nil
	}
	call := f.Init.Call
	if call.Method() != "register" || len(call.Args) < 2 {
		return nil
	}
	if call.Args[0].Kind != javaparse.ExprString || call.Args[1].Kind != javaparse.ExprLambda {
		return nil
	}

	reg := &ir.Registration{
		Identifier: rc.modID + ":" + call.Args[0].Raw,
		FieldName:  f.Name,
		Idiom:      ir.IdiomDeferred,
	}

	lambda := call.Args[1].Lambda
	var created *javaparse.NewExpr
	if lambda.ExprBody != nil && lambda.ExprBody.Kind == javaparse.ExprNew {
		created = lambda.ExprBody.New
	}
	reg.Subject = inferSubject(registerReceiver(call.Path), created, f.Type)
	if created != nil {
		reg.ClassName = created.Type
		reg.Properties = settingsProperties(reg.Subject, created, evidence(rc.file.Path, f.Span))
	}
	if reg.Subject == "" {
		return nil
	}

	return &match{
		rule: "deferred_register",
		primary: &ir.Node{
			Kind:         ir.KindRegistration,
			Evidence:     evidence(rc.file.Path, f.Span),
			Registration: reg,
		},
	}
}

// matchDirectRegistryField recognizes the holder-field form of the direct
// registry call:
//
//	public static final Block RUBY_BLOCK = Registry.register(
//	    Registries.BLOCK, new Identifier("mymod", "ruby_block"),
//	    new Block(Settings.create().strength(1.5f)));
func matchDirectRegistryField(rc ruleContext, f *javaparse.FieldDecl) *match {
	if f.Init == nil || f.Init.Kind != javaparse.ExprCall {
		return nil
	}
	call := f.Init.Call
	if call.Method() != "register" || !strings.HasPrefix(call.Path, "Registry.") || len(call.Args) < 3 {
		return nil
	}

	subject := subjectFromRegistryRef(call.Args[0])
	identifier := identifierFromArg(rc.modID, &call.Args[1])
	if subject == "" || identifier == "" {
		return nil
	}

	reg := &ir.Registration{
		Identifier: identifier,
		Subject:    subject,
		FieldName:  f.Name,
		Idiom:      ir.IdiomDirectRegistry,
	}
	if call.Args[2].Kind == javaparse.ExprNew {
		reg.ClassName = call.Args[2].New.Type
		reg.Properties = settingsProperties(subject, call.Args[2].New, evidence(rc.file.Path, f.Span))
	}

	return &match{
		rule: "direct_registry_field",
		primary: &ir.Node{
			Kind:         ir.KindRegistration,
			Evidence:     evidence(rc.file.Path, f.Span),
			Registration: reg,
		},
	}
}

// matchAnnotationHolder recognizes declarative holder fields:
//
//	@ObjectHolder("mymod:ruby_block")
//	public static Block RUBY_BLOCK;
func matchAnnotationHolder(rc ruleContext, f *javaparse.FieldDecl) *match {
	for _, ann := range f.Annotations {
		if ann.Name != "ObjectHolder" && ann.Name != "RegistryEntry" {
			continue
		}
		id := ann.Value
		if id == "" {
			id = ann.Args["value"]
		}
		if id == "" {
			return nil
		}
		if !strings.Contains(id, ":") {
			id = rc.modID + ":" + id
		}
		return &match{
			rule: "annotation_holder",
			primary: &ir.Node{
				Kind:     ir.KindRegistration,
				Evidence: evidence(rc.file.Path, f.Span),
				Registration: &ir.Registration{
					Identifier: id,
					Subject:    inferSubject("", nil, f.Type),
					ClassName:  f.Type,
					FieldName:  f.Name,
					Idiom:      ir.IdiomAnnotation,
				},
			},
		}
	}
	return nil
}

// matchDirectRegistry recognizes imperative registry calls inside any
// method or static initializer:
//
//	Registry.register(Registries.BLOCK, new Identifier("mymod", "ruby_block"),
//	    new Block(Settings.create().strength(1.5f)));
func matchDirectRegistry(rc ruleContext, m *javaparse.MethodDecl) []*match {
	var out []*match
	for _, st := range m.Body {
		if st.Kind != javaparse.StmtCall {
			continue
		}
		call := st.Call
		if call.Method() != "register" || !strings.HasPrefix(call.Path, "Registry.") {
			continue
		}
		if len(call.Args) < 3 {
			continue
		}

		subject := subjectFromRegistryRef(call.Args[0])
		identifier := identifierFromArg(rc.modID, &call.Args[1])
		if subject == "" || identifier == "" {
			continue
		}

		reg := &ir.Registration{
			Identifier: identifier,
			Subject:    subject,
			Idiom:      ir.IdiomDirectRegistry,
		}
		if call.Args[2].Kind == javaparse.ExprNew {
			reg.ClassName = call.Args[2].New.Type
			reg.Properties = settingsProperties(subject, call.Args[2].New, evidence(rc.file.Path, st.Span))
		} else if call.Args[2].Kind == javaparse.ExprRef {
			reg.FieldName = lastSegment(call.Args[2].Raw)
		}

		out = append(out, &match{
			rule: "direct_registry",
			primary: &ir.Node{
				Kind:         ir.KindRegistration,
				Evidence:     evidence(rc.file.Path, st.Span),
				Registration: reg,
			},
		})
	}
	return out
}

// matchAnnotatedEvent recognizes annotated handler methods:
//
//	@SubscribeEvent
//	public void onBlockBreak(BlockBreakEvent event) { ... }
func matchAnnotatedEvent(rc ruleContext, m *javaparse.MethodDecl) []*match {
	annotated := false
	for _, ann := range m.Annotations {
		if ann.Name == "SubscribeEvent" || ann.Name == "EventHandler" {
			annotated = true
			break
		}
	}
	if !annotated || len(m.Params) != 1 || !strings.HasSuffix(m.Params[0].Type, "Event") {
		return nil
	}

	handler := &ir.EventHandler{
		Event:       m.Params[0].Type,
		HandlerName: m.Name,
		ParamName:   m.Params[0].Name,
		RefField:    holderRef(m.Body),
		Idiom:       ir.IdiomAnnotatedEvent,
	}
	return []*match{{
		rule: "annotated_event",
		primary: &ir.Node{
			Kind:         ir.KindEventHandler,
			Evidence:     evidence(rc.file.Path, m.Span),
			EventHandler: handler,
		},
		logic: logicNode(rc.file.Path, m.Body, m.Params[0].Name, m.Span),
	}}
}

// matchCallbackRegister recognizes the callback registration style:
//
//	PlayerBlockBreakEvents.AFTER.register((world, player, pos, state) -> { ... });
func matchCallbackRegister(rc ruleContext, m *javaparse.MethodDecl) []*match {
	var out []*match
	for _, st := range m.Body {
		if st.Kind != javaparse.StmtCall {
			continue
		}
		call := st.Call
		if call.Method() != "register" || len(call.Args) != 1 {
			continue
		}
		segments := strings.Split(call.Path, ".")
		// Shape is EventsClass.PHASE.register or EventsClass.register.
		if len(segments) < 2 || !strings.Contains(segments[0], "Event") {
			continue
		}
		if call.Args[0].Kind != javaparse.ExprLambda && call.Args[0].Kind != javaparse.ExprRef {
			continue
		}

		handler := &ir.EventHandler{
			Event:       segments[0],
			HandlerName: m.Name,
			Idiom:       ir.IdiomCallback,
		}
		var logic *ir.Node
		if call.Args[0].Kind == javaparse.ExprLambda {
			lambda := call.Args[0].Lambda
			if len(lambda.Params) > 0 {
				handler.ParamName = lambda.Params[0]
			}
			handler.RefField = holderRef(lambda.Body)
			logic = logicNode(rc.file.Path, lambda.Body, handler.ParamName, st.Span)
		} else {
			handler.RefField = lastSegment(call.Args[0].Raw)
		}

		out = append(out, &match{
			rule:    "callback_register",
			primary: &ir.Node{Kind: ir.KindEventHandler, Evidence: evidence(rc.file.Path, st.Span), EventHandler: handler},
			logic:   logic,
		})
	}
	return out
}

// logicNode lifts the call statements of a handler body into a LogicBlock
// child node. Bodies with no calls yield nil.
func logicNode(path string, body []javaparse.Stmt, paramName string, sp javaparse.Span) *ir.Node {
	var calls []ir.LogicCall
	for _, st := range body {
		if st.Kind != javaparse.StmtCall {
			continue
		}
		calls = append(calls, ir.LogicCall{
			Signature: callSignature(st.Call, paramName),
			Args:      callArgs(st.Call, paramName),
			Evidence:  evidence(path, st.Span),
		})
	}
	if len(calls) == 0 {
		return nil
	}
	return &ir.Node{
		Kind:     ir.KindLogicBlock,
		Evidence: evidence(path, sp),
		Logic:    &ir.LogicBlock{Calls: calls},
	}
}

// callSignature normalizes a call path into a mapping-table key. The
// handler parameter name is canonicalized to "event" so the same API use
// keys identically across mods regardless of local naming.
func callSignature(c *javaparse.CallExpr, paramName string) string {
	path := c.Path
	if paramName != "" {
		if path == paramName {
			path = "event"
		} else if strings.HasPrefix(path, paramName+".") {
			path = "event" + strings.TrimPrefix(path, paramName)
		}
	}
	return path
}

func callArgs(c *javaparse.CallExpr, paramName string) []ir.Arg {
	var out []ir.Arg
	for _, a := range c.Args {
		out = append(out, argOf(a, paramName))
	}
	return out
}

// argOf captures one argument, canonicalizing references rooted at the
// handler parameter the same way callSignature does.
func argOf(e javaparse.Expr, paramName string) ir.Arg {
	switch e.Kind {
	case javaparse.ExprString:
		return ir.Arg{Kind: "string", Value: e.Raw}
	case javaparse.ExprNumber:
		return ir.Arg{Kind: "number", Value: e.Raw}
	case javaparse.ExprBool:
		return ir.Arg{Kind: "bool", Value: e.Raw}
	case javaparse.ExprRef:
		ref := e.Raw
		if paramName != "" {
			if ref == paramName {
				ref = "event"
			} else if strings.HasPrefix(ref, paramName+".") {
				ref = "event" + strings.TrimPrefix(ref, paramName)
			}
		}
		return ir.Arg{Kind: "ref", Value: ref}
	default:
		return ir.Arg{Kind: "raw", Value: e.Raw}
	}
}

// holderRef returns the first SCREAMING_CASE identifier referenced in a
// body, the conventional shape of a registration holder field.
func holderRef(body []javaparse.Stmt) string {
	for _, st := range body {
		if st.Kind != javaparse.StmtCall {
			continue
		}
		for _, a := range st.Call.Args {
			if a.Kind != javaparse.ExprRef {
				continue
			}
			name := lastSegment(a.Raw)
			if isHolderName(name) {
				return name
			}
		}
	}
	return ""
}

func isHolderName(name string) bool {
	if name == "" {
		return false
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r == '_' || (r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return hasLetter
}

// settingsProperties extracts the builder-chain calls from a registration's
// settings argument: new Block(Settings.create().strength(1.5f).sounds(x))
// yields block.settings.strength and block.settings.sounds properties.
// The create/of chain root is not itself a property.
func settingsProperties(subject ir.SubjectKind, created *javaparse.NewExpr, ev ir.Evidence) []ir.Property {
	var out []ir.Property
	for _, arg := range created.Args {
		if arg.Kind != javaparse.ExprCall {
			continue
		}
		for _, link := range arg.Call.Chain() {
			method := link.Method()
			if method == "create" || method == "of" || method == "copy" {
				continue
			}
			var args []ir.Arg
			for _, a := range link.Args {
				args = append(args, argOf(a, ""))
			}
			out = append(out, ir.Property{
				Signature: string(subject) + ".settings." + method,
				Args:      args,
				Evidence:  ev,
			})
		}
	}
	return out
}

// registerReceiver returns the receiver identifier of a deferred-register
// call, e.g. "BLOCKS" from BLOCKS.register(...).
func registerReceiver(path string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i]
	}
	return ""
}

func subjectFromRegistryRef(arg javaparse.Expr) ir.SubjectKind {
	if arg.Kind != javaparse.ExprRef {
		return ""
	}
	return subjectFromToken(lastSegment(arg.Raw))
}

// inferSubject decides the registration subject from, in priority order,
// the created class, the holder field type, and the register receiver name.
func inferSubject(receiver string, created *javaparse.NewExpr, fieldType string) ir.SubjectKind {
	if created != nil {
		if s := subjectFromToken(created.Type); s != "" {
			return s
		}
	}
	if s := subjectFromToken(fieldType); s != "" {
		return s
	}
	return subjectFromToken(receiver)
}

func subjectFromToken(token string) ir.SubjectKind {
	t := strings.ToLower(token)
	switch {
	case strings.Contains(t, "block"):
		return ir.SubjectBlock
	case strings.Contains(t, "item"):
		return ir.SubjectItem
	case strings.Contains(t, "entity"):
		return ir.SubjectEntity
	case strings.Contains(t, "recipe"):
		return ir.SubjectRecipe
	default:
		return ""
	}
}

// identifierFromArg accepts the identifier argument shapes of direct
// registrations: new Identifier("mod","name"), Identifier.of("mod","name"),
// or a plain "mod:name" string literal.
func identifierFromArg(modID string, arg *javaparse.Expr) string {
	switch arg.Kind {
	case javaparse.ExprString:
		if strings.Contains(arg.Raw, ":") {
			return arg.Raw
		}
		return modID + ":" + arg.Raw
	case javaparse.ExprNew:
		return identifierFromParts(modID, arg.New.Args)
	case javaparse.ExprCall:
		return identifierFromParts(modID, arg.Call.Args)
	default:
		return ""
	}
}

func identifierFromParts(modID string, args []javaparse.Expr) string {
	var parts []string
	for _, a := range args {
		if a.Kind == javaparse.ExprString {
			parts = append(parts, a.Raw)
		}
	}
	switch len(parts) {
	case 2:
		return parts[0] + ":" + parts[1]
	case 1:
		if strings.Contains(parts[0], ":") {
			return parts[0]
		}
		return modID + ":" + parts[0]
	default:
		return ""
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func evidence(path string, sp javaparse.Span) ir.Evidence {
	return ir.Evidence{File: path, StartLine: sp.StartLine, EndLine: sp.EndLine}
}
