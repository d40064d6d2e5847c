package ir

// Evidence describes where an IR node's claim originated in mod source.
type Evidence struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

type Kind string

const (
	KindRegistration Kind = "registration"
	KindEventHandler Kind = "event_handler"
	KindLogicBlock   Kind = "logic_block"
	KindUnrecognized Kind = "unrecognized"
)

// SubjectKind is what a Registration registers.
type SubjectKind string

const (
	SubjectBlock  SubjectKind = "block"
	SubjectItem   SubjectKind = "item"
	SubjectEntity SubjectKind = "entity"
	SubjectRecipe SubjectKind = "recipe"
)

// Idiom records which source-side registration style produced a node.
// The transpiler never branches on it; it exists for diagnostics.
type Idiom string

const (
	IdiomDirectRegistry Idiom = "direct_registry"
	IdiomDeferred       Idiom = "deferred_register"
	IdiomAnnotation     Idiom = "annotation"
	IdiomCallback       Idiom = "callback_register"
	IdiomAnnotatedEvent Idiom = "annotated_event"
)

// Node is the platform-neutral representation of one recognized mod
// construct. Exactly one of the payload pointers matching Kind is set.
// Nodes form a forest scoped to one mod: Parent/Children reference other
// node IDs within the same Context.
type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Evidence Evidence `json:"evidence"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`

	Registration *Registration `json:"registration,omitempty"`
	EventHandler *EventHandler `json:"event_handler,omitempty"`
	Logic        *LogicBlock   `json:"logic,omitempty"`
	Unrecognized *Unrecognized `json:"unrecognized,omitempty"`
}

// Registration is a normalized block/item/entity/recipe registration,
// independent of which source idiom expressed it.
type Registration struct {
	Identifier string      `json:"identifier"` // namespaced id, e.g. "mymod:ruby_block"
	Subject    SubjectKind `json:"subject"`
	ClassName  string      `json:"class_name,omitempty"` // implementing class, when one exists
	FieldName  string      `json:"field_name,omitempty"` // holder field, for cross-file linking
	Properties []Property  `json:"properties,omitempty"`
	Idiom      Idiom       `json:"idiom"`
}

// Arg is a literal or reference argument captured from source. Kind is
// one of "string", "number", "bool", "ref", "raw"; Value holds the
// unquoted literal text or the reference path.
type Arg struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Property is one settings/builder call observed on the registration,
// e.g. strength(1.5) or sound(STONE). Signature is the mapping-table key.
type Property struct {
	Signature string   `json:"signature"`
	Args      []Arg    `json:"args,omitempty"`
	Evidence  Evidence `json:"evidence"`
}

// EventHandler is a callback bound to a named lifecycle event. RefField
// is the registration holder identifier the handler body references, if
// any; RefNode is filled by the linking pass.
type EventHandler struct {
	Event       string `json:"event"`
	HandlerName string `json:"handler_name"`
	ParamName   string `json:"param_name,omitempty"`
	RefField    string `json:"ref_field,omitempty"`
	RefNode     string `json:"ref_node,omitempty"`
	Idiom       Idiom  `json:"idiom"`
}

// LogicBlock is an executable statement sequence with extracted call
// signatures, carried as a child of the handler that owns it.
type LogicBlock struct {
	Calls []LogicCall `json:"calls"`
}

type LogicCall struct {
	Signature string   `json:"signature"`
	Args      []Arg    `json:"args,omitempty"`
	Evidence  Evidence `json:"evidence"`
}

// Unrecognized wraps source the builder could not classify. It is never
// dropped; diagnostics and unmappable-feature reports reference it.
type Unrecognized struct {
	DeclName string `json:"decl_name"`
	DeclKind string `json:"decl_kind"` // "class", "field", "method"
	Snippet  string `json:"snippet,omitempty"`
}

// Context is the whole-mod IR: the output of the builder and the input
// to the transpiler.
type Context struct {
	ModID         string  `json:"mod_id"`
	LoaderVariant string  `json:"loader_variant"`
	Nodes         []*Node `json:"nodes"`
}

// NodeByID returns the node with the given ID, or nil.
func (c *Context) NodeByID(id string) *Node {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodesOfKind returns nodes of one kind in context order.
func (c *Context) NodesOfKind(k Kind) []*Node {
	var out []*Node
	for _, n := range c.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}
