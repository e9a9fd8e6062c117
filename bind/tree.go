package bind

// Node is an opaque location in a [Tree]. Nodes are compared with ==, so
// implementations should use pointers or other comparable handles.
type Node any

// Kind classifies a node.
type Kind int

//go:generate stringer --linecomment --type Kind --output kind_string.go

const (
	KindOther    Kind = iota // other
	KindText                 // text
	KindElement              // element
	KindFragment             // fragment
	KindAttr                 // attr
)

// Attr identifies one attribute of an element. As a target of
// [Binder.Bind] or [Binder.Unbind] only Owner and Name are used.
type Attr struct {
	Owner Node
	Name  string
	Value string
}

// Tree is the mutable document a [Binder] renders into. The binder
// serializes every call, so implementations need no locking of their own.
type Tree interface {
	// Kind reports what n is. Unknown values are KindOther.
	Kind(n Node) Kind
	// Children returns the direct children of an element or fragment.
	Children(n Node) []Node
	// Text returns the text of a text node, or the text content of any
	// other node.
	Text(n Node) string
	SetText(n Node, text string)
	// Attrs returns the attributes of an element in document order.
	Attrs(n Node) []Attr
	SetAttr(n Node, name, value string)
	RemoveAttr(n Node, name string)
	NewText(text string) Node
	// Adopt converts a native value, such as a node or raw markup, into
	// nodes ready to insert. It reports false for values it does not know.
	Adopt(v any) ([]Node, bool)
	// Replace puts the given nodes where old is and detaches old.
	Replace(old Node, with ...Node)
	Remove(n Node)
	// Contains reports whether n is ancestor or one of its descendants.
	Contains(ancestor, n Node) bool
}
