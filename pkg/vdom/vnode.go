package vdom

import "strings"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <input>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML (dangerous)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is a virtual DOM node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Stable identity among siblings
	Text     string   // For KindText and KindRaw
}

// Props holds element attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Component is anything that can render to a VNode.
type Component interface {
	Render() *VNode
}

// FuncComponent wraps a render function.
type FuncComponent struct {
	render func() *VNode
}

// Render implements Component.
func (f *FuncComponent) Render() *VNode {
	return f.render()
}

// Func creates a component from a render function.
func Func(render func() *VNode) Component {
	return &FuncComponent{render: render}
}

// AddClass appends class names to the node's class attribute.
func (v *VNode) AddClass(classes ...string) {
	if v == nil || v.Kind != KindElement {
		return
	}
	if v.Props == nil {
		v.Props = make(Props)
	}
	existing, _ := v.Props["class"].(string)
	parts := make([]string, 0, len(classes)+1)
	if existing != "" {
		parts = append(parts, existing)
	}
	for _, c := range classes {
		if c != "" {
			parts = append(parts, c)
		}
	}
	v.Props["class"] = strings.Join(parts, " ")
}

// Find returns the first element in the subtree (including v) with the
// given id, or nil.
func (v *VNode) Find(id string) *VNode {
	if v == nil {
		return nil
	}
	if v.Kind == KindElement {
		if got, _ := v.Props["id"].(string); got == id {
			return v
		}
	}
	for _, child := range v.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates every text node in the subtree.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var b strings.Builder
	for _, child := range v.Children {
		b.WriteString(child.TextContent())
	}
	return b.String()
}
