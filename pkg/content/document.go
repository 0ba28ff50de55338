// Package content models documentation pages as a title, SEO metadata and a
// rich-text body tree, and compares generated pages with stored ones.
package content

import "time"

// Node types used by generated pages.
const (
	TypeRoot      = "root"
	TypeParagraph = "p"
	TypeText      = "text"
	TypeH2        = "h2"
	TypeJSXFlow   = "mdxJsxFlowElement"
)

// APIReferenceElement is the name of the embedded block that renders an
// endpoint's reference section.
const APIReferenceElement = "apiReference"

// SEO holds search metadata of a page
type SEO struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Document is a documentation page
type Document struct {
	Title         string    `json:"title"`
	SEO           SEO       `json:"seo"`
	AutoGenerated bool      `json:"auto_generated"`
	LastEdited    time.Time `json:"last_edited"`
	Body          Node      `json:"body"`
}

// Node is a rich-text tree node. Text nodes carry Text and the Bold/Code
// marks; element nodes carry Children and, for embedded blocks, Name/Props.
type Node struct {
	Type     string            `json:"type"`
	Name     string            `json:"name,omitempty"`
	Text     string            `json:"text,omitempty"`
	Bold     bool              `json:"bold,omitempty"`
	Italic   bool              `json:"italic,omitempty"`
	Code     bool              `json:"code,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// HasChildren reports whether the node has child nodes.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Text returns a plain text node.
func Text(s string) Node {
	return Node{Type: TypeText, Text: s}
}

// Bold returns a bold text node.
func Bold(s string) Node {
	return Node{Type: TypeText, Text: s, Bold: true}
}

// Code returns an inline code text node.
func Code(s string) Node {
	return Node{Type: TypeText, Text: s, Code: true}
}

// Element returns a node of the given type wrapping children.
func Element(typ string, children ...Node) Node {
	return Node{Type: typ, Children: children}
}

// Root returns a document root node.
func Root(children ...Node) Node {
	return Element(TypeRoot, children...)
}

// Embed returns an embedded JSX block node.
func Embed(name string, props map[string]string) Node {
	return Node{Type: TypeJSXFlow, Name: name, Props: props, Children: []Node{Text("")}}
}

// Find returns the first node, in depth-first order, for which match is true.
func (n Node) Find(match func(Node) bool) (Node, bool) {
	if match(n) {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := c.Find(match); ok {
			return found, true
		}
	}
	return Node{}, false
}
