package xpspage

import (
	"encoding/xml"

	"github.com/benoitkugler/okxps/xpspath"
)

// RenderNode is one element of the page content tree, built
// while streaming and owned by the interpreter for the duration
// of one render. Children are kept in document order and never
// reordered once appended.
type RenderNode struct {
	Name     string
	Attrs    map[string]string
	Children []*RenderNode

	// typed payloads, set by the element handlers and harvested
	// by parent elements (property elements, dictionaries)
	Transform    *xpspath.Matrix2D
	Fill         Brush
	Stroke       Brush
	Geometry     string
	BrushPayload Brush // brush defined by this very element
}

func newRenderNode(se xml.StartElement) *RenderNode {
	n := &RenderNode{Name: se.Name.Local}
	if len(se.Attr) != 0 {
		n.Attrs = make(map[string]string, len(se.Attr))
		for _, attr := range se.Attr {
			n.Attrs[attr.Name.Local] = attr.Value
		}
	}
	return n
}

// attr returns the attribute value, or "" when absent.
func (n *RenderNode) attr(name string) string { return n.Attrs[name] }

// firstChild returns the first child with the given name, or nil.
func (n *RenderNode) firstChild(name string) *RenderNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// payloadBrush returns the brush defined by the first brush
// bearing child, or nil.
func (n *RenderNode) payloadBrush() Brush {
	for _, c := range n.Children {
		if c.BrushPayload != nil {
			return c.BrushPayload
		}
	}
	return nil
}

// payloadTransform returns the transform defined by the first
// transform bearing child, or nil.
func (n *RenderNode) payloadTransform() *xpspath.Matrix2D {
	for _, c := range n.Children {
		if c.Transform != nil {
			return c.Transform
		}
	}
	return nil
}
