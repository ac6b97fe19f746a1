package richtext

import (
	"fmt"
	"strings"
)

// NodeKind is a kind of render node.
type NodeKind int

const (
	// KindBlock is a block container (div) of a breakpoint group.
	KindBlock NodeKind = iota
	// KindLineBreak is an empty line (div with br inside).
	KindLineBreak
	// KindSpan is inline text, styled when Class is set.
	KindSpan
	// KindLink is hyperlink wrapper around spans.
	KindLink
)

func (k NodeKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindLineBreak:
		return "br"
	case KindSpan:
		return "span"
	case KindLink:
		return "link"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is an element of rendered markup tree.
type Node struct {
	Kind     NodeKind
	Class    string
	Text     string
	URL      string // link destination as supplied, see BuildValidURL
	Target   string
	Children []*Node
}

func newSpan(class, text string) *Node {
	return &Node{Kind: KindSpan, Class: class, Text: text}
}

// Href returns link destination suitable for markup.
func (n *Node) Href() string {
	if n.URL == "" {
		return ""
	}
	return BuildValidURL(n.URL)
}

// PlainText returns concatenated text of the node and all its descendants.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.Walk(func(node *Node, _ int) bool {
		sb.WriteString(node.Text)
		return true
	})
	return sb.String()
}

// Walk visits node and its descendants depth first. When fn returns false
// children of the node are skipped.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// String returns short description of the node for debugging.
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.Kind.String())
	if n.Class != "" {
		sb.WriteString(" ." + n.Class)
	}
	if n.Kind == KindLink {
		fmt.Fprintf(&sb, " href=%q target=%q", n.Href(), n.Target)
	}
	if n.Text != "" {
		fmt.Fprintf(&sb, " %q", n.Text)
	}
	return sb.String()
}
