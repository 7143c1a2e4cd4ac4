package fake

import (
	"sort"
	"strconv"
	"strings"

	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// Node is one element of the simulated document.
type Node struct {
	Key      string // stable identity across renders, used as the element handle
	Tag      string
	Attrs    map[string]string
	Text     string // direct text node, empty means none
	Hidden   bool
	Children []*Node

	id      string // local key, defaults to tag+index
	parent  *Node
	order   int
	onClick func()
	onInput func(text string)
	onKey   func(key string)
	onClear func()
}

func el(tag string, attrs ...string) *Node {
	n := &Node{Tag: tag, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attrs[attrs[i]] = attrs[i+1]
	}
	return n
}

func (n *Node) keyed(id string) *Node {
	n.id = id
	return n
}

func (n *Node) text(s string) *Node {
	n.Text = s
	return n
}

func (n *Node) add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) clicks(fn func()) *Node {
	n.onClick = fn
	return n
}

func (n *Node) edits(input func(string), key func(string), clear func()) *Node {
	n.onInput, n.onKey, n.onClear = input, key, clear
	return n
}

// Document is a rendered tree plus its key index.
type Document struct {
	root  *Node
	index map[string]*Node
}

func newDocument(root *Node) *Document {
	d := &Document{root: root, index: map[string]*Node{}}
	order := 0
	var walk func(n *Node, parent *Node)
	walk = func(n *Node, parent *Node) {
		n.parent = parent
		n.order = order
		order++
		if parent == nil {
			n.Key = n.Tag
		} else {
			n.Key = parent.Key + "/" + n.id
		}
		d.index[n.Key] = n
		for i, c := range n.Children {
			if c.id == "" {
				c.id = c.Tag + strconv.Itoa(i)
			}
			walk(c, n)
		}
	}
	walk(root, nil)
	return d
}

func (d *Document) lookup(key string) (*Node, bool) {
	n, ok := d.index[key]
	return n, ok
}

// Eval returns the nodes matching q in document order. ctx is the element a
// relative query is evaluated against; nil means the document.
func (d *Document) Eval(q locator.Query, ctx *Node) []*Node {
	var bases []*Node
	switch {
	case q.Within != nil:
		bases = d.Eval(*q.Within, ctx)
	case q.Scope == locator.Relative && ctx != nil:
		bases = []*Node{ctx}
	default:
		bases = []*Node{d.root}
	}

	seen := map[*Node]bool{}
	var out []*Node
	for _, b := range bases {
		descendants(b, func(n *Node) {
			if !seen[n] && matchStep(q, n) {
				seen[n] = true
				out = append(out, n)
			}
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func descendants(n *Node, fn func(*Node)) {
	for _, c := range n.Children {
		fn(c)
		descendants(c, fn)
	}
}

func matchStep(q locator.Query, n *Node) bool {
	if q.Tag != "" && q.Tag != "*" && q.Tag != n.Tag {
		return false
	}
	for _, p := range q.Preds {
		if !matchPred(p, n) {
			return false
		}
	}
	return true
}

// matchPred follows XPath 1.0 semantics for the predicate kinds the locator
// package renders, including the empty node-set cases.
func matchPred(p locator.Predicate, n *Node) bool {
	switch p.Kind {
	case locator.AttrEquals:
		v, ok := n.Attrs[p.Name]
		return ok && v == p.Value
	case locator.AttrContains:
		return strings.Contains(n.Attrs[p.Name], p.Value)
	case locator.TextEquals:
		return n.Text != "" && n.Text == p.Value
	case locator.TextContains:
		return strings.Contains(n.Text, p.Value)
	case locator.NormalizedText:
		return strings.Join(strings.Fields(n.Text), " ") == p.Value
	case locator.StringContains:
		return strings.Contains(stringValue(n), p.Value)
	case locator.Has:
		found := false
		descendants(n, func(c *Node) {
			if !found && matchStep(*p.Sub, c) {
				found = true
			}
		})
		return found
	case locator.NotUnder:
		for c := n.parent; c != nil; c = c.parent {
			if matchStep(*p.Sub, c) {
				return false
			}
		}
		return true
	case locator.AnyOf:
		for _, sub := range p.Any {
			if matchPred(sub, n) {
				return true
			}
		}
	}
	return false
}

// stringValue is the XPath string-value: all descendant text in document order.
func stringValue(n *Node) string {
	var b strings.Builder
	b.WriteString(n.Text)
	descendants(n, func(c *Node) { b.WriteString(c.Text) })
	return b.String()
}

func (n *Node) displayed() bool {
	for c := n; c != nil; c = c.parent {
		if c.Hidden {
			return false
		}
	}
	return true
}

// clickTarget is the nearest handler on n or its ancestors, like event bubbling.
func (n *Node) clickTarget() func() {
	for c := n; c != nil; c = c.parent {
		if c.onClick != nil {
			return c.onClick
		}
	}
	return nil
}

// Dump renders the tree for test failure messages.
func (d *Document) Dump() string {
	var b strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("<" + n.Tag)
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(" " + k + "=" + strconv.Quote(n.Attrs[k]))
		}
		b.WriteString(">")
		if n.Text != "" {
			b.WriteString(" " + strconv.Quote(n.Text))
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(d.root, 0)
	return b.String()
}
