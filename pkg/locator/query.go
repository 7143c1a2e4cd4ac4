// Package locator builds structural queries against the rendered notes UI.
//
// A Query is a pure data structure. Drivers decide how to use it: the live
// drivers render it to XPath 1.0 with XPath(), the fake driver evaluates it
// directly against its in-memory tree.
package locator

import "strings"

// Scope says where a query starts matching.
type Scope int

const (
	// Document matches anywhere in the document ("//").
	Document Scope = iota
	// Relative matches descendants of the element it is evaluated against (".//").
	Relative
)

// Kind is the type of a predicate.
type Kind int

const (
	AttrEquals     Kind = iota // @name = value
	AttrContains               // contains(@name, value)
	TextEquals                 // text() = value
	TextContains               // contains(text(), value)
	NormalizedText             // normalize-space(text()) = value
	StringContains             // contains(., value), descendants included
	Has                        // [.//sub]
	AnyOf                      // a or b ...
	NotUnder                   // not(ancestor::sub)
)

// Predicate is one condition on a matched element.
type Predicate struct {
	Kind  Kind
	Name  string      // attribute name for AttrEquals/AttrContains
	Value string      // caller text, escaped only at render time
	Sub   *Query      // for Has and NotUnder
	Any   []Predicate // for AnyOf
}

// Query selects elements by tag and predicates, optionally below an ancestor.
type Query struct {
	Scope  Scope
	Within *Query // ancestor that must contain the match
	Tag    string // empty matches any element
	Preds  []Predicate
	Label  string // human-readable name used in logs and errors
}

// Attr matches an attribute value exactly.
func Attr(name, value string) Predicate {
	return Predicate{Kind: AttrEquals, Name: name, Value: value}
}

// AttrHas matches an attribute containing value.
func AttrHas(name, value string) Predicate {
	return Predicate{Kind: AttrContains, Name: name, Value: value}
}

// Class matches a class attribute containing value.
func Class(value string) Predicate {
	return AttrHas("class", value)
}

// Text matches a direct text node exactly.
func Text(value string) Predicate {
	return Predicate{Kind: TextEquals, Value: value}
}

// TextHas matches a direct text node containing value.
func TextHas(value string) Predicate {
	return Predicate{Kind: TextContains, Value: value}
}

// TextTrimmed matches a direct text node after whitespace normalisation.
func TextTrimmed(value string) Predicate {
	return Predicate{Kind: NormalizedText, Value: value}
}

// Contains matches when the element's full string value contains value.
func Contains(value string) Predicate {
	return Predicate{Kind: StringContains, Value: value}
}

// Having matches when a descendant matches sub.
func Having(sub Query) Predicate {
	return Predicate{Kind: Has, Sub: &sub}
}

// Outside matches when no ancestor of the element matches sub.
// Only sub's tag and predicates are used.
func Outside(sub Query) Predicate {
	return Predicate{Kind: NotUnder, Sub: &sub}
}

// Either matches when any of preds matches.
func Either(preds ...Predicate) Predicate {
	return Predicate{Kind: AnyOf, Any: preds}
}

// Find starts a document-scoped query.
func Find(tag string, preds ...Predicate) Query {
	return Query{Scope: Document, Tag: tag, Preds: preds}
}

// Child starts a query relative to the element it is evaluated against.
func Child(tag string, preds ...Predicate) Query {
	return Query{Scope: Relative, Tag: tag, Preds: preds}
}

// Inside returns a copy of q that only matches below ancestor.
func (q Query) Inside(ancestor Query) Query {
	q.Within = &ancestor
	return q
}

// Named returns a copy of q with a human-readable label.
func (q Query) Named(label string) Query {
	q.Label = label
	return q
}

// String returns the label if set, otherwise the XPath.
func (q Query) String() string {
	if q.Label != "" {
		return q.Label
	}
	return q.XPath()
}

// XPath renders the query as an XPath 1.0 expression.
func (q Query) XPath() string {
	var b strings.Builder
	switch {
	case q.Within != nil:
		b.WriteString(q.Within.XPath())
		b.WriteString("//")
	case q.Scope == Relative:
		b.WriteString(".//")
	default:
		b.WriteString("//")
	}
	q.writeStep(&b)
	return b.String()
}

func (q Query) writeStep(b *strings.Builder) {
	if q.Tag == "" {
		b.WriteString("*")
	} else {
		b.WriteString(q.Tag)
	}
	for _, p := range q.Preds {
		b.WriteByte('[')
		b.WriteString(p.expr())
		b.WriteByte(']')
	}
}

func (p Predicate) expr() string {
	switch p.Kind {
	case AttrEquals:
		return "@" + p.Name + "=" + Literal(p.Value)
	case AttrContains:
		return "contains(@" + p.Name + "," + Literal(p.Value) + ")"
	case TextEquals:
		return "text()=" + Literal(p.Value)
	case TextContains:
		return "contains(text()," + Literal(p.Value) + ")"
	case NormalizedText:
		return "normalize-space(text())=" + Literal(p.Value)
	case StringContains:
		return "contains(.," + Literal(p.Value) + ")"
	case Has:
		var b strings.Builder
		b.WriteString(".//")
		p.Sub.writeStep(&b)
		return b.String()
	case NotUnder:
		var b strings.Builder
		b.WriteString("not(ancestor::")
		p.Sub.writeStep(&b)
		b.WriteString(")")
		return b.String()
	case AnyOf:
		parts := make([]string, len(p.Any))
		for i, sub := range p.Any {
			parts[i] = sub.expr()
		}
		return strings.Join(parts, " or ")
	}
	return "false()"
}

// Literal renders s as an XPath 1.0 string literal.
// XPath has no escape sequences, so text holding both quote kinds is split
// into a concat() of single- and double-quoted pieces.
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + part + "'")
	}
	b.WriteString(")")
	return b.String()
}
