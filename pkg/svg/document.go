// Package svg provides a typed view of an SVG document: positioned text
// elements, their containing elements, and in-place edits that serialize
// back with the document's declared namespaces.
package svg

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/text/unicode/norm"
	"seehuhn.de/go/geom/vec"

	"qr-slip/pkg/apperrors"
)

// Kind is the type of an element in the document tree.
type Kind int

const (
	KindOther Kind = iota
	KindSVG
	KindGroup
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindSVG:
		return "svg"
	case KindGroup:
		return "g"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// descendant axis keeps document order; "//" does not in xpath.
var textExpr = xpath.MustCompile("descendant::*[local-name()='text']")

// Document is a parsed SVG document.
type Document struct {
	root *xmlquery.Node
}

// Element is an element node of a Document.
type Element struct {
	node *xmlquery.Node
}

// Text is an element of kind KindText.
type Text struct {
	Element
}

// Attr is a name/value attribute pair.
type Attr struct {
	Name  string
	Value string
}

// TextSpec describes a text element to append.
type TextSpec struct {
	Pos      vec.Vec2
	Content  string
	FontSize float64
	Bold     bool
	Attrs    []Attr
}

// Parse parses SVG data.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParse("SVG", "", err)
	}
	doc := &Document{root: root}
	if doc.Root() == nil {
		return nil, apperrors.NewParse("SVG", "", fmt.Errorf("no root element"))
	}
	return doc, nil
}

// ParseFile reads and parses an SVG file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var perr *apperrors.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Root returns the document element.
func (d *Document) Root() *Element {
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Element{node: child}
		}
	}
	return nil
}

// Texts returns every text element in document order.
func (d *Document) Texts() []*Text {
	nodes := xmlquery.QuerySelectorAll(d.root, textExpr)
	texts := make([]*Text, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, &Text{Element{node: n}})
	}
	return texts
}

// Bytes serializes the document, including its XML declaration if it had one.
func (d *Document) Bytes() []byte {
	return []byte(d.root.OutputXML(true))
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	if err := os.WriteFile(path, d.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Kind returns the element kind.
func (e *Element) Kind() Kind {
	switch e.node.Data {
	case "svg":
		return KindSVG
	case "g":
		return KindGroup
	case "text":
		return KindText
	default:
		return KindOther
	}
}

// Attr returns the value of an attribute, or "" if absent.
func (e *Element) Attr(name string) string {
	return e.node.SelectAttr(name)
}

// Parent returns the containing element, or nil for the document element.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != xmlquery.ElementNode {
		return nil
	}
	return &Element{node: p}
}

// Is reports whether e and o refer to the same node.
func (e *Element) Is(o *Element) bool {
	return e != nil && o != nil && e.node == o.node
}

// TextChildren returns the direct text children of e.
func (e *Element) TextChildren() []*Text {
	var texts []*Text
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if el := (Element{node: child}); el.Kind() == KindText {
			texts = append(texts, &Text{el})
		}
	}
	return texts
}

// AppendText adds a text element as the last child of e. The new element
// takes the namespace of e.
func (e *Element) AppendText(ts TextSpec) *Text {
	n := &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         "text",
		Prefix:       e.node.Prefix,
		NamespaceURI: e.node.NamespaceURI,
	}
	n.SetAttr("x", formatNumber(ts.Pos.X))
	n.SetAttr("y", formatNumber(ts.Pos.Y))
	if ts.Bold {
		n.SetAttr("font-weight", "bold")
	}
	if ts.FontSize > 0 {
		n.SetAttr("font-size", formatNumber(ts.FontSize))
	}
	for _, a := range ts.Attrs {
		n.SetAttr(a.Name, a.Value)
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: ts.Content})
	xmlquery.AddChild(e.node, n)
	return &Text{Element{node: n}}
}

// Remove detaches e from the document.
func (e *Element) Remove() {
	xmlquery.RemoveFromTree(e.node)
}

// Content returns the trimmed, NFC-normalized text of t and its descendants.
func (t *Text) Content() string {
	return norm.NFC.String(strings.TrimSpace(t.node.InnerText()))
}

// Position returns the x/y attributes of t. A missing coordinate reads as 0;
// ok is false if either coordinate does not parse as a single number.
func (t *Text) Position() (p vec.Vec2, ok bool) {
	x, okX := parseCoord(t.Attr("x"))
	y, okY := parseCoord(t.Attr("y"))
	if !okX || !okY {
		return vec.Vec2{}, false
	}
	return vec.Vec2{X: x, Y: y}, true
}

// FontSize returns the font-size attribute in user units.
func (t *Text) FontSize() (float64, bool) {
	v := strings.TrimSuffix(strings.TrimSpace(t.Attr("font-size")), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// FontWeight returns the font-weight attribute.
func (t *Text) FontWeight() string {
	return t.Attr("font-weight")
}

func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
