// Package annotate places a block of supplementary text lines on a generated
// payment slip, under the debtor address of each panel and above the
// currency field.
//
// Panels are located through anchors: the text elements carrying the printed
// reference, or failing that the "Reference" field label. All lookups for a
// panel are limited to the anchor's containing element and to a column of
// fixed width around the anchor.
package annotate

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"qr-slip/pkg/svg"
)

const (
	// MarkerAttr is set on every text element the Annotator injects.
	MarkerAttr  = "data-slip-annotation"
	markerValue = "supplementary"

	maxContentLines = 3
)

// Side identifies a panel of the slip.
type Side int

const (
	SideLeft  Side = iota // receipt
	SideRight             // payment part
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Anchor is an existing text element used as a spatial reference.
type Anchor struct {
	Pos       vec.Vec2
	Parent    *svg.Element
	FromLabel bool // located through the "Reference" label
}

// Block describes an injected annotation block.
type Block struct {
	Side   Side
	Anchor Anchor
	Origin vec.Vec2 // position of the header line
	Height float64
	Lines  int // content lines emitted

	DebtorBottom    float64
	HasDebtorBottom bool
	CurrencyY       float64
	HasCurrency     bool
	Removed         int // stale injected elements removed
}

// Bounds returns the vertical extent of the block at its x position, with
// LLy the top line and URy the bottom in document coordinates.
func (b Block) Bounds() rect.Rect {
	return rect.Rect{LLx: b.Origin.X, LLy: b.Origin.Y, URx: b.Origin.X, URy: b.Origin.Y + b.Height}
}

// Result reports what an annotation call did.
type Result struct {
	Blocks []Block
}

// Applied reports whether the document was modified.
func (r Result) Applied() bool {
	return len(r.Blocks) > 0
}

// Annotator injects supplementary lines. It holds only read-only
// configuration and may be shared between goroutines working on distinct
// documents.
type Annotator struct {
	layout Layout
	labels Labels
	fields map[string]bool
}

// New creates an Annotator.
func New(layout Layout, labels Labels) *Annotator {
	return &Annotator{
		layout: layout,
		labels: labels,
		fields: labels.fieldLabels(),
	}
}

// NewDefault creates an Annotator for French QR-bills with the default layout.
func NewDefault() *Annotator {
	return New(DefaultLayout(), FrenchLabels())
}

// Annotate places the header and up to three lines on each panel of doc. The
// panels are found through text elements equal to printedRef. Any block left
// by an earlier call is replaced. If no anchor is found, or every line is
// empty, doc is left untouched.
func (a *Annotator) Annotate(doc *svg.Document, printedRef string, lines []string) Result {
	content := make([]string, maxContentLines)
	count := 0
	for i := 0; i < len(lines) && i < maxContentLines; i++ {
		content[i] = strings.TrimSpace(lines[i])
		if content[i] != "" {
			count++
		}
	}
	if count == 0 {
		return Result{}
	}

	anchors := a.findAnchors(doc, printedRef)
	if len(anchors) == 0 {
		return Result{}
	}

	type panel struct {
		side   Side
		anchor Anchor
		shift  float64
	}
	left, right := 0, 0
	for i, an := range anchors {
		if an.Pos.X < anchors[left].Pos.X {
			left = i
		}
		if an.Pos.X > anchors[right].Pos.X {
			right = i
		}
	}
	panels := []panel{{SideRight, anchors[right], a.layout.ShiftRight}}
	if left != right {
		panels = []panel{
			{SideLeft, anchors[left], a.layout.ShiftLeft},
			panels[0],
		}
	}

	// Clear every panel first so a fresh block is never taken for a stale
	// one when two columns overlap.
	removed := make([]int, len(panels))
	for i, p := range panels {
		removed[i] = a.removeStale(p.anchor)
	}

	res := Result{Blocks: make([]Block, 0, len(panels))}
	for i, p := range panels {
		b := a.place(p.side, p.anchor, p.shift, count)
		b.Removed = removed[i]
		a.emit(&b, content)
		res.Blocks = append(res.Blocks, b)
	}
	return res
}

// AnnotateBytes parses data, annotates it and serializes the result. When
// nothing is placed the input is returned as is.
func (a *Annotator) AnnotateBytes(data []byte, printedRef string, lines []string) ([]byte, Result, error) {
	doc, err := svg.Parse(data)
	if err != nil {
		return nil, Result{}, err
	}
	res := a.Annotate(doc, printedRef, lines)
	if !res.Applied() {
		return data, res, nil
	}
	return doc.Bytes(), res, nil
}

// AnnotateFile annotates the SVG file at path in place. The file is only
// rewritten when a block was placed.
func (a *Annotator) AnnotateFile(path, printedRef string, lines []string) (Result, error) {
	doc, err := svg.ParseFile(path)
	if err != nil {
		return Result{}, err
	}
	res := a.Annotate(doc, printedRef, lines)
	if !res.Applied() {
		return res, nil
	}
	if err := doc.WriteFile(path); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (a *Annotator) findAnchors(doc *svg.Document, printedRef string) []Anchor {
	texts := doc.Texts()

	var anchors []Anchor
	if key := normalize(printedRef); key != "" {
		anchors = collect(texts, key, 0, false)
	}
	if len(anchors) == 0 {
		anchors = collect(texts, normalize(a.labels.Reference), a.layout.ReferenceLabelDelta, true)
	}
	return anchors
}

func collect(texts []*svg.Text, key string, dy float64, fromLabel bool) []Anchor {
	var anchors []Anchor
	for _, t := range texts {
		if t.Content() != key {
			continue
		}
		pos, ok := t.Position()
		if !ok {
			continue
		}
		parent := t.Parent()
		if parent == nil {
			continue
		}
		anchors = append(anchors, Anchor{
			Pos:       pos.Add(vec.Vec2{Y: dy}),
			Parent:    parent,
			FromLabel: fromLabel,
		})
	}
	return anchors
}

// removeStale deletes previously injected elements in the anchor's column.
func (a *Annotator) removeStale(anchor Anchor) int {
	header := normalize(a.labels.Header)
	n := 0
	for _, t := range anchor.Parent.TextChildren() {
		if t.Attr(MarkerAttr) != markerValue && t.Content() != header {
			continue
		}
		pos, ok := t.Position()
		if !ok || !a.inColumn(anchor, pos) {
			continue
		}
		t.Remove()
		n++
	}
	return n
}

// place computes the block position for one panel.
func (a *Annotator) place(side Side, anchor Anchor, shift float64, count int) Block {
	l := a.layout
	b := Block{
		Side:   side,
		Anchor: anchor,
		Height: l.FontSize + float64(count)*l.LineGap,
		Lines:  count,
	}

	var texts []*svg.Text
	for _, t := range anchor.Parent.TextChildren() {
		if t.Attr(MarkerAttr) != markerValue {
			texts = append(texts, t)
		}
	}

	if labelY, ok := a.labelY(texts, anchor, a.labels.PayableBy); ok {
		debtor := rect.Rect{
			LLx: anchor.Pos.X - l.Tolerance,
			LLy: labelY,
			URx: anchor.Pos.X + l.Tolerance,
			URy: labelY + l.DebtorSpan,
		}
		for _, t := range texts {
			txt := t.Content()
			if txt == "" || a.fields[txt] {
				continue
			}
			pos, ok := t.Position()
			if !ok || !a.inColumn(anchor, pos) {
				continue
			}
			if pos.Y > debtor.LLy && pos.Y < debtor.URy {
				if !b.HasDebtorBottom || pos.Y > b.DebtorBottom {
					b.DebtorBottom = pos.Y
					b.HasDebtorBottom = true
				}
			}
		}
	}

	start := anchor.Pos.Y + l.FallbackClearance
	if b.HasDebtorBottom {
		start = b.DebtorBottom + l.DebtorClearance
	}

	if y, ok := a.labelY(texts, anchor, a.labels.Currency); ok {
		b.CurrencyY = y
		b.HasCurrency = true
		start = math.Min(start, y-l.CurrencyMargin-b.Height)
	}

	b.Origin = vec.Vec2{X: anchor.Pos.X + shift, Y: start}
	return b
}

// emit writes the header and the non-empty content lines. Empty slots still
// advance the line position.
func (a *Annotator) emit(b *Block, content []string) {
	marker := []svg.Attr{{Name: MarkerAttr, Value: markerValue}}
	parent := b.Anchor.Parent

	parent.AppendText(svg.TextSpec{
		Pos:      b.Origin,
		Content:  a.labels.Header,
		FontSize: a.layout.FontSize,
		Bold:     true,
		Attrs:    marker,
	})
	pos := b.Origin
	for _, line := range content {
		pos = pos.Add(vec.Vec2{Y: a.layout.LineGap})
		if line == "" {
			continue
		}
		parent.AppendText(svg.TextSpec{
			Pos:      pos,
			Content:  line,
			FontSize: a.layout.FontSize,
			Attrs:    marker,
		})
	}
}

// labelY returns the y of the first text equal to label in the anchor's
// column.
func (a *Annotator) labelY(texts []*svg.Text, anchor Anchor, label string) (float64, bool) {
	key := normalize(label)
	if key == "" {
		return 0, false
	}
	for _, t := range texts {
		if t.Content() != key {
			continue
		}
		if pos, ok := t.Position(); ok && a.inColumn(anchor, pos) {
			return pos.Y, true
		}
	}
	return 0, false
}

func (a *Annotator) inColumn(anchor Anchor, p vec.Vec2) bool {
	return math.Abs(p.X-anchor.Pos.X) <= a.layout.Tolerance
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
