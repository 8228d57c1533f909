package scene

import "math"

// Bounding boxes this small are degenerate: an artifact of extreme
// transforms or zero-size geometry, not a real layout box.
const degenerateSize = 0.01

// nodeBounds picks the box used for layout. The primary bounding box wins
// unless it is degenerate or wildly off from the render bounds, which
// happens under heavy transforms and oversized strokes; then the render
// bounds stand in.
func nodeBounds(n *Node) Rect {
	b := n.AbsoluteBoundingBox
	r := n.AbsoluteRenderBounds

	switch {
	case b == nil && r == nil:
		return Rect{}
	case b == nil:
		return *r
	case r == nil:
		return *b
	}

	if b.Width <= degenerateSize || b.Height <= degenerateSize {
		return *r
	}
	if r.Width > 0 && math.Abs(b.Width-r.Width) > 0.5*r.Width {
		return *r
	}
	if r.Height > 0 && math.Abs(b.Height-r.Height) > 0.5*r.Height {
		return *r
	}
	return *b
}

// MapLayout positions a node relative to its parent's bounding box, which is
// nil for the root. Width and height get a 1px floor so hairline strokes
// stay visible. When the parent lays out with auto-layout, the child is
// marked static unless it opts out into absolute positioning.
func MapLayout(n *Node, parent *Rect, parentFlows bool) Placement {
	b := nodeBounds(n)
	p := Placement{
		Width:  math.Max(b.Width, 1),
		Height: math.Max(b.Height, 1),
	}

	if parent != nil {
		p.Left = b.X - parent.X
		p.Top = b.Y - parent.Y
		if parentFlows && n.LayoutPositioning != "ABSOLUTE" {
			p.Static = true
		}
	}

	p.Flex = flexFor(n)
	return p
}

// flows reports whether the node lays out its children with auto-layout.
func flows(n *Node) bool {
	return n.LayoutMode == LayoutHorizontal || n.LayoutMode == LayoutVertical
}

// flexFor builds the flex attributes for auto-layout containers, nil for
// everything else.
func flexFor(n *Node) *Flex {
	if !flows(n) {
		return nil
	}

	f := &Flex{
		Direction: "row",
		Justify:   justifyCSS(n.PrimaryAxisAlignItems),
		Align:     alignCSS(n.CounterAxisAlignItems),
		Gap:       n.ItemSpacing,
		Padding: Insets{
			Top:    n.PaddingTop,
			Right:  n.PaddingRight,
			Bottom: n.PaddingBottom,
			Left:   n.PaddingLeft,
		},
	}
	if n.LayoutMode == LayoutVertical {
		f.Direction = "column"
	}
	return f
}

func justifyCSS(align string) string {
	switch align {
	case AlignCenter:
		return "center"
	case AlignMax:
		return "flex-end"
	case AlignSpaceBetween:
		return "space-between"
	}
	return "flex-start"
}

func alignCSS(align string) string {
	switch align {
	case AlignCenter:
		return "center"
	case AlignMax:
		return "flex-end"
	case AlignBaseline:
		return "baseline"
	case "STRETCH":
		return "stretch"
	}
	return "flex-start"
}
