package scene

import "math"

// DefaultMaxZIndex caps the sibling-order stacking index. Document order is
// only a tie-break, so runaway child counts must not produce z-index values
// that overpower explicit layering in the consuming page.
const DefaultMaxZIndex = 999

// Options configures a [Compiler].
type Options struct {
	// Assets maps resolved asset keys (image fill references and node ids)
	// to source URLs. Nil is valid: every asset lookup then misses and
	// renderers fall back to placeholders.
	Assets map[string]string

	// Suppression overrides the placeholder-fill thresholds. The zero value
	// selects the defaults.
	Suppression FillSuppression

	// MaxZIndex overrides [DefaultMaxZIndex] when positive.
	MaxZIndex int
}

// Compiler lowers a parsed node tree into a styled box tree. A compiler is
// stateless between calls and safe to reuse; compiling the same tree twice
// yields identical output.
type Compiler struct {
	opts   Options
	styles StyleResolver
}

// NewCompiler returns a compiler with the given options, filling in defaults
// for anything unset.
func NewCompiler(opts Options) *Compiler {
	if opts.Suppression == (FillSuppression{}) {
		opts.Suppression = DefaultFillSuppression()
	}
	if opts.MaxZIndex <= 0 {
		opts.MaxZIndex = DefaultMaxZIndex
	}
	return &Compiler{
		opts:   opts,
		styles: StyleResolver{Suppression: opts.Suppression},
	}
}

// Compile builds the styled tree for a root node. It returns nil when the
// root itself is hidden. Roots without usable bounds, typically page nodes,
// take the union of their children's boxes so child placement stays
// well-defined.
func (c *Compiler) Compile(root *Node) *StyledNode {
	if root == nil || !root.Visible || root.Opacity <= 0 {
		return nil
	}

	bounds := nodeBounds(root)
	if bounds.Empty() {
		bounds = unionChildBounds(root)
	}

	out := &StyledNode{
		ID:   root.ID,
		Name: root.Name,
		Kind: root.Type,
		Placement: Placement{
			Width:  math.Max(bounds.Width, 1),
			Height: math.Max(bounds.Height, 1),
			Flex:   flexFor(root),
		},
		Style: c.styles.Resolve(root),
	}
	c.finish(root, out, bounds)
	return out
}

// compile handles one non-root node. Hidden nodes return nil and vanish from
// the output entirely, including their subtrees.
func (c *Compiler) compile(n *Node, parent Rect, parentFlows bool, sibling int) *StyledNode {
	if !n.Visible || n.Opacity <= 0 {
		return nil
	}

	placement := MapLayout(n, &parent, parentFlows)
	zIndex := sibling
	if zIndex > c.opts.MaxZIndex {
		zIndex = c.opts.MaxZIndex
	}

	if d := DecideFlatten(n); d.Flatten {
		url := c.lookup(d.AssetKey, d.FillRef)
		style := ComputedStyle{Opacity: clamp01(n.Opacity), ZIndex: zIndex}
		if url != "" {
			style.BackgroundImage = url
			style.BackgroundSize = "100% 100%"
			style.BackgroundRepeat = "no-repeat"
		}
		return &StyledNode{
			ID:        n.ID,
			Name:      n.Name,
			Kind:      n.Type,
			Placement: placement,
			Style:     style,
			AssetRef:  d.AssetKey,
			AssetURL:  url,
			Flattened: true,
		}
	}

	out := &StyledNode{
		ID:        n.ID,
		Name:      n.Name,
		Kind:      n.Type,
		Placement: placement,
		Style:     c.styles.Resolve(n),
	}
	out.Style.ZIndex = zIndex

	c.finish(n, out, nodeBounds(n))
	return out
}

// finish fills in the parts shared by root and non-root nodes: text runs,
// asset references, and children. bounds is the node's original box, which
// stays the parent context for children even when later stages substitute a
// different visual for the node itself.
func (c *Compiler) finish(n *Node, out *StyledNode, bounds Rect) {
	if n.Type == KindText {
		base, runs := SegmentText(n)
		out.TextStyle = &base
		out.Runs = runs
	}

	if ref := n.ImageRef(); ref != "" {
		out.AssetRef = ref
		if url := c.lookup(ref, n.ID); url != "" {
			out.AssetURL = url
			out.Style.BackgroundImage = url
		}
	} else if n.Type.Shape() {
		// Vector art is collected as an asset candidate. A resolved bitmap
		// replaces the styled-box approximation; otherwise the box stands.
		if url := c.lookup(n.ID); url != "" {
			out.AssetRef = n.ID
			out.AssetURL = url
			out.Style.BackgroundImage = url
			out.Style.BackgroundSize = "100% 100%"
			out.Style.BackgroundRepeat = "no-repeat"
		}
	}

	for i, ch := range n.Children {
		if child := c.compile(ch, bounds, flows(n), i); child != nil {
			out.Children = append(out.Children, child)
		}
	}
}

// lookup returns the first resolved URL among the given asset keys.
func (c *Compiler) lookup(keys ...string) string {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if url, ok := c.opts.Assets[k]; ok && url != "" {
			return url
		}
	}
	return ""
}

// unionChildBounds returns the smallest rect covering every visible child.
func unionChildBounds(n *Node) Rect {
	var u Rect
	first := true
	for _, c := range n.Children {
		if !c.Visible || c.Opacity <= 0 {
			continue
		}
		b := nodeBounds(c)
		if b.Empty() {
			continue
		}
		if first {
			u = b
			first = false
			continue
		}
		right := math.Max(u.X+u.Width, b.X+b.Width)
		bottom := math.Max(u.Y+u.Height, b.Y+b.Height)
		u.X = math.Min(u.X, b.X)
		u.Y = math.Min(u.Y, b.Y)
		u.Width = right - u.X
		u.Height = bottom - u.Y
	}
	return u
}
