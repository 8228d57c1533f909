package scene

// FlattenDecision is the outcome of the rasterization check for one group.
// Flattened groups render as a single bitmap and lose their children.
type FlattenDecision struct {
	Flatten bool

	// AssetKey is the primary key the rasterized subtree resolves under:
	// the group's own node id.
	AssetKey string

	// FillRef is the group's own image fill reference, or failing that the
	// first one found among its descendants depth-first. Resolution falls
	// back to it when no bitmap exists for the node id itself, as happens
	// with pre-baked exports that only carry fill references.
	FillRef string
}

// DecideFlatten reports whether a group has to be rasterized. Groups qualify
// when they composite through a mask, which the box model cannot express, or
// when the designer attached explicit export settings. Text keeps a group
// live: flattening it would freeze selectable text into pixels, so masked
// groups containing text render unmasked instead.
//
// The decision reads only the subtree, never external state, so repeated
// compilation of the same tree always decides the same way.
func DecideFlatten(n *Node) FlattenDecision {
	if n == nil || n.Type != KindGroup {
		return FlattenDecision{}
	}

	flatten := len(n.ExportSettings) > 0
	if !flatten {
		hasMask, hasText := scanForMaskAndText(n)
		flatten = hasMask && !hasText
	}
	if !flatten {
		return FlattenDecision{}
	}

	return FlattenDecision{
		Flatten:  true,
		AssetKey: n.ID,
		FillRef:  subtreeImageRef(n),
	}
}

// scanForMaskAndText looks through the group's visible descendants for mask
// nodes with a concrete mask type and for text nodes. Hidden branches cannot
// mask or display anything, so they are skipped.
func scanForMaskAndText(group *Node) (hasMask, hasText bool) {
	for _, c := range group.Children {
		c.Walk(func(n *Node) bool {
			if !n.Visible || n.Opacity <= 0 {
				return false
			}
			if n.IsMask && n.MaskType != "" {
				hasMask = true
			}
			if n.Type == KindText {
				hasText = true
			}
			return !(hasMask && hasText)
		})
	}
	return hasMask, hasText
}

// subtreeImageRef returns the node's own image fill reference, or the first
// one among its descendants in depth-first document order.
func subtreeImageRef(n *Node) string {
	ref := ""
	n.Walk(func(c *Node) bool {
		if ref != "" {
			return false
		}
		if r := c.ImageRef(); r != "" {
			ref = r
			return false
		}
		return true
	})
	return ref
}
