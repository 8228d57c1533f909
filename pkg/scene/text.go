package scene

// Unicode line and paragraph separators that some editors embed in text
// content instead of plain newlines.
const (
	lineSeparator      = ' '
	paragraphSeparator = ' '
)

// resolvedStyle pairs a run style with its hyperlink target, the two values
// that decide run boundaries.
type resolvedStyle struct {
	style RunStyle
	link  string
}

// SegmentText splits a text node's characters into minimal ordered runs.
// Each run is a maximal span whose resolved style and hyperlink target are
// identical; line breaks always close the current run and come back as
// dedicated break runs carrying the literal separator text, so concatenating
// every run's text reproduces the node's characters with separators
// normalized to newlines.
//
// The returned base style is the node's own text style resolved the same
// way, letting renderers put shared properties on the container and emit
// runs that match it as plain text.
func SegmentText(n *Node) (RunStyle, []TextRun) {
	var baseType TypeStyle
	if n.Style != nil {
		baseType = *n.Style
	}
	base := resolveRunStyle(baseType)

	if n.Characters == "" {
		return base, nil
	}

	// Resolve each override table entry once. Index 0 and indexes missing
	// from the table mean "base style".
	resolved := map[int]resolvedStyle{0: {style: base, link: linkTarget(baseType.Hyperlink)}}
	for idx, override := range n.StyleOverrideTable {
		effective := override.Apply(baseType)
		resolved[idx] = resolvedStyle{
			style: resolveRunStyle(effective),
			link:  linkTarget(effective.Hyperlink),
		}
	}

	var (
		runs    []TextRun
		current []rune
		open    resolvedStyle
		breaks  []rune
	)

	flushText := func() {
		if len(current) == 0 {
			return
		}
		runs = append(runs, TextRun{Text: string(current), Style: open.style, Link: open.link})
		current = current[:0]
	}
	flushBreak := func() {
		if len(breaks) == 0 {
			return
		}
		runs = append(runs, TextRun{Text: string(breaks), Style: base, Break: true})
		breaks = breaks[:0]
	}

	for i, r := range []rune(n.Characters) {
		switch r {
		case '\n':
			flushText()
			breaks = append(breaks, '\n')
			continue
		case lineSeparator:
			flushText()
			breaks = append(breaks, '\n')
			continue
		case paragraphSeparator:
			flushText()
			breaks = append(breaks, '\n', '\n')
			continue
		}
		flushBreak()

		idx := 0
		if i < len(n.CharacterStyleOverrides) {
			idx = n.CharacterStyleOverrides[i]
		}
		entry, ok := resolved[idx]
		if !ok {
			entry = resolved[0]
		}

		if len(current) > 0 && entry != open {
			flushText()
		}
		open = entry
		current = append(current, r)
	}
	flushText()
	flushBreak()

	return base, runs
}

// resolveRunStyle lowers a complete character style into CSS-valued fields.
func resolveRunStyle(ts TypeStyle) RunStyle {
	rs := RunStyle{
		FontFamily:    ts.FontFamily,
		FontWeight:    ts.FontWeight,
		FontSize:      ts.FontSize,
		Italic:        ts.Italic,
		LetterSpacing: ts.LetterSpacing,
		LineHeight:    ts.LineHeightPx,
	}

	switch ts.TextDecoration {
	case "UNDERLINE":
		rs.TextDecoration = "underline"
	case "STRIKETHROUGH":
		rs.TextDecoration = "line-through"
	}

	switch ts.TextCase {
	case "UPPER":
		rs.TextTransform = "uppercase"
	case "LOWER":
		rs.TextTransform = "lowercase"
	case "TITLE":
		rs.TextTransform = "capitalize"
	}

	if p := firstVisiblePaint(ts.Fills); p != nil && p.Type == PaintSolid {
		rs.Color = paintColor(*p)
	}
	return rs
}

// linkTarget extracts a usable hyperlink target. Node-internal links have no
// equivalent in rendered output and resolve to no link.
func linkTarget(h *Hyperlink) string {
	if h == nil || h.Type != "URL" {
		return ""
	}
	return h.URL
}
