package markup

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/scene"
)

// Options configures markup generation.
type Options struct {
	// Title is the HTML document title. Empty falls back to the root node's
	// name, then to "Scene".
	Title string

	// AssetPaths remaps asset source URLs to local paths, typically the
	// relative file names of downloaded assets in an export manifest. URLs
	// without an entry are emitted unchanged.
	AssetPaths map[string]string

	// Overlay annotates every box with its node kind and id and appends
	// hover outlines, for visually debugging placement output.
	Overlay bool
}

// Files renders the styled tree into component source files keyed by file
// name: index.html and styles.css.
func Files(root *scene.StyledNode, opts Options) (map[string]string, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "markup: nil scene root")
	}
	g := newGenerator(root, opts)
	return map[string]string{
		"index.html": g.html(),
		"styles.css": g.css(),
	}, nil
}

// =============================================================================
// Generator
// =============================================================================

type generator struct {
	root  *scene.StyledNode
	opts  Options
	class map[*scene.StyledNode]string
	order []*scene.StyledNode
}

// newGenerator assigns every box a class name up front. Distinct ids can
// sanitize to the same class, so later occurrences get a numeric suffix.
func newGenerator(root *scene.StyledNode, opts Options) *generator {
	g := &generator{root: root, opts: opts, class: make(map[*scene.StyledNode]string)}
	used := make(map[string]int)
	root.Walk(func(n *scene.StyledNode) bool {
		name := className(n.ID)
		used[name]++
		if c := used[name]; c > 1 {
			name = fmt.Sprintf("%s-%d", name, c)
		}
		g.class[n] = name
		g.order = append(g.order, n)
		return true
	})
	return g
}

// className derives a CSS class from a node id. Ids carry characters class
// selectors cannot ("1:23", "I5:2;10:4"), so each run of disallowed
// characters collapses to one hyphen.
func className(id string) string {
	var b strings.Builder
	b.WriteByte('n')
	hyphen := false
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen {
				b.WriteByte('-')
			}
			hyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// =============================================================================
// HTML
// =============================================================================

func (g *generator) html() string {
	title := g.opts.Title
	if title == "" {
		title = g.root.Name
	}
	if title == "" {
		title = "Scene"
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(title))
	buf.WriteString("  <link rel=\"stylesheet\" href=\"styles.css\">\n")
	buf.WriteString("</head>\n<body>\n")
	g.writeNode(&buf, g.root, 1)
	buf.WriteString("</body>\n</html>\n")
	return buf.String()
}

func (g *generator) writeNode(buf *bytes.Buffer, n *scene.StyledNode, depth int) {
	indent := strings.Repeat("  ", depth)

	classes := g.class[n]
	if n == g.root {
		classes = "scene " + classes
	}
	if n.AssetRef != "" && n.AssetURL == "" {
		// Resolution is pending or failed; the stylesheet paints a
		// placeholder checker for these boxes.
		classes += " asset-pending"
	}

	fmt.Fprintf(buf, "%s<div class=\"%s\"", indent, classes)
	if g.opts.Overlay {
		fmt.Fprintf(buf, " data-kind=\"%s\" data-node=\"%s\"", n.Kind, html.EscapeString(n.ID))
	}
	buf.WriteByte('>')

	if len(n.Runs) > 0 {
		g.writeRuns(buf, n)
	}

	if len(n.Children) == 0 {
		buf.WriteString("</div>\n")
		return
	}
	buf.WriteByte('\n')
	for _, c := range n.Children {
		g.writeNode(buf, c, depth+1)
	}
	fmt.Fprintf(buf, "%s</div>\n", indent)
}

// writeRuns emits the node's text content. Runs matching the base style
// render as bare text, styled runs as spans, hyperlinks as anchors, and
// break runs as one <br> per separator line.
func (g *generator) writeRuns(buf *bytes.Buffer, n *scene.StyledNode) {
	var base scene.RunStyle
	if n.TextStyle != nil {
		base = *n.TextStyle
	}

	for i, r := range n.Runs {
		if r.Break {
			for j := 0; j < strings.Count(r.Text, "\n"); j++ {
				buf.WriteString("<br>")
			}
			continue
		}
		text := html.EscapeString(r.Text)
		switch {
		case r.Link != "":
			fmt.Fprintf(buf, "<a class=\"%s\" href=\"%s\">%s</a>",
				g.runClass(n, i), html.EscapeString(r.Link), text)
		case r.Plain(base):
			buf.WriteString(text)
		default:
			fmt.Fprintf(buf, "<span class=\"%s\">%s</span>", g.runClass(n, i), text)
		}
	}
}

func (g *generator) runClass(n *scene.StyledNode, i int) string {
	return fmt.Sprintf("%s-r%d", g.class[n], i)
}

// =============================================================================
// CSS
// =============================================================================

const preambleCSS = `body { margin: 0; }
.scene, .scene div { box-sizing: border-box; }
.scene a { color: inherit; text-decoration: inherit; }
.asset-pending { background: repeating-conic-gradient(#ececec 0% 25%, #f9f9f9 0% 50%) 50% / 16px 16px; }
`

const overlayCSS = `
.scene div { outline: 1px solid rgba(255, 0, 85, 0.35); }
.scene div:hover { outline: 2px solid rgba(255, 0, 85, 0.9); }
.scene div:hover::after {
  content: attr(data-kind) " " attr(data-node);
  position: absolute;
  left: 0;
  top: -14px;
  font: 10px monospace;
  color: #ff0055;
  white-space: nowrap;
  z-index: 2147483647;
}
`

func (g *generator) css() string {
	var buf bytes.Buffer
	buf.WriteString("/* Generated from the compiled scene; edit the source document instead. */\n")
	buf.WriteString(preambleCSS)
	buf.WriteByte('\n')

	for _, n := range g.order {
		g.writeRule(&buf, n)
		g.writeRunRules(&buf, n)
	}

	if g.opts.Overlay {
		buf.WriteString(overlayCSS)
	}
	return buf.String()
}

func (g *generator) writeRule(buf *bytes.Buffer, n *scene.StyledNode) {
	fmt.Fprintf(buf, ".%s {\n", g.class[n])
	for _, d := range g.declarations(n) {
		fmt.Fprintf(buf, "  %s;\n", d)
	}
	buf.WriteString("}\n")
}

func (g *generator) writeRunRules(buf *bytes.Buffer, n *scene.StyledNode) {
	if len(n.Runs) == 0 {
		return
	}
	var base scene.RunStyle
	if n.TextStyle != nil {
		base = *n.TextStyle
	}
	for i, r := range n.Runs {
		if r.Break || r.Plain(base) {
			continue
		}
		decls := runDelta(base, r.Style)
		if len(decls) == 0 {
			continue
		}
		fmt.Fprintf(buf, ".%s-r%d {\n", g.class[n], i)
		for _, d := range decls {
			fmt.Fprintf(buf, "  %s;\n", d)
		}
		buf.WriteString("}\n")
	}
}

// declarations lists the CSS declarations for one box in emission order:
// placement first, then flex flow, then the computed style, then the base
// text style on text nodes.
func (g *generator) declarations(n *scene.StyledNode) []string {
	var ds []string

	p := n.Placement
	switch {
	case n == g.root, p.Static:
		// The root is the containing block for its absolute descendants.
		// Static boxes ride their parent's flex flow; left and top are
		// debug-only there and must not be emitted.
		ds = append(ds, "position: relative")
		if p.Static {
			ds = append(ds, "flex-shrink: 0")
		}
	default:
		ds = append(ds, "position: absolute", "left: "+px(p.Left), "top: "+px(p.Top))
	}
	ds = append(ds, "width: "+px(p.Width), "height: "+px(p.Height))

	if f := p.Flex; f != nil {
		ds = append(ds, "display: flex", "flex-direction: "+f.Direction)
		if f.Justify != "" {
			ds = append(ds, "justify-content: "+f.Justify)
		}
		if f.Align != "" {
			ds = append(ds, "align-items: "+f.Align)
		}
		if f.Gap != 0 {
			ds = append(ds, "gap: "+px(f.Gap))
		}
		if !f.Padding.Zero() {
			ds = append(ds, fmt.Sprintf("padding: %s %s %s %s",
				px(f.Padding.Top), px(f.Padding.Right), px(f.Padding.Bottom), px(f.Padding.Left)))
		}
	}

	ds = append(ds, styleDecls(n.Style, g.opts.AssetPaths)...)
	if n.TextStyle != nil {
		ds = append(ds, runStyleDecls(*n.TextStyle)...)
	}
	return ds
}

// styleDecls transcribes a computed style. Values are CSS already; only the
// background image needs wrapping, and its URL passes through the path
// override map so exported documents reference their downloaded files.
func styleDecls(s scene.ComputedStyle, paths map[string]string) []string {
	var ds []string
	if s.Background != "" {
		ds = append(ds, "background: "+s.Background)
	}
	if s.BackgroundImage != "" {
		src := s.BackgroundImage
		if p, ok := paths[src]; ok && p != "" {
			src = p
		}
		ds = append(ds, fmt.Sprintf("background-image: url(%q)", src))
	}
	if s.BackgroundSize != "" {
		ds = append(ds, "background-size: "+s.BackgroundSize)
	}
	if s.BackgroundRepeat != "" {
		ds = append(ds, "background-repeat: "+s.BackgroundRepeat)
	}
	if b := s.Border; b != nil {
		ds = append(ds, fmt.Sprintf("border: %s %s %s", px(b.Width), b.Style, b.Color))
	}
	if b := s.Outline; b != nil {
		ds = append(ds, fmt.Sprintf("outline: %s %s %s", px(b.Width), b.Style, b.Color))
	}
	if s.BorderRadius != "" {
		ds = append(ds, "border-radius: "+s.BorderRadius)
	}
	if s.BoxShadow != "" {
		ds = append(ds, "box-shadow: "+s.BoxShadow)
	}
	if s.TextShadow != "" {
		ds = append(ds, "text-shadow: "+s.TextShadow)
	}
	if s.Filter != "" {
		ds = append(ds, "filter: "+s.Filter)
	}
	if s.BackdropFilter != "" {
		ds = append(ds, "backdrop-filter: "+s.BackdropFilter)
	}
	if s.Opacity < 1 {
		ds = append(ds, "opacity: "+num(s.Opacity))
	}
	if s.MixBlendMode != "" {
		ds = append(ds, "mix-blend-mode: "+s.MixBlendMode)
	}
	if s.Transform != "" {
		ds = append(ds, "transform: "+s.Transform)
	}
	if s.ClipPath != "" {
		ds = append(ds, "clip-path: "+s.ClipPath)
	}
	if s.Overflow != "" {
		ds = append(ds, "overflow: "+s.Overflow)
	}
	if s.ZIndex > 0 {
		ds = append(ds, "z-index: "+strconv.Itoa(s.ZIndex))
	}
	return ds
}

// runStyleDecls transcribes a full character style, used for the base text
// style on the node's own rule.
func runStyleDecls(rs scene.RunStyle) []string {
	var ds []string
	if rs.FontFamily != "" {
		ds = append(ds, fmt.Sprintf("font-family: %q", rs.FontFamily))
	}
	if rs.FontWeight != 0 {
		ds = append(ds, "font-weight: "+num(rs.FontWeight))
	}
	if rs.FontSize != 0 {
		ds = append(ds, "font-size: "+px(rs.FontSize))
	}
	if rs.Italic {
		ds = append(ds, "font-style: italic")
	}
	if rs.TextDecoration != "" {
		ds = append(ds, "text-decoration: "+rs.TextDecoration)
	}
	if rs.TextTransform != "" {
		ds = append(ds, "text-transform: "+rs.TextTransform)
	}
	if rs.LetterSpacing != 0 {
		ds = append(ds, "letter-spacing: "+px(rs.LetterSpacing))
	}
	if rs.LineHeight != 0 {
		ds = append(ds, "line-height: "+px(rs.LineHeight))
	}
	if rs.Color != "" {
		ds = append(ds, "color: "+rs.Color)
	}
	return ds
}

// runDelta returns the declarations where a run departs from the node's base
// style; spans inherit everything else. Italic and decoration need explicit
// resets since a run can clear what the base sets.
func runDelta(base, rs scene.RunStyle) []string {
	var ds []string
	if rs.FontFamily != base.FontFamily && rs.FontFamily != "" {
		ds = append(ds, fmt.Sprintf("font-family: %q", rs.FontFamily))
	}
	if rs.FontWeight != base.FontWeight && rs.FontWeight != 0 {
		ds = append(ds, "font-weight: "+num(rs.FontWeight))
	}
	if rs.FontSize != base.FontSize && rs.FontSize != 0 {
		ds = append(ds, "font-size: "+px(rs.FontSize))
	}
	if rs.Italic != base.Italic {
		if rs.Italic {
			ds = append(ds, "font-style: italic")
		} else {
			ds = append(ds, "font-style: normal")
		}
	}
	if rs.TextDecoration != base.TextDecoration {
		if rs.TextDecoration != "" {
			ds = append(ds, "text-decoration: "+rs.TextDecoration)
		} else {
			ds = append(ds, "text-decoration: none")
		}
	}
	if rs.TextTransform != base.TextTransform && rs.TextTransform != "" {
		ds = append(ds, "text-transform: "+rs.TextTransform)
	}
	if rs.LetterSpacing != base.LetterSpacing && rs.LetterSpacing != 0 {
		ds = append(ds, "letter-spacing: "+px(rs.LetterSpacing))
	}
	if rs.LineHeight != base.LineHeight && rs.LineHeight != 0 {
		ds = append(ds, "line-height: "+px(rs.LineHeight))
	}
	if rs.Color != base.Color && rs.Color != "" {
		ds = append(ds, "color: "+rs.Color)
	}
	return ds
}

// num renders a numeric CSS component rounded to two decimals with trailing
// zeros trimmed.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func px(v float64) string {
	return num(v) + "px"
}
