package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/quellt/boxwood/pkg/render"
	"github.com/quellt/boxwood/pkg/scene"
)

// Options configures scene diagram rendering.
type Options struct {
	// Detailed includes placement, asset, and text data in node labels.
	// When false, only the kind and name are shown.
	Detailed bool

	// MaxDepth prunes boxes deeper than the given depth when positive.
	// The root is depth zero.
	MaxDepth int
}

// ToDOT converts a styled tree to Graphviz DOT. The resulting string can be
// rendered with [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Flattened boxes are drawn with dashed outlines and grey fill since their
// source subtree is no longer present in the compiled output.
func ToDOT(root *scene.StyledNode, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")

	if root != nil {
		buf.WriteString("\n")
		writeNodes(&buf, root, 0, opts)
		buf.WriteString("\n")
		writeEdges(&buf, root, 0, opts)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNodes(buf *bytes.Buffer, n *scene.StyledNode, depth int, opts Options) {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return
	}
	label := fmtLabel(n, opts.Detailed)
	fmt.Fprintf(buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, label), ", "))
	for _, c := range n.Children {
		writeNodes(buf, c, depth+1, opts)
	}
}

func writeEdges(buf *bytes.Buffer, n *scene.StyledNode, depth int, opts Options) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return
	}
	for _, c := range n.Children {
		fmt.Fprintf(buf, "  %q -> %q;\n", n.ID, c.ID)
		writeEdges(buf, c, depth+1, opts)
	}
}

func fmtLabel(n *scene.StyledNode, detailed bool) string {
	label := string(n.Kind)
	if n.Name != "" {
		label += "\n" + n.Name
	}
	if !detailed {
		return label
	}

	p := n.Placement
	parts := []string{fmt.Sprintf("%gx%g @ (%g, %g)", p.Width, p.Height, p.Left, p.Top)}
	if p.Static {
		parts = append(parts, "static")
	}
	if p.Flex != nil {
		parts = append(parts, "flex "+p.Flex.Direction)
	}
	if n.AssetRef != "" {
		parts = append(parts, "asset "+n.AssetRef)
	}
	if len(n.Runs) > 0 {
		parts = append(parts, fmt.Sprintf("%d runs", len(n.Runs)))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *scene.StyledNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Flattened:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.Kind == scene.KindText:
		attrs = append(attrs, "fillcolor=lightyellow")
	case n.AssetRef != "":
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz. The bytes are ready
// for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root SVG tag to pixel dimensions matching
// the viewBox. Graphviz sizes the root element in points.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
