// Package render turns compiled scenes into visual outputs.
//
// # Overview
//
// This package contains the consumers of the styled tree. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Standalone HTML/CSS source emission (in [markup] subpackage)
//   - Graphviz tree diagrams for debugging (in [treeviz] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats
// using the external rsvg-convert tool (from librsvg). The inspect
// command uses them to offer PDF and PNG output of tree diagrams.
//
//	svg, err := treeviz.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Source Emission
//
// The [markup] subpackage renders a styled tree as plain HTML and CSS
// files. Style and layout are computed once, by the scene compiler;
// markup only transcribes the resolved values, so the export and the
// live preview can never drift apart.
//
// # Tree Diagrams
//
// The [treeviz] subpackage renders the styled tree as a Graphviz box
// diagram, one box per node with kind and geometry, for inspecting what
// the compiler produced.
//
// [markup]: github.com/quellt/boxwood/pkg/render/markup
// [treeviz]: github.com/quellt/boxwood/pkg/render/treeviz
package render
