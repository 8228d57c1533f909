// Package treeviz renders compiled scene trees as Graphviz diagrams for
// compiler debugging.
//
// [ToDOT] converts a [scene.StyledNode] tree to DOT, one box per node with
// its kind, name, and optionally placement and asset details. Flattened
// subtrees render dashed and grey so collapsed structure stands out.
// [RenderSVG] rasterizes the DOT through Graphviz; [RenderPDF] and
// [RenderPNG] convert further via rsvg-convert.
package treeviz
