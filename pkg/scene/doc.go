// Package scene compiles a raw design-document node tree into a styled box
// tree that downstream renderers can display or emit as component source.
//
// This package is the shared core between the live preview and the static
// exporter. Both consumers receive the same [StyledNode] tree; they differ
// only in how they render it, never in how style, layout, or text runs are
// computed.
//
// # Pipeline
//
// A compile pass is a pure, synchronous tree walk:
//
//  1. Parse: normalize one of the accepted document shapes into a root [Node]
//  2. Flatten check: masked groups short-circuit to a pre-rendered bitmap
//  3. Style: fills, strokes, radii, effects, transforms → [ComputedStyle]
//  4. Layout: absolute or auto-layout placement relative to the parent box
//  5. Text: rich-text override tables → minimal ordered [TextRun] lists
//
// Asset URLs are resolved out-of-band (see package assets) and handed to the
// compiler as an immutable lookup map; compilation itself never touches the
// network.
//
// # Usage
//
//	doc, err := scene.ParseDocument(data)
//	if err != nil {
//	    return err
//	}
//	c := scene.NewCompiler(scene.Options{Assets: urls})
//	root := c.Compile(doc.Root)
//
// Malformed or partially specified nodes never abort a compile: missing
// attributes contribute nothing to the computed style instead of failing.
package scene
