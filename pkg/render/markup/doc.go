// Package markup emits a compiled scene as standalone HTML and CSS source
// files.
//
// # Overview
//
// [Files] turns a [scene.StyledNode] tree into two component files, an
// index.html carrying the box structure and text content, and a styles.css
// carrying one rule per box. Every value in the output is already resolved
// by the scene compiler; this package transcribes placements and computed
// styles into CSS syntax and never computes layout or style of its own.
//
// Boxes are addressed by class names derived from their node ids, so the
// emitted files are self-contained and need no runtime. Asset URLs can be
// remapped through [Options.AssetPaths], which export mode uses to point
// background images at downloaded files instead of remote sources.
//
// # Usage
//
//	files, err := markup.Files(root, markup.Options{Title: "Landing page"})
//	if err != nil {
//		return err
//	}
//	os.WriteFile("index.html", []byte(files["index.html"]), 0o644)
//	os.WriteFile("styles.css", []byte(files["styles.css"]), 0o644)
package markup
