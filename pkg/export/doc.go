// Package export packages a compiled scene into a distributable manifest.
//
// # Overview
//
// [Build] walks a resolved [scene.StyledNode] tree, downloads every asset it
// references, and emits a [Manifest]: generated component source files plus
// the asset bytes they point at. Assets that cannot be downloaded stay in
// the output as remote URL references instead of being dropped, so a flaky
// CDN degrades the bundle rather than breaking it.
//
// The manifest is plain data. [Manifest.WriteDir] materializes it as a
// directory tree; external packagers can zip or upload the maps directly.
package export
