// Package assets collects and resolves the bitmap assets a scene needs.
//
// Compilation itself never touches the network: [Collect] walks a node
// tree and returns the deduplicated set of asset keys (image fill
// references and render candidates), and [Resolver.Resolve] turns those
// keys into URLs with bounded, chunked calls to the image render API.
// The resulting map is handed to the scene compiler as plain data.
//
// Live previews resolve repeatedly as the document changes. [Tracker]
// serializes those passes: starting a job cancels the previous one, and
// results from a superseded job are discarded in full so a slow stale
// fetch can never overwrite fresher data.
package assets
