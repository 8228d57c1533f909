// Package pkg provides the core libraries for Boxwood scene compilation.
//
// # Overview
//
// Boxwood turns a design document (a tree of typed visual nodes exported
// from a design tool) into a normalized styled box tree that previews,
// export bundles, and debug diagrams are built from. The pkg directory is
// organized around that pipeline:
//
//  1. [scene] - Document parsing and the scene compiler
//  2. [assets] - Asset key collection and chunked URL resolution
//  3. [figma] - Remote document/image API client
//  4. [pipeline] - Orchestration (load → resolve → compile → export)
//  5. [render] - Styled-tree consumers (HTML/CSS markup, tree diagrams)
//  6. [export] - Source-plus-assets bundle manifests
//
// # Architecture
//
// The typical data flow through Boxwood:
//
//	Design document (remote file key or local JSON export)
//	         ↓
//	    [scene] package (parse + normalize the node tree)
//	         ↓
//	    [assets] package (collect keys, resolve image URLs in chunks)
//	         ↓
//	    [scene] package (compile into the styled box tree)
//	         ↓
//	    [render]/[export] packages (preview JSON, HTML/CSS bundle, diagrams)
//
// # Quick Start
//
// Compile a remote document through the pipeline:
//
//	import (
//	    "context"
//	    "github.com/quellt/boxwood/pkg/figma"
//	    "github.com/quellt/boxwood/pkg/pipeline"
//	)
//
//	client := figma.NewClient(token, nil, nil)
//	runner := pipeline.NewRunner(client, nil, nil, logger)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    FileKey: "a1b2C3d4e5",
//	})
//	tree := result.Scene
//
// Or compile a local document without any network access:
//
//	doc, _ := scene.ParseDocument(data)
//	tree := scene.NewCompiler(scene.Options{}).Compile(doc.Root)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [scene] - The scene compiler: node model, style resolution, text run
// segmentation, layout mapping, flatten decisions. Compilation is a pure
// function of the parsed tree and the resolved asset URL map.
//
// [assets] - Asset resolution: key collection with deduplication and alias
// tracking, chunked rendering through the remote API with per-chunk failure
// tolerance, and job supersession for live previews.
//
// [render] - Styled-tree consumers: standalone HTML/CSS emission (markup)
// and Graphviz box diagrams (treeviz). Renderers transcribe compiled
// values; they never recompute style or layout.
//
// ## Infrastructure
//
// [cache] - Pluggable response/scene caching: file backend for the CLI,
// Redis for server deployments, null to disable.
//
// [store] - Compiled-scene archive behind the preview server, with memory
// and MongoDB backends.
//
// [session] - API-token session persistence for the CLI.
//
// ## External Integrations
//
// [figma] - HTTP client for the document and image-render API with
// caching, retry, and the auth/rate-limit error taxonomy.
//
// [scene]: github.com/quellt/boxwood/pkg/scene
// [assets]: github.com/quellt/boxwood/pkg/assets
// [figma]: github.com/quellt/boxwood/pkg/figma
// [pipeline]: github.com/quellt/boxwood/pkg/pipeline
// [render]: github.com/quellt/boxwood/pkg/render
// [export]: github.com/quellt/boxwood/pkg/export
// [cache]: github.com/quellt/boxwood/pkg/cache
// [store]: github.com/quellt/boxwood/pkg/store
// [session]: github.com/quellt/boxwood/pkg/session
package pkg
