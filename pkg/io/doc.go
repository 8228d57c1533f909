// Package io provides JSON import and export for design documents and
// compiled scenes.
//
// # Overview
//
// Two data shapes flow through files: raw design documents (the tool's
// export JSON, in any of the shapes [scene.ParseDocument] accepts) and
// compiled scenes (the [scene.StyledNode] tree, the preview payload).
// Documents are read-only inputs; scenes round-trip, so a compile can be
// piped to a file and re-served or re-exported later without network access.
//
// # Import
//
// Use [ImportDocument] to read a design document from a file path, or
// [ReadDocument] from any io.Reader. [ImportScene] and [ReadScene] do the
// same for compiled scenes.
//
// # Export
//
// Use [ExportScene] to write a compiled scene to a file, or [WriteScene] to
// write to any io.Writer. The output is indented JSON holding every resolved
// placement, style, run, and asset reference; re-importing it yields an
// identical tree.
package io
