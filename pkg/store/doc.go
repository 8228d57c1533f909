// Package store archives compiled scenes so they can be listed and
// re-served without recompiling.
//
// # Overview
//
// A [Store] holds [Record] values: one compiled scene tree plus the
// metadata needed to list and refetch it. Two backends exist, an in-memory
// store for tests and single-run serving, and a MongoDB store for
// deployments where the preview server outlives individual compiles.
//
// [Record.Root] trees carry bson tags end to end, so the Mongo backend
// persists scenes without an intermediate representation.
package store
