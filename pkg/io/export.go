package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/quellt/boxwood/pkg/scene"
)

// WriteScene encodes a compiled scene as indented JSON and writes it to w.
// The output is the preview payload and round-trips through [ReadScene].
func WriteScene(root *scene.StyledNode, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportScene writes a compiled scene to a JSON file at path.
// This is a convenience wrapper around [WriteScene] for file-based output.
func ExportScene(root *scene.StyledNode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteScene(root, f)
}
