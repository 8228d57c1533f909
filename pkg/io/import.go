package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/quellt/boxwood/pkg/scene"
)

// ReadDocument decodes a design document from r. Every export shape accepted
// by [scene.ParseDocument] works: file exports, node exports, and bare nodes.
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*scene.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return scene.ParseDocument(data)
}

// ImportDocument reads a design document from a JSON file at path.
//
// The error wraps the underlying cause with the file path for context;
// parse failures carry the same coded errors as [scene.ParseDocument].
func ImportDocument(path string) (*scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return scene.ParseDocument(data)
}

// ReadScene decodes a compiled scene previously written with [WriteScene].
// The returned tree is independent of r and safe to modify.
func ReadScene(r io.Reader) (*scene.StyledNode, error) {
	var root scene.StyledNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if root.ID == "" {
		return nil, fmt.Errorf("scene has no root id")
	}
	return &root, nil
}

// ImportScene reads a compiled scene from a JSON file at path.
func ImportScene(path string) (*scene.StyledNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScene(f)
}
