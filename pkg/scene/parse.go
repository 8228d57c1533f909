package scene

import (
	"encoding/json"
	"sort"

	"github.com/quellt/boxwood/pkg/errors"
)

// Document is a parsed design file: metadata, the root node, and an optional
// pre-resolved map from image fill references to source URLs. Exports that
// carry an image map never need network access to resolve assets.
type Document struct {
	Name         string            `json:"name,omitempty"`
	LastModified string            `json:"lastModified,omitempty"`
	Version      string            `json:"version,omitempty"`
	Root         *Node             `json:"document"`
	ImageMap     map[string]string `json:"imageMap,omitempty"`
}

// rawDocument is a superset of all wire shapes ParseDocument accepts.
type rawDocument struct {
	Name         string            `json:"name"`
	LastModified string            `json:"lastModified"`
	Version      string            `json:"version"`
	Document     *Node             `json:"document"`
	ImageMap     map[string]string `json:"imageMap"`
	Nodes        map[string]struct {
		Document *Node `json:"document"`
	} `json:"nodes"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ParseDocument normalizes raw JSON into a Document. Three shapes are
// accepted:
//
//   - a file export: {"name": ..., "document": {...}, "imageMap": {...}}
//   - a node export: {"nodes": {"<id>": {"document": {...}}, ...}}
//   - a bare node: {"id": ..., "type": ..., ...}
//
// Node exports may carry several entries; the entry with the lowest id in
// lexical order becomes the root, which keeps parsing deterministic across
// runs. Use [ParseDocumentNode] to pick a specific entry.
func ParseDocument(data []byte) (*Document, error) {
	return parseDocument(data, "")
}

// ParseDocumentNode parses a node export and selects the entry with the given
// id as the root. It falls back to [ParseDocument] behavior for other shapes.
func ParseDocumentNode(data []byte, nodeID string) (*Document, error) {
	return parseDocument(data, nodeID)
}

func parseDocument(data []byte, nodeID string) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is empty")
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document is not valid JSON")
	}

	doc := &Document{
		Name:         raw.Name,
		LastModified: raw.LastModified,
		Version:      raw.Version,
		ImageMap:     raw.ImageMap,
	}

	switch {
	case raw.Document != nil:
		doc.Root = raw.Document

	case len(raw.Nodes) > 0:
		if nodeID != "" {
			entry, ok := raw.Nodes[nodeID]
			if !ok || entry.Document == nil {
				return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not present in export", nodeID)
			}
			doc.Root = entry.Document
			break
		}
		ids := make([]string, 0, len(raw.Nodes))
		for id, entry := range raw.Nodes {
			if entry.Document != nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "node export contains no documents")
		}
		// Prefer a page document when the export carries several entries,
		// then fall back to the lowest id. Sorting keeps the choice
		// deterministic across runs since map order is randomized.
		sort.Strings(ids)
		doc.Root = raw.Nodes[ids[0]].Document
		for _, id := range ids {
			if t := raw.Nodes[id].Document.Type; t == KindPage || t == KindCanvas {
				doc.Root = raw.Nodes[id].Document
				break
			}
		}

	case raw.ID != "" || raw.Type != "":
		var node Node
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "bare node is not valid JSON")
		}
		doc.Root = &node

	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unrecognized document shape: no document, nodes, or node fields")
	}

	if doc.Root.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "root node has no id")
	}
	return doc, nil
}

// FindNode returns the first node with the given id in document order, or
// nil when the tree has none.
func (d *Document) FindNode(id string) *Node {
	if d == nil || d.Root == nil || id == "" {
		return nil
	}
	var found *Node
	d.Root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// CountNodes returns the number of nodes in the document tree.
func (d *Document) CountNodes() int {
	if d == nil || d.Root == nil {
		return 0
	}
	count := 0
	d.Root.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
