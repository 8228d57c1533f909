package assets

import (
	"github.com/quellt/boxwood/pkg/scene"
)

// Key identifies one asset to resolve. Image fills key by their content
// reference so every node sharing a bitmap resolves through one entry;
// flattened groups and primitive shapes key by node id because they
// must be rendered server-side.
type Key struct {
	// ID is the canonical resolution key: the image fill reference when
	// one exists, else the node id.
	ID string `json:"id"`

	// Ref is the image fill reference behind this key, when known.
	// Flattened groups keep their own id as ID but record the subtree's
	// fill ref here so a source map can satisfy them without a render
	// call.
	Ref string `json:"ref,omitempty"`

	// Nodes lists the ids of nodes that display this asset, in document
	// order. The first entry is the render target when the key cannot
	// be served from a source map.
	Nodes []string `json:"nodes"`
}

// renderID returns the node id to render for this key.
func (k Key) renderID() string {
	if len(k.Nodes) == 0 {
		return ""
	}
	return k.Nodes[0]
}

// Collect walks the tree and gathers the assets it needs, deduplicated
// by key in document order of first appearance. Hidden subtrees
// contribute nothing. Children of a flattened group are consumed by the
// group's own render and are not collected separately.
func Collect(root *scene.Node) []Key {
	if root == nil {
		return nil
	}

	var (
		keys  []Key
		index = make(map[string]int)
	)

	add := func(id, ref, nodeID string) {
		if i, ok := index[id]; ok {
			keys[i].Nodes = append(keys[i].Nodes, nodeID)
			if keys[i].Ref == "" {
				keys[i].Ref = ref
			}
			return
		}
		index[id] = len(keys)
		keys = append(keys, Key{ID: id, Ref: ref, Nodes: []string{nodeID}})
	}

	root.Walk(func(n *scene.Node) bool {
		if !n.Visible || n.Opacity <= 0 {
			return false
		}

		if d := scene.DecideFlatten(n); d.Flatten {
			add(d.AssetKey, d.FillRef, n.ID)
			return false
		}

		if ref := n.ImageRef(); ref != "" {
			add(ref, ref, n.ID)
			return true
		}

		if n.Type.Shape() {
			add(n.ID, "", n.ID)
		}
		return true
	})

	return keys
}
