package cache

// Keyer generates cache keys for the artifact classes the pipeline
// stores. Centralizing key construction keeps the key schema in one
// place and lets the server wrap keys with per-session scopes.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// DocumentKey generates a key for a fetched document tree.
	DocumentKey(fileKey string, opts DocumentKeyOpts) string

	// ImageKey generates a key for an image render URL map.
	ImageKey(fileKey string, opts ImageKeyOpts) string

	// SceneKey generates a key for a compiled scene.
	SceneKey(docHash string, opts SceneKeyOpts) string
}

// DocumentKeyOpts captures the request parameters that change which
// document tree the API returns.
type DocumentKeyOpts struct {
	// NodeID restricts the fetch to a subtree. Empty means the whole file.
	NodeID string `json:"node_id,omitempty"`

	// Version pins a specific file version. Empty means head.
	Version string `json:"version,omitempty"`
}

// ImageKeyOpts captures the render parameters for an image export
// request. IDs must be sorted by the caller so equal requests hash
// equally.
type ImageKeyOpts struct {
	IDs    []string `json:"ids"`
	Format string   `json:"format"`
	Scale  float64  `json:"scale"`
}

// SceneKeyOpts captures the settings that affect compiled output. Two
// compiles of the same document with equal opts produce the same scene,
// so they share a cache entry. Asset render parameters are included
// because resolved URLs are baked into the scene.
type SceneKeyOpts struct {
	WhiteMin    float64 `json:"white_min"`
	BlackMax    float64 `json:"black_max"`
	AlphaMax    float64 `json:"alpha_max"`
	MaxZIndex   int     `json:"max_z_index"`
	AssetFormat string  `json:"asset_format"`
	AssetScale  float64 `json:"asset_scale"`
}

// DefaultKeyer is the standard key schema. Keys are prefixed by
// artifact class and parameter sets are hashed so arbitrary values
// never leak into key strings.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// DocumentKey generates a key for a fetched document tree.
func (k *DefaultKeyer) DocumentKey(fileKey string, opts DocumentKeyOpts) string {
	return hashKey("doc", fileKey, opts)
}

// ImageKey generates a key for an image render URL map.
func (k *DefaultKeyer) ImageKey(fileKey string, opts ImageKeyOpts) string {
	return hashKey("img", fileKey, opts)
}

// SceneKey generates a key for a compiled scene.
func (k *DefaultKeyer) SceneKey(docHash string, opts SceneKeyOpts) string {
	return hashKey("scene", docHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
