package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The server uses this to keep cache entries from different sessions
// apart, since two sessions may hold tokens with different file access.
//
// Example usage:
//
//	// Session-specific keys for files behind a token
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:abc123:")
//
//	// Global keys for public files
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// DocumentKey generates a prefixed key for document tree caching.
func (k *ScopedKeyer) DocumentKey(fileKey string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(fileKey, opts)
}

// ImageKey generates a prefixed key for image render URL caching.
func (k *ScopedKeyer) ImageKey(fileKey string, opts ImageKeyOpts) string {
	return k.prefix + k.inner.ImageKey(fileKey, opts)
}

// SceneKey generates a prefixed key for compiled scene caching.
func (k *ScopedKeyer) SceneKey(docHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(docHash, opts)
}
