package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manifest is the packaged form of one compiled scene: component source
// files plus the assets they reference. Paths are slash-separated and
// relative to the bundle root.
type Manifest struct {
	// SourceFiles maps relative paths to generated source text.
	SourceFiles map[string]string `json:"sourceFiles"`

	// AssetFiles maps relative paths to downloaded asset bytes.
	AssetFiles map[string][]byte `json:"assetFiles"`

	// AssetRefs maps each asset key to the reference the source files use:
	// a path into AssetFiles when the download succeeded, the remote URL
	// otherwise.
	AssetRefs map[string]string `json:"assetRefs"`
}

// WriteDir materializes the manifest under dir, creating subdirectories as
// needed.
func (m *Manifest) WriteDir(dir string) error {
	for path, text := range m.SourceFiles {
		if err := writeFile(dir, path, []byte(text)); err != nil {
			return err
		}
	}
	for path, data := range m.AssetFiles {
		if err := writeFile(dir, path, data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, path string, data []byte) error {
	full := filepath.Join(dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
