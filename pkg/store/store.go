package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quellt/boxwood/pkg/scene"
)

// Record is one archived compile.
type Record struct {
	ID        string    `bson:"_id" json:"id"`
	FileKey   string    `bson:"file_key,omitempty" json:"fileKey,omitempty"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`

	// Root is the compiled scene. List results omit it; fetch the full
	// record with Get.
	Root *scene.StyledNode `bson:"root,omitempty" json:"root,omitempty"`
}

// NewRecord builds a record for a compiled scene with a fresh id and
// timestamp.
func NewRecord(fileKey, name string, root *scene.StyledNode) *Record {
	return &Record{
		ID:        uuid.NewString(),
		FileKey:   fileKey,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Root:      root,
	}
}

// Store archives compiled scenes. Implementations are safe for concurrent
// use.
type Store interface {
	// Put stores a record, replacing any existing record with the same id.
	Put(ctx context.Context, rec *Record) error

	// Get returns the record with the given id, including its scene tree.
	// Missing ids yield an error with code NOT_FOUND.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records newest first, with Root omitted.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes the record with the given id. Missing ids yield an
	// error with code NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
