// Package documents persists SVG documents keyed by (owner, name).
package documents

import (
	"context"

	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
)

// Repository is the document table. Every method takes the owner as part of
// the key; there is no way to address a document without it.
type Repository interface {
	// Upsert inserts the document or fully replaces the row with the same
	// (owner, name).
	Upsert(ctx context.Context, doc *models.Document) error
	// Get returns common.ErrorNotFound when the pair does not exist.
	Get(ctx context.Context, owner, name string) (*models.Document, error)
	// StorageKey returns the object key referenced by the row, "" for
	// inline content, or common.ErrorNotFound.
	StorageKey(ctx context.Context, owner, name string) (string, error)
	// ListNames returns names ordered by last modification, newest first.
	ListNames(ctx context.Context, owner string) ([]string, error)
}
