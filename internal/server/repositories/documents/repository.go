// Package documents provides the server-side document store: PostgreSQL
// persistence, per-collection monotonic versions, and ordered cursor pages.
package documents

import (
	"context"

	"github.com/ddanilovs/campuslink/internal/models"
)

// PageOrder names a supported sort for cursor pages.
type PageOrder string

const (
	OrderModifiedDesc PageOrder = "modified_desc"
	OrderModifiedAsc  PageOrder = "modified_asc"
)

// Repository is the persistence interface the document service relies on.
type Repository interface {
	// Upsert stores the document with the version already assigned.
	Upsert(ctx context.Context, d models.Document) error

	// SelectAll returns the full collection, tombstones included, so
	// pulling clients learn about deletions.
	SelectAll(ctx context.Context, c models.Collection) ([]models.Document, error)

	// SelectPage returns up to limit non-deleted documents after the
	// decoded cursor position, in the given order.
	SelectPage(ctx context.Context, c models.Collection, limit int, after *Cursor, order PageOrder) ([]models.Document, error)

	// NextVersion increments and returns the collection's version counter.
	NextVersion(ctx context.Context, c models.Collection) (int64, error)
}
