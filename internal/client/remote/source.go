// Package remote abstracts the remote document store: full-collection
// fetches, point writes, and ordered cursor queries over HTTP/JSON.
package remote

import (
	"context"

	"github.com/ddanilovs/campuslink/internal/models"
)

// Order names a server-side sort for cursor queries.
type Order string

const (
	OrderModifiedDesc Order = "modified_desc"
	OrderModifiedAsc  Order = "modified_asc"
)

// Query describes one page request against an ordered collection. After is
// the opaque cursor from the previous page, passed back unmodified; empty
// for the first page.
type Query struct {
	Limit int
	After string
	Order Order
}

// Page is the result of a cursor query. NextCursor is empty when the
// collection is exhausted.
type Page struct {
	Items      []models.Document `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// Source is the remote data source consumed by the sync orchestrator and
// the pagination engine. Implementations attach common.* sentinels to
// returned errors so callers can classify them with errors.Is.
type Source interface {
	// FetchAll returns the authoritative full collection.
	FetchAll(ctx context.Context, c models.Collection) ([]models.Document, error)

	// Write creates or updates one document and returns the stored
	// representation, including the server-assigned version.
	Write(ctx context.Context, c models.Collection, d models.Document) (models.Document, error)

	// QueryPage returns one ordered page of the collection.
	QueryPage(ctx context.Context, c models.Collection, q Query) (Page, error)

	// Ping probes server reachability.
	Ping(ctx context.Context) error
}
