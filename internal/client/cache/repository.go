// Package cache is the Local Cache Store: durable per-collection tables of
// synced documents with dirty/version metadata, backed by SQLite.
package cache

import (
	"context"

	"github.com/ddanilovs/campuslink/internal/models"
)

// Repository persists documents for offline use. UI/business code writes
// domain fields through Save and Delete; the sync orchestrator owns the
// Dirty/SyncedAt/Version metadata through Upsert and MarkSynced.
type Repository interface {
	// Save writes a locally mutated document: payload and owner are
	// stored, the row is marked dirty and ModifiedAt is taken from d.
	Save(ctx context.Context, d models.Document) error

	// Delete tombstones a document: marks it deleted, dirty, and bumps
	// ModifiedAt to nowMillis so the deletion is pushed on the next pass.
	Delete(ctx context.Context, c models.Collection, id string, nowMillis int64) error

	// Upsert atomically replaces-or-inserts one full row, metadata
	// included. Used by the orchestrator to persist reconciled documents.
	Upsert(ctx context.Context, d models.Document) error

	// MarkSynced clears the dirty flag and stamps version/synced_at after
	// a confirmed remote write.
	MarkSynced(ctx context.Context, c models.Collection, id string, version int64, syncedAt int64) error

	// List returns non-deleted documents for UI reads.
	List(ctx context.Context, c models.Collection) ([]models.Document, error)

	// GetAll returns every row including tombstones, for reconciliation.
	GetAll(ctx context.Context, c models.Collection) ([]models.Document, error)

	// GetDirty returns rows with unsynced local mutations.
	GetDirty(ctx context.Context, c models.Collection) ([]models.Document, error)

	// GetByID returns one non-deleted document or common.ErrNotFound.
	GetByID(ctx context.Context, c models.Collection, id string) (*models.Document, error)
}
