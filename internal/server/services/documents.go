// Package services holds the server's application logic between the HTTP
// handlers and the repositories.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ddanilovs/campuslink/internal/dbx"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/ddanilovs/campuslink/internal/server/repositories/documents"
)

// RepositoryFactory vends a repository bound to a DBTX, so service methods
// can run repository calls inside one transaction.
type RepositoryFactory func(db dbx.DBTX) documents.Repository

// Page is one query result handed to the HTTP layer.
type Page struct {
	Items      []models.Document
	NextCursor string
}

// DocumentService implements the document-store operations: full fetches,
// cursor queries, and version-assigning upserts.
type DocumentService struct {
	db   *sql.DB
	repo RepositoryFactory
}

func NewDocumentService(db *sql.DB, repo RepositoryFactory) *DocumentService {
	return &DocumentService{db: db, repo: repo}
}

// FetchAll returns the full collection including tombstones.
func (s *DocumentService) FetchAll(ctx context.Context, c models.Collection) ([]models.Document, error) {
	return s.repo(s.db).SelectAll(ctx, c)
}

// Query returns one ordered page of non-deleted documents. NextCursor is
// set only when the page is full, i.e. more items may follow.
func (s *DocumentService) Query(ctx context.Context, c models.Collection, limit int, after string, order documents.PageOrder) (Page, error) {
	var cursor *documents.Cursor
	if after != "" {
		decoded, err := documents.DecodeCursor(after)
		if err != nil {
			return Page{}, err
		}
		cursor = decoded
	}

	items, err := s.repo(s.db).SelectPage(ctx, c, limit, cursor, order)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) == limit && limit > 0 {
		page.NextCursor = documents.EncodeCursor(items[len(items)-1])
	}
	return page, nil
}

// Upsert stores a pushed document, assigning the next collection version
// inside one transaction, and returns the stored representation (the ack
// the client uses to clear its dirty flag).
func (s *DocumentService) Upsert(ctx context.Context, userID string, d models.Document) (models.Document, error) {
	if d.Owner == "" {
		d.Owner = userID
	}
	// Sync metadata is client-local; the server never stores it.
	d.Dirty = false
	d.SyncedAt = nil

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		version, err := repo.NextVersion(ctx, d.Collection)
		if err != nil {
			return err
		}
		d.Version = version

		return repo.Upsert(ctx, d)
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("error storing document: %w", err)
	}

	return d, nil
}
