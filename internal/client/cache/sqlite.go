package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/dbx"
	"github.com/ddanilovs/campuslink/internal/models"
)

// SQLiteRepository implements Repository over a dbx.DBTX (either *sql.DB or
// *sql.Tx). Table names come exclusively from the models collection
// registry, so building statements with Sprintf is safe here.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = "id, owner, payload, modified_at, synced_at, dirty, version, deleted"

func (r *SQLiteRepository) Save(ctx context.Context, d models.Document) error {
	table, err := models.TableFor(d.Collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, owner, payload, modified_at, dirty, version, deleted)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			payload = excluded.payload,
			modified_at = excluded.modified_at,
			dirty = 1,
			deleted = excluded.deleted`, table)
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Owner, []byte(d.Payload), d.ModifiedAt, d.Version, d.Deleted)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, c models.Collection, id string, nowMillis int64) error {
	table, err := models.TableFor(c)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET deleted = 1, dirty = 1, modified_at = ? WHERE id = ? AND deleted = 0`, table)
	res, err := r.db.ExecContext(ctx, query, nowMillis, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, d models.Document) error {
	table, err := models.TableFor(d.Collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			payload = excluded.payload,
			modified_at = excluded.modified_at,
			synced_at = excluded.synced_at,
			dirty = excluded.dirty,
			version = excluded.version,
			deleted = excluded.deleted`, table, columns)
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Owner, []byte(d.Payload), d.ModifiedAt, nullableInt(d.SyncedAt), d.Dirty, d.Version, d.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, c models.Collection, id string, version int64, syncedAt int64) error {
	table, err := models.TableFor(c)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET dirty = 0, version = ?, synced_at = ? WHERE id = ?`, table)
	res, err := r.db.ExecContext(ctx, query, version, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark document synced: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, c models.Collection) ([]models.Document, error) {
	return r.selectDocuments(ctx, c, "WHERE deleted = 0")
}

func (r *SQLiteRepository) GetAll(ctx context.Context, c models.Collection) ([]models.Document, error) {
	return r.selectDocuments(ctx, c, "")
}

func (r *SQLiteRepository) GetDirty(ctx context.Context, c models.Collection) ([]models.Document, error) {
	return r.selectDocuments(ctx, c, "WHERE dirty = 1")
}

func (r *SQLiteRepository) GetByID(ctx context.Context, c models.Collection, id string) (*models.Document, error) {
	table, err := models.TableFor(c)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? AND deleted = 0`, columns, table)
	row := r.db.QueryRowContext(ctx, query, id)

	d, err := scanDocument(c, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return &d, nil
}

func (r *SQLiteRepository) selectDocuments(ctx context.Context, c models.Collection, where string) ([]models.Document, error) {
	table, err := models.TableFor(c)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s %s`, columns, table, where)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.Document
	for rows.Next() {
		d, err := scanDocument(c, rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanDocument(c models.Collection, scan func(dest ...any) error) (models.Document, error) {
	var d models.Document
	var payload []byte
	var syncedAt sql.NullInt64

	err := scan(&d.ID, &d.Owner, &payload, &d.ModifiedAt, &syncedAt, &d.Dirty, &d.Version, &d.Deleted)
	if err != nil {
		return models.Document{}, err
	}

	d.Collection = c
	d.Payload = payload
	if syncedAt.Valid {
		d.SyncedAt = &syncedAt.Int64
	}
	return d, nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
