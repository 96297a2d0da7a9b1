package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/dbx"
	"github.com/ddanilovs/campuslink/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or
// *sql.Tx). Table names come exclusively from the models collection
// registry, so building statements with Sprintf is safe here.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, d models.Document) error {
	table, err := models.TableFor(d.Collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner, payload, modified_at, version, deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			owner = EXCLUDED.owner,
			payload = EXCLUDED.payload,
			modified_at = EXCLUDED.modified_at,
			version = EXCLUDED.version,
			deleted = EXCLUDED.deleted`, table)
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Owner, []byte(d.Payload), d.ModifiedAt, d.Version, d.Deleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context, c models.Collection) ([]models.Document, error) {
	table, err := models.TableFor(c)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, owner, payload, modified_at, version, deleted FROM %s`, table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	return collect(c, rows)
}

func (r *PostgresRepository) SelectPage(ctx context.Context, c models.Collection, limit int, after *Cursor, order PageOrder) ([]models.Document, error) {
	table, err := models.TableFor(c)
	if err != nil {
		return nil, err
	}

	var cmp, sort string
	switch order {
	case OrderModifiedAsc:
		cmp, sort = ">", "ASC"
	case OrderModifiedDesc, "":
		cmp, sort = "<", "DESC"
	default:
		return nil, fmt.Errorf("unsupported order %q", order)
	}

	query := fmt.Sprintf(`SELECT id, owner, payload, modified_at, version, deleted FROM %s WHERE deleted = FALSE`, table)
	args := []any{}
	if after != nil {
		// Keyset condition on (modified_at, id); id breaks ties in
		// ascending order regardless of the primary sort.
		query += fmt.Sprintf(` AND (modified_at %s $1 OR (modified_at = $1 AND id > $2))`, cmp)
		args = append(args, after.ModifiedAt, after.ID)
	}
	query += fmt.Sprintf(` ORDER BY modified_at %s, id ASC LIMIT $%d`, sort, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select page: %w", err)
	}
	defer rows.Close()

	return collect(c, rows)
}

func (r *PostgresRepository) NextVersion(ctx context.Context, c models.Collection) (int64, error) {
	query := `UPDATE collection_versions SET current = current + 1 WHERE collection = $1 RETURNING current`
	row := r.db.QueryRowContext(ctx, query, string(c))

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%q: %w", c, common.ErrUnknownCollection)
		}
		return 0, fmt.Errorf("failed to increment version: %w", err)
	}
	return version, nil
}

func collect(c models.Collection, rows *sql.Rows) ([]models.Document, error) {
	var result []models.Document
	for rows.Next() {
		var d models.Document
		var payload []byte
		if err := rows.Scan(&d.ID, &d.Owner, &payload, &d.ModifiedAt, &d.Version, &d.Deleted); err != nil {
			return nil, err
		}
		d.Collection = c
		d.Payload = payload
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
