package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/dbx"
	"github.com/dmitrijs2005/diary/internal/models"
)

const entryColumns = `id, owner_id, title, description, mood, images, date`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		e      models.Entry
		mood   string
		images []byte
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &mood, &images, &e.Date); err != nil {
		return nil, err
	}
	e.Mood = models.Mood(mood)
	if len(images) > 0 {
		if err := json.Unmarshal(images, &e.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if e.Images == nil {
		e.Images = []string{}
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.Entry) error {
	images, err := encodeImages(e.Images)
	if err != nil {
		return err
	}

	query := `INSERT INTO entries (id, owner_id, title, description, mood, images, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query, e.ID, e.OwnerID, e.Title, e.Description, string(e.Mood), images, e.Date.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	images, err := encodeImages(e.Images)
	if err != nil {
		return nil, err
	}

	query := `UPDATE entries SET title = $1, description = $2, mood = $3, images = $4, date = $5
		WHERE id = $6 AND owner_id = $7
		RETURNING ` + entryColumns

	row := r.db.QueryRowContext(ctx, query, e.Title, e.Description, string(e.Mood), images, e.Date.UTC(), e.ID, e.OwnerID)
	updated, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := `DELETE FROM entries WHERE id = $1 AND owner_id = $2 RETURNING ` + entryColumns

	deleted, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deleted, nil
}

func (r *PostgresRepository) DeleteAllByOwner(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := `DELETE FROM entries WHERE owner_id = $1 RETURNING ` + entryColumns
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND owner_id = $2`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE owner_id = $1 ORDER BY date DESC, id`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListByOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = $1 AND date > $2 AND date < $3
		ORDER BY date DESC, id`
	return r.list(ctx, query, ownerID, from.UTC(), to.UTC())
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
