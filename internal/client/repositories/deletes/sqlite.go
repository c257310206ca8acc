package deletes

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/dbx"
	"github.com/dmitrijs2005/diary/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, d models.PendingDelete) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO image_to_delete (remote_path, created_at) VALUES (?, ?)
		ON CONFLICT(remote_path) DO NOTHING
	`, d.RemotePath, d.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to add pending delete %s: %w", d.RemotePath, err)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, remotePath string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM image_to_delete WHERE remote_path = ?`, remotePath)
	if err != nil {
		return fmt.Errorf("failed to remove pending delete %s: %w", remotePath, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingDelete, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT remote_path, created_at FROM image_to_delete ORDER BY created_at, remote_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletes: %w", err)
	}
	defer rows.Close()

	var result []models.PendingDelete
	for rows.Next() {
		var (
			d       models.PendingDelete
			created int64
		)
		if err := rows.Scan(&d.RemotePath, &created); err != nil {
			return nil, fmt.Errorf("failed to scan pending delete: %w", err)
		}
		d.CreatedAt = time.UnixMilli(created)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending deletes: %w", err)
	}
	return result, nil
}
