package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/dbx"
	"github.com/dmitrijs2005/diary/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, u models.PendingUpload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO image_to_upload (remote_path, local_path, session_token, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(remote_path) DO NOTHING
	`, u.RemotePath, u.LocalPath, u.SessionToken, u.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to add pending upload %s: %w", u.RemotePath, err)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, remotePath string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM image_to_upload WHERE remote_path = ?`, remotePath)
	if err != nil {
		return fmt.Errorf("failed to remove pending upload %s: %w", remotePath, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, remotePath string) (*models.PendingUpload, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT remote_path, local_path, session_token, created_at
		FROM image_to_upload WHERE remote_path = ?`, remotePath)

	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending upload %s: %w", remotePath, err)
	}
	return u, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingUpload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT remote_path, local_path, session_token, created_at
		FROM image_to_upload ORDER BY created_at, remote_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending uploads: %w", err)
	}
	defer rows.Close()

	var result []models.PendingUpload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending upload: %w", err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending uploads: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*models.PendingUpload, error) {
	var (
		u       models.PendingUpload
		created int64
	)
	if err := s.Scan(&u.RemotePath, &u.LocalPath, &u.SessionToken, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = time.UnixMilli(created)
	return &u, nil
}
