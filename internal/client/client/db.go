package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/diary/internal/client/migrations"
	"github.com/dmitrijs2005/diary/internal/client/repositories/deletes"
	"github.com/dmitrijs2005/diary/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/diary/internal/client/repositories/uploads"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Uploads  uploads.Repository
	Deletes  deletes.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn and migrates it. Background
// image transfers write the ledgers concurrently, so the pool keeps a
// single connection.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Uploads:  uploads.NewSQLiteRepository(db),
		Deletes:  deletes.NewSQLiteRepository(db),
	}, nil
}
