// Package deletes is the ledger of remote image deletes that failed and
// wait for a retry. Rows are keyed by remote path.
package deletes

import (
	"context"

	"github.com/dmitrijs2005/diary/internal/models"
)

type Repository interface {
	// Add records d unless a row for d.RemotePath already exists.
	Add(ctx context.Context, d models.PendingDelete) error
	Remove(ctx context.Context, remotePath string) error
	// List returns rows oldest first.
	List(ctx context.Context) ([]models.PendingDelete, error)
}
