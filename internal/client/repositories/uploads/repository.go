// Package uploads is the ledger of image uploads that started but were not
// confirmed complete. Rows are keyed by remote path.
package uploads

import (
	"context"

	"github.com/dmitrijs2005/diary/internal/models"
)

type Repository interface {
	// Add records u unless a row for u.RemotePath already exists.
	Add(ctx context.Context, u models.PendingUpload) error
	Remove(ctx context.Context, remotePath string) error
	// Get returns common.ErrNotFound when no row exists.
	Get(ctx context.Context, remotePath string) (*models.PendingUpload, error)
	// List returns rows oldest first.
	List(ctx context.Context) ([]models.PendingUpload, error)
}
