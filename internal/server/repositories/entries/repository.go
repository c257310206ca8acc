package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
)

// Repository persists diary entries. Every lookup is scoped by owner so a
// record owned by someone else is indistinguishable from a missing one.
type Repository interface {
	Insert(ctx context.Context, entry *models.Entry) error
	// Update overwrites title, description, mood, images and date of the
	// entry matching entry.ID and entry.OwnerID and returns the stored row.
	Update(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	Delete(ctx context.Context, id, ownerID string) (*models.Entry, error)
	DeleteAllByOwner(ctx context.Context, ownerID string) ([]models.Entry, error)
	GetByID(ctx context.Context, id, ownerID string) (*models.Entry, error)
	// ListByOwner returns entries newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Entry, error)
	// ListByOwnerBetween returns entries with from < date < to, newest first.
	ListByOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Entry, error)
}
