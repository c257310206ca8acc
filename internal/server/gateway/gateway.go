// Package gateway is the owner-scoped entry store: transactional writes and
// live read streams that re-emit after every change to the caller's entries.
package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/dbx"
	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/dmitrijs2005/diary/internal/server/changes"
	"github.com/dmitrijs2005/diary/internal/server/metrics"
	"github.com/dmitrijs2005/diary/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// FilterWindow is the half-width of the ListFiltered interval.
const FilterWindow = 24 * time.Hour

// SessionProvider reports the authenticated owner of a request.
type SessionProvider interface {
	UserID(ctx context.Context) (string, bool)
}

// Recorder receives operation outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveOperation(op, outcome string)
	SubscriptionOpened()
	SubscriptionClosed()
}

type Gateway struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	hub     *changes.Hub
	session SessionProvider
	rec     Recorder
	logger  logging.Logger

	now   func() time.Time
	newID func() string
}

func New(db *sql.DB, rm repomanager.RepositoryManager, hub *changes.Hub, session SessionProvider, rec Recorder, logger logging.Logger) *Gateway {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Gateway{
		db:      db,
		rm:      rm,
		hub:     hub,
		session: session,
		rec:     rec,
		logger:  logger.With("module", "gateway"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (g *Gateway) owner(ctx context.Context) (string, error) {
	id, ok := g.session.UserID(ctx)
	if !ok {
		return "", common.ErrNotAuthenticated
	}
	return id, nil
}

func (g *Gateway) observe(op string, err error) {
	g.rec.ObserveOperation(op, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, common.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, common.ErrNotAuthenticated):
		return metrics.OutcomeNotAuthenticated
	default:
		return metrics.OutcomeError
	}
}

func normalize(e *models.Entry, now time.Time) error {
	mood, err := models.ParseMood(string(e.Mood))
	if err != nil {
		return err
	}
	e.Mood = mood
	if e.Date.IsZero() {
		e.Date = now
	}
	e.Date = e.Date.UTC()
	if e.Images == nil {
		e.Images = []string{}
	}
	return nil
}

// Insert stores a new entry for the caller. The id is assigned here and
// any OwnerID on the argument is replaced by the session owner.
func (g *Gateway) Insert(ctx context.Context, entry models.Entry) (out models.Entry, err error) {
	defer func() { g.observe("insert", err) }()

	owner, err := g.owner(ctx)
	if err != nil {
		return models.Entry{}, err
	}

	e := entry.Clone()
	if err := normalize(&e, g.now()); err != nil {
		return models.Entry{}, err
	}
	e.ID = g.newID()
	e.OwnerID = owner

	err = dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return g.rm.Entries(tx).Insert(ctx, &e)
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("insert entry: %w", err)
	}

	g.hub.Publish(owner)
	g.logger.Debug(ctx, "entry inserted", "id", e.ID, "owner", owner)
	return e, nil
}

// Update overwrites title, description, mood, images and date of the
// caller's entry with entry.ID. Id and owner are never changed.
func (g *Gateway) Update(ctx context.Context, entry models.Entry) (out models.Entry, err error) {
	defer func() { g.observe("update", err) }()

	owner, err := g.owner(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	if entry.ID == "" {
		return models.Entry{}, common.ErrNotFound
	}

	e := entry.Clone()
	if e.Date.IsZero() {
		return models.Entry{}, fmt.Errorf("%w: date is required", common.ErrInvalidArgument)
	}
	if err := normalize(&e, g.now()); err != nil {
		return models.Entry{}, err
	}
	e.OwnerID = owner

	updated, err := dbx.InTx(ctx, g.db, func(ctx context.Context, tx dbx.DBTX) (*models.Entry, error) {
		return g.rm.Entries(tx).Update(ctx, &e)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Entry{}, common.ErrNotFound
		}
		return models.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	g.hub.Publish(owner)
	return *updated, nil
}

// Delete removes the caller's entry and returns its last snapshot. Entries
// owned by someone else report ErrNotFound.
func (g *Gateway) Delete(ctx context.Context, id string) (out models.Entry, err error) {
	defer func() { g.observe("delete", err) }()

	owner, err := g.owner(ctx)
	if err != nil {
		return models.Entry{}, err
	}

	deleted, err := dbx.InTx(ctx, g.db, func(ctx context.Context, tx dbx.DBTX) (*models.Entry, error) {
		return g.rm.Entries(tx).Delete(ctx, id, owner)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Entry{}, common.ErrNotFound
		}
		return models.Entry{}, fmt.Errorf("delete entry: %w", err)
	}

	g.hub.Publish(owner)
	return *deleted, nil
}

// DeleteAll removes every entry of the caller and returns them. Deleting
// nothing is not an error.
func (g *Gateway) DeleteAll(ctx context.Context) (out []models.Entry, err error) {
	defer func() { g.observe("delete_all", err) }()

	owner, err := g.owner(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := dbx.InTx(ctx, g.db, func(ctx context.Context, tx dbx.DBTX) ([]models.Entry, error) {
		return g.rm.Entries(tx).DeleteAllByOwner(ctx, owner)
	})
	if err != nil {
		return nil, fmt.Errorf("delete all entries: %w", err)
	}

	if len(deleted) > 0 {
		g.hub.Publish(owner)
	}
	return deleted, nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string) {}
func (nopRecorder) SubscriptionOpened()             {}
func (nopRecorder) SubscriptionClosed()             {}
