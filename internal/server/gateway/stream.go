package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/dmitrijs2005/diary/internal/projection"
)

// ListAll streams the caller's entries grouped by calendar date in loc.
func (g *Gateway) ListAll(ctx context.Context, loc *time.Location) <-chan models.Result[models.Diaries] {
	return watch(ctx, g, "list_all", func(ctx context.Context, owner string) (models.Diaries, error) {
		list, err := g.rm.Entries(g.db).ListByOwner(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		return projection.GroupByDate(list, loc), nil
	})
}

// ListFiltered streams the caller's entries dated strictly within
// FilterWindow of center, grouped like ListAll.
func (g *Gateway) ListFiltered(ctx context.Context, center time.Time, loc *time.Location) <-chan models.Result[models.Diaries] {
	from, to := center.Add(-FilterWindow), center.Add(FilterWindow)
	return watch(ctx, g, "list_filtered", func(ctx context.Context, owner string) (models.Diaries, error) {
		list, err := g.rm.Entries(g.db).ListByOwnerBetween(ctx, owner, from, to)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		return projection.GroupByDate(list, loc), nil
	})
}

// GetByID streams one entry of the caller. A missing entry emits
// ErrNotFound and the stream keeps watching, so a later change can still
// produce a value.
func (g *Gateway) GetByID(ctx context.Context, id string) <-chan models.Result[models.Entry] {
	return watch(ctx, g, "get_by_id", func(ctx context.Context, owner string) (models.Entry, error) {
		e, err := g.rm.Entries(g.db).GetByID(ctx, id, owner)
		if err != nil {
			return models.Entry{}, err
		}
		return *e, nil
	})
}

// watch runs query once up front and again after each change signal for
// the owner. The returned channel holds only the latest result; a slow
// reader skips intermediate values. It is closed when ctx ends.
func watch[T any](ctx context.Context, g *Gateway, op string, query func(ctx context.Context, owner string) (T, error)) <-chan models.Result[T] {
	out := make(chan models.Result[T], 1)

	owner, err := g.owner(ctx)
	if err != nil {
		g.observe(op, err)
		out <- models.Failure[T](err)
		close(out)
		return out
	}

	sub := g.hub.Subscribe(owner)
	g.rec.SubscriptionOpened()

	go func() {
		defer close(out)
		defer g.rec.SubscriptionClosed()
		defer sub.Close()

		for {
			v, err := query(ctx, owner)
			if ctx.Err() != nil {
				return
			}
			g.observe(op, err)
			if err != nil {
				if !isExpected(err) {
					g.logger.Error(ctx, "stream query failed", "op", op, "owner", owner, "error", err)
				}
				offer(out, models.Failure[T](err))
			} else {
				offer(out, models.Success(v))
			}

			select {
			case <-ctx.Done():
				return
			case <-sub.C:
			}
		}
	}()

	return out
}

func isExpected(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// offer replaces any unread value in ch with r. ch must have capacity 1
// and a single sender.
func offer[T any](ch chan models.Result[T], r models.Result[T]) {
	for {
		select {
		case ch <- r:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
