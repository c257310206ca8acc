package gateway

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/dbx"
	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/dmitrijs2005/diary/internal/server/auth"
	"github.com/dmitrijs2005/diary/internal/server/changes"
	"github.com/dmitrijs2005/diary/internal/server/repositories/entries"
	"github.com/dmitrijs2005/diary/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory entries.Repository shared by every handle.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]models.Entry
	err  error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]models.Entry{}} }

func (r *memRepo) Insert(ctx context.Context, e *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows[e.ID] = e.Clone()
	return nil
}

func (r *memRepo) Update(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return nil, common.ErrNotFound
	}
	cur.Title, cur.Description, cur.Mood, cur.Images, cur.Date = e.Title, e.Description, e.Mood, e.Images, e.Date
	r.rows[e.ID] = cur.Clone()
	return &cur, nil
}

func (r *memRepo) Delete(ctx context.Context, id, owner string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.OwnerID != owner {
		return nil, common.ErrNotFound
	}
	delete(r.rows, id)
	return &cur, nil
}

func (r *memRepo) DeleteAllByOwner(ctx context.Context, owner string) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Entry{}
	for id, e := range r.rows {
		if e.OwnerID == owner {
			out = append(out, e)
			delete(r.rows, id)
		}
	}
	return out, nil
}

func (r *memRepo) GetByID(ctx context.Context, id, owner string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.OwnerID != owner {
		return nil, common.ErrNotFound
	}
	return &cur, nil
}

func (r *memRepo) ListByOwner(ctx context.Context, owner string) ([]models.Entry, error) {
	return r.ListByOwnerBetween(ctx, owner, time.Time{}, time.Time{})
}

func (r *memRepo) ListByOwnerBetween(ctx context.Context, owner string, from, to time.Time) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Entry{}
	for _, e := range r.rows {
		if e.OwnerID != owner {
			continue
		}
		if !from.IsZero() && !(e.Date.After(from) && e.Date.Before(to)) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memRM struct{ repo *memRepo }

func (m memRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memRM) Users(dbx.DBTX) users.Repository              { return nil }
func (m memRM) Entries(dbx.DBTX) entries.Repository          { return m.repo }

type countingRecorder struct {
	mu   sync.Mutex
	ops  map[string]int
	open int
}

func (c *countingRecorder) ObserveOperation(op, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[op+"/"+outcome]++
}
func (c *countingRecorder) SubscriptionOpened() { c.mu.Lock(); c.open++; c.mu.Unlock() }
func (c *countingRecorder) SubscriptionClosed() { c.mu.Lock(); c.open--; c.mu.Unlock() }

type fixture struct {
	gw   *Gateway
	repo *memRepo
	mock sqlmock.Sqlmock
	rec  *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { _ = db.Close() })

	repo := newMemRepo()
	rec := &countingRecorder{ops: map[string]int{}}
	gw := New(db, memRM{repo: repo}, changes.NewHub(), auth.ContextProvider{}, rec, logging.Nop())

	seq := 0
	gw.newID = func() string { seq++; return "id-" + string(rune('0'+seq)) }
	gw.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{gw: gw, repo: repo, mock: mock, rec: rec}
}

// tx expects one committed transaction.
func (f *fixture) tx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func as(owner string) context.Context {
	return auth.WithUserID(context.Background(), owner)
}

func next[T any](t *testing.T, ch <-chan models.Result[T]) models.Result[T] {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "stream closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream value")
	}
	return models.Result[T]{}
}

func TestScenario_InsertUpdateCrossOwnerDelete(t *testing.T) {
	f := newFixture(t)

	f.tx()
	inserted, err := f.gw.Insert(as("u1"), models.Entry{Title: "Day 1", Mood: models.MoodHappy, Images: []string{}})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.Equal(t, "u1", inserted.OwnerID)

	f.tx()
	edited := inserted.Clone()
	edited.Title = "Day 1 edited"
	updated, err := f.gw.Update(as("u1"), edited)
	require.NoError(t, err)
	assert.Equal(t, "Day 1 edited", updated.Title)
	assert.Equal(t, "u1", updated.OwnerID)
	assert.Equal(t, inserted.ID, updated.ID)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.gw.Delete(as("u2"), inserted.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	f.tx()
	deleted, err := f.gw.Delete(as("u1"), inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, deleted)

	require.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, 1, f.rec.ops["delete/not_found"])
}

func TestInsert_ThenGetByIDMatches(t *testing.T) {
	f := newFixture(t)
	f.tx()

	in := models.Entry{Title: "T", Description: "D", Mood: models.MoodCalm, Images: []string{"images/u1/a.jpg"}}
	stored, err := f.gw.Insert(as("u1"), in)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(as("u1"))
	defer cancel()

	r := next(t, f.gw.GetByID(ctx, stored.ID))
	require.True(t, r.IsSuccess(), "got %v", r.Err)
	assert.Equal(t, in.Title, r.Data.Title)
	assert.Equal(t, in.Description, r.Data.Description)
	assert.Equal(t, in.Mood, r.Data.Mood)
	assert.Equal(t, in.Images, r.Data.Images)
}

func TestWrites_KeepTextAsGiven(t *testing.T) {
	f := newFixture(t)
	f.tx()

	in := models.Entry{Title: "  Day 1 ", Description: "\n sunny \n", Mood: models.MoodHappy}
	stored, err := f.gw.Insert(as("u1"), in)
	require.NoError(t, err)
	assert.Equal(t, in.Title, stored.Title)

	ctx, cancel := context.WithCancel(as("u1"))
	defer cancel()
	r := next(t, f.gw.GetByID(ctx, stored.ID))
	require.True(t, r.IsSuccess(), "got %v", r.Err)
	assert.Equal(t, in.Title, r.Data.Title)
	assert.Equal(t, in.Description, r.Data.Description)

	f.tx()
	stored.Title = "Day 1 edited\t"
	updated, err := f.gw.Update(as("u1"), stored)
	require.NoError(t, err)
	assert.Equal(t, "Day 1 edited\t", updated.Title)

	r = next(t, f.gw.GetByID(ctx, stored.ID))
	require.True(t, r.IsSuccess(), "got %v", r.Err)
	assert.Equal(t, "Day 1 edited\t", r.Data.Title)
}

func TestInsert_Defaults(t *testing.T) {
	f := newFixture(t)
	f.tx()

	e, err := f.gw.Insert(as("u1"), models.Entry{Title: "x", OwnerID: "spoofed"})
	require.NoError(t, err)
	assert.Equal(t, "u1", e.OwnerID)
	assert.Equal(t, "x", e.Title)
	assert.Equal(t, models.MoodNeutral, e.Mood)
	assert.Equal(t, f.gw.now(), e.Date)
	assert.Equal(t, []string{}, e.Images)
}

func TestInsert_InvalidMood(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.Insert(as("u1"), models.Entry{Mood: "Ecstatic"})
	assert.ErrorIs(t, err, common.ErrInvalidMood)
}

func TestWrites_RequireSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.Insert(ctx, models.Entry{})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	_, err = f.gw.Update(ctx, models.Entry{ID: "x"})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	_, err = f.gw.Delete(ctx, "x")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	_, err = f.gw.DeleteAll(ctx)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestStreams_RequireSession(t *testing.T) {
	f := newFixture(t)

	ch := f.gw.ListAll(context.Background(), time.UTC)
	r := next(t, ch)
	assert.True(t, r.IsError())
	assert.ErrorIs(t, r.Err, common.ErrNotAuthenticated)
	_, open := <-ch
	assert.False(t, open)

	r2 := next(t, f.gw.GetByID(context.Background(), "x"))
	assert.ErrorIs(t, r2.Err, common.ErrNotAuthenticated)
}

func TestUpdate_MissingEntry(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.gw.Update(as("u1"), models.Entry{ID: "nope", Date: f.gw.now()})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteAll_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.tx()
	_, err := f.gw.Insert(as("u1"), models.Entry{Title: "a"})
	require.NoError(t, err)

	f.tx()
	first, err := f.gw.DeleteAll(as("u1"))
	require.NoError(t, err)
	assert.Len(t, first, 1)

	f.tx()
	second, err := f.gw.DeleteAll(as("u1"))
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestListAll_ReemitsOnChange(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(as("u1"))

	ch := f.gw.ListAll(ctx, time.UTC)
	r := next(t, ch)
	require.True(t, r.IsSuccess())
	assert.Equal(t, 0, r.Data.Len())

	f.tx()
	_, err := f.gw.Insert(as("u1"), models.Entry{Title: "a"})
	require.NoError(t, err)

	r = next(t, ch)
	require.True(t, r.IsSuccess())
	assert.Equal(t, 1, r.Data.Len())

	cancel()
	for range ch {
	}
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	assert.Equal(t, 0, f.rec.open)
}

func TestListAll_OtherOwnerChangesDoNotLeak(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(as("u1"))
	defer cancel()

	ch := f.gw.ListAll(ctx, time.UTC)
	next(t, ch)

	f.tx()
	_, err := f.gw.Insert(as("u2"), models.Entry{Title: "b"})
	require.NoError(t, err)

	select {
	case r := <-ch:
		t.Fatalf("unexpected emission %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListFiltered_OpenInterval(t *testing.T) {
	f := newFixture(t)
	center := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	dates := []time.Time{
		center.Add(-FilterWindow),
		center.Add(-FilterWindow + time.Second),
		center,
		center.Add(FilterWindow - time.Second),
		center.Add(FilterWindow),
	}
	for _, d := range dates {
		f.tx()
		_, err := f.gw.Insert(as("u1"), models.Entry{Title: d.String(), Date: d})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(as("u1"))
	defer cancel()

	r := next(t, f.gw.ListFiltered(ctx, center, time.UTC))
	require.True(t, r.IsSuccess())

	flat := r.Data.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, dates[3], flat[0].Date)
	assert.Equal(t, dates[2], flat[1].Date)
	assert.Equal(t, dates[1], flat[2].Date)
}

func TestGetByID_MissingEmitsNotFoundAndKeepsWatching(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(as("u1"))
	defer cancel()

	ch := f.gw.GetByID(ctx, "id-1")
	r := next(t, ch)
	assert.ErrorIs(t, r.Err, common.ErrNotFound)

	f.tx()
	_, err := f.gw.Insert(as("u1"), models.Entry{Title: "late"})
	require.NoError(t, err)

	r = next(t, ch)
	require.True(t, r.IsSuccess())
	assert.Equal(t, "late", r.Data.Title)
}

func TestOffer_KeepsLatestOnly(t *testing.T) {
	ch := make(chan models.Result[int], 1)
	offer(ch, models.Success(1))
	offer(ch, models.Success(2))
	offer(ch, models.Success(3))

	assert.Equal(t, 3, (<-ch).Data)
	select {
	case v := <-ch:
		t.Fatalf("unexpected buffered value %v", v)
	default:
	}
}
