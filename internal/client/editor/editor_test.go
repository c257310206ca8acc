package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	opened = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	stored = time.Date(2024, 4, 20, 18, 30, 0, 0, time.UTC)
)

type fakeGateway struct {
	mu        sync.Mutex
	entries   map[string]models.Entry
	inserted  []models.Entry
	updated   []models.Entry
	failWrite error
	seq       int
}

func newFakeGateway(entries ...models.Entry) *fakeGateway {
	g := &fakeGateway{entries: map[string]models.Entry{}}
	for _, e := range entries {
		g.entries[e.ID] = e
	}
	return g
}

func (g *fakeGateway) Insert(ctx context.Context, e models.Entry) (models.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWrite != nil {
		return models.Entry{}, g.failWrite
	}
	g.seq++
	e.ID = fmt.Sprintf("id-%d", g.seq)
	e.OwnerID = "u1"
	g.entries[e.ID] = e
	g.inserted = append(g.inserted, e)
	return e, nil
}

func (g *fakeGateway) Update(ctx context.Context, e models.Entry) (models.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWrite != nil {
		return models.Entry{}, g.failWrite
	}
	if _, ok := g.entries[e.ID]; !ok {
		return models.Entry{}, common.ErrNotFound
	}
	g.entries[e.ID] = e
	g.updated = append(g.updated, e)
	return e, nil
}

func (g *fakeGateway) Delete(ctx context.Context, id string) (models.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWrite != nil {
		return models.Entry{}, g.failWrite
	}
	e, ok := g.entries[id]
	if !ok {
		return models.Entry{}, common.ErrNotFound
	}
	delete(g.entries, id)
	return e, nil
}

func (g *fakeGateway) GetByID(ctx context.Context, id string) <-chan models.Result[models.Entry] {
	ch := make(chan models.Result[models.Entry], 2)
	g.mu.Lock()
	e, ok := g.entries[id]
	g.mu.Unlock()
	ch <- models.Loading[models.Entry]()
	if ok {
		ch <- models.Success(e)
	} else {
		ch <- models.Failure[models.Entry](common.ErrNotFound)
	}
	close(ch)
	return ch
}

type fakeImages struct {
	mu       sync.Mutex
	uploads  [][]models.Image
	deletes  [][]string
	order    []int // arrival order of fetched indexes
	fetchErr error
	release  chan struct{}
}

func (f *fakeImages) RemotePath(ctx context.Context, localPath, mimeHint string) (string, error) {
	return "images/u1/" + localPath, nil
}

func (f *fakeImages) CommitUploads(ctx context.Context, images []models.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, images)
}

func (f *fakeImages) CommitDeletes(ctx context.Context, paths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, paths)
}

func (f *fakeImages) Fetch(ctx context.Context, paths []string, fn func(models.Image)) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, i := range f.order {
		fn(models.Image{LocalPath: "/cache/" + paths[i], RemotePath: paths[i], Index: i})
	}
	return f.fetchErr
}

func (f *fakeImages) committedUploads() [][]models.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

func (f *fakeImages) committedDeletes() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

func deps(g *fakeGateway, im *fakeImages) Deps {
	return Deps{Gateway: g, Images: im, Now: func() time.Time { return opened }}
}

func storedEntry() models.Entry {
	return models.Entry{
		ID:      "e1",
		OwnerID: "u1",
		Title:   "Day 1",
		Mood:    models.MoodHappy,
		Images:  []string{"images/u1/a.jpg", "images/u1/b.jpg", "images/u1/c.jpg"},
		Date:    stored,
	}
}

func waitImages(t *testing.T, ed *Editor) State {
	t.Helper()
	require.Eventually(t, func() bool { return !ed.State().FetchingImages }, time.Second, time.Millisecond)
	return ed.State()
}

func TestOpen_New(t *testing.T) {
	ed, err := Open(context.Background(), deps(newFakeGateway(), &fakeImages{}), "")
	require.NoError(t, err)
	defer ed.Close()

	s := ed.State()
	assert.Equal(t, ModeNew, s.Mode)
	assert.Empty(t, s.ID)
	assert.Equal(t, models.MoodNeutral, s.Mood)
	assert.Equal(t, opened, s.Date)
}

func TestOpen_EditingLoadsEntryAndKeepsImageOrder(t *testing.T) {
	im := &fakeImages{order: []int{2, 0, 1}}
	ed, err := Open(context.Background(), deps(newFakeGateway(storedEntry()), im), "e1")
	require.NoError(t, err)
	defer ed.Close()

	s := waitImages(t, ed)
	assert.Equal(t, ModeEditing, s.Mode)
	assert.Equal(t, "e1", s.ID)
	assert.Equal(t, "Day 1", s.Title)
	assert.Equal(t, stored, s.Date)
	assert.Equal(t, []string{"images/u1/a.jpg", "images/u1/b.jpg", "images/u1/c.jpg"}, s.RemotePaths())
	assert.Empty(t, s.Err)
}

func TestOpen_FetchFailureKeepsStoredImages(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{
		order:    []int{2, 0},
		fetchErr: fmt.Errorf("fetch images/u1/b.jpg: %w", common.ErrNotFound),
	}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()

	s := waitImages(t, ed)
	assert.Contains(t, s.Err, "images/u1/b.jpg")
	require.Len(t, s.Images, 2)
	require.Len(t, s.Unfetched, 1)
	assert.Equal(t, "images/u1/b.jpg", s.Unfetched[0].RemotePath)
	assert.Equal(t, storedEntry().Images, s.RemotePaths())

	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storedEntry().Images, g.updated[0].Images)

	require.NoError(t, ed.RemoveImage("images/u1/b.jpg"))
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"images/u1/a.jpg", "images/u1/c.jpg"}, g.updated[1].Images)
	assert.Equal(t, []string{"images/u1/b.jpg"}, im.committedDeletes()[1])
	assert.Empty(t, ed.State().Unfetched)
}

func TestSave_WhileFetchingKeepsStoredImages(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{order: []int{0, 1, 2}, release: make(chan struct{})}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()

	require.True(t, ed.State().FetchingImages)
	require.NoError(t, ed.SetTitle("Day 1 edited"))
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storedEntry().Images, g.updated[0].Images)

	close(im.release)
	s := waitImages(t, ed)
	assert.Empty(t, s.Unfetched)
	assert.Len(t, s.Images, 3)
	assert.Equal(t, storedEntry().Images, s.RemotePaths())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(context.Background(), deps(newFakeGateway(), &fakeImages{}), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInsertByIndex_NewImagesStayLast(t *testing.T) {
	imgs := []models.Image{{RemotePath: "b", Index: 1}, {RemotePath: "new", Index: -1}}
	imgs = insertByIndex(imgs, models.Image{RemotePath: "c", Index: 2})
	imgs = insertByIndex(imgs, models.Image{RemotePath: "a", Index: 0})

	var got []string
	for _, img := range imgs {
		got = append(got, img.RemotePath)
	}
	assert.Equal(t, []string{"a", "b", "c", "new"}, got)
}

func TestSave_NewInsertsAndUploads(t *testing.T) {
	g := newFakeGateway()
	im := &fakeImages{}
	ed, err := Open(context.Background(), deps(g, im), "")
	require.NoError(t, err)
	defer ed.Close()

	require.NoError(t, ed.SetTitle("Day 1"))
	require.NoError(t, ed.SetDescription("sunny"))
	require.NoError(t, ed.SetMood("happy"))
	_, err = ed.AttachImage(context.Background(), "beach.jpg", "image/jpeg")
	require.NoError(t, err)

	saved, err := ed.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "id-1", saved.ID)
	require.Len(t, g.inserted, 1)
	ins := g.inserted[0]
	assert.Equal(t, "Day 1", ins.Title)
	assert.Equal(t, "sunny", ins.Description)
	assert.Equal(t, models.MoodHappy, ins.Mood)
	assert.Equal(t, opened, ins.Date)
	assert.Equal(t, []string{"images/u1/beach.jpg"}, ins.Images)

	up := im.committedUploads()
	require.Len(t, up, 1)
	require.Len(t, up[0], 1)
	assert.Equal(t, "beach.jpg", up[0][0].LocalPath)
	assert.Empty(t, im.committedDeletes(), "insert never deletes")

	s := ed.State()
	assert.Equal(t, ModeEditing, s.Mode)
	assert.Equal(t, "id-1", s.ID)
	assert.False(t, s.Images[0].PendingUpload)

	// a second save updates the same entry and uploads nothing new
	require.NoError(t, ed.SetTitle("Day 1 edited"))
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Len(t, g.inserted, 1)
	require.Len(t, g.updated, 1)
	assert.Equal(t, "u1", g.updated[0].OwnerID)
	assert.Empty(t, im.committedUploads()[1])
}

func TestSave_DateOverride(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()
	waitImages(t, ed)

	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, g.updated[0].Date)

	override := time.Date(2024, 4, 21, 7, 0, 0, 0, time.UTC)
	require.NoError(t, ed.SetDate(override))
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, override, g.updated[1].Date)
	assert.True(t, ed.State().DateOverridden)
}

func TestSave_UpdateCommitsRemovedImages(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{order: []int{0, 1, 2}}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()
	waitImages(t, ed)

	require.NoError(t, ed.RemoveImage("images/u1/b.jpg"))
	_, err = ed.AttachImage(context.Background(), "new.png", "image/png")
	require.NoError(t, err)
	require.NoError(t, ed.RemoveImage("images/u1/new.png"))
	assert.ErrorIs(t, ed.RemoveImage("images/u1/zzz.jpg"), ErrNoImage)

	s := ed.State()
	require.Len(t, s.Images, 3)
	assert.True(t, s.Images[1].PendingDelete)

	_, err = ed.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"images/u1/a.jpg", "images/u1/c.jpg"}, g.updated[0].Images)
	assert.Equal(t, [][]string{{"images/u1/b.jpg"}}, im.committedDeletes())
	assert.Empty(t, im.committedUploads()[0])
	assert.Len(t, ed.State().Images, 2)
}

func TestSave_FailureKeepsSnapshot(t *testing.T) {
	g := newFakeGateway()
	g.failWrite = errors.New("network unavailable")
	im := &fakeImages{}
	ed, err := Open(context.Background(), deps(g, im), "")
	require.NoError(t, err)
	defer ed.Close()

	require.NoError(t, ed.SetTitle("draft"))
	_, err = ed.AttachImage(context.Background(), "x.jpg", "")
	require.NoError(t, err)

	_, err = ed.Save(context.Background())
	require.Error(t, err)

	s := ed.State()
	assert.Equal(t, "network unavailable", s.Err)
	assert.Equal(t, "draft", s.Title)
	assert.Equal(t, ModeNew, s.Mode)
	assert.True(t, s.Images[0].PendingUpload)
	assert.False(t, s.Saving)
	assert.Empty(t, im.committedUploads(), "no transfers after a failed write")

	g.failWrite = nil
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ed.State().Err)
}

func TestSetMood_Invalid(t *testing.T) {
	ed, err := Open(context.Background(), deps(newFakeGateway(), &fakeImages{}), "")
	require.NoError(t, err)
	defer ed.Close()

	assert.ErrorIs(t, ed.SetMood("Ecstatic"), common.ErrInvalidMood)
	assert.Equal(t, models.MoodNeutral, ed.State().Mood)
}

func TestDelete(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()

	deleted, err := ed.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "e1", deleted.ID)
	assert.Equal(t, [][]string{storedEntry().Images}, im.committedDeletes())
	assert.True(t, ed.State().Deleted)
	assert.Empty(t, g.entries)
}

func TestDelete_OnlyWhenEditing(t *testing.T) {
	ed, err := Open(context.Background(), deps(newFakeGateway(), &fakeImages{}), "")
	require.NoError(t, err)
	defer ed.Close()

	_, err = ed.Delete(context.Background())
	assert.ErrorIs(t, err, ErrNotSaved)
}

func TestDelete_FailureSurfacesMessage(t *testing.T) {
	g := newFakeGateway(storedEntry())
	im := &fakeImages{}
	ed, err := Open(context.Background(), deps(g, im), "e1")
	require.NoError(t, err)
	defer ed.Close()

	g.failWrite = common.ErrNotFound
	_, err = ed.Delete(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, common.ErrNotFound.Error(), ed.State().Err)
	assert.Empty(t, im.committedDeletes())
}

func TestSubscribe_PushesChanges(t *testing.T) {
	ed, err := Open(context.Background(), deps(newFakeGateway(), &fakeImages{}), "")
	require.NoError(t, err)

	ch, cancel := ed.Subscribe()
	first := <-ch
	assert.Empty(t, first.Title)

	require.NoError(t, ed.SetTitle("a"))
	require.NoError(t, ed.SetTitle("ab"))
	latest := <-ch
	assert.Equal(t, "ab", latest.Title, "only the latest state is kept")

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	ed.Close()
}

func TestClose_DiscardsState(t *testing.T) {
	im := &fakeImages{order: []int{0}, release: make(chan struct{})}
	ed, err := Open(context.Background(), deps(newFakeGateway(storedEntry()), im), "e1")
	require.NoError(t, err)
	ch, _ := ed.Subscribe()
	<-ch

	ed.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, State{}, ed.State())
	assert.ErrorIs(t, ed.SetTitle("x"), ErrClosed)
	_, err = ed.Save(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	ed.Close()
}
