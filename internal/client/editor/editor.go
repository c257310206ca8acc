// Package editor implements the edit session of a single diary entry: an
// in-memory snapshot that field edits mutate, explicit Save and Delete
// commands against the entry gateway, and the image transfers those
// commands trigger.
package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
)

var (
	ErrClosed   = errors.New("edit session closed")
	ErrNotSaved = errors.New("entry has not been saved yet")
	ErrNoImage  = errors.New("image is not attached")
)

// Gateway is the part of the entry store an edit session needs.
type Gateway interface {
	Insert(ctx context.Context, entry models.Entry) (models.Entry, error)
	Update(ctx context.Context, entry models.Entry) (models.Entry, error)
	Delete(ctx context.Context, id string) (models.Entry, error)
	GetByID(ctx context.Context, id string) <-chan models.Result[models.Entry]
}

// Images moves image bytes for the session.
type Images interface {
	RemotePath(ctx context.Context, localPath, mimeHint string) (string, error)
	CommitUploads(ctx context.Context, images []models.Image)
	CommitDeletes(ctx context.Context, remotePaths []string)
	Fetch(ctx context.Context, remotePaths []string, fn func(models.Image)) error
}

type Deps struct {
	Gateway Gateway
	Images  Images
	Logger  logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Editor holds one edit session. It is safe for concurrent use.
type Editor struct {
	gateway Gateway
	images  Images
	logger  logging.Logger

	mu       sync.Mutex
	state    State
	ownerID  string
	subs     map[chan State]struct{}
	closed   bool
	cancel   context.CancelFunc
	fetching sync.WaitGroup
}

// Open starts an edit session. An empty id opens a new entry. Otherwise the
// stored entry is loaded once and its images are fetched in the
// background; Open fails when the entry cannot be loaded.
func Open(ctx context.Context, deps Deps, id string) (*Editor, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e := &Editor{
		gateway: deps.Gateway,
		images:  deps.Images,
		logger:  logger.With("module", "editor"),
		subs:    make(map[chan State]struct{}),
		cancel:  cancel,
		state: State{
			Mode: ModeNew,
			Mood: models.MoodNeutral,
			Date: now(),
		},
	}

	if id == "" {
		return e, nil
	}

	entry, err := e.load(ctx, id)
	if err != nil {
		cancel()
		return nil, err
	}

	e.state = State{
		Mode:           ModeEditing,
		ID:             entry.ID,
		Title:          entry.Title,
		Description:    entry.Description,
		Mood:           entry.Mood,
		Date:           entry.Date,
		Unfetched:      make([]models.Image, 0, len(entry.Images)),
		FetchingImages: len(entry.Images) > 0,
	}
	for i, rp := range entry.Images {
		e.state.Unfetched = append(e.state.Unfetched, models.Image{RemotePath: rp, Index: i})
	}
	e.ownerID = entry.OwnerID

	if len(entry.Images) > 0 {
		e.fetching.Add(1)
		go e.fetch(bg, entry.Images)
	}

	return e, nil
}

// load takes the first settled value of the entry stream.
func (e *Editor) load(ctx context.Context, id string) (models.Entry, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for r := range e.gateway.GetByID(ctx, id) {
		switch {
		case r.IsSuccess():
			return r.Data, nil
		case r.IsError():
			return models.Entry{}, r.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return models.Entry{}, err
	}
	return models.Entry{}, fmt.Errorf("load %s: stream ended", id)
}

func (e *Editor) fetch(ctx context.Context, remotePaths []string) {
	defer e.fetching.Done()

	err := e.images.Fetch(ctx, remotePaths, func(img models.Image) {
		e.update(func(s *State) error {
			i := slices.IndexFunc(s.Unfetched, func(u models.Image) bool { return u.RemotePath == img.RemotePath })
			if i < 0 {
				// removed and saved while downloading
				return nil
			}
			img.PendingDelete = s.Unfetched[i].PendingDelete
			s.Unfetched = slices.Delete(s.Unfetched, i, i+1)
			s.Images = insertByIndex(s.Images, img)
			return nil
		})
	})

	e.update(func(s *State) error {
		s.FetchingImages = false
		if err != nil && ctx.Err() == nil {
			e.logger.Warn(ctx, "image fetch failed", "id", s.ID, "error", err)
			s.Err = err.Error()
		}
		return nil
	})
}

// insertByIndex places a fetched image among the other fetched images by
// its original position. Images attached in this session stay last.
func insertByIndex(images []models.Image, img models.Image) []models.Image {
	at := len(images)
	for i, cur := range images {
		if cur.Index < 0 || cur.Index > img.Index {
			at = i
			break
		}
	}
	images = append(images, models.Image{})
	copy(images[at+1:], images[at:])
	images[at] = img
	return images
}

// State returns the current snapshot.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe returns a channel that receives the current state and then
// every change. Only the latest unread state is kept. The channel is
// closed by cancel or Close.
func (e *Editor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	ch <- e.state.clone()

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
}

// update applies fn under the lock and publishes the result. An error from
// fn leaves the state untouched.
func (e *Editor) update(fn func(s *State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	next := e.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	e.state = next
	e.publish()
	return nil
}

// publish must be called with mu held.
func (e *Editor) publish() {
	for ch := range e.subs {
		s := e.state.clone()
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (e *Editor) SetTitle(title string) error {
	return e.update(func(s *State) error {
		s.Title = title
		return nil
	})
}

func (e *Editor) SetDescription(description string) error {
	return e.update(func(s *State) error {
		s.Description = description
		return nil
	})
}

// SetMood accepts any case of a mood name; empty means Neutral.
func (e *Editor) SetMood(name string) error {
	m, err := models.ParseMood(name)
	if err != nil {
		return err
	}
	return e.update(func(s *State) error {
		s.Mood = m
		return nil
	})
}

// SetDate overrides the entry timestamp.
func (e *Editor) SetDate(t time.Time) error {
	return e.update(func(s *State) error {
		s.Date = t
		s.DateOverridden = true
		return nil
	})
}

// AttachImage adds a local image to the working list under a freshly named
// remote path. It is uploaded by the next successful Save.
func (e *Editor) AttachImage(ctx context.Context, localPath, mimeHint string) (models.Image, error) {
	rp, err := e.images.RemotePath(ctx, localPath, mimeHint)
	if err != nil {
		return models.Image{}, err
	}

	img := models.Image{LocalPath: localPath, RemotePath: rp, PendingUpload: true, Index: -1}
	err = e.update(func(s *State) error {
		s.Images = append(s.Images, img)
		return nil
	})
	return img, err
}

// RemoveImage drops an image from the working list. An image attached in
// this session is forgotten; a stored one is marked for deletion on the
// next successful Save.
func (e *Editor) RemoveImage(remotePath string) error {
	return e.update(func(s *State) error {
		for i, img := range s.Images {
			if img.RemotePath != remotePath || img.PendingDelete {
				continue
			}
			if img.PendingUpload {
				s.Images = append(s.Images[:i], s.Images[i+1:]...)
			} else {
				s.Images[i].PendingDelete = true
			}
			return nil
		}
		for i, img := range s.Unfetched {
			if img.RemotePath == remotePath && !img.PendingDelete {
				s.Unfetched[i].PendingDelete = true
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNoImage, remotePath)
	})
}

// Save stores the snapshot: Update when editing, Insert when new. On
// success pending uploads start and, for an update, removed images are
// deleted; a new entry switches the session to editing it. On failure the
// snapshot stays as edited and the error message is kept in State.Err.
func (e *Editor) Save(ctx context.Context) (models.Entry, error) {
	var snap State
	var owner string
	if err := e.update(func(s *State) error {
		s.Saving = true
		snap = s.clone()
		owner = e.ownerID
		return nil
	}); err != nil {
		return models.Entry{}, err
	}

	entry := models.Entry{
		ID:          snap.ID,
		OwnerID:     owner,
		Title:       snap.Title,
		Description: snap.Description,
		Mood:        snap.Mood,
		Images:      snap.RemotePaths(),
		Date:        snap.Date,
	}

	var (
		saved models.Entry
		err   error
	)
	if snap.Mode == ModeEditing {
		saved, err = e.gateway.Update(ctx, entry)
	} else {
		entry.ID = ""
		saved, err = e.gateway.Insert(ctx, entry)
	}

	if err != nil {
		e.logger.Warn(ctx, "save failed", "mode", snap.Mode.String(), "id", snap.ID, "error", err)
		_ = e.update(func(s *State) error {
			s.Saving = false
			s.Err = err.Error()
			return nil
		})
		return models.Entry{}, err
	}

	var uploads []models.Image
	var removed []string
	for _, img := range slices.Concat(snap.Images, snap.Unfetched) {
		switch {
		case img.PendingDelete:
			removed = append(removed, img.RemotePath)
		case img.PendingUpload:
			uploads = append(uploads, img)
		}
	}

	e.images.CommitUploads(ctx, uploads)
	if snap.Mode == ModeEditing {
		e.images.CommitDeletes(ctx, removed)
	}

	_ = e.update(func(s *State) error {
		s.Saving = false
		s.Err = ""
		s.Mode = ModeEditing
		s.ID = saved.ID
		s.Images = committed(s.Images, snap.Images, snap.Unfetched)
		s.Unfetched = committed(s.Unfetched, snap.Images, snap.Unfetched)
		e.ownerID = saved.OwnerID
		return nil
	})

	return saved, nil
}

// committed clears the pending flags of images that were part of a save.
// Images attached or removed while the save was in flight keep theirs.
func committed(current []models.Image, saved ...[]models.Image) []models.Image {
	done := make(map[string]models.Image)
	for _, list := range saved {
		for _, img := range list {
			done[img.RemotePath] = img
		}
	}

	out := current[:0]
	for _, img := range current {
		prev, ok := done[img.RemotePath]
		switch {
		case ok && prev.PendingDelete && img.PendingDelete:
			continue
		case ok && prev.PendingUpload && img.PendingUpload:
			img.PendingUpload = false
		}
		out = append(out, img)
	}
	return out
}

// Delete removes the stored entry and deletes the images it referenced.
// It is only valid while editing a stored entry.
func (e *Editor) Delete(ctx context.Context) (models.Entry, error) {
	snap := e.State()
	if snap.Mode != ModeEditing {
		return models.Entry{}, ErrNotSaved
	}
	if e.isClosed() {
		return models.Entry{}, ErrClosed
	}

	deleted, err := e.gateway.Delete(ctx, snap.ID)
	if err != nil {
		e.logger.Warn(ctx, "delete failed", "id", snap.ID, "error", err)
		_ = e.update(func(s *State) error {
			s.Err = err.Error()
			return nil
		})
		return models.Entry{}, err
	}

	e.images.CommitDeletes(ctx, deleted.Images)

	_ = e.update(func(s *State) error {
		s.Deleted = true
		s.Err = ""
		return nil
	})
	return deleted, nil
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close discards the session without saving. Background image fetches are
// cancelled and subscriber channels closed. Transfers already started by
// Save or Delete continue.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancel()
	for ch := range e.subs {
		close(ch)
	}
	e.subs = nil
	e.state = State{}
	e.mu.Unlock()

	e.fetching.Wait()
}
