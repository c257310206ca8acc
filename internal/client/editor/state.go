package editor

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
)

// Mode is the phase of an edit session.
type Mode int

const (
	// ModeNew edits an entry that has not been stored yet.
	ModeNew Mode = iota
	// ModeEditing edits the stored entry State.ID.
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "new"
}

// State is a snapshot of an edit session. Subscribers receive copies; a
// State never shares memory with the session that produced it.
type State struct {
	Mode Mode
	ID   string

	Title       string
	Description string
	Mood        models.Mood

	// Date is the entry timestamp that Save will write: the override when
	// one was set, otherwise the stored date (editing) or the time the
	// session was opened (new).
	Date time.Time
	// DateOverridden reports whether SetDate was called.
	DateOverridden bool

	// Images is the working image list in display order. Removed remote
	// images stay in the list with PendingDelete set until the next save.
	Images []models.Image
	// Unfetched holds stored images whose download has not arrived, or
	// failed. Save keeps their remote paths in place.
	Unfetched []models.Image

	// FetchingImages is set while stored images are still being downloaded.
	FetchingImages bool
	Saving         bool
	// Deleted is set once Delete succeeded.
	Deleted bool

	// Err is the message of the last failed operation, cleared by the next
	// successful one.
	Err string
}

func (s State) clone() State {
	s.Images = slices.Clone(s.Images)
	s.Unfetched = slices.Clone(s.Unfetched)
	return s
}

// RemotePaths lists the images Save will store, in order. Unfetched
// images keep their stored position.
func (s State) RemotePaths() []string {
	all := slices.Clone(s.Images)
	for _, img := range s.Unfetched {
		all = insertByIndex(all, img)
	}

	out := make([]string, 0, len(all))
	for _, img := range all {
		if img.PendingDelete || img.RemotePath == "" {
			continue
		}
		out = append(out, img.RemotePath)
	}
	return out
}
