// Package models defines the diary domain types shared by the server, the
// transport and the CLI.
package models

import (
	"slices"
	"time"
)

// Entry is a single diary record.
type Entry struct {
	// ID is assigned by the store on insert and never changes.
	ID string `json:"id"`

	// OwnerID is taken from the session on insert and never changes.
	OwnerID string `json:"owner_id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Mood        Mood   `json:"mood"`

	// Images are remote image paths in display order.
	Images []string `json:"images"`

	// Date drives both the sort order and the day bucket of the entry.
	Date time.Time `json:"date"`
}

// Clone returns a copy that shares no memory with e.
func (e Entry) Clone() Entry {
	e.Images = slices.Clone(e.Images)
	return e
}
