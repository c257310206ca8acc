// Package projection turns flat entry lists into the per-day view the
// diary is displayed with.
package projection

import (
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
)

// GroupByDate buckets entries by the calendar day of their Date in loc.
// Entries keep their input order inside a bucket and buckets are ordered by
// first appearance, so a newest-first input yields newest-first days.
// A nil loc means time.Local.
func GroupByDate(entries []models.Entry, loc *time.Location) models.Diaries {
	if loc == nil {
		loc = time.Local
	}

	out := models.Diaries{}
	index := make(map[models.Date]int)

	for _, e := range entries {
		d := models.DateOf(e.Date, loc)
		i, ok := index[d]
		if !ok {
			i = len(out)
			index[d] = i
			out = append(out, models.DayGroup{Date: d})
		}
		out[i].Entries = append(out[i].Entries, e)
	}

	return out
}
