package models

// DayGroup holds the entries written on one calendar day.
type DayGroup struct {
	Date    Date    `json:"date"`
	Entries []Entry `json:"entries"`
}

// Diaries is the grouped view of a diary: one group per day, in the order
// the days first appear in the underlying entry list.
type Diaries []DayGroup

// Lookup returns the entries for d, or nil.
func (ds Diaries) Lookup(d Date) []Entry {
	for _, g := range ds {
		if g.Date == d {
			return g.Entries
		}
	}
	return nil
}

// Flatten concatenates the groups back into one list.
func (ds Diaries) Flatten() []Entry {
	var out []Entry
	for _, g := range ds {
		out = append(out, g.Entries...)
	}
	return out
}

// Len is the total number of entries.
func (ds Diaries) Len() int {
	n := 0
	for _, g := range ds {
		n += len(g.Entries)
	}
	return n
}
