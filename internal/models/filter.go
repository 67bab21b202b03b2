package models

import (
	"sort"
	"strings"
)

// SortDirection orders a timeline by event date.
type SortDirection string

// Sort directions, matching the backend's sort query parameter.
const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SearchFilter narrows a loaded record set by keyword and/or calendar day.
// The zero value matches everything.
type SearchFilter struct {
	// Keyword matches case-insensitively as a substring of title or content.
	Keyword string
	// Day, when non-empty, must equal the event date's calendar day
	// formatted as 2006-01-02.
	Day string
}

// IsZero reports whether the filter matches everything.
func (f SearchFilter) IsZero() bool {
	return f.Keyword == "" && f.Day == ""
}

// Match reports whether the record passes the filter. Pure: it never
// mutates the record.
func (f SearchFilter) Match(r MemoryRecord) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(r.Title), kw) &&
			!strings.Contains(strings.ToLower(r.Content), kw) {
			return false
		}
	}
	if f.Day != "" && r.EventDate.Format("2006-01-02") != f.Day {
		return false
	}
	return true
}

// Apply returns the records matching the filter, re-sorted by event date in
// the given direction. The input slice is left untouched.
func (f SearchFilter) Apply(records []MemoryRecord, dir SortDirection) []MemoryRecord {
	out := make([]MemoryRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	SortRecords(out, dir)
	return out
}

// SortRecords orders records in place by event date.
func SortRecords(records []MemoryRecord, dir SortDirection) {
	sort.SliceStable(records, func(i, j int) bool {
		if dir == SortAscending {
			return records[i].EventDate.Before(records[j].EventDate.Time)
		}
		return records[j].EventDate.Before(records[i].EventDate.Time)
	})
}
