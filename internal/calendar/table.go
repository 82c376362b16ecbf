package calendar

import (
	"encoding/json"
	"fmt"
)

// Override is an explicit legal designation of a date
type Override struct {
	Name     string
	IsOffDay bool
}

// Entry is a dated override as it appears in a year table
type Entry struct {
	Date string
	Override
}

// YearTable maps ISO dates of one year to their overrides.
// Keys are unique; iteration follows the order in which a date was first seen.
type YearTable struct {
	Year   int
	Papers []string

	entries []Entry
	index   map[string]int
}

// yearDocument is the on-disk layout of {year}.json
type yearDocument struct {
	Year   int           `json:"year"`
	Papers []string      `json:"papers,omitempty"`
	Days   []dayDocument `json:"days"`
}

type dayDocument struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	IsOffDay bool   `json:"isOffDay"`
}

// NewYearTable creates an empty table for the year
func NewYearTable(year int) *YearTable {
	return &YearTable{
		Year:  year,
		index: make(map[string]int),
	}
}

// DecodeYear parses a year document into a table.
// A date listed more than once keeps the last record.
func DecodeYear(year int, data []byte) (*YearTable, error) {
	var doc yearDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse holiday data for %d: %w", year, err)
	}

	table := NewYearTable(year)
	table.Papers = doc.Papers

	for _, day := range doc.Days {
		if day.Date == "" {
			continue
		}
		table.set(day.Date, Override{Name: day.Name, IsOffDay: day.IsOffDay})
	}

	return table, nil
}

func (t *YearTable) set(date string, o Override) {
	if i, ok := t.index[date]; ok {
		t.entries[i].Override = o
		return
	}
	t.index[date] = len(t.entries)
	t.entries = append(t.entries, Entry{Date: date, Override: o})
}

// Lookup returns the override for an ISO date
func (t *YearTable) Lookup(date string) (Override, bool) {
	if t == nil {
		return Override{}, false
	}
	i, ok := t.index[date]
	if !ok {
		return Override{}, false
	}
	return t.entries[i].Override, true
}

// Entries returns a copy of the table's entries in table order
func (t *YearTable) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of dates in the table
func (t *YearTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
