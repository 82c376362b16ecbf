package calendar

import (
	"errors"

	"github.com/username/holiday-api/pkg/dateutil"
)

var (
	// ErrYearNotFound is returned by a Source that holds no data for a year
	ErrYearNotFound = errors.New("holiday data not found for year")

	// ErrListingUnsupported is returned by a Source that cannot enumerate its years
	ErrListingUnsupported = errors.New("source cannot list available years")
)

// Source identifies which rule produced a resolution
type Source string

const (
	SourceOfficial Source = "official"
	SourceWeekend  Source = "weekend"
)

// DayType classifies a resolved day
type DayType string

const (
	DayTypeHoliday DayType = "holiday"
	DayTypeWorkday DayType = "workday"
	DayTypeWeekend DayType = "weekend"
)

// WeekdayInfo describes the day of week, Monday = 0
type WeekdayInfo struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
}

// ResolvedDay is the full classification of a calendar date.
// Exactly one of IsHoliday and IsWorkday is true.
type ResolvedDay struct {
	Date        string          `json:"date"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Day         int             `json:"day"`
	Weekday     WeekdayInfo     `json:"weekday"`
	IsHoliday   bool            `json:"isHoliday"`
	IsWorkday   bool            `json:"isWorkday"`
	HolidayName string          `json:"holidayName,omitempty"`
	HolidayType DayType         `json:"holidayType"`
	Source      Source          `json:"source"`
	DayOfYear   int             `json:"dayOfYear"`
	ISOWeek     int             `json:"isoWeek"`
	Season      dateutil.Season `json:"season"`
	Quarter     int             `json:"quarter"`
}

// YearSource provides raw per-year reference documents
type YearSource interface {
	// ReadYear returns the raw document for the year, or an error wrapping
	// ErrYearNotFound when the source has no data for it
	ReadYear(year int) ([]byte, error)

	// ListYears returns the years the source holds data for
	ListYears() ([]int, error)

	// Name identifies the source in logs
	Name() string
}
