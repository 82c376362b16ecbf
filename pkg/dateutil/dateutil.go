package dateutil

import (
	"fmt"
	"time"
)

// ISODate is the layout of calendar dates on the wire and in holiday data files
const ISODate = "2006-01-02"

// Season of the year, northern hemisphere meteorological seasons
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Today returns today's date (start of day) in the given location
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return StartOfDay(time.Now().In(loc))
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// WeekdayIndex returns the weekday number with Monday = 0 and Sunday = 6
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// DayOfYear returns the 1-based day of the year (Jan 1 = 1)
func DayOfYear(date time.Time) int {
	return date.YearDay()
}

// ISOWeek returns the ISO 8601 week number for the given date
func ISOWeek(date time.Time) int {
	_, week := date.ISOWeek()
	return week
}

// Quarter returns the quarter (1-4) the month belongs to
func Quarter(month time.Month) int {
	return (int(month)-1)/3 + 1
}

// SeasonOf returns the season for the month.
// Mar-May spring, Jun-Aug summer, Sep-Nov autumn, Dec-Feb winter.
func SeasonOf(month time.Month) Season {
	switch month {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}

// FormatISODate formats date as YYYY-MM-DD
func FormatISODate(date time.Time) string {
	return date.Format(ISODate)
}

// ParseISODate parses a strict YYYY-MM-DD date at midnight in loc
func ParseISODate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(ISODate, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// ParseDate parses date string in various formats
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	formats := []string{
		ISODate,
		"02.01.2006",
		"2006/01/02",
		"20060102",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, loc); err == nil {
			return StartOfDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}
