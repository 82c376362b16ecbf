package calendar

import (
	"time"

	"github.com/username/holiday-api/pkg/dateutil"
)

// WeekendName is the holiday name reported by the weekend fallback
const WeekendName = "周末"

// maxSearchDays bounds NextWorkday and NextHoliday
const maxSearchDays = 366

var (
	weekdayNames        = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}
	englishWeekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

// SkipFunc is notified when YearHolidays drops an entry with an unparsable date
type SkipFunc func(year int, date string, err error)

// Resolver classifies dates using the Store's overrides with a weekend fallback
type Resolver struct {
	store  *Store
	onSkip SkipFunc
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithSkipHook reports entries YearHolidays drops
func WithSkipHook(fn SkipFunc) ResolverOption {
	return func(r *Resolver) {
		r.onSkip = fn
	}
}

// NewResolver creates a new Resolver
func NewResolver(store *Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies the date. Overrides win over the weekend rule.
func (r *Resolver) Resolve(date time.Time) ResolvedDay {
	return resolveWith(date, r.store.LoadYear(date.Year()))
}

// YearHolidays resolves every override entry of the year in table order.
// It does not enumerate days without an override.
func (r *Resolver) YearHolidays(year int) []ResolvedDay {
	table := r.store.LoadYear(year)
	entries := table.Entries()

	days := make([]ResolvedDay, 0, len(entries))
	for _, entry := range entries {
		date, err := dateutil.ParseISODate(entry.Date, time.UTC)
		if err != nil {
			if r.onSkip != nil {
				r.onSkip(year, entry.Date, err)
			}
			continue
		}
		days = append(days, resolveWith(date, table))
	}

	return days
}

// IsWorkday reports whether the date is a working day
func (r *Resolver) IsWorkday(date time.Time) bool {
	return r.Resolve(date).IsWorkday
}

// IsHoliday reports whether the date is a day off
func (r *Resolver) IsHoliday(date time.Time) bool {
	return r.Resolve(date).IsHoliday
}

// NextWorkday returns the first working day strictly after date
func (r *Resolver) NextWorkday(date time.Time) (ResolvedDay, bool) {
	return r.next(date, func(day ResolvedDay) bool { return day.IsWorkday })
}

// NextHoliday returns the first day off strictly after date
func (r *Resolver) NextHoliday(date time.Time) (ResolvedDay, bool) {
	return r.next(date, func(day ResolvedDay) bool { return day.IsHoliday })
}

func (r *Resolver) next(date time.Time, match func(ResolvedDay) bool) (ResolvedDay, bool) {
	start := dateutil.StartOfDay(date)
	for i := 1; i <= maxSearchDays; i++ {
		day := r.Resolve(start.AddDate(0, 0, i))
		if match(day) {
			return day, true
		}
	}
	return ResolvedDay{}, false
}

func resolveWith(date time.Time, table *YearTable) ResolvedDay {
	day := describe(date)

	if override, ok := table.Lookup(day.Date); ok {
		day.IsHoliday = override.IsOffDay
		day.IsWorkday = !override.IsOffDay
		day.HolidayName = override.Name
		day.Source = SourceOfficial
		if override.IsOffDay {
			day.HolidayType = DayTypeHoliday
		} else {
			day.HolidayType = DayTypeWorkday
		}
		return day
	}

	weekend := dateutil.IsWeekend(date)
	day.IsHoliday = weekend
	day.IsWorkday = !weekend
	day.Source = SourceWeekend
	if weekend {
		day.HolidayName = WeekendName
		day.HolidayType = DayTypeWeekend
	} else {
		day.HolidayType = DayTypeWorkday
	}

	return day
}

// describe fills the calendar-derived fields of a date
func describe(date time.Time) ResolvedDay {
	weekday := dateutil.WeekdayIndex(date)

	return ResolvedDay{
		Date:  dateutil.FormatISODate(date),
		Year:  date.Year(),
		Month: int(date.Month()),
		Day:   date.Day(),
		Weekday: WeekdayInfo{
			Number:      weekday,
			Name:        weekdayNames[weekday],
			EnglishName: englishWeekdayNames[weekday],
		},
		DayOfYear: dateutil.DayOfYear(date),
		ISOWeek:   dateutil.ISOWeek(date),
		Season:    dateutil.SeasonOf(date.Month()),
		Quarter:   dateutil.Quarter(date.Month()),
	}
}
