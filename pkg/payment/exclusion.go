package payment

import (
	"time"

	"github.com/iwvelando/coop-lending/pkg/datetime"
)

// Calendar answers whether a date is a holiday. It is supplied by the caller.
type Calendar interface {
	IsHoliday(date time.Time) bool
}

// CalendarFunc adapts a plain function to a Calendar.
type CalendarFunc func(date time.Time) bool

// IsHoliday implements Calendar.
func (f CalendarFunc) IsHoliday(date time.Time) bool {
	return f(date)
}

// HolidaySet is a Calendar backed by a set of calendar days.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a HolidaySet from dates.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d.Format(datetime.DateLayout)] = struct{}{}
	}
	return set
}

// IsHoliday implements Calendar.
func (s HolidaySet) IsHoliday(date time.Time) bool {
	_, ok := s[date.Format(datetime.DateLayout)]
	return ok
}

// Exclusions are the days a due date may not fall on.
type Exclusions struct {
	Sunday   bool `json:"exclude_sunday"`
	Saturday bool `json:"exclude_saturday"`
	Holiday  bool `json:"exclude_holiday"`
}

// Any reports whether at least one exclusion is enabled.
func (e Exclusions) Any() bool {
	return e.Sunday || e.Saturday || e.Holiday
}

// Excluded is the single combined predicate used when shifting due dates.
// cal may be nil when Holiday is not set.
func (e Exclusions) Excluded(date time.Time, cal Calendar) bool {
	switch date.Weekday() {
	case time.Sunday:
		if e.Sunday {
			return true
		}
	case time.Saturday:
		if e.Saturday {
			return true
		}
	}
	return e.Holiday && cal != nil && cal.IsHoliday(date)
}
