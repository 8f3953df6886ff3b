// Package payment defines payment cadences (modes of payment), their
// sub-parameters and the due date exclusion rules.
package payment

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the payment cadence of a loan.
type Mode string

const (
	Daily       Mode = "daily"
	Day         Mode = "day"
	Weekly      Mode = "weekly"
	SemiMonthly Mode = "semi_monthly"
	Monthly     Mode = "monthly"
	Quarterly   Mode = "quarterly"
	SemiAnnual  Mode = "semi_annual"
	Annually    Mode = "annually"
	Lumpsum     Mode = "lumpsum"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{Daily, Day, Weekly, SemiMonthly, Monthly, Quarterly, SemiAnnual, Annually, Lumpsum}

var aliases = map[string]Mode{
	"semi-monthly":  SemiMonthly,
	"semimonthly":   SemiMonthly,
	"semi-annual":   SemiAnnual,
	"semi-annually": SemiAnnual,
	"semi_annually": SemiAnnual,
	"semiannual":    SemiAnnual,
	"annual":        Annually,
	"lump_sum":      Lumpsum,
	"lump-sum":      Lumpsum,
}

// ParseMode converts a mode name into a Mode. Hyphenated spellings used by
// older records are accepted.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes {
		if string(m) == key {
			return m, nil
		}
	}
	if m, ok := aliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown mode of payment %q", s)
}

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

// Params holds the mode-specific sub-parameters of a loan. Only the fields
// relevant to the loan's Mode are read.
type Params struct {
	// FixedDays is the period length for the "day" mode.
	FixedDays int `json:"fixed_days,omitempty"`
	// Weekday anchors weekly payments; nil means unset.
	Weekday *time.Weekday `json:"weekday,omitempty"`
	// Paydays are the two semi-monthly paydays (day of month, 1..31).
	Paydays [2]int `json:"paydays,omitempty"`
	// ExactDay selects calendar month steps for monthly payments instead of
	// fixed 30-day blocks.
	ExactDay bool `json:"exact_day,omitempty"`
	// LumpsumMonths is the length of the single lumpsum period.
	LumpsumMonths int `json:"lumpsum_months,omitempty"`
}

// WeekdayOf returns a pointer to wd, for building Params literals.
func WeekdayOf(wd time.Weekday) *time.Weekday {
	return &wd
}
