// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/datetime"
)

// ConfigValidator collects the parts of a configuration that can be checked
// for warnings before any loan is computed.
type ConfigValidator struct {
	TaxInterest                float64
	DiminishingStraightPeriods int
	Holidays                   []string
	Schemes                    []SchemeConfig
	Loans                      []LoanConfig
}

type SchemeConfig struct {
	Name         string
	CurrencyID   string
	MemberTypeID string
	Terms        int
}

type LoanConfig struct {
	Name            string
	CurrencyID      string
	MemberTypeID    string
	Terms           int
	ComputationType string
	ExcludeHoliday  bool
	Charges         []string
}

// ValidateHolidays checks that every holiday parses as a date.
func ValidateHolidays(holidays []string) []string {
	var warnings []string
	for _, h := range holidays {
		if _, err := datetime.ParseDate(h); err != nil {
			warnings = append(warnings, fmt.Sprintf("Holiday '%s' is not a %s date and will be rejected", h, constants.DateLayout))
		}
	}
	return warnings
}

// ValidateCrossover checks a Diminishing Straight loan against the branch's
// straight period count.
func ValidateCrossover(loanName string, terms, straightPeriods int) string {
	if straightPeriods < 1 || straightPeriods > terms {
		return fmt.Sprintf("Loan '%s' is Diminishing Straight but the branch straight periods (%d) are outside 1..%d - computation will fail",
			loanName, straightPeriods, terms)
	}
	return ""
}

func isDiminishingStraight(computationType string) bool {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(computationType)))
	return key == "diminishing_straight"
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.TaxInterest < 0 || cv.TaxInterest > constants.PercentageMultiplier {
		warnings = append(warnings, fmt.Sprintf("Branch tax interest %.2f%% is outside 0..100", cv.TaxInterest))
	}
	warnings = append(warnings, ValidateHolidays(cv.Holidays)...)

	type scope struct{ name, currency, memberType string }
	seen := make(map[scope]bool)
	byName := make(map[string][]SchemeConfig)
	for _, s := range cv.Schemes {
		key := scope{s.Name, s.CurrencyID, s.MemberTypeID}
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("Scheme '%s' is defined twice for currency %s and member type %s - the first definition wins",
				s.Name, s.CurrencyID, s.MemberTypeID))
		}
		seen[key] = true
		byName[s.Name] = append(byName[s.Name], s)
	}

	for _, loan := range cv.Loans {
		if loan.Terms > constants.MaxTerms {
			warnings = append(warnings, fmt.Sprintf("Loan '%s' has %d terms but rate tables hold at most %d - by-term charges cannot be resolved",
				loan.Name, loan.Terms, constants.MaxTerms))
		}
		if isDiminishingStraight(loan.ComputationType) {
			if w := ValidateCrossover(loan.Name, loan.Terms, cv.DiminishingStraightPeriods); w != "" {
				warnings = append(warnings, w)
			}
		}
		if loan.ExcludeHoliday && len(cv.Holidays) == 0 {
			warnings = append(warnings, fmt.Sprintf("Loan '%s' excludes holidays but no holidays are configured", loan.Name))
		}
		for _, charge := range loan.Charges {
			schemes, ok := byName[charge]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("Loan '%s' charges unknown scheme '%s'", loan.Name, charge))
				continue
			}
			matched := false
			for _, s := range schemes {
				if s.CurrencyID == loan.CurrencyID && (s.MemberTypeID == loan.MemberTypeID || s.MemberTypeID == "all" || s.MemberTypeID == "") {
					matched = true
					break
				}
			}
			if !matched {
				warnings = append(warnings, fmt.Sprintf("Loan '%s' charges scheme '%s' which has no variant for currency %s and member type %s",
					loan.Name, charge, loan.CurrencyID, loan.MemberTypeID))
			}
		}
	}

	return warnings
}
