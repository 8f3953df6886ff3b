// Package output provides utilities for formatting and displaying loan quotes.
package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable schedule
// for every quote.
func PrettyFormat(w io.Writer, results []quote.Quote) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		cur := ""
		if result.Loan != nil {
			cur = result.Loan.CurrencyID
		}
		fmt.Fprintf(w, "--- Results for loan %s ---\n", result.Name)
		fmt.Fprintf(w, "Period | Due date   | Principal | Interest | Payment | Balance\n")
		fmt.Fprintf(w, "______ | __________ | _________ | ________ | _______ | _______\n")
		for _, e := range result.Schedule.Entries {
			_, _ = p.Fprintf(w, "%6d | %s | %s | %s | %s | %s\n",
				e.Period,
				e.DueDate.Format(datetime.DateLayout),
				format.NumericCurrency(e.Principal),
				format.NumericCurrency(e.Interest),
				format.NumericCurrency(e.Payment),
				format.NumericCurrency(e.Balance),
			)
		}
		s := result.Schedule
		fmt.Fprintf(w, "Total interest: %s\n", format.Currency(s.TotalInterest, cur))
		fmt.Fprintf(w, "Interest tax: %s\n", format.Currency(s.InterestTax, cur))
		for _, c := range s.Charges {
			fmt.Fprintf(w, "Charge %s: %s\n", c.Name, format.Currency(c.Amount, cur))
		}
		fmt.Fprintf(w, "Net proceeds: %s\n", format.Currency(s.NetProceeds, cur))
		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes every schedule entry in comma-separated value format.
func CsvFormat(w io.Writer, results []quote.Quote) {
	fmt.Fprintf(w, `"loan","period","due_date","principal","interest","payment","balance"`)
	fmt.Fprintf(w, "\n")
	for _, result := range results {
		for _, e := range result.Schedule.Entries {
			fmt.Fprintf(w, `"%s","%d","%s","%s","%s","%s","%s"`,
				result.Name,
				e.Period,
				e.DueDate.Format(datetime.DateLayout),
				e.Principal.StringFixed(2),
				e.Interest.StringFixed(2),
				e.Payment.StringFixed(2),
				e.Balance.StringFixed(2),
			)
			fmt.Fprintf(w, "\n")
		}
	}
}
