package config

// Loan is a loan to quote, as written in the configuration.
type Loan struct {
	Name            string
	MemberProfileID string
	MemberTypeID    string
	CurrencyID      string
	LoanType        string
	Principal       float64
	Terms           int
	ModeOfPayment   string
	// Mode sub-parameters; only the ones relevant to ModeOfPayment are read.
	FixedDays     int
	Weekday       string
	Paydays       []int
	ExactDay      bool
	LumpsumMonths int

	ExcludeSunday   bool
	ExcludeSaturday bool
	ExcludeHoliday  bool

	ComputationType string
	InterestRate    float64 // percent per period
	AddOn           bool
	IsInvestment    bool
	// CollectorPlace is "office" (default) or "field".
	CollectorPlace string
	StartDate       string
	// Charges names the schemes whose rates are charged on this loan.
	Charges []string
}
