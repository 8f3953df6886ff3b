package config

// Scheme is a charges rate scheme as written in the configuration.
type Scheme struct {
	ID           string
	Name         string
	Type         string // by_term, by_range
	CurrencyID   string
	MemberTypeID string // a member type id or "all"
	// Header holds one value per configured term; its length is the
	// scheme's term count.
	Header []float64
	ByTerm []RateByTerm
	Ranges []RangeRate
}

// RateByTerm is the per-term rate row of one mode of payment. A null entry
// means no charge at that term.
type RateByTerm struct {
	ID    string
	Mode  string
	Rates []*float64
}

// RangeRate is a minimum-amount bracket of a by-range scheme.
type RangeRate struct {
	ID            string
	MinimumAmount float64
	Rate          float64
	Amount        float64
}
