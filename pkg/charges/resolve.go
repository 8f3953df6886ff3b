package charges

import (
	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/iwvelando/coop-lending/pkg/ratetable"
	"github.com/shopspring/decimal"
)

// Request describes what to resolve. TermIndex is used by by-term schemes,
// Principal by by-range schemes.
type Request struct {
	MemberTypeID string
	CurrencyID   string
	Mode         payment.Mode
	TermIndex    int
	Principal    decimal.Decimal
}

// Resolution is the rate (or rate set) that applies to a request.
type Resolution struct {
	SchemeID   uuid.UUID
	SchemeName string
	Type       SchemeType
	TermIndex  int
	// Header is the term header value at TermIndex (by-term only).
	Header    decimal.Decimal
	HasHeader bool
	// Rate is a percentage; zero when Charged is false.
	Rate decimal.Decimal
	// Amount is a fixed charge from a by-range row, zero when unset.
	Amount decimal.Decimal
	// Charged is false when the matching slot is unset, i.e. no charge.
	Charged bool
	// MinimumAmount is the threshold of the matched range row.
	MinimumAmount decimal.Decimal
}

// Select picks the scheme that applies to a member type and currency.
// Currency must match exactly. An exact member type match beats the
// AllMemberTypes sentinel; among equally specific schemes the first one wins.
func Select(schemes []Scheme, memberTypeID, currencyID string) (Scheme, error) {
	const op = "charges.Select"
	fallback := -1
	for i, s := range schemes {
		if s.CurrencyID != currencyID {
			continue
		}
		if s.MemberTypeID == memberTypeID {
			return s, nil
		}
		if s.MemberTypeID == AllMemberTypes && fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		return schemes[fallback], nil
	}
	return Scheme{}, loanerr.New(loanerr.SchemeNotFound, op,
		"no scheme for member type %q in currency %q", memberTypeID, currencyID)
}

// Resolve selects the applicable scheme and looks up the rate for the
// request. It is a pure function of its inputs.
func Resolve(schemes []Scheme, req Request) (Resolution, error) {
	scheme, err := Select(schemes, req.MemberTypeID, req.CurrencyID)
	if err != nil {
		return Resolution{}, err
	}
	return ResolveIn(scheme, req)
}

// ResolveIn looks up the rate for req inside an already selected scheme.
func ResolveIn(scheme Scheme, req Request) (Resolution, error) {
	res := Resolution{
		SchemeID:   scheme.ID,
		SchemeName: scheme.Name,
		Type:       scheme.Type,
	}
	switch scheme.Type {
	case ByTerm:
		return resolveByTerm(scheme, req, res)
	case ByRange:
		return resolveByRange(scheme, req, res)
	}
	return Resolution{}, loanerr.New(loanerr.SchemeNotFound, "charges.ResolveIn",
		"scheme %q has unknown type %q", scheme.Name, scheme.Type)
}

func resolveByTerm(scheme Scheme, req Request, res Resolution) (Resolution, error) {
	const op = "charges.resolveByTerm"
	if req.TermIndex < 1 || req.TermIndex > ratetable.MaxTerms || req.TermIndex > scheme.TermCount() {
		return Resolution{}, loanerr.New(loanerr.TermOutOfRange, op,
			"term %d outside 1..%d of scheme %q", req.TermIndex, scheme.TermCount(), scheme.Name)
	}
	row, ok := scheme.RatesFor(req.Mode)
	if !ok {
		return Resolution{}, loanerr.New(loanerr.SchemeNotFound, op,
			"scheme %q has no rates for mode %s", scheme.Name, req.Mode)
	}
	res.TermIndex = req.TermIndex
	res.Header, res.HasHeader = scheme.Header.Get(req.TermIndex)
	if rate, set := row.Rates.Get(req.TermIndex); set {
		res.Rate = rate
		res.Charged = true
	}
	return res, nil
}

func resolveByRange(scheme Scheme, req Request, res Resolution) (Resolution, error) {
	const op = "charges.resolveByRange"
	var (
		match RangeRate
		found bool
	)
	for _, row := range scheme.sortedRanges() {
		if row.MinimumAmount.GreaterThan(req.Principal) {
			break
		}
		match, found = row, true
	}
	if !found {
		return Resolution{}, loanerr.New(loanerr.NoRangeMatch, op,
			"principal %s below every range of scheme %q", req.Principal, scheme.Name)
	}
	res.MinimumAmount = match.MinimumAmount
	res.Rate = match.Rate
	res.Amount = match.Amount
	res.Charged = match.Rate.IsPositive() || match.Amount.IsPositive()
	return res, nil
}
