package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/charges"
	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/ledger"
	"github.com/iwvelando/coop-lending/pkg/lifecycle"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/loantype"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
)

type resolveRequest struct {
	Scheme       string          `json:"scheme"`
	MemberTypeID string          `json:"member_type_id"`
	CurrencyID   string          `json:"currency_id"`
	Mode         string          `json:"mode_of_payment"`
	Term         int             `json:"term"`
	Principal    decimal.Decimal `json:"principal"`
}

type resolutionResponse struct {
	SchemeID      uuid.UUID          `json:"scheme_id"`
	SchemeName    string             `json:"scheme_name"`
	Type          charges.SchemeType `json:"type"`
	TermIndex     int                `json:"term,omitempty"`
	Header        *decimal.Decimal   `json:"header,omitempty"`
	Rate          decimal.Decimal    `json:"rate"`
	Amount        decimal.Decimal    `json:"amount"`
	Charged       bool               `json:"charged"`
	MinimumAmount *decimal.Decimal   `json:"minimum_amount,omitempty"`
}

func newResolutionResponse(res charges.Resolution) resolutionResponse {
	out := resolutionResponse{
		SchemeID:   res.SchemeID,
		SchemeName: res.SchemeName,
		Type:       res.Type,
		TermIndex:  res.TermIndex,
		Rate:       res.Rate,
		Amount:     res.Amount,
		Charged:    res.Charged,
	}
	if res.HasHeader {
		header := res.Header
		out.Header = &header
	}
	if res.Type == charges.ByRange {
		minimum := res.MinimumAmount
		out.MinimumAmount = &minimum
	}
	return out
}

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleResolve"
	var req resolveRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	var mode payment.Mode
	if req.Mode != "" {
		m, err := payment.ParseMode(req.Mode)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		mode = m
	}

	res, err := h.quoter.ResolveCharge(req.Scheme, charges.Request{
		MemberTypeID: req.MemberTypeID,
		CurrencyID:   req.CurrencyID,
		Mode:         mode,
		TermIndex:    req.Term,
		Principal:    req.Principal,
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newResolutionResponse(res))
}

type chargeRequest struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type computeRequest struct {
	Principal       decimal.Decimal    `json:"principal"`
	Terms           int                `json:"terms"`
	Mode            string             `json:"mode_of_payment"`
	Params          payment.Params     `json:"mode_params"`
	ComputationType string             `json:"computation_type"`
	Rate            decimal.Decimal    `json:"rate"`
	StraightPeriods *int               `json:"straight_periods"`
	Exclusions      payment.Exclusions `json:"exclusions"`
	AddOn           bool               `json:"add_on"`
	StartDate       string             `json:"start_date"`
	TaxInterest     *decimal.Decimal   `json:"tax_interest"`
	Charges         []chargeRequest    `json:"charges"`
	// ChargeSchemes names configured schemes resolved for the member type
	// and currency below.
	ChargeSchemes []string `json:"charge_schemes"`
	MemberTypeID  string   `json:"member_type_id"`
	CurrencyID    string   `json:"currency_id"`
}

type entryResponse struct {
	Period    int             `json:"period"`
	DueDate   string          `json:"due_date"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Payment   decimal.Decimal `json:"payment"`
	Balance   decimal.Decimal `json:"balance"`
}

type chargeResponse struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type scheduleResponse struct {
	Entries        []entryResponse  `json:"entries"`
	TotalPrincipal decimal.Decimal  `json:"total_principal"`
	TotalInterest  decimal.Decimal  `json:"total_interest"`
	InterestTax    decimal.Decimal  `json:"interest_tax"`
	Charges        []chargeResponse `json:"charges"`
	TotalCharges   decimal.Decimal  `json:"total_charges"`
	NetProceeds    decimal.Decimal  `json:"net_proceeds"`
}

func newScheduleResponse(s loans.Schedule) scheduleResponse {
	out := scheduleResponse{
		Entries:        make([]entryResponse, 0, len(s.Entries)),
		TotalPrincipal: s.TotalPrincipal,
		TotalInterest:  s.TotalInterest,
		InterestTax:    s.InterestTax,
		Charges:        make([]chargeResponse, 0, len(s.Charges)),
		TotalCharges:   s.TotalCharges,
		NetProceeds:    s.NetProceeds,
	}
	for _, e := range s.Entries {
		out.Entries = append(out.Entries, entryResponse{
			Period:    e.Period,
			DueDate:   e.DueDate.Format(datetime.DateLayout),
			Principal: e.Principal,
			Interest:  e.Interest,
			Payment:   e.Payment,
			Balance:   e.Balance,
		})
	}
	for _, c := range s.Charges {
		out.Charges = append(out.Charges, chargeResponse{Name: c.Name, Amount: c.Amount})
	}
	return out
}

// toRequest converts the body into an engine request, filling branch
// settings the body leaves out.
func (h *handler) toRequest(req computeRequest) (loans.Request, error) {
	mode, err := payment.ParseMode(req.Mode)
	if err != nil {
		return loans.Request{}, err
	}
	ct := loans.Straight
	if req.ComputationType != "" {
		if ct, err = loans.ParseComputationType(req.ComputationType); err != nil {
			return loans.Request{}, err
		}
	}
	start := datetime.DateOnly(time.Now())
	if req.StartDate != "" {
		if start, err = datetime.ParseDate(req.StartDate); err != nil {
			return loans.Request{}, fmt.Errorf("invalid start date: %w", err)
		}
	}

	branch := h.quoter.Branch()
	out := loans.Request{
		Principal:       req.Principal,
		Terms:           req.Terms,
		Mode:            mode,
		Params:          req.Params,
		ComputationType: ct,
		Rate:            req.Rate,
		StraightPeriods: branch.DiminishingStraightPeriods,
		Exclusions:      req.Exclusions,
		Holidays:        h.quoter.Holidays(),
		AddOn:           req.AddOn,
		StartDate:       start,
		TaxInterest:     branch.TaxInterest,
	}
	if req.StraightPeriods != nil {
		out.StraightPeriods = *req.StraightPeriods
	}
	if req.TaxInterest != nil {
		out.TaxInterest = *req.TaxInterest
	}
	for _, c := range req.Charges {
		out.Charges = append(out.Charges, loans.ChargeRate{Name: c.Name, Rate: c.Rate, Amount: c.Amount})
	}
	return out, nil
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompute"
	var body computeRequest
	if !h.decode(w, r, &body, op) {
		return
	}
	req, err := h.toRequest(body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	for _, name := range body.ChargeSchemes {
		res, err := h.quoter.ResolveCharge(name, charges.Request{
			MemberTypeID: body.MemberTypeID,
			CurrencyID:   body.CurrencyID,
			Mode:         req.Mode,
			TermIndex:    req.Terms,
			Principal:    req.Principal,
		})
		if err != nil {
			h.respondErr(w, err, op)
			return
		}
		if res.Charged {
			req.Charges = append(req.Charges, loans.ChargeRate{Name: res.SchemeName, Rate: res.Rate, Amount: res.Amount})
		}
	}

	schedule, err := loans.NewEngine(h.logger).Compute("api", req)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newScheduleResponse(schedule))
}

type loanTypeRequest struct {
	LoanType string `json:"loan_type"`
}

type effectResponse struct {
	LoanType               loantype.Type `json:"loan_type"`
	ResetEntries           bool          `json:"reset_entries"`
	ResetSchema            bool          `json:"reset_schema"`
	RequiresPreviousLoan   bool          `json:"requires_previous_loan"`
	IncludesAutoDeductions bool          `json:"includes_auto_deductions"`
	AppendCurrentMarker    bool          `json:"append_current_marker"`
}

func (h *handler) handleLoanTypeEffect(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLoanTypeEffect"
	var req loanTypeRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	t, err := loantype.Parse(req.LoanType)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	effect, err := loantype.EffectOf(t)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, effectResponse{
		LoanType:               t,
		ResetEntries:           effect.ResetEntries,
		ResetSchema:            effect.ResetSchema,
		RequiresPreviousLoan:   effect.RequiresPreviousLoan,
		IncludesAutoDeductions: effect.IncludesAutoDeductions,
		AppendCurrentMarker:    effect.AppendCurrentMarker,
	})
}

type lifecycleRecord struct {
	Voucher    string     `json:"voucher,omitempty"`
	PrintedAt  *time.Time `json:"printed_date,omitempty"`
	ApprovedAt *time.Time `json:"approved_date,omitempty"`
	ReleasedAt *time.Time `json:"released_date,omitempty"`
	BatchID    string     `json:"batch_id,omitempty"`
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (rec lifecycleRecord) toRecord() lifecycle.Record {
	return lifecycle.Record{
		Voucher:    rec.Voucher,
		PrintedAt:  derefTime(rec.PrintedAt),
		ApprovedAt: derefTime(rec.ApprovedAt),
		ReleasedAt: derefTime(rec.ReleasedAt),
		BatchID:    rec.BatchID,
	}
}

type batchRequest struct {
	ID         string `json:"id"`
	CurrencyID string `json:"currency_id"`
	Open       bool   `json:"open"`
}

// transitionInput is the part of a transition request shared by the
// stateless and the stored loan routes.
type transitionInput struct {
	To                string        `json:"to"`
	Voucher           string        `json:"voucher"`
	At                *time.Time    `json:"at"`
	Batch             *batchRequest `json:"batch"`
	AccountCurrencyID string        `json:"account_currency_id"`
}

func (in transitionInput) parse() (lifecycle.Status, lifecycle.Input, error) {
	to, err := lifecycle.ParseStatus(in.To)
	if err != nil {
		return 0, lifecycle.Input{}, err
	}
	out := lifecycle.Input{
		Voucher:           in.Voucher,
		At:                derefTime(in.At),
		AccountCurrencyID: in.AccountCurrencyID,
	}
	if in.Batch != nil {
		out.Batch = &lifecycle.Batch{ID: in.Batch.ID, CurrencyID: in.Batch.CurrencyID, Open: in.Batch.Open}
	}
	return to, out, nil
}

type transitionRequest struct {
	Lifecycle lifecycleRecord `json:"lifecycle"`
	transitionInput
}

type lifecycleResponse struct {
	Status lifecycle.Status   `json:"status"`
	Next   []lifecycle.Status `json:"next"`
	lifecycleRecord
}

func newLifecycleResponse(l lifecycle.Lifecycle) lifecycleResponse {
	return lifecycleResponse{
		Status: l.Status(),
		Next:   lifecycle.Next(l.Status()),
		lifecycleRecord: lifecycleRecord{
			Voucher:    l.Voucher(),
			PrintedAt:  optionalTime(l.PrintedAt()),
			ApprovedAt: optionalTime(l.ApprovedAt()),
			ReleasedAt: optionalTime(l.ReleasedAt()),
			BatchID:    l.BatchID(),
		},
	}
}

func (h *handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTransition"
	var req transitionRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	current, err := lifecycle.Restore(req.Lifecycle.toRecord())
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	to, in, err := req.parse()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	next, err := lifecycle.Transition(current, to, in)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newLifecycleResponse(next))
}

type adjustmentInput struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type adjustmentRequest struct {
	Account models.LoanAccount `json:"account"`
	adjustmentInput
}

func (h *handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAdjustment"
	var req adjustmentRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	typ, err := ledger.ParseAdjustmentType(req.Type)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	acct, err := ledger.ApplyAdjustment(req.Account, req.Amount, typ)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, acct)
}
