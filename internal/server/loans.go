package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/coop-lending/internal/config"
	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/internal/reprocess"
	"github.com/iwvelando/coop-lending/internal/store"
	"github.com/iwvelando/coop-lending/pkg/ledger"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// createLoanRequest describes a new stored loan. Money is decimal and may be
// sent as a JSON number or string.
type createLoanRequest struct {
	Name            string          `json:"name"`
	MemberProfileID string          `json:"memberProfileId"`
	MemberTypeID    string          `json:"memberTypeId"`
	CurrencyID      string          `json:"currencyId"`
	LoanType        string          `json:"loanType"`
	Principal       decimal.Decimal `json:"principal"`
	Terms           int             `json:"terms"`
	ModeOfPayment   string          `json:"modeOfPayment"`
	FixedDays       int             `json:"fixedDays"`
	Weekday         string          `json:"weekday"`
	Paydays         []int           `json:"paydays"`
	ExactDay        bool            `json:"exactDay"`
	LumpsumMonths   int             `json:"lumpsumMonths"`
	ExcludeSunday   bool            `json:"excludeSunday"`
	ExcludeSaturday bool            `json:"excludeSaturday"`
	ExcludeHoliday  bool            `json:"excludeHoliday"`
	ComputationType string          `json:"computationType"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	AddOn           bool            `json:"addOn"`
	IsInvestment    bool            `json:"isInvestment"`
	CollectorPlace  string          `json:"collectorPlace"`
	StartDate       string          `json:"startDate"`
	Charges         []string        `json:"charges"`

	PreviousLoanID *uuid.UUID        `json:"previousLoanId"`
	Accounts       []string          `json:"accounts"`
	Comaker        json.RawMessage   `json:"comaker"`
	Signatures     models.Signatures `json:"signatures"`
}

// shape carries the non-monetary fields through the configured-loan
// conversion.
func (req createLoanRequest) shape() config.Loan {
	return config.Loan{
		Name:            req.Name,
		MemberProfileID: req.MemberProfileID,
		MemberTypeID:    req.MemberTypeID,
		CurrencyID:      req.CurrencyID,
		LoanType:        req.LoanType,
		Terms:           req.Terms,
		ModeOfPayment:   req.ModeOfPayment,
		FixedDays:       req.FixedDays,
		Weekday:         req.Weekday,
		Paydays:         req.Paydays,
		ExactDay:        req.ExactDay,
		LumpsumMonths:   req.LumpsumMonths,
		ExcludeSunday:   req.ExcludeSunday,
		ExcludeSaturday: req.ExcludeSaturday,
		ExcludeHoliday:  req.ExcludeHoliday,
		ComputationType: req.ComputationType,
		AddOn:           req.AddOn,
		IsInvestment:    req.IsInvestment,
		CollectorPlace:  req.CollectorPlace,
		StartDate:       req.StartDate,
		Charges:         req.Charges,
	}
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id", op)
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateLoan"
	var req createLoanRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	shape := req.shape()
	loan, err := shape.LoanTransaction(req.Principal)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	start, err := shape.StartTime(time.Now())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if len(req.Comaker) > 0 && string(req.Comaker) != "null" {
		comaker, err := models.DecodeComaker(req.Comaker)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		if err := loan.SetComaker(comaker); err != nil {
			h.respondErr(w, err, op)
			return
		}
	}
	loan.Signatures = req.Signatures

	var previousAccounts []models.LoanAccount
	if req.PreviousLoanID != nil {
		previous, err := h.store.GetLoan(r.Context(), *req.PreviousLoanID)
		if err != nil {
			h.respondErr(w, err, op)
			return
		}
		previousAccounts = previous.Accounts
	}
	// Applying the loan type policy validates the previous loan reference
	// and sets up the carried-over entries.
	if err := loan.ChangeLoanType(loan.LoanType(), req.PreviousLoanID); err != nil {
		h.respondErr(w, err, op)
		return
	}
	if _, err := loan.AttachAccounts(req.Accounts, previousAccounts); err != nil {
		h.respondErr(w, err, op)
		return
	}

	if _, err := h.quoter.Quote(loan, quote.Input{
		Name:         req.Name,
		MemberTypeID: req.MemberTypeID,
		Rate:         req.InterestRate,
		Charges:      req.Charges,
		Start:        start,
	}); err != nil {
		h.respondErr(w, err, op)
		return
	}

	if err := h.store.CreateLoan(r.Context(), loan); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.logger.Info(fmt.Sprintf("created loan %s", loan.ID),
		zap.String("op", op),
		zap.String("loan_type", string(loan.LoanType())),
		zap.Int("accounts", len(loan.Accounts)),
	)
	h.writeJSON(w, http.StatusCreated, loan)
}

func (h *handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListLoans"
	loans, err := h.store.ListLoans(r.Context())
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if loans == nil {
		loans = []*models.LoanTransaction{}
	}
	h.writeJSON(w, http.StatusOK, loans)
}

func (h *handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetLoan"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	loan, err := h.store.GetLoan(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

type loanTransitionRequest struct {
	transitionInput
	// Version, when set, must match the stored version.
	Version *int `json:"version"`
}

func (h *handler) handleLoanTransition(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLoanTransition"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	var req loanTransitionRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	to, in, err := req.parse()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	loan, err := h.store.GetLoan(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if req.Version != nil && *req.Version != loan.Version {
		h.respondErr(w, fmt.Errorf("loan %s is at version %d, not %d: %w", id, loan.Version, *req.Version, store.ErrVersionConflict), op)
		return
	}
	if err := loan.Transition(to, in); err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.store.SaveTransition(r.Context(), loan); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *handler) handleAccountAdjustment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAccountAdjustment"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	var req adjustmentInput
	if !h.decode(w, r, &req, op) {
		return
	}
	typ, err := ledger.ParseAdjustmentType(req.Type)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	acct, err := h.store.GetAccount(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	adjusted, err := ledger.ApplyAdjustment(acct, req.Amount, typ)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.store.RecordAdjustment(r.Context(), &adjusted, store.Adjustment{Type: typ, Amount: req.Amount}); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, adjusted)
}

type reprocessRequest struct {
	Policy string `json:"policy"`
}

type reprocessResult struct {
	LoanID         uuid.UUID        `json:"loan_id"`
	Skipped        bool             `json:"skipped,omitempty"`
	Error          string           `json:"error,omitempty"`
	TotalPrincipal *decimal.Decimal `json:"total_principal,omitempty"`
}

// handleReprocess recomputes every loan with adjusted accounts and stores the
// loans that succeed. Failures are reported per loan.
func (h *handler) handleReprocess(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReprocess"
	var req reprocessRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	policy := h.policy
	if strings.TrimSpace(req.Policy) != "" {
		var err error
		if policy, err = reprocess.ParsePolicy(req.Policy); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	pending, err := h.store.ListPendingLoans(r.Context())
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	jobs := make([]reprocess.Job, 0, len(pending))
	for _, loan := range pending {
		jobs = append(jobs, reprocess.Job{Loan: loan})
	}

	results, runErr := reprocess.New(h.logger, h.quoter, reprocess.Options{PoolSize: h.workers, Policy: policy}).
		Run(r.Context(), jobs)
	if runErr != nil {
		h.logger.Warn("reprocessing finished with failures",
			zap.String("op", op),
			zap.Error(runErr),
		)
	}

	out := make([]reprocessResult, 0, len(results))
	for i, res := range results {
		item := reprocessResult{LoanID: res.LoanID, Skipped: res.Skipped}
		if res.Err == nil && !res.Skipped {
			res.Err = h.persistReprocessed(r, jobs[i].Loan)
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else if !res.Skipped {
			total := res.Schedule.TotalPrincipal
			item.TotalPrincipal = &total
		}
		out = append(out, item)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": out})
}

func (h *handler) persistReprocessed(r *http.Request, loan *models.LoanTransaction) error {
	if err := h.store.UpdateLoan(r.Context(), loan); err != nil {
		return err
	}
	for i := range loan.Accounts {
		if err := h.store.SaveAccount(r.Context(), &loan.Accounts[i]); err != nil {
			return err
		}
	}
	return nil
}
