// Package server exposes the loan engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/internal/reprocess"
	"github.com/iwvelando/coop-lending/internal/store"
	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"go.uber.org/zap"
)

// Options configures the handler.
type Options struct {
	MaxBodySize int64
	Version     string
	// Quoter resolves charges and computes schedules. Required.
	Quoter *quote.Quoter
	// Store backs the loan routes; nil leaves them unregistered.
	Store            store.Storage
	ReprocessWorkers int
	// ReprocessPolicy applies when a reprocess request names no policy.
	ReprocessPolicy reprocess.Policy
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	quoter      *quote.Quoter
	store       store.Storage
	workers     int
	policy      reprocess.Policy
}

// NewHandler constructs the HTTP handler that serves the loan API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.ReprocessWorkers <= 0 {
		opts.ReprocessWorkers = constants.DefaultReprocessWorkers
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		maxBodySize: opts.MaxBodySize,
		version:     trimmedVersion,
		quoter:      opts.Quoter,
		store:       opts.Store,
		workers:     opts.ReprocessWorkers,
		policy:      opts.ReprocessPolicy,
	}

	r := mux.NewRouter()
	r.Use(h.limitBody)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	// Stateless engine operations
	api.HandleFunc("/resolve", h.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/compute", h.handleCompute).Methods(http.MethodPost)
	api.HandleFunc("/loan-type/effect", h.handleLoanTypeEffect).Methods(http.MethodPost)
	api.HandleFunc("/lifecycle/transition", h.handleTransition).Methods(http.MethodPost)
	api.HandleFunc("/adjustments", h.handleAdjustment).Methods(http.MethodPost)

	// Stored loans
	if h.store != nil {
		api.HandleFunc("/loans", h.handleCreateLoan).Methods(http.MethodPost)
		api.HandleFunc("/loans", h.handleListLoans).Methods(http.MethodGet)
		api.HandleFunc("/loans/{id}", h.handleGetLoan).Methods(http.MethodGet)
		api.HandleFunc("/loans/{id}/transition", h.handleLoanTransition).Methods(http.MethodPost)
		api.HandleFunc("/accounts/{id}/adjustments", h.handleAccountAdjustment).Methods(http.MethodPost)
		api.HandleFunc("/reprocess", h.handleReprocess).Methods(http.MethodPost)
	}

	return r
}

func (h *handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decode reads a JSON request body into v. It writes the error response and
// returns false when the body cannot be decoded.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// statusFor maps an error to its HTTP status: domain validation failures are
// 422, failed lookups 404 and state conflicts 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	}
	switch loanerr.CategoryOf(loanerr.KindOf(err)) {
	case loanerr.CategoryValidation:
		return http.StatusUnprocessableEntity
	case loanerr.CategoryResolution:
		return http.StatusNotFound
	case loanerr.CategoryState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string       `json:"error"`
	Kind  loanerr.Kind `json:"kind,omitempty"`
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	h.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: loanerr.KindOf(err)})
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
