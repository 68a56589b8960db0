// Package server exposes loan calculations over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/loan-calculator/internal/cache"
	"github.com/iwvelando/loan-calculator/internal/calculation"
	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/pkg/amortization"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/output"
	"github.com/iwvelando/loan-calculator/pkg/validation"
	"go.uber.org/zap"
)

// ExportTimestampLayout formats the timestamp part of export file names.
const ExportTimestampLayout = "20060102_150405"

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	cache       cache.Cache
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the calculation API.
// resultCache may be nil to disable caching.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, resultCache cache.Cache) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		cache:       resultCache,
		now:         time.Now,
	}
	return h.routes()
}

func (h *handler) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(h.logRequests)

	api := router.PathPrefix("/api").Subrouter()

	// Calculation endpoints
	api.HandleFunc("/calculate", h.handleCalculate).Methods(http.MethodPost)
	api.HandleFunc("/calculate/form", h.handleCalculateForm).Methods(http.MethodPost)

	// Schedule download
	api.HandleFunc("/export", h.handleExport).Methods(http.MethodPost)

	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": http.StatusText(http.StatusMethodNotAllowed)})
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": http.StatusText(http.StatusNotFound)})
	})

	return router
}

type calculateResponse struct {
	*calculation.Result
	Cached   bool   `json:"cached"`
	Duration string `json:"duration"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	loan, err := h.decodeLoan(w, r)
	if err != nil {
		h.respondDecodeError(w, err, "server.handleCalculate")
		return
	}
	h.runCalculation(r.Context(), w, loan, start, "server.handleCalculate")
}

func (h *handler) handleCalculateForm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseForm(); err != nil {
		h.respondDecodeError(w, err, "server.handleCalculateForm")
		return
	}

	loan, err := loanFromForm(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleCalculateForm")
		return
	}
	h.runCalculation(r.Context(), w, loan, start, "server.handleCalculateForm")
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	loan, err := h.decodeLoan(w, r)
	if err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	result, _, err := h.calculate(r.Context(), loan, op)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	var buf bytes.Buffer
	if err := output.CsvFormat(&buf, result); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
		return
	}

	filename := ExportFilename(result.Request.Principal, h.now(), "csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write csv export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// ExportFilename names a download after the integer loan amount and the time
// it was produced, e.g. amount_100000_20250102_150405.csv.
func ExportFilename(principal float64, at time.Time, extension string) string {
	return fmt.Sprintf("amount_%d_%s.%s", int64(principal), at.Format(ExportTimestampLayout), extension)
}

func (h *handler) runCalculation(ctx context.Context, w http.ResponseWriter, loan config.Loan, start time.Time, op string) {
	result, cached, err := h.calculate(ctx, loan, op)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("calculation computed",
		zap.String("op", op),
		zap.Float64("principal", result.Request.Principal),
		zap.Int("months", result.Schedule.TermMonths()),
		zap.Bool("cached", cached),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, calculateResponse{
		Result:   result,
		Cached:   cached,
		Duration: elapsed.String(),
	})
}

// calculate serves a result from the cache when possible. Cache failures are
// logged and otherwise ignored.
func (h *handler) calculate(ctx context.Context, loan config.Loan, op string) (*calculation.Result, bool, error) {
	var key string
	if h.cache != nil {
		var err error
		key, err = cache.Key(loan)
		if err != nil {
			h.logger.Warn("failed to build cache key", zap.String("op", op), zap.Error(err))
		} else if payload, ok, err := h.cache.Get(ctx, key); err != nil {
			h.logger.Warn("cache lookup failed", zap.String("op", op), zap.Error(err))
		} else if ok {
			var result calculation.Result
			if err := json.Unmarshal(payload, &result); err == nil {
				return &result, true, nil
			}
			h.logger.Warn("discarding undecodable cache entry", zap.String("op", op), zap.String("key", key))
		}
	}

	result, err := calculation.Calculate(h.logger, loan)
	if err != nil {
		return nil, false, err
	}

	if h.cache != nil && key != "" {
		payload, err := json.Marshal(result)
		if err == nil {
			err = h.cache.Set(ctx, key, payload)
		}
		if err != nil {
			h.logger.Warn("failed to cache result", zap.String("op", op), zap.Error(err))
		}
	}
	return result, false, nil
}

func (h *handler) decodeLoan(w http.ResponseWriter, r *http.Request) (config.Loan, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var loan config.Loan
	if err := json.NewDecoder(r.Body).Decode(&loan); err != nil {
		return config.Loan{}, err
	}
	return loan, nil
}

func loanFromForm(r *http.Request) (config.Loan, error) {
	var loan config.Loan
	fields := []struct {
		name   string
		target *float64
	}{
		{"property_value", &loan.PropertyValue},
		{"own_funds", &loan.OwnFunds},
		{"annual_interest_rate", &loan.AnnualInterestRate},
		{"monthly_payment", &loan.MonthlyPayment},
	}
	for _, field := range fields {
		raw := strings.TrimSpace(r.PostFormValue(field.name))
		if raw == "" {
			return config.Loan{}, fmt.Errorf("missing required field %s", field.name)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return config.Loan{}, fmt.Errorf("invalid value for %s: %q", field.name, raw)
		}
		*field.target = value
	}

	loan.IncludeExtraPayment = r.PostFormValue("include_extra") == "true"
	loan.StartDate = strings.TrimSpace(r.PostFormValue("start_date"))

	// Anything other than plain digits means no fixed period.
	if fixed := strings.TrimSpace(r.PostFormValue("fixed_period")); isDigits(fixed) {
		years, err := strconv.Atoi(fixed)
		if err != nil {
			return config.Loan{}, fmt.Errorf("invalid value for fixed_period: %q", fixed)
		}
		loan.FixedPeriodYears = &years
	}
	return loan, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (h *handler) respondDecodeError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	if errors.Is(err, validation.ErrInvalidInput) ||
		errors.Is(err, amortization.ErrInsufficientPayment) ||
		errors.Is(err, amortization.ErrTermTooLong) {
		status = http.StatusBadRequest
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("calculation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("handled request",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
