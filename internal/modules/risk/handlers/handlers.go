// Package handlers provides HTTP handlers for risk analysis operations.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/engine"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// RiskEngine is the analysis surface the handlers need
type RiskEngine interface {
	Analyze(req engine.AnalysisRequest) (*engine.RiskReport, error)
	GenerateRiskLimits(portfolio domain.Portfolio, level domain.RiskLevel) (domain.RiskLimits, error)
	Scenarios() []domain.StressScenario
}

// Handler handles risk analysis HTTP requests
type Handler struct {
	engine RiskEngine
	log    zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(eng RiskEngine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: eng,
		log:    log.With().Str("handler", "risk").Logger(),
	}
}

// HandleAnalyze handles POST /api/risk/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req engine.AnalysisRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	report, err := h.engine.Analyze(req)
	if err != nil {
		if errors.Is(err, engine.ErrAnalysisFailed) && report != nil {
			h.log.Warn().
				Err(err).
				Str("portfolio", req.Portfolio.Name).
				Strs("failed", report.FailedBranches()).
				Msg("Risk analysis failed under fail-fast policy")
			h.write(w, r, http.StatusUnprocessableEntity, envelope{
				Data:     report,
				Error:    err.Error(),
				Metadata: newMetadata(),
			})
			return
		}
		h.writeError(w, r, statusFor(err), err)
		return
	}

	h.write(w, r, http.StatusOK, envelope{Data: report, Metadata: newMetadata()})
}

// HandleLimits handles POST /api/risk/limits?tolerance=low|medium|high|extreme
func (h *Handler) HandleLimits(w http.ResponseWriter, r *http.Request) {
	level := domain.RiskLevelMedium
	if tolerance := r.URL.Query().Get("tolerance"); tolerance != "" {
		parsed, err := domain.ParseRiskLevel(tolerance)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		level = parsed
	}

	var portfolio domain.Portfolio
	if err := decodeBody(w, r, &portfolio); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	limits, err := h.engine.GenerateRiskLimits(portfolio, level)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	h.write(w, r, http.StatusOK, envelope{Data: limits, Metadata: newMetadata()})
}

// HandleListScenarios handles GET /api/risk/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, envelope{
		Data:     map[string]interface{}{"scenarios": h.engine.Scenarios()},
		Metadata: newMetadata(),
	})
}

type envelope struct {
	Data     interface{} `json:"data,omitempty"`
	Metadata metadata    `json:"metadata"`
	Error    string      `json:"error,omitempty"`
}

type metadata struct {
	Timestamp string `json:"timestamp"`
}

func newMetadata() metadata {
	return metadata{Timestamp: time.Now().Format(time.RFC3339)}
}

// statusFor maps input errors to 400 and anything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPortfolio),
		errors.Is(err, domain.ErrInvalidRiskLevel),
		errors.Is(err, engine.ErrInvalidPolicy),
		errors.Is(err, formulas.ErrInsufficientData),
		errors.Is(err, formulas.ErrDimensionMismatch),
		errors.Is(err, formulas.ErrInvalidScenario):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Risk request failed")
	} else {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected risk request")
	}
	h.write(w, r, status, envelope{Error: err.Error(), Metadata: newMetadata()})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	asMsgpack := wantsMsgpack(r)
	if asMsgpack {
		w.Header().Set("Content-Type", contentTypeMsgpack)
	} else {
		w.Header().Set("Content-Type", contentTypeJSON)
	}
	w.WriteHeader(status)

	if err := encode(w, asMsgpack, data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
