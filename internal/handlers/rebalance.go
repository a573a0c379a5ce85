package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/middleware"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
	"portfolio_tracker/internal/services"
)

// RebalanceHandler handles rebalance suggestions and allocation targets.
type RebalanceHandler struct {
	rebalance     *services.RebalanceService
	targetRepo    *repository.AllocationTargetRepository
	portfolioRepo *repository.PortfolioRepository
}

// NewRebalanceHandler creates a new RebalanceHandler.
func NewRebalanceHandler(
	rebalance *services.RebalanceService,
	targetRepo *repository.AllocationTargetRepository,
	portfolioRepo *repository.PortfolioRepository,
) *RebalanceHandler {
	return &RebalanceHandler{
		rebalance:     rebalance,
		targetRepo:    targetRepo,
		portfolioRepo: portfolioRepo,
	}
}

// Suggest computes rebalancing suggestions. The threshold query parameter
// overrides the default drift threshold.
func (h *RebalanceHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	threshold := services.DefaultDriftThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		threshold, err = strconv.ParseFloat(s, 64)
		if err != nil {
			respondError(w, errors.ValidationField("threshold", errors.CodeInvalidType, "must be a number"))
			return
		}
	}

	report, err := h.rebalance.Suggest(r.Context(), user.ID, portfolioID, threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ListTargets returns the portfolio's allocation targets and their sum.
func (h *RebalanceHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := h.ownedPortfolioID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	targets, err := h.targetRepo.GetByPortfolioID(portfolioID)
	if err != nil {
		respondError(w, errors.Persistence("failed to list targets", err))
		return
	}
	total, err := h.targetRepo.TotalPercent(portfolioID)
	if err != nil {
		respondError(w, errors.Persistence("failed to sum targets", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"targets":   targets,
		"total_pct": total,
	})
}

type targetRequest struct {
	Symbol    string  `json:"symbol"`
	TargetPct float64 `json:"target_pct"`
}

// UpsertTarget creates or updates the target for one symbol.
func (h *RebalanceHandler) UpsertTarget(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := h.ownedPortfolioID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.Symbol = strings.ToUpper(middleware.SanitizeString(req.Symbol))
	if !middleware.ValidateSymbol(req.Symbol) {
		respondError(w, errors.ValidationField("symbol", errors.CodeRequired, "a valid symbol is required"))
		return
	}
	if !middleware.ValidatePercentage(req.TargetPct) {
		respondError(w, errors.ValidationField("target_pct", errors.CodeOutOfRange, "target must be above 0 and at most 100"))
		return
	}

	id, err := h.targetRepo.Upsert(&models.AllocationTarget{
		PortfolioID: portfolioID,
		Symbol:      req.Symbol,
		TargetPct:   req.TargetPct,
	})
	if err != nil {
		respondError(w, errors.Persistence("failed to save target", err))
		return
	}

	target, err := h.targetRepo.GetByID(id)
	if err != nil {
		respondError(w, errors.Persistence("failed to load target", err))
		return
	}
	respondJSON(w, http.StatusOK, target)
}

// DeleteTarget removes one allocation target.
func (h *RebalanceHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := h.ownedPortfolioID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	targetID, err := urlID(r, "targetID")
	if err != nil {
		respondError(w, err)
		return
	}

	target, err := h.targetRepo.GetByID(targetID)
	if err != nil {
		respondError(w, errors.Persistence("failed to load target", err))
		return
	}
	if target == nil || target.PortfolioID != portfolioID {
		respondError(w, errors.NotFound("allocation target"))
		return
	}

	if err := h.targetRepo.Delete(targetID); err != nil {
		respondError(w, errors.Persistence("failed to delete target", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ownedPortfolioID resolves the portfolio URL parameter and checks the
// authenticated user owns it.
func (h *RebalanceHandler) ownedPortfolioID(r *http.Request) (int64, error) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		return 0, err
	}

	portfolio, err := h.portfolioRepo.GetByID(portfolioID)
	if err != nil {
		return 0, errors.Persistence("failed to load portfolio", err)
	}
	if portfolio == nil || portfolio.UserID != user.ID {
		return 0, errors.NotFound("portfolio")
	}
	return portfolioID, nil
}
