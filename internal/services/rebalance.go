package services

import (
	"context"
	"math"
	"sort"
	"time"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/pricing"
	"portfolio_tracker/internal/repository"
)

// DefaultDriftThreshold is the drift percentage below which a holding is
// considered close enough to target.
const DefaultDriftThreshold = 2.0

// quantityPrecision is the decimal precision suggested quantities are
// floored to.
const quantityPrecision = 1e4

// Suggestion is one actionable rebalancing step for a single holding.
type Suggestion struct {
	Symbol           string  `json:"symbol"`
	Action           string  `json:"action"` // "BUY" or "SELL"
	Quantity         float64 `json:"quantity"`
	CurrentPct       float64 `json:"current_pct"`
	TargetPct        float64 `json:"target_pct"`
	DriftPct         float64 `json:"drift_pct"`
	CurrentPrice     float64 `json:"current_price,omitempty"`
	PriceUnavailable bool    `json:"price_unavailable,omitempty"`
}

// RebalanceReport is the full result of a rebalance computation.
type RebalanceReport struct {
	PortfolioID    int64        `json:"portfolio_id"`
	TotalValue     float64      `json:"total_value"`
	CashBalance    float64      `json:"cash_balance"`
	DriftThreshold float64      `json:"drift_threshold"`
	TargetTotalPct float64      `json:"target_total_pct"`
	Suggestions    []Suggestion `json:"suggestions"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// RebalanceService compares projected holdings against allocation targets
// and suggests trades for holdings that drifted past a threshold.
type RebalanceService struct {
	portfolioRepo *repository.PortfolioRepository
	targetRepo    *repository.AllocationTargetRepository
	projector     *ProjectorService
	prices        pricing.Provider
}

// NewRebalanceService creates a new RebalanceService.
func NewRebalanceService(
	portfolioRepo *repository.PortfolioRepository,
	targetRepo *repository.AllocationTargetRepository,
	projector *ProjectorService,
	prices pricing.Provider,
) *RebalanceService {
	return &RebalanceService{
		portfolioRepo: portfolioRepo,
		targetRepo:    targetRepo,
		projector:     projector,
		prices:        prices,
	}
}

// Suggest computes rebalancing suggestions for every held symbol that has
// a configured target allocation. Holdings without a target are left out
// entirely rather than treated as 0% targets. A symbol whose price cannot
// be fetched is marked unavailable and excluded from the portfolio total
// instead of failing the whole computation.
func (s *RebalanceService) Suggest(ctx context.Context, ownerID, portfolioID int64, driftThreshold float64) (*RebalanceReport, error) {
	if driftThreshold < 0 {
		return nil, errors.ValidationField("threshold", errors.CodeOutOfRange,
			"drift threshold must not be negative")
	}

	portfolio, err := s.portfolioRepo.GetByID(portfolioID)
	if err != nil {
		return nil, errors.Persistence("failed to load portfolio", err)
	}
	if portfolio == nil || portfolio.UserID != ownerID {
		return nil, errors.NotFound("portfolio")
	}

	proj, err := s.projector.ProjectCurrent(portfolioID)
	if err != nil {
		return nil, errors.Persistence("failed to project holdings", err)
	}

	targets, err := s.targetRepo.GetByPortfolioID(portfolioID)
	if err != nil {
		return nil, errors.Persistence("failed to load allocation targets", err)
	}
	targetPct := make(map[string]float64, len(targets))
	targetTotal := 0.0
	for _, t := range targets {
		targetPct[t.Symbol] = t.TargetPct
		targetTotal += t.TargetPct
	}

	symbols := proj.Symbols()
	sort.Strings(symbols)
	quotes := pricing.GetQuotes(ctx, s.prices, symbols)

	// Unpriced holdings drop out of the total so the remaining
	// percentages stay internally consistent.
	totalValue := proj.CashBalance
	for _, symbol := range symbols {
		if q, ok := quotes[symbol]; ok {
			totalValue += proj.HoldingQuantity(symbol) * q.Price
		}
	}

	report := &RebalanceReport{
		PortfolioID:    portfolioID,
		TotalValue:     totalValue,
		CashBalance:    proj.CashBalance,
		DriftThreshold: driftThreshold,
		TargetTotalPct: targetTotal,
		Suggestions:    make([]Suggestion, 0),
		GeneratedAt:    time.Now(),
	}

	for _, symbol := range symbols {
		target, hasTarget := targetPct[symbol]
		if !hasTarget {
			continue
		}

		quote, priced := quotes[symbol]
		if !priced {
			report.Suggestions = append(report.Suggestions, Suggestion{
				Symbol:           symbol,
				TargetPct:        target,
				PriceUnavailable: true,
			})
			continue
		}
		if totalValue <= 0 {
			continue
		}

		currentPct := proj.HoldingQuantity(symbol) * quote.Price / totalValue * 100
		drift := currentPct - target
		if math.Abs(drift) < driftThreshold {
			continue
		}

		action := "BUY"
		if drift > 0 {
			action = "SELL"
		}
		qty := math.Abs(drift) / 100 * totalValue / quote.Price
		qty = math.Floor(qty*quantityPrecision) / quantityPrecision

		report.Suggestions = append(report.Suggestions, Suggestion{
			Symbol:       symbol,
			Action:       action,
			Quantity:     qty,
			CurrentPct:   currentPct,
			TargetPct:    target,
			DriftPct:     drift,
			CurrentPrice: quote.Price,
		})
	}

	// Largest absolute drift first
	sort.SliceStable(report.Suggestions, func(i, j int) bool {
		return math.Abs(report.Suggestions[i].DriftPct) > math.Abs(report.Suggestions[j].DriftPct)
	})

	return report, nil
}
