package services

import (
	"context"
	"testing"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/pricing"
)

func newRebalanceService(f *serviceFixture, prices map[string]float64) *RebalanceService {
	return NewRebalanceService(
		f.portfolioRepo,
		f.targetRepo,
		NewProjectorService(f.ledgerRepo),
		pricing.NewStaticProvider(prices),
	)
}

func (f *serviceFixture) mustSetTarget(t *testing.T, symbol string, pct float64) {
	t.Helper()
	if _, err := f.targetRepo.Upsert(&models.AllocationTarget{
		PortfolioID: f.portfolioID,
		Symbol:      symbol,
		TargetPct:   pct,
	}); err != nil {
		t.Fatalf("Upsert(%s) error = %v", symbol, err)
	}
}

// seedDriftedHolding leaves the portfolio with 24 cash and 40 shares of
// XYZ. At price 1 the total value is 64 and XYZ sits at exactly 62.5%.
func seedDriftedHolding(t *testing.T, f *serviceFixture) {
	t.Helper()
	f.mustAppend(t, txnAt(1, models.TypeDeposit, "", 0, 0, 64, 0))
	f.mustAppend(t, txnAt(2, models.TypeBuy, "XYZ", 40, 1, 40, 0))
}

func TestRebalanceService_Suggest_DriftEqualToThreshold_Included(t *testing.T) {
	f := setupServiceFixture(t)
	seedDriftedHolding(t, f)
	f.mustSetTarget(t, "XYZ", 60.5) // drift exactly 2.0

	svc := newRebalanceService(f, map[string]float64{"XYZ": 1})
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(report.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1 (boundary drift is included)", len(report.Suggestions))
	}
	s := report.Suggestions[0]
	if s.Action != "SELL" {
		t.Errorf("Action = %q, want SELL for overweight holding", s.Action)
	}
	if s.DriftPct != 2.0 {
		t.Errorf("DriftPct = %v, want 2.0", s.DriftPct)
	}
	if s.Quantity != 1.28 {
		t.Errorf("Quantity = %v, want 1.28", s.Quantity)
	}
}

func TestRebalanceService_Suggest_DriftBelowThreshold_Excluded(t *testing.T) {
	f := setupServiceFixture(t)
	seedDriftedHolding(t, f)
	f.mustSetTarget(t, "XYZ", 60.51) // drift 1.99

	svc := newRebalanceService(f, map[string]float64{"XYZ": 1})
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(report.Suggestions) != 0 {
		t.Errorf("got %d suggestions, want 0 (drift below threshold)", len(report.Suggestions))
	}
}

func TestRebalanceService_Suggest_UnderweightHolding_SuggestsBuy(t *testing.T) {
	f := setupServiceFixture(t)
	seedDriftedHolding(t, f)
	f.mustSetTarget(t, "XYZ", 80) // current 62.5, drift -17.5

	svc := newRebalanceService(f, map[string]float64{"XYZ": 1})
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(report.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(report.Suggestions))
	}
	s := report.Suggestions[0]
	if s.Action != "BUY" {
		t.Errorf("Action = %q, want BUY for underweight holding", s.Action)
	}
	if s.DriftPct != -17.5 {
		t.Errorf("DriftPct = %v, want -17.5", s.DriftPct)
	}
	// 17.5% of 64 at price 1
	if s.Quantity != 11.2 {
		t.Errorf("Quantity = %v, want 11.2", s.Quantity)
	}
}

func TestRebalanceService_Suggest_HoldingWithoutTarget_Excluded(t *testing.T) {
	f := setupServiceFixture(t)
	f.mustAppend(t, txnAt(1, models.TypeDeposit, "", 0, 0, 1000, 0))
	f.mustAppend(t, txnAt(2, models.TypeBuy, "XYZ", 10, 50, 500, 0))
	f.mustAppend(t, txnAt(3, models.TypeBuy, "ABC", 10, 10, 100, 0))
	f.mustSetTarget(t, "XYZ", 10) // heavily overweight

	svc := newRebalanceService(f, map[string]float64{"XYZ": 50, "ABC": 10})
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	for _, s := range report.Suggestions {
		if s.Symbol == "ABC" {
			t.Error("ABC has no target and must not appear in suggestions")
		}
	}
	if len(report.Suggestions) != 1 {
		t.Errorf("got %d suggestions, want 1", len(report.Suggestions))
	}
}

func TestRebalanceService_Suggest_PriceFailure_MarksSymbolUnavailable(t *testing.T) {
	f := setupServiceFixture(t)
	f.mustAppend(t, txnAt(1, models.TypeDeposit, "", 0, 0, 1000, 0))
	f.mustAppend(t, txnAt(2, models.TypeBuy, "XYZ", 10, 50, 500, 0))
	f.mustAppend(t, txnAt(3, models.TypeBuy, "ABC", 10, 10, 100, 0))
	f.mustSetTarget(t, "XYZ", 10)
	f.mustSetTarget(t, "ABC", 90)

	// No price configured for ABC
	svc := newRebalanceService(f, map[string]float64{"XYZ": 50})
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v, want nil (per-symbol soft fail)", err)
	}

	var abc *Suggestion
	for i := range report.Suggestions {
		if report.Suggestions[i].Symbol == "ABC" {
			abc = &report.Suggestions[i]
		}
	}
	if abc == nil {
		t.Fatal("expected an unavailable-price entry for ABC")
	}
	if !abc.PriceUnavailable {
		t.Error("ABC suggestion should be marked price-unavailable")
	}

	// 400 cash + 10 x 50 XYZ; ABC excluded from the total
	if report.TotalValue != 900 {
		t.Errorf("TotalValue = %v, want 900", report.TotalValue)
	}
}

func TestRebalanceService_Suggest_NegativeThreshold_Rejected(t *testing.T) {
	f := setupServiceFixture(t)

	svc := newRebalanceService(f, nil)
	_, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, -1)
	if !errors.IsValidation(err) {
		t.Errorf("Suggest() with negative threshold error = %v, want validation error", err)
	}
}

func TestRebalanceService_Suggest_UnknownPortfolio_NotFound(t *testing.T) {
	f := setupServiceFixture(t)

	svc := newRebalanceService(f, nil)
	_, err := svc.Suggest(context.Background(), f.ownerID, 99999, 2.0)
	if !errors.IsNotFound(err) {
		t.Errorf("Suggest() for unknown portfolio error = %v, want not found", err)
	}
}

func TestRebalanceService_Suggest_EmptyPortfolio_NoSuggestions(t *testing.T) {
	f := setupServiceFixture(t)

	svc := newRebalanceService(f, nil)
	report, err := svc.Suggest(context.Background(), f.ownerID, f.portfolioID, 2.0)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(report.Suggestions) != 0 {
		t.Errorf("got %d suggestions, want 0", len(report.Suggestions))
	}
	if report.TotalValue != 0 {
		t.Errorf("TotalValue = %v, want 0", report.TotalValue)
	}
}
