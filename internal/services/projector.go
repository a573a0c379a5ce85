package services

import (
	"time"

	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
)

// Projection is the point-in-time state derived from a portfolio's ledger:
// the cash balance and the quantity held per symbol. It is never stored;
// it is recomputed by replaying transactions in chronological order.
type Projection struct {
	CashBalance float64            `json:"cash_balance"`
	Holdings    map[string]float64 `json:"holdings"`
}

// NewProjection returns an empty projection.
func NewProjection() *Projection {
	return &Projection{Holdings: make(map[string]float64)}
}

// Apply folds one transaction into the projection. This is the only place
// that interprets transaction semantics; the validator and the rebalancing
// engine consume projections rather than re-deriving balances themselves.
//
// TotalAmount is stored unsigned; the sign comes from the type. BUY and
// WITHDRAW are cash outflows, SELL, DEPOSIT and DIVIDEND are inflows.
// Fees are subtracted from cash regardless of type.
func (p *Projection) Apply(txn *models.Transaction) {
	switch txn.Type {
	case models.TypeBuy:
		p.CashBalance -= txn.TotalAmount
		p.Holdings[txn.Symbol] += txn.Quantity
	case models.TypeSell:
		p.CashBalance += txn.TotalAmount
		p.Holdings[txn.Symbol] -= txn.Quantity
	case models.TypeDeposit:
		p.CashBalance += txn.TotalAmount
	case models.TypeWithdraw:
		p.CashBalance -= txn.TotalAmount
	case models.TypeDividend:
		p.CashBalance += txn.TotalAmount
	}
	p.CashBalance -= txn.Fees
}

// HoldingQuantity returns the quantity held for a symbol, 0 if none.
func (p *Projection) HoldingQuantity(symbol string) float64 {
	return p.Holdings[symbol]
}

// Symbols returns the symbols with a non-zero holding quantity.
func (p *Projection) Symbols() []string {
	symbols := make([]string, 0, len(p.Holdings))
	for symbol, qty := range p.Holdings {
		if qty != 0 {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// Project replays a slice of transactions, which must already be ordered
// by transaction date ascending with ties broken by insertion order.
func Project(transactions []*models.Transaction) *Projection {
	p := NewProjection()
	for _, txn := range transactions {
		p.Apply(txn)
	}
	return p
}

// ProjectorService computes projections from the ledger store.
type ProjectorService struct {
	ledgerRepo *repository.LedgerRepository
}

// NewProjectorService creates a new ProjectorService.
func NewProjectorService(ledgerRepo *repository.LedgerRepository) *ProjectorService {
	return &ProjectorService{ledgerRepo: ledgerRepo}
}

// ProjectAsOf replays all of a portfolio's transactions dated at or before
// the given instant.
func (s *ProjectorService) ProjectAsOf(portfolioID int64, instant time.Time) (*Projection, error) {
	transactions, err := s.ledgerRepo.ListAscending(portfolioID, instant)
	if err != nil {
		return nil, err
	}
	return Project(transactions), nil
}

// ProjectCurrent replays the full history of a portfolio.
func (s *ProjectorService) ProjectCurrent(portfolioID int64) (*Projection, error) {
	return s.ProjectAsOf(portfolioID, time.Now().Add(24*time.Hour))
}

// WithRepo returns a copy of the service bound to the given ledger
// repository, used to project inside an open transaction.
func (s *ProjectorService) WithRepo(ledgerRepo *repository.LedgerRepository) *ProjectorService {
	return &ProjectorService{ledgerRepo: ledgerRepo}
}
