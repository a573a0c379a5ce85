// Package services contains business logic for the portfolio tracker.
package services

import (
	"database/sql"
	"time"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
)

// LedgerService coordinates validation, projection and persistence for a
// portfolio's transaction ledger.
type LedgerService struct {
	db            *database.DB
	ledgerRepo    *repository.LedgerRepository
	portfolioRepo *repository.PortfolioRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(db *database.DB, ledgerRepo *repository.LedgerRepository, portfolioRepo *repository.PortfolioRepository) *LedgerService {
	return &LedgerService{
		db:            db,
		ledgerRepo:    ledgerRepo,
		portfolioRepo: portfolioRepo,
	}
}

// requirePortfolio loads a portfolio and checks ownership. Missing and
// foreign portfolios are indistinguishable to the caller.
func (s *LedgerService) requirePortfolio(repo *repository.PortfolioRepository, portfolioID, ownerID int64) (*models.Portfolio, error) {
	portfolio, err := repo.GetByID(portfolioID)
	if err != nil {
		return nil, errors.Persistence("failed to load portfolio", err)
	}
	if portfolio == nil || portfolio.UserID != ownerID {
		return nil, errors.NotFound("portfolio")
	}
	return portfolio, nil
}

// Append validates and persists a single transaction. The whole sequence
// runs inside one storage transaction so the funds check always sees the
// balance left by the previous writer.
func (s *LedgerService) Append(ownerID int64, txn *models.Transaction) (*models.Transaction, error) {
	var stored *models.Transaction

	err := s.db.WithTx(func(tx *sql.Tx) error {
		portfolioRepo := s.portfolioRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if _, err := s.requirePortfolio(portfolioRepo, txn.PortfolioID, ownerID); err != nil {
			return err
		}

		history, err := ledgerRepo.ListAllAscending(txn.PortfolioID)
		if err != nil {
			return errors.Persistence("failed to load ledger history", err)
		}

		// A transaction may be backdated, so every prefix after the
		// insertion point must stay non-negative, not just the one at
		// the transaction's own date.
		if err := ValidateInsert(txn, history); err != nil {
			return err
		}

		id, err := ledgerRepo.Append(txn)
		if err != nil {
			return errors.Persistence("failed to append transaction", err)
		}

		stored = txn
		stored.ID = id
		stored.CreatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// List returns a page of transactions for display, newest first.
func (s *LedgerService) List(ownerID, portfolioID int64, filter repository.TransactionFilter, p repository.Pagination) (*repository.PaginatedResult[*models.Transaction], error) {
	if _, err := s.requirePortfolio(s.portfolioRepo, portfolioID, ownerID); err != nil {
		return nil, err
	}

	transactions, err := s.ledgerRepo.List(portfolioID, filter, p)
	if err != nil {
		return nil, errors.Persistence("failed to list transactions", err)
	}
	total, err := s.ledgerRepo.Count(portfolioID, filter)
	if err != nil {
		return nil, errors.Persistence("failed to count transactions", err)
	}

	result := repository.NewPaginatedResult(transactions, total, p)
	return &result, nil
}

// Balance projects the portfolio's current cash balance and holdings.
func (s *LedgerService) Balance(ownerID, portfolioID int64) (*Projection, error) {
	return s.BalanceAsOf(ownerID, portfolioID, time.Now().Add(24*time.Hour))
}

// BalanceAsOf projects the portfolio state at a past instant.
func (s *LedgerService) BalanceAsOf(ownerID, portfolioID int64, instant time.Time) (*Projection, error) {
	if _, err := s.requirePortfolio(s.portfolioRepo, portfolioID, ownerID); err != nil {
		return nil, err
	}

	transactions, err := s.ledgerRepo.ListAscending(portfolioID, instant)
	if err != nil {
		return nil, errors.Persistence("failed to load ledger history", err)
	}
	return Project(transactions), nil
}
