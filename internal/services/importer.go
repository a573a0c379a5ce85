package services

import (
	"database/sql"
	"sort"

	"github.com/google/uuid"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
)

// ImportResult reports a successful bulk import.
type ImportResult struct {
	BatchID  string `json:"batch_id"`
	Imported int    `json:"imported"`
}

// ImportError identifies the first failing row of a rejected batch. Row is
// the 1-based index within the batch as submitted, not after reordering.
// WouldSucceed counts the rows that validated before the failure; none of
// them are persisted.
type ImportError struct {
	Row          int    `json:"row"`
	Field        string `json:"field,omitempty"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message"`
	WouldSucceed int    `json:"would_succeed"`
}

// ImportService applies a batch of transactions to a portfolio atomically.
type ImportService struct {
	db            *database.DB
	ledgerRepo    *repository.LedgerRepository
	portfolioRepo *repository.PortfolioRepository
}

// NewImportService creates a new ImportService.
func NewImportService(db *database.DB, ledgerRepo *repository.LedgerRepository, portfolioRepo *repository.PortfolioRepository) *ImportService {
	return &ImportService{
		db:            db,
		ledgerRepo:    ledgerRepo,
		portfolioRepo: portfolioRepo,
	}
}

// indexedTransaction pairs a transaction with its 1-based position in the
// submitted batch, so errors can point at the caller's row numbering after
// the chronological reorder.
type indexedTransaction struct {
	row int
	txn *models.Transaction
}

// ImportBatch persists an entire batch or nothing. The batch is replayed
// oldest first regardless of submission order, in HistoricalReplay mode,
// so pre-existing history with an unknown starting balance loads cleanly.
// On the first failing row the whole batch rolls back and the returned
// error describes the row, the field and how many rows would have made it.
func (s *ImportService) ImportBatch(ownerID, portfolioID int64, batch []*models.Transaction) (*ImportResult, error) {
	if len(batch) == 0 {
		return nil, errors.Validation("import batch is empty")
	}

	indexed := make([]indexedTransaction, len(batch))
	for i, txn := range batch {
		txn.PortfolioID = portfolioID
		indexed[i] = indexedTransaction{row: i + 1, txn: txn}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].txn.TransactionDate.Before(indexed[j].txn.TransactionDate)
	})

	var importErr *ImportError

	err := s.db.WithTx(func(tx *sql.Tx) error {
		portfolioRepo := s.portfolioRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if _, err := s.requirePortfolio(portfolioRepo, portfolioID, ownerID); err != nil {
			return err
		}

		for applied, it := range indexed {
			if err := ValidateTransaction(it.txn, nil, HistoricalReplay); err != nil {
				importErr = &ImportError{
					Row:          it.row,
					Message:      err.Error(),
					WouldSucceed: applied,
				}
				if appErr, ok := errors.AsAppError(err); ok {
					importErr.Field = appErr.Field
					importErr.Code = appErr.Code
					importErr.Message = appErr.Message
				}
				return err
			}
			if _, err := ledgerRepo.Append(it.txn); err != nil {
				importErr = &ImportError{
					Row:          it.row,
					Message:      "failed to persist transaction",
					WouldSucceed: applied,
				}
				return errors.Persistence("failed to persist import row", err)
			}
		}
		return nil
	})
	if err != nil {
		if importErr != nil {
			details := map[string]any{
				"row":           importErr.Row,
				"would_succeed": importErr.WouldSucceed,
			}
			if appErr, ok := errors.AsAppError(err); ok {
				return nil, appErr.WithDetails(details)
			}
			return nil, errors.Validation(importErr.Message).WithDetails(details)
		}
		return nil, err
	}

	return &ImportResult{
		BatchID:  uuid.NewString(),
		Imported: len(batch),
	}, nil
}

func (s *ImportService) requirePortfolio(repo *repository.PortfolioRepository, portfolioID, ownerID int64) (*models.Portfolio, error) {
	portfolio, err := repo.GetByID(portfolioID)
	if err != nil {
		return nil, errors.Persistence("failed to load portfolio", err)
	}
	if portfolio == nil || portfolio.UserID != ownerID {
		return nil, errors.NotFound("portfolio")
	}
	return portfolio, nil
}
