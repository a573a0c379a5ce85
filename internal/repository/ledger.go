package repository

import (
	"database/sql"
	"time"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/models"
)

// LedgerRepository is the append-only store of transactions per portfolio.
// There is deliberately no Update or single-row Delete: corrections are
// recorded as new offsetting transactions.
type LedgerRepository struct {
	db database.Querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *LedgerRepository) WithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// TransactionFilter narrows a listing. Zero values mean "no filter".
type TransactionFilter struct {
	Type      models.TransactionType
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
}

// Append inserts a transaction and returns its ID. Existing rows are never
// overwritten; the ID and creation timestamp are assigned by storage.
func (r *LedgerRepository) Append(txn *models.Transaction) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO transactions
			(portfolio_id, type, symbol, quantity, price_per_unit, total_amount, fees, transaction_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.PortfolioID, txn.Type, txn.Symbol, txn.Quantity, txn.PricePerUnit,
		txn.TotalAmount, txn.Fees, txn.TransactionDate.UTC().Format(time.RFC3339), txn.Notes)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListAscending retrieves all transactions up to and including the given
// instant, ordered by transaction date ascending with ties broken by
// insertion order. This is the ordering the balance projector depends on.
func (r *LedgerRepository) ListAscending(portfolioID int64, until time.Time) ([]*models.Transaction, error) {
	return r.queryTransactions(`
		SELECT id, portfolio_id, type, symbol, quantity, price_per_unit, total_amount, fees, transaction_date, notes, created_at
		FROM transactions
		WHERE portfolio_id = ? AND transaction_date <= ?
		ORDER BY transaction_date ASC, id ASC
	`, portfolioID, until.UTC().Format(time.RFC3339))
}

// ListAllAscending retrieves a portfolio's full ledger in replay order,
// including entries dated after the caller's reference point.
func (r *LedgerRepository) ListAllAscending(portfolioID int64) ([]*models.Transaction, error) {
	return r.queryTransactions(`
		SELECT id, portfolio_id, type, symbol, quantity, price_per_unit, total_amount, fees, transaction_date, notes, created_at
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY transaction_date ASC, id ASC
	`, portfolioID)
}

// List retrieves transactions for display, newest first, with optional
// type/symbol/date-range filters and pagination.
func (r *LedgerRepository) List(portfolioID int64, f TransactionFilter, p Pagination) ([]*models.Transaction, error) {
	query := `
		SELECT id, portfolio_id, type, symbol, quantity, price_per_unit, total_amount, fees, transaction_date, notes, created_at
		FROM transactions
		WHERE portfolio_id = ?`
	args := []any{portfolioID}

	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, f.Symbol)
	}
	if !f.StartDate.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, f.StartDate.UTC().Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		query += ` AND transaction_date <= ?`
		args = append(args, f.EndDate.UTC().Format(time.RFC3339))
	}

	query += `
		ORDER BY transaction_date DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset)

	return r.queryTransactions(query, args...)
}

// Count returns the number of transactions matching the filter.
func (r *LedgerRepository) Count(portfolioID int64, f TransactionFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`
	args := []any{portfolioID}

	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, f.Symbol)
	}
	if !f.StartDate.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, f.StartDate.UTC().Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		query += ` AND transaction_date <= ?`
		args = append(args, f.EndDate.UTC().Format(time.RFC3339))
	}

	var count int64
	err := r.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// CountByPortfolioID returns the number of transactions in a portfolio.
func (r *LedgerRepository) CountByPortfolioID(portfolioID int64) (int64, error) {
	return r.Count(portfolioID, TransactionFilter{})
}

// queryTransactions is a helper to query multiple transactions.
func (r *LedgerRepository) queryTransactions(query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		txn := &models.Transaction{}
		var symbol, notes sql.NullString
		var transactionDate string

		err := rows.Scan(
			&txn.ID,
			&txn.PortfolioID,
			&txn.Type,
			&symbol,
			&txn.Quantity,
			&txn.PricePerUnit,
			&txn.TotalAmount,
			&txn.Fees,
			&transactionDate,
			&notes,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if symbol.Valid {
			txn.Symbol = symbol.String
		}
		if notes.Valid {
			txn.Notes = notes.String
		}
		txn.TransactionDate = parseDate(transactionDate)

		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// parseDate handles various date formats returned by SQLite.
func parseDate(s string) time.Time {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
