package repository

import (
	"database/sql"
	"time"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/models"
)

// AllocationTargetRepository handles allocation target database operations.
type AllocationTargetRepository struct {
	db *database.DB
}

// NewAllocationTargetRepository creates a new AllocationTargetRepository.
func NewAllocationTargetRepository(db *database.DB) *AllocationTargetRepository {
	return &AllocationTargetRepository{db: db}
}

// Upsert creates or updates the target for a symbol within a portfolio.
func (r *AllocationTargetRepository) Upsert(target *models.AllocationTarget) (int64, error) {
	_, err := r.db.Exec(`
		INSERT INTO allocation_targets (portfolio_id, symbol, target_pct, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(portfolio_id, symbol)
		DO UPDATE SET target_pct = excluded.target_pct, updated_at = excluded.updated_at
	`, target.PortfolioID, target.Symbol, target.TargetPct, time.Now())
	if err != nil {
		return 0, err
	}

	// LastInsertId() returns 0 on UPDATE in SQLite, so query the ID explicitly
	var id int64
	err = r.db.QueryRow(`
		SELECT id FROM allocation_targets
		WHERE portfolio_id = ? AND symbol = ?
	`, target.PortfolioID, target.Symbol).Scan(&id)
	return id, err
}

// GetByID retrieves an allocation target by ID.
func (r *AllocationTargetRepository) GetByID(id int64) (*models.AllocationTarget, error) {
	row := r.db.QueryRow(`
		SELECT id, portfolio_id, symbol, target_pct, created_at, updated_at
		FROM allocation_targets
		WHERE id = ?
	`, id)

	target := &models.AllocationTarget{}
	err := row.Scan(
		&target.ID,
		&target.PortfolioID,
		&target.Symbol,
		&target.TargetPct,
		&target.CreatedAt,
		&target.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// GetByPortfolioID retrieves all allocation targets for a portfolio.
func (r *AllocationTargetRepository) GetByPortfolioID(portfolioID int64) ([]*models.AllocationTarget, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, symbol, target_pct, created_at, updated_at
		FROM allocation_targets
		WHERE portfolio_id = ?
		ORDER BY symbol
	`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := make([]*models.AllocationTarget, 0)
	for rows.Next() {
		target := &models.AllocationTarget{}
		err := rows.Scan(
			&target.ID,
			&target.PortfolioID,
			&target.Symbol,
			&target.TargetPct,
			&target.CreatedAt,
			&target.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// Delete removes an allocation target by ID.
func (r *AllocationTargetRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM allocation_targets WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TotalPercent returns the sum of target percentages for a portfolio.
// Used to warn when targets do not sum to 100%.
func (r *AllocationTargetRepository) TotalPercent(portfolioID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(target_pct), 0)
		FROM allocation_targets
		WHERE portfolio_id = ?
	`, portfolioID).Scan(&total)
	return total, err
}
