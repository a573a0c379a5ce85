package repository

import (
	"database/sql"
	"time"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/models"
)

// PortfolioRepository handles portfolio database operations.
type PortfolioRepository struct {
	db database.Querier
}

// NewPortfolioRepository creates a new PortfolioRepository.
func NewPortfolioRepository(db *database.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{db: tx}
}

// transact runs fn inside a new transaction when the repository is bound to
// the connection pool. A repository already bound to a transaction runs fn
// directly on it.
func (r *PortfolioRepository) transact(fn func(repo *PortfolioRepository) error) error {
	if db, ok := r.db.(*database.DB); ok {
		return db.WithTx(func(tx *sql.Tx) error {
			return fn(r.WithTx(tx))
		})
	}
	return fn(r)
}

// Create inserts a new portfolio and returns its ID. When the default flag
// is set, the flag is cleared on the owner's other portfolios in the same
// transaction so the one-default-per-owner invariant holds.
func (r *PortfolioRepository) Create(p *models.Portfolio) (int64, error) {
	var id int64
	err := r.transact(func(repo *PortfolioRepository) error {
		if p.IsDefault {
			if err := repo.clearDefault(p.UserID); err != nil {
				return err
			}
		}
		var err error
		id, err = repo.insert(p)
		return err
	})
	return id, err
}

func (r *PortfolioRepository) insert(p *models.Portfolio) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO portfolios (user_id, name, description, currency, is_default)
		VALUES (?, ?, ?, ?, ?)
	`, p.UserID, p.Name, p.Description, p.Currency, boolToInt(p.IsDefault))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetByID retrieves a portfolio by ID. Returns nil if not found.
func (r *PortfolioRepository) GetByID(id int64) (*models.Portfolio, error) {
	row := r.db.QueryRow(`
		SELECT id, user_id, name, description, currency, is_default, created_at, updated_at
		FROM portfolios
		WHERE id = ?
	`, id)
	return scanPortfolio(row)
}

// GetByUserID retrieves all portfolios for a user, default first.
func (r *PortfolioRepository) GetByUserID(userID int64) ([]*models.Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, description, currency, is_default, created_at, updated_at
		FROM portfolios
		WHERE user_id = ?
		ORDER BY is_default DESC, name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := make([]*models.Portfolio, 0)
	for rows.Next() {
		p, err := scanPortfolioRows(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// Update updates a portfolio's name, description, currency and default
// flag. The clear of the old default and the write happen in one
// transaction.
func (r *PortfolioRepository) Update(p *models.Portfolio) error {
	return r.transact(func(repo *PortfolioRepository) error {
		if p.IsDefault {
			if err := repo.clearDefault(p.UserID); err != nil {
				return err
			}
		}
		return repo.update(p)
	})
}

func (r *PortfolioRepository) update(p *models.Portfolio) error {
	result, err := r.db.Exec(`
		UPDATE portfolios
		SET name = ?, description = ?, currency = ?, is_default = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, p.Currency, boolToInt(p.IsDefault), time.Now(), p.ID)
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

// Delete removes a portfolio. Its transactions and allocation targets go
// with it via ON DELETE CASCADE.
func (r *PortfolioRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
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

// clearDefault unsets the default flag on all of a user's portfolios.
func (r *PortfolioRepository) clearDefault(userID int64) error {
	_, err := r.db.Exec(`
		UPDATE portfolios SET is_default = 0 WHERE user_id = ? AND is_default = 1
	`, userID)
	return err
}

func scanPortfolio(row *sql.Row) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	var description sql.NullString
	var isDefault int

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&description,
		&p.Currency,
		&isDefault,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = description.String
	}
	p.IsDefault = isDefault == 1
	return p, nil
}

func scanPortfolioRows(rows *sql.Rows) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	var description sql.NullString
	var isDefault int

	err := rows.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&description,
		&p.Currency,
		&isDefault,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = description.String
	}
	p.IsDefault = isDefault == 1
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
