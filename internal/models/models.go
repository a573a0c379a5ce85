// Package models contains the domain models for the portfolio tracker.
package models

import "time"

// User represents a registered user and owns portfolios.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session represents a user session for authentication.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Portfolio represents a collection of transactions owned by a user.
// At most one portfolio per user carries the default flag; create/update
// paths clear the flag on siblings inside the same storage transaction.
type Portfolio struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransactionType classifies a ledger transaction.
type TransactionType string

// Transaction types.
const (
	TypeBuy      TransactionType = "BUY"
	TypeSell     TransactionType = "SELL"
	TypeDeposit  TransactionType = "DEPOSIT"
	TypeWithdraw TransactionType = "WITHDRAW"
	TypeDividend TransactionType = "DIVIDEND"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeBuy, TypeSell, TypeDeposit, TypeWithdraw, TypeDividend:
		return true
	}
	return false
}

// RequiresSymbol reports whether transactions of this type must name an asset.
func (t TransactionType) RequiresSymbol() bool {
	switch t {
	case TypeBuy, TypeSell, TypeDividend:
		return true
	}
	return false
}

// IsTrade reports whether this type moves asset quantity (BUY/SELL).
func (t TransactionType) IsTrade() bool {
	return t == TypeBuy || t == TypeSell
}

// Transaction is one immutable row in a portfolio's ledger.
// Corrections are modeled as new offsetting transactions, never edits.
// TotalAmount is submitted unsigned; the projector applies the sign by type.
type Transaction struct {
	ID              int64           `json:"id"`
	PortfolioID     int64           `json:"portfolio_id"`
	Type            TransactionType `json:"type"`
	Symbol          string          `json:"symbol,omitempty"`
	Quantity        float64         `json:"quantity,omitempty"`
	PricePerUnit    float64         `json:"price_per_unit,omitempty"`
	TotalAmount     float64         `json:"total_amount"`
	Fees            float64         `json:"fees"`
	TransactionDate time.Time       `json:"transaction_date"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AllocationTarget is the desired allocation percentage for one symbol
// within a portfolio. Written out-of-band via the targets API; the
// rebalancing engine treats it as read-only input.
type AllocationTarget struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	TargetPct   float64   `json:"target_pct"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
