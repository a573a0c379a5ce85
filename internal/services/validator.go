package services

import (
	"fmt"
	"math"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/models"
)

// ValidationMode selects which rule set applies when validating a
// transaction against the current projection.
type ValidationMode int

const (
	// Strict applies both structural and business rules. Normal appends.
	Strict ValidationMode = iota
	// HistoricalReplay skips the sufficient-funds and sufficient-holdings
	// checks. Used by bulk import, where history may start from a cash
	// position the system never saw. Structural rules still apply.
	HistoricalReplay
)

// amountEpsilon is the rounding slack allowed between quantity times price
// and the submitted total, beyond the declared fees.
const amountEpsilon = 0.01

// ValidateTransaction checks a transaction against the per-type structural
// rules and, in Strict mode, against the business rules using the supplied
// pre-transaction projection. It has no side effects.
func ValidateTransaction(txn *models.Transaction, proj *Projection, mode ValidationMode) error {
	if err := validateStructure(txn); err != nil {
		return err
	}
	if mode == HistoricalReplay {
		return nil
	}
	return validateBusiness(txn, proj)
}

// ValidateInsert checks a candidate transaction against the full ledger in
// Strict mode. The candidate is validated against the balance at its own
// date, then the rest of the history is replayed with the candidate folded
// in, so a backdated outflow cannot leave any later prefix with negative
// cash or holdings.
func ValidateInsert(txn *models.Transaction, history []*models.Transaction) error {
	proj := NewProjection()
	i := 0
	for ; i < len(history) && !history[i].TransactionDate.After(txn.TransactionDate); i++ {
		proj.Apply(history[i])
	}
	if err := ValidateTransaction(txn, proj, Strict); err != nil {
		return err
	}

	proj.Apply(txn)
	for ; i < len(history); i++ {
		proj.Apply(history[i])
		if err := projectionShortfall(proj); err != nil {
			return err
		}
	}
	return nil
}

// projectionShortfall reports the first negative cash balance or holding
// in a projection.
func projectionShortfall(p *Projection) error {
	if p.CashBalance < 0 {
		return errors.InsufficientFunds(-p.CashBalance)
	}
	for symbol, qty := range p.Holdings {
		if qty < 0 {
			return errors.InsufficientHoldings(symbol, -qty)
		}
	}
	return nil
}

func validateStructure(txn *models.Transaction) error {
	if !txn.Type.Valid() {
		return errors.ValidationField("type", errors.CodeInvalidType,
			fmt.Sprintf("unknown transaction type %q", txn.Type))
	}
	if txn.TransactionDate.IsZero() {
		return errors.ValidationField("transaction_date", errors.CodeInvalidDate,
			"transaction date is required")
	}
	if txn.TotalAmount < 0 {
		return errors.ValidationField("total_amount", errors.CodeMustBeNonNegative,
			"total amount must be submitted unsigned; the sign is derived from the type")
	}
	if txn.Fees < 0 {
		return errors.ValidationField("fees", errors.CodeMustBeNonNegative,
			"fees must not be negative")
	}

	if txn.Type.RequiresSymbol() && txn.Symbol == "" {
		return errors.ValidationField("symbol", errors.CodeRequired,
			fmt.Sprintf("symbol is required for %s transactions", txn.Type))
	}

	if txn.Type.IsTrade() {
		if txn.Quantity <= 0 {
			return errors.ValidationField("quantity", errors.CodeMustBePositive,
				"quantity must be greater than zero")
		}
		if txn.PricePerUnit <= 0 {
			return errors.ValidationField("price_per_unit", errors.CodeMustBePositive,
				"price per unit must be greater than zero")
		}
		if diff := math.Abs(txn.TotalAmount - txn.Quantity*txn.PricePerUnit); diff > txn.Fees+amountEpsilon {
			return errors.ValidationField("total_amount", errors.CodeAmountMismatch,
				fmt.Sprintf("total amount %.2f does not match quantity x price %.2f within fees",
					txn.TotalAmount, txn.Quantity*txn.PricePerUnit))
		}
		return nil
	}

	switch txn.Type {
	case models.TypeDeposit, models.TypeWithdraw:
		if txn.Symbol != "" {
			return errors.ValidationField("symbol", errors.CodeMustBeAbsent,
				fmt.Sprintf("symbol must be absent for %s transactions", txn.Type))
		}
		if txn.Quantity != 0 {
			return errors.ValidationField("quantity", errors.CodeMustBeAbsent,
				fmt.Sprintf("quantity must be absent for %s transactions", txn.Type))
		}
		if txn.PricePerUnit != 0 {
			return errors.ValidationField("price_per_unit", errors.CodeMustBeAbsent,
				fmt.Sprintf("price per unit must be absent for %s transactions", txn.Type))
		}
		if txn.TotalAmount <= 0 {
			return errors.ValidationField("total_amount", errors.CodeMustBePositive,
				"total amount must be greater than zero")
		}
	case models.TypeDividend:
		if txn.TotalAmount <= 0 {
			return errors.ValidationField("total_amount", errors.CodeMustBePositive,
				"total amount must be greater than zero")
		}
	}
	return nil
}

func validateBusiness(txn *models.Transaction, proj *Projection) error {
	switch txn.Type {
	case models.TypeBuy, models.TypeWithdraw:
		cost := txn.TotalAmount + txn.Fees
		if proj.CashBalance < cost {
			return errors.InsufficientFunds(cost - proj.CashBalance)
		}
	case models.TypeSell:
		held := proj.HoldingQuantity(txn.Symbol)
		if held < txn.Quantity {
			return errors.InsufficientHoldings(txn.Symbol, txn.Quantity-held)
		}
	}
	return nil
}
