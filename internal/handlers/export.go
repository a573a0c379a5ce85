package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/middleware"
	"portfolio_tracker/internal/repository"
)

// ExportHandler streams a portfolio's full ledger as CSV.
type ExportHandler struct {
	portfolioRepo *repository.PortfolioRepository
	ledgerRepo    *repository.LedgerRepository
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(portfolioRepo *repository.PortfolioRepository, ledgerRepo *repository.LedgerRepository) *ExportHandler {
	return &ExportHandler{
		portfolioRepo: portfolioRepo,
		ledgerRepo:    ledgerRepo,
	}
}

// ExportTransactions writes all transactions of a portfolio as CSV, in
// chronological order.
func (h *ExportHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	portfolio, err := h.portfolioRepo.GetByID(portfolioID)
	if err != nil {
		respondError(w, errors.Persistence("failed to load portfolio", err))
		return
	}
	if portfolio == nil || portfolio.UserID != user.ID {
		respondError(w, errors.NotFound("portfolio"))
		return
	}

	transactions, err := h.ledgerRepo.ListAscending(portfolioID, time.Now().Add(24*time.Hour))
	if err != nil {
		respondError(w, errors.Persistence("failed to load transactions", err))
		return
	}

	filename := fmt.Sprintf("transactions_%d_%s.csv", portfolioID, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"id", "date", "type", "symbol", "quantity", "price_per_unit", "total_amount", "fees", "notes"})
	for _, txn := range transactions {
		cw.Write([]string{
			strconv.FormatInt(txn.ID, 10),
			txn.TransactionDate.UTC().Format(time.RFC3339),
			string(txn.Type),
			txn.Symbol,
			strconv.FormatFloat(txn.Quantity, 'f', -1, 64),
			strconv.FormatFloat(txn.PricePerUnit, 'f', -1, 64),
			strconv.FormatFloat(txn.TotalAmount, 'f', 2, 64),
			strconv.FormatFloat(txn.Fees, 'f', 2, 64),
			txn.Notes,
		})
	}
}
