package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/middleware"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
	"portfolio_tracker/internal/services"
)

// TransactionHandler handles ledger routes: listing, single appends, bulk
// import and balance projection.
type TransactionHandler struct {
	ledger   *services.LedgerService
	importer *services.ImportService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger *services.LedgerService, importer *services.ImportService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, importer: importer}
}

type transactionRequest struct {
	Type            string  `json:"type"`
	Symbol          string  `json:"symbol,omitempty"`
	Quantity        float64 `json:"quantity,omitempty"`
	PricePerUnit    float64 `json:"price_per_unit,omitempty"`
	TotalAmount     float64 `json:"total_amount"`
	Fees            float64 `json:"fees,omitempty"`
	TransactionDate string  `json:"transaction_date"`
	Notes           string  `json:"notes,omitempty"`
}

// toModel converts the request to a transaction. Date parsing failures
// surface as a zero date, which the validator rejects with a field error.
func (req *transactionRequest) toModel(portfolioID int64) *models.Transaction {
	return &models.Transaction{
		PortfolioID:     portfolioID,
		Type:            models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Symbol:          strings.ToUpper(middleware.SanitizeString(req.Symbol)),
		Quantity:        req.Quantity,
		PricePerUnit:    req.PricePerUnit,
		TotalAmount:     req.TotalAmount,
		Fees:            req.Fees,
		TransactionDate: parseRequestDate(req.TransactionDate),
		Notes:           middleware.SanitizeString(req.Notes),
	}
}

func parseRequestDate(s string) time.Time {
	for _, format := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// List returns a filtered, paginated page of transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.TransactionFilter{
		Type:   models.TransactionType(strings.ToUpper(q.Get("type"))),
		Symbol: strings.ToUpper(q.Get("symbol")),
	}
	if s := q.Get("start_date"); s != "" {
		filter.StartDate = parseRequestDate(s)
		if filter.StartDate.IsZero() {
			respondError(w, errors.ValidationField("start_date", errors.CodeInvalidDate, "could not parse date"))
			return
		}
	}
	if s := q.Get("end_date"); s != "" {
		filter.EndDate = parseRequestDate(s)
		if filter.EndDate.IsZero() {
			respondError(w, errors.ValidationField("end_date", errors.CodeInvalidDate, "could not parse date"))
			return
		}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, errors.ValidationField("type", errors.CodeInvalidType, "unknown transaction type"))
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	result, err := h.ledger.List(user.ID, portfolioID, filter, repository.NewPagination(limit, offset))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create appends a single transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	stored, err := h.ledger.Append(user.ID, req.toModel(portfolioID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

type importRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

// Import applies a batch of transactions atomically.
func (h *TransactionHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	batch := make([]*models.Transaction, len(req.Transactions))
	for i := range req.Transactions {
		batch[i] = req.Transactions[i].toModel(portfolioID)
	}

	result, err := h.importer.ImportBatch(user.ID, portfolioID, batch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Balance returns the projected cash balance and holdings, optionally as
// of a past date via the as_of query parameter.
func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	portfolioID, err := urlID(r, "portfolioID")
	if err != nil {
		respondError(w, err)
		return
	}

	var proj *services.Projection
	if s := r.URL.Query().Get("as_of"); s != "" {
		asOf := parseRequestDate(s)
		if asOf.IsZero() {
			respondError(w, errors.ValidationField("as_of", errors.CodeInvalidDate, "could not parse date"))
			return
		}
		proj, err = h.ledger.BalanceAsOf(user.ID, portfolioID, asOf)
	} else {
		proj, err = h.ledger.Balance(user.ID, portfolioID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proj)
}
