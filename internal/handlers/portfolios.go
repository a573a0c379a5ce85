package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/middleware"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
)

// PortfolioHandler handles portfolio CRUD routes.
type PortfolioHandler struct {
	portfolioRepo *repository.PortfolioRepository
	ledgerRepo    *repository.LedgerRepository
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioRepo *repository.PortfolioRepository, ledgerRepo *repository.LedgerRepository) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioRepo: portfolioRepo,
		ledgerRepo:    ledgerRepo,
	}
}

type portfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
	IsDefault   bool   `json:"is_default,omitempty"`
}

func (req *portfolioRequest) validate() error {
	req.Name = middleware.SanitizeString(req.Name)
	if !middleware.ValidateRequired(req.Name) {
		return errors.ValidationField("name", errors.CodeRequired, "name is required")
	}
	if !middleware.ValidateLength(req.Name, 1, 100) {
		return errors.ValidationField("name", errors.CodeOutOfRange, "name must be at most 100 characters")
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	req.Currency = strings.ToUpper(req.Currency)
	if !middleware.ValidateCurrency(req.Currency) {
		return errors.ValidationField("currency", errors.CodeInvalidType, "currency must be a 3-letter code")
	}
	return nil
}

// List returns the authenticated user's portfolios, default first.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	portfolios, err := h.portfolioRepo.GetByUserID(user.ID)
	if err != nil {
		respondError(w, errors.Persistence("failed to list portfolios", err))
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// Create creates a portfolio.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, err)
		return
	}

	portfolio := &models.Portfolio{
		UserID:      user.ID,
		Name:        req.Name,
		Description: middleware.SanitizeString(req.Description),
		Currency:    req.Currency,
		IsDefault:   req.IsDefault,
	}
	id, err := h.portfolioRepo.Create(portfolio)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, errors.Conflict("a portfolio with this name already exists"))
			return
		}
		respondError(w, errors.Persistence("failed to create portfolio", err))
		return
	}

	created, err := h.portfolioRepo.GetByID(id)
	if err != nil {
		respondError(w, errors.Persistence("failed to load portfolio", err))
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Get returns a single portfolio.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.ownedPortfolio(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, portfolio)
}

// Update modifies name, description, currency or the default flag.
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.ownedPortfolio(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, err)
		return
	}

	portfolio.Name = req.Name
	portfolio.Description = middleware.SanitizeString(req.Description)
	portfolio.Currency = req.Currency
	portfolio.IsDefault = req.IsDefault

	if err := h.portfolioRepo.Update(portfolio); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, errors.NotFound("portfolio"))
			return
		}
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, errors.Conflict("a portfolio with this name already exists"))
			return
		}
		respondError(w, errors.Persistence("failed to update portfolio", err))
		return
	}

	updated, err := h.portfolioRepo.GetByID(portfolio.ID)
	if err != nil {
		respondError(w, errors.Persistence("failed to load portfolio", err))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a portfolio. Its transactions and allocation targets go
// with it.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.ownedPortfolio(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.portfolioRepo.Delete(portfolio.ID); err != nil {
		respondError(w, errors.Persistence("failed to delete portfolio", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ownedPortfolio loads the portfolio from the URL and checks ownership.
func (h *PortfolioHandler) ownedPortfolio(r *http.Request) (*models.Portfolio, error) {
	user := middleware.GetUser(r)
	id, err := urlID(r, "portfolioID")
	if err != nil {
		return nil, err
	}

	portfolio, err := h.portfolioRepo.GetByID(id)
	if err != nil {
		return nil, errors.Persistence("failed to load portfolio", err)
	}
	if portfolio == nil || portfolio.UserID != user.ID {
		return nil, errors.NotFound("portfolio")
	}
	return portfolio, nil
}
