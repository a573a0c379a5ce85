// Package demo provides demo data seeding for demonstration deployments.
package demo

import (
	"time"

	"github.com/rs/zerolog/log"

	"portfolio_tracker/internal/auth"
	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
	"portfolio_tracker/internal/services"
)

// Seeder seeds the database with demo data.
type Seeder struct {
	db            *database.DB
	userRepo      *repository.UserRepository
	portfolioRepo *repository.PortfolioRepository
	targetRepo    *repository.AllocationTargetRepository
	importer      *services.ImportService
}

// NewSeeder creates a new demo data seeder.
func NewSeeder(db *database.DB) *Seeder {
	ledgerRepo := repository.NewLedgerRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	return &Seeder{
		db:            db,
		userRepo:      repository.NewUserRepository(db),
		portfolioRepo: portfolioRepo,
		targetRepo:    repository.NewAllocationTargetRepository(db),
		importer:      services.NewImportService(db, ledgerRepo, portfolioRepo),
	}
}

// SeedIfEmpty seeds demo data if the database is empty.
func (s *Seeder) SeedIfEmpty() error {
	count, err := s.userRepo.CountAll()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Msg("database already has users, skipping demo seed")
		return nil
	}

	log.Info().Msg("seeding demo data")
	return s.Seed()
}

// Seed creates a demo user with a portfolio, a year of transaction
// history and allocation targets.
func (s *Seeder) Seed() error {
	passwordHash, err := auth.HashPassword("demo1234")
	if err != nil {
		return err
	}

	userID, err := s.userRepo.Create(&models.User{
		Email:        "demo@example.com",
		PasswordHash: passwordHash,
		Name:         "Demo User",
	})
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", userID).Msg("created demo user")

	portfolioID, err := s.portfolioRepo.Create(&models.Portfolio{
		UserID:      userID,
		Name:        "Long Term",
		Description: "Demo portfolio with a year of history",
		Currency:    "USD",
		IsDefault:   true,
	})
	if err != nil {
		return err
	}

	start := time.Now().AddDate(-1, 0, 0).Truncate(24 * time.Hour)
	history := []*models.Transaction{
		{Type: models.TypeDeposit, TotalAmount: 25000, TransactionDate: start},
		{Type: models.TypeBuy, Symbol: "VTI", Quantity: 40, PricePerUnit: 220, TotalAmount: 8800, Fees: 1, TransactionDate: start.AddDate(0, 0, 3)},
		{Type: models.TypeBuy, Symbol: "VXUS", Quantity: 90, PricePerUnit: 58, TotalAmount: 5220, Fees: 1, TransactionDate: start.AddDate(0, 0, 3)},
		{Type: models.TypeBuy, Symbol: "BND", Quantity: 60, PricePerUnit: 72, TotalAmount: 4320, Fees: 1, TransactionDate: start.AddDate(0, 0, 5)},
		{Type: models.TypeDividend, Symbol: "VTI", TotalAmount: 62.40, TransactionDate: start.AddDate(0, 3, 0)},
		{Type: models.TypeDeposit, TotalAmount: 5000, TransactionDate: start.AddDate(0, 4, 0)},
		{Type: models.TypeBuy, Symbol: "VTI", Quantity: 12, PricePerUnit: 235, TotalAmount: 2820, Fees: 1, TransactionDate: start.AddDate(0, 4, 2)},
		{Type: models.TypeDividend, Symbol: "BND", TotalAmount: 48.10, TransactionDate: start.AddDate(0, 6, 0)},
		{Type: models.TypeSell, Symbol: "VXUS", Quantity: 20, PricePerUnit: 62, TotalAmount: 1240, Fees: 1, TransactionDate: start.AddDate(0, 8, 0)},
		{Type: models.TypeWithdraw, TotalAmount: 1500, TransactionDate: start.AddDate(0, 9, 0)},
		{Type: models.TypeDividend, Symbol: "VTI", TotalAmount: 71.90, TransactionDate: start.AddDate(0, 9, 15)},
	}

	result, err := s.importer.ImportBatch(userID, portfolioID, history)
	if err != nil {
		return err
	}
	log.Info().Int("imported", result.Imported).Str("batch_id", result.BatchID).Msg("seeded demo transactions")

	targets := []models.AllocationTarget{
		{PortfolioID: portfolioID, Symbol: "VTI", TargetPct: 55},
		{PortfolioID: portfolioID, Symbol: "VXUS", TargetPct: 25},
		{PortfolioID: portfolioID, Symbol: "BND", TargetPct: 20},
	}
	for i := range targets {
		if _, err := s.targetRepo.Upsert(&targets[i]); err != nil {
			return err
		}
	}

	log.Info().Int64("portfolio_id", portfolioID).Msg("demo seed complete")
	return nil
}
