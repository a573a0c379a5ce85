package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"portfolio_tracker/internal/auth"
	"portfolio_tracker/internal/config"
	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/demo"
	"portfolio_tracker/internal/handlers"
	"portfolio_tracker/internal/middleware"
	"portfolio_tracker/internal/pricing"
	"portfolio_tracker/internal/repository"
	"portfolio_tracker/internal/services"
)

// App holds the application dependencies.
type App struct {
	config             *config.Config
	db                 *database.DB
	router             *chi.Mux
	userRepo           *repository.UserRepository
	portfolioRepo      *repository.PortfolioRepository
	ledgerRepo         *repository.LedgerRepository
	targetRepo         *repository.AllocationTargetRepository
	sessionManager     *auth.SessionManager
	authMiddleware     *middleware.AuthMiddleware
	authHandler        *handlers.AuthHandler
	portfolioHandler   *handlers.PortfolioHandler
	transactionHandler *handlers.TransactionHandler
	rebalanceHandler   *handlers.RebalanceHandler
	exportHandler      *handlers.ExportHandler
}

func main() {
	cfg := config.New()
	setupLogger(cfg)

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	if cfg.DemoMode {
		if err := demo.NewSeeder(db).SeedIfEmpty(); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	targetRepo := repository.NewAllocationTargetRepository(db)

	// Services
	ledgerService := services.NewLedgerService(db, ledgerRepo, portfolioRepo)
	importService := services.NewImportService(db, ledgerRepo, portfolioRepo)
	projector := services.NewProjectorService(ledgerRepo)
	rebalanceService := services.NewRebalanceService(portfolioRepo, targetRepo, projector, priceProvider(cfg))

	// Sessions and middleware
	sessionManager := auth.NewSessionManager(db)
	authenticator := auth.NewAuthenticator(userRepo, sessionManager)
	authMiddleware := middleware.NewAuthMiddleware(sessionManager, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authenticator)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioRepo, ledgerRepo)
	transactionHandler := handlers.NewTransactionHandler(ledgerService, importService)
	rebalanceHandler := handlers.NewRebalanceHandler(rebalanceService, targetRepo, portfolioRepo)
	exportHandler := handlers.NewExportHandler(portfolioRepo, ledgerRepo)

	app := &App{
		config:             cfg,
		db:                 db,
		userRepo:           userRepo,
		portfolioRepo:      portfolioRepo,
		ledgerRepo:         ledgerRepo,
		targetRepo:         targetRepo,
		sessionManager:     sessionManager,
		authMiddleware:     authMiddleware,
		authHandler:        authHandler,
		portfolioHandler:   portfolioHandler,
		transactionHandler: transactionHandler,
		rebalanceHandler:   rebalanceHandler,
		exportHandler:      exportHandler,
	}

	app.setupRouter()

	// Expired sessions are cleaned in the background rather than lazily
	// on each request.
	go app.cleanSessionsLoop()

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// setupLogger configures the global zerolog logger from the config.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// priceProvider selects the quote source. Demo mode runs against fixed
// prices so the seeded portfolio works offline.
func priceProvider(cfg *config.Config) pricing.Provider {
	if cfg.DemoMode {
		return pricing.NewStaticProvider(map[string]float64{
			"VTI":  242.50,
			"VXUS": 61.30,
			"BND":  73.10,
		})
	}
	return pricing.NewYahooProvider()
}

func (app *App) setupRouter() {
	r := chi.NewRouter()

	// Chi middleware (aliased as chimw to avoid conflict with our middleware package)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(middleware.SecurityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Load user from session for all routes
	r.Use(app.authMiddleware.LoadUser)

	// Health check
	r.Get("/health", app.handleHealth)

	// Auth routes, rate limited to slow down brute force attempts
	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitAuth)
		r.Post("/auth/register", app.authHandler.Register)
		r.Post("/auth/login", app.authHandler.Login)
	})
	r.Post("/auth/logout", app.authHandler.Logout)

	// Authenticated API
	r.Route("/api", func(r chi.Router) {
		r.Use(app.authMiddleware.RequireAuth)
		r.Use(middleware.LimitAPI)

		r.Get("/me", app.authHandler.Me)

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", app.portfolioHandler.List)
			r.Post("/", app.portfolioHandler.Create)

			r.Route("/{portfolioID}", func(r chi.Router) {
				r.Get("/", app.portfolioHandler.Get)
				r.Put("/", app.portfolioHandler.Update)
				r.Delete("/", app.portfolioHandler.Delete)

				r.Get("/transactions", app.transactionHandler.List)
				r.Post("/transactions", app.transactionHandler.Create)
				r.Post("/transactions/import", app.transactionHandler.Import)
				r.Get("/balance", app.transactionHandler.Balance)

				r.Get("/rebalance", app.rebalanceHandler.Suggest)
				r.Get("/targets", app.rebalanceHandler.ListTargets)
				r.Post("/targets", app.rebalanceHandler.UpsertTarget)
				r.Delete("/targets/{targetID}", app.rebalanceHandler.DeleteTarget)

				r.Get("/export/transactions", app.exportHandler.ExportTransactions)
			})
		})
	})

	app.router = r
}

// cleanSessionsLoop removes expired sessions once an hour.
func (app *App) cleanSessionsLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if n, err := app.sessionManager.CleanExpired(); err != nil {
			log.Error().Err(err).Msg("cleaning expired sessions")
		} else if n > 0 {
			log.Debug().Int64("removed", n).Msg("cleaned expired sessions")
		}
	}
}

// handleHealth returns the server health status.
func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
