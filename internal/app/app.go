package app

import (
	"encoding/json"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"minta-backend/internal/accounts"
	"minta-backend/internal/auth"
	"minta-backend/internal/budgets"
	"minta-backend/internal/config"
	"minta-backend/internal/constants"
	"minta-backend/internal/donations"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/health"
	"minta-backend/internal/income"
	"minta-backend/internal/infrastructure/database"
	"minta-backend/internal/investing"
	"minta-backend/internal/journal"
	"minta-backend/internal/middleware"
	"minta-backend/internal/moneymap"
	"minta-backend/internal/movements"
	"minta-backend/internal/org"
	"minta-backend/internal/savings"
	"minta-backend/internal/transfers"
	"minta-backend/internal/user"
)

// App bundles the running pieces: HTTP surface, stores and the sweeper.
type App struct {
	Fiber   *fiber.App
	DB      *gorm.DB
	Rdb     *redis.Client
	Sweeper *income.Sweeper
}

// New builds the Fiber app with all global middleware and route registration.
func New(cfg *config.Config) (*App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Session (Redis); need Redis client for health marker too
	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, err
	}
	app.Use(sessionHandler)

	// Health request marker (after session)
	app.Use(middleware.HealthMarker(rdb))

	// Response formatter (inject helpers)
	app.Use(middleware.ResponseFormatter())

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, errDB
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	// --- Routes (no auth) ---
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if db != nil {
		healthHandlers.DB = gormPinger{db: db}
	}
	app.Get("/reset", healthHandlers.Reset)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	var userFinder auth.UserFinder
	if db != nil {
		userFinder = &auth.GormUserFinder{DB: db}
	}
	authHandlers := &auth.Handlers{
		DB:         db,
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", authHandlers.Register)
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	out := &App{Fiber: app, DB: db, Rdb: rdb}

	// --- Protected modules (auth required) ---
	if db != nil && rdb != nil {
		journalService := &journal.Service{DB: db}
		quotes := investing.NewTableQuoteProvider(loadQuoteTable(cfg.QuoteTablePath))
		movementService := &movements.Service{DB: db, Journal: journalService, Quotes: quotes}

		// User module
		userService := &user.Service{DB: db, Rdb: rdb, Journal: journalService}
		userHandlers := &user.Handlers{Service: userService, Config: sessionCfg}
		userGroup := app.Group("/api/v1/users", middleware.RequireAuth())
		userGroup.Get("/view-user/:id", middleware.AuthorizePermission(constants.ViewData), userHandlers.ViewUser)
		userGroup.Get("/view-members", middleware.AuthorizePermission(constants.ViewData), userHandlers.ViewMembers)
		userGroup.Patch("/update-role", middleware.AuthorizePermission(constants.AssignRole), userHandlers.UpdateRole)
		userGroup.Delete("/remove-user", middleware.AuthorizePermission(constants.RemoveUser), userHandlers.RemoveUser)

		// Org module
		orgService := &org.Service{DB: db, Journal: journalService}
		orgHandlers := &org.Handlers{Service: orgService, Config: sessionCfg}
		orgGroup := app.Group("/api/v1/orgs", middleware.RequireAuth())
		orgGroup.Post("/create-org", orgHandlers.CreateOrg)
		orgGroup.Post("/join-org", orgHandlers.JoinOrg)
		orgGroup.Get("/view-org", orgHandlers.ViewOrg)
		orgGroup.Patch("/update-org/:id", middleware.AuthorizePermission(constants.UpdateOrg), orgHandlers.UpdateOrg)

		// Accounts module
		accountService := &accounts.Service{DB: db, Journal: journalService}
		accountHandlers := &accounts.Handlers{Service: accountService}
		accountGroup := app.Group("/api/v1/accounts", middleware.RequireAuth())
		accountGroup.Post("/sync-account", middleware.AuthorizePermission(constants.ManageAccounts), accountHandlers.SyncAccount)
		accountGroup.Get("/view-accounts", middleware.AuthorizePermission(constants.ViewData), accountHandlers.ViewAccounts)

		// Money map module
		nodeService := &moneymap.Service{DB: db}
		nodeHandlers := &moneymap.Handlers{Service: nodeService}
		nodeGroup := app.Group("/api/v1/money-map", middleware.RequireAuth())
		nodeGroup.Post("/create-node", middleware.AuthorizePermission(constants.ManageMoneyMap), nodeHandlers.CreateNode)
		nodeGroup.Get("/view-nodes", middleware.AuthorizePermission(constants.ViewData), nodeHandlers.ViewNodes)

		// Savings module
		savingsService := &savings.Service{DB: db, Journal: journalService, Movements: movementService}
		savingsHandlers := &savings.Handlers{Service: savingsService}
		savingsGroup := app.Group("/api/v1/savings", middleware.RequireAuth())
		savingsGroup.Post("/create-goal", middleware.AuthorizePermission(constants.CreateGoal), savingsHandlers.CreateGoal)
		savingsGroup.Post("/contribute", middleware.AuthorizePermission(constants.ContributeGoal), savingsHandlers.Contribute)
		savingsGroup.Get("/view-goals", middleware.AuthorizePermission(constants.ViewData), savingsHandlers.ViewGoals)

		// Budgets module
		budgetService := &budgets.Service{DB: db, Journal: journalService, Movements: movementService}
		budgetHandlers := &budgets.Handlers{Service: budgetService}
		budgetGroup := app.Group("/api/v1/budgets", middleware.RequireAuth())
		budgetGroup.Post("/create-budget", middleware.AuthorizePermission(constants.CreateBudget), budgetHandlers.CreateBudget)
		budgetGroup.Post("/record-spend", middleware.AuthorizePermission(constants.RecordSpend), budgetHandlers.RecordSpend)
		budgetGroup.Get("/view-budgets", middleware.AuthorizePermission(constants.ViewData), budgetHandlers.ViewBudgets)

		// Transfers module
		transferService := &transfers.Service{DB: db, Journal: journalService, Movements: movementService}
		transferHandlers := &transfers.Handlers{Service: transferService}
		transferGroup := app.Group("/api/v1/transfers", middleware.RequireAuth())
		transferGroup.Post("/initiate-transfer", middleware.AuthorizePermission(constants.InitiateTransfer), transferHandlers.InitiateTransfer)

		// Donations module
		donationService := &donations.Service{DB: db, Journal: journalService, Movements: movementService}
		donationHandlers := &donations.Handlers{Service: donationService}
		donationGroup := app.Group("/api/v1/donations", middleware.RequireAuth())
		donationGroup.Post("/create-cause", middleware.AuthorizePermission(constants.ManageCauses), donationHandlers.CreateCause)
		donationGroup.Post("/schedule-donation", middleware.AuthorizePermission(constants.ScheduleDonation), donationHandlers.ScheduleDonation)
		donationGroup.Get("/view-causes", middleware.AuthorizePermission(constants.ViewData), donationHandlers.ViewCauses)

		// Income module + sweeper
		incomeService := &income.Service{DB: db, Journal: journalService, Movements: movementService}
		incomeHandlers := &income.Handlers{Service: incomeService}
		incomeGroup := app.Group("/api/v1/income", middleware.RequireAuth())
		incomeGroup.Post("/create-stream", middleware.AuthorizePermission(constants.ManageStreams), incomeHandlers.CreateStream)
		incomeGroup.Post("/request-payout", middleware.AuthorizePermission(constants.RequestPayout), incomeHandlers.RequestPayout)
		incomeGroup.Get("/view-streams", middleware.AuthorizePermission(constants.ViewData), incomeHandlers.ViewStreams)
		out.Sweeper = &income.Sweeper{Service: incomeService, Schedule: cfg.SweepSchedule}

		// Investing module
		investService := &investing.Service{DB: db, Journal: journalService, Movements: movementService}
		investHandlers := &investing.Handlers{Service: investService}
		investGroup := app.Group("/api/v1/investing", middleware.RequireAuth())
		investGroup.Post("/submit-order", middleware.AuthorizePermission(constants.SubmitOrder), investHandlers.SubmitOrder)
		investGroup.Get("/view-positions/:account_id", middleware.AuthorizePermission(constants.ViewData), investHandlers.ViewPositions)

		// Movements module (approval lifecycle)
		movementHandlers := &movements.Handlers{Service: movementService}
		movementGroup := app.Group("/api/v1/movements", middleware.RequireAuth())
		movementGroup.Get("/view-requests", middleware.AuthorizePermission(constants.ViewData), movementHandlers.ViewRequests)
		movementGroup.Post("/approve-request", middleware.AuthorizePermission(constants.ApproveRequest), movementHandlers.ApproveRequest)
		movementGroup.Post("/decline-request", middleware.AuthorizePermission(constants.ApproveRequest), movementHandlers.DeclineRequest)
		movementGroup.Post("/cancel-request", movementHandlers.CancelRequest)

		// Guardrails module
		guardrailService := &guardrails.Service{DB: db, Journal: journalService}
		guardrailHandlers := &guardrails.Handlers{Service: guardrailService}
		guardrailGroup := app.Group("/api/v1/guardrails", middleware.RequireAuth())
		guardrailGroup.Get("/view-guardrails", middleware.AuthorizePermission(constants.ViewData), guardrailHandlers.ViewGuardrails)
		guardrailGroup.Patch("/update-guardrail/:guardrail_id", middleware.AuthorizePermission(constants.ManageGuardrails), guardrailHandlers.UpdateGuardrail)

		// Journal module
		journalHandlers := &journal.Handlers{Service: journalService}
		journalGroup := app.Group("/api/v1/journal", middleware.RequireAuth())
		journalGroup.Get("/view-timeline", middleware.AuthorizePermission(constants.ViewData), journalHandlers.ViewTimeline)
		journalGroup.Get("/view-entity-timeline/:entity_id", middleware.AuthorizePermission(constants.ViewData), journalHandlers.ViewEntityTimeline)
	}

	return out, nil
}

// gormPinger adapts the gorm handle to the health check's Ping interface.
type gormPinger struct {
	db *gorm.DB
}

func (p gormPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// loadQuoteTable reads a symbol -> price-in-cents table from an optional JSON
// file. A missing or unreadable file falls back to a small built-in table so
// dev environments work without setup.
func loadQuoteTable(path string) map[string]int64 {
	defaults := map[string]int64{
		"VTI":  26500,
		"VXUS": 6300,
		"BND":  7200,
		"AAPL": 23000,
	}
	if path == "" {
		return defaults
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("quote table unreadable, using defaults")
		return defaults
	}
	var table map[string]int64
	if err := json.Unmarshal(b, &table); err != nil || len(table) == 0 {
		log.Warn().Err(err).Str("path", path).Msg("quote table invalid, using defaults")
		return defaults
	}
	return table
}
