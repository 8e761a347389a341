package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"mealplanner/config"
	_ "mealplanner/docs"
	"mealplanner/internal/adapters/auth"
	"mealplanner/internal/adapters/email"
	delivery "mealplanner/internal/delivery/http"
	"mealplanner/internal/delivery/http/controllers"
	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/repository/postgres"
	"mealplanner/internal/services"
)

const (
	contextTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title Meal Planner API
// @version 1.0
// @description Group meal planning: propose recipes for dates, commit to meals, split grocery and cook duties, and discuss.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration failed", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), contextTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("database unreachable", "err", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	recipeRepo := postgres.NewRecipeRepository(db)
	proposalRepo := postgres.NewProposalRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	mailer, err := email.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Error("mailer setup failed", "err", err)
		os.Exit(1)
	}
	notifier := services.NewNotifier(
		userRepo,
		participantRepo,
		recipeRepo,
		mailer,
		email.NewTemplateRenderer(),
		cfg.SiteHost,
		cfg.Mail.SendTimeout,
		logger,
	)

	hasher := auth.NewBcryptHasher(0)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	userService := services.NewUserService(userRepo, hasher, issuer, notifier, cfg.TokenExpiry, contextTimeout)
	recipeService := services.NewRecipeService(recipeRepo, userRepo, contextTimeout)
	proposalService := services.NewProposalService(proposalRepo, participantRepo, messageRepo, recipeRepo, userRepo, notifier, contextTimeout)

	mux := delivery.NewRouter(
		verifier,
		controllers.NewAuthController(logger, userService),
		controllers.NewUserController(logger, userService),
		controllers.NewRecipeController(logger, recipeService),
		controllers.NewProposalController(logger, proposalService),
		controllers.NewAdminController(logger, userService),
	)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "err", err)
	}
	logger.Info("server stopped")
}
