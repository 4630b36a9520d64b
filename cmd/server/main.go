package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"wbuilder/internal/auth"
	"wbuilder/internal/config"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/handler"
	"wbuilder/internal/handler/sse"
	"wbuilder/internal/middleware"
	"wbuilder/internal/policy"
	"wbuilder/internal/ratelimit"
	"wbuilder/internal/repository/memory"
	"wbuilder/internal/repository/postgres"
	authsvc "wbuilder/internal/service/auth"
	"wbuilder/internal/service/credits"
	"wbuilder/internal/service/llm"
	"wbuilder/internal/service/payments"
	"wbuilder/internal/service/projects"
	"wbuilder/internal/service/revision"
	"wbuilder/internal/utils"
)

const shutdownTimeout = 15 * time.Second

// storage is the set of repositories the services are wired with
type storage struct {
	users         repositories.UserRepository
	projects      repositories.ProjectRepository
	versions      repositories.VersionRepository
	conversations repositories.ConversationRepository
	creditTxs     repositories.CreditTransactionRepository
	purchases     repositories.PurchaseRepository
	txManager     repositories.TransactionManager
	close         func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage", cfg.Storage,
		"table_prefix", cfg.TablePrefix,
	)

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}
	logger.Info("policy loaded",
		"revision_cost", pol.Credits.RevisionCost,
		"creation_cost", pol.Credits.CreationCost,
		"signup_grant", pol.Credits.SignupGrant,
		"file", cfg.PolicyFile,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer store.close()

	verifier, err := setupVerifier(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	provider, err := llm.NewProviderFactory(cfg).GetProvider(cfg.CodegenProvider)
	if err != nil {
		log.Fatalf("Failed to set up code generation provider: %v", err)
	}
	generator := llm.NewGeneratorFromProvider(provider, llm.GeneratorConfig{
		Model:         cfg.CodegenModel,
		MaxTokens:     cfg.CodegenMaxTokens,
		ContextFormat: pol.RevisionPayload,
	}, logger)
	logger.Info("code generator ready", "provider", generator.Name(), "model", cfg.CodegenModel)

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword,
			"wbuilder:"+cfg.Environment+":generations",
			cfg.RevisionRateLimit, cfg.RevisionRateWindow,
		)
		if err != nil {
			log.Fatalf("Failed to create rate limiter: %v", err)
		}
		defer redisLimiter.Close()
		if err := redisLimiter.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, generation requests will be rejected until it recovers", "error", err)
		}
		limiter = redisLimiter
		logger.Info("rate limiter enabled", "limit", cfg.RevisionRateLimit, "window", cfg.RevisionRateWindow)
	}

	// Services
	ledger := credits.NewLedger(store.users, store.creditTxs, store.txManager, pol.Credits.SignupGrant, logger)
	projectService := projects.NewProjectService(store.projects, store.versions, store.conversations, store.txManager, pol, logger)
	publicationGate := projects.NewPublicationGate(store.projects, logger)
	paymentService := payments.NewPaymentService(store.purchases, ledger, store.txManager, pol, logger)
	coordinator := revision.NewCoordinator(revision.Dependencies{
		Projects:      store.projects,
		Versions:      store.versions,
		Conversations: store.conversations,
		Users:         store.users,
		TxManager:     store.txManager,
		Ledger:        ledger,
		Generator:     generator,
		Policy:        pol,
		Logger:        logger,
	})
	rollbackService := revision.NewRollbackService(store.projects, store.versions, store.conversations, store.txManager, pol, logger)
	authorizer := authsvc.NewOwnerBasedAuthorizer(store.projects)

	logger.Info("services initialized")

	handlers := &handler.Handlers{
		Projects:  handler.NewProjectHandler(projectService, coordinator, publicationGate, logger),
		Revisions: handler.NewRevisionHandler(coordinator, rollbackService, authorizer, sse.NewConfig(cfg.SSEKeepAlive), logger),
		Credits:   handler.NewCreditsHandler(ledger, paymentService, cfg.PaymentWebhookSecret, logger),
	}
	if cfg.PaymentWebhookSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET not set, payment confirmation is disabled")
	}

	// Go 1.22+ enhanced patterns
	mux := http.NewServeMux()
	handlers.Register(mux,
		middleware.Auth(verifier, ledger, logger),
		middleware.RateLimit(limiter, logger),
	)

	// Order: CORS → RequestID → RequestLog → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLog(logger)(h)
	h = middleware.RequestID(h)

	// CORS must be outermost to answer OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// setupStorage connects the configured backend. Postgres schemas are migrated on start.
func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage {
	case "memory":
		if !cfg.IsDev() {
			return nil, errors.New("memory storage is only available in dev and test")
		}
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		return &storage{
			users:         mem.Users(),
			projects:      mem.Projects(),
			versions:      mem.Versions(),
			conversations: mem.Conversations(),
			creditTxs:     mem.CreditTransactions(),
			purchases:     mem.Purchases(),
			txManager:     mem.TxManager(),
			close:         func() {},
		}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for postgres storage")
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.ApplyMigrations(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logPoolStats(logger, pool)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
			Clock:  utils.NewMonotonicClock(),
		}
		return &storage{
			users:         postgres.NewUserRepository(repoConfig),
			projects:      postgres.NewProjectRepository(repoConfig),
			versions:      postgres.NewVersionRepository(repoConfig),
			conversations: postgres.NewConversationRepository(repoConfig),
			creditTxs:     postgres.NewCreditTransactionRepository(repoConfig),
			purchases:     postgres.NewPurchaseRepository(repoConfig),
			txManager:     postgres.NewTransactionManager(repoConfig),
			close:         pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported STORAGE %q", cfg.Storage)
	}
}

func logPoolStats(logger *slog.Logger, pool *pgxpool.Pool) {
	c := pool.Config()
	logger.Info("database connected",
		"max_conns", c.MaxConns,
		"min_conns", c.MinConns,
	)
}

// setupVerifier picks JWKS verification when Supabase is configured. The
// shared-secret verifier is accepted only outside production.
func setupVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.JWTVerifier, error) {
	if cfg.SupabaseURL != "" {
		return auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	}
	if cfg.JWTSecret != "" && cfg.IsDev() {
		logger.Warn("using shared-secret JWT verification (dev/test only)")
		v, err := auth.NewHMACVerifier(cfg.JWTSecret, logger)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.New("SUPABASE_URL is required (JWT_SECRET is accepted in dev and test only)")
}
