package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"wbuilder/internal/auth"
	"wbuilder/internal/config"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/policy"
	"wbuilder/internal/repository/postgres"
	"wbuilder/internal/service/credits"
	"wbuilder/internal/utils"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <script src="https://cdn.tailwindcss.com"></script>
  <title>Sample Site</title>
</head>
<body class="min-h-screen bg-slate-950 text-slate-100 flex items-center justify-center">
  <main class="text-center space-y-4">
    <h1 class="text-4xl font-bold">Hello from the seed</h1>
    <p class="text-slate-400">Ask for a revision to change this page.</p>
  </main>
</body>
</html>`

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't seed data")
	userID := flag.String("user-id", "00000000-0000-0000-0000-000000000001", "Dev user id (JWT subject)")
	email := flag.String("email", "dev@example.com", "Dev user email")
	extraCredits := flag.Int("credits", 100, "Credits granted on top of the signup grant")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.ApplyMigrations(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("Schema ready")
	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
		Clock:  utils.NewMonotonicClock(),
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	conversationRepo := postgres.NewConversationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)
	ledger := credits.NewLedger(userRepo, postgres.NewCreditTransactionRepository(repoConfig), txManager, pol.Credits.SignupGrant, logger)

	user, err := ledger.EnsureUser(ctx, *userID, *email)
	if err != nil {
		log.Fatalf("Failed to provision user: %v", err)
	}
	balance := user.Credits
	if *extraCredits > 0 {
		if balance, err = ledger.Credit(ctx, user.ID, *extraCredits, "seed"); err != nil {
			log.Fatalf("Failed to grant credits: %v", err)
		}
	}
	log.Printf("User %s ready with %d credits", user.ID, balance)

	project := &models.Project{
		UserID:        user.ID,
		Name:          "Sample Site",
		InitialPrompt: "A simple landing page",
	}
	err = txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := projectRepo.Create(ctx, project); err != nil {
			return err
		}
		if _, err := conversationRepo.Append(ctx, project.ID, models.RoleUser, project.InitialPrompt); err != nil {
			return err
		}
		v, err := versionRepo.Append(ctx, project.ID, samplePage, models.VersionDescriptionInitial)
		if err != nil {
			return err
		}
		if _, err := versionRepo.SetCurrent(ctx, project.ID, v.ID); err != nil {
			return err
		}
		_, err = conversationRepo.Append(ctx, project.ID, models.RoleAssistant, pol.Messages.Created)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to create sample project: %v", err)
	}
	log.Printf("Created project %s", project.ID)

	if cfg.JWTSecret != "" && cfg.IsDev() {
		signer, err := auth.NewHMACVerifier(cfg.JWTSecret, logger)
		if err != nil {
			log.Fatalf("Failed to create token signer: %v", err)
		}
		token, err := signer.Sign(user.ID, user.Email, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign dev token: %v", err)
		}
		fmt.Printf("Dev token (24h):\n%s\n", token)
	}

	log.Println("Seeding complete")
}
