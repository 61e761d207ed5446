package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"truthgate-api/config"
	"truthgate-api/internal/repository"
	"truthgate-api/internal/services"
	"truthgate-api/pkg/database"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Truthgate - database CLI tool",
		Long: `Manage the truthgate database schema and operator accounts.

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate status
  go run ./cmd/migrate ensure-admin
  go run ./cmd/migrate seed-dev`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(ensureAdminCmd())
	rootCmd.AddCommand(seedDevCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("Running migrations UP...")
			if err := database.MigrateUp(config.LoadConfig()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Println("Migrations completed successfully")
			return nil
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("Rolling back one migration...")
			if err := database.MigrateDown(config.LoadConfig()); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			log.Println("Rollback completed successfully")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if err := database.MigrationStatus(cfg); err != nil {
				return err
			}

			database.Connect(cfg)
			defer database.Close()
			if err := database.HealthCheck(); err != nil {
				log.Printf("Health check warning: %v", err)
				return nil
			}
			log.Println("Health check: PASSED")
			return nil
		},
	}
}

// ensureAdminCmd creates the staff account named by ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD. It is safe to run on every deploy.
func ensureAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-admin",
		Short: "Create the staff admin account from ADMIN_* settings if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
				log.Println("WARNING: ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must all be set; skipping")
				return nil
			}

			database.Connect(cfg)
			defer database.Close()

			auth := services.NewAuthService(repository.NewUserRepository(database.DB), cfg)
			created, err := auth.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
			if err != nil {
				return fmt.Errorf("ensure admin: %w", err)
			}
			if created {
				log.Printf("Admin user created: %s", cfg.AdminUsername)
			} else {
				log.Printf("Admin user already exists: %s", cfg.AdminUsername)
			}
			return nil
		},
	}
}

func seedDevCmd() *cobra.Command {
	seedCfg := database.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed-dev",
		Short: "Seed demo users, conversations and donations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if cfg.AppMode == config.ReleaseMode {
				return fmt.Errorf("refusing to seed demo data in release mode")
			}
			database.Connect(cfg)
			defer database.Close()

			seedCfg.Currency = cfg.GatewayCurrency
			result, err := database.Seed(cmd.Context(), database.DB, seedCfg)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Printf("Counsellor: %s", result.Counsellor.Username)
			return nil
		},
	}
	cmd.Flags().IntVar(&seedCfg.MemberCount, "members", seedCfg.MemberCount, "number of member accounts to create")
	cmd.Flags().StringVar(&seedCfg.CounsellorUsername, "counsellor", seedCfg.CounsellorUsername, "counsellor username")
	return cmd
}
