package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"digital-library-backend/internal/config"
	"digital-library-backend/internal/infrastructure/database"
	"digital-library-backend/migrations"
	"digital-library-backend/pkg/logger"
)

var (
	// Global flags
	dsn string

	// down flags
	steps int
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the catalog schema migrations",
	Long: `Apply the embedded SQL migrations to PostgreSQL.

Subcommands:
  up      - Apply pending migrations
  down    - Revert applied migrations
  status  - Show migration status

The connection defaults to the DB_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Getenv("APP_ENV"))
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *database.Migrator) error {
			n, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	Long: `Revert the most recently applied migrations, newest first.

Examples:
  migrate down             # Revert the last migration
  migrate down --steps 3   # Revert the last three migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *database.Migrator) error {
			n, err := m.Down(cmd.Context(), steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %d migration(s)\n", n)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *database.Migrator) error {
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), statuses)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection URL (defaults to DB_* variables)")
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withMigrator(fn func(*database.Migrator) error) error {
	url, err := resolveDSN()
	if err != nil {
		return err
	}

	m, err := database.OpenMigrator(url, migrations.FS)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func resolveDSN() (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return "", err
	}
	return cfg.DSN(), nil
}
