package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	adapterlogger "catalog-api/internal/adapters/logger"
	"catalog-api/internal/config"
	"catalog-api/internal/infrastructure/auth"
	"catalog-api/internal/infrastructure/postgres"
	"catalog-api/internal/platform/storage"
	"catalog-api/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administrative tasks for the catalog API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(newMigrateCmd(func() *config.Config { return cfg }))
	root.AddCommand(newSeedCmd(func() *config.Config { return cfg }))
	return root
}

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded Postgres migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := postgres.NewPool(cmd.Context(), poolConfig(cfg()))
			if err != nil {
				return err
			}
			defer pool.Close()
			applied, err := postgres.MigrateUp(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			pool, err := postgres.NewPool(cmd.Context(), poolConfig(cfg()))
			if err != nil {
				return err
			}
			defer pool.Close()
			reverted, err := postgres.MigrateDown(cmd.Context(), pool, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", reverted)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrate.AddCommand(up, down)
	return migrate
}

func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, roles, categories and products from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := seed.Load(file)
			if err != nil {
				return err
			}
			c := cfg()
			logger := adapterlogger.New(c.LogLevel).With("component", "seed")
			backend, err := storage.Open(cmd.Context(), c, nil)
			if err != nil {
				return err
			}
			defer backend.Close()

			stores := backend.Stores
			seeder := seed.NewSeeder(seed.Stores{
				Users:      stores.Users,
				Roles:      stores.Roles,
				Categories: stores.Categories,
				Products:   stores.Products,
				Links:      stores.Links,
			}, auth.NewArgon2Hasher(auth.DefaultArgon2Params), logger)
			report, err := seeder.Apply(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created users=%d roles=%d categories=%d products=%d links=%d\n",
				report.Users, report.Roles, report.Categories, report.Products, report.Links)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "deploy/seed.yaml", "seed document")
	return cmd
}

func poolConfig(cfg *config.Config) postgres.PoolConfig {
	return postgres.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, AcquireTimeout: cfg.DBAcquireTimeout}
}
