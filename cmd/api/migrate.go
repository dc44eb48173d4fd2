package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes (solo PostgreSQL)",
		Long:  `Con DB_DRIVER=mongo no hay esquema que migrar: los índices se crean al iniciar serve.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DB.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requiere DB_DRIVER=postgres (actual: %s)", cfg.DB.Driver)
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

			version, err := postgres.Migrate(cfg.DB.ConnectionString(), log.NewMigrateLogger(verbose))
			if err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			log.Info().Uint("version", version).Msg("esquema al día")
			return nil
		},
	}
	cmd.Flags().Bool("verbose", false, "mensajes de detalle de golang-migrate")
	return cmd
}
