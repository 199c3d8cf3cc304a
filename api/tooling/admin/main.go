// This program performs administrative tasks for the portal service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/spf13/cobra"
)

// Config holds the database settings shared with the service.
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"portal"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", nil)

	if err := newRootCommand(log).ExecuteContext(context.Background()); err != nil {
		log.Error(context.Background(), "admin", "err", err)
		os.Exit(1)
	}
}

func newRootCommand(log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for the NSS portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCommand(log),
		newSeedAdminCommand(log),
		newCreateTenantCommand(log),
		newGenKeyCommand(),
	)

	return root
}

func openDB() (*sqlx.DB, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	return db, nil
}
