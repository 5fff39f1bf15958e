package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/exchange"
	"github.com/JonMunkholm/records/internal/logging"
	"github.com/JonMunkholm/records/internal/store"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE and released in PersistentPostRunE.
type app struct {
	envFile  string
	dbDriver string
	dbURL    string

	cfg     *config.Config
	repo    store.Repository
	service *exchange.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "recordctl",
		Short: "Import and export records",
		Long: `recordctl reads and writes the record store directly, without going
through the HTTP API. Configuration comes from the environment (and an
optional .env file) exactly as for the server.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.close() },
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&a.dbDriver, "db-driver", "", "database driver, overrides DB_DRIVER")
	root.PersistentFlags().StringVar(&a.dbURL, "db-url", "", "database URL or SQLite path, overrides DATABASE_URL")

	root.AddCommand(a.exportCmd(), a.importCmd(), a.listCmd(), a.countCmd())
	return root
}

// lookup resolves configuration keys, letting flags win over the
// environment.
func (a *app) lookup(key string) (string, bool) {
	switch key {
	case "DB_DRIVER":
		if a.dbDriver != "" {
			return a.dbDriver, true
		}
	case "DATABASE_URL":
		if a.dbURL != "" {
			return a.dbURL, true
		}
	}
	return os.LookupEnv(key)
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	if a.envFile != "" {
		if _, err := os.Stat(a.envFile); err == nil {
			if err := godotenv.Load(a.envFile); err != nil {
				return fmt.Errorf("load %s: %w", a.envFile, err)
			}
		}
	}

	cfg, err := config.LoadFrom(a.lookup)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Command output goes to stdout; logs stay on stderr.
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	repo, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.repo = repo
	a.service = exchange.NewService(repo, exchange.OptionsFrom(cfg.Exchange))
	return nil
}

func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}
