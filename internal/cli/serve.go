package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"kitchensync/internal/config"
	"kitchensync/internal/database"
	"kitchensync/internal/handlers"
	"kitchensync/internal/kitchen"
	"kitchensync/internal/logger"
	"kitchensync/internal/recipe"
	"kitchensync/internal/session"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP interface",
		Long: `Open the database, load the built-in recipe catalog and serve the
KitchenSync routes. Settings come from the environment (PORT, BIND_ADDRESS,
DATABASE_PATH, ENVIRONMENT, LOG_LEVEL, LOGIN_DELAY, ALLOWED_ORIGINS).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.DatabasePath != "" {
		cfg.DatabasePath = opts.DatabasePath
	}
	return cfg, nil
}

// newServer wires the stores, the identity provider and the routes onto a
// fresh gin engine. The caller owns closing the database.
func newServer(cfg *config.Config, store *database.RecordStore) (*gin.Engine, error) {
	builtin, err := recipe.Builtin()
	if err != nil {
		return nil, err
	}

	identity, err := session.NewProvider(store, session.WithDelay(cfg.LoginDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	k := kitchen.New(identity, store, builtin)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handlers.SetupRoutes(r, k, cfg)

	return r, nil
}

func runServe(cfg *config.Config) error {
	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r, err := newServer(cfg, database.NewRecordStore(db))
	if err != nil {
		return err
	}

	logger.Info("Server starting", "addr", cfg.Addr(), "environment", cfg.Environment)
	return r.Run(cfg.Addr())
}
