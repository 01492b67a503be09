package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"carcat/internal/config"
	catalogerrors "carcat/internal/errors"
	"carcat/internal/observability"
)

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "carcat",
	Short: "Car catalog import and cache toolkit",
	Long: `carcat keeps a local car catalog in sync with external sources and serves
it over HTTP with a response cache in front of the read API.

Common usage:
  carcat import file cars.csv              # Import a CSV file
  carcat import remote https://dealer/api  # Import from a JSON API
  carcat serve                             # Serve the catalog API
  carcat cache stats                       # Inspect the server's response cache
  carcat browse                            # Browse the catalog interactively`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cfgFile, logLevel)
		if err != nil {
			return err
		}

		cfg = loaded
		logger = observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

// loadConfig loads path and applies the --log-level override, validating
// the result as a whole
func loadConfig(path, level string) (*config.Config, error) {
	loaded, err := config.Load(path)
	if err != nil {
		return nil, catalogerrors.WrapConfigError(err, path)
	}

	if level != "" {
		loaded.Logging.Level = level
		if err := loaded.Validate(); err != nil {
			return nil, catalogerrors.WrapConfigError(err, "--log-level")
		}
	}

	return loaded, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./carcat.yaml or ./config/carcat.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		var catErr *catalogerrors.CatalogError
		if errors.As(err, &catErr) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", catErr.UserFriendlyMessage())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
