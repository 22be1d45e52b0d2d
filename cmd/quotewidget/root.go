package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tesfalem/quotewidget/internal/platform/config"
	"github.com/tesfalem/quotewidget/internal/platform/logging"
)

// profileEnv selects the configuration profile when --profile is not given.
const profileEnv = "QUOTEWIDGET_PROFILE"

// cli carries the loaded configuration into every command.
type cli struct {
	profile   string
	configDir string
	verbose   bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "quotewidget",
		Short: "Quote of the day widget",
		Long: `quotewidget keeps a local collection of quotes grouped by category,
shows a random one under the active filter and appends quotes from a remote
feed on a schedule. "serve" exposes it over HTTP; every other command works
on the same store directly.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.profile, "profile", envOr(profileEnv, "local"), "configuration profile, read from {config-dir}/{profile}.yaml")
	flags.StringVar(&c.configDir, "config-dir", config.DefaultDir, "directory holding base.yaml and the profile files")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	root.AddCommand(
		c.serveCmd(),
		c.randomCmd(),
		c.addCmd(),
		c.listCmd(),
		c.categoriesCmd(),
		c.filterCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.resetCmd(),
		c.syncCmd(),
	)

	return root
}

// setup loads and validates configuration, failing fast, then builds the
// logger. Logs go to stderr so command output stays pipeable.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(c.configDir, c.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if cmd.Name() != "serve" && !c.verbose {
		level = "warn"
	}

	c.cfg = cfg
	c.logger = logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, cmd.ErrOrStderr())

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
