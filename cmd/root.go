package cmd

import (
	"log/slog"
	"os"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	hostRoot   string
	baseDomain string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hosting",
	Short: "Static site hosting manager",
	Long: `hosting renders builder websites to static bundles, publishes them under
per-site subdomains and serves them by Host header.

Run "hosting serve" for the API and the router, or "hosting sites" to
inspect and repair the hosting root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return err
		}
		setupLogger(config.NewLogConfig(), verbose)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&hostRoot, "root", "", "Hosting root directory (overrides HOSTING_ROOT)")
	rootCmd.PersistentFlags().StringVar(&baseDomain, "base-domain", "", "Base domain sites are served under (overrides HOSTING_BASE_DOMAIN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogger(cfg *config.LogConfig, verbose bool) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// hostingConfig reads the environment and applies command line overrides.
func hostingConfig() *config.HostingConfig {
	cfg := config.NewHostingConfig()
	if hostRoot != "" {
		cfg.Root = hostRoot
	}
	if baseDomain != "" {
		cfg.BaseDomain = baseDomain
	}
	return cfg
}
