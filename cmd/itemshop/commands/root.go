package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/itemshop/internal/config"
)

var (
	configPath string
	envFile    string
	userID     string

	accountID   string
	metricsAddr string
	logFormat   string
	logLevel    string

	appCtx *app
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "itemshop",
		Short:         "Browse the item catalog, fill a cart and check out",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("account") {
				cfg.AccountID = accountID
			}
			if flags.Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if flags.Changed("log-format") {
				cfg.Log.Format = logFormat
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			appCtx, err = newApp(cmd.Context(), cfg, userID, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			err := appCtx.close()
			appCtx = nil
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "itemshop.yaml", "YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before ITEMSHOP_* variables")
	root.PersistentFlags().StringVarP(&userID, "user", "u", envOr("ITEMSHOP_USER", "manager"), "user the session runs as")
	root.PersistentFlags().StringVarP(&accountID, "account", "a", "", "account to shop for (overrides config)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "text, json or human")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(seedCmd(), browseCmd(), shellCmd())
	return root
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
