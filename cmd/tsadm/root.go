package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig       string
	flagTailnet      string
	flagAPIKey       string
	flagClientID     string
	flagClientSecret string
	flagTimeout      string
	flagLogLevel     string
	flagTokenFile    string
	flagRedisAddr    string
)

// rootCmd is the base command of tsadm.
var rootCmd = &cobra.Command{
	Use:   "tsadm",
	Short: "Manage a Tailscale tailnet",
	Long: `tsadm manages devices, auth keys, and the policy file of a Tailscale
tailnet. Credentials come from flags, TS_* environment variables (optionally
via a .env file), or a YAML config file, in that order of precedence.

With OAuth client credentials, access tokens can be persisted to a file or
to Redis so repeated invocations reuse a still-valid token.`,
	// SilenceUsage keeps error output clean: a failed API call is not a
	// usage mistake.
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	flags.StringVar(&flagTailnet, "tailnet", "", `tailnet name ("-" for the default tailnet of the credentials)`)
	flags.StringVar(&flagAPIKey, "api-key", "", "static Tailscale API key")
	flags.StringVar(&flagClientID, "client-id", "", "OAuth client ID")
	flags.StringVar(&flagClientSecret, "client-secret", "", "OAuth client secret")
	flags.StringVar(&flagTimeout, "timeout", "", `request timeout (e.g. "8s")`)
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&flagTokenFile, "token-file", "", "file for persisting OAuth access tokens")
	flags.StringVar(&flagRedisAddr, "redis-addr", "", "Redis address for persisting OAuth access tokens")

	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newPolicyCmd())
	rootCmd.AddCommand(newStatusCmd())
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
