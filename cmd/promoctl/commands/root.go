package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promoctl",
	Short: "CLI tool for managing cart promotions",
	Long: `Promoctl is a command-line tool for managing the promotion catalog of the
promotion engine service.

It provides commands for creating, reading, updating, and deleting promotions,
importing promotion files, and checking coupon codes against a cart.

Examples:
  promoctl list --env prod
  promoctl get 6f1b... --env prod
  promoctl create promo.yaml --env staging
  promoctl import promos.yaml --env staging
  promoctl validate FRETEGRATIS --cart cart.json --env dev`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the promotion API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
