package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"promoengine/internal/cli"
	"promoengine/internal/client"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a promotion",
	Long: `Get details of a specific promotion.

Examples:
  promoctl get 6f1b9f3c --env prod
  promoctl get 6f1b9f3c --env prod --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		p, err := c.GetPromotion(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get promotion: %w", err)
		}

		if !quiet {
			return cli.PrintPromotion(p, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
