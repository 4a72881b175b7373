package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"promoengine/internal/cli"
	"promoengine/internal/client"
	"promoengine/internal/promo"
)

var (
	listActiveOnly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all promotions",
	Long: `List all promotions in the catalog.

Examples:
  promoctl list --env prod
  promoctl list --env prod --format json
  promoctl list --env prod --active-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		promos, err := c.ListPromotions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list promotions: %w", err)
		}

		if listActiveOnly {
			now := time.Now()
			var active []promo.Promotion
			for _, p := range promos {
				if p.ActiveAt(now) {
					active = append(active, p)
				}
			}
			promos = active
		}

		if !quiet {
			if len(promos) == 0 {
				fmt.Println("No promotions found")
				return nil
			}
			return cli.PrintPromotions(promos, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listActiveOnly, "active-only", false, "Show only promotions active right now")
}
