package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"promoengine/internal/cli"
	"promoengine/internal/client"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a promotion",
	Long: `Delete a promotion from the catalog.

Examples:
  promoctl delete 6f1b9f3c --env prod
  promoctl delete 6f1b9f3c --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		if !deleteForce {
			fmt.Printf("Delete promotion '%s'? Re-run with --force to confirm.\n", id)
			return nil
		}

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		if err := c.DeletePromotion(ctx, id); err != nil {
			return fmt.Errorf("failed to delete promotion: %w", err)
		}

		if !quiet {
			fmt.Printf("Promotion '%s' deleted\n", id)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation")
}
