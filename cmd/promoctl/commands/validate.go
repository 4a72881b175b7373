package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"promoengine/internal/api"
	"promoengine/internal/cli"
	"promoengine/internal/client"
)

var validateCartFile string

var validateCmd = &cobra.Command{
	Use:   "validate <coupon>",
	Short: "Validate a coupon against a cart",
	Long: `Check whether a coupon code improves the outcome for a cart.

The cart file is a JSON document in the same shape the quote endpoint
accepts (cartItems, cep, shippingCost, ...).

Examples:
  promoctl validate FRETEGRATIS --cart cart.json --env dev
  promoctl validate DESCONTO10 --cart cart.json --env prod --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coupon := args[0]

		if validateCartFile == "" {
			return fmt.Errorf("--cart flag is required")
		}

		data, err := os.ReadFile(validateCartFile)
		if err != nil {
			return fmt.Errorf("failed to read cart file: %w", err)
		}

		var req api.CartRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("failed to parse cart file: %w", err)
		}
		req.Coupon = coupon

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		result, err := c.ValidateCoupon(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to validate coupon: %w", err)
		}

		if quiet {
			if !result.Valid {
				os.Exit(1)
			}
			return nil
		}

		if format == string(cli.FormatJSON) {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}

		if !result.Valid {
			fmt.Printf("Coupon '%s' rejected: it does not improve the cart outcome\n", coupon)
			return nil
		}

		fmt.Printf("Coupon '%s' accepted\n", coupon)
		if result.DiscountTotal != nil {
			fmt.Printf("Discount total: %.2f\n", *result.DiscountTotal)
		}
		for _, p := range result.Promotions {
			fmt.Printf("  - %s (%.2f)\n", p.Name, p.Discount)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateCartFile, "cart", "", "Path to the cart JSON file")
}
