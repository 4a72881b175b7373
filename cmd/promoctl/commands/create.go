package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"promoengine/internal/cli"
	"promoengine/internal/client"
	"promoengine/internal/promo"
)

var createCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create or update a promotion from a file",
	Long: `Create or update a promotion from a YAML or JSON definition file.

The file holds a single promotion document. When the document carries an id
the promotion is updated, otherwise the server assigns one.

Examples:
  promoctl create promo.yaml --env staging
  promoctl create promo.json --env prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		p, err := readPromotionFile(filename)
		if err != nil {
			return err
		}

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		id, err := c.UpsertPromotion(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to create promotion: %w", err)
		}

		if !quiet {
			fmt.Printf("Promotion '%s' saved (id: %s)\n", p.Name, id)
		}

		return nil
	},
}

// readPromotionFile parses a single promotion from a YAML or JSON file.
// JSON files decode directly; everything else goes through the YAML parser,
// which also accepts JSON.
func readPromotionFile(filename string) (promo.Promotion, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return promo.Promotion{}, fmt.Errorf("failed to read file: %w", err)
	}

	var p promo.Promotion
	if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return promo.Promotion{}, fmt.Errorf("failed to parse file: %w", err)
		}
		return p, nil
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return promo.Promotion{}, fmt.Errorf("failed to parse file: %w", err)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(createCmd)
}
