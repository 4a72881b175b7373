package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"promoengine/internal/cli"
	"promoengine/internal/client"
	"promoengine/internal/promo"
)

var (
	importDryRun bool
	importForce  bool
)

// ImportFormat is the document shape for bulk promotion files.
type ImportFormat struct {
	Promotions []promo.Promotion `yaml:"promotions" json:"promotions"`
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import promotions from a file",
	Long: `Import promotions from a YAML or JSON file.

Examples:
  promoctl import promos.yaml --env prod
  promoctl import promos.yaml --env staging --dry-run
  promoctl import promos.yaml --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ImportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Promotions) == 0 {
			return fmt.Errorf("no promotions found in file")
		}

		if verbose {
			fmt.Printf("Found %d promotion(s) to import\n", len(importData.Promotions))
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following promotions would be imported:")
			for _, p := range importData.Promotions {
				fmt.Printf("  - %s (status: %s, priority: %d, cumulative: %v)\n",
					p.Name, p.Status, p.Priority, p.Cumulative)
			}
			return nil
		}

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctx := context.Background()

		successCount := 0
		errorCount := 0

		for _, p := range importData.Promotions {
			if verbose {
				fmt.Printf("Importing promotion: %s\n", p.Name)
			}

			if _, err := c.UpsertPromotion(ctx, p); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import promotion '%s': %v\n", p.Name, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
