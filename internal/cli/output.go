package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"promoengine/internal/promo"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintPromotions outputs promotions in the specified format
func PrintPromotions(promos []promo.Promotion, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(promos)
	case FormatYAML:
		return printYAML(promos)
	case FormatTable:
		return printTable(promos)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintPromotion outputs a single promotion in the specified format
func PrintPromotion(p *promo.Promotion, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(p)
	case FormatYAML:
		return printYAML(p)
	case FormatTable:
		return printTable([]promo.Promotion{*p})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	// Wrap slices in a "promotions" key for consistency with the API
	if promos, ok := data.([]promo.Promotion); ok {
		return encoder.Encode(map[string][]promo.Promotion{"promotions": promos})
	}
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printTable(promos []promo.Promotion) error {
	table := tablewriter.NewWriter(os.Stdout)

	table.Header("ID", "Name", "Status", "Priority", "Cumulative", "Coupons", "Window", "Updated At")

	for _, p := range promos {
		cumulative := "false"
		if p.Cumulative {
			cumulative = "true"
		}

		coupons := make([]string, 0, len(p.Coupons))
		for _, c := range p.Coupons {
			coupons = append(coupons, c.Code)
		}
		couponList := strings.Join(coupons, ",")
		if len(couponList) > 30 {
			couponList = couponList[:27] + "..."
		}

		table.Append(
			p.ID,
			truncate(p.Name, 40),
			string(p.Status),
			fmt.Sprintf("%d", p.Priority),
			cumulative,
			couponList,
			formatWindow(p.StartDate, p.EndDate),
			p.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func formatWindow(start, end *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case start == nil && end == nil:
		return "-"
	case end == nil:
		return start.Format(layout) + " ->"
	case start == nil:
		return "-> " + end.Format(layout)
	default:
		return start.Format(layout) + " -> " + end.Format(layout)
	}
}
