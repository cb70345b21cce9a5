package cli

import (
	"fmt"
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/exclusion"
	"github.com/spf13/cobra"
)

type filterFlags struct {
	configPath string
	cartPath   string
	ratesPath  string
}

// NewFilterCommand creates the "filter" command.
func NewFilterCommand() *cobra.Command {
	flags := &filterFlags{}

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply an exclusion config to a cart's candidate rates",
		Long: `Remove the rates excluded by the shipping classes of a cart and print the
remaining rates with one notice per removed rate.

Examples:
  shipclassctl filter --config exclusions.yaml --cart cart.json --rates rates.json
  shipclassctl filter -c exclusions.json --cart cart.jsonc --rates rates.jsonc --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Exclusion config file (YAML or JSON)")
	cmd.Flags().StringVar(&flags.cartPath, "cart", "", "Cart items file (JSON or JSONC)")
	cmd.Flags().StringVar(&flags.ratesPath, "rates", "", "Candidate rates file (JSON or JSONC)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("cart")
	_ = cmd.MarkFlagRequired("rates")

	return cmd
}

func runFilter(cmd *cobra.Command, flags *filterFlags) error {
	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	items, err := ReadCart(flags.cartPath)
	if err != nil {
		return err
	}
	rates, err := ReadRates(flags.ratesPath)
	if err != nil {
		return err
	}
	verboseLog(cmd, "Loaded %d classes, %d items, %d rates", len(cfg), len(items), len(rates))

	result := exclusion.Compute(items, cfg, rates)
	if excluded := exclusion.ExcludedMethodIDs(items, cfg); len(excluded) > 0 {
		verboseLog(cmd, "Cart excludes method instances: %s", strings.Join(excluded, ", "))
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "Remaining rates (%d of %d):\n", len(result.RemainingRates), len(rates))
	for _, rate := range result.RemainingRates {
		fmt.Fprintf(out, "  %-20s %-30s %s\n", rate.ID, rate.Label, rate.Cost.StringFixed(2))
	}
	if len(result.Notices) > 0 {
		fmt.Fprintln(out, "Notices:")
		for _, notice := range result.Notices {
			fmt.Fprintf(out, "  %s\n", notice)
		}
	}
	return nil
}
