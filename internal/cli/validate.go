package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the "validate" command.
func NewValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an exclusion config file",
		Long: `Check that every class slug and method instance id of an exclusion config is
well formed and that every flag is yes, no or a boolean.

Examples:
  shipclassctl validate --config exclusions.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := ReadRawConfig(configPath)
			if err != nil {
				return err
			}
			verboseLog(cmd, "Read %d shipping classes from %s", len(raw), configPath)

			problems := raw.Validate()

			if jsonOutput {
				messages := make([]string, len(problems))
				for i, p := range problems {
					messages[i] = p.Error()
				}
				if err := writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"valid":    len(problems) == 0,
					"classes":  len(raw),
					"problems": messages,
				}); err != nil {
					return err
				}
			} else {
				for _, p := range problems {
					fmt.Fprintf(cmd.OutOrStdout(), "- %v\n", p)
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("%s: %d problem(s) found", configPath, len(problems))
			}
			if !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d shipping classes)\n", configPath, len(raw))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Exclusion config file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
