package cli

import (
	"fmt"
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/spf13/cobra"
)

// NewKeyCommand creates the "key" command.
func NewKeyCommand() *cobra.Command {
	var instance string

	cmd := &cobra.Command{
		Use:   "key <class-slug>",
		Short: "Print the option key of a shipping class",
		Long: `Print the option key that stores a shipping class's exclusions.

With --instance the settings field id of one method instance is printed instead.

Examples:
  shipclassctl key fragile
  shipclassctl key fragile --instance flat_rate:1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := strings.TrimSpace(args[0])
			if slug == "" {
				return domain.ErrSlugRequired
			}

			result := map[string]string{"optionKey": domain.OptionKey(slug)}
			if instance != "" {
				if _, _, err := domain.ParseInstanceKey(instance); err != nil {
					return err
				}
				result["fieldId"] = domain.SettingFieldID(slug, instance)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			if fieldID, ok := result["fieldId"]; ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), fieldID)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), result["optionKey"])
			return err
		},
	}

	cmd.Flags().StringVar(&instance, "instance", "", "Method instance id (<method>:<instance>)")

	return cmd
}
