// Package cli implements the shipclassctl commands.
//
// The commands work on local files and never touch the settings store:
// filter runs the exclusion engine against a cart, validate checks an
// exclusion config file, and key prints the option key of a class.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command output to JSON.
	jsonOutput bool

	// verbose prints extra detail to stderr.
	verbose bool
)

// Version is the semantic version of the binary, set from main.
var Version = "dev"

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shipclassctl",
		Short: "Offline tools for shipping method exclusions by shipping class",
		Long: `shipclassctl works with exclusion configs outside the store.

An exclusion config maps shipping class slugs (or their full option keys)
to method instance flags:

  fragile:
    flat_rate:1: "yes"
    local_pickup:3: "no"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewFilterCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewKeyCommand())

	return rootCmd
}

// Execute runs the root command and exits with status 1 on failure.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	if jsonOutput {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"error": map[string]interface{}{"message": err.Error()},
		}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// verboseLog prints to stderr only when --verbose is set.
func verboseLog(cmd *cobra.Command, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] "+format+"\n", args...)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
