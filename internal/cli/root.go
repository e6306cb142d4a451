package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the openapi-actions CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "openapi-actions",
		Short:         "Expose OpenAPI operations as callable actions",
		Long:          "openapi-actions loads one or more OpenAPI documents and exposes their operations as named actions, dispatching invocations as HTTP requests against the configured backends.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{newServeCmd(), newActionsCmd(), newCallCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagErr)
		cmd.AddCommand(sub)
	}

	return cmd
}
