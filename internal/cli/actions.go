package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List every registered action as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(rt.registry.Actions())
		},
	}
}
