package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/openapi-actions/internal/dispatch"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <action>",
		Short: "Dispatch one action and print its result",
		Example: strings.TrimSpace(`  openapi-actions call petstore:listPets --arg limit=10
  openapi-actions call petstore:createPet --json '{"body": {"name": "Fluffy"}}'`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := resolveCallArguments(cmd.Flags())
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			result, err := rt.dispatcher.Dispatch(cmd.Context(), args[0], arguments)
			if err != nil {
				failure := dispatch.FailureFrom(err)
				encoder := json.NewEncoder(cmd.ErrOrStderr())
				encoder.SetIndent("", "  ")
				_ = encoder.Encode(failure)
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().StringArray("arg", nil, "Argument as key=value (value parsed as JSON when possible); repeatable")
	cmd.Flags().String("json", "", "All arguments as one JSON object (merged over --arg values)")

	return cmd
}

// resolveCallArguments merges --arg pairs and the --json object into one
// argument map. JSON-parsable --arg values keep their parsed type; everything
// else stays a string.
func resolveCallArguments(flags *pflag.FlagSet) (map[string]any, error) {
	arguments := map[string]any{}

	pairs, err := flags.GetStringArray("arg")
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, newUsageError(fmt.Sprintf("call: invalid --arg %q (expected key=value)", pair))
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			arguments[key] = parsed
		} else {
			arguments[key] = value
		}
	}

	rawJSON, err := flags.GetString("json")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawJSON) != "" {
		var fromJSON map[string]any
		if err := json.Unmarshal([]byte(rawJSON), &fromJSON); err != nil {
			return nil, newUsageError(fmt.Sprintf("call: invalid --json value: %v", err))
		}
		for key, value := range fromJSON {
			arguments[key] = value
		}
	}

	return arguments, nil
}
