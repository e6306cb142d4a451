package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-actions/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve actions over the JSON-lines stdio protocol",
		Long: "Serve reads one JSON request per line from stdin and writes one JSON " +
			"response per line to stdout. Logs go to stderr.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			srv := server.New(rt.registry, rt.dispatcher, rt.logger)
			return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
