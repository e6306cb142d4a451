package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample openapi-actions configuration file",
		Long:  "Scaffold a commented openapi-actions configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return runInit(out, force)
		},
	}

	cmd.Flags().String("out", "config.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(out string, force bool) error {
	out = strings.TrimSpace(out)
	if out == "" {
		out = "config.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# openapi-actions configuration (YAML)

# Enable debug logging (also via --verbose or DEBUG=1).
# debug: false

# Optional file sink for logs, in addition to stderr.
# log_file: ""

# One entry per backend service to expose.
services:
  petstore:
    # Path or URL to the OpenAPI/Swagger document (required).
    file_location: ./petstore.yaml

    # Base address for outbound requests. Required unless the document itself
    # is served with a usable server URL configured elsewhere.
    base_url: https://petstore.example.com/v2

    # Action name prefix; defaults to the service name ("petstore:listPets").
    # prefix: petstore

    # Authentication scheme and credentials. Credentials omitted here fall
    # back to PETSTORE_API_KEY / PETSTORE_API_SECRET / PETSTORE_API_TOKEN.
    # authentication:
    #   auth_type: basic        # basic|bearer|none
    #   api_key: ...
    #   api_secret: ...
    #   api_token: ...

    # Filters. Each is a list (or comma-joined string) of shell-glob patterns.
    # include_tags: [public]
    # exclude_tags: [internal]
    # include_paths: ["/pets*"]
    # exclude_paths: ["/admin/*"]
`
