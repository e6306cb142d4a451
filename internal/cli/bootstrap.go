package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark3labs/openapi-actions/internal/config"
	"github.com/mark3labs/openapi-actions/internal/dispatch"
	"github.com/mark3labs/openapi-actions/internal/registry"
)

// runtime is everything a command needs after startup: configuration, logger,
// the built registry, and a dispatcher over it.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
}

// buildRuntime loads configuration, constructs the registry from every
// configured binding, and wires the dispatcher. Registry construction is the
// single startup step; dispatch is accepted only once it has completed.
func buildRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := cfg.BuildLogger(verbose)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(ctx, cfg.Bindings(),
		registry.WithBaseURLLookup(cfg.BaseURL),
		registry.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	d := dispatch.New(reg,
		dispatch.CredentialSourceFunc(cfg.Credentials),
		dispatch.WithLogger(logger))

	return &runtime{cfg: cfg, logger: logger, registry: reg, dispatcher: d}, nil
}
