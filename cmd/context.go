package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/soufianos01/sanitizer-checker/internal/config"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg config.Interface) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) config.Interface {
	if cfg, ok := cmd.Context().Value(configKey{}).(config.Interface); ok {
		return cfg
	}
	return config.NewDefaultConfig()
}
