// Package cmd is the cobra command tree: a root command that wires config
// and logging, and an analyze subcommand that runs the dependency-graph
// evaluator end to end, grounded on the teacher's cmd/root.go PreRunE
// config-then-logger bootstrap.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/soufianos01/sanitizer-checker/internal/config"
	"github.com/soufianos01/sanitizer-checker/internal/observability"
)

var cfgFile string

// NewRootCommand builds a fresh root command tree. Exposed (rather than a
// package-level var) so each invocation — CLI or test — gets an
// independent flag set.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	root := &cobra.Command{
		Use:     "sanitizer-checker",
		Short:   "Detects reachable XSS sinks via dependency-graph semantic differential analysis",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("error reading config file: %w", err)
				}
			}
			v.SetEnvPrefix("SANITIZER_CHECKER")
			v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			v.AutomaticEnv()

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "sanitizer-checker"})
				return fmt.Errorf("failed to load config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Info("starting sanitizer-checker", zap.String("version", Version))
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: none, env/defaults only)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.AddCommand(newAnalyzeCmd())
	return root
}

// Execute runs the root command and returns its terminal exit code:
// 0 when every (field, context) pair came back safe, 1 when at least one
// came back vulnerable, 2 on an input or internal error.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if ve, ok := err.(*vulnerabilitiesFoundError); ok {
			fmt.Fprintln(os.Stderr, ve.Error())
			return 1
		}
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 2
	}
	return 0
}
