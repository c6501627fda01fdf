// Command permlab drives gas-permeability analyses against the regression service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/permlab/internal/adapters/analysis"
	"github.com/0xcro3dile/permlab/internal/config"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	baseURL    string
	strict     bool

	cfg config.Config
}

func main() {
	log.SetHandler(cli.New(os.Stderr))
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("permlab failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "permlab",
		Short:         "Forchheimer and Klinkenberg permeability analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "analysis service base URL")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "reject malformed measurement lists locally")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newServeCommand(opts),
		newWatchCommand(opts),
		newCheckCommand(opts),
	)
	return root
}

// load reads configuration and applies flag overrides and the log level.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.Analysis.BaseURL = o.baseURL
	}
	if cmd.Flags().Changed("strict") {
		cfg.Session.StrictParsing = o.strict
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	o.cfg = cfg
	return nil
}

func (o *globalOptions) newAdapter() *analysis.Adapter {
	adapter := analysis.NewAdapter(o.cfg.Analysis.BaseURL, o.cfg.Analysis.Timeout, log.Log)
	adapter.SetMaxBodyBytes(o.cfg.Analysis.MaxBodyBytes)
	return adapter
}

func (o *globalOptions) sessionOptions(extra ...usecases.SessionOption) []usecases.SessionOption {
	return append([]usecases.SessionOption{
		usecases.WithLogger(log.Log),
		usecases.WithStrictParsing(o.cfg.Session.StrictParsing),
	}, extra...)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the analysis service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter := opts.newAdapter()
			if !adapter.IsServiceHealthy(cmd.Context()) {
				return fmt.Errorf("analysis service at %s is not reachable", adapter.BaseURL())
			}
			log.Infof("analysis service at %s is up", adapter.BaseURL())
			return nil
		},
	}
}
