package main

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/permlab/internal/domain/usecases"
	apihttp "github.com/0xcro3dile/permlab/internal/infrastructure/http"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				opts.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				opts.cfg.Server.MetricsAddr = metricsAddr
			}

			ctx, cancel := signalContext()
			defer cancel()

			adapter := opts.newAdapter()
			if !adapter.IsServiceHealthy(ctx) {
				log.Warnf("analysis service at %s is not reachable yet", adapter.BaseURL())
			}

			session := usecases.NewAnalysisSession(adapter,
				opts.sessionOptions(usecases.WithTransitionHook(apihttp.ObserveTransition))...)
			server := apihttp.NewServer(session, adapter, log.Log, opts.cfg.Server.Addr, opts.cfg.Server.MetricsListenAddr())
			return server.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "API listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", `Prometheus listen address; "off" or "" disables it`)
	return cmd
}
