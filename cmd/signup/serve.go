package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/signup/internal/errors"
	"github.com/vango-dev/signup/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr  string
		delay string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the signup server",
		Long: `Start the HTTP server with the signup page, the JSON API, live
validation over WebSocket and the /metrics endpoint.

Examples:
  signup serve
  signup serve --addr=127.0.0.1:9000
  signup serve --delay=0s --config=signup.yaml`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if delay != "" {
				cfg.Submit.Delay = delay
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Logger(cmd.ErrOrStderr())
			store, err := cfg.Store()
			if err != nil {
				return err
			}
			sim := cfg.Simulator(store, logger)

			srv, err := server.New(cfg.ServerConfig(sim, cfg.NewMetrics(), logger))
			if err != nil {
				return errors.New("E403").Wrap(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting signup",
				"version", version,
				"config", cfg.Path(),
				"storage", cfg.Storage.Driver,
				"submitDelay", cfg.Submit.Delay,
				"metrics", cfg.MetricsEnabled(),
			)
			if err := srv.Run(ctx); err != nil {
				return errors.New("E403").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config, then SIGNUP_ADDR)")
	cmd.Flags().StringVar(&delay, "delay", "", "Simulated submission delay, e.g. 500ms")
	return cmd
}
