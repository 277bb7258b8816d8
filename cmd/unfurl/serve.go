package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/unfurl/internal/app"
	"github.com/hyperifyio/unfurl/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /v1/embed?url=... over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			h := server.NewRouter(a, log.Logger.With().Str("component", "http").Logger())
			return server.Serve(cmd.Context(), cfg.ListenAddr, h, log.Logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, e.g. :8080")
	return cmd
}
