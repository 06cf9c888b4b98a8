package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
	"evalgallery/internal/server"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the evalgallery API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			logger.Info("storage ready", "backend", cfg.Storage.Backend, "db", cfg.DBPath, "cover_granularity", rt.attachments.Covers().Granularity())
			return server.New(addr, rt.attachments, cfg.ServletPrefix, logger).ListenAndServe()
		},
	}
}
