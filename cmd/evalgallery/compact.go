package main

import (
	"github.com/spf13/cobra"

	"evalgallery/internal/api"
	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
)

const defaultCompactColumns = 4

func newCompactCmd(cfg *config.Config) *cobra.Command {
	var flags scopeFlags
	var columns int
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Pack a gallery into a gap-free grid, keeping row-major order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := flags.scope()
			if err != nil {
				return err
			}
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.CompactGrid(cmd.Context(), scopeRequest(scope), columns)
					if err != nil {
						return err
					}
					return writeGridResponse(resp)
				})
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				grid, err := attachments.Compact(cmd.Context(), scope, columns)
				if err != nil {
					return err
				}
				return writeGrid(scope, grid)
			})
		},
	}
	bindScopeFlags(cmd, &flags)
	cmd.Flags().IntVar(&columns, "columns", defaultCompactColumns, "grid width")
	return cmd
}
