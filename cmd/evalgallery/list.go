package main

import (
	"github.com/spf13/cobra"

	"evalgallery/internal/api"
	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	var flags scopeFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the attachments of one gallery in row-major order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := flags.scope()
			if err != nil {
				return err
			}
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.GetGrid(cmd.Context(), scopeRequest(scope))
					if err != nil {
						return err
					}
					return writeGridResponse(resp)
				})
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				grid, err := attachments.Find(cmd.Context(), scope)
				if err != nil {
					return err
				}
				return writeGrid(scope, grid)
			})
		},
	}
	bindScopeFlags(cmd, &flags)
	return cmd
}
