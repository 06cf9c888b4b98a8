package main

import (
	"github.com/spf13/cobra"

	"evalgallery/internal/api"
	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
)

func newCoverCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Get, set or clear the cover attachment",
	}
	cmd.AddCommand(
		newCoverGetCmd(cfg),
		newCoverSetCmd(cfg),
		newCoverClearCmd(cfg),
	)
	return cmd
}

func newCoverGetCmd(cfg *config.Config) *cobra.Command {
	var flags scopeFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the cover of a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := flags.scope()
			if err != nil {
				return err
			}
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.GetCover(cmd.Context(), scopeRequest(scope))
					if err != nil {
						return err
					}
					return writeCoverResponse(resp)
				})
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				covers := attachments.Covers()
				cover, ok, err := covers.GetCover(cmd.Context(), scope)
				if err != nil {
					return err
				}
				return writeCover(scope, covers.Granularity(), cover, ok)
			})
		},
	}
	bindScopeFlags(cmd, &flags)
	return cmd
}

func newCoverSetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id>",
		Short: "Make an attachment the cover of its scope",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					a, err := client.GetAttachment(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					resp, err := client.SetCover(cmd.Context(), a.Scope, a.ID)
					if err != nil {
						return err
					}
					return writeCoverResponse(resp)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				covers := attachments.Covers()
				if err := covers.SetCover(cmd.Context(), a.Scope, a); err != nil {
					return err
				}
				return writeCover(a.Scope, covers.Granularity(), a, true)
			})
		},
	}
}

func newCoverClearCmd(cfg *config.Config) *cobra.Command {
	var flags scopeFlags
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cover of a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := flags.scope()
			if err != nil {
				return err
			}
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.ClearCover(cmd.Context(), scopeRequest(scope))
					if err != nil {
						return err
					}
					return writeCoverResponse(resp)
				})
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				covers := attachments.Covers()
				if err := covers.ClearCover(cmd.Context(), scope); err != nil {
					return err
				}
				return writeCover(scope, covers.Granularity(), models.Attachment{}, false)
			})
		},
	}
	bindScopeFlags(cmd, &flags)
	return cmd
}
