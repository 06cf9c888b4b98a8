package main

import (
	"github.com/spf13/cobra"

	"evalgallery/internal/api"
	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
)

func newGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one attachment",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.GetAttachment(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return writeAttachmentResponse(resp)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				return writeAttachment(a, attachments.ServletPathByFormat(a))
			})
		},
	}
}

func newPathsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "paths <id>",
		Short: "Print the servlet path of every format of an attachment",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.AttachmentPaths(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					paths, err := pathsFromResponse(resp.Paths)
					if err != nil {
						return err
					}
					return writePaths(resp.ID, paths)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				return writePaths(a.ID, attachments.ServletPathByFormat(a))
			})
		},
	}
}

func newRenameCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <label>",
		Short: "Change the label of an attachment",
		Args:  requireExactlyArgs(2, "attachment id and label are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.RenameAttachment(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return writeAttachmentResponse(resp)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				renamed, err := attachments.Rename(cmd.Context(), a, args[1])
				if err != nil {
					return err
				}
				return writeAttachment(renamed, attachments.ServletPathByFormat(renamed))
			})
		},
	}
}

func newMoveCmd(cfg *config.Config) *cobra.Command {
	var column, row int
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an attachment, shifting occupants when the slot is taken",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.MoveAttachment(cmd.Context(), args[0], column, row)
					if err != nil {
						return err
					}
					return writeGridResponse(resp)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				grid, err := attachments.Move(cmd.Context(), a, column, row)
				if err != nil {
					return err
				}
				return writeGrid(a.Scope, grid)
			})
		},
	}
	cmd.Flags().IntVar(&column, "column", 0, "target column")
	cmd.Flags().IntVar(&row, "row", 0, "target row")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func newRemoveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an attachment and its files",
		Args:    requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteAPI {
				return withClient(cmd.Context(), cfg, func(client *api.Client) error {
					resp, err := client.DeleteAttachment(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return writeGridResponse(resp)
				})
			}
			return withAttachment(cmd, cfg, args[0], func(attachments *gallery.AttachmentStore, a models.Attachment) error {
				grid, err := attachments.Delete(cmd.Context(), a)
				if err != nil {
					return err
				}
				return writeGrid(a.Scope, grid)
			})
		},
	}
}

func withAttachment(cmd *cobra.Command, cfg *config.Config, id string, fn func(*gallery.AttachmentStore, models.Attachment) error) error {
	return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
		a, err := attachments.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return fn(attachments, a)
	})
}
