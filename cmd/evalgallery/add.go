package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
)

func newAddCmd(cfg *config.Config) *cobra.Command {
	var flags scopeFlags
	var label string
	var column, row int
	var files []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an attachment from local files",
		Long: "Add an attachment from local files. Pass one --file FORMAT=PATH per format " +
			"(fullsize, preview, thumbnail). Source files are copied, never moved.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := flags.scope()
			if err != nil {
				return err
			}
			sources, err := parseFileFlags(files)
			if err != nil {
				return err
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				grid, err := attachments.Create(cmd.Context(), sources, scope, label, column, row)
				if err != nil {
					return err
				}
				return writeGrid(scope, grid)
			})
		},
	}

	bindScopeFlags(cmd, &flags)
	cmd.Flags().StringVarP(&label, "label", "l", "", "attachment label")
	cmd.Flags().IntVar(&column, "column", 0, "grid column")
	cmd.Flags().IntVar(&row, "row", 0, "grid row")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "format file as FORMAT=PATH (repeatable)")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newReplaceCmd(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Replace or add one format of an attachment",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parseFileFlags([]string{file})
			if err != nil {
				return err
			}
			return withGallery(cmd.Context(), cfg, func(attachments *gallery.AttachmentStore) error {
				attachment, err := attachments.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for format, src := range sources {
					attachment, err = attachments.ReplaceFormat(cmd.Context(), attachment, format, src)
					if err != nil {
						return err
					}
				}
				return writeAttachment(attachment, attachments.ServletPathByFormat(attachment))
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "format file as FORMAT=PATH")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseFileFlags turns FORMAT=PATH pairs into sources. Each format may be
// given once and every path must name a readable regular file.
func parseFileFlags(values []string) (map[models.Format]gallery.Source, error) {
	out := make(map[models.Format]gallery.Source, len(values))
	for _, value := range values {
		name, path, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --file %q: expected FORMAT=PATH", value)
		}
		format, err := models.ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --file %q: %w", value, err)
		}
		if _, dup := out[format]; dup {
			return nil, fmt.Errorf("format %s given more than once", format)
		}
		path = strings.TrimSpace(path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", path)
		}
		out[format] = gallery.FromPath(path)
	}
	return out, nil
}
