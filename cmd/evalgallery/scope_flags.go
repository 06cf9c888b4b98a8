package main

import (
	"github.com/spf13/cobra"

	"evalgallery/internal/models"
)

type scopeFlags struct {
	office  int64
	mission int64
	bien    int64
	gallery string
}

func bindScopeFlags(cmd *cobra.Command, f *scopeFlags) {
	cmd.Flags().Int64Var(&f.office, "office", 0, "office id")
	cmd.Flags().Int64Var(&f.mission, "mission", 0, "mission id")
	cmd.Flags().Int64Var(&f.bien, "bien", 0, "bien id")
	cmd.Flags().StringVarP(&f.gallery, "gallery", "g", string(models.GalleryPhotos), "gallery: photos, documents or plans")
}

// scope builds the scope; id ranges are checked by the gallery store.
func (f *scopeFlags) scope() (models.Scope, error) {
	g, err := models.ParseGallery(f.gallery)
	if err != nil {
		return models.Scope{}, err
	}
	return models.Scope{OfficeID: f.office, MissionID: f.mission, BienID: f.bien, Gallery: g}, nil
}
