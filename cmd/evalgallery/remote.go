package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evalgallery/internal/api"
	"evalgallery/internal/config"
	"evalgallery/internal/models"
)

const remotePingTimeout = 2 * time.Second

// remoteAPI is set by --remote: commands talk to a running srv at api_url
// instead of opening the database and blob store themselves.
var remoteAPI bool

var errRemoteUnsupported = errors.New("this command uploads files and cannot run with --remote")

func withClient(ctx context.Context, cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)
	pingCtx, cancel := context.WithTimeout(ctx, remotePingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return fmt.Errorf("server at %s is not reachable (start it with `evalgallery srv`): %w", cfg.APIURL, err)
	}
	return fn(client)
}

func scopeRequest(scope models.Scope) api.ScopeResponse {
	return api.ScopeResponse{
		OfficeID:  scope.OfficeID,
		MissionID: scope.MissionID,
		BienID:    scope.BienID,
		Gallery:   string(scope.Gallery),
	}
}

func scopeFromResponse(resp api.ScopeResponse) (models.Scope, error) {
	g, err := models.ParseGallery(resp.Gallery)
	if err != nil {
		return models.Scope{}, err
	}
	return models.Scope{OfficeID: resp.OfficeID, MissionID: resp.MissionID, BienID: resp.BienID, Gallery: g}, nil
}

func attachmentFromResponse(resp api.AttachmentResponse) (models.Attachment, map[models.Format]string, error) {
	scope, err := scopeFromResponse(resp.Scope)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	formats := make([]models.Format, 0, len(resp.Formats))
	for _, raw := range resp.Formats {
		f, err := models.ParseFormat(raw)
		if err != nil {
			return models.Attachment{}, nil, err
		}
		formats = append(formats, f)
	}
	paths, err := pathsFromResponse(resp.Paths)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	return models.Attachment{
		ID:        resp.ID,
		Scope:     scope,
		Label:     resp.Label,
		Column:    resp.Column,
		Row:       resp.Row,
		Formats:   models.SortFormats(formats),
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}, paths, nil
}

func pathsFromResponse(raw map[string]string) (map[models.Format]string, error) {
	paths := make(map[models.Format]string, len(raw))
	for name, path := range raw {
		f, err := models.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		paths[f] = path
	}
	return paths, nil
}

func writeGridResponse(resp api.GridResponse) error {
	scope, err := scopeFromResponse(resp.Scope)
	if err != nil {
		return err
	}
	entries := make([]models.Attachment, 0, len(resp.Attachments))
	for _, item := range resp.Attachments {
		a, _, err := attachmentFromResponse(item)
		if err != nil {
			return err
		}
		entries = append(entries, a)
	}
	return writeGrid(scope, models.NewGrid(entries))
}

func writeAttachmentResponse(resp api.AttachmentResponse) error {
	a, paths, err := attachmentFromResponse(resp)
	if err != nil {
		return err
	}
	return writeAttachment(a, paths)
}

func writeCoverResponse(resp api.CoverResponse) error {
	scope, err := scopeFromResponse(resp.Scope)
	if err != nil {
		return err
	}
	granularity, err := models.ParseCoverGranularity(resp.Granularity)
	if err != nil {
		return err
	}
	if !resp.Set || resp.Attachment == nil {
		return writeCover(scope, granularity, models.Attachment{}, false)
	}
	cover, _, err := attachmentFromResponse(*resp.Attachment)
	if err != nil {
		return err
	}
	return writeCover(scope, granularity, cover, true)
}
