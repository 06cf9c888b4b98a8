package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "EVALGALLERY_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the evalgallery API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// GetGrid returns the grid of one scope.
func (c *Client) GetGrid(ctx context.Context, scope ScopeResponse) (GridResponse, error) {
	var resp GridResponse
	err := c.do(ctx, http.MethodGet, galleryPath(scope), nil, &resp)
	return resp, err
}

// CompactGrid packs one scope into columns.
func (c *Client) CompactGrid(ctx context.Context, scope ScopeResponse, columns int) (GridResponse, error) {
	var resp GridResponse
	err := c.do(ctx, http.MethodPost, galleryPath(scope)+"/compact", CompactRequest{Columns: columns}, &resp)
	return resp, err
}

// GetAttachment returns one attachment.
func (c *Client) GetAttachment(ctx context.Context, id string) (AttachmentResponse, error) {
	var resp AttachmentResponse
	err := c.do(ctx, http.MethodGet, attachmentPath(id), nil, &resp)
	return resp, err
}

// RenameAttachment replaces the label of one attachment.
func (c *Client) RenameAttachment(ctx context.Context, id, label string) (AttachmentResponse, error) {
	var resp AttachmentResponse
	err := c.do(ctx, http.MethodPatch, attachmentPath(id), RenameRequest{Label: &label}, &resp)
	return resp, err
}

// MoveAttachment relocates one attachment and returns the resulting grid.
func (c *Client) MoveAttachment(ctx context.Context, id string, column, row int) (GridResponse, error) {
	var resp GridResponse
	err := c.do(ctx, http.MethodPost, attachmentPath(id)+"/move", MoveRequest{Column: &column, Row: &row}, &resp)
	return resp, err
}

// DeleteAttachment removes one attachment and returns the resulting grid.
func (c *Client) DeleteAttachment(ctx context.Context, id string) (GridResponse, error) {
	var resp GridResponse
	err := c.do(ctx, http.MethodDelete, attachmentPath(id), nil, &resp)
	return resp, err
}

// AttachmentPaths returns the content path of every format of one attachment.
func (c *Client) AttachmentPaths(ctx context.Context, id string) (PathsResponse, error) {
	var resp PathsResponse
	err := c.do(ctx, http.MethodGet, attachmentPath(id)+"/paths", nil, &resp)
	return resp, err
}

// GetCover returns the cover of one scope.
func (c *Client) GetCover(ctx context.Context, scope ScopeResponse) (CoverResponse, error) {
	var resp CoverResponse
	err := c.do(ctx, http.MethodGet, galleryPath(scope)+"/cover", nil, &resp)
	return resp, err
}

// SetCover makes attachmentID the cover of one scope.
func (c *Client) SetCover(ctx context.Context, scope ScopeResponse, attachmentID string) (CoverResponse, error) {
	var resp CoverResponse
	err := c.do(ctx, http.MethodPut, galleryPath(scope)+"/cover", CoverSetRequest{AttachmentID: attachmentID}, &resp)
	return resp, err
}

// ClearCover removes the cover of one scope.
func (c *Client) ClearCover(ctx context.Context, scope ScopeResponse) (CoverResponse, error) {
	var resp CoverResponse
	err := c.do(ctx, http.MethodDelete, galleryPath(scope)+"/cover", nil, &resp)
	return resp, err
}

// OpenContent streams the bytes served at path, as returned in Paths.
func (c *Client) OpenContent(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func galleryPath(scope ScopeResponse) string {
	return fmt.Sprintf("/v1/offices/%d/missions/%d/biens/%d/galleries/%s",
		scope.OfficeID, scope.MissionID, scope.BienID, url.PathEscape(strings.ToLower(scope.Gallery)))
}

func attachmentPath(id string) string {
	return "/v1/attachments/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
