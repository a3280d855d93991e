// Package slskd is a client for the slskd daemon's search and transfer API.
package slskd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"soulspot/internal/constants"
	"soulspot/internal/httpclient"
	"soulspot/internal/logger"
)

// Client talks to a slskd daemon over its HTTP API (v0).
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *httpclient.Client
	Logger  *logger.Logger

	// Poll cadence for WaitForSearch; overridable in tests.
	SearchPoll time.Duration
	SearchWait time.Duration
}

// New creates a client for the daemon at baseURL.
func New(baseURL, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		BaseURL:    baseURL + "/api/v0",
		APIKey:     apiKey,
		HTTP:       httpclient.NewClient(&http.Client{Timeout: constants.SlskdHTTPTimeout}, 0),
		Logger:     log.WithComponent("slskd"),
		SearchPoll: constants.SearchPollInterval,
		SearchWait: constants.SearchMaxWait,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-API-Key": c.APIKey}
}

// StartSearch begins a network search and returns the search identifier.
func (c *Client) StartSearch(ctx context.Context, query string, timeoutMS int) (string, error) {
	body := searchRequest{
		SearchText:               query,
		SearchTimeout:            timeoutMS,
		FilterResponses:          true,
		MaximumPeerQueueLength:   constants.SearchMaxQueueLength,
		MinimumPeerUploadSpeed:   0,
		MinimumResponseFileCount: 1,
		ResponseLimit:            constants.SearchResponseLimit,
	}

	var resp searchStateResponse
	if err := c.HTTP.DoJSON(ctx, http.MethodPost, c.BaseURL+"/searches", c.headers(), body, &resp); err != nil {
		return "", fmt.Errorf("failed to start search: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("daemon returned no search id for query %q", query)
	}
	c.Logger.Info("Search started", "query", query, "search_id", resp.ID)
	return resp.ID, nil
}

// SearchState returns the daemon's state string for a search.
func (c *Client) SearchState(ctx context.Context, searchID string) (string, error) {
	u := fmt.Sprintf("%s/searches/%s?includeResponses=false", c.BaseURL, url.PathEscape(searchID))
	var resp searchStateResponse
	if err := c.HTTP.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get search state: %w", err)
	}
	return resp.State, nil
}

// SearchResponses fetches all peer responses collected for a search.
func (c *Client) SearchResponses(ctx context.Context, searchID string) ([]SearchResponse, error) {
	u := fmt.Sprintf("%s/searches/%s/responses", c.BaseURL, url.PathEscape(searchID))
	var responses []SearchResponse
	if err := c.HTTP.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &responses); err != nil {
		return nil, fmt.Errorf("failed to get search responses: %w", err)
	}
	return responses, nil
}

// WaitForSearch polls until the search leaves the InProgress state or
// the wait budget is spent, then returns the collected responses.
func (c *Client) WaitForSearch(ctx context.Context, searchID string) ([]SearchResponse, error) {
	var elapsed time.Duration
	for elapsed < c.SearchWait {
		state, err := c.SearchState(ctx, searchID)
		if err != nil {
			return nil, err
		}
		if state != "InProgress" {
			break
		}

		timer := time.NewTimer(c.SearchPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		elapsed += c.SearchPoll
	}

	responses, err := c.SearchResponses(ctx, searchID)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("Search finished", "search_id", searchID, "responses", len(responses))
	return responses, nil
}

// DeleteSearch removes a completed search from the daemon. Best-effort:
// errors are logged and ignored.
func (c *Client) DeleteSearch(ctx context.Context, searchID string) {
	u := fmt.Sprintf("%s/searches/%s", c.BaseURL, url.PathEscape(searchID))
	if err := c.HTTP.DoJSON(ctx, http.MethodDelete, u, c.headers(), nil, nil); err != nil {
		c.Logger.Debug("Failed to delete search", "search_id", searchID, "error", err)
	}
}

// EnqueueDownload asks the daemon to download files from a peer.
func (c *Client) EnqueueDownload(ctx context.Context, username string, files []SearchFile) error {
	u := fmt.Sprintf("%s/transfers/downloads/%s", c.BaseURL, url.PathEscape(username))
	if err := c.HTTP.DoJSON(ctx, http.MethodPost, u, c.headers(), files, nil); err != nil {
		return fmt.Errorf("failed to enqueue download from %s: %w", username, err)
	}
	c.Logger.Info("Enqueued download", "username", username, "files", len(files))
	return nil
}

// UserDownloads returns the current transfer listing for one peer.
//
// The daemon responds with either a bare array of directory objects or
// an object wrapping them under "directories"; both shapes are accepted
// and malformed entries are skipped.
func (c *Client) UserDownloads(ctx context.Context, username string) ([]DownloadDirectory, error) {
	u := fmt.Sprintf("%s/transfers/downloads/%s", c.BaseURL, url.PathEscape(username))
	var raw json.RawMessage
	if err := c.HTTP.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get downloads for %s: %w", username, err)
	}
	return decodeDirectories(raw), nil
}

func decodeDirectories(raw json.RawMessage) []DownloadDirectory {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapper struct {
			Directories []json.RawMessage `json:"directories"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil
		}
		entries = wrapper.Directories
	}

	dirs := make([]DownloadDirectory, 0, len(entries))
	for _, entry := range entries {
		var dir DownloadDirectory
		if err := json.Unmarshal(entry, &dir); err != nil {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// Ping checks connectivity with the daemon.
func (c *Client) Ping(ctx context.Context) error {
	return c.HTTP.DoJSON(ctx, http.MethodGet, c.BaseURL+"/application", c.headers(), nil, nil)
}
