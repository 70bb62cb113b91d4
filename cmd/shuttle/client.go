package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shuttle/internal/api"
)

// apiClient talks to the daemon's HTTP endpoint.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{
		base: "http://" + addr,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Status() (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *apiClient) QueueList() ([]api.QueueItem, error) {
	var resp api.QueueListResponse
	if err := c.do(http.MethodGet, "/api/queue", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *apiClient) Enqueue(req api.EnqueueRequest) (api.QueueItem, error) {
	var resp api.QueueItemResponse
	if err := c.do(http.MethodPost, "/api/queue", req, &resp); err != nil {
		return api.QueueItem{}, err
	}
	return resp.Item, nil
}

func (c *apiClient) Remove(id string) error {
	return c.do(http.MethodDelete, "/api/queue/"+id, nil, nil)
}

func (c *apiClient) Clear() (int, error) {
	var resp api.ClearResponse
	if err := c.do(http.MethodDelete, "/api/queue", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *apiClient) History() ([]api.HistoryRecord, error) {
	var resp api.HistoryResponse
	if err := c.do(http.MethodGet, "/api/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *apiClient) do(method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
