// Package notify is a small HTTP client for pushing factory events to an
// external webhook, such as a planning system or a chat bridge.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Response is the minimal envelope the webhook endpoint answers with.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"msg,omitempty"`
}

// OrderCompleted pushes an order-completion payload. The payload is the same
// JSON that goes through the outbox, so both channels tell the same story.
func (c *Client) OrderCompleted(orderNumber string, payload []byte) error {
	var resp Response
	if err := c.postRaw("/events/order-completed", payload, &resp); err != nil {
		return fmt.Errorf("notify order %s: %w", orderNumber, err)
	}
	return checkResponse(&resp)
}

// Exception pushes a machine exception alert.
func (c *Client) Exception(excType string, machineID int64, detail string) error {
	body := map[string]any{
		"exc_type":   excType,
		"machine_id": machineID,
		"detail":     detail,
	}
	var resp Response
	if err := c.post("/events/exception", body, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

func (c *Client) post(path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.postRaw(path, raw, out)
}

func (c *Client) postRaw(path string, raw []byte, out any) error {
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func checkResponse(resp *Response) error {
	if resp.Code != 0 {
		return fmt.Errorf("webhook rejected: code %d %s", resp.Code, resp.Message)
	}
	return nil
}
