// Package slack is the production messaging collaborator: a minimal Slack
// Web API client covering the two calls this service makes. Every call
// reports its own failure; nothing here retries.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://slack.com/api"

type Client struct {
	botToken string
	baseURL  string
	httpc    *http.Client
}

func NewClient(botToken string) *Client {
	return &Client{
		botToken: botToken,
		baseURL:  defaultBaseURL,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(botToken, baseURL string) *Client {
	c := NewClient(botToken)
	c.baseURL = baseURL
	return c
}

// apiResponse is the envelope every Web API method returns. Slack reports
// failures inside a 200 response, so the ok flag is the real status.
type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

// PostToChannel posts a message to a channel the bot is a member of.
func (c *Client) PostToChannel(ctx context.Context, channelID, text string) error {
	_, err := c.call(ctx, "chat.postMessage", map[string]string{
		"channel": channelID,
		"text":    text,
	})
	return err
}

// PostDirect opens (or reuses) the DM conversation with a platform user and
// posts the message there.
func (c *Client) PostDirect(ctx context.Context, platformUserID, text string) error {
	opened, err := c.call(ctx, "conversations.open", map[string]string{
		"users": platformUserID,
	})
	if err != nil {
		return err
	}

	return c.PostToChannel(ctx, opened.Channel.ID, text)
}

func (c *Client) call(ctx context.Context, method string, payload map[string]string) (apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack: build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack: %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiResponse{}, fmt.Errorf("slack: %s responded %s", method, resp.Status)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return apiResponse{}, fmt.Errorf("slack: decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return apiResponse{}, fmt.Errorf("slack: %s failed: %s", method, parsed.Error)
	}

	return parsed, nil
}
