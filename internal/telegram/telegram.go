// Package telegram posts news items to a channel through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"engnews/internal/logger"
	"engnews/internal/retry"
)

const defaultAPIBase = "https://api.telegram.org"

// Client talks to the Bot API directly over HTTP. apiBase is swappable so
// tests can point it at a local server.
type Client struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	retry   retry.Config
}

func NewClient(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry: retry.Config{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
			Backoff:     true,
			MaxDelay:    10 * time.Second,
		},
	}
}

// Publish sends the post, as a photo with caption when an image is
// available, as a plain message otherwise. A failed photo send falls back
// to text: losing the image should never lose the post.
func (c *Client) Publish(ctx context.Context, post Post) error {
	if post.ImageURL != "" {
		err := c.sendPhoto(ctx, post)
		if err == nil {
			return nil
		}
		logger.Warn("photo send failed, falling back to text", "url", post.Link, "error", err)
	}

	return c.sendMessage(ctx, post)
}

func (c *Client) sendMessage(ctx context.Context, post Post) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     composeMessage(post, messageLimit),
		"parse_mode":               "MarkdownV2",
		"disable_web_page_preview": false,
	}
	return c.call(ctx, "sendMessage", payload)
}

func (c *Client) sendPhoto(ctx context.Context, post Post) error {
	payload := map[string]interface{}{
		"chat_id":    c.chatID,
		"photo":      post.ImageURL,
		"caption":    composeMessage(post, captionLimit),
		"parse_mode": "MarkdownV2",
	}
	return c.call(ctx, "sendPhoto", payload)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)

	return retry.WithRetry(ctx, c.retry, func(attempt int) error {
		if attempt > 1 {
			logger.Debug("retrying api call", "method", method, "attempt", attempt)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", method, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err != nil {
			return fmt.Errorf("%s read response: %w", method, err)
		}

		var api apiResponse
		if err := json.Unmarshal(raw, &api); err != nil {
			return fmt.Errorf("%s: status %d, unparseable response", method, resp.StatusCode)
		}
		if !api.OK {
			return fmt.Errorf("%s: api error %d: %s", method, api.ErrorCode, api.Description)
		}

		return nil
	})
}
