package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracker-service/internal/config"
	"tracker-service/internal/domain/gateway"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseBytes caps how much of a gateway response is read
const maxResponseBytes = 1 << 20

// Client talks to the messaging platform through its REST bridge
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type channelResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsThread bool   `json:"is_thread"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Pinned    bool   `json:"pinned"`
}

// NewClient creates a gateway client throttled to cfg.RateLimit requests per second
func NewClient(cfg *config.GatewayConfig, logger *zap.Logger) gateway.Messenger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

func (c *Client) FetchChannel(ctx context.Context, channelID string) (*gateway.Channel, error) {
	var resp channelResponse
	if err := c.do(ctx, http.MethodGet, channelPath(channelID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}

	return &gateway.Channel{
		ID:       resp.ID,
		Name:     resp.Name,
		IsThread: resp.IsThread,
	}, nil
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*gateway.MessageRef, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodGet, messagePath(channelID, messageID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	return &gateway.MessageRef{
		ID:        resp.ID,
		ChannelID: resp.ChannelID,
		Pinned:    resp.Pinned,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID string, msg gateway.Message) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, channelPath(channelID)+"/messages", msg, &resp); err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("failed to send message to %s: empty message id", channelID)
	}
	return resp.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg gateway.Message) error {
	if err := c.do(ctx, http.MethodPatch, messagePath(channelID, messageID), msg, nil); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.do(ctx, http.MethodPut, channelPath(channelID)+"/pins/"+url.PathEscape(messageID), nil, nil); err != nil {
		return fmt.Errorf("failed to pin message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	path := messagePath(channelID, messageID) + "/reactions/" + url.PathEscape(emoji)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("failed to react to message %s: %w", messageID, err)
	}
	return nil
}

// do sends one throttled request; a 404 becomes gateway.ErrNotFound
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gateway.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Warn("Gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if readErr != nil {
		return fmt.Errorf("read gateway response: %w", readErr)
	}
	if len(respBody) == 0 {
		return fmt.Errorf("empty gateway response")
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse gateway response: %w", err)
	}
	return nil
}

func channelPath(channelID string) string {
	return "/channels/" + url.PathEscape(channelID)
}

func messagePath(channelID, messageID string) string {
	return channelPath(channelID) + "/messages/" + url.PathEscape(messageID)
}
