package feargreed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// maxPayloadBytes bounds the graphdata response read into memory
const maxPayloadBytes = 8 << 20

// Source returns the raw Fear & Greed history payload starting at a date
type Source interface {
	FetchHistory(ctx context.Context, start time.Time) ([]byte, error)
}

// Client fetches the CNN Fear & Greed graph data.
// The endpoint rejects requests without a browser User-Agent.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates new CNN Fear & Greed client
func NewClient(cfg *config.FearGreedConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchHistory returns the raw graphdata JSON for readings since start
func (c *Client) FetchHistory(ctx context.Context, start time.Time) ([]byte, error) {
	url := fmt.Sprintf("%s/index/fearandgreed/graphdata/%s", c.baseURL, models.DateKey(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(body, 200))
	}

	logger.Debug("fear and greed history fetched",
		zap.String("start", models.DateKey(start)),
		zap.Int("bytes", len(body)),
	)

	return body, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
