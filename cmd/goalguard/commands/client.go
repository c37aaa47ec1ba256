package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/goalguard/internal/version"
)

// bridgeClient calls a running goalguard bridge.
type bridgeClient struct {
	baseURL string
	http    *http.Client
}

func newBridgeClient() (*bridgeClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &bridgeClient{
		baseURL: "http://" + cfg.Server.Addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// do sends a body-less request and decodes a JSON response into dst when
// dst is non-nil.
func (c *bridgeClient) do(ctx context.Context, method, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge not reachable at %s (is 'goalguard serve' running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bridge returned %s: %s", resp.Status, body)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
