// Package entropy draws world seeds from random.org, falling back to
// crypto/rand when no API key is configured or the service is unavailable.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// Source names reported alongside a seed.
const (
	SourceRandomOrg = "random.org"
	SourceCrypto    = "crypto/rand"
)

// Client requests seeds from random.org.
type Client struct {
	apiKey   string
	Endpoint string
	client   *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		Endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a positive 63-bit seed and where it came from. Any failure
// talking to random.org falls back to crypto/rand.
func (c *Client) Seed(ctx context.Context) (int64, string) {
	if c.Enabled() {
		seed, err := c.fetch(ctx)
		if err == nil {
			return seed, SourceRandomOrg
		}
		slog.Warn("random.org seed failed, using crypto/rand", "error", err)
	}
	return CryptoSeed(), SourceCrypto
}

// fetch asks for two 31-bit integers and joins them.
func (c *Client) fetch(ctx context.Context) (int64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      2,
			"min":    0,
			"max":    1<<31 - 1,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("random.org fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("random.org read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("random.org status %d", resp.StatusCode)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("random.org parse: %w", err)
	}
	if result.Error != nil {
		return 0, errors.New("random.org: " + result.Error.Message)
	}

	data := result.Result.Random.Data
	if len(data) < 2 {
		return 0, fmt.Errorf("random.org returned %d integers", len(data))
	}
	seed := data[0]<<31 | data[1]
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano() & (1<<63 - 1)
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
