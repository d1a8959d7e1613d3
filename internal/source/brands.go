package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/campaign-insights/internal/pkg/httpretry"
)

// BrandPath is the brand lookup endpoint on the backend.
const BrandPath = "/api/brand-management"

// BrandRow is one entry of the brand-management response.
type BrandRow struct {
	Brand    string `json:"brand"`
	Industry string `json:"industry"`
}

// BrandClient fetches the brand -> industry lookup.
type BrandClient struct {
	baseURL string
	http    httpretry.HTTPDoer
	timeout time.Duration
}

func NewBrandClient(baseURL string, doer httpretry.HTTPDoer, timeout time.Duration) *BrandClient {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 3)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrandClient{baseURL: strings.TrimRight(baseURL, "/"), http: doer, timeout: timeout}
}

// FetchBrands returns brand -> industry. Later duplicates win.
func (c *BrandClient) FetchBrands(ctx context.Context) (map[string]string, error) {
	if c.baseURL == "" {
		return nil, fetchErr("brands", ErrNotConfigured)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BrandPath, nil)
	if err != nil {
		return nil, fetchErr("brands", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fetchErr("brands", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fetchErr("brands", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var rows []BrandRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fetchErr("brands", fmt.Errorf("decoding response: %w", err))
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if b := strings.TrimSpace(r.Brand); b != "" {
			out[b] = strings.TrimSpace(r.Industry)
		}
	}
	return out, nil
}
