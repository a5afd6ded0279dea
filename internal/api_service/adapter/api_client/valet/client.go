// Package valet is a client for the Bank of Canada Valet observations API.
package valet

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/andesco/odata-valet/internal/api_service/metrics"
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/pkg/errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxResponseBytes bounds how much of an upstream body is read.
const MaxResponseBytes = 8 << 20

type HTTPClient struct {
	baseURL string
	client  *http.Client
	maxBody int64
}

func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		maxBody: MaxResponseBytes,
	}
}

// NewTransportClient returns an http.Client tuned for a single slow upstream.
// The overall deadline comes from the caller's context.
func NewTransportClient() *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Transport: t}
}

// URL builds the observations request for the given series and inclusive date range.
func (c *HTTPClient) URL(codes []entities.SeriesCode, rng entities.DateRange) string {
	names := make([]string, len(codes))
	for i, code := range codes {
		names[i] = url.PathEscape(string(code))
	}

	q := url.Values{}
	q.Set("start_date", rng.StartParam())
	q.Set("end_date", rng.EndParam())

	return fmt.Sprintf("%s/observations/%s/json?%s", c.baseURL, strings.Join(names, ","), q.Encode())
}

func (c *HTTPClient) Observations(ctx context.Context, codes []entities.SeriesCode, rng entities.DateRange) ([]entities.Observation, error) {
	const op = "valet.Observations"

	start := time.Now()
	observations, status, err := c.observations(ctx, codes, rng)
	metrics.ObserveUpstream(status, time.Since(start))
	if err != nil {
		slog.Error("upstream request failed", "op", op, "error", err)
		return nil, errors.Wrap(err, op)
	}

	return observations, nil
}

func (c *HTTPClient) observations(ctx context.Context, codes []entities.SeriesCode, rng entities.DateRange) ([]entities.Observation, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(codes, rng), nil)
	if err != nil {
		return nil, "error", fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, "timeout", fmt.Errorf("%w: %v", entities.ErrUpstreamTimeout, err)
		}
		return nil, "error", fmt.Errorf("%w: %v", entities.ErrUpstream, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	status := strconv.Itoa(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if isTimeout(err) {
			return nil, "timeout", fmt.Errorf("%w: read body: %v", entities.ErrUpstreamTimeout, err)
		}
		return nil, status, fmt.Errorf("%w: read body: %v", entities.ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, status, fmt.Errorf("%w: response exceeds %d bytes", entities.ErrUpstream, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return nil, status, &entities.UpstreamError{Status: resp.StatusCode, Message: e.Message}
	}

	var result observationsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, status, fmt.Errorf("%w: json unmarshal error: %v", entities.ErrUpstream, err)
	}

	observations := make([]entities.Observation, 0, len(result.Observations))
	for _, row := range result.Observations {
		obs, err := row.toEntity()
		if err != nil {
			return nil, status, fmt.Errorf("%w: %v", entities.ErrUpstream, err)
		}
		observations = append(observations, obs)
	}

	return observations, status, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
