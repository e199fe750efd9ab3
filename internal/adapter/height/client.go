package height

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync/atomic"
	"time"
)

// ErrNoHeight indicates the node answered without a chain tip.
var ErrNoHeight = errors.New("node reported no chain tip")

// TooManyRequestsError represents rate limiting signal from the node.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Source reports the current block height. Reported heights never decrease.
type Source interface {
	Current(ctx context.Context) (uint64, error)
}

// HTTPSource reads the chain tip from a node's info endpoint.
type HTTPSource struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	last       atomic.Uint64
}

// infoResponse mirrors the fields used from GET /v2/info.
type infoResponse struct {
	StacksTipHeight *uint64 `json:"stacks_tip_height"`
	BurnBlockHeight uint64  `json:"burn_block_height"`
}

// NewHTTPSource creates a node backed height source with default timeout.
func NewHTTPSource(baseURL string, logger *slog.Logger) (*HTTPSource, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("node url must be absolute")
	}
	return &HTTPSource{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Current queries the node for its chain tip.
func (s *HTTPSource) Current(ctx context.Context) (uint64, error) {
	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v2/info")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, err
		}
		var data infoResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return 0, fmt.Errorf("decode node info: %w", err)
		}
		if data.StacksTipHeight == nil {
			return 0, ErrNoHeight
		}
		return s.observe(*data.StacksTipHeight), nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return 0, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("node info request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return 0, fmt.Errorf("node error: %s", resp.Status)
	}
}

// observe records h and returns the highest height seen so far.
func (s *HTTPSource) observe(h uint64) uint64 {
	for {
		last := s.last.Load()
		if h <= last {
			if h < last {
				s.logger.Warn("node reported lower height", slog.Uint64("height", h), slog.Uint64("last", last))
			}
			return last
		}
		if s.last.CompareAndSwap(last, h) {
			return h
		}
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
