package dune

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/service/ratelimit"
	xhttp "MarketSentry/pkg/http"
	"MarketSentry/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

// Client implements FlowSource against the Dune query execution API.
// One saved query per metric; the client executes it with parameters and
// polls the result endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	netflowQuery int
	http         *xhttp.Client
	cache        *icache.TTLCache
	cacheTTL     time.Duration
	limiter      *ratelimit.Limiter
	retryMax     int
	pollInterval time.Duration
	logger       *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithCache attaches a response cache.
func WithCache(c *icache.TTLCache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithLimiter attaches a per-vendor rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(cl *Client) {
		cl.limiter = l
	}
}

// WithRetryMax sets the retry budget per request.
func WithRetryMax(n int) Option {
	return func(cl *Client) {
		cl.retryMax = n
	}
}

// WithNetflowQuery sets the saved query ID for the exchange netflow metric.
func WithNetflowQuery(id int) Option {
	return func(cl *Client) {
		cl.netflowQuery = id
	}
}

// New creates a new Dune flow connector.
func New(lgr *logger.Logger, baseURL, apiKey string, httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		http:         httpClient,
		retryMax:     3,
		pollInterval: 2 * time.Second,
		logger:       lgr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
}

type resultResponse struct {
	State  string `json:"state"`
	Result struct {
		Rows []map[string]interface{} `json:"rows"`
	} `json:"result"`
}

// ExchangeNetflowUSD returns the aggregate USD netflow into exchanges for an
// asset since the given time. Positive means net inflow.
func (c *Client) ExchangeNetflowUSD(ctx context.Context, asset string, since time.Time) (float64, error) {
	cacheKey := fmt.Sprintf("dune:netflow:%s:%d", asset, since.Unix())
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			return v.(float64), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "dune"); err != nil {
			return 0, fmt.Errorf("dune rate limit: %w", err)
		}
	}

	execID, err := c.execute(ctx, c.netflowQuery, map[string]string{
		"asset":      asset,
		"since_unix": strconv.FormatInt(since.Unix(), 10),
	})
	if err != nil {
		return 0, fmt.Errorf("dune execute: %w", err)
	}

	rows, err := c.pollResult(ctx, execID)
	if err != nil {
		return 0, fmt.Errorf("dune result: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	netflow, _ := rows[0]["netflow_usd"].(float64)
	if c.cache != nil {
		c.cache.Set(cacheKey, netflow, c.cacheTTL)
	}
	c.logger.Debug("dune netflow fetched",
		logger.String("asset", asset),
		logger.Float64("netflow_usd", netflow))

	return netflow, nil
}

func (c *Client) execute(ctx context.Context, queryID int, params map[string]string) (string, error) {
	var resp executeResponse
	op := func() error {
		return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     fmt.Sprintf("%s/query/%d/execute", c.baseURL, queryID),
			Headers: map[string]string{"X-Dune-API-Key": c.apiKey},
			Body:    map[string]interface{}{"query_parameters": params},
		}, &resp)
	}
	if err := c.retry(ctx, op); err != nil {
		return "", err
	}
	if resp.ExecutionID == "" {
		return "", fmt.Errorf("empty execution id")
	}
	return resp.ExecutionID, nil
}

func (c *Client) pollResult(ctx context.Context, execID string) ([]map[string]interface{}, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var resp resultResponse
		op := func() error {
			return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
				Method:  xhttp.MethodGet,
				URL:     fmt.Sprintf("%s/execution/%s/results", c.baseURL, execID),
				Headers: map[string]string{"X-Dune-API-Key": c.apiKey},
			}, &resp)
		}
		if err := c.retry(ctx, op); err != nil {
			return nil, err
		}

		switch resp.State {
		case "QUERY_STATE_COMPLETED":
			return resp.Result.Rows, nil
		case "QUERY_STATE_FAILED", "QUERY_STATE_CANCELLED":
			return nil, fmt.Errorf("execution %s ended in state %s", execID, resp.State)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.retryMax)),
		ctx,
	)
	return backoff.Retry(op, b)
}
