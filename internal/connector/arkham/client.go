package arkham

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/service/ratelimit"
	xhttp "MarketSentry/pkg/http"
	"MarketSentry/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

// minTransferUSD filters out retail-sized transfers at the source.
const minTransferUSD = 1_000_000

// Client implements ChainSource against the Arkham transfers API.
type Client struct {
	baseURL  string
	apiKey   string
	http     *xhttp.Client
	cache    *icache.TTLCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	retryMax int
	logger   *logger.Logger
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

// New creates a new Arkham chain connector.
func New(lgr *logger.Logger, baseURL, apiKey string, httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     httpClient,
		retryMax: 3,
		logger:   lgr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transferRecord struct {
	TxHash     string  `json:"txHash"`
	Asset      string  `json:"asset"`
	From       string  `json:"fromAddress"`
	To         string  `json:"toAddress"`
	FromEntity string  `json:"fromEntity"`
	ToEntity   string  `json:"toEntity"`
	Amount     float64 `json:"amount"`
	USDValue   float64 `json:"usdValue"`
	Time       int64   `json:"timestamp"` // unix seconds
}

type transfersResponse struct {
	Transfers []transferRecord `json:"transfers"`
}

// LargeTransfers returns transfers above the USD floor since the given time.
func (c *Client) LargeTransfers(ctx context.Context, asset string, since time.Time) ([]models.Transfer, error) {
	cacheKey := fmt.Sprintf("arkham:%s:%d", asset, since.Unix())
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			return v.([]models.Transfer), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "arkham"); err != nil {
			return nil, fmt.Errorf("arkham rate limit: %w", err)
		}
	}

	var resp transfersResponse
	op := func() error {
		return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.baseURL + "/transfers",
			Headers: map[string]string{
				"API-Key": c.apiKey,
			},
			QueryParams: map[string][]string{
				"base":       {asset},
				"usdGte":     {strconv.Itoa(minTransferUSD)},
				"timeGte":    {strconv.FormatInt(since.Unix(), 10)},
				"sortByDesc": {"time"},
			},
		}, &resp)
	}
	if err := c.retry(ctx, op); err != nil {
		return nil, fmt.Errorf("arkham transfers: %w", err)
	}

	out := make([]models.Transfer, 0, len(resp.Transfers))
	for _, r := range resp.Transfers {
		out = append(out, models.Transfer{
			TxHash:       r.TxHash,
			Asset:        r.Asset,
			From:         r.From,
			To:           r.To,
			FromEntity:   r.FromEntity,
			ToEntity:     r.ToEntity,
			Amount:       r.Amount,
			USDValue:     r.USDValue,
			Timestamp:    time.Unix(r.Time, 0).UTC(),
			ToExchange:   strings.HasPrefix(r.ToEntity, "exchange:"),
			FromExchange: strings.HasPrefix(r.FromEntity, "exchange:"),
		})
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, out, c.cacheTTL)
	}
	c.logger.Debug("arkham transfers fetched",
		logger.String("asset", asset),
		logger.Int("count", len(out)))

	return out, nil
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.retryMax)),
		ctx,
	)
	return backoff.Retry(op, b)
}
