package grok

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/service/ratelimit"
	xhttp "MarketSentry/pkg/http"
	"MarketSentry/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

// Client implements SocialSource against the Grok live-search API. Posts come
// back with a model-assigned sentiment score in [-1, 1].
type Client struct {
	baseURL  string
	apiKey   string
	http     *xhttp.Client
	cache    *icache.TTLCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	retryMax int
	maxPosts int
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

// WithMaxPosts caps the number of posts per lookup.
func WithMaxPosts(n int) Option {
	return func(cl *Client) {
		cl.maxPosts = n
	}
}

// New creates a new Grok social connector.
func New(lgr *logger.Logger, baseURL, apiKey string, httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     httpClient,
		retryMax: 3,
		maxPosts: 200,
		logger:   lgr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postRecord struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	Author    string  `json:"author"`
	Followers int     `json:"followers"`
	Text      string  `json:"text"`
	Sentiment float64 `json:"sentiment"`
	Time      string  `json:"created_at"` // RFC3339
}

type searchResponse struct {
	Posts []postRecord `json:"posts"`
}

// RecentPosts returns sentiment-scored posts mentioning the asset since the
// given time.
func (c *Client) RecentPosts(ctx context.Context, asset string, since time.Time) ([]models.SocialPost, error) {
	cacheKey := fmt.Sprintf("grok:%s:%d", asset, since.Unix())
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			return v.([]models.SocialPost), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "grok"); err != nil {
			return nil, fmt.Errorf("grok rate limit: %w", err)
		}
	}

	var resp searchResponse
	op := func() error {
		return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     c.baseURL + "/live-search",
			Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
			Body: map[string]interface{}{
				"query":     "$" + asset,
				"sources":   []string{"x", "telegram"},
				"from_date": since.UTC().Format(time.RFC3339),
				"max_posts": c.maxPosts,
				"sentiment": true,
			},
		}, &resp)
	}
	if err := c.retry(ctx, op); err != nil {
		return nil, fmt.Errorf("grok live-search: %w", err)
	}

	out := make([]models.SocialPost, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		ts, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			continue
		}
		s := p.Sentiment
		if s < -1 {
			s = -1
		}
		if s > 1 {
			s = 1
		}
		out = append(out, models.SocialPost{
			ID:        p.ID,
			Source:    p.Source,
			Author:    p.Author,
			Followers: p.Followers,
			Text:      p.Text,
			Sentiment: s,
			Timestamp: ts.UTC(),
		})
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, out, c.cacheTTL)
	}
	c.logger.Debug("grok posts fetched",
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
