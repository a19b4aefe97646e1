package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"medlab/catalog/internal/config"
	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/proxy"
)

var ErrRateLimited = errors.New("rate limited by catalogue server")

// CatalogClient talks to the supplier website that publishes the catalogue.
type CatalogClient interface {
	FetchDataset(ctx context.Context, path string) (*domain.Dataset, error)
	FetchIndex(ctx context.Context) (*domain.CatalogIndex, error)
	FetchCategoryPage(ctx context.Context, slug string) (*domain.CategoryListing, error)
}

type catalogClient struct {
	rl            ratelimit.Limiter
	config        config.RemoteConfig
	httpClient    *resty.Client
	parser        *catalogParser
	proxySupplier proxy.ProxySupplier
}

// NewCatalogClient builds a client for cfg.BaseURL. proxySupplier may be nil.
func NewCatalogClient(cfg config.RemoteConfig, proxySupplier proxy.ProxySupplier) CatalogClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(max(cfg.MaxRetries, 0)).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using proxy: %s", proxyURL)
		}
	}

	return &catalogClient{
		rl:            newLimiter(cfg.MaxRequestsPerSecond),
		config:        cfg,
		httpClient:    client,
		parser:        newCatalogParser(cfg.BaseURL),
		proxySupplier: proxySupplier,
	}
}

func newLimiter(perSecond int) ratelimit.Limiter {
	if perSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(perSecond)
}

// FetchDataset downloads a JSON dataset. path may be relative to the base URL or absolute.
func (c *catalogClient) FetchDataset(ctx context.Context, path string) (*domain.Dataset, error) {
	body, err := c.fetch(ctx, path, "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}

	var dataset domain.Dataset
	if err := json.Unmarshal([]byte(body), &dataset); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	log.Debugf("Fetched dataset with %d products", len(dataset.Products))
	return &dataset, nil
}

func (c *catalogClient) FetchIndex(ctx context.Context) (*domain.CatalogIndex, error) {
	html, err := c.fetch(ctx, "/products", "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML for catalogue index: %w", err)
	}

	index, err := c.parser.ParseIndex(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalogue index: %w", err)
	}
	return index, nil
}

func (c *catalogClient) FetchCategoryPage(ctx context.Context, slug string) (*domain.CategoryListing, error) {
	html, err := c.fetch(ctx, "/products/"+url.PathEscape(slug), "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML for category %s: %w", slug, err)
	}

	listing, err := c.parser.ParseCategoryPage(html, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category %s: %w", slug, err)
	}
	return listing, nil
}

func (c *catalogClient) fetch(ctx context.Context, path, accept string) (string, error) {
	c.rl.Take()

	resp, err := c.get(ctx, path, accept)
	if err != nil {
		return "", err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Rate limited on %s", path)

		newProxy := ""
		if c.proxySupplier != nil && c.proxySupplier.Len() > 1 {
			newProxy = c.proxySupplier.Get()
		}
		if newProxy == "" {
			return "", ErrRateLimited
		}

		log.Infof("🔄 Switching to proxy %s and retrying", newProxy)
		c.httpClient.SetProxy(newProxy)

		resp, err = c.get(ctx, path, accept)
		if err != nil {
			return "", err
		}
		if resp.StatusCode() == http.StatusTooManyRequests {
			return "", ErrRateLimited
		}
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %s", resp.Status())
	}

	return resp.String(), nil
}

func (c *catalogClient) get(ctx context.Context, path, accept string) (*resty.Response, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", accept).
		Get(path)

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	return resp, nil
}
