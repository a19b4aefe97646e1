package container

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medlab/catalog/internal/catalog"
	"medlab/catalog/internal/config"
	"medlab/catalog/internal/quote"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Catalog: config.CatalogConfig{Source: "embedded", ResetPolicy: "reset"},
		Quote: config.QuoteConfig{
			Store:      "file",
			Key:        quote.DefaultKey,
			LegacyKeys: quote.DefaultLegacyKeys,
			DataDir:    t.TempDir(),
		},
	}
}

func TestRunLoadsCatalogueAndQuote(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Run(ctx))

	assert.Equal(t, catalog.StatusReady, c.Browser.Status())
	require.NotNil(t, c.Quote)
	assert.Zero(t, c.Quote.ItemCount())

	engine, ok := c.Browser.Engine()
	require.True(t, ok)
	product, ok := engine.Product("ecg-001")
	require.True(t, ok)
	require.NoError(t, c.Quote.AddItem(ctx, product))

	again, err := New(ctx, cfg)
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.Run(ctx))
	assert.True(t, again.Quote.Contains("ecg-001"))
}

func TestRunWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Quote.Store = "redis"
	cfg.Quote.KeyPrefix = "medlab:"
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port}
	mr.Set("medlab:requestItems", `[{"product":{"id":"fa-001","name":"Kit"},"quantity":3}]`)

	ctx := context.Background()
	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, 3, c.Quote.ItemCount())
	assert.True(t, mr.Exists("medlab:"+quote.DefaultKey))
}

func TestRunKeepsCatalogueWhenQuoteStoreFails(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Quote.Store = "redis"
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port}

	ctx := context.Background()
	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()

	mr.Close()
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, catalog.StatusReady, c.Browser.Status())
	_, err = c.QuoteManager()
	assert.Error(t, err)
	assert.Nil(t, c.Quote)
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Catalog.ResetPolicy = "sometimes"
	_, err := New(ctx, cfg)
	assert.ErrorIs(t, err, catalog.ErrUnknownResetPolicy)

	cfg = testConfig(t)
	cfg.Catalog.Source = "ftp"
	_, err = New(ctx, cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Quote.Store = "etcd"
	_, err = New(ctx, cfg)
	assert.Error(t, err)
}
