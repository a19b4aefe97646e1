package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"medlab/catalog/internal/catalog"
	"medlab/catalog/internal/client"
	"medlab/catalog/internal/config"
	"medlab/catalog/internal/proxy"
	"medlab/catalog/internal/quote"
	"medlab/catalog/internal/repository"
	"medlab/catalog/internal/service"
	"medlab/catalog/internal/source"
	"medlab/catalog/internal/state"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Client   client.CatalogClient
	Source   source.Source
	Store    state.Store
	Browser  *catalog.Browser
	Importer *service.Importer

	// Quote is set by Run unless the saved quote could not be restored.
	Quote *quote.Manager

	quoteErr   error
	repository repository.CatalogRepository
	db         *pgxpool.Pool
	redis      *redis.Client
}

// New creates a container. Connections are only opened for the backends cfg selects.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:   cfg,
		Importer: service.NewImporter(),
	}

	policy, err := catalog.ParseResetPolicy(cfg.Catalog.ResetPolicy)
	if err != nil {
		return nil, err
	}
	container.Browser = catalog.NewBrowser(policy)

	deps := source.Deps{}
	switch cfg.Catalog.Source {
	case source.KindHTTP, source.KindHTML:
		container.Client = newClient(ctx, cfg.Remote)
		deps.Client = container.Client
	case source.KindPostgres:
		repo, err := container.Repository(ctx)
		if err != nil {
			container.Close()
			return nil, err
		}
		deps.Repository = repo
	}

	container.Source, err = source.New(cfg, deps)
	if err != nil {
		container.Close()
		return nil, err
	}

	opts := state.Options{
		DataDir:   cfg.Quote.DataDir,
		FileName:  cfg.Quote.FileName,
		KeyPrefix: cfg.Quote.KeyPrefix,
	}
	if cfg.Quote.Store == state.BackendRedis {
		rdb, err := container.connectRedis(ctx)
		if err != nil {
			container.Close()
			return nil, err
		}
		opts.RedisClient = rdb
	}

	container.Store, err = state.Open(cfg.Quote.Store, opts)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to open quote store: %w", err)
	}

	return container, nil
}

func newClient(ctx context.Context, cfg config.RemoteConfig) client.CatalogClient {
	var proxySupplier proxy.ProxySupplier
	if len(cfg.Proxies) > 0 {
		proxySupplier = proxy.NewProxySupplier(ctx, cfg.Proxies, cfg.BaseURL)
	}
	return client.NewCatalogClient(cfg, proxySupplier)
}

// Repository connects to postgres on first use.
func (c *Container) Repository(ctx context.Context) (repository.CatalogRepository, error) {
	if c.repository != nil {
		return c.repository, nil
	}

	db, err := pgxpool.New(ctx, c.Config.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	log.Info("✅ Connected to Postgres successfully")

	c.db = db
	c.repository = repository.NewCatalogRepository(db)
	return c.repository, nil
}

func (c *Container) connectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")

	c.redis = rdb
	return rdb, nil
}

// Run loads the catalogue and restores the saved quote concurrently.
// Only a catalogue failure is returned; a quote that cannot be restored is
// reported by QuoteManager so catalogue commands keep working.
func (c *Container) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Browser.Load(gctx, c.Source)
	})

	g.Go(func() error {
		persistence := quote.NewKeyValuePersistence(c.Store, c.Config.Quote.Key, c.Config.Quote.LegacyKeys...)
		manager, err := quote.NewManager(ctx, persistence)
		if err != nil {
			log.Warnf("⚠️ Quote not available: %v", err)
			c.quoteErr = err
			return nil
		}
		c.Quote = manager
		log.Debugf("Restored quote with %d items", manager.ItemCount())
		return nil
	})

	return g.Wait()
}

// QuoteManager returns the manager restored by Run.
func (c *Container) QuoteManager() (*quote.Manager, error) {
	if c.quoteErr != nil {
		return nil, c.quoteErr
	}
	if c.Quote == nil {
		return nil, quote.ErrNotInitialized
	}
	return c.Quote, nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return err
		}
	}
	log.Debug("Container shut down")
	return nil
}
