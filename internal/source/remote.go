package source

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"medlab/catalog/internal/client"
	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/repository"
)

type httpSource struct {
	client client.CatalogClient
	path   string
}

// NewHTTP loads a JSON dataset published by the supplier site.
func NewHTTP(c client.CatalogClient, path string) Source {
	return &httpSource{client: c, path: path}
}

func (s *httpSource) Name() string {
	return KindHTTP + ":" + s.path
}

func (s *httpSource) Load(ctx context.Context) (*domain.Dataset, error) {
	return s.client.FetchDataset(ctx, s.path)
}

type htmlSource struct {
	client     client.CatalogClient
	maxWorkers int
}

// NewHTML rebuilds the dataset from the published catalogue pages.
func NewHTML(c client.CatalogClient, maxWorkers int) Source {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &htmlSource{client: c, maxWorkers: maxWorkers}
}

func (s *htmlSource) Name() string {
	return KindHTML
}

func (s *htmlSource) Load(ctx context.Context) (*domain.Dataset, error) {
	index, err := s.client.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	log.Infof("🔄 Fetching %d category pages", len(index.Categories))

	listings := make([]*domain.CategoryListing, len(index.Categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)
	for i, category := range index.Categories {
		g.Go(func() error {
			listing, err := s.client.FetchCategoryPage(gctx, category.Slug)
			if err != nil {
				return err
			}
			listings[i] = listing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch category pages: %w", err)
	}

	dataset := &domain.Dataset{
		MainCategories: index.MainCategories,
		Categories:     index.Categories,
		Products:       make([]domain.Product, 0),
	}
	seen := make(map[string]struct{})
	for _, listing := range listings {
		for _, p := range listing.Products {
			if _, dup := seen[p.ID]; dup {
				log.Debugf("Product %s listed on more than one page, keeping the first", p.ID)
				continue
			}
			seen[p.ID] = struct{}{}
			dataset.Products = append(dataset.Products, p)
		}
	}

	log.Infof("✅ Scraped %d products from %d categories", len(dataset.Products), len(dataset.Categories))
	return dataset, nil
}

type postgresSource struct {
	repository repository.CatalogRepository
}

func NewPostgres(repo repository.CatalogRepository) Source {
	return &postgresSource{repository: repo}
}

func (s *postgresSource) Name() string {
	return KindPostgres
}

func (s *postgresSource) Load(ctx context.Context) (*domain.Dataset, error) {
	return s.repository.Load(ctx)
}
