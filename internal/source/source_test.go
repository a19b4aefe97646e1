package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medlab/catalog/internal/config"
	"medlab/catalog/internal/domain"
)

type fakeClient struct {
	index    *domain.CatalogIndex
	pages    map[string][]domain.Product
	failSlug string
	fetched  atomic.Int32
}

func (f *fakeClient) FetchDataset(ctx context.Context, path string) (*domain.Dataset, error) {
	return &domain.Dataset{Products: []domain.Product{{ID: path}}}, nil
}

func (f *fakeClient) FetchIndex(ctx context.Context) (*domain.CatalogIndex, error) {
	return f.index, nil
}

func (f *fakeClient) FetchCategoryPage(ctx context.Context, slug string) (*domain.CategoryListing, error) {
	f.fetched.Add(1)
	if slug == f.failSlug {
		return nil, errors.New("503")
	}
	return &domain.CategoryListing{Slug: slug, Products: f.pages[slug]}, nil
}

func TestEmbeddedDatasetIsConsistent(t *testing.T) {
	dataset, err := Embedded().Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, dataset.MainCategories, 4)
	assert.Len(t, dataset.Categories, 17)
	assert.Len(t, dataset.Products, 30)
	assert.Empty(t, dataset.Validate())

	first := dataset.Products[0]
	assert.Equal(t, "ecg-001", first.ID)
	assert.Equal(t, domain.Some("CardioMax"), first.Brand)
	assert.Len(t, first.Features, 3)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, embeddedCatalog, 0o644))

	dataset, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, dataset.Products, 30)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background())
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = NewFile(path).Load(context.Background())
	assert.Error(t, err)
}

func TestHTMLSourceAssemblesPagesInIndexOrder(t *testing.T) {
	c := &fakeClient{
		index: &domain.CatalogIndex{
			MainCategories: []domain.MainCategory{{ID: "medical", Icon: domain.IconMedical}},
			Categories: []domain.ProductCategory{
				{Slug: "ecg-machines", MainCategory: "medical"},
				{Slug: "defibrillators", MainCategory: "medical"},
				{Slug: "empty", MainCategory: "medical"},
			},
		},
		pages: map[string][]domain.Product{
			"ecg-machines":   {{ID: "ecg-001", CategorySlug: "ecg-machines"}, {ID: "ecg-002", CategorySlug: "ecg-machines"}},
			"defibrillators": {{ID: "df-001", CategorySlug: "defibrillators"}, {ID: "ecg-001", CategorySlug: "ecg-machines"}},
		},
	}

	dataset, err := NewHTML(c, 2).Load(context.Background())

	require.NoError(t, err)
	ids := make([]string, 0, len(dataset.Products))
	for _, p := range dataset.Products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"ecg-001", "ecg-002", "df-001"}, ids)
	assert.Len(t, dataset.Categories, 3)
	assert.EqualValues(t, 3, c.fetched.Load())
}

func TestHTMLSourceFailsOnPageError(t *testing.T) {
	c := &fakeClient{
		index: &domain.CatalogIndex{Categories: []domain.ProductCategory{{Slug: "a"}, {Slug: "b"}}},
		failSlug: "b",
	}

	_, err := NewHTML(c, 1).Load(context.Background())
	assert.ErrorContains(t, err, "503")
}

func TestNewSelectsSource(t *testing.T) {
	cfg := &config.Config{
		Catalog: config.CatalogConfig{Path: "/srv/catalog.json"},
		Remote:  config.RemoteConfig{DatasetPath: "/data/catalog.json", MaxWorkers: 2},
	}
	deps := Deps{Client: &fakeClient{}}

	cases := map[string]string{
		"":         KindEmbedded,
		"embedded": KindEmbedded,
		"file":     "file:/srv/catalog.json",
		"http":     "http:/data/catalog.json",
		"html":     KindHTML,
	}
	for kind, name := range cases {
		cfg.Catalog.Source = kind
		s, err := New(cfg, deps)
		require.NoError(t, err, kind)
		assert.Equal(t, name, s.Name(), kind)
	}

	cfg.Catalog.Source = "http"
	cfg.Catalog.URL = "https://cdn.example/catalog.json"
	s, err := New(cfg, deps)
	require.NoError(t, err)
	dataset, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/catalog.json", dataset.Products[0].ID)

	cfg.Catalog.Source = "postgres"
	_, err = New(cfg, deps)
	assert.Error(t, err)

	cfg.Catalog.Source = "ftp"
	_, err = New(cfg, deps)
	assert.ErrorIs(t, err, ErrUnknownSource)
}
