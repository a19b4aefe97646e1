package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/source"
)

type stubRepository struct {
	migrated bool
	saved    *domain.Dataset
	err      error
}

func (r *stubRepository) Migrate(context.Context) error {
	r.migrated = true
	return nil
}

func (r *stubRepository) Load(context.Context) (*domain.Dataset, error) {
	return r.saved, nil
}

func (r *stubRepository) Save(_ context.Context, dataset *domain.Dataset) error {
	if r.err != nil {
		return r.err
	}
	r.saved = dataset
	return nil
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }

func (brokenSource) Load(context.Context) (*domain.Dataset, error) {
	return nil, errors.New("unreachable")
}

func TestImportToFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "catalog.json")

	report, err := NewImporter().Import(context.Background(), source.Embedded(), NewFileSink(path))

	require.NoError(t, err)
	assert.Equal(t, 30, report.Products)
	assert.Equal(t, 17, report.Categories)
	assert.Equal(t, 4, report.MainCategories)
	assert.Empty(t, report.Issues)
	assert.Equal(t, "file:"+path, report.Sink)

	want, err := source.Embedded().Load(context.Background())
	require.NoError(t, err)
	got, err := source.NewFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportToPostgresSinkMigratesFirst(t *testing.T) {
	repo := &stubRepository{}

	_, err := NewImporter().Import(context.Background(), source.Embedded(), NewPostgresSink(repo))

	require.NoError(t, err)
	assert.True(t, repo.migrated)
	assert.Len(t, repo.saved.Products, 30)
}

func TestImportErrors(t *testing.T) {
	_, err := NewImporter().Import(context.Background(), brokenSource{}, NewPostgresSink(&stubRepository{}))
	assert.ErrorContains(t, err, "broken")

	_, err = NewImporter().Import(context.Background(), source.Embedded(), NewPostgresSink(&stubRepository{err: errors.New("tx aborted")}))
	assert.ErrorContains(t, err, "tx aborted")
}

func TestCheckReportsIssues(t *testing.T) {
	repo := &stubRepository{saved: &domain.Dataset{
		MainCategories: []domain.MainCategory{{ID: "medical", Icon: domain.IconMedical}},
		Categories:     []domain.ProductCategory{{Slug: "ecg-machines", MainCategory: "medical"}},
		Products: []domain.Product{
			{ID: "ecg-001", CategorySlug: "ecg-machines"},
			{ID: "ecg-001", CategorySlug: "retired"},
		},
	}}

	report, err := NewImporter().Check(context.Background(), source.NewPostgres(repo))

	require.NoError(t, err)
	assert.Equal(t, []domain.IntegrityIssue{
		{Kind: domain.IssueDuplicateProduct, Ref: "ecg-001"},
		{Kind: domain.IssueUnknownCategory, Ref: "ecg-001", Want: "retired"},
	}, report.Issues)
}
