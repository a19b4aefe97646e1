package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/repository"
	"medlab/catalog/internal/source"
)

// Sink receives a whole dataset.
type Sink interface {
	Name() string
	Save(ctx context.Context, dataset *domain.Dataset) error
}

// Report summarizes one import or check run.
type Report struct {
	Source         string
	Sink           string
	MainCategories int
	Categories     int
	Products       int
	Issues         []domain.IntegrityIssue
	Duration       time.Duration
}

type Importer struct{}

func NewImporter() *Importer {
	return &Importer{}
}

// Check loads from and reports integrity issues without writing anything.
func (s *Importer) Check(ctx context.Context, from source.Source) (*Report, error) {
	started := time.Now()

	dataset, err := from.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", from.Name(), err)
	}

	report := newReport(from, dataset)
	report.Duration = time.Since(started)
	return report, nil
}

// Import copies the dataset of from into to. Integrity issues are logged, not fatal.
func (s *Importer) Import(ctx context.Context, from source.Source, to Sink) (*Report, error) {
	started := time.Now()
	log.Infof("🔄 Importing catalogue from %s into %s", from.Name(), to.Name())

	dataset, err := from.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", from.Name(), err)
	}
	report := newReport(from, dataset)

	if err := to.Save(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to save into %s: %w", to.Name(), err)
	}

	report.Sink = to.Name()
	report.Duration = time.Since(started)
	log.Infof("✅ Imported %d products, %d categories, %d main categories in %v",
		report.Products, report.Categories, report.MainCategories, report.Duration.Round(time.Millisecond))
	return report, nil
}

func newReport(from source.Source, dataset *domain.Dataset) *Report {
	report := &Report{
		Source:         from.Name(),
		MainCategories: len(dataset.MainCategories),
		Categories:     len(dataset.Categories),
		Products:       len(dataset.Products),
		Issues:         dataset.Validate(),
	}
	for _, issue := range report.Issues {
		log.Warnf("⚠️ %s", issue)
	}
	return report
}

type fileSink struct {
	path string
}

// NewFileSink writes the dataset as indented JSON, readable by the file source.
func NewFileSink(path string) Sink {
	return &fileSink{path: path}
}

func (s *fileSink) Name() string {
	return "file:" + s.path
}

func (s *fileSink) Save(_ context.Context, dataset *domain.Dataset) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tempFile := s.path + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dataset); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.path)
}

type postgresSink struct {
	repository repository.CatalogRepository
}

// NewPostgresSink creates the catalogue tables when missing and upserts the dataset.
func NewPostgresSink(repo repository.CatalogRepository) Sink {
	return &postgresSink{repository: repo}
}

func (s *postgresSink) Name() string {
	return "postgres"
}

func (s *postgresSink) Save(ctx context.Context, dataset *domain.Dataset) error {
	if err := s.repository.Migrate(ctx); err != nil {
		return err
	}
	return s.repository.Save(ctx, dataset)
}
