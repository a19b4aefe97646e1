package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"medlab/catalog/internal/client"
	"medlab/catalog/internal/config"
	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/repository"
)

var ErrUnknownSource = errors.New("unknown catalogue source")

const (
	KindEmbedded = "embedded"
	KindFile     = "file"
	KindHTTP     = "http"
	KindHTML     = "html"
	KindPostgres = "postgres"
)

// Source supplies a complete catalogue dataset.
type Source interface {
	Name() string
	Load(ctx context.Context) (*domain.Dataset, error)
}

// Deps are the collaborators some sources need. Only the ones the selected kind uses must be set.
type Deps struct {
	Client     client.CatalogClient
	Repository repository.CatalogRepository
}

// New selects the source configured in cfg.Catalog.Source.
func New(cfg *config.Config, deps Deps) (Source, error) {
	switch cfg.Catalog.Source {
	case KindEmbedded, "":
		return Embedded(), nil
	case KindFile:
		return NewFile(cfg.Catalog.Path), nil
	case KindHTTP:
		if deps.Client == nil {
			return nil, errors.New("http source requires a catalogue client")
		}
		path := cfg.Catalog.URL
		if path == "" {
			path = cfg.Remote.DatasetPath
		}
		return NewHTTP(deps.Client, path), nil
	case KindHTML:
		if deps.Client == nil {
			return nil, errors.New("html source requires a catalogue client")
		}
		return NewHTML(deps.Client, cfg.Remote.MaxWorkers), nil
	case KindPostgres:
		if deps.Repository == nil {
			return nil, errors.New("postgres source requires a repository")
		}
		return NewPostgres(deps.Repository), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Catalog.Source)
	}
}

func decode(data []byte) (*domain.Dataset, error) {
	var dataset domain.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &dataset, nil
}
