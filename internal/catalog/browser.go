package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"medlab/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownResetPolicy = errors.New("unknown reset policy")

// Status tells a renderer whether an empty result means "nothing matched" or
// "nothing loaded yet".
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResetPolicy decides what happens to search and featured-only when the category changes.
type ResetPolicy string

const (
	ResetOnCategoryChange ResetPolicy = "reset"
	KeepFilters           ResetPolicy = "keep"
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch ResetPolicy(s) {
	case "", ResetOnCategoryChange:
		return ResetOnCategoryChange, nil
	case KeepFilters:
		return KeepFilters, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResetPolicy, s)
	}
}

// DatasetLoader supplies the static catalogue.
type DatasetLoader interface {
	Name() string
	Load(ctx context.Context) (*domain.Dataset, error)
}

// View is the derived state of a Browser at one point in time.
type View struct {
	Status       Status
	Err          error
	Query        ProductQuery
	FeaturedOnly bool
	Products     ProductResult
	Categories   CategoryResult
}

// Browser keeps the user's current filter inputs together with the load state of the
// dataset, and derives the visible results on demand.
type Browser struct {
	mu           sync.RWMutex
	policy       ResetPolicy
	engineOpts   []EngineOption
	status       Status
	err          error
	engine       *Engine
	query        ProductQuery
	featuredOnly bool
}

func NewBrowser(policy ResetPolicy, opts ...EngineOption) *Browser {
	if policy == "" {
		policy = ResetOnCategoryChange
	}
	return &Browser{
		policy:     policy,
		engineOpts: opts,
		query:      ProductQuery{Category: AllCategories, Sort: DefaultSort},
	}
}

// Load fetches the dataset and builds the engine. On failure the browser stays usable
// and reports StatusFailed until the next successful Load.
func (b *Browser) Load(ctx context.Context, loader DatasetLoader) error {
	b.mu.Lock()
	b.status = StatusLoading
	b.err = nil
	b.mu.Unlock()

	dataset, err := loader.Load(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.status = StatusFailed
		b.err = err
		b.engine = nil
		return fmt.Errorf("failed to load catalogue from %s: %w", loader.Name(), err)
	}

	for _, issue := range dataset.Validate() {
		log.WithField("source", loader.Name()).Warnf("catalogue integrity: %s", issue)
	}

	b.engine = NewEngine(dataset, b.engineOpts...)
	b.status = StatusReady
	log.Debugf("Loaded catalogue from %s: %d products, %d categories",
		loader.Name(), len(dataset.Products), len(dataset.Categories))
	return nil
}

// Engine returns the engine once the dataset is loaded.
func (b *Browser) Engine() (*Engine, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine, b.status == StatusReady
}

func (b *Browser) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetCategory changes the category filter. Under ResetOnCategoryChange a real change
// also clears the search term and the featured-only flag.
func (b *Browser) SetCategory(category string) {
	category = normalizeCategory(category)

	b.mu.Lock()
	defer b.mu.Unlock()

	if category == b.query.Category {
		return
	}
	b.query.Category = category
	if b.policy == ResetOnCategoryChange {
		b.query.Search = ""
		b.featuredOnly = false
	}
}

func (b *Browser) SetSearch(term string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Search = term
}

func (b *Browser) SetSort(opt SortOption) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Sort = normalizeSort(opt)
}

func (b *Browser) SetFeaturedOnly(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.featuredOnly = on
}

// ClearFilters resets category, search and featured-only. The sort order is kept.
func (b *Browser) ClearFilters() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Category = AllCategories
	b.query.Search = ""
	b.featuredOnly = false
}

func (b *Browser) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{
		Status:       b.status,
		Err:          b.err,
		Query:        b.query,
		FeaturedOnly: b.featuredOnly,
		Products:     ProductResult{Items: []domain.Product{}},
		Categories:   CategoryResult{Items: []domain.ProductCategory{}},
	}
	if b.status != StatusReady {
		return v
	}

	v.Products = b.engine.Products(b.query)
	v.Categories = b.engine.Categories(CategoryQuery{
		Category:     b.query.Category,
		Search:       b.query.Search,
		Sort:         b.query.Sort,
		FeaturedOnly: b.featuredOnly,
	})
	return v
}
