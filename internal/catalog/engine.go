package catalog

import (
	"errors"
	"fmt"
	"slices"

	"medlab/catalog/internal/domain"
)

// Engine answers catalogue queries over a static dataset. It holds no query state and
// never modifies the dataset; every method is a pure function of its arguments.
type Engine struct {
	dataset        *domain.Dataset
	mainByID       map[string]domain.MainCategory
	categoryBySlug map[string]domain.ProductCategory
	productByID    map[string]domain.Product
	sorts          map[SortOption]SortSpec
}

var ErrUnknownSort = errors.New("unknown sort option")

type EngineOption func(*Engine)

// WithSort registers an additional ordering, or replaces an existing one.
func WithSort(opt SortOption, spec SortSpec) EngineOption {
	return func(e *Engine) {
		e.sorts[opt] = spec
	}
}

func NewEngine(dataset *domain.Dataset, opts ...EngineOption) *Engine {
	if dataset == nil {
		dataset = &domain.Dataset{}
	}

	e := &Engine{
		dataset:        dataset,
		mainByID:       make(map[string]domain.MainCategory, len(dataset.MainCategories)),
		categoryBySlug: make(map[string]domain.ProductCategory, len(dataset.Categories)),
		productByID:    make(map[string]domain.Product, len(dataset.Products)),
		sorts:          defaultSorts(),
	}

	// First occurrence wins on duplicates; Dataset.Validate reports them.
	for _, m := range dataset.MainCategories {
		if _, ok := e.mainByID[m.ID]; !ok {
			e.mainByID[m.ID] = m
		}
	}
	for _, c := range dataset.Categories {
		if _, ok := e.categoryBySlug[c.Slug]; !ok {
			e.categoryBySlug[c.Slug] = c
		}
	}
	for _, p := range dataset.Products {
		if _, ok := e.productByID[p.ID]; !ok {
			e.productByID[p.ID] = p
		}
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ParseSort resolves opt against the registered orderings. Empty means DefaultSort.
func (e *Engine) ParseSort(opt SortOption) (SortOption, error) {
	opt = normalizeSort(opt)
	if opt == SortNone {
		return opt, nil
	}
	if _, ok := e.sorts[opt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, opt)
	}
	return opt, nil
}

func (e *Engine) Dataset() *domain.Dataset {
	return e.dataset
}

// Products filters the product collection by category and search term and sorts it.
func (e *Engine) Products(q ProductQuery) ProductResult {
	category := normalizeCategory(q.Category)
	term := normalizeSearch(q.Search)

	items := make([]domain.Product, 0, len(e.dataset.Products))
	for _, p := range e.dataset.Products {
		if !e.productInCategory(p, category) {
			continue
		}
		if !matchesSearch(term, p.Name, p.Description) {
			continue
		}
		items = append(items, p)
	}

	if spec, ok := e.sorts[normalizeSort(q.Sort)]; ok && spec.Products != nil {
		slices.SortStableFunc(items, spec.Products())
	}

	return ProductResult{
		Items:    items,
		Total:    len(e.dataset.Products),
		Filtered: len(items),
	}
}

// Categories filters the product category collection. Search also looks at the
// subcategory labels and the name of the owning main category.
func (e *Engine) Categories(q CategoryQuery) CategoryResult {
	category := normalizeCategory(q.Category)
	term := normalizeSearch(q.Search)

	items := make([]domain.ProductCategory, 0, len(e.dataset.Categories))
	for _, c := range e.dataset.Categories {
		main, hasMain := e.mainByID[c.MainCategory]

		if category != AllCategories && !(hasMain && main.ID == category) && c.Slug != category {
			continue
		}

		fields := append([]string{c.Name, c.Description}, c.Subcategories...)
		if hasMain {
			fields = append(fields, main.Name)
		}
		if !matchesSearch(term, fields...) {
			continue
		}

		if q.FeaturedOnly && !c.Featured {
			continue
		}

		items = append(items, c)
	}

	if spec, ok := e.sorts[normalizeSort(q.Sort)]; ok && spec.Categories != nil {
		slices.SortStableFunc(items, spec.Categories())
	}

	return CategoryResult{
		Items:    items,
		Total:    len(e.dataset.Categories),
		Filtered: len(items),
	}
}

// productInCategory matches "all", the resolved main category id, or the product's own slug.
// A product whose category does not resolve only appears under "all".
func (e *Engine) productInCategory(p domain.Product, category string) bool {
	if category == AllCategories {
		return true
	}

	c, ok := e.categoryBySlug[p.CategorySlug]
	if !ok {
		return false
	}
	if c.Slug == category {
		return true
	}

	main, ok := e.mainByID[c.MainCategory]
	return ok && main.ID == category
}

func (e *Engine) Product(id string) (domain.Product, bool) {
	p, ok := e.productByID[id]
	return p, ok
}

func (e *Engine) Category(slug string) (domain.ProductCategory, bool) {
	c, ok := e.categoryBySlug[slug]
	return c, ok
}

func (e *Engine) MainCategory(id string) (domain.MainCategory, bool) {
	m, ok := e.mainByID[id]
	return m, ok
}

// MainCategoryOf resolves the main category a product belongs to through its category.
func (e *Engine) MainCategoryOf(p domain.Product) (domain.MainCategory, bool) {
	c, ok := e.categoryBySlug[p.CategorySlug]
	if !ok {
		return domain.MainCategory{}, false
	}
	return e.MainCategory(c.MainCategory)
}

func (e *Engine) MainCategories() []domain.MainCategory {
	return slices.Clone(e.dataset.MainCategories)
}

// Featured returns the featured product categories in dataset order.
func (e *Engine) Featured() []domain.ProductCategory {
	var out []domain.ProductCategory
	for _, c := range e.dataset.Categories {
		if c.Featured {
			out = append(out, c)
		}
	}
	return out
}
