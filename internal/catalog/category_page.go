package catalog

import (
	"medlab/catalog/internal/domain"
)

// AllSubcategories disables the subcategory filter of a category page.
const AllSubcategories = "all"

// DefaultRelatedLimit is how many sibling categories a category page links to.
const DefaultRelatedLimit = 4

// CategoryPage is the listing of a single product category.
type CategoryPage struct {
	Category      domain.ProductCategory
	Main          domain.Optional[domain.MainCategory]
	Products      ProductResult // Total counts the products of this category only
	Subcategories []string
	Related       []domain.ProductCategory
}

// CategoryPage lists the products of one category, narrowed by a search term and a
// subcategory label. Results keep dataset order. The bool is false for an unknown slug.
func (e *Engine) CategoryPage(slug, search, subcategory string) (CategoryPage, bool) {
	category, ok := e.categoryBySlug[slug]
	if !ok {
		return CategoryPage{}, false
	}

	page := CategoryPage{
		Category:      category,
		Subcategories: e.Subcategories(slug),
		Related:       e.Related(slug, DefaultRelatedLimit),
	}
	if main, ok := e.mainByID[category.MainCategory]; ok {
		page.Main = domain.Some(main)
	}

	term := normalizeSearch(search)
	if subcategory == "" {
		subcategory = AllSubcategories
	}

	total := 0
	items := make([]domain.Product, 0)
	for _, p := range e.dataset.Products {
		if p.CategorySlug != slug {
			continue
		}
		total++

		if !matchesSearch(term, p.Name, p.Description) {
			continue
		}
		if subcategory != AllSubcategories {
			sub, ok := p.Subcategory.Get()
			if !ok || sub != subcategory {
				continue
			}
		}
		items = append(items, p)
	}

	page.Products = ProductResult{Items: items, Total: total, Filtered: len(items)}
	return page, true
}

// Subcategories returns the distinct subcategory labels used by the products of a
// category, in order of first appearance.
func (e *Engine) Subcategories(slug string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range e.dataset.Products {
		if p.CategorySlug != slug {
			continue
		}
		sub, ok := p.Subcategory.Get()
		if !ok || sub == "" {
			continue
		}
		if _, dup := seen[sub]; dup {
			continue
		}
		seen[sub] = struct{}{}
		out = append(out, sub)
	}
	return out
}

// Related returns up to limit other categories sharing the main category of slug.
func (e *Engine) Related(slug string, limit int) []domain.ProductCategory {
	category, ok := e.categoryBySlug[slug]
	if !ok || limit <= 0 {
		return nil
	}

	var out []domain.ProductCategory
	for _, c := range e.dataset.Categories {
		if len(out) == limit {
			break
		}
		if c.MainCategory == category.MainCategory && c.ID != category.ID {
			out = append(out, c)
		}
	}
	return out
}
